package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/storage"
)

var snapshotLimit int

func init() {
	snapshotListCmd.Flags().IntVarP(&snapshotLimit, "limit", "n", 20, "Maximum snapshots to list (0 for all)")
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record and list metric snapshots",
	Long: `Snapshots store a dashboard's headline metrics in SQLite. The summary
trends compare the current metrics against the latest earlier snapshot.`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current metrics of a dashboard",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotSave,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	d := mustLoadDashboard(cmd.Context())
	db := mustOpenSnapshots(mustLoadConfig())
	defer db.Close()

	saved, err := db.Save(storage.NewSnapshot(d.Name, d.DataHash, d.Metrics()))
	if err != nil {
		exitWithError(ExitError, "saving snapshot: %v", err)
	}

	logger.Info("saved snapshot",
		zap.String("dashboard", saved.Dashboard),
		zap.String("id", saved.ID),
		zap.Int("citations", saved.TotalCitations))

	if humanOutput {
		fmt.Printf("Saved snapshot %s of %s: %d records, %d citations, h-index %d\n",
			saved.ID, saved.Dashboard, saved.TotalRecords, saved.TotalCitations, saved.HIndex)
		return nil
	}
	return outputJSON(saved)
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	def, err := resolveDashboard(cfg)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	db := mustOpenSnapshots(cfg)
	defer db.Close()

	snaps, err := db.List(def.Name, snapshotLimit)
	if err != nil {
		exitWithError(ExitError, "listing snapshots: %v", err)
	}

	if !humanOutput {
		return outputJSON(snaps)
	}
	if len(snaps) == 0 {
		fmt.Printf("No snapshots for %s.\n", def.Name)
		return nil
	}
	fmt.Printf("%-17s %8s %10s %8s %8s %11s\n", "Taken", "Records", "Citations", "h-index", "Impl %", "Watersheds")
	for _, s := range snaps {
		fmt.Printf("%-17s %8d %10d %8d %8.1f %11d\n", s.TakenAt.Local().Format("2006-01-02 15:04"),
			s.TotalRecords, s.TotalCitations, s.HIndex, s.ImplementationRate, s.Watersheds)
	}
	return nil
}
