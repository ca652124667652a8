package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/github"
)

var githubRepo string

func init() {
	githubCmd.Flags().StringVar(&githubRepo, "repo", "", "owner/repo or GitHub URL (default: the dashboard's github setting)")
	rootCmd.AddCommand(githubCmd)
}

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Show GitHub statistics of the model's repository",
	Long: `Show stars, forks, open issues, contributors and top languages.

Set GITHUB_TOKEN (or github_token in the config) to raise the API rate limit.`,
	Args: cobra.NoArgs,
	RunE: runGitHub,
}

func runGitHub(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	repo := githubRepo
	if repo == "" {
		def, err := resolveDashboard(cfg)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		repo = def.GitHub
	}
	if repo == "" {
		exitWithError(ExitConfigError, "no repository: pass --repo or set github for the dashboard")
	}

	client := github.NewClient(github.WithToken(cfg.GitHubToken), github.WithLogger(logger))
	stats, err := client.FetchStats(cmd.Context(), repo)
	if err != nil {
		exitWithError(githubExitCode(err), "%v", err)
	}

	if !humanOutput {
		outputJSON(stats)
		return nil
	}

	fmt.Printf("%s/%s  %s\n", stats.Owner, stats.Repo, stats.URL)
	if stats.Description != "" {
		fmt.Printf("%s\n", stats.Description)
	}
	fmt.Printf("\nStars: %d  Forks: %d  Open issues: %d  Contributors: %d\n", stats.Stars, stats.Forks, stats.OpenIssues, stats.Contributors)
	if stats.License != "" {
		fmt.Printf("License: %s\n", stats.License)
	}
	if len(stats.Languages) > 0 {
		parts := make([]string, len(stats.Languages))
		for i, l := range stats.Languages {
			parts[i] = fmt.Sprintf("%s %.1f%%", l.Name, l.Percentage)
		}
		fmt.Printf("Languages: %s\n", strings.Join(parts, ", "))
	}
	return nil
}

func githubExitCode(err error) int {
	switch {
	case errors.Is(err, github.ErrInvalidURL):
		return ExitConfigError
	case errors.Is(err, context.Canceled):
		return ExitError
	default:
		return ExitRemoteError
	}
}
