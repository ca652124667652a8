package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/citedash/internal/aggregate"
)

// ErrNoSnapshot is returned when no snapshot matches a lookup.
var ErrNoSnapshot = errors.New("no snapshot")

// Snapshot is the headline metrics of a dashboard at one point in time.
type Snapshot struct {
	ID                 string    `json:"id"`
	Dashboard          string    `json:"dashboard"`
	TakenAt            time.Time `json:"taken_at"`
	DataHash           string    `json:"data_hash,omitempty"`
	TotalRecords       int       `json:"total_records"`
	TotalCitations     int       `json:"total_citations"`
	HIndex             int       `json:"h_index"`
	ImplementationRate float64   `json:"implementation_rate"`
	Watersheds         int       `json:"watersheds"`
}

// NewSnapshot captures m for dashboard. ID and TakenAt are filled in by Save.
func NewSnapshot(dashboard, dataHash string, m aggregate.Metrics) Snapshot {
	return Snapshot{
		Dashboard:          dashboard,
		DataHash:           dataHash,
		TotalRecords:       m.TotalRecords,
		TotalCitations:     m.TotalCitations,
		HIndex:             m.HIndex,
		ImplementationRate: m.ImplementationRate,
		Watersheds:         m.Watersheds,
	}
}

// Baseline converts the snapshot into a trend baseline.
func (s Snapshot) Baseline() aggregate.Baseline {
	return aggregate.Baseline{
		TotalCitations:     s.TotalCitations,
		HIndex:             s.HIndex,
		ImplementationRate: s.ImplementationRate,
		Watersheds:         s.Watersheds,
	}
}

// SnapshotDB wraps the SQLite snapshot database.
type SnapshotDB struct {
	db  *sql.DB
	now func() time.Time
}

const selectSnapshotFields = `id, dashboard, taken_at, data_hash,
	total_records, total_citations, h_index, implementation_rate, watersheds`

// OpenSnapshotDB opens or creates the snapshot database at path, creating
// its directory if needed.
func OpenSnapshotDB(path string) (*SnapshotDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSnapshotSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SnapshotDB{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (d *SnapshotDB) Close() error {
	return d.db.Close()
}

func createSnapshotSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			dashboard TEXT NOT NULL,
			taken_at INTEGER NOT NULL,
			data_hash TEXT,
			total_records INTEGER NOT NULL,
			total_citations INTEGER NOT NULL,
			h_index INTEGER NOT NULL,
			implementation_rate REAL NOT NULL,
			watersheds INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_dashboard_time ON snapshots(dashboard, taken_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Save stores s, assigning an ID and the current time when they are unset,
// and returns the stored snapshot.
func (d *SnapshotDB) Save(s Snapshot) (Snapshot, error) {
	if s.Dashboard == "" {
		return Snapshot{}, errors.New("snapshot has no dashboard")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.TakenAt.IsZero() {
		s.TakenAt = d.now()
	}
	s.TakenAt = s.TakenAt.UTC().Truncate(time.Millisecond)

	_, err := d.db.Exec(`INSERT INTO snapshots (`+selectSnapshotFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Dashboard, s.TakenAt.UnixMilli(), nullableString(s.DataHash),
		s.TotalRecords, s.TotalCitations, s.HIndex, s.ImplementationRate, s.Watersheds)
	if err != nil {
		return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return s, nil
}

// LatestBefore returns the newest snapshot of dashboard taken strictly
// before t, or ErrNoSnapshot.
func (d *SnapshotDB) LatestBefore(dashboard string, t time.Time) (*Snapshot, error) {
	row := d.db.QueryRow(`SELECT `+selectSnapshotFields+` FROM snapshots
		WHERE dashboard = ? AND taken_at < ?
		ORDER BY taken_at DESC LIMIT 1`, dashboard, t.UnixMilli())

	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return s, nil
}

// List returns up to limit snapshots of dashboard, newest first. limit <= 0
// returns all.
func (d *SnapshotDB) List(dashboard string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`SELECT `+selectSnapshotFields+` FROM snapshots
		WHERE dashboard = ? ORDER BY taken_at DESC LIMIT ?`, dashboard, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (*Snapshot, error) {
	var (
		snap     Snapshot
		takenAt  int64
		dataHash sql.NullString
	)
	err := s.Scan(&snap.ID, &snap.Dashboard, &takenAt, &dataHash,
		&snap.TotalRecords, &snap.TotalCitations, &snap.HIndex,
		&snap.ImplementationRate, &snap.Watersheds)
	if err != nil {
		return nil, err
	}
	snap.TakenAt = time.UnixMilli(takenAt).UTC()
	snap.DataHash = dataHash.String
	return &snap, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
