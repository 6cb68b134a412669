// Package archive keeps a SQLite history of simulation runs and fleet
// searches so results can be listed and compared across invocations.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hddwater/bargesim/sim"
)

// Kind names what produced an entry.
type Kind string

const (
	KindRun         Kind = "run"
	KindBruteForce  Kind = "brute-force"
	KindLocal       Kind = "local"
	KindSmart       Kind = "smart"
	KindSensitivity Kind = "sensitivity"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("archive entry not found")

// Entry is one archived result. Detail carries the full JSON document of
// the result and may be empty.
type Entry struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Project     string          `json:"project"`
	Fleet       sim.Fleet       `json:"fleet"`
	Cost        float64         `json:"cost"`
	Score       float64         `json:"score"`
	RanDryCount int             `json:"ranDryCount"`
	Tested      int             `json:"tested"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Store is a SQLite-backed archive.
type Store struct {
	db *sql.DB
}

// Open creates the database file and its directory if needed and migrates
// the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		fleet TEXT NOT NULL,
		cost REAL NOT NULL,
		score REAL NOT NULL,
		ran_dry INTEGER NOT NULL,
		tested INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_kind ON results(kind);
	CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at);
	`)
	return err
}

// Record stores e with a fresh id and creation time and returns the stored
// entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	fleet, err := json.Marshal(e.Fleet)
	if err != nil {
		return Entry{}, err
	}
	var detail sql.NullString
	if len(e.Detail) > 0 {
		detail = sql.NullString{String: string(e.Detail), Valid: true}
	}
	err = retryOp(defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO results (id, kind, project, fleet, cost, score, ran_dry, tested, detail, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, string(e.Kind), e.Project, string(fleet), e.Cost, e.Score, e.RanDryCount, e.Tested, detail, e.CreatedAt)
		return err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return e, nil
}

// RecordReport archives a single simulation report.
func (s *Store) RecordReport(ctx context.Context, project string, r *sim.Report) (Entry, error) {
	detail, err := json.Marshal(r)
	if err != nil {
		return Entry{}, err
	}
	return s.Record(ctx, Entry{
		Kind:        KindRun,
		Project:     project,
		Fleet:       r.Fleet,
		Cost:        r.Costs.GrandTotal,
		Score:       r.Score,
		RanDryCount: r.RanDryCount,
		Tested:      1,
		Detail:      detail,
	})
}

// Get returns the entry with the given id, including its detail.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, project, fleet, cost, score, ran_dry, tested, detail, created_at
		 FROM results WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns entries newest first without their detail. An empty kind
// lists every kind; a limit of zero or less lists all.
func (s *Store) List(ctx context.Context, kind Kind, limit int) ([]Entry, error) {
	q := `SELECT id, kind, project, fleet, cost, score, ran_dry, tested, NULL, created_at FROM results`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	q += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes an entry. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return retryOp(defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
		return err
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e      Entry
		kind   string
		fleet  string
		detail sql.NullString
	)
	if err := sc.Scan(&e.ID, &kind, &e.Project, &fleet, &e.Cost, &e.Score, &e.RanDryCount, &e.Tested, &detail, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(fleet), &e.Fleet); err != nil {
		return Entry{}, fmt.Errorf("decode fleet of %s: %w", e.ID, err)
	}
	if detail.Valid {
		e.Detail = json.RawMessage(detail.String)
	}
	return e, nil
}
