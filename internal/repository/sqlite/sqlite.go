package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"vlanislands/internal/domain"
	"vlanislands/internal/repository"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Repository implements repository.RunRepository using SQLite
type Repository struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ repository.RunRepository = (*Repository)(nil)

// New opens (creating if needed) the SQLite database at dbPath.
// ":memory:" yields a private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer; also keeps an in-memory database on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT,
		policy TEXT NOT NULL,
		input_digest TEXT NOT NULL,
		report_digest TEXT NOT NULL,
		device_count INTEGER NOT NULL DEFAULT 0,
		link_count INTEGER NOT NULL DEFAULT 0,
		vlan_count INTEGER NOT NULL DEFAULT 0,
		unhealthy_count INTEGER NOT NULL DEFAULT 0,
		total_islands INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		report JSON
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveRun inserts or replaces a run. A missing ID is generated and a zero
// CreatedAt is set to now; both are written back to run.
func (r *Repository) SaveRun(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	reportJSON, err := marshalToNull(run.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (`+runColumns+`, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, stringToNull(run.Source), run.Policy, run.InputDigest, run.ReportDigest,
		run.DeviceCount, run.LinkCount, run.VlanCount, run.UnhealthyCount, run.TotalIslands,
		run.CreatedAt.UnixNano(), reportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun loads a run with its report
func (r *Repository) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+`, report FROM runs WHERE id = ?`, id)
	return scanRun(row, id)
}

// LatestRun loads the most recent run, optionally restricted to a source
func (r *Repository) LatestRun(ctx context.Context, source string) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + runColumns + `, report FROM runs`
	var args []interface{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	return scanRun(r.db.QueryRowContext(ctx, query, args...), "latest")
}

// ListRuns returns run summaries, newest first
func (r *Repository) ListRuns(ctx context.Context, opts repository.ListOptions) ([]*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []interface{}
	if opts.Source != "" {
		query += ` AND source = ?`
		args = append(args, opts.Source)
	}
	if opts.UnhealthyOnly {
		query += ` AND unhealthy_count > 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*domain.Run{}
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs(false)...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
	}

	return nil
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}

func scanRun(row *sql.Row, id string) (*domain.Run, error) {
	var rr runRow
	if err := row.Scan(rr.scanArgs(true)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return rr.toDomain()
}
