package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the SQLite database.
type DB struct {
	conn *sql.DB
}

// BranchCreation records one branch created through branchsmith.
type BranchCreation struct {
	ID           int64     `json:"id"`
	RepoOwner    string    `json:"repo_owner"`
	RepoName     string    `json:"repo_name"`
	Provider     string    `json:"provider"`
	Branch       string    `json:"branch"`
	SourceBranch string    `json:"source_branch"`
	WorkItemID   int       `json:"work_item_id"`
	RuleName     string    `json:"rule_name"`
	StateUpdated bool      `json:"state_updated"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open creates a new DB connection and runs all pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for use by other packages if needed.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// migrate applies the embedded goose migrations. Each migration runs in its
// own transaction.
func (d *DB) migrate(ctx context.Context) error {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, d.conn, migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// --- Config Methods ---

// GetConfig returns the value for a configuration key, or the fallback if not set.
func (d *DB) GetConfig(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("get config %q: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts a configuration key-value pair.
func (d *DB) SetConfig(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = datetime('now')`,
		key, value, value,
	)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

// --- Branch creation history ---

// InsertBranchCreation records a created branch and returns its row ID.
// A zero CreatedAt is stamped with the current time.
func (d *DB) InsertBranchCreation(ctx context.Context, b *BranchCreation) (int64, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO branch_creations
		 (repo_owner, repo_name, provider, branch, source_branch, work_item_id, rule_name, state_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.RepoOwner, b.RepoName, b.Provider, b.Branch, b.SourceBranch, b.WorkItemID, b.RuleName,
		boolToInt(b.StateUpdated), b.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert branch creation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert branch creation: %w", err)
	}
	b.ID = id
	return id, nil
}

// ListBranchCreations returns recorded creations, newest first.
func (d *DB) ListBranchCreations(ctx context.Context, limit, offset int) ([]BranchCreation, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, repo_owner, repo_name, provider, branch, source_branch, work_item_id, rule_name, state_updated, created_at
		 FROM branch_creations ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list branch creations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []BranchCreation
	for rows.Next() {
		var (
			b         BranchCreation
			updated   int
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.RepoOwner, &b.RepoName, &b.Provider, &b.Branch, &b.SourceBranch,
			&b.WorkItemID, &b.RuleName, &updated, &createdAt); err != nil {
			return nil, fmt.Errorf("scan branch creation: %w", err)
		}
		b.StateUpdated = updated != 0
		if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
