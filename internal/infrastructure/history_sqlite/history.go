package history_sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
	_ "modernc.org/sqlite"
)

// Store is a local, append-only log of applied health snapshots.
type Store struct {
	db *sql.DB
}

type Record struct {
	Tenant    domain.TenantID
	Health    domain.HealthSnapshot
	Retrieved time.Time
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// one writer; also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS health_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			status TEXT NOT NULL,
			last_sync_time TEXT,
			last_error TEXT,
			retrieved INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_health_history_tenant
			ON health_history(tenant_id, retrieved);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Write(ctx context.Context, snap domain.Snapshot) error {
	var synced sql.NullString
	if !snap.Health.LastSyncTime.IsZero() {
		synced = sql.NullString{String: snap.Health.LastSyncTime.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	var lastErr sql.NullString
	if snap.Health.LastError != "" {
		lastErr = sql.NullString{String: snap.Health.LastError, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO health_history (tenant_id, status, last_sync_time, last_error, retrieved) VALUES (?, ?, ?, ?, ?)`,
		string(snap.Tenant), string(snap.Health.Status), synced, lastErr, snap.Retrieved,
	)
	if err != nil {
		return fmt.Errorf("insert health record: %w", err)
	}
	return nil
}

// Recent returns up to limit records for tenant, newest first.
func (s *Store) Recent(ctx context.Context, tenant domain.TenantID, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, last_sync_time, last_error, retrieved
		   FROM health_history
		  WHERE tenant_id = ?
		  ORDER BY retrieved DESC, id DESC
		  LIMIT ?`,
		string(tenant), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query health history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			status    string
			synced    sql.NullString
			lastErr   sql.NullString
			retrieved int64
		)
		if err := rows.Scan(&status, &synced, &lastErr, &retrieved); err != nil {
			return nil, err
		}

		r := Record{
			Tenant:    tenant,
			Health:    domain.HealthSnapshot{Status: domain.HealthStatus(status), LastError: lastErr.String},
			Retrieved: time.Unix(retrieved, 0),
		}
		if synced.Valid {
			if t, err := time.Parse(time.RFC3339Nano, synced.String); err == nil {
				r.Health.LastSyncTime = t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
