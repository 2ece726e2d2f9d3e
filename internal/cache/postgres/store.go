// Package postgres provides a Postgres-backed report cache.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medialens/analyzer/internal/report"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for report rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists reports as JSONB rows with an expiry column.
type Store struct {
	pool  querier
	table string
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "reports"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for testing).
func NewStoreWithPool(pool querier, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "reports"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Get fetches an unexpired report by key.
func (s *Store) Get(ctx context.Context, key string) (report.AnalysisReport, bool, error) {
	query := fmt.Sprintf(
		`SELECT payload FROM %s WHERE key = $1 AND expires_at > now()`, s.table)

	var payload []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return report.AnalysisReport{}, false, nil
	}
	if err != nil {
		return report.AnalysisReport{}, false, fmt.Errorf("query report: %w", err)
	}

	var rep report.AnalysisReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return report.AnalysisReport{}, false, fmt.Errorf("decode report payload: %w", err)
	}
	return rep, true, nil
}

// Put upserts the report under key. Re-creation renews the expiry.
func (s *Store) Put(ctx context.Context, key string, rep report.AnalysisReport, ttl time.Duration) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report payload: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
		s.table)

	if _, err := s.pool.Exec(ctx, query, key, payload, time.Now().UTC().Add(ttl)); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}
