package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"roofquote/adapters/storage/migrations"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// PostgresStore persists records in PostgreSQL through a pgx pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to PostgreSQL using a database URL
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies pending schema migrations through a database/sql view of the pool
func (s *PostgresStore) Migrate() error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Up(db, migrations.DialectPostgres)
}

func (s *PostgresStore) Rollback() error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Down(db, migrations.DialectPostgres)
}

func (s *PostgresStore) SchemaVersion() (int64, error) {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Version(db, migrations.DialectPostgres)
}

func (s *PostgresStore) SavePricingRun(ctx context.Context, run *types.PricingRun) error {
	stampRun(run)
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing run: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_runs (id, session_id, currency, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.SessionID, string(run.Tiers.Currency), string(payload), run.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save pricing run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPricingRun(ctx context.Context, id string) (*types.PricingRun, error) {
	var run types.PricingRun
	if err := s.getPayload(ctx, `SELECT payload FROM pricing_runs WHERE id = $1`, id, "pricing run", &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *PostgresStore) ListPricingRuns(ctx context.Context, filter *ListFilter) ([]*types.PricingRun, error) {
	query, args := listQuery("pricing_runs", "session_id", filter, filterValue(filter, func(f *ListFilter) string { return f.SessionID }), dollar)
	return listPayloads[types.PricingRun](ctx, s.pool, query, args)
}

func (s *PostgresStore) SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error {
	stampLead(rec)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal lead record: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lead_scores (id, lead_ref, score, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.LeadRef, rec.Score.Score, string(payload), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save lead record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLeadRecord(ctx context.Context, id string) (*types.LeadRecord, error) {
	var rec types.LeadRecord
	if err := s.getPayload(ctx, `SELECT payload FROM lead_scores WHERE id = $1`, id, "lead record", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) ListLeadRecords(ctx context.Context, filter *ListFilter) ([]*types.LeadRecord, error) {
	query, args := listQuery("lead_scores", "lead_ref", filter, filterValue(filter, func(f *ListFilter) string { return f.LeadRef }), dollar)
	return listPayloads[types.LeadRecord](ctx, s.pool, query, args)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) getPayload(ctx context.Context, query, id, kind string, v interface{}) error {
	var payload string
	err := s.pool.QueryRow(ctx, query, id).Scan(&payload)
	if err == pgx.ErrNoRows {
		return errors.NotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", kind, err)
	}
	return nil
}

func listPayloads[T any](ctx context.Context, pool *pgxpool.Pool, query string, args []interface{}) ([]*T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		item := new(T)
		if err := json.Unmarshal([]byte(payload), item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }
