package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"roofquote/adapters/storage/migrations"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// SQLStore persists records through database/sql. It serves SQLite and MySQL,
// which share the "?" placeholder style.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQLite opens a SQLite database file and sets the pragmas the store
// relies on.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &SQLStore{db: db, dialect: migrations.DialectSQLite}, nil
}

// OpenMySQL opens a MySQL database
func OpenMySQL(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql database: %w", err)
	}
	return &SQLStore{db: db, dialect: migrations.DialectMySQL}, nil
}

// Migrate applies pending schema migrations
func (s *SQLStore) Migrate() error {
	return migrations.Up(s.db, s.dialect)
}

// Rollback reverts the most recent migration
func (s *SQLStore) Rollback() error {
	return migrations.Down(s.db, s.dialect)
}

// SchemaVersion reports the applied migration version
func (s *SQLStore) SchemaVersion() (int64, error) {
	return migrations.Version(s.db, s.dialect)
}

// DB exposes the handle for schema tooling
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect returns the goose dialect of the database
func (s *SQLStore) Dialect() string {
	return s.dialect
}

func (s *SQLStore) SavePricingRun(ctx context.Context, run *types.PricingRun) error {
	stampRun(run)
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing run: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pricing_runs (id, session_id, currency, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, string(run.Tiers.Currency), string(payload), run.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert pricing run: %w", err)
	}
	return nil
}

func (s *SQLStore) GetPricingRun(ctx context.Context, id string) (*types.PricingRun, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM pricing_runs WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pricing run", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query pricing run: %w", err)
	}
	var run types.PricingRun
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing run: %w", err)
	}
	return &run, nil
}

func (s *SQLStore) ListPricingRuns(ctx context.Context, filter *ListFilter) ([]*types.PricingRun, error) {
	query, args := listQuery("pricing_runs", "session_id", filter, filterValue(filter, func(f *ListFilter) string { return f.SessionID }), questionMark)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pricing runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.PricingRun
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan pricing run: %w", err)
		}
		var run types.PricingRun
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pricing run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (s *SQLStore) SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error {
	stampLead(rec)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal lead record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lead_scores (id, lead_ref, score, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.LeadRef, rec.Score.Score, string(payload), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert lead record: %w", err)
	}
	return nil
}

func (s *SQLStore) GetLeadRecord(ctx context.Context, id string) (*types.LeadRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM lead_scores WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lead record", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query lead record: %w", err)
	}
	var rec types.LeadRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead record: %w", err)
	}
	return &rec, nil
}

func (s *SQLStore) ListLeadRecords(ctx context.Context, filter *ListFilter) ([]*types.LeadRecord, error) {
	query, args := listQuery("lead_scores", "lead_ref", filter, filterValue(filter, func(f *ListFilter) string { return f.LeadRef }), questionMark)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lead records: %w", err)
	}
	defer rows.Close()

	var recs []*types.LeadRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan lead record: %w", err)
		}
		var rec types.LeadRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lead record: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func filterValue(f *ListFilter, get func(*ListFilter) string) string {
	if f == nil {
		return ""
	}
	return get(f)
}

func questionMark(int) string { return "?" }

// listQuery builds a newest-first listing; ph renders the nth placeholder
func listQuery(table, keyColumn string, f *ListFilter, key string, ph func(int) string) (string, []interface{}) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return ph(len(args))
	}
	if key != "" {
		where = append(where, keyColumn+" = "+arg(key))
	}
	if f != nil && !f.Since.IsZero() {
		where = append(where, "created_at >= "+arg(f.Since.UnixNano()))
	}
	if f != nil && !f.Until.IsZero() {
		where = append(where, "created_at <= "+arg(f.Until.UnixNano()))
	}

	var b strings.Builder
	b.WriteString("SELECT payload FROM " + table)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id ASC")
	if f != nil && (f.Limit > 0 || f.Offset > 0) {
		limit := int64(f.Limit)
		if limit <= 0 {
			// MySQL has no bare OFFSET
			limit = math.MaxInt64
		}
		b.WriteString(" LIMIT " + arg(limit))
		b.WriteString(" OFFSET " + arg(int64(f.Offset)))
	}
	return b.String(), args
}
