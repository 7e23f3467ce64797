// Package storage persists pricing runs and lead scores.
// Supports multiple backends: file, memory, SQLite, MySQL, PostgreSQL.
package storage

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile     Backend = "file"
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendMySQL    Backend = "mysql"
	BackendPostgres Backend = "postgres"
	BackendNone     Backend = "none"
)

// Store is the storage interface
type Store interface {
	// SavePricingRun stores a pricing run, assigning ID and CreatedAt when unset
	SavePricingRun(ctx context.Context, run *types.PricingRun) error

	// GetPricingRun retrieves a pricing run by ID
	GetPricingRun(ctx context.Context, id string) (*types.PricingRun, error)

	// ListPricingRuns lists pricing runs, newest first
	ListPricingRuns(ctx context.Context, filter *ListFilter) ([]*types.PricingRun, error)

	// SaveLeadRecord stores a lead score together with its inputs
	SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error

	// GetLeadRecord retrieves a lead record by ID
	GetLeadRecord(ctx context.Context, id string) (*types.LeadRecord, error)

	// ListLeadRecords lists lead records, newest first
	ListLeadRecords(ctx context.Context, filter *ListFilter) ([]*types.LeadRecord, error)

	// Close closes the store
	Close() error
}

// ListFilter filters listing
type ListFilter struct {
	// SessionID matches pricing runs from one workflow session
	SessionID string

	// LeadRef matches lead records for one lead
	LeadRef string

	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// CompareResult compares the selected-tier price of two pricing runs
type CompareResult struct {
	OldID        string          `json:"old_id"`
	NewID        string          `json:"new_id"`
	Tier         types.TierName  `json:"tier"`
	OldPrice     decimal.Decimal `json:"old_price"`
	NewPrice     decimal.Decimal `json:"new_price"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"delta_percent"`
}

// Compare compares one tier across two stored pricing runs
func Compare(ctx context.Context, s Store, oldID, newID string, tier types.TierName) (*CompareResult, error) {
	oldRun, err := s.GetPricingRun(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newRun, err := s.GetPricingRun(ctx, newID)
	if err != nil {
		return nil, err
	}
	oldTier, ok := oldRun.Tiers.Get(tier)
	if !ok {
		return nil, errors.InvalidInput("unknown tier %q", tier)
	}
	newTier, _ := newRun.Tiers.Get(tier)

	delta := newTier.SellingPrice.Sub(oldTier.SellingPrice)
	pct := decimal.Zero
	if oldTier.SellingPrice.IsPositive() {
		pct = delta.Shift(2).DivRound(oldTier.SellingPrice, 2)
	}
	return &CompareResult{
		OldID:        oldID,
		NewID:        newID,
		Tier:         tier,
		OldPrice:     oldTier.SellingPrice,
		NewPrice:     newTier.SellingPrice,
		Delta:        delta,
		DeltaPercent: pct,
	}, nil
}

func stampRun(run *types.PricingRun) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

func stampLead(rec *types.LeadRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func (f *ListFilter) matches(sessionID, leadRef string, createdAt time.Time) bool {
	if f == nil {
		return true
	}
	if f.SessionID != "" && sessionID != f.SessionID {
		return false
	}
	if f.LeadRef != "" && leadRef != f.LeadRef {
		return false
	}
	if !f.Since.IsZero() && createdAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && createdAt.After(f.Until) {
		return false
	}
	return true
}

// page orders newest first (ties by ID) and applies offset/limit
func page[T any](items []T, created func(T) time.Time, id func(T) string, f *ListFilter) []T {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) < id(items[j])
	})
	if f == nil {
		return items
	}
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return items[:0]
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

func runCreated(r *types.PricingRun) time.Time { return r.CreatedAt }
func runID(r *types.PricingRun) string { return r.ID }
func leadCreated(r *types.LeadRecord) time.Time { return r.CreatedAt }
func leadID(r *types.LeadRecord) string { return r.ID }
