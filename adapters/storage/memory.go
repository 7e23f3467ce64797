package storage

import (
	"context"
	"sync"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

// MemoryStore is an in-memory storage backend (for testing and the API's
// default when persistence is off)
type MemoryStore struct {
	runs  map[string]types.PricingRun
	leads map[string]types.LeadRecord
	mu    sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]types.PricingRun),
		leads: make(map[string]types.LeadRecord),
	}
}

func (s *MemoryStore) SavePricingRun(ctx context.Context, run *types.PricingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stampRun(run)
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryStore) GetPricingRun(ctx context.Context, id string) (*types.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, errors.NotFound("pricing run", id)
	}
	return &run, nil
}

func (s *MemoryStore) ListPricingRuns(ctx context.Context, filter *ListFilter) ([]*types.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []*types.PricingRun
	for _, run := range s.runs {
		if filter.matches(run.SessionID, "", run.CreatedAt) {
			run := run
			runs = append(runs, &run)
		}
	}
	return page(runs, runCreated, runID, filter), nil
}

func (s *MemoryStore) SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stampLead(rec)
	s.leads[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) GetLeadRecord(ctx context.Context, id string) (*types.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.leads[id]
	if !ok {
		return nil, errors.NotFound("lead record", id)
	}
	return &rec, nil
}

func (s *MemoryStore) ListLeadRecords(ctx context.Context, filter *ListFilter) ([]*types.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*types.LeadRecord
	for _, rec := range s.leads {
		if filter.matches("", rec.LeadRef, rec.CreatedAt) {
			rec := rec
			recs = append(recs, &rec)
		}
	}
	return page(recs, leadCreated, leadID, filter), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
