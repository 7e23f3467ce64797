package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

const (
	runsDir  = "runs"
	leadsDir = "leads"
)

// FileStore is a file-based storage backend. Each record is one JSON file.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	for _, dir := range []string{runsDir, leadsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) SavePricingRun(ctx context.Context, run *types.PricingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stampRun(run)
	return s.write(runsDir, run.ID, run)
}

func (s *FileStore) GetPricingRun(ctx context.Context, id string) (*types.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run types.PricingRun
	if err := s.read(runsDir, id, "pricing run", &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *FileStore) ListPricingRuns(ctx context.Context, filter *ListFilter) ([]*types.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []*types.PricingRun
	err := s.walk(runsDir, func(data []byte) {
		var run types.PricingRun
		if json.Unmarshal(data, &run) != nil {
			return
		}
		if filter.matches(run.SessionID, "", run.CreatedAt) {
			runs = append(runs, &run)
		}
	})
	if err != nil {
		return nil, err
	}
	return page(runs, runCreated, runID, filter), nil
}

func (s *FileStore) SaveLeadRecord(ctx context.Context, rec *types.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stampLead(rec)
	return s.write(leadsDir, rec.ID, rec)
}

func (s *FileStore) GetLeadRecord(ctx context.Context, id string) (*types.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec types.LeadRecord
	if err := s.read(leadsDir, id, "lead record", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *FileStore) ListLeadRecords(ctx context.Context, filter *ListFilter) ([]*types.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*types.LeadRecord
	err := s.walk(leadsDir, func(data []byte) {
		var rec types.LeadRecord
		if json.Unmarshal(data, &rec) != nil {
			return
		}
		if filter.matches("", rec.LeadRef, rec.CreatedAt) {
			recs = append(recs, &rec)
		}
	})
	if err != nil {
		return nil, err
	}
	return page(recs, leadCreated, leadID, filter), nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) write(dir, id string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	path := filepath.Join(s.basePath, dir, id+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) read(dir, id, kind string, v interface{}) error {
	if id == "" || filepath.Base(id) != id {
		return errors.InvalidInput("invalid %s id %q", kind, id)
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, dir, id+".json"))
	if os.IsNotExist(err) {
		return errors.NotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", kind, err)
	}
	return nil
}

// walk hands every record file in dir to fn; unreadable files are skipped
func (s *FileStore) walk(dir string, fn func([]byte)) error {
	entries, err := os.ReadDir(filepath.Join(s.basePath, dir))
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.basePath, dir, entry.Name()))
		if err != nil {
			continue
		}
		fn(data)
	}
	return nil
}
