// Package memory provides an in-memory table store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/law-makers/sismos/pkg/models"
)

// TableStore keeps records keyed by ID. It is safe for concurrent use.
type TableStore struct {
	mu      sync.RWMutex
	rows    map[string]models.Record
	written time.Time
}

// NewTableStore creates an empty store
func NewTableStore() *TableStore {
	return &TableStore{rows: make(map[string]models.Record)}
}

// Clear removes all records.
func (s *TableStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Scan then delete by key, mirroring the two-step sweep of the real store.
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	for _, id := range ids {
		delete(s.rows, id)
	}
	return len(ids), nil
}

// BulkWrite stores records. A duplicate ID is an error and nothing is written.
func (s *TableStore) BulkWrite(_ context.Context, records []models.Record, extractedAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := s.rows[rec.ID]; dup {
			return 0, fmt.Errorf("duplicate id %q", rec.ID)
		}
		if _, dup := seen[rec.ID]; dup {
			return 0, fmt.Errorf("duplicate id %q", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	for _, rec := range records {
		s.rows[rec.ID] = rec
	}
	s.written = extractedAt
	return len(records), nil
}

// Location names the store
func (s *TableStore) Location() string {
	return "memory"
}

// Records returns the stored records ordered by ID.
func (s *TableStore) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WrittenAt returns the extraction time of the last write.
func (s *TableStore) WrittenAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written
}
