// Package memory stores reports in-memory for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/medialens/analyzer/internal/report"
)

type entry struct {
	rep       report.AnalysisReport
	expiresAt time.Time
}

// Store is an in-memory TTL report cache. Concurrent writers for the same
// key race; the last write wins, matching the external cache contract.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns the cached report for key if present and unexpired.
func (s *Store) Get(_ context.Context, key string) (report.AnalysisReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.now().After(e.expiresAt) {
		return report.AnalysisReport{}, false, nil
	}
	return e.rep, true, nil
}

// Put stores the report under key with the given TTL.
func (s *Store) Put(_ context.Context, key string, rep report.AnalysisReport, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{rep: rep, expiresAt: s.now().Add(ttl)}
	return nil
}
