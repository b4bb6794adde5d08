// Package memory provides an in-memory CallLog sink for tests and dry
// runs. Records are lost when the process exits. Optional eviction bounds
// memory use on long batches.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// Store is an in-memory Sink with optional oldest-first eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = newest, back = oldest
	maxSize int        // 0 = unlimited
	closed  bool
}

var _ storage.Sink = (*Store)(nil)

// ListOptions filters List results. Empty fields match everything.
type ListOptions struct {
	ExperimentID string
	Model        string

	// Order is "asc" (oldest first, default) or "desc".
	Order string
}

// New creates a store. If maxSize is 0 the store grows without limit,
// otherwise the oldest record is evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Write stores a record. Records with an ID already present are rejected
// with storage.ErrConflict.
func (s *Store) Write(_ context.Context, log *api.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if _, exists := s.entries[log.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}
	s.entries[log.ID] = s.order.PushFront(log)
	return nil
}

// Get returns a record by ID.
func (s *Store) Get(_ context.Context, id string) (*api.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return elem.Value.(*api.CallLog), nil
}

// List returns matching records ordered by creation time, then ID.
func (s *Store) List(_ context.Context, opts ListOptions) []*api.CallLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*api.CallLog
	for e := s.order.Back(); e != nil; e = e.Prev() {
		l := e.Value.(*api.CallLog)
		if opts.ExperimentID != "" && l.ExperimentID != opts.ExperimentID {
			continue
		}
		if opts.Model != "" && l.Model != opts.Model {
			continue
		}
		matches = append(matches, l)
	}

	desc := opts.Order == "desc"
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return matches
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close rejects further writes. Stored records stay readable.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// evictOldest removes the oldest record. Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	s.order.Remove(back)
	delete(s.entries, back.Value.(*api.CallLog).ID)
}
