package session

import (
	"context"
	"sync"
	"time"
)

// entry wraps a record with its own lock so operations on distinct session
// ids never contend. Entries are never evicted here; TTL is a deployment
// concern handled by the redis backend.
type entry struct {
	mu  sync.Mutex
	rec Record
}

type inMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewInMemoryStore returns a process-local Store with per-key locking.
func NewInMemoryStore() Store {
	return &inMemoryStore{entries: make(map[string]*entry)}
}

func (s *inMemoryStore) entryFor(id string, create bool) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok || !create {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e
	}
	e = &entry{}
	s.entries[id] = e
	return e
}

func (s *inMemoryStore) Submit(ctx context.Context, rec Record) error {
	e := s.entryFor(rec.SessionID, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	if rec.Decision == "" {
		rec.Decision = DecisionPending
	}
	e.rec = rec
	return nil
}

func (s *inMemoryStore) Get(ctx context.Context, id string) (Record, error) {
	e := s.entryFor(id, false)
	if e == nil {
		return Record{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.SessionID == "" {
		return Record{}, ErrSessionNotFound
	}
	return e.rec, nil
}

func (s *inMemoryStore) Decide(ctx context.Context, id string, decision Decision, refinement string) (Record, error) {
	e := s.entryFor(id, false)
	if e == nil {
		return Record{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.SessionID == "" {
		return Record{}, ErrSessionNotFound
	}
	applyDecision(&e.rec, decision, refinement)
	return e.rec, nil
}

func (s *inMemoryStore) SetIdeas(ctx context.Context, id string, ideas map[string][]string) error {
	e := s.entryFor(id, false)
	if e == nil {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.SessionID == "" {
		return ErrSessionNotFound
	}
	e.rec.Ideas = ideas
	e.rec.UpdatedAt = time.Now().UTC()
	return nil
}

// applyDecision mutates rec in place. Approval latches: once approved, a
// replayed approve is a no-op and refine/restart still supersede it with a
// fresh pending run (last writer wins per key).
func applyDecision(rec *Record, decision Decision, refinement string) {
	switch decision {
	case DecisionApproved:
		if rec.Decision == DecisionApproved {
			return
		}
		rec.Decision = DecisionApproved
		rec.Refinement = ""
	case DecisionRefine, DecisionRestart:
		rec.Decision = decision
		rec.Refinement = refinement
		rec.Ideas = nil
	default:
		rec.Decision = decision
		rec.Refinement = refinement
	}
	rec.UpdatedAt = time.Now().UTC()
}
