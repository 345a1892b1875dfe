package diaryform

import (
	"context"
	"sync"
	"time"

	"dreamSyncAPI/internal/diary"
)

// DraftStore persists auto-saved diary drafts keyed by client id. It is the
// portal's stand-in for the browser's local storage: advisory, lossy, and
// bounded by diary.DraftTTL.
type DraftStore interface {
	// Get returns the client's draft, or nil when none exists or the draft
	// has expired. Expired drafts are dropped.
	Get(ctx context.Context, clientID string) (*diary.Draft, error)
	Put(ctx context.Context, clientID string, draft *diary.Draft) error
	Clear(ctx context.Context, clientID string) error
}

// MemoryDraftStore keeps drafts in a map. Used in tests and as the default
// when no draft database is configured.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]diary.Draft
	now    func() time.Time
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{
		drafts: make(map[string]diary.Draft),
		now:    time.Now,
	}
}

func (s *MemoryDraftStore) Get(ctx context.Context, clientID string) (*diary.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[clientID]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(d.Timestamp) > diary.DraftTTL {
		delete(s.drafts, clientID)
		return nil, nil
	}
	out := d
	return &out, nil
}

func (s *MemoryDraftStore) Put(ctx context.Context, clientID string, draft *diary.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[clientID] = *draft
	return nil
}

func (s *MemoryDraftStore) Clear(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, clientID)
	return nil
}
