package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]DrawRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]DrawRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, rec *DrawRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = clone(*rec)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*DrawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := clone(rec)
	return &c, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*DrawRecord, error) {
	s.mu.RLock()
	out := make([]*DrawRecord, 0, len(s.records))
	for _, rec := range s.records {
		c := clone(rec)
		out = append(out, &c)
	}
	s.mu.RUnlock()
	return newestFirst(out, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func clone(r DrawRecord) DrawRecord {
	r.Participants = slices.Clone(r.Participants)
	r.Eliminated = slices.Clone(r.Eliminated)
	return r
}

func newestFirst(recs []*DrawRecord, limit int) []*DrawRecord {
	slices.SortFunc(recs, func(a, b *DrawRecord) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
