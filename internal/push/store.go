package push

import (
	"context"
	"strings"
	"sync"
)

// Store keeps push subscriptions keyed by endpoint. Adding an endpoint that
// is already present is a no-op.
type Store interface {
	Add(ctx context.Context, sub Subscription) (added bool, err error)
	List(ctx context.Context) ([]Subscription, error)
	Remove(ctx context.Context, endpoint string) error
	Count(ctx context.Context) (int, error)
}

// MemoryStore is process-local and lost on restart. Use RedisStore when
// several API instances must share subscribers.
type MemoryStore struct {
	mu     sync.RWMutex
	subs   []Subscription
	byEndp map[string]int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEndp: make(map[string]int)}
}

func (s *MemoryStore) Add(_ context.Context, sub Subscription) (bool, error) {
	sub = sub.Normalized()
	if err := sub.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEndp[sub.Endpoint]; ok {
		return false, nil
	}
	s.byEndp[sub.Endpoint] = len(s.subs)
	s.subs = append(s.subs, sub)
	return true, nil
}

// List returns a snapshot; callers may range over it without holding the lock.
func (s *MemoryStore) List(_ context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, len(s.subs))
	copy(out, s.subs)
	return out, nil
}

func (s *MemoryStore) Remove(_ context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byEndp[endpoint]
	if !ok {
		return nil
	}

	last := len(s.subs) - 1
	if i != last {
		s.subs[i] = s.subs[last]
		s.byEndp[s.subs[i].Endpoint] = i
	}
	s.subs = s.subs[:last]
	delete(s.byEndp, endpoint)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subs), nil
}
