// internal/ratelimit/memory.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is a mutex-guarded in-process CounterStore, used in
// tests and single-node deployments without Redis.
type MemoryCounterStore struct {
	mu      sync.Mutex
	counts  map[string]int
	expires map[string]time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counts:  make(map[string]int),
		expires: make(map[string]time.Time),
	}
}

var _ CounterStore = (*MemoryCounterStore)(nil)

func (s *MemoryCounterStore) Acquire(_ context.Context, campaignID int, t time.Time, dailyLimit, hourlyLimit int) (bool, error) {
	dk, hk := dayKey(campaignID, t), hourKey(campaignID, t)
	dayTTL, hourTTL := ttls(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(t)

	if dailyLimit > 0 && s.counts[dk] >= dailyLimit {
		return false, nil
	}
	if hourlyLimit > 0 && s.counts[hk] >= hourlyLimit {
		return false, nil
	}

	s.bump(dk, 1, t.Add(dayTTL))
	s.bump(hk, 1, t.Add(hourTTL))
	return true, nil
}

func (s *MemoryCounterStore) Release(_ context.Context, campaignID int, t time.Time) error {
	dk, hk := dayKey(campaignID, t), hourKey(campaignID, t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(dk, -1, time.Time{})
	s.bump(hk, -1, time.Time{})
	return nil
}

func (s *MemoryCounterStore) SentToday(_ context.Context, campaignID int, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(t)
	return s.counts[dayKey(campaignID, t)], nil
}

func (s *MemoryCounterStore) Close() error { return nil }

// bump adjusts a counter under the held lock, never below zero. A zero
// expiry leaves the existing one in place.
func (s *MemoryCounterStore) bump(key string, delta int, expires time.Time) {
	next := s.counts[key] + delta
	if next <= 0 {
		delete(s.counts, key)
		delete(s.expires, key)
		return
	}
	s.counts[key] = next
	if !expires.IsZero() {
		if cur, ok := s.expires[key]; !ok || expires.After(cur) {
			s.expires[key] = expires
		}
	}
}

// purge drops rolled-over scopes under the held lock.
func (s *MemoryCounterStore) purge(now time.Time) {
	for key, exp := range s.expires {
		if now.After(exp) {
			delete(s.counts, key)
			delete(s.expires, key)
		}
	}
}
