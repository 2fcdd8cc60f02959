package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisStore(t *testing.T) (*RedisCounterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisCounterStore(mr.Addr(), "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisAcquireRespectsLimits(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ok, err := s.Acquire(ctx, 1, at, 3, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("acquire %d refused below limit", i)
		}
	}
	if ok, _ := s.Acquire(ctx, 1, at, 3, 0); ok {
		t.Error("acquire succeeded past daily limit")
	}

	n, err := s.SentToday(ctx, 1, at)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected day counter 3, got %d", n)
	}
}

func TestRedisReleaseReturnsQuota(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if ok, _ := s.Acquire(ctx, 1, at, 1, 1); !ok {
		t.Fatal("first acquire refused")
	}
	if err := s.Release(ctx, 1, at); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Acquire(ctx, 1, at, 1, 1); !ok {
		t.Error("acquire refused after release")
	}
}

func TestRedisCountersExpireAtScopeBoundary(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)

	if ok, _ := s.Acquire(ctx, 1, at, 1, 0); !ok {
		t.Fatal("acquire refused")
	}

	// Past midnight plus slack the day key is gone.
	mr.FastForward(45 * time.Minute)

	n, err := s.SentToday(ctx, 1, at)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected expired day counter, got %d", n)
	}
}

func TestRedisSentTodayMissingKeyIsZero(t *testing.T) {
	s, _ := newRedisStore(t)

	n, err := s.SentToday(context.Background(), 99, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 for missing key, got %d", n)
	}
}
