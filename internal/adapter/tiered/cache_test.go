package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/runhooks/internal/adapter/tiered"
)

var errDown = errors.New("nats: connection closed")

// memCache is an in-memory cache whose operations can be made to fail.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTieredGet(t *testing.T) {
	tests := []struct {
		name     string
		l1, l2   map[string]string
		l2Err    error
		wantVal  string
		wantHit  bool
		backfill bool
	}{
		{name: "l1 hit", l1: map[string]string{"k": "one"}, wantVal: "one", wantHit: true},
		{name: "l2 hit backfills", l2: map[string]string{"k": "two"}, wantVal: "two", wantHit: true, backfill: true},
		{name: "miss"},
		{name: "l2 error is a miss", l2Err: errDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2 := newMemCache(), newMemCache()
			for k, v := range tt.l1 {
				l1.data[k] = []byte(v)
			}
			for k, v := range tt.l2 {
				l2.data[k] = []byte(v)
			}
			l2.err = tt.l2Err
			c := tiered.New(l1, l2, 30*time.Second)

			val, hit, err := c.Get(context.Background(), "k")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hit != tt.wantHit || string(val) != tt.wantVal {
				t.Fatalf("got %q/%v, want %q/%v", val, hit, tt.wantVal, tt.wantHit)
			}
			if tt.backfill {
				if string(l1.data["k"]) != tt.wantVal || l1.ttls["k"] != 30*time.Second {
					t.Fatalf("expected L1 backfill with l1 expiry, got %q %v", l1.data["k"], l1.ttls["k"])
				}
			}
		})
	}
}

func TestTieredSetWritesBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 30*time.Second)

	if err := c.Set(context.Background(), "k", []byte("v"), 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	if string(l1.data["k"]) != "v" || string(l2.data["k"]) != "v" {
		t.Fatal("expected both levels written")
	}
	if l1.ttls["k"] != 30*time.Second {
		t.Fatalf("L1 ttl must be capped at l1 expiry, got %v", l1.ttls["k"])
	}
	if l2.ttls["k"] != 5*time.Minute {
		t.Fatalf("L2 ttl = %v", l2.ttls["k"])
	}
}

func TestTieredSetToleratesL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errDown
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("L2 failure must not fail Set: %v", err)
	}
	if string(l1.data["k"]) != "v" {
		t.Fatal("expected L1 written")
	}
}

func TestTieredDelete(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l1.data["k"] = []byte("v")
	l2.data["k"] = []byte("v")
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Delete(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["k"]; ok {
		t.Fatal("expected L1 delete")
	}
	if _, ok := l2.data["k"]; ok {
		t.Fatal("expected L2 delete")
	}

	l2.err = errDown
	if err := c.Delete(context.Background(), "k"); !errors.Is(err, errDown) {
		t.Fatalf("invalidation failure must surface, got %v", err)
	}
}
