package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homura-labs/storefront/internal/storage"
)

func TestRegistryReturnsSameSynchronizerPerSession(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(0), newFakeRemote(), testLogger(), nil, time.Minute)
	require.NoError(t, err)

	a, err := reg.Get(context.Background(), "s1")
	require.NoError(t, err)
	b, err := reg.Get(context.Background(), "s1")
	require.NoError(t, err)
	c, err := reg.Get(context.Background(), "s2")
	require.NoError(t, err)

	if a != b {
		t.Fatalf("expected the same synchronizer for one session")
	}
	if a == c {
		t.Fatalf("expected distinct synchronizers per session")
	}
	if a.Snapshot().Status != StatusEmptyLocal {
		t.Fatalf("expected initialized synchronizer, got %s", a.Snapshot().Status)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Len())
	}
}

func TestRegistryRejectsEmptySession(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(0), nil, testLogger(), nil, 0)
	require.NoError(t, err)
	if _, err := reg.Get(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestRegistryInitializesOncePerSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	remote := newFakeRemote()

	seed, err := NewSynchronizer(storage.Scoped(store, "s1"), remote, testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, seed.AddItem(ctx, item("V1", 1, "M")))
	baseline := remote.callCount("get")

	reg, err := NewRegistry(store, remote, testLogger(), nil, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Synchronizer, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Get(ctx, "s1")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		if s != results[0] {
			t.Fatalf("expected a single synchronizer across concurrent callers")
		}
	}
	if got := remote.callCount("get") - baseline; got != 1 {
		t.Fatalf("expected one remote load, got %d", got)
	}
	if n := results[0].TotalItems(); n != 1 {
		t.Fatalf("expected restored cart with 1 item, got %d", n)
	}
}

func TestRegistryInitializationSurvivesCanceledRequest(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(0), nil, testLogger(), nil, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := reg.Get(ctx, "s1")
	require.NoError(t, err)
	if s.Snapshot().Status != StatusEmptyLocal {
		t.Fatalf("expected initialized synchronizer, got %s", s.Snapshot().Status)
	}
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(0), nil, testLogger(), nil, time.Minute)
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	_, err = reg.Get(context.Background(), "idle")
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	_, err = reg.Get(context.Background(), "active")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	if evicted := reg.Sweep(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected active session to remain, got %d", reg.Len())
	}
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	reg, err := NewRegistry(storage.NewMemory(0), nil, testLogger(), nil, time.Nanosecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}
