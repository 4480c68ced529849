package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
)

type registryEntry struct {
	sync     *Synchronizer
	lastSeen time.Time
}

// Registry holds one initialized Synchronizer per browser session and evicts
// the ones that went idle. Concurrent first requests of a session share a
// single initialization.
type Registry struct {
	store   storage.Store
	remote  Remote
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	idleTTL time.Duration
	now     func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry builds a registry over the shared session store.
func NewRegistry(store storage.Store, remote Remote, logg *logger.Logger, m *metrics.CartMetrics, idleTTL time.Duration) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{
		store:   store,
		remote:  remote,
		logg:    logg,
		metrics: m,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}, nil
}

// Get returns the initialized synchronizer of the session.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Synchronizer, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	if s := r.lookup(sessionID); s != nil {
		return s, nil
	}

	// Initialization outlives the request that triggered it.
	initCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if s := r.lookup(sessionID); s != nil {
			return s, nil
		}
		s, err := NewSynchronizer(storage.Scoped(r.store, sessionID), r.remote, r.logg, r.metrics)
		if err != nil {
			return nil, err
		}
		s.Initialize(initCtx)

		r.mu.Lock()
		r.entries[sessionID] = &registryEntry{sync: s, lastSeen: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Synchronizer), nil
}

func (r *Registry) lookup(sessionID string) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sessionID]
	if !ok {
		return nil
	}
	entry.lastSeen = r.now()
	return entry.sync
}

// Len reports how many sessions are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops synchronizers idle for longer than the idle TTL. The persisted
// cart id survives, so the next request of the session re-initializes.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "cart.registry.swept")
			}
		}
	}
}
