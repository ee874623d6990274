package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/cart"
	"github.com/Farizu224/vending-machine-web/internal/consult"
)

// DefaultTTL is how long an idle browsing session is kept in memory.
const DefaultTTL = 2 * time.Hour

// cleanupInterval is how often the background expiry sweep runs.
const cleanupInterval = time.Minute

// Entry binds the per-session state containers to one browsing session.
type Entry struct {
	ID      string
	Cart    *cart.Store
	Consult *consult.Session

	lastSeen time.Time // guarded by the registry mutex
}

// Options configures a Registry. NewCart and NewConsult construct the state
// containers for a fresh session.
type Options struct {
	TTL        time.Duration
	Cache      CartCache
	NewCart    func() *cart.Store
	NewConsult func() *consult.Session
	Logger     *zap.Logger
}

// Registry keys browsing sessions by an opaque id. Idle sessions expire from
// memory; the cart cache lets a session revive with its cart intact.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry

	ttl        time.Duration
	cache      CartCache
	newCart    func() *cart.Store
	newConsult func() *consult.Session
	log        *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := &Registry{
		entries:    make(map[string]*Entry),
		ttl:        opts.TTL,
		cache:      opts.Cache,
		newCart:    opts.NewCart,
		newConsult: opts.NewConsult,
		log:        opts.Logger,
		stop:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()
	return r
}

// Create starts a fresh browsing session and returns its entry.
func (r *Registry) Create() *Entry {
	e := &Entry{
		ID:       uuid.New().String(),
		Cart:     r.newCart(),
		Consult:  r.newConsult(),
		lastSeen: time.Now(),
	}

	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()
	return e
}

// Get returns the session for id, reviving it from the cart cache when it
// expired from memory but its cart snapshot is still stored. Returns false
// for ids the registry has never seen or that are gone for good.
func (r *Registry) Get(ctx context.Context, id string) (*Entry, bool) {
	r.mu.Lock()
	if e, ok := r.entries[id]; ok {
		e.lastSeen = time.Now()
		r.mu.Unlock()
		return e, true
	}
	r.mu.Unlock()

	snapshot, err := r.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.log.Warn("cart cache read failed", zap.String("session_id", id), zap.Error(err))
		}
		return nil, false
	}

	e := &Entry{
		ID:       id,
		Cart:     r.newCart(),
		Consult:  r.newConsult(),
		lastSeen: time.Now(),
	}
	e.Cart.Restore(snapshot.Items)

	r.mu.Lock()
	// another request may have revived it first
	if existing, ok := r.entries[id]; ok {
		r.mu.Unlock()
		return existing, true
	}
	r.entries[id] = e
	r.mu.Unlock()

	r.log.Debug("session revived from cache", zap.String("session_id", id))
	return e, true
}

// Persist writes the session's cart snapshot through to the cache. Cache
// failures are logged, not surfaced; the in-memory cart stays authoritative.
func (r *Registry) Persist(ctx context.Context, e *Entry) {
	snapshot := e.Cart.Snapshot()
	if err := r.cache.Set(ctx, e.ID, &snapshot); err != nil {
		r.log.Warn("cart cache write failed", zap.String("session_id", e.ID), zap.Error(err))
	}
}

// Drop removes a session and its cached cart, e.g. after checkout completes.
func (r *Registry) Drop(ctx context.Context, id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()

	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("cart cache delete failed", zap.String("session_id", id), zap.Error(err))
	}
}

// Len returns the number of live in-memory sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.expireIdle()
		case <-r.stop:
			return
		}
	}
}

// expireIdle drops sessions idle past the TTL from memory. Their cached
// carts stay until the cache TTL, so a late visitor still revives.
func (r *Registry) expireIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}

// Close stops the background expiry sweep and waits for it to finish.
func (r *Registry) Close() error {
	close(r.stop)
	r.wg.Wait()
	return nil
}
