// Package query implements an incremental query cache with request
// deduplication and cursor-based pagination.
//
// The cache maps a Key to at most one entry holding the latest resolved
// value, the latest error, and a status. For any key at most one fetch is in
// flight at a time: concurrent observers attach to the in-flight fetch
// instead of issuing duplicates. Fetch results are applied in issue order,
// not completion order; a superseded fetch has its context canceled and its
// late result is never applied. Entries are never evicted — the working set
// of one session is small.
package query

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status describes the lifecycle of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc resolves a query value. It must observe ctx cancellation when the
// underlying transport supports aborting.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a single observation.
type Options struct {
	// StaleTime is how long after a successful resolution the entry stays
	// fresh. Observing a stale entry triggers a background refetch while the
	// stale value keeps being served. Zero means always stale.
	StaleTime time.Duration

	// Placeholder, when set, seeds a transient display value for an entry that
	// has no data yet, typically projected from a previous key's data. It is
	// cosmetic: real data supersedes it once resolved, and it never suppresses
	// a fetch.
	Placeholder func() (any, bool)
}

// Snapshot is a point-in-time view of a cache entry.
type Snapshot struct {
	Key           Key
	Status        Status
	Data          any
	Err           error
	IsFetching    bool
	IsPlaceholder bool
	UpdatedAt     time.Time
}

// flight is one issued fetch. Its result is always delivered to direct
// waiters via done, but applied to the entry only if it is still the
// latest-issued fetch for the key.
type flight struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
	data   any
	err    error
}

type entry struct {
	key            Key
	status         Status
	data           any
	hasData        bool
	err            error
	placeholder    any
	hasPlaceholder bool
	invalidated    bool
	seq            uint64 // sequence of the last issued fetch
	updatedAt      time.Time
	inflight       *flight
}

// Cache is the process-wide query cache. All methods are safe for concurrent
// use; the cache is the single writer of its entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[int]func(Snapshot)
	nextSub int
	logger  *slog.Logger
	now     func() time.Time
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewCache builds an empty cache.
func NewCache(opts CacheOptions) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[string]map[int]func(Snapshot)),
		logger:  logger,
		now:     now,
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key, status: StatusIdle}
		c.entries[ks] = e
	}
	return e
}

func (e *entry) snapshotLocked() Snapshot {
	s := Snapshot{
		Key:        e.key,
		Status:     e.status,
		Err:        e.err,
		IsFetching: e.inflight != nil,
		UpdatedAt:  e.updatedAt,
	}
	switch {
	case e.hasData:
		s.Data = e.data
	case e.hasPlaceholder:
		s.Data = e.placeholder
		s.IsPlaceholder = true
	}
	return s
}

// Observe registers interest in key. If the entry is missing, invalidated, or
// stale per opts.StaleTime, a fetch is started; if a fetch is already in
// flight the observer attaches to it and no duplicate request is issued. The
// returned snapshot reflects the entry immediately after the call.
func (c *Cache) Observe(ctx context.Context, key Key, fetch FetchFunc, opts Options) Snapshot {
	// Evaluate the placeholder projection before taking the lock; it commonly
	// reads another entry's data through the cache itself.
	var placeholder any
	havePlaceholder := false
	if opts.Placeholder != nil {
		placeholder, havePlaceholder = opts.Placeholder()
	}

	c.mu.Lock()
	e := c.entryLocked(key)

	if !e.hasData && !e.hasPlaceholder && havePlaceholder {
		e.placeholder = placeholder
		e.hasPlaceholder = true
	}

	if e.inflight == nil && c.needsFetchLocked(e, opts.StaleTime) {
		c.startFetchLocked(ctx, e, fetch)
	}

	snap := e.snapshotLocked()
	c.mu.Unlock()
	return snap
}

func (c *Cache) needsFetchLocked(e *entry, staleTime time.Duration) bool {
	if !e.hasData {
		return true
	}
	if e.invalidated {
		return true
	}
	return c.now().Sub(e.updatedAt) >= staleTime
}

// Refetch forces a new fetch for key regardless of staleness, superseding any
// in-flight fetch, and waits for its result. The superseded fetch's context
// is canceled and its late result is discarded.
func (c *Cache) Refetch(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.inflight != nil {
		c.logger.Debug("superseding in-flight fetch", "key", key.String(), "seq", e.inflight.seq)
		e.inflight.cancel()
	}
	fl := c.startFetchLocked(ctx, e, fetch)
	c.mu.Unlock()

	return c.await(ctx, fl)
}

// Wait blocks until the current in-flight fetch for key resolves, or returns
// the entry's settled result immediately when nothing is in flight.
func (c *Cache) Wait(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	fl := e.inflight
	if fl == nil {
		defer c.mu.Unlock()
		if e.status == StatusError {
			return e.data, e.err
		}
		return e.data, nil
	}
	c.mu.Unlock()

	return c.await(ctx, fl)
}

func (c *Cache) await(ctx context.Context, fl *flight) (any, error) {
	select {
	case <-fl.done:
		return fl.data, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate marks the entry stale without clearing cached data, so consumers
// keep showing last-known-good data while the next observation refetches.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.invalidated = true
	snap := e.snapshotLocked()
	c.mu.Unlock()

	c.notify(key, snap)
}

// Get returns the current snapshot for key without triggering a fetch.
func (c *Cache) Get(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return e.snapshotLocked()
}

// Data returns the last successfully resolved value for key, if any. Useful
// for projecting placeholder data when a parameter change produces a new key.
func (c *Cache) Data(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// Subscribe registers fn to run after every committed mutation of key's
// entry. The returned function removes the subscription.
func (c *Cache) Subscribe(key Key, fn func(Snapshot)) (unsubscribe func()) {
	ks := key.String()
	c.mu.Lock()
	if c.subs[ks] == nil {
		c.subs[ks] = make(map[int]func(Snapshot))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[ks][id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs[ks], id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(key Key, snap Snapshot) {
	ks := key.String()
	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs[ks]))
	for _, fn := range c.subs[ks] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// startFetchLocked issues a new fetch for e and returns its flight. The
// caller must hold c.mu. The fetch runs on a context detached from the
// observer's cancellation: the entry, not any single observer, owns the
// request lifetime.
func (c *Cache) startFetchLocked(ctx context.Context, e *entry, fetch FetchFunc) *flight {
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.seq++
	fl := &flight{
		seq:    e.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.inflight = fl
	if !e.hasData {
		e.status = StatusPending
	}
	c.logger.Debug("query fetch issued", "key", e.key.String(), "seq", fl.seq)

	go func() {
		data, err := fetch(fctx)
		cancel()
		c.apply(e, fl, data, err)
	}()
	return fl
}

// apply commits a resolved fetch. Results are applied in issue order: a
// flight whose sequence number is no longer the entry's latest is ignored,
// whether or not its abort succeeded.
func (c *Cache) apply(e *entry, fl *flight, data any, err error) {
	c.mu.Lock()

	fl.data = data
	fl.err = err

	if fl.seq != e.seq {
		c.logger.Debug("discarding superseded result", "key", e.key.String(), "seq", fl.seq, "latest", e.seq)
		c.mu.Unlock()
		close(fl.done)
		return
	}
	e.inflight = nil

	if err != nil {
		// Keep previously cached data; the error rides alongside it.
		e.err = err
		e.status = StatusError
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.status = StatusSuccess
		e.invalidated = false
		e.placeholder = nil
		e.hasPlaceholder = false
		e.updatedAt = c.now()
	}
	snap := e.snapshotLocked()
	key := e.key
	c.mu.Unlock()

	// Notify before releasing waiters so anyone woken by done observes a
	// fully committed entry, subscribers included.
	c.notify(key, snap)
	close(fl.done)
}
