package query

import (
	"context"
	"time"
)

// PageFetch resolves one page of an infinite query for the given page
// parameter.
type PageFetch func(ctx context.Context, param int) (any, error)

// InfiniteOptions configures an infinite query.
type InfiniteOptions struct {
	// InitialParam is the page parameter of the first page.
	InitialParam int

	// NextParam derives the next page parameter from the last fetched page.
	// Returning ok=false means there is no next page, a normal terminal
	// state rather than an error.
	NextParam func(last any) (param int, ok bool)

	// StaleTime mirrors Options.StaleTime for the first-page observation.
	StaleTime time.Duration
}

// Pages is the cached value of an infinite query: an ordered sequence of
// fetched pages and the parameters they were fetched with. Order is fetch
// order, which for forward-only pagination equals page-index order.
type Pages struct {
	Pages  []any
	Params []int
}

// Last returns the most recently fetched page, or nil when empty.
func (p *Pages) Last() any {
	if p == nil || len(p.Pages) == 0 {
		return nil
	}
	return p.Pages[len(p.Pages)-1]
}

// HasNext reports whether next derives a further page parameter from the
// last fetched page.
func (p *Pages) HasNext(next func(any) (int, bool)) bool {
	last := p.Last()
	if last == nil {
		return false
	}
	_, ok := next(last)
	return ok
}

func firstPageFetch(fetch PageFetch, param int) FetchFunc {
	return func(ctx context.Context) (any, error) {
		page, err := fetch(ctx, param)
		if err != nil {
			return nil, err
		}
		return &Pages{Pages: []any{page}, Params: []int{param}}, nil
	}
}

// ObserveInfinite registers interest in an infinite query. A fetch triggered
// here (missing, invalidated, or stale entry) resolves the first page only;
// previously accumulated pages are replaced once it lands, so a background
// refresh collapses the sequence back to one fresh page.
func (c *Cache) ObserveInfinite(ctx context.Context, key Key, fetch PageFetch, opts InfiniteOptions) Snapshot {
	return c.Observe(ctx, key, firstPageFetch(fetch, opts.InitialParam), Options{
		StaleTime: opts.StaleTime,
	})
}

// RefetchPages forces a fresh first-page fetch for key, resetting the page
// sequence to just that page. Any in-flight fetch is superseded.
func (c *Cache) RefetchPages(ctx context.Context, key Key, fetch PageFetch, opts InfiniteOptions) (*Pages, error) {
	v, err := c.Refetch(ctx, key, firstPageFetch(fetch, opts.InitialParam))
	return asPages(v), err
}

// FetchNextPage extends the page sequence for key by one page. When a fetch
// for the key is already in flight the call attaches to it instead of
// issuing another request. When the last page yields no next parameter the
// call is a no-op resolving immediately with the current sequence.
func (c *Cache) FetchNextPage(ctx context.Context, key Key, fetch PageFetch, opts InfiniteOptions) (*Pages, error) {
	c.mu.Lock()
	e := c.entryLocked(key)

	if fl := e.inflight; fl != nil {
		c.mu.Unlock()
		v, err := c.await(ctx, fl)
		return asPages(v), err
	}

	if !e.hasData {
		fl := c.startFetchLocked(ctx, e, firstPageFetch(fetch, opts.InitialParam))
		c.mu.Unlock()
		v, err := c.await(ctx, fl)
		return asPages(v), err
	}

	current := asPages(e.data)
	param, ok := 0, false
	if opts.NextParam != nil {
		param, ok = opts.NextParam(current.Last())
	}
	if !ok {
		c.mu.Unlock()
		return current, nil
	}

	// Snapshot the sequence now; the entry has a single writer and a single
	// in-flight fetch, so the appended base cannot shift underneath.
	base := &Pages{
		Pages:  append([]any(nil), current.Pages...),
		Params: append([]int(nil), current.Params...),
	}
	fl := c.startFetchLocked(ctx, e, func(fctx context.Context) (any, error) {
		page, err := fetch(fctx, param)
		if err != nil {
			return nil, err
		}
		return &Pages{
			Pages:  append(base.Pages, page),
			Params: append(base.Params, param),
		}, nil
	})
	c.mu.Unlock()

	v, err := c.await(ctx, fl)
	return asPages(v), err
}

func asPages(v any) *Pages {
	p, _ := v.(*Pages)
	return p
}
