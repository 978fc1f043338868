// Package ticketmaster is the client for the remote events catalog. It binds
// the raw search/detail endpoints to the query cache: key builders keep query
// identity deterministic and fetcher adapters produce the engine's fetch
// functions.
package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/haasonsaas/eventscout/internal/api"
	"github.com/haasonsaas/eventscout/internal/query"
)

// DefaultPageSize is the search page size when none is configured.
const DefaultPageSize = 20

// Query kinds, the leading part of every cache key.
const (
	kindSearch  = "events-search"
	kindDetails = "event-details"
)

// Client calls the events catalog through the request gateway.
type Client struct {
	gateway *api.Client
	baseURL string
	apiKey  string
}

// New builds a catalog client. baseURL is the API root without a trailing
// slash; apiKey is attached to every request.
func New(gateway *api.Client, baseURL, apiKey string) *Client {
	return &Client{
		gateway: gateway,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// SearchEnabled reports whether a search should issue network calls at all.
// Blank keyword and city means there is nothing to search for.
func SearchEnabled(keyword, city string) bool {
	return strings.TrimSpace(keyword) != "" || strings.TrimSpace(city) != ""
}

// SearchKey builds the cache key identifying one search. A blank keyword or
// city is an absent key part, distinct from an empty string supplied by the
// remote API.
func SearchKey(keyword, city string, size int) query.Key {
	return query.K(kindSearch, blankAsAbsent(keyword), blankAsAbsent(city), size)
}

// SearchPageKey identifies one specific page of a search, for the
// single-page (non-incremental) query variant. The page index is part of the
// key, so each page change is a key transition and the previous page's data
// can seed the new key's placeholder.
func SearchPageKey(keyword, city string, page, size int) query.Key {
	return query.K(kindSearch, strings.TrimSpace(keyword), strings.TrimSpace(city), page, size)
}

// DetailsKey builds the cache key for one event's detail record.
func DetailsKey(id string) query.Key {
	return query.K(kindDetails, id)
}

func blankAsAbsent(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// SearchPage fetches one page of search results. page is 0-based.
func (c *Client) SearchPage(ctx context.Context, keyword, city string, page, size int) (*SearchPage, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	if k := strings.TrimSpace(keyword); k != "" {
		params.Set("keyword", k)
	}
	if ct := strings.TrimSpace(city); ct != "" {
		params.Set("city", ct)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	var out SearchPage
	if err := c.gateway.GetJSON(ctx, c.baseURL+"/search", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventDetails fetches one event record by id.
func (c *Client) EventDetails(ctx context.Context, id string) (*Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("event id is required")
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)

	var out Event
	if err := c.gateway.GetJSON(ctx, c.baseURL+"/events/"+url.PathEscape(id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NextPageParam implements the engine's next-page contract: given the last
// fetched page, the next parameter is number+1 when that is still below
// totalPages, otherwise there is no next page.
func NextPageParam(last any) (int, bool) {
	page, ok := last.(*SearchPage)
	if !ok || page == nil {
		return 0, false
	}
	next := page.Page.Number + 1
	if next < page.Page.TotalPages {
		return next, true
	}
	return 0, false
}

// PageFetcher adapts a search to the engine's paginated fetch shape.
func (c *Client) PageFetcher(keyword, city string, size int) query.PageFetch {
	return func(ctx context.Context, param int) (any, error) {
		return c.SearchPage(ctx, keyword, city, param, size)
	}
}

// SearchFetcher adapts a single fixed page of a search to the engine's
// plain fetch shape.
func (c *Client) SearchFetcher(keyword, city string, page, size int) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return c.SearchPage(ctx, keyword, city, page, size)
	}
}

// DetailsFetcher adapts a detail lookup to the engine's fetch shape.
func (c *Client) DetailsFetcher(id string) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return c.EventDetails(ctx, id)
	}
}

// SearchOptions returns the engine options shared by every search query.
func SearchOptions() query.InfiniteOptions {
	return query.InfiniteOptions{
		InitialParam: 0,
		NextParam:    NextPageParam,
	}
}

// FlattenEvents concatenates the raw events of every fetched page, in page
// order with item order preserved within each page.
func FlattenEvents(pages *query.Pages) []json.RawMessage {
	if pages == nil {
		return nil
	}
	var out []json.RawMessage
	for _, p := range pages.Pages {
		if sp, ok := p.(*SearchPage); ok {
			out = append(out, sp.Events()...)
		}
	}
	return out
}

// LastMeta returns the paging metadata of the last fetched page, which is the
// authoritative source for totals.
func LastMeta(pages *query.Pages) (PageMeta, bool) {
	sp, ok := pages.Last().(*SearchPage)
	if !ok || sp == nil {
		return PageMeta{}, false
	}
	return sp.Page, true
}
