// handlers.go contains the command handlers: each builds the app wiring,
// drives the state container or the query cache, and renders the result.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/eventscout/internal/api"
	"github.com/haasonsaas/eventscout/internal/ticketmaster"
)

func runLogin(cmd *cobra.Command, configPath, email, password string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Login(cmd.Context(), email, password); err != nil {
		return renderAuthError(cmd, err)
	}
	snap := a.store.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", snap.User.Name, snap.User.Email)
	return nil
}

func runSignup(cmd *cobra.Command, configPath, name, email, password string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Signup(cmd.Context(), name, email, password); err != nil {
		return renderAuthError(cmd, err)
	}
	snap := a.store.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are now logged in.\n", snap.User.Name)
	return nil
}

// renderAuthError surfaces field-level validation errors per field; anything
// else passes through untouched.
func renderAuthError(cmd *cobra.Command, err error) error {
	ve, ok := api.IsValidation(err)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(ve.Fields))
	for f := range ve.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f, ve.Fields[f])
	}
	return errors.New("validation failed")
}

func runLogout(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	a.store.Logout()
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.store.Snapshot()
	if snap.User == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%d favorites)\n",
		snap.User.Name, snap.User.Email, len(snap.Favorites))
	return nil
}

func runSearch(cmd *cobra.Command, configPath, keyword, city string, size, pageCount int, all bool) error {
	if !ticketmaster.SearchEnabled(keyword, city) {
		return errors.New("provide a keyword or a --city to search for")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if size <= 0 {
		size = a.cfg.Search.PageSize
	}
	ctx := cmd.Context()
	key := ticketmaster.SearchKey(keyword, city, size)
	fetch := a.catalog.PageFetcher(keyword, city, size)
	opts := ticketmaster.SearchOptions()
	opts.StaleTime = a.cfg.Search.StaleTime.Std()

	pages, err := a.cache.FetchNextPage(ctx, key, fetch, opts)
	if err != nil {
		return err
	}
	for loaded := 1; pages.HasNext(opts.NextParam) && (all || loaded < pageCount); loaded++ {
		if pages, err = a.cache.FetchNextPage(ctx, key, fetch, opts); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	events := ticketmaster.FlattenEvents(pages)
	for _, raw := range events {
		var ev ticketmaster.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		fmt.Fprintln(out, eventLine(&ev, a.store.IsFavorite(ev.ID)))
	}

	if meta, ok := ticketmaster.LastMeta(pages); ok {
		fmt.Fprintf(out, "\nLoaded %d of %d events", len(events), meta.TotalElements)
		if pages.HasNext(opts.NextParam) {
			fmt.Fprint(out, " (more available; use --pages or --all)")
		}
		fmt.Fprintln(out)
	}
	return nil
}

// runSearchPage is the single-page variant: one page addressed directly, its
// key carrying the page index so a page change is a key transition seeded
// from the previous page's data.
func runSearchPage(cmd *cobra.Command, configPath, keyword, city string, page, size int) error {
	if !ticketmaster.SearchEnabled(keyword, city) {
		return errors.New("provide a keyword or a --city to search for")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if size <= 0 {
		size = a.cfg.Search.PageSize
	}
	ctx := cmd.Context()
	key := ticketmaster.SearchPageKey(keyword, city, page, size)

	opts := queryOptions(a)
	if page > 0 {
		prev := ticketmaster.SearchPageKey(keyword, city, page-1, size)
		opts.Placeholder = func() (any, bool) { return a.cache.Data(prev) }
	}

	a.cache.Observe(ctx, key, a.catalog.SearchFetcher(keyword, city, page, size), opts)
	v, err := a.cache.Wait(ctx, key)
	if err != nil {
		return err
	}
	sp, ok := v.(*ticketmaster.SearchPage)
	if !ok {
		return errors.New("search: unexpected cache value")
	}

	out := cmd.OutOrStdout()
	for _, raw := range sp.Events() {
		var ev ticketmaster.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		fmt.Fprintln(out, eventLine(&ev, a.store.IsFavorite(ev.ID)))
	}
	fmt.Fprintf(out, "\nPage %d of %d (%d events total)\n",
		sp.Page.Number+1, sp.Page.TotalPages, sp.Page.TotalElements)
	return nil
}

func runEvent(cmd *cobra.Command, configPath, id string, refresh bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ev, err := a.fetchEvent(cmd, id, refresh)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", ev.Name, ev.ID)
	if venue := ev.Venue(); venue != nil {
		fmt.Fprintf(out, "  Venue: %s, %s\n", venue.Name, venue.City.Name)
	}
	if dt := ev.Dates.Start.DateTime; dt != "" {
		fmt.Fprintf(out, "  Starts: %s\n", dt)
	}
	for _, pr := range ev.PriceRanges {
		fmt.Fprintf(out, "  Price: %.2f-%.2f %s\n", pr.Min, pr.Max, pr.Currency)
	}
	for _, cl := range ev.Classifications {
		if cl.Segment.Name != "" || cl.Genre.Name != "" {
			fmt.Fprintf(out, "  Genre: %s\n", strings.TrimSpace(cl.Segment.Name+" / "+cl.Genre.Name))
		}
	}
	if ev.URL != "" {
		fmt.Fprintf(out, "  Tickets: %s\n", ev.URL)
	}
	if a.store.IsFavorite(ev.ID) {
		fmt.Fprintln(out, "  ★ favorited")
	}
	return nil
}

func runFavoritesList(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.store.Snapshot()
	if len(snap.Favorites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
		return nil
	}

	ids := make([]string, 0, len(snap.Favorites))
	for id := range snap.Favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f := snap.Favorites[id]
		line := fmt.Sprintf("%s  %s", f.ID, f.Name)
		if f.Venue != "" {
			line += "  @ " + f.Venue
		}
		if f.City != "" {
			line += ", " + f.City
		}
		if f.DateTime != "" {
			line += "  " + f.DateTime
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, configPath, id string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ev, err := a.fetchEvent(cmd, id, false)
	if err != nil {
		return err
	}

	a.store.ToggleFavorite(ev.Raw)
	if a.store.IsFavorite(ev.ID) {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q to favorites.\n", ev.Name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from favorites.\n", ev.Name)
	}
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, configPath, id string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.store.IsFavorite(id) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not in favorites.\n", id)
		return nil
	}
	a.store.RemoveFavorite(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites.\n", id)
	return nil
}

// runFavoritesRefresh refetches details for every favorite concurrently and
// re-stores the denormalized summaries from the fresh payloads.
func runFavoritesRefresh(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.store.Snapshot()
	if len(snap.Favorites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites to refresh.")
		return nil
	}

	var mu sync.Mutex
	fresh := make([]*ticketmaster.Event, 0, len(snap.Favorites))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for id := range snap.Favorites {
		id := id
		g.Go(func() error {
			v, err := a.cache.Refetch(ctx, ticketmaster.DetailsKey(id), a.catalog.DetailsFetcher(id))
			if err != nil {
				return fmt.Errorf("refresh %s: %w", id, err)
			}
			if ev, ok := v.(*ticketmaster.Event); ok {
				mu.Lock()
				fresh = append(fresh, ev)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ev := range fresh {
		if a.store.IsFavorite(ev.ID) {
			a.store.RemoveFavorite(ev.ID)
			a.store.ToggleFavorite(ev.Raw)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d favorites.\n", len(fresh))
	return nil
}

func (a *app) fetchEvent(cmd *cobra.Command, id string, refresh bool) (*ticketmaster.Event, error) {
	ctx := cmd.Context()
	key := ticketmaster.DetailsKey(id)
	fetch := a.catalog.DetailsFetcher(id)

	var (
		v   any
		err error
	)
	if refresh {
		v, err = a.cache.Refetch(ctx, key, fetch)
	} else {
		a.cache.Observe(ctx, key, fetch, queryOptions(a))
		v, err = a.cache.Wait(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	ev, ok := v.(*ticketmaster.Event)
	if !ok {
		return nil, fmt.Errorf("event %s: unexpected cache value", id)
	}
	return ev, nil
}

func eventLine(ev *ticketmaster.Event, favorite bool) string {
	marker := " "
	if favorite {
		marker = "★"
	}
	line := fmt.Sprintf("%s %-18s %s", marker, ev.ID, ev.Name)
	if venue := ev.Venue(); venue != nil && venue.City.Name != "" {
		line += "  (" + venue.City.Name + ")"
	}
	if dt := ev.Dates.Start.DateTime; dt != "" {
		line += "  " + dt
	}
	return line
}
