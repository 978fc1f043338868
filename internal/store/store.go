// Package store is the process-wide application state container. It holds
// the auth session and the favorites mapping, exposes mutator actions as the
// only write path, notifies subscribers after every committed mutation, and
// persists an allow-listed slice of its fields to durable storage so state
// survives process restarts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/haasonsaas/eventscout/internal/auth"
	"github.com/haasonsaas/eventscout/internal/kv"
)

// storageName is the fixed blob name the persisted slice is stored under.
const storageName = "app-storage"

// FavoriteEvent is the denormalized summary kept per favorited event. The
// raw source payload rides along for consumers that need unmodeled fields.
type FavoriteEvent struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Image    string          `json:"image,omitempty"`
	City     string          `json:"city,omitempty"`
	Venue    string          `json:"venue,omitempty"`
	DateTime string          `json:"dateTime,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// State is a snapshot of the container. User and Token are set and cleared
// together: the session is atomic.
type State struct {
	User        *auth.User
	Token       string
	LoadingAuth bool
	Favorites   map[string]FavoriteEvent
}

// persistedSlice is the exact subset of State that survives restart. New
// state fields are private by default; surviving restart requires adding a
// field here explicitly.
type persistedSlice struct {
	User      *auth.User               `json:"user"`
	Token     string                   `json:"token"`
	Favorites map[string]FavoriteEvent `json:"favorites,omitempty"`
}

// Persister is the durable storage the container writes through. *kv.Store
// satisfies it.
type Persister interface {
	Get(name string) ([]byte, error)
	Set(name string, value []byte) error
}

// Store is the state container. It is the single writer of session and
// favorites state.
type Store struct {
	mu      sync.Mutex
	state   State
	persist Persister
	auth    auth.Service
	logger  *slog.Logger
	subs    map[int]func(State)
	nextSub int
}

// Options configures a Store.
type Options struct {
	// Persister receives the persisted slice after every mutating action and
	// is read once at construction to rehydrate. Nil disables persistence.
	Persister Persister
	// Auth is the authentication collaborator behind Login and Signup.
	Auth auth.Service
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New builds the container, rehydrating the persisted slice when present.
func New(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		state:   State{Favorites: make(map[string]FavoriteEvent)},
		persist: opts.Persister,
		auth:    opts.Auth,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}

	if s.persist != nil {
		blob, err := s.persist.Get(storageName)
		switch {
		case errors.Is(err, kv.ErrNotFound):
			// First run.
		case err != nil:
			return nil, err
		default:
			var slice persistedSlice
			if err := json.Unmarshal(blob, &slice); err != nil {
				return nil, err
			}
			s.state.User = slice.User
			s.state.Token = slice.Token
			if slice.Favorites != nil {
				s.state.Favorites = slice.Favorites
			}
			// The session is atomic; never rehydrate half of one.
			if s.state.User == nil {
				s.state.Token = ""
			}
		}
	}
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	snap := s.state
	snap.Favorites = make(map[string]FavoriteEvent, len(s.state.Favorites))
	for id, f := range s.state.Favorites {
		snap.Favorites[id] = f
	}
	return snap
}

// Token returns the current auth token, or "" when logged out. It matches
// the gateway's api.TokenFunc shape.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers fn to run after every committed mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// commit persists the allow-listed slice and notifies subscribers. Persist
// failures are logged, not propagated: the write is fire-and-forget with
// respect to the mutating action. Called with s.mu held; returns with it
// released.
func (s *Store) commit() {
	snap := s.snapshotLocked()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	persist := s.persist
	s.mu.Unlock()

	if persist != nil {
		slice := persistedSlice{User: snap.User, Token: snap.Token, Favorites: snap.Favorites}
		blob, err := json.Marshal(slice)
		if err == nil {
			err = persist.Set(storageName, blob)
		}
		if err != nil {
			s.logger.Warn("failed to persist state", "error", err)
		}
	}

	for _, fn := range fns {
		fn(snap)
	}
}

// SaveUser replaces the user profile. Clearing the user also clears the
// token, keeping the session atomic.
func (s *Store) SaveUser(user *auth.User) {
	s.mu.Lock()
	s.state.User = user
	if user == nil {
		s.state.Token = ""
	}
	s.commit()
}

// Login authenticates and, on success, atomically installs user and token.
// Auth errors are returned to the caller, never swallowed; the session is
// left unchanged on failure.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	s.state.LoadingAuth = true
	s.commit()

	user, token, err := s.auth.Login(ctx, email, password)

	s.mu.Lock()
	s.state.LoadingAuth = false
	if err != nil {
		s.commit()
		return err
	}
	s.state.User = user
	s.state.Token = token
	s.commit()
	return nil
}

// Signup registers a new account and installs the resulting session, with
// the same failure semantics as Login.
func (s *Store) Signup(ctx context.Context, name, email, password string) error {
	s.mu.Lock()
	s.state.LoadingAuth = true
	s.commit()

	user, token, err := s.auth.Signup(ctx, name, email, password)

	s.mu.Lock()
	s.state.LoadingAuth = false
	if err != nil {
		s.commit()
		return err
	}
	s.state.User = user
	s.state.Token = token
	s.commit()
	return nil
}

// Logout clears the session unconditionally. No network call is involved.
func (s *Store) Logout() {
	s.mu.Lock()
	s.state.User = nil
	s.state.Token = ""
	s.commit()
}

// ToggleFavorite adds the event to favorites, or removes it when already
// present. A payload without an id is a no-op. Toggling twice restores the
// prior mapping.
func (s *Store) ToggleFavorite(eventRaw json.RawMessage) {
	summary, ok := extractSummary(eventRaw)
	if !ok {
		return
	}

	s.mu.Lock()
	if _, exists := s.state.Favorites[summary.ID]; exists {
		delete(s.state.Favorites, summary.ID)
	} else {
		s.state.Favorites[summary.ID] = summary
	}
	s.commit()
}

// RemoveFavorite removes the favorite with the given id. Removing an absent
// id is a no-op and notifies nobody.
func (s *Store) RemoveFavorite(id string) {
	s.mu.Lock()
	if _, exists := s.state.Favorites[id]; !exists {
		s.mu.Unlock()
		return
	}
	delete(s.state.Favorites, id)
	s.commit()
}

// IsFavorite reports whether id is favorited. A blank id is never favorited.
func (s *Store) IsFavorite(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Favorites[id]
	return ok
}

// extractSummary denormalizes the fields the favorites list renders out of a
// raw event payload, keeping the payload itself attached.
func extractSummary(eventRaw json.RawMessage) (FavoriteEvent, bool) {
	var parsed struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
		Dates struct {
			Start struct {
				DateTime string `json:"dateTime"`
			} `json:"start"`
		} `json:"dates"`
		Embedded struct {
			Venues []struct {
				Name string `json:"name"`
				City struct {
					Name string `json:"name"`
				} `json:"city"`
			} `json:"venues"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(eventRaw, &parsed); err != nil || parsed.ID == "" {
		return FavoriteEvent{}, false
	}

	summary := FavoriteEvent{
		ID:       parsed.ID,
		Name:     parsed.Name,
		DateTime: parsed.Dates.Start.DateTime,
		Raw:      append(json.RawMessage(nil), eventRaw...),
	}
	if len(parsed.Images) > 0 {
		summary.Image = parsed.Images[0].URL
	}
	if len(parsed.Embedded.Venues) > 0 {
		summary.Venue = parsed.Embedded.Venues[0].Name
		summary.City = parsed.Embedded.Venues[0].City.Name
	}
	return summary, true
}
