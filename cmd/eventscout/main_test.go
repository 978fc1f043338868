package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newCatalogServer serves a 45-event catalog across 3 pages of 20.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	const total, size = 45, 20

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			start := page * size
			end := start + size
			if end > total {
				end = total
			}
			events := make([]map[string]any, 0, end-start)
			for i := start; i < end; i++ {
				events = append(events, map[string]any{
					"id":   fmt.Sprintf("ev-%02d", i),
					"name": fmt.Sprintf("Event %02d", i),
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"_embedded": map[string]any{"events": events},
				"page": map[string]any{
					"number": page, "size": size, "totalPages": 3, "totalElements": total,
				},
			})
		case strings.HasPrefix(r.URL.Path, "/events/"):
			id := strings.TrimPrefix(r.URL.Path, "/events/")
			json.NewEncoder(w).Encode(map[string]any{
				"id":   id,
				"name": "Event " + id,
				"_embedded": map[string]any{
					"venues": []map[string]any{{"name": "Hall", "city": map[string]any{"name": "Berlin"}}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "eventscout.yaml")
	content := fmt.Sprintf(`
api:
  base_url: %s
  api_key: test-key
storage:
  path: %s
`, baseURL, filepath.Join(dir, "state.db"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestSearchWalksPages(t *testing.T) {
	srv := newCatalogServer(t)
	defer srv.Close()
	cfgPath := writeTestConfig(t, srv.URL)

	t.Run("first page only", func(t *testing.T) {
		cmd, buf := testCmd(t)
		if err := runSearch(cmd, cfgPath, "music", "", 20, 1, false); err != nil {
			t.Fatalf("search: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Loaded 20 of 45 events") {
			t.Errorf("unexpected summary:\n%s", out)
		}
		if !strings.Contains(out, "more available") {
			t.Errorf("expected a next-page hint:\n%s", out)
		}
	})

	t.Run("all pages", func(t *testing.T) {
		cmd, buf := testCmd(t)
		if err := runSearch(cmd, cfgPath, "music", "", 20, 1, true); err != nil {
			t.Fatalf("search --all: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Loaded 45 of 45 events") {
			t.Errorf("unexpected summary:\n%s", out)
		}
		if strings.Contains(out, "more available") {
			t.Errorf("no next page expected:\n%s", out)
		}
		if !strings.Contains(out, "ev-00") || !strings.Contains(out, "ev-44") {
			t.Errorf("missing events:\n%s", out)
		}
	})

	t.Run("direct page jump", func(t *testing.T) {
		cmd, buf := testCmd(t)
		if err := runSearchPage(cmd, cfgPath, "music", "", 2, 20); err != nil {
			t.Fatalf("search --page: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Page 3 of 3 (45 events total)") {
			t.Errorf("unexpected footer:\n%s", out)
		}
		if !strings.Contains(out, "ev-44") || strings.Contains(out, "ev-00") {
			t.Errorf("wrong page contents:\n%s", out)
		}
	})

	t.Run("blank search is rejected without network calls", func(t *testing.T) {
		cmd, _ := testCmd(t)
		if err := runSearch(cmd, cfgPath, "", "", 20, 1, false); err == nil {
			t.Fatal("expected error for blank search")
		}
	})
}

func TestAuthAndFavoritesFlow(t *testing.T) {
	srv := newCatalogServer(t)
	defer srv.Close()
	cfgPath := writeTestConfig(t, srv.URL)

	cmd, buf := testCmd(t)
	if err := runLogin(cmd, cfgPath, "test@demo.com", "123456"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(buf.String(), "Logged in as Mock User") {
		t.Errorf("login output:\n%s", buf.String())
	}

	// Session persists across invocations through the state database.
	cmd, buf = testCmd(t)
	if err := runWhoami(cmd, cfgPath); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(buf.String(), "Mock User <test@demo.com>") {
		t.Errorf("whoami output:\n%s", buf.String())
	}

	cmd, buf = testCmd(t)
	if err := runFavoritesAdd(cmd, cfgPath, "ev-07"); err != nil {
		t.Fatalf("favorites add: %v", err)
	}
	if !strings.Contains(buf.String(), "Added") {
		t.Errorf("add output:\n%s", buf.String())
	}

	cmd, buf = testCmd(t)
	if err := runFavoritesList(cmd, cfgPath); err != nil {
		t.Fatalf("favorites list: %v", err)
	}
	if !strings.Contains(buf.String(), "ev-07") || !strings.Contains(buf.String(), "Berlin") {
		t.Errorf("list output:\n%s", buf.String())
	}

	cmd, buf = testCmd(t)
	if err := runFavoritesRefresh(cmd, cfgPath); err != nil {
		t.Fatalf("favorites refresh: %v", err)
	}
	if !strings.Contains(buf.String(), "Refreshed 1 favorites") {
		t.Errorf("refresh output:\n%s", buf.String())
	}

	cmd, buf = testCmd(t)
	if err := runFavoritesRemove(cmd, cfgPath, "ev-07"); err != nil {
		t.Fatalf("favorites remove: %v", err)
	}

	cmd, buf = testCmd(t)
	if err := runLogout(cmd, cfgPath); err != nil {
		t.Fatalf("logout: %v", err)
	}
	cmd, buf = testCmd(t)
	if err := runWhoami(cmd, cfgPath); err != nil {
		t.Fatalf("whoami after logout: %v", err)
	}
	if !strings.Contains(buf.String(), "Not logged in.") {
		t.Errorf("post-logout whoami:\n%s", buf.String())
	}
}

func TestLoginFailureSurfacesError(t *testing.T) {
	srv := newCatalogServer(t)
	defer srv.Close()
	cfgPath := writeTestConfig(t, srv.URL)

	cmd, _ := testCmd(t)
	if err := runLogin(cmd, cfgPath, "test@demo.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
}
