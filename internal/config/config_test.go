package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventscout.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.PageSize != 20 {
		t.Errorf("default page size = %d", cfg.Search.PageSize)
	}
	if cfg.API.BaseURL == "" {
		t.Error("default base url missing")
	}
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("TM_API_KEY", "secret-key")
	path := writeConfig(t, `
api:
  base_url: https://api.example.com/v2
  api_key: ${TM_API_KEY}
  timeout: 5s
search:
  page_size: 10
  stale_time: 30s
storage:
  path: /tmp/state.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.APIKey != "secret-key" {
		t.Errorf("env not expanded: %q", cfg.API.APIKey)
	}
	if cfg.API.Timeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Search.PageSize != 10 || cfg.Search.StaleTime.Std() != 30*time.Second {
		t.Errorf("search config = %+v", cfg.Search)
	}
	sp, err := cfg.StoragePath()
	if err != nil || sp != "/tmp/state.db" {
		t.Errorf("storage path = %q, %v", sp, err)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"blank base url", "api:\n  base_url: \"\"\n"},
		{"zero page size", "search:\n  page_size: 0\n"},
		{"negative stale time", "search:\n  stale_time: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/env/path.yaml")
		if got := ResolvePath("/flag/path.yaml"); got != "/flag/path.yaml" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("env second", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/env/path.yaml")
		if got := ResolvePath(""); got != "/env/path.yaml" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("default last", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		if got := ResolvePath(""); got != DefaultFileName {
			t.Errorf("got %q", got)
		}
	})
}
