package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		if _, err := s.Get("absent"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := s.Set("app-storage", []byte(`{"token":"t"}`)); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get("app-storage")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !bytes.Equal(got, []byte(`{"token":"t"}`)) {
			t.Errorf("unexpected value: %s", got)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := s.Set("app-storage", []byte(`v2`)); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get("app-storage")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != "v2" {
			t.Errorf("expected v2, got %s", got)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := s.Delete("app-storage"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.Delete("app-storage"); err != nil {
			t.Fatalf("second delete: %v", err)
		}
		if _, err := s.Get("app-storage"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set("app-storage", []byte("persisted")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("app-storage")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("expected persisted, got %s", got)
	}
}
