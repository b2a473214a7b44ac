package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
)

func TestSettingsDefaultsWhenFileAbsent(t *testing.T) {
	s := NewSettings(filepath.Join(t.TempDir(), "settings.json"))
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxConcurrent != download.DefaultMaxConcurrent || cfg.NetworkRestricted {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := NewSettings(filepath.Join(t.TempDir(), "settings.json"))
	want := download.Config{MaxConcurrent: 5, NetworkRestricted: true}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSettingsPartialFileKeepsDefaultConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"network_restricted": true}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := NewSettings(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxConcurrent != download.DefaultMaxConcurrent || !cfg.NetworkRestricted {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestSettingsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewSettings(path).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSettingsEmptyPathDisablesPersistence(t *testing.T) {
	s := NewSettings("")
	if err := s.Save(download.Config{MaxConcurrent: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxConcurrent != download.DefaultMaxConcurrent {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}
