package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
)

// Settings persists the runtime scheduler settings as a small JSON file.
// An empty path disables persistence.
type Settings struct {
	mu   sync.Mutex
	path string
}

type settingsDoc struct {
	MaxConcurrent     int  `json:"max_concurrent"`
	NetworkRestricted bool `json:"network_restricted"`
}

func NewSettings(path string) *Settings {
	return &Settings{path: path}
}

// Load reads the settings file, falling back to defaults when it is absent.
func (s *Settings) Load() (download.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := download.Config{MaxConcurrent: download.DefaultMaxConcurrent}
	if s.path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parse settings: %w", err)
	}
	if doc.MaxConcurrent > 0 {
		cfg.MaxConcurrent = doc.MaxConcurrent
	}
	cfg.NetworkRestricted = doc.NetworkRestricted
	return cfg, nil
}

// Save writes through a temp file in the same directory so readers never
// observe a half-written settings file.
func (s *Settings) Save(cfg download.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	doc := settingsDoc{
		MaxConcurrent:     cfg.MaxConcurrent,
		NetworkRestricted: cfg.NetworkRestricted,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
