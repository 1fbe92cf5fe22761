// Package settings persists pump configuration across restarts: the
// cycle timeout pair consumed by the control core, plus the WiFi
// credential pair, which is opaque here (the network is managed by the
// host OS; the credentials are only stored and served back).
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cycle timeout bounds and default (milliseconds). Values outside the
// range are rejected at this boundary and never reach the control core.
const (
	DefaultCycleTimeoutMs = 30000
	MinCycleTimeoutMs     = 1000
	MaxCycleTimeoutMs     = 300000
)

// DefaultPath is where the daemon persists settings unless overridden.
const DefaultPath = "/var/lib/grout-pump/settings.json"

// ErrTimeoutOutOfRange is returned for a cycle timeout outside
// [MinCycleTimeoutMs, MaxCycleTimeoutMs].
var ErrTimeoutOutOfRange = fmt.Errorf("cycle timeout out of range [%d, %d] ms", MinCycleTimeoutMs, MaxCycleTimeoutMs)

// Settings is the persisted configuration.
type Settings struct {
	CycleTimeoutMs int64  `json:"cycle_timeout_ms"`
	TimeoutEnabled bool   `json:"timeout_enabled"`
	WifiSSID       string `json:"wifi_ssid"`
	WifiPassword   string `json:"wifi_password"`
}

// Default returns the documented boot defaults.
func Default() Settings {
	return Settings{
		CycleTimeoutMs: DefaultCycleTimeoutMs,
		TimeoutEnabled: true,
	}
}

// ValidateCycleTimeout checks the range contract.
func ValidateCycleTimeout(ms int64) error {
	if ms < MinCycleTimeoutMs || ms > MaxCycleTimeoutMs {
		return ErrTimeoutOutOfRange
	}
	return nil
}

// Store loads and saves settings from a JSON file. Safe for concurrent
// use by the web handlers.
type Store struct {
	path string

	mu  sync.Mutex
	cur Settings
}

// NewStore creates a store backed by the given path. Nothing is read
// until Load.
func NewStore(path string) *Store {
	return &Store{path: path, cur: Default()}
}

// Load reads the settings file. A missing file yields the defaults;
// fields absent from an existing file keep their default values.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.cur = Default()
		return s.cur, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := ValidateCycleTimeout(loaded.CycleTimeoutMs); err != nil {
		// A hand-edited file must not smuggle an out-of-range timeout in.
		loaded.CycleTimeoutMs = DefaultCycleTimeoutMs
	}
	s.cur = loaded
	return loaded, nil
}

// Current returns the last loaded or saved settings.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Save validates and persists the settings atomically (temp file +
// rename), so a crash mid-write cannot corrupt the file.
func (s *Store) Save(set Settings) error {
	if err := ValidateCycleTimeout(set.CycleTimeoutMs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename settings: %w", err)
	}

	s.cur = set
	return nil
}
