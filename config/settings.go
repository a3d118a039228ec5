package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const defaultVolume = 1.0

// Settings are the user preferences kept between runs. Library contents are
// never persisted.
type Settings struct {
	InstallationID string   `json:"installation_id,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Theme          string   `json:"theme,omitempty"`

	path string
}

// LoadSettings reads the settings file at path. A missing file yields
// defaults. An installation ID is generated and saved on first use.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return s, fmt.Errorf("failed to parse settings: %w", err)
		}
	}

	if s.InstallationID == "" {
		s.InstallationID = uuid.New().String()
		if err := s.Save(); err != nil {
			return s, err
		}
	}
	return s, nil
}

// StartVolume returns the saved volume clamped into [0,1], or full volume.
func (s *Settings) StartVolume() float64 {
	if s.Volume == nil {
		return defaultVolume
	}
	v := *s.Volume
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetVolume records the volume to restore on the next start.
func (s *Settings) SetVolume(v float64) {
	s.Volume = &v
}

// Save writes the settings back to the file they were loaded from.
func (s *Settings) Save() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
