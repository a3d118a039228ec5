package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danfragoso/termpod/logger"
)

// ReadPlaylist reads an M3U/M3U8 file and returns the audio paths it
// references as absolute paths. Relative entries resolve against the
// playlist's directory.
func ReadPlaylist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	baseDir := filepath.Dir(path)
	lines := strings.Split(string(data), "\n")
	paths := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		trackPath := line
		if !filepath.IsAbs(trackPath) {
			trackPath = filepath.Join(baseDir, trackPath)
		}
		trackPath, err = filepath.Abs(trackPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve playlist entry %q: %w", line, err)
		}

		if IsAudioFile(trackPath) {
			paths = append(paths, trackPath)
		}
	}

	logger.Debug("Parsed playlist",
		logger.String("playlist", filepath.Base(path)),
		logger.Int("entries", len(paths)))
	return paths, nil
}
