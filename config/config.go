package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	MusicDirs    []string // Directories indexed at startup
	SampleRate   int      // Output rate of the audio device
	VolumeStep   float64  // Volume change per key press
	Watch        bool     // Rescan directories when their contents change
	SettingsPath string   // JSON file with persisted settings
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// splitDirs splits a path list (":" on unix, ";" on windows), dropping
// empty entries.
func splitDirs(list string) []string {
	dirs := make([]string, 0)
	for _, d := range filepath.SplitList(list) {
		d = strings.TrimSpace(d)
		if d != "" {
			dirs = append(dirs, ExpandHome(d))
		}
	}
	return dirs
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "termpod")
	}
	return ".termpod"
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists. Existing variables win.
func Load() *Config {
	_ = godotenv.Load()

	stateDir := defaultStateDir()
	home, _ := os.UserHomeDir()

	return &Config{
		MusicDirs:    splitDirs(getEnv("TERMPOD_MUSIC_DIRS", filepath.Join(home, "Music"))),
		SampleRate:   getEnvInt("TERMPOD_SAMPLE_RATE", 44100),
		VolumeStep:   getEnvFloat("TERMPOD_VOLUME_STEP", 0.05),
		Watch:        getEnvBool("TERMPOD_WATCH", true),
		SettingsPath: getEnv("TERMPOD_SETTINGS_PATH", filepath.Join(stateDir, "settings.json")),
		LogLevel:     getEnv("TERMPOD_LOG_LEVEL", "info"),
		LogFile:      getEnv("TERMPOD_LOG_FILE", filepath.Join(stateDir, "termpod.log")),
		LogMaxSizeMB: getEnvInt("TERMPOD_LOG_MAX_SIZE_MB", 10),
	}
}
