package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danfragoso/termpod/config"
	"github.com/danfragoso/termpod/logger"
)

var (
	cfg *config.Config

	flagLogLevel   string
	flagLogFile    string
	flagSettings   string
	flagSampleRate int
	flagVolumeStep float64
	flagNoWatch    bool
	flagTheme      string
)

var rootCmd = &cobra.Command{
	Use:   "termpod [dirs...]",
	Short: "termpod is a local music library player for the terminal.",
	Long: `termpod indexes mp3, ogg and flac files from your music directories and
lets you browse, search, queue and play them from the terminal.

Directories default to TERMPOD_MUSIC_DIRS or ~/Music.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		applyFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(args)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&flagLogFile, "log-file", "", "log file path")
	f.StringVar(&flagSettings, "settings", "", "settings file path")
	f.IntVar(&flagSampleRate, "sample-rate", 0, "output sample rate in Hz")
	f.Float64Var(&flagVolumeStep, "volume-step", 0, "volume change per key press")
	f.BoolVar(&flagNoWatch, "no-watch", false, "do not rescan directories when files change")
	f.StringVar(&flagTheme, "theme", "", "color theme")
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("settings") {
		cfg.SettingsPath = flagSettings
	}
	if flags.Changed("sample-rate") {
		cfg.SampleRate = flagSampleRate
	}
	if flags.Changed("volume-step") {
		cfg.VolumeStep = flagVolumeStep
	}
	if flagNoWatch {
		cfg.Watch = false
	}
}

// initLogging starts the global logger. The console core is off while the
// terminal UI draws on the screen.
func initLogging(console bool) {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		Console:    console,
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	logger.With(logger.String("session", uuid.NewString()))
}

// musicDirs returns the directories given on the command line, or the
// configured ones.
func musicDirs(args []string) []string {
	if len(args) > 0 {
		dirs := make([]string, len(args))
		for i, a := range args {
			dirs[i] = config.ExpandHome(a)
		}
		return dirs
	}
	return cfg.MusicDirs
}

func loadSettings() *config.Settings {
	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		logger.Warn("Failed to load settings, using defaults",
			logger.String("path", cfg.SettingsPath),
			logger.ErrorField(err))
	}
	logger.With(logger.String("installation_id", settings.InstallationID))
	return settings
}

// Execute executes the root command.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Application crashed with panic",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			logger.Sync()
			panic(r)
		}
	}()
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
