package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/danfragoso/termpod/internal/audio"
	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/internal/player"
	"github.com/danfragoso/termpod/internal/ui"
	"github.com/danfragoso/termpod/internal/watch"
	"github.com/danfragoso/termpod/logger"
)

const watchSettle = 500 * time.Millisecond

var tuiCmd = &cobra.Command{
	Use:   "tui [dirs...]",
	Short: "Start the terminal player",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(args)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(args []string) error {
	initLogging(false)
	logger.Info("termpod started", logger.String("version", Version))

	settings := loadSettings()

	var notice string
	dirs := musicDirs(args)
	lib := library.NewIndex()
	if err := lib.Scan(dirs); err != nil {
		notice = err.Error()
	}
	logger.Info("Library loaded",
		logger.Strings("dirs", dirs),
		logger.Int("tracks", lib.Len()),
		logger.Bool("watch", cfg.Watch))

	engine := audio.Start(audio.OpenDefault(cfg.SampleRate))
	ctrl := player.New(lib, engine, player.WithVolume(settings.StartVolume()))
	defer func() {
		select {
		case <-engine.Done():
		default:
			ctrl.Shutdown()
		}
	}()

	var watcher *watch.Watcher
	if cfg.Watch {
		w, err := watch.New(watchSettle)
		if err != nil {
			logger.Warn("Library watching disabled", logger.ErrorField(err))
		} else {
			defer w.Close()
			if err := w.SetRoots(lib.Dirs()); err != nil {
				logger.Warn("Some directories are not watched", logger.ErrorField(err))
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)
			watcher = w
		}
	}

	theme := settings.Theme
	if flagTheme != "" {
		theme = flagTheme
		settings.Theme = ui.ThemeByName(flagTheme).Name
	}

	model := ui.New(ctrl, ui.Options{
		Events:     engine.Events(),
		Watcher:    watcher,
		Settings:   settings,
		VolumeStep: cfg.VolumeStep,
		Theme:      ui.ThemeByName(theme),
		Notice:     notice,
	})

	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		logger.Error("Terminal UI failed", logger.ErrorField(err))
	}
	logger.Info("termpod stopped")
	return err
}
