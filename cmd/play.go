package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danfragoso/termpod/internal/audio"
	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/logger"
)

var playCmd = &cobra.Command{
	Use:   "play files...",
	Short: "Play audio files or playlists in order without the UI",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogging(true)
		settings := loadSettings()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine := audio.Start(audio.OpenDefault(cfg.SampleRate))
		defer func() {
			engine.Send(audio.Shutdown())
			engine.Wait()
		}()
		engine.Send(audio.SetVolume(settings.StartVolume()))

		paths := expandPlaylists(args)
		var failed int
		for i, path := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "▶ %s\n", library.NewTrack(path, library.Metadata{}))

			err := playOne(ctx, engine, path, uint64(i+1))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				failed++
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be played", failed, len(paths))
		}
		return nil
	},
}

// expandPlaylists replaces M3U arguments with the files they list.
func expandPlaylists(args []string) []string {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if !isPlaylist(arg) {
			paths = append(paths, arg)
			continue
		}
		entries, err := library.ReadPlaylist(arg)
		if err != nil {
			logger.Warn("Skipping playlist", logger.String("path", arg), logger.ErrorField(err))
			continue
		}
		paths = append(paths, entries...)
	}
	return paths
}

func isPlaylist(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u", ".m3u8":
		return true
	}
	return false
}

// playOne plays path and blocks until it drains, fails or ctx ends.
func playOne(ctx context.Context, engine *audio.Engine, path string, seq uint64) error {
	reply := make(chan error, 1)
	engine.Send(audio.Play(path, seq).WithReply(reply))

	select {
	case err := <-reply:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		select {
		case ev := <-engine.Events():
			if ev.Seq != seq {
				continue
			}
			switch ev.Kind {
			case audio.EventFinished:
				return nil
			case audio.EventFailed:
				return ev.Err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
}
