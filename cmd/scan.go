package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/logger"
)

var (
	scanGroup  string
	scanSearch string
)

var scanCmd = &cobra.Command{
	Use:   "scan [dirs...]",
	Short: "Index music directories and print what was found",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogging(true)

		start := time.Now()
		lib := library.NewIndex()
		scanErr := lib.Scan(musicDirs(args))
		if scanErr != nil {
			fmt.Fprintln(os.Stderr, scanErr)
		}
		logger.Info("Scan complete",
			logger.Int("tracks", lib.Len()),
			logger.Duration("elapsed", time.Since(start)))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d tracks in %d directories\n", lib.Len(), len(lib.Dirs()))

		tracks := lib.Tracks()
		if scanSearch != "" {
			for _, m := range library.Search(tracks, scanSearch) {
				fmt.Fprintf(out, "%5d  %s\n", m.Position, m.Track)
			}
			return scanErr
		}

		field, err := parseField(scanGroup)
		if err != nil {
			return err
		}
		for _, g := range library.GroupBy(tracks, field) {
			if g.Artist != "" {
				fmt.Fprintf(out, "  %s (%s)\n", g.Name, g.Artist)
			} else {
				fmt.Fprintf(out, "  %s\n", g.Name)
			}
		}
		return scanErr
	},
}

func parseField(name string) (library.Field, error) {
	switch name {
	case "artist", "":
		return library.FieldArtist, nil
	case "album":
		return library.FieldAlbum, nil
	case "genre":
		return library.FieldGenre, nil
	default:
		return 0, fmt.Errorf("unknown grouping %q (artist, album, genre)", name)
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanGroup, "group", "artist", "group by artist, album or genre")
	scanCmd.Flags().StringVar(&scanSearch, "search", "", "print tracks matching a query instead of groups")
	rootCmd.AddCommand(scanCmd)
}
