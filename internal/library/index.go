package library

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danfragoso/termpod/logger"
)

var (
	ErrNotFound  = errors.New("directory does not exist")
	ErrIndex     = errors.New("index out of range")
	ErrIO        = errors.New("cannot traverse directory")
	ErrDuplicate = errors.New("directory already in library")
)

// audioExtensions lists the file types the library indexes, lower-cased
var audioExtensions = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".flac": true,
}

// IsAudioFile reports whether path has one of the indexed extensions.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Index is the flat, ordered collection of discovered tracks together with
// the source directories they came from. It is not safe for concurrent use;
// the player controller owns it.
type Index struct {
	tracks []*Track
	dirs   []string
	byPath map[string]int // path -> position in tracks

	readMeta MetadataReader
}

// Option configures an Index.
type Option func(*Index)

// WithMetadataReader replaces the tag reader used when building tracks.
func WithMetadataReader(r MetadataReader) Option {
	return func(x *Index) {
		x.readMeta = r
	}
}

func NewIndex(opts ...Option) *Index {
	x := &Index{
		byPath:   make(map[string]int),
		readMeta: ReadTags,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Tracks returns the indexed tracks in library order. Callers must not
// modify the returned slice.
func (x *Index) Tracks() []*Track { return x.tracks }

// Dirs returns the source directories in insertion order.
func (x *Index) Dirs() []string { return x.dirs }

func (x *Index) Len() int { return len(x.tracks) }

// Track returns the track at position i, or nil when out of range.
func (x *Index) Track(i int) *Track {
	if i < 0 || i >= len(x.tracks) {
		return nil
	}
	return x.tracks[i]
}

// Position returns the current position of the track with the given path,
// or -1 when it is not indexed.
func (x *Index) Position(path string) int {
	if i, ok := x.byPath[path]; ok {
		return i
	}
	return -1
}

// Scan indexes every directory in dirs. A directory that cannot be walked
// contributes nothing and its failure is joined into the returned error;
// the other directories are still indexed.
func (x *Index) Scan(dirs []string) error {
	var errs []error
	for _, dir := range dirs {
		if err := x.scanDirectory(dir); err != nil {
			logger.Warn("Skipping music directory",
				logger.String("dir", dir),
				logger.ErrorField(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// scanDirectory is the Scan flavour of AddDirectory: a root that cannot be
// walked is ErrIO, a root that is not a directory is ErrNotFound.
func (x *Index) scanDirectory(dir string) error {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	return x.addDirectory(dir)
}

// AddDirectory indexes dir and registers it as a source directory.
func (x *Index) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	return x.addDirectory(dir)
}

// addDirectory registers dir by its absolute path, so every spelling of
// the same directory indexes the same track paths.
func (x *Index) addDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", dir, ErrIO, err)
	}
	dir = abs
	for _, d := range x.dirs {
		if d == dir {
			return fmt.Errorf("%s: %w", dir, ErrDuplicate)
		}
	}

	start := time.Now()
	files, err := walkAudioFiles(dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", dir, ErrIO, err)
	}

	added := 0
	for _, path := range files {
		if x.appendFile(path) {
			added++
		}
	}
	x.dirs = append(x.dirs, dir)

	logger.Info("Indexed music directory",
		logger.String("dir", dir),
		logger.Int("tracks", added),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// RemoveDirectory drops the source directory at position i together with
// every track it owns. Tracks also owned by another remaining directory
// are kept.
func (x *Index) RemoveDirectory(i int) error {
	if i < 0 || i >= len(x.dirs) {
		return fmt.Errorf("directory %d: %w", i, ErrIndex)
	}

	removed := x.dirs[i]
	x.dirs = append(x.dirs[:i:i], x.dirs[i+1:]...)

	before := len(x.tracks)
	x.retainTracks(func(t *Track) bool {
		return !isUnder(t.Path, removed) || x.ownedByAny(t.Path)
	})

	logger.Info("Removed music directory",
		logger.String("dir", removed),
		logger.Int("tracks", before-len(x.tracks)))
	return nil
}

// RefreshDirectory rescans the source directory at position i. Tracks whose
// files vanished are dropped, new files are appended and everything else
// keeps its position.
func (x *Index) RefreshDirectory(i int) error {
	if i < 0 || i >= len(x.dirs) {
		return fmt.Errorf("directory %d: %w", i, ErrIndex)
	}
	dir := x.dirs[i]

	files, err := walkAudioFiles(dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", dir, ErrIO, err)
	}

	present := make(map[string]bool, len(files))
	for _, path := range files {
		present[path] = true
	}

	before := len(x.tracks)
	x.retainTracks(func(t *Track) bool {
		return present[t.Path] || !isUnder(t.Path, dir)
	})
	dropped := before - len(x.tracks)

	added := 0
	for _, path := range files {
		if x.appendFile(path) {
			added++
		}
	}

	logger.Debug("Refreshed music directory",
		logger.String("dir", dir),
		logger.Int("added", added),
		logger.Int("dropped", dropped))
	return nil
}

// Shuffle permutes the track list in place.
func (x *Index) Shuffle(r *rand.Rand) {
	r.Shuffle(len(x.tracks), func(i, j int) {
		x.tracks[i], x.tracks[j] = x.tracks[j], x.tracks[i]
		x.byPath[x.tracks[i].Path] = i
		x.byPath[x.tracks[j].Path] = j
	})
}

// appendFile registers a file unless its path is already indexed.
func (x *Index) appendFile(path string) bool {
	if _, exists := x.byPath[path]; exists {
		return false
	}

	meta, err := x.readMeta(path)
	if err != nil {
		logger.Debug("Tag read error, using filename",
			logger.String("path", filepath.Base(path)),
			logger.ErrorField(err))
	}

	x.byPath[path] = len(x.tracks)
	x.tracks = append(x.tracks, NewTrack(path, meta))
	return true
}

func (x *Index) retainTracks(keep func(*Track) bool) {
	kept := x.tracks[:0]
	for _, t := range x.tracks {
		if keep(t) {
			x.byPath[t.Path] = len(kept)
			kept = append(kept, t)
		} else {
			delete(x.byPath, t.Path)
		}
	}
	for i := len(kept); i < len(x.tracks); i++ {
		x.tracks[i] = nil
	}
	x.tracks = kept
}

func (x *Index) ownedByAny(path string) bool {
	for _, d := range x.dirs {
		if isUnder(path, d) {
			return true
		}
	}
	return false
}

// isUnder reports whether path is dir itself or nested below it.
func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// walkAudioFiles lists audio files below root in lexical walk order,
// following symbolic links. Paths are reported below root as given, not
// below link targets. Each real directory is visited once so link cycles
// terminate. Dangling links are skipped.
func walkAudioFiles(root string) ([]string, error) {
	var files []string
	visited := make(map[string]bool)

	var walk func(dir string) error
	walk = func(dir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if visited[real] {
			return nil
		}
		visited[real] = true

		return filepath.WalkDir(real, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == real {
				return nil
			}

			rel, err := filepath.Rel(real, p)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, rel)

			switch {
			case d.Type()&fs.ModeSymlink != 0:
				info, err := os.Stat(p)
				if err != nil {
					logger.Debug("Skipping dangling link", logger.String("path", path))
					return nil
				}
				if info.IsDir() {
					return walk(path)
				}
				if info.Mode().IsRegular() && IsAudioFile(path) {
					files = append(files, path)
				}

			case d.IsDir():
				if visited[p] {
					return filepath.SkipDir
				}
				visited[p] = true

			case d.Type().IsRegular() && IsAudioFile(path):
				files = append(files, path)
			}
			return nil
		})
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}
