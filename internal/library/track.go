package library

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Defaults used when neither tags nor the filename provide a value
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown Genre"
)

// Track is one indexed audio file. It is never mutated after creation.
type Track struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre"`
}

// Metadata holds the embedded tag values of a file. Empty fields are absent.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Genre  string
}

// MetadataReader returns the embedded metadata of an audio file.
type MetadataReader func(path string) (Metadata, error)

// ReadTags reads embedded tags (ID3, Vorbis comments, FLAC, MP4) from path.
func ReadTags(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
	}, nil
}

// NewTrack builds a track from its filename, then lets embedded metadata
// override whatever it provides.
func NewTrack(path string, meta Metadata) *Track {
	artist, title := splitFilename(path)

	track := &Track{
		Path:   path,
		Title:  title,
		Artist: artist,
		Album:  UnknownAlbum,
		Genre:  UnknownGenre,
	}

	if meta.Title != "" {
		track.Title = meta.Title
	}
	if meta.Artist != "" {
		track.Artist = normalizeArtist(meta.Artist)
	}
	if meta.Album != "" {
		track.Album = meta.Album
	}
	if meta.Genre != "" {
		track.Genre = meta.Genre
	}

	return track
}

// splitFilename applies the "Artist - Title" naming convention to the base
// name of path.
func splitFilename(path string) (artist, title string) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.SplitN(name, " - ", 2)
	if len(parts) != 2 {
		return UnknownArtist, name
	}

	artist = normalizeArtist(parts[0])
	if artist == "" {
		artist = UnknownArtist
	}
	return artist, parts[1]
}

// normalizeArtist spaces out multi-artist separators so "A&B" and
// "A feat.B" read as "A & B" and "A feat. B".
func normalizeArtist(artist string) string {
	artist = strings.ReplaceAll(artist, "&", " & ")
	artist = strings.ReplaceAll(artist, "feat.", " feat. ")
	artist = strings.ReplaceAll(artist, "featuring", " featuring ")
	return strings.Join(strings.Fields(artist), " ")
}

// String renders the track the way list views show it.
func (t *Track) String() string {
	return t.Artist + " - " + t.Title
}
