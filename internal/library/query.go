package library

import (
	"sort"
	"strings"
)

// Field selects the tag a grouping is built from.
type Field int

const (
	FieldArtist Field = iota
	FieldAlbum
	FieldGenre
)

func (f Field) String() string {
	switch f {
	case FieldArtist:
		return "artist"
	case FieldAlbum:
		return "album"
	case FieldGenre:
		return "genre"
	default:
		return "unknown"
	}
}

// Group is one distinct value of a grouping. Artist is only set for album
// groups.
type Group struct {
	Name   string
	Artist string
}

// Match is a track together with its position in the library.
type Match struct {
	Position int
	Track    *Track
}

// GroupBy returns the distinct values of field across tracks, sorted and
// deduplicated. Album groups carry the artist of the first track in
// (album, artist) order.
func GroupBy(tracks []*Track, field Field) []Group {
	if field == FieldAlbum {
		return groupAlbums(tracks)
	}

	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, t := range tracks {
		var v string
		if field == FieldArtist {
			v = t.Artist
		} else {
			v = t.Genre
		}
		if !seen[v] {
			seen[v] = true
			names = append(names, v)
		}
	}
	sort.Strings(names)

	groups := make([]Group, len(names))
	for i, n := range names {
		groups[i] = Group{Name: n}
	}
	return groups
}

func groupAlbums(tracks []*Track) []Group {
	pairs := make([]Group, 0, len(tracks))
	for _, t := range tracks {
		pairs = append(pairs, Group{Name: t.Album, Artist: t.Artist})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Name != pairs[j].Name {
			return pairs[i].Name < pairs[j].Name
		}
		return pairs[i].Artist < pairs[j].Artist
	})

	groups := make([]Group, 0)
	for _, p := range pairs {
		if len(groups) > 0 && groups[len(groups)-1].Name == p.Name {
			continue
		}
		groups = append(groups, p)
	}
	return groups
}

// TracksByArtist returns the tracks whose artist equals artist exactly, in
// library order.
func TracksByArtist(tracks []*Track, artist string) []Match {
	return filter(tracks, func(t *Track) bool {
		return t.Artist == artist
	})
}

// TracksByGenre returns the tracks tagged with genre, in library order.
func TracksByGenre(tracks []*Track, genre string) []Match {
	return filter(tracks, func(t *Track) bool {
		return t.Genre == genre
	})
}

// TracksByAlbum returns the tracks of album, in library order.
func TracksByAlbum(tracks []*Track, album string) []Match {
	return filter(tracks, func(t *Track) bool {
		return t.Album == album
	})
}

// Search matches query case-insensitively against title, artist and album.
// An empty query matches nothing.
func Search(tracks []*Track, query string) []Match {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}
	return filter(tracks, func(t *Track) bool {
		return strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Artist), query) ||
			strings.Contains(strings.ToLower(t.Album), query)
	})
}

func filter(tracks []*Track, keep func(*Track) bool) []Match {
	matches := make([]Match, 0)
	for i, t := range tracks {
		if keep(t) {
			matches = append(matches, Match{Position: i, Track: t})
		}
	}
	return matches
}
