// Package artwork extracts embedded cover art and draws it with
// terminal half blocks.
package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dhowden/tag"
	"golang.org/x/image/draw"
)

var ErrNoArtwork = errors.New("no embedded artwork")

// Load returns the picture embedded in the tags of an audio file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, ErrNoArtwork
	}
	return Decode(pic.Data)
}

// Decode decodes raw JPEG or PNG bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

// Render scales img to width columns and draws it with one "▀" per cell,
// the foreground painting the upper pixel and the background the lower.
// The result is width columns by width/2 rows, which looks square on a
// terminal with 1:2 cells.
func Render(img image.Image, width int) string {
	if img == nil || width < 2 {
		return ""
	}
	height := width &^ 1

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	lines := make([]string, 0, height/2)
	for y := 0; y < height; y += 2 {
		var b strings.Builder
		for x := 0; x < width; x++ {
			b.WriteString(lipgloss.NewStyle().
				Foreground(hex(dst, x, y)).
				Background(hex(dst, x, y+1)).
				Render("▀"))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func hex(img *image.RGBA, x, y int) lipgloss.Color {
	c := img.RGBAAt(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// Cache keeps the last rendered cover so redraws don't reread tags.
type Cache struct {
	path  string
	width int
	text  string
}

// Get returns the rendered cover of path, or "" when it has none.
func (c *Cache) Get(path string, width int) string {
	if c.path == path && c.width == width {
		return c.text
	}
	c.path, c.width, c.text = path, width, ""
	if img, err := Load(path); err == nil {
		c.text = Render(img, width)
	}
	return c.text
}
