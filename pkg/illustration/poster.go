// Package illustration renders the placeholder city poster shown next to
// a fare quote.
package illustration

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mustafae03/stt-tts-agent/pkg/pricing"
)

// FileName is the poster's file name inside a session directory.
const FileName = "city_poster.png"

// Poster layout.
var (
	DefaultSize       = image.Pt(900, 500)
	DefaultBackground = color.NRGBA{R: 235, G: 244, B: 255, A: 255}
	DefaultInk        = color.NRGBA{R: 15, G: 30, B: 60, A: 255}
	DefaultOrigin     = image.Pt(50, 200)
)

// Poster draws a city name on a flat background.
type Poster struct {
	Size       image.Point
	Background color.Color
	Ink        color.Color
	Origin     image.Point // top-left of the label

	// Scale enlarges the 7x13 bitmap face. 1 keeps it at native size.
	Scale int
}

// New returns a poster with the default layout.
func New() *Poster {
	return &Poster{
		Size:       DefaultSize,
		Background: DefaultBackground,
		Ink:        DefaultInk,
		Origin:     DefaultOrigin,
		Scale:      4,
	}
}

// Image renders the poster for city in memory.
func (p *Poster) Image(city string) *image.NRGBA {
	canvas := imaging.New(p.Size.X, p.Size.Y, p.Background)

	label := p.label(pricing.Title(strings.TrimSpace(city)))
	if label == nil {
		return canvas
	}
	return imaging.Overlay(canvas, label, p.Origin, 1.0)
}

// Render writes the poster for city to path and returns path. An empty
// city renders nothing and returns "".
func (p *Poster) Render(city, path string) (string, error) {
	if strings.TrimSpace(city) == "" {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("illustration: create dir: %w", err)
	}
	if err := imaging.Save(p.Image(city), path); err != nil {
		return "", fmt.Errorf("illustration: save %s: %w", path, err)
	}
	return path, nil
}

// label draws text on a transparent strip and scales it up with
// nearest-neighbor so the glyphs stay crisp.
func (p *Poster) label(text string) image.Image {
	if text == "" {
		return nil
	}
	face := basicfont.Face7x13

	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	if width <= 0 || height <= 0 {
		return nil
	}

	strip := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(strip, strip.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(p.Ink),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	scale := p.Scale
	if scale < 1 {
		scale = 1
	}
	if scale == 1 {
		return strip
	}
	return resize.Resize(uint(width*scale), uint(height*scale), strip, resize.NearestNeighbor)
}
