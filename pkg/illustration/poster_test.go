package illustration

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sameRGB(a, b color.Color) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar == br && ag == bg && ab == bb
}

func countInk(img image.Image, ink color.Color, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if sameRGB(img.At(x, y), ink) {
				n++
			}
		}
	}
	return n
}

func TestRenderEmptyCity(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	got, err := New().Render("", path)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = New().Render("   ", path)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderWritesPoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", FileName)

	got, err := New().Render("ankara", path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 900, 500), img.Bounds())

	assert.True(t, sameRGB(img.At(0, 0), DefaultBackground))
	assert.True(t, sameRGB(img.At(899, 499), DefaultBackground))

	// The label starts at the origin; nothing is drawn above or left of it.
	label := image.Rect(DefaultOrigin.X, DefaultOrigin.Y, 900, 500)
	assert.Greater(t, countInk(img, DefaultInk, label), 0)
	assert.Zero(t, countInk(img, DefaultInk, image.Rect(0, 0, 900, DefaultOrigin.Y)))
	assert.Zero(t, countInk(img, DefaultInk, image.Rect(0, 0, DefaultOrigin.X, 500)))
}

func TestRenderOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	p := New()

	_, err := p.Render("izmir", path)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = p.Render("antalya", path)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestImageTitleCases(t *testing.T) {
	p := New()
	lower := p.Image("izmir")
	upper := p.Image("IZMIR")
	assert.Equal(t, lower.Pix, upper.Pix)
}

func TestImageScale(t *testing.T) {
	small := &Poster{Size: DefaultSize, Background: DefaultBackground, Ink: DefaultInk, Origin: DefaultOrigin, Scale: 1}
	big := New()

	area := image.Rect(0, 0, 900, 500)
	assert.Greater(t,
		countInk(big.Image("rize"), DefaultInk, area),
		countInk(small.Image("rize"), DefaultInk, area))
}

func TestRenderUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := New().Render("ankara", filepath.Join(blocker, FileName))
	assert.Error(t, err)
}
