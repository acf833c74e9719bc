package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

// GeneratePNG returns a w×h PNG of coloured tiles, large enough that the
// WebP re-encode and the @1x/@2x downscales produce distinct files.
func GeneratePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	const tile = 32
	palette := []color.RGBA{
		{R: 220, G: 60, B: 60, A: 255},
		{R: 60, G: 160, B: 220, A: 255},
		{R: 240, G: 200, B: 40, A: 255},
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += tile {
		for x := 0; x < w; x += tile {
			c := palette[(x/tile+y/tile)%len(palette)]
			draw.Draw(img, image.Rect(x, y, x+tile, y+tile), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// FakeVideo is size bytes starting with an MP4 "ftyp" box header. Upload
// content is never decoded, only stored.
func FakeVideo(size int) []byte {
	head := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	out := make([]byte, size)
	copy(out, head)
	return out
}
