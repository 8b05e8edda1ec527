package paginate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrCapture marks a recoverable rasterization failure: the caller surfaces
// it and the operation is abandoned without producing a partial artifact.
var ErrCapture = errors.New("raster capture failed")

// Rasterizer renders composed document text into a single tall raster at a
// fixed pixel width. Lines are word-wrapped to the raster width; a line is
// never split across rows, which is what lets the break search find whole
// white bands between lines.
//
// A Rasterizer is safe for concurrent use: the underlying font.Face mutates
// shared glyph buffers during loading, so renders are serialized.
type Rasterizer struct {
	mu         sync.Mutex
	face       font.Face
	width      int
	lineHeight int
	ascent     int
}

// NewRasterizer builds a rasterizer for the given content width in pixels,
// using the bundled Go Regular face at size points and the given DPI.
func NewRasterizer(width int, size, dpi float64) (*Rasterizer, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: non-positive raster width %d", ErrCapture, width)
	}
	ft, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	m := face.Metrics()
	lineHeight := (m.Height.Ceil() * 14) / 10
	return &Rasterizer{
		face:       face,
		width:      width,
		lineHeight: lineHeight,
		ascent:     m.Ascent.Ceil(),
	}, nil
}

// LineHeight is the row advance in pixels.
func (r *Rasterizer) LineHeight() int { return r.lineHeight }

// Render draws text onto a white raster of the configured width and returns
// it. Empty content is a capture failure, not an empty image.
func (r *Rasterizer) Render(text string) (*image.RGBA, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrCapture)
	}
	// wrap measures and DrawString loads glyphs through the same face.
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.wrap(text)

	height := len(lines) * r.lineHeight
	img := image.NewRGBA(image.Rect(0, 0, r.width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: r.face}
	for i, line := range lines {
		if line == "" {
			continue
		}
		d.Dot = fixed.P(0, i*r.lineHeight+r.ascent)
		d.DrawString(line)
	}
	return img, nil
}

// wrap splits text into raster rows: hard newlines are kept, overlong lines
// break at word boundaries, and a single word wider than the raster is
// placed on its own row rather than dropped.
func (r *Rasterizer) wrap(text string) []string {
	maxWidth := fixed.I(r.width)
	var out []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(paragraph) == "" {
			out = append(out, "")
			continue
		}
		words := strings.Fields(paragraph)
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if font.MeasureString(r.face, candidate) <= maxWidth || line == "" {
				line = candidate
				continue
			}
			out = append(out, line)
			line = w
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
