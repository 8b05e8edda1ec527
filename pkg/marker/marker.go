// Package marker renders the machine-readable marks carried by every
// finalized document: the Code128 side marker printed along the page edge and
// the QR code pointing at the public verification URL.
package marker

import (
	"image"
	"image/draw"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

// Code128 renders text as a Code128 barcode scaled to width x height pixels.
func Code128(text string, width, height int) (image.Image, error) {
	bc, err := code128.Encode(text)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return nil, err
	}
	return scaled, nil
}

// QR renders url as a QR code scaled to size x size pixels.
func QR(url string, size int) (image.Image, error) {
	code, err := qr.Encode(url, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	return scaled, nil
}

// Rotate90 rotates src a quarter turn counter-clockwise, turning a horizontal
// barcode into the vertical side marker.
func Rotate90(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(y-b.Min.Y, b.Max.X-1-x, src.At(x, y))
		}
	}
	return dst
}

// Composite draws src onto dst with its top-left corner at.
func Composite(dst draw.Image, src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}
