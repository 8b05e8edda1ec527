package marker

import (
	"image"
	"image/color"
	"testing"
)

func TestCode128Dimensions(t *testing.T) {
	img, err := Code128("CTR-RES-2026-AB12-CD34", 400, 40)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 40 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestQRDimensions(t *testing.T) {
	img, err := QR("https://contratos.example/verify/CTR-RES-2026-AB12-CD34", 160)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 160 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestRotate90(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	red := color.RGBA{R: 255, A: 255}
	src.Set(2, 0, red) // top-right corner

	dst := Rotate90(src)
	if dst.Bounds().Dx() != 2 || dst.Bounds().Dy() != 3 {
		t.Fatalf("rotated bounds %v", dst.Bounds())
	}
	// A quarter turn CCW sends the top-right corner to the top-left.
	if got := dst.RGBAAt(0, 0); got != red {
		t.Fatalf("corner pixel after rotation: %v", got)
	}
}

func TestComposite(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	blue := color.RGBA{B: 255, A: 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, blue)
		}
	}
	Composite(dst, src, image.Pt(4, 5))
	if got := dst.RGBAAt(4, 5); got != blue {
		t.Fatalf("composited pixel: %v", got)
	}
	if got := dst.RGBAAt(3, 5); got == blue {
		t.Fatal("pixel outside the composited region changed")
	}
}
