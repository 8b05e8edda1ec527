package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/locagest/contratos/services/contracts/internal/paginate"
)

func testDocument(pages int) *paginate.Document {
	doc := &paginate.Document{Plan: paginate.Plan{Offsets: []int{0}}}
	for i := 0; i < pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 310, 438))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		doc.Pages = append(doc.Pages, img)
		doc.Plan.Offsets = append(doc.Plan.Offsets, (i+1)*400)
	}
	return doc
}

func TestPDFOutput(t *testing.T) {
	var buf bytes.Buffer
	err := PDF(context.Background(), testDocument(3), "https://contratos.example/verify/CTR-RES-2026-AB12-CD34", &buf)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", out[:16])
	}
	// Three page objects, one per slice (the /Pages tree node excluded).
	n := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	if n != 3 {
		t.Fatalf("page count in pdf: %d", n)
	}
}

func TestPDFEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(context.Background(), &paginate.Document{}, "", &buf); err == nil {
		t.Fatal("empty document must not export")
	}
	if buf.Len() != 0 {
		t.Fatal("no partial artifact on failure")
	}
}

func TestPDFCancellationLeavesNoPartialFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := PDF(ctx, testDocument(2), "", &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("cancelled export must not write output")
	}
}
