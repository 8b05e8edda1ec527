// Package export assembles the paginated document into the downloadable PDF
// artifact. Print output uses the same artifact routed to the client's print
// dialog.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/locagest/contratos/pkg/marker"
	"github.com/locagest/contratos/services/contracts/internal/paginate"
)

// A4 in millimetres; the page images already carry margins and the side
// marker, so they are placed edge to edge.
const (
	pageWidthMM  = 210
	pageHeightMM = 297
	qrSizePx     = 140
)

// PDF writes one physical page per slice and stamps the verification QR on
// the final page. The document is buffered and only flushed at the end, so a
// cancellation mid-run leaves no partial file behind.
func PDF(ctx context.Context, doc *paginate.Document, verifyURL string, w io.Writer) error {
	if doc == nil || len(doc.Pages) == 0 {
		return fmt.Errorf("nothing to export")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		img := image.Image(page)
		if verifyURL != "" && i == len(doc.Pages)-1 {
			stamped, err := withVerificationCode(page, verifyURL)
			if err != nil {
				return fmt.Errorf("verification code: %w", err)
			}
			img = stamped
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, pageWidthMM, pageHeightMM, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// withVerificationCode copies the page and composites the QR code into its
// bottom-left corner, inside the margin band.
func withVerificationCode(page *image.RGBA, verifyURL string) (*image.RGBA, error) {
	qr, err := marker.QR(verifyURL, qrSizePx)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(page.Bounds())
	draw.Draw(out, out.Bounds(), page, page.Bounds().Min, draw.Src)
	margin := 20
	at := image.Pt(margin, page.Bounds().Dy()-qrSizePx-margin)
	marker.Composite(out, qr, at)
	return out, nil
}
