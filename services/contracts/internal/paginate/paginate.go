// Package paginate splits a rendered document raster into page-sized slices
// at content-aware break points and assembles the physical pages, each with
// the Code128 side marker along the edge.
package paginate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/locagest/contratos/pkg/marker"
)

const (
	// A row pixel counts as white when every channel exceeds this value.
	whiteChannelMin = 245
	// A band qualifies as a break point when this fraction of its pixels
	// is white.
	whiteRatioMin = 0.85
	// Bands are two rows tall.
	bandHeight = 2
	// The backward search never goes below currentOffset + 0.6*target, so
	// pages are at least 60% full.
	searchFloor = 0.6
)

// RowSampler abstracts raster access for the break search, keeping the
// algorithm independent of the rendering surface.
type RowSampler interface {
	Height() int
	// WhitenessRatio is the fraction of near-white pixels in rows
	// [y, y+band).
	WhitenessRatio(y, band int) float64
}

// Plan is the ordered list of vertical offsets delimiting page slices.
// Offsets are strictly increasing, the first is 0 and the last is the total
// raster height, so slices partition the content exactly.
type Plan struct {
	Offsets    []int
	HardBreaks int
}

// Pages is the number of slices.
func (p Plan) Pages() int {
	if len(p.Offsets) < 2 {
		return 0
	}
	return len(p.Offsets) - 1
}

// SliceHeights returns the height of every slice in order.
func (p Plan) SliceHeights() []int {
	out := make([]int, 0, p.Pages())
	for i := 1; i < len(p.Offsets); i++ {
		out = append(out, p.Offsets[i]-p.Offsets[i-1])
	}
	return out
}

// Validate checks the plan invariants against the raster height.
func (p Plan) Validate(total int) error {
	if len(p.Offsets) < 2 {
		return fmt.Errorf("plan needs at least two offsets, has %d", len(p.Offsets))
	}
	if p.Offsets[0] != 0 {
		return fmt.Errorf("plan must start at 0, starts at %d", p.Offsets[0])
	}
	if last := p.Offsets[len(p.Offsets)-1]; last != total {
		return fmt.Errorf("plan must end at %d, ends at %d", total, last)
	}
	for i := 1; i < len(p.Offsets); i++ {
		if p.Offsets[i] <= p.Offsets[i-1] {
			return fmt.Errorf("offsets not strictly increasing at %d", i)
		}
	}
	return nil
}

// BuildPlan walks the raster choosing break points. From each offset the
// ideal break is one full page away; the search walks backward from there
// looking for the first white band, favoring gaps between paragraphs over
// mid-paragraph cuts. When no band qualifies within the window the ideal
// offset becomes a hard break; the search window is never extended.
func BuildPlan(s RowSampler, target int) (Plan, error) {
	total := s.Height()
	if total <= 0 {
		return Plan{}, fmt.Errorf("%w: raster has no rows", ErrCapture)
	}
	if target <= 0 {
		return Plan{}, fmt.Errorf("invalid page height %d", target)
	}

	plan := Plan{Offsets: []int{0}}
	cur := 0
	for {
		ideal := cur + target
		if ideal >= total {
			plan.Offsets = append(plan.Offsets, total)
			return plan, nil
		}

		floor := cur + int(searchFloor*float64(target))
		if floor <= cur {
			floor = cur + 1
		}
		brk := ideal
		found := false
		for y := ideal; y >= floor; y-- {
			if y+bandHeight > total {
				continue
			}
			if s.WhitenessRatio(y, bandHeight) > whiteRatioMin {
				brk = y
				found = true
				break
			}
		}
		if !found {
			plan.HardBreaks++
		}
		plan.Offsets = append(plan.Offsets, brk)
		cur = brk
	}
}

// ImageSampler samples whiteness directly from an RGBA raster.
type ImageSampler struct {
	Img *image.RGBA
}

func (s ImageSampler) Height() int { return s.Img.Bounds().Dy() }

func (s ImageSampler) WhitenessRatio(y, band int) float64 {
	b := s.Img.Bounds()
	width := b.Dx()
	if width == 0 || band <= 0 {
		return 0
	}
	white, totalPx := 0, 0
	for row := y; row < y+band && row < b.Dy(); row++ {
		off := s.Img.PixOffset(b.Min.X, b.Min.Y+row)
		for x := 0; x < width; x++ {
			px := s.Img.Pix[off+x*4 : off+x*4+3]
			if px[0] > whiteChannelMin && px[1] > whiteChannelMin && px[2] > whiteChannelMin {
				white++
			}
			totalPx++
		}
	}
	if totalPx == 0 {
		return 0
	}
	return float64(white) / float64(totalPx)
}

// Layout is the physical page geometry in raster pixels. The right margin is
// the wider one: it carries the side marker.
type Layout struct {
	PageWidth    int
	PageHeight   int
	MarginTop    int
	MarginBottom int
	MarginLeft   int
	MarginRight  int
	MarkerWidth  int
	MarkerLength int
}

// A4Layout is the default geometry: A4 at 150 DPI, 10mm left / 15mm top and
// bottom / 20mm right margins.
func A4Layout() Layout {
	return Layout{
		PageWidth:    1240,
		PageHeight:   1754,
		MarginTop:    89,
		MarginBottom: 89,
		MarginLeft:   59,
		MarginRight:  118,
		MarkerWidth:  40,
		MarkerLength: 700,
	}
}

func (l Layout) ContentWidth() int  { return l.PageWidth - l.MarginLeft - l.MarginRight }
func (l Layout) ContentHeight() int { return l.PageHeight - l.MarginTop - l.MarginBottom }

// Document is the paginated artifact: one image per physical page plus the
// plan that produced them.
type Document struct {
	Plan  Plan
	Pages []*image.RGBA
}

// Engine owns the rasterizer and layout for one pagination run.
type Engine struct {
	Layout Layout
	raster *Rasterizer
}

func NewEngine(layout Layout) (*Engine, error) {
	r, err := NewRasterizer(layout.ContentWidth(), 11, 150)
	if err != nil {
		return nil, err
	}
	return &Engine{Layout: layout, raster: r}, nil
}

// Plan renders content and computes the break plan without assembling page
// images; the diagnostic surface uses it to expose offsets cheaply.
func (e *Engine) Plan(content string) (Plan, int, error) {
	raster, err := e.raster.Render(content)
	if err != nil {
		return Plan{}, 0, err
	}
	plan, err := BuildPlan(ImageSampler{Img: raster}, e.Layout.ContentHeight())
	if err != nil {
		return Plan{}, 0, err
	}
	return plan, raster.Bounds().Dy(), nil
}

// Paginate renders content, plans the breaks and assembles the pages. The
// side token is composited as a rotated Code128 marker on every page,
// vertically centered inside the right margin. Cancellation between pages
// aborts the run with no partial document.
func (e *Engine) Paginate(ctx context.Context, content, sideToken string) (*Document, error) {
	raster, err := e.raster.Render(content)
	if err != nil {
		return nil, err
	}
	plan, err := BuildPlan(ImageSampler{Img: raster}, e.Layout.ContentHeight())
	if err != nil {
		return nil, err
	}

	var sideMarker *image.RGBA
	if sideToken != "" {
		bc, err := marker.Code128(sideToken, e.Layout.MarkerLength, e.Layout.MarkerWidth)
		if err != nil {
			return nil, fmt.Errorf("side marker: %w", err)
		}
		sideMarker = marker.Rotate90(bc)
	}

	doc := &Document{Plan: plan}
	for i := 0; i < plan.Pages(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, e.assemblePage(raster, plan.Offsets[i], plan.Offsets[i+1], sideMarker))
	}
	return doc, nil
}

func (e *Engine) assemblePage(raster *image.RGBA, from, to int, sideMarker *image.RGBA) *image.RGBA {
	l := e.Layout
	page := image.NewRGBA(image.Rect(0, 0, l.PageWidth, l.PageHeight))
	draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sliceH := to - from
	dst := image.Rect(l.MarginLeft, l.MarginTop, l.MarginLeft+l.ContentWidth(), l.MarginTop+sliceH)
	draw.Draw(page, dst, raster, image.Pt(0, from), draw.Src)

	if sideMarker != nil {
		mb := sideMarker.Bounds()
		x := l.PageWidth - l.MarginRight + (l.MarginRight-mb.Dx())/2
		y := (l.PageHeight - mb.Dy()) / 2
		marker.Composite(page, sideMarker, image.Pt(x, y))
	}
	return page
}
