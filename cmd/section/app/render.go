package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	dpi            = 96.0
	fontSize       = 10.0
	tickMarkLength = 5
	pixelsPerLabel = 120.0
	lineWidth      = 2.0
	stationSize    = 5.0

	// Default border sizes in pixels
	defaultTopBorder    = 30
	defaultLeftBorder   = 90
	defaultBottomBorder = 60
	defaultRightBorder  = 30
)

var (
	pathColor    = color.RGBA{R: 0x1f, G: 0x4e, B: 0x9c, A: 0xff}
	stationColor = color.RGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}
	gridColor    = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// BorderConfig defines the sizes of white space around the plot area
type BorderConfig struct {
	Top    int // Top padding
	Left   int // Space for the vertical scale
	Bottom int // Space for the horizontal scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for section rendering
type RenderConfig struct {
	Width  int // Image width in pixels
	Height int // Image height in pixels

	FontSize      float64 // Font size in points
	NoAnnotations bool    // Skip scales and the info bar

	// Border configuration
	BorderConfig BorderConfig
}

// SectionRenderer draws projected trajectories onto raster images
type SectionRenderer struct {
	config RenderConfig
}

// NewSectionRenderer creates a new renderer with the given configuration
func NewSectionRenderer(config RenderConfig) (*SectionRenderer, error) {
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	b := config.BorderConfig
	if config.Width-b.Left-b.Right < 50 || config.Height-b.Top-b.Bottom < 50 {
		return nil, fmt.Errorf("image size %dx%d leaves no room for the plot", config.Width, config.Height)
	}

	return &SectionRenderer{config: config}, nil
}

// Render creates an image of the section with annotations
func (r *SectionRenderer) Render(s *SectionData) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	b := r.config.BorderConfig
	area := image.Rect(b.Left, b.Top, r.config.Width-b.Right, r.config.Height-b.Bottom)
	vp := newViewport(area, s)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(r.config.FontSize, b)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, vp, s); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderPath(img, vp, s)
	return img, nil
}

func (r *SectionRenderer) renderPath(img *image.RGBA, vp *viewport, s *SectionData) {
	size := img.Bounds().Size()

	path := vector.NewRasterizer(size.X, size.Y)
	for i := 1; i < len(s.Path); i++ {
		strokeSegment(path, vp.toPixel(s.Path[i-1]), vp.toPixel(s.Path[i]), lineWidth)
	}
	path.Draw(img, img.Bounds(), image.NewUniform(pathColor), image.Point{})

	// markers are rasterized one at a time as each may have its own colour
	side := int(math.Ceil(stationSize)) + 2
	marker := vector.NewRasterizer(side, side)
	for i, st := range s.Stations {
		p := vp.toPixel(st)
		x0, y0 := int(math.Floor(float64(p.X)))-side/2, int(math.Floor(float64(p.Y)))-side/2
		r := image.Rect(x0, y0, x0+side, y0+side)
		if !r.In(img.Bounds()) {
			continue
		}

		cx, cy := p.X-float32(x0), p.Y-float32(y0)
		h := float32(stationSize / 2)
		marker.Reset(side, side)
		marker.MoveTo(cx-h, cy-h)
		marker.LineTo(cx+h, cy-h)
		marker.LineTo(cx+h, cy+h)
		marker.LineTo(cx-h, cy+h)
		marker.ClosePath()
		marker.Draw(img, r, image.NewUniform(severityColor(s, i)), image.Point{})
	}
}

type point32 struct {
	X, Y float32
}

// strokeSegment adds a rectangle of the given width around the segment a-b.
// All rectangles share the same winding so overlapping joints do not cancel.
func strokeSegment(z *vector.Rasterizer, a, b point32, width float64) {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := float32(-dy / length * width / 2)
	ny := float32(dx / length * width / 2)

	z.MoveTo(a.X+nx, a.Y+ny)
	z.LineTo(b.X+nx, b.Y+ny)
	z.LineTo(b.X-nx, b.Y-ny)
	z.LineTo(a.X-nx, a.Y-ny)
	z.ClosePath()
}

// viewport maps section coordinates onto the plot area with equal scale on
// both axes, centring the data. Section views grow downwards with TVD, plan
// views grow upwards with north.
type viewport struct {
	area    image.Rectangle
	scale   float64 // pixels per metre
	originX float64
	originY float64
	invertY bool
}

func newViewport(area image.Rectangle, s *SectionData) *viewport {
	spanX := max(s.MaxX-s.MinX, 1)
	spanY := max(s.MaxY-s.MinY, 1)

	// 5% margin inside the plot area
	w, h := float64(area.Dx())*0.9, float64(area.Dy())*0.9
	scale := min(w/spanX, h/spanY)

	vp := viewport{
		area:    area,
		scale:   scale,
		invertY: s.View == ViewPlan,
	}

	// data coordinates at the plot area's top-left corner
	midX, midY := (s.MinX+s.MaxX)/2, (s.MinY+s.MaxY)/2
	vp.originX = midX - float64(area.Dx())/2/scale
	if vp.invertY {
		vp.originY = midY + float64(area.Dy())/2/scale
	} else {
		vp.originY = midY - float64(area.Dy())/2/scale
	}
	return &vp
}

func (vp *viewport) toPixel(v r2.Vec) point32 {
	x := float64(vp.area.Min.X) + (v.X-vp.originX)*vp.scale
	dy := (v.Y - vp.originY) * vp.scale
	if vp.invertY {
		dy = -dy
	}
	return point32{X: float32(x), Y: float32(float64(vp.area.Min.Y) + dy)}
}

// rangeX returns the data range covered by the plot area horizontally.
func (vp *viewport) rangeX() (float64, float64) {
	return vp.originX, vp.originX + float64(vp.area.Dx())/vp.scale
}

// rangeY returns the data range covered by the plot area vertically, low to high.
func (vp *viewport) rangeY() (float64, float64) {
	span := float64(vp.area.Dy()) / vp.scale
	if vp.invertY {
		return vp.originY - span, vp.originY
	}
	return vp.originY, vp.originY + span
}

// Internal annotator implementation
type annotator struct {
	context  *freetype.Context
	borders  BorderConfig
	fontFace font.Face
}

func newAnnotator(size float64, borders BorderConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})

	return &annotator{
		context:  ctx,
		borders:  borders,
		fontFace: face,
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, vp *viewport, s *SectionData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *viewport, *SectionData) error
	}{
		{"drawing horizontal scale", a.drawXScale},
		{"drawing vertical scale", a.drawYScale},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, vp, s); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawXScale(img *image.RGBA, vp *viewport, _ *SectionData) error {
	lo, hi := vp.rangeX()
	step := calculateNiceStep(hi-lo, vp.area.Dx())
	textY := vp.area.Max.Y + tickMarkLength + a.fontHeight()

	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		x := int(vp.toPixel(r2.Vec{X: v}).X)

		for y := vp.area.Min.Y; y < vp.area.Max.Y; y++ {
			img.Set(x, y, gridColor)
		}
		for y := vp.area.Max.Y; y < vp.area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatDepth(v)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(x-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawYScale(img *image.RGBA, vp *viewport, _ *SectionData) error {
	lo, hi := vp.rangeY()
	step := calculateNiceStep(hi-lo, vp.area.Dy())
	metrics := a.fontFace.Metrics()

	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		y := int(vp.toPixel(r2.Vec{Y: v}).Y)

		for x := vp.area.Min.X; x < vp.area.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
		for x := vp.area.Min.X - tickMarkLength; x < vp.area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		// right-aligned against the tick mark, centred vertically
		label := formatDepth(v)
		width := font.MeasureString(a.fontFace, label)
		textX := vp.area.Min.X - tickMarkLength - 3 - width.Round()
		textY := y + a.fontHeight()/2 - metrics.Descent.Round()
		if _, err := a.context.DrawString(label, freetype.Pt(textX, textY)); err != nil {
			return fmt.Errorf("drawing label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, vp *viewport, s *SectionData) error {
	xLabel, yLabel := s.axisLabels()

	var sb strings.Builder
	if s.Borehole != nil {
		fmt.Fprintf(&sb, "%s (%s); ", s.Borehole.Name, s.Borehole.Format)
	}
	fmt.Fprintf(&sb, "%s vs %s; ", yLabel, xLabel)
	fmt.Fprintf(&sb, "MD: %s - %s; ", humanMetres(s.MinMD), humanMetres(s.MaxMD))
	fmt.Fprintf(&sb, "Max TVD: %s; ", humanMetres(s.MaxTVD))
	fmt.Fprintf(&sb, "1px = %s", humanMetres(1/vp.scale))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - (a.borders.Bottom-a.fontHeight())/4 - metrics.Descent.Round()

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(a.borders.Left, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

// calculateNiceStep returns a 1, 2 or 5 multiple of a power of ten that puts
// roughly one label every pixelsPerLabel pixels.
func calculateNiceStep(span float64, pixels int) float64 {
	if span <= 0 || pixels <= 0 {
		return 1
	}

	target := span / max(1, float64(pixels)/pixelsPerLabel)
	magnitude := math.Pow(10, math.Floor(math.Log10(target)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= target {
			return step
		}
	}
	return 10 * magnitude
}

func formatDepth(v float64) string {
	// avoid "-0" labels from accumulated rounding
	if math.Abs(v) < 1e-9 {
		v = 0
	}
	return humanize.Commaf(math.Round(v*100)/100) + " m"
}

func humanMetres(v float64) string {
	f, suffix := humanize.ComputeSI(v)
	return fmt.Sprintf("%0.2f %sm", f, suffix)
}
