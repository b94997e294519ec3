package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

// Histogram is the binned form of a set of values. Edges has one more entry than Counts.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Bin splits values into equal-width bins over [min, max]. The last bin is closed on the right.
// When every value is equal the range widens to [v-0.5, v+0.5].
func Bin(values []float64, bins int) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, fmt.Errorf("histogram requires at least one value")
	}
	if bins < 1 {
		return Histogram{}, fmt.Errorf("histogram requires at least one bin, got %d", bins)
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
	}
	return h, nil
}

// HistogramOptions sizes the rendered chart.
type HistogramOptions struct {
	Width    int
	Height   int
	Bins     int
	FontPath string
}

// HistogramExporter draws histograms as PNG images.
type HistogramExporter struct {
	opts HistogramOptions
}

// NewHistogramExporter constructs an exporter with defaults for unset options.
func NewHistogramExporter(opts HistogramOptions) *HistogramExporter {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if opts.Bins <= 0 {
		opts.Bins = 8
	}
	return &HistogramExporter{opts: opts}
}

const (
	marginLeft   = 70.0
	marginRight  = 20.0
	marginTop    = 45.0
	marginBottom = 55.0
	yAxisLabel   = "num_students"
)

// Render plots values with columnName on the x axis and the student count on the y axis.
func (e *HistogramExporter) Render(values []float64, columnName, title string) ([]byte, error) {
	hist, err := Bin(values, e.opts.Bins)
	if err != nil {
		return nil, err
	}

	w, h := float64(e.opts.Width), float64(e.opts.Height)
	dc := gg.NewContext(e.opts.Width, e.opts.Height)
	if e.opts.FontPath != "" {
		if err := dc.LoadFontFace(e.opts.FontPath, 12); err != nil {
			return nil, fmt.Errorf("load chart font: %w", err)
		}
	}
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotW := w - marginLeft - marginRight
	plotH := h - marginTop - marginBottom
	originX, originY := marginLeft, h-marginBottom

	maxCount := 0
	for _, c := range hist.Counts {
		if c > maxCount {
			maxCount = c
		}
	}

	barW := plotW / float64(len(hist.Counts))
	bars := func() {
		for i, c := range hist.Counts {
			if c == 0 {
				continue
			}
			barH := plotH * float64(c) / float64(maxCount)
			dc.DrawRectangle(originX+float64(i)*barW, originY-barH, barW, barH)
		}
	}
	dc.SetHexColor("#1f77b4")
	bars()
	dc.Fill()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	bars()
	dc.DrawLine(originX, originY, originX+plotW, originY)
	dc.DrawLine(originX, originY, originX, originY-plotH)
	dc.Stroke()

	for i, edge := range hist.Edges {
		x := originX + float64(i)*barW
		dc.DrawLine(x, originY, x, originY+4)
		dc.Stroke()
		if i%2 == 0 || len(hist.Edges) <= 9 {
			dc.DrawStringAnchored(formatTick(edge), x, originY+8, 0.5, 1)
		}
	}
	for _, c := range []int{0, maxCount / 2, maxCount} {
		y := originY - plotH*float64(c)/float64(maxCount)
		dc.DrawLine(originX-4, y, originX, y)
		dc.Stroke()
		dc.DrawStringAnchored(strconv.Itoa(c), originX-8, y, 1, 0.5)
	}

	dc.DrawStringAnchored(title, w/2, marginTop/2, 0.5, 0.5)
	dc.DrawStringAnchored(columnName, originX+plotW/2, h-marginBottom/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, marginLeft/4, originY-plotH/2)
	dc.DrawStringAnchored(yAxisLabel, marginLeft/4, originY-plotH/2, 0.5, 0.5)
	dc.Pop()

	buf := &bytes.Buffer{}
	if err := dc.EncodePNG(buf); err != nil {
		return nil, fmt.Errorf("encode histogram png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
