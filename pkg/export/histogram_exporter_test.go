package export

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin(t *testing.T) {
	h, err := Bin([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, 8)
	require.NoError(t, err)

	assert.Len(t, h.Edges, 9)
	assert.Equal(t, 0.0, h.Edges[0])
	assert.Equal(t, 8.0, h.Edges[8])
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 2}, h.Counts, "the last bin is closed on the right")
}

func TestBinConstantValues(t *testing.T) {
	h, err := Bin([]float64{3, 3, 3}, 4)
	require.NoError(t, err)
	assert.Equal(t, 2.5, h.Edges[0])
	assert.Equal(t, 3.5, h.Edges[4])
	assert.Equal(t, 3, h.Counts[0]+h.Counts[1]+h.Counts[2]+h.Counts[3])
	assert.Equal(t, 3, h.Counts[2])
}

func TestBinRejectsEmptyInput(t *testing.T) {
	_, err := Bin(nil, 8)
	assert.Error(t, err)
	_, err = Bin([]float64{1}, 0)
	assert.Error(t, err)
}

func TestHistogramExporterRender(t *testing.T) {
	exporter := NewHistogramExporter(HistogramOptions{Width: 400, Height: 300})
	payload, err := exporter.Render([]float64{0, 5, 5, 10, 120.5}, "total_minutes_visited", "Passed students total minutes visited")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	_, err = exporter.Render(nil, "x", "empty")
	assert.Error(t, err)
}

func TestHistogramExporterMissingFont(t *testing.T) {
	exporter := NewHistogramExporter(HistogramOptions{FontPath: "/nonexistent/font.ttf"})
	_, err := exporter.Render([]float64{1}, "x", "title")
	assert.Error(t, err)
}
