package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Table is a titled dataset rendered as one PDF table.
type Table struct {
	Heading string
	Data    Dataset
}

// Chart is a PNG image embedded in the PDF.
type Chart struct {
	Name string
	PNG  []byte
}

// PDFExporter renders report tables followed by charts, two per page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth   = 190.0
	chartWidth  = 170.0
	chartHeight = 127.5
)

// Render creates a PDF document with a title, the tables in order and every chart.
func (e *PDFExporter) Render(title string, tables []Table, charts []Chart) ([]byte, error) {
	if len(tables) == 0 && len(charts) == 0 {
		return nil, fmt.Errorf("pdf requires at least one table or chart")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	for _, table := range tables {
		if err := writeTable(pdf, table); err != nil {
			return nil, err
		}
	}

	for i, chart := range charts {
		if i%2 == 0 {
			pdf.AddPage()
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(chart.Name, opts, bytes.NewReader(chart.PNG))
		y := 20 + float64(i%2)*(chartHeight+10)
		pdf.ImageOptions(chart.Name, (210-chartWidth)/2, y, chartWidth, chartHeight, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *gofpdf.Fpdf, table Table) error {
	data := table.Data
	if len(data.Headers) == 0 {
		return fmt.Errorf("pdf table %q requires at least one header", table.Heading)
	}
	if table.Heading != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, table.Heading, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 8)
	colWidth := pageWidth / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 6, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
	return nil
}
