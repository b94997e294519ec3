package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

const utf8BOM = "\ufeff"

// CSVSource reads each dataset from a CSV file with a header row.
type CSVSource struct {
	dir   string
	files map[models.Dataset]string
}

// NewCSVSource constructs a file-backed row source. Relative file names resolve against dir.
func NewCSVSource(dir string, files map[models.Dataset]string) *CSVSource {
	return &CSVSource{dir: dir, files: files}
}

// Rows parses the whole file of the dataset. Cells are kept verbatim; an empty cell stays "".
func (s *CSVSource) Rows(ctx context.Context, dataset models.Dataset) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := s.files[dataset]
	if !ok || name == "" {
		return nil, fmt.Errorf("no file configured for dataset %s", dataset)
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, name)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	return readCSV(file, path)
}

func readCSV(r io.Reader, name string) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	records := make([]models.RawRecord, 0)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		record := make(models.RawRecord, len(header))
		for i, column := range header {
			record[column] = fields[i]
		}
		records = append(records, record)
	}
	return records, nil
}
