package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// CSVSource reads the historical dataset from a CSV file, or from the first
// CSV file (by name) inside a directory
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed dataset source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Describe names the source for logs
func (s *CSVSource) Describe() string {
	return "csv:" + s.path
}

// Load reads the whole file into memory
func (s *CSVSource) Load(ctx context.Context) (*domain.RawTable, error) {
	file, err := s.resolve()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w: %v", file, domain.ErrDataUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w: %v", file, domain.ErrDataUnavailable, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	table := &domain.RawTable{Columns: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w: %v", file, domain.ErrDataUnavailable, err)
		}

		row := make([]string, len(header))
		for i := range row {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func (s *CSVSource) resolve() (string, error) {
	if s.path == "" {
		return "", fmt.Errorf("dataset: no path configured: %w", domain.ErrDataUnavailable)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("dataset: %s not found: %w", s.path, domain.ErrDataUnavailable)
	}
	if !info.IsDir() {
		return s.path, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return "", fmt.Errorf("dataset: list %s: %w: %v", s.path, domain.ErrDataUnavailable, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			return filepath.Join(s.path, e.Name()), nil
		}
	}

	return "", fmt.Errorf("dataset: no CSV files in %s: %w", s.path, domain.ErrDataUnavailable)
}
