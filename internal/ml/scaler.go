// Package ml holds the local classifier: a standard scaler feeding a
// logistic regression, trained from the preprocessed incident table and
// persisted as a single JSON artifact.
package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrDimension is returned when an input row does not match the fitted width
var ErrDimension = errors.New("ml: dimension mismatch")

// StandardScaler removes the mean and scales each column to unit variance
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column population mean and standard deviation.
// Constant columns get a scale of 1.
func FitScaler(x [][]float64) (*StandardScaler, error) {
	if len(x) == 0 {
		return nil, errors.New("ml: cannot fit scaler on zero rows")
	}

	width := len(x[0])
	s := &StandardScaler{
		Mean:  make([]float64, width),
		Scale: make([]float64, width),
	}

	col := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			if len(row) != width {
				return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimension, i, len(row), width)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}

	return s, nil
}

// Transform scales one row
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimension, len(row), len(s.Mean))
	}

	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row
func (s *StandardScaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) validate(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return fmt.Errorf("%w: scaler fitted on %d columns, schema has %d", ErrDimension, len(s.Mean), width)
	}
	for j, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("ml: scaler column %d has zero scale", j)
		}
	}
	return nil
}
