package domain

import (
	"context"
	"strings"
)

// RawTable is a tabular dataset as read from its source. An empty cell is a missing value.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Column returns the index of a column, matched case-insensitively
func (t *RawTable) Column(name string) (int, bool) {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

// DatasetSource loads the raw historical accident dataset
// This follows the Dependency Inversion Principle - domain defines the interface
type DatasetSource interface {
	// Load returns the raw table, or an error wrapping ErrDataUnavailable
	Load(ctx context.Context) (*RawTable, error)

	// Describe names the source for logs
	Describe() string
}

// DataRepository defines the interface for prediction persistence
type DataRepository interface {
	// SavePredictionLog persists a prediction request/response
	SavePredictionLog(ctx context.Context, req PredictionRequest, resp PredictionResponse) error

	// Health checks database connectivity
	Health(ctx context.Context) error
}
