package postgres

import (
	"context"
	"sync"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// maxPredictionLogs bounds the in-memory log; older entries are dropped
const maxPredictionLogs = 100

// MockRepository implements domain.DataRepository for testing/demo mode.
// The most recent prediction logs are kept in memory.
type MockRepository struct {
	mu   sync.Mutex
	logs []domain.PredictionResponse
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

// SavePredictionLog keeps the response in memory, evicting the oldest
// once maxPredictionLogs are held
func (r *MockRepository) SavePredictionLog(ctx context.Context, req domain.PredictionRequest, resp domain.PredictionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == maxPredictionLogs {
		copy(r.logs, r.logs[1:])
		r.logs = r.logs[:maxPredictionLogs-1]
	}
	r.logs = append(r.logs, resp)
	return nil
}

// PredictionLogs returns a copy of the saved responses, oldest first
func (r *MockRepository) PredictionLogs() []domain.PredictionResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PredictionResponse(nil), r.logs...)
}
