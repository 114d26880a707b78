package service

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/ml"
)

// ClassifierAdapter serves the locally trained model. The model is swapped
// atomically; readers always see a complete model or none.
type ClassifierAdapter struct {
	model atomic.Pointer[ml.Model]
}

// NewClassifierAdapter creates an adapter with no model loaded
func NewClassifierAdapter() *ClassifierAdapter {
	return &ClassifierAdapter{}
}

// Swap installs m and returns the model it replaced
func (a *ClassifierAdapter) Swap(m *ml.Model) *ml.Model {
	return a.model.Swap(m)
}

// Model returns the model in service, or nil
func (a *ClassifierAdapter) Model() *ml.Model {
	return a.model.Load()
}

// Ready reports whether a model is loaded
func (a *ClassifierAdapter) Ready() bool {
	return a.model.Load() != nil
}

// Probability scales the features and returns the positive-class probability
func (a *ClassifierAdapter) Probability(_ context.Context, fv domain.FeatureVector) (float64, error) {
	m := a.model.Load()
	if m == nil {
		return 0, domain.ErrModelUnavailable
	}

	p, err := m.Probability(fv)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: probability %v out of range", domain.ErrModelUnavailable, p)
	}
	return p, nil
}
