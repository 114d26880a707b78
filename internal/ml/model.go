package ml

import (
	"fmt"
	"time"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// ModelType names the classifier family in API responses
const ModelType = "LogisticRegression"

// Model is a trained classifier with the scaler and feature order it was fitted on
type Model struct {
	Classifier   *LogisticRegression `json:"classifier"`
	Scaler       *StandardScaler     `json:"scaler"`
	FeatureNames []string            `json:"feature_names"`
	Version      string              `json:"version"`
	TrainedAt    time.Time           `json:"trained_at"`
	Accuracy     float64             `json:"accuracy"`
	TrainRows    int                 `json:"train_rows"`
}

// Validate checks that the parts agree with each other and with the feature schema
func (m *Model) Validate() error {
	if m == nil || m.Classifier == nil || m.Scaler == nil {
		return fmt.Errorf("ml: incomplete model")
	}
	if err := domain.ValidateSchema(m.FeatureNames); err != nil {
		return err
	}
	if err := m.Scaler.validate(len(m.FeatureNames)); err != nil {
		return err
	}
	return m.Classifier.validate(len(m.FeatureNames))
}

// Probability returns the positive-class probability for a feature vector.
// The vector is reordered to the model's feature order first.
func (m *Model) Probability(fv domain.FeatureVector) (float64, error) {
	ordered, err := fv.Reorder(m.FeatureNames)
	if err != nil {
		return 0, err
	}

	scaled, err := m.Scaler.Transform(ordered.Values)
	if err != nil {
		return 0, err
	}

	return m.Classifier.PredictProba(scaled)
}

// Info describes the model for API responses
func (m *Model) Info() domain.ModelInfo {
	return domain.ModelInfo{
		FeatureNames: append([]string(nil), m.FeatureNames...),
		ModelType:    ModelType,
		Version:      m.Version,
		TrainedAt:    m.TrainedAt,
		Accuracy:     m.Accuracy,
		TrainRows:    m.TrainRows,
	}
}
