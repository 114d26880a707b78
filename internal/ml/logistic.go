package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrSingleClass is returned by PredictProba when training saw only one label
var ErrSingleClass = errors.New("ml: classifier was trained on a single class")

// LogisticRegression is a binary classifier over scaled features
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	// Classes lists the labels seen during training, ascending
	Classes []int `json:"classes"`
}

// TrainOptions controls batch gradient descent
type TrainOptions struct {
	Iterations   int
	LearningRate float64
	L2           float64
}

// DefaultTrainOptions are used when the caller passes zero values
var DefaultTrainOptions = TrainOptions{
	Iterations:   500,
	LearningRate: 0.1,
	L2:           0.001,
}

// FitLogistic trains on rows x with labels y in {0,1}
func FitLogistic(x [][]float64, y []int, opts TrainOptions) (*LogisticRegression, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("ml: need matching non-empty inputs, got %d rows and %d labels", len(x), len(y))
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultTrainOptions.Iterations
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions.LearningRate
	}

	width := len(x[0])
	m := &LogisticRegression{Weights: make([]float64, width)}

	seen := map[int]bool{}
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("ml: label %d is not binary", label)
		}
		seen[label] = true
	}
	for _, c := range []int{0, 1} {
		if seen[c] {
			m.Classes = append(m.Classes, c)
		}
	}

	// nothing to separate; keep the label set so prediction can report it
	if len(m.Classes) < 2 {
		return m, nil
	}

	n := float64(len(x))
	grad := make([]float64, width)
	for iter := 0; iter < opts.Iterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, row := range x {
			if len(row) != width {
				return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimension, i, len(row), width)
			}
			diff := sigmoid(floats.Dot(m.Weights, row)+m.Bias) - float64(y[i])
			floats.AddScaled(grad, diff, row)
			gradBias += diff
		}

		floats.AddScaled(grad, opts.L2*n, m.Weights)
		floats.AddScaled(m.Weights, -opts.LearningRate/n, grad)
		m.Bias -= opts.LearningRate * gradBias / n
	}

	return m, nil
}

// PredictProba returns the positive-class probability for one scaled row
func (m *LogisticRegression) PredictProba(row []float64) (float64, error) {
	if len(m.Classes) < 2 {
		return 0, ErrSingleClass
	}
	if len(row) != len(m.Weights) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrDimension, len(row), len(m.Weights))
	}
	return sigmoid(floats.Dot(m.Weights, row) + m.Bias), nil
}

// Predict returns the most likely label for one scaled row
func (m *LogisticRegression) Predict(row []float64) (int, error) {
	if len(m.Classes) == 1 {
		return m.Classes[0], nil
	}
	p, err := m.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *LogisticRegression) validate(width int) error {
	if len(m.Weights) != width {
		return fmt.Errorf("%w: classifier has %d weights, schema has %d", ErrDimension, len(m.Weights), width)
	}
	if len(m.Classes) == 0 {
		return errors.New("ml: classifier has no classes")
	}
	for _, w := range append([]float64{m.Bias}, m.Weights...) {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New("ml: classifier has non-finite weights")
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
