package ml

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

const splitSeed = 42

// Train fits a scaler and classifier on an 80/20 split of the feature table
// and reports held-out accuracy on the model
func Train(table *domain.FeatureTable, opts TrainOptions) (*Model, error) {
	n := table.Len()
	if n < 2 {
		return nil, fmt.Errorf("ml: need at least 2 rows to train, got %d: %w", n, domain.ErrDataUnavailable)
	}

	x := make([][]float64, n)
	y := make([]int, n)
	for i, rec := range table.Records {
		x[i] = rec.Features().Values
		y[i] = rec.Target
	}

	trainIdx, testIdx := split(n)

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	scaler, err := FitScaler(xTrain)
	if err != nil {
		return nil, err
	}
	xTrainScaled, err := scaler.TransformAll(xTrain)
	if err != nil {
		return nil, err
	}

	clf, err := FitLogistic(xTrainScaled, yTrain, opts)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Classifier:   clf,
		Scaler:       scaler,
		FeatureNames: append([]string(nil), domain.FeatureNames...),
		Version:      uuid.New().String(),
		TrainedAt:    time.Now().UTC(),
		TrainRows:    len(xTrain),
	}

	m.Accuracy, err = accuracy(m, xTest, yTest)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// split shuffles row indices with a fixed seed and holds out 20%, rounded up
func split(n int) (train, test []int) {
	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)
	nTest := (n + 4) / 5
	return perm[nTest:], perm[:nTest]
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

func accuracy(m *Model, x [][]float64, y []int) (float64, error) {
	if len(x) == 0 {
		return 0, nil
	}

	correct := 0
	for i, row := range x {
		scaled, err := m.Scaler.Transform(row)
		if err != nil {
			return 0, err
		}
		label, err := m.Classifier.Predict(scaled)
		if err != nil {
			return 0, err
		}
		if label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}
