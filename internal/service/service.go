package service

import (
	"context"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// EventPublisher is re-exported from events for convenience
type EventPublisher = events.Publisher

// Predictor returns the positive-class accident probability for a feature vector.
// Any error means the classifier is unavailable for that point.
type Predictor interface {
	Probability(ctx context.Context, fv domain.FeatureVector) (float64, error)

	// Ready reports whether a classifier is currently in service
	Ready() bool
}

// WeatherProvider looks up current conditions at a point
type WeatherProvider interface {
	Current(ctx context.Context, point domain.Coordinate) (domain.Weather, error)
}

// HighwayChecker reports whether a point lies on a major road
type HighwayChecker interface {
	IsHighway(ctx context.Context, point domain.Coordinate) bool
}

// FeatureTableLoader provides the preprocessed historical incidents
type FeatureTableLoader interface {
	FeatureTable(ctx context.Context) (*domain.FeatureTable, error)
}
