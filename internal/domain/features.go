package domain

import (
	"fmt"
	"strings"
)

// Feature names in the order produced by the feature builder and the preprocessing pipeline
const (
	FeatureLatitude    = "latitude"
	FeatureLongitude   = "longitude"
	FeatureHour        = "hour"
	FeatureDayOfWeek   = "day_of_week"
	FeatureIsWeekend   = "is_weekend"
	FeatureIsRushHour  = "is_rush_hour"
	FeatureIsNight     = "is_night"
	FeatureWeatherRisk = "weather_risk"
)

// FeatureNames is the canonical feature schema
var FeatureNames = []string{
	FeatureLatitude,
	FeatureLongitude,
	FeatureHour,
	FeatureDayOfWeek,
	FeatureIsWeekend,
	FeatureIsRushHour,
	FeatureIsNight,
	FeatureWeatherRisk,
}

// FeatureVector is an ordered set of named numeric features
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Get returns the value for a named feature
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Reorder returns the vector laid out in the given order. The name sets must be identical.
func (v FeatureVector) Reorder(order []string) (FeatureVector, error) {
	if len(order) != len(v.Names) {
		return FeatureVector{}, fmt.Errorf("%w: have [%s], want [%s]",
			ErrSchemaMismatch, strings.Join(v.Names, ","), strings.Join(order, ","))
	}

	index := make(map[string]int, len(v.Names))
	for i, n := range v.Names {
		index[n] = i
	}

	values := make([]float64, len(order))
	for i, name := range order {
		j, ok := index[name]
		if !ok {
			return FeatureVector{}, fmt.Errorf("%w: missing feature %q", ErrSchemaMismatch, name)
		}
		values[i] = v.Values[j]
	}

	names := make([]string, len(order))
	copy(names, order)
	return FeatureVector{Names: names, Values: values}, nil
}

// ValidateSchema checks that names is a permutation of the canonical feature schema
func ValidateSchema(names []string) error {
	if len(names) != len(FeatureNames) {
		return fmt.Errorf("%w: expected %d features, got %d", ErrSchemaMismatch, len(FeatureNames), len(names))
	}
	known := make(map[string]bool, len(FeatureNames))
	for _, n := range FeatureNames {
		known[n] = true
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			return fmt.Errorf("%w: unknown feature %q", ErrSchemaMismatch, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate feature %q", ErrSchemaMismatch, n)
		}
		seen[n] = true
	}
	return nil
}
