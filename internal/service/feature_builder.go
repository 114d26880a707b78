package service

import (
	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/risk"
)

// FeatureBuilder turns a point and its context into a model input
type FeatureBuilder struct{}

// Build returns the features in canonical order. Predictors reorder to
// their trained schema.
func (FeatureBuilder) Build(point domain.Coordinate, hour, day int, weather string) domain.FeatureVector {
	return domain.IncidentRecord{
		Latitude:    point.Latitude,
		Longitude:   point.Longitude,
		Hour:        hour,
		DayOfWeek:   day,
		IsWeekend:   risk.IsWeekend(day),
		IsRushHour:  risk.IsRushHour(hour),
		IsNight:     risk.IsNight(hour),
		WeatherRisk: risk.WeatherRisk(weather),
	}.Features()
}
