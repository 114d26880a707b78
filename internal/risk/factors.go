// Package risk holds the additive risk contributions shared by inference,
// the fallback estimator and dataset preprocessing.
package risk

import "strings"

type weatherRule struct {
	substrings []string
	risk       float64
}

// weatherRules is ordered; the first match wins
var weatherRules = []weatherRule{
	{[]string{"rain", "drizzle"}, 0.3},
	{[]string{"snow"}, 0.5},
	{[]string{"fog"}, 0.4},
	{[]string{"storm"}, 0.6},
	{[]string{"mist"}, 0.2},
}

// neutralRules extend the table for dataset labels that carry little or no risk
var neutralRules = []weatherRule{
	{[]string{"clear", "fair"}, 0},
	{[]string{"cloudy", "overcast"}, 0.1},
}

// WeatherRisk returns the added risk for a free-text weather condition
func WeatherRisk(condition string) float64 {
	risk, _ := match(weatherRules, condition)
	return risk
}

// DatasetWeatherRisk is WeatherRisk extended with the neutral dataset categories
func DatasetWeatherRisk(condition string) float64 {
	if risk, ok := match(weatherRules, condition); ok {
		return risk
	}
	risk, _ := match(neutralRules, condition)
	return risk
}

func match(rules []weatherRule, condition string) (float64, bool) {
	if condition == "" {
		return 0, false
	}
	c := strings.ToLower(condition)
	for _, rule := range rules {
		for _, s := range rule.substrings {
			if strings.Contains(c, s) {
				return rule.risk, true
			}
		}
	}
	return 0, false
}

// TimeRisk returns the added risk for an hour (0-23) and day index (0 = Monday).
// Contributions are summed and not capped.
func TimeRisk(hour, day int) float64 {
	risk := 0.0

	if IsRushHour(hour) {
		risk += 0.3
	}

	if IsLateNight(hour) {
		risk += 0.2
	}

	// day indices 5 and 6, evening through early morning
	if (day == 5 || day == 6) && (hour >= 20 || hour <= 2) {
		risk += 0.2
	}

	return risk
}

// IsRushHour reports the morning (7-9) and evening (17-19) peaks
func IsRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

// IsLateNight is the 23:00-05:59 window used by TimeRisk
func IsLateNight(hour int) bool {
	return hour >= 23 || hour <= 5
}

// IsNight is the 22:00-05:59 window used as a model feature.
// It deliberately differs from IsLateNight.
func IsNight(hour int) bool {
	return hour >= 22 || hour <= 5
}

// IsWeekend reports day indices 5 and 6
func IsWeekend(day int) bool {
	return day >= 5
}
