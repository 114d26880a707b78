package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harshini-mantri/accident-prediction/internal/risk"
)

func TestWeatherRisk(t *testing.T) {
	tests := []struct {
		condition string
		expected  float64
	}{
		{"Rain", 0.3},
		{"light drizzle", 0.3},
		{"Snow", 0.5},
		{"FOG", 0.4},
		{"Thunderstorm", 0.6},
		{"storm", 0.6},
		{"STORM warning", 0.6},
		{"Mist", 0.2},
		{"Clear", 0},
		{"Clouds", 0},
		{"", 0},
		// rain is checked before storm
		{"rainstorm", 0.3},
		// fog before mist
		{"Fog or mist", 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			assert.Equal(t, tt.expected, risk.WeatherRisk(tt.condition))
		})
	}
}

func TestDatasetWeatherRisk(t *testing.T) {
	assert.Equal(t, 0.3, risk.DatasetWeatherRisk("Raining no high winds"))
	assert.Equal(t, 0.0, risk.DatasetWeatherRisk("Fair weather"))
	assert.Equal(t, 0.1, risk.DatasetWeatherRisk("Overcast"))
	assert.Equal(t, 0.1, risk.DatasetWeatherRisk("Partly cloudy"))
	assert.Equal(t, 0.0, risk.DatasetWeatherRisk("Unknown"))
	// the risk table takes precedence over the neutral categories
	assert.Equal(t, 0.5, risk.DatasetWeatherRisk("Snow, overcast"))
	// neutral categories never leak into inference
	assert.Equal(t, 0.0, risk.WeatherRisk("Overcast"))
}

func TestTimeRisk(t *testing.T) {
	tests := []struct {
		name     string
		hour     int
		day      int
		expected float64
	}{
		{"morning rush midweek", 8, 2, 0.3},
		{"evening rush", 18, 0, 0.3},
		{"late night and weekend night", 23, 5, 0.4},
		{"weekend night early hours", 1, 6, 0.4},
		{"weekend evening not late", 21, 6, 0.2},
		{"weekend night window ends at 2", 3, 5, 0.2},
		{"quiet afternoon", 14, 3, 0},
		{"22 is not late night", 22, 1, 0},
		{"5 is late night", 5, 1, 0.2},
		{"weekend rush does not add night bonus", 8, 5, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, risk.TimeRisk(tt.hour, tt.day), 1e-9)
		})
	}
}

func TestNightWindowsAreIndependent(t *testing.T) {
	assert.True(t, risk.IsNight(22))
	assert.False(t, risk.IsLateNight(22))
	assert.True(t, risk.IsNight(5))
	assert.True(t, risk.IsLateNight(5))
	assert.False(t, risk.IsNight(6))
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, risk.IsWeekend(4))
	assert.True(t, risk.IsWeekend(5))
	assert.True(t, risk.IsWeekend(6))
}
