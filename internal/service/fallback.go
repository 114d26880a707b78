package service

import (
	"math/rand"

	"github.com/harshini-mantri/accident-prediction/internal/risk"
	"github.com/harshini-mantri/accident-prediction/pkg/utils"
)

// MaxFallbackRisk caps heuristic estimates
const MaxFallbackRisk = 0.95

// FallbackEstimator scores a point heuristically when no classifier can
type FallbackEstimator struct {
	rnd func() float64
}

// NewFallbackEstimator creates an estimator; nil rnd uses math/rand
func NewFallbackEstimator(rnd func() float64) *FallbackEstimator {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &FallbackEstimator{rnd: rnd}
}

// Estimate returns a base in [0.5, 0.7) plus a tenth of the weather and
// time risks, plus 0.1 on highways, capped at MaxFallbackRisk
func (f *FallbackEstimator) Estimate(weather string, hour, day int, isHighway bool) float64 {
	p := 0.5 + f.rnd()*0.2
	p += risk.WeatherRisk(weather) * 0.1
	p += risk.TimeRisk(hour, day) * 0.1

	if isHighway {
		p += 0.1
	}

	return utils.Clamp(p, 0, MaxFallbackRisk)
}
