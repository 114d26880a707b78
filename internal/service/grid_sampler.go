package service

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// DefaultGridPoints is the number of points sampled per request
const DefaultGridPoints = 10

// degreesPerKm approximates one kilometre of latitude
const degreesPerKm = 0.009

// GridSampler scatters candidate hotspots around a center
type GridSampler struct {
	count int
	rnd   func() float64
}

// NewGridSampler creates a sampler. rnd must return values in [0,1);
// nil uses math/rand.
func NewGridSampler(count int, rnd func() float64) *GridSampler {
	if count <= 0 {
		count = DefaultGridPoints
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	return &GridSampler{count: count, rnd: rnd}
}

// Generate returns points at a uniform random bearing and a uniform random
// distance (not area) within radiusKm of center. A zero radius puts every
// point on the center.
func (g *GridSampler) Generate(center domain.Coordinate, radiusKm float64) ([]domain.Coordinate, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.Abs(center.Latitude) == 90 {
		return nil, fmt.Errorf("%w: cannot sample around a pole", domain.ErrInvalidInput)
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, fmt.Errorf("%w: radius must be a non-negative number of km, got %v", domain.ErrInvalidInput, radiusKm)
	}

	lngScale := math.Cos(center.Latitude * math.Pi / 180)

	points := make([]domain.Coordinate, 0, g.count)
	for i := 0; i < g.count; i++ {
		angle := g.rnd() * 2 * math.Pi
		distance := g.rnd() * radiusKm

		points = append(points, domain.Coordinate{
			Latitude:  center.Latitude + math.Cos(angle)*distance*degreesPerKm,
			Longitude: center.Longitude + math.Sin(angle)*distance*degreesPerKm/lngScale,
		})
	}

	return points, nil
}

// Count returns the number of points per request
func (g *GridSampler) Count() int {
	return g.count
}
