package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// highwayRadiusMeters is how close a major road must be to count
const highwayRadiusMeters = 50

var highwayClasses = []string{"motorway", "trunk", "primary", "motorway_link", "trunk_link"}

type overpassQuerier interface {
	Query(query string) (overpass.Result, error)
}

// RoadService asks Overpass whether a point sits on a major road
type RoadService struct {
	client  overpassQuerier
	timeout time.Duration
	log     *zap.Logger
}

// NewRoadService creates a road lookup against an Overpass endpoint
func NewRoadService(endpoint string, timeout time.Duration, log *zap.Logger) *RoadService {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return newRoadService(&client, timeout, log)
}

func newRoadService(client overpassQuerier, timeout time.Duration, log *zap.Logger) *RoadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoadService{client: client, timeout: timeout, log: log}
}

// IsHighway reports false on any lookup failure
func (r *RoadService) IsHighway(ctx context.Context, point domain.Coordinate) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`[out:json][timeout:%d];way(around:%d,%f,%f)["highway"~"^(%s)$"];out tags;`,
		int(r.timeout.Seconds())+1, highwayRadiusMeters, point.Latitude, point.Longitude,
		strings.Join(highwayClasses, "|"))

	type answer struct {
		result overpass.Result
		err    error
	}
	ch := make(chan answer, 1)
	go func() {
		res, err := r.client.Query(query)
		ch <- answer{res, err}
	}()

	select {
	case <-ctx.Done():
		r.log.Debug("road lookup timed out", zap.Error(ctx.Err()))
		return false
	case a := <-ch:
		if a.err != nil {
			r.log.Debug("road lookup failed", zap.Error(a.err))
			return false
		}
		for _, way := range a.result.Ways {
			if isHighwayClass(way.Tags["highway"]) {
				return true
			}
		}
		return false
	}
}

func isHighwayClass(class string) bool {
	for _, c := range highwayClasses {
		if class == c {
			return true
		}
	}
	return false
}

// NoHighways is used when no road lookup is configured
type NoHighways struct{}

func (NoHighways) IsHighway(context.Context, domain.Coordinate) bool { return false }
