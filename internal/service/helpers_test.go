package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
)

// memorySource serves a fixed raw table and counts loads
type memorySource struct {
	raw   *domain.RawTable
	err   error
	delay time.Duration
	loads atomic.Int32
}

func (s *memorySource) Load(ctx context.Context) (*domain.RawTable, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func (s *memorySource) Describe() string { return "memory" }

// incidentTable builds a raw table of n incidents around (lat, lng).
// Afternoon incidents are severe.
func incidentTable(n int, lat, lng float64) *domain.RawTable {
	raw := &domain.RawTable{
		Columns: []string{"Latitude", "Longitude", "Date", "Time", "Weather_Conditions", "Accident_Severity"},
	}
	for i := 0; i < n; i++ {
		hour := i % 24
		severity := "1"
		if hour >= 12 {
			severity = "3"
		}
		raw.Rows = append(raw.Rows, []string{
			fmt.Sprintf("%f", lat+float64(i)*0.001),
			fmt.Sprintf("%f", lng+float64(i)*0.001),
			fmt.Sprintf("%02d/03/2024", 4+i%7),
			fmt.Sprintf("%02d:15", hour),
			"Raining no high winds",
			severity,
		})
	}
	return raw
}

type staticTables struct {
	table *domain.FeatureTable
	err   error
}

func (s staticTables) FeatureTable(context.Context) (*domain.FeatureTable, error) {
	return s.table, s.err
}

type fixedPredictor struct {
	p     float64
	err   error
	ready bool
}

func (f fixedPredictor) Probability(context.Context, domain.FeatureVector) (float64, error) {
	return f.p, f.err
}

func (f fixedPredictor) Ready() bool { return f.ready }

type fixedWeather struct {
	w   domain.Weather
	err error
}

func (f fixedWeather) Current(context.Context, domain.Coordinate) (domain.Weather, error) {
	return f.w, f.err
}

// MockRepository is a testify mock of DataRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SavePredictionLog(ctx context.Context, req domain.PredictionRequest, resp domain.PredictionResponse) error {
	return m.Called(ctx, req, resp).Error(0)
}

func (m *MockRepository) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recordingPublisher keeps every event it is given
type recordingPublisher struct {
	ch chan events.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{ch: make(chan events.Event, 16)}
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.ch <- evt
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// sequence returns the given values in order, then repeats the last one
func sequence(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}
