package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
)

func londonRainRequest(useRealData bool) domain.PredictionRequest {
	return domain.PredictionRequest{
		Center:      domain.Coordinate{Latitude: 51.5, Longitude: -0.1},
		RadiusKm:    5,
		Weather:     "Rain",
		Hour:        8,
		Day:         1,
		UseRealData: useRealData,
	}
}

func assertFallbackRanges(t *testing.T, resp domain.PredictionResponse) {
	t.Helper()
	require.Len(t, resp.Hotspots, 10)
	for _, h := range resp.Hotspots {
		assert.LessOrEqual(t, h.RiskFactor, 0.95)
		assert.GreaterOrEqual(t, h.RiskFactor, 0.5+0.03+0.03-1e-9)
		assert.Equal(t, domain.RiskLevelFor(h.RiskFactor), h.RiskLevel)
	}
	assert.True(t, sort.SliceIsSorted(resp.Hotspots, func(i, j int) bool {
		return resp.Hotspots[i].RiskFactor > resp.Hotspots[j].RiskFactor
	}))
}

func TestPredictWithoutModel(t *testing.T) {
	svc := NewPredictionService(PredictionDeps{Predictor: NewClassifierAdapter()})

	resp, err := svc.Predict(context.Background(), londonRainRequest(false))
	require.NoError(t, err)
	svc.WaitBackground()

	assertFallbackRanges(t, resp)
	assert.False(t, resp.UsingMLModel)
	assert.False(t, resp.UsingRealData)
	assert.Equal(t, 10, resp.FallbackPoints)
	require.NotNil(t, resp.Weather)
	assert.Equal(t, "Rain", *resp.Weather)
	assert.Equal(t, 5.0, resp.Radius)
	assert.NotEmpty(t, resp.RequestID)
	for _, h := range resp.Hotspots {
		assert.Nil(t, h.RealData)
	}
}

func TestPredictWithEmptyDataset(t *testing.T) {
	enricher := NewHistoricalEnricher(staticTables{table: &domain.FeatureTable{}}, nil, nil)
	svc := NewPredictionService(PredictionDeps{Predictor: NewClassifierAdapter(), Enricher: enricher})

	resp, err := svc.Predict(context.Background(), londonRainRequest(true))
	require.NoError(t, err)
	svc.WaitBackground()

	assertFallbackRanges(t, resp)
	assert.True(t, resp.UsingRealData)
	for _, h := range resp.Hotspots {
		assert.Nil(t, h.RealData)
	}
}

func TestPredictWithHistoricalData(t *testing.T) {
	src := &memorySource{raw: incidentTable(40, 51.5, -0.1)}
	cache := NewDatasetCache(src, time.Hour, nil, nil)
	svc := NewPredictionService(PredictionDeps{
		Predictor: fixedPredictor{p: 0.4, ready: true},
		Enricher:  NewHistoricalEnricher(cache, nil, nil),
	})

	resp, err := svc.Predict(context.Background(), londonRainRequest(true))
	require.NoError(t, err)
	svc.WaitBackground()

	assert.True(t, resp.UsingMLModel)
	for _, h := range resp.Hotspots {
		require.NotNil(t, h.RealData)
		assert.Equal(t, 5, h.RealData.NearestIncidents)
		assert.InDelta(t, 0.4*0.7+0.5*0.3, h.RiskFactor, 1e-9)
	}
}

func TestPredictUsesModel(t *testing.T) {
	svc := NewPredictionService(PredictionDeps{Predictor: fixedPredictor{p: 0.42, ready: true}})

	resp, err := svc.Predict(context.Background(), londonRainRequest(false))
	require.NoError(t, err)
	svc.WaitBackground()

	assert.True(t, resp.UsingMLModel)
	assert.Zero(t, resp.FallbackPoints)
	for _, h := range resp.Hotspots {
		assert.Equal(t, 0.42, h.RiskFactor)
		assert.Equal(t, domain.RiskModerate, h.RiskLevel)
	}
}

func TestPredictFallsBackPerPoint(t *testing.T) {
	svc := NewPredictionService(PredictionDeps{
		Predictor: fixedPredictor{err: domain.ErrModelUnavailable, ready: true},
	})

	resp, err := svc.Predict(context.Background(), londonRainRequest(false))
	require.NoError(t, err)
	svc.WaitBackground()

	assert.True(t, resp.UsingMLModel)
	assert.Equal(t, 10, resp.FallbackPoints)
	assertFallbackRanges(t, resp)
}

func TestPredictLooksUpWeather(t *testing.T) {
	req := londonRainRequest(false)
	req.Weather = ""

	svc := NewPredictionService(PredictionDeps{
		Predictor: NewClassifierAdapter(),
		Fallback:  NewFallbackEstimator(func() float64 { return 0 }),
		Weather:   fixedWeather{w: domain.Weather{Main: "Snow"}},
	})
	resp, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	svc.WaitBackground()

	require.NotNil(t, resp.Weather)
	assert.Equal(t, "Snow", *resp.Weather)
	assert.InDelta(t, 0.5+0.05+0.03, resp.Hotspots[0].RiskFactor, 1e-9)

	svc = NewPredictionService(PredictionDeps{
		Predictor: NewClassifierAdapter(),
		Fallback:  NewFallbackEstimator(func() float64 { return 0 }),
		Weather:   fixedWeather{err: ErrWeatherUnavailable},
	})
	resp, err = svc.Predict(context.Background(), req)
	require.NoError(t, err)
	svc.WaitBackground()

	assert.Nil(t, resp.Weather)
	assert.InDelta(t, 0.53, resp.Hotspots[0].RiskFactor, 1e-9)
}

func TestPredictRejectsInvalidInput(t *testing.T) {
	svc := NewPredictionService(PredictionDeps{Predictor: NewClassifierAdapter()})

	tests := []struct {
		name string
		edit func(*domain.PredictionRequest)
	}{
		{"hour too large", func(r *domain.PredictionRequest) { r.Hour = 24 }},
		{"negative hour", func(r *domain.PredictionRequest) { r.Hour = -1 }},
		{"day too large", func(r *domain.PredictionRequest) { r.Day = 7 }},
		{"bad latitude", func(r *domain.PredictionRequest) { r.Center.Latitude = 95 }},
		{"pole", func(r *domain.PredictionRequest) { r.Center.Latitude = -90 }},
		{"negative radius", func(r *domain.PredictionRequest) { r.RadiusKm = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := londonRainRequest(false)
			tt.edit(&req)
			_, err := svc.Predict(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestPredictPersistsInBackground(t *testing.T) {
	repo := &MockRepository{}
	repo.On("SavePredictionLog", mock.Anything, mock.AnythingOfType("domain.PredictionRequest"), mock.AnythingOfType("domain.PredictionResponse")).
		Return(errors.New("connection refused"))
	pub := newRecordingPublisher()

	svc := NewPredictionService(PredictionDeps{Predictor: NewClassifierAdapter(), Repo: repo, Publisher: pub})
	resp, err := svc.Predict(context.Background(), londonRainRequest(false))
	require.NoError(t, err, "storage failures do not fail the request")
	svc.WaitBackground()

	repo.AssertNumberOfCalls(t, "SavePredictionLog", 1)

	evt := <-pub.ch
	assert.Equal(t, events.TypeHotspotsPredicted, evt.Type)
	payload := evt.Payload.(hotspotsPredicted)
	assert.Equal(t, resp.RequestID, payload.RequestID)
	assert.Equal(t, 10, payload.Hotspots)
	assert.Equal(t, resp.Hotspots[0].RiskFactor, payload.TopRisk)
}

func TestPredictUsesHighwayLookupForFallback(t *testing.T) {
	svc := NewPredictionService(PredictionDeps{
		Predictor: NewClassifierAdapter(),
		Fallback:  NewFallbackEstimator(func() float64 { return 0 }),
		Roads:     alwaysHighway{},
	})

	req := londonRainRequest(false)
	req.Weather = "Clear"
	req.Hour = 12
	resp, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	svc.WaitBackground()

	for _, h := range resp.Hotspots {
		assert.InDelta(t, 0.6, h.RiskFactor, 1e-9)
	}
}

type alwaysHighway struct{}

func (alwaysHighway) IsHighway(context.Context, domain.Coordinate) bool { return true }
