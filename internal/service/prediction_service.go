package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
)

// backgroundTimeout bounds prediction log writes and event publishing
const backgroundTimeout = 5 * time.Second

// PredictionDeps wires the prediction pipeline
type PredictionDeps struct {
	Sampler   *GridSampler
	Predictor Predictor
	Fallback  *FallbackEstimator
	Enricher  *HistoricalEnricher
	Weather   WeatherProvider
	Roads     HighwayChecker
	Repo      DataRepository
	Publisher EventPublisher
	Log       *zap.Logger
	Metrics   *metrics.Metrics
}

// PredictionService scores grid points around a location and ranks them
type PredictionService struct {
	sampler   *GridSampler
	features  FeatureBuilder
	predictor Predictor
	fallback  *FallbackEstimator
	enricher  *HistoricalEnricher
	weather   WeatherProvider
	roads     HighwayChecker
	repo      DataRepository
	publisher EventPublisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewPredictionService creates a new prediction service
func NewPredictionService(deps PredictionDeps) *PredictionService {
	s := &PredictionService{
		sampler:   deps.Sampler,
		predictor: deps.Predictor,
		fallback:  deps.Fallback,
		enricher:  deps.Enricher,
		weather:   deps.Weather,
		roads:     deps.Roads,
		repo:      deps.Repo,
		publisher: deps.Publisher,
		log:       deps.Log,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
	if s.sampler == nil {
		s.sampler = NewGridSampler(DefaultGridPoints, nil)
	}
	if s.fallback == nil {
		s.fallback = NewFallbackEstimator(nil)
	}
	if s.roads == nil {
		s.roads = NoHighways{}
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *PredictionService) WaitBackground() {
	s.wgBg.Wait()
}

// ModelLoaded reports whether a classifier is in service
func (s *PredictionService) ModelLoaded() bool {
	return s.predictor != nil && s.predictor.Ready()
}

// Weather returns current conditions at a point
func (s *PredictionService) Weather(ctx context.Context, point domain.Coordinate) (domain.Weather, error) {
	if s.weather == nil {
		return domain.Weather{}, ErrWeatherUnavailable
	}
	return s.weather.Current(ctx, point)
}

// Predict scores grid points around the request center and returns them
// ranked by risk, highest first
func (s *PredictionService) Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResponse, error) {
	start := s.now()
	defer func() {
		s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	}()

	if req.Hour < 0 || req.Hour > 23 {
		return domain.PredictionResponse{}, fmt.Errorf("%w: hour %d out of range [0, 23]", domain.ErrInvalidInput, req.Hour)
	}
	if req.Day < 0 || req.Day > 6 {
		return domain.PredictionResponse{}, fmt.Errorf("%w: day %d out of range [0, 6]", domain.ErrInvalidInput, req.Day)
	}

	points, err := s.sampler.Generate(req.Center, req.RadiusKm)
	if err != nil {
		return domain.PredictionResponse{}, err
	}

	weather := req.Weather
	if weather == "" {
		weather = s.lookupWeather(ctx, req.Center)
	}

	usingModel := s.ModelLoaded()

	hotspots := make([]domain.RiskEstimate, 0, len(points))
	fallbackPoints := 0
	for _, point := range points {
		p, ok := s.modelProbability(ctx, usingModel, point, req.Hour, req.Day, weather)
		if !ok {
			fallbackPoints++
			p = s.fallback.Estimate(weather, req.Hour, req.Day, s.roads.IsHighway(ctx, point))
		}
		hotspots = append(hotspots, domain.NewRiskEstimate(point, p))
	}

	s.metrics.PointsScored.WithLabelValues(metrics.PathModel).Add(float64(len(points) - fallbackPoints))
	s.metrics.PointsScored.WithLabelValues(metrics.PathFallback).Add(float64(fallbackPoints))

	if req.UseRealData && s.enricher != nil {
		hotspots, _ = s.enricher.Enrich(ctx, hotspots)
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].RiskFactor > hotspots[j].RiskFactor
	})

	now := s.now()
	resp := domain.PredictionResponse{
		Center:         req.Center,
		Radius:         req.RadiusKm,
		Timestamp:      now.Format(time.RFC3339),
		UsingRealData:  req.UseRealData,
		UsingMLModel:   usingModel,
		Hotspots:       hotspots,
		RequestID:      uuid.New().String(),
		GeneratedAt:    now,
		FallbackPoints: fallbackPoints,
	}
	if weather != "" {
		resp.Weather = &weather
	}

	s.log.Info("hotspots predicted",
		zap.String("request_id", resp.RequestID),
		zap.Int("points", len(hotspots)),
		zap.Int("fallback_points", fallbackPoints),
		zap.Bool("using_ml_model", usingModel))

	s.persist(req, resp)

	return resp, nil
}

func (s *PredictionService) modelProbability(ctx context.Context, usingModel bool, point domain.Coordinate, hour, day int, weather string) (float64, bool) {
	if !usingModel {
		return 0, false
	}

	p, err := s.predictor.Probability(ctx, s.features.Build(point, hour, day, weather))
	if err != nil {
		s.log.Debug("classifier unavailable for point, using fallback", zap.Error(err))
		return 0, false
	}
	return p, true
}

// lookupWeather returns the condition label, or "" when it cannot be determined
func (s *PredictionService) lookupWeather(ctx context.Context, center domain.Coordinate) string {
	if s.weather == nil {
		return ""
	}
	w, err := s.weather.Current(ctx, center)
	if err != nil {
		return ""
	}
	return w.Main
}

// persist saves the prediction and announces it without blocking the caller
func (s *PredictionService) persist(req domain.PredictionRequest, resp domain.PredictionResponse) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if s.repo != nil {
			if err := s.repo.SavePredictionLog(bgCtx, req, resp); err != nil {
				s.log.Warn("failed to save prediction log", zap.String("request_id", resp.RequestID), zap.Error(err))
			}
		}

		evt := events.NewEvent(events.TypeHotspotsPredicted, hotspotsPredicted{
			RequestID:    resp.RequestID,
			Center:       resp.Center,
			RadiusKm:     resp.Radius,
			Hotspots:     len(resp.Hotspots),
			UsingMLModel: resp.UsingMLModel,
			TopRisk:      topRisk(resp.Hotspots),
		})
		if err := s.publisher.Publish(bgCtx, evt); err != nil {
			s.log.Warn("failed to publish prediction event", zap.String("request_id", resp.RequestID), zap.Error(err))
		}
	}()
}

type hotspotsPredicted struct {
	RequestID    string            `json:"request_id"`
	Center       domain.Coordinate `json:"center"`
	RadiusKm     float64           `json:"radius_km"`
	Hotspots     int               `json:"hotspots"`
	UsingMLModel bool              `json:"using_ml_model"`
	TopRisk      float64           `json:"top_risk"`
}

func topRisk(hotspots []domain.RiskEstimate) float64 {
	if len(hotspots) == 0 {
		return 0
	}
	return hotspots[0].RiskFactor
}
