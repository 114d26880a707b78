package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
)

// ErrWeatherUnavailable is returned when the provider cannot be reached or answers badly
var ErrWeatherUnavailable = errors.New("weather: unavailable")

// weatherCellResolution groups lookups into H3 cells of roughly 5 km²
const weatherCellResolution = 7

const defaultVisibility = 10000

// HTTPDoer is the subset of *http.Client the weather service needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherConfig configures the OpenWeatherMap client
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// WeatherService fetches current conditions from OpenWeatherMap
type WeatherService struct {
	cfg        WeatherConfig
	httpClient HTTPDoer
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]domain.Weather
}

// NewWeatherService creates a new weather service
func NewWeatherService(cfg WeatherConfig, httpClient HTTPDoer, log *zap.Logger, m *metrics.Metrics) *WeatherService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &WeatherService{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
		metrics:    m,
		now:        time.Now,
		cache:      make(map[string]domain.Weather),
	}
}

// OpenWeatherResponse represents the OpenWeatherMap API response
type OpenWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility *int `json:"visibility"`
}

// Current returns the conditions at point. Results are cached per H3 cell.
func (s *WeatherService) Current(ctx context.Context, point domain.Coordinate) (domain.Weather, error) {
	if err := point.Validate(); err != nil {
		return domain.Weather{}, err
	}

	key := cellKey(point)
	if w, ok := s.cached(key); ok {
		return w, nil
	}

	w, err := s.fetch(ctx, point)
	if err != nil {
		s.metrics.WeatherFailures.Inc()
		s.log.Warn("weather lookup failed",
			zap.Float64("lat", point.Latitude),
			zap.Float64("lng", point.Longitude),
			zap.Error(err))
		return domain.Weather{}, err
	}

	if s.cfg.CacheTTL > 0 {
		s.store(key, w)
	}
	return w, nil
}

// store caches w and drops every expired cell
func (s *WeatherService) store(key string, w domain.Weather) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, cached := range s.cache {
		if now.Sub(cached.Timestamp) >= s.cfg.CacheTTL {
			delete(s.cache, k)
		}
	}
	s.cache[key] = w
}

func (s *WeatherService) cached(key string) (domain.Weather, bool) {
	if s.cfg.CacheTTL <= 0 {
		return domain.Weather{}, false
	}

	s.mu.RLock()
	w, ok := s.cache[key]
	s.mu.RUnlock()

	if !ok || s.now().Sub(w.Timestamp) >= s.cfg.CacheTTL {
		return domain.Weather{}, false
	}
	return w, true
}

func (s *WeatherService) fetch(ctx context.Context, point domain.Coordinate) (domain.Weather, error) {
	if s.cfg.APIKey == "" {
		return domain.Weather{}, fmt.Errorf("%w: no API key configured", ErrWeatherUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", point.Latitude))
	q.Set("lon", fmt.Sprintf("%f", point.Longitude))
	q.Set("appid", s.cfg.APIKey)
	q.Set("units", "metric")
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Weather{}, fmt.Errorf("%w: status %d", ErrWeatherUnavailable, resp.StatusCode)
	}

	var owResp OpenWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Weather{}, fmt.Errorf("%w: failed to decode response: %v", ErrWeatherUnavailable, err)
	}
	if len(owResp.Weather) == 0 {
		return domain.Weather{}, fmt.Errorf("%w: response has no conditions", ErrWeatherUnavailable)
	}

	weather := domain.Weather{
		Main:        owResp.Weather[0].Main,
		Description: owResp.Weather[0].Description,
		Temperature: owResp.Main.Temp,
		Humidity:    owResp.Main.Humidity,
		WindSpeed:   owResp.Wind.Speed,
		Visibility:  defaultVisibility,
		Timestamp:   s.now(),
	}
	if owResp.Visibility != nil {
		weather.Visibility = *owResp.Visibility
	}

	return weather, nil
}

func cellKey(p domain.Coordinate) string {
	return h3.LatLngToCell(h3.NewLatLng(p.Latitude, p.Longitude), weatherCellResolution).String()
}
