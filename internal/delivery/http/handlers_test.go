package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshini-mantri/accident-prediction/internal/dataset"
	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
	"github.com/harshini-mantri/accident-prediction/internal/ml"
	"github.com/harshini-mantri/accident-prediction/internal/repository/postgres"
	"github.com/harshini-mantri/accident-prediction/internal/service"
)

type testEnv struct {
	app     *fiber.App
	adapter *service.ClassifierAdapter
	repo    *postgres.MockRepository
	predict *service.PredictionService
}

type envOptions struct {
	datasetDir    string
	weatherURL    string
	remoteServing bool
}

func writeDataset(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Latitude,Longitude,Date,Time,Weather_Conditions,Accident_Severity\n")
	for i := 0; i < rows; i++ {
		hour := i % 24
		severity := 1
		if hour >= 12 {
			severity = 3
		}
		fmt.Fprintf(&b, "%f,%f,%02d/03/2024,%02d:30,Fine no high winds,%d\n",
			51.5+float64(i)*0.0005, -0.1+float64(i)*0.0005, 4+i%7, hour, severity)
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accidents.csv"), []byte(b.String()), 0o644))
	return dir
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	m := metrics.New()
	src := dataset.NewCSVSource(opts.datasetDir)
	cache := service.NewDatasetCache(src, time.Hour, nil, m)
	adapter := service.NewClassifierAdapter()
	repo := postgres.NewMockRepository()

	apiKey := ""
	if opts.weatherURL != "" {
		apiKey = "test-key"
	}
	weather := service.NewWeatherService(service.WeatherConfig{
		APIKey:  apiKey,
		BaseURL: opts.weatherURL,
		Timeout: 200 * time.Millisecond,
	}, nil, nil, m)

	predict := service.NewPredictionService(service.PredictionDeps{
		Predictor: adapter,
		Enricher:  service.NewHistoricalEnricher(cache, nil, m),
		Weather:   weather,
		Repo:      repo,
		Metrics:   m,
	})
	train := service.NewTrainingService(service.TrainingDeps{
		Source:    src,
		Adapter:   adapter,
		Cache:     cache,
		ModelPath: filepath.Join(t.TempDir(), "model.json"),
		Options:   ml.TrainOptions{Iterations: 50},
		Metrics:   m,

		RemoteServing: opts.remoteServing,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	SetupRoutes(app, NewHandler(predict, train, repo, nil), m)

	return &testEnv{app: app, adapter: adapter, repo: repo, predict: predict}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func hotspots(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	list, ok := body["hotspots"].([]any)
	require.True(t, ok)
	out := make([]map[string]any, len(list))
	for i, h := range list {
		out[i] = h.(map[string]any)
	}
	return out
}

func TestPredictAccidentsFallback(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/predict-accidents",
		`{"latitude": 51.5, "longitude": -0.1, "radius": 5, "hour": 8, "day": 1, "weather": "Rain", "use_real_data": false}`)
	env.predict.WaitBackground()

	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, false, body["using_ml_model"])
	assert.Equal(t, false, body["using_real_data"])
	assert.Equal(t, "Rain", body["weather"])
	assert.Equal(t, 5.0, body["radius"])
	assert.Equal(t, map[string]any{"latitude": 51.5, "longitude": -0.1}, body["center"])

	spots := hotspots(t, body)
	require.Len(t, spots, 10)
	prev := 1.0
	for _, h := range spots {
		risk := h["risk_factor"].(float64)
		assert.GreaterOrEqual(t, risk, 0.56-1e-9)
		assert.LessOrEqual(t, risk, 0.95)
		assert.LessOrEqual(t, risk, prev)
		assert.Equal(t, string(domain.RiskLevelFor(risk)), h["risk_level"])
		assert.NotContains(t, h, "real_data")
		prev = risk
	}

	assert.Len(t, env.repo.PredictionLogs(), 1)
}

func TestPredictAccidentsWithRealData(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: writeDataset(t, 30)})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/predict-accidents",
		`{"latitude": "51.5", "longitude": "-0.1", "hour": "17", "day": 4, "weather": "Clear"}`)
	env.predict.WaitBackground()

	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, true, body["using_real_data"])
	assert.Equal(t, 10.0, body["radius"])

	for _, h := range hotspots(t, body) {
		realData, ok := h["real_data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 5.0, realData["nearest_incidents"])
		assert.Contains(t, realData, "time_patterns")
		assert.Contains(t, realData, "weekend_incidents")
		assert.Contains(t, realData, "avg_distance_km")
	}
}

func TestPredictAccidentsEmptyDatasetMatchesFallback(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: t.TempDir()})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/predict-accidents",
		`{"latitude": 51.5, "longitude": -0.1, "radius": 5, "hour": 8, "day": 1, "weather": "Rain", "use_real_data": true}`)
	env.predict.WaitBackground()

	require.Equal(t, fiber.StatusOK, code, body)
	spots := hotspots(t, body)
	require.Len(t, spots, 10)
	for _, h := range spots {
		risk := h["risk_factor"].(float64)
		assert.GreaterOrEqual(t, risk, 0.56-1e-9)
		assert.LessOrEqual(t, risk, 0.95)
		assert.NotContains(t, h, "real_data")
	}
}

func TestPredictAccidentsBadRequests(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"not json", `latitude=1`},
		{"missing longitude", `{"latitude": 51.5}`},
		{"null latitude", `{"latitude": null, "longitude": 1}`},
		{"non numeric latitude", `{"latitude": "north", "longitude": 1}`},
		{"latitude out of range", `{"latitude": 120, "longitude": 1}`},
		{"hour out of range", `{"latitude": 1, "longitude": 1, "hour": 25}`},
		{"day out of range", `{"latitude": 1, "longitude": 1, "day": 9}`},
		{"negative radius", `{"latitude": 1, "longitude": 1, "radius": -3}`},
		{"pole", `{"latitude": 90, "longitude": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, env.app, fiber.MethodPost, "/api/predict-accidents", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			if body != nil {
				assert.Equal(t, true, body["error"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestPredictAccidentsRequiresJSONContentType(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := httptest.NewRequest(fiber.MethodPost, "/api/predict-accidents", strings.NewReader(`{"latitude":1,"longitude":1}`))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPredictAccidentsPreflight(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := httptest.NewRequest(fiber.MethodOptions, "/api/predict-accidents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTrainModelThenPredict(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: writeDataset(t, 60)})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/train-model", "")
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Model trained and saved successfully", body["message"])
	assert.Equal(t, false, body["remote_predictor"])

	info := body["model_info"].(map[string]any)
	assert.Equal(t, ml.ModelType, info["model_type"])
	assert.Len(t, info["feature_names"], len(domain.FeatureNames))
	assert.True(t, env.adapter.Ready())

	code, body = doJSON(t, env.app, fiber.MethodGet, "/api/health", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["model_loaded"])

	code, body = doJSON(t, env.app, fiber.MethodPost, "/api/predict-accidents",
		`{"latitude": 51.5, "longitude": -0.1, "hour": 14, "day": 2, "weather": "Rain", "use_real_data": false}`)
	env.predict.WaitBackground()
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, true, body["using_ml_model"])
	for _, h := range hotspots(t, body) {
		risk := h["risk_factor"].(float64)
		assert.GreaterOrEqual(t, risk, 0.0)
		assert.LessOrEqual(t, risk, 1.0)
	}
}

func TestTrainModelWhileRemoteClassifierServes(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: writeDataset(t, 60), remoteServing: true})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/train-model", "")
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, true, body["remote_predictor"])
	assert.Contains(t, body["message"], "remote ML service")
}

func TestTrainModelWithoutDataset(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: filepath.Join(t.TempDir(), "missing")})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/train-model", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to load dataset", body["message"])
	assert.False(t, env.adapter.Ready())
}

func TestLoadDataset(t *testing.T) {
	env := newTestEnv(t, envOptions{datasetDir: writeDataset(t, 12)})

	code, body := doJSON(t, env.app, fiber.MethodPost, "/api/load-dataset", "")
	require.Equal(t, fiber.StatusOK, code, body)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, 12.0, stats["rows"])
	assert.Equal(t, 6.0, stats["columns"])
	assert.Len(t, stats["sample_rows"], 5)

	env = newTestEnv(t, envOptions{datasetDir: t.TempDir()})
	code, body = doJSON(t, env.app, fiber.MethodPost, "/api/load-dataset", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to load dataset", body["message"])
}

func TestGetWeather(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"weather":[{"main":"Mist","description":"mist"}],"main":{"temp":7.5,"humidity":93},"wind":{"speed":2.1}}`))
	}))
	defer srv.Close()

	env := newTestEnv(t, envOptions{weatherURL: srv.URL})

	code, body := doJSON(t, env.app, fiber.MethodGet, "/api/weather?latitude=51.5&longitude=-0.1", "")
	require.Equal(t, fiber.StatusOK, code, body)

	weather := body["weather"].(map[string]any)
	assert.Equal(t, "Mist", weather["main"])
	assert.Equal(t, 10000.0, weather["visibility"])
	assert.Equal(t, map[string]any{"latitude": 51.5, "longitude": -0.1}, body["location"])

	code, _ = doJSON(t, env.app, fiber.MethodGet, "/api/weather?latitude=51.5", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = doJSON(t, env.app, fiber.MethodGet, "/api/weather?latitude=abc&longitude=1", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestGetWeatherProviderDown(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	env := newTestEnv(t, envOptions{weatherURL: srv.URL})
	code, body := doJSON(t, env.app, fiber.MethodGet, "/api/weather?latitude=1&longitude=1", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to fetch weather data", body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "accident_prediction_duration_seconds")
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db password leaked") })

	code, body := doJSON(t, app, fiber.MethodGet, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestParsePredictRequestDefaults(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 5, 0, 0, time.UTC) // a Sunday

	req, err := parsePredictRequest([]byte(`{"latitude": 10, "longitude": "20.5"}`), now)
	require.NoError(t, err)

	assert.Equal(t, domain.Coordinate{Latitude: 10, Longitude: 20.5}, req.Center)
	assert.Equal(t, 10.0, req.RadiusKm)
	assert.Equal(t, 21, req.Hour)
	assert.Equal(t, 6, req.Day)
	assert.True(t, req.UseRealData)
	assert.Empty(t, req.Weather)

	req, err = parsePredictRequest([]byte(`{"latitude": 10, "longitude": 20, "hour": 7.9, "day": "3", "weather": null, "use_real_data": false}`), now)
	require.NoError(t, err)
	assert.Equal(t, 7, req.Hour)
	assert.Equal(t, 3, req.Day)
	assert.False(t, req.UseRealData)
}
