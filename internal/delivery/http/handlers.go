package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	predictionSvc *service.PredictionService
	trainingSvc   *service.TrainingService
	repo          service.DataRepository
	log           *zap.Logger
	now           func() time.Time
}

// NewHandler creates a new handler
func NewHandler(
	predictionSvc *service.PredictionService,
	trainingSvc *service.TrainingService,
	repo service.DataRepository,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		predictionSvc: predictionSvc,
		trainingSvc:   trainingSvc,
		repo:          repo,
		log:           log,
		now:           time.Now,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	database := "disabled"
	if h.repo != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		database = "ok"
		if err := h.repo.Health(ctx); err != nil {
			database = "unavailable"
		}
	}

	return c.JSON(fiber.Map{
		"status":       "ok",
		"model_loaded": h.predictionSvc.ModelLoaded(),
		"database":     database,
		"timestamp":    h.now().Format(time.RFC3339),
	})
}

// PredictAccidents scores hotspots around the requested location
func (h *Handler) PredictAccidents(c *fiber.Ctx) error {
	if !c.Is("json") {
		return fiber.NewError(fiber.StatusBadRequest, "Request must be valid JSON with Content-Type: application/json")
	}

	req, err := parsePredictRequest(c.Body(), h.now())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.predictionSvc.Predict(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.log.Error("prediction failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Prediction failed")
	}

	return c.JSON(resp)
}

// GetWeather returns current weather at a location
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	point, err := parseCoordinate(c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	weather, err := h.predictionSvc.Weather(c.UserContext(), point)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch weather data")
	}

	return c.JSON(domain.WeatherResponse{
		Location:  point,
		Weather:   weather,
		Timestamp: h.now().Format(time.RFC3339),
	})
}

// LoadDataset reports basic statistics about the historical dataset
func (h *Handler) LoadDataset(c *fiber.Ctx) error {
	stats, err := h.trainingSvc.DatasetStats(c.UserContext())
	if err != nil {
		h.log.Warn("dataset load failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load dataset")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Dataset loaded successfully",
		"stats":   stats,
	})
}

// TrainModel retrains the local classifier and swaps it in
func (h *Handler) TrainModel(c *fiber.Ctx) error {
	info, err := h.trainingSvc.Retrain(c.UserContext())
	if err != nil {
		h.log.Error("model training failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, trainingFailureMessage(err))
	}

	message := "Model trained and saved successfully"
	if h.trainingSvc.RemoteServing() {
		message = "Model trained and saved; predictions still use the remote ML service"
	}

	return c.JSON(fiber.Map{
		"status":           "success",
		"message":          message,
		"model_info":       info,
		"remote_predictor": h.trainingSvc.RemoteServing(),
	})
}

func trainingFailureMessage(err error) string {
	var terr *service.TrainingError
	if !errors.As(err, &terr) {
		return "Failed to train model"
	}
	switch terr.Stage {
	case service.StageLoad:
		return "Failed to load dataset"
	case service.StagePreprocess:
		return "Failed to preprocess dataset"
	case service.StagePersist:
		return "Failed to save model"
	default:
		return "Failed to train model"
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else if log != nil {
			log.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": strings.TrimSpace(message),
		})
	}
}
