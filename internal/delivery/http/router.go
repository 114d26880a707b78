package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/harshini-mantri/accident-prediction/internal/metrics"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, m *metrics.Metrics) {
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	api := app.Group("/api")
	{
		api.Get("/health", handler.HealthCheck)
		api.Get("/weather", handler.GetWeather)

		api.Post("/predict-accidents", handler.PredictAccidents)
		api.Post("/load-dataset", handler.LoadDataset)
		api.Post("/train-model", handler.TrainModel)
	}
}
