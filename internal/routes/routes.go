package routes

import (
	"dashboard-metrics-service/internal/controller"

	"github.com/gofiber/fiber/v2"
)

// Register attaches all HTTP routes to the Fiber app.
func Register(app *fiber.App, dashboardController controller.DashboardController) {
	app.Get("/datasets", dashboardController.ListDatasets)
	app.Get("/ranges", dashboardController.ResolveRange)

	datasets := app.Group("/datasets/:dataset")
	datasets.Post("/records", dashboardController.IngestRecords)
	datasets.Post("/aggregate", dashboardController.Aggregate)
	datasets.Post("/compare", dashboardController.Compare)
	datasets.Post("/trend", dashboardController.Trend)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
