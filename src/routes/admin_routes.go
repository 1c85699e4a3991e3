package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/controllers"
	"github.com/theleywin/Backend-Kindred/src/middleware"
)

// AdminRoutes sets up the service-to-service routes guarded by the admin key
func AdminRoutes(app *fiber.App, h *controllers.AdminController, adminKeyHash string) {
	admin := app.Group("/api/v1/admin", middleware.AdminOnly(adminKeyHash))

	admin.Post("/connections", h.CreateConnection)
	admin.Post("/connections/:id/reset", h.ResetStage)
	admin.Put("/connections/:id/insights", h.SetInsights)
}
