package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/controllers"
	"github.com/theleywin/Backend-Kindred/src/middleware"
)

// ConnectionRoutes sets up the participant facing stage, connection and milestone routes
func ConnectionRoutes(app *fiber.App, h *controllers.ConnectionController, jwtSecret string) {
	protect := middleware.ProtectRoute(jwtSecret)

	app.Get("/api/v1/stages", protect, h.ListStages)

	// the guard is attached per resource group so /api/v1/admin keeps its own
	connection := app.Group("/api/v1/connections", protect)
	connection.Get("/", h.ListConnections)
	connection.Get("/stats", h.GetStats)
	connection.Get("/:id", h.GetConnection)
	connection.Post("/:id/interactions", h.RecordInteraction)
	connection.Post("/:id/milestones", h.AddMilestone)
	connection.Post("/:id/milestones/:milestoneId/complete", h.CompleteMilestone)
	connection.Put("/:id/milestones/:milestoneId/progress", h.UpdateMilestoneProgress)
	connection.Post("/:id/advance", h.AdvanceStage)
}
