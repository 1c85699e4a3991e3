package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/controllers"
	"github.com/theleywin/Backend-Kindred/src/middleware"
)

// NotificationRoutes sets up notification-related routes for listing, marking as read, and deleting notifications
func NotificationRoutes(app *fiber.App, h *controllers.NotificationController, jwtSecret string) {
	notification := app.Group("/api/v1/notifications", middleware.ProtectRoute(jwtSecret))

	notification.Get("/", h.GetNotifications)
	notification.Put("/:id/read", h.MarkNotificationAsRead)
	notification.Delete("/:id", h.DeleteNotification)
}
