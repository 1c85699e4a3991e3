package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/middleware"
	"github.com/theleywin/Backend-Kindred/src/models"
	"github.com/theleywin/Backend-Kindred/src/store"
)

type NotificationController struct {
	store store.NotificationStore
	log   *lib.Logger
}

func NewNotificationController(s store.NotificationStore, log *lib.Logger) *NotificationController {
	return &NotificationController{store: s, log: log.With("controller", "notifications")}
}

// GetNotifications returns the caller's notifications, newest first. ?limit= caps the page size.
func (h *NotificationController) GetNotifications(c *fiber.Ctx) error {
	notifications, err := h.store.ListForRecipient(c.UserContext(), middleware.Participant(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return c.Status(fiber.StatusOK).JSON(notifications)
}

// MarkNotificationAsRead only touches notifications owned by the caller
func (h *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	if err := h.store.MarkRead(c.UserContext(), c.Params("id"), middleware.Participant(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification marked as read"))
}

func (h *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id"), middleware.Participant(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification deleted successfully"))
}
