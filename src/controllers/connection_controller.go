package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/middleware"
	"github.com/theleywin/Backend-Kindred/src/models"
	"github.com/theleywin/Backend-Kindred/src/services"
)

// ConnectionController serves the participant facing connection endpoints
type ConnectionController struct {
	svc *services.ConnectionService
	log *lib.Logger
}

func NewConnectionController(svc *services.ConnectionService, log *lib.Logger) *ConnectionController {
	return &ConnectionController{svc: svc, log: log.With("controller", "connections")}
}

type addMilestoneRequest struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Stage       models.Stage `json:"stage"`
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

// ListStages returns the ordered stage catalog with labels and colors
func (h *ConnectionController) ListStages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"stages": models.StageCatalog(),
		"policy": h.svc.Policy(),
	})
}

// ListConnections returns the caller's connections, optionally filtered by ?stage=
func (h *ConnectionController) ListConnections(c *fiber.Ctx) error {
	var filter *models.Stage
	if raw := c.Query("stage"); raw != "" {
		stage, err := models.ParseStage(raw)
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter = &stage
	}

	conns, err := h.svc.ListConnectionsForParticipant(c.UserContext(), middleware.Participant(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if conns == nil {
		conns = []*models.Connection{}
	}
	return c.JSON(conns)
}

func (h *ConnectionController) GetStats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext(), middleware.Participant(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}

func (h *ConnectionController) GetConnection(c *fiber.Ctx) error {
	conn, err := h.authorize(c)
	if conn == nil {
		return err
	}
	return c.JSON(conn)
}

func (h *ConnectionController) RecordInteraction(c *fiber.Ctx) error {
	if conn, err := h.authorize(c); conn == nil {
		return err
	}
	conn, err := h.svc.RecordInteraction(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(conn)
}

func (h *ConnectionController) AddMilestone(c *fiber.Ctx) error {
	if conn, err := h.authorize(c); conn == nil {
		return err
	}
	var req addMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conn, added, err := h.svc.AddMilestone(c.UserContext(), c.Params("id"), models.Milestone{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Stage:       req.Stage,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"milestone":  added,
		"connection": conn,
	})
}

// CompleteMilestone marks a milestone done. Completing it again returns 200 with changed=false.
func (h *ConnectionController) CompleteMilestone(c *fiber.Ctx) error {
	if conn, err := h.authorize(c); conn == nil {
		return err
	}
	conn, report, err := h.svc.CompleteMilestone(c.UserContext(), c.Params("id"), c.Params("milestoneId"), middleware.Participant(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"report":     report,
		"connection": conn,
	})
}

func (h *ConnectionController) UpdateMilestoneProgress(c *fiber.Ctx) error {
	if conn, err := h.authorize(c); conn == nil {
		return err
	}
	var req progressRequest
	if err := c.BodyParser(&req); err != nil || req.Progress == nil {
		return badRequest(c, "progress is required")
	}

	conn, report, err := h.svc.UpdateMilestoneProgress(c.UserContext(), c.Params("id"), c.Params("milestoneId"), *req.Progress)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"report":     report,
		"connection": conn,
	})
}

func (h *ConnectionController) AdvanceStage(c *fiber.Ctx) error {
	if conn, err := h.authorize(c); conn == nil {
		return err
	}
	conn, err := h.svc.AdvanceStage(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(conn)
}

// authorize loads the connection and checks the caller belongs to it.
// A nil connection means the response has already been written.
func (h *ConnectionController) authorize(c *fiber.Ctx) (*models.Connection, error) {
	conn, err := h.svc.GetConnection(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, respondError(c, h.log, err)
	}
	if !conn.Involves(middleware.Participant(c)) {
		return nil, c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("You are not part of this connection"))
	}
	return conn, nil
}
