package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
	"github.com/theleywin/Backend-Kindred/src/services"
)

// AdminController serves the endpoints used by the matching engine and the scoring service
type AdminController struct {
	svc *services.ConnectionService
	log *lib.Logger
}

func NewAdminController(svc *services.ConnectionService, log *lib.Logger) *AdminController {
	return &AdminController{svc: svc, log: log.With("controller", "admin")}
}

type createConnectionRequest struct {
	ParticipantA string `json:"participantA"`
	ParticipantB string `json:"participantB"`
	Type         string `json:"type"`
}

type resetRequest struct {
	Stage string `json:"stage"`
}

// CreateConnection is called once the matching engine records mutual interest
func (h *AdminController) CreateConnection(c *fiber.Ctx) error {
	var req createConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	conn, err := h.svc.CreateConnection(c.UserContext(), req.ParticipantA, req.ParticipantB, models.NormalizeConnectionType(req.Type))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conn)
}

func (h *AdminController) ResetStage(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	stage, err := models.ParseStage(req.Stage)
	if err != nil {
		return respondError(c, h.log, err)
	}
	conn, err := h.svc.ResetToStage(c.UserContext(), c.Params("id"), stage)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(conn)
}

func (h *AdminController) SetInsights(c *fiber.Ctx) error {
	var in models.Insights
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	conn, err := h.svc.SetInsights(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(conn)
}
