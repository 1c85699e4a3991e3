package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
)

// ParticipantKey is the Locals key holding the authenticated participant id
const ParticipantKey = "participant"

// ProtectRoute checks the bearer JWT and attaches the participant id to the request context
func ProtectRoute(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - No token provided"))
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token format"))
		}

		claims, err := lib.VerifyJWT(token, secret)
		if err != nil || claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token"))
		}

		participant, ok := lib.ParticipantFromClaims(claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Token has no subject"))
		}

		c.Locals(ParticipantKey, participant)
		return c.Next()
	}
}

// Participant returns the id stored by ProtectRoute
func Participant(c *fiber.Ctx) string {
	id, _ := c.Locals(ParticipantKey).(string)
	return id
}
