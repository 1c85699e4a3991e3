package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
)

// AdminKeyHeader carries the shared key used by the matching engine and scoring service
const AdminKeyHeader = "X-Admin-Key"

// AdminOnly rejects requests whose X-Admin-Key does not match the bcrypt hash.
// An empty hash disables the admin surface entirely.
func AdminOnly(hash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hash == "" {
			return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Admin access is not configured"))
		}
		if !lib.CheckAdminKey(hash, c.Get(AdminKeyHeader)) {
			return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Forbidden - Invalid admin key"))
		}
		return c.Next()
	}
}
