package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/usercontext"
)

// RequireBusiness allows only authenticated business (or admin) users through.
// Funding, release and refund are business-side operations.
func RequireBusiness(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if ctx.Role != models.ROLE_BUSINESS && ctx.Role != models.ROLE_ADMIN {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Business account required"})
	}
	return c.Next()
}

// RequireCreator allows only authenticated creator (or admin) users through.
func RequireCreator(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if ctx.Role != models.ROLE_CREATOR && ctx.Role != models.ROLE_ADMIN {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Creator account required"})
	}
	return c.Next()
}

// RequireAdmin allows only authenticated admins through.
func RequireAdmin(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if !ctx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin account required"})
	}
	return c.Next()
}
