package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/internal/pkg/database"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"name":    "BountyHive Escrow API",
			"version": "v1",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK
		if db := database.GetDB(); db == nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{"status": status})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
