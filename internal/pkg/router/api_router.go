package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/bountyhive/BountyHive/app/controllers"
	"github.com/bountyhive/BountyHive/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Public: registration and the gateway's signed callbacks.
	v1.Post("/users/register", controllers.HandleRegister)
	v1.Post("/payments/webhook", controllers.HandleGatewayWebhook)
	v1.Get("/payments/confirm", controllers.HandleCheckoutConfirm)

	// Everything below requires an API key.
	auth := v1.Group("", middleware.APIKeyAuthMiddleware())

	auth.Get("/users/me", controllers.HandleMe)
	auth.Post("/users/api-key/rotate", controllers.HandleRotateAPIKey)

	auth.Get("/bounties", controllers.HandleListOpenBounties)
	auth.Get("/bounties/mine", middleware.RequireBusiness, controllers.HandleListMyBounties)
	auth.Get("/bounties/:id", controllers.HandleGetBounty)
	auth.Post("/bounties/fund", middleware.RequireBusiness, controllers.HandleFundBounty)

	auth.Get("/escrow/:id", controllers.HandleGetEscrow)
	auth.Post("/escrow/:id/ready", middleware.RequireBusiness, controllers.HandleMarkReady)
	auth.Post("/escrow/:id/release", middleware.RequireBusiness, controllers.HandleRelease)
	auth.Post("/escrow/:id/refund", middleware.RequireBusiness, controllers.HandleRefund)

	auth.Get("/quota", controllers.HandleQuotaCheck)
	auth.Get("/quota/usage", controllers.HandleQuotaUsage)
	auth.Post("/quota/record", controllers.HandleQuotaRecord)

	auth.Post("/connect/onboard", middleware.RequireCreator, controllers.HandleConnectOnboard)
	auth.Get("/connect/eligibility", middleware.RequireCreator, controllers.HandleConnectEligibility)

	admin := auth.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/queue", controllers.HandleAdminQueueStats)
	admin.Post("/bounties/:id/ledger/rebuild", controllers.HandleAdminRebuildLedger)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
