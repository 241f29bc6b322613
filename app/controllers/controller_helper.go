package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/database"
	"github.com/bountyhive/BountyHive/internal/pkg/escrow"
	"github.com/bountyhive/BountyHive/internal/pkg/fees"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
	"github.com/bountyhive/BountyHive/internal/pkg/jobqueue"
	"github.com/bountyhive/BountyHive/internal/pkg/payout"
	"github.com/bountyhive/BountyHive/internal/pkg/quota"
)

// jsonError maps domain errors onto the API error envelope.
func jsonError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{
		"error":   string(apperr.KindOf(err)),
		"message": apperr.MessageOf(err),
	})
}

// buildEscrowService wires the escrow engine with its live collaborators.
// Services are cheap structs over the shared DB handle, so controllers build
// them per request.
func buildEscrowService() *escrow.Service {
	db := database.GetDB()
	gw := gateway.NewClientFromEnv()
	return escrow.NewServiceFromDB(
		db,
		gw,
		quota.NewServiceFromDB(db),
		payout.NewServiceFromDB(db, gw),
		fees.ConfigFromEnv(),
		jobqueue.NewQueueOutbox(jobqueue.GetManager().GetQueue()),
	)
}

func buildQuotaService() *quota.Service {
	return quota.NewServiceFromDB(database.GetDB())
}

func buildPayoutService() *payout.Service {
	return payout.NewServiceFromDB(database.GetDB(), gateway.NewClientFromEnv())
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
