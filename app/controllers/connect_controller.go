package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/app/repository"
	"github.com/bountyhive/BountyHive/internal/pkg/usercontext"
)

type connectOnboardRequest struct {
	Country string `json:"country"`
}

// HandleConnectOnboard creates or refreshes the creator's payout account at
// the gateway. Calling it again is a no-op refresh.
func HandleConnectOnboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req connectOnboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	email := ""
	if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID); err == nil {
		email = user.Email
	}

	svc := buildPayoutService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	snapshot, err := svc.Onboard(ctx, userCtx.UserID, email, strings.ToUpper(strings.TrimSpace(req.Country)))
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(snapshot)
}

// HandleConnectEligibility pulls the creator's payout capability fresh from
// the gateway and returns the persisted snapshot.
func HandleConnectEligibility(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := buildPayoutService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	snapshot, err := svc.CheckEligibility(ctx, userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(snapshot)
}
