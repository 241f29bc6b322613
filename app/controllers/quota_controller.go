package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/internal/pkg/quota"
	"github.com/bountyhive/BountyHive/internal/pkg/usercontext"
)

// HandleQuotaCheck reports whether the current user may perform the action
// once more in the current billing period.
func HandleQuotaCheck(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	kind, err := quota.ParseActionKind(c.Query("action"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": err.Error()})
	}

	svc := buildQuotaService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	allowed, err := svc.CanAct(ctx, userCtx.UserID, kind)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"action": string(kind), "allowed": allowed})
}

type quotaRecordRequest struct {
	Action string `json:"action"`
}

// HandleQuotaRecord counts a performed action against the current period.
func HandleQuotaRecord(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req quotaRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	kind, err := quota.ParseActionKind(strings.TrimSpace(req.Action))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": err.Error()})
	}

	svc := buildQuotaService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.RecordUsage(ctx, userCtx.UserID, kind); err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleQuotaUsage returns the current period's usage row with limits derived
// from the user's active plan.
func HandleQuotaUsage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := buildQuotaService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usage, err := svc.Usage(ctx, userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(usage)
}
