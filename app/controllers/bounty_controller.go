package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/app/repository"
	"github.com/bountyhive/BountyHive/internal/pkg/usercontext"
)

const bountyPageSize = 25

// HandleListOpenBounties lists active bounties that still have unpaid slots.
func HandleListOpenBounties(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	repo := repository.GetGlobalFactory().GetBountyRepository()
	bounties, err := repo.ListOpen((page-1)*bountyPageSize, bountyPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not list bounties"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"page": page, "bounties": bounties})
}

// HandleListMyBounties lists the authenticated business's bounties.
func HandleListMyBounties(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	repo := repository.GetGlobalFactory().GetBountyRepository()
	bounties, err := repo.ListByBusiness(userCtx.UserID, (page-1)*bountyPageSize, bountyPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not list bounties"})
	}
	total, err := repo.CountByBusiness(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not count bounties"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"page": page, "total": total, "bounties": bounties})
}

// HandleGetBounty returns one bounty with its payout ledger fields.
func HandleGetBounty(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid bounty id"})
	}

	repo := repository.GetGlobalFactory().GetBountyRepository()
	bounty, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Bounty not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load bounty"})
	}

	// Hide draft bounties from everyone but their owner.
	userCtx := usercontext.GetUserContext(c)
	if bounty.Status == models.BountyStatusPending && bounty.BusinessID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Bounty not found"})
	}

	return c.Status(fiber.StatusOK).JSON(bounty)
}
