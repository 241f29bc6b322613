package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/internal/pkg/jobqueue"
	"github.com/bountyhive/BountyHive/internal/pkg/statistics"
)

// HandleAdminStats returns cached platform figures.
func HandleAdminStats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(statistics.GetStatisticsData())
}

// HandleAdminQueueStats reports job queue depth and per-status counts.
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()
	ctx := c.Context()

	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not read job stats"})
	}
	pending, err := queue.GetQueueSize(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not read queue size"})
	}
	processing, err := queue.GetProcessingSize(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not read processing size"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"pending":    pending,
		"processing": processing,
		"by_status":  stats,
	})
}

// HandleAdminRebuildLedger queues a payout ledger recompute for one bounty.
func HandleAdminRebuildLedger(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid bounty id"})
	}

	outbox := jobqueue.NewQueueOutbox(jobqueue.GetManager().GetQueue())
	if err := outbox.EnqueueLedgerRebuild(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not queue ledger rebuild"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}
