package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bountyhive/BountyHive/app/repository"
	"github.com/bountyhive/BountyHive/internal/pkg/env"
	"github.com/bountyhive/BountyHive/internal/pkg/escrow"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
	"github.com/bountyhive/BountyHive/internal/pkg/mail"
	"github.com/bountyhive/BountyHive/internal/pkg/usercontext"
)

type fundBountyRequest struct {
	BountyID   *uint               `json:"bounty_id"`
	Draft      *escrow.BountyDraft `json:"draft"`
	Currency   string              `json:"currency"`
	SuccessURL string              `json:"success_url"`
	CancelURL  string              `json:"cancel_url"`
}

// HandleFundBounty opens a hosted checkout sized to the business total and
// creates one pending escrow record per creator slot.
func HandleFundBounty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req fundBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	email := ""
	if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID); err == nil {
		email = user.Email
	}

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.FundBounty(ctx, escrow.FundBountyInput{
		BusinessID:    userCtx.UserID,
		BusinessEmail: email,
		BountyID:      req.BountyID,
		Draft:         req.Draft,
		Currency:      req.Currency,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		return jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

type gatewayWebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID string `json:"session_id"`
		Reason    string `json:"reason"`
	} `json:"data"`
}

// HandleGatewayWebhook ingests gateway callbacks: verify signature, persist
// the event exactly once, then apply the confirmation or failure.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventType := strings.TrimSpace(c.Get("X-Gateway-Event"))
	eventID := firstHeaderValue(c, "X-Gateway-Delivery", "X-Gateway-Event-ID")
	signature := strings.TrimSpace(c.Get("X-Gateway-Signature"))
	secret := env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	signatureValid := escrow.VerifyGatewayWebhookSignature(rawBody, signature, secret)
	created, stored, err := svc.RecordWebhookEvent(ctx, escrow.WebhookEventInput{
		Provider:        gateway.Provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var payload gatewayWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if eventType == "" {
		eventType = payload.Type
	}
	if payload.Data.SessionID == "" {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("payload has no session id"))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	var processErr error
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.confirmed":
		processErr = svc.HandleGatewayConfirmed(ctx, payload.Data.SessionID)
	case "checkout.session.failed":
		processErr = svc.HandleGatewayFailed(ctx, payload.Data.SessionID, payload.Data.Reason)
	default:
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	_ = svc.MarkWebhookProcessed(ctx, stored.ID, processErr)
	if processErr != nil {
		return jsonError(c, processErr)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleCheckoutConfirm pulls the session state from the gateway. Used by the
// checkout success redirect where webhook delivery is not guaranteed.
func HandleCheckoutConfirm(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "session_id is required"})
	}

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	status, err := svc.ConfirmFromCallback(ctx, sessionID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"session_id": sessionID, "status": string(status)})
}

// HandleMarkReady moves a held escrow record to ready_for_release after the
// business approves the creator's work.
func HandleMarkReady(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	publicID := strings.TrimSpace(c.Params("id"))

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := svc.MarkReadyForRelease(ctx, publicID, userCtx.UserID); err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

type releaseRequest struct {
	CreatorID uint `json:"creator_id"`
}

// HandleRelease pays a creator out of a ready escrow record.
func HandleRelease(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	publicID := strings.TrimSpace(c.Params("id"))

	var req releaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	if req.CreatorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "creator_id is required"})
	}

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	result, err := svc.Release(ctx, publicID, userCtx.UserID, req.CreatorID)
	if err != nil {
		return jsonError(c, err)
	}

	currency := "usd"
	if rec, err := svc.GetRecordForOwner(ctx, publicID, userCtx.UserID); err == nil {
		currency = rec.Currency
	}
	notifyPayout(req.CreatorID, result.AmountReleasedCents, currency)

	return c.Status(fiber.StatusOK).JSON(result)
}

// notifyPayout emails the creator best-effort; delivery failures never affect
// the payment path.
func notifyPayout(creatorID uint, amountCents int64, currency string) {
	go func() {
		creator, err := repository.GetGlobalFactory().GetUserRepository().GetByID(creatorID)
		if err != nil || creator.Email == "" {
			return
		}
		_ = mail.SendPayoutNotification(creator.Email, amountCents, currency)
	}()
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// HandleRefund returns held funds to the business.
func HandleRefund(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	publicID := strings.TrimSpace(c.Params("id"))

	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	result, err := svc.Refund(ctx, publicID, userCtx.UserID, req.Reason)
	if err != nil {
		return jsonError(c, err)
	}

	if rec, rerr := svc.GetRecordForOwner(ctx, publicID, userCtx.UserID); rerr == nil && rec.BusinessEmail != "" {
		email, amount, currency, reason := rec.BusinessEmail, result.AmountRefundedCents, rec.Currency, req.Reason
		go func() {
			_ = mail.SendRefundNotification(email, amount, currency, reason)
		}()
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// HandleGetEscrow returns an owner-scoped projection of one escrow record.
func HandleGetEscrow(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	publicID := strings.TrimSpace(c.Params("id"))

	svc := buildEscrowService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := svc.GetRecordForOwner(ctx, publicID, userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}

	resp := fiber.Map{
		"escrow_id":    rec.PublicID,
		"status":       rec.Status,
		"amount_cents": rec.AmountCents,
		"currency":     rec.Currency,
		"created_at":   rec.CreatedAt,
		"updated_at":   rec.UpdatedAt,
	}
	if rec.BountyID != nil {
		resp["bounty_id"] = *rec.BountyID
	}
	if rec.CreatorID != nil {
		resp["creator_id"] = *rec.CreatorID
		resp["creator_earnings_cents"] = rec.CreatorEarningsCent
	}
	if rec.FailureReason != "" {
		resp["failure_reason"] = rec.FailureReason
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
