package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
	"github.com/bountyhive/BountyHive/internal/pkg/fees"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
	"github.com/bountyhive/BountyHive/internal/pkg/quota"
)

// Service orchestrates the escrow payment lifecycle: funding checkouts,
// gateway confirmations, releases to creators and refunds to businesses.
// It is the only writer of escrow statuses and bounty payment fields.
type Service struct {
	repo        Repository
	gw          gateway.Client
	quota       QuotaGate
	eligibility EligibilityChecker
	fees        fees.Config
	outbox      Outbox
}

// NewService creates an escrow service from injected collaborators.
func NewService(repo Repository, gw gateway.Client, q QuotaGate, elig EligibilityChecker, feeCfg fees.Config, outbox Outbox) *Service {
	return &Service{
		repo:        repo,
		gw:          gw,
		quota:       q,
		eligibility: elig,
		fees:        feeCfg,
		outbox:      outbox,
	}
}

// NewServiceFromDB wires the service against GORM with the given collaborators.
func NewServiceFromDB(db *gorm.DB, gw gateway.Client, q QuotaGate, elig EligibilityChecker, feeCfg fees.Config, outbox Outbox) *Service {
	return NewService(NewRepository(db), gw, q, elig, feeCfg, outbox)
}

// FundBounty opens a hosted checkout for one bounty funding and creates one
// pending escrow record per creator slot. Quota and amount validation happen
// before any state is written or any gateway call is made.
func (s *Service) FundBounty(ctx context.Context, in FundBountyInput) (*FundBountyResult, error) {
	if in.BusinessID == 0 {
		return nil, apperr.Validation("business id is required")
	}
	if (in.BountyID == nil) == (in.Draft == nil) {
		return nil, apperr.Validation("exactly one of bounty id and bounty draft must be provided")
	}

	var perCreator int64
	var creatorCount int
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	var bounty *models.Bounty

	if in.BountyID != nil {
		var err error
		bounty, err = s.repo.GetBounty(*in.BountyID)
		if err != nil {
			return nil, err
		}
		if bounty.BusinessID != in.BusinessID {
			return nil, apperr.Forbidden("bounty %d does not belong to the requesting business", bounty.ID)
		}
		if bounty.Status != models.BountyStatusPending || bounty.EscrowPaymentID != nil {
			return nil, apperr.Conflict("bounty %d is already funded or no longer pending", bounty.ID)
		}
		perCreator = bounty.PerCreatorAmountCents
		creatorCount = bounty.MaxCreators
		currency = bounty.Currency
	} else {
		if err := validator.New().Struct(in.Draft); err != nil {
			return nil, apperr.Validation("invalid bounty draft: %v", err)
		}
		perCreator = in.Draft.PerCreatorAmountCents
		creatorCount = in.Draft.MaxCreators
		if in.Draft.Currency != "" {
			currency = strings.ToLower(in.Draft.Currency)
		}
	}
	if currency == "" {
		currency = "usd"
	}
	if creatorCount < 1 {
		return nil, apperr.Validation("creator count must be at least 1")
	}
	if err := s.fees.ValidateAmount(perCreator); err != nil {
		return nil, err
	}

	// Quota gate: funding a drafted bounty is the bounty-creating action.
	// Usage is recorded before the checkout opens so a counter failure can
	// never hand out an unmetered slot.
	if in.Draft != nil {
		ok, err := s.quota.CanAct(ctx, in.BusinessID, quota.ActionCreateBounty)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.PreconditionFailed("bounty limit for the current billing period reached; upgrade to continue")
		}
		if err := s.quota.RecordUsage(ctx, in.BusinessID, quota.ActionCreateBounty); err != nil {
			return nil, fmt.Errorf("failed recording bounty usage for user %d: %w", in.BusinessID, err)
		}
	}

	totalBounty := perCreator * int64(creatorCount)
	platformFee := s.fees.PlatformFee(totalBounty)
	businessTotal := totalBounty + platformFee

	records := make([]*models.EscrowPayment, 0, creatorCount)
	for i := 0; i < creatorCount; i++ {
		records = append(records, models.NewEscrowPayment(in.BusinessID, in.BusinessEmail, perCreator, currency))
	}
	primary := records[0]

	if in.Draft != nil {
		draftJSON, err := json.Marshal(in.Draft)
		if err != nil {
			return nil, fmt.Errorf("failed encoding bounty draft: %w", err)
		}
		primary.PendingBountyJSON = string(draftJSON)
	} else {
		for _, rec := range records {
			rec.BountyID = in.BountyID
		}
	}

	session, err := s.gw.CreateCheckoutSession(ctx, gateway.CheckoutSessionInput{
		AmountCents:   businessTotal,
		Currency:      currency,
		CustomerEmail: in.BusinessEmail,
		SuccessURL:    in.SuccessURL,
		CancelURL:     in.CancelURL,
		Metadata: map[string]string{
			"escrow_id": primary.PublicID,
		},
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		rec.GatewaySessionID = session.ID
		rec.GatewayCustomerID = session.CustomerID
		rec.GatewayPaymentRef = session.PaymentRef
	}
	if err := s.repo.CreateRecords(records); err != nil {
		return nil, err
	}

	if in.BountyID != nil {
		// Link the funding record now: an unlinked bounty would pass the
		// already-funded guard again and admit a second checkout.
		if err := s.linkPrimaryRecord(bounty, primary); err != nil {
			if _, ferr := s.repo.FailSessionRecords(session.ID, "bounty funding link failed"); ferr != nil {
				log.Printf("escrow: failed voiding session %s after link failure: %v", session.ID, ferr)
			}
			return nil, fmt.Errorf("failed linking bounty %d to escrow %s: %w", bounty.ID, primary.PublicID, err)
		}
	}

	return &FundBountyResult{
		EscrowID:          primary.PublicID,
		SessionID:         session.ID,
		RedirectURL:       session.RedirectURL,
		BusinessTotalCent: businessTotal,
		PlatformFeeCents:  platformFee,
	}, nil
}

// HandleGatewayConfirmed applies a confirmed checkout session: escrow records
// move to held_in_escrow and the bounty becomes active, materializing it first
// when the funding used the pay-before-create flow. Duplicate confirmations of
// the same session are no-ops.
func (s *Service) HandleGatewayConfirmed(ctx context.Context, sessionID string) error {
	_ = ctx
	records, err := s.repo.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperr.NotFound("no escrow records for session %s", sessionID)
	}

	primary := records[0]
	for _, rec := range records {
		if rec.PendingBountyJSON != "" {
			primary = rec
			break
		}
	}

	if primary.BountyID == nil && primary.PendingBountyJSON != "" {
		var draft BountyDraft
		if err := json.Unmarshal([]byte(primary.PendingBountyJSON), &draft); err != nil {
			return fmt.Errorf("corrupt pending bounty payload on escrow %s: %w", primary.PublicID, err)
		}

		bounty := &models.Bounty{
			BusinessID:            primary.BusinessID,
			Title:                 draft.Title,
			Description:           draft.Description,
			Status:                models.BountyStatusActive,
			PaymentStatus:         models.BountyPaymentHeld,
			EscrowPaymentID:       &primary.ID,
			Currency:              primary.Currency,
			PerCreatorAmountCents: draft.PerCreatorAmountCents,
			MaxCreators:           draft.MaxCreators,
		}
		bounty.InitPayoutLedger()
		return s.repo.MaterializeBounty(&primary, bounty)
	}

	if primary.BountyID == nil {
		return apperr.Conflict("escrow record %s has neither a bounty link nor a pending payload", primary.PublicID)
	}

	_, err = s.repo.ConfirmSessionRecords(sessionID, *primary.BountyID)
	return err
}

// HandleGatewayFailed marks every non-terminal record of a session as failed.
func (s *Service) HandleGatewayFailed(ctx context.Context, sessionID, reason string) error {
	_ = ctx
	if strings.TrimSpace(reason) == "" {
		reason = "payment failed at gateway"
	}
	_, err := s.repo.FailSessionRecords(sessionID, reason)
	return err
}

// ConfirmFromCallback pulls the session outcome from the gateway (used by the
// success-redirect flow where no webhook has arrived yet) and applies it.
func (s *Service) ConfirmFromCallback(ctx context.Context, sessionID string) (gateway.SessionStatus, error) {
	status, err := s.gw.ConfirmSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	switch status {
	case gateway.SessionConfirmed:
		return status, s.HandleGatewayConfirmed(ctx, sessionID)
	case gateway.SessionFailed:
		return status, s.HandleGatewayFailed(ctx, sessionID, "checkout session failed")
	default:
		return status, nil
	}
}

// MarkReadyForRelease records that both sides accepted the deliverable.
func (s *Service) MarkReadyForRelease(ctx context.Context, publicID string, requesterID uint) error {
	_ = ctx
	rec, err := s.repo.GetByPublicID(publicID)
	if err != nil {
		return err
	}
	if rec.BusinessID != requesterID {
		return apperr.Forbidden("escrow record %s does not belong to the requesting business", publicID)
	}
	if rec.Status == models.EscrowStatusReadyForRelease {
		return nil
	}
	return s.repo.MarkReady(publicID)
}

// Release pays one creator slot. The payout eligibility pull, the status
// claim and the ledger increments all happen before the transfer dispatch;
// a dispatch failure is queued for reconciliation with the same idempotency
// key, never silently dropped.
func (s *Service) Release(ctx context.Context, publicID string, requesterID, creatorID uint) (*ReleaseResult, error) {
	if creatorID == 0 {
		return nil, apperr.Validation("creator id is required")
	}

	rec, err := s.repo.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if rec.BusinessID != requesterID {
		return nil, apperr.Forbidden("escrow record %s does not belong to the requesting business", publicID)
	}
	if rec.Status != models.EscrowStatusReadyForRelease {
		return nil, apperr.Conflict("escrow record %s is %s and cannot transition to %s", publicID, rec.Status, models.EscrowStatusReleased)
	}

	// Fresh pull, never a cached flag: payout capability changes
	// asynchronously while the creator completes onboarding.
	snapshot, err := s.eligibility.CheckEligibility(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !snapshot.HasPayoutAccount || !snapshot.PayoutsEnabled {
		return nil, apperr.PreconditionFailed("creator %d has no payout-enabled account; onboarding must be completed first", creatorID)
	}

	earnings := fees.CreatorEarnings(rec.AmountCents)
	released, err := s.repo.ReleaseRecord(publicID, creatorID, earnings)
	if err != nil {
		return nil, err
	}

	if err := s.quota.AddEarnings(ctx, creatorID, earnings); err != nil {
		// Earnings aggregates are re-derivable from released records.
		log.Printf("escrow: failed recording earnings for creator %d on escrow %s: %v", creatorID, publicID, err)
	}

	transferID, err := s.gw.Transfer(ctx, gateway.TransferInput{
		DestinationAccount: snapshot.AccountRef,
		AmountCents:        earnings,
		Currency:           released.Currency,
		GroupRef:           bountyGroupRef(released),
		IdempotencyKey:     transferIdempotencyKey(publicID),
	})
	if err != nil {
		s.queueSettlement(publicID)
		return nil, apperr.GatewayUnavailable(err, "release of escrow %s is claimed but the transfer dispatch failed; it will be retried", publicID)
	}

	if err := s.repo.SetTransferRef(publicID, transferID); err != nil {
		log.Printf("escrow: transfer %s dispatched for escrow %s but reference persist failed: %v", transferID, publicID, err)
		s.queueSettlement(publicID)
	}

	return &ReleaseResult{TransferID: transferID, AmountReleasedCents: earnings}, nil
}

// Refund returns escrowed funds to the business. Allowed from pending and
// held_in_escrow only.
func (s *Service) Refund(ctx context.Context, publicID string, requesterID uint, reason string) (*RefundResult, error) {
	rec, err := s.repo.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if rec.BusinessID != requesterID {
		return nil, apperr.Forbidden("escrow record %s does not belong to the requesting business", publicID)
	}
	if strings.TrimSpace(reason) == "" {
		reason = "refund requested by business"
	}

	refunded, err := s.repo.RefundRecord(publicID, reason)
	if err != nil {
		return nil, err
	}

	// Partial refund of this slot only: the payment ref is shared by every
	// slot record of the session, and other slots may already be released.
	refundID, err := s.gw.Refund(ctx, gateway.RefundInput{
		PaymentRef:     refunded.GatewayPaymentRef,
		AmountCents:    refunded.AmountCents,
		Reason:         reason,
		IdempotencyKey: refundIdempotencyKey(publicID),
	})
	if err != nil {
		s.queueSettlement(publicID)
		return nil, apperr.GatewayUnavailable(err, "refund of escrow %s is claimed but the gateway dispatch failed; it will be retried", publicID)
	}

	if err := s.repo.SetRefundRef(publicID, refundID); err != nil {
		log.Printf("escrow: refund %s dispatched for escrow %s but reference persist failed: %v", refundID, publicID, err)
		s.queueSettlement(publicID)
	}

	return &RefundResult{RefundID: refundID, AmountRefundedCents: refunded.AmountCents}, nil
}

// Settle re-dispatches the outstanding gateway call for a claimed record.
// The original idempotency key is reused, so the gateway deduplicates any
// dispatch that actually went through before the failure.
func (s *Service) Settle(ctx context.Context, publicID string) error {
	rec, err := s.repo.GetByPublicID(publicID)
	if err != nil {
		return err
	}

	switch {
	case rec.Status == models.EscrowStatusReleased && rec.GatewayTransferID == "":
		if rec.CreatorID == nil {
			return fmt.Errorf("released escrow %s has no creator attribution", publicID)
		}
		snapshot, err := s.eligibility.CheckEligibility(ctx, *rec.CreatorID)
		if err != nil {
			return err
		}
		if !snapshot.HasPayoutAccount {
			return fmt.Errorf("released escrow %s cannot settle: creator %d has no payout account", publicID, *rec.CreatorID)
		}
		transferID, err := s.gw.Transfer(ctx, gateway.TransferInput{
			DestinationAccount: snapshot.AccountRef,
			AmountCents:        rec.CreatorEarningsCent,
			Currency:           rec.Currency,
			GroupRef:           bountyGroupRef(rec),
			IdempotencyKey:     transferIdempotencyKey(publicID),
		})
		if err != nil {
			return err
		}
		return s.repo.SetTransferRef(publicID, transferID)

	case rec.Status == models.EscrowStatusRefunded && rec.GatewayRefundID == "":
		refundID, err := s.gw.Refund(ctx, gateway.RefundInput{
			PaymentRef:     rec.GatewayPaymentRef,
			AmountCents:    rec.AmountCents,
			Reason:         rec.FailureReason,
			IdempotencyKey: refundIdempotencyKey(publicID),
		})
		if err != nil {
			return err
		}
		return s.repo.SetRefundRef(publicID, refundID)
	}

	// Nothing outstanding.
	return nil
}

// OutstandingSettlements lists public IDs of claimed records whose gateway
// dispatch never landed. The reconciliation sweeper feeds these back into the
// settlement queue.
func (s *Service) OutstandingSettlements(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}
	return s.repo.OutstandingSettlements(olderThan, limit)
}

// RebuildPayoutLedger recomputes a bounty's payout counters from its released
// escrow records.
func (s *Service) RebuildPayoutLedger(ctx context.Context, bountyID uint) error {
	_ = ctx
	return s.repo.RebuildPayoutLedger(bountyID)
}

// GetRecordForOwner returns the record if the requester is its business side.
func (s *Service) GetRecordForOwner(ctx context.Context, publicID string, requesterID uint) (*models.EscrowPayment, error) {
	_ = ctx
	rec, err := s.repo.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if rec.BusinessID != requesterID {
		return nil, apperr.Forbidden("escrow record %s does not belong to the requesting business", publicID)
	}
	return rec, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.GatewayWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		eventID = "hash:" + PayloadHash([]byte(in.PayloadJSON))
	}

	event := &models.GatewayWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) linkPrimaryRecord(bounty *models.Bounty, primary *models.EscrowPayment) error {
	bounty.EscrowPaymentID = &primary.ID
	return s.repo.LinkBountyFunding(bounty.ID, primary.ID)
}

func (s *Service) queueSettlement(publicID string) {
	if s.outbox == nil {
		log.Printf("escrow: no outbox configured; escrow %s needs manual settlement", publicID)
		return
	}
	if err := s.outbox.EnqueueSettlement(publicID); err != nil {
		log.Printf("escrow: failed queueing settlement for escrow %s: %v", publicID, err)
	}
}

func transferIdempotencyKey(publicID string) string {
	return "transfer-" + publicID
}

func refundIdempotencyKey(publicID string) string {
	return "refund-" + publicID
}

func bountyGroupRef(rec *models.EscrowPayment) string {
	if rec.BountyID != nil {
		return fmt.Sprintf("bounty-%d", *rec.BountyID)
	}
	return "escrow-" + rec.PublicID
}
