package escrow

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bountyhive/BountyHive/app/models"
	"github.com/bountyhive/BountyHive/internal/pkg/apperr"
)

// Repository provides the DB operations used by the escrow lifecycle engine.
// All multi-field transitions run in a single transaction with the status
// guard expressed as a conditional update, so concurrent transitions on the
// same record resolve to exactly one winner.
type Repository interface {
	CreateRecords(records []*models.EscrowPayment) error
	GetByPublicID(publicID string) (*models.EscrowPayment, error)
	GetBySessionID(sessionID string) ([]models.EscrowPayment, error)
	GetBounty(bountyID uint) (*models.Bounty, error)

	LinkBountyFunding(bountyID, escrowRecordID uint) error
	MaterializeBounty(primary *models.EscrowPayment, bounty *models.Bounty) error
	ConfirmSessionRecords(sessionID string, bountyID uint) (int64, error)
	MarkReady(publicID string) error
	ReleaseRecord(publicID string, creatorID uint, earningsCents int64) (*models.EscrowPayment, error)
	RefundRecord(publicID, reason string) (*models.EscrowPayment, error)
	FailSessionRecords(sessionID, reason string) (int64, error)

	SetTransferRef(publicID, transferID string) error
	SetRefundRef(publicID, refundID string) error
	RebuildPayoutLedger(bountyID uint) error
	OutstandingSettlements(olderThan time.Time, limit int) ([]string, error)

	CreateWebhookEventIfNotExists(event *models.GatewayWebhookEvent) (bool, *models.GatewayWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an escrow repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateRecords(records []*models.EscrowPayment) error {
	return r.db.Create(records).Error
}

func (r *gormRepository) GetByPublicID(publicID string) (*models.EscrowPayment, error) {
	var rec models.EscrowPayment
	err := r.db.Where("public_id = ?", publicID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("escrow record %s not found", publicID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) GetBySessionID(sessionID string) ([]models.EscrowPayment, error) {
	var recs []models.EscrowPayment
	err := r.db.Where("gateway_session_id = ?", sessionID).Order("id ASC").Find(&recs).Error
	return recs, err
}

func (r *gormRepository) GetBounty(bountyID uint) (*models.Bounty, error) {
	var bounty models.Bounty
	err := r.db.First(&bounty, bountyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("bounty %d not found", bountyID)
	}
	if err != nil {
		return nil, err
	}
	return &bounty, nil
}

func (r *gormRepository) LinkBountyFunding(bountyID, escrowRecordID uint) error {
	return r.db.Model(&models.Bounty{}).
		Where("id = ?", bountyID).
		Update("escrow_payment_id", escrowRecordID).Error
}

// MaterializeBounty creates the bounty for a pay-before-create session and
// confirms all its escrow records in one transaction. The bounty_id IS NULL
// guard makes a duplicate confirmation of the same session a no-op instead of
// a second bounty.
func (r *gormRepository) MaterializeBounty(primary *models.EscrowPayment, bounty *models.Bounty) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.EscrowPayment{}).
			Where("public_id = ? AND bounty_id IS NULL AND status = ?", primary.PublicID, models.EscrowStatusPending).
			Updates(map[string]interface{}{
				"status":              models.EscrowStatusHeldInEscrow,
				"pending_bounty_json": "",
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			// Another confirmation already materialized the bounty.
			return nil
		}

		if err := tx.Create(bounty).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.EscrowPayment{}).
			Where("gateway_session_id = ?", primary.GatewaySessionID).
			Update("bounty_id", bounty.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.EscrowPayment{}).
			Where("gateway_session_id = ? AND status = ?", primary.GatewaySessionID, models.EscrowStatusPending).
			Update("status", models.EscrowStatusHeldInEscrow).Error
	})
}

// ConfirmSessionRecords flips the pending records of a confirmed session to
// held_in_escrow and promotes the linked bounty to active. Re-running it for
// an already-confirmed session affects zero rows.
func (r *gormRepository) ConfirmSessionRecords(sessionID string, bountyID uint) (int64, error) {
	var flipped int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.EscrowPayment{}).
			Where("gateway_session_id = ? AND status = ?", sessionID, models.EscrowStatusPending).
			Update("status", models.EscrowStatusHeldInEscrow)
		if res.Error != nil {
			return res.Error
		}
		flipped = res.RowsAffected
		if flipped == 0 {
			return nil
		}

		return tx.Model(&models.Bounty{}).
			Where("id = ? AND status = ?", bountyID, models.BountyStatusPending).
			Updates(map[string]interface{}{
				"status":         models.BountyStatusActive,
				"payment_status": models.BountyPaymentHeld,
			}).Error
	})
	return flipped, err
}

func (r *gormRepository) MarkReady(publicID string) error {
	return r.transition(publicID, models.EscrowStatusHeldInEscrow, models.EscrowStatusReadyForRelease, map[string]interface{}{
		"status": models.EscrowStatusReadyForRelease,
	})
}

// ReleaseRecord claims the release: the escrow status flip, the creator
// attribution, and the payout ledger increments commit as one transaction.
func (r *gormRepository) ReleaseRecord(publicID string, creatorID uint, earningsCents int64) (*models.EscrowPayment, error) {
	var released models.EscrowPayment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rec models.EscrowPayment
		if err := tx.Where("public_id = ?", publicID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("escrow record %s not found", publicID)
			}
			return err
		}
		if rec.BountyID == nil {
			return apperr.Conflict("escrow record %s has no materialized bounty", publicID)
		}

		now := time.Now()
		claim := tx.Model(&models.EscrowPayment{}).
			Where("public_id = ? AND status = ?", publicID, models.EscrowStatusReadyForRelease).
			Updates(map[string]interface{}{
				"status":                 models.EscrowStatusReleased,
				"creator_id":             creatorID,
				"creator_earnings_cents": earningsCents,
				"released_at":            &now,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return transitionConflict(tx, publicID, models.EscrowStatusReleased)
		}

		ledger := tx.Model(&models.Bounty{}).
			Where("id = ? AND paid_creators_count < max_creators", *rec.BountyID).
			Updates(map[string]interface{}{
				"paid_creators_count":    gorm.Expr("paid_creators_count + 1"),
				"total_paid_cents":       gorm.Expr("total_paid_cents + ?", earningsCents),
				"remaining_budget_cents": gorm.Expr("remaining_budget_cents - ?", earningsCents),
			})
		if ledger.Error != nil {
			return ledger.Error
		}
		if ledger.RowsAffected == 0 {
			return apperr.Conflict("bounty %d has no open creator slot left", *rec.BountyID)
		}

		// Close out the bounty once every slot is paid.
		if err := tx.Model(&models.Bounty{}).
			Where("id = ? AND paid_creators_count = max_creators", *rec.BountyID).
			Updates(map[string]interface{}{
				"status":         models.BountyStatusCompleted,
				"payment_status": models.BountyPaymentDone,
			}).Error; err != nil {
			return err
		}

		return tx.Where("public_id = ?", publicID).First(&released).Error
	})
	if err != nil {
		return nil, err
	}
	return &released, nil
}

func (r *gormRepository) RefundRecord(publicID, reason string) (*models.EscrowPayment, error) {
	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.EscrowPayment{}).
			Where("public_id = ? AND status IN ?", publicID, []string{models.EscrowStatusPending, models.EscrowStatusHeldInEscrow}).
			Updates(map[string]interface{}{
				"status":         models.EscrowStatusRefunded,
				"failure_reason": reason,
				"refunded_at":    &now,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return transitionConflict(tx, publicID, models.EscrowStatusRefunded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByPublicID(publicID)
}

func (r *gormRepository) FailSessionRecords(sessionID, reason string) (int64, error) {
	res := r.db.Model(&models.EscrowPayment{}).
		Where("gateway_session_id = ? AND status IN ?", sessionID, []string{
			models.EscrowStatusPending,
			models.EscrowStatusHeldInEscrow,
			models.EscrowStatusReadyForRelease,
		}).
		Updates(map[string]interface{}{
			"status":         models.EscrowStatusFailed,
			"failure_reason": reason,
		})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) SetTransferRef(publicID, transferID string) error {
	return r.db.Model(&models.EscrowPayment{}).
		Where("public_id = ?", publicID).
		Update("gateway_transfer_id", transferID).Error
}

func (r *gormRepository) SetRefundRef(publicID, refundID string) error {
	return r.db.Model(&models.EscrowPayment{}).
		Where("public_id = ?", publicID).
		Update("gateway_refund_id", refundID).Error
}

// RebuildPayoutLedger recomputes the bounty's payout counters from its
// released escrow records. Safe to run repeatedly; used by the reconciliation
// job when a ledger write is suspected to have been lost.
func (r *gormRepository) RebuildPayoutLedger(bountyID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bounty, bountyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("bounty %d not found", bountyID)
			}
			return err
		}

		type aggregate struct {
			Count int
			Total int64
		}
		var agg aggregate
		if err := tx.Model(&models.EscrowPayment{}).
			Select("COUNT(*) AS count, COALESCE(SUM(creator_earnings_cents), 0) AS total").
			Where("bounty_id = ? AND status = ?", bountyID, models.EscrowStatusReleased).
			Scan(&agg).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"paid_creators_count":    agg.Count,
			"total_paid_cents":       agg.Total,
			"remaining_budget_cents": bounty.PerCreatorAmountCents*int64(bounty.MaxCreators) - agg.Total,
		}
		if agg.Count >= bounty.MaxCreators {
			updates["status"] = models.BountyStatusCompleted
			updates["payment_status"] = models.BountyPaymentDone
		}
		return tx.Model(&models.Bounty{}).Where("id = ?", bountyID).Updates(updates).Error
	})
}

// OutstandingSettlements lists claimed records whose gateway dispatch never
// landed: released without a transfer ref or refunded without a refund ref.
// The age cutoff keeps records mid-dispatch out of the sweep.
func (r *gormRepository) OutstandingSettlements(olderThan time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.EscrowPayment{}).
		Where("(status = ? AND (gateway_transfer_id IS NULL OR gateway_transfer_id = '')) OR (status = ? AND (gateway_refund_id IS NULL OR gateway_refund_id = ''))",
			models.EscrowStatusReleased, models.EscrowStatusRefunded).
		Where("updated_at < ?", olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("public_id", &ids).Error
	return ids, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.GatewayWebhookEvent) (bool, *models.GatewayWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.GatewayWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.GatewayWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) transition(publicID, from, to string, updates map[string]interface{}) error {
	res := r.db.Model(&models.EscrowPayment{}).
		Where("public_id = ? AND status = ?", publicID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return transitionConflict(r.db, publicID, to)
	}
	return nil
}

// transitionConflict re-reads the record so the conflict names the actual
// current state alongside the attempted one.
func transitionConflict(db *gorm.DB, publicID, attempted string) error {
	var rec models.EscrowPayment
	if err := db.Where("public_id = ?", publicID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("escrow record %s not found", publicID)
		}
		return fmt.Errorf("escrow %s transition to %s failed and re-read errored: %w", publicID, attempted, err)
	}
	return apperr.Conflict("escrow record %s is %s and cannot transition to %s", publicID, rec.Status, attempted)
}
