package jobqueue

import (
	"context"
	"fmt"
)

// processSettlementJob re-runs the outstanding gateway dispatch for a claimed
// escrow record. Settle is idempotent because the gateway deduplicates on the
// original idempotency key.
func (q *Queue) processSettlementJob(ctx context.Context, job *Job) error {
	if q.engine == nil {
		return fmt.Errorf("no escrow engine configured")
	}

	payload, err := EscrowSettlementJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid settlement payload: %w", err)
	}
	if payload.EscrowID == "" {
		return fmt.Errorf("settlement payload has no escrow id")
	}

	return q.engine.Settle(ctx, payload.EscrowID)
}

// processLedgerRebuildJob recomputes a bounty's payout ledger from released
// escrow records. Safe to run repeatedly.
func (q *Queue) processLedgerRebuildJob(ctx context.Context, job *Job) error {
	if q.engine == nil {
		return fmt.Errorf("no escrow engine configured")
	}

	payload, err := LedgerRebuildJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid ledger rebuild payload: %w", err)
	}
	if payload.BountyID == 0 {
		return fmt.Errorf("ledger rebuild payload has no bounty id")
	}

	return q.engine.RebuildPayoutLedger(ctx, payload.BountyID)
}
