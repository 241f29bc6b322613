package jobqueue

// QueueOutbox adapts the job queue to the escrow engine's outbox port. The
// engine enqueues through this adapter and the queue calls back into the
// engine through its processors, so the dependency stays one-directional.
type QueueOutbox struct {
	queue *Queue
}

// NewQueueOutbox wraps a queue as an outbox.
func NewQueueOutbox(queue *Queue) *QueueOutbox {
	return &QueueOutbox{queue: queue}
}

// EnqueueSettlement schedules a re-dispatch of the outstanding gateway call
// for a claimed escrow record.
func (o *QueueOutbox) EnqueueSettlement(escrowPublicID string) error {
	payload := EscrowSettlementJobPayload{EscrowID: escrowPublicID}
	_, err := o.queue.EnqueueJob(JobTypeEscrowSettlement, payload.ToMap())
	return err
}

// EnqueueLedgerRebuild schedules a recompute of a bounty's payout ledger.
func (o *QueueOutbox) EnqueueLedgerRebuild(bountyID uint) error {
	payload := LedgerRebuildJobPayload{BountyID: bountyID}
	_, err := o.queue.EnqueueJob(JobTypeLedgerRebuild, payload.ToMap())
	return err
}
