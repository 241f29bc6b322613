package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeEscrowSettlement re-dispatches a claimed transfer or refund whose
	// gateway call failed, reusing the original idempotency key.
	JobTypeEscrowSettlement JobType = "escrow_settlement"
	// JobTypeLedgerRebuild recomputes a bounty's payout ledger from its
	// released escrow records.
	JobTypeLedgerRebuild JobType = "ledger_rebuild"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// EscrowSettlementJobPayload contains the payload for settlement jobs
type EscrowSettlementJobPayload struct {
	EscrowID string `json:"escrow_id"`
}

// ToMap converts the payload to a map for storage
func (p EscrowSettlementJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"escrow_id": p.EscrowID,
	}
}

// EscrowSettlementJobPayloadFromMap creates a payload from a map
func EscrowSettlementJobPayloadFromMap(data map[string]interface{}) (*EscrowSettlementJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload EscrowSettlementJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// LedgerRebuildJobPayload contains the payload for ledger rebuild jobs
type LedgerRebuildJobPayload struct {
	BountyID uint `json:"bounty_id"`
}

// ToMap converts the payload to a map for storage
func (p LedgerRebuildJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"bounty_id": p.BountyID,
	}
}

// LedgerRebuildJobPayloadFromMap creates a payload from a map
func LedgerRebuildJobPayloadFromMap(data map[string]interface{}) (*LedgerRebuildJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload LedgerRebuildJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
