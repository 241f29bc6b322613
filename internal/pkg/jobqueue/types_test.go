package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType(t *testing.T) {
	tests := []struct {
		name     string
		jobType  JobType
		expected string
	}{
		{"Escrow Settlement", JobTypeEscrowSettlement, "escrow_settlement"},
		{"Ledger Rebuild", JobTypeLedgerRebuild, "ledger_rebuild"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.jobType))
		})
	}
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"Pending", JobStatusPending, "pending"},
		{"Processing", JobStatusProcessing, "processing"},
		{"Completed", JobStatusCompleted, "completed"},
		{"Failed", JobStatusFailed, "failed"},
		{"Retrying", JobStatusRetrying, "retrying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{
			name: "Failed job with retries remaining",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 2,
				MaxRetries: 5,
			},
			retryable: true,
		},
		{
			name: "Failed job with retries exhausted",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 5,
				MaxRetries: 5,
			},
			retryable: false,
		},
		{
			name: "Completed job",
			job: &Job{
				Status:     JobStatusCompleted,
				RetryCount: 0,
				MaxRetries: 5,
			},
			retryable: false,
		},
		{
			name: "Processing job",
			job: &Job{
				Status:     JobStatusProcessing,
				RetryCount: 0,
				MaxRetries: 5,
			},
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_StatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "job-1",
		Type:       JobTypeEscrowSettlement,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("gateway timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "gateway timeout", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}

func TestEscrowSettlementJobPayload(t *testing.T) {
	payload := EscrowSettlementJobPayload{EscrowID: "c5b0f1a2-1111-2222-3333-444455556666"}

	m := payload.ToMap()
	assert.Equal(t, payload.EscrowID, m["escrow_id"])

	restored, err := EscrowSettlementJobPayloadFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, payload.EscrowID, restored.EscrowID)
}

func TestLedgerRebuildJobPayload(t *testing.T) {
	payload := LedgerRebuildJobPayload{BountyID: 42}

	m := payload.ToMap()

	restored, err := LedgerRebuildJobPayloadFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, payload.BountyID, restored.BountyID)
}
