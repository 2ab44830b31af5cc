package jobqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBasicJobTypes tests the basic job type constants
func TestBasicJobTypes(t *testing.T) {
	assert.Equal(t, "report_approval", string(JobTypeReportApproval))
	assert.Equal(t, "webhook_archive", string(JobTypeWebhookArchive))
}

// TestBasicJobStatus tests the basic job status constants
func TestBasicJobStatus(t *testing.T) {
	assert.Equal(t, "pending", string(JobStatusPending))
	assert.Equal(t, "processing", string(JobStatusProcessing))
	assert.Equal(t, "completed", string(JobStatusCompleted))
	assert.Equal(t, "failed", string(JobStatusFailed))
	assert.Equal(t, "retrying", string(JobStatusRetrying))
}

// TestJob_BasicMethods tests basic job methods
func TestJob_BasicMethods(t *testing.T) {
	job := &Job{
		Status:     JobStatusFailed,
		RetryCount: 1,
		MaxRetries: 3,
	}

	assert.True(t, job.IsRetryable())

	job.RetryCount = 3
	assert.False(t, job.IsRetryable())

	beforeTime := time.Now()

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)
	assert.False(t, job.UpdatedAt.Before(beforeTime))

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)

	job.MarkAsFailed("test error")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "test error", job.ErrorMsg)
	assert.Equal(t, 4, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)
}

func TestJob_MarkAsPermanentlyFailed(t *testing.T) {
	job := &Job{MaxRetries: DefaultMaxRetries}
	job.MarkAsPermanentlyFailed("team T1 not found")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.False(t, job.IsRetryable())
}

func TestReportApprovalJobPayload_FromMap(t *testing.T) {
	payload := ReportApprovalJobPayload{
		ReportID:       "rp1",
		ApproverUserID: "U1",
		TeamID:         "T1",
		Channel:        "D1",
		MessageTS:      "1700000000.000100",
		BlocksJSON:     `[{"type":"divider"}]`,
	}

	// Payloads go through JSON in Redis, so test the stored shape.
	raw, err := json.Marshal(payload.ToMap())
	require.NoError(t, err)
	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stored))

	result, err := ReportApprovalJobPayloadFromMap(stored)
	require.NoError(t, err)
	assert.Equal(t, &payload, result)
}

func TestWebhookArchiveJobPayload_FromMap(t *testing.T) {
	at := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	payload := WebhookArchiveJobPayload{TeamID: "T1", OrgID: "or1", DeliveryID: "d1", ReceivedAt: at, Body: `{"a":1}`}

	result, err := WebhookArchiveJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.True(t, at.Equal(result.ReceivedAt))
	assert.Equal(t, payload.Body, result.Body)
}

// TestBasicNewQueue tests queue creation
func TestBasicNewQueue(t *testing.T) {
	t.Run("Valid worker count", func(t *testing.T) {
		queue := NewQueueWithClient(nil, 5)
		assert.NotNil(t, queue)
		assert.Equal(t, 5, queue.opts.Workers)
		assert.Equal(t, time.Minute, queue.opts.RetryDelay)
		assert.Nil(t, queue.cancel, "queue must not run before Start")
	})

	t.Run("Zero workers defaults to 3", func(t *testing.T) {
		queue := NewQueueWithClient(nil, 0)
		assert.Equal(t, 3, queue.opts.Workers)
	})

	t.Run("Negative workers defaults to 3", func(t *testing.T) {
		queue := NewQueueWithClient(nil, -1)
		assert.Equal(t, 3, queue.opts.Workers)
	})

	t.Run("Explicit options are kept", func(t *testing.T) {
		queue := NewQueueWithOptions(nil, Options{Workers: 2, RetryDelay: time.Second, StuckAfter: time.Hour})
		assert.Equal(t, 2, queue.opts.Workers)
		assert.Equal(t, time.Second, queue.opts.RetryDelay)
		assert.Equal(t, time.Hour, queue.opts.StuckAfter)
		assert.Equal(t, time.Minute, queue.opts.SweepInterval)
	})
}

// TestBasicConstants tests package constants
func TestBasicConstants(t *testing.T) {
	assert.Equal(t, "fyleslack:jobs:job:", JobKeyPrefix)
	assert.Equal(t, "fyleslack:jobs:pending", JobQueueKey)
	assert.Equal(t, "fyleslack:jobs:processing", JobProcessingKey)
	assert.Equal(t, "fyleslack:jobs:delayed", JobDelayedKey)
	assert.Equal(t, "fyleslack:jobs:stats", JobStatsKey)
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}

func TestJobStartedAtFallsBack(t *testing.T) {
	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	job := &Job{CreatedAt: created}
	assert.Equal(t, created, job.startedAt())

	job.UpdatedAt = created.Add(time.Minute)
	assert.Equal(t, created.Add(time.Minute), job.startedAt())

	job.MarkAsProcessing()
	assert.Equal(t, *job.ProcessedAt, job.startedAt())
}

// TestPayloadFromMapErrors tests error handling in payload deserialization
func TestPayloadFromMapErrors(t *testing.T) {
	invalidData := map[string]interface{}{
		"invalid": make(chan int), // Channels can't be marshaled to JSON
	}

	_, err := ReportApprovalJobPayloadFromMap(invalidData)
	assert.Error(t, err)
	_, err = WebhookArchiveJobPayloadFromMap(invalidData)
	assert.Error(t, err)
}
