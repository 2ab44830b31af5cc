package jobqueue

import (
	"encoding/json"
	"errors"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeReportApproval JobType = "report_approval"
	JobTypeWebhookArchive JobType = "webhook_archive"
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

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")

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

// ReportApprovalJobPayload is one Approve click waiting to be executed
type ReportApprovalJobPayload struct {
	ReportID       string `json:"report_id"`
	ApproverUserID string `json:"approver_user_id"`
	TeamID         string `json:"team_id"`
	Channel        string `json:"channel"`
	MessageTS      string `json:"message_ts"`
	BlocksJSON     string `json:"blocks_json"` // original message blocks
}

// ToMap converts the payload to a map for storage
func (p ReportApprovalJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"report_id":        p.ReportID,
		"approver_user_id": p.ApproverUserID,
		"team_id":          p.TeamID,
		"channel":          p.Channel,
		"message_ts":       p.MessageTS,
		"blocks_json":      p.BlocksJSON,
	}
}

// ReportApprovalJobPayloadFromMap creates a payload from a map
func ReportApprovalJobPayloadFromMap(data map[string]interface{}) (*ReportApprovalJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ReportApprovalJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// WebhookArchiveJobPayload carries a raw webhook body to the archive
type WebhookArchiveJobPayload struct {
	TeamID     string    `json:"team_id"`
	OrgID      string    `json:"org_id"`
	DeliveryID string    `json:"delivery_id"`
	ReceivedAt time.Time `json:"received_at"`
	Body       string    `json:"body"`
}

func (p WebhookArchiveJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"team_id":     p.TeamID,
		"org_id":      p.OrgID,
		"delivery_id": p.DeliveryID,
		"received_at": p.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"body":        p.Body,
	}
}

func WebhookArchiveJobPayloadFromMap(data map[string]interface{}) (*WebhookArchiveJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload WebhookArchiveJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// startedAt is when processing began, falling back to the last update
func (j *Job) startedAt() time.Time {
	if j.ProcessedAt != nil && !j.ProcessedAt.IsZero() {
		return *j.ProcessedAt
	}
	if !j.UpdatedAt.IsZero() {
		return j.UpdatedAt
	}
	return j.CreatedAt
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

// MarkAsPermanentlyFailed fails the job without leaving retries
func (j *Job) MarkAsPermanentlyFailed(errorMsg string) {
	j.MarkAsFailed(errorMsg)
	j.RetryCount = j.MaxRetries
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
