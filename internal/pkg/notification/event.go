package notification

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Event is an inbound Fyle webhook payload.
type Event struct {
	Resource   string          `json:"resource" validate:"required"`
	Action     string          `json:"action" validate:"required"`
	Data       json.RawMessage `json:"data" validate:"required"`
	Reason     string          `json:"reason,omitempty"`
	DeliveryID string          `json:"delivery_id,omitempty"`
	OrgID      string          `json:"org_id,omitempty"`
}

func (e *Event) Validate() error {
	return validator.New().Struct(e)
}

// Key is the classified notification type of the event.
func (e *Event) Key() models.NotificationType {
	return Classify(e.Resource, e.Action)
}

// subject is the part of data that decides who gets notified.
type subject struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	User      fyle.UserRef    `json:"user"`
	Approvals []fyle.Approval `json:"approvals"`
	Comment   *fyle.Comment   `json:"comment"`
}

func (e *Event) subject() (*subject, error) {
	var s subject
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return nil, fmt.Errorf("decode webhook data: %w", err)
	}
	return &s, nil
}

func (s *subject) ownerID() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.User.ID
}

func (s *subject) pendingApproverIDs() []string {
	r := fyle.Report{Approvals: s.Approvals}
	return r.PendingApproverIDs()
}

// Report decodes data as a report.
func (e *Event) Report() (*fyle.Report, error) {
	var r fyle.Report
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// Expense decodes data as an expense.
func (e *Event) Expense() (*fyle.Expense, error) {
	var x fyle.Expense
	if err := json.Unmarshal(e.Data, &x); err != nil {
		return nil, fmt.Errorf("decode expense: %w", err)
	}
	return &x, nil
}

// Comment returns the comment attached to a *_COMMENTED event.
func (e *Event) Comment() (*fyle.Comment, error) {
	s, err := e.subject()
	if err != nil {
		return nil, err
	}
	if s.Comment == nil {
		return nil, fmt.Errorf("%s event without comment", e.Key())
	}
	return s.Comment, nil
}
