package fyle

import "time"

// ReportState is the lifecycle state of a Fyle expense report.
type ReportState string

const (
	ReportStateDraft             ReportState = "DRAFT"
	ReportStateApproverPending   ReportState = "APPROVER_PENDING"
	ReportStateApproverInquiry   ReportState = "APPROVER_INQUIRY"
	ReportStateApproved          ReportState = "APPROVED"
	ReportStatePaymentPending    ReportState = "PAYMENT_PENDING"
	ReportStatePaymentProcessing ReportState = "PAYMENT_PROCESSING"
	ReportStatePaid              ReportState = "PAID"
)

// ApprovalState is the state of one approver's approval on a report.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "APPROVAL_PENDING"
	ApprovalDone     ApprovalState = "APPROVAL_DONE"
	ApprovalDisabled ApprovalState = "APPROVAL_DISABLED"
)

type UserRef struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type Approval struct {
	ApproverUserID string        `json:"approver_user_id"`
	ApproverUser   UserRef       `json:"approver_user"`
	State          ApprovalState `json:"state"`
}

type Report struct {
	ID              string      `json:"id"`
	OrgID           string      `json:"org_id"`
	UserID          string      `json:"user_id"`
	User            UserRef     `json:"user"`
	SeqNum          string      `json:"seq_num"`
	Purpose         string      `json:"purpose"`
	Amount          float64     `json:"amount"`
	Currency        string      `json:"currency"`
	NumExpenses     int         `json:"num_expenses"`
	State           ReportState `json:"state"`
	Approvals       []Approval  `json:"approvals"`
	LastSubmittedAt *time.Time  `json:"last_submitted_at,omitempty"`
}

// OwnerID returns the report owner's Fyle user id.
func (r *Report) OwnerID() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.User.ID
}

// PendingApproverIDs lists approvers whose approval is still pending.
func (r *Report) PendingApproverIDs() []string {
	var ids []string
	for _, a := range r.Approvals {
		if a.State == ApprovalPending && a.ApproverUserID != "" {
			ids = append(ids, a.ApproverUserID)
		}
	}
	return ids
}

type Expense struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"org_id"`
	UserID       string     `json:"user_id"`
	User         UserRef    `json:"user"`
	SeqNum       string     `json:"seq_num"`
	Purpose      string     `json:"purpose"`
	Merchant     string     `json:"merchant"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	ReportID     string     `json:"report_id"`
	SpentAt      *time.Time `json:"spent_at,omitempty"`
	CategoryName string     `json:"category_name"`
}

// OwnerID returns the expense owner's Fyle user id.
func (e *Expense) OwnerID() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.User.ID
}

// Comment is attached to comment webhook payloads.
type Comment struct {
	ID            string  `json:"id"`
	Comment       string  `json:"comment"`
	CreatorType   string  `json:"creator_type"`
	CreatorUserID string  `json:"creator_user_id"`
	CreatorUser   UserRef `json:"creator_user"`
}

// IsSystem reports whether the comment was produced by Fyle itself.
func (c *Comment) IsSystem() bool {
	switch c.CreatorType {
	case "SYSTEM", "POLICY", "AUTO_GENERATED":
		return true
	}
	return c.CreatorUserID == "" || c.CreatorUserID == "SYSTEM" || c.CreatorUserID == "POLICY"
}

type Profile struct {
	UserID string   `json:"user_id"`
	OrgID  string   `json:"org_id"`
	User   UserRef  `json:"user"`
	Roles  []string `json:"roles"`
}

// NewExpense is the body of a spender expense creation.
type NewExpense struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Purpose  string  `json:"purpose"`
	Merchant string  `json:"merchant,omitempty"`
	SpentAt  string  `json:"spent_at"`
	Source   string  `json:"source"`
}
