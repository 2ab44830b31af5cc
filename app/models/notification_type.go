package models

// NotificationType is the canonical "<RESOURCE>_<ACTION>" key of a Fyle event.
type NotificationType string

const (
	NotificationReportSubmitted         NotificationType = "REPORT_SUBMITTED"
	NotificationReportPartiallyApproved NotificationType = "REPORT_PARTIALLY_APPROVED"
	NotificationReportPaymentProcessing NotificationType = "REPORT_PAYMENT_PROCESSING"
	NotificationReportApproverSendback  NotificationType = "REPORT_APPROVER_SENDBACK"
	NotificationReportPaid              NotificationType = "REPORT_PAID"
	NotificationReportCommented         NotificationType = "REPORT_COMMENTED"
	NotificationExpenseCommented        NotificationType = "EXPENSE_COMMENTED"
)

// Role is the recipient role a notification is addressed to.
type Role string

const (
	RoleFyler    Role = "FYLER"
	RoleApprover Role = "APPROVER"
)

// NotificationTypeInfo describes a notification type for the preference panel.
type NotificationTypeInfo struct {
	Type        NotificationType
	Role        Role
	Title       string
	Description string
}

// notificationTypes is ordered as shown in the preference panel.
var notificationTypes = []NotificationTypeInfo{
	{NotificationReportSubmitted, RoleFyler, "Report submitted", "When your expense report is submitted for approval"},
	{NotificationReportPartiallyApproved, RoleFyler, "Report partially approved", "When one of your approvers approves your report"},
	{NotificationReportPaymentProcessing, RoleFyler, "Report approved", "When your report is approved and processing for payment"},
	{NotificationReportApproverSendback, RoleFyler, "Report sent back", "When an approver sends your report back for changes"},
	{NotificationReportPaid, RoleFyler, "Report paid", "When reimbursement for your report is paid"},
	{NotificationReportCommented, RoleFyler, "Report comments", "When someone comments on your report"},
	{NotificationExpenseCommented, RoleFyler, "Expense comments", "When someone comments on one of your expenses"},
	{NotificationReportSubmitted, RoleApprover, "Approval requests", "When a report is waiting for your approval"},
	{NotificationReportCommented, RoleApprover, "Comments on reports you approve", "When someone comments on a report you approve"},
}

// AllNotificationTypes returns every (type, role) pair a user gets a preference for.
func AllNotificationTypes() []NotificationTypeInfo {
	out := make([]NotificationTypeInfo, len(notificationTypes))
	copy(out, notificationTypes)
	return out
}

// PreferenceKey identifies a preference row. Fyler preferences use the bare
// type, approver preferences are prefixed so both can coexist per user.
func PreferenceKey(t NotificationType, role Role) string {
	if role == RoleApprover {
		return string(RoleApprover) + ":" + string(t)
	}
	return string(t)
}

// LookupNotificationType returns the descriptor for a preference key.
func LookupNotificationType(key string) (NotificationTypeInfo, bool) {
	for _, info := range notificationTypes {
		if PreferenceKey(info.Type, info.Role) == key {
			return info, true
		}
	}
	return NotificationTypeInfo{}, false
}
