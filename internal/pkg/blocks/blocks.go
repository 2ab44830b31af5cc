package blocks

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Action ids the interactive endpoint dispatches on.
const (
	ActionApproveReport          = "approve_report"
	ActionApprovalInFlight       = "approve_report_in_flight"
	ActionViewInFyle             = "view_in_fyle"
	ActionLinkFyleAccount        = "link_fyle_account"
	ActionOpenPreferences        = "open_notification_preferences"
	ActionPreferenceToggle       = "notification_preference_toggle"
	ActionOpenExpenseModal       = "open_expense_modal"
	CallbackExpenseModal         = "expense_create_modal"
	CallbackNotificationSettings = "notification_preferences_modal"

	approvalActionsBlockID = "report_approval_actions"
)

// Message is a rendered Slack message: fallback text plus blocks.
type Message struct {
	Text   string
	Blocks []slack.Block
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("mrkdwn", text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(mrkdwn(text), nil, nil)
}

func contextLine(text string) *slack.ContextBlock {
	return slack.NewContextBlock("", mrkdwn(text))
}

func linkButton(actionID, label, url string) *slack.ButtonBlockElement {
	btn := slack.NewButtonBlockElement(actionID, "", plain(label))
	btn.URL = url
	return btn
}

// ApproveButton is the call-to-action on approval request messages.
func ApproveButton(reportID string) *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(ActionApproveReport, reportID, plain("Approve")).WithStyle(slack.StylePrimary)
}

// FormatAmount renders "USD 12.50".
func FormatAmount(currency string, amount float64) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func reportTitle(r *fyle.Report) string {
	purpose := strings.TrimSpace(r.Purpose)
	if purpose == "" {
		purpose = "Untitled report"
	}
	if r.SeqNum != "" {
		return fmt.Sprintf("%s (%s)", purpose, r.SeqNum)
	}
	return purpose
}

func reportSummary(r *fyle.Report, withOwner bool) *slack.SectionBlock {
	fields := []*slack.TextBlockObject{
		mrkdwn("*Amount*\n" + FormatAmount(r.Currency, r.Amount)),
		mrkdwn(fmt.Sprintf("*Expenses*\n%d", r.NumExpenses)),
	}
	if withOwner && r.User.FullName != "" {
		fields = append(fields, mrkdwn("*Submitted by*\n"+r.User.FullName))
	}
	return slack.NewSectionBlock(mrkdwn("*"+reportTitle(r)+"*"), fields, nil)
}
