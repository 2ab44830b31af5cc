package blocks

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

func reportMessage(headline string, r *fyle.Report, asApprover bool, extra ...slack.Block) Message {
	blocks := []slack.Block{
		section(headline),
		reportSummary(r, asApprover),
	}
	blocks = append(blocks, extra...)
	blocks = append(blocks, slack.NewActionBlock("",
		linkButton(ActionViewInFyle, "View in Fyle", fyle.ReportURL(r.ID, asApprover)),
	))
	return Message{Text: headline, Blocks: blocks}
}

// ReportSubmitted confirms a submission to the report owner.
func ReportSubmitted(r *fyle.Report) Message {
	return reportMessage(fmt.Sprintf(":clipboard: Your expense report *%s* has been submitted for approval.", reportTitle(r)), r, false)
}

// ApprovalRequest asks an approver to act on a report. The actions block
// carries the Approve button the approval flow rewrites in place.
func ApprovalRequest(r *fyle.Report) Message {
	headline := fmt.Sprintf(":inbox_tray: *%s* submitted an expense report for your approval.", ownerName(r))
	return Message{
		Text: headline,
		Blocks: []slack.Block{
			section(headline),
			reportSummary(r, true),
			slack.NewActionBlock(approvalActionsBlockID,
				ApproveButton(r.ID),
				linkButton(ActionViewInFyle, "View in Fyle", fyle.ReportURL(r.ID, true)),
			),
		},
	}
}

func ReportPartiallyApproved(r *fyle.Report) Message {
	return reportMessage(fmt.Sprintf(":white_check_mark: Your expense report *%s* was approved by one of your approvers.", reportTitle(r)), r, false)
}

// ReportApproved renders the approved state. For the approver it is the final
// body of the approval request message.
func ReportApproved(r *fyle.Report, asApprover bool) Message {
	if asApprover {
		headline := fmt.Sprintf(":white_check_mark: You approved the expense report *%s* from %s.", reportTitle(r), ownerName(r))
		return Message{
			Text: headline,
			Blocks: []slack.Block{
				section(headline),
				reportSummary(r, true),
				contextLine(fmt.Sprintf("<%s|View in Fyle>", fyle.ReportURL(r.ID, true))),
			},
		}
	}
	return reportMessage(fmt.Sprintf(":tada: Your expense report *%s* has been approved and is being processed for payment.", reportTitle(r)), r, false)
}

func ReportSentBack(r *fyle.Report, reason string) Message {
	var extra []slack.Block
	if reason != "" {
		extra = append(extra, section("*Reason*\n>"+reason))
	}
	return reportMessage(fmt.Sprintf(":leftwards_arrow_with_hook: Your expense report *%s* was sent back to you.", reportTitle(r)), r, false, extra...)
}

func ReportPaid(r *fyle.Report) Message {
	return reportMessage(fmt.Sprintf(":moneybag: Reimbursement for your expense report *%s* has been paid.", reportTitle(r)), r, false)
}

func ReportCommented(r *fyle.Report, c *fyle.Comment, asApprover bool) Message {
	headline := fmt.Sprintf(":speech_balloon: %s commented on the expense report *%s*.", commenterName(c), reportTitle(r))
	return reportMessage(headline, r, asApprover, section(">"+c.Comment))
}

func ExpenseCommented(e *fyle.Expense, c *fyle.Comment) Message {
	title := e.Purpose
	if title == "" {
		title = e.Merchant
	}
	if title == "" {
		title = "your expense"
	}
	headline := fmt.Sprintf(":speech_balloon: %s commented on *%s* (%s).", commenterName(c), title, FormatAmount(e.Currency, e.Amount))
	url := fmt.Sprintf("%s/app/main/#/my_expenses/%s", fyle.AppURL(), e.ID)
	return Message{
		Text: headline,
		Blocks: []slack.Block{
			section(headline),
			section(">" + c.Comment),
			slack.NewActionBlock("", linkButton(ActionViewInFyle, "View in Fyle", url)),
		},
	}
}

func ownerName(r *fyle.Report) string {
	if r.User.FullName != "" {
		return r.User.FullName
	}
	if r.User.Email != "" {
		return r.User.Email
	}
	return "An employee"
}

func commenterName(c *fyle.Comment) string {
	if c.CreatorUser.FullName != "" {
		return c.CreatorUser.FullName
	}
	return "Someone"
}
