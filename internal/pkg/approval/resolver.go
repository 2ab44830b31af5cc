package approval

import (
	"context"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Decision says whether an approver may approve a report right now.
type Decision struct {
	CanApprove bool
	Reason     string
}

var approvalFinished = map[fyle.ReportState]bool{
	fyle.ReportStateApproved:          true,
	fyle.ReportStatePaymentPending:    true,
	fyle.ReportStatePaymentProcessing: true,
	fyle.ReportStatePaid:              true,
}

// CanApprove evaluates the report against the approver. Checks run in a fixed
// order and the first match wins. It only reads state, approvals and the id.
func CanApprove(report *fyle.Report, approverUserID string) Decision {
	if report.State == fyle.ReportStateApproverInquiry {
		return Decision{Reason: MsgSentBack}
	}
	if approvalFinished[report.State] {
		return Decision{Reason: MsgAlreadyApproved}
	}
	if hasApproval(report, approverUserID, fyle.ApprovalDone) {
		return Decision{Reason: MsgYouAlreadyApproved}
	}
	if hasApproval(report, approverUserID, fyle.ApprovalDisabled) {
		return Decision{Reason: MsgNoPermission}
	}
	return Decision{CanApprove: true}
}

func hasApproval(report *fyle.Report, approverUserID string, state fyle.ApprovalState) bool {
	for _, a := range report.Approvals {
		if a.ApproverUserID == approverUserID && a.State == state {
			return true
		}
	}
	return false
}

// Resolve fetches the report and decides. A report that is gone or no longer
// visible yields the no-access decision with a nil report. Other fetch
// failures are returned as errors.
func Resolve(ctx context.Context, reports fyle.ReportAPI, reportID, approverUserID string) (*fyle.Report, Decision, error) {
	report, err := reports.GetReport(ctx, reportID)
	if fyle.IsUnavailable(err) {
		return nil, Decision{Reason: MsgNoAccess}, nil
	}
	if err != nil {
		return nil, Decision{}, err
	}
	return report, CanApprove(report, approverUserID), nil
}
