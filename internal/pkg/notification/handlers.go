package notification

import (
	"context"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Sender delivers a rendered message to a user's DM.
type Sender interface {
	SendDM(ctx context.Context, team *models.Team, user *models.User, msg blocks.Message) error
}

type renderFunc func(d Delivery) (blocks.Message, error)

type messageHandler struct {
	render renderFunc
	sender Sender
}

func (h *messageHandler) Handle(ctx context.Context, d Delivery) error {
	msg, err := h.render(d)
	if err != nil {
		return err
	}
	return h.sender.SendDM(ctx, d.Team, d.Recipient, msg)
}

func reportHandler(sender Sender, render func(d Delivery, r *fyle.Report) blocks.Message) Handler {
	return &messageHandler{sender: sender, render: func(d Delivery) (blocks.Message, error) {
		r, err := d.Event.Report()
		if err != nil {
			return blocks.Message{}, err
		}
		return render(d, r), nil
	}}
}

func commentHandler(sender Sender, asApprover bool) Handler {
	return &messageHandler{sender: sender, render: func(d Delivery) (blocks.Message, error) {
		c, err := d.Event.Comment()
		if err != nil {
			return blocks.Message{}, err
		}
		if d.Event.Resource == "EXPENSE" {
			x, err := d.Event.Expense()
			if err != nil {
				return blocks.Message{}, err
			}
			return blocks.ExpenseCommented(x, c), nil
		}
		r, err := d.Event.Report()
		if err != nil {
			return blocks.Message{}, err
		}
		return blocks.ReportCommented(r, c, asApprover), nil
	}}
}

// FylerHandlers builds the report owner's table.
func FylerHandlers(sender Sender) Table {
	return NewTable(models.RoleFyler, map[models.NotificationType]Handler{
		models.NotificationReportSubmitted: reportHandler(sender, func(_ Delivery, r *fyle.Report) blocks.Message {
			return blocks.ReportSubmitted(r)
		}),
		models.NotificationReportPartiallyApproved: reportHandler(sender, func(_ Delivery, r *fyle.Report) blocks.Message {
			return blocks.ReportPartiallyApproved(r)
		}),
		models.NotificationReportPaymentProcessing: reportHandler(sender, func(_ Delivery, r *fyle.Report) blocks.Message {
			return blocks.ReportApproved(r, false)
		}),
		models.NotificationReportApproverSendback: reportHandler(sender, func(d Delivery, r *fyle.Report) blocks.Message {
			return blocks.ReportSentBack(r, d.Event.Reason)
		}),
		models.NotificationReportPaid: reportHandler(sender, func(_ Delivery, r *fyle.Report) blocks.Message {
			return blocks.ReportPaid(r)
		}),
		models.NotificationReportCommented:  commentHandler(sender, false),
		models.NotificationExpenseCommented: commentHandler(sender, false),
	})
}

// ApproverHandlers builds the approver's table.
func ApproverHandlers(sender Sender) Table {
	return NewTable(models.RoleApprover, map[models.NotificationType]Handler{
		models.NotificationReportSubmitted: reportHandler(sender, func(_ Delivery, r *fyle.Report) blocks.Message {
			return blocks.ApprovalRequest(r)
		}),
		models.NotificationReportCommented: commentHandler(sender, true),
	})
}
