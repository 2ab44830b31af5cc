package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
)

// ErrNoRecipient means none of the event's recipients use the Slack app.
var ErrNoRecipient = fmt.Errorf("no linked slack user for event: %w", repository.ErrNotFound)

// Result is the outcome for one recipient.
type Result struct {
	FyleUserID  string
	SlackUserID string
	Role        models.Role
	Outcome     Outcome
	Err         error
}

// Summary collects the per-recipient results of one webhook.
type Summary struct {
	Key     models.NotificationType
	Results []Result
}

// Outcome is delivered if any recipient has the message, otherwise the first
// recorded outcome.
func (s Summary) Outcome() Outcome {
	if len(s.Results) == 0 {
		return OutcomeNoHandler
	}
	for _, r := range s.Results {
		if r.Outcome == OutcomeDelivered || r.Outcome == OutcomeAlreadySent {
			return OutcomeDelivered
		}
	}
	return s.Results[0].Outcome
}

// DeliveredTo lists the recipient keys that have the message, including those
// reached by an earlier attempt.
func (s Summary) DeliveredTo() []string {
	var out []string
	for _, r := range s.Results {
		if r.Outcome == OutcomeDelivered || r.Outcome == OutcomeAlreadySent {
			out = append(out, RecipientKey(r.SlackUserID, r.Role))
		}
	}
	return out
}

// RecipientKey identifies one message of a fan-out. A report owner who is also
// a pending approver gets one message per role.
func RecipientKey(slackUserID string, role models.Role) string {
	return string(role) + ":" + slackUserID
}

// Errors joins handler failures, nil when there were none.
func (s Summary) Errors() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher fans a webhook out to the report owner and pending approvers.
type Dispatcher struct {
	fyler    Table
	approver Table
	gate     *Gate
	users    repository.UserRepository
}

func NewDispatcher(fyler, approver Table, gate *Gate, users repository.UserRepository) *Dispatcher {
	return &Dispatcher{fyler: fyler, approver: approver, gate: gate, users: users}
}

// Dispatch routes ev for team. Unknown event types and disabled or suppressed
// notifications are outcomes, not errors. Missing preference rows and
// unresolvable recipients are errors wrapping repository.ErrNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, team *models.Team, ev *Event) (Summary, error) {
	return d.Redispatch(ctx, team, ev, nil)
}

// Redispatch is Dispatch for a redelivered event. Recipients in sent, keyed by
// RecipientKey, are recorded as OutcomeAlreadySent and not messaged again.
// The returned summary holds the results gathered so far even when err is set.
func (d *Dispatcher) Redispatch(ctx context.Context, team *models.Team, ev *Event, sent map[string]bool) (Summary, error) {
	key := ev.Key()
	summary := Summary{Key: key}

	subj, err := ev.subject()
	if err != nil {
		return summary, err
	}

	var owners []string
	if id := subj.ownerID(); id != "" {
		owners = append(owners, id)
	}

	unknown := 0
	for _, pass := range []struct {
		table Table
		ids   []string
	}{
		{d.fyler, owners},
		{d.approver, subj.pendingApproverIDs()},
	} {
		if len(pass.ids) == 0 {
			continue
		}
		handler, ok := Route(pass.table, key)
		if !ok {
			summary.Results = append(summary.Results, Result{Role: pass.table.Role(), Outcome: OutcomeNoHandler})
			continue
		}
		for _, fyleUserID := range pass.ids {
			user, err := d.users.GetByFyleUserID(ctx, team.ID, fyleUserID)
			if errors.Is(err, repository.ErrNotFound) {
				unknown++
				continue
			}
			if err != nil {
				return summary, err
			}
			if sent[RecipientKey(user.SlackUserID, pass.table.Role())] {
				summary.Results = append(summary.Results, Result{
					FyleUserID:  fyleUserID,
					SlackUserID: user.SlackUserID,
					Role:        pass.table.Role(),
					Outcome:     OutcomeAlreadySent,
				})
				continue
			}

			res, err := d.deliver(ctx, handler, Delivery{Event: ev, Role: pass.table.Role(), Team: team, Recipient: user}, subj)
			if err != nil {
				return summary, err
			}
			res.FyleUserID = fyleUserID
			summary.Results = append(summary.Results, res)
		}
	}

	if len(summary.Results) == 0 && unknown > 0 {
		return summary, ErrNoRecipient
	}
	return summary, nil
}

func (d *Dispatcher) deliver(ctx context.Context, h Handler, del Delivery, subj *subject) (Result, error) {
	res := Result{SlackUserID: del.Recipient.SlackUserID, Role: del.Role}
	key := del.Event.Key()

	allowed, err := d.gate.IsAllowed(ctx, del.Recipient.SlackUserID, key, del.Role)
	if err != nil {
		return res, err
	}
	if !allowed {
		res.Outcome = OutcomeDisabled
		return res, nil
	}

	if IsCommentType(key) && SuppressComment(subj.Comment, del.Recipient) {
		res.Outcome = OutcomeSuppressed
		return res, nil
	}

	if err := h.Handle(ctx, del); err != nil {
		log.Errorf("[Notification] %s to %s failed: %v", key, del.Recipient.SlackUserID, err)
		res.Outcome = OutcomeFailed
		res.Err = err
		return res, nil
	}
	res.Outcome = OutcomeDelivered
	return res, nil
}
