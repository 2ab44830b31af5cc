package notification

import (
	"context"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

// Classify maps a webhook's resource and action to its notification key.
// Unknown combinations are not rejected here; they simply have no handler.
func Classify(resource, action string) models.NotificationType {
	return models.NotificationType(resource + "_" + action)
}

// Outcome is the result of routing one event to one recipient.
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeNoHandler  Outcome = "no_handler"
	OutcomeDisabled   Outcome = "disabled"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeFailed     Outcome = "failed"
	// OutcomeAlreadySent is a recipient skipped because an earlier attempt
	// of the same delivery reached them.
	OutcomeAlreadySent Outcome = "already_sent"
)

// Delivery is everything a handler needs to notify one recipient.
type Delivery struct {
	Event     *Event
	Role      models.Role
	Team      *models.Team
	Recipient *models.User
}

type Handler interface {
	Handle(ctx context.Context, d Delivery) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) Handle(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// Table is an immutable role-scoped handler table.
type Table struct {
	role     models.Role
	handlers map[models.NotificationType]Handler
}

// NewTable copies handlers so later changes to the map do not leak in.
func NewTable(role models.Role, handlers map[models.NotificationType]Handler) Table {
	m := make(map[models.NotificationType]Handler, len(handlers))
	for k, h := range handlers {
		m[k] = h
	}
	return Table{role: role, handlers: m}
}

func (t Table) Role() models.Role {
	return t.role
}

// Route looks up the handler for key in table.
func Route(table Table, key models.NotificationType) (Handler, bool) {
	h, ok := table.handlers[key]
	return h, ok
}
