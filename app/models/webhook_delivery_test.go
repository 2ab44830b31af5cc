package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebhookDeliveryReprocessable(t *testing.T) {
	now := time.Now()
	done := now.Add(-time.Hour)
	stale := 10 * time.Second

	assert.True(t, (&WebhookDelivery{ProcessedAt: &done, Outcome: DeliveryOutcomeError}).Reprocessable(now, stale))
	assert.False(t, (&WebhookDelivery{ProcessedAt: &done, Outcome: "delivered"}).Reprocessable(now, stale))
	assert.False(t, (&WebhookDelivery{ProcessedAt: &done, Outcome: "disabled"}).Reprocessable(now, stale))
	assert.False(t, (&WebhookDelivery{UpdatedAt: now.Add(-time.Second)}).Reprocessable(now, stale), "still in flight")
	assert.True(t, (&WebhookDelivery{UpdatedAt: now.Add(-time.Minute)}).Reprocessable(now, stale), "abandoned")
}

func TestWebhookDeliveryDelivered(t *testing.T) {
	d := &WebhookDelivery{DeliveredTo: JoinDelivered([]string{"FYLER:U1", "APPROVER:U2"})}
	assert.Equal(t, map[string]bool{"FYLER:U1": true, "APPROVER:U2": true}, d.Delivered())
	assert.Empty(t, (&WebhookDelivery{}).Delivered())
}
