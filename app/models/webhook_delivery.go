package models

import (
	"strings"
	"time"
)

// DeliveryOutcomeError marks a delivery whose processing failed and may be
// picked up again when Fyle redelivers it.
const DeliveryOutcomeError = "error"

// WebhookDelivery stores inbound Fyle webhook payloads with deduplication
// metadata for idempotent processing.
type WebhookDelivery struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	SlackTeamID     string     `gorm:"type:varchar(20);not null;index:ux_webhook_deliveries_team_delivery,unique,priority:1" json:"slack_team_id"`
	DeliveryID      string     `gorm:"type:varchar(191);not null;index:ux_webhook_deliveries_team_delivery,unique,priority:2" json:"delivery_id"`
	EventKey        string     `gorm:"type:varchar(100);not null;index" json:"event_key"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Outcome         string     `gorm:"type:varchar(30)" json:"outcome"`
	DeliveredTo     string     `gorm:"type:text" json:"delivered_to"` // comma separated recipient keys
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Reprocessable reports whether a redelivery should run this delivery again:
// it failed, or it was claimed but never finished within staleAfter.
func (d *WebhookDelivery) Reprocessable(now time.Time, staleAfter time.Duration) bool {
	if d.ProcessedAt != nil {
		return d.Outcome == DeliveryOutcomeError
	}
	return now.Sub(d.UpdatedAt) > staleAfter
}

// Delivered returns the recipient keys that already received this delivery.
func (d *WebhookDelivery) Delivered() map[string]bool {
	out := map[string]bool{}
	for _, id := range strings.Split(d.DeliveredTo, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}
	return out
}

// JoinDelivered formats recipient keys for the DeliveredTo column.
func JoinDelivered(ids []string) string {
	return strings.Join(ids, ",")
}
