package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

type webhookDeliveryRepository struct {
	db *gorm.DB
}

// NewWebhookDeliveryRepository creates a repository for inbound webhook deliveries
func NewWebhookDeliveryRepository(db *gorm.DB) WebhookDeliveryRepository {
	return &webhookDeliveryRepository{db: db}
}

// CreateIfNotExists reports whether the delivery is new; duplicates return the stored row.
func (r *webhookDeliveryRepository) CreateIfNotExists(ctx context.Context, d *models.WebhookDelivery) (bool, *models.WebhookDelivery, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "slack_team_id"},
			{Name: "delivery_id"},
		},
		DoNothing: true,
	}).Create(d)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookDelivery
	if err := r.db.WithContext(ctx).Where("slack_team_id = ? AND delivery_id = ?", d.SlackTeamID, d.DeliveryID).
		First(&stored).Error; err != nil {
		return false, nil, translate(err)
	}
	return created, &stored, nil
}

// Reclaim resets a failed or abandoned delivery so one redelivery can run it
// again. It returns false when the row no longer qualifies, for example because
// a concurrent redelivery claimed it first.
func (r *webhookDeliveryRepository) Reclaim(ctx context.Context, d *models.WebhookDelivery, staleBefore time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("id = ?", d.ID).
		Where("(processed_at IS NOT NULL AND outcome = ?) OR (processed_at IS NULL AND updated_at < ?)", models.DeliveryOutcomeError, staleBefore).
		Updates(map[string]interface{}{
			"processed_at":     nil,
			"outcome":          "",
			"processing_error": "",
			"updated_at":       time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *webhookDeliveryRepository) MarkProcessed(ctx context.Context, id uint, outcome, processingError string, deliveredTo []string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"outcome":          outcome,
		"processing_error": processingError,
		"delivered_to":     models.JoinDelivered(deliveredTo),
	}
	return r.db.WithContext(ctx).Model(&models.WebhookDelivery{}).Where("id = ?", id).Updates(updates).Error
}
