package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new notification preference repository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

// Get never creates rows on demand; a missing row is ErrNotFound.
func (r *preferenceRepository) Get(ctx context.Context, slackUserID, key string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("slack_user_id = ? AND notification_type = ?", slackUserID, key).
		First(&pref).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pref, nil
}

func (r *preferenceRepository) ListByUser(ctx context.Context, slackUserID string) ([]models.NotificationPreference, error) {
	var prefs []models.NotificationPreference
	err := r.db.WithContext(ctx).Where("slack_user_id = ?", slackUserID).Order("id").Find(&prefs).Error
	return prefs, err
}

func (r *preferenceRepository) SetEnabled(ctx context.Context, slackUserID, key string, enabled bool) error {
	tx := r.db.WithContext(ctx).Model(&models.NotificationPreference{}).
		Where("slack_user_id = ? AND notification_type = ?", slackUserID, key).
		Update("is_enabled", enabled)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// MySQL reports zero rows when the value is unchanged, so confirm existence.
		if _, err := r.Get(ctx, slackUserID, key); err != nil {
			return err
		}
	}
	return nil
}
