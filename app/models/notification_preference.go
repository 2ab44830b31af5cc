package models

import "time"

// NotificationPreference toggles one notification type for one user.
type NotificationPreference struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SlackUserID      string    `gorm:"type:varchar(20);not null;index:ux_notification_preferences_user_type,unique,priority:1" json:"slack_user_id"`
	NotificationType string    `gorm:"type:varchar(100);not null;index:ux_notification_preferences_user_type,unique,priority:2" json:"notification_type"`
	IsEnabled        bool      `gorm:"default:true" json:"is_enabled"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultPreferences returns one enabled row per known notification type.
func DefaultPreferences(slackUserID string) []NotificationPreference {
	types := AllNotificationTypes()
	prefs := make([]NotificationPreference, 0, len(types))
	for _, info := range types {
		prefs = append(prefs, NotificationPreference{
			SlackUserID:      slackUserID,
			NotificationType: PreferenceKey(info.Type, info.Role),
			IsEnabled:        true,
		})
	}
	return prefs
}
