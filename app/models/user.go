package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User is a Slack user of an installed team, optionally linked to a Fyle account.
type User struct {
	SlackUserID      string                   `gorm:"primaryKey;type:varchar(20)" json:"slack_user_id" validate:"required,max=20"`
	SlackTeamID      string                   `gorm:"type:varchar(20);index;not null" json:"slack_team_id" validate:"required,max=20"`
	Team             Team                     `gorm:"foreignKey:SlackTeamID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	SlackDMChannelID string                   `gorm:"type:varchar(20)" json:"slack_dm_channel_id"`
	Email            string                   `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	FyleUserID       string                   `gorm:"type:varchar(50);index" json:"fyle_user_id"`
	FyleOrgID        string                   `gorm:"type:varchar(50);index" json:"fyle_org_id"`
	FyleRefreshToken string                   `gorm:"type:text" json:"-"` // sealed, see security.Sealer
	Preferences      []NotificationPreference `gorm:"foreignKey:SlackUserID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	CreatedAt        time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	return validator.New().Struct(u)
}

// IsFyleLinked reports whether the user completed the Fyle OAuth flow.
func (u *User) IsFyleLinked() bool {
	return u != nil && u.FyleUserID != "" && u.FyleRefreshToken != ""
}

// CreateUserWithPreferences inserts the user and a full, enabled preference
// set in one transaction so the gate never sees a partial set.
func CreateUserWithPreferences(db *gorm.DB, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		prefs := DefaultPreferences(user.SlackUserID)
		if err := tx.Create(&prefs).Error; err != nil {
			return err
		}
		user.Preferences = prefs
		return nil
	})
}
