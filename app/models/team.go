package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Team is a Slack workspace that installed the app.
type Team struct {
	ID             string    `gorm:"primaryKey;type:varchar(20)" json:"id" validate:"required,max=20"`
	Name           string    `gorm:"type:varchar(255)" json:"name" validate:"max=255"`
	BotUserID      string    `gorm:"type:varchar(20)" json:"bot_user_id"`
	BotAccessToken string    `gorm:"type:text" json:"-" validate:"required"` // sealed, see security.Sealer
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Team) Validate() error {
	return validator.New().Struct(t)
}
