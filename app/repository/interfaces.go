package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

// ErrNotFound is returned when a team, user or preference row is missing.
var ErrNotFound = errors.New("record not found")

// TeamRepository defines the interface for Slack workspace persistence
type TeamRepository interface {
	Upsert(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create stores the user together with a complete default preference set.
	Create(ctx context.Context, user *models.User) error
	GetBySlackID(ctx context.Context, slackUserID string) (*models.User, error)
	GetByFyleUserID(ctx context.Context, slackTeamID, fyleUserID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// PreferenceRepository defines the interface for notification preferences
type PreferenceRepository interface {
	Get(ctx context.Context, slackUserID, key string) (*models.NotificationPreference, error)
	ListByUser(ctx context.Context, slackUserID string) ([]models.NotificationPreference, error)
	SetEnabled(ctx context.Context, slackUserID, key string, enabled bool) error
}

// WebhookDeliveryRepository persists inbound webhook deliveries idempotently
type WebhookDeliveryRepository interface {
	CreateIfNotExists(ctx context.Context, d *models.WebhookDelivery) (bool, *models.WebhookDelivery, error)
	Reclaim(ctx context.Context, d *models.WebhookDelivery, staleBefore time.Time) (bool, error)
	MarkProcessed(ctx context.Context, id uint, outcome, processingError string, deliveredTo []string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Team       TeamRepository
	User       UserRepository
	Preference PreferenceRepository
	Webhook    WebhookDeliveryRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Team:       NewTeamRepository(db),
		User:       NewUserRepository(db),
		Preference: NewPreferenceRepository(db),
		Webhook:    NewWebhookDeliveryRepository(db),
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
