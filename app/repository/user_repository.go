package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return models.CreateUserWithPreferences(r.db.WithContext(ctx), user)
}

func (r *userRepository) GetBySlackID(ctx context.Context, slackUserID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("slack_user_id = ?", slackUserID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByFyleUserID resolves a Fyle user to the linked Slack user of a team.
func (r *userRepository) GetByFyleUserID(ctx context.Context, slackTeamID, fyleUserID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("slack_team_id = ? AND fyle_user_id = ?", slackTeamID, fyleUserID).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Omit("Team", "Preferences").Save(user).Error
}
