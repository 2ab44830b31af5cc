package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
)

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository instance
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// Upsert stores the team, refreshing name and bot credentials on reinstall.
func (r *teamRepository) Upsert(ctx context.Context, team *models.Team) error {
	if err := team.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "bot_user_id", "bot_access_token", "updated_at"}),
	}).Create(team).Error
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

// Delete removes the team; users and their preferences cascade.
func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Team{}).Error
}
