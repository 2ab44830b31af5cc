package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Gate checks a user's notification preferences.
type Gate struct {
	prefs repository.PreferenceRepository
}

func NewGate(prefs repository.PreferenceRepository) *Gate {
	return &Gate{prefs: prefs}
}

// IsAllowed returns the stored flag. A missing row is an error wrapping
// repository.ErrNotFound; rows are never created here.
func (g *Gate) IsAllowed(ctx context.Context, slackUserID string, t models.NotificationType, role models.Role) (bool, error) {
	key := models.PreferenceKey(t, role)
	pref, err := g.prefs.Get(ctx, slackUserID, key)
	if err != nil {
		return false, fmt.Errorf("preference %s for %s: %w", key, slackUserID, err)
	}
	return pref.IsEnabled, nil
}

// IsCommentType reports whether t is a *_COMMENTED notification.
func IsCommentType(t models.NotificationType) bool {
	return strings.HasSuffix(string(t), "_COMMENTED")
}

// SuppressComment reports whether a comment notification should be dropped
// because Fyle itself or the recipient wrote the comment.
func SuppressComment(c *fyle.Comment, recipient *models.User) bool {
	if c == nil {
		return false
	}
	if c.IsSystem() {
		return true
	}
	return recipient != nil && recipient.FyleUserID != "" && c.CreatorUserID == recipient.FyleUserID
}
