package repository

import (
	"context"

	"telegram-content-assistant/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, u *model.User) error
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	// UpdateState persists a single atomic state change keyed by telegram id.
	UpdateState(ctx context.Context, tgID int64, state model.State) error
	UpdateNiche(ctx context.Context, tgID int64, niche string) error
	CountUsers(ctx context.Context) (int, error)
	// ListForReminder returns active users in the registered state, the
	// audience of the daily broadcast.
	ListForReminder(ctx context.Context) ([]*model.User, error)
}
