package repository

import (
	"context"
	"time"

	"telegram-content-assistant/internal/domain/model"
)

// AllowedEmailRepository is the whitelist checked during onboarding.
type AllowedEmailRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// DailyContentRepository serves the editorial calendar.
type DailyContentRepository interface {
	FindByDay(ctx context.Context, dayOfMonth int) (*model.DailyContent, error)
}

// PostRepository stores generated posts and answers the weekly counter.
type PostRepository interface {
	Save(ctx context.Context, p *model.GeneratedPost) error
	// CountSince counts a user's posts with WeekStart >= weekStart. With
	// weekStart = the current week's Monday this is the canonical
	// "posts generated this week" number.
	CountSince(ctx context.Context, userID string, weekStart time.Time) (int, error)
}

// SessionRepository owns the ephemeral per-turn content of a conversation.
// Entries expire on their own; losing one mid-flow is acceptable.
type SessionRepository interface {
	SetContent(ctx context.Context, tgID int64, content *model.SessionContent) error
	GetContent(ctx context.Context, tgID int64) (*model.SessionContent, error)
	ClearContent(ctx context.Context, tgID int64) error
}
