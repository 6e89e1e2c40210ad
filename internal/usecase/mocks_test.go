package usecase

import (
	"context"
	"time"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockUserRepo struct {
	SaveFunc             func(ctx context.Context, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tgID int64) (*model.User, error)
	UpdateStateFunc      func(ctx context.Context, tgID int64, state model.State) error
	UpdateNicheFunc      func(ctx context.Context, tgID int64, niche string) error
	CountUsersFunc       func(ctx context.Context) (int, error)
	ListForReminderFunc  func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) Save(ctx context.Context, u *model.User) error {
	return m.SaveFunc(ctx, u)
}
func (m *mockUserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return m.FindByTelegramIDFunc(ctx, tgID)
}
func (m *mockUserRepo) UpdateState(ctx context.Context, tgID int64, state model.State) error {
	return m.UpdateStateFunc(ctx, tgID, state)
}
func (m *mockUserRepo) UpdateNiche(ctx context.Context, tgID int64, niche string) error {
	return m.UpdateNicheFunc(ctx, tgID, niche)
}
func (m *mockUserRepo) CountUsers(ctx context.Context) (int, error) {
	return m.CountUsersFunc(ctx)
}
func (m *mockUserRepo) ListForReminder(ctx context.Context) ([]*model.User, error) {
	return m.ListForReminderFunc(ctx)
}

type mockEmailRepo struct {
	ExistsFunc func(ctx context.Context, email string) (bool, error)
}

func (m *mockEmailRepo) Exists(ctx context.Context, email string) (bool, error) {
	return m.ExistsFunc(ctx, email)
}

type mockContentRepo struct {
	FindByDayFunc func(ctx context.Context, dayOfMonth int) (*model.DailyContent, error)
}

func (m *mockContentRepo) FindByDay(ctx context.Context, dayOfMonth int) (*model.DailyContent, error) {
	return m.FindByDayFunc(ctx, dayOfMonth)
}

type mockPostRepo struct {
	SaveFunc       func(ctx context.Context, p *model.GeneratedPost) error
	CountSinceFunc func(ctx context.Context, userID string, weekStart time.Time) (int, error)
}

func (m *mockPostRepo) Save(ctx context.Context, p *model.GeneratedPost) error {
	return m.SaveFunc(ctx, p)
}
func (m *mockPostRepo) CountSince(ctx context.Context, userID string, weekStart time.Time) (int, error) {
	return m.CountSinceFunc(ctx, userID, weekStart)
}

type mockEngine struct {
	DetectNicheFunc  func(ctx context.Context, description string) (string, error)
	AdaptTopicFunc   func(ctx context.Context, topic, niche string) (string, error)
	GeneratePostFunc func(ctx context.Context, req adapter.GeneratePostRequest) (string, error)
}

func (m *mockEngine) DetectNiche(ctx context.Context, description string) (string, error) {
	return m.DetectNicheFunc(ctx, description)
}
func (m *mockEngine) AdaptTopic(ctx context.Context, topic, niche string) (string, error) {
	return m.AdaptTopicFunc(ctx, topic, niche)
}
func (m *mockEngine) GeneratePost(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
	return m.GeneratePostFunc(ctx, req)
}

func notFoundUserRepo() *mockUserRepo {
	return &mockUserRepo{
		FindByTelegramIDFunc: func(ctx context.Context, tgID int64) (*model.User, error) {
			return nil, domain.ErrNotFound
		},
		SaveFunc:        func(ctx context.Context, u *model.User) error { return nil },
		UpdateStateFunc: func(ctx context.Context, tgID int64, state model.State) error { return nil },
		UpdateNicheFunc: func(ctx context.Context, tgID int64, niche string) error { return nil },
		CountUsersFunc:  func(ctx context.Context) (int, error) { return 0, nil },
	}
}
