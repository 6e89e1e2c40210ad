package application

import (
	"context"
	"sync"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type sentMessage struct {
	TgID    int64
	Text    string
	Buttons [][]adapter.Button
	Edited  bool
}

// mockReplier records every outgoing message in order.
type mockReplier struct {
	mu       sync.Mutex
	messages []sentMessage
	deleted  []int
	nextID   int
	SendErr  error
}

func (m *mockReplier) SendMessage(ctx context.Context, tgID int64, text string, buttons [][]adapter.Button) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.nextID++
	m.messages = append(m.messages, sentMessage{TgID: tgID, Text: text, Buttons: buttons})
	return m.nextID, nil
}

func (m *mockReplier) EditMessage(ctx context.Context, tgID int64, messageID int, text string, buttons [][]adapter.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{TgID: tgID, Text: text, Buttons: buttons, Edited: true})
	return nil
}

func (m *mockReplier) DeleteMessage(ctx context.Context, tgID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockReplier) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return sentMessage{}
	}
	return m.messages[len(m.messages)-1]
}

func (m *mockReplier) all() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// mockOnboarding keeps users in memory and tracks state transitions, with
// per-method overrides for failure injection.
type mockOnboarding struct {
	mu    sync.Mutex
	users map[int64]*model.User

	CanRegisterFunc   func(ctx context.Context) (bool, error)
	VerifyEmailFunc   func(ctx context.Context, tgID int64, username, firstName, lastName, text string) (*model.User, error)
	ClassifyNicheFunc func(ctx context.Context, description string) (string, error)
}

func newMockOnboarding(users ...*model.User) *mockOnboarding {
	m := &mockOnboarding{users: make(map[int64]*model.User)}
	for _, u := range users {
		m.users[u.TelegramID] = u
	}
	return m
}

func (m *mockOnboarding) CanRegister(ctx context.Context) (bool, error) {
	if m.CanRegisterFunc != nil {
		return m.CanRegisterFunc(ctx)
	}
	return true, nil
}

func (m *mockOnboarding) FindUser(ctx context.Context, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockOnboarding) VerifyEmail(ctx context.Context, tgID int64, username, firstName, lastName, text string) (*model.User, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, tgID, username, firstName, lastName, text)
	}
	return nil, domain.ErrNoEmailFound
}

func (m *mockOnboarding) ClassifyNiche(ctx context.Context, description string) (string, error) {
	if m.ClassifyNicheFunc != nil {
		return m.ClassifyNicheFunc(ctx, description)
	}
	return "generic niche", nil
}

func (m *mockOnboarding) ConfirmNiche(ctx context.Context, tgID int64, niche string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tgID]; ok {
		u.Niche = niche
		u.State = model.StateRegistered
	}
	return nil
}

func (m *mockOnboarding) SetState(ctx context.Context, tgID int64, state model.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tgID]; ok {
		u.State = state
	}
	return nil
}

func (m *mockOnboarding) MarkBlocked(ctx context.Context, tgID int64) error {
	return m.SetState(ctx, tgID, model.StateBlocked)
}

func (m *mockOnboarding) stateOf(tgID int64) model.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tgID]; ok {
		return u.State
	}
	return ""
}

// mockPosts overrides the post pipeline per test.
type mockPosts struct {
	CheckLimitFunc     func(ctx context.Context, userID string) (*model.PostLimit, error)
	SuggestTopicFunc   func(ctx context.Context, user *model.User) (*model.SessionContent, error)
	ValidateAnswerFunc func(answer string) error
	GeneratePostFunc   func(ctx context.Context, user *model.User, content *model.SessionContent, answer string) (*model.GeneratedPost, *model.PostLimit, error)
}

func (m *mockPosts) CheckLimit(ctx context.Context, userID string) (*model.PostLimit, error) {
	if m.CheckLimitFunc != nil {
		return m.CheckLimitFunc(ctx, userID)
	}
	return &model.PostLimit{CanGenerate: true, PostsLimit: 10, RemainingPosts: 10}, nil
}

func (m *mockPosts) SuggestTopic(ctx context.Context, user *model.User) (*model.SessionContent, error) {
	if m.SuggestTopicFunc != nil {
		return m.SuggestTopicFunc(ctx, user)
	}
	return &model.SessionContent{Topic: "t", AdaptedTopic: "at", Question: "q"}, nil
}

func (m *mockPosts) ValidateAnswer(answer string) error {
	if m.ValidateAnswerFunc != nil {
		return m.ValidateAnswerFunc(answer)
	}
	return nil
}

func (m *mockPosts) GeneratePost(ctx context.Context, user *model.User, content *model.SessionContent, answer string) (*model.GeneratedPost, *model.PostLimit, error) {
	if m.GeneratePostFunc != nil {
		return m.GeneratePostFunc(ctx, user, content, answer)
	}
	return &model.GeneratedPost{Content: "post"}, &model.PostLimit{RemainingPosts: 9, PostsLimit: 10}, nil
}

// memSessions is an in-memory session store.
type memSessions struct {
	mu   sync.Mutex
	data map[int64]*model.SessionContent
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[int64]*model.SessionContent)}
}

func (m *memSessions) SetContent(ctx context.Context, tgID int64, content *model.SessionContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tgID] = content
	return nil
}

func (m *memSessions) GetContent(ctx context.Context, tgID int64) (*model.SessionContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[tgID], nil
}

func (m *memSessions) ClearContent(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, tgID)
	return nil
}

// mockNotifier records alerts.
type mockNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockNotifier) Notify(level adapter.AlertLevel, title, message string, details map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, string(level)+": "+title)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}
