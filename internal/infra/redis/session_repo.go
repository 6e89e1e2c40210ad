package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo holds the ephemeral per-turn content of a conversation in
// Redis. Entries expire on their own; a restart mid-flow just means the user
// requests a topic again.
type SessionRepo struct {
	client *Client
	ttl    time.Duration
}

func NewSessionRepo(client *Client, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (s *SessionRepo) contentKey(tgID int64) string {
	return fmt.Sprintf("session_content:%d", tgID)
}

func (s *SessionRepo) SetContent(ctx context.Context, tgID int64, content *model.SessionContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.contentKey(tgID), data, s.ttl)
}

func (s *SessionRepo) GetContent(ctx context.Context, tgID int64) (*model.SessionContent, error) {
	data, err := s.client.Get(ctx, s.contentKey(tgID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var content model.SessionContent
	if err := json.Unmarshal([]byte(data), &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func (s *SessionRepo) ClearContent(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.contentKey(tgID))
}
