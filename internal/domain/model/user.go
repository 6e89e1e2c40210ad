package model

import (
	"strings"
	"time"

	"telegram-content-assistant/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user in our system.
type User struct {
	ID           string
	TelegramID   int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	Niche        string
	State        State
	RegisteredAt time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

func NewUser(id string, tgID int64, email, username, firstName, lastName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		TelegramID:   tgID,
		Email:        strings.ToLower(email),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		State:        StateEmailVerified,
		RegisteredAt: now,
		UpdatedAt:    now,
		IsActive:     true,
	}, nil
}

func (u *User) IsZero() bool    { return u == nil || u.ID == "" }
func (u *User) IsBlocked() bool { return u != nil && u.State == StateBlocked }
