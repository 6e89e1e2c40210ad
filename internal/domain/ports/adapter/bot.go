package adapter

import "context"

// Button is one inline choice shown under a message.
type Button struct {
	Text string
	Data string
}

// Replier is the chat transport seen from the conversation flow: send, edit
// and delete messages, optionally with inline buttons. Implementations map
// "blocked by user" transport failures to domain.ErrBlockedByUser.
type Replier interface {
	SendMessage(ctx context.Context, tgID int64, text string, buttons [][]Button) (int, error)
	EditMessage(ctx context.Context, tgID int64, messageID int, text string, buttons [][]Button) error
	DeleteMessage(ctx context.Context, tgID int64, messageID int) error
}
