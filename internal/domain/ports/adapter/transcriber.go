package adapter

import "context"

// Transcriber converts a Telegram voice file into text. The flow treats it
// as optional: without one, voice messages get a typing hint instead.
type Transcriber interface {
	Transcribe(ctx context.Context, fileID string) (string, error)
}
