package application

// Sender identifies the Telegram user behind an event.
type Sender struct {
	TgID      int64
	Username  string
	FirstName string
	LastName  string
}

// Event is the closed set of inputs the conversation flow consumes. The
// transport adapter converts raw updates into exactly one of these; the flow
// never probes transport types.
type Event interface {
	isEvent()
	From() Sender
}

// Command is a slash command such as /start or /profile.
type Command struct {
	Sender
	Name string
}

// UserMessage is a plain text message.
type UserMessage struct {
	Sender
	MessageID int
	Text      string
}

// ButtonPress is an inline keyboard callback.
type ButtonPress struct {
	Sender
	MessageID int
	Data      string
}

// VoiceMessage is a voice note; FileID references the audio for the
// transcription collaborator.
type VoiceMessage struct {
	Sender
	MessageID int
	FileID    string
	Duration  int
}

func (Command) isEvent()      {}
func (UserMessage) isEvent()  {}
func (ButtonPress) isEvent()  {}
func (VoiceMessage) isEvent() {}

func (s Sender) From() Sender { return s }
