package model

// State is the closed set of conversational states a user can be in.
// Transitions are monotonic along the happy path; the rollback controller
// may walk one edge backward via Previous.
type State string

const (
	StateWaitingEmail             State = "waiting_email"
	StateEmailVerified            State = "email_verified"
	StateWaitingNicheDescription  State = "waiting_niche_description"
	StateWaitingNicheConfirmation State = "waiting_niche_confirmation"
	StateRegistered               State = "registered"
	StateWaitingPostGoal          State = "waiting_post_goal"
	StateWaitingPostAnswer        State = "waiting_post_answer"
	StatePostGenerated            State = "post_generated"

	// StateBlocked is absorbing: entered when the user blocks the bot,
	// never left.
	StateBlocked State = "blocked"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateWaitingEmail, StateEmailVerified, StateWaitingNicheDescription,
		StateWaitingNicheConfirmation, StateRegistered, StateWaitingPostGoal,
		StateWaitingPostAnswer, StatePostGenerated, StateBlocked:
		return true
	}
	return false
}

// Previous returns the nearest safe re-promptable state, mirroring the
// happy-path edges in reverse. States that are themselves safe resting
// points map to themselves, so repeated rollbacks never descend past the
// earliest sensible prompt.
func (s State) Previous() State {
	switch s {
	case StateWaitingEmail:
		return StateWaitingEmail
	case StateEmailVerified:
		return StateWaitingEmail
	case StateWaitingNicheDescription:
		return StateWaitingNicheDescription
	case StateWaitingNicheConfirmation:
		return StateWaitingNicheDescription
	case StateRegistered:
		return StateRegistered
	case StateWaitingPostGoal:
		return StateRegistered
	case StateWaitingPostAnswer:
		return StateWaitingPostGoal
	case StatePostGenerated:
		return StateWaitingPostAnswer
	case StateBlocked:
		return StateBlocked
	}
	return StateWaitingEmail
}
