package application

import (
	"context"
	"fmt"

	"telegram-content-assistant/internal/domain/model"
)

// rollback walks the user one edge backward to the nearest safe state,
// persists it and re-issues that state's prompt with the given reason.
// Rolling back from a state that maps to itself only re-prompts, so the
// operation is idempotent.
func (f *Flow) rollback(ctx context.Context, user *model.User, reason string) {
	prev := user.State.Previous()
	if prev == model.StateBlocked {
		return
	}

	if prev != user.State {
		if err := f.onboarding.SetState(ctx, user.TelegramID, prev); err != nil {
			f.log.Error().Err(err).
				Int64("tg_id", user.TelegramID).
				Str("from", string(user.State)).
				Str("to", string(prev)).
				Msg("rollback state update failed")
			return
		}
		user.State = prev
	}

	if reason != "" {
		f.send(ctx, user.TelegramID, fmt.Sprintf(msgRollbackNotice, escape(reason)), nil)
	}

	content, err := f.sessions.GetContent(ctx, user.TelegramID)
	if err != nil {
		f.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("session read failed during rollback")
	}
	text, buttons := promptFor(prev, content)
	if text != "" {
		f.send(ctx, user.TelegramID, text, buttons)
	}
}
