package application

import (
	"context"
	"errors"
	"fmt"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/domain/ports/repository"
	"telegram-content-assistant/internal/usecase"

	"github.com/rs/zerolog"
)

// Flow is the conversation state machine. Every incoming event lands in
// Handle, which reads the user's persisted state, runs the matching branch
// and persists any transition before replying.
type Flow struct {
	replier     adapter.Replier
	onboarding  usecase.OnboardingUseCase
	posts       usecase.PostUseCase
	sessions    repository.SessionRepository
	notifier    adapter.AdminNotifier
	transcriber adapter.Transcriber
	log         *zerolog.Logger
}

func NewFlow(
	replier adapter.Replier,
	onboarding usecase.OnboardingUseCase,
	posts usecase.PostUseCase,
	sessions repository.SessionRepository,
	notifier adapter.AdminNotifier,
	transcriber adapter.Transcriber,
	logger *zerolog.Logger,
) *Flow {
	return &Flow{
		replier:     replier,
		onboarding:  onboarding,
		posts:       posts,
		sessions:    sessions,
		notifier:    notifier,
		transcriber: transcriber,
		log:         logger,
	}
}

// Handle routes one event. It never returns an error: every failure ends in
// a user-facing message or a log line, so the polling loop stays clean.
func (f *Flow) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case Command:
		f.handleCommand(ctx, e)
	case UserMessage:
		f.handleMessage(ctx, e)
	case ButtonPress:
		f.handleButton(ctx, e)
	case VoiceMessage:
		f.handleVoice(ctx, e)
	default:
		f.log.Warn().Type("event", ev).Msg("unhandled event type")
	}
}

func (f *Flow) handleCommand(ctx context.Context, cmd Command) {
	tgID := cmd.TgID
	switch cmd.Name {
	case "start":
		f.handleStart(ctx, cmd)
	case "help":
		f.send(ctx, tgID, msgHelp, nil)
	case "profile":
		f.showProfile(ctx, tgID)
	default:
		f.send(ctx, tgID, msgHelp, nil)
	}
}

func (f *Flow) handleStart(ctx context.Context, cmd Command) {
	tgID := cmd.TgID
	user, err := f.onboarding.FindUser(ctx, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			f.log.Error().Err(err).Int64("tg_id", tgID).Msg("find user failed")
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		ok, err := f.onboarding.CanRegister(ctx)
		if err != nil {
			f.log.Error().Err(err).Msg("registration capacity check failed")
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		if !ok {
			f.send(ctx, tgID, msgUserLimitReached, nil)
			return
		}
		f.send(ctx, tgID, msgWelcome, nil)
		return
	}

	switch user.State {
	case model.StateBlocked:
		// The user came back; unblock into the main menu.
		if err := f.onboarding.SetState(ctx, tgID, model.StateRegistered); err != nil {
			f.log.Error().Err(err).Int64("tg_id", tgID).Msg("unblock failed")
			return
		}
		f.send(ctx, tgID, msgMainMenu, mainMenuButtons())
	case model.StateEmailVerified:
		if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		f.send(ctx, tgID, msgNicheRequest, nil)
	default:
		content, _ := f.sessions.GetContent(ctx, tgID)
		text, buttons := promptFor(user.State, content)
		if text != "" {
			f.send(ctx, tgID, text, buttons)
		}
	}
}

func (f *Flow) showProfile(ctx context.Context, tgID int64) {
	user, err := f.onboarding.FindUser(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			f.send(ctx, tgID, msgWelcome, nil)
			return
		}
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	limit, err := f.posts.CheckLimit(ctx, user.ID)
	if err != nil {
		f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("limit check failed for profile")
		limit = &model.PostLimit{}
	}
	niche := user.Niche
	if niche == "" {
		niche = "not set yet"
	}
	text := fmt.Sprintf(msgProfileInfo,
		escape(user.Email),
		escape(niche),
		user.RegisteredAt.Format("02.01.2006"),
		limit.PostsGenerated, limit.PostsLimit, limit.RemainingPosts,
	)
	buttons := [][]adapter.Button{{{Text: "🔄 Change niche", Data: btnChangeNiche}}}
	f.send(ctx, tgID, text, buttons)
}

func (f *Flow) handleMessage(ctx context.Context, msg UserMessage) {
	tgID := msg.TgID
	user, err := f.onboarding.FindUser(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			f.handleEmailInput(ctx, msg)
			return
		}
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}

	switch user.State {
	case model.StateWaitingEmail:
		f.handleEmailInput(ctx, msg)
	case model.StateEmailVerified:
		if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		f.send(ctx, tgID, msgNicheRequest, nil)
	case model.StateWaitingNicheDescription:
		f.handleNicheDescription(ctx, user, msg.Text)
	case model.StateWaitingPostAnswer:
		f.handlePostAnswer(ctx, user, msg.Text)
	case model.StateWaitingNicheConfirmation, model.StateWaitingPostGoal:
		f.send(ctx, tgID, msgUseButtons, nil)
	case model.StateRegistered, model.StatePostGenerated:
		f.send(ctx, tgID, msgMainMenu, mainMenuButtons())
	case model.StateBlocked:
		// A message means they unblocked us.
		f.handleStart(ctx, Command{Sender: msg.Sender, Name: "start"})
	}
}

func (f *Flow) handleEmailInput(ctx context.Context, msg UserMessage) {
	tgID := msg.TgID
	user, err := f.onboarding.VerifyEmail(ctx, tgID, msg.Username, msg.FirstName, msg.LastName, msg.Text)
	switch {
	case errors.Is(err, domain.ErrNoEmailFound):
		f.send(ctx, tgID, fmt.Sprintf(msgInvalidEmail, escape(truncate(msg.Text, 64))), nil)
		return
	case errors.Is(err, domain.ErrEmailNotAllowed):
		f.send(ctx, tgID, fmt.Sprintf(msgEmailNotFound, escape(truncate(msg.Text, 64))), nil)
		return
	case err != nil:
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("email verification failed")
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}

	f.send(ctx, tgID, fmt.Sprintf(msgEmailSuccess, escape(user.Email)), nil)
	if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	f.send(ctx, tgID, msgNicheRequest, nil)
}

// handleNicheDescription runs the niche classification round trip behind a
// placeholder message and parks the result in the session until the user
// confirms it.
func (f *Flow) handleNicheDescription(ctx context.Context, user *model.User, text string) {
	tgID := user.TelegramID
	placeholder := f.send(ctx, tgID, msgNicheProcessing, nil)

	niche, err := f.onboarding.ClassifyNiche(ctx, text)
	if err != nil {
		f.handleEngineError(ctx, user, placeholder, err, msgErrorNiche)
		return
	}

	if err := f.sessions.SetContent(ctx, tgID, &model.SessionContent{ProvisionalNiche: niche}); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("session write failed")
		f.edit(ctx, tgID, placeholder, msgErrorGeneral, nil)
		return
	}
	if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheConfirmation); err != nil {
		f.edit(ctx, tgID, placeholder, msgErrorDatabase, nil)
		return
	}
	f.edit(ctx, tgID, placeholder, fmt.Sprintf(msgNicheResult, escape(niche)), nicheConfirmButtons())
}

func (f *Flow) handlePostAnswer(ctx context.Context, user *model.User, answer string) {
	tgID := user.TelegramID

	// Cheap validation happens before any engine dispatch.
	switch err := f.posts.ValidateAnswer(answer); {
	case errors.Is(err, domain.ErrAnswerEmpty), errors.Is(err, domain.ErrAnswerTooShort):
		f.send(ctx, tgID, msgErrorAnswerTooShort, nil)
		return
	case errors.Is(err, domain.ErrAnswerRepetitive):
		f.send(ctx, tgID, msgErrorAnswerRepetitive, nil)
		return
	}

	content, err := f.sessions.GetContent(ctx, tgID)
	if err != nil || content == nil || content.BestTopic() == "" {
		if err != nil {
			f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("session read failed")
		}
		f.onboarding.SetState(ctx, tgID, model.StateRegistered)
		f.send(ctx, tgID, msgContentMissing, mainMenuButtons())
		return
	}

	placeholder := f.send(ctx, tgID, msgPostProcessing, nil)
	post, limit, err := f.posts.GeneratePost(ctx, user, content, answer)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPostLimitReached):
			f.showLimitExceeded(ctx, user, placeholder)
		case errors.Is(err, domain.ErrExternalTimeout):
			f.deleteQuiet(ctx, tgID, placeholder)
			f.notifyEngineFailure(user, "post generation timed out", err)
			f.rollback(ctx, user, msgTimeoutReason)
		default:
			f.notifyEngineFailure(user, "post generation failed", err)
			f.edit(ctx, tgID, placeholder, msgErrorPostGeneration, nil)
		}
		return
	}

	if err := f.onboarding.SetState(ctx, tgID, model.StatePostGenerated); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("state update failed after generation")
	}
	f.edit(ctx, tgID, placeholder,
		fmt.Sprintf(msgGeneratedPost, post.Content, limit.RemainingPosts),
		postResultButtons())
}

func (f *Flow) handleButton(ctx context.Context, press ButtonPress) {
	tgID := press.TgID
	user, err := f.onboarding.FindUser(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			f.send(ctx, tgID, msgWelcome, nil)
			return
		}
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}

	switch press.Data {
	case btnNicheCorrect:
		f.confirmNiche(ctx, user, press.MessageID)
	case btnNicheRetry:
		if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		f.edit(ctx, tgID, press.MessageID, msgNicheRetry, nil)
	case btnChangeNiche:
		if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		f.send(ctx, tgID, msgNicheRequest, nil)
	case btnSuggestTopic, btnNewTopic:
		f.suggestTopic(ctx, user, press.MessageID)
	case btnWritePost:
		f.askPostGoal(ctx, user, press.MessageID)
	case btnGoalReaction:
		f.setGoalAndAsk(ctx, user, press.MessageID, goalReaction)
	case btnGoalDiscussion:
		f.setGoalAndAsk(ctx, user, press.MessageID, goalDiscussion)
	case btnGoalSales:
		f.setGoalAndAsk(ctx, user, press.MessageID, goalSales)
	case btnRegeneratePost:
		f.regeneratePost(ctx, user)
	case btnProfile:
		f.showProfile(ctx, tgID)
	default:
		f.log.Warn().Str("data", press.Data).Int64("tg_id", tgID).Msg("unknown button")
	}
}

func (f *Flow) confirmNiche(ctx context.Context, user *model.User, messageID int) {
	tgID := user.TelegramID
	content, err := f.sessions.GetContent(ctx, tgID)
	if err != nil || content == nil || content.ProvisionalNiche == "" {
		if err != nil {
			f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("session read failed")
		}
		// The provisional niche expired; ask again.
		if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingNicheDescription); err != nil {
			f.send(ctx, tgID, msgErrorDatabase, nil)
			return
		}
		f.edit(ctx, tgID, messageID, msgNicheRetry, nil)
		return
	}

	if err := f.onboarding.ConfirmNiche(ctx, tgID, content.ProvisionalNiche); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("niche confirmation failed")
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	if err := f.sessions.ClearContent(ctx, tgID); err != nil {
		f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("session clear failed")
	}

	f.edit(ctx, tgID, messageID, fmt.Sprintf(msgNicheSaved, escape(content.ProvisionalNiche)), nil)
	f.send(ctx, tgID, msgReminderSetup, nil)
	f.send(ctx, tgID, msgMainMenu, mainMenuButtons())
}

// suggestTopic fetches today's topic adapted to the user's niche and offers
// to turn it into a post. The weekly allowance is enforced before any
// dispatch reaches the engine.
func (f *Flow) suggestTopic(ctx context.Context, user *model.User, messageID int) {
	tgID := user.TelegramID
	placeholder := f.send(ctx, tgID, msgTopicProcessing, nil)

	content, err := f.posts.SuggestTopic(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPostLimitReached):
			f.showLimitExceeded(ctx, user, placeholder)
		case errors.Is(err, domain.ErrNoContentForToday):
			f.edit(ctx, tgID, placeholder, msgErrorNoTopics, nil)
		case errors.Is(err, domain.ErrExternalTimeout):
			f.deleteQuiet(ctx, tgID, placeholder)
			f.notifyEngineFailure(user, "topic adaptation timed out", err)
			f.rollback(ctx, user, msgTimeoutReason)
		default:
			f.notifyEngineFailure(user, "topic adaptation failed", err)
			f.edit(ctx, tgID, placeholder, msgErrorTopicAdaptation, retryButtons(btnNewTopic))
		}
		return
	}

	if err := f.sessions.SetContent(ctx, tgID, content); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("session write failed")
		f.edit(ctx, tgID, placeholder, msgErrorGeneral, nil)
		return
	}
	f.edit(ctx, tgID, placeholder,
		fmt.Sprintf(msgTopicSuggestion, escape(content.BestTopic()), escape(user.Niche)),
		topicButtons())
}

func (f *Flow) askPostGoal(ctx context.Context, user *model.User, messageID int) {
	tgID := user.TelegramID
	content, err := f.sessions.GetContent(ctx, tgID)
	if err != nil || content == nil || content.BestTopic() == "" {
		f.send(ctx, tgID, msgContentMissing, mainMenuButtons())
		return
	}
	if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingPostGoal); err != nil {
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	f.edit(ctx, tgID, messageID, msgPostGoalPrompt, goalButtons())
}

func (f *Flow) setGoalAndAsk(ctx context.Context, user *model.User, messageID int, goal string) {
	tgID := user.TelegramID
	content, err := f.sessions.GetContent(ctx, tgID)
	if err != nil || content == nil || content.BestTopic() == "" {
		f.onboarding.SetState(ctx, tgID, model.StateRegistered)
		f.send(ctx, tgID, msgContentMissing, mainMenuButtons())
		return
	}

	content.Goal = goal
	if err := f.sessions.SetContent(ctx, tgID, content); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("session write failed")
		f.send(ctx, tgID, msgErrorGeneral, nil)
		return
	}
	if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingPostAnswer); err != nil {
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	f.edit(ctx, tgID, messageID,
		fmt.Sprintf(msgPostQuestion, escape(content.BestTopic()), escape(content.Question)), nil)
}

func (f *Flow) regeneratePost(ctx context.Context, user *model.User) {
	tgID := user.TelegramID
	content, err := f.sessions.GetContent(ctx, tgID)
	if err != nil || content == nil || content.BestTopic() == "" {
		f.onboarding.SetState(ctx, tgID, model.StateRegistered)
		f.send(ctx, tgID, msgContentMissing, mainMenuButtons())
		return
	}
	if err := f.onboarding.SetState(ctx, tgID, model.StateWaitingPostAnswer); err != nil {
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}
	f.send(ctx, tgID,
		fmt.Sprintf(msgPostRegenerate, escape(content.BestTopic()), escape(content.Question)), nil)
}

func (f *Flow) handleVoice(ctx context.Context, voice VoiceMessage) {
	tgID := voice.TgID
	user, err := f.onboarding.FindUser(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			f.send(ctx, tgID, msgWelcome, nil)
			return
		}
		f.send(ctx, tgID, msgErrorDatabase, nil)
		return
	}

	if user.State != model.StateWaitingNicheDescription && user.State != model.StateWaitingPostAnswer {
		f.send(ctx, tgID, msgVoiceHint, nil)
		return
	}
	if f.transcriber == nil {
		f.send(ctx, tgID, msgVoiceHint, nil)
		return
	}

	placeholder := f.send(ctx, tgID, msgVoiceProcessing, nil)
	text, err := f.transcriber.Transcribe(ctx, voice.FileID)
	if err != nil || text == "" {
		if err != nil {
			f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("transcription failed")
		}
		f.edit(ctx, tgID, placeholder, msgVoiceFailed, nil)
		return
	}
	f.deleteQuiet(ctx, tgID, placeholder)

	switch user.State {
	case model.StateWaitingNicheDescription:
		f.handleNicheDescription(ctx, user, text)
	case model.StateWaitingPostAnswer:
		f.handlePostAnswer(ctx, user, text)
	}
}

// handleEngineError routes an engine failure during niche classification:
// timeouts roll back, everything else re-prompts in place.
func (f *Flow) handleEngineError(ctx context.Context, user *model.User, placeholder int, err error, fallback string) {
	tgID := user.TelegramID
	if errors.Is(err, domain.ErrExternalTimeout) {
		f.deleteQuiet(ctx, tgID, placeholder)
		f.notifyEngineFailure(user, "niche classification timed out", err)
		f.rollback(ctx, user, msgTimeoutReason)
		return
	}
	f.notifyEngineFailure(user, "niche classification failed", err)
	f.edit(ctx, tgID, placeholder, fallback, nil)
}

func (f *Flow) showLimitExceeded(ctx context.Context, user *model.User, messageID int) {
	tgID := user.TelegramID
	limit, err := f.posts.CheckLimit(ctx, user.ID)
	if err != nil {
		f.edit(ctx, tgID, messageID, msgErrorGeneral, nil)
		return
	}
	f.edit(ctx, tgID, messageID,
		fmt.Sprintf(msgWeeklyLimitExceeded, limit.PostsGenerated, limit.PostsLimit), nil)
}

func (f *Flow) notifyEngineFailure(user *model.User, title string, err error) {
	if f.notifier == nil {
		return
	}
	level := adapter.AlertError
	if errors.Is(err, domain.ErrExternalTimeout) {
		level = adapter.AlertWarning
	}
	f.notifier.Notify(level, title, err.Error(), map[string]string{
		"tg_id": fmt.Sprintf("%d", user.TelegramID),
		"state": string(user.State),
	})
}

// send delivers a message and absorbs transport failures. A blocked-by-user
// error flips the user into the absorbing blocked state.
func (f *Flow) send(ctx context.Context, tgID int64, text string, buttons [][]adapter.Button) int {
	id, err := f.replier.SendMessage(ctx, tgID, text, buttons)
	if err != nil {
		if errors.Is(err, domain.ErrBlockedByUser) {
			if mErr := f.onboarding.MarkBlocked(ctx, tgID); mErr != nil {
				f.log.Error().Err(mErr).Int64("tg_id", tgID).Msg("failed to mark user blocked")
			}
			return 0
		}
		f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("send failed")
	}
	return id
}

// edit rewrites an earlier message in place; when editing is impossible
// (message too old, already deleted) it falls back to sending.
func (f *Flow) edit(ctx context.Context, tgID int64, messageID int, text string, buttons [][]adapter.Button) {
	if messageID == 0 {
		f.send(ctx, tgID, text, buttons)
		return
	}
	err := f.replier.EditMessage(ctx, tgID, messageID, text, buttons)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrBlockedByUser) {
		if mErr := f.onboarding.MarkBlocked(ctx, tgID); mErr != nil {
			f.log.Error().Err(mErr).Int64("tg_id", tgID).Msg("failed to mark user blocked")
		}
		return
	}
	f.log.Debug().Err(err).Int64("tg_id", tgID).Int("message_id", messageID).Msg("edit failed, sending instead")
	f.send(ctx, tgID, text, buttons)
}

func (f *Flow) deleteQuiet(ctx context.Context, tgID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := f.replier.DeleteMessage(ctx, tgID, messageID); err != nil {
		f.log.Debug().Err(err).Int64("tg_id", tgID).Int("message_id", messageID).Msg("delete failed")
	}
}
