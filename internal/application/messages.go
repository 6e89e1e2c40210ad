package application

import (
	"fmt"
	"html"

	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
)

// Inline button callback data values.
const (
	btnNicheCorrect   = "niche_correct"
	btnNicheRetry     = "niche_retry"
	btnChangeNiche    = "change_niche"
	btnSuggestTopic   = "suggest_topic"
	btnNewTopic       = "new_topic"
	btnWritePost      = "write_post"
	btnRegeneratePost = "regenerate_post"
	btnProfile        = "profile"
	btnGoalReaction   = "goal_reaction"
	btnGoalDiscussion = "goal_discussion"
	btnGoalSales      = "goal_sales"
)

// Post goal descriptions sent to the engine.
const (
	goalReaction   = "make the reader feel something and leave a reaction"
	goalDiscussion = "start a discussion and collect comments"
	goalSales      = "warm the reader up towards a purchase"
)

const (
	msgWelcome = "<b>👋 Welcome!</b>\n\n" +
		"I help you turn daily topics into ready-to-publish posts.\n\n" +
		"To get started, please send the email address you signed up with."

	msgUserLimitReached = "<b>❌ User limit reached</b>\n\n" +
		"We are at capacity right now. Please try again later."

	msgInvalidEmail = "<b>✉️ That doesn't look like an email address</b>\n\n" +
		"I couldn't find a valid email in \"%s\". Please send the address you signed up with."

	msgEmailNotFound = "<b>✉️ Email not found</b>\n\n" +
		"The address <b>%s</b> is not on our list. Check for typos or contact support."

	msgEmailSuccess = "<b>✅ Email confirmed</b>\n\n" +
		"Great, <b>%s</b> is verified."

	msgNicheRequest = "<b>🎯 Tell me about your niche</b>\n\n" +
		"Describe what you do and who you do it for, in a few sentences. " +
		"You can type or send a voice message."

	msgNicheProcessing = "🔍 Analyzing your description..."

	msgNicheResult = "<b>🎯 Your niche</b>\n\n" +
		"Here is what I got: <b>%s</b>\n\nDid I get it right?"

	msgNicheSaved = "<b>✅ Niche saved</b>\n\n" +
		"Your niche: <b>%s</b>"

	msgNicheRetry = "<b>🔄 Let's try again</b>\n\n" +
		"Describe your niche once more, with a bit more detail."

	msgReminderSetup = "<b>⏰ Daily topics</b>\n\n" +
		"Every morning I'll send you a fresh topic adapted to your niche. " +
		"You can also ask for one any time from the menu."

	msgMainMenu = "<b>🏠 Main menu</b>\n\nChoose an action:"

	msgTopicProcessing = "💡 Picking today's topic for your niche..."

	msgTopicSuggestion = "<b>💡 Today's topic for you</b>\n\n" +
		"<b>%s</b>\n\n<i>Adapted for: %s</i>\n\n" +
		"Want to turn it into a post?"

	msgPostGoalPrompt = "<b>🎯 What should this post achieve?</b>\n\nPick a goal:"

	msgPostQuestion = "<b>✍️ Topic: %s</b>\n\n" +
		"To write the post I need your take:\n\n<i>%s</i>\n\n" +
		"Answer in your own words (at least 10 words). Text or voice."

	msgPostRegenerate = "<b>🔄 One more take</b>\n\n" +
		"<b>Topic: %s</b>\n\n<i>%s</i>\n\n" +
		"Answer again and I'll write a new version."

	msgPostProcessing = "✨ Writing your post..."

	msgGeneratedPost = "<b>📝 Your post is ready</b>\n\n%s\n\n" +
		"<i>Posts left this week: %d</i>"

	msgWeeklyLimitExceeded = "<b>🚫 Weekly limit reached</b>\n\n" +
		"You've generated %d of %d posts this week. The counter resets on Monday."

	msgContentMissing = "I've lost track of the topic we were working on. " +
		"Please request a new one from the menu."

	msgUseButtons = "Please use the buttons above to continue."

	msgProfileInfo = "<b>👤 Profile</b>\n\n" +
		"📧 Email: <b>%s</b>\n" +
		"🎯 Niche: <b>%s</b>\n" +
		"📅 Registered: %s\n\n" +
		"📝 Posts this week: %d of %d (remaining: %d)"

	msgHelp = "<b>🤖 Help</b>\n\n" +
		"<b>Commands:</b>\n" +
		"• /start - start over or open the main menu\n" +
		"• /profile - show your profile\n" +
		"• /help - show this help\n\n" +
		"<b>What I do:</b>\n" +
		"• 📧 Registration by email\n" +
		"• 🎯 Niche detection from your description\n" +
		"• 💡 Daily topics adapted to your niche\n" +
		"• 📝 Posts written from your answers"

	msgVoiceHint = "Voice messages work when you describe your niche or answer " +
		"a post question. Right now, please use the buttons or text."

	msgVoiceFailed = "<b>🎤 Couldn't process the voice message</b>\n\nPlease type your answer instead."

	msgVoiceProcessing = "🎤 Processing your voice message..."

	msgErrorGeneral = "<b>😔 Something went wrong</b>\n\nPlease try again."

	msgErrorDatabase = "<b>😔 Temporary hiccup on our side</b>\n\nPlease try again in a minute."

	msgErrorNiche = "<b>😔 Couldn't analyze your description</b>\n\nPlease try again."

	msgErrorTopicAdaptation = "<b>😔 Couldn't adapt today's topic</b>\n\nPlease try again."

	msgErrorNoTopics = "<b>😔 No topic available today</b>\n\nPlease check back tomorrow."

	msgErrorPostGeneration = "<b>😔 Couldn't write the post</b>\n\nPlease send your answer again."

	msgErrorAnswerTooShort = "<b>✍️ A bit more, please</b>\n\n" +
		"Your answer is the raw material of the post. Give me at least 10 words."

	msgErrorAnswerRepetitive = "<b>✍️ Too repetitive</b>\n\n" +
		"Your answer repeats the same words. Tell me a bit more, in your own words."

	msgRollbackNotice = "<b>⚠️ %s</b>\n\nLet's pick up from the previous step."

	msgTimeoutReason = "The writing service did not respond in time."
)

func escape(s string) string { return html.EscapeString(s) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mainMenuButtons() [][]adapter.Button {
	return [][]adapter.Button{
		{{Text: "💡 Suggest a topic", Data: btnSuggestTopic}},
		{{Text: "👤 Profile", Data: btnProfile}},
	}
}

func nicheConfirmButtons() [][]adapter.Button {
	return [][]adapter.Button{{
		{Text: "✅ Correct", Data: btnNicheCorrect},
		{Text: "🔄 Try again", Data: btnNicheRetry},
	}}
}

func topicButtons() [][]adapter.Button {
	return [][]adapter.Button{
		{{Text: "✍️ Write a post", Data: btnWritePost}},
		{{Text: "💡 Another topic", Data: btnNewTopic}},
	}
}

func goalButtons() [][]adapter.Button {
	return [][]adapter.Button{
		{{Text: "❤️ Reactions", Data: btnGoalReaction}},
		{{Text: "💬 Discussion", Data: btnGoalDiscussion}},
		{{Text: "💰 Sales", Data: btnGoalSales}},
	}
}

func postResultButtons() [][]adapter.Button {
	return [][]adapter.Button{
		{{Text: "🔄 Regenerate", Data: btnRegeneratePost}},
		{{Text: "💡 New topic", Data: btnNewTopic}},
	}
}

func retryButtons(data string) [][]adapter.Button {
	return [][]adapter.Button{{{Text: "🔄 Try again", Data: data}}}
}

// promptFor returns the re-prompt (text and buttons) appropriate to a state.
// The rollback controller and /start both use it, so every safe state has
// exactly one canonical prompt.
func promptFor(state model.State, content *model.SessionContent) (string, [][]adapter.Button) {
	switch state {
	case model.StateWaitingEmail, model.StateEmailVerified:
		return msgWelcome, nil
	case model.StateWaitingNicheDescription:
		return msgNicheRequest, nil
	case model.StateWaitingNicheConfirmation:
		return msgNicheRequest, nil
	case model.StateRegistered:
		return msgMainMenu, mainMenuButtons()
	case model.StateWaitingPostGoal:
		return msgPostGoalPrompt, goalButtons()
	case model.StateWaitingPostAnswer:
		if content != nil && content.BestTopic() != "" {
			return fmt.Sprintf(msgPostQuestion, escape(content.BestTopic()), escape(content.Question)), nil
		}
		return msgContentMissing, mainMenuButtons()
	case model.StatePostGenerated:
		return msgMainMenu, mainMenuButtons()
	case model.StateBlocked:
		return "", nil
	}
	return msgMainMenu, mainMenuButtons()
}
