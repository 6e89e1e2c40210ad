package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-content-assistant/internal/application"
	"telegram-content-assistant/internal/config"
	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/infra/redis"
)

const (
	updateRateLimit  = 20
	updateRateWindow = time.Minute
)

// Compile-time check
var _ adapter.Replier = (*Bot)(nil)

// Bot wraps tgbotapi with concurrent polling and implements the Replier the
// conversation flow talks to. The flow is attached after construction because
// it needs the bot as its Replier.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.BotConfig
	flow    *application.Flow
	limiter *redis.RateLimiter
	log     *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewBot(cfg *config.BotConfig, limiter *redis.RateLimiter, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		limiter:       limiter,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// AttachFlow wires the conversation flow in. Must be called before StartPolling.
func (b *Bot) AttachFlow(flow *application.Flow) { b.flow = flow }

// StartPolling polls Telegram for updates and fans them out across workers.
// It blocks until ctx is canceled.
func (b *Bot) StartPolling(ctx context.Context) error {
	if b.flow == nil {
		return errors.New("flow not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					b.handleUpdate(ctx, update)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	b.api.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := b.toEvent(ctx, update)
	if !ok {
		return
	}

	tgID := ev.From().TgID
	if b.limiter != nil {
		allowed, err := b.limiter.Allow(ctx, redis.UserUpdateKey(tgID), updateRateLimit, updateRateWindow)
		if err != nil {
			// A broken limiter must not take the bot down.
			b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("rate limiter unavailable")
		} else if !allowed {
			b.log.Debug().Int64("tg_id", tgID).Msg("update dropped by rate limit")
			return
		}
	}

	b.flow.Handle(ctx, ev)
}

// toEvent converts a raw Telegram update into exactly one flow event.
// Callback queries are acknowledged here so Telegram stops the spinner.
func (b *Bot) toEvent(ctx context.Context, update tgbotapi.Update) (application.Event, bool) {
	if q := update.CallbackQuery; q != nil && q.From != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			b.log.Debug().Err(err).Msg("callback ack failed")
		}
		messageID := 0
		if q.Message != nil {
			messageID = q.Message.MessageID
		}
		return application.ButtonPress{
			Sender:    senderFrom(q.From),
			MessageID: messageID,
			Data:      q.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil, false
	}
	sender := senderFrom(msg.From)

	if msg.IsCommand() {
		return application.Command{Sender: sender, Name: msg.Command()}, true
	}
	if msg.Voice != nil {
		return application.VoiceMessage{
			Sender:    sender,
			MessageID: msg.MessageID,
			FileID:    msg.Voice.FileID,
			Duration:  msg.Voice.Duration,
		}, true
	}
	if msg.Text != "" {
		return application.UserMessage{
			Sender:    sender,
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}, true
	}
	return nil, false
}

func senderFrom(u *tgbotapi.User) application.Sender {
	return application.Sender{
		TgID:      u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (b *Bot) SendMessage(ctx context.Context, tgID int64, text string, buttons [][]adapter.Button) (int, error) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := toMarkup(buttons); markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, mapSendError(err)
	}
	return sent.MessageID, nil
}

func (b *Bot) EditMessage(ctx context.Context, tgID int64, messageID int, text string, buttons [][]adapter.Button) error {
	edit := tgbotapi.NewEditMessageText(tgID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = toMarkup(buttons)
	if _, err := b.api.Send(edit); err != nil {
		return mapSendError(err)
	}
	return nil
}

func (b *Bot) DeleteMessage(ctx context.Context, tgID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(tgID, messageID)); err != nil {
		return mapSendError(err)
	}
	return nil
}

func toMarkup(buttons [][]adapter.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, r)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// mapSendError translates Telegram API errors the flow cares about. A 403
// means the user blocked the bot or deleted their account.
func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	s := err.Error()
	if strings.Contains(s, "blocked by the user") ||
		strings.Contains(s, "user is deactivated") ||
		strings.Contains(s, "chat not found") {
		return domain.ErrBlockedByUser
	}
	return err
}
