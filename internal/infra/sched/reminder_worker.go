package sched

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-content-assistant/internal/config"
	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/domain/ports/repository"
	"telegram-content-assistant/internal/infra/worker"
)

const defaultReminderText = "<b>🌅 Good morning!</b>\n\n" +
	"Time for today's post in <b>%s</b>. Ask me for a topic!"

// ReminderWorker broadcasts the daily topic nudge at the configured local
// time. It checks once a minute and fires at most once per day.
type ReminderWorker struct {
	users   repository.UserRepository
	content repository.DailyContentRepository
	replier adapter.Replier
	pool    *worker.Pool
	hour    int
	minute  int
	loc     *time.Location
	log     *zerolog.Logger

	lastFired string // YYYY-MM-DD of the last broadcast
}

func NewReminderWorker(
	cfg config.ReminderConfig,
	users repository.UserRepository,
	content repository.DailyContentRepository,
	replier adapter.Replier,
	pool *worker.Pool,
	logger *zerolog.Logger,
) (*ReminderWorker, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load reminder timezone: %w", err)
	}
	compLog := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		users:   users,
		content: content,
		replier: replier,
		pool:    pool,
		hour:    cfg.Hour,
		minute:  cfg.Minute,
		loc:     loc,
		log:     &compLog,
	}, nil
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Int("hour", w.hour).Int("minute", w.minute).Msg("Starting reminder worker")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx, time.Now().In(w.loc))
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context, now time.Time) {
	if now.Hour() != w.hour || now.Minute() != w.minute {
		return
	}
	day := now.Format("2006-01-02")
	if day == w.lastFired {
		return
	}
	w.lastFired = day
	w.broadcast(ctx, now)
}

func (w *ReminderWorker) broadcast(ctx context.Context, now time.Time) {
	content, err := w.content.FindByDay(ctx, now.Day())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		w.log.Error().Err(err).Msg("daily content lookup failed")
		return
	}

	users, err := w.users.ListForReminder(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("reminder audience lookup failed")
		return
	}
	w.log.Info().Int("users", len(users)).Msg("broadcasting daily reminder")

	for _, u := range users {
		tgID := u.TelegramID
		text := reminderText(content, u.Niche)
		err := w.pool.Submit(func(ctx context.Context) error {
			_, err := w.replier.SendMessage(ctx, tgID, text, nil)
			if errors.Is(err, domain.ErrBlockedByUser) {
				w.log.Debug().Int64("tg_id", tgID).Msg("user blocked the bot, leaving the broadcast list")
				return w.users.UpdateState(ctx, tgID, model.StateBlocked)
			}
			return err
		})
		if err != nil {
			w.log.Warn().Err(err).Int64("tg_id", tgID).Msg("reminder dropped")
		}
	}
}

// reminderText prefers the editorial broadcast text, substituting the user's
// niche for the {niche} placeholder.
func reminderText(content *model.DailyContent, niche string) string {
	escaped := html.EscapeString(niche)
	if content != nil && content.ReminderMessage != "" {
		return strings.ReplaceAll(content.ReminderMessage, "{niche}", escaped)
	}
	return fmt.Sprintf(defaultReminderText, escaped)
}
