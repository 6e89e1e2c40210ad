package notify

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/infra/worker"
)

// Compile-time check
var _ adapter.AdminNotifier = (*AdminNotifier)(nil)

var levelEmoji = map[adapter.AlertLevel]string{
	adapter.AlertInfo:     "ℹ️",
	adapter.AlertWarning:  "⚠️",
	adapter.AlertError:    "❌",
	adapter.AlertCritical: "🚨",
}

// AdminNotifier posts operational alerts to the admin chat through the
// worker pool, so a slow Telegram API never blocks a user-facing turn.
type AdminNotifier struct {
	replier adapter.Replier
	pool    *worker.Pool
	chatID  int64
	log     *zerolog.Logger
}

func NewAdminNotifier(replier adapter.Replier, pool *worker.Pool, chatID int64, logger *zerolog.Logger) *AdminNotifier {
	compLog := logger.With().Str("component", "AdminNotifier").Logger()
	return &AdminNotifier{
		replier: replier,
		pool:    pool,
		chatID:  chatID,
		log:     &compLog,
	}
}

func (n *AdminNotifier) Notify(level adapter.AlertLevel, title, message string, details map[string]string) {
	if n.chatID == 0 {
		return
	}
	text := formatAlert(level, title, message, details)
	err := n.pool.Submit(func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, err := n.replier.SendMessage(sendCtx, n.chatID, text, nil)
		return err
	})
	if err != nil {
		n.log.Warn().Err(err).Str("title", title).Msg("alert dropped")
	}
}

func formatAlert(level adapter.AlertLevel, title, message string, details map[string]string) string {
	emoji, ok := levelEmoji[level]
	if !ok {
		emoji = "ℹ️"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n\n%s", emoji, html.EscapeString(title), html.EscapeString(message))
	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n<code>%s: %s</code>", html.EscapeString(k), html.EscapeString(details[k]))
		}
	}
	return b.String()
}
