package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/repository"
)

var (
	_ repository.AllowedEmailRepository = (*AllowedEmailRepo)(nil)
	_ repository.DailyContentRepository = (*DailyContentRepo)(nil)
	_ repository.PostRepository         = (*PostRepo)(nil)
)

// AllowedEmailRepo answers membership in the onboarding whitelist.
type AllowedEmailRepo struct {
	pool *pgxpool.Pool
}

func NewAllowedEmailRepo(pool *pgxpool.Pool) *AllowedEmailRepo {
	return &AllowedEmailRepo{pool: pool}
}

func (r *AllowedEmailRepo) Exists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM allowed_emails WHERE email=$1);`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, strings.ToLower(email)).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// DailyContentRepo serves the editorial calendar.
type DailyContentRepo struct {
	pool *pgxpool.Pool
}

func NewDailyContentRepo(pool *pgxpool.Pool) *DailyContentRepo {
	return &DailyContentRepo{pool: pool}
}

func (r *DailyContentRepo) FindByDay(ctx context.Context, dayOfMonth int) (*model.DailyContent, error) {
	const q = `
SELECT id, day_of_month, topic, question, reminder_message, is_active
  FROM daily_content WHERE day_of_month=$1 AND is_active;
`
	row := r.pool.QueryRow(ctx, q, dayOfMonth)
	var c model.DailyContent
	if err := row.Scan(&c.ID, &c.DayOfMonth, &c.Topic, &c.Question, &c.ReminderMessage, &c.IsActive); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// PostRepo stores generated posts; the weekly counter is a COUNT over this
// table anchored on week_start.
type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Save(ctx context.Context, p *model.GeneratedPost) error {
	const q = `
INSERT INTO generated_posts (
  id, user_id, daily_content_id, adapted_topic, user_question,
  user_answer, generated_content, week_start, created_at
) VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9);
`
	_, err := r.pool.Exec(ctx, q, p.ID, p.UserID, p.ContentID, p.AdaptedTopic,
		p.Question, p.Answer, p.Content, p.WeekStart, p.CreatedAt)
	return err
}

func (r *PostRepo) CountSince(ctx context.Context, userID string, weekStart time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM generated_posts WHERE user_id=$1 AND week_start >= $2;`
	var n int
	if err := r.pool.QueryRow(ctx, q, userID, weekStart).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
