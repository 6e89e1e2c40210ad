package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const uniqueViolation = "23505"

func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, email, username, first_name, last_name,
  niche, state, registered_at, updated_at, is_active
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (telegram_id) DO UPDATE SET
  email=$3, username=$4, first_name=$5, last_name=$6,
  niche=$7, state=$8, updated_at=$10, is_active=$11;
`
	_, err := r.pool.Exec(ctx, q, u.ID, u.TelegramID, u.Email, u.Username, u.FirstName,
		u.LastName, u.Niche, string(u.State), u.RegisteredAt, u.UpdatedAt, u.IsActive)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	const q = `
SELECT id, telegram_id, email, username, first_name, last_name,
       niche, state, registered_at, updated_at, is_active
  FROM users WHERE telegram_id=$1;
`
	row := r.pool.QueryRow(ctx, q, tgID)
	var u model.User
	var state string
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Email, &u.Username, &u.FirstName,
		&u.LastName, &u.Niche, &state, &u.RegisteredAt, &u.UpdatedAt, &u.IsActive); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.State = model.State(state)
	return &u, nil
}

func (r *UserRepo) UpdateState(ctx context.Context, tgID int64, state model.State) error {
	const q = `UPDATE users SET state=$2, updated_at=$3 WHERE telegram_id=$1;`
	tag, err := r.pool.Exec(ctx, q, tgID, string(state), time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) UpdateNiche(ctx context.Context, tgID int64, niche string) error {
	const q = `UPDATE users SET niche=$2, updated_at=$3 WHERE telegram_id=$1;`
	tag, err := r.pool.Exec(ctx, q, tgID, niche, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users;`
	var n int
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *UserRepo) ListForReminder(ctx context.Context) ([]*model.User, error) {
	const q = `
SELECT id, telegram_id, email, username, first_name, last_name,
       niche, state, registered_at, updated_at, is_active
  FROM users WHERE is_active AND state=$1;
`
	rows, err := r.pool.Query(ctx, q, string(model.StateRegistered))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		var state string
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Email, &u.Username, &u.FirstName,
			&u.LastName, &u.Niche, &state, &u.RegisteredAt, &u.UpdatedAt, &u.IsActive); err != nil {
			return nil, err
		}
		u.State = model.State(state)
		users = append(users, &u)
	}
	return users, rows.Err()
}
