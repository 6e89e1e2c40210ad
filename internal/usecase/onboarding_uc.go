package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/domain/ports/repository"
	"telegram-content-assistant/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ OnboardingUseCase = (*onboardingUC)(nil)

// OnboardingUseCase covers the registration funnel: email verification,
// niche classification and confirmation.
type OnboardingUseCase interface {
	CanRegister(ctx context.Context) (bool, error)
	FindUser(ctx context.Context, tgID int64) (*model.User, error)
	// VerifyEmail extracts an address from free text, validates it against
	// the whitelist and creates (or re-verifies) the user.
	VerifyEmail(ctx context.Context, tgID int64, username, firstName, lastName, text string) (*model.User, error)
	ClassifyNiche(ctx context.Context, description string) (string, error)
	ConfirmNiche(ctx context.Context, tgID int64, niche string) error
	SetState(ctx context.Context, tgID int64, state model.State) error
	MarkBlocked(ctx context.Context, tgID int64) error
}

type onboardingUC struct {
	users    repository.UserRepository
	emails   repository.AllowedEmailRepository
	eng      adapter.EngineClient
	maxUsers int
	log      *zerolog.Logger
}

func NewOnboardingUseCase(
	users repository.UserRepository,
	emails repository.AllowedEmailRepository,
	eng adapter.EngineClient,
	maxUsers int,
	logger *zerolog.Logger,
) *onboardingUC {
	return &onboardingUC{
		users:    users,
		emails:   emails,
		eng:      eng,
		maxUsers: maxUsers,
		log:      logger,
	}
}

var emailRegexp = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// extractEmail pulls the first email-looking token out of free text. Users
// paste addresses surrounded by greetings and punctuation; scanning beats
// strict full-string matching here.
func extractEmail(text string) string {
	return strings.ToLower(emailRegexp.FindString(strings.TrimSpace(text)))
}

func (u *onboardingUC) CanRegister(ctx context.Context) (bool, error) {
	defer logging.TraceDuration(u.log, "OnboardingUC.CanRegister")()
	count, err := u.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count < u.maxUsers, nil
}

func (u *onboardingUC) FindUser(ctx context.Context, tgID int64) (*model.User, error) {
	user, err := u.users.FindByTelegramID(ctx, tgID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

func (u *onboardingUC) VerifyEmail(ctx context.Context, tgID int64, username, firstName, lastName, text string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "OnboardingUC.VerifyEmail")()

	email := extractEmail(text)
	if email == "" {
		return nil, domain.ErrNoEmailFound
	}

	var allowed bool
	err := withRetry(ctx, func() error {
		var e error
		allowed, e = u.emails.Exists(ctx, email)
		return e
	})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrEmailNotAllowed
	}

	existing, err := u.users.FindByTelegramID(ctx, tgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		existing.State = model.StateEmailVerified
		if err := withRetry(ctx, func() error {
			return u.users.UpdateState(ctx, tgID, model.StateEmailVerified)
		}); err != nil {
			return nil, err
		}
		return existing, nil
	}

	user, err := model.NewUser("", tgID, email, username, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := withRetry(ctx, func() error { return u.users.Save(ctx, user) }); err != nil {
		return nil, err
	}
	u.log.Info().Int64("tg_id", tgID).Msg("user registered")
	return user, nil
}

func (u *onboardingUC) ClassifyNiche(ctx context.Context, description string) (string, error) {
	defer logging.TraceDuration(u.log, "OnboardingUC.ClassifyNiche")()
	return u.eng.DetectNiche(ctx, description)
}

// ConfirmNiche persists the confirmed niche and advances the user to
// registered. The niche stays immutable afterwards except through the
// explicit change-niche action.
func (u *onboardingUC) ConfirmNiche(ctx context.Context, tgID int64, niche string) error {
	defer logging.TraceDuration(u.log, "OnboardingUC.ConfirmNiche")()
	if err := withRetry(ctx, func() error { return u.users.UpdateNiche(ctx, tgID, niche) }); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		return u.users.UpdateState(ctx, tgID, model.StateRegistered)
	})
}

func (u *onboardingUC) SetState(ctx context.Context, tgID int64, state model.State) error {
	return withRetry(ctx, func() error { return u.users.UpdateState(ctx, tgID, state) })
}

func (u *onboardingUC) MarkBlocked(ctx context.Context, tgID int64) error {
	u.log.Info().Int64("tg_id", tgID).Msg("marking user blocked")
	return u.users.UpdateState(ctx, tgID, model.StateBlocked)
}
