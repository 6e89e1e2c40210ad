package usecase

import (
	"context"
	"strings"
	"time"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/domain/ports/repository"
	"telegram-content-assistant/internal/infra/logging"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ PostUseCase = (*postUC)(nil)

const minAnswerWords = 10

// PostUseCase drives the daily-topic-to-post pipeline: weekly allowance,
// topic adaptation and post generation.
type PostUseCase interface {
	CheckLimit(ctx context.Context, userID string) (*model.PostLimit, error)
	// SuggestTopic fetches today's editorial content and adapts its topic to
	// the user's niche through the engine. The allowance is checked before
	// any dispatch; exceeding it short-circuits with ErrPostLimitReached.
	SuggestTopic(ctx context.Context, user *model.User) (*model.SessionContent, error)
	ValidateAnswer(answer string) error
	// GeneratePost validates the answer, runs the engine round trip, saves
	// the post and returns it with the refreshed allowance.
	GeneratePost(ctx context.Context, user *model.User, content *model.SessionContent, answer string) (*model.GeneratedPost, *model.PostLimit, error)
}

type postUC struct {
	posts       repository.PostRepository
	content     repository.DailyContentRepository
	eng         adapter.EngineClient
	weeklyLimit int
	testDay     int
	now         func() time.Time
	log         *zerolog.Logger
}

func NewPostUseCase(
	posts repository.PostRepository,
	content repository.DailyContentRepository,
	eng adapter.EngineClient,
	weeklyLimit, testDay int,
	logger *zerolog.Logger,
) *postUC {
	return &postUC{
		posts:       posts,
		content:     content,
		eng:         eng,
		weeklyLimit: weeklyLimit,
		testDay:     testDay,
		now:         time.Now,
		log:         logger,
	}
}

func (u *postUC) CheckLimit(ctx context.Context, userID string) (*model.PostLimit, error) {
	defer logging.TraceDuration(u.log, "PostUC.CheckLimit")()

	weekStart := model.WeekStartFor(u.now())
	var generated int
	err := withRetry(ctx, func() error {
		var e error
		generated, e = u.posts.CountSince(ctx, userID, weekStart)
		return e
	})
	if err != nil {
		return nil, err
	}
	remaining := u.weeklyLimit - generated
	if remaining < 0 {
		remaining = 0
	}
	return &model.PostLimit{
		CanGenerate:    generated < u.weeklyLimit,
		PostsGenerated: generated,
		PostsLimit:     u.weeklyLimit,
		RemainingPosts: remaining,
	}, nil
}

func (u *postUC) SuggestTopic(ctx context.Context, user *model.User) (*model.SessionContent, error) {
	defer logging.TraceDuration(u.log, "PostUC.SuggestTopic")()

	limit, err := u.CheckLimit(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !limit.CanGenerate {
		return nil, domain.ErrPostLimitReached
	}

	day := u.now().Day()
	if u.testDay > 0 {
		day = u.testDay
	}
	var content *model.DailyContent
	err = withRetry(ctx, func() error {
		var e error
		content, e = u.content.FindByDay(ctx, day)
		return e
	})
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNoContentForToday
		}
		return nil, err
	}

	adapted, err := u.eng.AdaptTopic(ctx, content.Topic, user.Niche)
	if err != nil {
		return nil, err
	}

	return &model.SessionContent{
		ContentID:    content.ID,
		Topic:        content.Topic,
		AdaptedTopic: adapted,
		Question:     content.Question,
	}, nil
}

// ValidateAnswer rejects answers that are empty, too short or mostly made of
// repeated words, before anything is dispatched to the engine.
func (u *postUC) ValidateAnswer(answer string) error {
	words := strings.Fields(strings.TrimSpace(answer))
	if len(words) == 0 {
		return domain.ErrAnswerEmpty
	}
	if len(words) < minAnswerWords {
		return domain.ErrAnswerTooShort
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	if len(unique)*2 < len(words) {
		return domain.ErrAnswerRepetitive
	}
	return nil
}

func (u *postUC) GeneratePost(ctx context.Context, user *model.User, content *model.SessionContent, answer string) (*model.GeneratedPost, *model.PostLimit, error) {
	defer logging.TraceDuration(u.log, "PostUC.GeneratePost")()

	if err := u.ValidateAnswer(answer); err != nil {
		return nil, nil, err
	}

	limit, err := u.CheckLimit(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if !limit.CanGenerate {
		return nil, nil, domain.ErrPostLimitReached
	}

	generated, err := u.eng.GeneratePost(ctx, adapter.GeneratePostRequest{
		Niche:      user.Niche,
		Topic:      content.BestTopic(),
		Question:   content.Question,
		UserAnswer: answer,
		PostGoal:   content.Goal,
	})
	if err != nil {
		return nil, nil, err
	}

	now := u.now()
	post := &model.GeneratedPost{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		ContentID:    content.ContentID,
		AdaptedTopic: content.AdaptedTopic,
		Question:     content.Question,
		Answer:       answer,
		Content:      sanitizeHTML(generated),
		WeekStart:    model.WeekStartFor(now),
		CreatedAt:    now,
	}
	if err := withRetry(ctx, func() error { return u.posts.Save(ctx, post) }); err != nil {
		return nil, nil, err
	}

	updated, err := u.CheckLimit(ctx, user.ID)
	if err != nil {
		// The post is saved; a stale counter is cosmetic.
		u.log.Warn().Err(err).Msg("failed to refresh post limit after save")
		updated = limit
	}
	return post, updated, nil
}
