package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/model"
	"telegram-content-assistant/internal/domain/ports/adapter"
)

func newPostUC(posts *mockPostRepo, content *mockContentRepo, eng *mockEngine) *postUC {
	uc := NewPostUseCase(posts, content, eng, 10, 0, testLogger())
	uc.now = func() time.Time {
		return time.Date(2026, time.August, 12, 15, 0, 0, 0, time.UTC) // a Wednesday
	}
	return uc
}

func TestValidateAnswer(t *testing.T) {
	uc := newPostUC(&mockPostRepo{}, &mockContentRepo{}, &mockEngine{})

	cases := map[string]struct {
		answer string
		want   error
	}{
		"empty":          {"", domain.ErrAnswerEmpty},
		"whitespace":     {"   \n\t ", domain.ErrAnswerEmpty},
		"three words":    {"I like trains", domain.ErrAnswerTooShort},
		"nine words":     {"one two three four five six seven eight nine", domain.ErrAnswerTooShort},
		"repetitive":     {strings.Repeat("same ", 20), domain.ErrAnswerRepetitive},
		"good answer":    {"My clients mostly struggle with consistency because daily routines fall apart quickly", nil},
		"exactly ten ok": {"alpha beta gamma delta epsilon zeta eta theta iota kappa", nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := uc.ValidateAnswer(tc.answer); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	ctx := context.Background()
	var gotWeekStart time.Time
	posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, weekStart time.Time) (int, error) {
		gotWeekStart = weekStart
		return 7, nil
	}}
	uc := newPostUC(posts, &mockContentRepo{}, &mockEngine{})

	limit, err := uc.CheckLimit(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckLimit: %v", err)
	}
	if !limit.CanGenerate || limit.PostsGenerated != 7 || limit.RemainingPosts != 3 {
		t.Fatalf("limit = %+v", limit)
	}
	// Monday of the week containing Wed 2026-08-12.
	wantMonday := time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)
	if !gotWeekStart.Equal(wantMonday) {
		t.Fatalf("weekStart = %v, want %v", gotWeekStart, wantMonday)
	}
}

func TestSuggestTopic(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: "u1", TelegramID: 42, Niche: "fitness"}

	t.Run("adapts today's topic", func(t *testing.T) {
		posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
			return 0, nil
		}}
		content := &mockContentRepo{FindByDayFunc: func(ctx context.Context, day int) (*model.DailyContent, error) {
			if day != 12 {
				t.Fatalf("day = %d, want 12", day)
			}
			return &model.DailyContent{ID: "c12", Topic: "Morning habits", Question: "What is yours?"}, nil
		}}
		eng := &mockEngine{AdaptTopicFunc: func(ctx context.Context, topic, niche string) (string, error) {
			return "Morning habits for athletes", nil
		}}
		uc := newPostUC(posts, content, eng)

		sc, err := uc.SuggestTopic(ctx, user)
		if err != nil {
			t.Fatalf("SuggestTopic: %v", err)
		}
		if sc.AdaptedTopic != "Morning habits for athletes" || sc.ContentID != "c12" {
			t.Fatalf("content = %+v", sc)
		}
	})

	t.Run("limit short-circuits before any dispatch", func(t *testing.T) {
		posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
			return 10, nil
		}}
		eng := &mockEngine{AdaptTopicFunc: func(ctx context.Context, topic, niche string) (string, error) {
			t.Fatal("engine must not be called over the limit")
			return "", nil
		}}
		uc := newPostUC(posts, &mockContentRepo{}, eng)

		_, err := uc.SuggestTopic(ctx, user)
		if !errors.Is(err, domain.ErrPostLimitReached) {
			t.Fatalf("err = %v, want ErrPostLimitReached", err)
		}
	})

	t.Run("no content for today", func(t *testing.T) {
		posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
			return 0, nil
		}}
		content := &mockContentRepo{FindByDayFunc: func(ctx context.Context, day int) (*model.DailyContent, error) {
			return nil, domain.ErrNotFound
		}}
		uc := newPostUC(posts, content, &mockEngine{})

		_, err := uc.SuggestTopic(ctx, user)
		if !errors.Is(err, domain.ErrNoContentForToday) {
			t.Fatalf("err = %v, want ErrNoContentForToday", err)
		}
	})
}

func TestGeneratePost(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: "u1", TelegramID: 42, Niche: "fitness"}
	content := &model.SessionContent{
		ContentID:    "c12",
		Topic:        "Morning habits",
		AdaptedTopic: "Morning habits for athletes",
		Question:     "What is yours?",
		Goal:         "start a discussion and collect comments",
	}
	answer := "My own morning starts with a short run followed by planning the day"

	t.Run("saves sanitized post and refreshes allowance", func(t *testing.T) {
		var saved *model.GeneratedPost
		count := 3
		posts := &mockPostRepo{
			CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
				return count, nil
			},
			SaveFunc: func(ctx context.Context, p *model.GeneratedPost) error {
				saved = p
				count++
				return nil
			},
		}
		eng := &mockEngine{GeneratePostFunc: func(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
			if req.Topic != "Morning habits for athletes" {
				t.Fatalf("topic = %q, want adapted topic", req.Topic)
			}
			if req.PostGoal != content.Goal {
				t.Fatalf("goal = %q", req.PostGoal)
			}
			return "<p>First line</p><strong>bold</strong>", nil
		}}
		uc := newPostUC(posts, &mockContentRepo{}, eng)

		post, limit, err := uc.GeneratePost(ctx, user, content, answer)
		if err != nil {
			t.Fatalf("GeneratePost: %v", err)
		}
		if saved == nil {
			t.Fatal("post was not saved")
		}
		if post.Content != "First line\n\n<b>bold</b>" {
			t.Fatalf("content = %q", post.Content)
		}
		wantMonday := time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)
		if !post.WeekStart.Equal(wantMonday) {
			t.Fatalf("weekStart = %v, want %v", post.WeekStart, wantMonday)
		}
		if limit.PostsGenerated != 4 || limit.RemainingPosts != 6 {
			t.Fatalf("limit = %+v", limit)
		}
	})

	t.Run("short answer never reaches the engine", func(t *testing.T) {
		eng := &mockEngine{GeneratePostFunc: func(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
			t.Fatal("engine must not be called for an invalid answer")
			return "", nil
		}}
		uc := newPostUC(&mockPostRepo{}, &mockContentRepo{}, eng)

		_, _, err := uc.GeneratePost(ctx, user, content, "too short")
		if !errors.Is(err, domain.ErrAnswerTooShort) {
			t.Fatalf("err = %v, want ErrAnswerTooShort", err)
		}
	})

	t.Run("limit reached before dispatch", func(t *testing.T) {
		posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
			return 10, nil
		}}
		eng := &mockEngine{GeneratePostFunc: func(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
			t.Fatal("engine must not be called over the limit")
			return "", nil
		}}
		uc := newPostUC(posts, &mockContentRepo{}, eng)

		_, _, err := uc.GeneratePost(ctx, user, content, answer)
		if !errors.Is(err, domain.ErrPostLimitReached) {
			t.Fatalf("err = %v, want ErrPostLimitReached", err)
		}
	})

	t.Run("engine timeout propagates", func(t *testing.T) {
		posts := &mockPostRepo{CountSinceFunc: func(ctx context.Context, userID string, ws time.Time) (int, error) {
			return 0, nil
		}}
		eng := &mockEngine{GeneratePostFunc: func(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
			return "", domain.ErrExternalTimeout
		}}
		uc := newPostUC(posts, &mockContentRepo{}, eng)

		_, _, err := uc.GeneratePost(ctx, user, content, answer)
		if !errors.Is(err, domain.ErrExternalTimeout) {
			t.Fatalf("err = %v, want ErrExternalTimeout", err)
		}
	})
}

func TestSanitizeHTML(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"paragraphs":       {"<p>one</p><p>two</p>", "one\n\ntwo"},
		"strong and em":    {"<strong>b</strong> and <em>i</em>", "<b>b</b> and <i>i</i>"},
		"unsupported tags": {`<div class="x"><h1>T</h1><ul><li>a</li></ul></div>`, "Ta"},
		"newline collapse": {"a\n\n\n\n\nb", "a\n\nb"},
		"kept tags":        {"<b>bold</b> <i>it</i> <code>c</code>", "<b>bold</b> <i>it</i> <code>c</code>"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := sanitizeHTML(tc.in); got != tc.want {
				t.Fatalf("sanitizeHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
