package model

import "time"

// DailyContent is one row of the editorial calendar: a universal topic and a
// guiding question for a given day of the month, plus the broadcast text the
// reminder worker sends.
type DailyContent struct {
	ID              string
	DayOfMonth      int
	Topic           string
	Question        string
	ReminderMessage string
	IsActive        bool
}

// PostLimit describes how much of the weekly allowance a user has consumed.
type PostLimit struct {
	CanGenerate    bool
	PostsGenerated int
	PostsLimit     int
	RemainingPosts int
}

// GeneratedPost is a finished post stored in history. WeekStart anchors the
// weekly counter: remaining allowance is a COUNT over this table for the
// current week.
type GeneratedPost struct {
	ID           string
	UserID       string
	ContentID    string
	AdaptedTopic string
	Question     string
	Answer       string
	Content      string
	WeekStart    time.Time
	CreatedAt    time.Time
}

// WeekStartFor returns the Monday of the week containing t, truncated to a
// date. It is the single anchor used when saving and counting posts.
func WeekStartFor(t time.Time) time.Time {
	wd := (int(t.Weekday()) + 6) % 7 // Monday = 0
	d := t.AddDate(0, 0, -wd)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}
