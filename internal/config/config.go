package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string `yaml:"token"`
	Workers     int    `yaml:"workers"` // concurrent update workers
	MaxUsers    int    `yaml:"max_users"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL        string        `yaml:"url"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// EngineConfig describes the external workflow engine boundary: one outbound
// webhook per job kind, plus the publicly reachable base URL the engine posts
// callbacks back to.
type EngineConfig struct {
	NicheURL        string        `yaml:"niche_url"`
	TopicURL        string        `yaml:"topic_url"`
	PostURL         string        `yaml:"post_url"`
	CallbackBaseURL string        `yaml:"callback_base_url"`
	AcceptTimeout   time.Duration `yaml:"accept_timeout"` // engine must accept the job within this
	WaitTimeout     time.Duration `yaml:"wait_timeout"`   // full processing deadline
	SweepAge        time.Duration `yaml:"sweep_age"`      // registry entries older than this are dropped
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type PostsConfig struct {
	WeeklyLimit int `yaml:"weekly_limit"`
	// TestDay forces the editorial day of month when > 0, for staging runs.
	TestDay int `yaml:"test_day"`
}

type ReminderConfig struct {
	Hour     int    `yaml:"hour"`
	Minute   int    `yaml:"minute"`
	Timezone string `yaml:"timezone"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
	Web      WebConfig      `yaml:"web"`
	Posts    PostsConfig    `yaml:"posts"`
	Reminder ReminderConfig `yaml:"reminder"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.MaxUsers <= 0 {
		cfg.Bot.MaxUsers = 1000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.SessionTTL <= 0 {
		cfg.Redis.SessionTTL = time.Hour
	}
	if cfg.Engine.AcceptTimeout <= 0 {
		cfg.Engine.AcceptTimeout = 30 * time.Second
	}
	if cfg.Engine.WaitTimeout <= 0 {
		cfg.Engine.WaitTimeout = 180 * time.Second
	}
	if cfg.Engine.SweepAge <= 0 {
		cfg.Engine.SweepAge = 5 * time.Minute
	}
	if cfg.Engine.SweepInterval <= 0 {
		cfg.Engine.SweepInterval = time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Posts.WeeklyLimit <= 0 {
		cfg.Posts.WeeklyLimit = 10
	}
	if cfg.Reminder.Hour == 0 && cfg.Reminder.Minute == 0 {
		cfg.Reminder.Hour = 9
	}
	if cfg.Reminder.Timezone == "" {
		cfg.Reminder.Timezone = "Europe/Moscow"
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Engine.NicheURL == "" || cfg.Engine.TopicURL == "" || cfg.Engine.PostURL == "" {
		return nil, errors.New("engine.niche_url, engine.topic_url and engine.post_url are required")
	}
	if cfg.Engine.CallbackBaseURL == "" {
		return nil, errors.New("engine.callback_base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
