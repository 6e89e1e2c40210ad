package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-content-assistant/internal/application"
	"telegram-content-assistant/internal/config"
	"telegram-content-assistant/internal/engine"
	pg "telegram-content-assistant/internal/infra/db/postgres"
	"telegram-content-assistant/internal/infra/logging"
	"telegram-content-assistant/internal/infra/metrics"
	"telegram-content-assistant/internal/infra/notify"
	red "telegram-content-assistant/internal/infra/redis"
	"telegram-content-assistant/internal/infra/sched"
	tele "telegram-content-assistant/internal/infra/telegram"
	"telegram-content-assistant/internal/infra/web"
	"telegram-content-assistant/internal/infra/worker"
	"telegram-content-assistant/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	sessionRepo := red.NewSessionRepo(redisClient, cfg.Redis.SessionTTL)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	emailRepo := pg.NewAllowedEmailRepo(pool)
	contentRepo := pg.NewDailyContentRepo(pool)
	postRepo := pg.NewPostRepo(pool)

	// ---- Engine: registry, client, sweeper ----
	registry := engine.NewRegistry()
	engineClient := engine.NewClient(registry, cfg.Engine, logger)
	engine.StartSweeper(ctx, registry, cfg.Engine.SweepInterval, cfg.Engine.SweepAge, logger)

	// ---- Use cases ----
	onboardingUC := usecase.NewOnboardingUseCase(userRepo, emailRepo, engineClient, cfg.Bot.MaxUsers, logger)
	postUC := usecase.NewPostUseCase(postRepo, contentRepo, engineClient, cfg.Posts.WeeklyLimit, cfg.Posts.TestDay, logger)

	// ---- Telegram ----
	bot, err := tele.NewBot(&cfg.Bot, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Worker pool, notifier, flow ----
	wpool := worker.NewPool(4, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	notifier := notify.NewAdminNotifier(bot, wpool, cfg.Bot.AdminChatID, logger)
	flow := application.NewFlow(bot, onboardingUC, postUC, sessionRepo, notifier, nil, logger)
	bot.AttachFlow(flow)

	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Webhook callback server ----
	srv := web.NewServer(registry, cfg.Web.Port, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("webhook server error")
		}
	}()

	// ---- Daily reminder ----
	reminder, err := sched.NewReminderWorker(cfg.Reminder, userRepo, contentRepo, bot, wpool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("reminder worker")
	}
	go func() { _ = reminder.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	bot.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webhook server shutdown")
	}
}
