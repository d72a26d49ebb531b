package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/logger"
	"portfolioRiskBot/internal/openai"
	"portfolioRiskBot/internal/scheduler"
	"portfolioRiskBot/internal/server"
	"portfolioRiskBot/internal/storage"
	"portfolioRiskBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(l)

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		l.Fatal().Err(err).Msg("db: open")
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		l.Fatal().Err(err).Msg("db: schema")
	}
	l.Info().Str("path", cfg.DBPath).Msg("db: schema ensured (analyses, usage)")

	store := storage.NewStore(db)

	sched := scheduler.New(l)
	retention := scheduler.NewUsageRetentionJob(store, cfg.RetentionDays, l)
	if err := sched.AddJob("@daily", retention); err != nil {
		l.Fatal().Err(err).Msg("scheduler: add job")
	}
	// prune once at startup, the daily run may be hours away
	if err := sched.RunNow(retention); err != nil {
		l.Warn().Err(err).Msg("scheduler: startup prune")
	}
	sched.Start()
	defer sched.Stop()

	analyzer := finance.NewAnalyzer(finance.NewYahooSource(l), l)
	renderer := finance.NewRenderer()

	var webhook http.HandlerFunc
	if cfg.BotEnabled() {
		deps := telegram.Deps{
			Store:      store,
			Analyzer:   analyzer,
			Renderer:   renderer,
			MaxTickers: cfg.MaxTickers,
			RiskFree:   cfg.RiskFree,
		}
		if cfg.OpenAIKey != "" {
			deps.Explainer = openai.NewCommentator(cfg.OpenAIKey)
		} else {
			l.Info().Msg("openai: no API key, /explain disabled")
		}
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, deps, l)
		if err != nil {
			l.Fatal().Err(err).Msg("telegram: init")
		}
		webhook = tg.WebhookHandler
	} else {
		l.Info().Msg("telegram: no token, bot disabled")
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        l,
		Analyzer:   analyzer,
		Renderer:   renderer,
		Webhook:    webhook,
		MaxTickers: cfg.MaxTickers,
		RiskFree:   cfg.RiskFree,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("http: shutdown")
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error().Err(err).Msg("server error")
		stop()
	}
}
