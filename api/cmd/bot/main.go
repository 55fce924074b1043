// Command bot serves the extraction engine over Telegram: users send a roster
// PDF and get the unit summary plus a CSV sheet back.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"condo-extract/api/internal/app"
	"condo-extract/api/internal/config"
	"condo-extract/api/internal/httpserver"
	"condo-extract/api/internal/logging"
	"condo-extract/api/internal/telegram"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load("")
	if err != nil {
		l := logging.New(logging.Config{}, os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr).
		With().Str("service", "bot").Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("bot stopped")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	a, cleanup, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram authorized")

	r := &telegram.Router{
		Bot:      bot,
		Proc:     a.Pipeline,
		Log:      log.With().Str("component", "telegram").Logger(),
		MaxBytes: cfg.MaxUploadBytes(),
		Timeout:  cfg.ExtractTimeout,
	}

	// ListenForWebhook registers on DefaultServeMux, so health and metrics
	// live there too.
	http.Handle("/", a.Handler())
	srv := newServer(cfg, http.DefaultServeMux, log)

	if u := strings.TrimSpace(cfg.WebhookURL); u != "" {
		return webhookMode(ctx, bot, r, srv, u, log)
	}
	return pollingMode(ctx, bot, r, srv, log)
}

// newServer fronts the bot's mux with the same CORS policy as the service.
func newServer(cfg *config.Config, mux http.Handler, log zerolog.Logger) *httpserver.Server {
	return httpserver.New(":"+cfg.Port, mux, log, cfg.AllowedOrigins)
}

func webhookMode(ctx context.Context, bot *tgbotapi.BotAPI, r *telegram.Router, srv *httpserver.Server, baseURL string, log zerolog.Logger) error {
	path := telegram.WebhookPath(bot.Token)
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			go r.HandleUpdate(ctx, upd)
		}
		log.Info().Msg("webhook updates channel closed")
	}()

	log.Info().Msg("webhook mode")
	return srv.Run(ctx)
}

func pollingMode(ctx context.Context, bot *tgbotapi.BotAPI, r *telegram.Router, srv *httpserver.Server, log zerolog.Logger) error {
	// a stale webhook would make getUpdates fail with 409
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Warn().Err(err).Msg("delete webhook")
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	log.Info().Msg("polling mode")
	telegram.RunPolling(ctx, bot, log, func(upd tgbotapi.Update) {
		go r.HandleUpdate(ctx, upd)
	})
	return <-errc
}
