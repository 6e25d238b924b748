package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"form-intake/pkg/api"
	"form-intake/pkg/bot"
	"form-intake/pkg/clients/telegram"
	"form-intake/pkg/clients/textmagic"
	"form-intake/pkg/clients/twilio"
	"form-intake/pkg/config"
	"form-intake/pkg/logging"
	"form-intake/pkg/notify"
	"form-intake/pkg/services"
	"form-intake/pkg/storage"
	"form-intake/pkg/validation"
)

func main() {
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if envErr != nil {
		log.WithField("prefix", "main").Debug("no .env file loaded")
	}
	if err := cfg.Validate(); err != nil {
		log.WithField("prefix", "main").WithError(err).Fatal("invalid configuration")
	}

	if err := run(cfg); err != nil {
		log.WithField("prefix", "main").WithError(err).Fatal("server stopped with error")
	}
	log.WithField("prefix", "main").Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the user store
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithField("prefix", "main").WithError(err).Error("error closing store")
		}
	}()

	// Initialize API clients
	var tg telegram.Client
	if cfg.BotToken != "" {
		if tg, err = telegram.NewClient(cfg.BotToken); err != nil {
			return err
		}
	}

	// Initialize services
	dispatcher := notify.NewDispatcher(buildNotifier(cfg, tg), cfg.NotifyQueueSize)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(drainCtx); err != nil {
			log.WithField("prefix", "main").WithError(err).Warn("notification queue not fully drained")
		}
	}()

	submissionService := services.NewSubmissionService(store, dispatcher)
	statsService := services.NewStatsService(store)

	gin.SetMode(cfg.GinMode)

	var ready atomic.Bool
	handlers := api.NewHandlers(submissionService, ready.Load)
	router, err := api.NewRouter(handlers, api.RouterOptions{
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		EnableGzip:  cfg.EnableGzip,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("prefix", "main").WithField("port", cfg.Port).WithField("store", cfg.StoreBackend).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if tg != nil {
		commands := bot.New(tg, statsService, bot.Options{
			AdminChat:     cfg.AdminChatID,
			RestrictStats: cfg.RestrictStatsCmd,
			Username:      tg.Username(),
		})
		updates := tg.Updates()
		g.Go(func() error {
			log.WithField("prefix", "main").WithField("bot", tg.Username()).Info("bot listening for commands")
			return commands.Run(gctx, updates)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		log.WithField("prefix", "main").Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if tg != nil {
			tg.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	ready.Store(true)
	return g.Wait()
}

func buildNotifier(cfg *config.Config, tg telegram.Client) notify.Notifier {
	adminPhone := validation.NormalizeMobile(cfg.AdminPhone)

	switch cfg.NotifyChannel {
	case config.ChannelTelegram:
		return notify.NewChatNotifier(tg, cfg.AdminChatID)
	case config.ChannelTwilio:
		return notify.NewSMSNotifier(twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom), adminPhone)
	case config.ChannelTextMagic:
		return notify.NewPhoneNotifier(textmagic.NewClient(cfg.TextMagicUsername, cfg.TextMagicAPIKey), adminPhone)
	default:
		return notify.Discard()
	}
}
