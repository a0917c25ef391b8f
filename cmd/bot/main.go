package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/subosito/gotenv"

	"github.com/Spok95/offer-bot/internal/bot"
	"github.com/Spok95/offer-bot/internal/config"
	"github.com/Spok95/offer-bot/internal/dialog"
	"github.com/Spok95/offer-bot/internal/domain/company"
	"github.com/Spok95/offer-bot/internal/domain/offers"
	"github.com/Spok95/offer-bot/internal/domain/users"
	"github.com/Spok95/offer-bot/internal/domain/workspaces"
	"github.com/Spok95/offer-bot/internal/infra/analytics"
	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/infra/db"
	httpx "github.com/Spok95/offer-bot/internal/infra/http"
	"github.com/Spok95/offer-bot/internal/infra/logger"
	"github.com/Spok95/offer-bot/internal/settings"
)

func main() {
	// .env необязателен
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("bad timezone", "timezone", cfg.App.Timezone, "err", err)
		return
	}

	if err := db.Migrate(cfg.Postgres.DSN, cfg.Postgres.Migrations); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	var kw *kafka.Writer
	if len(cfg.Kafka.Brokers) > 0 {
		kw = analytics.NewKafkaWriter(cfg.Kafka.Brokers)
		defer func() { _ = kw.Close() }()
	} else {
		log.Warn("kafka brokers not set, analytics goes to log only")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}
	log.Info("telegram authorized", "username", api.Self.UserName)

	pub := analytics.NewPublisher(kw, cfg.Kafka.Topic, log)
	// до закрытия writer
	defer pub.Wait()

	b := bot.New(api, log, cfg.Telegram.AdminChatID, bot.Deps{
		Users:       users.NewRepo(pool),
		States:      dialog.NewRepo(pool),
		Workspaces:  workspaces.NewRepo(pool),
		Companies:   company.NewCached(company.NewRepo(pool), rdb, cfg.Redis.CompanyTTL),
		Acceptances: offers.NewRepo(pool),
		Billing:     billing.NewClient(cfg.Billing.BaseURL, cfg.Billing.Token, cfg.Billing.Timeout),
		Settings:    settings.NewStore(),
		Analytics:   pub,
		Location:    loc,
	})

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
