package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/api"
	"github.com/LeventeLantos/church-messaging/internal/cache"
	"github.com/LeventeLantos/church-messaging/internal/config"
	"github.com/LeventeLantos/church-messaging/internal/database"
	"github.com/LeventeLantos/church-messaging/internal/logger"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/LeventeLantos/church-messaging/internal/scheduler"
	"github.com/LeventeLantos/church-messaging/internal/service"
	"github.com/LeventeLantos/church-messaging/internal/sms"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("messaging service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := database.NewPool(ctx, cfg.Database.PostgresURL, database.PoolOptions{})
	if err != nil {
		return err
	}
	defer pool.Close()

	sent, closeCache, err := newSentCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	messages := repo.NewPostgresMessageRepo(pool)
	recipients := repo.NewPostgresRecipientRepo(pool)
	members := repo.NewPostgresMemberRepo(pool)
	logs := repo.NewPostgresLogRepo(pool)

	gateway := newGateway(repo.NewPostgresSMSConfigRepo(pool), cfg.SMS, log)

	loc := cfg.Dispatch.Location
	dispatcher := service.NewDispatcher(
		messages,
		recipients,
		service.NewResolver(members),
		service.NewDeliverer(gateway, sms.NewPhoneNormalizer(cfg.SMS.DefaultRegion), logs, sent, loc, log),
		service.NewAdvancer(messages, loc),
		service.Options{BatchSize: cfg.Dispatch.BatchSize},
		log,
	)

	sched, err := newScheduler(cfg.Dispatch, dispatcher, log)
	if err != nil {
		return err
	}

	handler := api.NewHandler(dispatcher, logs, sched, log)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Router(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":      cfg.Server.Address,
		"batch":     cfg.Dispatch.BatchSize,
		"cron":      cfg.Dispatch.Cron,
		"timezone":  loc.String(),
		"redis":     cfg.Redis.Enabled,
		"region":    cfg.SMS.DefaultRegion,
		"log_level": cfg.Log.Level,
	}).Info("messaging service starting")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if sched != nil {
		sched.Start()
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newSentCache returns the Redis backed sent-today cache, or a no-op cache
// when Redis is not configured.
func newSentCache(ctx context.Context, cfg config.RedisConfig) (cache.SentCache, func(), error) {
	if !cfg.Enabled {
		return cache.Noop{}, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	return cache.NewRedisCache(rdb, cfg.TTL), func() { _ = rdb.Close() }, nil
}

func newGateway(configs sms.ConfigSource, cfg config.SMSConfig, log logrus.FieldLogger) *sms.Gateway {
	g := sms.NewGateway(configs, cfg.ConfigCacheTTL, log)
	g.Register("webhook", sms.NewWebhookProvider(cfg.HTTPTimeout))
	g.Register("log", sms.NewLogProvider(log))
	return g
}

// newScheduler returns a nil SchedulerControl when no cron spec is set, so
// the API reports the trigger as disabled.
func newScheduler(cfg config.DispatchConfig, p api.Processor, log logrus.FieldLogger) (api.SchedulerControl, error) {
	if cfg.Cron == "" {
		return nil, nil
	}

	s, err := scheduler.New(cfg.Cron, cfg.Location, func(ctx context.Context) {
		report, err := p.Process(ctx, nil)
		if err != nil {
			log.WithError(err).Error("scheduled dispatch pass failed")
			return
		}
		if report.Processed > 0 {
			log.WithField("processed", report.Processed).Info("scheduled dispatch pass finished")
		}
	}, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}
