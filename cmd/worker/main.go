// Package main runs the background job worker (reminder email blasts).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vetsimposio/backend/config"
	"github.com/vetsimposio/backend/internal/emaillogs"
	"github.com/vetsimposio/backend/internal/mailer"
	"github.com/vetsimposio/backend/internal/notify"
	"github.com/vetsimposio/backend/internal/pricing"
	"github.com/vetsimposio/backend/internal/registrations"
	"github.com/vetsimposio/backend/internal/worker"
	"github.com/vetsimposio/backend/pkg/database"
	"github.com/vetsimposio/backend/pkg/queue"
	"github.com/vetsimposio/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	registrationRepo := registrations.NewRepository(pool)
	emailLogsRepo := emaillogs.NewRepository(pool)

	smtp := mailer.New(cfg.Email)
	var mail notify.Mailer
	if smtp != nil {
		mail = smtp
	} else {
		logger.Warn("SMTP not configured, reminders will not be delivered")
	}
	dispatcher := notify.NewDispatcher(mail, emailLogsRepo, cfg.Pricing.Currency,
		time.Duration(cfg.Email.SendTimeout)*time.Second, logger)

	resolver := pricing.NewResolver(cfg.Pricing)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewReminderProcessor(registrationRepo, dispatcher, resolver, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
