// Package main runs the symposium registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vetsimposio/backend/config"
	"github.com/vetsimposio/backend/internal/admin"
	"github.com/vetsimposio/backend/internal/auth"
	"github.com/vetsimposio/backend/internal/emaillogs"
	"github.com/vetsimposio/backend/internal/mailer"
	"github.com/vetsimposio/backend/internal/middleware"
	"github.com/vetsimposio/backend/internal/models"
	"github.com/vetsimposio/backend/internal/notify"
	"github.com/vetsimposio/backend/internal/payments"
	"github.com/vetsimposio/backend/internal/pricing"
	"github.com/vetsimposio/backend/internal/registrations"
	"github.com/vetsimposio/backend/pkg/database"
	"github.com/vetsimposio/backend/pkg/queue"
	"github.com/vetsimposio/backend/pkg/redis"
	"github.com/vetsimposio/backend/pkg/response"
	"github.com/vetsimposio/backend/pkg/utils"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it the reminder blast endpoint reports 503
	// but everything else keeps working.
	var jobQueue *queue.Queue
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, reminder scheduling disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	seedAdmin(ctx, authRepo, cfg.Admin, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationSvc := registrations.NewService(registrationRepo, logger)
	registrationHandler := registrations.NewHandler(registrationSvc, registrationRepo, logger)

	// Notifications
	emailLogsRepo := emaillogs.NewRepository(pool)
	smtp := mailer.New(cfg.Email)
	var mail notify.Mailer
	if smtp != nil {
		mail = smtp
	} else {
		logger.Warn("SMTP not configured, notifications disabled")
	}
	dispatcher := notify.NewDispatcher(mail, emailLogsRepo, cfg.Pricing.Currency,
		time.Duration(cfg.Email.SendTimeout)*time.Second, logger)

	// Payments
	resolver := pricing.NewResolver(cfg.Pricing)
	gateway := payments.NewMercadoPagoClient(cfg.MercadoPago, logger)
	engine := payments.NewEngine(gateway, registrationRepo, dispatcher, resolver, cfg.MercadoPago.Description, logger)
	paymentHandler := payments.NewHandler(engine, logger)
	webhookHandler := payments.NewWebhookHandler(engine, cfg.MercadoPago.WebhookSecret, logger)

	// Admin
	adminHandler := admin.NewHandler(registrationRepo, emailLogsRepo, engine, resolver, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health and metrics
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API
	api := router.Group("/api")
	{
		api.POST("/registrations", registrationHandler.Register)
		api.GET("/tickets/:code", registrationHandler.GetTicket)
		api.GET("/prices", func(c *gin.Context) {
			now := time.Now()
			response.OK(c, gin.H{
				"currency":       resolver.Currency(),
				"base":           resolver.BasePriceAt(now),
				"yape":           resolver.ExpectedAt(now, models.MethodYape),
				"card":           resolver.ExpectedAt(now, models.MethodCard),
				"early_deadline": cfg.Pricing.Deadline,
			})
		})
		api.POST("/payments/charge", paymentHandler.Charge)
		api.GET("/payments/:id/status", paymentHandler.Status)
	}

	// Webhooks (no JWT; signature validated in handler when configured)
	router.POST("/webhooks/mercadopago", webhookHandler.Receive)
	router.GET("/webhooks/mercadopago", webhookHandler.Healthcheck)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Admin API (JWT required)
	adminAPI := router.Group("/admin")
	adminAPI.Use(middleware.JWT(jwtService))
	{
		adminAPI.GET("/attendees", adminHandler.ListAttendees)
		adminAPI.GET("/attendees/export", adminHandler.ExportAttendees)
		adminAPI.POST("/attendees/:id/mark-paid", adminHandler.MarkPaid)
		adminAPI.DELETE("/attendees/:id", adminHandler.DeleteAttendee)
		adminAPI.GET("/stats", adminHandler.Stats)
		adminAPI.GET("/emails", adminHandler.ListEmails)
		adminAPI.GET("/unreconciled", adminHandler.ListUnreconciled)
		adminAPI.POST("/reminders", adminHandler.ScheduleReminders)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func seedAdmin(ctx context.Context, repo *auth.Repository, cfg config.AdminConfig, logger *zap.Logger) {
	if cfg.Email == "" || cfg.Password == "" {
		return
	}
	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		logger.Error("hash admin password", zap.Error(err))
		return
	}
	if err := repo.Seed(ctx, cfg.Email, hash); err != nil {
		logger.Error("seed admin", zap.Error(err))
		return
	}
	logger.Info("admin account ensured", zap.String("email", cfg.Email))
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
