// Package main runs the academic forum HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/global-academic-forum/backend/config"
	"github.com/global-academic-forum/backend/internal/auth"
	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/events"
	"github.com/global-academic-forum/backend/internal/institutions"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/plans"
	"github.com/global-academic-forum/backend/internal/realtime"
	"github.com/global-academic-forum/backend/internal/recordings"
	"github.com/global-academic-forum/backend/internal/registrations"
	"github.com/global-academic-forum/backend/internal/subscriptions"
	"github.com/global-academic-forum/backend/pkg/database"
	"github.com/global-academic-forum/backend/pkg/queue"
	"github.com/global-academic-forum/backend/pkg/redis"
	"github.com/global-academic-forum/backend/pkg/response"
	"github.com/global-academic-forum/backend/pkg/storage"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jwtValidate := auth.IdentityValidator(jwtService)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Plan catalog (embedded, read-only)
	catalog, err := plans.NewCatalog()
	if err != nil {
		logger.Fatal("plan catalog", zap.Error(err))
	}
	planHandler := plans.NewHandler(catalog)

	// Subscriptions and entitlements
	subStore := subscriptions.NewPostgresStore(pool)
	resolver := entitlements.NewResolver(subStore, catalog, logger)
	entHandler := entitlements.NewHandler(resolver)
	subHandler := subscriptions.NewHandler(subStore, catalog, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	billingWebhook := subscriptions.NewWebhookHandler(jobQueue, cfg.Billing.WebhookSecret, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Institutions and series
	instRepo := institutions.NewRepository(pool)
	instHandler := institutions.NewHandler(instRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, resolver)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, resolver, logger)

	// Recordings
	recordingRepo := recordings.NewRepository(pool)
	recordingHandler := recordings.NewHandler(recordingRepo, eventRepo, resolver, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public catalog and program browsing
	router.GET("/plans", planHandler.List)
	router.GET("/plans/:id", planHandler.GetByID)
	router.GET("/institutions", instHandler.List)
	router.GET("/institutions/:id", instHandler.Get)
	router.GET("/institutions/:id/series", instHandler.ListSeries)

	// Events are browsable without an account; the optional identity header
	// feeds the access decision on the detail endpoints.
	router.GET("/events", maybeAuth(jwtValidate), eventHandler.List)
	router.GET("/events/:id", eventHandler.Get)
	router.GET("/events/:id/access", maybeAuth(jwtValidate), eventHandler.Access)
	router.GET("/events/:id/recording", maybeAuth(jwtValidate), recordingHandler.GetByEvent)
	router.GET("/recordings/:id/download-url", maybeAuth(jwtValidate), recordingHandler.GenerateDownloadURL)
	router.GET("/registrations/:token/validate", registrationHandler.ValidateToken)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtValidate))
	{
		api.GET("/me", authHandler.Me)
		api.GET("/me/subscription", entHandler.MySubscription)
		api.GET("/me/entitlement", entHandler.MyEntitlement)
		api.GET("/me/registrations", registrationHandler.ListMine)

		// Users (platform admin; role and affiliation management)
		api.GET("/users", middleware.RequireRole(string(models.RolePlatformAdmin)), authHandler.List)
		api.PATCH("/users/:id", middleware.RequireRole(string(models.RolePlatformAdmin)), authHandler.UpdateUser)

		// Institutions
		api.POST("/institutions", middleware.RequireRole(string(models.RolePlatformAdmin)), instHandler.Create)
		api.GET("/institutions/:id/members", instHandler.ListMembers)
		api.POST("/institutions/:id/series", instHandler.CreateSeries)
		api.POST("/institutions/:id/subscription", subHandler.StartInstitutional)

		// Events
		api.POST("/events", eventHandler.Create)
		api.PATCH("/events/:id", eventHandler.Update)
		api.PATCH("/events/:id/status", eventHandler.UpdateStatus)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/speakers", eventHandler.AddSpeaker)
		api.GET("/events/:id/audience_count", eventHandler.AudienceCount(hub))
		api.POST("/events/:id/register", registrationHandler.Register)
		api.GET("/events/:id/registrations", registrationHandler.ListByEvent)
		api.POST("/events/:id/recording", recordingHandler.Publish)

		// Subscriptions
		api.POST("/subscriptions", subHandler.StartIndividual)
		api.DELETE("/subscriptions", subHandler.Cancel)
	}

	// Webhooks (no JWT; HMAC signature checked in the handler)
	router.POST("/webhooks/billing", billingWebhook.BillingEvent)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, eventRepo, resolver, logger, jwtValidate))

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

// maybeAuth sets the caller identity when a valid bearer token is present but
// never rejects the request. Anonymous browsing stays open.
func maybeAuth(validate middleware.ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) > 7 && header[:7] == "Bearer " {
			if identity, err := validate(header[7:]); err == nil {
				c.Set(middleware.ContextUserID, identity.UserID)
				c.Set(middleware.ContextUserRole, identity.Role)
				c.Set(middleware.ContextUserEmail, identity.Email)
				c.Set(middleware.ContextInstitutionID, identity.InstitutionID)
			}
		}
		c.Next()
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
