// @title                       Cofre Forte API
// @version                     1.0
// @description                 Subscription tracker: billing projection, dashboard, calendar and reports.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Auth0 access token as "Bearer <token>"
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/cofreforte/cofre-backend/docs"
	"github.com/cofreforte/cofre-backend/internal/config"
	"github.com/cofreforte/cofre-backend/internal/handler"
	"github.com/cofreforte/cofre-backend/internal/messaging"
	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/repository/postgres"
	"github.com/cofreforte/cofre-backend/internal/repository/storage"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	achievementRepo := postgres.NewAchievementRepository(pool)

	// Event fan-out: websocket clients always, the broker when configured
	hub := websocket.NewHub()
	hub.SetGauge(metrics.WebSocketConnections)
	publishers := []websocket.EventPublisher{hub}
	if cfg.AMQP.URL != "" {
		broker, err := messaging.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer broker.Close()
		publishers = append(publishers, broker)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing events to RabbitMQ")
	}
	events := websocket.NewFanOut(publishers...)

	// Logo storage is optional
	var imageService *service.ImageService
	if cfg.S3.Enabled() {
		store, err := storage.NewS3ObjectStore(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		imageService = service.NewImageService(store)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Logo uploads enabled")
	} else {
		imageService = service.NewImageService(nil)
		log.Warn().Msg("S3 not configured, logo uploads disabled")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, workspaceRepo)
	achievementService := service.NewAchievementService(achievementRepo, subscriptionRepo)
	achievementService.SetEventPublisher(events)

	logoService := service.NewLogoService(subscriptionRepo, imageService)
	logoService.SetEventPublisher(events)

	subscriptionService := service.NewSubscriptionService(subscriptionRepo, logoService)
	subscriptionService.SetEventPublisher(events)
	subscriptionService.SetAchievementChecker(achievementService)
	subscriptionService.SetSharePaymentKey(cfg.SharePaymentKey)

	dashboardService := service.NewDashboardService(subscriptionRepo)
	dashboardService.SetSimulationRecorder(achievementService)

	calendarService := service.NewCalendarService(subscriptionRepo)
	calendarService.SetVisitRecorder(achievementService)

	reportService := service.NewReportService(subscriptionRepo, paymentRepo)

	renewalService := service.NewRenewalService(subscriptionRepo, paymentRepo)
	renewalService.SetEventPublisher(events)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, service.NewWorkspaceResolver(authService))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	// Rate limiting is shared through Redis when available
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		limiter = middleware.NewRedisRateLimiter(rdb, "cofre:ratelimit", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		log.Info().Msg("Using Redis rate limiter")
	} else {
		memLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, middleware.DefaultBurstSize)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		Skipper: func(c echo.Context) bool {
			// swagger UI loads inline scripts
			return strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.OpenAPI3Handler(cfg.Port, cfg.PublicURL))

	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)
	e.GET("/ws", wsHandler.HandleWS)

	handler.RegisterRoutes(e, authMiddleware, middleware.RateLimitMiddleware(limiter), handler.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, logoService),
		Dashboard:    handler.NewDashboardHandler(dashboardService, logoService),
		Calendar:     handler.NewCalendarHandler(calendarService, logoService),
		Report:       handler.NewReportHandler(reportService),
		Achievement:  handler.NewAchievementHandler(achievementService),
	})

	// Background renewal of elapsed charges
	scheduler := service.NewRenewalScheduler(renewalService, log.Logger, cfg.RenewalSchedule)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RenewalSchedule).Msg("Failed to start renewal scheduler")
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
