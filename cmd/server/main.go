package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	appidentity "github.com/studyhall/backend/internal/application/identity"
	applibrary "github.com/studyhall/backend/internal/application/library"
	appreporting "github.com/studyhall/backend/internal/application/reporting"
	appstudy "github.com/studyhall/backend/internal/application/study"
	appsubscription "github.com/studyhall/backend/internal/application/subscription"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/infrastructure/auth"
	"github.com/studyhall/backend/internal/infrastructure/billing"
	"github.com/studyhall/backend/internal/infrastructure/cache"
	"github.com/studyhall/backend/internal/infrastructure/config"
	"github.com/studyhall/backend/internal/infrastructure/event"
	"github.com/studyhall/backend/internal/infrastructure/logger"
	"github.com/studyhall/backend/internal/infrastructure/persistence"
	"github.com/studyhall/backend/internal/infrastructure/reporting"
	"github.com/studyhall/backend/internal/infrastructure/scheduler"
	"github.com/studyhall/backend/internal/infrastructure/storage"
	"github.com/studyhall/backend/internal/infrastructure/telemetry"
	"github.com/studyhall/backend/internal/infrastructure/tutoring"
	"github.com/studyhall/backend/internal/interfaces/http/handler"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
	"github.com/studyhall/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/studyhall/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			StudyHall Backend API
//	@version		1.0
//	@description	Education platform API - usage quotas, seat entitlements, library and study tools

//	@contact.name	API Support
//	@contact.email	support@studyhall.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StudyHall Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Telemetry providers (no-op when disabled)
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	instituteRepo := persistence.NewGormInstituteRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	usageProfileRepo := persistence.NewGormUsageProfileRepository(db.DB)
	planOverrideRepo := persistence.NewGormPlanOverrideRepository(db.DB)
	seatPoolRepo := persistence.NewGormSeatPoolRepository(db.DB)
	bookRepo := persistence.NewGormBookRepository(db.DB)
	classRepo := persistence.NewGormClassRepository(db.DB)
	quizRepo := persistence.NewGormQuizRepository(db.DB)
	aiQueryRepo := persistence.NewGormAIQueryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	schedulerJobRepo := scheduler.NewSchedulerJobRepository(db.DB)

	// Plan overrides sit on the hot path of every entitlement check, so they
	// are read through a cache. Redis keeps instances coherent; the in-memory
	// cache is the fallback for single-node setups.
	var overrideCache entitlement.OverrideCache
	if redisCache, err := cache.NewRedisOverrideCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("Redis override cache unavailable, using in-memory cache", zap.Error(err))
		overrideCache = cache.NewInMemoryOverrideCache()
	} else {
		overrideCache = redisCache
	}
	overrideRepo := cache.NewCachedOverrideRepository(planOverrideRepo, overrideCache, log)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Plan catalog and entitlement services
	catalog := entitlement.BuiltinCatalog()

	resetLocation, err := cfg.Entitlement.Location()
	if err != nil {
		log.Fatal("Invalid entitlement reset timezone", zap.Error(err))
	}
	rolloverService := appentitlement.NewRolloverService(usageProfileRepo, appentitlement.RolloverServiceConfig{
		Location:       resetLocation,
		SweepBatchSize: cfg.Entitlement.RolloverSweepBatchSize,
	}, log)

	entitlementService := appentitlement.NewEntitlementService(
		usageProfileRepo, overrideRepo, seatPoolRepo,
		bookRepo, classRepo,
		catalog, rolloverService, eventBus, log,
	)
	usageRecorder := appentitlement.NewUsageRecorder(usageProfileRepo, eventBus, log)
	seatService := appentitlement.NewSeatService(seatPoolRepo, catalog, eventBus, log)
	planService := appentitlement.NewPlanService(catalog, overrideRepo, log)

	// New accounts and institutes get their usage profile provisioned off the
	// creation events
	provisioningHandler := appentitlement.NewProfileProvisioningHandler(usageProfileRepo, log)
	eventBus.Subscribe(provisioningHandler)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor for guaranteed event delivery
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
	if err := outboxProcessor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("Redis token blacklist unavailable, using in-memory blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
	}
	authService := appidentity.NewAuthService(accountRepo, jwtService, blacklist, appidentity.DefaultAuthServiceConfig(), log)
	accountService := appidentity.NewAccountService(accountRepo, eventBus, log)
	instituteService := appidentity.NewInstituteService(
		instituteRepo, accountRepo, enrollmentRepo,
		entitlementService, seatService, eventBus, log,
	)

	// Object storage for book files
	var objectStorage applibrary.ObjectStorageService
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
	} else {
		log.Warn("Object storage disabled, book uploads will use stub URLs")
		objectStorage = storage.NewStubObjectStorage()
	}

	// Library and study services
	bookService := applibrary.NewBookService(bookRepo, entitlementService, usageRecorder, objectStorage, eventBus, log)
	classService := appstudy.NewClassService(classRepo, entitlementService, eventBus, log)
	quizService := appstudy.NewQuizService(quizRepo, bookRepo, entitlementService, usageRecorder, tutoring.NewStubQuizGenerator(), eventBus, log)
	aiService := appstudy.NewAIService(aiQueryRepo, entitlementService, usageRecorder, tutoring.NewStubAnswerProvider(), log)

	// Usage report PDF rendering
	pdfRenderer := reporting.NewChromedpRenderer(reporting.ChromedpConfig{Logger: log})
	defer func() {
		_ = pdfRenderer.Close()
	}()
	usageReportService := appreporting.NewUsageReportService(
		instituteRepo, enrollmentRepo, accountRepo, seatPoolRepo,
		entitlementService, pdfRenderer, log,
	)

	// Stripe billing integration
	stripeConfig := &billing.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}
	var subscriptionService *appsubscription.SubscriptionService
	var webhookService *appsubscription.StripeWebhookService
	if cfg.Stripe.Enabled {
		stripeAdapter, err := billing.NewStripeAdapter(stripeConfig, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe adapter", zap.Error(err))
		}
		subscriptionService = appsubscription.NewSubscriptionService(stripeAdapter, accountRepo, instituteRepo, catalog, log)

		idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis).CreateStore()
		if err != nil {
			log.Warn("Redis idempotency store unavailable, webhook dedupe runs in memory", zap.Error(err))
			idempotencyStore = cache.NewInMemoryIdempotencyStore()
		}
		webhookService = appsubscription.NewStripeWebhookService(appsubscription.StripeWebhookServiceConfig{
			Config:        stripeConfig,
			AccountRepo:   accountRepo,
			InstituteRepo: instituteRepo,
			Profiles:      usageProfileRepo,
			Seats:         seatService,
			Catalog:       catalog,
			Idempotency:   idempotencyStore,
			EventBus:      eventBus,
			Logger:        log,
		})
	} else {
		log.Info("Stripe integration disabled, subscription endpoints not registered")
	}

	// Rollover sweep scheduler: the nightly pass that applies month-boundary
	// resets to profiles nobody has touched
	cronConfig := scheduler.DefaultRolloverCronSchedulerConfig()
	cronConfig.Enabled = cfg.Entitlement.RolloverSweepEnabled
	if cfg.Scheduler.DailyCronSchedule != "" {
		cronConfig.DailyCronSchedule = cfg.Scheduler.DailyCronSchedule
		if hour, minute, err := scheduler.ParseCronSchedule(cfg.Scheduler.DailyCronSchedule); err == nil {
			cronConfig.CronHour = hour
			cronConfig.CronMinute = minute
		}
	}
	rolloverScheduler := scheduler.NewRolloverCronScheduler(cronConfig, rolloverService, schedulerJobRepo, log)
	if cronConfig.Enabled {
		if err := rolloverScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start rollover scheduler", zap.Error(err))
		}
		defer func() {
			if err := rolloverScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping rollover scheduler", zap.Error(err))
			}
		}()
	}

	// Daily maintenance: prune processed outbox entries and old job records
	maintenanceScheduler := scheduler.NewMaintenanceScheduler(outboxRepo, schedulerJobRepo, log, scheduler.DefaultMaintenanceSchedulerConfig())
	if err := maintenanceScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}
	defer func() {
		if err := maintenanceScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping maintenance scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService)
	instituteHandler := handler.NewInstituteHandler(instituteService, usageReportService)
	entitlementHandler := handler.NewEntitlementHandler(entitlementService)
	planHandler := handler.NewPlanHandler(planService)
	seatPoolHandler := handler.NewSeatPoolHandler(seatService)
	bookHandler := handler.NewBookHandler(bookService)
	studyHandler := handler.NewStudyHandler(quizService, aiService, classService)
	schedulerHandler := handler.NewSchedulerHandler(rolloverScheduler, rolloverService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging, security
	// headers, CORS, body limit, then rate limiting
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("studyhall/http"), true))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerGroup := engine.Group("/swagger")
		swaggerGroup.Use(middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService)))
		swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication for API routes. Registration, login and the Stripe
	// webhook are reachable without a token; the webhook authenticates via
	// its signature header instead.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/accounts",
			"/api/v1/webhooks/stripe",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(authHandler).
		Register(accountHandler).
		Register(instituteHandler).
		Register(entitlementHandler).
		Register(planHandler).
		Register(seatPoolHandler).
		Register(bookHandler).
		Register(studyHandler).
		Register(schedulerHandler)

	if cfg.Stripe.Enabled {
		r.Register(handler.NewSubscriptionHandler(subscriptionService)).
			Register(handler.NewStripeWebhookHandler(webhookService))
	}

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
