// Package config runs the sitegen mock server.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/api"
	"github.com/Egham-7/sitegen-mock/internal/config"
	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/admission"
	"github.com/Egham-7/sitegen-mock/internal/services/database"
	"github.com/Egham-7/sitegen-mock/internal/services/generations"
	"github.com/Egham-7/sitegen-mock/internal/services/response"
	"github.com/Egham-7/sitegen-mock/internal/services/scheduler"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/delivery"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/sources"
	"github.com/Egham-7/sitegen-mock/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 30 * time.Second
	defaultWriteTimeout = 2 * time.Minute
)

// Server represents a sitegen mock server instance.
type Server struct {
	config   *config.Config
	app      *fiber.App
	redis    *redis.Client
	db       *database.DB
	builder  *builder.Builder
	recorder *generations.Worker
	pruner   *scheduler.RetentionScheduler
}

type serverInfrastructure struct {
	redis    *redis.Client
	db       *database.DB
	history  *generations.Service
	recorder *generations.Worker
	pruner   *scheduler.RetentionScheduler
}

// NewServer creates a new Server instance with the given configuration.
// The cfg parameter is required and must not be nil.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the builder to create config")
	}

	cfg.ApplyDefaults()
	return &Server{config: cfg}
}

// NewServerWithBuilder creates a new Server instance from a configuration builder.
// This allows control over middlewares and the content opener.
func NewServerWithBuilder(b *builder.Builder) *Server {
	return &Server{
		config:  b.Build(),
		builder: b,
	}
}

// Setup validates the configuration, connects infrastructure and registers
// middleware and routes. It is idempotent; Run calls it.
func (s *Server) Setup() (*fiber.App, error) {
	if s.app != nil {
		return s.app, nil
	}

	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(s.config)

	infra, err := initializeInfrastructure(s.config)
	if err != nil {
		return nil, err
	}
	s.redis = infra.redis
	s.db = infra.db
	s.recorder = infra.recorder
	s.pruner = infra.pruner
	if s.pruner != nil {
		go s.pruner.Start(context.Background())
	}

	app := createFiberApp(s.config)
	setupMiddleware(app, s.config, s.builder)
	setupRoutes(app, s.config, infra, s.contentOpener())

	s.app = app
	return app, nil
}

// Close stops the recorder and releases infrastructure connections
func (s *Server) Close() {
	if s.pruner != nil {
		s.pruner.Stop()
	}
	if s.recorder != nil {
		s.recorder.Stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			fiberlog.Errorf("Failed to close Redis client: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
	}
}

// Run starts the server and blocks until SIGINT/SIGTERM or a listener error.
func (s *Server) Run() error {
	app, err := s.Setup()
	if err != nil {
		return err
	}
	defer s.Close()

	listenAddr := ":" + s.config.Server.Port

	fmt.Printf("🚀 sitegen-mock starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		if err := app.Listen(listenAddr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		fiberlog.Info("Server shutting down gracefully...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) contentOpener() contracts.ContentOpener {
	if s.builder != nil && s.builder.GetContentOpener() != nil {
		return s.builder.GetContentOpener()
	}
	return newContentOpener(s.config.Stream)
}

func newContentOpener(cfg models.StreamConfig) contracts.ContentOpener {
	var opener contracts.ContentOpener = sources.NewDirectoryOpener(cfg.ContentDir, cfg.FileExtension)
	if cfg.FallbackTemplate {
		opener = sources.NewFallbackOpener(opener, sources.NewTemplateOpener(0))
	}
	return opener
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:           "sitegen-mock v1.0",
		EnablePrintRoutes: !isProd,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg.Stream),
		IdleTimeout:       5 * time.Minute,
		ReadBufferSize:    8192,
		WriteBufferSize:   8192,
		Prefork:           false,
		CaseSensitive:     true,
		StrictRouting:     false,
		Network:           "tcp",
		ServerHeader:      "sitegen-mock",
	})
}

// writeTimeout covers a whole streamed response, so it has to outlast the
// session deadline. Without a session deadline writes are not bounded.
func writeTimeout(cfg models.StreamConfig) time.Duration {
	session := cfg.SessionTimeout()
	if session <= 0 {
		return 0
	}
	return max(defaultWriteTimeout, session+shutdownTimeout)
}

// isStreamRoute matches the paced body routes that must not be buffered
func isStreamRoute(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/generate")
}

func setupMiddleware(app *fiber.App, cfg *config.Config, b *builder.Builder) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	rlMax, rlExpiration := 1000, time.Minute
	keyFunc := func(c *fiber.Ctx) string {
		return c.IP()
	}
	if b != nil && b.GetRateLimitConfig() != nil {
		rlCfg := b.GetRateLimitConfig()
		rlMax, rlExpiration = rlCfg.Max, rlCfg.Expiration
		if rlCfg.KeyFunc != nil {
			keyFunc = rlCfg.KeyFunc
		}
	}
	respSvc := response.NewBaseService()
	app.Use(limiter.New(limiter.Config{
		Max:               rlMax,
		Expiration:        rlExpiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      keyFunc,
		LimitReached: func(c *fiber.Ctx) error {
			limit := fmt.Sprintf("%d requests per %v", rlMax, rlExpiration)
			return respSvc.AppError(c, models.NewRateLimitError(limit), c.Get(fiber.HeaderXRequestID))
		},
	}))

	// Request timeout for everything but streams, which carry their own session deadline
	requestTimeout := 30 * time.Second
	if b != nil && b.GetTimeoutConfig() != nil {
		requestTimeout = b.GetTimeoutConfig().Timeout
	}
	app.Use(func(c *fiber.Ctx) error {
		if isStreamRoute(c) {
			return c.Next()
		}
		handler := func(c *fiber.Ctx) error {
			return c.Next()
		}
		return timeout.NewWithContext(handler, requestTimeout)(c)
	})

	// Compression
	app.Use(compress.New(compress.Config{
		Next:  isStreamRoute,
		Level: compress.LevelBestSpeed,
	}))

	// Logging
	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	// CORS
	allowedHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "User-Agent",
		fiber.HeaderXRequestID, "X-Stream-Timeout",
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowHeaders:     strings.Join(allowedHeaders, ", "),
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: cfg.Server.AllowedOrigins != "*",
		MaxAge:           86400,
		ExposeHeaders:    "Content-Type, X-Request-ID, X-Session-ID",
	}))

	// Custom middlewares from builder
	if b != nil {
		for _, middleware := range b.GetMiddlewares() {
			app.Use(middleware)
		}
	}

	// Profiler (dev only)
	if !isProd {
		app.Use(pprof.New())
	}
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}

func createRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		fiberlog.Info("Redis not configured - stream admission counted in process")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.ConnMaxLifetime = 30 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond

	fiberlog.Debugf("Redis client configuration: PoolSize=%d, MinIdle=%d, MaxRetries=%d",
		opt.PoolSize, opt.MinIdleConns, opt.MaxRetries)

	return testRedisConnectionWithRetry(redis.NewClient(opt))
}

func testRedisConnectionWithRetry(client *redis.Client) (*redis.Client, error) {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			fiberlog.Infof("Redis connection established successfully (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)

		if attempt < maxAttempts {
			delay := time.Duration(attempt) * baseDelay
			fiberlog.Infof("Retrying Redis connection in %v...", delay)
			time.Sleep(delay)
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}

func initializeInfrastructure(cfg *config.Config) (*serverInfrastructure, error) {
	infra := &serverInfrastructure{}

	redisClient, err := createRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	infra.redis = redisClient

	if cfg.Database == nil {
		fiberlog.Info("Database not configured - generation history disabled")
		return infra, nil
	}

	db, err := database.New(*cfg.Database)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	infra.db = db
	fiberlog.Infof("Database (%s) initialized successfully", db.DriverName())

	history := generations.NewService(db.DB)
	if err := history.AutoMigrate(); err != nil {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	fiberlog.Info("Database migrations completed successfully")

	infra.history = history
	infra.recorder = generations.NewWorker(history, cfg.Database.RecorderWorkers, cfg.Database.RecorderBuffer)
	if cfg.Database.RetentionHours > 0 {
		maxAge := time.Duration(cfg.Database.RetentionHours) * time.Hour
		infra.pruner = scheduler.NewRetentionScheduler(history, maxAge, 0)
	}
	return infra, nil
}

func setupRoutes(app *fiber.App, cfg *config.Config, infra *serverInfrastructure, opener contracts.ContentOpener) {
	var slotTTL time.Duration
	if cfg.Redis != nil {
		slotTTL = time.Duration(cfg.Redis.SlotTTLMs) * time.Millisecond
	}
	gate := admission.NewGate(infra.redis, cfg.Stream.MaxStreamsPerClient, slotTTL)

	healthHandler := api.NewHealthHandler(infra.db, infra.redis)
	usersHandler := api.NewUsersHandler()
	sitesHandler := api.NewSitesHandler(cfg, delivery.NewService(opener), gate, infra.recorder, infra.history)

	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/users/me", usersHandler.Me)

	v1Group := app.Group("/v1")
	sitesGroup := v1Group.Group("/sites")
	sitesGroup.Get("/:id", sitesHandler.GetSite)
	sitesGroup.Get("/:id/generate", sitesHandler.Generate)
	sitesGroup.Post("/:id/generate", sitesHandler.Generate)
	sitesGroup.Get("/:id/generations", sitesHandler.ListGenerations)

	if cfg.Server.FrontendDir == "" {
		app.Get("/", welcomeHandler())
		return
	}

	// Static frontend last so API routes win; unknown GET paths fall back to index.html
	app.Static("/", cfg.Server.FrontendDir, fiber.Static{Index: "index.html"})
	index := filepath.Join(cfg.Server.FrontendDir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile(index)
	})
}

func welcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to sitegen-mock!",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"user":        "/users/me",
				"site":        "/v1/sites/:id",
				"generate":    "/v1/sites/:id/generate",
				"generations": "/v1/sites/:id/generations",
				"health":      "/health",
			},
		})
	}
}
