package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/adapter/ai/openai"
	"github.com/seu-repo/conversia/internal/adapter/cache"
	"github.com/seu-repo/conversia/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/conversia/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/conversia/internal/adapter/queue"
	"github.com/seu-repo/conversia/internal/adapter/speech/azure"
	"github.com/seu-repo/conversia/internal/adapter/speech/elevenlabs"
	"github.com/seu-repo/conversia/internal/adapter/store/memory"
	redisstore "github.com/seu-repo/conversia/internal/adapter/store/redis"
	wsAdapter "github.com/seu-repo/conversia/internal/adapter/websocket"
	"github.com/seu-repo/conversia/internal/observability/telemetry"
	"github.com/seu-repo/conversia/internal/ports"
	"github.com/seu-repo/conversia/internal/service/conversation"
	"github.com/seu-repo/conversia/internal/service/health"
	"github.com/seu-repo/conversia/internal/service/intent"
	"github.com/seu-repo/conversia/internal/service/response"
	"github.com/seu-repo/conversia/internal/service/transcript"
	"github.com/seu-repo/conversia/pkg/config"
)

const (
	serviceName    = "conversia"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting Conversia",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Session Store
	var (
		sessionStore ports.SessionStore
		storePinger  health.Pinger
	)
	switch cfg.Sessions.Backend {
	case "redis":
		store, err := redisstore.NewStore(cfg.Redis.URL, cfg.Sessions.TTL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize redis session store", zap.Error(err))
		}
		defer store.Close()
		sessionStore = store
		storePinger = store
	default:
		sessionStore = memory.NewStore(logger)
	}
	logger.Info("Session store initialized", zap.String("backend", cfg.Sessions.Backend))

	// 5. Initialize Audio Cache (Redis with in-memory fallback)
	audioCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis cache unavailable, using local cache", zap.Error(err))
		audioCache = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	}
	defer audioCache.Close()

	// 6. Initialize Message Queue (NATS, optional)
	var messageQueue queue.MessageQueue
	var queuePinger health.Pinger
	if cfg.NATS.URL != "" {
		mq, err := queue.NewNATSQueue(cfg.NATS, logger)
		if err != nil {
			logger.Warn("NATS unavailable, conversation events disabled", zap.Error(err))
		} else {
			messageQueue = mq
			queuePinger = mq
			defer mq.Close()
		}
	}

	// 7. Initialize AI Providers
	classifyProvider := openai.NewClient(cfg.OpenAI, cfg.OpenAI.ClassifyModel, cfg.CircuitBreaker, logger)
	generateProvider := openai.NewClient(cfg.OpenAI, cfg.OpenAI.Model, cfg.CircuitBreaker, logger)

	// 8. Initialize Services (Business Logic Layer)
	classifier := intent.NewClassifier(classifyProvider, cfg.Conversation.HistoryWindow, cfg.Conversation.ClassifyTimeout, logger)
	generator := response.NewGenerator(generateProvider, cfg.Conversation.HistoryWindow, cfg.Conversation.GenerateTimeout, logger)
	conversationService := conversation.NewService(sessionStore, classifier, generator, messageQueue, cfg.Conversation.HistoryWindow, logger)

	// 9. Initialize Speech Adapters
	transcriber := azure.NewTranscriber(cfg.AzureSpeech, logger)
	synthesizer := elevenlabs.NewSynthesizer(cfg.ElevenLabs, audioCache, cfg.Cache.AudioTTL, logger)
	transcripts := transcript.NewService(transcriber, logger)

	// 10. Initialize Health Service
	healthService := health.NewService(&health.Config{
		Version: serviceVersion,
		Cache:   audioCache,
		Store:   storePinger,
		Queue:   queuePinger,
	}, logger)

	// 11. Initialize WebSocket Hub (for event fan-out)
	wsHub := wsAdapter.NewHub()
	go wsHub.Run()

	converseHandler := wsAdapter.NewConverseHandler(conversationService, transcriber, synthesizer, logger)

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	} else {
		app.Use(middleware.DefaultCORS())
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		path := cfg.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")

	conversationHandler := handlers.NewConversationHandler(conversationService, logger)
	v1.Post("/conversation/turn", conversationHandler.Turn)
	v1.Post("/conversation/:id/clear", conversationHandler.Clear)
	v1.Get("/conversation/:id/history", conversationHandler.History)

	speechHandler := handlers.NewSpeechHandler(transcriber, synthesizer, logger)
	v1.Post("/speech/transcribe", speechHandler.Transcribe)
	v1.Post("/speech/synthesize", speechHandler.Synthesize)

	streamHandler := handlers.NewStreamHandler(transcripts, logger)
	v1.Post("/stream/start", streamHandler.Start)
	v1.Post("/stream/:id/chunk", streamHandler.Chunk)
	v1.Get("/stream/:id/status", streamHandler.Status)
	v1.Post("/stream/:id/stop", streamHandler.Stop)

	// WebSocket routes
	wsAdapter.SetupRoutes(app, converseHandler, wsHub)

	// 13. Start Background Workers
	if messageQueue != nil {
		go startBackgroundWorkers(messageQueue, wsHub, logger)
	}

	// 14. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 15. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// startBackgroundWorkers relays committed conversation events to monitoring
// clients and the log.
func startBackgroundWorkers(mq queue.MessageQueue, hub *wsAdapter.Hub, logger *zap.Logger) {
	logger.Info("Starting background workers")

	if err := mq.Subscribe(queue.SubjectTurnCommitted, func(msg []byte) error {
		hub.Broadcast(msg)
		logger.Debug("Turn event relayed", zap.ByteString("msg", msg))
		return nil
	}); err != nil {
		logger.Error("Failed to subscribe to turn events", zap.Error(err))
	}

	if err := mq.Subscribe(queue.SubjectSessionCleared, func(msg []byte) error {
		hub.Broadcast(msg)
		logger.Debug("Session cleared event relayed", zap.ByteString("msg", msg))
		return nil
	}); err != nil {
		logger.Error("Failed to subscribe to session events", zap.Error(err))
	}
}
