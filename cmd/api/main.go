package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/support-agent/backend/internal/api/handlers"
	cacheredis "github.com/support-agent/backend/internal/cache/redis"
	"github.com/support-agent/backend/internal/chat"
	"github.com/support-agent/backend/internal/escalation"
	"github.com/support-agent/backend/internal/feedback"
	"github.com/support-agent/backend/internal/generation"
	"github.com/support-agent/backend/internal/ingestion"
	"github.com/support-agent/backend/internal/llm"
	"github.com/support-agent/backend/internal/metrics"
	"github.com/support-agent/backend/internal/middleware/ratelimit"
	"github.com/support-agent/backend/internal/middleware/security"
	"github.com/support-agent/backend/internal/middleware/validation"
	"github.com/support-agent/backend/internal/retrieval"
	"github.com/support-agent/backend/internal/sentiment"
	"github.com/support-agent/backend/internal/storage/sqlite"
	"github.com/support-agent/backend/internal/vector/milvus"
	"github.com/support-agent/backend/pkg/config"
	appLogger "github.com/support-agent/backend/pkg/logger"
	"github.com/support-agent/backend/pkg/utils"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting customer-support RAG API server")

	metrics.Init()

	// Every external collaborator is optional. A missing one selects the
	// component's null/fallback implementation instead of aborting startup.

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Warn("SQLite unavailable, persistence disabled", zap.Error(err))
		sqliteClient = nil
	} else {
		defer sqliteClient.Close()
		if err := sqliteClient.InitSchema(); err != nil {
			appLogger.Warn("Schema init failed, persistence disabled", zap.Error(err))
			sqliteClient = nil
		}
	}

	var redisClient *cacheredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cacheredis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	cacheTTL := time.Duration(cfg.Redis.TTLSec) * time.Second

	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.EmbeddingModel,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			cfg.LLM.TimeoutSec,
		)
	} else {
		appLogger.Warn("No LLM API key configured, using template generation and keyword sentiment")
	}

	var milvusClient *milvus.Client
	if cfg.Milvus.Endpoint != "" && llmClient != nil {
		milvusClient, err = milvus.NewClient(
			cfg.Milvus.Endpoint,
			cfg.Milvus.APIKey,
			cfg.Milvus.CollectionName,
			cfg.Milvus.VectorDim,
		)
		if err != nil {
			appLogger.Warn("Milvus unavailable, retrieval disabled", zap.Error(err))
			milvusClient = nil
		} else {
			defer milvusClient.Close()
			if err := milvusClient.CreateCollection(context.Background()); err != nil {
				appLogger.Warn("Collection setup failed, retrieval disabled", zap.Error(err))
				milvusClient = nil
			}
		}
	}

	var retriever retrieval.Retriever
	if milvusClient != nil && llmClient != nil {
		var opts []retrieval.VectorOption
		if redisClient != nil {
			opts = append(opts, retrieval.WithEmbeddingCache(redisClient, utils.HashString, cacheTTL))
		}
		retriever = retrieval.NewVectorRetriever(llmClient, milvusClient, opts...)
	} else {
		retriever = retrieval.NewNullRetriever()
	}

	var sentimentModel sentiment.ModelClient
	if cfg.Sentiment.UseModel && llmClient != nil {
		sentimentModel = llmClient
	}
	var analyzerOpts []sentiment.AnalyzerOption
	if redisClient != nil {
		analyzerOpts = append(analyzerOpts, sentiment.WithCache(redisClient, utils.HashString, cacheTTL))
	}
	analyzer := sentiment.NewAnalyzer(sentimentModel, analyzerOpts...)

	predictor := escalation.NewPredictorWithThreshold(cfg.Escalation.Threshold)

	var generator generation.Generator
	if llmClient != nil {
		generator = generation.NewModelGenerator(llmClient)
	} else {
		generator = generation.NewTemplateGenerator()
	}

	var store chat.Store
	if sqliteClient != nil {
		store = sqliteClient
	}
	orchestrator := chat.NewOrchestrator(retriever, analyzer, predictor, generator, store)

	var articleStore ingestion.ArticleStore
	var articleReader handlers.ArticleReader
	var feedbackStore feedback.Store
	if sqliteClient != nil {
		articleStore = sqliteClient
		articleReader = sqliteClient
		feedbackStore = sqliteClient
	}
	var vectorStore ingestion.VectorStore
	if milvusClient != nil {
		vectorStore = milvusClient
	}
	var embedder ingestion.BatchEmbedder
	if llmClient != nil {
		embedder = llmClient
	}
	processor := ingestion.NewProcessor(articleStore, vectorStore, embedder)

	feedbackService := feedback.NewService(feedbackStore)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{
		MaxBodySize: cfg.Server.BodyLimit,
		Logger:      appLogger.GetLogger(),
	}))

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Logger:               appLogger.GetLogger(),
		})
		app.Use(limiter.Middleware())
	}

	chatHandler := handlers.NewChatHandler(orchestrator)
	sentimentHandler := handlers.NewSentimentHandler(analyzer)
	escalationHandler := handlers.NewEscalationHandler(predictor)
	var invalidator handlers.CacheInvalidator
	if redisClient != nil {
		invalidator = redisClient
	}
	articleHandler := handlers.NewArticleHandler(processor, retriever, articleReader, invalidator)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	wsHandler := handlers.NewWebSocketHandler(orchestrator)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "customer-support-rag",
			"version": version,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	chatGroup := app.Group("/chat")
	chatGroup.Post("/respond", chatHandler.Respond)
	chatGroup.Get("/sessions/:id", chatHandler.GetSession)
	chatGroup.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	chatGroup.Get("/ws", websocket.New(wsHandler.HandleConnection))

	sentimentGroup := app.Group("/sentiment")
	sentimentGroup.Post("/analyze", sentimentHandler.Analyze)
	sentimentGroup.Post("/batch", sentimentHandler.AnalyzeBatch)

	escalationGroup := app.Group("/escalation")
	escalationGroup.Post("/predict", escalationHandler.Predict)
	escalationGroup.Get("/rules", escalationHandler.Rules)

	articlesGroup := app.Group("/articles")
	articlesGroup.Post("/ingest", articleHandler.Ingest)
	articlesGroup.Get("/search", articleHandler.Search)
	articlesGroup.Get("/:id", articleHandler.GetArticle)

	feedbackGroup := app.Group("/feedback")
	feedbackGroup.Post("/submit", feedbackHandler.Submit)
	feedbackGroup.Get("/aggregates", feedbackHandler.Aggregates)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
