package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-qa-rag-be/internal/config"
	"ai-qa-rag-be/internal/controller"
	"ai-qa-rag-be/internal/handler"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/internal/repository/implementation"
	"ai-qa-rag-be/internal/repository/memory"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/internal/service"
	"ai-qa-rag-be/internal/websocket"
	"ai-qa-rag-be/pkg/embedding"
	"ai-qa-rag-be/pkg/events"
	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/llm/factory"
	pktNats "ai-qa-rag-be/pkg/nats"
	"ai-qa-rag-be/pkg/rag/answer"
	"ai-qa-rag-be/pkg/rag/ingest"
	"ai-qa-rag-be/pkg/rag/retrieval"
	"ai-qa-rag-be/pkg/rag/settings"
	"ai-qa-rag-be/pkg/rag/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QAController       controller.IQAController
	DocumentController controller.IDocumentController
	SettingsController controller.ISettingsController
	AskSocketHandler   *handler.AskSocketHandler

	// Services (also used by the CLI)
	QAService        service.IQAService
	DocumentService  service.IDocumentService
	IngestionService service.IIngestionService
	AiConfigRepo     contract.IAiConfigRepository

	// Background workers, started by Start
	UsageTracker *usage.Tracker
	WebSocketHub *websocket.Hub
	EventRelay   *service.EventRelayService

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	rdb     *redis.Client
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure. NATS and Redis are optional; their absence only disables events and fan-out.
	var eventPublisher events.Publisher = events.NopPublisher{}
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		}
	} else {
		log.Printf("[INFO] NATS_URL not set, domain events disabled")
	}

	rdb := connectRedis(cfg.App.RedisURL)

	// 4. AI Providers
	embeddingProvider, err := newEmbeddingProvider(cfg, rdb, sysLogger)
	if err != nil {
		return nil, err
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	generator := llm.NewRetryingProvider(llmProvider, cfg.RAG.Retry.MaxTries, cfg.RAG.Retry.MaxElapsed)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. RAG Components
	aiConfigRepo := implementation.NewAiConfigRepository(db)
	settingsProvider := settings.NewProvider(aiConfigRepo, cfg.RAG.SettingsDefaults(), cfg.RAG.SettingsTTL, sysLogger)

	retriever := retrieval.NewEngine(
		implementation.NewDocumentChunkRepository(db),
		implementation.NewDocumentRepository(db),
		sysLogger,
		cfg.RAG.Timeouts.Search,
	)

	usageTracker := usage.NewTracker(
		pubSub,
		pubSub,
		cfg.Topics.Usage,
		usage.NewUnitOfWorkStore(uowFactory),
		sysLogger,
		cfg.RAG.Timeouts.Record,
	)

	unansweredService := service.NewUnansweredService(uowFactory, eventPublisher, sysLogger)

	selector := answer.NewSelector(answer.Dependencies{
		Embedder:   embeddingProvider,
		Curated:    implementation.NewCuratedQuestionRepository(db),
		Retriever:  retriever,
		Generator:  generator,
		Settings:   settingsProvider,
		Unanswered: unansweredService,
		Usage:      usageTracker,
		Logger:     sysLogger,
	}, answer.Config{
		CuratedCandidates: 3,
		GenerationTimeout: cfg.RAG.Timeouts.Generation,
		RecordTimeout:     cfg.RAG.Timeouts.Record,
	})

	pipeline := ingest.NewPipeline(embeddingProvider, ingest.Config{
		Workers:       cfg.RAG.Ingest.Workers,
		RatePerSecond: cfg.RAG.Ingest.RatePerSecond,
		Burst:         cfg.RAG.Ingest.Burst,
	}, sysLogger)

	// 6. Services
	ingestionService := service.NewIngestionService(
		pubSub,
		pubSub,
		cfg.Topics.Ingest,
		uowFactory,
		pipeline,
		settingsProvider,
		eventPublisher,
		sysLogger,
	)
	documentService := service.NewDocumentService(uowFactory, ingestionService, sysLogger)
	qaService := service.NewQAService(selector, memory.NewConversationRepository(memory.DefaultConversationTTL))

	// 7. WebSocket Hub & Event Relay
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	var relay *service.EventRelayService
	if natsSub != nil {
		relay = service.NewEventRelayService(natsSub, wsHub, wsLogger)
	}

	// 8. Controllers
	return &Container{
		QAController:       controller.NewQAController(qaService, unansweredService, cfg.App.JWTSecret),
		DocumentController: controller.NewDocumentController(documentService, cfg.App.JWTSecret),
		SettingsController: controller.NewSettingsController(service.NewSettingsService(uowFactory, settingsProvider, sysLogger), cfg.App.JWTSecret),
		AskSocketHandler:   handler.NewAskSocketHandler(wsHub, qaService, cfg.App.JWTSecret, wsLogger),

		QAService:        qaService,
		DocumentService:  documentService,
		IngestionService: ingestionService,
		AiConfigRepo:     aiConfigRepo,

		UsageTracker: usageTracker,
		WebSocketHub: wsHub,
		EventRelay:   relay,

		Logger: sysLogger,

		pubSub:  pubSub,
		rdb:     rdb,
		natsPub: natsPub,
		natsSub: natsSub,
	}, nil
}

// Start subscribes the background consumers. It must run before the first publish,
// since the in-process bus drops messages nobody is subscribed to.
func (c *Container) Start(ctx context.Context) error {
	if err := c.IngestionService.Consume(ctx); err != nil {
		return fmt.Errorf("start ingestion consumer: %w", err)
	}
	if err := c.UsageTracker.Consume(ctx); err != nil {
		return fmt.Errorf("start usage consumer: %w", err)
	}

	go c.WebSocketHub.Run(ctx)

	if c.EventRelay != nil {
		if err := c.EventRelay.Start(ctx); err != nil {
			log.Printf("[WARN] Failed to start event relay: %v", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if l, ok := c.Logger.(*logger.ZapLogger); ok {
		_ = l.Sync()
	}
}

func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func newEmbeddingProvider(cfg *config.Config, rdb *redis.Client, sysLogger logger.ILogger) (*embedding.CachedProvider, error) {
	var base embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		base = embedding.NewOllamaProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)
	case "openai":
		p, err := embedding.NewOpenAIProvider(cfg.Ai.EmbeddingAPIKey, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
		}
		base = p
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	retrying := embedding.NewRetryingProvider(base, cfg.RAG.Retry.MaxTries, cfg.RAG.Retry.MaxElapsed)

	opts := []embedding.CachedOption{embedding.WithTimeout(cfg.RAG.Timeouts.Embedding)}
	if cfg.Ai.EmbeddingRedisCache && rdb != nil {
		opts = append(opts, embedding.WithSharedCache(embedding.NewRedisCache(rdb, cfg.Ai.EmbeddingModel, cfg.RAG.Cache.TTL)))
		log.Printf("[INFO] Embedding cache: shared Redis tier enabled")
	}

	return embedding.NewCachedProvider(
		retrying,
		embedding.NewCache(cfg.RAG.Cache.MaxEntries, cfg.RAG.Cache.TTL),
		sysLogger,
		opts...,
	), nil
}
