package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"bakerychat/internal/api"
	"bakerychat/internal/catalog"
	"bakerychat/internal/chat"
	"bakerychat/internal/config"
	"bakerychat/internal/database"
	"bakerychat/internal/logging"
	"bakerychat/internal/memory"
	"bakerychat/internal/models"
	"bakerychat/internal/models/providers"
	"bakerychat/internal/monitoring"
	"bakerychat/internal/orders"
	"bakerychat/internal/rag"
	"bakerychat/internal/session"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", config.DefaultPath, "Path to configuration file")
)

func main() {
	flag.Parse()

	// Initialize context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to initialize logging: %v", err)
	}
	if logger.Level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize transcript archive
	archive, err := initializeArchive(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.CloseDB()

	// Initialize LLM and document index
	engine, err := initializeEngine(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize chat engine")
	}

	// Initialize metrics collector
	metricsCollector := monitoring.NewMetricsCollector(nil)

	cat := catalog.New(cfg.Data.MenuPath)
	ledger := orders.NewLedger(cfg.Data.OrderLog)
	orchestrator := chat.NewOrchestrator(cat, ledger, engine,
		chat.WithTimeout(cfg.Chat.DelegationTimeout),
		chat.WithRecorder(metricsCollector),
		chat.WithLogger(logger),
	)
	sessions := session.NewManager(cat, archive, session.Options{
		Secret:      cfg.Session.Secret,
		MaxAge:      cfg.Session.MaxAge,
		IdleTimeout: cfg.Session.IdleTimeout,
		Secure:      cfg.Session.Secure,
	}, logger)
	go sessions.Run(ctx, 0)

	// Initialize API server
	apiServer := api.NewServer(orchestrator, sessions, cat, ledger, metricsCollector, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	// Start metrics server
	if cfg.MetricsConfig.Enabled {
		go startMetricsServer(cfg.MetricsConfig.Port, cfg.MetricsConfig.Path, metricsCollector.Registry(), logger)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: apiServer.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("API server shutdown error")
		}

		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	}).Info("Starting API server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.WithError(err).Fatal("API server error")
	}
}

// applyFlags lets explicitly passed flags override the configuration
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "metrics-port":
			cfg.MetricsConfig.Port = *metricsPort
		}
	})
}

func initializeArchive(cfg *config.Config) (session.Archive, error) {
	if cfg.Database.Driver == "none" {
		return nil, nil
	}
	if err := database.InitDB(cfg.Database.Driver, cfg.Database.URL); err != nil {
		return nil, err
	}
	return database.NewTranscriptStore(database.GetDB()), nil
}

// newModelProvider maps the llm settings onto a registry entry
func newModelProvider(cfg *config.Config) models.ModelProvider {
	provider := models.ModelProvider{
		Name:           cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Endpoint:       cfg.LLM.BaseURL,
		Credentials: models.ModelCredentials{
			APIKey:              cfg.LLM.APIKey,
			Deployment:          cfg.LLM.AzureDeployment,
			EmbeddingDeployment: cfg.LLM.AzureEmbeddingDeployment,
		},
	}
	switch cfg.LLM.Provider {
	case "openai":
		provider.Type = models.OpenAIProvider
	case "github":
		provider.Type = models.OpenAIProvider
		if provider.Endpoint == "" {
			provider.Endpoint = providers.GitHubModelsURL
		}
	case "azure":
		provider.Type = models.AzureProvider
	default:
		provider.Type = models.OllamaProvider
	}
	return provider
}

func initializeEngine(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (rag.Engine, error) {
	registry := models.NewModelRegistry()
	registry.Register("default", newModelProvider(cfg))

	llm, err := registry.GetModel("default")
	if err != nil {
		return nil, err
	}
	embedder, err := registry.GetEmbedder("default")
	if err != nil {
		return nil, err
	}

	engine, err := rag.New(ctx, llm, embedder, rag.Options{
		IndexOptions: rag.IndexOptions{
			DocsDir:        cfg.Data.DocsDir,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			CachePath:      cfg.Data.IndexCache,
			ChunkSize:      cfg.Data.ChunkSize,
			ChunkOverlap:   cfg.Data.ChunkOverlap,
		},
		SystemPrompt: cfg.LLM.SystemPrompt,
		TopK:         cfg.Data.TopK,
		TokenLimit:   cfg.Chat.TokenLimit,
		TokenCounter: memory.ModelTokenCounter(cfg.LLM.Model),
	}, logger)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func startMetricsServer(port int, path string, registry *prometheus.Registry, logger logrus.FieldLogger) {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	logger.WithField("port", port).Info("Starting metrics server")
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		logger.WithError(err).Error("Metrics server error")
	}
}
