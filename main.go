package main

import (
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/askpdf/askpdf/config"
	"github.com/askpdf/askpdf/db"
	"github.com/askpdf/askpdf/logging"
	"github.com/askpdf/askpdf/server"
	"github.com/askpdf/askpdf/services/llm_service"
	"github.com/askpdf/askpdf/services/rag_service"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	store, err := initStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize index store: %v", err)
	}

	embedder, llm := initProviders(cfg, logger)

	manager := rag_service.NewIndexManager(store, logger)
	pipeline, err := rag_service.NewPipeline(rag_service.PipelineConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopK:         cfg.TopK,
	}, embedder, llm, manager, store, logger)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	extractor := rag_service.NewDocumentExtractor(logger)

	r := server.SetupRoutes(pipeline, extractor, cfg.UploadDir, logger)
	n := setupNegroni(r)

	logger.Info("Starting askpdf",
		slog.String("environment", cfg.Environment),
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("llm_provider", cfg.LLMProvider))

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg.Domains, cfg.CertCacheDir)
	} else {
		srv := &http.Server{
			Addr:        ":" + cfg.HTTPPort,
			Handler:     n,
			IdleTimeout: time.Minute,
			ReadTimeout: 30 * time.Second,
			// Query handling blocks on the generation provider, so the
			// write timeout has to outlast the provider timeout.
			WriteTimeout: cfg.ProviderTimeout + 30*time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func initStore(cfg config.Config, logger *slog.Logger) (rag_service.IndexStore, error) {
	if cfg.StoreBackend == "postgres" {
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return rag_service.NewPostgresIndexStore(pool, logger), nil
	}
	return rag_service.NewFileIndexStore(cfg.IndexPath, logger), nil
}

func initProviders(cfg config.Config, logger *slog.Logger) (llm_service.EmbeddingService, llm_service.LLMService) {
	if cfg.LLMProvider == "openai" {
		s := llm_service.NewOpenAIService(llm_service.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Timeout: cfg.ProviderTimeout,
		}, logger)
		return s, s
	}
	s := llm_service.NewGeminiService(llm_service.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Timeout: cfg.ProviderTimeout,
	}, logger)
	return s, s
}

func initLogger() (*slog.Logger, error) {
	logDir := filepath.Join("logs", "askpdf")

	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
