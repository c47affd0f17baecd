// Saarthi - multilingual conversational assistant server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/saarthi-ai/saarthi/internal/answer"
	"github.com/saarthi-ai/saarthi/internal/api"
	"github.com/saarthi-ai/saarthi/internal/config"
	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/middleware"
	"github.com/saarthi-ai/saarthi/internal/pipeline"
	"github.com/saarthi-ai/saarthi/internal/session"
	"github.com/saarthi-ai/saarthi/internal/speech"
	"github.com/saarthi-ai/saarthi/internal/store"
	"github.com/saarthi-ai/saarthi/internal/translate"
)

// seedLanguages is the default language reference data, inserted on first
// startup when the languages table is empty.
func seedLanguages() []*domain.Language {
	langs := []struct {
		name, display, code, latn, bcp string
	}{
		{"english", "English", "en", "en", "en-US"},
		{"hindi", "हिन्दी", "hi", "hi-Latn", "hi-IN"},
		{"bengali", "বাংলা", "bn", "bn-Latn", "bn-IN"},
		{"tamil", "தமிழ்", "ta", "ta-Latn", "ta-IN"},
		{"telugu", "తెలుగు", "te", "te-Latn", "te-IN"},
		{"marathi", "मराठी", "mr", "mr-Latn", "mr-IN"},
	}

	out := make([]*domain.Language, 0, len(langs))
	for _, l := range langs {
		out = append(out, &domain.Language{
			ID:          uuid.NewString(),
			Name:        l.name,
			DisplayName: l.display,
			Code:        l.code,
			LatnCode:    l.latn,
			BCPCode:     l.bcp,
		})
	}
	return out
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := repo.SeedLanguages(context.Background(), seedLanguages()); err != nil {
		slog.Error("Failed to seed languages", "error", err)
		os.Exit(1)
	}

	// External adapters.
	translator, err := translate.NewGoogle(context.Background(), cfg.GoogleAPIKey, config.PivotLanguageCode)
	if err != nil {
		slog.Error("Failed to initialize translator", "error", err)
		os.Exit(1)
	}

	speechEngine, err := speech.NewGoogle(context.Background(), cfg.GoogleAPIKey, cfg.AudioDir)
	if err != nil {
		slog.Error("Failed to initialize speech engine", "error", err)
		os.Exit(1)
	}

	generator := answer.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	authClient := identity.NewClient(cfg.AuthenticateURL(), cfg.IdentityRequestTimeout)

	// Pipelines.
	sessions := session.NewManager(repo, cfg.ChatHistoryWindow)
	queryPipeline := pipeline.NewQuery(sessions, repo, translator, generator)
	voicePipeline := pipeline.NewVoice(sessions, repo, speechEngine, translator, queryPipeline, cfg)

	// Handlers.
	baseHandler := api.NewHandler(repo, authClient, queryPipeline, voicePipeline)
	chatHandler := api.NewChatHandler(baseHandler)
	languageHandler := api.NewLanguageHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	chatHandler.RegisterRoutes(r)
	languageHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
