// Package app wires the stores, auth manager, guards, and HTTP routes into
// one runtime handler.
package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/ai"
	"github.com/zzzaaa12/ai-vocabulary-review/internal/auth"
	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
	"github.com/zzzaaa12/ai-vocabulary-review/internal/observability"
	"github.com/zzzaaa12/ai-vocabulary-review/internal/settings"
	"github.com/zzzaaa12/ai-vocabulary-review/internal/vocab"
)

type Options struct {
	LoadDotEnv bool
}

type Runtime struct {
	Handler http.Handler
	Config  *config.Store
	Logger  *observability.Logger
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	configPath := envOrDefault("VOCAB_CONFIG_FILE", filepath.Join("config", "api_keys.json"))
	dataPath := envOrDefault("VOCAB_DATA_FILE", filepath.Join("data", "vocabulary.json"))

	configStore, err := config.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}

	vocabStore, err := vocab.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary store: %w", err)
	}

	cookieSecret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if cookieSecret == "" {
		cookieSecret, err = auth.LoadOrCreateCookieSecret(filepath.Join(filepath.Dir(configPath), ".session_secret"))
		if err != nil {
			return nil, err
		}
	}

	codec := auth.NewCodec(cookieSecret)
	manager := auth.NewManager(configStore)
	guard := auth.NewGuard(manager, codec)
	authHandler := auth.NewHandler(manager, codec)

	vocabHandler := vocab.NewHandler(vocabStore)
	aiHandler := ai.NewHandler(ai.NewService(configStore))
	settingsHandler := settings.NewHandler(configStore)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", authHandler.LoginPage)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /logout", authHandler.Logout)
	mux.HandleFunc("GET /api/session-info", authHandler.SessionInfo)
	mux.HandleFunc("GET /health", healthHandler)

	mux.Handle("GET /{$}", guard.RequirePage(http.HandlerFunc(vocabHandler.IndexPage)))
	mux.Handle("GET /word/{id}", guard.RequirePage(http.HandlerFunc(vocabHandler.WordPage)))

	mux.Handle("GET /api/words", guard.RequireAPI(http.HandlerFunc(vocabHandler.ListWords)))
	mux.Handle("POST /api/words", guard.RequireAPI(http.HandlerFunc(vocabHandler.AddWord)))
	mux.Handle("GET /api/words/{id}", guard.RequireAPI(http.HandlerFunc(vocabHandler.GetWord)))
	mux.Handle("PUT /api/words/{id}", guard.RequireAPI(http.HandlerFunc(vocabHandler.UpdateWord)))
	mux.Handle("DELETE /api/words/{id}", guard.RequireAPI(http.HandlerFunc(vocabHandler.DeleteWord)))
	mux.Handle("GET /api/search", guard.RequireAPI(http.HandlerFunc(vocabHandler.SearchWords)))

	mux.Handle("GET /api/ai-status", guard.RequireAPI(http.HandlerFunc(aiHandler.Status)))
	mux.Handle("POST /api/generate-word-info", guard.RequireAPI(http.HandlerFunc(aiHandler.GenerateWordInfo)))

	mux.Handle("GET /api/settings", guard.RequireAPI(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("POST /api/settings/provider", guard.RequireAPI(http.HandlerFunc(settingsHandler.SetProvider)))
	mux.Handle("POST /api/settings/provider/clear", guard.RequireAPI(http.HandlerFunc(settingsHandler.ClearProvider)))
	mux.Handle("POST /api/settings/passcode", guard.RequireAPI(http.HandlerFunc(settingsHandler.SetPasscode)))
	mux.Handle("POST /api/settings/policy", guard.RequireAPI(http.HandlerFunc(settingsHandler.SetPolicy)))
	mux.Handle("POST /api/settings/server", guard.RequireAPI(http.HandlerFunc(settingsHandler.SetServer)))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))
	handler = withOptionalForceHTTPS(configStore, handler)

	return &Runtime{
		Handler: handler,
		Config:  configStore,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return nil
		},
	}, nil
}

// withOptionalForceHTTPS consults the stored server settings per request,
// so toggling force_https takes effect without a restart.
func withOptionalForceHTTPS(store *config.Store, next http.Handler) http.Handler {
	redirecting := observability.ForceHTTPSMiddleware(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store.Server().ForceHTTPS {
			redirecting.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}
