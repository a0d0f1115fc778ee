package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/testme-app/backend/internal/ai"
	"github.com/testme-app/backend/internal/handler"
	"github.com/testme-app/backend/internal/model"
	"github.com/testme-app/backend/internal/storage"
	"github.com/testme-app/backend/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testme",
		Short: "Exam generation and grading backend powered by AI providers",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "testme.db", "SQLite database path")
	f.String("data-dir", "./data", "Directory for uploaded PDF storage")
	f.String("default-provider", "gpt", "Default AI provider (gpt, gemini)")
	f.String("openai-api-key", "", "OpenAI API key")
	f.String("openai-model", "gpt-5", "Primary OpenAI model")
	f.StringSlice("openai-fallbacks", []string{"gpt-5", "gpt-4.1", "gpt-4o", "gpt-4o-mini"}, "Ordered OpenAI fallback models")
	f.String("openai-base-url", "", "Override for OpenAI-compatible API endpoint")
	f.String("gemini-api-key", "", "Gemini API key")
	f.String("gemini-model", "gemini-1.5-pro", "Primary Gemini model")
	f.StringSlice("gemini-fallbacks", []string{"gemini-1.5-flash"}, "Ordered Gemini fallback models")
	f.Int64("max-upload-size", 50<<20, "Maximum PDF upload size in bytes")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("admin-password", "", "Initial admin password (or set TESTME_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TESTME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("testme")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/testme")
	v.AddConfigPath("/etc/testme")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	// .env is optional; env vars and flags win over it.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	blob, err := storage.NewFSStore(v.GetString("data-dir"))
	if err != nil {
		return fmt.Errorf("open blob storage: %w", err)
	}

	aiCfg := ai.Config{
		DefaultProvider: v.GetString("default-provider"),
		OpenAI: ai.OpenAIConfig{
			APIKey:    v.GetString("openai-api-key"),
			Model:     v.GetString("openai-model"),
			Fallbacks: v.GetStringSlice("openai-fallbacks"),
			BaseURL:   v.GetString("openai-base-url"),
		},
		Gemini: ai.GeminiConfig{
			APIKey:    v.GetString("gemini-api-key"),
			Model:     v.GetString("gemini-model"),
			Fallbacks: v.GetStringSlice("gemini-fallbacks"),
		},
	}

	h := handler.New(db, blob, aiCfg, v.GetInt64("max-upload-size"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"data_dir", v.GetString("data-dir"),
		"default_provider", aiCfg.DefaultProvider,
		"openai_model", aiCfg.OpenAI.Model,
		"gemini_model", aiCfg.Gemini.Model,
	)
	return http.ListenAndServe(addr, r)
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or TESTME_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
