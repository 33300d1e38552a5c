// Entry point for the studypipe HTTP service. Wires the extraction
// pipeline, the generation backend, the account store and the chi router,
// with optional MCP stdio transport for the extraction tools.
package main

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/studypipe/accounts"
	"github.com/hazyhaar/studypipe/dbopen"
	"github.com/hazyhaar/studypipe/docpipe"
	"github.com/hazyhaar/studypipe/server"
	"github.com/hazyhaar/studypipe/studygen"
	"github.com/hazyhaar/studypipe/summarizer"
)

// fileConfig is the optional YAML overlay loaded from CONFIG_PATH.
// Environment variables override anything set here.
type fileConfig struct {
	Port       string          `yaml:"port"`
	DBPath     string          `yaml:"db_path"`
	TempDir    string          `yaml:"temp_dir"`
	BaseURL    string          `yaml:"openai_base_url"`
	Generation studygen.Config `yaml:"generation"`
	Extraction docpipe.Config  `yaml:"extraction"`
}

func main() {
	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	secretInput := os.Getenv("SESSION_SECRET")
	if secretInput == "" {
		slog.Error("SESSION_SECRET is required")
		os.Exit(1)
	}
	// Derive a 32-byte JWT secret via SHA-256 (satisfies auth.MinSecretLen).
	secretHash := sha256.Sum256([]byte(secretInput))
	jwtSecret := secretHash[:]

	var cfg fileConfig
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read config", "path", path, "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Error("parse config", "path", path, "error", err)
			os.Exit(1)
		}
	}

	port := env("PORT", orDefault(cfg.Port, "8000"))
	dbPath := env("DB_PATH", orDefault(cfg.DBPath, "db/studypipe.db"))
	baseURL := env("OPENAI_BASE_URL", orDefault(cfg.BaseURL, "https://api.openai.com"))
	apiKey := os.Getenv("OPENAI_API_KEY")
	if model := os.Getenv("OPENAI_SUMMARY_MODEL"); model != "" {
		cfg.Generation.Model = model
	}
	if tmp := os.Getenv("TEMP_DIR"); tmp != "" {
		cfg.TempDir = tmp
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Account DB.
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(accounts.Schema))
	if err != nil {
		slog.Error("open db", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := accounts.NewStore(db)

	// Extraction and generation.
	cfg.Extraction.Logger = logger
	pipe := docpipe.New(cfg.Extraction)

	cfg.Generation.Logger = logger
	backend := studygen.NewChatClient(baseURL, apiKey, logger)
	gen := studygen.NewService(backend, cfg.Generation)

	sum := summarizer.New(pipe, gen, summarizer.Config{TempDir: cfg.TempDir, Logger: logger})

	// Optional MCP stdio transport for the extraction tools.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "studypipe",
			Version: "1.0.0",
		}, nil)
		pipe.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio transport starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// HTTP server.
	api := server.New(store, sum, jwtSecret, logger)
	api.Start(ctx.Done())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
