package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"qiyas/internal/config"
	"qiyas/internal/domain"
	"qiyas/internal/embedding/tfidf"
	"qiyas/internal/engine"
	"qiyas/internal/provider"
	"qiyas/internal/server"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var debug bool
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	eng, err := buildEngine(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}
	defer eng.Close()

	e := server.New(eng)

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
}

func buildEngine(ctx context.Context, cfg *config.AppConfig) (*engine.Engine, error) {
	prov, err := provider.New(provider.Config{
		BaseURL:        cfg.Provider.BaseURL,
		APIKey:         os.Getenv(cfg.Provider.APIKeyEnv),
		EmbeddingModel: cfg.Provider.EmbeddingModel,
		ChatModel:      cfg.Provider.ChatModel,
		MaxRetries:     cfg.Provider.MaxRetries,
		Timeout:        time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		emb = prov
	case "tfidf":
		emb = tfidf.New()
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	return engine.New(ctx, engine.Config{
		CorpusPath:   cfg.Corpus,
		IndexDir:     cfg.Index.Dir,
		IndexVersion: cfg.Index.Version,
		TopK:         cfg.Index.TopK,
	}, emb, prov)
}
