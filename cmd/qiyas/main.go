package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"qiyas/internal/config"
	"qiyas/internal/domain"
	"qiyas/internal/embedding/tfidf"
	"qiyas/internal/engine"
	"qiyas/internal/provider"
	"qiyas/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var debug bool
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
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

	m := tui.New(eng)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
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
