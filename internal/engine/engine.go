package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"qiyas/internal/corpus"
	"qiyas/internal/domain"
	"qiyas/internal/index"
	"qiyas/internal/reasoning"
	"qiyas/internal/retrieval"
)

// Config holds the engine's data locations and retrieval settings.
type Config struct {
	CorpusPath   string
	IndexDir     string // empty disables persistence
	IndexVersion string
	TopK         int
}

// Engine owns the loaded corpus, the embedding index and the external
// capabilities, and answers questions through Reason. Construct it
// once per process; concurrent Reason calls share the index read-only.
type Engine struct {
	cfg       Config
	sources   []domain.Source
	embedder  domain.Embedder
	retriever *retrieval.Retriever
	composer  *reasoning.Composer
	index     *index.Index

	buildMu sync.Mutex // serializes index builds and persisted writes
}

// New loads the corpus, prepares the embedder and then loads or builds
// the embedding index. A persisted index is reused only when its
// version tag and embedder identity match exactly; any mismatch
// triggers a full rebuild, never partial reuse.
func New(ctx context.Context, cfg Config, embedder domain.Embedder, generator domain.Generator) (*Engine, error) {
	sources, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
	}
	if err := embedder.Prepare(texts); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, sources: sources, embedder: embedder, composer: reasoning.New(generator)}

	if cfg.IndexDir != "" {
		ix, err := index.Load(cfg.IndexDir, cfg.IndexVersion, embedder.Name())
		if err == nil {
			e.index = ix
		} else {
			var mismatch *domain.VersionMismatchError
			if errors.As(err, &mismatch) {
				slog.Info("persisted index incompatible, rebuilding", "stored", mismatch.Stored, "expected", mismatch.Expected)
			} else {
				slog.Info("no usable persisted index, building", "dir", cfg.IndexDir, "error", err)
			}
		}
	}
	if e.index == nil {
		if err := e.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	e.retriever = retrieval.New(embedder, e.index, cfg.TopK)
	return e, nil
}

// Rebuild embeds the whole corpus into a fresh index and, when an
// index directory is configured, persists it atomically. Builds are
// serialized; two concurrent rebuilds never interleave their writes.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	ix, err := index.Build(ctx, e.embedder, e.sources)
	if err != nil {
		return err
	}
	if e.cfg.IndexDir != "" {
		if err := ix.Save(e.cfg.IndexDir, e.cfg.IndexVersion); err != nil {
			return err
		}
	}
	e.index = ix
	if e.retriever != nil {
		e.retriever = retrieval.New(e.embedder, ix, e.cfg.TopK)
	}
	return nil
}

// Reason answers a natural-language question: retrieve similar
// sources, score confidence, compose the Qiyas reasoning. Empty or
// whitespace questions are rejected before any retrieval work.
func (e *Engine) Reason(ctx context.Context, question string) (domain.ReasoningResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ReasoningResult{}, domain.ErrEmptyQuestion
	}

	retrieved, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.ReasoningResult{}, err
	}

	scores := make([]float64, len(retrieved))
	sources := make([]domain.Source, len(retrieved))
	for i, r := range retrieved {
		scores[i] = r.Score
		sources[i] = r.Source
	}

	text, err := e.composer.Compose(ctx, question, retrieved)
	if err != nil {
		return domain.ReasoningResult{}, err
	}

	return domain.ReasoningResult{
		Question:        question,
		RelevantSources: sources,
		Reasoning:       text,
		ConfidenceScore: retrieval.Confidence(scores),
	}, nil
}

// Sources exposes the loaded corpus, read-only.
func (e *Engine) Sources() []domain.Source { return e.sources }

// Close releases the index. The engine is unusable afterwards.
func (e *Engine) Close() error {
	e.index = nil
	e.retriever = nil
	return nil
}
