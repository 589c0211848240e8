package retrieval

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"

	"qiyas/internal/domain"
	"qiyas/internal/index"
)

// Retriever answers questions with the most similar indexed sources.
// The embedder must be the same one the index was built with; the
// index records that identity and the engine checks it on load, since
// mixing embedding spaces corrupts results silently.
type Retriever struct {
	embedder domain.Embedder
	index    *index.Index
	topK     int
}

// New creates a retriever over a built index.
func New(embedder domain.Embedder, ix *index.Index, topK int) *Retriever {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	return &Retriever{embedder: embedder, index: ix, topK: topK}
}

// Retrieve embeds the question and returns up to topK sources ordered
// by descending similarity, each carrying its stored context, topics,
// principles and metadata.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.ScoredSource, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	results := r.index.Search(vec, r.topK)

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		scores := make([]float64, len(results))
		for i, res := range results {
			scores[i] = res.Score
		}
		slog.Debug("retrieval", "query_hash", hashQuery(question), "top_scores", scores)
	}
	return results, nil
}

// hashQuery identifies a question in debug logs without logging its text.
func hashQuery(q string) string {
	sum := sha1.Sum([]byte(q))
	return hex.EncodeToString(sum[:8])
}
