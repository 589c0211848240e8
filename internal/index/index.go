package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"qiyas/internal/domain"
)

// DefaultTopK is used when a caller does not request a result count.
const DefaultTopK = 5

// Index holds one embedding vector per source and answers brute-force
// cosine similarity queries. It is immutable once built, so concurrent
// reads need no locking.
type Index struct {
	sources   []domain.Source
	vectors   [][]float64
	dimension int
	embedder  string
}

// Build embeds every source's text with the given embedder and returns
// a ready index. Sources keep their corpus order; that order breaks
// score ties at search time.
func Build(ctx context.Context, emb domain.Embedder, sources []domain.Source) (*Index, error) {
	vectors := make([][]float64, len(sources))
	dim := 0
	for i, src := range sources {
		vec, err := emb.Embed(ctx, src.Text)
		if err != nil {
			return nil, &domain.EmbeddingError{Err: fmt.Errorf("source %s: %w", src.Reference, err)}
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, &domain.EmbeddingError{Err: fmt.Errorf("source %s: dimension %d, want %d", src.Reference, len(vec), dim)}
		}
		vectors[i] = vec
	}
	slog.Info("index built", "sources", len(sources), "dimension", dim, "embedder", emb.Name())
	return &Index{sources: sources, vectors: vectors, dimension: dim, embedder: emb.Name()}, nil
}

// Len reports the number of indexed sources.
func (ix *Index) Len() int { return len(ix.sources) }

// Dimension reports the vector dimensionality shared by all entries.
func (ix *Index) Dimension() int { return ix.dimension }

// Search returns up to topK (source, score) pairs ordered by descending
// cosine similarity to the query vector. Ties keep corpus order. An
// empty index yields an empty result, not an error.
func (ix *Index) Search(query []float64, topK int) []domain.ScoredSource {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(ix.vectors) == 0 {
		return nil
	}
	scores := make([]float64, len(ix.vectors))
	for i := range ix.vectors {
		scores[i] = cosine(ix.vectors[i], query)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if topK > len(order) {
		topK = len(order)
	}
	results := make([]domain.ScoredSource, 0, topK)
	for _, j := range order[:topK] {
		results = append(results, domain.ScoredSource{Source: ix.sources[j], Score: scores[j]})
	}
	return results
}

// cosine returns dot(a,b)/(|a||b|), or 0 when either vector has zero
// norm. Never NaN.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Entries exposes the stored (reference, vector) pairs for inspection
// in tests and diagnostics.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.sources))
	for i := range ix.sources {
		out[i] = Entry{Reference: ix.sources[i].Reference, Vector: ix.vectors[i]}
	}
	return out
}

// Entry is a stored (reference, vector) pair.
type Entry struct {
	Reference string
	Vector    []float64
}
