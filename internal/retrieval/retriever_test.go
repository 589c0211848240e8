package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiyas/internal/domain"
	"qiyas/internal/index"
)

type stubEmbedder struct {
	vecs map[string][]float64
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Prepare(corpus []string) error { return nil }

func (s *stubEmbedder) Dimension() int { return 2 }

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec, ok := s.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func TestRetrieveAttachesMetadata(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{
		"do not devour usury":  {1, 0},
		"establish prayer":     {0, 1},
		"is interest allowed?": {1, 0},
	}}
	sources := []domain.Source{
		{
			Reference:  "2:275",
			Text:       "do not devour usury",
			SourceType: domain.SourceQuran,
			Topics:     []string{"finance"},
			Principles: []string{"fairness"},
			Context:    map[string]string{"2:274": "those who spend in charity"},
			Meta:       domain.SourceMeta{Chapter: "2", VerseNumber: "275"},
		},
		{
			Reference:  "2:43",
			Text:       "establish prayer",
			SourceType: domain.SourceQuran,
			Topics:     []string{"worship"},
		},
	}
	ix, err := index.Build(context.Background(), emb, sources)
	require.NoError(t, err)

	r := New(emb, ix, 5)
	results, err := r.Retrieve(context.Background(), "is interest allowed?")
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "2:275", top.Source.Reference)
	assert.InDelta(t, 1.0, top.Score, 1e-9)
	assert.Equal(t, []string{"finance"}, top.Source.Topics)
	assert.Equal(t, []string{"fairness"}, top.Source.Principles)
	assert.Equal(t, "those who spend in charity", top.Source.Context["2:274"])
	assert.Equal(t, "2", top.Source.Meta.Chapter)

	assert.Greater(t, top.Score, results[1].Score)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{"a": {1, 0}}}
	ix, err := index.Build(context.Background(), emb, []domain.Source{{Reference: "1:1", Text: "a"}})
	require.NoError(t, err)

	r := New(emb, ix, 5)
	_, err = r.Retrieve(context.Background(), "unknown question")
	assert.Error(t, err)
}
