package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiyas/internal/domain"
	"qiyas/internal/embedding/tfidf"
)

const reasoningText = "The provided verses establish principles of fair exchange.\n\n" +
	"CONCLUSION: Indeterminate\nCONFIDENCE: Low\n\nAllah knows best."

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// countingEmbedder wraps another embedder and counts Embed calls, to
// observe whether an engine re-embedded the corpus or reused the
// persisted index.
type countingEmbedder struct {
	domain.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	c.calls++
	return c.Embedder.Embed(ctx, text)
}

const testCorpus = `{
  "verses": [
    {"reference": "2:275", "text": "Allah has permitted trade and has forbidden usury.", "topics": ["finance"], "principles": ["fairness"]},
    {"reference": "2:276", "text": "Allah destroys usury and gives increase for charities.", "topics": ["finance"], "principles": ["charity"]},
    {"reference": "2:277", "text": "Those who believe and do righteous deeds and establish prayer.", "topics": ["worship"], "principles": ["faith"]},
    {"reference": "2:278", "text": "Fear Allah and give up what remains of usury.", "topics": ["finance"], "principles": ["obedience"]},
    {"reference": "2:279", "text": "You may have your principal, wrong not and you shall not be wronged.", "topics": ["justice"], "principles": ["equity"]}
  ]
}`

func writeTestCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quran.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o644))
	return path
}

func newTestEngine(t *testing.T, gen domain.Generator) *Engine {
	t.Helper()
	e, err := New(context.Background(), Config{CorpusPath: writeTestCorpus(t), TopK: 5}, tfidf.New(), gen)
	require.NoError(t, err)
	return e
}

func TestReasonUnrelatedQuestion(t *testing.T) {
	gen := &stubGenerator{response: reasoningText}
	e := newTestEngine(t, gen)

	result, err := e.Reason(context.Background(), "zymurgy blockchain telescope")
	require.NoError(t, err)

	assert.Len(t, result.RelevantSources, 5)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Contains(t, result.Reasoning, "CONCLUSION: Indeterminate")
}

func TestReasonIdenticalVerseRanksFirst(t *testing.T) {
	gen := &stubGenerator{response: reasoningText}
	e := newTestEngine(t, gen)

	question := "Allah has permitted trade and has forbidden usury."
	result, err := e.Reason(context.Background(), question)
	require.NoError(t, err)

	require.NotEmpty(t, result.RelevantSources)
	assert.Equal(t, "2:275", result.RelevantSources[0].Reference)
	// one near-perfect match lifts confidence well above the floor
	assert.Greater(t, result.ConfidenceScore, 0.15)

	// the prompt carried the matching source to the generator
	require.NotEmpty(t, gen.prompts)
	assert.Contains(t, gen.prompts[0], "2:275")
}

func TestReasonEmptyQuestion(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{response: reasoningText})

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := e.Reason(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	}
}

func TestReasonGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("capability unavailable")}
	e := newTestEngine(t, gen)

	_, err := e.Reason(context.Background(), "is trade permitted?")
	var genErr *domain.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestPersistedIndexReused(t *testing.T) {
	corpusPath := writeTestCorpus(t)
	indexDir := filepath.Join(t.TempDir(), "index")
	cfg := Config{CorpusPath: corpusPath, IndexDir: indexDir, IndexVersion: "1.1", TopK: 5}
	gen := &stubGenerator{response: reasoningText}

	first := &countingEmbedder{Embedder: tfidf.New()}
	_, err := New(context.Background(), cfg, first, gen)
	require.NoError(t, err)
	assert.Equal(t, 5, first.calls, "initial build embeds every source")

	second := &countingEmbedder{Embedder: tfidf.New()}
	e, err := New(context.Background(), cfg, second, gen)
	require.NoError(t, err)
	assert.Equal(t, 0, second.calls, "matching version reuses persisted vectors")

	// the reused index still answers
	result, err := e.Reason(context.Background(), "usury")
	require.NoError(t, err)
	assert.Len(t, result.RelevantSources, 5)
}

func TestVersionBumpTriggersRebuild(t *testing.T) {
	corpusPath := writeTestCorpus(t)
	indexDir := filepath.Join(t.TempDir(), "index")
	gen := &stubGenerator{response: reasoningText}

	first := &countingEmbedder{Embedder: tfidf.New()}
	_, err := New(context.Background(), Config{CorpusPath: corpusPath, IndexDir: indexDir, IndexVersion: "1.0", TopK: 5}, first, gen)
	require.NoError(t, err)

	second := &countingEmbedder{Embedder: tfidf.New()}
	_, err = New(context.Background(), Config{CorpusPath: corpusPath, IndexDir: indexDir, IndexVersion: "1.1", TopK: 5}, second, gen)
	require.NoError(t, err)
	assert.Equal(t, 5, second.calls, "version mismatch rebuilds from scratch")

	// the store now carries the new version; a third engine reuses it
	third := &countingEmbedder{Embedder: tfidf.New()}
	_, err = New(context.Background(), Config{CorpusPath: corpusPath, IndexDir: indexDir, IndexVersion: "1.1", TopK: 5}, third, gen)
	require.NoError(t, err)
	assert.Equal(t, 0, third.calls)
}

func TestConcurrentRebuildsSerialized(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{response: reasoningText})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Rebuild(context.Background()))
		}()
	}
	wg.Wait()

	result, err := e.Reason(context.Background(), "usury")
	require.NoError(t, err)
	assert.Len(t, result.RelevantSources, 5)
}

func TestReasonResultShape(t *testing.T) {
	gen := &stubGenerator{response: reasoningText}
	e := newTestEngine(t, gen)

	result, err := e.Reason(context.Background(), "  is usury allowed?  ")
	require.NoError(t, err)

	assert.Equal(t, "is usury allowed?", result.Question)
	assert.Equal(t, reasoningText, result.Reasoning)
	assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
	// retrieval order is preserved in the result bundle
	require.Len(t, result.RelevantSources, 5)
	for _, src := range result.RelevantSources {
		assert.NotEmpty(t, src.Reference)
		assert.NotContains(t, src.Context, src.Reference)
	}
}
