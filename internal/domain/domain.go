package domain

import "context"

// SourceType identifies the scripture collection a source belongs to.
type SourceType string

const (
	SourceQuran  SourceType = "quran"
	SourceHadith SourceType = "hadith"
)

// SourceMeta carries the structured metadata of a source. Chapter and
// VerseNumber are parsed out of the reference at load time; anything
// beyond the named fields goes into Extra.
type SourceMeta struct {
	Chapter     string            `json:"chapter"`
	VerseNumber string            `json:"verse_number"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Source is a single scripture passage. Immutable after corpus load.
type Source struct {
	Text       string            `json:"text"`
	SourceType SourceType        `json:"source_type"`
	Reference  string            `json:"reference"` // e.g. "2:275"
	Topics     []string          `json:"topics"`
	Principles []string          `json:"principles"`
	Context    map[string]string `json:"context"` // reference -> text of surrounding verses
	Meta       SourceMeta        `json:"metadata"`
}

// ScoredSource pairs a source with its similarity to a query.
type ScoredSource struct {
	Source Source
	Score  float64
}

// Verdict is the closed set of rulings a reasoning response ends with.
type Verdict string

const (
	VerdictPermissible   Verdict = "Permissible"
	VerdictForbidden     Verdict = "Forbidden"
	VerdictDiscouraged   Verdict = "Discouraged"
	VerdictIndeterminate Verdict = "Indeterminate"
)

// ConfidenceLevel is the qualifier attached to a verdict.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// ReasoningResult is the bundle returned for a single question.
type ReasoningResult struct {
	Question        string   `json:"question"`
	RelevantSources []Source `json:"relevant_sources"`
	Reasoning       string   `json:"reasoning"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
// Name identifies the embedding model; vectors from different names
// are never comparable, so the index records and checks it.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces text from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
