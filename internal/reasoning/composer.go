package reasoning

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"qiyas/internal/domain"
)

// promptTemplate is the five-step reasoning protocol: principle
// extraction, context weighing, analogy (Qiyas), higher objectives
// (Maqasid), tagged conclusion. The generation capability is
// instructed, not verified, to stay inside the supplied sources.
const promptTemplate = `Question: %s

Relevant Islamic Sources:
%s

IMPORTANT: Only use the sources provided above. Do not use any other knowledge.
Even if the sources do not directly address the question, use Islamic principles and analogical reasoning (Qiyas) to derive an answer.

Please reason about this question following these steps:
1. Extract key principles from the provided sources
2. Consider the context of each verse (surrounding verses and chapter theme)
3. Apply analogical reasoning (Qiyas):
  - What are the underlying principles in these verses?
  - How do these principles apply to the current situation?
  - What similarities exist between the situations?
  - What would achieve the same purpose in today's context?
4. Consider the broader objectives (Maqasid):
  - How does this relate to preserving faith, life, intellect, family, or property?
  - What promotes benefit and prevents harm?
5. Provide evidence for your reasoning, explaining how the principles apply

Remember:
- Use analogical reasoning even when verses don't directly address the topic
- Consider the spirit and purpose of the verses, not just literal meanings
- Quote specific verses when making a point
- Clearly state your reasoning process
- Acknowledge uncertainty when present

End with a clear conclusion in this format:

  CONCLUSION: [one of: Permissible/Forbidden/Discouraged/Indeterminate]
  CONFIDENCE: [High/Medium/Low] based on strength of analogical reasoning

  Allah knows best.

Reasoning:
`

// Composer assembles the reasoning prompt and invokes the generation
// capability.
type Composer struct {
	generator domain.Generator
}

// New creates a composer over a generation capability.
func New(generator domain.Generator) *Composer {
	return &Composer{generator: generator}
}

// Compose builds the prompt from the question and retrieved sources,
// invokes generation and returns the raw reasoning text. Generation
// failures surface as a GenerationError, never as a partial answer.
func (c *Composer) Compose(ctx context.Context, question string, sources []domain.ScoredSource) (string, error) {
	prompt := BuildPrompt(question, sources)
	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &domain.GenerationError{Err: err}
	}
	return text, nil
}

// BuildPrompt renders the reasoning protocol around the question and a
// serialization of each source.
func BuildPrompt(question string, sources []domain.ScoredSource) string {
	blocks := make([]string, 0, len(sources))
	for _, s := range sources {
		blocks = append(blocks, formatSource(s.Source))
	}
	return fmt.Sprintf(promptTemplate, question, strings.Join(blocks, "\n\n"))
}

// formatSource serializes one source as reference, text, surrounding
// context, topics and principles.
func formatSource(src domain.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:\n%s\n", src.SourceType, src.Reference, src.Text)
	if len(src.Context) > 0 {
		b.WriteString("Surrounding verses:\n")
		for _, ref := range sortedRefs(src.Context) {
			fmt.Fprintf(&b, "  %s: %s\n", ref, src.Context[ref])
		}
	}
	if len(src.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(src.Topics, ", "))
	}
	if len(src.Principles) > 0 {
		fmt.Fprintf(&b, "Principles: %s\n", strings.Join(src.Principles, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

var conclusionRe = regexp.MustCompile(`(?i)CONCLUSION:\s*\[?\s*(Permissible|Forbidden|Discouraged|Indeterminate)`)
var confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*\[?\s*(High|Medium|Low)`)

// ParseConclusion extracts the verdict tag and confidence qualifier
// from generated reasoning text. A response missing either falls back
// to Indeterminate/Low rather than failing; the raw text is still the
// answer of record.
func ParseConclusion(text string) (domain.Verdict, domain.ConfidenceLevel) {
	verdict := domain.VerdictIndeterminate
	if m := conclusionRe.FindStringSubmatch(text); m != nil {
		verdict = domain.Verdict(canonical(m[1]))
	}
	level := domain.ConfidenceLow
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		level = domain.ConfidenceLevel(canonical(m[1]))
	}
	return verdict, level
}

func canonical(s string) string {
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func sortedRefs(m map[string]string) []string {
	refs := make([]string, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
