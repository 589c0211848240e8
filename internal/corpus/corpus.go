package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"qiyas/internal/domain"
)

// contextRadius is the number of neighboring verses attached on each
// side of a verse as its context window.
const contextRadius = 2

type rawVerse struct {
	Reference  string   `json:"reference"`
	Text       string   `json:"text"`
	SourceType string   `json:"source_type,omitempty"`
	Topics     []string `json:"topics"`
	Principles []string `json:"principles"`
}

type rawCorpus struct {
	Verses []rawVerse `json:"verses"`
}

// Load reads a verse corpus from a JSON file and returns sources in
// corpus order. Order is semantically meaningful: adjacency in the
// slice defines each verse's context window. Any missing required
// field or duplicate reference fails the whole load with a
// DataLoadError; a partial corpus is never returned.
func Load(path string) ([]domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.DataLoadError{Path: path, Err: err}
	}
	var raw rawCorpus
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.DataLoadError{Path: path, Err: err}
	}
	if len(raw.Verses) == 0 {
		return nil, &domain.DataLoadError{Path: path, Err: fmt.Errorf("corpus contains no verses")}
	}

	sources := make([]domain.Source, 0, len(raw.Verses))
	seen := make(map[string]struct{}, len(raw.Verses))
	for i, v := range raw.Verses {
		if strings.TrimSpace(v.Text) == "" {
			return nil, &domain.DataLoadError{Path: path, Err: fmt.Errorf("verse %d: missing text", i)}
		}
		if strings.TrimSpace(v.Reference) == "" {
			return nil, &domain.DataLoadError{Path: path, Err: fmt.Errorf("verse %d: missing reference", i)}
		}
		if _, dup := seen[v.Reference]; dup {
			return nil, &domain.DataLoadError{Path: path, Err: fmt.Errorf("duplicate reference %s", v.Reference)}
		}
		seen[v.Reference] = struct{}{}

		st := domain.SourceType(v.SourceType)
		if st == "" {
			st = domain.SourceQuran
		}
		sources = append(sources, domain.Source{
			Text:       v.Text,
			SourceType: st,
			Reference:  v.Reference,
			Topics:     v.Topics,
			Principles: v.Principles,
			Meta:       parseMeta(v.Reference),
		})
	}

	attachContext(sources)
	return sources, nil
}

// parseMeta splits a "chapter:verse" reference into structured fields.
// References that don't follow the pattern keep the whole string as
// chapter, which is as much structure as a hadith reference carries.
func parseMeta(reference string) domain.SourceMeta {
	chapter, verse, ok := strings.Cut(reference, ":")
	if !ok {
		return domain.SourceMeta{Chapter: reference}
	}
	return domain.SourceMeta{
		Chapter:     chapter,
		VerseNumber: strings.TrimPrefix(verse, "verse_"),
	}
}

// attachContext gives each source the text of up to contextRadius
// verses before and after it in corpus order. First and last verses
// simply get fewer entries; the verse itself is never included.
func attachContext(sources []domain.Source) {
	for i := range sources {
		start := i - contextRadius
		if start < 0 {
			start = 0
		}
		end := i + contextRadius + 1
		if end > len(sources) {
			end = len(sources)
		}
		ctx := make(map[string]string, end-start-1)
		for j := start; j < end; j++ {
			if j == i {
				continue
			}
			ctx[sources[j].Reference] = sources[j].Text
		}
		sources[i].Context = ctx
	}
}
