package index

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"qiyas/internal/domain"
)

const (
	manifestFile = "manifest.json"
	vectorsFile  = "vectors.gob"
)

// manifest is the version tag written next to the vectors. Both the
// schema version and the embedder identity must match exactly before a
// persisted index is reused; vectors from another embedding model are
// silently wrong, not just stale.
type manifest struct {
	Version   string `json:"version"`
	Embedder  string `json:"embedder"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

type payload struct {
	Sources []domain.Source
	Vectors [][]float64
}

// Save persists the index under dir tagged with version. The write is
// atomic: everything goes to a temp directory first, which then
// replaces dir in one rename, so a crash never leaves a half-written
// index behind.
func (ix *Index) Save(dir, version string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, ".index-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	m := manifest{Version: version, Embedder: ix.embedder, Dimension: ix.dimension, Count: len(ix.sources)}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestFile), data, 0o644); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(tmp, vectorsFile))
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(payload{Sources: ix.sources, Vectors: ix.vectors}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.Rename(tmp, dir); err != nil {
		return err
	}
	slog.Info("index saved", "dir", dir, "version", version, "sources", len(ix.sources))
	return nil
}

// Load reads a persisted index from dir. It returns a usable index
// only when the stored version and embedder identity equal the
// expected ones; any mismatch is a VersionMismatchError and the caller
// must rebuild. Old vectors are never reinterpreted under a new schema.
func Load(dir, expectedVersion, embedderName string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.Version != expectedVersion {
		return nil, &domain.VersionMismatchError{Stored: m.Version, Expected: expectedVersion}
	}
	if m.Embedder != embedderName {
		return nil, &domain.VersionMismatchError{Stored: m.Embedder, Expected: embedderName}
	}

	f, err := os.Open(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var p payload
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}
	if len(p.Sources) != m.Count || len(p.Vectors) != m.Count {
		return nil, fmt.Errorf("index payload count %d/%d does not match manifest %d", len(p.Sources), len(p.Vectors), m.Count)
	}
	slog.Info("index loaded", "dir", dir, "version", m.Version, "sources", m.Count)
	return &Index{sources: p.Sources, vectors: p.Vectors, dimension: m.Dimension, embedder: m.Embedder}, nil
}
