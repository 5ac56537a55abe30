// Package store owns the retrieval state: the vector index, its metadata
// sidecar, and the optional keyword index, built once at startup and shared
// read-only afterwards.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/tmammadov17503/rag-ml-ops/internal/config"
	"github.com/tmammadov17503/rag-ml-ops/internal/corpus"
	"github.com/tmammadov17503/rag-ml-ops/internal/embedding"
	"github.com/tmammadov17503/rag-ml-ops/internal/keyword"
	"github.com/tmammadov17503/rag-ml-ops/internal/models"
	"github.com/tmammadov17503/rag-ml-ops/internal/vector"
)

// Store is the retrieval layer. After New returns, the indexes are immutable;
// all methods are safe for concurrent use.
type Store struct {
	cfg      *config.Config
	embedder embedding.Embedder
	index    *vector.Index
	keyword  *keyword.Index
	logger   *zap.Logger
}

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// Default builds the process-wide store on first call and returns the same
// instance afterwards, regardless of arguments.
func Default(cfg *config.Config, embedder embedding.Embedder, logger *zap.Logger) (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = New(cfg, embedder, logger)
	})
	return defaultStore, defaultErr
}

// New loads the persisted index when both artifacts exist, otherwise scans
// the corpus, embeds it, and persists fresh artifacts. A missing or empty
// corpus yields a working store over an empty index.
func New(cfg *config.Config, embedder embedding.Embedder, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{cfg: cfg, embedder: embedder, logger: logger}

	if fileExists(cfg.Storage.IndexPath) && fileExists(cfg.Storage.MetaPath) {
		if err := s.load(); err != nil {
			return nil, err
		}
	} else {
		if err := s.build(context.Background()); err != nil {
			return nil, err
		}
	}

	if cfg.Search.KeywordEnabled {
		if err := s.openKeyword(); err != nil {
			// Keyword search is an enhancement; retrieval still works without it.
			logger.Warn("keyword index unavailable, degrading to semantic-only search", zap.Error(err))
			s.keyword = nil
		}
	}
	return s, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// load reconstitutes the vector index from the blob plus the metadata
// sidecar. Any mismatch between the two artifacts is fatal: a wrong pairing
// would silently return the wrong passages.
func (s *Store) load() error {
	meta, err := LoadMeta(s.cfg.Storage.MetaPath)
	if err != nil {
		return err
	}
	idx, err := vector.New(meta.Dim)
	if err != nil {
		return err
	}
	if err := idx.Load(s.cfg.Storage.IndexPath, meta.Texts); err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	s.index = idx
	s.logger.Info("retrieval index loaded",
		zap.String("path", s.cfg.Storage.IndexPath),
		zap.Int("passages", idx.Size()),
		zap.Int("dimensions", idx.Dimensions()))
	return nil
}

// build scans the corpus, embeds every passage, and persists both artifacts.
func (s *Store) build(ctx context.Context) error {
	texts, err := corpus.Scan(s.cfg.Corpus.RootDir, s.cfg.Corpus.Extensions, s.logger)
	if err != nil {
		return fmt.Errorf("scan corpus: %w", err)
	}

	idx, err := vector.New(s.embedder.Dimensions())
	if err != nil {
		return err
	}
	if len(texts) > 0 {
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed corpus: %w", err)
		}
		if err := idx.Add(ctx, texts, vectors); err != nil {
			return fmt.Errorf("populate vector index: %w", err)
		}
	} else {
		s.logger.Warn("corpus is empty, serving an empty index",
			zap.String("root", s.cfg.Corpus.RootDir))
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.Storage.IndexPath), 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	if err := idx.Save(s.cfg.Storage.IndexPath); err != nil {
		return fmt.Errorf("persist vector index: %w", err)
	}
	if err := SaveMeta(s.cfg.Storage.MetaPath, &Meta{Dim: idx.Dimensions(), Texts: idx.Texts()}); err != nil {
		return err
	}
	s.index = idx
	s.logger.Info("retrieval index built",
		zap.Int("passages", idx.Size()),
		zap.Int("dimensions", idx.Dimensions()))
	return nil
}

// openKeyword opens the keyword index, rebuilding it from the passage texts
// when it is missing or out of step with the vector index.
func (s *Store) openKeyword() error {
	path := s.cfg.Storage.KeywordIndexPath
	texts := s.index.Texts()

	if _, err := os.Stat(path); err == nil {
		kw, err := keyword.Open(path)
		if err == nil {
			n, countErr := kw.Count()
			if countErr == nil && n == uint64(len(texts)) {
				s.keyword = kw
				return nil
			}
			_ = kw.Close()
			s.logger.Warn("keyword index out of step, rebuilding",
				zap.Uint64("indexed", n), zap.Int("passages", len(texts)))
		} else {
			s.logger.Warn("keyword index unreadable, rebuilding", zap.Error(err))
		}
	}

	kw, err := keyword.Rebuild(path, texts)
	if err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}
	s.keyword = kw
	return nil
}

// clampK caps a requested result count at MaxK. Zero and negative counts pass
// through: they mean "no results", not "use the default"; defaulting is a
// request-layer concern.
func (s *Store) clampK(k int) int {
	if max := s.cfg.Search.MaxK; max > 0 && k > max {
		return max
	}
	return k
}

// Search embeds the query and returns the top-k passages by inner product.
// The query is embedded at the index's dimension, not the embedder's default:
// a loaded index keeps its persisted dimension even when configuration has
// since changed, and a remote reply of the wrong size falls back to an
// index-dimension vector.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	k = s.clampK(k)
	vec, err := s.embedder.EmbedAt(ctx, query, s.index.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.SearchHit{Text: r.Text, Score: float64(r.Score)})
	}
	return hits, nil
}

// SearchHybrid fuses weighted keyword and semantic scores and returns the
// top-k passages. It falls back to semantic-only search when the keyword
// index is disabled.
func (s *Store) SearchHybrid(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	if s.keyword == nil {
		return s.Search(ctx, query, k)
	}
	k = s.clampK(k)
	if k <= 0 {
		return []models.SearchHit{}, nil
	}

	// Over-fetch both sides so fusion has candidates beyond each list's top-k.
	pool := k * 2

	vec, err := s.embedder.EmbedAt(ctx, query, s.index.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	semantic, err := s.index.Search(ctx, vec, pool)
	if err != nil {
		return nil, err
	}
	kwResults, err := s.keyword.Search(ctx, query, pool)
	if err != nil {
		s.logger.Warn("keyword search failed, using semantic scores only", zap.Error(err))
		kwResults = nil
	}

	fused := fuse(
		normalizeKeywordScores(kwResults),
		semanticScores(semantic),
		s.cfg.Search.KeywordWeight,
		s.cfg.Search.SemanticWeight,
	)
	if len(fused) > k {
		fused = fused[:k]
	}

	texts := s.index.Texts()
	hits := make([]models.SearchHit, 0, len(fused))
	for _, r := range fused {
		if r.Position < 0 || r.Position >= len(texts) {
			continue
		}
		hits = append(hits, models.SearchHit{Text: texts[r.Position], Score: r.Score})
	}
	return hits, nil
}

// Retrieve returns context passages for a chat question, using hybrid search
// when the keyword index is enabled.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	if s.cfg.Search.KeywordEnabled && s.keyword != nil {
		return s.SearchHybrid(ctx, query, k)
	}
	return s.Search(ctx, query, k)
}

// Size returns the number of indexed passages.
func (s *Store) Size() int { return s.index.Size() }

// Dimensions returns the embedding dimension of the index.
func (s *Store) Dimensions() int { return s.index.Dimensions() }

// KeywordEnabled reports whether a keyword index is serving hybrid search.
func (s *Store) KeywordEnabled() bool { return s.keyword != nil }

// Close releases the keyword index, if any.
func (s *Store) Close() error {
	if s.keyword != nil {
		return s.keyword.Close()
	}
	return nil
}
