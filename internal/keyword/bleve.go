// Package keyword provides a Bleve keyword index over the corpus for hybrid
// retrieval.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// Result is a keyword search hit referencing a passage by corpus position.
type Result struct {
	Position int
	Score    float64
}

// Index is a Bleve-backed keyword index. Documents are keyed by their corpus
// position so keyword hits line up with the vector index.
type Index struct {
	index bleve.Index
}

type passage struct {
	Content string `json:"content"`
}

// Open opens the index at path, or creates it when missing. The standard
// analyzer (lowercase + tokenize, no stemming) keeps exact words matchable.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open keyword index: %w", openErr)
		}
		return &Index{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", contentMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Rebuild replaces the index at path with one built from texts.
func Rebuild(path string, texts []string) (*Index, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove stale keyword index: %w", err)
	}
	idx, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := idx.IndexAll(texts); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

// IndexAll indexes every text under its corpus position.
func (x *Index) IndexAll(texts []string) error {
	batch := x.index.NewBatch()
	for i, text := range texts {
		if err := batch.Index(strconv.Itoa(i), passage{Content: text}); err != nil {
			return fmt.Errorf("index passage %d: %w", i, err)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("commit keyword batch: %w", err)
	}
	return nil
}

// Search runs a match query and returns up to limit hits by corpus position.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]*Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		out = append(out, &Result{Position: pos, Score: hit.Score})
	}
	return out, nil
}

// Count returns the number of indexed passages.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.index.Close()
}
