package store

import (
	"sort"

	"github.com/tmammadov17503/rag-ml-ops/internal/keyword"
	"github.com/tmammadov17503/rag-ml-ops/internal/vector"
)

// fusedResult holds a corpus position with its fused keyword/semantic scores.
type fusedResult struct {
	Position      int
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normalizeKeywordScores normalizes keyword scores to [0,1] by max. Bleve
// scores are unbounded, so the best keyword hit maps to 1.
func normalizeKeywordScores(results []*keyword.Result) map[int]float64 {
	normalized := make(map[int]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.Position] = r.Score / maxScore
		} else {
			normalized[r.Position] = 0
		}
	}
	return normalized
}

// semanticScores returns inner-product scores by position. Vectors are unit
// length, so scores are already in [-1,1] and need no rescaling.
func semanticScores(results []*vector.Result) map[int]float64 {
	scores := make(map[int]float64, len(results))
	for _, r := range results {
		scores[r.Position] = float64(r.Score)
	}
	return scores
}

// fuse merges keyword and semantic score maps with weights and returns
// positions sorted by fused score descending.
func fuse(keywordScores, semanticScores map[int]float64, keywordWeight, semanticWeight float64) []*fusedResult {
	scoreMap := make(map[int]*fusedResult)
	for pos, score := range keywordScores {
		scoreMap[pos] = &fusedResult{Position: pos, KeywordScore: score}
	}
	for pos, score := range semanticScores {
		if r, exists := scoreMap[pos]; exists {
			r.SemanticScore = score
		} else {
			scoreMap[pos] = &fusedResult{Position: pos, SemanticScore: score}
		}
	}
	results := make([]*fusedResult, 0, len(scoreMap))
	for _, r := range scoreMap {
		r.Score = (keywordWeight * r.KeywordScore) + (semanticWeight * r.SemanticScore)
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Position < results[j].Position
	})
	return results
}
