package search

import (
	"sort"

	"github.com/hyperjump/manabu/internal/keyword"
	"github.com/hyperjump/manabu/internal/vector"
)

// FusedResult holds a video ID and fused keyword/semantic scores.
type FusedResult struct {
	VideoID       string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores normalizes keyword scores to [0,1] by max.
func NormalizeKeywordScores(results []*keyword.KeywordResult) map[string]float64 {
	if len(results) == 0 {
		return make(map[string]float64)
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	normalized := make(map[string]float64)
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// NormalizeSemanticScores keeps hits at or above minScore. Cosine scores are already in [0,1]
// for related texts; negatives are clamped to 0.
func NormalizeSemanticScores(results []*vector.VectorResult, minScore float64) map[string]float64 {
	normalized := make(map[string]float64)
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		if r.Score < 0 {
			normalized[r.ID] = 0
			continue
		}
		normalized[r.ID] = r.Score
	}
	return normalized
}

// Fuse merges keyword and semantic score maps with weights and returns results sorted by score,
// ties broken by video ID.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedResult {
	scoreMap := make(map[string]*FusedResult)
	for id, score := range keywordScores {
		scoreMap[id] = &FusedResult{
			VideoID:      id,
			KeywordScore: score,
		}
	}
	for id, score := range semanticScores {
		if result, exists := scoreMap[id]; exists {
			result.SemanticScore = score
		} else {
			scoreMap[id] = &FusedResult{
				VideoID:       id,
				SemanticScore: score,
			}
		}
	}
	results := make([]*FusedResult, 0, len(scoreMap))
	for _, result := range scoreMap {
		result.Score = (keywordWeight * result.KeywordScore) + (semanticWeight * result.SemanticScore)
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].VideoID < results[j].VideoID
	})
	return results
}
