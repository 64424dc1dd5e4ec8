// Package citation scores document chunks against a candidate value and
// returns the top supporting passages. Ranking is purely lexical.
package citation

import (
	"sort"
	"strings"

	"github.com/sells-group/contract-review/internal/model"
)

const (
	// DefaultTopK is the number of citations retained per extraction.
	DefaultTopK = 3

	// maxCitationLen truncates citation text for storage.
	maxCitationLen = 500

	// containmentBoost is added when the query appears verbatim in a chunk.
	containmentBoost = 0.3
)

// Rank scores every chunk against the query (token-set Jaccard similarity
// plus a containment boost, capped at 1.0) and returns the topK chunks with
// score > 0, ordered by descending relevance. Ties keep chunk order. An
// empty query yields no citations.
func Rank(query string, chunks []model.TextChunk, topK int) []model.Citation {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenSet(queryLower)

	type scored struct {
		chunk model.TextChunk
		score float64
	}
	results := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		chunkLower := strings.ToLower(c.Text)
		score := jaccard(queryTokens, tokenSet(chunkLower))
		if strings.Contains(chunkLower, queryLower) {
			score += containmentBoost
			if score > 1.0 {
				score = 1.0
			}
		}
		results = append(results, scored{chunk: c, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	var citations []model.Citation
	for _, r := range results {
		if len(citations) >= topK {
			break
		}
		if r.score <= 0 {
			continue
		}
		text := r.chunk.Text
		if len(text) > maxCitationLen {
			text = text[:maxCitationLen]
		}
		section := r.chunk.SectionTitle
		if section == "" {
			section = "Main"
		}
		citations = append(citations, model.Citation{
			CitationText:   text,
			PageNumber:     r.chunk.PageNumber,
			SectionTitle:   section,
			RelevanceScore: r.score,
			ChunkIndex:     r.chunk.Index,
		})
	}
	return citations
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
