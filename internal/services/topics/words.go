package topics

import (
	"sort"
	"strings"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
)

// minCloudText is the shortest joined corpus worth drawing a word cloud for
const minCloudText = 50

// WordFrequencies counts stopword-filtered words across texts, ordered by
// count descending then term. limit <= 0 returns every term.
func WordFrequencies(texts []string, limit int) []sentiment.TermCount {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if c := nlp.CleanText(t); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	joined := strings.Join(cleaned, " ")
	if len(joined) < minCloudText {
		return []sentiment.TermCount{}
	}

	counts := make(map[string]int)
	for _, tok := range nlp.ContentTokens(joined) {
		counts[tok]++
	}

	out := make([]sentiment.TermCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, sentiment.TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
