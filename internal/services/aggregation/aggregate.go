package aggregation

import (
	"sort"

	"sentimenttracker/internal/domain/sentiment"
)

// Aggregate summarizes scored posts. The result does not depend on input
// order: compounds are sorted before they are summed. Every label and every
// known source is present in the count maps, zero when absent.
func Aggregate(posts []sentiment.ScoredPost) sentiment.AggregateSummary {
	summary := sentiment.AggregateSummary{
		Total:     len(posts),
		Labels:    emptyLabelCounts(),
		Sources:   make(map[sentiment.Source]int),
		PerSource: make(map[sentiment.Source]*sentiment.SourceStats),
	}
	for _, src := range sentiment.AllSources() {
		summary.Sources[src] = 0
		summary.PerSource[src] = &sentiment.SourceStats{Labels: emptyLabelCounts()}
	}

	all := make([]float64, 0, len(posts))
	bySource := make(map[sentiment.Source][]float64)

	for _, p := range posts {
		src := p.Post.Source
		summary.Labels[p.Label]++
		summary.Sources[src]++

		stats, ok := summary.PerSource[src]
		if !ok {
			stats = &sentiment.SourceStats{Labels: emptyLabelCounts()}
			summary.PerSource[src] = stats
		}
		stats.Count++
		stats.Labels[p.Label]++

		all = append(all, p.Compound)
		bySource[src] = append(bySource[src], p.Compound)

		if ts := p.Post.Timestamp; !ts.IsZero() {
			if summary.Earliest == nil || ts.Before(*summary.Earliest) {
				t := ts
				summary.Earliest = &t
			}
			if summary.Latest == nil || ts.After(*summary.Latest) {
				t := ts
				summary.Latest = &t
			}
		}
	}

	summary.MeanCompound, summary.MedianCompound = meanMedian(all)
	for src, values := range bySource {
		stats := summary.PerSource[src]
		stats.MeanCompound, stats.MedianCompound = meanMedian(values)
	}

	if summary.Total > 0 {
		total := float64(summary.Total)
		summary.PctPositive = 100 * float64(summary.Labels[sentiment.LabelPositive]) / total
		summary.PctNeutral = 100 * float64(summary.Labels[sentiment.LabelNeutral]) / total
		summary.PctNegative = 100 * float64(summary.Labels[sentiment.LabelNegative]) / total
	}

	return summary
}

// Breakdown returns one row per source with at least one post, ordered by
// mentions descending then source name
func Breakdown(posts []sentiment.ScoredPost) []sentiment.BreakdownRow {
	bySource := make(map[sentiment.Source][]float64)
	for _, p := range posts {
		bySource[p.Post.Source] = append(bySource[p.Post.Source], p.Compound)
	}

	rows := make([]sentiment.BreakdownRow, 0, len(bySource))
	for src, values := range bySource {
		mean, _ := meanMedian(values)
		rows = append(rows, sentiment.BreakdownRow{
			Source:       src,
			Mentions:     len(values),
			MeanCompound: mean,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Mentions != rows[j].Mentions {
			return rows[i].Mentions > rows[j].Mentions
		}
		return rows[i].Source < rows[j].Source
	})
	return rows
}

// Distribution returns label counts in display order (positive, neutral, negative)
func Distribution(posts []sentiment.ScoredPost) []sentiment.DistributionRow {
	counts := emptyLabelCounts()
	for _, p := range posts {
		counts[p.Label]++
	}

	rows := make([]sentiment.DistributionRow, 0, len(counts))
	for _, label := range sentiment.AllLabels() {
		rows = append(rows, sentiment.DistributionRow{Label: label, Count: counts[label]})
	}
	return rows
}

// Sample returns up to n posts, newest first. Ties are broken by source and
// then by ID so the order is stable across runs. n <= 0 returns all posts.
func Sample(posts []sentiment.ScoredPost, n int) []sentiment.ScoredPost {
	out := make([]sentiment.ScoredPost, len(posts))
	copy(out, posts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Post, out[j].Post
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.ID < b.ID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func emptyLabelCounts() map[sentiment.Label]int {
	counts := make(map[sentiment.Label]int, 3)
	for _, l := range sentiment.AllLabels() {
		counts[l] = 0
	}
	return counts
}

// meanMedian sorts a copy of values and returns their mean and median
func meanMedian(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return mean, median
}
