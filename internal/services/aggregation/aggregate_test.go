package aggregation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
)

func scored(src sentiment.Source, id string, compound float64, ts time.Time) sentiment.ScoredPost {
	return sentiment.ScoredPost{
		Post:     sentiment.Post{Source: src, ID: id, Text: "text " + id, Timestamp: ts},
		Compound: compound,
		Label:    sentiment.LabelFor(compound),
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)

	assert.Equal(t, 0, summary.Total)
	require.Len(t, summary.Labels, 3)
	for _, l := range sentiment.AllLabels() {
		assert.Equal(t, 0, summary.Labels[l], "label %s", l)
	}
	require.Len(t, summary.Sources, 5)
	for _, src := range sentiment.AllSources() {
		assert.Equal(t, 0, summary.Sources[src], "source %s", src)
		require.NotNil(t, summary.PerSource[src])
		assert.Len(t, summary.PerSource[src].Labels, 3)
	}
	assert.Equal(t, 0.0, summary.MeanCompound)
	assert.Equal(t, 0.0, summary.PctPositive)
	assert.Nil(t, summary.Earliest)
	assert.Nil(t, summary.Latest)
}

func TestAggregate_OneOfEachLabel(t *testing.T) {
	posts := []sentiment.ScoredPost{
		scored(sentiment.SourceReddit, "a", 0.6, time.Time{}),
		scored(sentiment.SourceReddit, "b", -0.6, time.Time{}),
		scored(sentiment.SourceYouTube, "c", 0.0, time.Time{}),
	}

	summary := Aggregate(posts)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Labels[sentiment.LabelPositive])
	assert.Equal(t, 1, summary.Labels[sentiment.LabelNeutral])
	assert.Equal(t, 1, summary.Labels[sentiment.LabelNegative])
	assert.InDelta(t, 0.0, summary.MeanCompound, 1e-12)
	assert.InDelta(t, 0.0, summary.MedianCompound, 1e-12)
	assert.InDelta(t, 100.0/3, summary.PctPositive, 1e-9)

	assert.Equal(t, 2, summary.Sources[sentiment.SourceReddit])
	assert.Equal(t, 1, summary.Sources[sentiment.SourceYouTube])
	assert.Equal(t, 0, summary.Sources[sentiment.SourceTwitter])
	assert.InDelta(t, 0.0, summary.PerSource[sentiment.SourceReddit].MeanCompound, 1e-12)
	assert.Equal(t, 1, summary.PerSource[sentiment.SourceReddit].Labels[sentiment.LabelNegative])
}

func TestAggregate_PermutationInvariant(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var posts []sentiment.ScoredPost
	values := []float64{0.1, 0.33, -0.71, 0.9999, -0.05, 0.05, 0.0001, -0.4, 0.77, 0.12345}
	for i, v := range values {
		src := sentiment.AllSources()[i%5]
		posts = append(posts, scored(src, string(rune('a'+i)), v, base.Add(time.Duration(i)*time.Hour)))
	}

	want := Aggregate(posts)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]sentiment.ScoredPost, len(posts))
		copy(shuffled, posts)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(shuffled))
	}

	require.NotNil(t, want.Earliest)
	assert.Equal(t, base, *want.Earliest)
	assert.Equal(t, base.Add(9*time.Hour), *want.Latest)
}

func TestBreakdown(t *testing.T) {
	posts := []sentiment.ScoredPost{
		scored(sentiment.SourceYouTube, "1", 0.5, time.Time{}),
		scored(sentiment.SourceReddit, "2", 0.2, time.Time{}),
		scored(sentiment.SourceReddit, "3", 0.4, time.Time{}),
		scored(sentiment.SourceFinnhub, "4", -0.5, time.Time{}),
	}

	rows := Breakdown(posts)
	require.Len(t, rows, 3)
	assert.Equal(t, sentiment.SourceReddit, rows[0].Source)
	assert.Equal(t, 2, rows[0].Mentions)
	assert.InDelta(t, 0.3, rows[0].MeanCompound, 1e-12)
	// equal mentions fall back to source name
	assert.Equal(t, sentiment.SourceFinnhub, rows[1].Source)
	assert.Equal(t, sentiment.SourceYouTube, rows[2].Source)

	assert.Empty(t, Breakdown(nil))
}

func TestDistribution(t *testing.T) {
	rows := Distribution([]sentiment.ScoredPost{
		scored(sentiment.SourceTwitter, "1", 0.9, time.Time{}),
		scored(sentiment.SourceTwitter, "2", 0.8, time.Time{}),
		scored(sentiment.SourceTwitter, "3", -0.8, time.Time{}),
	})

	assert.Equal(t, []sentiment.DistributionRow{
		{Label: sentiment.LabelPositive, Count: 2},
		{Label: sentiment.LabelNeutral, Count: 0},
		{Label: sentiment.LabelNegative, Count: 1},
	}, rows)

	empty := Distribution(nil)
	require.Len(t, empty, 3)
	for _, row := range empty {
		assert.Equal(t, 0, row.Count)
	}
}

func TestSample(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	posts := []sentiment.ScoredPost{
		scored(sentiment.SourceTwitter, "old", 0, ts.Add(-time.Hour)),
		scored(sentiment.SourceTwitter, "b", 0, ts),
		scored(sentiment.SourceReddit, "z", 0, ts),
		scored(sentiment.SourceTwitter, "a", 0, ts),
		scored(sentiment.SourceYouTube, "nots", 0, time.Time{}),
	}

	got := Sample(posts, 0)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.Post.ID
	}
	assert.Equal(t, []string{"z", "a", "b", "old", "nots"}, ids)

	assert.Len(t, Sample(posts, 2), 2)
	assert.Equal(t, "old", posts[0].Post.ID, "input must not be reordered")
}
