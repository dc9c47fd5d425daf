package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("H")
	require.NoError(t, err)
	assert.Equal(t, FrequencyHour, f)

	f, err = ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, FrequencyDay, f)

	f, err = ParseFrequency("weekly")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeek, f)

	_, err = ParseFrequency("month")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestTimeSeries_Daily(t *testing.T) {
	day1 := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 6, 5, 23, 59, 0, 0, time.UTC)
	posts := []sentiment.ScoredPost{
		scored(sentiment.SourceReddit, "1", 0.5, day1),
		scored(sentiment.SourceReddit, "2", 0.1, day1.Add(2*time.Hour)),
		scored(sentiment.SourceTwitter, "3", -0.4, day3),
		scored(sentiment.SourceTwitter, "4", 0.9, time.Time{}),
	}

	series := TimeSeries(posts, FrequencyDay)
	require.Len(t, series, 3)

	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), series[0].Start)
	assert.Equal(t, 2, series[0].Mentions)
	assert.InDelta(t, 0.3, series[0].MeanCompound, 1e-12)

	assert.Equal(t, 0, series[1].Mentions)
	assert.Equal(t, 0.0, series[1].MeanCompound)

	assert.Equal(t, 1, series[2].Mentions)
	assert.InDelta(t, -0.4, series[2].MeanCompound, 1e-12)
}

func TestTimeSeries_WeekStartsMonday(t *testing.T) {
	sunday := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	series := TimeSeries([]sentiment.ScoredPost{
		scored(sentiment.SourceReddit, "1", 0.2, sunday),
		scored(sentiment.SourceReddit, "2", 0.4, monday),
	}, FrequencyWeek)

	require.Len(t, series, 2)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), series[0].Start)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), series[1].Start)
}

func TestTimeSeries_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	local := time.Date(2024, 6, 3, 22, 0, 0, 0, loc) // 03:00 UTC next day
	series := TimeSeries([]sentiment.ScoredPost{scored(sentiment.SourceReddit, "1", 0.2, local)}, FrequencyDay)

	require.Len(t, series, 1)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), series[0].Start)
}

func TestTimeSeries_NoTimestamps(t *testing.T) {
	series := TimeSeries([]sentiment.ScoredPost{scored(sentiment.SourceReddit, "1", 0.2, time.Time{})}, FrequencyHour)
	assert.Empty(t, series)
	assert.NotNil(t, series)
}

func TestTimeSeries_WideRangeSkipsGaps(t *testing.T) {
	a := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := TimeSeries([]sentiment.ScoredPost{
		scored(sentiment.SourceReddit, "2", 0.2, b),
		scored(sentiment.SourceReddit, "1", 0.1, a),
	}, FrequencyHour)

	require.Len(t, series, 2)
	assert.Equal(t, a, series[0].Start)
	assert.Equal(t, b, series[1].Start)
}
