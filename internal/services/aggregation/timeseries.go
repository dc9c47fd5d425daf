package aggregation

import (
	"sort"
	"strings"
	"time"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

// Frequency is the bucket width of a sentiment time series
type Frequency string

const (
	FrequencyHour Frequency = "hour"
	FrequencyDay  Frequency = "day"
	FrequencyWeek Frequency = "week"
)

// maxFilledBuckets bounds gap filling; wider ranges only report non-empty buckets
const maxFilledBuckets = 2000

// ParseFrequency parses hour|day|week (also H, D, W)
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "h", "hourly":
		return FrequencyHour, nil
	case "", "day", "d", "daily":
		return FrequencyDay, nil
	case "week", "w", "weekly":
		return FrequencyWeek, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidInput, "unknown frequency %q", s)
}

// truncate returns the UTC start of the bucket containing t. Weeks start on Monday.
func (f Frequency) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch f {
	case FrequencyHour:
		return t.Truncate(time.Hour)
	case FrequencyWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func (f Frequency) next(t time.Time) time.Time {
	switch f {
	case FrequencyHour:
		return t.Add(time.Hour)
	case FrequencyWeek:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// TimeSeries buckets posts by timestamp (UTC) and reports the mean compound
// and mention count per bucket in chronological order. Posts without a
// timestamp are skipped. Empty buckets between the first and last one are
// reported with zero mentions.
func TimeSeries(posts []sentiment.ScoredPost, freq Frequency) []sentiment.TimeBucket {
	byBucket := make(map[time.Time][]float64)
	var first, last time.Time
	for _, p := range posts {
		ts, ok := timeOf(p)
		if !ok {
			continue
		}
		start := freq.truncate(ts)
		if len(byBucket) == 0 || start.Before(first) {
			first = start
		}
		if len(byBucket) == 0 || start.After(last) {
			last = start
		}
		byBucket[start] = append(byBucket[start], p.Compound)
	}
	if len(byBucket) == 0 {
		return []sentiment.TimeBucket{}
	}

	var starts []time.Time
	for t, n := first, 0; !t.After(last) && n < maxFilledBuckets; t, n = freq.next(t), n+1 {
		starts = append(starts, t)
	}
	if starts[len(starts)-1].Before(last) {
		// too wide to fill, fall back to the non-empty buckets only
		starts = starts[:0]
		for t := range byBucket {
			starts = append(starts, t)
		}
		sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	}

	out := make([]sentiment.TimeBucket, 0, len(starts))
	for _, start := range starts {
		values := byBucket[start]
		mean, _ := meanMedian(values)
		out = append(out, sentiment.TimeBucket{
			Start:        start,
			MeanCompound: mean,
			Mentions:     len(values),
		})
	}
	return out
}

func timeOf(p sentiment.ScoredPost) (time.Time, bool) {
	if p.Post.Timestamp.IsZero() {
		return time.Time{}, false
	}
	return p.Post.Timestamp.UTC(), true
}
