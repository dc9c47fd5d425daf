package metrics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
)

type fakeSizer struct {
	n   int
	err error
}

func (f fakeSizer) Len(context.Context) (int, error) { return f.n, f.err }

func TestStateCollector(t *testing.T) {
	ready := func(src sentiment.Source) bool { return src == sentiment.SourceStockTwits }
	c := NewStateCollector(nil, ready, fakeSizer{n: 3})

	assert.Equal(t, len(sentiment.AllSources())+1, testutil.CollectAndCount(c))

	expected := `
# HELP sentimenttracker_cached_reports Number of reports currently held in the cache
# TYPE sentimenttracker_cached_reports gauge
sentimenttracker_cached_reports 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "sentimenttracker_cached_reports"))
}

func TestStateCollector_CacheError(t *testing.T) {
	c := NewStateCollector(nil, nil, fakeSizer{err: fmt.Errorf("redis down")})
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestRecordSourceFetch(t *testing.T) {
	before := testutil.ToFloat64(PostsFetched.WithLabelValues("reddit"))
	RecordSourceFetch("reddit", "ok", 150*time.Millisecond, 4)
	RecordSourceFetch("reddit", "empty", time.Millisecond, 0)

	assert.Equal(t, before+4, testutil.ToFloat64(PostsFetched.WithLabelValues("reddit")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(SourceFetches.WithLabelValues("reddit", "empty")), 1.0)
}

func TestRecordKafkaMessage(t *testing.T) {
	before := testutil.ToFloat64(KafkaMessages.WithLabelValues("runs", "error"))
	RecordKafkaMessage("runs", fmt.Errorf("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(KafkaMessages.WithLabelValues("runs", "error")))
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}
