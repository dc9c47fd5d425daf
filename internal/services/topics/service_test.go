package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
)

func twoThemeCorpus() []string {
	return []string{
		"Battery charging range is impressive",
		"battery charging range keeps improving",
		"Love the battery charging range update",
		"battery charging range beats rivals",
		"New battery charging range record",
		"battery charging range upgrade rolling out",
		"battery charging range test looks solid",
		"battery charging range numbers today https://t.co/abc",
		"earnings revenue guidance raised",
		"earnings revenue guidance strong",
		"@analyst earnings revenue guidance disappoint",
		"earnings revenue guidance call",
	}
}

func termSet(topic sentiment.Topic, n int) map[string]bool {
	set := make(map[string]bool)
	for i, tw := range topic.Terms {
		if i >= n {
			break
		}
		set[tw.Term] = true
	}
	return set
}

func TestModel_SeparatesThemes(t *testing.T) {
	svc := NewService(Config{}, nil)

	topics := svc.Model(twoThemeCorpus(), 2)
	require.Len(t, topics, 2)

	var batteryTopic, earningsTopic int
	for i, topic := range topics {
		assert.Equal(t, i+1, topic.Index)
		assert.NotEmpty(t, topic.Terms)
		assert.LessOrEqual(t, len(topic.Terms), DefaultTopTerms)

		top := termSet(topic, 3)
		if top["battery"] || top["charging"] || top["range"] {
			batteryTopic = topic.Index
			assert.False(t, top["earnings"] || top["revenue"] || top["guidance"], "topic %d mixes themes", topic.Index)
		}
		if top["earnings"] || top["revenue"] || top["guidance"] {
			earningsTopic = topic.Index
		}
	}
	assert.NotZero(t, batteryTopic)
	assert.NotZero(t, earningsTopic)
	assert.NotEqual(t, batteryTopic, earningsTopic)
}

func TestModel_TermsSorted(t *testing.T) {
	topics := NewService(Config{}, nil).Model(twoThemeCorpus(), 2)
	require.NotEmpty(t, topics)

	for _, topic := range topics {
		for i := 1; i < len(topic.Terms); i++ {
			prev, cur := topic.Terms[i-1], topic.Terms[i]
			assert.True(t, prev.Weight > cur.Weight || (prev.Weight == cur.Weight && prev.Term < cur.Term),
				"terms out of order: %v before %v", prev, cur)
			assert.Greater(t, cur.Weight, 0.0)
		}
	}
}

func TestModel_Deterministic(t *testing.T) {
	svc := NewService(Config{}, nil)
	assert.Equal(t, svc.Model(twoThemeCorpus(), 2), svc.Model(twoThemeCorpus(), 2))
}

func TestModel_TooFewDocuments(t *testing.T) {
	svc := NewService(Config{}, nil)

	topics := svc.Model([]string{"apple iphone sales", "apple iphone demand", "apple services"}, 5)
	assert.Empty(t, topics)
	assert.NotNil(t, topics)

	// k <= 0 means the default of 5 topics
	assert.Empty(t, svc.Model([]string{"a b c", "d e f", "g h i", "j k l"}, 0))

	// blank documents do not count
	assert.Empty(t, svc.Model([]string{"apple iphone", "", "   ", "https://only.a/link"}, 2))
}

func TestModel_TooFewFeatures(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "tesla"
	}
	assert.Empty(t, NewService(Config{}, nil).Model(texts, 3))
}

func TestTopTerms(t *testing.T) {
	vocab := []string{"alpha", "beta", "gamma", "delta"}
	terms := topTerms([]float64{0.5, 0.0, 0.5, 0.9}, vocab, 8)

	assert.Equal(t, []sentiment.TermWeight{
		{Term: "delta", Weight: 0.9},
		{Term: "alpha", Weight: 0.5},
		{Term: "gamma", Weight: 0.5},
	}, terms)

	assert.Len(t, topTerms([]float64{0.5, 0.1, 0.5, 0.9}, vocab, 2), 2)
	assert.Empty(t, topTerms([]float64{0, 0, 0, 0}, vocab, 8))
}

func TestAnalyze_BigramsSkipStopwords(t *testing.T) {
	grams := analyze("The battery and the charging network")
	assert.Equal(t, []string{"battery", "charging", "network", "battery charging", "charging network"}, grams)
}

func TestVectorizer_MinDFAndNormalization(t *testing.T) {
	c := vectorizer{minDF: 2, maxFeatures: 100}.fit([]string{
		"solar panels solar",
		"solar storage",
		"wind turbines",
	})
	assert.Equal(t, []string{"solar"}, c.terms)

	r, cols := c.matrix.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, cols)
	assert.InDelta(t, 1.0, c.matrix.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, c.matrix.At(1, 0), 1e-12)
	assert.Equal(t, 0.0, c.matrix.At(2, 0))
}

func TestVectorizer_MaxFeatures(t *testing.T) {
	c := vectorizer{minDF: 1, maxFeatures: 2}.fit([]string{
		"zeta zeta zeta alpha",
		"beta beta alpha",
	})
	// zeta (3) wins on frequency, alpha wins the three-way tie at 2 on name
	assert.Equal(t, []string{"alpha", "zeta"}, c.terms)
}
