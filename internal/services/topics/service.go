package topics

import (
	"sort"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const (
	DefaultTopics   = 5
	MaxTopics       = 10
	DefaultTopTerms = 8

	defaultMaxFeatures = 2000
	defaultMaxIter     = 400
	defaultTol         = 1e-4

	// corpora below this size keep terms seen in a single document
	smallCorpus = 10
)

// Config tunes the topic modeler. Zero values select the defaults.
type Config struct {
	TopTerms    int
	MaxFeatures int
	MaxIter     int
}

// Service extracts NMF topics and word-cloud frequencies from post texts
type Service struct {
	topTerms    int
	maxFeatures int
	solver      nmf
	log         *logger.Logger
}

// NewService creates a topic modeling service
func NewService(cfg Config, log *logger.Logger) *Service {
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = DefaultTopTerms
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = defaultMaxFeatures
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = defaultMaxIter
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		topTerms:    cfg.TopTerms,
		maxFeatures: cfg.MaxFeatures,
		solver:      nmf{maxIter: cfg.MaxIter, tol: defaultTol},
		log:         log.With("component", "topics"),
	}
}

// Model clusters texts into k topics. k <= 0 selects DefaultTopics and k is
// capped at MaxTopics. A corpus too small or too uniform to factor yields
// an empty result, never an error.
func (s *Service) Model(texts []string, k int) []sentiment.Topic {
	topics, err := s.fit(texts, k)
	if err != nil {
		s.log.Debugw("No topics extracted", "documents", len(texts), "k", k, "reason", err)
		return []sentiment.Topic{}
	}
	return topics
}

func (s *Service) fit(texts []string, k int) ([]sentiment.Topic, error) {
	if k <= 0 {
		k = DefaultTopics
	}
	if k > MaxTopics {
		k = MaxTopics
	}

	docs := make([]string, 0, len(texts))
	for _, t := range texts {
		if c := nlp.CleanText(t); c != "" {
			docs = append(docs, c)
		}
	}
	if len(docs) < k {
		return nil, errors.Wrapf(errors.ErrDegenerateCorpus, "%d documents for %d topics", len(docs), k)
	}

	minDF := 2
	if len(docs) < smallCorpus {
		minDF = 1
	}
	c := vectorizer{minDF: minDF, maxFeatures: s.maxFeatures}.fit(docs)
	if len(c.terms) < k {
		return nil, errors.Wrapf(errors.ErrDegenerateCorpus, "%d features for %d topics", len(c.terms), k)
	}

	h, err := s.solver.fit(c.matrix, k)
	if err != nil {
		return nil, err
	}

	topics := make([]sentiment.Topic, 0, k)
	for i := 0; i < k; i++ {
		terms := topTerms(h.RawRowView(i), c.terms, s.topTerms)
		if len(terms) == 0 {
			return nil, errors.Wrapf(errors.ErrDegenerateCorpus, "topic %d has no terms", i+1)
		}
		topics = append(topics, sentiment.Topic{Index: i + 1, Terms: terms})
	}
	return topics, nil
}

// topTerms returns up to n positively weighted terms, weight descending
// then term ascending
func topTerms(weights []float64, vocab []string, n int) []sentiment.TermWeight {
	out := make([]sentiment.TermWeight, 0, len(weights))
	for j, w := range weights {
		if w > 0 {
			out = append(out, sentiment.TermWeight{Term: vocab[j], Weight: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
