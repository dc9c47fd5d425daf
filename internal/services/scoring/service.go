package scoring

import (
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/internal/vader"
	"sentimenttracker/pkg/logger"
)

// Service turns posts into scored posts with a VADER analyzer
type Service struct {
	analyzer *vader.Analyzer
	log      *logger.Logger
}

// NewService creates a scoring service. A nil analyzer uses the embedded lexicon.
func NewService(analyzer *vader.Analyzer, log *logger.Logger) *Service {
	if analyzer == nil {
		analyzer = vader.New(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		analyzer: analyzer,
		log:      log.With("component", "scoring"),
	}
}

// Score returns the compound score and label of a text.
// Empty or whitespace-only text is neutral with a zero score.
func (s *Service) Score(text string) (float64, sentiment.Label) {
	scores := s.analyzer.PolarityScores(nlp.CleanText(text))
	return scores.Compound, sentiment.LabelFor(scores.Compound)
}

// ScorePost scores a single post. The post itself is copied unchanged.
func (s *Service) ScorePost(p sentiment.Post) sentiment.ScoredPost {
	scores := s.analyzer.PolarityScores(nlp.CleanText(p.Text))
	return sentiment.ScoredPost{
		Post:     p,
		Compound: scores.Compound,
		Label:    sentiment.LabelFor(scores.Compound),
		Positive: scores.Positive,
		Neutral:  scores.Neutral,
		Negative: scores.Negative,
	}
}

// ScorePosts scores every post in order. Posts that are empty after
// normalization (a bare link, a lone mention) carry no text to score and
// are skipped.
func (s *Service) ScorePosts(posts []sentiment.Post) []sentiment.ScoredPost {
	out := make([]sentiment.ScoredPost, 0, len(posts))
	skipped := 0
	for _, p := range posts {
		if nlp.CleanText(p.Text) == "" {
			skipped++
			continue
		}
		out = append(out, s.ScorePost(p))
	}
	if skipped > 0 {
		s.log.Debugw("Skipped posts without scorable text", "skipped", skipped, "scored", len(out))
	}
	return out
}
