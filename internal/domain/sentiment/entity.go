package sentiment

import (
	"strings"
	"time"
)

// Source identifies one upstream platform
type Source string

const (
	SourceTwitter    Source = "twitter"
	SourceReddit     Source = "reddit"
	SourceYouTube    Source = "youtube"
	SourceFinnhub    Source = "finnhub"
	SourceStockTwits Source = "stocktwits"
)

// AllSources returns every source in canonical order. Merges, summaries
// and reports always iterate sources in this order.
func AllSources() []Source {
	return []Source{SourceTwitter, SourceReddit, SourceYouTube, SourceFinnhub, SourceStockTwits}
}

// ParseSource parses a source name (case-insensitive, "x" is an alias for twitter)
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "twitter", "x":
		return SourceTwitter, true
	case "reddit":
		return SourceReddit, true
	case "youtube", "yt":
		return SourceYouTube, true
	case "finnhub":
		return SourceFinnhub, true
	case "stocktwits":
		return SourceStockTwits, true
	}
	return "", false
}

// DisplayName returns the platform name shown to humans
func (s Source) DisplayName() string {
	switch s {
	case SourceTwitter:
		return "X"
	case SourceReddit:
		return "Reddit"
	case SourceYouTube:
		return "YouTube"
	case SourceFinnhub:
		return "Finnhub"
	case SourceStockTwits:
		return "StockTwits"
	}
	return string(s)
}

// Post is a normalized text item from any platform. Immutable once fetched.
type Post struct {
	Source    Source            `json:"source"`
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Author    string            `json:"author,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	URL       string            `json:"url,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Label is the categorical sentiment of a post
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Label thresholds on the compound score (inclusive)
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// AllLabels returns labels in display order
func AllLabels() []Label {
	return []Label{LabelPositive, LabelNeutral, LabelNegative}
}

// LabelFor maps a compound score to its label
func LabelFor(compound float64) Label {
	switch {
	case compound >= PositiveThreshold:
		return LabelPositive
	case compound <= NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// ScoredPost is the derived sentiment record for exactly one Post
type ScoredPost struct {
	Post     Post    `json:"post"`
	Compound float64 `json:"compound"`
	Label    Label   `json:"label"`
	Positive float64 `json:"pos"`
	Neutral  float64 `json:"neu"`
	Negative float64 `json:"neg"`
}

// SourceStats holds per-source aggregates
type SourceStats struct {
	Count          int           `json:"count"`
	MeanCompound   float64       `json:"mean_compound"`
	MedianCompound float64       `json:"median_compound"`
	Labels         map[Label]int `json:"labels"`
}

// AggregateSummary is a per-run snapshot, recomputed on every run
type AggregateSummary struct {
	Total          int                     `json:"total"`
	Labels         map[Label]int           `json:"labels"`
	Sources        map[Source]int          `json:"sources"`
	MeanCompound   float64                 `json:"mean_compound"`
	MedianCompound float64                 `json:"median_compound"`
	PctPositive    float64                 `json:"pct_positive"`
	PctNeutral     float64                 `json:"pct_neutral"`
	PctNegative    float64                 `json:"pct_negative"`
	PerSource      map[Source]*SourceStats `json:"per_source"`
	Earliest       *time.Time              `json:"earliest,omitempty"`
	Latest         *time.Time              `json:"latest,omitempty"`
}

// BreakdownRow is one row of the per-platform table
type BreakdownRow struct {
	Source       Source  `json:"source"`
	Mentions     int     `json:"mentions"`
	MeanCompound float64 `json:"mean_compound"`
}

// DistributionRow is one bar of the label distribution chart
type DistributionRow struct {
	Label Label `json:"label"`
	Count int   `json:"count"`
}

// TimeBucket is one point of the sentiment-over-time series
type TimeBucket struct {
	Start        time.Time `json:"start"`
	MeanCompound float64   `json:"mean_compound"`
	Mentions     int       `json:"mentions"`
}

// TermWeight is one weighted term in a topic
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Topic is an NMF component described by its top terms
type Topic struct {
	Index int          `json:"index"`
	Terms []TermWeight `json:"terms"`
}

// TermCount is a word-cloud entry
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SocialSentiment is Finnhub's aggregated (not per-post) social sentiment
type SocialSentiment struct {
	Symbol               string  `json:"symbol"`
	RedditMentions       int     `json:"reddit_mentions"`
	RedditPositiveScore  float64 `json:"reddit_positive_score"`
	RedditNegativeScore  float64 `json:"reddit_negative_score"`
	TwitterMentions      int     `json:"twitter_mentions"`
	TwitterPositiveScore float64 `json:"twitter_positive_score"`
	TwitterNegativeScore float64 `json:"twitter_negative_score"`
}
