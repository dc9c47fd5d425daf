package sentiment

import (
	"time"

	"github.com/google/uuid"
)

// FetchStatus is the per-run outcome of one source
type FetchStatus string

const (
	StatusOK          FetchStatus = "ok"
	StatusEmpty       FetchStatus = "empty"
	StatusPartial     FetchStatus = "partial"
	StatusUnavailable FetchStatus = "unavailable"
	StatusRateLimited FetchStatus = "rate_limited"
	StatusTimeout     FetchStatus = "timeout"
	StatusFailed      FetchStatus = "failed"
	StatusMock        FetchStatus = "mock"
)

// Succeeded reports whether the source contributed real data
func (s FetchStatus) Succeeded() bool {
	return s == StatusOK || s == StatusPartial
}

// SourceStatus records what happened to one source during a run
type SourceStatus struct {
	Source   Source        `json:"source"`
	Status   FetchStatus   `json:"status"`
	Posts    int           `json:"posts"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is everything a presentation surface needs to render one run
type Report struct {
	RunID        uuid.UUID         `json:"run_id"`
	Ticker       string            `json:"ticker"`
	CompanyName  string            `json:"company_name,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Sources      []SourceStatus    `json:"sources"`
	Summary      AggregateSummary  `json:"summary"`
	Breakdown    []BreakdownRow    `json:"breakdown"`
	Distribution []DistributionRow `json:"distribution"`
	TimeSeries   []TimeBucket      `json:"time_series"`
	Posts        []ScoredPost      `json:"posts"`
	Sample       []ScoredPost      `json:"sample"`
	Topics       []Topic           `json:"topics"`
	Words        []TermCount       `json:"words"`
	Social       *SocialSentiment  `json:"finnhub_social,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	NoData       bool              `json:"no_data"`
	Cached       bool              `json:"cached"`
}

// SucceededSources returns the sources that contributed real posts
func (r *Report) SucceededSources() []Source {
	var out []Source
	for _, st := range r.Sources {
		if st.Status.Succeeded() {
			out = append(out, st.Source)
		}
	}
	return out
}

// FailedSources returns the sources that ended in an error state
func (r *Report) FailedSources() []Source {
	var out []Source
	for _, st := range r.Sources {
		switch st.Status {
		case StatusUnavailable, StatusRateLimited, StatusTimeout, StatusFailed:
			out = append(out, st.Source)
		}
	}
	return out
}

// RunCompletedEvent is published after every finished run
type RunCompletedEvent struct {
	RunID       uuid.UUID        `json:"run_id"`
	Ticker      string           `json:"ticker"`
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     AggregateSummary `json:"summary"`
	Sources     []SourceStatus   `json:"sources"`
	TopicCount  int              `json:"topic_count"`
	NoData      bool             `json:"no_data"`
}

// NewRunCompletedEvent builds the event for a report
func NewRunCompletedEvent(r *Report) RunCompletedEvent {
	return RunCompletedEvent{
		RunID:       r.RunID,
		Ticker:      r.Ticker,
		GeneratedAt: r.GeneratedAt,
		Summary:     r.Summary,
		Sources:     r.Sources,
		TopicCount:  len(r.Topics),
		NoData:      r.NoData,
	}
}
