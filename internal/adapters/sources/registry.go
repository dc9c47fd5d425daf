package sources

import (
	"sync"

	"sentimenttracker/internal/domain/sentiment"
)

// Registry maps each source to its adapter
type Registry struct {
	mu       sync.RWMutex
	fetchers map[sentiment.Source]Fetcher
}

// NewRegistry creates a registry holding the given fetchers
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[sentiment.Source]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds or replaces the fetcher for its source
func (r *Registry) Register(f Fetcher) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Source()] = f
}

// Get returns the fetcher for src
func (r *Registry) Get(src sentiment.Source) (Fetcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[src]
	return f, ok
}

// Sources returns the registered sources in canonical order
func (r *Registry) Sources() []sentiment.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]sentiment.Source, 0, len(r.fetchers))
	for _, src := range sentiment.AllSources() {
		if _, ok := r.fetchers[src]; ok {
			out = append(out, src)
		}
	}
	return out
}

// SocialProvider returns the first registered fetcher that also serves
// aggregated social sentiment
func (r *Registry) SocialProvider() (SocialProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range sentiment.AllSources() {
		if sp, ok := r.fetchers[src].(SocialProvider); ok {
			return sp, true
		}
	}
	return nil, false
}
