package metrics

import (
	"sort"
	"sync"
)

// ProviderStats counts turns sent to one provider.
type ProviderStats struct {
	Label    string `json:"label"`
	Turns    int    `json:"turns"`
	Failures int    `json:"failures"`
	Tokens   int    `json:"tokens"`
}

// Usage accumulates per-provider counters.
type Usage struct {
	mu    sync.Mutex
	stats map[string]*ProviderStats
}

func New() *Usage {
	return &Usage{stats: make(map[string]*ProviderStats)}
}

// Record adds one finished turn for label.
func (u *Usage) Record(label string, tokens int, failed bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.stats[label]
	if !ok {
		s = &ProviderStats{Label: label}
		u.stats[label] = s
	}
	s.Turns++
	s.Tokens += tokens
	if failed {
		s.Failures++
	}
}

// Snapshot returns the counters sorted by label.
func (u *Usage) Snapshot() []ProviderStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]ProviderStats, 0, len(u.stats))
	for _, s := range u.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
