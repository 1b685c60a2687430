package ratelimit

import (
	"sync"
	"time"
)

// window is one sliding enforcement span. A limit of 0 means the span is
// unbounded; the hits slice holds the timestamps still inside the span.
type window struct {
	span  time.Duration
	limit int
	hits  []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

// RateLimiter throttles the expensive endpoints (comparison runs, CSV
// exports, bulk imports) with minute, hour and day sliding windows
type RateLimiter struct {
	enabled bool
	windows [3]window
	mu      sync.Mutex
}

// NewRateLimiter creates a limiter with the given per-window ceilings.
// Hour and day ceilings of 0 disable those windows.
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		windows: [3]window{
			{span: time.Minute, limit: requestsPerMinute},
			{span: time.Hour, limit: requestsPerHour},
			{span: 24 * time.Hour, limit: requestsPerDay},
		},
	}
}

// AllowRequest records one request attempt and reports whether it may
// proceed. A denied request is not counted against any window.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
		if rl.windows[i].full() {
			return false
		}
	}

	for i := range rl.windows {
		rl.windows[i].hits = append(rl.windows[i].hits, now)
	}
	return true
}

// Stats is the current limiter state as exposed on the stats endpoint
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats reports usage and headroom for every window
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
	}

	minute, hour, day := &rl.windows[0], &rl.windows[1], &rl.windows[2]
	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(minute.hits),
		RequestsLastHour:    len(hour.hits),
		RequestsLastDay:     len(day.hits),
		LimitPerMinute:      minute.limit,
		LimitPerHour:        hour.limit,
		LimitPerDay:         day.limit,
		RemainingThisMinute: remaining(minute),
		RemainingThisHour:   remaining(hour),
		RemainingThisDay:    remaining(day),
	}
}

func remaining(w *window) int {
	r := w.limit - len(w.hits)
	if r < 0 {
		return 0
	}
	return r
}

// Reset drops all tracked requests
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for i := range rl.windows {
		rl.windows[i].hits = nil
	}
}
