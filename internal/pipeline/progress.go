package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// Tracker tracks the progress of one collection run. Safe for concurrent
// use; the status server reads snapshots while workers increment.
type Tracker struct {
	mu       sync.Mutex
	runID    string
	total    int
	current  int
	lastCode string
	started  time.Time
	finished bool
}

// NewTracker creates a tracker for a run over total securities.
func NewTracker(runID string, total int) *Tracker {
	return &Tracker{runID: runID, total: total, started: time.Now()}
}

// Increment records one more completed security.
func (t *Tracker) Increment(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	t.lastCode = code
}

// Finish marks the run complete.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = true
}

// Snapshot is a point-in-time view of a run's progress.
type Snapshot struct {
	RunID      string  `json:"run_id"`
	Total      int     `json:"total"`
	Current    int     `json:"current"`
	Percentage float64 `json:"percentage"`
	LastCode   string  `json:"last_code,omitempty"`
	ETA        string  `json:"eta"`
	Finished   bool    `json:"finished"`
}

// Snapshot returns the current progress state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		RunID:    t.runID,
		Total:    t.total,
		Current:  t.current,
		LastCode: t.lastCode,
		Finished: t.finished,
	}
	if t.total > 0 {
		snap.Percentage = float64(t.current) / float64(t.total) * 100
	}
	snap.ETA = t.eta()
	return snap
}

// eta estimates the remaining time from the observed completion rate.
// Callers hold the lock.
func (t *Tracker) eta() string {
	if t.finished {
		return "done"
	}
	if t.current == 0 || t.total == 0 {
		return "calculating..."
	}
	elapsed := time.Since(t.started)
	rate := float64(t.current) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}
	remaining := float64(t.total-t.current) / rate
	switch {
	case remaining < 60:
		return fmt.Sprintf("%.0f seconds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%.1f minutes", remaining/60)
	default:
		return fmt.Sprintf("%.1f hours", remaining/3600)
	}
}
