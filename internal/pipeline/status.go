package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// Stage names reported by a batch run
const (
	StageIndexing   = "indexing"
	StageVerifying  = "verifying"
	StageAggregated = "aggregated"
)

// Status is a point-in-time snapshot of a run
type Status struct {
	Stage     string    `json:"stage"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Running   bool      `json:"running"`
	Cancelled bool      `json:"cancelled"`
	StartedAt time.Time `json:"started_at"`
	Log       []string  `json:"log"`
}

// StatusTracker records run progress for reporting. The log is append-only;
// snapshots copy it so callers never observe later mutations.
type StatusTracker struct {
	mu     sync.Mutex
	status Status
}

// NewStatusTracker starts a tracker in the running state
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		status: Status{
			Stage:     StageIndexing,
			Total:     total,
			Running:   true,
			StartedAt: time.Now().UTC(),
		},
	}
}

// SetStage moves the run to a new stage and logs the transition
func (t *StatusTracker) SetStage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Stage = stage
	t.status.Log = append(t.status.Log, fmt.Sprintf("stage: %s", stage))
}

// Advance records one completed unit of work
func (t *StatusTracker) Advance(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Done++
	if message != "" {
		t.status.Log = append(t.status.Log, message)
	}
}

// Logf appends a formatted line to the run log
func (t *StatusTracker) Logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Log = append(t.status.Log, fmt.Sprintf(format, args...))
}

// Finish marks the run as done; cancelled reports whether it was interrupted
func (t *StatusTracker) Finish(cancelled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.Cancelled = cancelled
}

// Snapshot returns a copy of the current status
func (t *StatusTracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.status
	s.Log = append([]string(nil), t.status.Log...)
	return s
}
