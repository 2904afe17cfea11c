package reporting

import (
	"sync"

	"gemgrid/reinforcement"
)

// ReturnsLog accumulates per-episode returns from the training hook for concurrent
// readers, such as the rewards page, while the loop keeps running.
type ReturnsLog struct {
	mu      sync.Mutex
	returns []float64
}

func NewReturnsLog() *ReturnsLog {
	return &ReturnsLog{}
}

// Observe is a reinforcement.ProgressFunc.
func (rl *ReturnsLog) Observe(stats reinforcement.EpisodeStats) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.returns = append(rl.returns, stats.Return)
}

// Returns returns a copy of the returns observed so far.
func (rl *ReturnsLog) Returns() []float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return append([]float64(nil), rl.returns...)
}
