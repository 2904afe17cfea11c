package reinforcement

import (
	"gemgrid/atomic_float"
)

// Progress publishes the latest training diagnostics for concurrent readers, such as
// the status endpoint, while the loop keeps running.
type Progress struct {
	episode    *atomic_float.AtomicFloat64
	epsilon    *atomic_float.AtomicFloat64
	lastReturn *atomic_float.AtomicFloat64
	goals      *atomic_float.AtomicFloat64
}

// ProgressReport is a point-in-time reading of Progress.
type ProgressReport struct {
	Episode    int     `json:"episode"`
	Epsilon    float64 `json:"epsilon"`
	LastReturn float64 `json:"lastReturn"`
	Goals      int     `json:"goals"`
}

func NewProgress() *Progress {
	return &Progress{
		episode:    atomic_float.NewAtomicFloat64(0),
		epsilon:    atomic_float.NewAtomicFloat64(0),
		lastReturn: atomic_float.NewAtomicFloat64(0),
		goals:      atomic_float.NewAtomicFloat64(0),
	}
}

// Observe is a ProgressFunc.
func (p *Progress) Observe(stats EpisodeStats) {
	p.episode.AtomicSet(float64(stats.Episode))
	p.epsilon.AtomicSet(stats.Epsilon)
	p.lastReturn.AtomicSet(stats.Return)
	if stats.ReachedGoal {
		for _, ok := p.goals.AtomicAdd(1); !ok; _, ok = p.goals.AtomicAdd(1) {
		}
	}
}

// Read returns the current values. Fields are read independently and may straddle an episode.
func (p *Progress) Read() ProgressReport {
	return ProgressReport{
		Episode:    int(p.episode.AtomicRead()),
		Epsilon:    p.epsilon.AtomicRead(),
		LastReturn: p.lastReturn.AtomicRead(),
		Goals:      int(p.goals.AtomicRead()),
	}
}
