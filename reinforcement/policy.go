package reinforcement

import (
	"errors"
	"fmt"
	"math"

	. "gemgrid/grid_world"

	"golang.org/x/exp/rand"
)

// EpsilonGreedy selects actions from a value table, exploring uniformly at random over
// the legal actions with probability epsilon and otherwise exploiting the greedy action.
// The random source is injected so that runs are reproducible: for a given seed the
// sequence of draws is identical across runs.
type EpsilonGreedy struct {
	table *ValueTable
	rng   *rand.Rand
}

// NewEpsilonGreedy returns a policy over table drawing from src.
func NewEpsilonGreedy(table *ValueTable, src rand.Source) *EpsilonGreedy {
	return &EpsilonGreedy{
		table: table,
		rng:   rand.New(src),
	}
}

// Choose draws u ~ U[0,1) and explores if u < epsilon, otherwise it returns the argmax
// over the permitted actions.
func (p *EpsilonGreedy) Choose(state State, isAllowed func(Action) bool, epsilon float64) Action {
	if p.rng.Float64() < epsilon {
		return p.random(isAllowed)
	}
	return p.table.Argmax(state, isAllowed)
}

// random rejection-samples the full action enumeration until a permitted action is drawn.
// An empty permitted set is a defect.
func (p *EpsilonGreedy) random(isAllowed func(Action) bool) Action {
	if !anyAllowed(isAllowed) {
		panic("explore: no permitted action")
	}
	for {
		action := Action(p.rng.Intn(NUM_ACTIONS))
		if isAllowed(action) {
			return action
		}
	}
}

func anyAllowed(isAllowed func(Action) bool) bool {
	for _, action := range AllActions() {
		if isAllowed(action) {
			return true
		}
	}
	return false
}

// ErrUnknownDecay is returned when a config names an unsupported epsilon schedule.
var ErrUnknownDecay = errors.New("unknown epsilon decay")

// Decay selects how epsilon shrinks between episodes.
type Decay string

const (
	// Geometric decays as epsilon0 * d^k.
	Geometric Decay = "geometric"
	// Linear reproduces the k * d rule, which grows for d > 1/k and is clamped only from below.
	Linear Decay = "linear"
)

// EpsilonSchedule computes epsilon after each completed episode, with
// d = minEpsilon^(1/numEpisodes).
type EpsilonSchedule struct {
	decay   Decay
	initial float64
	min     float64
	factor  float64
}

// NewEpsilonSchedule validates the decay kind and precomputes the decay factor.
func NewEpsilonSchedule(decay Decay, initial, min float64, numEpisodes int) (*EpsilonSchedule, error) {
	switch decay {
	case "":
		decay = Geometric
	case Geometric, Linear:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecay, decay)
	}

	return &EpsilonSchedule{
		decay:   decay,
		initial: initial,
		min:     min,
		factor:  math.Pow(min, 1/float64(numEpisodes)),
	}, nil
}

// Initial returns epsilon for the first episode.
func (es *EpsilonSchedule) Initial() float64 {
	return es.initial
}

// Factor returns the decay factor d.
func (es *EpsilonSchedule) Factor() float64 {
	return es.factor
}

// After returns epsilon once episode k (1-indexed) has completed.
func (es *EpsilonSchedule) After(episode int) float64 {
	var eps float64
	switch es.decay {
	case Linear:
		eps = float64(episode) * es.factor
	default:
		eps = es.initial * math.Pow(es.factor, float64(episode))
	}
	return math.Max(es.min, eps)
}
