package reinforcement

import (
	"fmt"

	. "gemgrid/grid_world"
)

// FrameRenderer draws environment snapshots. Pacing between frames is the renderer's concern.
type FrameRenderer interface {
	Render(Frame) error
}

// Rollout is the outcome of a greedy replay.
type Rollout struct {
	Path        []Position
	ReachedGoal bool
	Return      float64
}

// GreedyRollout replays the table from the initial position with epsilon fixed at zero,
// stopping at the goal or after maxTimesteps steps. The table is only read. If renderer
// is non-nil it receives the initial frame and one frame per step; a render error aborts
// the replay.
func GreedyRollout(
	table *ValueTable,
	envParams EnvParameters,
	maxTimesteps int,
	renderer FrameRenderer,
) (*Rollout, error) {
	env, err := envParams.NewEnv()
	if err != nil {
		return nil, err
	}
	space := NewStateSpace(env.Board().Positions())
	if numStates, _ := table.Dims(); numStates != space.NumStates() {
		return nil, fmt.Errorf("%w: table has %d states, board has %d",
			ErrInvalidParameter, numStates, space.NumStates())
	}

	env.Reset()
	render := func() error {
		if renderer == nil {
			return nil
		}
		return renderer.Render(env.Snapshot())
	}
	if err = render(); err != nil {
		return nil, err
	}

	rollout := &Rollout{}
	state := space.State(env.AgentPosition())
	for steps := 0; !env.ReachedGoal() && steps < maxTimesteps; steps++ {
		moves := env.AvailableActions()
		action := table.Argmax(state, moves.Allows)
		rollout.Return += env.Step(moves[action])
		if err = render(); err != nil {
			return nil, err
		}
		state = space.State(env.AgentPosition())
	}

	rollout.Path = env.AgentPath()
	rollout.ReachedGoal = env.ReachedGoal()
	return rollout, nil
}
