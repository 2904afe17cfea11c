package grid_world

import (
	"errors"
	"fmt"
)

// Agent tracks the acting agent's position and the path it has taken in the current episode.
type Agent struct {
	initial  Position
	position Position
	path     []Position
	goal     bool
}

// NewAgent places an agent at its initial position.
func NewAgent(initial Position) *Agent {
	return &Agent{
		initial:  initial,
		position: initial,
	}
}

// Reset returns the agent to its initial position and forgets its path.
func (agent *Agent) Reset() {
	agent.position = agent.initial
	agent.path = agent.path[:0]
	agent.goal = false
}

func (agent *Agent) moveTo(pos Position) {
	agent.position = pos
	agent.path = append(agent.path, pos)
}

// View is a read-only view of the environment, as seen by reward strategies.
type View interface {
	// AgentPosition is the agent's current position.
	AgentPosition() Position
	// AgentTile is the tile under the agent, before it is consumed.
	AgentTile() Tile
	// AgentPath is every position the agent has stepped onto this episode, in order,
	// including the current position as its last entry.
	AgentPath() []Position
	// VisitedBefore reports whether pos was stepped onto earlier in the episode, not
	// counting the current step.
	VisitedBefore(pos Position) bool
}

// ErrStartOutOfBounds is returned when the agent would start off the board.
var ErrStartOutOfBounds = errors.New("initial agent position out of bounds")

// Env is the grid-world environment: a board, a single agent, and the reward strategy.
// Env is not safe for concurrent use; it is owned by a single training or evaluation run.
type Env struct {
	board    *Board
	agent    *Agent
	rewarder Rewarder
	// The moves handed out by the last AvailableActions call; Step must pick one of them.
	offered Moves
}

// NewEnv builds and validates the board and places the agent.
func NewEnv(
	overrides map[Position]Tile,
	size int,
	start Position,
	rewarder Rewarder,
) (*Env, error) {
	board, err := NewBoard(overrides, size)
	if err != nil {
		return nil, err
	}
	if !board.InBounds(start) {
		return nil, fmt.Errorf("%w: %v on a %dx%d board", ErrStartOutOfBounds, start, size, size)
	}
	if rewarder == nil {
		rewarder = TileRewarder{}
	}

	return &Env{
		board:    board,
		agent:    NewAgent(start),
		rewarder: rewarder,
	}, nil
}

// Reset starts a new episode: the agent returns to its initial position and all consumed
// tiles reappear.
func (env *Env) Reset() {
	env.agent.Reset()
	env.board.Reset()
	env.offered = nil
}

// Board returns the environment's board.
func (env *Env) Board() *Board {
	return env.board
}

// AvailableActions returns the moves that keep the agent on the board. The set shrinks
// along edges and in corners.
func (env *Env) AvailableActions() Moves {
	moves := make(Moves, NUM_ACTIONS)
	for _, action := range AllActions() {
		target := env.agent.position.Add(action.Displacement())
		if env.board.InBounds(target) {
			moves[action] = target
		}
	}
	env.offered = moves
	return moves
}

// Step moves the agent to target, which must be one of the positions returned by the
// immediately preceding AvailableActions call. The reward is computed against the board
// before the target tile is consumed. Gems and curses are consumed once per episode;
// reaching the goal is permanent until Reset.
func (env *Env) Step(target Position) float64 {
	if !env.wasOffered(target) {
		panic(fmt.Sprintf("step to %v was not offered from %v", target, env.agent.position))
	}
	env.offered = nil

	env.agent.moveTo(target)
	reward := env.rewarder.Reward(env)

	switch tile := env.board.Tile(target); tile {
	case Goal:
		env.agent.goal = true
	case Curse, Gem:
		env.board.setTile(target, Normal)
	}

	return reward
}

func (env *Env) wasOffered(target Position) bool {
	for _, pos := range env.offered {
		if pos == target {
			return true
		}
	}
	return false
}

// ReachedGoal reports whether the agent has stepped onto the goal this episode.
func (env *Env) ReachedGoal() bool {
	return env.agent.goal
}

// AgentPosition implements View.
func (env *Env) AgentPosition() Position {
	return env.agent.position
}

// AgentTile implements View.
func (env *Env) AgentTile() Tile {
	return env.board.Tile(env.agent.position)
}

// AgentPath implements View. The returned slice is a copy.
func (env *Env) AgentPath() []Position {
	return append([]Position(nil), env.agent.path...)
}

// VisitedBefore implements View without copying the path.
func (env *Env) VisitedBefore(pos Position) bool {
	path := env.agent.path
	if len(path) == 0 {
		return false
	}
	for _, p := range path[:len(path)-1] {
		if p == pos {
			return true
		}
	}
	return false
}

// Snapshot captures the board and agent for renderers.
func (env *Env) Snapshot() Frame {
	tiles := make([][]Tile, len(env.board.tiles))
	for y, row := range env.board.tiles {
		tiles[y] = append([]Tile(nil), row...)
	}
	return Frame{
		Tiles:       tiles,
		Agent:       env.agent.position,
		Path:        env.AgentPath(),
		ReachedGoal: env.agent.goal,
	}
}

// Frame is an immutable snapshot of the environment for rendering.
type Frame struct {
	// Tiles is the current tile grid, indexed [y][x].
	Tiles       [][]Tile
	Agent       Position
	Path        []Position
	ReachedGoal bool
}

// Size returns the frame's board size.
func (f Frame) Size() int {
	return len(f.Tiles)
}

// Visited reports whether pos appears anywhere in the frame's path.
func (f Frame) Visited(pos Position) bool {
	for _, p := range f.Path {
		if p == pos {
			return true
		}
	}
	return false
}
