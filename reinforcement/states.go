package reinforcement

import (
	"fmt"

	. "gemgrid/grid_world"
)

// State is a dense state index in [0, n) for a board with n positions.
type State int

// StateSpace is a bijection between board positions and dense state indices, built once
// per board geometry. Tile contents do not affect the encoding.
type StateSpace struct {
	states    map[Position]State
	positions []Position
}

// NewStateSpace enumerates the positions in the given order.
func NewStateSpace(positions []Position) *StateSpace {
	space := &StateSpace{
		states:    make(map[Position]State, len(positions)),
		positions: append([]Position(nil), positions...),
	}
	for i, pos := range space.positions {
		space.states[pos] = State(i)
	}
	return space
}

// NumStates is the number of encoded positions.
func (space *StateSpace) NumStates() int {
	return len(space.positions)
}

// NumActions is the size of the fixed action enumeration.
func (space *StateSpace) NumActions() int {
	return NUM_ACTIONS
}

// State encodes a position. Encoding a position off the board is a defect.
func (space *StateSpace) State(pos Position) State {
	state, ok := space.states[pos]
	if !ok {
		panic(fmt.Sprintf("no state for position %v", pos))
	}
	return state
}

// Position decodes a state. Decoding an index outside [0, n) is a defect.
func (space *StateSpace) Position(state State) Position {
	if state < 0 || int(state) >= len(space.positions) {
		panic(fmt.Sprintf("state %d out of range [0,%d)", state, len(space.positions)))
	}
	return space.positions[state]
}
