package grid_world

// Action is a dense action id. Each compass direction is bound to a fixed id for the
// lifetime of the program, independent of board geometry.
type Action int

// Actions, in enumeration order. Down/Up are relative to the console orientation,
// where row 0 is printed first.
const (
	Down Action = iota
	Up
	Right
	Left
	NUM_ACTIONS int = iota
)

// displacements maps each action id to its unit move.
var displacements = [NUM_ACTIONS]Position{
	Down:  {X: 0, Y: 1},
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Left:  {X: -1, Y: 0},
}

// AllActions returns every action id in enumeration order.
func AllActions() []Action {
	actions := make([]Action, NUM_ACTIONS)
	for i := range actions {
		actions[i] = Action(i)
	}
	return actions
}

// Displacement returns the unit move bound to the action.
func (a Action) Displacement() Position {
	return displacements[a]
}

func (a Action) String() string {
	switch a {
	case Down:
		return "down"
	case Up:
		return "up"
	case Right:
		return "right"
	case Left:
		return "left"
	}
	return "invalid"
}

// Arrow is a printable rune for the action's direction.
func (a Action) Arrow() rune {
	switch a {
	case Down:
		return 'v'
	case Up:
		return '^'
	case Right:
		return '>'
	case Left:
		return '<'
	}
	return '?'
}

// Moves is the set of actions legal from the agent's current position, each mapped to
// the position it leads to.
type Moves map[Action]Position

// Allows reports whether the action is legal.
func (m Moves) Allows(action Action) bool {
	_, ok := m[action]
	return ok
}
