package reinforcement

import (
	"fmt"

	. "gemgrid/grid_world"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValueTable is a dense table of action values, one row per state and one column per
// action. It lives for an entire training run and is updated in place.
type ValueTable struct {
	values *mat.Dense
}

// NewValueTable returns a zero-initialized table.
func NewValueTable(numStates, numActions int) *ValueTable {
	return &ValueTable{
		values: mat.NewDense(numStates, numActions, nil),
	}
}

// Dims returns the number of states and actions.
func (vt *ValueTable) Dims() (numStates, numActions int) {
	return vt.values.Dims()
}

func (vt *ValueTable) Get(state State, action Action) float64 {
	return vt.values.At(int(state), int(action))
}

func (vt *ValueTable) Set(state State, action Action, value float64) {
	vt.values.Set(int(state), int(action), value)
}

// Row returns a view of the state's action values. Writes through the view modify the table.
func (vt *ValueTable) Row(state State) []float64 {
	return vt.values.RawRowView(int(state))
}

// Max returns the maximum value over every action of the state, legal or not.
func (vt *ValueTable) Max(state State) float64 {
	return floats.Max(vt.Row(state))
}

// Argmax returns the highest-valued action among those permitted by isAllowed. Ties go
// to the lowest action id. An empty permitted set is a defect.
func (vt *ValueTable) Argmax(state State, isAllowed func(Action) bool) Action {
	best := Action(-1)
	for a, val := range vt.Row(state) {
		action := Action(a)
		if !isAllowed(action) {
			continue
		}
		if best < 0 || val > vt.Get(state, best) {
			best = action
		}
	}
	if best < 0 {
		panic(fmt.Sprintf("argmax: no permitted action in state %d", state))
	}
	return best
}

// MaxAllowed returns the maximum value among the actions permitted by isAllowed.
func (vt *ValueTable) MaxAllowed(state State, isAllowed func(Action) bool) float64 {
	return vt.Get(state, vt.Argmax(state, isAllowed))
}

// Clone returns a deep copy, e.g. for handing snapshots to views while training continues.
func (vt *ValueTable) Clone() *ValueTable {
	return &ValueTable{
		values: mat.DenseCopyOf(vt.values),
	}
}
