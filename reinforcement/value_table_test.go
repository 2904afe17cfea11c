package reinforcement

import (
	"testing"

	. "gemgrid/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func allowAll(Action) bool { return true }

func allowOnly(actions ...Action) func(Action) bool {
	return func(a Action) bool {
		for _, allowed := range actions {
			if a == allowed {
				return true
			}
		}
		return false
	}
}

func TestStateSpace(t *testing.T) {
	Convey("When positions are encoded", t, func() {
		for _, size := range []int{1, 3, 5, 8} {
			board, err := NewBoard(map[Position]Tile{{X: size - 1, Y: size - 1}: Goal}, size)
			So(err, ShouldBeNil)
			space := NewStateSpace(board.Positions())
			So(space.NumStates(), ShouldEqual, size*size)
			So(space.NumActions(), ShouldEqual, NUM_ACTIONS)

			seen := map[State]bool{}
			for _, pos := range board.Positions() {
				state := space.State(pos)
				So(int(state), ShouldBeGreaterThanOrEqualTo, 0)
				So(int(state), ShouldBeLessThan, size*size)
				So(seen[state], ShouldBeFalse)
				seen[state] = true
				So(space.Position(state), ShouldResemble, pos)
			}
			So(seen, ShouldHaveLength, size*size)
		}
	})

	Convey("When an encoding lookup is out of range", t, func() {
		space := NewStateSpace([]Position{{X: 0, Y: 0}})
		So(func() { space.State(Position{X: 1, Y: 0}) }, ShouldPanic)
		So(func() { space.Position(State(1)) }, ShouldPanic)
		So(func() { space.Position(State(-1)) }, ShouldPanic)
	})
}

func TestValueTable(t *testing.T) {
	Convey("When a value table is used", t, func() {
		table := NewValueTable(3, NUM_ACTIONS)
		numStates, numActions := table.Dims()
		So(numStates, ShouldEqual, 3)
		So(numActions, ShouldEqual, NUM_ACTIONS)
		So(table.Get(2, Left), ShouldEqual, 0.0)

		Convey("When values are set they are read back and visible in the row", func() {
			table.Set(1, Up, 2.5)
			So(table.Get(1, Up), ShouldEqual, 2.5)
			So(table.Row(1), ShouldResemble, []float64{0, 2.5, 0, 0})
			So(table.Row(0), ShouldResemble, []float64{0, 0, 0, 0})
		})

		Convey("When the row max is taken it considers every action", func() {
			table.Set(0, Left, -1)
			table.Set(0, Right, 7)
			So(table.Max(0), ShouldEqual, 7.0)
			So(table.MaxAllowed(0, allowOnly(Down, Left)), ShouldEqual, 0.0)
		})

		Convey("When argmax ties, the lowest action id wins", func() {
			table.Set(0, Up, 3.0)
			table.Set(0, Right, 3.0)
			So(table.Argmax(0, allowAll), ShouldEqual, Up)
			So(table.Argmax(0, allowOnly(Right, Left)), ShouldEqual, Right)
			So(table.Argmax(1, allowAll), ShouldEqual, Down)
		})

		Convey("When the best action is not permitted", func() {
			table.Set(2, Down, 100)
			table.Set(2, Left, -5)
			table.Set(2, Right, -2)
			So(table.Argmax(2, allowOnly(Right, Left)), ShouldEqual, Right)
			So(table.Argmax(2, allowOnly(Left)), ShouldEqual, Left)
		})

		Convey("When no action is permitted", func() {
			So(func() { table.Argmax(0, allowOnly()) }, ShouldPanic)
		})

		Convey("When the table is cloned the copy is independent", func() {
			table.Set(0, Down, 1)
			clone := table.Clone()
			table.Set(0, Down, 2)
			So(clone.Get(0, Down), ShouldEqual, 1.0)
		})
	})
}
