package cell_views

import (
	"testing"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"
	"gemgrid/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

// testSnapshot is a 2x2 board with the goal at (1,1). States are row-major.
func testSnapshot() Snapshot {
	env, err := NewEnv(map[Position]Tile{{X: 1, Y: 1}: Goal, {X: 0, Y: 1}: Curse}, 2, Position{}, nil)
	if err != nil {
		panic(err)
	}
	space := reinforcement.NewStateSpace(env.Board().Positions())
	table := reinforcement.NewValueTable(space.NumStates(), space.NumActions())
	table.Set(0, Right, 5)
	table.Set(0, Down, 2)
	// (1,0) prefers Up, which is off the board.
	table.Set(1, Up, 100)
	table.Set(1, Down, 7)
	return Snapshot{
		Table: table,
		Space: space,
		Tiles: env.Snapshot().Tiles,
		Stats: reinforcement.EpisodeStats{Episode: 3, Epsilon: 0.5, Return: -10, Timesteps: 12},
	}
}

func findUpdate(updates []fastview.EleUpdate, id string) (fastview.EleUpdate, bool) {
	for _, update := range updates {
		if update.EleId == id {
			return update, true
		}
	}
	return fastview.EleUpdate{}, false
}

func TestConvert(t *testing.T) {
	Convey("When a snapshot is converted to cells", t, func() {
		grid := Convert(testSnapshot())
		So(grid.Size(), ShouldEqual, 2)
		So(grid.Stats.Episode, ShouldEqual, 3)

		Convey("When a cell has a preferred legal move", func() {
			cell := grid.Cells[0][0]
			So(cell.X, ShouldEqual, 0)
			So(cell.Y, ShouldEqual, 0)
			So(cell.Max, ShouldEqual, 5.0)
			So(cell.PolicyArrowRotation, ShouldEqual, 90)
			So(cell.ArrowVisibility, ShouldEqual, "visible")
			So(cell.Fill, ShouldEqual, "lightgray")
		})

		Convey("When the best value is off the board it is ignored", func() {
			cell := grid.Cells[0][1]
			So(cell.Max, ShouldEqual, 7.0)
			So(cell.PolicyArrowRotation, ShouldEqual, 180)
		})

		Convey("When the cell is the goal its arrow is hidden", func() {
			cell := grid.Cells[1][1]
			So(cell.ArrowVisibility, ShouldEqual, "hidden")
			So(cell.Fill, ShouldEqual, "lightyellow")
			So(grid.Cells[1][0].Fill, ShouldEqual, "lightcoral")
		})
	})

	Convey("When actions are converted to arrow rotations", t, func() {
		So(getDegrees(Up), ShouldEqual, 0)
		So(getDegrees(Right), ShouldEqual, 90)
		So(getDegrees(Down), ShouldEqual, 180)
		So(getDegrees(Left), ShouldEqual, 270)
	})
}

func TestViews(t *testing.T) {
	Convey("When views receive a grid", t, func() {
		grid := Convert(testSnapshot())

		Convey("When the values grid updates", func() {
			updates := (&ValuesGrid{id: "valuesgrid"}).onUpdate(grid)
			So(updates, ShouldHaveLength, 8)
			update, ok := findUpdate(updates, "0-0-value-text")
			So(ok, ShouldBeTrue)
			So(update.Ops[0].Value, ShouldEqual, "5.00")
			update, ok = findUpdate(updates, "1-1-policy-arrow")
			So(ok, ShouldBeTrue)
			So(update.Ops[1].Value, ShouldEqual, "hidden")
		})

		Convey("When the stats panel updates", func() {
			updates := (&StatsPanel{id: "statspanel"}).onUpdate(grid)
			update, ok := findUpdate(updates, "statspanel-episode")
			So(ok, ShouldBeTrue)
			So(update.Ops[0].Value, ShouldEqual, "3")
			update, _ = findUpdate(updates, "statspanel-return")
			So(update.Ops[0].Value, ShouldEqual, "-10.00")
		})

		Convey("When the value surface updates", func() {
			closed := make(chan Grid)
			close(closed)
			vf := NewValueFunction(nil, closed, 2)
			updates := vf.onUpdate(grid)
			// One quad for a 2x2 board, plus the group transform.
			So(updates, ShouldHaveLength, 2)
			_, ok := findUpdate(updates, "0-0-value-polygon")
			So(ok, ShouldBeTrue)
			_, ok = findUpdate(updates, "valuefunction-group")
			So(ok, ShouldBeTrue)
		})
	})

	Convey("When values are shaded", t, func() {
		So(getRGBFill(0, 0, 10), ShouldEqual, "rgb(0%,0%,100%)")
		So(getRGBFill(10, 0, 10), ShouldEqual, "rgb(100%,0%,0%)")
		So(getRGBFill(3, 3, 3), ShouldEqual, "rgb(50%,0%,50%)")
	})
}
