// cell_views contains views derived from the Cell view-model.
package cell_views

import (
	"math"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"
)

// Snapshot is the data model published by the training hook: a private copy of the
// value table taken after an episode, the state encoding, and the initial board tiles.
type Snapshot struct {
	Table *reinforcement.ValueTable
	Space *reinforcement.StateSpace
	// Tiles is the initial board, indexed [y][x].
	Tiles [][]Tile
	Stats reinforcement.EpisodeStats
}

// Cell holds the per-position descriptors the views display. As a rule of thumb,
// Cell fields should be immediately usable as view parameters.
type Cell struct {
	X, Y                int
	Max                 float64
	PolicyArrowRotation int
	ArrowVisibility     string
	Fill                string
}

// Grid is the view-model shared by all views on the page.
type Grid struct {
	// Cells is indexed [y][x]; y grows downward as in svg coordinates.
	Cells [][]Cell
	Stats reinforcement.EpisodeStats
}

// Size returns the number of cells per side.
func (g Grid) Size() int {
	return len(g.Cells)
}

// Convert transforms a snapshot into Cells: the maximum value and greedy action over the
// moves that stay on the board. The goal has no policy, so its arrow is hidden.
func Convert(snap Snapshot) Grid {
	size := len(snap.Tiles)
	cells := make([][]Cell, size)
	for y := range cells {
		cells[y] = make([]Cell, size)
		for x := range cells[y] {
			pos := Position{X: x, Y: y}
			tile := snap.Tiles[y][x]
			state := snap.Space.State(pos)
			legal := func(action Action) bool {
				return inBounds(pos.Add(action.Displacement()), size)
			}

			cell := Cell{
				X:               x,
				Y:               y,
				Max:             snap.Table.MaxAllowed(state, legal),
				Fill:            getFill(tile),
				ArrowVisibility: "visible",
			}
			if tile == Goal {
				cell.ArrowVisibility = "hidden"
			} else {
				cell.PolicyArrowRotation = getDegrees(snap.Table.Argmax(state, legal))
			}
			cells[y][x] = cell
		}
	}

	return Grid{
		Cells: cells,
		Stats: snap.Stats,
	}
}

func inBounds(pos Position, size int) bool {
	return pos.X >= 0 && pos.X < size && pos.Y >= 0 && pos.Y < size
}

// getDegrees converts an action's displacement into the degrees passed to svg's rotate()
// for an upward arrow rune. Degrees are clockwise from vertical, with y pointing down.
func getDegrees(action Action) int {
	d := action.Displacement()
	deg := math.Atan2(float64(d.X), float64(-d.Y)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return int(math.Round(deg))
}

func getFill(tile Tile) (fill string) {
	switch tile {
	case Curse:
		fill = "lightcoral"
	case Gem:
		fill = "lightgreen"
	case Goal:
		fill = "lightyellow"
	default:
		fill = "lightgray"
	}
	return
}
