package grid_world

import (
	"errors"
	"fmt"
)

// Position is an x/y coordinate on the board. X indexes columns (left to right) and
// Y indexes rows, top to bottom when printed in a console.
type Position struct {
	X, Y int
}

// Add returns the position displaced by other.
func (p Position) Add(other Position) Position {
	return Position{X: p.X + other.X, Y: p.Y + other.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Tile is the content of a board cell.
type Tile int

// Board cell types. Normal cells are implicit; every other tile is declared through
// the board's overrides.
const (
	Normal Tile = iota
	Curse
	Gem
	Goal
)

// Default tile rewards.
const (
	NORMAL_REWARD = 0.0
	CURSE_REWARD  = -10.0
	GEM_REWARD    = 5.0
	GOAL_REWARD   = 20.0
)

// DefaultReward returns the scalar reward for stepping onto the tile.
func (t Tile) DefaultReward() float64 {
	switch t {
	case Normal:
		return NORMAL_REWARD
	case Curse:
		return CURSE_REWARD
	case Gem:
		return GEM_REWARD
	case Goal:
		return GOAL_REWARD
	default:
		// Degenerate case; unreachable if all tiles are covered in switch.
		panic("Shazbot!")
	}
}

func (t Tile) String() string {
	switch t {
	case Normal:
		return "normal"
	case Curse:
		return "curse"
	case Gem:
		return "gem"
	case Goal:
		return "goal"
	}
	return fmt.Sprintf("tile(%d)", int(t))
}

// ErrUnknownTile is returned when parsing a tile name that is not one of the board tiles.
var ErrUnknownTile = errors.New("unknown tile")

// ParseTile converts a tile name, as written in config files, to its Tile.
func ParseTile(name string) (Tile, error) {
	for _, tile := range []Tile{Normal, Curse, Gem, Goal} {
		if tile.String() == name {
			return tile, nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownTile, name)
}

// Board validation errors.
var (
	ErrBoardSize   = errors.New("board size must be positive")
	ErrOutOfBounds = errors.New("tile override out of bounds")
	ErrGoalCount   = errors.New("board must contain exactly one goal tile")
)

// Board is a square grid of tiles. The overrides are the source of truth for all
// non-normal cells; tiles is a dense cache of the current cell contents, indexed [y][x],
// which is regenerated from the overrides on construction and on every Reset.
type Board struct {
	size      int
	overrides map[Position]Tile
	tiles     [][]Tile
}

// NewBoard validates the overrides against the board size and builds the dense grid.
func NewBoard(overrides map[Position]Tile, size int) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBoardSize, size)
	}

	goals := 0
	copied := make(map[Position]Tile, len(overrides))
	for pos, tile := range overrides {
		if !inBounds(pos, size) {
			return nil, fmt.Errorf("%w: %v on a %dx%d board", ErrOutOfBounds, pos, size, size)
		}
		if tile == Goal {
			goals++
		}
		copied[pos] = tile
	}
	if goals != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrGoalCount, goals)
	}

	board := &Board{
		size:      size,
		overrides: copied,
	}
	board.Reset()
	return board, nil
}

// Reset regenerates the dense grid from the overrides, restoring consumed tiles.
func (b *Board) Reset() {
	tiles := make([][]Tile, b.size)
	for y := range tiles {
		tiles[y] = make([]Tile, b.size)
	}
	for pos, tile := range b.overrides {
		tiles[pos.Y][pos.X] = tile
	}
	b.tiles = tiles
}

// Size returns the board's width (and height).
func (b *Board) Size() int {
	return b.size
}

// Tile returns the current tile at pos. Reading outside the board is a defect.
func (b *Board) Tile(pos Position) Tile {
	if !b.InBounds(pos) {
		panic(fmt.Sprintf("tile lookup out of bounds: %v", pos))
	}
	return b.tiles[pos.Y][pos.X]
}

func (b *Board) setTile(pos Position, tile Tile) {
	b.tiles[pos.Y][pos.X] = tile
}

// InBounds reports whether pos lies in [0,size)x[0,size).
func (b *Board) InBounds(pos Position) bool {
	return inBounds(pos, b.size)
}

func inBounds(pos Position, size int) bool {
	return pos.X >= 0 && pos.X < size && pos.Y >= 0 && pos.Y < size
}

// Positions enumerates every board position in row-major order: row by row from the
// top, left to right within a row.
func (b *Board) Positions() []Position {
	positions := make([]Position, 0, b.size*b.size)
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			positions = append(positions, Position{X: x, Y: y})
		}
	}
	return positions
}

// Overrides returns a copy of the board's declared non-normal tiles.
func (b *Board) Overrides() map[Position]Tile {
	copied := make(map[Position]Tile, len(b.overrides))
	for pos, tile := range b.overrides {
		copied[pos] = tile
	}
	return copied
}

// DEMO_SIZE is the side length of the demo board.
const DEMO_SIZE = 5

// DemoTiles returns a fresh copy of the demo board's overrides: two gems, four curses and
// a goal in the far corner.
func DemoTiles() map[Position]Tile {
	return map[Position]Tile{
		{X: 0, Y: 3}: Gem,
		{X: 2, Y: 1}: Curse,
		{X: 4, Y: 3}: Curse,
		{X: 0, Y: 4}: Curse,
		{X: 2, Y: 3}: Curse,
		{X: 3, Y: 1}: Gem,
		{X: 4, Y: 4}: Goal,
	}
}
