package reinforcement

import (
	"fmt"

	. "gemgrid/grid_world"
)

// legalAt returns the legality predicate for moves from pos.
func legalAt(board *Board, pos Position) func(Action) bool {
	return func(action Action) bool {
		return board.InBounds(pos.Add(action.Displacement()))
	}
}

// ShowPolicy prints the greedy direction for every cell, considering only moves that stay
// on the board. The goal cell is marked with '*'.
func ShowPolicy(table *ValueTable, space *StateSpace, board *Board) {
	for y := 0; y < board.Size(); y++ {
		fmt.Print(" ")
		for x := 0; x < board.Size(); x++ {
			pos := Position{X: x, Y: y}
			if board.Tile(pos) == Goal {
				fmt.Print("*  ")
				continue
			}
			action := table.Argmax(space.State(pos), legalAt(board, pos))
			fmt.Printf("%c  ", action.Arrow())
		}
		fmt.Println("")
	}
}

// ShowMaxValues prints the maximum action value of each cell over its legal moves.
func ShowMaxValues(table *ValueTable, space *StateSpace, board *Board) {
	fmt.Println("Max vals:")
	total := 0.0
	for y := 0; y < board.Size(); y++ {
		fmt.Print(" ")
		for x := 0; x < board.Size(); x++ {
			pos := Position{X: x, Y: y}
			val := table.MaxAllowed(space.State(pos), legalAt(board, pos))
			fmt.Printf("%7.2f ", val)
			total += val
		}
		fmt.Println("")
	}
	fmt.Printf("Pi total: %.2f\n", total)
}

// ShowGrid prints the board's tiles, for visual reference.
func ShowGrid(board *Board) {
	for y := 0; y < board.Size(); y++ {
		for x := 0; x < board.Size(); x++ {
			fmt.Printf("%c ", tileRune(board.Tile(Position{X: x, Y: y})))
		}
		fmt.Println("")
	}
}

func tileRune(tile Tile) rune {
	switch tile {
	case Curse:
		return 'C'
	case Gem:
		return 'G'
	case Goal:
		return '+'
	}
	return 'o'
}
