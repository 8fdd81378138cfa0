// Package statetest provides helper functions to create tests using tic-tac-toe boards.
package statetest

import (
	"github.com/janpfeifer/must"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
)

// BuildBoard from a text layout, see state.ParseKey for the format. It panics if the layout is invalid.
func BuildBoard(layout string) *Board {
	return must.M1(FromKey(must.M1(ParseKey(layout))))
}

// PlayMoves applies the actions in order to a new board, and returns the board and the outcomes
// of each move. It panics on an invalid move.
func PlayMoves(actions ...Action) (b *Board, outcomes []Outcome) {
	b = NewBoard()
	outcomes = make([]Outcome, 0, len(actions))
	for _, action := range actions {
		outcome, _ := must.M2(b.Apply(action))
		outcomes = append(outcomes, outcome)
	}
	return
}
