// Package state holds the tic-tac-toe game state: the board, the marks of each player, actions
// and the rules (legal moves, win and tie detection, turn alternation).
//
// The Board also implements the environment contract used by the reinforcement learning agents
// in package rl.
package state

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
)

const (
	// BoardSize is the number of rows (and columns) of the board.
	BoardSize = 3

	// NumCells in the board.
	NumCells = BoardSize * BoardSize
)

// Mark placed in a cell: either Empty or the mark of one of the players.
type Mark uint8

const (
	Empty Mark = iota
	X
	O

	// MarkInvalid is returned where a player is expected but there is none (e.g.: winner of a tie).
	MarkInvalid
)

// FirstPlayer to move in a new board.
const FirstPlayer = X

var markLetters = [...]string{" ", "X", "O", "?"}

// String returns "X", "O", a space for Empty, and "?" for anything else.
func (m Mark) String() string {
	if int(m) >= len(markLetters) {
		return markLetters[MarkInvalid]
	}
	return markLetters[m]
}

// IsPlayer returns whether the mark is one of the two players' marks.
func (m Mark) IsPlayer() bool {
	return m == X || m == O
}

// Opponent returns the mark of the other player. For non-player marks it returns MarkInvalid.
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return MarkInvalid
}

// ParseMark converts "X"/"O" (case-insensitive) to a Mark.
func ParseMark(s string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return MarkInvalid, errors.Wrapf(ErrInvalidArgument, "unknown player mark %q, valid values are \"X\" or \"O\"", s)
}

// Action is the placement of the next player's mark in the cell at (Row, Col), 0-indexed.
type Action struct {
	Row, Col int8
}

// NoAction is returned when no action is available.
var NoAction = Action{Row: -1, Col: -1}

// Valid returns whether the action coordinates are within the board.
func (a Action) Valid() bool {
	return a.Row >= 0 && a.Row < BoardSize && a.Col >= 0 && a.Col < BoardSize
}

// Index of the action's cell in the flat representation of the board.
func (a Action) Index() int {
	return int(a.Row)*BoardSize + int(a.Col)
}

// ActionFromIndex is the inverse of Action.Index.
func ActionFromIndex(idx int) Action {
	return Action{Row: int8(idx / BoardSize), Col: int8(idx % BoardSize)}
}

func (a Action) String() string {
	if a == NoAction {
		return "(none)"
	}
	return fmt.Sprintf("(%d, %d)", a.Row, a.Col)
}

// AllActions enumerates every cell of the board, in row-major order.
var AllActions = func() (actions [NumCells]Action) {
	for idx := range NumCells {
		actions[idx] = ActionFromIndex(idx)
	}
	return
}()

// Key is the canonical encoding of a board configuration: the mark of each cell in row-major order.
//
// It is a comparable value and can be used directly as a map key. It depends only on the
// contents of the cells: whose turn it is is not encoded.
type Key [NumCells]Mark

// String returns the rows of the board separated by "|", with "." for empty cells. E.g.: "X.O|.X.|..O".
func (k Key) String() string {
	var sb strings.Builder
	for idx, m := range k {
		if idx > 0 && idx%BoardSize == 0 {
			sb.WriteByte('|')
		}
		if m == Empty {
			sb.WriteByte('.')
		} else {
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// Board is the state of a match. The zero value is not valid, use NewBoard.
type Board struct {
	cells [NumCells]Mark

	// bitboards of each player: bit i is set if the player's mark is in cell i.
	bitboards [2]uint16

	// MoveNumber starts at 1 and is incremented after each action.
	MoveNumber int

	// next player to move.
	next Mark

	// Cached outcome after the last move.
	outcome Outcome
	winner  Mark
}

// NewBoard creates an empty board, with X to play.
func NewBoard() *Board {
	return &Board{
		MoveNumber: 1,
		next:       FirstPlayer,
		winner:     MarkInvalid,
	}
}

// Clone makes a copy of the board.
func (b *Board) Clone() *Board {
	newB := &Board{}
	*newB = *b
	return newB
}

// NextPlayer returns the mark of the player to move next.
func (b *Board) NextPlayer() Mark {
	return b.next
}

// At returns the mark at the given cell. It panics if the coordinates are out of the board.
func (b *Board) At(row, col int) Mark {
	return b.cells[row*BoardSize+col]
}

// Key returns the canonical encoding of the board contents.
func (b *Board) Key() Key {
	return Key(b.cells)
}

// IsEmpty returns whether the cell targeted by the action is empty. Actions out of the board are never empty.
func (b *Board) IsEmpty(action Action) bool {
	return action.Valid() && b.cells[action.Index()] == Empty
}

// LegalMoves returns the empty cells, in row-major order. It is empty when the board is full or
// the match is finished.
func (b *Board) LegalMoves() []Action {
	if b.IsFinished() {
		return nil
	}
	actions := make([]Action, 0, NumCells)
	free := b.freeCells()
	for idx := range NumCells {
		if free&(1<<idx) != 0 {
			actions = append(actions, ActionFromIndex(idx))
		}
	}
	return actions
}

// NumLegalMoves returns len(LegalMoves()) without allocating.
func (b *Board) NumLegalMoves() int {
	if b.IsFinished() {
		return 0
	}
	count := 0
	for free := b.freeCells(); free != 0; free &= free - 1 {
		count++
	}
	return count
}

// RandomLegalMove selects uniformly at random among the legal moves. It returns false if there
// are no legal moves.
func (b *Board) RandomLegalMove(rng *rand.Rand) (Action, bool) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return NoAction, false
	}
	return moves[rng.IntN(len(moves))], true
}

func (b *Board) freeCells() uint16 {
	return fullBoard &^ (b.bitboards[0] | b.bitboards[1])
}

// place sets the mark on the cell and updates the bitboards. It doesn't check anything.
func (b *Board) place(idx int, m Mark) {
	b.cells[idx] = m
	b.bitboards[m-X] |= 1 << idx
}

// String returns a multi-line drawing of the board.
func (b *Board) String() string {
	var sb strings.Builder
	for row := range BoardSize {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := range BoardSize {
			if col > 0 {
				sb.WriteByte('|')
			}
			fmt.Fprintf(&sb, " %s ", b.At(row, col))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
