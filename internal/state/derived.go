package state

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMove is returned when applying an action to an occupied cell.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidArgument is returned for malformed input, e.g.: coordinates out of the board.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrGameOver is returned when applying an action to a finished match.
	ErrGameOver = errors.New("game is over")
)

// Outcome of a match after an action.
type Outcome uint8

const (
	Continuing Outcome = iota
	Win
	Tie
)

//go:generate go tool enumer -type=Outcome -values -text derived.go

// IsTerminal returns whether the outcome ends the match.
func (o Outcome) IsTerminal() bool {
	return o == Win || o == Tie
}

const fullBoard uint16 = 1<<NumCells - 1

// winningPatterns are the bitboard masks of the 3 rows, 3 columns and 2 diagonals.
var winningPatterns = [...]uint16{
	0b000_000_111, 0b000_111_000, 0b111_000_000, // Rows.
	0b001_001_001, 0b010_010_010, 0b100_100_100, // Columns.
	0b100_010_001, 0b001_010_100, // Diagonals.
}

func hasLine(bitboard uint16) bool {
	for _, pattern := range winningPatterns {
		if bitboard&pattern == pattern {
			return true
		}
	}
	return false
}

// CheckWin returns whether the player has three marks in a row, column or diagonal.
func (b *Board) CheckWin(player Mark) bool {
	if !player.IsPlayer() {
		return false
	}
	return hasLine(b.bitboards[player-X])
}

// IsFull returns whether all cells are occupied.
func (b *Board) IsFull() bool {
	return b.bitboards[0]|b.bitboards[1] == fullBoard
}

// IsTie returns whether the board is full and nobody won.
func (b *Board) IsTie() bool {
	return b.outcome == Tie
}

// IsFinished returns whether the match is over, either with a win or a tie.
func (b *Board) IsFinished() bool {
	return b.outcome.IsTerminal()
}

// Outcome of the match so far.
func (b *Board) Outcome() Outcome {
	return b.outcome
}

// Winner returns the mark of the winner, or MarkInvalid if the match is not won (yet).
func (b *Board) Winner() Mark {
	return b.winner
}

// Apply places the mark of the next player in the cell of the action, and alternates the turn.
//
// It returns the outcome of the match after the action and, in case of a Win, the winner.
// For Continuing or Tie the returned mark is MarkInvalid.
//
// Errors: ErrInvalidArgument if the action is out of the board, ErrInvalidMove if the cell is
// occupied and ErrGameOver if the match had already finished. The board is not changed on error.
func (b *Board) Apply(action Action) (Outcome, Mark, error) {
	if !action.Valid() {
		return Continuing, MarkInvalid, errors.Wrapf(ErrInvalidArgument, "action %s is out of the %dx%d board", action, BoardSize, BoardSize)
	}
	if b.IsFinished() {
		return b.outcome, b.winner, errors.Wrapf(ErrGameOver, "cannot play %s at move #%d", action, b.MoveNumber)
	}
	idx := action.Index()
	if b.cells[idx] != Empty {
		return Continuing, MarkInvalid, errors.Wrapf(ErrInvalidMove, "cell %s already has an %s", action, b.cells[idx])
	}
	player := b.next
	b.place(idx, player)
	b.MoveNumber++
	b.next = player.Opponent()
	b.updateOutcome(player)
	return b.outcome, b.winner, nil
}

// updateOutcome after the player has moved: only the player who just moved can have completed a line.
func (b *Board) updateOutcome(lastPlayer Mark) {
	switch {
	case b.CheckWin(lastPlayer):
		b.outcome, b.winner = Win, lastPlayer
	case b.IsFull():
		b.outcome, b.winner = Tie, MarkInvalid
	default:
		b.outcome, b.winner = Continuing, MarkInvalid
	}
}

// ParseKey parses the rows of a board from a string. Rows are separated by "|" or new lines,
// cells are "X", "O" (case-insensitive) or one of ".", "_", " " for an empty cell.
//
// Example: "X.O|.X.|..O".
func ParseKey(layout string) (key Key, err error) {
	rows := strings.FieldsFunc(layout, func(r rune) bool { return r == '|' || r == '\n' })
	if len(rows) != BoardSize {
		err = errors.Wrapf(ErrInvalidArgument, "layout %q has %d rows, wanted %d", layout, len(rows), BoardSize)
		return
	}
	for row, line := range rows {
		if len(line) != BoardSize {
			err = errors.Wrapf(ErrInvalidArgument, "row %d of layout %q has %d cells, wanted %d", row, layout, len(line), BoardSize)
			return
		}
		for col, c := range line {
			var m Mark
			switch c {
			case 'x', 'X':
				m = X
			case 'o', 'O':
				m = O
			case '.', '_', ' ':
				m = Empty
			default:
				err = errors.Wrapf(ErrInvalidArgument, "invalid cell %q in row %d of layout %q", c, row, layout)
				return
			}
			key[row*BoardSize+col] = m
		}
	}
	return
}

// FromKey reconstructs a Board from its cell contents. Since X always starts, the next player is
// derived from the number of marks of each player.
//
// It returns ErrInvalidArgument if the configuration is not reachable: wrong counts of marks, or
// both players with a line.
func FromKey(key Key) (*Board, error) {
	b := NewBoard()
	var numX, numO int
	for idx, m := range key {
		switch m {
		case Empty:
			continue
		case X:
			numX++
		case O:
			numO++
		default:
			return nil, errors.Wrapf(ErrInvalidArgument, "invalid mark %d at cell %d", m, idx)
		}
		b.place(idx, m)
	}
	if numX != numO && numX != numO+1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "board %s has %d X's and %d O's, not reachable with X starting", key, numX, numO)
	}
	b.MoveNumber = numX + numO + 1
	b.next = X
	lastPlayer := O
	if numX > numO {
		b.next, lastPlayer = O, X
	}
	if b.CheckWin(lastPlayer.Opponent()) {
		return nil, errors.Wrapf(ErrInvalidArgument, "board %s has a line of %s, who is the next to play", key, lastPlayer.Opponent())
	}
	b.updateOutcome(lastPlayer)
	return b, nil
}
