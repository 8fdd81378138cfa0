// Package searchers defines the Searcher interface for game-tree search players, used as benchmark
// opponents for the learning agents, and the adapters to use them as rl.Opponent.
package searchers

import (
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Searcher is the interface that any of the search algorithms must adhere to be valid.
type Searcher interface {
	// Search returns the next action to take on the given board, and its score for board.NextPlayer():
	// positive if it leads to a win, negative if to a loss.
	//
	// It also returns the score of each of the legal moves, in the order of board.LegalMoves().
	// If there are no legal moves, it returns NoAction.
	Search(board *Board) (action Action, score float64, actionsScores []float64)
}

// Opponent adapts a Searcher to be used as an rl.Opponent: e.g., during training or in package players.
type Opponent struct {
	Searcher
}

// Assert Opponent implements rl.Opponent.
var _ rl.Opponent = (*Opponent)(nil)

// MakeMove implements rl.Opponent.
func (o *Opponent) MakeMove(env rl.Environment) (Action, bool) {
	board, err := asBoard(env)
	if err != nil {
		klog.Errorf("Searcher can't play: %+v", err)
		return NoAction, false
	}
	action, _, _ := o.Search(board)
	return action, action != NoAction
}

// asBoard returns the environment as a Board, rebuilding it from its key if needed.
func asBoard(env rl.Environment) (*Board, error) {
	if board, ok := env.(*Board); ok {
		return board, nil
	}
	board, err := FromKey(env.Key())
	if err != nil {
		return nil, errors.WithMessagef(err, "environment %s is not a valid board", env.Key())
	}
	return board, nil
}
