// Package arena plays matches between players and tallies the results.
//
// Players are not safe for concurrent use, so each function plays its matches sequentially:
// parallelism is achieved by evaluating different players on different goroutines.
package arena

import (
	"context"
	"fmt"

	"github.com/janpfeifer/rlTicTacToe/internal/players"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Results of a series of matches, from the point of view of the evaluated player.
type Results struct {
	Matches, Wins, Draws, Losses int
}

// Add the final board of a match played as mark.
func (r *Results) Add(final *Board, mark Mark) {
	r.Matches++
	switch {
	case final.IsTie():
		r.Draws++
	case final.Winner() == mark:
		r.Wins++
	default:
		r.Losses++
	}
}

// Merge adds the results of other.
func (r *Results) Merge(other Results) {
	r.Matches += other.Matches
	r.Wins += other.Wins
	r.Draws += other.Draws
	r.Losses += other.Losses
}

func (r Results) rate(count int) float64 {
	if r.Matches == 0 {
		return 0
	}
	return float64(count) / float64(r.Matches)
}

// WinRate is the fraction of matches won, or 0 if no match was played.
func (r Results) WinRate() float64 { return r.rate(r.Wins) }

// DrawRate is the fraction of matches drawn.
func (r Results) DrawRate() float64 { return r.rate(r.Draws) }

// LossRate is the fraction of matches lost.
func (r Results) LossRate() float64 { return r.rate(r.Losses) }

// String implements fmt.Stringer.
func (r Results) String() string {
	return fmt.Sprintf("%d matches: %d wins (%.1f%%), %d draws (%.1f%%), %d losses (%.1f%%)",
		r.Matches, r.Wins, 100*r.WinRate(), r.Draws, 100*r.DrawRate(), r.Losses, 100*r.LossRate())
}

// playerIndex of the mark in the pair of match players: X is 0, O is 1.
func playerIndex(mark Mark) int {
	if mark == X {
		return 0
	}
	return 1
}

// Match plays a full match: matchPlayers[0] plays X and matchPlayers[1] plays O.
// It returns the final board.
func Match(ctx context.Context, matchPlayers [2]players.Player) (*Board, error) {
	board := NewBoard()
	defer func() {
		for _, p := range matchPlayers {
			p.Finalize()
		}
	}()
	for !board.IsFinished() {
		if ctx.Err() != nil {
			return board, errors.Wrapf(ctx.Err(), "match interrupted at move #%d", board.MoveNumber)
		}
		mark := board.NextPlayer()
		action, ok := matchPlayers[playerIndex(mark)].Play(board)
		if !ok {
			return board, errors.Errorf("player %s has no move on a match that is not over:\n%s", mark, board)
		}
		if _, _, err := board.Apply(action); err != nil {
			return board, errors.WithMessagef(err, "player %s played %s", mark, action)
		}
		if klog.V(3).Enabled() {
			klog.Infof("Move #%d: %s played %s\n%s", board.MoveNumber, mark, action, board)
		}
	}
	return board, nil
}

// Evaluate plays numMatches between player, playing mark, and opponent, playing the other mark.
func Evaluate(ctx context.Context, player players.Player, mark Mark, opponent players.Player, numMatches int) (results Results, err error) {
	if !mark.IsPlayer() {
		return results, errors.Wrapf(ErrInvalidArgument, "invalid mark %s for evaluation", mark)
	}
	var matchPlayers [2]players.Player
	matchPlayers[playerIndex(mark)] = player
	matchPlayers[playerIndex(mark.Opponent())] = opponent
	for matchIdx := range numMatches {
		var final *Board
		final, err = Match(ctx, matchPlayers)
		if err != nil {
			return results, errors.WithMessagef(err, "evaluation match #%d", matchIdx)
		}
		results.Add(final, mark)
	}
	return results, nil
}
