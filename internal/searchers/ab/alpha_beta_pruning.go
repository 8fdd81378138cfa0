// Package ab implements an alpha-beta pruning Searcher that, with unlimited depth, plays tic-tac-toe
// perfectly. It is used as the strongest benchmark opponent for the learning agents.
package ab

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/janpfeifer/rlTicTacToe/internal/searchers"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"k8s.io/klog/v2"
)

// scoreScale converts the integer scores of the search to the [-1, 1] range returned by Search.
const scoreScale = NumCells + 1

// AlphaBeta searcher. It is not safe for concurrent use.
type AlphaBeta struct {
	maxDepth int
	rng      *rand.Rand

	// cache of exact scores of positions, only used when the depth is unlimited.
	cache map[Key]int

	stats Stats
}

// Stats of the searches.
type Stats struct {
	Nodes, Prunes, CacheHits int
}

// Assert AlphaBeta is a searchers.Searcher.
var _ searchers.Searcher = (*AlphaBeta)(nil)

// New creates an AlphaBeta searcher.
//
// Args:
//
//   - maxDepth: how many moves ahead to search. If <= 0 the search is unlimited, and the searcher plays perfectly.
//     Positions beyond maxDepth are scored 0.
//   - rng: if not nil, ties among the best moves are broken randomly. Otherwise, the first best move in
//     row-major order is taken.
func New(maxDepth int, rng *rand.Rand) *AlphaBeta {
	ab := &AlphaBeta{maxDepth: maxDepth, rng: rng}
	if maxDepth <= 0 {
		ab.maxDepth = NumCells
		ab.cache = make(map[Key]int)
	}
	return ab
}

// Stats returns the accumulated statistics of the searches.
func (ab *AlphaBeta) Stats() Stats { return ab.stats }

// terminalScore for the player who just moved into board, if the match is over: faster wins score higher.
func terminalScore(board *Board) (score int, isTerminal bool) {
	switch board.Outcome() {
	case Win:
		return 1 + NumCells - (board.MoveNumber - 1), true
	case Tie:
		return 0, true
	}
	return 0, false
}

// moveScore returns the exact score (within the depth limit) of playing action on board, for board.NextPlayer().
func (ab *AlphaBeta) moveScore(board *Board, action Action, depth int) int {
	child := board.Clone()
	if _, _, err := child.Apply(action); err != nil {
		return math.MinInt / 2
	}
	if score, isTerminal := terminalScore(child); isTerminal {
		return score
	}
	if ab.cache != nil {
		if score, found := ab.cache[child.Key()]; found {
			ab.stats.CacheHits++
			return -score
		}
	}
	score := ab.alphaBeta(child, depth-1, -scoreScale, scoreScale)
	if ab.cache != nil {
		ab.cache[child.Key()] = score
	}
	return -score
}

// alphaBeta returns the score of the board for board.NextPlayer(), searching depth moves ahead.
// See: wikipedia.org/wiki/Alpha-beta_pruning
//
// Scores strictly within (alpha, beta) are exact, and are cached if the depth is unlimited.
func (ab *AlphaBeta) alphaBeta(board *Board, depth, alpha, beta int) int {
	ab.stats.Nodes++
	if depth <= 0 {
		return 0
	}
	if ab.cache != nil {
		if score, found := ab.cache[board.Key()]; found {
			ab.stats.CacheHits++
			return score
		}
	}
	bestScore := math.MinInt
	for _, action := range board.LegalMoves() {
		child := board.Clone()
		if _, _, err := child.Apply(action); err != nil {
			continue
		}
		score, isTerminal := terminalScore(child)
		if !isTerminal {
			// Runs alphaBeta for opponent player, so the alpha/beta are reversed.
			score = -ab.alphaBeta(child, depth-1, -beta, -max(alpha, bestScore))
		}
		bestScore = max(bestScore, score)
		if bestScore >= beta {
			// The opponent will never take this path, so we can prune it.
			ab.stats.Prunes++
			return bestScore
		}
	}
	if ab.cache != nil && bestScore > alpha {
		ab.cache[board.Key()] = bestScore
	}
	return bestScore
}

// Search implements searchers.Searcher. The scores are exact (within the depth limit) for every legal move.
func (ab *AlphaBeta) Search(board *Board) (bestAction Action, bestScore float64, actionsScores []float64) {
	start := time.Now()
	statsBefore := ab.stats
	actions := board.LegalMoves()
	if len(actions) == 0 {
		return NoAction, 0, nil
	}
	actionsScores = make([]float64, len(actions))
	best := math.MinInt
	var bestActions []Action
	for ii, action := range actions {
		score := ab.moveScore(board, action, ab.maxDepth)
		actionsScores[ii] = float64(score) / scoreScale
		switch {
		case score > best:
			best = score
			bestActions = append(bestActions[:0], action)
		case score == best:
			bestActions = append(bestActions, action)
		}
	}
	bestAction = bestActions[0]
	if ab.rng != nil && len(bestActions) > 1 {
		bestAction = bestActions[ab.rng.IntN(len(bestActions))]
	}
	bestScore = float64(best) / scoreScale
	if klog.V(2).Enabled() {
		klog.Infof("AlphaBeta: move #%d, best action %s (score=%.2f, %d ties) in %s: %d nodes, %d prunes, %d cache hits",
			board.MoveNumber, bestAction, bestScore, len(bestActions), time.Since(start),
			ab.stats.Nodes-statsBefore.Nodes, ab.stats.Prunes-statsBefore.Prunes, ab.stats.CacheHits-statsBefore.CacheHits)
	}
	return
}
