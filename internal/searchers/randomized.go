package searchers

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/gomlx/exceptions"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"k8s.io/klog/v2"
)

// NewRandomizedSearcher adds randomness to the action taken by an existing Searcher.
// Args:
//
//   - searcher: Baseline Searcher.
//   - randomness (>=0): Amount of randomness to use: it is applied as a divisor to the scores
//     returned by the Searcher, except if there is a winning move.
//     The larger the value the more it leads to randomness (exploration), and lower values
//     lead to "pick the best scoring move" (exploitation), with zero meaning no randomness.
//   - maxMoveRandomness: starting at this move no more randomness is used. This allows
//     randomness to be used only earlier in the match.
//   - rng: random number generator used to sample the actions.
func NewRandomizedSearcher(searcher Searcher, randomness float64, maxMoveRandomness int, rng *rand.Rand) Searcher {
	if randomness <= 0 {
		// Without randomness, simply return the original Searcher.
		return searcher
	}
	return &randomizedSearcher{searcher: searcher, randomness: randomness, maxMoveRandomness: maxMoveRandomness, rng: rng}
}

// randomizedSearcher is a meta Searcher, that introduces randomness to its scorer.
type randomizedSearcher struct {
	searcher          Searcher
	randomness        float64
	maxMoveRandomness int
	rng               *rand.Rand
}

// Assert randomizedSearcher is a Searcher.
var _ Searcher = &randomizedSearcher{}

// Search implements the Searcher interface.
func (rs *randomizedSearcher) Search(board *Board) (chosenAction Action, score float64, actionsScores []float64) {
	// Get scores from base searcher for current board.
	chosenAction, score, actionsScores = rs.searcher.Search(board)

	// If we reached the max move number for randomness, or if the searcher doesn't return scores for the
	// different actions, or if there is only one action possible, or if it is a winning move,
	// we don't add any randomness.
	if board.MoveNumber >= rs.maxMoveRandomness || len(actionsScores) <= 1 || isWinningMove(board, chosenAction) {
		return
	}
	actions := board.LegalMoves()
	if len(actionsScores) != len(actions) {
		exceptions.Panicf("randomizedSearcher: Searcher returned %d actionsScores, but board has %d actions!?", len(actionsScores), len(actions))
	}

	// Calculate probability for each action.
	logits := make([]float64, len(actionsScores))
	for ii, score := range actionsScores {
		logits[ii] = score / rs.randomness
	}
	probabilities := softmax(logits)

	// Select from probabilities.
	chance := rs.rng.Float64()
	for actionIdx, value := range probabilities {
		if chance > value {
			chance -= value
			continue
		}

		// Found the new action:
		if klog.V(2).Enabled() {
			klog.Infof("randomizedSearcher selection: action=%s, score=%g", actions[actionIdx], actionsScores[actionIdx])
		}
		return actions[actionIdx], actionsScores[actionIdx], actionsScores
	}
	// Rounding errors: take the last action.
	last := len(actions) - 1
	return actions[last], actionsScores[last], actionsScores
}

// isWinningMove returns whether the action finishes the match with a win for the player to move.
func isWinningMove(board *Board, action Action) bool {
	if action == NoAction {
		return false
	}
	outcome, _, err := board.Clone().Apply(action)
	return err == nil && outcome == Win
}

func softmax(values []float64) (probs []float64) {
	probs = make([]float64, len(values))
	var sum float64

	// Subtract maxValue from all values keep the probability the same, but makes for more numerically stable
	// values.
	maxValue := slices.Max(values)
	for ii, value := range values {
		probs[ii] = math.Exp(value - maxValue)
		sum += probs[ii]
	}
	for ii := range probs {
		probs[ii] /= sum
	}
	return
}
