// Package rl implements tabular reinforcement learning control algorithms that learn to play
// tic-tac-toe: Monte Carlo with exploring starts, on-policy and off-policy Monte Carlo control,
// Sarsa, Q-Learning and Expected Sarsa.
//
// All algorithms share the same Agent type: they differ only on the action selection used while
// training and playing, and on the update rule applied to the value table after each episode
// (or each step, for the temporal-difference family). See New.
//
// An Agent is not safe for concurrent use, but different agents share nothing and can be trained
// in parallel.
package rl

import (
	"math/rand/v2"
	"strings"

	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

// Environment is the game the agents interact with. It is implemented by *state.Board.
//
// Apply must only be called with actions targeting empty cells: agents only apply actions
// returned by LegalMoves or RandomLegalMove, and treat any error as fatal.
type Environment interface {
	// Key returns the canonical encoding of the current board contents.
	Key() state.Key

	// NextPlayer returns the mark of the player to move.
	NextPlayer() state.Mark

	// Apply the action for the next player, and return the outcome of the match and the winner, if any.
	Apply(action state.Action) (state.Outcome, state.Mark, error)

	// LegalMoves returns the actions available to the next player. Empty when the match is over.
	LegalMoves() []state.Action

	// RandomLegalMove selects uniformly at random one of the legal moves, using the given random source.
	RandomLegalMove(rng *rand.Rand) (state.Action, bool)

	// NumLegalMoves returns len(LegalMoves()).
	NumLegalMoves() int
}

// Assert the Board is an Environment.
var _ Environment = (*state.Board)(nil)

// NewEnvironmentFn creates a fresh environment at the start of each training episode.
type NewEnvironmentFn func() Environment

// NewBoardEnvironment is the default NewEnvironmentFn: it starts each episode with an empty board.
func NewBoardEnvironment() Environment {
	return state.NewBoard()
}

// Opponent plays one of the marks while an Agent trains. See WithOpponent.
//
// Any Agent is also an Opponent.
type Opponent interface {
	// MakeMove returns the action for the player to move in env, or false if there are no legal moves.
	MakeMove(env Environment) (state.Action, bool)
}

// ErrInvalidArgument is returned for invalid parameters. It is the same error as state.ErrInvalidArgument.
var ErrInvalidArgument = state.ErrInvalidArgument

// Algorithm tags each of the learning algorithms implemented.
type Algorithm int

const (
	MonteCarloES Algorithm = iota
	OnPolicyMonteCarlo
	OffPolicyMonteCarlo
	Sarsa
	QLearning
	ExpectedSarsa
	numAlgorithms
)

// Algorithms lists all implemented algorithms, in presentation order.
var Algorithms = []Algorithm{MonteCarloES, OnPolicyMonteCarlo, OffPolicyMonteCarlo, Sarsa, QLearning, ExpectedSarsa}

var algorithmNames = [numAlgorithms]string{
	"mces", "onpolicy", "offpolicy", "sarsa", "qlearning", "esarsa",
}

var algorithmDescriptions = [numAlgorithms]string{
	"Monte Carlo ES", "On-Policy Monte Carlo", "Off-Policy Monte Carlo", "Sarsa", "Q-Learning", "Expected Sarsa",
}

// String returns the short name of the algorithm, the one used in configurations.
func (alg Algorithm) String() string {
	if alg < 0 || alg >= numAlgorithms {
		return "unknown"
	}
	return algorithmNames[alg]
}

// Description returns the human-readable name of the algorithm.
func (alg Algorithm) Description() string {
	if alg < 0 || alg >= numAlgorithms {
		return "Unknown"
	}
	return algorithmDescriptions[alg]
}

// IsTemporalDifference returns whether the algorithm is from the temporal-difference family.
func (alg Algorithm) IsTemporalDifference() bool {
	return alg == Sarsa || alg == QLearning || alg == ExpectedSarsa
}

// ParseAlgorithm converts the short name of an algorithm (see Algorithm.String) back to an Algorithm.
// It is case-insensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for alg, algName := range algorithmNames {
		if name == algName {
			return Algorithm(alg), nil
		}
	}
	return -1, errors.Wrapf(ErrInvalidArgument, "unknown algorithm %q, valid values are %q", name, algorithmNames)
}

// EpisodeStats summarizes one training episode. It is passed to the hook set with WithEpisodeHook.
type EpisodeStats struct {
	// Episode number, starting from 1, counted across all calls to Agent.Train.
	Episode int

	// Outcome and Winner of the match played.
	Outcome state.Outcome
	Winner  state.Mark

	// Steps is the number of moves played in the match, by both players.
	Steps int

	// Return is the reward accumulated by the learning player during the episode: the terminal return
	// for the Monte Carlo family, and the sum of rewards for the temporal-difference family.
	Return float64

	// TableSize is the number of (state, action) pairs in the value table after the update.
	TableSize int
}
