package rl

import (
	"math/rand/v2"

	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

// RandomOpponent always plays a uniformly random legal move.
type RandomOpponent struct {
	rng *rand.Rand
}

// NewRandomOpponent with its own random number generator seeded with seed.
func NewRandomOpponent(seed uint64) *RandomOpponent {
	return &RandomOpponent{rng: rand.New(rand.NewPCG(seed, 1))}
}

// MakeMove implements Opponent.
func (r *RandomOpponent) MakeMove(env Environment) (state.Action, bool) {
	return env.RandomLegalMove(r.rng)
}

// NewFromParams creates an agent configured by the parameters, popping the ones it uses:
//
//   - alpha, gamma, epsilon: hyperparameters, see WithAlpha, WithGamma, WithEpsilon.
//   - seed: seed for the random number generator. If absent, a random seed is used.
//   - corrected: for off-policy Monte Carlo, see WithCorrectedImportanceWeights.
//   - opponent: if set to "random", the agent trains against a random opponent (see WithOpponent).
//     The default ("self") is to select the moves of both players.
//
// Extra options are applied after the ones derived from the parameters.
func NewFromParams(algorithm Algorithm, player state.Mark, params parameters.Params, extra ...Option) (*Agent, error) {
	var options []Option
	alpha, err := parameters.PopParamOr(params, "alpha", DefaultAlpha)
	if err != nil {
		return nil, err
	}
	gamma, err := parameters.PopParamOr(params, "gamma", DefaultGamma)
	if err != nil {
		return nil, err
	}
	epsilon, err := parameters.PopParamOr(params, "epsilon", DefaultEpsilon)
	if err != nil {
		return nil, err
	}
	options = append(options, WithAlpha(alpha), WithGamma(gamma), WithEpsilon(epsilon))

	opponentSeed := rand.Uint64()
	if _, found := params["seed"]; found {
		seed, err := parameters.PopParamOr(params, "seed", uint64(0))
		if err != nil {
			return nil, err
		}
		options = append(options, WithSeed(seed))
		opponentSeed = seed + 1
	}

	corrected, err := parameters.PopParamOr(params, "corrected", false)
	if err != nil {
		return nil, err
	}
	options = append(options, WithCorrectedImportanceWeights(corrected))

	opponent, err := parameters.PopParamOr(params, "opponent", "self")
	if err != nil {
		return nil, err
	}
	switch opponent {
	case "self":
	case "random":
		options = append(options, WithOpponent(NewRandomOpponent(opponentSeed)))
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown opponent=%q, valid values are \"self\" or \"random\"", opponent)
	}
	return New(algorithm, player, append(options, extra...)...)
}
