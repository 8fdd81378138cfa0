// Package _default registers the default players that can be included in any
// front-end for the game.
//
// It includes the "random" player, the alpha-beta searcher "ab" (see package ab), and one player
// per learning algorithm of package rl, registered with the algorithm's short name ("mces",
// "onpolicy", "offpolicy", "sarsa", "qlearning", "esarsa"). The learning players are trained
// when created.
package _default

import (
	"math/rand/v2"
	"time"

	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/players"
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	"github.com/janpfeifer/rlTicTacToe/internal/searchers/ab"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultEpisodes used to train the learning players, if not configured with "episodes=<n>".
const DefaultEpisodes = 10_000

func init() {
	players.RegisterModule("random", &Random{})
	for _, alg := range rl.Algorithms {
		players.RegisterModule(alg.String(), &Learner{Algorithm: alg})
	}
}

// Random implements a players.Module that plays uniformly random legal moves.
//
// It accepts the parameter "seed".
type Random struct{}

// Assert Random implements Module.
var _ players.Module = (*Random)(nil)

// NewPlayer implements players.Module.
func (r *Random) NewPlayer(_ state.Mark, params parameters.Params) (players.Player, error) {
	seed, err := parameters.PopParamOr(params, "seed", rand.Uint64())
	if err != nil {
		return nil, err
	}
	return players.NewAgentPlayer("Random", rl.NewRandomOpponent(seed)), nil
}

// Learner implements a players.Module that trains an rl.Agent with the given Algorithm.
//
// Besides the parameters accepted by rl.NewFromParams, it accepts "episodes", the number of
// training episodes.
type Learner struct {
	Algorithm rl.Algorithm
}

// Assert Learner implements Module.
var _ players.Module = (*Learner)(nil)

// NewPlayer implements players.Module.
func (l *Learner) NewPlayer(player state.Mark, params parameters.Params) (players.Player, error) {
	agent, episodes, err := NewAgentFromParams(l.Algorithm, player, params)
	if err != nil {
		return nil, err
	}
	// Unknown parameters are reported before the (long) training.
	if err = parameters.CheckAllConsumed(params); err != nil {
		return nil, err
	}
	start := time.Now()
	if err = agent.Train(episodes); err != nil {
		return nil, err
	}
	klog.V(1).Infof("Trained %s for %d episodes in %s: %d (state, action) pairs",
		agent, episodes, time.Since(start), agent.Table().Len())
	return players.NewAgentPlayer(agent.String(), agent), nil
}

// NewAgentFromParams creates an untrained agent, and returns it along with the number of training
// episodes configured with "episodes".
//
// Besides the opponents accepted by rl.NewFromParams, "opponent=ab" trains the agent against a perfect
// alpha-beta player, which can be configured with the parameters "ab_randomness" and "ab_max_depth"
// (see package ab).
func NewAgentFromParams(alg rl.Algorithm, player state.Mark, params parameters.Params, options ...rl.Option) (agent *rl.Agent, episodes int, err error) {
	episodes, err = parameters.PopParamOr(params, "episodes", DefaultEpisodes)
	if err != nil {
		return
	}
	if episodes <= 0 {
		err = errors.Wrapf(rl.ErrInvalidArgument, "episodes=%d must be positive", episodes)
		return
	}
	if params["opponent"] == "ab" {
		delete(params, "opponent")
		abParams := make(parameters.Params)
		for _, key := range []string{"randomness", "max_depth"} {
			if value, found := params["ab_"+key]; found {
				abParams[key] = value
				delete(params, "ab_"+key)
			}
		}
		if seed, found := params["seed"]; found {
			abParams["seed"] = seed
		}
		var opponent rl.Opponent
		opponent, _, err = ab.NewFromParams(abParams)
		if err != nil {
			err = errors.WithMessage(err, "opponent=ab")
			return
		}
		options = append([]rl.Option{rl.WithOpponent(opponent)}, options...)
	}
	agent, err = rl.NewFromParams(alg, player, params, options...)
	return
}

// NewAgent creates an untrained agent from a configuration string, e.g. "sarsa:alpha=0.3,episodes=5000".
// See players.New for the format. Only the learning players are accepted.
func NewAgent(player state.Mark, config string, options ...rl.Option) (agent *rl.Agent, episodes int, err error) {
	moduleName, params := players.SplitConfig(config)
	alg, err := rl.ParseAlgorithm(moduleName)
	if err != nil {
		return
	}
	agent, episodes, err = NewAgentFromParams(alg, player, params, options...)
	if err != nil {
		err = errors.WithMessagef(err, "failed to create agent for %q", config)
		return
	}
	if err = parameters.CheckAllConsumed(params); err != nil {
		err = errors.WithMessagef(err, "configuration %q", config)
	}
	return
}
