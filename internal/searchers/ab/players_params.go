package ab

import (
	"fmt"
	"math/rand/v2"

	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/players"
	"github.com/janpfeifer/rlTicTacToe/internal/searchers"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

func init() {
	players.RegisterModule("ab", &Module{})
}

// Module implements players.Module for the alpha-beta searcher. It accepts the parameters:
//
//   - max_depth: see New. Default is 0, for unlimited depth.
//   - randomness: if > 0, see searchers.NewRandomizedSearcher. Default is 0.
//   - max_move_randomness: move number from which no more randomness is used. Default is 10 (always).
//   - seed: seed for the tie-breaking and randomness. If absent, a random seed is used.
type Module struct{}

// Assert Module implements players.Module.
var _ players.Module = (*Module)(nil)

// NewPlayer implements players.Module.
func (m *Module) NewPlayer(_ state.Mark, params parameters.Params) (players.Player, error) {
	opponent, name, err := NewFromParams(params)
	if err != nil {
		return nil, err
	}
	return players.NewAgentPlayer(name, opponent), nil
}

// NewFromParams creates the searcher as an rl.Opponent from the parameters (see Module), popping the ones it uses.
// It also returns a name describing its configuration.
func NewFromParams(params parameters.Params) (opponent *searchers.Opponent, name string, err error) {
	maxDepth, err := parameters.PopParamOr(params, "max_depth", 0)
	if err != nil {
		return
	}
	randomness, err := parameters.PopParamOr(params, "randomness", 0.0)
	if err != nil {
		return
	}
	if randomness < 0 {
		err = errors.Wrapf(state.ErrInvalidArgument, "randomness=%g must be >= 0", randomness)
		return
	}
	maxMoveRandomness, err := parameters.PopParamOr(params, "max_move_randomness", state.NumCells+1)
	if err != nil {
		return
	}
	seed, err := parameters.PopParamOr(params, "seed", rand.Uint64())
	if err != nil {
		return
	}
	rng := rand.New(rand.NewPCG(seed, 2))
	var searcher searchers.Searcher = New(maxDepth, rng)
	searcher = searchers.NewRandomizedSearcher(searcher, randomness, maxMoveRandomness, rng)

	name = "AlphaBeta"
	if maxDepth > 0 {
		name = fmt.Sprintf("%s(max_depth=%d)", name, maxDepth)
	}
	if randomness > 0 {
		name = fmt.Sprintf("%s(randomness=%g)", name, randomness)
	}
	return &searchers.Opponent{Searcher: searcher}, name, nil
}
