package rl

import (
	"fmt"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/rlTicTacToe/internal/generics"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Default hyperparameters.
const (
	DefaultAlpha   = 0.5
	DefaultGamma   = 0.9
	DefaultEpsilon = 0.1
)

// Agent learns to play one of the marks with one of the algorithms, and after training
// can be queried for moves with MakeMove.
//
// Each Agent owns its tables exclusively.
type Agent struct {
	algorithm Algorithm
	variant   *variant
	player    state.Mark

	alpha, gamma, epsilon float64
	correctedWeights      bool

	rng         *rand.Rand
	opponent    Opponent
	newEnv      NewEnvironmentFn
	episodeHook func(stats EpisodeStats)

	// Q, the value table.
	table *ValueTable

	// policy is maintained by the Monte Carlo family only.
	policy Policy

	// returns is used by Monte Carlo ES and on-policy Monte Carlo.
	returns returnsAccumulator

	// cumulativeWeights (C) is used by off-policy Monte Carlo.
	cumulativeWeights map[StateAction]float64

	numEpisodes int
}

// Assert Agent can be used as an Opponent.
var _ Opponent = (*Agent)(nil)

// Option configures an Agent, see New.
type Option func(a *Agent) error

// WithAlpha sets the learning rate of the temporal-difference algorithms. It must be in (0, 1].
func WithAlpha(alpha float64) Option {
	return func(a *Agent) error {
		if !(alpha > 0 && alpha <= 1) {
			return errors.Wrapf(ErrInvalidArgument, "alpha (learning rate) must be in (0, 1], got %g", alpha)
		}
		a.alpha = alpha
		return nil
	}
}

// WithGamma sets the discount factor of the temporal-difference algorithms. It must be in [0, 1].
func WithGamma(gamma float64) Option {
	return func(a *Agent) error {
		if !(gamma >= 0 && gamma <= 1) {
			return errors.Wrapf(ErrInvalidArgument, "gamma (discount factor) must be in [0, 1], got %g", gamma)
		}
		a.gamma = gamma
		return nil
	}
}

// WithEpsilon sets the exploration rate of the epsilon-greedy action selection. It must be in [0, 1].
func WithEpsilon(epsilon float64) Option {
	return func(a *Agent) error {
		if !(epsilon >= 0 && epsilon <= 1) {
			return errors.Wrapf(ErrInvalidArgument, "epsilon (exploration rate) must be in [0, 1], got %g", epsilon)
		}
		a.epsilon = epsilon
		return nil
	}
}

// WithSeed makes the agent use its own random number generator seeded with seed.
func WithSeed(seed uint64) Option {
	return func(a *Agent) error {
		a.rng = rand.New(rand.NewPCG(seed, 0))
		return nil
	}
}

// WithRand sets the random number generator used by the agent. It is not safe to share it with
// other agents trained concurrently.
func WithRand(rng *rand.Rand) Option {
	return func(a *Agent) error {
		if rng == nil {
			return errors.Wrap(ErrInvalidArgument, "nil random number generator")
		}
		a.rng = rng
		return nil
	}
}

// WithOpponent makes the opponent choose the moves of the other mark during training.
// The moves of the opponent are not recorded in the agent's tables.
//
// Without an opponent the agent chooses the moves of both marks, with rewards always
// computed from the point of view of the agent's player.
func WithOpponent(opponent Opponent) Option {
	return func(a *Agent) error {
		a.opponent = opponent
		return nil
	}
}

// WithCorrectedImportanceWeights makes off-policy Monte Carlo use the actual probability of the
// behavior policy (1/number of legal moves) when scaling the importance weight, instead of the
// fixed 1/9. It has no effect on the other algorithms.
func WithCorrectedImportanceWeights(corrected bool) Option {
	return func(a *Agent) error {
		a.correctedWeights = corrected
		return nil
	}
}

// WithEnvironment sets the function used to create a new environment at the start of each episode.
// The default is NewBoardEnvironment.
func WithEnvironment(newEnv NewEnvironmentFn) Option {
	return func(a *Agent) error {
		if newEnv == nil {
			return errors.Wrap(ErrInvalidArgument, "nil environment factory")
		}
		a.newEnv = newEnv
		return nil
	}
}

// WithEpisodeHook sets a function called at the end of every training episode.
func WithEpisodeHook(hook func(stats EpisodeStats)) Option {
	return func(a *Agent) error {
		a.episodeHook = hook
		return nil
	}
}

// New creates an Agent that learns with the given algorithm to play the player's mark.
//
// The defaults are alpha=DefaultAlpha, gamma=DefaultGamma, epsilon=DefaultEpsilon and a random number
// generator seeded randomly. Invalid options return an error wrapping ErrInvalidArgument.
func New(algorithm Algorithm, player state.Mark, options ...Option) (*Agent, error) {
	if algorithm < 0 || algorithm >= numAlgorithms {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown algorithm #%d", int(algorithm))
	}
	if !player.IsPlayer() {
		return nil, errors.Wrapf(ErrInvalidArgument, "agent must play X or O, got mark %q", player)
	}
	a := &Agent{
		algorithm:         algorithm,
		variant:           variants[algorithm],
		player:            player,
		alpha:             DefaultAlpha,
		gamma:             DefaultGamma,
		epsilon:           DefaultEpsilon,
		newEnv:            NewBoardEnvironment,
		table:             NewValueTable(),
		policy:            make(Policy),
		returns:           make(returnsAccumulator),
		cumulativeWeights: make(map[StateAction]float64),
	}
	for _, option := range options {
		if err := option(a); err != nil {
			return nil, errors.WithMessagef(err, "failed to configure %s agent", algorithm.Description())
		}
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return a, nil
}

// Algorithm used by the agent.
func (a *Agent) Algorithm() Algorithm { return a.algorithm }

// Player returns the mark the agent learns to play.
func (a *Agent) Player() state.Mark { return a.player }

// Table returns the value table (Q). It is owned by the agent and must not be modified.
func (a *Agent) Table() *ValueTable { return a.table }

// Policy returns the current policy. Only the Monte Carlo family maintains one: for the
// temporal-difference family it is always empty, the policy is implicit in the value table.
func (a *Agent) Policy() Policy { return a.policy }

// NumEpisodes returns the number of episodes trained so far.
func (a *Agent) NumEpisodes() int { return a.numEpisodes }

// IsSelfPlay returns whether the agent selects the moves of both players during training. Rewards are
// always from the point of view of Player, so it still only learns to play its own mark.
func (a *Agent) IsSelfPlay() bool { return a.opponent == nil }

// String implements fmt.Stringer.
func (a *Agent) String() string {
	switch {
	case a.algorithm.IsTemporalDifference():
		return fmt.Sprintf("%s(%s, alpha=%g, gamma=%g, epsilon=%g)", a.algorithm.Description(), a.player, a.alpha, a.gamma, a.epsilon)
	case a.algorithm == OnPolicyMonteCarlo:
		return fmt.Sprintf("%s(%s, epsilon=%g)", a.algorithm.Description(), a.player, a.epsilon)
	case a.algorithm == OffPolicyMonteCarlo && a.correctedWeights:
		return fmt.Sprintf("%s(%s, corrected weights)", a.algorithm.Description(), a.player)
	}
	return fmt.Sprintf("%s(%s)", a.algorithm.Description(), a.player)
}

// Train runs the given number of episodes, updating the agent's tables after each one (or after each
// step, for the temporal-difference family). It is synchronous and can be called more than once:
// training continues from the current tables.
//
// An error is returned if episodes is not positive, or if the environment rejects a move.
func (a *Agent) Train(episodes int) error {
	if episodes <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "number of episodes must be positive, got %d", episodes)
	}
	for range episodes {
		sizeBefore := a.table.Len()
		stats, err := a.variant.episode(a)
		if err != nil {
			return errors.WithMessagef(err, "%s failed at episode #%d", a, a.numEpisodes+1)
		}
		if a.table.Len() < sizeBefore {
			exceptions.Panicf("%s: value table shrank from %d to %d entries", a, sizeBefore, a.table.Len())
		}
		a.numEpisodes++
		stats.Episode = a.numEpisodes
		stats.TableSize = a.table.Len()
		if klog.V(3).Enabled() {
			klog.Infof("%s: episode #%d: %s (winner %s) in %d moves, return %g, %d entries",
				a, stats.Episode, stats.Outcome, stats.Winner, stats.Steps, stats.Return, stats.TableSize)
		}
		if a.episodeHook != nil {
			a.episodeHook(stats)
		}
	}
	if klog.V(1).Enabled() {
		klog.Infof("%s: trained %d episodes, %d states and %d (state, action) pairs",
			a, a.numEpisodes, a.table.NumStates(), a.table.Len())
	}
	return nil
}

// MakeMove returns the agent's move for the player to move in env. It returns false only when there
// are no legal moves.
//
// The Monte Carlo family follows the learned policy, falling back to a random move on unknown states.
// The temporal-difference family keeps exploring with probability epsilon.
func (a *Agent) MakeMove(env Environment) (state.Action, bool) {
	if env.NumLegalMoves() == 0 {
		return state.NoAction, false
	}
	return a.variant.play(a, env)
}

// terminalReturn is the return of an episode to the learning player, for the Monte Carlo family:
// +1 for a win, -1 for a loss and 0 for a tie.
func (a *Agent) terminalReturn(outcome state.Outcome, winner state.Mark) float64 {
	if outcome != state.Win {
		return 0
	}
	if winner == a.player {
		return 1
	}
	return -1
}

// stepReward is the reward of a transition, for the temporal-difference family: -1 if the transition ended
// with a win by the opponent of the learning player, 0 otherwise.
func (a *Agent) stepReward(outcome state.Outcome, winner state.Mark) float64 {
	if outcome == state.Win && winner == a.player.Opponent() {
		return -1
	}
	return 0
}

// isOpponentTurn returns whether the next move in env is to be played by the configured opponent.
func (a *Agent) isOpponentTurn(env Environment) bool {
	return a.opponent != nil && env.NextPlayer() != a.player
}

// opponentMoves lets the opponent play while it is its turn and the match is not over.
func (a *Agent) opponentMoves(env Environment, outcome state.Outcome, winner state.Mark, steps *int) (state.Outcome, state.Mark, error) {
	for !outcome.IsTerminal() && a.isOpponentTurn(env) {
		action, ok := a.opponent.MakeMove(env)
		if !ok {
			return outcome, winner, errors.Errorf("opponent has no move on a match that is not over: %s", env.Key())
		}
		var err error
		outcome, winner, err = env.Apply(action)
		if err != nil {
			return outcome, winner, errors.WithMessagef(err, "opponent move %s", action)
		}
		*steps++
	}
	return outcome, winner, nil
}

// touchedKeys returns the set of states in the trajectory.
func touchedKeys(trajectory []Step) generics.Set[state.Key] {
	keys := generics.MakeSet[state.Key](len(trajectory))
	for _, step := range trajectory {
		keys.Insert(step.Key)
	}
	return keys
}
