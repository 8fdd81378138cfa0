package rl

import (
	"github.com/janpfeifer/rlTicTacToe/internal/state"
)

// selector chooses an action for the player to move in env. It returns false if there are no legal moves.
type selector func(a *Agent, env Environment) (state.Action, bool)

// uniformRandom always selects a random legal move.
func uniformRandom(a *Agent, env Environment) (state.Action, bool) {
	return env.RandomLegalMove(a.rng)
}

// exploringStarts selects a random move for states without a policy entry, and follows the policy otherwise.
func exploringStarts(a *Agent, env Environment) (state.Action, bool) {
	if action, found := a.policy[env.Key()]; found {
		return action, true
	}
	return env.RandomLegalMove(a.rng)
}

// greedyWithFallback is the play time selection of the Monte Carlo family. It is the same as exploringStarts:
// the policy is fixed after training, and unknown states get a random move.
func greedyWithFallback(a *Agent, env Environment) (state.Action, bool) {
	return exploringStarts(a, env)
}

// epsilonGreedy selects a random move with probability epsilon. Otherwise, it selects the action with the
// largest value in the table, or a random move if the state has no recorded actions.
func epsilonGreedy(a *Agent, env Environment) (state.Action, bool) {
	if a.rng.Float64() < a.epsilon {
		return env.RandomLegalMove(a.rng)
	}
	if action, found := a.table.ArgMax(env.Key()); found {
		return action, true
	}
	return env.RandomLegalMove(a.rng)
}

// variant holds the parts that differ among the algorithms.
type variant struct {
	// behavior selects the actions while training.
	behavior selector

	// play selects the actions after training, see Agent.MakeMove.
	play selector

	// episode plays one training episode, updating the agent's tables.
	episode func(a *Agent) (EpisodeStats, error)
}

var variants = [numAlgorithms]*variant{
	MonteCarloES: {
		behavior: exploringStarts,
		play:     greedyWithFallback,
		episode:  (*Agent).monteCarloEpisode,
	},
	OnPolicyMonteCarlo: {
		behavior: epsilonGreedy,
		play:     greedyWithFallback,
		episode:  (*Agent).monteCarloEpisode,
	},
	OffPolicyMonteCarlo: {
		behavior: uniformRandom,
		play:     greedyWithFallback,
		episode:  (*Agent).offPolicyEpisode,
	},
	Sarsa: {
		behavior: epsilonGreedy,
		play:     epsilonGreedy,
		episode:  (*Agent).sarsaEpisode,
	},
	QLearning: {
		behavior: epsilonGreedy,
		play:     epsilonGreedy,
		episode:  (*Agent).qLearningEpisode,
	},
	ExpectedSarsa: {
		behavior: epsilonGreedy,
		play:     epsilonGreedy,
		episode:  (*Agent).expectedSarsaEpisode,
	},
}
