package rl

import (
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

// Step of a trajectory: the learning player took Action in the state Key.
type Step struct {
	Key    state.Key
	Action state.Action

	// Reward observed after the action. Only used by off-policy Monte Carlo.
	Reward float64

	// NumLegalMoves in the state when the action was selected.
	NumLegalMoves int
}

// episodeResult is the end of a match, as seen by the Monte Carlo family.
type episodeResult struct {
	outcome state.Outcome
	winner  state.Mark
	steps   int
}

// playMonteCarlo plays a match from a new environment, selecting the learning player's actions with
// the given selector, and returns the trajectory of the learning player's steps.
func (a *Agent) playMonteCarlo(selectAction selector) (trajectory []Step, result episodeResult, err error) {
	env := a.newEnv()
	outcome, winner := state.Continuing, state.MarkInvalid
	for {
		outcome, winner, err = a.opponentMoves(env, outcome, winner, &result.steps)
		if err != nil || outcome.IsTerminal() {
			break
		}
		key, numLegal := env.Key(), env.NumLegalMoves()
		action, ok := selectAction(a, env)
		if !ok {
			err = errors.Errorf("no legal moves on a match that is not over: %s", key)
			break
		}
		trajectory = append(trajectory, Step{Key: key, Action: action, NumLegalMoves: numLegal})
		outcome, winner, err = env.Apply(action)
		if err != nil {
			err = errors.WithMessagef(err, "applying %s to %s", action, key)
			break
		}
		result.steps++
		if outcome.IsTerminal() {
			break
		}
	}
	result.outcome, result.winner = outcome, winner
	return
}

// monteCarloEpisode is the episode of Monte Carlo ES and on-policy Monte Carlo: the terminal return is
// assigned to every step of the trajectory.
func (a *Agent) monteCarloEpisode() (stats EpisodeStats, err error) {
	trajectory, result, err := a.playMonteCarlo(a.variant.behavior)
	if err != nil {
		return
	}
	ret := a.terminalReturn(result.outcome, result.winner)
	a.monteCarloUpdate(trajectory, ret)
	stats = EpisodeStats{Outcome: result.outcome, Winner: result.winner, Steps: result.steps, Return: ret}
	return
}

// monteCarloUpdate appends the return to the accumulator of every (state, action) pair in the trajectory,
// sets their value to the mean of the returns observed, and updates the policy of the states visited.
//
// States not in the trajectory didn't change, so their policy is still the arg-max of their values.
func (a *Agent) monteCarloUpdate(trajectory []Step, ret float64) {
	for _, step := range trajectory {
		mean := a.returns.Append(StateAction{Key: step.Key, Action: step.Action}, ret)
		a.table.Set(step.Key, step.Action, mean)
	}
	a.policy.updateFrom(a.table, touchedKeys(trajectory))
}

// offPolicyEpisode plays a match following a uniformly random behavior, and learns only from the last
// transition of the learning player, with the terminal return as its reward.
func (a *Agent) offPolicyEpisode() (stats EpisodeStats, err error) {
	trajectory, result, err := a.playMonteCarlo(a.variant.behavior)
	if err != nil {
		return
	}
	ret := a.terminalReturn(result.outcome, result.winner)
	if len(trajectory) > 0 {
		last := trajectory[len(trajectory)-1]
		last.Reward = ret
		a.offPolicyUpdate([]Step{last})
	}
	stats = EpisodeStats{Outcome: result.outcome, Winner: result.winner, Steps: result.steps, Return: ret}
	return
}

// behaviorInverseProbability is the inverse of the probability of the behavior policy selecting the action of step.
func (a *Agent) behaviorInverseProbability(step Step) float64 {
	if a.correctedWeights && step.NumLegalMoves > 0 {
		return float64(step.NumLegalMoves)
	}
	// Fixed 1/9, regardless of the number of empty cells: it overestimates the probability
	// of the behavior policy as the board fills up. Use WithCorrectedImportanceWeights to fix it.
	return state.NumCells
}

// offPolicyUpdate processes the trajectory in reverse order with weighted importance sampling:
//
//	G += reward; C(s,a) += W; Q(s,a) += W/C(s,a) * (G - Q(s,a))
//
// It stops at the first step (in reverse order) whose action differs from the target (greedy) policy,
// after updating it. Otherwise, W is scaled by the inverse of the behavior policy probability.
// At the end the policy of the states touched is recomputed.
func (a *Agent) offPolicyUpdate(trajectory []Step) {
	var g float64
	w := 1.0
	touched := make([]Step, 0, len(trajectory))
	for ii := len(trajectory) - 1; ii >= 0; ii-- {
		step := trajectory[ii]
		touched = append(touched, step)
		g += step.Reward
		pair := StateAction{Key: step.Key, Action: step.Action}
		a.cumulativeWeights[pair] += w
		q := a.table.Value(step.Key, step.Action)
		a.table.Set(step.Key, step.Action, q+w/a.cumulativeWeights[pair]*(g-q))
		if target, found := a.policy[step.Key]; !found || target != step.Action {
			break
		}
		w *= a.behaviorInverseProbability(step)
	}
	a.policy.updateFrom(a.table, touchedKeys(touched))
}
