package rl

import (
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

// bootstrapFn returns the estimate of the value of the next state used in the temporal-difference target.
type bootstrapFn func(a *Agent, nextKey state.Key) float64

func maxBootstrap(a *Agent, nextKey state.Key) float64 {
	return a.table.Max(nextKey)
}

func meanBootstrap(a *Agent, nextKey state.Key) float64 {
	return a.table.Mean(nextKey)
}

// transition of the learning player, from the state where it selected an action to the next state
// where it has to select again (or the end of the match).
type transition struct {
	key      state.Key
	action   state.Action
	reward   float64
	nextKey  state.Key
	terminal bool
	outcome  state.Outcome
	winner   state.Mark
}

// tdStepper runs one match transition by transition. Each call to step applies the learning
// player's action and, if an opponent is configured, the opponent's replies.
type tdStepper struct {
	a     *Agent
	env   Environment
	steps int
}

// startTD creates a new environment and lets the opponent play first, if it is its turn.
func (a *Agent) startTD() (*tdStepper, state.Outcome, error) {
	s := &tdStepper{a: a, env: a.newEnv()}
	outcome, _, err := a.opponentMoves(s.env, state.Continuing, state.MarkInvalid, &s.steps)
	return s, outcome, err
}

// step applies the action to the current state and returns the transition.
func (s *tdStepper) step(action state.Action) (tr transition, err error) {
	tr.key, tr.action = s.env.Key(), action
	var outcome state.Outcome
	var winner state.Mark
	outcome, winner, err = s.env.Apply(action)
	if err != nil {
		err = errors.WithMessagef(err, "applying %s to %s", action, tr.key)
		return
	}
	s.steps++
	outcome, winner, err = s.a.opponentMoves(s.env, outcome, winner, &s.steps)
	if err != nil {
		return
	}
	tr.nextKey = s.env.Key()
	tr.terminal = outcome.IsTerminal()
	tr.outcome, tr.winner = outcome, winner
	tr.reward = s.a.stepReward(outcome, winner)
	return
}

// stats of the match so far.
func (s *tdStepper) stats(tr transition, totalReward float64) EpisodeStats {
	return EpisodeStats{Outcome: tr.outcome, Winner: tr.winner, Steps: s.steps, Return: totalReward}
}

// tdUpdate moves Q(s,a) towards the target: Q(s,a) += alpha * (reward + gamma * next - Q(s,a)).
func (a *Agent) tdUpdate(key state.Key, action state.Action, reward, next float64) {
	q := a.table.Value(key, action)
	a.table.Set(key, action, q+a.alpha*(reward+a.gamma*next-q))
}

// sarsaEpisode: the next action is selected, with the same epsilon-greedy policy, before the update, and
// the update bootstraps from its value. The selected next action is the one taken in the next step.
func (a *Agent) sarsaEpisode() (stats EpisodeStats, err error) {
	s, outcome, err := a.startTD()
	if err != nil || outcome.IsTerminal() {
		return
	}
	action, ok := a.variant.behavior(a, s.env)
	if !ok {
		err = errors.Errorf("no legal moves at the start of the match: %s", s.env.Key())
		return
	}
	var totalReward float64
	for {
		var tr transition
		tr, err = s.step(action)
		if err != nil {
			return
		}
		totalReward += tr.reward
		var next float64
		nextAction := state.NoAction
		if !tr.terminal {
			nextAction, ok = a.variant.behavior(a, s.env)
			if !ok {
				err = errors.Errorf("no legal moves on a match that is not over: %s", tr.nextKey)
				return
			}
			next = a.table.Value(tr.nextKey, nextAction)
		}
		a.tdUpdate(tr.key, tr.action, tr.reward, next)
		if tr.terminal {
			stats = s.stats(tr, totalReward)
			return
		}
		action = nextAction
	}
}

// offPolicyTDEpisode runs Q-Learning and Expected Sarsa: they differ only on the bootstrap estimate of the next state.
func (a *Agent) offPolicyTDEpisode(bootstrap bootstrapFn) (stats EpisodeStats, err error) {
	s, outcome, err := a.startTD()
	if err != nil || outcome.IsTerminal() {
		return
	}
	var totalReward float64
	for {
		action, ok := a.variant.behavior(a, s.env)
		if !ok {
			err = errors.Errorf("no legal moves on a match that is not over: %s", s.env.Key())
			return
		}
		var tr transition
		tr, err = s.step(action)
		if err != nil {
			return
		}
		totalReward += tr.reward
		a.tdUpdate(tr.key, tr.action, tr.reward, bootstrap(a, tr.nextKey))
		if tr.terminal {
			stats = s.stats(tr, totalReward)
			return
		}
	}
}

// qLearningEpisode bootstraps from the largest value recorded for the next state.
func (a *Agent) qLearningEpisode() (EpisodeStats, error) {
	return a.offPolicyTDEpisode(maxBootstrap)
}

// expectedSarsaEpisode bootstraps from the mean of the values recorded for the next state.
func (a *Agent) expectedSarsaEpisode() (EpisodeStats, error) {
	return a.offPolicyTDEpisode(meanBootstrap)
}
