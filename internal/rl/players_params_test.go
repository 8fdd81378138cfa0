package rl

import (
	"testing"

	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromParams(t *testing.T) {
	params := parameters.NewFromConfigString("alpha=0.25,gamma=1,epsilon=0,seed=7,opponent=random,episodes=10")
	agent, err := NewFromParams(Sarsa, state.O, params)
	require.NoError(t, err)
	assert.Equal(t, 0.25, agent.alpha)
	assert.Equal(t, 1.0, agent.gamma)
	assert.Equal(t, 0.0, agent.epsilon)
	assert.IsType(t, &RandomOpponent{}, agent.opponent)
	// Parameters not used are left in params.
	assert.Equal(t, parameters.Params{"episodes": "10"}, params)

	agent, err = NewFromParams(OffPolicyMonteCarlo, state.X, parameters.NewFromConfigString("corrected"))
	require.NoError(t, err)
	assert.True(t, agent.correctedWeights)
	assert.Nil(t, agent.opponent)
	assert.Equal(t, DefaultAlpha, agent.alpha)

	for _, config := range []string{"alpha=2", "epsilon=x", "opponent=minimax", "seed=-1"} {
		_, err = NewFromParams(QLearning, state.X, parameters.NewFromConfigString(config))
		require.Errorf(t, err, "config %q should fail", config)
	}
	_, err = NewFromParams(QLearning, state.X, parameters.NewFromConfigString("alpha=2"))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestSeedReproducibility(t *testing.T) {
	train := func() *Agent {
		agent, err := NewFromParams(ExpectedSarsa, state.X, parameters.NewFromConfigString("seed=3,opponent=random"))
		require.NoError(t, err)
		require.NoError(t, agent.Train(200))
		return agent
	}
	a1, a2 := train(), train()
	require.Equal(t, a1.Table().Len(), a2.Table().Len())
	for pair := range a1.Table().Keys() {
		v2, found := a2.Table().Get(pair.Key, pair.Action)
		require.True(t, found)
		assert.Equal(t, a1.Table().Value(pair.Key, pair.Action), v2)
	}
}
