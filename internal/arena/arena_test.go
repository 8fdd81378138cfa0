package arena

import (
	"context"
	"testing"

	"github.com/janpfeifer/rlTicTacToe/internal/players"
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted plays the first empty cell of its list of moves.
type scripted struct {
	moves     []Action
	finalized int
}

func (s *scripted) Play(b *Board) (Action, bool) {
	for _, action := range s.moves {
		if b.IsEmpty(action) {
			return action, true
		}
	}
	return NoAction, false
}

func (s *scripted) Finalize() { s.finalized++ }

func TestMatch(t *testing.T) {
	// X fills the top row, O plays the middle row but is always one move behind.
	x := &scripted{moves: []Action{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}}
	o := &scripted{moves: []Action{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}}}
	final, err := Match(context.Background(), [2]players.Player{x, o})
	require.NoError(t, err)
	assert.Equal(t, Win, final.Outcome())
	assert.Equal(t, X, final.Winner())
	assert.Equal(t, 5, final.MoveNumber)
	assert.Equal(t, 1, x.finalized)
	assert.Equal(t, 1, o.finalized)

	var r Results
	r.Add(final, X)
	r.Add(final, O)
	assert.Equal(t, Results{Matches: 2, Wins: 1, Losses: 1}, r)
	assert.InDelta(t, 0.5, r.WinRate(), 1e-9)
	assert.Contains(t, r.String(), "2 matches: 1 wins (50.0%)")
}

func TestMatchErrors(t *testing.T) {
	// O runs out of scripted moves.
	x := &scripted{moves: []Action{{Row: 0, Col: 0}, {Row: 2, Col: 2}, {Row: 2, Col: 1}}}
	o := &scripted{moves: []Action{{Row: 1, Col: 1}}}
	_, err := Match(context.Background(), [2]players.Player{x, o})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Match(ctx, [2]players.Player{x, o})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate(t *testing.T) {
	random1 := players.NewAgentPlayer("random-1", rl.NewRandomOpponent(1))
	random2 := players.NewAgentPlayer("random-2", rl.NewRandomOpponent(2))
	for _, mark := range []Mark{X, O} {
		r, err := Evaluate(context.Background(), random1, mark, random2, 200)
		require.NoError(t, err)
		assert.Equal(t, 200, r.Matches)
		assert.Equal(t, r.Matches, r.Wins+r.Draws+r.Losses)
		assert.InDelta(t, 1.0, r.WinRate()+r.DrawRate()+r.LossRate(), 1e-9)
		assert.Positive(t, r.Wins)
		assert.Positive(t, r.Losses)
	}

	var merged Results
	merged.Merge(Results{Matches: 3, Wins: 1, Draws: 1, Losses: 1})
	merged.Merge(Results{Matches: 1, Wins: 1})
	assert.Equal(t, Results{Matches: 4, Wins: 2, Draws: 1, Losses: 1}, merged)
	assert.Zero(t, Results{}.WinRate())

	_, err := Evaluate(context.Background(), random1, Empty, random2, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEvaluateTrainedAgent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training in short mode")
	}
	agent, err := rl.New(rl.QLearning, X, rl.WithSeed(7), rl.WithEpsilon(0.05),
		rl.WithOpponent(rl.NewRandomOpponent(8)))
	require.NoError(t, err)
	require.NoError(t, agent.Train(5000))
	trained := players.NewAgentPlayer("qlearning", agent)
	r, err := Evaluate(context.Background(), trained, X, players.NewAgentPlayer("random", rl.NewRandomOpponent(9)), 300)
	require.NoError(t, err)

	// Baseline: random X against the same random O.
	baseline, err := Evaluate(context.Background(), players.NewAgentPlayer("random-x", rl.NewRandomOpponent(10)), X,
		players.NewAgentPlayer("random", rl.NewRandomOpponent(9)), 300)
	require.NoError(t, err)
	assert.Less(t, r.LossRate(), baseline.LossRate(), "trained: %s\nbaseline: %s", r, baseline)
}
