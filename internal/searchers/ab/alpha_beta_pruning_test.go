package ab

import (
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	"github.com/janpfeifer/rlTicTacToe/internal/searchers"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/janpfeifer/rlTicTacToe/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinAndBlock(t *testing.T) {
	ab := New(0, nil)

	// X to move, wins immediately at (0, 2).
	board := statetest.BuildBoard("XX.|OO.|...")
	action, score, actionsScores := ab.Search(board)
	assert.Equal(t, Action{Row: 0, Col: 2}, action)
	assert.Positive(t, score)
	assert.Len(t, actionsScores, board.NumLegalMoves())

	// O to move must block at (0, 2), but X then forks with (1, 1): the block only delays the loss.
	board = statetest.BuildBoard("XX.|O..|...")
	action, score, actionsScores = ab.Search(board)
	assert.Equal(t, Action{Row: 0, Col: 2}, action)
	assert.Negative(t, score)
	assert.Less(t, actionsScores[len(actionsScores)-1], score)

	// Opposite corners: O must block the diagonal at (1, 1), and still loses.
	board = statetest.BuildBoard("X.O|...|..X")
	require.Equal(t, O, board.NextPlayer())
	action, score, _ = ab.Search(board)
	assert.Equal(t, Action{Row: 1, Col: 1}, action)
	assert.Negative(t, score)

	// Center opening answered in a corner is a draw.
	_, score, _ = ab.Search(statetest.BuildBoard("O..|.X.|..."))
	assert.Zero(t, score)

	assert.Positive(t, ab.Stats().Nodes)
	action, _, actionsScores = ab.Search(statetest.BuildBoard("XXX|OO.|..."))
	assert.Equal(t, NoAction, action)
	assert.Nil(t, actionsScores)
}

func TestPerfectPlay(t *testing.T) {
	// Perfect play from both sides is a tie.
	ab := New(0, rand.New(rand.NewPCG(1, 2)))
	board := NewBoard()
	for !board.IsFinished() {
		action, score, _ := ab.Search(board)
		assert.Zero(t, score, "move #%d", board.MoveNumber)
		_, _, err := board.Apply(action)
		require.NoError(t, err)
	}
	assert.True(t, board.IsTie())
	assert.Positive(t, ab.Stats().CacheHits)

	// Against random players it never loses, playing either mark.
	opponent := &searchers.Opponent{Searcher: ab}
	random := rl.NewRandomOpponent(3)
	for _, abMark := range []Mark{X, O} {
		for range 100 {
			board = NewBoard()
			for !board.IsFinished() {
				var action Action
				var ok bool
				if board.NextPlayer() == abMark {
					action, ok = opponent.MakeMove(board)
				} else {
					action, ok = random.MakeMove(board)
				}
				require.True(t, ok)
				_, _, err := board.Apply(action)
				require.NoError(t, err)
			}
			assert.NotEqual(t, abMark.Opponent(), board.Winner(), "\n%s", board)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	// Depth 1 only sees immediate wins: the first move has score 0 everywhere.
	ab := New(1, nil)
	action, score, actionsScores := ab.Search(NewBoard())
	assert.Equal(t, Action{Row: 0, Col: 0}, action)
	assert.Zero(t, score)
	for _, s := range actionsScores {
		assert.Zero(t, s)
	}
	action, score, _ = ab.Search(statetest.BuildBoard("OO.|XX.|X.."))
	assert.Equal(t, Action{Row: 0, Col: 2}, action)
	assert.Positive(t, score)
}

func TestRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	s := searchers.NewRandomizedSearcher(New(0, nil), 100, NumCells+1, rng)
	seen := make(map[Action]bool)
	for range 50 {
		action, _, _ := s.Search(NewBoard())
		seen[action] = true
	}
	assert.Greater(t, len(seen), 1)

	// Winning moves are always taken.
	for range 20 {
		action, _, _ := s.Search(statetest.BuildBoard("XX.|OO.|..."))
		assert.Equal(t, Action{Row: 0, Col: 2}, action)
	}

	// No randomness returns the searcher itself.
	base := New(0, nil)
	assert.Same(t, base, searchers.NewRandomizedSearcher(base, 0, NumCells+1, rng))
}

func TestNewFromParams(t *testing.T) {
	params := parameters.NewFromConfigString("max_depth=2,randomness=0.5,seed=3")
	opponent, name, err := NewFromParams(params)
	require.NoError(t, err)
	assert.Empty(t, params)
	assert.Equal(t, "AlphaBeta(max_depth=2)(randomness=0.5)", name)
	action, ok := opponent.MakeMove(NewBoard())
	assert.True(t, ok)
	assert.True(t, action.Valid())

	for _, config := range []string{"max_depth=x", "randomness=-1", "seed=-2"} {
		_, _, err = NewFromParams(parameters.NewFromConfigString(config))
		assert.Errorf(t, err, "config %q should fail", config)
	}
}
