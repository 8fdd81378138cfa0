package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/janpfeifer/rlTicTacToe/internal/report"
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrainingJob(t *testing.T) {
	job, err := newTrainingJob("sarsa:alpha=0.3", 7, 500)
	require.NoError(t, err)
	assert.Equal(t, 500, job.episodes)
	assert.Equal(t, rl.Sarsa, job.agent.Algorithm())
	assert.Equal(t, X, job.agent.Player())
	// Self-play agents only learn to play their own mark.
	assert.True(t, job.canPlay(X))
	assert.False(t, job.canPlay(O))

	job, err = newTrainingJob("qlearning:episodes=30,opponent=random", 7, 500)
	require.NoError(t, err)
	assert.Equal(t, 30, job.episodes)
	assert.True(t, job.canPlay(X))
	assert.False(t, job.canPlay(O))

	job, err = newTrainingJob("mces:player=o,episodes=10", 7, 500)
	require.NoError(t, err)
	assert.Equal(t, O, job.agent.Player())
	assert.True(t, job.agent.IsSelfPlay())
	assert.False(t, job.canPlay(X))
	assert.True(t, job.canPlay(O))

	for _, config := range []string{"random", "minimax", "sarsa:episodes=-1", "sarsa:beta=1", "sarsa:player=z"} {
		_, err = newTrainingJob(config, 7, 500)
		assert.Errorf(t, err, "config %q should fail", config)
	}
	assert.Equal(t, "mces;onpolicy;offpolicy;sarsa;qlearning;esarsa", defaultAIs())
}

func TestRun(t *testing.T) {
	job, err := newTrainingJob("esarsa", 11, 250)
	require.NoError(t, err)
	rep := report.New()
	var trained []int
	require.NoError(t, job.run(context.Background(), 100, 21, rep, func(episodes int) {
		trained = append(trained, episodes)
	}))
	assert.Equal(t, []int{100, 100, 50}, trained)
	assert.Equal(t, 250, job.agent.NumEpisodes())

	records := rep.Records()
	require.Len(t, records, 4)
	for ii, episodes := range []int{0, 100, 200, 250} {
		assert.Equal(t, episodes, records[ii].Episodes)
		assert.Equal(t, 21, records[ii].Matches)
		assert.Equal(t, "esarsa", records[ii].Config)
	}
	assert.Zero(t, records[0].TableSize)
	assert.Positive(t, records[3].TableSize)

	// Cancelled context: the evaluation before training fails.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, err = newTrainingJob("sarsa", 11, 100)
	require.NoError(t, err)
	require.Error(t, job.run(ctx, 10, 5, report.New(), nil))
}

func TestEvalOpponent(t *testing.T) {
	job, err := newTrainingJob("mces", 5, 100)
	require.NoError(t, err)
	job.evalOpponent = "ab:seed=2"
	rep := report.New()
	require.NoError(t, job.run(context.Background(), 100, 10, rep, nil))
	for _, record := range rep.Records() {
		// The alpha-beta player never loses.
		assert.Zero(t, record.Wins)
		assert.Equal(t, 10, record.Matches)
	}

	job.evalOpponent = "minimax"
	_, err = job.evaluate(context.Background(), 2)
	require.Error(t, err)
}

func TestSummaryAndRoundRobin(t *testing.T) {
	var jobs []*trainingJob
	rep := report.New()
	for _, config := range []string{"qlearning:episodes=200", "mces:episodes=200,player=o", "onpolicy:episodes=100,opponent=random,player=o"} {
		job, err := newTrainingJob(config, 3, 0)
		require.NoError(t, err)
		require.NoError(t, job.run(context.Background(), 100, 10, rep, nil))
		jobs = append(jobs, job)
	}

	var buf bytes.Buffer
	au := aurora.NewAurora(false)
	printSummary(&buf, au, jobs, rep)
	summary := buf.String()
	assert.Contains(t, summary, rep.RunID.String())
	for _, job := range jobs {
		assert.Contains(t, summary, job.config)
	}
	assert.Contains(t, summary, "self")
	assert.Contains(t, summary, "opponent")

	allResults, err := roundRobin(context.Background(), jobs, 4)
	require.NoError(t, err)
	// Only the X agent plays, against each of the two O agents.
	assert.Len(t, allResults, 2)
	assert.Contains(t, allResults, [2]int{0, 1})
	assert.Contains(t, allResults, [2]int{0, 2})
	assert.NotContains(t, allResults, [2]int{1, 2})
	for _, results := range allResults {
		assert.Equal(t, 4, results.Matches)
	}

	buf.Reset()
	printRoundRobin(&buf, au, jobs, allResults)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "total")
	assert.Contains(t, lines[4], "onpolicy")
	// Only the X agent's row has results (except against itself), including its total.
	assert.Equal(t, 1, strings.Count(lines[2], "-"))
	assert.Equal(t, 4, strings.Count(lines[4], "-"))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	job, err := newTrainingJob("sarsa", 1, 300)
	require.NoError(t, err)
	p := newProgress(&buf, []*trainingJob{job, job})
	p.add(150)
	assert.Contains(t, buf.String(), "Trained 150 of 600 episodes (25%)")
	assert.Equal(t, "a~", abbreviate("abc", 2))
	assert.Equal(t, "abc", abbreviate("abc", 3))
}
