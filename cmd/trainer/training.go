package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/janpfeifer/rlTicTacToe/internal/arena"
	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	"github.com/janpfeifer/rlTicTacToe/internal/players"
	_default "github.com/janpfeifer/rlTicTacToe/internal/players/default"
	"github.com/janpfeifer/rlTicTacToe/internal/report"
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// trainingJob trains one agent and evaluates it periodically against a fixed opponent.
type trainingJob struct {
	config   string
	agent    *rl.Agent
	episodes int
	evalSeed uint64

	// evalOpponent is the configuration of the opponent used in the evaluations, see players.New.
	// For "random" (the default) a seeded random player is used, so evaluations are reproducible.
	evalOpponent string
}

// newTrainingJob creates the agent for the config. The "episodes" and "seed" parameters default to
// defaultEpisodes and seed. The parameter "player" (X or O, default X) sets the mark the agent learns
// to play.
func newTrainingJob(config string, seed uint64, defaultEpisodes int) (*trainingJob, error) {
	moduleName, params := players.SplitConfig(config)
	alg, err := rl.ParseAlgorithm(moduleName)
	if err != nil {
		return nil, errors.WithMessagef(err, "in -ai configuration %q", config)
	}
	mark := X
	if value, found := params["player"]; found {
		delete(params, "player")
		if mark, err = ParseMark(value); err != nil {
			return nil, errors.WithMessagef(err, "in -ai configuration %q", config)
		}
	}
	if _, found := params["episodes"]; !found {
		params["episodes"] = strconv.Itoa(defaultEpisodes)
	}
	if _, found := params["seed"]; !found {
		params["seed"] = strconv.FormatUint(seed, 10)
	}
	job := &trainingJob{config: config, evalSeed: seed + 1, evalOpponent: "random"}
	job.agent, job.episodes, err = _default.NewAgentFromParams(alg, mark, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "in -ai configuration %q", config)
	}
	if err = parameters.CheckAllConsumed(params); err != nil {
		return nil, errors.WithMessagef(err, "in -ai configuration %q", config)
	}
	return job, nil
}

// canPlay returns whether the agent learned to play mark. Rewards are always from the point of view of
// the agent's player, so even with self-play it only learns to play its own mark.
func (job *trainingJob) canPlay(mark Mark) bool {
	return job.agent.Player() == mark
}

// newEvalOpponent creates the evaluation opponent playing mark. A random opponent is recreated with the
// same seed on every evaluation.
func (job *trainingJob) newEvalOpponent(mark Mark) (players.Player, error) {
	if job.evalOpponent == "random" {
		return players.NewAgentPlayer("random", rl.NewRandomOpponent(job.evalSeed+uint64(mark))), nil
	}
	opponent, err := players.New(mark, job.evalOpponent)
	if err != nil {
		return nil, errors.WithMessagef(err, "evaluation opponent %q", job.evalOpponent)
	}
	return opponent, nil
}

// evaluate the agent, playing its own mark, against the evaluation opponent.
func (job *trainingJob) evaluate(ctx context.Context, numMatches int) (arena.Results, error) {
	mark := job.agent.Player()
	opponent, err := job.newEvalOpponent(mark.Opponent())
	if err != nil {
		return arena.Results{}, err
	}
	return arena.Evaluate(ctx, players.NewAgentPlayer(job.config, job.agent), mark, opponent, numMatches)
}

// run trains the agent, evaluating it every evalEvery episodes (and before training) with evalMatches
// matches. onProgress is called with the number of episodes trained after each chunk.
func (job *trainingJob) run(ctx context.Context, evalEvery, evalMatches int, rep *report.Report, onProgress func(episodes int)) error {
	record := func() error {
		results, err := job.evaluate(ctx, evalMatches)
		if err != nil {
			return err
		}
		rep.Add(report.Record{
			Config:    job.config,
			Episodes:  job.agent.NumEpisodes(),
			TableSize: job.agent.Table().Len(),
			Results:   results,
		})
		klog.V(1).Infof("%s after %d episodes: %s", job.config, job.agent.NumEpisodes(), results)
		return nil
	}
	if err := record(); err != nil {
		return err
	}
	for job.agent.NumEpisodes() < job.episodes {
		if ctx.Err() != nil {
			return nil
		}
		chunk := min(evalEvery, job.episodes-job.agent.NumEpisodes())
		if err := job.agent.Train(chunk); err != nil {
			return errors.WithMessagef(err, "training %q", job.config)
		}
		if err := record(); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(chunk)
		}
	}
	return nil
}

// progress of all training jobs, printed in one line.
type progress struct {
	mu             sync.Mutex
	start          time.Time
	trained, total int
	w              io.Writer
}

func newProgress(w io.Writer, jobs []*trainingJob) *progress {
	p := &progress{start: time.Now(), w: w}
	for _, job := range jobs {
		p.total += job.episodes
	}
	return p
}

func (p *progress) String() string {
	return fmt.Sprintf("Trained %d of %d episodes (%.0f%%) - %s\033[0K",
		p.trained, p.total, 100*float64(p.trained)/float64(max(p.total, 1)), time.Since(p.start).Round(time.Second))
}

func (p *progress) add(episodes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trained += episodes
	_, _ = fmt.Fprintf(p.w, "\r%s", p)
}

// printSummary prints the last evaluation of each job.
func printSummary(w io.Writer, au aurora.Aurora, jobs []*trainingJob, rep *report.Report) {
	last := rep.Last()
	opponent := "random"
	if len(jobs) > 0 {
		opponent = jobs[0].evalOpponent
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", au.Bold(fmt.Sprintf("Evaluation against %q (run %s):", opponent, rep.RunID)))
	_, _ = fmt.Fprintf(w, "%-36s %6s %8s %9s %9s %8s %8s %8s\n",
		"agent", "player", "training", "episodes", "entries", "wins", "draws", "losses")
	for _, job := range jobs {
		record, found := last[job.config]
		if !found {
			continue
		}
		training := "self"
		if !job.agent.IsSelfPlay() {
			training = "opponent"
		}
		_, _ = fmt.Fprintf(w, "%-36s %6s %8s %9d %9d %s %s %s\n",
			job.config, job.agent.Player(), training, record.Episodes, record.TableSize,
			au.Green(fmt.Sprintf("%7.1f%%", 100*record.WinRate())),
			au.Yellow(fmt.Sprintf("%7.1f%%", 100*record.DrawRate())),
			au.Red(fmt.Sprintf("%7.1f%%", 100*record.LossRate())))
	}
}

// roundRobin plays numMatches between every pair of agents where the first learned to play X and
// the second learned to play O (configured with "player=o"). Results are from the point of view of the
// X agent, and are keyed by the indices of the X and O jobs.
func roundRobin(ctx context.Context, jobs []*trainingJob, numMatches int) (map[[2]int]arena.Results, error) {
	allResults := make(map[[2]int]arena.Results)
	for xIdx, xJob := range jobs {
		if !xJob.canPlay(X) {
			continue
		}
		for oIdx, oJob := range jobs {
			if xIdx == oIdx || !oJob.canPlay(O) {
				continue
			}
			results, err := arena.Evaluate(ctx,
				players.NewAgentPlayer(xJob.config, xJob.agent), X,
				players.NewAgentPlayer(oJob.config, oJob.agent), numMatches)
			if err != nil {
				return nil, errors.WithMessagef(err, "%q (X) vs %q (O)", xJob.config, oJob.config)
			}
			allResults[[2]int{xIdx, oIdx}] = results
		}
	}
	return allResults, nil
}

// printRoundRobin prints the matrix of results: rows are the X agents, and columns the O agents, plus
// the total of each X agent.
func printRoundRobin(w io.Writer, au aurora.Aurora, jobs []*trainingJob, allResults map[[2]int]arena.Results) {
	_, _ = fmt.Fprintf(w, "\n%s\n", au.Bold("Round-robin (wins/draws/losses of the X agent, in %):"))
	_, _ = fmt.Fprintf(w, "%-24s", "X \\ O")
	for _, job := range jobs {
		_, _ = fmt.Fprintf(w, " %14s", abbreviate(job.config, 14))
	}
	_, _ = fmt.Fprintf(w, " %14s\n", "total")
	for xIdx, xJob := range jobs {
		_, _ = fmt.Fprintf(w, "%-24s", abbreviate(xJob.config, 24))
		var total arena.Results
		for oIdx := range jobs {
			results, found := allResults[[2]int{xIdx, oIdx}]
			if !found {
				_, _ = fmt.Fprintf(w, " %14s", "-")
				continue
			}
			total.Merge(results)
			printRoundRobinCell(w, au, results)
		}
		if total.Matches == 0 {
			_, _ = fmt.Fprintf(w, " %14s", "-")
		} else {
			printRoundRobinCell(w, au, total)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printRoundRobinCell(w io.Writer, au aurora.Aurora, results arena.Results) {
	cell := fmt.Sprintf(" %4.0f/%4.0f/%4.0f",
		100*results.WinRate(), 100*results.DrawRate(), 100*results.LossRate())
	switch {
	case results.Wins > results.Losses:
		_, _ = fmt.Fprint(w, au.Green(cell))
	case results.Losses > results.Wins:
		_, _ = fmt.Fprint(w, au.Red(cell))
	default:
		_, _ = fmt.Fprint(w, cell)
	}
}

func abbreviate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "~"
}

// defaultAIs is the list of all learning algorithms.
func defaultAIs() string {
	names := make([]string, 0, len(rl.Algorithms))
	for _, alg := range rl.Algorithms {
		names = append(names, alg.String())
	}
	return strings.Join(names, ";")
}
