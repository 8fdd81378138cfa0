// trainer trains a set of agents, evaluating them periodically against a fixed opponent, and prints
// a summary of the results. Optionally it plays a round-robin among the trained agents (-compare) and
// saves the learning curves (-report_dir). Agents learn to play X, unless configured with "player=o".
//
// Example:
//
//	$ go run ./cmd/trainer -ai="sarsa;qlearning:alpha=0.3;offpolicy:corrected;sarsa:player=o" -compare -episodes=50000 -report_dir=/tmp/reports
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/janpfeifer/must"
	"github.com/janpfeifer/rlTicTacToe/internal/profilers"
	"github.com/janpfeifer/rlTicTacToe/internal/report"
	"github.com/janpfeifer/rlTicTacToe/internal/ui/spinning"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	flagAIs = flag.String("ai", defaultAIs(),
		"Semicolon-separated list of agent configurations to train, e.g.: \"sarsa:alpha=0.3;qlearning:opponent=random\".")
	flagEpisodes     = flag.Int("episodes", 20_000, "Number of training episodes, if not set in the agent configuration.")
	flagEvalEvery    = flag.Int("eval_every", 1_000, "Evaluate the agents every these many episodes.")
	flagEvalMatches  = flag.Int("eval_matches", 200, "Number of evaluation matches on each evaluation.")
	flagEvalOpponent = flag.String("eval_opponent", "random",
		"Configuration of the opponent used in the evaluations, e.g.: \"random\" or \"ab:randomness=0.2\".")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and train "+
		"these many agents simultaneously.")
	flagReportDir = flag.String("report_dir", "", "If set, save the evaluations as CSV and the learning curves as HTML in this directory.")
	flagSeed      = flag.Uint64("seed", 0, "Seed for the agents. If 0, a random seed is used.")
	flagCompare   = flag.Bool("compare", false, "After training, play a round-robin between the trained X agents and O agents (configured with \"player=o\").")
	flagColor     = flag.Bool("color", true, "Use colors in the summary.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagEpisodes <= 0 || *flagEvalEvery <= 0 || *flagEvalMatches <= 0 {
		klog.Fatalf("-episodes=%d, -eval_every=%d and -eval_matches=%d must be positive",
			*flagEpisodes, *flagEvalEvery, *flagEvalMatches)
	}

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	// Profilers: HTTP profiler server and CPU profile.
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	jobs := must.M1(createJobs())
	rep := report.New()
	must.M(trainAll(globalCtx, jobs, rep))
	au := aurora.NewAurora(*flagColor)
	printSummary(os.Stdout, au, jobs, rep)

	if *flagCompare && globalCtx.Err() == nil {
		s := spinning.New(globalCtx, "Playing round-robin")
		allResults, err := roundRobin(globalCtx, jobs, *flagEvalMatches)
		s.Done()
		must.M(err)
		printRoundRobin(os.Stdout, au, jobs, allResults)
	}

	if *flagReportDir != "" {
		csvPath, htmlPath := must.M2(rep.Save(*flagReportDir))
		fmt.Printf("\nReport saved to:\n\t%s\n\t%s\n", csvPath, htmlPath)
	}
}

// createJobs from the -ai flag.
func createJobs() (jobs []*trainingJob, err error) {
	seed := *flagSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	for jobIdx, config := range strings.Split(*flagAIs, ";") {
		config = strings.TrimSpace(config)
		if config == "" {
			continue
		}
		klog.V(1).Infof("Creating agent #%d from %q", jobIdx, config)
		var job *trainingJob
		job, err = newTrainingJob(config, seed+uint64(1000*jobIdx), *flagEpisodes)
		if err != nil {
			return
		}
		job.evalOpponent = *flagEvalOpponent
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		err = errors.Errorf("no agents configured in -ai=%q", *flagAIs)
	}
	return
}

// trainAll trains the jobs in parallel.
func trainAll(ctx context.Context, jobs []*trainingJob, rep *report.Report) error {
	p := newProgress(os.Stdout, jobs)
	var wg errgroup.Group
	wg.SetLimit(getParallelism())
	fmt.Printf("\r%s", p)
	for _, job := range jobs {
		wg.Go(func() error {
			return job.run(ctx, *flagEvalEvery, *flagEvalMatches, rep, p.add)
		})
	}
	err := wg.Wait()
	fmt.Println()
	if ctx.Err() != nil {
		fmt.Printf("Interrupted: %s\n", ctx.Err())
		return nil
	}
	return err
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
