// tictactoe plays a match in the terminal: human against a trained agent (the default), human against
// human (-hotseat) or agent against agent (-watch).
//
// The agents are created and trained at start, from configuration strings like
// "qlearning:episodes=20000,alpha=0.3". See package players for the format.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/rlTicTacToe/internal/players"
	_ "github.com/janpfeifer/rlTicTacToe/internal/players/default"
	"github.com/janpfeifer/rlTicTacToe/internal/profilers"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/janpfeifer/rlTicTacToe/internal/ui/cli"
	"github.com/janpfeifer/rlTicTacToe/internal/ui/spinning"
	"k8s.io/klog/v2"
)

var (
	flagHotseat   = flag.Bool("hotseat", false, "Hotseat match: human vs human")
	flagWatch     = flag.Bool("watch", false, "Watch mode: AI vs AI playing")
	flagFirst     = flag.String("first", "", "Who plays first (X): human or ai. Default is random.")
	flagAIConfig  = flag.String("config", players.DefaultPlayerConfig, "AI configuration against which to play")
	flagAIConfig2 = flag.String("config2", "random", "Second AI configuration (playing O), if playing AI vs AI with -watch")
	flagColor     = flag.Bool("color", true, "Use colors when printing the board.")
	flagClear     = flag.Bool("clear", false, "Clear the screen before printing the board.")

	// aiPlayers indexed by X and O: if nil, it's a human playing.
	aiPlayers = map[Mark]players.Player{}
	aiNames   = map[Mark]string{}

	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	var cancel func()
	globalCtx, cancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	// Profilers: HTTP profiler server and CPU profile.
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	// Create (and train) players.
	createPlayers()

	// Create board and UI.
	board := NewBoard()
	ui := cli.New(*flagColor, *flagClear)

	// Loop over match.
	for !board.IsFinished() {
		if globalCtx.Err() != nil {
			klog.Exitf("Match interrupted: %v", globalCtx.Err())
		}
		aiPlayer := aiPlayers[board.NextPlayer()]
		if aiPlayer == nil {
			if err := ui.RunNextMove(board); err != nil {
				klog.Exitf("Failed to run match: %+v", err)
			}
			continue
		}

		// AI plays.
		if *flagWatch {
			ui.Print(board)
		}
		fmt.Printf("\t%s (%s) plays: ", aiNames[board.NextPlayer()], board.NextPlayer())
		action, ok := aiPlayer.Play(board)
		if !ok {
			exceptions.Panicf("AI %s has no move on a match that is not over:\n%s", aiNames[board.NextPlayer()], board)
		}
		fmt.Printf("%s (cell %d)\n", action, action.Index()+1)
		must.M2(board.Apply(action))
	}

	ui.Print(board)
	ui.PrintWinner(board)
	for _, p := range aiPlayers {
		p.Finalize()
	}
}

// createPlayers in aiPlayers. The learning players are trained under a spinner.
func createPlayers() {
	if *flagHotseat && *flagWatch {
		klog.Fatalf("-hotseat and -watch cannot be used together")
	}
	if *flagHotseat {
		// Both players are human, nothing to do.
		return
	}

	// Create AI player:
	var aiMark Mark
	if *flagWatch {
		aiMark = X
	} else {
		switch strings.ToLower(*flagFirst) {
		case "human":
			aiMark = O
		case "ai":
			aiMark = X
		case "":
			aiMark = []Mark{X, O}[rand.IntN(2)]
		default:
			exceptions.Panicf("invalid -first=%q, only valid values are \"human\" or \"ai\"", *flagFirst)
		}
	}
	createAI(aiMark, *flagAIConfig)
	if !*flagWatch {
		return
	}

	// Create second AI
	createAI(aiMark.Opponent(), *flagAIConfig2)
}

func createAI(mark Mark, config string) {
	if config == "" {
		config = players.DefaultPlayerConfig
	}
	s := spinning.New(globalCtx, fmt.Sprintf("Creating AI %q for %s", config, mark))
	p, err := players.New(mark, config)
	s.Done()
	if err != nil {
		klog.Exitf("Failed to create AI for %s: %+v", mark, err)
	}
	aiPlayers[mark] = p
	aiNames[mark] = fmt.Sprint(p)
}
