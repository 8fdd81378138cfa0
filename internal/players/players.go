// Package players provides a factory of AI players from configuration strings.
// It also allows player providers to register themselves.
package players

import (
	"slices"
	"strings"

	"github.com/janpfeifer/rlTicTacToe/internal/generics"
	"github.com/janpfeifer/rlTicTacToe/internal/parameters"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
)

// Player is anything that is able to play the game.
type Player interface {
	// Play returns the action chosen for the next player of the board, or false if there are
	// no legal moves.
	Play(board *Board) (action Action, ok bool)

	// Finalize is called at the end of a match.
	Finalize()
}

// Module must implement NewPlayer, called at the start of a match.
// The params are the parsed configuration; the module should pop the parameters it uses, and
// players.New will fail if any is left.
type Module interface {
	NewPlayer(player Mark, params parameters.Params) (Player, error)
}

// moduleRegistration is a reference to the module and its name.
type moduleRegistration struct {
	Module
	Name string
}

var (
	// Registered external modules.
	keywordToModules = make(map[string]moduleRegistration)
)

// RegisterModule so it can be used by any of the front-ends to play.
func RegisterModule(name string, module Module) {
	keywordToModules[name] = moduleRegistration{Name: name, Module: module}
}

// Modules returns the sorted names of the registered modules.
func Modules() []string {
	return slices.Collect(generics.SortedKeys(keywordToModules))
}

var (
	// DefaultPlayerConfig is used if no configuration was given to the AI. The value may be changed by the
	// UI built.
	DefaultPlayerConfig = "qlearning"
)

// SplitConfig separates the module name from its parameters.
func SplitConfig(config string) (moduleName string, params parameters.Params) {
	moduleName = config
	if moduleSplit := strings.Index(config, ":"); moduleSplit != -1 {
		moduleName = config[:moduleSplit]
		config = config[moduleSplit+1:]
	} else {
		config = ""
	}
	return strings.TrimSpace(moduleName), parameters.NewFromConfigString(config)
}

// New creates a new AI player given the configuration string.
//
// Args:
//
//	player: the mark the AI will play.
//	config: the AI name followed by a colon (":"), followed by a comma-separated list of optional parameters with optional values associated.
//		E.g.: "qlearning:episodes=20000,alpha=0.3".
//		If empty, the default is given by DefaultPlayerConfig (usually "qlearning", if not changed by the program).
//
// More details on the config are dependent on the module used.
func New(player Mark, config string) (Player, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	moduleName, params := SplitConfig(config)
	module, ok := keywordToModules[moduleName]
	if !ok {
		return nil, errors.Errorf("unknown AI player %q, registered players are %q", moduleName, Modules())
	}
	p, err := module.NewPlayer(player, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create AI player %q", moduleName)
	}
	if err = parameters.CheckAllConsumed(params); err != nil {
		return nil, errors.WithMessagef(err, "configuration of AI player %q", moduleName)
	}
	return p, nil
}
