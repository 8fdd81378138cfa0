package players

import (
	"github.com/janpfeifer/rlTicTacToe/internal/rl"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
)

// AgentPlayer is a Player backed by anything that can pick a move: a trained rl.Agent or an rl.Opponent.
type AgentPlayer struct {
	rl.Opponent
	name string
}

// Assert AgentPlayer implements Player.
var _ Player = (*AgentPlayer)(nil)

// NewAgentPlayer creates a Player that delegates the moves to mover. The name is used in String().
func NewAgentPlayer(name string, mover rl.Opponent) *AgentPlayer {
	return &AgentPlayer{Opponent: mover, name: name}
}

// Play implements Player.
func (p *AgentPlayer) Play(board *Board) (Action, bool) {
	return p.MakeMove(board)
}

// Finalize implements Player. Agents don't learn during play, so it is a no-op.
func (p *AgentPlayer) Finalize() {}

// String returns the name of the player.
func (p *AgentPlayer) String() string {
	return p.name
}

// Agent returns the underlying rl.Agent, or nil if the player is not backed by one.
func (p *AgentPlayer) Agent() *rl.Agent {
	agent, _ := p.Opponent.(*rl.Agent)
	return agent
}
