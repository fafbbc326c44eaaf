package game

import (
	"sync"
	"time"
)

// InputHandler takes over a player's input lines, for example while the
// player is inside a builder menu. While a handler is installed the server
// routes every line to it instead of the command dispatcher.
type InputHandler interface {
	HandleLine(line string)
	// Close is called when the connection drops with the handler installed.
	Close()
}

// Player represents a connected adventurer in the world.
type Player struct {
	Name      string
	Session   *TelnetSession
	Room      RoomID
	Output    chan string
	Alive     bool
	IsAdmin   bool
	IsBuilder bool
	JoinedAt  time.Time
	history   []time.Time

	inputMu sync.Mutex
	input   InputHandler
}

const (
	commandLimit  = 5
	commandWindow = time.Second
)

func (p *Player) allowCommand(now time.Time) bool {
	cutoff := now.Add(-commandWindow)
	filtered := p.history[:0]
	for _, t := range p.history {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	p.history = filtered
	if len(p.history) >= commandLimit {
		return false
	}
	p.history = append(p.history, now)
	return true
}

// SetInputHandler installs h as the receiver of the player's input. Passing
// nil returns the player to normal command mode.
func (p *Player) SetInputHandler(h InputHandler) {
	p.inputMu.Lock()
	p.input = h
	p.inputMu.Unlock()
}

// InputHandler returns the installed input handler, if any.
func (p *Player) InputHandler() InputHandler {
	p.inputMu.Lock()
	defer p.inputMu.Unlock()
	return p.input
}

// CanBuild reports whether the player may use the online creation commands.
func (p *Player) CanBuild() bool {
	return p.IsAdmin || p.IsBuilder
}

// Send queues text for the player, dropping it if the output buffer is full.
func (p *Player) Send(text string) {
	p.deliver(Ansi(text))
}

func (p *Player) deliver(msg string) {
	if p == nil || p.Output == nil {
		return
	}
	select {
	case p.Output <- msg:
	default:
	}
}

// WindowSize reports the client's terminal dimensions.
func (p *Player) WindowSize() (int, int) {
	if p == nil || p.Session == nil {
		return 80, 24
	}
	return p.Session.Size()
}
