package olc

import (
	"sync"

	"LumenForge/internal/game"
)

// Client is the player connection behind a Conn.
type Client interface {
	Send(text string)
	SetInputHandler(h game.InputHandler)
}

// Conn is the per-connection editing context. It owns the root session and
// switches the client in and out of editing mode.
type Conn struct {
	mu      sync.Mutex
	router  *Router
	name    string
	client  Client
	session *Session
	// Player is set when the connection belongs to a live player.
	Player *game.Player
}

// NewConn binds a connection named name to router.
func NewConn(router *Router, name string, client Client) *Conn {
	return &Conn{router: router, name: name, client: client}
}

// ForPlayer returns the editing context for a connected player.
func ForPlayer(router *Router, p *game.Player) *Conn {
	if existing, ok := p.InputHandler().(*Conn); ok {
		return existing
	}
	c := NewConn(router, p.Name, p)
	c.Player = p
	return c
}

// Name identifies the connection in logs.
func (c *Conn) Name() string { return c.name }

// SendText queues text for the client.
func (c *Conn) SendText(text string) {
	c.client.Send(text)
}

// Session returns the root session, or nil outside editing mode.
func (c *Conn) Session() *Session {
	return c.session
}

// Editing reports whether the connection is in editing mode.
func (c *Conn) Editing() bool {
	return c.session != nil
}

// Open begins a root session on the connection. See Router.Open.
func (c *Conn) Open(kind Kind, seed any, argument string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.router.Open(c, kind, seed, argument)
}

// Push opens a child session below the session currently receiving input.
// Extensions use it to start their own nested edits.
func (c *Conn) Push(kind Kind, value any, argument string, adopt AdoptFunc) (*Session, error) {
	active := DeepestActive(c.session)
	if active == nil {
		return nil, ErrUnknownState
	}
	child, err := c.router.kinds.NewSession(kind, value, argument)
	if err != nil {
		return nil, err
	}
	active.Push(child, adopt)
	return child, nil
}

// HandleLine feeds one input line to the router.
func (c *Conn) HandleLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router.PerLine(c, line)
}

// Close discards any open session without saving.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router.Abort(c, AbortDisconnect)
}

func (c *Conn) enter(s *Session) {
	c.session = s
	c.client.SetInputHandler(c)
}

func (c *Conn) leave() {
	c.session = nil
	c.client.SetInputHandler(nil)
}
