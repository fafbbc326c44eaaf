package olc

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"LumenForge/internal/game"
)

// Editor drives the menu of one kind.
type Editor interface {
	// Render sends the menu or prompt for the session's current state.
	Render(c *Conn, s *Session)
	// Handle consumes one input line. Returning ErrUnknownState aborts the
	// whole chain.
	Handle(c *Conn, s *Session, line string) error
}

// Router feeds input lines to the deepest active session of a connection
// and hands finished root sessions to the Committer.
type Router struct {
	kinds     *Registry
	committer *Committer
	logger    *zap.Logger
	metrics   *Metrics
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithLogger routes editor logs to logger.
func WithLogger(logger *zap.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records session activity in m.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

func NewRouter(kinds *Registry, committer *Committer, opts ...RouterOption) *Router {
	r := &Router{kinds: kinds, committer: committer, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Kinds returns the registry the router dispatches through.
func (r *Router) Kinds() *Registry { return r.kinds }

// Open starts a root session of kind on c, taking ownership of seed, and
// switches the connection into editing mode.
func (r *Router) Open(c *Conn, kind Kind, seed any, argument string) (*Session, error) {
	if c.session != nil {
		return nil, ErrBusy
	}
	info, err := r.kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, fmt.Errorf("open %s: nil seed: %w", kind, ErrWrongType)
	}
	s := newSession(info, StateMain, seed, argument)
	c.enter(s)
	r.metrics.opened(kind)
	r.logger.Info("edit session opened",
		zap.String("player", c.Name()),
		zap.String("kind", string(kind)),
		zap.String("session", s.ID),
		zap.String("argument", argument))
	info.Editor.Render(c, s)
	return s, nil
}

// PerLine routes one input line for a connection in editing mode. Callers
// must serialise lines per connection; Conn.HandleLine does so.
func (r *Router) PerLine(c *Conn, line string) {
	root := c.session
	if root == nil {
		r.logger.Warn("input routed to connection outside editing mode", zap.String("player", c.Name()))
		r.metrics.abort(AbortLostSession)
		c.leave()
		return
	}
	active := DeepestActive(root)
	if active == nil {
		r.logger.Warn("edit chain already complete", zap.String("player", c.Name()), zap.String("session", root.ID))
		r.abort(c, AbortCompleteChain, false)
		return
	}
	if err := r.handle(c, active, line); err != nil {
		r.fail(c, active, err)
		return
	}

	for active.Complete {
		if active == root {
			r.finishRoot(c, root)
			return
		}
		parent := parentOf(root, active)
		if parent == nil {
			r.fail(c, active, fmt.Errorf("orphaned %s session: %w", active.Kind, ErrUnknownState))
			return
		}
		if err := r.handle(c, parent, ""); err != nil {
			r.fail(c, parent, err)
			return
		}
		if parent.child == active {
			r.fail(c, parent, fmt.Errorf("%s did not release finished %s child: %w", parent.Kind, active.Kind, ErrUnknownState))
			return
		}
		active = parent
	}

	next := DeepestActive(root)
	if next != active {
		r.logger.Debug("child session opened",
			zap.String("player", c.Name()),
			zap.String("kind", string(next.Kind)),
			zap.String("session", next.ID),
			zap.String("argument", next.Argument))
	}
	r.render(c, next)
}

// Abort discards the connection's whole chain without saving and returns
// it to normal mode.
func (r *Router) Abort(c *Conn, reason string) {
	r.abort(c, reason, reason != AbortDisconnect)
}

func (r *Router) abort(c *Conn, reason string, notify bool) {
	root := c.session
	if root == nil {
		return
	}
	r.metrics.abort(reason)
	r.logger.Warn("edit chain discarded without saving",
		zap.String("player", c.Name()),
		zap.String("kind", string(root.Kind)),
		zap.String("session", root.ID),
		zap.String("reason", reason),
		zap.Int("sessions", depth(root)))
	root.Destroy()
	c.leave()
	if notify {
		c.SendText(game.Style("\r\nThe editor closed unexpectedly. Your changes were discarded.", game.AnsiYellow))
		c.SendText(game.Prompt(nil))
	}
}

func (r *Router) handle(c *Conn, s *Session, line string) error {
	info, err := r.kinds.Lookup(s.Kind)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownState, err)
	}
	return info.Editor.Handle(c, s, line)
}

func (r *Router) render(c *Conn, s *Session) {
	if s == nil {
		return
	}
	info, err := r.kinds.Lookup(s.Kind)
	if err != nil {
		r.fail(c, s, err)
		return
	}
	info.Editor.Render(c, s)
}

func (r *Router) fail(c *Conn, s *Session, err error) {
	fields := []zap.Field{
		zap.String("player", c.Name()),
		zap.String("kind", string(s.Kind)),
		zap.String("state", string(s.State)),
		zap.String("session", s.ID),
		zap.Error(err),
	}
	if errors.Is(err, ErrUnknownState) {
		r.logger.Error("editor protocol error", fields...)
	} else {
		r.logger.Error("editor failed", fields...)
	}
	r.abort(c, AbortProtocol, true)
}

func (r *Router) finishRoot(c *Conn, root *Session) {
	if root.Save {
		result, err := r.committer.Commit(root.Kind, root.Value)
		switch {
		case err != nil:
			c.SendText(game.Style("\r\nThe changes could not be saved.", game.AnsiYellow))
		case result.SaveErr != nil:
			c.SendText(fmt.Sprintf("\r\nSaved %s %s, but writing it to disk failed.", root.Kind, game.HighlightKey(result.Key)))
		default:
			c.SendText(fmt.Sprintf("\r\nSaved %s %s.", root.Kind, game.HighlightKey(result.Key)))
		}
	} else {
		c.SendText("\r\nChanges discarded.")
	}
	r.logger.Info("edit session closed",
		zap.String("player", c.Name()),
		zap.String("kind", string(root.Kind)),
		zap.String("session", root.ID),
		zap.Bool("saved", root.Save))
	root.Destroy()
	c.leave()
	c.SendText(game.Prompt(nil))
}
