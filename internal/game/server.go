package game

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Dispatcher executes a command for the connected player.
// Returning true indicates the connection should terminate.
type Dispatcher func(*World, *Player, string) bool

type serverOptions struct {
	logger *zap.Logger
	onJoin func(*Player)
}

// ServerOption customises the behaviour of ListenAndServe.
type ServerOption func(*serverOptions)

// WithLogger routes server logs to logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(opts *serverOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithJoinHook registers fn to run after a player has entered the world.
func WithJoinHook(fn func(*Player)) ServerOption {
	return func(opts *serverOptions) {
		opts.onJoin = fn
	}
}

var netListenFunc = net.Listen

const (
	postLoginAtmosphere = "Raw stone and unfinished halls wait for a builder's hand."
	postLoginPrompt     = "Type 'help' to learn the essentials or 'look' to absorb your surroundings."
	logoffAtmosphere    = "The scaffolding falls quiet behind you."
)

type server struct {
	world      *World
	accounts   *AccountManager
	dispatcher Dispatcher
	opts       serverOptions
}

func (s *server) handleConn(conn net.Conn) {
	logger := s.opts.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	session := NewTelnetSession(conn)
	defer session.Close()
	who, err := login(session, s.accounts)
	if err != nil {
		logger.Debug("login aborted", zap.Error(err))
		return
	}
	username := who.Name
	logger = logger.With(zap.String("player", username))

	for {
		if _, ok := s.world.ActivePlayer(username); !ok {
			break
		}

		notice := "\r\n" + Style("Another session for "+HighlightName(username)+" is already active.", AnsiYellow)
		_ = session.WriteString(Ansi(notice))
		_ = session.WriteString(Ansi("\r\nTake over the existing session? (yes/no): "))
		response, err := session.ReadLine()
		if err != nil {
			return
		}
		switch strings.ToLower(Trim(response)) {
		case "y", "yes":
			oldSession, oldOutput, handler, ok := s.world.PrepareTakeover(username)
			if !ok {
				continue
			}
			if handler != nil {
				handler.Close()
			}
			takeover := Ansi("\r\n" + Style("Your connection has been claimed from another location.", AnsiYellow) + "\r\n")
			if oldOutput != nil {
				select {
				case oldOutput <- takeover:
				default:
				}
				close(oldOutput)
			}
			if oldSession != nil {
				_ = oldSession.Close()
			}
			logger.Info("session taken over")
			_ = session.WriteString(Ansi("\r\n" + Style("Previous connection released.\r\n", AnsiGreen)))
		case "n", "no":
			_ = session.WriteString(Ansi("\r\n" + Style("Maintaining the existing session.\r\n", AnsiYellow)))
			return
		default:
			_ = session.WriteString(Ansi("\r\n" + Style("Please respond with 'yes' or 'no'.", AnsiYellow)))
		}
	}

	p, err := s.world.addPlayer(username, session, who.Admin, who.Builder)
	if err != nil {
		_ = session.WriteString(Ansi(Style("\r\n"+err.Error()+"\r\n", AnsiYellow)))
		return
	}
	if err := s.accounts.RecordLogin(username, time.Now().UTC()); err != nil {
		logger.Warn("record login failed", zap.Error(err))
	}
	logger.Info("player connected", zap.Bool("admin", p.IsAdmin), zap.Bool("builder", p.IsBuilder))

	output := p.Output
	go func() {
		for out := range output {
			_ = session.WriteString(out)
		}
	}()

	p.Send("\r\n" + Style(postLoginAtmosphere, AnsiMagenta, AnsiBold) + "\r\n")
	p.Send("Welcome, " + HighlightName(p.Name) + Style("!\r\n", AnsiMagenta))
	p.Send(Style(postLoginPrompt+"\r\n", AnsiGreen))
	EnterRoom(s.world, p, "")
	if s.opts.onJoin != nil {
		s.opts.onJoin(p)
	}

	for {
		line, err := session.ReadLine()
		if err != nil {
			break
		}
		line = Trim(line)
		if handler := p.InputHandler(); handler != nil {
			handler.HandleLine(line)
			continue
		}
		if line == "" {
			p.deliver(Prompt(p))
			continue
		}
		if !p.allowCommand(time.Now()) {
			p.Send(Style("\r\nYou are sending commands too quickly. Please wait.", AnsiYellow))
			p.deliver(Prompt(p))
			continue
		}
		if !p.Alive {
			break
		}
		if quit := s.dispatcher(s.world, p, line); quit {
			break
		}
		if p.InputHandler() == nil {
			p.deliver(Prompt(p))
		}
	}

	if p.Session != session {
		return
	}
	if handler := p.InputHandler(); handler != nil {
		p.SetInputHandler(nil)
		handler.Close()
	}

	p.Send("\r\n" + Style(logoffAtmosphere, AnsiMagenta, AnsiBold) + "\r\n")
	p.Send("Until next time, " + HighlightName(p.Name) + Style(".\r\n", AnsiMagenta))
	p.Alive = false
	s.world.BroadcastToRoom(p.Room, Ansi(fmt.Sprintf("\r\n%s leaves.", HighlightName(p.Name))), p)
	s.world.removePlayer(p.Name)
	logger.Info("player disconnected")
}

// ListenAndServe accepts telnet connections on addr for world, using
// accounts for logins and dispatcher for player commands. It returns when
// the listener encounters a fatal error.
func ListenAndServe(addr string, world *World, accounts *AccountManager, dispatcher Dispatcher, opts ...ServerOption) error {
	if dispatcher == nil {
		return fmt.Errorf("dispatcher must not be nil")
	}
	if world == nil || accounts == nil {
		return fmt.Errorf("world and accounts must not be nil")
	}
	options := serverOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	srv := &server{world: world, accounts: accounts, dispatcher: dispatcher, opts: options}

	ln, err := netListenFunc("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	options.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	return acceptConnections(ln, options.logger, func(conn net.Conn) {
		go srv.handleConn(conn)
	})
}

const (
	acceptBackoffStart = 50 * time.Millisecond
	acceptBackoffMax   = time.Second
)

var acceptSleep = time.Sleep

func acceptConnections(ln net.Listener, logger *zap.Logger, handle func(net.Conn)) error {
	backoff := acceptBackoffStart
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isTemporaryAcceptError(err) {
				logger.Warn("temporary accept error", zap.Error(err), zap.Duration("retry", backoff))
				acceptSleep(backoff)
				backoff *= 2
				if backoff > acceptBackoffMax {
					backoff = acceptBackoffMax
				}
				continue
			}
			return err
		}
		backoff = acceptBackoffStart
		handle(conn)
	}
}

func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() || ne.Temporary() {
			return true
		}
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
