package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"LumenForge/internal/game"
	"LumenForge/internal/olc"
)

// CommandGroup sorts commands into help pages.
type CommandGroup string

const (
	GroupGeneral CommandGroup = "general"
	GroupBuilder CommandGroup = "builder"
	GroupAdmin   CommandGroup = "admin"
)

// Definition describes a single command's metadata.
type Definition struct {
	Name        string
	Aliases     []string
	Shortcut    string
	Usage       string
	Description string
	Group       CommandGroup
}

// Handler executes a command.
// Returning true indicates the connection should terminate.
type Handler func(*Context) bool

// Command couples metadata with the executable handler.
type Command struct {
	Definition
	Handler Handler
}

// Env carries the services commands use beyond the world itself. Any of
// its fields may be nil; commands needing a missing service say so.
type Env struct {
	OLC      *olc.Router
	Accounts *game.AccountManager
	Logger   *zap.Logger
}

// Context provides the runtime data available to a command handler.
type Context struct {
	World   *game.World
	Player  *game.Player
	Raw     string
	Arg     string
	Input   string
	Command *Command
	Env     Env
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Command)
	ordered    []*Command
)

// Define registers a new command using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing command.
func Define(def Definition, handler Handler) *Command {
	if handler == nil {
		panic("commands: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("commands: command must have a name")
	}
	if def.Group == "" {
		def.Group = GroupGeneral
	}

	cmd := &Command{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	registerName := func(name string) {
		key := strings.ToLower(name)
		if _, exists := registry[key]; exists {
			panic(fmt.Sprintf("commands: duplicate registration for %q", name))
		}
		registry[key] = cmd
	}

	registerName(def.Name)
	for _, alias := range def.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		registerName(alias)
	}
	if strings.TrimSpace(def.Shortcut) != "" {
		registerName(def.Shortcut)
	}

	ordered = append(ordered, cmd)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return cmd
}

// All returns the registered commands sorted by primary name.
func All() []*Command {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Command, len(ordered))
	copy(out, ordered)
	return out
}

// Find resolves a command by name, alias or shortcut.
func Find(name string) (*Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

// NewDispatcher returns the dispatcher the server runs for players outside
// editing mode.
func NewDispatcher(env Env) game.Dispatcher {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	return func(world *game.World, player *game.Player, line string) bool {
		return dispatch(env, world, player, line)
	}
}

// Dispatch parses the input line, looks up the command, and executes it
// without any optional services.
func Dispatch(world *game.World, player *game.Player, line string) bool {
	return dispatch(Env{Logger: zap.NewNop()}, world, player, line)
}

func dispatch(env Env, world *game.World, player *game.Player, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd, ok := Find(parts[0])
	if !ok {
		player.Output <- game.Ansi("\r\nUnknown command. Type 'help'.")
		return false
	}

	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0]))
	ctx := &Context{
		World:   world,
		Player:  player,
		Raw:     line,
		Arg:     arg,
		Input:   parts[0],
		Command: cmd,
		Env:     env,
	}
	return cmd.Handler(ctx)
}
