package game

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// ScriptHooks lists the hook functions a script may define.
var ScriptHooks = []string{"OnEnter", "OnLook"}

type RoomScriptContext struct {
	world  *World
	room   *Room
	player *Player
	via    string
}

func (ctx *RoomScriptContext) Broadcast(text string) {
	if ctx == nil || ctx.world == nil || ctx.room == nil {
		return
	}
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return
	}
	ctx.world.BroadcastToRoom(ctx.room.ID, Ansi(fmt.Sprintf("\r\nThe atmosphere whispers: %s", cleaned)), nil)
}

func (ctx *RoomScriptContext) Narrate(text string) {
	if ctx == nil || ctx.player == nil {
		return
	}
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return
	}
	width, _ := ctx.player.WindowSize()
	ctx.player.deliver(Ansi(fmt.Sprintf("\r\n%s", Style(WrapText(cleaned, width), AnsiItalic, AnsiDim))))
}

type scriptEntry struct {
	script *compiledScript
	err    error
}

type compiledScript struct {
	hooks map[string]func(map[string]any)
}

type scriptEngine struct {
	mu      sync.RWMutex
	scripts map[string]*scriptEntry
}

func newScriptEngine() *scriptEngine {
	return &scriptEngine{scripts: make(map[string]*scriptEntry)}
}

// CompileScript checks that source evaluates and that every hook it defines
// has the expected signature.
func CompileScript(source string) error {
	_, err := compileScript(strings.TrimSpace(source))
	return err
}

func (w *World) callRoomHook(hook string, room *Room, player *Player, via string) {
	if room == nil || strings.TrimSpace(room.Script) == "" {
		return
	}
	source, ok := w.ScriptSource(room.Script)
	if !ok {
		w.logger.Warn("room script missing", zap.String("room", string(room.ID)), zap.String("script", room.Script))
		return
	}
	script, err := w.engine.scriptFor(source)
	if err != nil {
		w.logger.Warn("room script failed to load", zap.String("room", string(room.ID)), zap.Error(err))
		return
	}
	if script == nil {
		return
	}
	fn := script.hooks[hook]
	if fn == nil {
		return
	}
	ctx := &RoomScriptContext{world: w, room: room, player: player, via: via}
	payload := map[string]any{
		"narrate":   ctx.Narrate,
		"broadcast": ctx.Broadcast,
		"room":      string(room.ID),
		"hook":      hook,
	}
	if player != nil {
		payload["player"] = player.Name
		payload["via"] = via
	}
	w.invokeScript(fmt.Sprintf("room:%s", room.ID), hook, func() {
		fn(payload)
	})
}

func (w *World) invokeScript(name, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("script panic", zap.String("script", name), zap.String("hook", hook), zap.Any("panic", r))
		}
	}()
	fn()
}

func (e *scriptEngine) scriptFor(source string) (*compiledScript, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	key := hashScript(trimmed)
	e.mu.RLock()
	entry, ok := e.scripts[key]
	e.mu.RUnlock()
	if ok {
		return entry.script, entry.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.scripts[key]; ok {
		return entry.script, entry.err
	}
	script, err := compileScript(trimmed)
	e.scripts[key] = &scriptEntry{script: script, err: err}
	return script, err
}

func compileScript(source string) (*compiledScript, error) {
	if source == "" {
		return nil, fmt.Errorf("compile: empty script")
	}
	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := interpreter.Eval(source); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled := &compiledScript{hooks: make(map[string]func(map[string]any))}
	for _, hook := range ScriptHooks {
		value, err := interpreter.Eval(hook)
		if err != nil {
			if IsUndefinedSymbol(err) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", hook, err)
		}
		fn, ok := value.Interface().(func(map[string]any))
		if !ok {
			return nil, fmt.Errorf("%s has unexpected type %T", hook, value.Interface())
		}
		compiled.hooks[hook] = fn
	}
	return compiled, nil
}

func hashScript(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

// IsUndefinedSymbol reports whether a yaegi evaluation failed because the
// symbol is not defined by the script.
func IsUndefinedSymbol(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "undefined") || strings.Contains(msg, "not declared")
}
