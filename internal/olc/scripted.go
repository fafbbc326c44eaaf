package olc

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"LumenForge/internal/game"
)

// Extensible values carry the free-form fields extensions read and write.
type Extensible interface {
	Extras() game.Extras
	SetExtra(key, value string)
}

// ScriptRef names the script behind a scripted extension and the menu key
// it is registered under.
type ScriptRef struct {
	Script string
	Key    string
}

// ScriptBridge runs scripted extension handlers.
type ScriptBridge interface {
	Render(ref ScriptRef, c *Conn, value any) error
	Choose(ref ScriptRef, c *Conn, value any) (ChooseResult, string, error)
	Parse(ref ScriptRef, c *Conn, value any, choice, line string) (bool, error)
	Export(ref ScriptRef, value any) (string, error)
	Import(ref ScriptRef, value any) error
}

// Scripted is a Handler whose calls go through a ScriptBridge. Bridge
// failures are logged and treated as a declined action.
type Scripted struct {
	Bridge ScriptBridge
	Ref    ScriptRef
	Logger *zap.Logger
}

func (s *Scripted) log(op string, err error) {
	if s.Logger == nil || err == nil {
		return
	}
	s.Logger.Warn("scripted extension failed",
		zap.String("script", s.Ref.Script),
		zap.String("key", s.Ref.Key),
		zap.String("op", op),
		zap.Error(err))
}

func (s *Scripted) Render(c *Conn, value any) {
	s.log("render", s.Bridge.Render(s.Ref, c, value))
}

func (s *Scripted) Choose(c *Conn, value any) (ChooseResult, string) {
	result, id, err := s.Bridge.Choose(s.Ref, c, value)
	if err != nil {
		s.log("choose", err)
		return ChooseNone, ""
	}
	return result, id
}

func (s *Scripted) Parse(c *Conn, value any, choice, line string) bool {
	ok, err := s.Bridge.Parse(s.Ref, c, value, choice, line)
	s.log("parse", err)
	return err == nil && ok
}

func (s *Scripted) Export(value any) string {
	out, err := s.Bridge.Export(s.Ref, value)
	s.log("export", err)
	return out
}

func (s *Scripted) Import(value any) {
	s.log("import", s.Bridge.Import(s.Ref, value))
}

// Release drops the bridge's compiled copy of the script.
func (s *Scripted) Release() {
	if f, ok := s.Bridge.(interface{ Forget(script string) }); ok {
		f.Forget(s.Ref.Script)
	}
}

// SourceFunc resolves a script name to Go source.
type SourceFunc func(name string) (string, bool)

type scriptHandlers struct {
	hash   string
	render func(map[string]any)
	choose func(map[string]any) string
	parse  func(map[string]any) bool
	export func(map[string]any) string
	imprt  func(map[string]any)
}

// YaegiBridge evaluates extension scripts with yaegi. A script may define
// any of:
//
//	func Render(ctx map[string]any)
//	func Choose(ctx map[string]any) string
//	func Parse(ctx map[string]any) bool
//	func Export(ctx map[string]any) string
//	func Import(ctx map[string]any)
//
// Choose returns an empty string when it handled the selection itself.
type YaegiBridge struct {
	source SourceFunc
	mu     sync.Mutex
	cache  map[string]*scriptHandlers
}

func NewYaegiBridge(source SourceFunc) *YaegiBridge {
	return &YaegiBridge{source: source, cache: make(map[string]*scriptHandlers)}
}

// Forget drops the compiled handlers of script.
func (b *YaegiBridge) Forget(script string) {
	b.mu.Lock()
	delete(b.cache, script)
	b.mu.Unlock()
}

func (b *YaegiBridge) handlers(name string) (*scriptHandlers, error) {
	source, ok := b.source(name)
	if !ok {
		return nil, fmt.Errorf("script %q not found", name)
	}
	source = strings.TrimSpace(source)
	sum := sha1.Sum([]byte(source))
	hash := hex.EncodeToString(sum[:])

	b.mu.Lock()
	defer b.mu.Unlock()
	if cached, ok := b.cache[name]; ok && cached.hash == hash {
		return cached, nil
	}
	compiled, err := compileHandlers(source)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	compiled.hash = hash
	b.cache[name] = compiled
	return compiled, nil
}

func compileHandlers(source string) (*scriptHandlers, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	h := &scriptHandlers{}
	lookup := func(name string) (any, error) {
		v, err := i.Eval(name)
		if err != nil {
			if game.IsUndefinedSymbol(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return v.Interface(), nil
	}
	bind := func(name string, target any) error {
		fn, err := lookup(name)
		if err != nil || fn == nil {
			return err
		}
		ok := false
		switch t := target.(type) {
		case *func(map[string]any):
			*t, ok = fn.(func(map[string]any))
		case *func(map[string]any) string:
			*t, ok = fn.(func(map[string]any) string)
		case *func(map[string]any) bool:
			*t, ok = fn.(func(map[string]any) bool)
		}
		if !ok {
			return fmt.Errorf("%s has unexpected type %T", name, fn)
		}
		return nil
	}
	for name, target := range map[string]any{
		"Render": &h.render,
		"Choose": &h.choose,
		"Parse":  &h.parse,
		"Export": &h.export,
		"Import": &h.imprt,
	} {
		if err := bind(name, target); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func scriptContext(ref ScriptRef, c *Conn, value any) (map[string]any, error) {
	ext, ok := value.(Extensible)
	if !ok {
		return nil, fmt.Errorf("%T: %w", value, ErrWrongType)
	}
	return map[string]any{
		"key": ref.Key,
		"get": func(k string) string { return ext.Extras().Extra(k) },
		"set": func(k, v string) { ext.SetExtra(k, v) },
		"send": func(text string) {
			if c != nil {
				c.SendText(text)
			}
		},
		"emit": func(k, v string) string { return ExportLine("extra."+k, v) },
	}, nil
}

func (b *YaegiBridge) call(ref ScriptRef, c *Conn, value any, fn func(h *scriptHandlers, ctx map[string]any)) (err error) {
	h, err := b.handlers(ref.Script)
	if err != nil {
		return err
	}
	ctx, err := scriptContext(ref, c, value)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script %q panicked: %v", ref.Script, r)
		}
	}()
	fn(h, ctx)
	return nil
}

func (b *YaegiBridge) Render(ref ScriptRef, c *Conn, value any) error {
	return b.call(ref, c, value, func(h *scriptHandlers, ctx map[string]any) {
		if h.render != nil {
			h.render(ctx)
		}
	})
}

func (b *YaegiBridge) Choose(ref ScriptRef, c *Conn, value any) (ChooseResult, string, error) {
	result, id := ChooseNone, ""
	err := b.call(ref, c, value, func(h *scriptHandlers, ctx map[string]any) {
		if h.choose == nil {
			return
		}
		if id = h.choose(ctx); id != "" {
			result = ChooseOK
		}
	})
	return result, id, err
}

func (b *YaegiBridge) Parse(ref ScriptRef, c *Conn, value any, choice, line string) (bool, error) {
	accepted := false
	err := b.call(ref, c, value, func(h *scriptHandlers, ctx map[string]any) {
		if h.parse == nil {
			return
		}
		ctx["choice"] = choice
		ctx["input"] = line
		accepted = h.parse(ctx)
	})
	return accepted, err
}

func (b *YaegiBridge) Export(ref ScriptRef, value any) (string, error) {
	out := ""
	err := b.call(ref, nil, value, func(h *scriptHandlers, ctx map[string]any) {
		if h.export != nil {
			out = h.export(ctx)
		}
	})
	return out, err
}

func (b *YaegiBridge) Import(ref ScriptRef, value any) error {
	return b.call(ref, nil, value, func(h *scriptHandlers, ctx map[string]any) {
		if h.imprt != nil {
			h.imprt(ctx)
		}
	})
}
