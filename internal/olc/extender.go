package olc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ChooseResult is the outcome of selecting an extension menu option.
type ChooseResult int

const (
	// ChooseInvalid means no extension is registered under the key.
	ChooseInvalid ChooseResult = iota
	// ChooseNone means the handler resolved the action itself.
	ChooseNone
	// ChooseOK means the next input line must go to Parse.
	ChooseOK
)

// Choice identifies a pending extension prompt.
type Choice struct {
	Key string
	ID  string
}

// Handler is one extension's handler set. Native and Scripted both
// implement it; the editors never care which one they hold.
type Handler interface {
	Render(c *Conn, value any)
	Choose(c *Conn, value any) (ChooseResult, string)
	Parse(c *Conn, value any, choice, line string) bool
	Export(value any) string
	Import(value any)
}

// Releaser is implemented by handlers holding resources that must be
// freed when they are replaced.
type Releaser interface {
	Release()
}

// Extender holds extra menu options attached to an editor.
type Extender struct {
	mu       sync.RWMutex
	entries  map[string]Handler
	reserved map[string]bool
}

func NewExtender() *Extender {
	return &Extender{entries: make(map[string]Handler), reserved: make(map[string]bool)}
}

// Reserve marks keys the owning menu answers itself. Register refuses them.
func (e *Extender) Reserve(keys ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, key := range keys {
		if key = normalizeKey(key); key != "" {
			e.reserved[key] = true
		}
	}
}

// CheckKey reports whether key may be registered.
func (e *Extender) CheckKey(key string) error {
	key = normalizeKey(key)
	if key == "" {
		return fmt.Errorf("empty extension key")
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.reserved[key] {
		return fmt.Errorf("extension %q: %w", key, ErrReservedKey)
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Register installs h under key, releasing and replacing any previous
// handler set for the key. Keys reserved by the menu are refused.
func (e *Extender) Register(key string, h Handler) error {
	if h == nil {
		return fmt.Errorf("extension %q has no handler", key)
	}
	if err := e.CheckKey(key); err != nil {
		return err
	}
	key = normalizeKey(key)
	e.mu.Lock()
	old := e.entries[key]
	e.entries[key] = h
	e.mu.Unlock()
	if rel, ok := old.(Releaser); ok {
		rel.Release()
	}
	return nil
}

// Has reports whether key is registered.
func (e *Extender) Has(key string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.entries[normalizeKey(key)]
	return ok
}

// Keys returns the registered keys in sorted order.
func (e *Extender) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.entries))
	for k := range e.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Extender) lookup(key string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.entries[key]
	return h, ok
}

func (e *Extender) each(fn func(key string, h Handler)) {
	for _, key := range e.Keys() {
		if h, ok := e.lookup(key); ok {
			fn(key, h)
		}
	}
}

// RenderAll lets every extension append its menu line, in key order.
func (e *Extender) RenderAll(c *Conn, value any) {
	e.each(func(_ string, h Handler) { h.Render(c, value) })
}

// Choose dispatches a menu selection to the extension registered at key.
func (e *Extender) Choose(c *Conn, value any, key string) (ChooseResult, Choice) {
	key = normalizeKey(key)
	h, ok := e.lookup(key)
	if !ok {
		return ChooseInvalid, Choice{}
	}
	result, id := h.Choose(c, value)
	if result != ChooseOK {
		return result, Choice{}
	}
	return ChooseOK, Choice{Key: key, ID: id}
}

// Parse hands the line that answers choice to its extension.
func (e *Extender) Parse(c *Conn, value any, choice Choice, line string) bool {
	h, ok := e.lookup(choice.Key)
	if !ok {
		return false
	}
	return h.Parse(c, value, choice.ID, line)
}

// ExportAll concatenates every extension's generation-script lines.
func (e *Extender) ExportAll(value any) string {
	var b strings.Builder
	e.each(func(_ string, h Handler) {
		out := h.Export(value)
		if out == "" {
			return
		}
		b.WriteString(out)
		if !strings.HasSuffix(out, "\n") {
			b.WriteByte('\n')
		}
	})
	return b.String()
}

// ImportAll runs every extension's import step once on a value freshly
// instantiated from a template.
func (e *Extender) ImportAll(value any) {
	e.each(func(_ string, h Handler) { h.Import(value) })
}

// Native is a Handler built from Go functions. Nil functions do nothing;
// a nil ChooseFunc resolves to ChooseNone.
type Native struct {
	RenderFunc func(c *Conn, value any)
	ChooseFunc func(c *Conn, value any) (ChooseResult, string)
	ParseFunc  func(c *Conn, value any, choice, line string) bool
	ExportFunc func(value any) string
	ImportFunc func(value any)
}

func (n *Native) Render(c *Conn, value any) {
	if n.RenderFunc != nil {
		n.RenderFunc(c, value)
	}
}

func (n *Native) Choose(c *Conn, value any) (ChooseResult, string) {
	if n.ChooseFunc == nil {
		return ChooseNone, ""
	}
	return n.ChooseFunc(c, value)
}

func (n *Native) Parse(c *Conn, value any, choice, line string) bool {
	if n.ParseFunc == nil {
		return false
	}
	return n.ParseFunc(c, value, choice, line)
}

func (n *Native) Export(value any) string {
	if n.ExportFunc == nil {
		return ""
	}
	return n.ExportFunc(value)
}

func (n *Native) Import(value any) {
	if n.ImportFunc != nil {
		n.ImportFunc(value)
	}
}
