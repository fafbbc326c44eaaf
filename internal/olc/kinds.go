package olc

import (
	"fmt"
	"sort"
	"sync"

	"LumenForge/internal/game"
)

// Kind tags the entity type a session edits.
type Kind = game.EntityKind

// KindText is the nested-only kind used to edit multi-line text fields.
const KindText Kind = "text"

// EditableKind is the lifecycle every kind's working values share.
type EditableKind interface {
	Clone(value any) any
	// CopyInto overwrites dst with the contents of src without changing the
	// address of dst.
	CopyInto(dst, src any) error
	// Destroy releases a working value that will not be used again.
	Destroy(value any)
}

// Typed adapts a pointer type with a Clone method to EditableKind.
type Typed[T any] struct {
	CloneFunc func(*T) *T
	// OnDestroy is optional.
	OnDestroy func(*T)
}

func (t Typed[T]) Clone(value any) any {
	v, ok := value.(*T)
	if !ok || v == nil {
		return value
	}
	return t.CloneFunc(v)
}

func (t Typed[T]) CopyInto(dst, src any) error {
	d, ok := dst.(*T)
	if !ok || d == nil {
		return fmt.Errorf("copy into %T: %w", dst, ErrWrongType)
	}
	s, ok := src.(*T)
	if !ok || s == nil {
		return fmt.Errorf("copy from %T: %w", src, ErrWrongType)
	}
	*d = *t.CloneFunc(s)
	return nil
}

func (t Typed[T]) Destroy(value any) {
	if t.OnDestroy == nil {
		return
	}
	if v, ok := value.(*T); ok && v != nil {
		t.OnDestroy(v)
	}
}

// KindInfo describes one registered kind.
type KindInfo struct {
	Kind Kind
	Ops  EditableKind
	// Editor renders and drives the menu for sessions of this kind.
	Editor Editor
	// Identity resolves the store key of a value. Nil marks a nested-only
	// kind that is never committed on its own.
	Identity func(value any) string
	// New returns a fresh default value keyed by key.
	New func(key string) any
	// Rekey changes the identity of a value cloned from a prototype.
	Rekey func(value any, key string)
	// Autosave requests a durable save after every commit.
	Autosave bool
	// Extender holds menu extensions attached to this kind.
	Extender *Extender
}

// Stored reports whether values of the kind live in the world store.
func (k *KindInfo) Stored() bool {
	return k != nil && k.Identity != nil
}

// Registry maps kinds to their lifecycle and editor.
type Registry struct {
	mu    sync.RWMutex
	kinds map[Kind]*KindInfo
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]*KindInfo)}
}

// Register adds or replaces the entry for info.Kind.
func (r *Registry) Register(info KindInfo) error {
	if info.Kind == "" {
		return fmt.Errorf("register kind: empty kind")
	}
	if info.Ops == nil || info.Editor == nil {
		return fmt.Errorf("register %s: lifecycle and editor are required", info.Kind)
	}
	if info.Extender == nil {
		info.Extender = NewExtender()
	}
	r.mu.Lock()
	r.kinds[info.Kind] = &info
	r.mu.Unlock()
	return nil
}

// Lookup returns the registered entry for kind.
func (r *Registry) Lookup(kind Kind) (*KindInfo, error) {
	r.mu.RLock()
	info, ok := r.kinds[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	return info, nil
}

// Extender returns the extension registry attached to kind.
func (r *Registry) Extender(kind Kind) (*Extender, error) {
	info, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return info.Extender, nil
}

// SetAutosave toggles durable saves for kind.
func (r *Registry) SetAutosave(kind Kind, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.kinds[kind]
	if !ok {
		return fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	info.Autosave = enabled
	return nil
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewSession creates a session of kind in the Main state. The session takes
// ownership of value.
func (r *Registry) NewSession(kind Kind, value any, argument string) (*Session, error) {
	info, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return newSession(info, StateMain, value, argument), nil
}

// Autosave reports whether commits of kind trigger a durable save.
func (r *Registry) Autosave(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.kinds[kind]
	return ok && info.Autosave
}
