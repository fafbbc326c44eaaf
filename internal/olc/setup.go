package olc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"LumenForge/internal/game"
)

// ExtensionBinding attaches the scripted extension defined by Script to
// the menu of Kind under Key.
type ExtensionBinding struct {
	Kind   string
	Key    string
	Script string
}

// RegisterScriptedExtensions installs one Scripted handler per binding.
// Bindings are validated up front so a bad entry registers nothing.
func RegisterScriptedExtensions(kinds *Registry, bridge ScriptBridge, bindings []ExtensionBinding, logger *zap.Logger) error {
	type resolved struct {
		ext *Extender
		key string
		ref ScriptRef
	}
	var todo []resolved
	for _, b := range bindings {
		key := normalizeKey(b.Key)
		if key == "" || strings.TrimSpace(b.Script) == "" {
			return fmt.Errorf("extension for %s needs a key and a script", b.Kind)
		}
		ext, err := kinds.Extender(Kind(strings.ToLower(strings.TrimSpace(b.Kind))))
		if err != nil {
			return fmt.Errorf("extension %s: %w", key, err)
		}
		if err := ext.CheckKey(key); err != nil {
			return err
		}
		todo = append(todo, resolved{ext: ext, key: key, ref: ScriptRef{Script: b.Script, Key: key}})
	}
	for _, r := range todo {
		if err := r.ext.Register(r.key, &Scripted{Bridge: bridge, Ref: r.ref, Logger: logger}); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("scripted extension registered", zap.String("key", r.key), zap.String("script", r.ref.Script))
		}
	}
	return nil
}

// ConfigureAutosave enables durable saves for exactly the listed kinds.
func ConfigureAutosave(kinds *Registry, enabled []game.EntityKind) error {
	on := make(map[Kind]bool, len(enabled))
	for _, k := range enabled {
		on[k] = true
	}
	for _, k := range kinds.Kinds() {
		info, err := kinds.Lookup(k)
		if err != nil {
			return err
		}
		if !info.Stored() {
			continue
		}
		if err := kinds.SetAutosave(k, on[k]); err != nil {
			return err
		}
	}
	return nil
}

// Setup bundles the editor pieces a server needs.
type Setup struct {
	Kinds     *Registry
	Committer *Committer
	Router    *Router
}

// NewSetup registers the world kinds and builtin extensions and wires a
// router committing into world.
func NewSetup(world *game.World, logger *zap.Logger, metrics *Metrics) (*Setup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kinds := NewRegistry()
	if err := RegisterWorldKinds(kinds, world); err != nil {
		return nil, err
	}
	if err := RegisterBuiltinExtensions(kinds); err != nil {
		return nil, err
	}
	committer := NewCommitter(kinds, world, WithCommitLogger(logger), WithCommitMetrics(metrics))
	router := NewRouter(kinds, committer, WithLogger(logger), WithMetrics(metrics))
	return &Setup{Kinds: kinds, Committer: committer, Router: router}, nil
}
