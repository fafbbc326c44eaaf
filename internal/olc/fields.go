package olc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"LumenForge/internal/game"
)

var errRequired = errors.New("a value is required")

// TextField edits a long text attribute through a nested text session.
func TextField(key, name, label string, get func(v any) string, set func(v any, text string)) Field {
	return Field{
		Key:   key,
		Name:  name,
		Label: label,
		Get:   get,
		Set: func(v any, line string) error {
			set(v, line)
			return nil
		},
		Nested: func(c *Conn, s *Session) error {
			return pushText(c, s, name, get(s.Value), func(parent *Session, text string) {
				set(parent.Value, text)
			})
		},
	}
}

// pushText opens a text session below s seeded with initial. done runs
// with the edited text when the child is saved.
func pushText(c *Conn, s *Session, name, initial string, done func(parent *Session, text string)) error {
	child, err := c.router.kinds.NewSession(KindText, NewTextBuffer(initial), name)
	if err != nil {
		return err
	}
	s.Push(child, func(parent, child *Session) {
		done(parent, child.Value.(*TextBuffer).String())
	})
	return nil
}

// StringField edits a single-line attribute. A limit of zero disables the
// length check; required rejects blank input.
func StringField(key, name, label string, limit int, required bool, get func(v any) string, set func(v any, text string)) Field {
	return Field{
		Key:    key,
		Name:   name,
		Label:  label,
		Prompt: fmt.Sprintf("Enter %s: ", strings.ToLower(label)),
		Get:    get,
		Set: func(v any, line string) error {
			cleaned, err := cleanLine(line, limit)
			if err != nil {
				return err
			}
			if required && cleaned == "" {
				return fmt.Errorf("%s: %w", label, errRequired)
			}
			set(v, cleaned)
			return nil
		},
	}
}

// IntField edits a bounded integer attribute.
func IntField(key, name, label string, min, max int, get func(v any) int, set func(v any, n int)) Field {
	return Field{
		Key:    key,
		Name:   name,
		Label:  label,
		Prompt: fmt.Sprintf("Enter %s (%d-%d): ", strings.ToLower(label), min, max),
		Get:    func(v any) string { return strconv.Itoa(get(v)) },
		Set: func(v any, line string) error {
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil || n < min || n > max {
				return fmt.Errorf("%s must be a number from %d to %d", label, min, max)
			}
			set(v, n)
			return nil
		},
	}
}

// ToggleField flips a boolean attribute when selected.
func ToggleField(key, name, label string, get func(v any) bool, set func(v any, on bool)) Field {
	return Field{
		Key:    key,
		Name:   name,
		Label:  label,
		Get:    func(v any) string { return yesNo(get(v)) },
		Toggle: func(v any) { set(v, !get(v)) },
		Set: func(v any, line string) error {
			on, ok := parseBool(line)
			if !ok {
				return fmt.Errorf("%s must be yes or no", label)
			}
			set(v, on)
			return nil
		},
	}
}

// RefField edits an attribute naming another stored entity. "none" or a
// blank line clears it.
func RefField(key, name, label string, store Store, kind Kind, get func(v any) string, set func(v any, ref string)) Field {
	return Field{
		Key:    key,
		Name:   name,
		Label:  label,
		Prompt: fmt.Sprintf("Enter %s key (or 'none'): ", kind),
		Get:    get,
		Set: func(v any, line string) error {
			ref := strings.TrimSpace(line)
			if ref == "" || strings.EqualFold(ref, "none") {
				set(v, "")
				return nil
			}
			if _, ok := store.Get(kind, ref); !ok {
				return fmt.Errorf("no %s named %q", kind, ref)
			}
			set(v, ref)
			return nil
		},
	}
}

// ReloadField replaces the whole working value with a copy of another
// stored entity of the same kind, or with a template instance. The value
// keeps its own key. A blank line cancels.
func ReloadField(key string, kinds *Registry, store Store, kind Kind) Field {
	return Field{
		Key:    key,
		Label:  "Reload",
		Prompt: fmt.Sprintf("Copy from which %s (or template <script>, blank to cancel): ", kind),
		Replace: func(v any, line string) (any, error) {
			line = strings.TrimSpace(line)
			if line == "" {
				return nil, nil
			}
			info, err := kinds.Lookup(kind)
			if err != nil {
				return nil, err
			}
			self := info.Identity(v)
			if name, ok := strings.CutPrefix(line, "template "); ok {
				name = strings.TrimSpace(name)
				source, ok := scriptSource(store, name)
				if !ok {
					return nil, fmt.Errorf("no script named %q", name)
				}
				return Instantiate(kinds, kind, self, source)
			}
			proto, ok := cloneStored(store, kind, line, info.Ops.Clone)
			if !ok {
				return nil, fmt.Errorf("no %s named %q", kind, line)
			}
			defer info.Ops.Destroy(proto)
			return CloneFrom(kinds, kind, proto, self)
		},
	}
}

// Cloner copies a stored entity while commits are held off.
type Cloner interface {
	CloneOf(kind Kind, key string, clone func(any) any) (any, bool)
}

func cloneStored(store Store, kind Kind, key string, clone func(any) any) (any, bool) {
	if cl, ok := store.(Cloner); ok {
		return cl.CloneOf(kind, key, clone)
	}
	v, ok := store.Get(kind, key)
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func scriptSource(store Store, name string) (string, bool) {
	v, ok := cloneStored(store, game.KindScript, name, func(v any) any { return v.(*game.Script).Source })
	if !ok {
		return "", false
	}
	return v.(string), true
}

func cleanLine(line string, limit int) (string, error) {
	cleaned := strings.TrimSpace(line)
	if strings.ContainsAny(cleaned, "\r\n") {
		return "", fmt.Errorf("enter a single line")
	}
	if limit > 0 && len([]rune(cleaned)) > limit {
		return "", fmt.Errorf("input is too long (max %d characters)", limit)
	}
	return cleaned, nil
}

func yesNo(on bool) string {
	if on {
		return "yes"
	}
	return "no"
}

func parseBool(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes", "on", "true", "1":
		return true, true
	case "n", "no", "off", "false", "0", "":
		return false, true
	}
	return false, false
}
