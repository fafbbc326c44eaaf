package game

import (
	"errors"
	"sort"
	"strings"
)

// EntityKind tags a collection of editable world entities.
type EntityKind string

const (
	KindRoom   EntityKind = "room"
	KindExit   EntityKind = "exit"
	KindMobile EntityKind = "mobile"
	KindObject EntityKind = "object"
	KindZone   EntityKind = "zone"
	KindDialog EntityKind = "dialog"
	KindTopic  EntityKind = "topic"
	KindScript EntityKind = "script"
)

// StoredKinds lists the kinds the world keeps collections for.
var StoredKinds = []EntityKind{KindRoom, KindMobile, KindObject, KindZone, KindDialog, KindScript}

var (
	// ErrUnknownKind indicates the world has no collection for a kind.
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrBadValue indicates a value of the wrong type was stored under a kind.
	ErrBadValue = errors.New("value does not match entity kind")
)

// ParseKind resolves a user supplied kind name.
func ParseKind(name string) (EntityKind, bool) {
	normalized := EntityKind(strings.ToLower(strings.TrimSpace(name)))
	for _, kind := range StoredKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Extras holds free-form fields contributed by editor extensions.
type Extras map[string]string

// Extra returns the extension field stored under key.
func (e Extras) Extra(key string) string {
	return e[key]
}

func (e Extras) clone() Extras {
	if len(e) == 0 {
		return nil
	}
	out := make(Extras, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func setExtra(target *Extras, key, value string) {
	if value == "" {
		delete(*target, key)
		if len(*target) == 0 {
			*target = nil
		}
		return
	}
	if *target == nil {
		*target = make(Extras)
	}
	(*target)[key] = value
}

// ExtraKeys returns the populated extension keys in sorted order.
func ExtraKeys(e Extras) []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type RoomID string

// StartRoom is the default entry point for new players.
const StartRoom RoomID = "start"

type Room struct {
	ID          RoomID `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Zone        string `json:"zone,omitempty" yaml:"zone,omitempty"`
	Script      string `json:"script,omitempty" yaml:"script,omitempty"`
	Exits       []Exit `json:"exits,omitempty" yaml:"exits,omitempty"`
	Extra       Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Exit links a room to another room in a direction.
type Exit struct {
	Direction   string `json:"direction" yaml:"direction"`
	To          RoomID `json:"to" yaml:"to"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Door        bool   `json:"door,omitempty" yaml:"door,omitempty"`
	Closed      bool   `json:"closed,omitempty" yaml:"closed,omitempty"`
	Extra       Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Mobile is the prototype of a non-player character.
type Mobile struct {
	Key    string `json:"key" yaml:"key"`
	Name   string `json:"name" yaml:"name"`
	Short  string `json:"short,omitempty" yaml:"short,omitempty"`
	Long   string `json:"long,omitempty" yaml:"long,omitempty"`
	Level  int    `json:"level,omitempty" yaml:"level,omitempty"`
	Dialog string `json:"dialog,omitempty" yaml:"dialog,omitempty"`
	Script string `json:"script,omitempty" yaml:"script,omitempty"`
	Extra  Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Object is the prototype of an item.
type Object struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Weight      int    `json:"weight,omitempty" yaml:"weight,omitempty"`
	Value       int    `json:"value,omitempty" yaml:"value,omitempty"`
	Script      string `json:"script,omitempty" yaml:"script,omitempty"`
	Extra       Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Zone groups rooms under a shared name and builder list.
type Zone struct {
	Key          string   `json:"key" yaml:"key"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Builders     []string `json:"builders,omitempty" yaml:"builders,omitempty"`
	ResetMinutes int      `json:"reset_minutes,omitempty" yaml:"reset_minutes,omitempty"`
	Extra        Extras   `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// AllowsBuilder reports whether name may edit rooms of the zone. A zone
// without a builder list is open to every builder.
func (z *Zone) AllowsBuilder(name string) bool {
	if z == nil || len(z.Builders) == 0 {
		return true
	}
	for _, b := range z.Builders {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// Dialog is a conversation tree attached to mobiles.
type Dialog struct {
	Key      string        `json:"key" yaml:"key"`
	Greeting string        `json:"greeting,omitempty" yaml:"greeting,omitempty"`
	Topics   []DialogTopic `json:"topics,omitempty" yaml:"topics,omitempty"`
	Extra    Extras        `json:"extra,omitempty" yaml:"extra,omitempty"`
}

type DialogTopic struct {
	Keywords string `json:"keywords" yaml:"keywords"`
	Response string `json:"response" yaml:"response"`
	Extra    Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Script is a named scripted behaviour evaluated with yaegi.
type Script struct {
	Key         string `json:"key" yaml:"key"`
	Trigger     string `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string `json:"source" yaml:"source"`
	Extra       Extras `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (r *Room) Extras() Extras               { return r.Extra }
func (r *Room) SetExtra(key, value string)   { setExtra(&r.Extra, key, value) }
func (e *Exit) Extras() Extras               { return e.Extra }
func (e *Exit) SetExtra(key, value string)   { setExtra(&e.Extra, key, value) }
func (m *Mobile) Extras() Extras             { return m.Extra }
func (m *Mobile) SetExtra(key, value string) { setExtra(&m.Extra, key, value) }
func (o *Object) Extras() Extras             { return o.Extra }
func (o *Object) SetExtra(key, value string) { setExtra(&o.Extra, key, value) }
func (z *Zone) Extras() Extras               { return z.Extra }
func (z *Zone) SetExtra(key, value string)   { setExtra(&z.Extra, key, value) }
func (d *Dialog) Extras() Extras             { return d.Extra }
func (d *Dialog) SetExtra(key, value string) { setExtra(&d.Extra, key, value) }
func (t *DialogTopic) Extras() Extras        { return t.Extra }
func (t *DialogTopic) SetExtra(key, value string) {
	setExtra(&t.Extra, key, value)
}
func (s *Script) Extras() Extras             { return s.Extra }
func (s *Script) SetExtra(key, value string) { setExtra(&s.Extra, key, value) }

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.Exits != nil {
		out.Exits = make([]Exit, len(r.Exits))
		for i := range r.Exits {
			out.Exits[i] = *r.Exits[i].Clone()
		}
	}
	out.Extra = r.Extra.clone()
	return &out
}

// FindExit returns the index of the exit leading in direction.
func (r *Room) FindExit(direction string) int {
	for i := range r.Exits {
		if strings.EqualFold(r.Exits[i].Direction, direction) {
			return i
		}
	}
	return -1
}

func (e *Exit) Clone() *Exit {
	if e == nil {
		return nil
	}
	out := *e
	out.Extra = e.Extra.clone()
	return &out
}

func (m *Mobile) Clone() *Mobile {
	if m == nil {
		return nil
	}
	out := *m
	out.Extra = m.Extra.clone()
	return &out
}

func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := *o
	out.Extra = o.Extra.clone()
	return &out
}

func (z *Zone) Clone() *Zone {
	if z == nil {
		return nil
	}
	out := *z
	if z.Builders != nil {
		out.Builders = append([]string(nil), z.Builders...)
	}
	out.Extra = z.Extra.clone()
	return &out
}

func (d *Dialog) Clone() *Dialog {
	if d == nil {
		return nil
	}
	out := *d
	if d.Topics != nil {
		out.Topics = make([]DialogTopic, len(d.Topics))
		for i := range d.Topics {
			out.Topics[i] = *d.Topics[i].Clone()
		}
	}
	out.Extra = d.Extra.clone()
	return &out
}

func (t *DialogTopic) Clone() *DialogTopic {
	if t == nil {
		return nil
	}
	out := *t
	out.Extra = t.Extra.clone()
	return &out
}

func (s *Script) Clone() *Script {
	if s == nil {
		return nil
	}
	out := *s
	out.Extra = s.Extra.clone()
	return &out
}
