package olc

import (
	"strings"

	"github.com/google/uuid"
)

// State is a position within a kind's menu state machine.
type State string

const (
	StateMain        State = "main"
	StateConfirmSave State = "confirm"
	StateNested      State = "nested"
	StateExtension   State = "extension"
)

// FieldState is the state that waits for a new value of field key.
func FieldState(key string) State { return State("field:" + key) }

// ListState is the state that waits for a selection from list key.
func ListState(key string) State { return State("list:" + key) }

// FieldKey returns the field key encoded in a field or list state.
func (s State) FieldKey() (string, bool) {
	if key, ok := strings.CutPrefix(string(s), "field:"); ok {
		return key, true
	}
	return "", false
}

// ListKey returns the list key encoded in a list state.
func (s State) ListKey() (string, bool) {
	if key, ok := strings.CutPrefix(string(s), "list:"); ok {
		return key, true
	}
	return "", false
}

// NewItem is the argument of a child session editing an item that is not
// yet part of its parent's list.
const NewItem = "new"

// AdoptFunc folds a finished child's working value into its parent.
type AdoptFunc func(parent, child *Session)

// Session is one in-progress edit. It exclusively owns its working value
// and its child session.
type Session struct {
	ID       string
	Kind     Kind
	State    State
	Value    any
	Argument string
	Save     bool
	Complete bool

	ops       EditableKind
	child     *Session
	adopt     AdoptFunc
	choice    Choice
	destroyed bool
}

func newSession(info *KindInfo, state State, value any, argument string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Kind:     info.Kind,
		State:    state,
		Value:    value,
		Argument: argument,
		ops:      info.Ops,
	}
}

// Child returns the nested session, if one is open.
func (s *Session) Child() *Session {
	return s.child
}

// Finish records the Confirm-Save answer.
func (s *Session) Finish(save bool) {
	s.Save = save
	s.Complete = true
}

// Push attaches child and parks s until the child completes. adopt runs
// when the child finishes with save set.
func (s *Session) Push(child *Session, adopt AdoptFunc) {
	if s.child != nil {
		s.child.Destroy()
	}
	s.child = child
	s.adopt = adopt
	s.State = StateNested
}

// AdoptChild folds a completed child into s, destroys it and returns s to
// Main. It reports false when no completed child is waiting.
func (s *Session) AdoptChild() bool {
	child := s.child
	if child == nil || !child.Complete {
		return false
	}
	if child.Save && s.adopt != nil {
		s.adopt(s, child)
	}
	s.child = nil
	s.adopt = nil
	child.Destroy()
	s.State = StateMain
	return true
}

// ReplaceValue destroys the current working value and installs value.
func (s *Session) ReplaceValue(value any) {
	if s.Value != nil && s.ops != nil {
		s.ops.Destroy(s.Value)
	}
	s.Value = value
}

// Destroy tears down the child chain first, then releases the working
// value. Calling Destroy again is a no-op.
func (s *Session) Destroy() {
	if s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	if s.child != nil {
		s.child.Destroy()
		s.child = nil
	}
	s.adopt = nil
	if s.Value != nil && s.ops != nil {
		s.ops.Destroy(s.Value)
	}
	s.Value = nil
}

// DeepestActive returns the incomplete session input should go to, or nil
// when the whole chain is complete.
func DeepestActive(s *Session) *Session {
	if s == nil || s.Complete {
		return nil
	}
	if s.child != nil && !s.child.Complete {
		if deeper := DeepestActive(s.child); deeper != nil {
			return deeper
		}
	}
	return s
}

// parentOf returns the session whose child is target, walking down from
// root.
func parentOf(root, target *Session) *Session {
	for cur := root; cur != nil; cur = cur.child {
		if cur.child == target {
			return cur
		}
	}
	return nil
}

// depth counts the sessions in the chain starting at s.
func depth(s *Session) int {
	n := 0
	for cur := s; cur != nil; cur = cur.child {
		n++
	}
	return n
}
