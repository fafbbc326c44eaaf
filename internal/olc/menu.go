package olc

import (
	"fmt"
	"strconv"
	"strings"

	"LumenForge/internal/game"
)

// Field is one entry of a menu editor. Exactly one of Toggle, Nested or
// List decides what selecting it does; otherwise the field prompts for a
// line and hands it to Replace or Set. Set is also used when instantiating
// values from generation scripts, so fields with a Name should always have
// it. Replace returns a whole new working value, or nil to leave it alone.
type Field struct {
	Key     string
	Name    string
	Label   string
	Prompt  string
	Get     func(v any) string
	Set     func(v any, line string) error
	Replace func(v any, line string) (any, error)
	Toggle  func(v any)
	Nested  func(c *Conn, s *Session) error
	List    *List
}

// List is an indexed sub-collection edited through child sessions.
type List struct {
	Noun   string
	Items  func(v any) []string
	Open   func(c *Conn, s *Session, index int) error
	Delete func(v any, index int)
}

// Menu is the Editor shared by every entity kind: a numbered field menu,
// extension options, and a Confirm-Save step on quit.
type Menu struct {
	Kind     Kind
	Title    func(v any) string
	Fields   []Field
	Extender *Extender
	// Check, when set, reports an incomplete value. Its message is shown
	// as a warning on the way to Confirm-Save; the answer is never refused.
	Check func(v any) error
}

func (m *Menu) field(key string) (*Field, bool) {
	for i := range m.Fields {
		if strings.EqualFold(m.Fields[i].Key, key) {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// Keys lists the selections the menu answers itself, quit included.
func (m *Menu) Keys() []string {
	keys := make([]string, 0, len(m.Fields)+1)
	for _, f := range m.Fields {
		keys = append(keys, f.Key)
	}
	return append(keys, "q")
}

func (m *Menu) fieldByName(name string) (*Field, bool) {
	for i := range m.Fields {
		if m.Fields[i].Name != "" && strings.EqualFold(m.Fields[i].Name, name) {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

func (m *Menu) Render(c *Conn, s *Session) {
	switch s.State {
	case StateMain:
		c.SendText(m.renderMain(c, s.Value))
		if m.Extender != nil {
			m.Extender.RenderAll(c, s.Value)
		}
		c.SendText(fmt.Sprintf("\r\n  %s) Quit\r\n%s", game.MenuKey("Q"), game.Style("Enter choice: ", game.AnsiBold)))
	case StateConfirmSave:
		c.SendText(game.Style("\r\nSave changes? (y/n): ", game.AnsiBold))
	case StateNested, StateExtension:
	default:
		if key, ok := s.State.FieldKey(); ok {
			if f, ok := m.field(key); ok {
				c.SendText("\r\n" + f.Prompt)
			}
			return
		}
		if key, ok := s.State.ListKey(); ok {
			if f, ok := m.field(key); ok && f.List != nil {
				c.SendText(renderList(f.List, s.Value))
			}
		}
	}
}

func (m *Menu) renderMain(c *Conn, v any) string {
	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(game.Style(m.Title(v), game.AnsiBold, game.AnsiUnderline))
	b.WriteString("\r\n")
	width := 80
	if c.Player != nil {
		width, _ = c.Player.WindowSize()
	}
	for _, f := range m.Fields {
		value := ""
		switch {
		case f.List != nil:
			value = fmt.Sprintf("%d %s(s)", len(f.List.Items(v)), f.List.Noun)
		case f.Get != nil:
			value = f.Get(v)
		}
		if f.Nested != nil && strings.Contains(value, "\n") {
			value = "\r\n" + game.IndentBlock(value, width, "      ")
		} else {
			value = game.Preview(value, width-24)
		}
		b.WriteString(fmt.Sprintf("  %s) %-12s: %s\r\n", game.MenuKey(f.Key), f.Label, game.Style(value, game.AnsiCyan)))
	}
	return b.String()
}

func renderList(l *List, v any) string {
	var b strings.Builder
	items := l.Items(v)
	b.WriteString("\r\n")
	if len(items) == 0 {
		b.WriteString(fmt.Sprintf("  No %ss yet.\r\n", l.Noun))
	}
	for i, item := range items {
		b.WriteString(fmt.Sprintf("  %s) %s\r\n", game.MenuKey(strconv.Itoa(i+1)), item))
	}
	b.WriteString(game.Style(fmt.Sprintf("Number to edit, N for a new %s, D <number> to delete, blank to return: ", l.Noun), game.AnsiBold))
	return b.String()
}

func (m *Menu) Handle(c *Conn, s *Session, line string) error {
	line = strings.TrimSpace(line)
	switch s.State {
	case StateMain:
		return m.handleMain(c, s, line)
	case StateConfirmSave:
		switch strings.ToLower(line) {
		case "y", "yes":
			s.Finish(true)
		case "n", "no":
			s.Finish(false)
		default:
			c.SendText(game.Style("\r\nPlease answer y or n.", game.AnsiYellow))
		}
		return nil
	case StateNested:
		if !s.AdoptChild() {
			return fmt.Errorf("%s parked without a finished child: %w", s.Kind, ErrUnknownState)
		}
		return nil
	case StateExtension:
		choice := s.choice
		s.choice = Choice{}
		if m.Extender == nil || !m.Extender.Parse(c, s.Value, choice, line) {
			c.SendText(game.Style("\r\nInvalid input.", game.AnsiYellow))
		}
		if s.State == StateExtension {
			s.State = StateMain
		}
		return nil
	}
	if key, ok := s.State.FieldKey(); ok {
		f, ok := m.field(key)
		if ok && f.Replace != nil {
			value, err := f.Replace(s.Value, line)
			if err != nil {
				c.SendText(game.Style("\r\n"+err.Error(), game.AnsiYellow))
				return nil
			}
			if value != nil {
				s.ReplaceValue(value)
				c.SendText(fmt.Sprintf("\r\n%s reloaded.", capitalize(string(s.Kind))))
			}
			s.State = StateMain
			return nil
		}
		if !ok || f.Set == nil {
			return fmt.Errorf("%s field %q: %w", s.Kind, key, ErrUnknownState)
		}
		if err := f.Set(s.Value, line); err != nil {
			c.SendText(game.Style("\r\n"+err.Error(), game.AnsiYellow))
			return nil
		}
		s.State = StateMain
		return nil
	}
	if key, ok := s.State.ListKey(); ok {
		f, ok := m.field(key)
		if !ok || f.List == nil {
			return fmt.Errorf("%s list %q: %w", s.Kind, key, ErrUnknownState)
		}
		return m.handleList(c, s, f.List, line)
	}
	return fmt.Errorf("%s state %q: %w", s.Kind, s.State, ErrUnknownState)
}

func (m *Menu) handleMain(c *Conn, s *Session, line string) error {
	if line == "" {
		return nil
	}
	if strings.EqualFold(line, "q") {
		if m.Check != nil {
			if err := m.Check(s.Value); err != nil {
				c.SendText(game.Style("\r\nWarning: "+err.Error()+".", game.AnsiYellow))
			}
		}
		s.State = StateConfirmSave
		return nil
	}
	if f, ok := m.field(line); ok {
		switch {
		case f.Toggle != nil:
			f.Toggle(s.Value)
		case f.Nested != nil:
			return f.Nested(c, s)
		case f.List != nil:
			s.State = ListState(f.Key)
		case f.Set != nil, f.Replace != nil:
			s.State = FieldState(f.Key)
		}
		return nil
	}
	word := strings.Fields(line)[0]
	if m.Extender == nil {
		c.SendText(game.Style("\r\nInvalid choice.", game.AnsiYellow))
		return nil
	}
	result, choice := m.Extender.Choose(c, s.Value, word)
	switch result {
	case ChooseInvalid:
		c.SendText(game.Style("\r\nInvalid choice.", game.AnsiYellow))
	case ChooseOK:
		s.choice = choice
		s.State = StateExtension
	}
	return nil
}

func (m *Menu) handleList(c *Conn, s *Session, l *List, line string) error {
	items := l.Items(s.Value)
	lower := strings.ToLower(line)
	switch {
	case line == "":
		s.State = StateMain
		return nil
	case lower == "n" || lower == "new":
		return l.Open(c, s, -1)
	case strings.HasPrefix(lower, "d "):
		idx, ok := parseIndex(strings.TrimSpace(line[2:]), len(items))
		if !ok || l.Delete == nil {
			c.SendText(game.Style(fmt.Sprintf("\r\nNo such %s.", l.Noun), game.AnsiYellow))
			return nil
		}
		l.Delete(s.Value, idx)
		c.SendText(fmt.Sprintf("\r\n%s %d removed.", capitalize(l.Noun), idx+1))
		return nil
	}
	if _, err := strconv.Atoi(line); err != nil {
		c.SendText(game.Style("\r\nEnter a number, N, D <number>, or a blank line.", game.AnsiYellow))
		return nil
	}
	idx, ok := parseIndex(line, len(items))
	if !ok {
		c.SendText(game.Style(fmt.Sprintf("\r\nNo such %s.", l.Noun), game.AnsiYellow))
		return nil
	}
	return l.Open(c, s, idx)
}

// parseIndex converts a 1-based list selection into an index.
func parseIndex(text string, n int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v - 1, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExportFields writes a generation-script line for every named field.
func (m *Menu) ExportFields(value any) string {
	var b strings.Builder
	for _, f := range m.Fields {
		if f.Name == "" || f.Get == nil || f.List != nil {
			continue
		}
		b.WriteString(ExportLine(f.Name, f.Get(value)))
	}
	return b.String()
}

// ApplyField sets the named field from generation-script text.
func (m *Menu) ApplyField(value any, name, text string) error {
	f, ok := m.fieldByName(name)
	if !ok || f.Set == nil {
		return fmt.Errorf("%s has no field %q", m.Kind, name)
	}
	return f.Set(value, text)
}
