package olc

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"LumenForge/internal/game"
)

const (
	nameLimit  = 60
	shortLimit = 80
	titleLimit = 80
)

// RegisterWorldKinds registers editors for every kind the world stores,
// plus the nested-only kinds they push. store is used to validate
// references to other entities.
func RegisterWorldKinds(kinds *Registry, store Store) error {
	for _, info := range []KindInfo{
		textKind(),
		exitKind(store),
		topicKind(),
		roomKind(store),
		mobileKind(store),
		objectKind(store),
		zoneKind(),
		dialogKind(),
		scriptKind(),
	} {
		if menu, ok := info.Editor.(*Menu); ok {
			if info.Identity != nil {
				menu.Fields = append(menu.Fields, ReloadField("R", kinds, store, info.Kind))
			}
			menu.Extender.Reserve(menu.Keys()...)
		}
		if err := kinds.Register(info); err != nil {
			return err
		}
	}
	return nil
}

// menuKind wires a Menu and its Extender into a KindInfo.
func menuKind(info KindInfo, menu *Menu) KindInfo {
	ext := NewExtender()
	menu.Kind = info.Kind
	menu.Extender = ext
	info.Editor = menu
	info.Extender = ext
	return info
}

func textKind() KindInfo {
	return KindInfo{
		Kind:   KindText,
		Ops:    Typed[TextBuffer]{CloneFunc: (*TextBuffer).Clone},
		Editor: TextEditor{},
	}
}

func roomOf(v any) *game.Room         { return v.(*game.Room) }
func exitOf(v any) *game.Exit         { return v.(*game.Exit) }
func mobileOf(v any) *game.Mobile     { return v.(*game.Mobile) }
func objectOf(v any) *game.Object     { return v.(*game.Object) }
func zoneOf(v any) *game.Zone         { return v.(*game.Zone) }
func dialogOf(v any) *game.Dialog     { return v.(*game.Dialog) }
func topicOf(v any) *game.DialogTopic { return v.(*game.DialogTopic) }
func scriptOf(v any) *game.Script     { return v.(*game.Script) }

// listArgument encodes a list position as a child session argument.
func listArgument(index int) string {
	if index < 0 {
		return NewItem
	}
	return strconv.Itoa(index)
}

// adoptIndex decodes a child argument against the current list length.
// It returns -1 for new items.
func adoptIndex(argument string, n int) (int, bool) {
	if argument == NewItem {
		return -1, true
	}
	idx, err := strconv.Atoi(argument)
	if err != nil || idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

func roomKind(store Store) KindInfo {
	exits := &List{
		Noun: "exit",
		Items: func(v any) []string {
			r := roomOf(v)
			out := make([]string, 0, len(r.Exits))
			for _, e := range r.Exits {
				line := fmt.Sprintf("%-10s -> %s", e.Direction, e.To)
				if e.Door {
					line += " (door)"
				}
				out = append(out, line)
			}
			return out
		},
		Open: func(c *Conn, s *Session, index int) error {
			r := roomOf(s.Value)
			exit := &game.Exit{}
			if index >= 0 {
				exit = r.Exits[index].Clone()
			}
			child, err := c.router.kinds.NewSession(game.KindExit, exit, listArgument(index))
			if err != nil {
				return err
			}
			s.Push(child, adoptExit)
			return nil
		},
		Delete: func(v any, index int) {
			r := roomOf(v)
			r.Exits = slices.Delete(r.Exits, index, index+1)
		},
	}
	return menuKind(KindInfo{
		Kind:     game.KindRoom,
		Ops:      Typed[game.Room]{CloneFunc: (*game.Room).Clone},
		Identity: func(v any) string { return string(roomOf(v).ID) },
		New: func(key string) any {
			return &game.Room{ID: game.RoomID(key), Title: "An unfinished room"}
		},
		Rekey: func(v any, key string) { roomOf(v).ID = game.RoomID(key) },
	}, &Menu{
		Title: func(v any) string { return "Room " + game.HighlightKey(string(roomOf(v).ID)) },
		Fields: []Field{
			StringField("1", "title", "Title", titleLimit, true,
				func(v any) string { return roomOf(v).Title },
				func(v any, text string) { roomOf(v).Title = text }),
			TextField("2", "description", "Description",
				func(v any) string { return roomOf(v).Description },
				func(v any, text string) { roomOf(v).Description = text }),
			RefField("3", "zone", "Zone", store, game.KindZone,
				func(v any) string { return roomOf(v).Zone },
				func(v any, ref string) { roomOf(v).Zone = ref }),
			RefField("4", "script", "Script", store, game.KindScript,
				func(v any) string { return roomOf(v).Script },
				func(v any, ref string) { roomOf(v).Script = ref }),
			{Key: "5", Label: "Exits", List: exits},
		},
	})
}

// adoptExit stores a finished exit in its room. An exit saved in a
// direction another exit already uses replaces that exit.
func adoptExit(parent, child *Session) {
	r := roomOf(parent.Value)
	exit := exitOf(child.Value).Clone()
	idx, ok := adoptIndex(child.Argument, len(r.Exits))
	if !ok {
		return
	}
	if idx < 0 {
		r.Exits = append(r.Exits, *exit)
		idx = len(r.Exits) - 1
	} else {
		r.Exits[idx] = *exit
	}
	for i := len(r.Exits) - 1; i >= 0; i-- {
		if i != idx && exit.Direction != "" && strings.EqualFold(r.Exits[i].Direction, exit.Direction) {
			r.Exits = slices.Delete(r.Exits, i, i+1)
		}
	}
}

func exitKind(store Store) KindInfo {
	return menuKind(KindInfo{
		Kind: game.KindExit,
		Ops:  Typed[game.Exit]{CloneFunc: (*game.Exit).Clone},
	}, &Menu{
		Title: func(v any) string {
			dir := exitOf(v).Direction
			if dir == "" {
				dir = "(unset)"
			}
			return "Exit " + game.HighlightKey(dir)
		},
		Check: func(v any) error {
			e := exitOf(v)
			switch {
			case e.Direction == "" && e.To == "":
				return errors.New("this exit has no direction or destination yet")
			case e.Direction == "":
				return errors.New("this exit has no direction yet")
			case e.To == "":
				return errors.New("this exit has no destination yet")
			}
			return nil
		},
		Fields: []Field{
			{
				Key:    "1",
				Name:   "direction",
				Label:  "Direction",
				Prompt: "Enter direction: ",
				Get:    func(v any) string { return exitOf(v).Direction },
				Set: func(v any, line string) error {
					dir, ok := game.NormalizeDirection(line)
					if !ok {
						return fmt.Errorf("%q is not a direction", strings.TrimSpace(line))
					}
					exitOf(v).Direction = dir
					return nil
				},
			},
			{
				Key:    "2",
				Name:   "to",
				Label:  "Destination",
				Prompt: "Enter destination room key: ",
				Get:    func(v any) string { return string(exitOf(v).To) },
				Set: func(v any, line string) error {
					to := strings.TrimSpace(line)
					if _, ok := store.Get(game.KindRoom, to); !ok {
						return fmt.Errorf("no room named %q", to)
					}
					exitOf(v).To = game.RoomID(to)
					return nil
				},
			},
			TextField("3", "description", "Description",
				func(v any) string { return exitOf(v).Description },
				func(v any, text string) { exitOf(v).Description = text }),
			StringField("4", "keywords", "Keywords", shortLimit, false,
				func(v any) string { return exitOf(v).Keywords },
				func(v any, text string) { exitOf(v).Keywords = text }),
			ToggleField("5", "door", "Door",
				func(v any) bool { return exitOf(v).Door },
				func(v any, on bool) {
					e := exitOf(v)
					e.Door = on
					if !on {
						e.Closed = false
					}
				}),
			ToggleField("6", "closed", "Closed",
				func(v any) bool { return exitOf(v).Closed },
				func(v any, on bool) {
					e := exitOf(v)
					e.Closed = on && e.Door
				}),
		},
	})
}

func mobileKind(store Store) KindInfo {
	return menuKind(KindInfo{
		Kind:     game.KindMobile,
		Ops:      Typed[game.Mobile]{CloneFunc: (*game.Mobile).Clone},
		Identity: func(v any) string { return mobileOf(v).Key },
		New: func(key string) any {
			return &game.Mobile{Key: key, Name: key, Level: 1}
		},
		Rekey: func(v any, key string) { mobileOf(v).Key = key },
	}, &Menu{
		Title: func(v any) string { return "Mobile " + game.HighlightKey(mobileOf(v).Key) },
		Fields: []Field{
			StringField("1", "name", "Name", nameLimit, true,
				func(v any) string { return mobileOf(v).Name },
				func(v any, text string) { mobileOf(v).Name = text }),
			StringField("2", "short", "Short desc", shortLimit, false,
				func(v any) string { return mobileOf(v).Short },
				func(v any, text string) { mobileOf(v).Short = text }),
			TextField("3", "long", "Long desc",
				func(v any) string { return mobileOf(v).Long },
				func(v any, text string) { mobileOf(v).Long = text }),
			IntField("4", "level", "Level", 1, 100,
				func(v any) int { return mobileOf(v).Level },
				func(v any, n int) { mobileOf(v).Level = n }),
			RefField("5", "dialog", "Dialog", store, game.KindDialog,
				func(v any) string { return mobileOf(v).Dialog },
				func(v any, ref string) { mobileOf(v).Dialog = ref }),
			RefField("6", "script", "Script", store, game.KindScript,
				func(v any) string { return mobileOf(v).Script },
				func(v any, ref string) { mobileOf(v).Script = ref }),
		},
	})
}

func objectKind(store Store) KindInfo {
	return menuKind(KindInfo{
		Kind:     game.KindObject,
		Ops:      Typed[game.Object]{CloneFunc: (*game.Object).Clone},
		Identity: func(v any) string { return objectOf(v).Key },
		New: func(key string) any {
			return &game.Object{Key: key, Name: key}
		},
		Rekey: func(v any, key string) { objectOf(v).Key = key },
	}, &Menu{
		Title: func(v any) string { return "Object " + game.HighlightKey(objectOf(v).Key) },
		Fields: []Field{
			StringField("1", "name", "Name", nameLimit, true,
				func(v any) string { return objectOf(v).Name },
				func(v any, text string) { objectOf(v).Name = text }),
			StringField("2", "keywords", "Keywords", shortLimit, false,
				func(v any) string { return objectOf(v).Keywords },
				func(v any, text string) { objectOf(v).Keywords = text }),
			TextField("3", "description", "Description",
				func(v any) string { return objectOf(v).Description },
				func(v any, text string) { objectOf(v).Description = text }),
			IntField("4", "weight", "Weight", 0, 10000,
				func(v any) int { return objectOf(v).Weight },
				func(v any, n int) { objectOf(v).Weight = n }),
			IntField("5", "value", "Value", 0, 1000000,
				func(v any) int { return objectOf(v).Value },
				func(v any, n int) { objectOf(v).Value = n }),
			RefField("6", "script", "Script", store, game.KindScript,
				func(v any) string { return objectOf(v).Script },
				func(v any, ref string) { objectOf(v).Script = ref }),
		},
	})
}

func zoneKind() KindInfo {
	return menuKind(KindInfo{
		Kind:     game.KindZone,
		Ops:      Typed[game.Zone]{CloneFunc: (*game.Zone).Clone},
		Identity: func(v any) string { return zoneOf(v).Key },
		New: func(key string) any {
			return &game.Zone{Key: key, Name: key, ResetMinutes: 15}
		},
		Rekey: func(v any, key string) { zoneOf(v).Key = key },
	}, &Menu{
		Title: func(v any) string { return "Zone " + game.HighlightKey(zoneOf(v).Key) },
		Fields: []Field{
			StringField("1", "name", "Name", nameLimit, true,
				func(v any) string { return zoneOf(v).Name },
				func(v any, text string) { zoneOf(v).Name = text }),
			TextField("2", "description", "Description",
				func(v any) string { return zoneOf(v).Description },
				func(v any, text string) { zoneOf(v).Description = text }),
			{
				Key:    "3",
				Name:   "builders",
				Label:  "Builders",
				Prompt: "Enter builder names separated by commas (blank for everyone): ",
				Get:    func(v any) string { return strings.Join(zoneOf(v).Builders, ", ") },
				Set: func(v any, line string) error {
					zoneOf(v).Builders = splitNames(line)
					return nil
				},
			},
			IntField("4", "reset_minutes", "Reset (min)", 0, 1440,
				func(v any) int { return zoneOf(v).ResetMinutes },
				func(v any, n int) { zoneOf(v).ResetMinutes = n }),
		},
	})
}

// splitNames parses a comma separated name list, dropping blanks and
// case-insensitive duplicates.
func splitNames(line string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(line, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}

func dialogKind() KindInfo {
	topics := &List{
		Noun: "topic",
		Items: func(v any) []string {
			d := dialogOf(v)
			out := make([]string, 0, len(d.Topics))
			for _, t := range d.Topics {
				out = append(out, fmt.Sprintf("%s: %s", t.Keywords, game.Preview(t.Response, 40)))
			}
			return out
		},
		Open: func(c *Conn, s *Session, index int) error {
			d := dialogOf(s.Value)
			topic := &game.DialogTopic{}
			if index >= 0 {
				topic = d.Topics[index].Clone()
			}
			child, err := c.router.kinds.NewSession(game.KindTopic, topic, listArgument(index))
			if err != nil {
				return err
			}
			s.Push(child, func(parent, child *Session) {
				d := dialogOf(parent.Value)
				idx, ok := adoptIndex(child.Argument, len(d.Topics))
				if !ok {
					return
				}
				t := topicOf(child.Value).Clone()
				if idx < 0 {
					d.Topics = append(d.Topics, *t)
					return
				}
				d.Topics[idx] = *t
			})
			return nil
		},
		Delete: func(v any, index int) {
			d := dialogOf(v)
			d.Topics = slices.Delete(d.Topics, index, index+1)
		},
	}
	return menuKind(KindInfo{
		Kind:     game.KindDialog,
		Ops:      Typed[game.Dialog]{CloneFunc: (*game.Dialog).Clone},
		Identity: func(v any) string { return dialogOf(v).Key },
		New:      func(key string) any { return &game.Dialog{Key: key} },
		Rekey:    func(v any, key string) { dialogOf(v).Key = key },
	}, &Menu{
		Title: func(v any) string { return "Dialog " + game.HighlightKey(dialogOf(v).Key) },
		Fields: []Field{
			TextField("1", "greeting", "Greeting",
				func(v any) string { return dialogOf(v).Greeting },
				func(v any, text string) { dialogOf(v).Greeting = text }),
			{Key: "2", Label: "Topics", List: topics},
		},
	})
}

func topicKind() KindInfo {
	return menuKind(KindInfo{
		Kind: game.KindTopic,
		Ops:  Typed[game.DialogTopic]{CloneFunc: (*game.DialogTopic).Clone},
	}, &Menu{
		Title: func(v any) string { return "Topic " + game.HighlightKey(topicOf(v).Keywords) },
		Check: func(v any) error {
			if strings.TrimSpace(topicOf(v).Keywords) == "" {
				return errors.New("this topic has no keywords yet")
			}
			return nil
		},
		Fields: []Field{
			StringField("1", "keywords", "Keywords", shortLimit, true,
				func(v any) string { return topicOf(v).Keywords },
				func(v any, text string) { topicOf(v).Keywords = strings.ToLower(text) }),
			TextField("2", "response", "Response",
				func(v any) string { return topicOf(v).Response },
				func(v any, text string) { topicOf(v).Response = text }),
		},
	})
}

func scriptKind() KindInfo {
	return menuKind(KindInfo{
		Kind:     game.KindScript,
		Ops:      Typed[game.Script]{CloneFunc: (*game.Script).Clone},
		Identity: func(v any) string { return scriptOf(v).Key },
		New: func(key string) any {
			return &game.Script{Key: key, Trigger: game.ScriptHooks[0]}
		},
		Rekey: func(v any, key string) { scriptOf(v).Key = key },
	}, &Menu{
		Title: func(v any) string { return "Script " + game.HighlightKey(scriptOf(v).Key) },
		Fields: []Field{
			{
				Key:    "1",
				Name:   "trigger",
				Label:  "Trigger",
				Prompt: fmt.Sprintf("Enter trigger (%s): ", strings.Join(game.ScriptHooks, ", ")),
				Get:    func(v any) string { return scriptOf(v).Trigger },
				Set: func(v any, line string) error {
					trigger := strings.TrimSpace(line)
					for _, hook := range game.ScriptHooks {
						if strings.EqualFold(hook, trigger) {
							scriptOf(v).Trigger = hook
							return nil
						}
					}
					return fmt.Errorf("unknown trigger %q", trigger)
				},
			},
			StringField("2", "description", "Description", shortLimit, false,
				func(v any) string { return scriptOf(v).Description },
				func(v any, text string) { scriptOf(v).Description = text }),
			{
				Key:   "3",
				Name:  "source",
				Label: "Source",
				Get:   func(v any) string { return scriptOf(v).Source },
				Set: func(v any, text string) error {
					scriptOf(v).Source = text
					return nil
				},
				Nested: func(c *Conn, s *Session) error {
					return pushText(c, s, "source", scriptOf(s.Value).Source, func(parent *Session, text string) {
						scriptOf(parent.Value).Source = text
						if strings.TrimSpace(text) == "" {
							return
						}
						if err := game.CompileScript(text); err != nil {
							c.SendText(game.Style("\r\nWarning: "+err.Error(), game.AnsiYellow))
							return
						}
						c.SendText(game.Style("\r\nScript compiled.", game.AnsiGreen))
					})
				},
			},
		},
	})
}
