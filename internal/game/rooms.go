package game

import (
	"fmt"
	"sort"
	"strings"
)

// EnterRoom places the player into their current room and sends the
// appropriate descriptions and arrival notifications.
func EnterRoom(world *World, p *Player, via string) {
	r, ok := world.RoomSnapshot(p.Room)
	if !ok {
		p.Send(Style("\r\nYou seem to be nowhere.", AnsiYellow))
		return
	}
	width, _ := p.WindowSize()
	if via != "" {
		world.BroadcastToRoom(p.Room, Ansi(fmt.Sprintf("\r\n%s arrives from %s.", HighlightName(p.Name), via)), p)
	}
	p.Send(DescribeRoom(r, width))
	others := world.ListPlayers(true, p.Room)
	if len(others) > 1 {
		seen := FilterOut(others, p.Name)
		p.Send(fmt.Sprintf("\r\nYou see: %s", strings.Join(HighlightNames(seen), ", ")))
	}
	world.callRoomHook("OnEnter", r, p, via)
	p.deliver(Prompt(p))
}

// DescribeRoom renders the title, description and exits of a room.
func DescribeRoom(r *Room, width int) string {
	title := Style(r.Title, AnsiBold, AnsiCyan)
	desc := Style(WrapText(r.Description, width), AnsiItalic, AnsiDim)
	exits := Style(ExitList(r), AnsiGreen)
	return fmt.Sprintf("\r\n\r\n%s\r\n%s\r\nExits: %s", title, desc, exits)
}

// ExitList renders the exits for a room in a deterministic order. Closed
// doors are shown in brackets.
func ExitList(r *Room) string {
	if len(r.Exits) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(r.Exits))
	for _, exit := range r.Exits {
		name := exit.Direction
		if exit.Closed {
			name = "[" + name + "]"
		}
		keys = append(keys, name)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.Trim(keys[i], "[]") < strings.Trim(keys[j], "[]")
	})
	return strings.Join(keys, " ")
}

// FilterOut returns a copy of list without the provided name.
func FilterOut(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}
