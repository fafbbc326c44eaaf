package commands

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

var Look = Define(Definition{
	Name:        "look",
	Aliases:     []string{"l"},
	Usage:       "look [direction]",
	Description: "describe your surroundings or peer through an exit",
}, func(ctx *Context) bool {
	room, ok := ctx.World.RoomSnapshot(ctx.Player.Room)
	if !ok {
		warn(ctx.Player, "You see only void.")
		return false
	}

	width, _ := ctx.Player.WindowSize()

	target := strings.TrimSpace(ctx.Arg)
	if target != "" {
		dir, dest, found := ctx.World.ResolveExit(ctx.Player.Room, target)
		if !found {
			if dir != "" {
				ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\nThe way %s is closed.", dir))
				return false
			}
			ctx.Player.Output <- game.Ansi("\r\nYou don't see that here.")
			return false
		}
		message := fmt.Sprintf("\r\nLooking %s you glimpse a passage.", dir)
		if idx := room.FindExit(dir); idx >= 0 {
			if desc := strings.TrimSpace(room.Exits[idx].Description); desc != "" {
				message = "\r\n" + game.WrapText(desc, width)
			}
		}
		if next, ok := ctx.World.RoomSnapshot(dest); ok {
			message += fmt.Sprintf("\r\nBeyond lies %s.", game.Style(next.Title, game.AnsiBold, game.AnsiCyan))
		}
		ctx.Player.Output <- game.Ansi(message)
		return false
	}

	ctx.Player.Output <- game.Ansi(game.DescribeRoom(room, width))
	if ctx.Player.CanBuild() {
		zone := room.Zone
		if zone == "" {
			zone = "none"
		}
		ctx.Player.Output <- game.Ansi(game.Style(fmt.Sprintf("\r\n[room %s, zone %s]", room.ID, zone), game.AnsiDim))
	}

	others := ctx.World.ListPlayers(true, ctx.Player.Room)
	if len(others) > 1 {
		seen := game.FilterOut(others, ctx.Player.Name)
		ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\nYou see: %s", strings.Join(game.HighlightNames(seen), ", ")))
	}
	return false
})
