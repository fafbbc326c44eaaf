package commands

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

var Goto = Define(Definition{
	Name:        "goto",
	Usage:       "goto <room>",
	Description: "teleport to a room (builders/admins only)",
	Group:       GroupBuilder,
}, func(ctx *Context) bool {
	if !ctx.Player.CanBuild() {
		warn(ctx.Player, "Only builders or admins may use goto.")
		return false
	}
	target := strings.TrimSpace(ctx.Arg)
	if target == "" {
		warn(ctx.Player, "Usage: goto <room>")
		return false
	}
	roomID := game.RoomID(target)
	if _, ok := ctx.World.GetRoom(roomID); !ok {
		warn(ctx.Player, "No such room.")
		return false
	}
	prev := ctx.Player.Room
	if prev == roomID {
		game.EnterRoom(ctx.World, ctx.Player, "")
		return false
	}
	if err := ctx.World.MoveToRoom(ctx.Player, roomID); err != nil {
		warn(ctx.Player, err.Error())
		return false
	}
	ctx.World.BroadcastToRoom(prev, game.Ansi(fmt.Sprintf("\r\n%s vanishes in a shimmer of light.", game.HighlightName(ctx.Player.Name))), ctx.Player)
	ctx.World.BroadcastToRoom(roomID, game.Ansi(fmt.Sprintf("\r\n%s appears in a shimmer of light.", game.HighlightName(ctx.Player.Name))), ctx.Player)
	game.EnterRoom(ctx.World, ctx.Player, "")
	return false
})
