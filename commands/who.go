package commands

import (
	"strings"

	"LumenForge/internal/game"
)

var Who = Define(Definition{
	Name:        "who",
	Usage:       "who",
	Description: "list connected players",
}, func(ctx *Context) bool {
	names := ctx.World.ListPlayers(false, "")
	others := game.FilterOut(names, ctx.Player.Name)
	if len(others) == 0 {
		ctx.Player.Output <- game.Ansi("\r\nYou are the only builder online.")
		return false
	}
	ctx.Player.Output <- game.Ansi("\r\nOthers online: " + strings.Join(game.HighlightNames(others), ", "))
	return false
})
