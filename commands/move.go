package commands

import (
	"strings"

	"LumenForge/internal/game"
)

var Move = Define(Definition{
	Name:        "go",
	Aliases:     []string{"n", "s", "e", "w", "u", "d", "ne", "nw", "se", "sw", "north", "south", "east", "west", "up", "down"},
	Shortcut:    "g",
	Usage:       "go <direction>",
	Description: "move (n/s/e/w/u/d and more)",
}, func(ctx *Context) bool {
	dir := ""
	switch input := strings.ToLower(ctx.Input); input {
	case "go", "g":
		dir = strings.ToLower(strings.TrimSpace(ctx.Arg))
	default:
		dir = input
	}
	if dir == "" {
		ctx.Player.Output <- game.Ansi(game.Style("\r\nUsage: go <direction>", game.AnsiYellow))
		return false
	}
	if full, ok := game.NormalizeDirection(dir); ok {
		dir = full
	}
	return move(ctx.World, ctx.Player, dir)
})
