package commands

import "LumenForge/internal/game"

var Quit = Define(Definition{
	Name:        "quit",
	Usage:       "quit",
	Description: "disconnect",
}, func(ctx *Context) bool {
	ctx.Player.Output <- game.Ansi("\r\nGoodbye.\r\n")
	return true
})
