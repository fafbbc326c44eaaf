package commands

import "LumenForge/internal/game"

var BuildHelp = Define(Definition{
	Name:        "buildhelp",
	Usage:       "buildhelp",
	Description: "list building commands",
	Group:       GroupBuilder,
}, func(ctx *Context) bool {
	if !ctx.Player.CanBuild() {
		ctx.Player.Output <- game.Ansi(game.Style("\r\nOnly builders or admins may view building commands.", game.AnsiYellow))
		return false
	}
	message := helpMessage("Building Commands:", commandsForGroup(GroupBuilder))
	message += "\r\nInside an editor, pick a menu option by its key. 'Q' quits and asks whether to save."
	ctx.Player.Output <- game.Ansi(message)
	return false
})
