package commands

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "help",
	Description: "show this message",
}, func(ctx *Context) bool {
	message := helpMessage("Commands:", commandsForGroup(GroupGeneral))
	if ctx.Player.CanBuild() {
		message += "\r\nType 'buildhelp' for building commands."
	}
	if ctx.Player.IsAdmin {
		message += "\r\nType 'wizhelp' for admin commands."
	}
	ctx.Player.Output <- game.Ansi(message)
	return false
})

var WizHelp = Define(Definition{
	Name:        "wizhelp",
	Usage:       "wizhelp",
	Description: "list admin commands",
	Group:       GroupAdmin,
}, func(ctx *Context) bool {
	if !ctx.Player.IsAdmin {
		ctx.Player.Output <- game.Ansi(game.Style("\r\nOnly admins may view admin commands.", game.AnsiYellow))
		return false
	}
	ctx.Player.Output <- game.Ansi(helpMessage("Admin Commands:", commandsForGroup(GroupAdmin)))
	return false
})

func helpMessage(title string, commands []*Command) string {
	var builder strings.Builder
	builder.WriteString(game.Style("\r\n"+title+"\r\n", game.AnsiBold, game.AnsiUnderline))
	for _, cmd := range commands {
		usage := cmd.Usage
		if strings.TrimSpace(usage) == "" {
			usage = cmd.Name
		}
		builder.WriteString(fmt.Sprintf("  %-34s - %s\r\n", usage, cmd.Description))
	}
	return builder.String()
}

func commandsForGroup(group CommandGroup) []*Command {
	all := All()
	filtered := make([]*Command, 0, len(all))
	for _, cmd := range all {
		if cmd.Group == group {
			filtered = append(filtered, cmd)
		}
	}
	return filtered
}
