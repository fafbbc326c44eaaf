package commands

import (
	"errors"
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

var Builder = Define(Definition{
	Name:        "builder",
	Usage:       "builder <player> <on|off>",
	Description: "grant or revoke builder rights",
	Group:       GroupAdmin,
}, func(ctx *Context) bool {
	if !ctx.Player.IsAdmin {
		warn(ctx.Player, "Only admins may manage builders.")
		return false
	}
	parts := strings.Fields(ctx.Arg)
	if len(parts) != 2 {
		warn(ctx.Player, "Usage: builder <player> <on|off>")
		return false
	}
	targetName := parts[0]
	var enable bool
	switch strings.ToLower(parts[1]) {
	case "on", "enable", "enabled", "true", "grant":
		enable = true
	case "off", "disable", "disabled", "false", "revoke":
		enable = false
	default:
		warn(ctx.Player, "Usage: builder <player> <on|off>")
		return false
	}

	target, online := ctx.World.FindPlayer(targetName)
	if online {
		targetName = target.Name
	}
	if ctx.Env.Accounts != nil {
		if err := ctx.Env.Accounts.SetBuilder(targetName, enable); err != nil {
			if errors.Is(err, game.ErrAccountNotFound) {
				warn(ctx.Player, fmt.Sprintf("No account named %s.", targetName))
			} else {
				warn(ctx.Player, "Could not save builder rights: "+err.Error())
			}
			return false
		}
	} else if !online {
		warn(ctx.Player, fmt.Sprintf("No player named %s.", targetName))
		return false
	}

	state := "no longer"
	if enable {
		state = "now"
	}
	ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\n%s is %s a builder.", game.HighlightName(targetName), state))
	if !online {
		return false
	}
	if _, err := ctx.World.SetBuilder(targetName, enable); err != nil {
		warn(ctx.Player, err.Error())
		return false
	}
	notice := "\r\nYou are now a builder."
	if !enable {
		notice = "\r\nYou are no longer a builder."
	}
	target.Send(notice)
	return false
})
