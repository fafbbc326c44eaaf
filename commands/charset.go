package commands

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

var Charset = Define(Definition{
	Name:        "charset",
	Usage:       "charset [name]",
	Description: "show or change your terminal's character set",
}, func(ctx *Context) bool {
	name := strings.TrimSpace(ctx.Arg)
	if name == "" {
		ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\nSupported character sets: %s", strings.Join(game.SupportedCharsets(), ", ")))
		return false
	}
	if ctx.Player.Session == nil {
		warn(ctx.Player, "Your connection has no terminal to configure.")
		return false
	}
	if err := ctx.Player.Session.SetCharset(name); err != nil {
		warn(ctx.Player, sentence(err.Error()))
		return false
	}
	ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\nCharacter set changed to %s.", strings.ToUpper(name)))
	return false
})
