package commands

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

func move(world *game.World, player *game.Player, dir string) bool {
	prev := player.Room
	name, err := world.Move(player, dir)
	if err != nil {
		warn(player, sentence(err.Error()))
		return false
	}
	world.BroadcastToRoom(prev, game.Ansi(fmt.Sprintf("\r\n%s leaves %s.", game.HighlightName(player.Name), name)), player)
	game.EnterRoom(world, player, name)
	return false
}

// sentence capitalises an error message for display.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func warn(player *game.Player, msg string) {
	player.Output <- game.Ansi(game.Style("\r\n"+msg, game.AnsiYellow))
}
