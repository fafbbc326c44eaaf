package commands

import (
	"strings"
	"testing"
)

func TestHelpListsGeneralCommandsOnly(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Traveler", "start")
	world.AddPlayerForTest(player)

	Dispatch(world, player, "help")

	text := strings.Join(drainOutput(player.Output), "\n")
	if !strings.Contains(text, "who") || !strings.Contains(text, "look [direction]") {
		t.Fatalf("help missing general commands: %q", text)
	}
	if strings.Contains(text, "redit") || strings.Contains(text, "buildhelp") {
		t.Fatalf("help leaked building commands to a player: %q", text)
	}
}

func TestBuildHelpListsEditors(t *testing.T) {
	world := newTestWorld()
	builder := newTestPlayer("Mason", "start")
	builder.IsBuilder = true
	world.AddPlayerForTest(builder)

	Dispatch(world, builder, "help")
	if text := strings.Join(drainOutput(builder.Output), "\n"); !strings.Contains(text, "Type 'buildhelp'") {
		t.Fatalf("help did not point builders at buildhelp: %q", text)
	}

	Dispatch(world, builder, "buildhelp")
	text := strings.Join(drainOutput(builder.Output), "\n")
	for _, name := range []string{"redit", "medit", "oedit", "zedit", "dedit", "sedit", "olcexport", "goto"} {
		if !strings.Contains(text, name) {
			t.Fatalf("buildhelp missing %s: %q", name, text)
		}
	}
}

func TestBuildHelpRequiresBuilder(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Traveler", "start")
	world.AddPlayerForTest(player)

	Dispatch(world, player, "buildhelp")
	if text := strings.Join(drainOutput(player.Output), "\n"); !strings.Contains(text, "Only builders or admins") {
		t.Fatalf("expected refusal, got %q", text)
	}
}
