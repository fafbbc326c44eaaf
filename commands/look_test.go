package commands

import (
	"strings"
	"testing"
)

func TestLookShowsRoomAndBuilderTag(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Traveler", "second")
	builder := newTestPlayer("Mason", "second")
	builder.IsBuilder = true
	world.AddPlayerForTest(player)
	world.AddPlayerForTest(builder)

	Dispatch(world, player, "look")
	text := strings.Join(drainOutput(player.Output), "\n")
	if !strings.Contains(text, "Second Room") || !strings.Contains(text, "Exits: [north] west") {
		t.Fatalf("unexpected look output: %q", text)
	}
	if strings.Contains(text, "[room second") {
		t.Fatalf("player saw the builder tag: %q", text)
	}
	if !strings.Contains(text, "You see: Mason") {
		t.Fatalf("look did not list other players: %q", text)
	}

	Dispatch(world, builder, "look")
	if text := strings.Join(drainOutput(builder.Output), "\n"); !strings.Contains(text, "[room second, zone none]") {
		t.Fatalf("builder tag missing: %q", text)
	}
}

func TestLookThroughExit(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Traveler", "second")
	world.AddPlayerForTest(player)

	Dispatch(world, player, "look w")
	if msgs := drainOutput(player.Output); len(msgs) != 1 || !strings.Contains(msgs[0], "Beyond lies Starting Room.") {
		t.Fatalf("unexpected output: %v", msgs)
	}

	Dispatch(world, player, "look north")
	if msgs := drainOutput(player.Output); len(msgs) != 1 || msgs[0] != "The way north is closed." {
		t.Fatalf("unexpected output: %v", msgs)
	}
}
