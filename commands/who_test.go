package commands

import (
	"strings"
	"testing"
)

func TestWhoListsOtherPlayers(t *testing.T) {
	world := newTestWorld()
	first := newTestPlayer("First", "start")
	second := newTestPlayer("Second", "second")
	world.AddPlayerForTest(first)

	Dispatch(world, first, "who")
	if msgs := drainOutput(first.Output); len(msgs) != 1 || !strings.Contains(msgs[0], "only builder online") {
		t.Fatalf("unexpected solo output: %v", msgs)
	}

	world.AddPlayerForTest(second)
	Dispatch(world, first, "who")
	msgs := drainOutput(first.Output)
	if len(msgs) != 1 || msgs[0] != "Others online: Second" {
		t.Fatalf("unexpected who output: %v", msgs)
	}
}
