package commands

import (
	"regexp"
	"strings"
	"testing"

	"LumenForge/internal/game"
)

func newTestWorld() *game.World {
	return game.NewWorldWithRooms(map[game.RoomID]*game.Room{
		"start": {
			ID:          "start",
			Title:       "Starting Room",
			Description: "A quiet foyer.",
			Exits:       []game.Exit{{Direction: "east", To: "second"}},
		},
		"second": {
			ID:          "second",
			Title:       "Second Room",
			Description: "A bustling plaza.",
			Exits: []game.Exit{
				{Direction: "west", To: "start"},
				{Direction: "north", To: "vault", Door: true, Closed: true},
			},
		},
		"vault": {
			ID:          "vault",
			Title:       "Vault",
			Description: "Dust and coin.",
		},
	})
}

func TestDispatchGoMovesPlayerAndNotifiesRooms(t *testing.T) {
	world := newTestWorld()
	hero := newTestPlayer("Hero", "start")
	watcher := newTestPlayer("Watcher", "start")
	greeter := newTestPlayer("Greeter", "second")
	world.AddPlayerForTest(hero)
	world.AddPlayerForTest(watcher)
	world.AddPlayerForTest(greeter)

	if done := Dispatch(world, hero, "go e"); done {
		t.Fatalf("dispatch returned true, want false")
	}
	if hero.Room != "second" {
		t.Fatalf("hero.Room = %q, want %q", hero.Room, "second")
	}

	watcherMsgs := drainOutput(watcher.Output)
	if len(watcherMsgs) == 0 || !strings.Contains(watcherMsgs[len(watcherMsgs)-1], "Hero leaves east.") {
		t.Fatalf("watcher did not receive leave message: %v", watcherMsgs)
	}

	greeterMsgs := drainOutput(greeter.Output)
	if len(greeterMsgs) == 0 || !strings.Contains(greeterMsgs[len(greeterMsgs)-1], "Hero arrives from east.") {
		t.Fatalf("greeter did not receive arrival message: %v", greeterMsgs)
	}

	heroMsgs := drainOutput(hero.Output)
	if len(heroMsgs) == 0 {
		t.Fatalf("hero received no output")
	}
	if !strings.Contains(heroMsgs[0], "Second Room") {
		t.Fatalf("unexpected room description output: %v", heroMsgs)
	}
	if heroMsgs[len(heroMsgs)-1] != ">" {
		t.Fatalf("last hero message = %q, want prompt", heroMsgs[len(heroMsgs)-1])
	}
}

func TestDispatchDirectionAliasAndClosedDoor(t *testing.T) {
	world := newTestWorld()
	hero := newTestPlayer("Hero", "second")
	world.AddPlayerForTest(hero)

	Dispatch(world, hero, "north")
	if hero.Room != "second" {
		t.Fatalf("hero walked through a closed door into %q", hero.Room)
	}
	msgs := drainOutput(hero.Output)
	if len(msgs) == 0 || !strings.Contains(msgs[0], "The way north is closed.") {
		t.Fatalf("expected closed door message, got %v", msgs)
	}

	Dispatch(world, hero, "w")
	if hero.Room != "start" {
		t.Fatalf("hero.Room = %q, want start", hero.Room)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Player", "start")
	world.AddPlayerForTest(player)

	if quit := Dispatch(world, player, "dance wildly"); quit {
		t.Fatalf("dispatch returned true, want false")
	}
	msgs := drainOutput(player.Output)
	if len(msgs) != 1 || msgs[0] != "Unknown command. Type 'help'." {
		t.Fatalf("unexpected output: %v", msgs)
	}
}

func TestDispatchQuitEndsSession(t *testing.T) {
	world := newTestWorld()
	player := newTestPlayer("Player", "start")
	world.AddPlayerForTest(player)

	if quit := Dispatch(world, player, "quit"); !quit {
		t.Fatalf("dispatch returned false, want true")
	}
}

func TestDispatchSayBroadcastsToRoom(t *testing.T) {
	world := newTestWorld()
	speaker := newTestPlayer("Speaker", "start")
	listener := newTestPlayer("Listener", "start")
	elsewhere := newTestPlayer("Elsewhere", "second")
	world.AddPlayerForTest(speaker)
	world.AddPlayerForTest(listener)
	world.AddPlayerForTest(elsewhere)

	Dispatch(world, speaker, "say hello there")

	if msgs := drainOutput(listener.Output); len(msgs) != 1 || msgs[0] != "Speaker says: hello there" {
		t.Fatalf("listener output = %v", msgs)
	}
	if msgs := drainOutput(elsewhere.Output); len(msgs) != 0 {
		t.Fatalf("player in another room heard: %v", msgs)
	}
	if msgs := drainOutput(speaker.Output); len(msgs) != 1 || msgs[0] != "You say: hello there" {
		t.Fatalf("speaker output = %v", msgs)
	}
}

func TestFindResolvesAliasesAndShortcuts(t *testing.T) {
	for _, name := range []string{"go", "G", "n", "sw", "l", "?"} {
		if _, ok := Find(name); !ok {
			t.Fatalf("Find(%q) failed", name)
		}
	}
	if _, ok := Find("nope"); ok {
		t.Fatalf("Find(nope) succeeded")
	}
}

func newTestPlayer(name string, room game.RoomID) *game.Player {
	return &game.Player{
		Name:   name,
		Room:   room,
		Output: make(chan string, 64),
		Alive:  true,
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func drainOutput(ch chan string) []string {
	t := make([]string, 0)
	for {
		select {
		case msg := <-ch:
			cleaned := game.Trim(ansiPattern.ReplaceAllString(msg, ""))
			if cleaned != "" {
				t = append(t, cleaned)
			}
		default:
			return t
		}
	}
}
