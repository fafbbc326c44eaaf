package olc

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"LumenForge/internal/game"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	mu      sync.Mutex
	out     strings.Builder
	handler game.InputHandler
}

func (f *fakeClient) Send(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out.WriteString(text)
}

func (f *fakeClient) SetInputHandler(h game.InputHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeClient) Handler() game.InputHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

// Take returns everything sent since the last call.
func (f *fakeClient) Take() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.out.String()
	f.out.Reset()
	return out
}

func newTestWorld() *game.World {
	return game.NewWorldWithRooms(map[game.RoomID]*game.Room{
		"start": {Title: "A Quiet Workshop", Description: "Sawdust drifts in the light."},
		"hall":  {Title: "Great Hall", Description: "Banners hang from the rafters."},
	})
}

func newTestSetup(t *testing.T, world *game.World, metrics *Metrics) *Setup {
	t.Helper()
	setup, err := NewSetup(world, nil, metrics)
	require.NoError(t, err)
	return setup
}

func newTestConn(setup *Setup) (*Conn, *fakeClient) {
	client := &fakeClient{}
	return NewConn(setup.Router, "Mason", client), client
}

func feed(c *Conn, lines ...string) {
	for _, line := range lines {
		c.HandleLine(line)
	}
}

// openStored opens a root session on a working copy of the stored entity,
// or on a fresh value when key is not stored yet.
func openStored(t *testing.T, setup *Setup, world *game.World, c *Conn, kind Kind, key string) *Session {
	t.Helper()
	info, err := setup.Kinds.Lookup(kind)
	require.NoError(t, err)
	var seed any
	if existing, ok := world.CloneOf(kind, key, info.Ops.Clone); ok {
		seed = existing
	} else {
		seed = info.New(key)
	}
	s, err := c.Open(kind, seed, key)
	require.NoError(t, err)
	return s
}
