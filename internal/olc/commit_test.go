package olc

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenForge/internal/game"
)

func snapshotRooms(t *testing.T, world *game.World) map[string]game.Room {
	t.Helper()
	out := make(map[string]game.Room)
	for _, key := range world.Keys(game.KindRoom) {
		v, ok := world.Get(game.KindRoom, key)
		require.True(t, ok)
		out[key] = *v.(*game.Room).Clone()
	}
	return out
}

func TestConfirmSaveNoLeavesStoreUntouched(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	c, client := newTestConn(setup)
	before := snapshotRooms(t, world)

	openStored(t, setup, world, c, game.KindRoom, "start")
	feed(c, "1", "Ruined Workshop", "q", "n")

	assert.False(t, c.Editing())
	assert.Contains(t, client.Take(), "Changes discarded.")
	if diff := cmp.Diff(before, snapshotRooms(t, world)); diff != "" {
		t.Fatalf("store changed after discarding (-before +after):\n%s", diff)
	}
}

func TestConfirmSaveYesUpdatesExistingInPlace(t *testing.T) {
	world := newTestWorld()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	setup := newTestSetup(t, world, metrics)
	c, client := newTestConn(setup)

	original, ok := world.GetRoom("start")
	require.True(t, ok)
	count := len(world.Keys(game.KindRoom))

	openStored(t, setup, world, c, game.KindRoom, "start")
	feed(c, "1", "X", "q", "y")

	require.False(t, c.Editing())
	assert.Contains(t, client.Take(), "Saved room")
	current, ok := world.GetRoom("start")
	require.True(t, ok)
	assert.Same(t, original, current)
	assert.Equal(t, "X", current.Title)
	assert.Equal(t, "Sawdust drifts in the light.", current.Description)
	assert.Len(t, world.Keys(game.KindRoom), count)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsOpened.WithLabelValues("room")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Commits.WithLabelValues("room", string(CommitUpdated))))
}

func TestConfirmSaveYesInsertsNewKey(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	c, _ := newTestConn(setup)

	_, ok := world.Get(game.KindRoom, "K2")
	require.False(t, ok)

	openStored(t, setup, world, c, game.KindRoom, "K2")
	feed(c, "q", "y")

	v, ok := world.Get(game.KindRoom, "K2")
	require.True(t, ok)
	room := v.(*game.Room)
	assert.Equal(t, game.RoomID("K2"), room.ID)
	assert.Equal(t, "An unfinished room", room.Title)
}

func TestCommittedValueIsNotSharedWithSession(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)

	info, err := setup.Kinds.Lookup(game.KindMobile)
	require.NoError(t, err)
	working := info.New("guard").(*game.Mobile)
	working.Name = "a gate guard"

	result, err := setup.Committer.Commit(game.KindMobile, working)
	require.NoError(t, err)
	assert.Equal(t, CommitInserted, result.Mode)

	working.Name = "changed afterwards"
	stored, ok := world.Get(game.KindMobile, "guard")
	require.True(t, ok)
	assert.Equal(t, "a gate guard", stored.(*game.Mobile).Name)
}

func TestCommitRejectsEmptyIdentity(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	_, err := setup.Committer.Commit(game.KindObject, &game.Object{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

type failingPersister struct {
	*game.World
}

func (failingPersister) SaveKind(game.EntityKind) error {
	return errors.New("disk full")
}

func TestAutosaveFailureKeepsCommit(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	require.NoError(t, setup.Kinds.SetAutosave(game.KindZone, true))
	committer := NewCommitter(setup.Kinds, failingPersister{world})

	result, err := committer.Commit(game.KindZone, &game.Zone{Key: "keep", Name: "The Keep"})
	require.NoError(t, err)
	require.Error(t, result.SaveErr)
	_, ok := world.Get(game.KindZone, "keep")
	assert.True(t, ok)
}

func TestConfigureAutosave(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	require.NoError(t, ConfigureAutosave(setup.Kinds, []game.EntityKind{game.KindRoom}))

	assert.True(t, setup.Kinds.Autosave(game.KindRoom))
	assert.False(t, setup.Kinds.Autosave(game.KindMobile))
	assert.False(t, setup.Kinds.Autosave(KindText))
}

func TestDisconnectDiscardsChainAndCountsAbort(t *testing.T) {
	world := newTestWorld()
	metrics := NewMetrics(nil)
	setup := newTestSetup(t, world, metrics)
	c, client := newTestConn(setup)
	before := snapshotRooms(t, world)

	openStored(t, setup, world, c, game.KindRoom, "start")
	feed(c, "2", "A line that never lands.")
	client.Take()
	c.Close()

	assert.False(t, c.Editing())
	assert.Empty(t, client.Take())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Aborts.WithLabelValues(AbortDisconnect)))
	assert.Empty(t, cmp.Diff(before, snapshotRooms(t, world)))
}

func TestCloneOfNeverSeesHalfCommittedRoom(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	info, err := setup.Kinds.Lookup(game.KindRoom)
	require.NoError(t, err)

	versions := []game.Room{
		{ID: "start", Title: "Dawn", Description: "Light pours through the shutters."},
		{ID: "start", Title: "Dusk", Description: "Shadows pool under the benches."},
	}
	want := map[string]string{
		"A Quiet Workshop": "Sawdust drifts in the light.",
		"Dawn":             versions[0].Description,
		"Dusk":             versions[1].Description,
	}
	const rounds = 200

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			working := versions[i%2].Clone()
			working.Exits = []game.Exit{{Direction: "north", To: "hall"}}
			_, err := setup.Committer.Commit(game.KindRoom, working)
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < rounds; i++ {
		v, ok := world.CloneOf(game.KindRoom, "start", info.Ops.Clone)
		require.True(t, ok)
		room := v.(*game.Room)
		assert.Equal(t, want[room.Title], room.Description)
	}
	wg.Wait()
}
