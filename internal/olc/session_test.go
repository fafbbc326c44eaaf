package olc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	id int
}

// widgetLab registers a nested-only kind whose values count their
// destructions.
type widgetLab struct {
	next      int
	destroyed map[int]int
}

func newWidgetLab() *widgetLab {
	return &widgetLab{destroyed: make(map[int]int)}
}

func (l *widgetLab) make() *widget {
	l.next++
	return &widget{id: l.next}
}

func (l *widgetLab) register(t *testing.T, kinds *Registry) {
	t.Helper()
	require.NoError(t, kinds.Register(KindInfo{
		Kind: "widget",
		Ops: Typed[widget]{
			CloneFunc: func(w *widget) *widget { out := *w; return &out },
			OnDestroy: func(w *widget) { l.destroyed[w.id]++ },
		},
		Editor: &widgetEditor{lab: l},
	}))
}

type widgetEditor struct {
	lab *widgetLab
}

func (e *widgetEditor) Render(c *Conn, s *Session) {
	c.SendText(fmt.Sprintf("[widget %d]", s.Value.(*widget).id))
}

func (e *widgetEditor) Handle(c *Conn, s *Session, line string) error {
	if s.State == StateNested {
		if !s.AdoptChild() {
			return ErrUnknownState
		}
		return nil
	}
	switch line {
	case "push":
		child, err := c.router.kinds.NewSession("widget", e.lab.make(), "")
		if err != nil {
			return err
		}
		s.Push(child, nil)
	case "swap":
		s.ReplaceValue(e.lab.make())
	case "done":
		s.Finish(true)
	case "quit":
		s.Finish(false)
	case "bogus":
		return fmt.Errorf("bogus input: %w", ErrUnknownState)
	}
	return nil
}

func newWidgetConn(t *testing.T, metrics *Metrics) (*Conn, *fakeClient, *widgetLab, *Setup) {
	t.Helper()
	setup := newTestSetup(t, newTestWorld(), metrics)
	lab := newWidgetLab()
	lab.register(t, setup.Kinds)
	c, client := newTestConn(setup)
	_, err := c.Open("widget", lab.make(), "")
	require.NoError(t, err)
	return c, client, lab, setup
}

func TestDestroyReleasesEveryDescendantOnce(t *testing.T) {
	c, client, lab, _ := newWidgetConn(t, nil)

	feed(c, "push", "push", "done", "push", "push", "quit")
	require.True(t, c.Editing())
	require.Equal(t, 3, depth(c.Session()))

	c.Close()

	assert.False(t, c.Editing())
	assert.Nil(t, client.Handler())
	require.Len(t, lab.destroyed, lab.next)
	for id, n := range lab.destroyed {
		assert.Equalf(t, 1, n, "widget %d destroyed %d times", id, n)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	lab := newWidgetLab()
	kinds := NewRegistry()
	lab.register(t, kinds)

	root, err := kinds.NewSession("widget", lab.make(), "")
	require.NoError(t, err)
	child, err := kinds.NewSession("widget", lab.make(), "")
	require.NoError(t, err)
	root.Push(child, nil)

	child.Destroy()
	root.Destroy()
	root.Destroy()

	assert.Equal(t, map[int]int{1: 1, 2: 1}, lab.destroyed)
}

func TestReplaceValueDestroysOldValueOnce(t *testing.T) {
	c, _, lab, _ := newWidgetConn(t, nil)

	feed(c, "swap")
	assert.Equal(t, map[int]int{1: 1}, lab.destroyed)
	assert.Equal(t, 2, c.Session().Value.(*widget).id)

	feed(c, "swap")
	assert.Equal(t, map[int]int{1: 1, 2: 1}, lab.destroyed)

	c.Close()
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, lab.destroyed)
}

func TestDeepestActive(t *testing.T) {
	lab := newWidgetLab()
	kinds := NewRegistry()
	lab.register(t, kinds)

	newWidget := func() *Session {
		s, err := kinds.NewSession("widget", lab.make(), "")
		require.NoError(t, err)
		return s
	}
	root, mid, leaf := newWidget(), newWidget(), newWidget()
	defer root.Destroy()

	assert.Same(t, root, DeepestActive(root))

	root.Push(mid, nil)
	mid.Push(leaf, nil)
	assert.Same(t, leaf, DeepestActive(root))

	leaf.Finish(false)
	assert.Same(t, mid, DeepestActive(root))

	mid.Finish(true)
	assert.Same(t, root, DeepestActive(root))

	root.Finish(true)
	assert.Nil(t, DeepestActive(root))
	assert.Nil(t, DeepestActive(nil))
}

func TestUnknownStateAbortsWholeChain(t *testing.T) {
	metrics := NewMetrics(nil)
	c, client, lab, _ := newWidgetConn(t, metrics)

	feed(c, "push", "push")
	client.Take()
	feed(c, "bogus")

	assert.False(t, c.Editing())
	assert.Contains(t, client.Take(), "Your changes were discarded")
	require.Len(t, lab.destroyed, 3)
	for _, n := range lab.destroyed {
		assert.Equal(t, 1, n)
	}
}

func TestCommitWithoutBackingIsNoOp(t *testing.T) {
	c, client, lab, _ := newWidgetConn(t, nil)

	feed(c, "done")

	assert.False(t, c.Editing())
	assert.Contains(t, client.Take(), "could not be saved")
	assert.Equal(t, map[int]int{1: 1}, lab.destroyed)
}

func TestOpenWhileEditingIsBusy(t *testing.T) {
	c, _, lab, _ := newWidgetConn(t, nil)
	defer c.Close()

	w := lab.make()
	_, err := c.Open("widget", w, "")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestStateKeys(t *testing.T) {
	key, ok := FieldState("3").FieldKey()
	assert.True(t, ok)
	assert.Equal(t, "3", key)

	_, ok = ListState("5").FieldKey()
	assert.False(t, ok)
	key, ok = ListState("5").ListKey()
	assert.True(t, ok)
	assert.Equal(t, "5", key)
}
