package olc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"LumenForge/internal/game"
)

type releasingHandler struct {
	Native
	released int
}

func (h *releasingHandler) Release() { h.released++ }

func renderTo(text string) func(c *Conn, v any) {
	return func(c *Conn, v any) { c.SendText(text) }
}

func TestExtenderReRegisterReplaces(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	c, client := newTestConn(setup)

	ext := NewExtender()
	old := &releasingHandler{Native: Native{
		RenderFunc: renderTo("old"),
		ExportFunc: func(any) string { return "old" },
	}}
	ext.Register("X", old)
	ext.Register("x", &Native{RenderFunc: renderTo("new")})

	assert.Equal(t, 1, old.released)
	assert.Equal(t, []string{"x"}, ext.Keys())
	ext.RenderAll(c, &game.Room{})
	assert.Equal(t, "new", client.Take())
	assert.Empty(t, ext.ExportAll(&game.Room{}))
}

func TestExtenderRenderOrderIsDeterministic(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	c, client := newTestConn(setup)

	ext := NewExtender()
	for _, key := range []string{"b", "c", "a"} {
		ext.Register(key, &Native{RenderFunc: renderTo(key)})
	}
	for i := 0; i < 3; i++ {
		ext.RenderAll(c, &game.Room{})
		assert.Equal(t, "abc", client.Take())
	}
}

func TestExtenderChoose(t *testing.T) {
	ext := NewExtender()
	ext.Register("mood", &Native{
		ChooseFunc: func(*Conn, any) (ChooseResult, string) { return ChooseOK, "ask" },
	})
	ext.Register("flag", &Native{})

	result, choice := ext.Choose(nil, &game.Room{}, "MOOD")
	assert.Equal(t, ChooseOK, result)
	assert.Equal(t, Choice{Key: "mood", ID: "ask"}, choice)

	result, choice = ext.Choose(nil, &game.Room{}, "flag")
	assert.Equal(t, ChooseNone, result)
	assert.Equal(t, Choice{}, choice)

	result, _ = ext.Choose(nil, &game.Room{}, "nothing")
	assert.Equal(t, ChooseInvalid, result)
}

func TestBuiltinSectorExtension(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	c, client := newTestConn(setup)

	root := openStored(t, setup, world, c, game.KindRoom, "start")
	assert.Contains(t, client.Take(), "Sector")

	feed(c, "sector", "lava")
	assert.Contains(t, client.Take(), "Invalid input.")
	assert.Equal(t, StateMain, root.State)

	feed(c, "sector", "Forest", "q", "y")
	stored, _ := world.GetRoom("start")
	assert.Equal(t, "forest", stored.Extra.Extra("sector"))
}

func TestBuiltinBoundToggle(t *testing.T) {
	world := newTestWorld()
	setup := newTestSetup(t, world, nil)
	c, _ := newTestConn(setup)
	defer c.Close()

	root := openStored(t, setup, world, c, game.KindObject, "ring")
	feed(c, "bound")
	assert.Equal(t, StateMain, root.State)
	assert.Equal(t, "yes", root.Value.(*game.Object).Extra.Extra("bound"))
	feed(c, "bound")
	assert.Empty(t, root.Value.(*game.Object).Extra)
}

const moodScript = `
func Render(ctx map[string]any) {
	send := ctx["send"].(func(string))
	get := ctx["get"].(func(string) string)
	send("  mood) Mood: " + get("mood") + "\r\n")
}

func Choose(ctx map[string]any) string {
	ctx["send"].(func(string))("Enter a mood: ")
	return "mood"
}

func Parse(ctx map[string]any) bool {
	input := ctx["input"].(string)
	if input == "" {
		return false
	}
	ctx["set"].(func(string, string))("mood", input)
	return true
}

func Export(ctx map[string]any) string {
	get := ctx["get"].(func(string) string)
	return ctx["emit"].(func(string, string) string)("mood", get("mood"))
}
`

func TestScriptedExtensionThroughYaegi(t *testing.T) {
	world := newTestWorld()
	require.NoError(t, world.Put(game.KindScript, "mood-ext", &game.Script{Key: "mood-ext", Source: moodScript}))
	setup := newTestSetup(t, world, nil)
	bridge := NewYaegiBridge(world.ScriptSource)
	require.NoError(t, RegisterScriptedExtensions(setup.Kinds, bridge, []ExtensionBinding{
		{Kind: "room", Key: "mood", Script: "mood-ext"},
	}, zap.NewNop()))

	c, client := newTestConn(setup)
	root := openStored(t, setup, world, c, game.KindRoom, "hall")
	assert.Contains(t, client.Take(), "mood) Mood:")

	feed(c, "mood")
	assert.Contains(t, client.Take(), "Enter a mood: ")
	assert.Equal(t, StateExtension, root.State)

	feed(c, "gloomy")
	assert.Equal(t, "gloomy", root.Value.(*game.Room).Extra.Extra("mood"))

	script, err := Export(setup.Kinds, game.KindRoom, root.Value)
	require.NoError(t, err)
	assert.Contains(t, script, `set("extra.mood", "gloomy")`)

	feed(c, "q", "y")
	stored, _ := world.GetRoom("hall")
	assert.Equal(t, "gloomy", stored.Extra.Extra("mood"))
}

func TestScriptedExtensionFailureIsContained(t *testing.T) {
	world := newTestWorld()
	require.NoError(t, world.Put(game.KindScript, "broken", &game.Script{Key: "broken", Source: "func Render(ctx map[string]any) { panic(\"boom\") }"}))
	setup := newTestSetup(t, world, nil)
	require.NoError(t, RegisterScriptedExtensions(setup.Kinds, NewYaegiBridge(world.ScriptSource), []ExtensionBinding{
		{Kind: "room", Key: "boom", Script: "broken"},
	}, nil))

	c, client := newTestConn(setup)
	defer c.Close()
	openStored(t, setup, world, c, game.KindRoom, "hall")
	assert.Contains(t, client.Take(), "Enter choice: ")
	assert.True(t, c.Editing())
}

func TestRegisterScriptedExtensionsValidatesFirst(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	err := RegisterScriptedExtensions(setup.Kinds, NewYaegiBridge(func(string) (string, bool) { return "", false }), []ExtensionBinding{
		{Kind: "room", Key: "ok", Script: "s"},
		{Kind: "spaceship", Key: "warp", Script: "s"},
	}, nil)
	require.ErrorIs(t, err, ErrUnknownKind)

	ext, err := setup.Kinds.Extender(game.KindRoom)
	require.NoError(t, err)
	assert.False(t, ext.Has("ok"))
}

func TestExtensionCannotShadowMenuField(t *testing.T) {
	setup := newTestSetup(t, newTestWorld(), nil)
	ext, err := setup.Kinds.Extender(game.KindRoom)
	require.NoError(t, err)

	assert.ErrorIs(t, ext.Register("1", &Native{}), ErrReservedKey)
	assert.ErrorIs(t, ext.Register("Q", &Native{}), ErrReservedKey)
	assert.False(t, ext.Has("1"))

	err = RegisterScriptedExtensions(setup.Kinds, nil, []ExtensionBinding{
		{Kind: "room", Key: "r", Script: "mood"},
	}, nil)
	assert.ErrorIs(t, err, ErrReservedKey)
	assert.False(t, ext.Has("r"))
}
