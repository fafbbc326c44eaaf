package olc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openText(t *testing.T, initial string) (*Conn, *fakeClient, *Session) {
	t.Helper()
	setup := newTestSetup(t, newTestWorld(), nil)
	c, client := newTestConn(setup)
	s, err := c.Open(KindText, NewTextBuffer(initial), "notes")
	require.NoError(t, err)
	return c, client, s
}

func TestTextEditorDotCommands(t *testing.T) {
	c, client, s := openText(t, "one\ntwo\nthree")
	defer c.Close()
	buf := s.Value.(*TextBuffer)

	assert.Contains(t, client.Take(), "  2: two")

	feed(c, ".d 2")
	assert.Equal(t, []string{"one", "three"}, buf.Lines)
	assert.Equal(t, StateAppend, s.State)

	feed(c, ".d 7")
	assert.Contains(t, client.Take(), "No such line.")

	feed(c, "four", ".l")
	assert.Contains(t, client.Take(), "  3: four")

	feed(c, ".h")
	assert.Contains(t, client.Take(), "Dot commands")

	feed(c, ".c")
	assert.Empty(t, buf.Lines)
}

func TestTextEditorLineLimit(t *testing.T) {
	c, client, s := openText(t, "")
	defer c.Close()
	buf := s.Value.(*TextBuffer)

	for i := 0; i < textMaxLines; i++ {
		feed(c, "line")
	}
	client.Take()
	feed(c, "overflow")
	assert.Len(t, buf.Lines, textMaxLines)
	assert.Contains(t, client.Take(), "The text is full.")

	feed(c, ".c", strings.Repeat("x", textLineLimit+1))
	assert.Empty(t, buf.Lines)
}

func TestTextRootSessionHasNoBacking(t *testing.T) {
	c, client, _ := openText(t, "draft")
	feed(c, "@")
	assert.False(t, c.Editing())
	assert.Contains(t, client.Take(), "could not be saved")
}

func TestNewTextBuffer(t *testing.T) {
	assert.Empty(t, NewTextBuffer("  \r\n ").Lines)
	buf := NewTextBuffer("a\r\nb")
	assert.Equal(t, []string{"a", "b"}, buf.Lines)
	clone := buf.Clone()
	clone.Lines[0] = "z"
	assert.Equal(t, "a\nb", buf.String())
}

func TestTextEditorKeepsDotWords(t *testing.T) {
	c, client, s := openText(t, "one")
	defer c.Close()
	buf := s.Value.(*TextBuffer)
	client.Take()

	feed(c, ".dusk settles", ".dance")
	assert.Equal(t, []string{"one", ".dusk settles", ".dance"}, buf.Lines)
	assert.NotContains(t, client.Take(), "No such line.")

	feed(c, ".d\t1")
	assert.Equal(t, []string{".dusk settles", ".dance"}, buf.Lines)
}
