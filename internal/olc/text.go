package olc

import (
	"fmt"
	"strings"

	"LumenForge/internal/game"
)

// StateAppend is the text editor's state after its first line.
const StateAppend State = "append"

const (
	textLineLimit = 200
	textMaxLines  = 60
)

// TextBuffer is the working value of a text session.
type TextBuffer struct {
	Lines []string
}

// NewTextBuffer splits text into editable lines.
func NewTextBuffer(text string) *TextBuffer {
	text = strings.ReplaceAll(text, "\r", "")
	if strings.TrimSpace(text) == "" {
		return &TextBuffer{}
	}
	return &TextBuffer{Lines: strings.Split(text, "\n")}
}

func (t *TextBuffer) Clone() *TextBuffer {
	return &TextBuffer{Lines: append([]string(nil), t.Lines...)}
}

func (t *TextBuffer) String() string {
	return strings.Join(t.Lines, "\n")
}

// TextEditor appends lines to a TextBuffer until "@" is entered.
type TextEditor struct{}

const textHelp = "Dot commands: .l list, .c clear, .d <n> delete line n, .q abandon, .h help. '@' alone saves."

func (TextEditor) Render(c *Conn, s *Session) {
	switch s.State {
	case StateMain:
		buf := s.Value.(*TextBuffer)
		c.SendText(game.Style("\r\nEnter text. '@' on a line by itself saves, '.h' for help.", game.AnsiBold))
		c.SendText(numberedLines(buf))
		c.SendText("\r\n] ")
	case StateAppend:
		c.SendText("\r\n] ")
	}
}

func numberedLines(buf *TextBuffer) string {
	if len(buf.Lines) == 0 {
		return "\r\n  (empty)"
	}
	var b strings.Builder
	for i, line := range buf.Lines {
		b.WriteString(fmt.Sprintf("\r\n%3d: %s", i+1, line))
	}
	return b.String()
}

func (TextEditor) Handle(c *Conn, s *Session, line string) error {
	if s.State != StateMain && s.State != StateAppend {
		return fmt.Errorf("text state %q: %w", s.State, ErrUnknownState)
	}
	buf, ok := s.Value.(*TextBuffer)
	if !ok {
		return fmt.Errorf("text value %T: %w", s.Value, ErrWrongType)
	}
	s.State = StateAppend
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "@":
		s.Finish(true)
	case trimmed == ".q":
		s.Finish(false)
	case trimmed == ".c":
		buf.Lines = nil
		c.SendText("\r\nText cleared.")
	case trimmed == ".l":
		c.SendText(numberedLines(buf))
	case trimmed == ".h":
		c.SendText("\r\n" + textHelp)
	case isDeleteCommand(trimmed):
		idx, ok := parseIndex(strings.TrimSpace(trimmed[2:]), len(buf.Lines))
		if !ok {
			c.SendText(game.Style("\r\nNo such line.", game.AnsiYellow))
			return nil
		}
		buf.Lines = append(buf.Lines[:idx], buf.Lines[idx+1:]...)
		c.SendText(fmt.Sprintf("\r\nLine %d deleted.", idx+1))
	default:
		if len(buf.Lines) >= textMaxLines {
			c.SendText(game.Style("\r\nThe text is full. Delete a line or enter '@'.", game.AnsiYellow))
			return nil
		}
		cleaned, err := game.CleanField(line, textLineLimit)
		if err != nil {
			c.SendText(game.Style("\r\n"+err.Error(), game.AnsiYellow))
			return nil
		}
		buf.Lines = append(buf.Lines, cleaned)
	}
	return nil
}

// isDeleteCommand matches ".d" alone or followed by whitespace and an
// argument, so text such as ".dusk" is appended as written.
func isDeleteCommand(line string) bool {
	rest, ok := strings.CutPrefix(line, ".d")
	if !ok {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}
