package game

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	telnetIAC  byte = 255
	telnetDONT byte = 254
	telnetDO   byte = 253
	telnetWONT byte = 252
	telnetWILL byte = 251
	telnetSB   byte = 250
	telnetSE   byte = 240
	telnetNOP  byte = 241
	telnetDM   byte = 242
	telnetBRK  byte = 243
	telnetIP   byte = 244
	telnetAO   byte = 245
	telnetAYT  byte = 246
	telnetEC   byte = 247
	telnetEL   byte = 248
	telnetGA   byte = 249
)

const (
	telnetOptEcho         byte = 1
	telnetOptSuppressGA   byte = 3
	telnetOptTerminalType byte = 24
	telnetOptWindowSize   byte = 31
	telnetOptLineMode     byte = 34
)

var (
	serverSupportedOptions = map[byte]bool{
		telnetOptSuppressGA: true,
	}
	clientSupportedOptions = map[byte]bool{
		telnetOptTerminalType: true,
		telnetOptWindowSize:   true,
	}
)

// charsets maps normalised charset names to their code pages. A nil entry
// means UTF-8 passthrough.
var charsets = map[string]*charmap.Charmap{
	"UTF8":        nil,
	"ISO88591":    charmap.ISO8859_1,
	"LATIN1":      charmap.ISO8859_1,
	"ISO885915":   charmap.ISO8859_15,
	"CP437":       charmap.CodePage437,
	"IBM437":      charmap.CodePage437,
	"CP1252":      charmap.Windows1252,
	"WINDOWS1252": charmap.Windows1252,
}

type TelnetSession struct {
	conn    net.Conn
	reader  *bufio.Reader
	mu      sync.Mutex
	width   int
	height  int
	term    string
	charset *charmap.Charmap
}

func NewTelnetSession(conn net.Conn) *TelnetSession {
	s := &TelnetSession{
		conn:   conn,
		reader: bufio.NewReader(conn),
		width:  80,
		height: 24,
	}
	s.performHandshake()
	return s
}

func (s *TelnetSession) performHandshake() {
	_ = s.writeCommand(telnetWILL, telnetOptSuppressGA)
	_ = s.writeCommand(telnetWONT, telnetOptEcho)
	_ = s.writeCommand(telnetDONT, telnetOptLineMode)
	_ = s.writeCommand(telnetDO, telnetOptTerminalType)
	_ = s.writeCommand(telnetDO, telnetOptWindowSize)
}

// SetCharset switches the session's text encoding. Names are matched after
// removing punctuation, so "ISO-8859-1" and "iso88591" are equivalent.
func (s *TelnetSession) SetCharset(name string) error {
	cm, ok := charsets[normalizeToken(name)]
	if !ok {
		return fmt.Errorf("unsupported charset %q", name)
	}
	s.mu.Lock()
	s.charset = cm
	s.mu.Unlock()
	return nil
}

// SupportedCharsets lists the charset names accepted by SetCharset.
func SupportedCharsets() []string {
	return parseCharsetList("UTF-8;ISO-8859-1;ISO-8859-15;CP437;CP1252")
}

func (s *TelnetSession) writeCommand(cmd, opt byte) error {
	return s.writeRaw([]byte{telnetIAC, cmd, opt})
}

func (s *TelnetSession) writeRaw(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Write(payload)
	return err
}

func (s *TelnetSession) WriteString(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := []byte(msg)
	if s.charset != nil {
		payload = encodeWithCharmap(s.charset, payload)
	}
	_, err := s.conn.Write(translateForTelnet(payload))
	return err
}

func translateForTelnet(msg []byte) []byte {
	var buf bytes.Buffer
	var prev byte
	for _, b := range msg {
		switch b {
		case '\n':
			if prev != '\r' {
				buf.WriteByte('\r')
			}
			buf.WriteByte('\n')
		case telnetIAC:
			buf.WriteByte(telnetIAC)
			buf.WriteByte(telnetIAC)
		default:
			buf.WriteByte(b)
		}
		prev = b
	}
	return buf.Bytes()
}

// ReadLine returns the next input line decoded to UTF-8. Input that is not
// valid UTF-8 on a UTF-8 session is read as Latin-1.
func (s *TelnetSession) ReadLine() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\r':
			if next, err := s.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = s.reader.ReadByte()
			}
			return s.decode(buf.Bytes()), nil
		case '\n':
			return s.decode(buf.Bytes()), nil
		case 0x08, 0x7f:
			bs := buf.Bytes()
			if len(bs) > 0 {
				buf.Truncate(len(bs) - 1)
			}
		case 0x00:
		case telnetIAC:
			if err := s.handleIAC(&buf); err != nil {
				return "", err
			}
		default:
			buf.WriteByte(b)
		}
	}
}

func (s *TelnetSession) decode(raw []byte) string {
	s.mu.Lock()
	cm := s.charset
	s.mu.Unlock()
	if cm == nil {
		if utf8.Valid(raw) {
			return sanitizeTelnetString(raw)
		}
		cm = charmap.ISO8859_1
	}
	return sanitizeTelnetString([]byte(decodeWithCharmap(cm, raw)))
}

func encodeWithCharmap(cm *charmap.Charmap, payload []byte) []byte {
	out, err := cm.NewEncoder().Bytes(payload)
	if err != nil {
		var buf bytes.Buffer
		for _, r := range string(payload) {
			if b, ok := cm.EncodeRune(r); ok {
				buf.WriteByte(b)
			} else {
				buf.WriteByte('?')
			}
		}
		return buf.Bytes()
	}
	return out
}

func decodeWithCharmap(cm *charmap.Charmap, payload []byte) string {
	out, err := cm.NewDecoder().Bytes(payload)
	if err != nil {
		return string(payload)
	}
	return string(out)
}

func normalizeToken(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if r == '-' || r == '_' || r == ' ' || r == '.' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func parseCharsetList(list string) []string {
	parts := strings.Split(list, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func sanitizeTelnetString(raw []byte) string {
	var builder strings.Builder
	for _, r := range string(raw) {
		if r < 0x20 && r != '\t' {
			continue
		}
		if r == 0x7f {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func (s *TelnetSession) handleIAC(buf *bytes.Buffer) error {
	cmd, err := s.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case telnetIAC:
		buf.WriteByte(telnetIAC)
	case telnetDO, telnetDONT, telnetWILL, telnetWONT:
		opt, err := s.reader.ReadByte()
		if err != nil {
			return err
		}
		s.handleNegotiation(cmd, opt)
	case telnetSB:
		return s.handleSubnegotiation()
	case telnetNOP, telnetDM, telnetBRK, telnetIP, telnetAO, telnetAYT, telnetEC, telnetEL, telnetGA:
	default:
	}
	return nil
}

func (s *TelnetSession) handleNegotiation(cmd, opt byte) {
	switch cmd {
	case telnetDO:
		if serverSupportedOptions[opt] {
			_ = s.writeCommand(telnetWILL, opt)
		} else {
			_ = s.writeCommand(telnetWONT, opt)
		}
	case telnetDONT:
		_ = s.writeCommand(telnetWONT, opt)
	case telnetWILL:
		if clientSupportedOptions[opt] {
			_ = s.writeCommand(telnetDO, opt)
		} else {
			_ = s.writeCommand(telnetDONT, opt)
		}
	case telnetWONT:
		_ = s.writeCommand(telnetDONT, opt)
	}
}

func (s *TelnetSession) handleSubnegotiation() error {
	opt, err := s.reader.ReadByte()
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 16)
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == telnetIAC {
			esc, err := s.reader.ReadByte()
			if err != nil {
				return err
			}
			if esc == telnetIAC {
				payload = append(payload, telnetIAC)
				continue
			}
			if esc == telnetSE {
				break
			}
			continue
		}
		payload = append(payload, b)
	}

	switch opt {
	case telnetOptTerminalType:
		if len(payload) > 1 && payload[0] == 0 {
			s.term = strings.ToUpper(string(payload[1:]))
		}
	case telnetOptWindowSize:
		if len(payload) >= 4 {
			s.mu.Lock()
			s.width = int(payload[0])<<8 | int(payload[1])
			s.height = int(payload[2])<<8 | int(payload[3])
			s.mu.Unlock()
		}
	}
	return nil
}

func (s *TelnetSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

func (s *TelnetSession) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *TelnetSession) Terminal() string {
	return s.term
}
