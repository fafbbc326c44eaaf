package game

import (
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type stubListener struct {
	addr      net.Addr
	acceptErr error
	closed    bool
	mu        sync.Mutex
}

func (s *stubListener) Accept() (net.Conn, error) {
	return nil, s.acceptErr
}

func (s *stubListener) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *stubListener) Addr() net.Addr {
	return s.addr
}

func testAccounts(t *testing.T) *AccountManager {
	t.Helper()
	accounts, err := NewAccountManager(filepath.Join(t.TempDir(), "accounts.json"))
	if err != nil {
		t.Fatalf("NewAccountManager() error = %v", err)
	}
	return accounts
}

func TestListenAndServeReturnsListenerError(t *testing.T) {
	sentinel := errors.New("stub listener failure")
	listener := &stubListener{addr: &net.TCPAddr{}, acceptErr: sentinel}

	original := netListenFunc
	defer func() { netListenFunc = original }()
	netListenFunc = func(string, string) (net.Listener, error) {
		return listener, nil
	}

	world := NewWorldWithRooms(map[RoomID]*Room{StartRoom: {ID: StartRoom}})
	err := ListenAndServe("127.0.0.1:0", world, testAccounts(t), func(*World, *Player, string) bool { return false })
	if !errors.Is(err, sentinel) {
		t.Fatalf("ListenAndServe error = %v, want %v", err, sentinel)
	}
	listener.mu.Lock()
	defer listener.mu.Unlock()
	if !listener.closed {
		t.Fatalf("listener was not closed")
	}
}

func TestListenAndServeRequiresDispatcher(t *testing.T) {
	world := NewWorldWithRooms(map[RoomID]*Room{StartRoom: {ID: StartRoom}})
	if err := ListenAndServe("127.0.0.1:0", world, testAccounts(t), nil); err == nil {
		t.Fatalf("expected error for nil dispatcher")
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	lines  []string
	closed chan struct{}
}

func (h *recordingHandler) HandleLine(line string) {
	h.mu.Lock()
	h.lines = append(h.lines, line)
	h.mu.Unlock()
}

func (h *recordingHandler) Close() { close(h.closed) }

func TestHandleConnRoutesLinesToInputHandler(t *testing.T) {
	world := NewWorldWithRooms(map[RoomID]*Room{StartRoom: {ID: StartRoom, Title: "Yard"}})
	handler := &recordingHandler{closed: make(chan struct{})}
	dispatched := make(chan string, 4)
	srv := &server{
		world:    world,
		accounts: testAccounts(t),
		dispatcher: func(_ *World, p *Player, line string) bool {
			dispatched <- line
			if line == "edit" {
				p.SetInputHandler(handler)
			}
			return false
		},
		opts: serverOptions{logger: nopLogger()},
	}

	client, serverSide := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handleConn(serverSide)
		close(done)
	}()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	for _, line := range []string{"Mason", "trowel123", "edit", "north wall"} {
		if _, err := client.Write([]byte(line + "\r\n")); err != nil {
			t.Fatalf("write %q: %v", line, err)
		}
	}
	if got := <-dispatched; got != "edit" {
		t.Fatalf("dispatched %q, want edit", got)
	}
	_ = client.Close()

	select {
	case <-handler.closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("input handler was not closed on disconnect")
	}
	<-done

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.lines) != 1 || handler.lines[0] != "north wall" {
		t.Fatalf("handler lines = %q, want [north wall]", handler.lines)
	}
	if len(dispatched) != 0 {
		t.Fatalf("line leaked to dispatcher while editing")
	}
	if _, ok := world.ActivePlayer("Mason"); ok {
		t.Fatalf("player still active after disconnect")
	}
}
