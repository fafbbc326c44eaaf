package game

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAreasPath is the on-disk location of bundled areas.
const DefaultAreasPath = "data/areas"

// builderAreaFile stores entities created or modified in-game.
const builderAreaFile = "builder.json"

// Mirror receives a snapshot of a collection every time it is saved.
type Mirror interface {
	MirrorCollection(kind EntityKind, data []byte) error
}

type World struct {
	mu sync.RWMutex
	// saveMu is held from snapshot to the last mirror write of a save.
	saveMu      sync.Mutex
	rooms       map[RoomID]*Room
	mobiles     map[string]*Mobile
	objects     map[string]*Object
	zones       map[string]*Zone
	dialogs     map[string]*Dialog
	scripts     map[string]*Script
	sources     map[EntityKind]map[string]string
	players     map[string]*Player
	playerOrder []string
	areasPath   string
	builderPath string
	mirrors     []Mirror
	engine      *scriptEngine
	logger      *zap.Logger
}

// PlayerLocation describes the room occupied by a connected player.
type PlayerLocation struct {
	Name string
	Room RoomID
}

func NewWorld(areasPath string) (*World, error) {
	w := newEmptyWorld()
	w.areasPath = areasPath
	w.builderPath = filepath.Join(areasPath, builderAreaFile)
	if err := w.loadAreas(areasPath); err != nil {
		return nil, err
	}
	if len(w.rooms) == 0 {
		return nil, fmt.Errorf("no rooms loaded")
	}
	return w, nil
}

// NewWorldWithRooms constructs a world populated with the provided rooms.
// The world has no backing area directory, so saves are no-ops.
func NewWorldWithRooms(rooms map[RoomID]*Room) *World {
	w := newEmptyWorld()
	for id, room := range rooms {
		if room.ID == "" {
			room.ID = id
		}
		w.rooms[id] = room
	}
	return w
}

func newEmptyWorld() *World {
	return &World{
		rooms:       make(map[RoomID]*Room),
		mobiles:     make(map[string]*Mobile),
		objects:     make(map[string]*Object),
		zones:       make(map[string]*Zone),
		dialogs:     make(map[string]*Dialog),
		scripts:     make(map[string]*Script),
		sources:     make(map[EntityKind]map[string]string),
		players:     make(map[string]*Player),
		playerOrder: make([]string, 0),
		engine:      newScriptEngine(),
		logger:      zap.NewNop(),
	}
}

// SetLogger replaces the world's logger.
func (w *World) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w.mu.Lock()
	w.logger = logger
	w.mu.Unlock()
}

// AttachMirror registers a mirror that receives every saved collection.
func (w *World) AttachMirror(m Mirror) {
	if m == nil {
		return
	}
	w.mu.Lock()
	w.mirrors = append(w.mirrors, m)
	w.mu.Unlock()
}

// Get returns the canonical entity stored under key.
func (w *World) Get(kind EntityKind, key string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.getLocked(kind, key)
}

// Put stores value under key, replacing any previous entity.
func (w *World) Put(kind EntityKind, key string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.putLocked(kind, key, value)
}

// Remove deletes the entity stored under key.
func (w *World) Remove(kind EntityKind, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removeLocked(kind, key)
}

// Atomically runs fn with exclusive access to the world. The Store passed to
// fn must not be retained after fn returns.
func (w *World) Atomically(fn func(store LockedStore) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(lockedWorld{w})
}

// LockedStore is the view of the world handed to Atomically callbacks.
type LockedStore interface {
	Get(kind EntityKind, key string) (any, bool)
	Put(kind EntityKind, key string, value any) error
	Remove(kind EntityKind, key string) error
}

type lockedWorld struct {
	w *World
}

func (l lockedWorld) Get(kind EntityKind, key string) (any, bool) { return l.w.getLocked(kind, key) }

func (l lockedWorld) Put(kind EntityKind, key string, value any) error {
	return l.w.putLocked(kind, key, value)
}

func (l lockedWorld) Remove(kind EntityKind, key string) error { return l.w.removeLocked(kind, key) }

func (w *World) getLocked(kind EntityKind, key string) (any, bool) {
	switch kind {
	case KindRoom:
		v, ok := w.rooms[RoomID(key)]
		return v, ok
	case KindMobile:
		v, ok := w.mobiles[key]
		return v, ok
	case KindObject:
		v, ok := w.objects[key]
		return v, ok
	case KindZone:
		v, ok := w.zones[key]
		return v, ok
	case KindDialog:
		v, ok := w.dialogs[key]
		return v, ok
	case KindScript:
		v, ok := w.scripts[key]
		return v, ok
	}
	return nil, false
}

func (w *World) putLocked(kind EntityKind, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%s: empty key", kind)
	}
	switch kind {
	case KindRoom:
		v, ok := value.(*Room)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.rooms[RoomID(key)] = v
	case KindMobile:
		v, ok := value.(*Mobile)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.mobiles[key] = v
	case KindObject:
		v, ok := value.(*Object)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.objects[key] = v
	case KindZone:
		v, ok := value.(*Zone)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.zones[key] = v
	case KindDialog:
		v, ok := value.(*Dialog)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.dialogs[key] = v
	case KindScript:
		v, ok := value.(*Script)
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, key, ErrBadValue)
		}
		w.scripts[key] = v
	default:
		return fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	w.markBuilderLocked(kind, key)
	return nil
}

func (w *World) removeLocked(kind EntityKind, key string) error {
	switch kind {
	case KindRoom:
		delete(w.rooms, RoomID(key))
	case KindMobile:
		delete(w.mobiles, key)
	case KindObject:
		delete(w.objects, key)
	case KindZone:
		delete(w.zones, key)
	case KindDialog:
		delete(w.dialogs, key)
	case KindScript:
		delete(w.scripts, key)
	default:
		return fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	if sources := w.sources[kind]; sources != nil {
		delete(sources, key)
	}
	return nil
}

func (w *World) markBuilderLocked(kind EntityKind, key string) {
	sources, ok := w.sources[kind]
	if !ok {
		sources = make(map[string]string)
		w.sources[kind] = sources
	}
	sources[key] = builderAreaFile
}

// Keys lists the keys stored for kind in sorted order.
func (w *World) Keys(kind EntityKind) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var keys []string
	switch kind {
	case KindRoom:
		for id := range w.rooms {
			keys = append(keys, string(id))
		}
	case KindMobile:
		for k := range w.mobiles {
			keys = append(keys, k)
		}
	case KindObject:
		for k := range w.objects {
			keys = append(keys, k)
		}
	case KindZone:
		for k := range w.zones {
			keys = append(keys, k)
		}
	case KindDialog:
		for k := range w.dialogs {
			keys = append(keys, k)
		}
	case KindScript:
		for k := range w.scripts {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// CloneOf returns clone(entity) for the entity stored under key. clone runs
// under the read lock, so the copy never sees a commit half applied.
func (w *World) CloneOf(kind EntityKind, key string, clone func(any) any) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.getLocked(kind, key)
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// GetRoom returns the canonical room with the provided id. Commits rewrite
// it in place; readers outside Atomically should use RoomSnapshot.
func (w *World) GetRoom(id RoomID) (*Room, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[id]
	return r, ok
}

// RoomSnapshot returns a private copy of the room with the provided id.
func (w *World) RoomSnapshot(id RoomID) (*Room, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// ZoneForRoom returns a copy of the zone a room belongs to, when it has one.
func (w *World) ZoneForRoom(id RoomID) (*Zone, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	room, ok := w.rooms[id]
	if !ok || room.Zone == "" {
		return nil, false
	}
	zone, ok := w.zones[room.Zone]
	if !ok {
		return nil, false
	}
	return zone.Clone(), true
}

// ScriptSource returns the source of the named script entity.
func (w *World) ScriptSource(key string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.scripts[strings.TrimSpace(key)]
	if !ok {
		return "", false
	}
	return s.Source, true
}

// ActivePlayer returns the currently connected player with the provided name.
func (w *World) ActivePlayer(name string) (*Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[name]
	if !ok || !p.Alive {
		return nil, false
	}
	return p, true
}

// AddPlayerForTest inserts a player into the world's tracking structures.
func (w *World) AddPlayerForTest(p *Player) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p.Room == "" {
		p.Room = StartRoom
	}
	p.JoinedAt = time.Now()
	w.players[p.Name] = p
	w.removePlayerOrderLocked(p.Name)
	w.playerOrder = append(w.playerOrder, p.Name)
}

func (w *World) addPlayer(name string, session *TelnetSession, isAdmin, isBuilder bool) (*Player, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.players[name]; ok && existing.Alive {
		return nil, fmt.Errorf("%s is already connected", name)
	}
	room := StartRoom
	if _, ok := w.rooms[room]; !ok {
		for id := range w.rooms {
			room = id
			break
		}
	}
	p := &Player{
		Name:      name,
		Session:   session,
		Room:      room,
		Output:    make(chan string, 64),
		Alive:     true,
		IsAdmin:   isAdmin,
		IsBuilder: isBuilder || isAdmin,
		JoinedAt:  time.Now(),
	}
	w.players[name] = p
	w.removePlayerOrderLocked(name)
	w.playerOrder = append(w.playerOrder, name)
	return p, nil
}

func (w *World) removePlayer(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.players[name]; ok {
		if p.Output != nil {
			close(p.Output)
			p.Output = nil
		}
		delete(w.players, name)
	}
	w.removePlayerOrderLocked(name)
}

func (w *World) removePlayerOrderLocked(name string) {
	for i, existing := range w.playerOrder {
		if existing == name {
			w.playerOrder = append(w.playerOrder[:i], w.playerOrder[i+1:]...)
			return
		}
	}
}

// ListPlayers returns connected player names in join order, optionally
// restricted to a single room.
func (w *World) ListPlayers(roomOnly bool, room RoomID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.playerOrder))
	for _, name := range w.playerOrder {
		p, ok := w.players[name]
		if !ok || !p.Alive {
			continue
		}
		if roomOnly && p.Room != room {
			continue
		}
		out = append(out, name)
	}
	return out
}

// FindPlayer resolves a connected player by case-insensitive name prefix.
func (w *World) FindPlayer(name string) (*Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	idx, ok := uniqueMatch(name, w.playerOrder, false)
	if !ok {
		return nil, false
	}
	p, ok := w.players[w.playerOrder[idx]]
	return p, ok
}

// SetBuilder toggles builder rights for a connected player.
func (w *World) SetBuilder(name string, enabled bool) (*Player, error) {
	p, ok := w.FindPlayer(name)
	if !ok {
		return nil, fmt.Errorf("no player named %s", name)
	}
	w.mu.Lock()
	p.IsBuilder = enabled
	w.mu.Unlock()
	return p, nil
}

// BroadcastToRoom sends msg to everyone in room except the provided player.
func (w *World) BroadcastToRoom(room RoomID, msg string, except *Player) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.players {
		if p == except || !p.Alive || p.Room != room {
			continue
		}
		p.deliver(msg)
	}
}

// ResolveExit finds the exit in room matching direction, accepting unique
// prefixes such as "n" for "north".
func (w *World) ResolveExit(room RoomID, direction string) (string, RoomID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[room]
	if !ok {
		return "", "", false
	}
	names := make([]string, len(r.Exits))
	for i, exit := range r.Exits {
		names[i] = exit.Direction
	}
	idx, ok := uniqueMatch(direction, names, false)
	if !ok {
		return "", "", false
	}
	exit := r.Exits[idx]
	if exit.Closed {
		return exit.Direction, "", false
	}
	return exit.Direction, exit.To, true
}

// Move walks the player through the exit in direction.
func (w *World) Move(p *Player, dir string) (string, error) {
	w.mu.RLock()
	_, ok := w.rooms[p.Room]
	w.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown room: %s", p.Room)
	}
	name, target, ok := w.ResolveExit(p.Room, dir)
	if !ok {
		if name != "" {
			return "", fmt.Errorf("the way %s is closed", name)
		}
		return "", fmt.Errorf("you can't go that way")
	}
	if _, exists := w.GetRoom(target); !exists {
		return "", fmt.Errorf("that exit leads nowhere")
	}
	w.mu.Lock()
	p.Room = target
	w.mu.Unlock()
	return name, nil
}

// MoveToRoom teleports the player directly into room.
func (w *World) MoveToRoom(p *Player, room RoomID) error {
	if _, ok := w.GetRoom(room); !ok {
		return fmt.Errorf("unknown room: %s", room)
	}
	w.mu.Lock()
	p.Room = room
	w.mu.Unlock()
	return nil
}

// PrepareTakeover detaches the live connection of name so a new login can
// claim the character. The previous input handler, if any, is returned so
// the caller can close it.
func (w *World) PrepareTakeover(name string) (*TelnetSession, chan string, InputHandler, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	existing, ok := w.players[name]
	if !ok || !existing.Alive {
		return nil, nil, nil, false
	}
	oldSession := existing.Session
	oldOutput := existing.Output
	handler := existing.InputHandler()
	existing.SetInputHandler(nil)
	existing.Session = nil
	existing.Output = nil
	existing.Alive = false
	delete(w.players, name)
	w.removePlayerOrderLocked(name)
	return oldSession, oldOutput, handler, true
}
