package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type areaFile struct {
	Name    string   `json:"name" yaml:"name"`
	Zone    *Zone    `json:"zone,omitempty" yaml:"zone,omitempty"`
	Zones   []Zone   `json:"zones,omitempty" yaml:"zones,omitempty"`
	Rooms   []Room   `json:"rooms,omitempty" yaml:"rooms,omitempty"`
	Mobiles []Mobile `json:"mobiles,omitempty" yaml:"mobiles,omitempty"`
	Objects []Object `json:"objects,omitempty" yaml:"objects,omitempty"`
	Dialogs []Dialog `json:"dialogs,omitempty" yaml:"dialogs,omitempty"`
	Scripts []Script `json:"scripts,omitempty" yaml:"scripts,omitempty"`
}

func isAreaFile(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (w *World) loadAreas(areasPath string) error {
	entries, err := os.ReadDir(areasPath)
	if err != nil {
		return fmt.Errorf("read areas: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isAreaFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var builderFileName string
	for _, name := range names {
		if name == builderAreaFile {
			builderFileName = name
			continue
		}
		if err := w.loadAreaFile(areasPath, name, false); err != nil {
			return err
		}
	}
	if builderFileName != "" {
		if err := w.loadAreaFile(areasPath, builderFileName, true); err != nil {
			return err
		}
	}
	return nil
}

func decodeAreaFile(name string, data []byte) (areaFile, error) {
	var file areaFile
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return areaFile{}, fmt.Errorf("decode area %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return areaFile{}, fmt.Errorf("decode area %s: %w", name, err)
		}
	}
	return file, nil
}

func (w *World) loadAreaFile(areasPath, name string, allowOverride bool) error {
	data, err := os.ReadFile(filepath.Join(areasPath, name))
	if err != nil {
		return fmt.Errorf("read area %s: %w", name, err)
	}
	file, err := decodeAreaFile(name, data)
	if err != nil {
		return err
	}

	add := func(kind EntityKind, key string, value any) error {
		if key == "" {
			return fmt.Errorf("area %s contains a %s without a key", name, kind)
		}
		if _, exists := w.getLocked(kind, key); exists && !allowOverride {
			return fmt.Errorf("duplicate %s %s in area %s", kind, key, name)
		}
		if err := w.putLocked(kind, key, value); err != nil {
			return err
		}
		w.sources[kind][key] = name
		return nil
	}

	zones := file.Zones
	if file.Zone != nil {
		zones = append(zones, *file.Zone)
	}
	for i := range zones {
		if err := add(KindZone, zones[i].Key, &zones[i]); err != nil {
			return err
		}
	}
	defaultZone := ""
	if len(zones) == 1 {
		defaultZone = zones[0].Key
	}
	for i := range file.Rooms {
		room := &file.Rooms[i]
		if room.Zone == "" {
			room.Zone = defaultZone
		}
		if err := add(KindRoom, string(room.ID), room); err != nil {
			return err
		}
	}
	for i := range file.Mobiles {
		if err := add(KindMobile, file.Mobiles[i].Key, &file.Mobiles[i]); err != nil {
			return err
		}
	}
	for i := range file.Objects {
		if err := add(KindObject, file.Objects[i].Key, &file.Objects[i]); err != nil {
			return err
		}
	}
	for i := range file.Dialogs {
		if err := add(KindDialog, file.Dialogs[i].Key, &file.Dialogs[i]); err != nil {
			return err
		}
	}
	for i := range file.Scripts {
		if err := add(KindScript, file.Scripts[i].Key, &file.Scripts[i]); err != nil {
			return err
		}
	}
	return nil
}

// SaveKind writes every builder-owned entity to the builder area file and
// hands the saved collection for kind to the attached mirrors. Worlds
// without an area directory skip the file write. Saves run one at a time,
// so a later save is never overwritten by an earlier snapshot.
func (w *World) SaveKind(kind EntityKind) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.RLock()
	file := w.builderSnapshotLocked()
	mirrors := append([]Mirror(nil), w.mirrors...)
	path := w.builderPath
	logger := w.logger
	w.mu.RUnlock()

	if path != "" {
		if err := writeAreaFile(path, file); err != nil {
			return err
		}
	}
	if len(mirrors) == 0 {
		return nil
	}
	data, err := collectionJSON(file, kind)
	if err != nil {
		return err
	}
	for _, m := range mirrors {
		if err := m.MirrorCollection(kind, data); err != nil {
			logger.Warn("mirror failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return nil
}

func (w *World) builderSnapshotLocked() areaFile {
	file := areaFile{Name: "Builder Area"}
	for _, key := range w.builderKeysLocked(KindZone) {
		file.Zones = append(file.Zones, *w.zones[key].Clone())
	}
	for _, key := range w.builderKeysLocked(KindRoom) {
		file.Rooms = append(file.Rooms, *w.rooms[RoomID(key)].Clone())
	}
	for _, key := range w.builderKeysLocked(KindMobile) {
		file.Mobiles = append(file.Mobiles, *w.mobiles[key].Clone())
	}
	for _, key := range w.builderKeysLocked(KindObject) {
		file.Objects = append(file.Objects, *w.objects[key].Clone())
	}
	for _, key := range w.builderKeysLocked(KindDialog) {
		file.Dialogs = append(file.Dialogs, *w.dialogs[key].Clone())
	}
	for _, key := range w.builderKeysLocked(KindScript) {
		file.Scripts = append(file.Scripts, *w.scripts[key].Clone())
	}
	return file
}

func (w *World) builderKeysLocked(kind EntityKind) []string {
	keys := make([]string, 0)
	for key, source := range w.sources[kind] {
		if source != builderAreaFile {
			continue
		}
		if _, ok := w.getLocked(kind, key); !ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func collectionJSON(file areaFile, kind EntityKind) ([]byte, error) {
	var payload any
	switch kind {
	case KindRoom:
		payload = file.Rooms
	case KindMobile:
		payload = file.Mobiles
	case KindObject:
		payload = file.Objects
	case KindZone:
		payload = file.Zones
	case KindDialog:
		payload = file.Dialogs
	case KindScript:
		payload = file.Scripts
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	return json.Marshal(payload)
}

func writeAreaFile(path string, file areaFile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create builder area directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "builder-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp builder area file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write builder area: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close builder area: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace builder area: %w", err)
	}
	return nil
}
