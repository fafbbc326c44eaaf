package commands

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"LumenForge/internal/game"
	"LumenForge/internal/olc"
)

var (
	REdit = defineEditor("redit", game.KindRoom)
	MEdit = defineEditor("medit", game.KindMobile)
	OEdit = defineEditor("oedit", game.KindObject)
	ZEdit = defineEditor("zedit", game.KindZone)
	DEdit = defineEditor("dedit", game.KindDialog)
	SEdit = defineEditor("sedit", game.KindScript)
)

func defineEditor(name string, kind game.EntityKind) *Command {
	usage := fmt.Sprintf("%s <key> [from <key>|template <script>]", name)
	if kind == game.KindRoom {
		usage = fmt.Sprintf("%s [key] [from <key>|template <script>]", name)
	}
	return Define(Definition{
		Name:        name,
		Usage:       usage,
		Description: fmt.Sprintf("open the %s editor", kind),
		Group:       GroupBuilder,
	}, func(ctx *Context) bool {
		openEditor(ctx, kind)
		return false
	})
}

// editRequest is a parsed editor command line.
type editRequest struct {
	key    string
	mode   string
	source string
}

func parseEditRequest(arg string) (editRequest, error) {
	parts := strings.Fields(arg)
	switch len(parts) {
	case 0:
		return editRequest{}, nil
	case 1:
		return editRequest{key: parts[0]}, nil
	case 3:
		mode := strings.ToLower(parts[1])
		if mode == "from" || mode == "template" {
			return editRequest{key: parts[0], mode: mode, source: parts[2]}, nil
		}
	}
	return editRequest{}, errors.New("bad arguments")
}

func openEditor(ctx *Context, kind game.EntityKind) {
	if !ctx.Player.CanBuild() {
		warn(ctx.Player, "Only builders or admins may use the editors.")
		return
	}
	router := ctx.Env.OLC
	if router == nil {
		warn(ctx.Player, "Online creation is not available.")
		return
	}
	req, err := parseEditRequest(ctx.Arg)
	if err != nil {
		warn(ctx.Player, "Usage: "+ctx.Command.Usage)
		return
	}
	if req.key == "" {
		if kind != game.KindRoom {
			warn(ctx.Player, "Usage: "+ctx.Command.Usage)
			return
		}
		req.key = string(ctx.Player.Room)
	}
	info, err := router.Kinds().Lookup(kind)
	if err != nil {
		warn(ctx.Player, fmt.Sprintf("There is no %s editor.", kind))
		return
	}
	if kind == game.KindRoom && !ctx.Player.IsAdmin {
		if zone, ok := ctx.World.ZoneForRoom(game.RoomID(req.key)); ok && !zone.AllowsBuilder(ctx.Player.Name) {
			warn(ctx.Player, fmt.Sprintf("You are not a builder of zone %s.", zone.Key))
			return
		}
	}

	seed, err := editSeed(ctx, info, req)
	if err != nil {
		warn(ctx.Player, err.Error())
		return
	}
	conn := olc.ForPlayer(router, ctx.Player)
	if _, err := conn.Open(kind, seed, req.key); err != nil {
		info.Ops.Destroy(seed)
		if errors.Is(err, olc.ErrBusy) {
			warn(ctx.Player, "You are already editing something.")
			return
		}
		ctx.Env.Logger.Error("open editor", zap.String("player", ctx.Player.Name), zap.String("kind", string(kind)), zap.Error(err))
		warn(ctx.Player, "The editor could not be opened.")
	}
}

// editSeed builds the working value for a new root session: a copy of the
// stored entity, a clone of a prototype, a template instance, or a fresh
// value.
func editSeed(ctx *Context, info *olc.KindInfo, req editRequest) (any, error) {
	kinds := ctx.Env.OLC.Kinds()
	existing, exists := ctx.World.CloneOf(info.Kind, req.key, info.Ops.Clone)
	if exists && req.mode != "" {
		info.Ops.Destroy(existing)
		return nil, fmt.Errorf("%s %s already exists.", capitalize(string(info.Kind)), req.key)
	}
	switch {
	case exists:
		return existing, nil
	case req.mode == "from":
		proto, ok := ctx.World.CloneOf(info.Kind, req.source, info.Ops.Clone)
		if !ok {
			return nil, fmt.Errorf("No %s named %s to copy.", info.Kind, req.source)
		}
		defer info.Ops.Destroy(proto)
		return olc.CloneFrom(kinds, info.Kind, proto, req.key)
	case req.mode == "template":
		source, ok := ctx.World.ScriptSource(req.source)
		if !ok {
			return nil, fmt.Errorf("No script named %s.", req.source)
		}
		value, err := olc.Instantiate(kinds, info.Kind, req.key, source)
		if err != nil {
			return nil, fmt.Errorf("Template %s failed: %v", req.source, err)
		}
		return value, nil
	}
	return info.New(req.key), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var OLCExport = Define(Definition{
	Name:        "olcexport",
	Usage:       "olcexport <kind> <key>",
	Description: "print an entity as a template script",
	Group:       GroupBuilder,
}, func(ctx *Context) bool {
	if !ctx.Player.CanBuild() {
		warn(ctx.Player, "Only builders or admins may export templates.")
		return false
	}
	if ctx.Env.OLC == nil {
		warn(ctx.Player, "Online creation is not available.")
		return false
	}
	parts := strings.Fields(ctx.Arg)
	if len(parts) != 2 {
		warn(ctx.Player, "Usage: olcexport <kind> <key>")
		return false
	}
	kind, ok := game.ParseKind(parts[0])
	if !ok {
		warn(ctx.Player, fmt.Sprintf("Unknown kind %s.", parts[0]))
		return false
	}
	info, err := ctx.Env.OLC.Kinds().Lookup(kind)
	if err != nil {
		warn(ctx.Player, fmt.Sprintf("There is no %s editor.", kind))
		return false
	}
	value, ok := ctx.World.CloneOf(kind, parts[1], info.Ops.Clone)
	if !ok {
		warn(ctx.Player, fmt.Sprintf("No %s named %s.", kind, parts[1]))
		return false
	}
	defer info.Ops.Destroy(value)
	script, err := olc.Export(ctx.Env.OLC.Kinds(), kind, value)
	if err != nil {
		warn(ctx.Player, err.Error())
		return false
	}
	ctx.Player.Output <- "\r\n" + strings.ReplaceAll(script, "\n", "\r\n")
	return false
})

var OLCList = Define(Definition{
	Name:        "olclist",
	Usage:       "olclist <kind>",
	Description: "list the stored keys of a kind",
	Group:       GroupBuilder,
}, func(ctx *Context) bool {
	if !ctx.Player.CanBuild() {
		warn(ctx.Player, "Only builders or admins may list entities.")
		return false
	}
	kind, ok := game.ParseKind(ctx.Arg)
	if !ok {
		names := make([]string, len(game.StoredKinds))
		for i, k := range game.StoredKinds {
			names[i] = string(k)
		}
		warn(ctx.Player, "Usage: olclist <"+strings.Join(names, "|")+">")
		return false
	}
	keys := ctx.World.Keys(kind)
	if len(keys) == 0 {
		ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\nNo %ss yet.", kind))
		return false
	}
	highlighted := make([]string, len(keys))
	for i, key := range keys {
		highlighted[i] = game.HighlightKey(key)
	}
	ctx.Player.Output <- game.Ansi(fmt.Sprintf("\r\n%ss: %s", capitalize(string(kind)), strings.Join(highlighted, ", ")))
	return false
})
