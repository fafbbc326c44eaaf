package olc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// extraPrefix marks generation-script names that address extension fields.
const extraPrefix = "extra."

// ExportLine formats one assignment of a generation script.
func ExportLine(name, value string) string {
	return fmt.Sprintf("\tset(%q, %q)\n", name, value)
}

// FieldExporter is implemented by editors whose fields can be written to
// and read from generation scripts. Menu implements it.
type FieldExporter interface {
	ExportFields(value any) string
	ApplyField(value any, name, text string) error
}

// Export renders value as a generation script: a Go source file whose
// Build function recreates the value's fields and extension data.
func Export(kinds *Registry, kind Kind, value any) (string, error) {
	info, err := kinds.Lookup(kind)
	if err != nil {
		return "", err
	}
	fe, ok := info.Editor.(FieldExporter)
	if !ok {
		return "", fmt.Errorf("export %s: editor has no fields", kind)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// %s template\n", kind)
	b.WriteString("func Build(ctx map[string]any) {\n")
	b.WriteString("\tset := ctx[\"set\"].(func(string, string))\n")
	b.WriteString(fe.ExportFields(value))
	b.WriteString(info.Extender.ExportAll(value))
	b.WriteString("}\n")
	return b.String(), nil
}

// Instantiate creates a new value of kind keyed by key and runs the
// generation script source against it. Extension import steps run once
// the script has finished.
func Instantiate(kinds *Registry, kind Kind, key, source string) (any, error) {
	info, err := kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if info.New == nil {
		return nil, fmt.Errorf("instantiate %s: %w", kind, ErrNoBacking)
	}
	fe, ok := info.Editor.(FieldExporter)
	if !ok {
		return nil, fmt.Errorf("instantiate %s: editor has no fields", kind)
	}
	build, err := compileBuild(source)
	if err != nil {
		return nil, err
	}

	value := info.New(key)
	var errs []error
	set := func(name, text string) {
		if extra, ok := strings.CutPrefix(name, extraPrefix); ok {
			ext, ok := value.(Extensible)
			if !ok {
				errs = append(errs, fmt.Errorf("%s has no extension fields", kind))
				return
			}
			ext.SetExtra(extra, text)
			return
		}
		if err := fe.ApplyField(value, name, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := runBuild(build, map[string]any{"set": set, "key": key}); err != nil {
		info.Ops.Destroy(value)
		return nil, err
	}
	if len(errs) > 0 {
		info.Ops.Destroy(value)
		return nil, fmt.Errorf("instantiate %s %s: %w", kind, key, errors.Join(errs...))
	}
	if info.Rekey != nil {
		info.Rekey(value, key)
	}
	info.Extender.ImportAll(value)
	return value, nil
}

// CloneFrom copies proto into a new value keyed by key.
func CloneFrom(kinds *Registry, kind Kind, proto any, key string) (any, error) {
	info, err := kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if info.Rekey == nil {
		return nil, fmt.Errorf("clone %s: %w", kind, ErrNoBacking)
	}
	value := info.Ops.Clone(proto)
	info.Rekey(value, key)
	info.Extender.ImportAll(value)
	return value, nil
}

func compileBuild(source string) (func(map[string]any), error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}
	v, err := i.Eval("Build")
	if err != nil {
		return nil, fmt.Errorf("template has no Build function: %w", err)
	}
	build, ok := v.Interface().(func(map[string]any))
	if !ok {
		return nil, fmt.Errorf("template Build has unexpected type %T", v.Interface())
	}
	return build, nil
}

func runBuild(build func(map[string]any), ctx map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("template panicked: %v", r)
		}
	}()
	build(ctx)
	return nil
}
