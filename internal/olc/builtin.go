package olc

import (
	"fmt"
	"slices"
	"strings"

	"LumenForge/internal/game"
)

// Sectors lists the terrain types a room's sector extension accepts.
var Sectors = []string{"inside", "city", "field", "forest", "hills", "mountain", "water", "underwater", "air", "desert"}

// RegisterBuiltinExtensions installs the extensions every server carries.
func RegisterBuiltinExtensions(kinds *Registry) error {
	for _, b := range []struct {
		kind Kind
		key  string
		h    Handler
	}{
		{game.KindRoom, "sector", sectorExtension()},
		{game.KindObject, "bound", boundExtension()},
		{game.KindMobile, "keywords", keywordsExtension()},
	} {
		ext, err := kinds.Extender(b.kind)
		if err != nil {
			return err
		}
		if err := ext.Register(b.key, b.h); err != nil {
			return err
		}
	}
	return nil
}

func extras(v any) Extensible {
	ext, _ := v.(Extensible)
	return ext
}

func extensionLine(key, label, value string) string {
	return fmt.Sprintf("  %s) %-12s: %s\r\n", game.MenuKey(key), label, game.Style(value, game.AnsiCyan))
}

func sectorExtension() Handler {
	return &Native{
		RenderFunc: func(c *Conn, v any) {
			sector := extras(v).Extras().Extra("sector")
			if sector == "" {
				sector = Sectors[0]
			}
			c.SendText(extensionLine("sector", "Sector", sector))
		},
		ChooseFunc: func(c *Conn, v any) (ChooseResult, string) {
			c.SendText(fmt.Sprintf("\r\nSectors: %s\r\nEnter sector: ", strings.Join(Sectors, ", ")))
			return ChooseOK, "sector"
		},
		ParseFunc: func(c *Conn, v any, _, line string) bool {
			sector := strings.ToLower(strings.TrimSpace(line))
			if !slices.Contains(Sectors, sector) {
				return false
			}
			if sector == Sectors[0] {
				sector = ""
			}
			extras(v).SetExtra("sector", sector)
			return true
		},
		ExportFunc: func(v any) string {
			if sector := extras(v).Extras().Extra("sector"); sector != "" {
				return ExportLine(extraPrefix+"sector", sector)
			}
			return ""
		},
		ImportFunc: func(v any) {
			ext := extras(v)
			sector := strings.ToLower(ext.Extras().Extra("sector"))
			if !slices.Contains(Sectors, sector) || sector == Sectors[0] {
				sector = ""
			}
			ext.SetExtra("sector", sector)
		},
	}
}

func boundExtension() Handler {
	return &Native{
		RenderFunc: func(c *Conn, v any) {
			c.SendText(extensionLine("bound", "Soulbound", yesNo(extras(v).Extras().Extra("bound") != "")))
		},
		ChooseFunc: func(c *Conn, v any) (ChooseResult, string) {
			ext := extras(v)
			if ext.Extras().Extra("bound") != "" {
				ext.SetExtra("bound", "")
			} else {
				ext.SetExtra("bound", "yes")
			}
			return ChooseNone, ""
		},
		ExportFunc: func(v any) string {
			if extras(v).Extras().Extra("bound") == "" {
				return ""
			}
			return ExportLine(extraPrefix+"bound", "yes")
		},
	}
}

func keywordsExtension() Handler {
	return &Native{
		RenderFunc: func(c *Conn, v any) {
			c.SendText(extensionLine("keywords", "Keywords", game.Preview(extras(v).Extras().Extra("keywords"), 50)))
		},
		ChooseFunc: func(c *Conn, v any) (ChooseResult, string) {
			c.SendText("\r\nEnter keywords separated by spaces: ")
			return ChooseOK, "keywords"
		},
		ParseFunc: func(c *Conn, v any, _, line string) bool {
			extras(v).SetExtra("keywords", NormalizeKeywords(line))
			return true
		},
		ExportFunc: func(v any) string {
			if kw := extras(v).Extras().Extra("keywords"); kw != "" {
				return ExportLine(extraPrefix+"keywords", kw)
			}
			return ""
		},
		ImportFunc: func(v any) {
			ext := extras(v)
			ext.SetExtra("keywords", NormalizeKeywords(ext.Extras().Extra("keywords")))
		},
	}
}

// NormalizeKeywords lowercases, deduplicates and sorts a keyword list.
func NormalizeKeywords(text string) string {
	words := strings.Fields(strings.ToLower(text))
	slices.Sort(words)
	return strings.Join(slices.Compact(words), " ")
}
