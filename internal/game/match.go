package game

import "strings"

// Directions lists the canonical exit directions in display order.
var Directions = []string{"north", "east", "south", "west", "up", "down", "northeast", "northwest", "southeast", "southwest"}

var directionAliases = map[string]string{
	"n":  "north",
	"e":  "east",
	"s":  "south",
	"w":  "west",
	"u":  "up",
	"d":  "down",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
}

// NormalizeDirection resolves abbreviations and unique prefixes of the
// canonical directions. Custom direction names (for example "portal") are
// returned lower-cased when they contain no spaces.
func NormalizeDirection(input string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" || strings.ContainsAny(normalized, " \t") {
		return "", false
	}
	if full, ok := directionAliases[normalized]; ok {
		return full, true
	}
	if idx, ok := uniqueMatch(normalized, Directions, false); ok {
		return Directions[idx], true
	}
	return normalized, true
}

// uniqueMatch resolves target against candidate names case-insensitively,
// accepting an exact match or a unique prefix (optionally of any word). It
// returns the matched index, or -1 and false when nothing or more than one
// candidate matches.
func uniqueMatch(target string, names []string, matchWords bool) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(target))
	if normalized == "" {
		return -1, false
	}

	partial := -1
	ambiguous := false
	for i, name := range names {
		candidate := strings.ToLower(strings.TrimSpace(name))
		if candidate == normalized {
			return i, true
		}
		match := strings.HasPrefix(candidate, normalized)
		if !match && matchWords {
			for _, word := range strings.Fields(candidate) {
				if strings.HasPrefix(word, normalized) {
					match = true
					break
				}
			}
		}
		if !match {
			continue
		}
		if partial != -1 {
			ambiguous = true
			continue
		}
		partial = i
	}
	if partial != -1 && !ambiguous {
		return partial, true
	}
	return -1, false
}
