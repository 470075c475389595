// Package reloading implements ReloadingModel: a wrapper that watches a directory for model
// generation files matching a basename pattern and atomically swaps the wrapped backend when
// a newer generation appears (spec §3 "ReloadingModel", §4.4).
package reloading

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pattern is a parsed "<prefix>%d<suffix>" basename pattern (spec §4.4, §6 "Reloading
// pattern string"): exactly one %d, literal text elsewhere, matching whole basenames only.
type Pattern struct {
	Dir    string
	Prefix string
	Suffix string
}

// ParsePattern splits path into a directory and a "<prefix>%d<suffix>" basename pattern.
// Parsing failures (no %d, more than one %d, or a literal % elsewhere) are fatal at
// factory-creation time, per spec §4.4.
func ParsePattern(path string) (Pattern, error) {
	dir, base := splitDir(path)
	count := strings.Count(base, "%")
	if count == 0 {
		return Pattern{}, errors.Errorf("reloading: pattern %q has no %%d placeholder", path)
	}
	if count > 1 {
		return Pattern{}, errors.Errorf("reloading: pattern %q has more than one '%%', only a single %%d is allowed", path)
	}
	idx := strings.Index(base, "%d")
	if idx < 0 {
		return Pattern{}, errors.Errorf("reloading: pattern %q has a '%%' that is not '%%d'", path)
	}
	return Pattern{Dir: dir, Prefix: base[:idx], Suffix: base[idx+2:]}, nil
}

func splitDir(path string) (dir, base string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ".", path
	}
	return path[:idx], path[idx+1:]
}

// Match reports whether basename matches p, returning the parsed generation number. Partial
// prefix matches (a basename that merely starts with Prefix but whose suffix doesn't line up,
// or whose middle isn't purely digits) are rejected.
func (p Pattern) Match(basename string) (generation int, ok bool) {
	if !strings.HasPrefix(basename, p.Prefix) || !strings.HasSuffix(basename, p.Suffix) {
		return 0, false
	}
	if len(basename) < len(p.Prefix)+len(p.Suffix) {
		// Prefix and Suffix overlap (e.g. Suffix is itself a suffix of Prefix): a basename
		// short enough to satisfy both HasPrefix and HasSuffix at once still isn't a match.
		return 0, false
	}
	middle := basename[len(p.Prefix) : len(basename)-len(p.Suffix)]
	if middle == "" {
		return 0, false
	}
	for _, r := range middle {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(middle)
	if err != nil {
		return 0, false
	}
	return n, true
}
