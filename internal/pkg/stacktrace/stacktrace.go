// Package stacktrace trims goroutine dumps down to the frames inside this module.
package stacktrace

import (
	"strings"

	"github.com/samber/lo"
)

const marker = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a debug.Stack dump, innermost first, without duplicates.
func InternalPaths(stack []byte) []string {
	frames := lo.FilterMap(strings.Split(string(stack), "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		start := strings.Index(line, marker)
		if start == -1 || !strings.Contains(line, ".go:") {
			return "", false
		}

		loc := line[start+1:]
		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp]
		}
		return loc, strings.Contains(loc, ".go:")
	})

	return lo.Uniq(frames)
}
