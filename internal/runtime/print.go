package runtime

import (
	"fmt"
	"sort"
	"strings"
)

// PrintOptions controls State.ToString's rendering (spec.md §6).
type PrintOptions struct {
	// StopID excludes any frame at or below this generation: only
	// bindings introduced by frames created after StopID are rendered.
	// Pass the ID of a previously returned State to print only what a
	// later Interpret call added.
	StopID int
}

// ToString pretty-prints every value binding introduced in frames newer
// than opts.StopID, oldest first, one `val name : type = value` line per
// binding (spec.md §6). Bindings within a single frame are rendered in
// alphabetical order: the map-based environment does not track source
// order, so this is a best-effort rendering rather than the exact
// declaration order of the original chunk.
func (s *State) ToString(opts PrintOptions) string {
	var frames []*State
	for f := s; f != nil && f.id > opts.StopID; f = f.parent {
		frames = append(frames, f)
	}
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}

	var sb strings.Builder
	for _, f := range frames {
		names := make([]string, 0, len(f.dynamic))
		for n := range f.dynamic {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, name := range names {
			typ := "_"
			if sc, ok := f.values[name]; ok && sc.Type != nil {
				typ = sc.Type.String()
			}
			fmt.Fprintf(&sb, "val %s : %s = %s\n", name, typ, f.dynamic[name].String())
		}
	}
	return sb.String()
}
