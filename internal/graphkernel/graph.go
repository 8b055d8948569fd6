// Package graphkernel implements the directed-graph primitives the layout
// engine runs over procedures and blocks: weak components, Tarjan SCC /
// cycle-edge sets, cycle-path extraction, topological levelization, and a
// memoized reachability cache (spec §4.1).
//
// Every algorithm here is single-threaded, allocates no goroutines, and
// iterates nodes and successors in lexical order so that two calls over the
// same input produce bit-for-bit identical output (spec §5 "Ordering").
package graphkernel

import "sort"

// Edge is a directed edge in a graph keyed by string node IDs.
type Edge struct {
	From, To string
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func computeIndegree(nodes []string, adjacency map[string][]string) map[string]int {
	indeg := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indeg[n] = 0
	}
	for _, targets := range adjacency {
		for _, t := range targets {
			indeg[t]++
		}
	}
	return indeg
}

func computeOutdegree(nodes []string, adjacency map[string][]string) map[string]int {
	outdeg := make(map[string]int, len(nodes))
	for _, n := range nodes {
		outdeg[n] = len(adjacency[n])
	}
	return outdeg
}

// hintValue returns the order hint for id and whether one is present; an
// absent hint yields (0, false), which sortByHint uses to place unhinted
// nodes after every hinted one, mutually ordered by their own ID.
func hintValue(id string, orderHint map[string]int) (int, bool) {
	v, ok := orderHint[id]
	return v, ok
}

// sortByHint returns a copy of nodes sorted by orderHint ascending, falling
// back to lexical ID order for nodes with no hint or equal hints — this is
// the tie-break rule spec §4.1/§4.2 calls for throughout.
func sortByHint(nodes []string, orderHint map[string]int) []string {
	out := append([]string(nil), nodes...)
	sort.Slice(out, func(i, j int) bool {
		a, aok := hintValue(out[i], orderHint)
		b, bok := hintValue(out[j], orderHint)
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		default:
			return out[i] < out[j]
		}
	})
	return out
}
