package graphkernel

// CyclePath returns the first cycle found by a lexical-order DFS, as an
// ordered node list with start == end, or nil if the graph is acyclic
// (spec §4.1). The DFS itself is recursive: cycle paths in the graphs this
// kernel handles are short (procedures/blocks per document, spec §4.1
// complexity note), so recursion depth is bounded by the input size, not by
// an adversarial degenerate case.
func CyclePath(nodes []string, adjacency map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int, len(nodes))
	var dfsStack []string
	var found []string

	var visit func(n string) bool
	visit = func(n string) bool {
		state[n] = gray
		dfsStack = append(dfsStack, n)
		for _, s := range sortedStrings(adjacency[n]) {
			switch state[s] {
			case gray:
				idx := -1
				for i, v := range dfsStack {
					if v == s {
						idx = i
						break
					}
				}
				cyc := append([]string(nil), dfsStack[idx:]...)
				found = append(cyc, s)
				return true
			case white:
				if visit(s) {
					return true
				}
			}
		}
		dfsStack = dfsStack[:len(dfsStack)-1]
		state[n] = black
		return false
	}

	for _, n := range sortedStrings(nodes) {
		if state[n] == white {
			if visit(n) {
				return found
			}
		}
	}
	return nil
}
