package graphkernel

// tarjanFrame is one level of the explicit call stack used by the
// iterative Tarjan implementation below, in place of a recursive DFS that
// would be depth-bound by Go's goroutine stack.
type tarjanFrame struct {
	node        string
	succs       []string
	iter        int
	initialized bool
}

// stronglyConnectedComponents returns every SCC of the graph (including
// trivial, size-1 components), iterating nodes and successors in lexical
// order for determinism.
func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var tstack []string
	var sccs [][]string
	counter := 0

	for _, start := range sortedStrings(nodes) {
		if _, visited := index[start]; visited {
			continue
		}
		callStack := []*tarjanFrame{{node: start}}
		for len(callStack) > 0 {
			f := callStack[len(callStack)-1]
			if !f.initialized {
				f.initialized = true
				if _, visited := index[f.node]; !visited {
					index[f.node] = counter
					lowlink[f.node] = counter
					counter++
					tstack = append(tstack, f.node)
					onStack[f.node] = true
				}
				f.succs = sortedStrings(adjacency[f.node])
			}

			recursed := false
			for f.iter < len(f.succs) {
				succ := f.succs[f.iter]
				f.iter++
				if _, visited := index[succ]; !visited {
					callStack = append(callStack, &tarjanFrame{node: succ})
					recursed = true
					break
				} else if onStack[succ] {
					if index[succ] < lowlink[f.node] {
						lowlink[f.node] = index[succ]
					}
				}
			}
			if recursed {
				continue
			}

			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1]
				if lowlink[f.node] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[f.node]
				}
			}
			if lowlink[f.node] == index[f.node] {
				var component []string
				for {
					n := tstack[len(tstack)-1]
					tstack = tstack[:len(tstack)-1]
					onStack[n] = false
					component = append(component, n)
					if n == f.node {
						break
					}
				}
				sccs = append(sccs, component)
			}
		}
	}
	return sccs
}

// CycleEdges returns the set of edges (u,v) that lie inside a
// strongly-connected component of size >1, or are self-loops (spec §4.1).
// Iteration order is the lexical discovery order of (node, successor)
// pairs, which is also the set's insertion order.
func CycleEdges(nodes []string, adjacency map[string][]string) []Edge {
	sccs := stronglyConnectedComponents(nodes, adjacency)
	sccOf := make(map[string]int, len(nodes))
	sizeOf := make([]int, len(sccs))
	for i, scc := range sccs {
		sizeOf[i] = len(scc)
		for _, n := range scc {
			sccOf[n] = i
		}
	}

	var edges []Edge
	seen := make(map[Edge]bool)
	for _, n := range sortedStrings(nodes) {
		for _, s := range sortedStrings(adjacency[n]) {
			isCycle := n == s
			if !isCycle {
				if idN, ok := sccOf[n]; ok {
					if idS, ok2 := sccOf[s]; ok2 && idN == idS && sizeOf[idN] > 1 {
						isCycle = true
					}
				}
			}
			if !isCycle {
				continue
			}
			e := Edge{From: n, To: s}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}
