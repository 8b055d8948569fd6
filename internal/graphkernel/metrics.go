package graphkernel

// Metrics is the graph-theoretic summary spec §4.1 calls `GraphMetrics`:
// degree distributions, sources/sinks, branch/merge nodes, cycle count,
// weak-connectedness, and a representative cycle path.
type Metrics struct {
	VertexCount int
	EdgeCount   int
	InDegree    map[string]int
	OutDegree   map[string]int
	Sources     []string // in-degree 0, sorted
	Sinks       []string // out-degree 0, sorted
	BranchNodes     []string // out-degree > 1, sorted
	MergeNodes      []string // in-degree > 1, sorted
	CycleCount      int      // non-trivial SCCs + self-loops not already inside one
	WeaklyConnected bool
	CyclePath       []string // nil if acyclic
}

// ComputeMetrics computes Metrics for the given graph.
func ComputeMetrics(nodes []string, adjacency map[string][]string) Metrics {
	indeg := computeIndegree(nodes, adjacency)
	outdeg := computeOutdegree(nodes, adjacency)

	m := Metrics{
		VertexCount: len(nodes),
		InDegree:    indeg,
		OutDegree:   outdeg,
	}
	for _, n := range sortedStrings(nodes) {
		m.EdgeCount += len(adjacency[n])
		if indeg[n] == 0 {
			m.Sources = append(m.Sources, n)
		}
		if outdeg[n] == 0 {
			m.Sinks = append(m.Sinks, n)
		}
		if outdeg[n] > 1 {
			m.BranchNodes = append(m.BranchNodes, n)
		}
		if indeg[n] > 1 {
			m.MergeNodes = append(m.MergeNodes, n)
		}
	}

	sccs := stronglyConnectedComponents(nodes, adjacency)
	selfLoop := make(map[string]bool)
	for _, n := range nodes {
		for _, s := range adjacency[n] {
			if s == n {
				selfLoop[n] = true
			}
		}
	}
	for _, scc := range sccs {
		if len(scc) > 1 {
			m.CycleCount++
			for _, n := range scc {
				delete(selfLoop, n) // already counted via the non-trivial SCC
			}
		}
	}
	m.CycleCount += len(selfLoop)

	comps := WeakComponents(nodes, adjacency, nil)
	m.WeaklyConnected = len(comps) <= 1

	m.CyclePath = CyclePath(nodes, adjacency)
	return m
}
