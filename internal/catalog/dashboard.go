package catalog

import (
	"sort"
	"strings"

	"flowmark/internal/graphkernel"
	"flowmark/internal/markup"
)

// ProcedureCounts is spec §4.5's "procedure counts (total, unique, bot,
// multi, employee)".
type ProcedureCounts struct {
	Total    int
	Unique   int
	Bot      int
	Multi    int
	Employee int
}

// GraphCounts is spec §4.5's "unique graph count ... with bot/multi
// splits".
type GraphCounts struct {
	Total int
	Bot   int
	Multi int
}

// LinkingProcedure is a top-N cross-graph occurrence entry.
type LinkingProcedure struct {
	ProcedureID string
	GraphCount  int
	EdgeDegree  int
}

// OverloadedService is a top-N entry ranked by cycle count, block count,
// in-team merge nodes, then procedure count.
type OverloadedService struct {
	ServiceKey    string
	CycleCount    int
	BlockCount    int
	MergeNodes    int
	ProcedureCount int
}

// FlowOrderedProcedure names one procedure in the dashboard's
// flow-preserving breakdown (spec §4.5: "sort by component, then by flow
// level within component, then by stable order hint").
type FlowOrderedProcedure struct {
	ProcedureID string
	Component   int
	Level       int
}

// CrossTeamGraphDashboard is BuildCrossTeamGraphDashboard's result record.
type CrossTeamGraphDashboard struct {
	MarkupTypeCounts      map[string]int
	Graphs                GraphCounts
	Procedures            ProcedureCounts
	InternalIntersections int
	ExternalIntersections int
	TopLinkingProcedures  []LinkingProcedure
	TopOverloadedServices []OverloadedService
	FlowOrder             []FlowOrderedProcedure
}

// DashboardConfig parameterizes the top-N cutoffs.
type DashboardConfig struct {
	TopLinkingProcedures  int
	TopOverloadedServices int
}

// DefaultDashboardConfig returns a reasonable top-10 cutoff for both
// rankings.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{TopLinkingProcedures: 10, TopOverloadedServices: 10}
}

// BuildCrossTeamGraphDashboard implements spec §4.5
// "BuildCrossTeamGraphDashboard": selected is the scoped document set,
// all is the context set used for markup-type counts.
func BuildCrossTeamGraphDashboard(selected, all []*markup.Document, cfg DashboardConfig) CrossTeamGraphDashboard {
	dash := CrossTeamGraphDashboard{MarkupTypeCounts: make(map[string]int)}

	for _, d := range all {
		dash.MarkupTypeCounts[d.MarkupType]++
	}

	mergedGraph := make(map[string][]string)
	procSeen := make(map[string]bool)
	serviceOfProc := make(map[string][]string) // procedure -> service keys it belongs to
	procGraphCount := make(map[string]int)       // how many documents' graphs a procedure appears in
	procEdgeDegree := make(map[string]int)
	serviceBlockCount := make(map[string]int)
	serviceProcCount := make(map[string]int)
	serviceMergeNodes := make(map[string]int)

	for _, d := range selected {
		seenInDoc := make(map[string]bool)
		for src, targets := range d.ProcedureGraph {
			mergedGraph[src] = append(mergedGraph[src], targets...)
			markProcSeen(src, seenInDoc)
			procEdgeDegree[src] += len(targets)
			for _, t := range targets {
				markProcSeen(t, seenInDoc)
				procEdgeDegree[t]++
			}
		}
		for id := range seenInDoc {
			procGraphCount[id]++
		}

		for _, p := range d.Procedures {
			if !procSeen[p.ID] {
				procSeen[p.ID] = true
				dash.Procedures.Unique++
			}
			dash.Procedures.Total++
			lowerID := strings.ToLower(p.ID)
			if strings.Contains(lowerID, "bot") {
				dash.Procedures.Bot++
			}
			if strings.Contains(lowerID, "multi") {
				dash.Procedures.Multi++
			}
			if strings.Contains(lowerID, "employee") {
				dash.Procedures.Employee++
			}

			services := procedureServiceKeys(d, p)
			serviceOfProc[p.ID] = services
			for _, svc := range services {
				serviceProcCount[svc]++
				serviceBlockCount[svc] += len(p.AllBlockIDs())
			}
			if len(services) > 1 {
				if isInternalIntersection(d) {
					dash.InternalIntersections++
				} else {
					dash.ExternalIntersections++
				}
				for _, svc := range services {
					serviceMergeNodes[svc]++
				}
			}
		}
	}

	nodes := make([]string, 0, len(mergedGraph))
	seenNode := make(map[string]bool)
	for k, targets := range mergedGraph {
		if !seenNode[k] {
			seenNode[k] = true
			nodes = append(nodes, k)
		}
		for _, t := range targets {
			if !seenNode[t] {
				seenNode[t] = true
				nodes = append(nodes, t)
			}
		}
	}
	sort.Strings(nodes)
	components := graphkernel.WeakComponents(nodes, mergedGraph, nil)
	dash.Graphs.Total = len(components)
	for _, comp := range components {
		if componentHasBotStart(comp) {
			dash.Graphs.Bot++
			if componentHasKeyword(comp, "multi") {
				dash.Graphs.Multi++
			}
		}
	}

	serviceCycleCount := make(map[string]int)
	for _, e := range graphkernel.CycleEdges(nodes, mergedGraph) {
		seen := make(map[string]bool)
		for _, svc := range serviceOfProc[e.From] {
			seen[svc] = true
		}
		for _, svc := range serviceOfProc[e.To] {
			seen[svc] = true
		}
		for svc := range seen {
			serviceCycleCount[svc]++
		}
	}

	dash.TopLinkingProcedures = topLinkingProcedures(procGraphCount, procEdgeDegree, cfg.TopLinkingProcedures)
	dash.TopOverloadedServices = topOverloadedServices(serviceCycleCount, serviceBlockCount, serviceProcCount, serviceMergeNodes, cfg.TopOverloadedServices)
	dash.FlowOrder = flowOrder(components, mergedGraph)

	return dash
}

func markProcSeen(id string, seen map[string]bool) { seen[id] = true }

func componentHasKeyword(comp []string, kw string) bool {
	for _, id := range comp {
		if strings.Contains(strings.ToLower(id), kw) {
			return true
		}
	}
	return false
}

func procedureServiceKeys(doc *markup.Document, proc markup.Procedure) []string {
	meta := doc.ProcedureMeta[proc.ID]
	if svcs, ok := meta["services"].([]interface{}); ok && len(svcs) > 0 {
		var out []string
		for _, s := range svcs {
			if str, ok := s.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if doc.ServiceName != "" {
		return []string{doc.ServiceName}
	}
	return nil
}

// isInternalIntersection reports whether a multi-service procedure's
// intersection stays within its own document's team: without a
// per-service team map in the document model, the only signal available
// is whether the owning document declares a team at all.
func isInternalIntersection(doc *markup.Document) bool {
	return doc.TeamName != ""
}

func topLinkingProcedures(graphCount, edgeDegree map[string]int, topN int) []LinkingProcedure {
	var out []LinkingProcedure
	for id, count := range graphCount {
		if count < 2 {
			continue // "linking" means it appears in more than one graph
		}
		out = append(out, LinkingProcedure{ProcedureID: id, GraphCount: count, EdgeDegree: edgeDegree[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GraphCount != out[j].GraphCount {
			return out[i].GraphCount > out[j].GraphCount
		}
		if out[i].EdgeDegree != out[j].EdgeDegree {
			return out[i].EdgeDegree > out[j].EdgeDegree
		}
		return out[i].ProcedureID < out[j].ProcedureID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topOverloadedServices(cycleCount, blockCount, procCount, mergeNodes map[string]int, topN int) []OverloadedService {
	keys := make([]string, 0, len(procCount))
	for k := range procCount {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []OverloadedService
	for _, k := range keys {
		out = append(out, OverloadedService{
			ServiceKey:     k,
			CycleCount:     cycleCount[k],
			BlockCount:     blockCount[k],
			MergeNodes:     mergeNodes[k],
			ProcedureCount: procCount[k],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CycleCount != b.CycleCount {
			return a.CycleCount > b.CycleCount
		}
		if a.BlockCount != b.BlockCount {
			return a.BlockCount > b.BlockCount
		}
		if a.MergeNodes != b.MergeNodes {
			return a.MergeNodes > b.MergeNodes
		}
		if a.ProcedureCount != b.ProcedureCount {
			return a.ProcedureCount > b.ProcedureCount
		}
		return a.ServiceKey < b.ServiceKey
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func flowOrder(components [][]string, adjacency map[string][]string) []FlowOrderedProcedure {
	var out []FlowOrderedProcedure
	for ci, comp := range components {
		levels := graphkernel.Levelize(comp, adjacency, nil)
		sorted := append([]string(nil), comp...)
		sort.Slice(sorted, func(i, j int) bool {
			if levels[sorted[i]] != levels[sorted[j]] {
				return levels[sorted[i]] < levels[sorted[j]]
			}
			return sorted[i] < sorted[j]
		})
		for _, id := range sorted {
			out = append(out, FlowOrderedProcedure{ProcedureID: id, Component: ci, Level: levels[id]})
		}
	}
	return out
}
