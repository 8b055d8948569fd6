package catalog

import (
	"sort"
	"strconv"
	"strings"

	"flowmark/internal/markup"
	"flowmark/internal/palette"
)

// TeamProcedureGraphConfig parameterizes BuildTeamProcedureGraph (spec §6
// "BuildTeamProcedureGraph.build(..., merge_selected_markups,
// merge_node_min_chain_size, graph_level)").
type TeamProcedureGraphConfig struct {
	MergeSelectedMarkups  bool
	MergeNodeMinChainSize int
	GraphLevel            string // "procedure" | "service"
}

// DefaultTeamProcedureGraphConfig mirrors the layout engine's default
// chain-size threshold.
func DefaultTeamProcedureGraphConfig() TeamProcedureGraphConfig {
	return TeamProcedureGraphConfig{MergeSelectedMarkups: true, MergeNodeMinChainSize: 2, GraphLevel: "procedure"}
}

// BuildTeamProcedureGraph implements spec §4.5 "BuildTeamProcedureGraph":
// merges N documents into a single procedure_graph document.
func BuildTeamProcedureGraph(docs []*markup.Document, cfg TeamProcedureGraphConfig) *markup.Document {
	merged := &markup.Document{
		MarkupType:     "procedure_graph",
		ProcedureGraph: make(map[string][]string),
		BlockGraph:     make(map[string][]string),
		ProcedureMeta:  make(map[string]map[string]interface{}),
	}

	type accum struct {
		proc     markup.Procedure
		services map[string]bool
	}
	procedures := make(map[string]*accum)
	var order []string

	for di, doc := range docs {
		for _, p := range doc.Procedures {
			id := p.ID
			if !cfg.MergeSelectedMarkups {
				id = p.ID + "::doc" + strconv.Itoa(di)
			}
			a, ok := procedures[id]
			if !ok {
				a = &accum{proc: markup.Procedure{ID: id, Name: p.Name, EndBlockTypes: make(map[string]markup.EndType), Branches: make(map[string][]string), BlockIDToBlockName: make(map[string]string)}, services: make(map[string]bool)}
				procedures[id] = a
				order = append(order, id)
			}
			mergeProcedureInto(&a.proc, p)
			for _, svc := range procedureServiceKeys(doc, p) {
				a.services[svc] = true
			}
			if len(a.services) == 0 && doc.ServiceName != "" {
				a.services[doc.ServiceName] = true
			}

			graphID := id
			for _, t := range doc.ProcedureGraph[p.ID] {
				target := t
				if !cfg.MergeSelectedMarkups {
					target = t + "::doc" + strconv.Itoa(di)
				}
				merged.ProcedureGraph[graphID] = appendUnique(merged.ProcedureGraph[graphID], target)
			}
		}
	}

	sort.Strings(order)
	allServices := make(map[string]bool)
	for _, id := range order {
		for svc := range procedures[id].services {
			allServices[svc] = true
		}
	}
	var allServiceKeys []string
	for svc := range allServices {
		allServiceKeys = append(allServiceKeys, svc)
	}

	for _, id := range order {
		a := procedures[id]
		merged.Procedures = append(merged.Procedures, a.proc)

		services := make([]string, 0, len(a.services))
		for svc := range a.services {
			services = append(services, svc)
		}
		sort.Strings(services)

		meta := map[string]interface{}{}
		if len(services) > 0 {
			svcIface := make([]interface{}, len(services))
			for i, s := range services {
				svcIface[i] = s
			}
			meta["services"] = svcIface
			meta["color"] = palette.ServiceColor(services[0], allServiceKeys).Hex
		}
		meta["is_intersection"] = len(services) > 1
		merged.ProcedureMeta[id] = meta
	}

	dropIntermediateProceduresToFixpoint(merged)
	assignMergeChainMetadata(merged, cfg.MergeNodeMinChainSize)

	return merged
}

func mergeProcedureInto(dst *markup.Procedure, src markup.Procedure) {
	dst.StartBlockIDs = unionSorted(dst.StartBlockIDs, src.StartBlockIDs)
	dst.EndBlockIDs = unionSorted(dst.EndBlockIDs, src.EndBlockIDs)
	for _, id := range src.EndBlockIDs {
		t := src.EndBlockTypes[id]
		if t == "" {
			t = markup.Default
		}
		if existing, ok := dst.EndBlockTypes[id]; ok {
			dst.EndBlockTypes[id] = markup.MergeEndType(existing, t, true)
		} else {
			dst.EndBlockTypes[id] = t
		}
	}
	for src2, targets := range src.Branches {
		dst.Branches[src2] = unionSorted(dst.Branches[src2], targets)
	}
	for id, name := range src.BlockIDToBlockName {
		if _, exists := dst.BlockIDToBlockName[id]; !exists {
			dst.BlockIDToBlockName[id] = name // first-wins
		}
	}
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// dropIntermediateProceduresToFixpoint implements spec §4.5's
// intermediate-procedure removal: a procedure with no start blocks, no end
// blocks, exactly one incoming and one outgoing edge, and not on the
// merge node list is removed, its incoming edge rerouted to its
// successor. Iterates to fixpoint.
func dropIntermediateProceduresToFixpoint(doc *markup.Document) {
	for {
		indeg, outdeg := make(map[string]int), make(map[string]int)
		for src, targets := range doc.ProcedureGraph {
			outdeg[src] += len(targets)
			for _, t := range targets {
				indeg[t]++
			}
		}

		var toRemove string
		for _, p := range doc.Procedures {
			meta := doc.ProcedureMeta[p.ID]
			isMerge, _ := meta["is_intersection"].(bool)
			if isMerge {
				continue
			}
			if len(p.StartBlockIDs) != 0 || len(p.EndBlockIDs) != 0 {
				continue
			}
			if indeg[p.ID] == 1 && outdeg[p.ID] == 1 {
				toRemove = p.ID
				break
			}
		}
		if toRemove == "" {
			return
		}

		successor := doc.ProcedureGraph[toRemove][0]
		for src, targets := range doc.ProcedureGraph {
			for i, t := range targets {
				if t == toRemove {
					doc.ProcedureGraph[src] = append(append([]string{}, targets[:i]...), targets[i+1:]...)
					doc.ProcedureGraph[src] = appendUnique(doc.ProcedureGraph[src], successor)
				}
			}
		}
		delete(doc.ProcedureGraph, toRemove)
		delete(doc.ProcedureMeta, toRemove)

		var kept []markup.Procedure
		for _, p := range doc.Procedures {
			if p.ID != toRemove {
				kept = append(kept, p)
			}
		}
		doc.Procedures = kept
	}
}

// assignMergeChainMetadata computes merge_chain_group_id and
// merge_chain_members (spec §4.5) for procedures whose chains meet
// MergeNodeMinChainSize.
func assignMergeChainMetadata(doc *markup.Document, minChainSize int) {
	isMerge := make(map[string]bool)
	for id, meta := range doc.ProcedureMeta {
		if v, _ := meta["is_intersection"].(bool); v {
			isMerge[id] = true
		}
	}
	visited := make(map[string]bool)
	ids := make([]string, 0, len(isMerge))
	for id := range isMerge {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, start := range ids {
		if visited[start] {
			continue
		}
		chain := collectChain(start, isMerge, doc.ProcedureGraph, visited)
		if len(chain) < minChainSize {
			continue
		}
		sort.Strings(chain)
		gid := strings.Join(chain, "+")
		for _, id := range chain {
			meta := doc.ProcedureMeta[id]
			meta["merge_chain_group_id"] = gid
			members := make([]interface{}, len(chain))
			for i, c := range chain {
				members[i] = c
			}
			meta["merge_chain_members"] = members
		}
	}
}

func collectChain(start string, isMerge map[string]bool, adjacency map[string][]string, visited map[string]bool) []string {
	var chain []string
	var walk func(string)
	walk = func(id string) {
		if visited[id] || !isMerge[id] {
			return
		}
		visited[id] = true
		chain = append(chain, id)
		for _, next := range adjacency[id] {
			walk(next)
		}
	}
	walk(start)
	return chain
}
