package layout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"flowmark/internal/geom"
	"flowmark/internal/graphkernel"
	"flowmark/internal/markup"
	"flowmark/internal/palette"
)

// serviceInfo is the per-procedure service membership derived from
// procedure_meta.services or the scalar service_name/team_name fallback
// (spec §4.3 step 4).
type serviceInfo struct {
	services []string // service keys, "" if none
	teamName string
	teamID   string
}

func procedureServiceInfo(doc *markup.Document, proc markup.Procedure) serviceInfo {
	info := serviceInfo{teamName: doc.TeamName, teamID: doc.TeamID}
	meta := doc.ProcedureMeta[proc.ID]
	if svcs, ok := meta["services"].([]interface{}); ok {
		for _, s := range svcs {
			if str, ok := s.(string); ok && str != "" {
				info.services = append(info.services, str)
			}
		}
	}
	if tn, ok := meta["team_name"].(string); ok && tn != "" {
		info.teamName = tn
	}
	if len(info.services) == 0 {
		if doc.ServiceName != "" {
			info.services = []string{doc.ServiceName}
		} else {
			info.services = []string{proc.ID} // standalone service node fallback
		}
	}
	return info
}

func isIntersection(doc *markup.Document, proc markup.Procedure) bool {
	meta := doc.ProcedureMeta[proc.ID]
	if v, ok := meta["is_intersection"].(bool); ok {
		return v
	}
	return len(procedureServiceInfo(doc, proc).services) > 1
}

// LayoutProcedureGraph is the C4 entry point (spec §4.3): it partitions the
// document's procedures into weak components, orders them, strips feedback
// edges, levelizes each component, and lays out frames, service zones,
// separators, and scenario panels.
func LayoutProcedureGraph(cfg Config, doc *markup.Document) LayoutPlan {
	nodes, adjacency, orderHint := procedureGraphWithSelfLoops(doc)
	components := graphkernel.WeakComponents(nodes, adjacency, orderHint)

	plan := LayoutPlan{
		Grids:        make(map[string]ProcedureGrid),
		ZoneDisabled: doc.MarkupType == "service_graph",
	}

	cursorY := 0.0
	for ci, comp := range components {
		compAdjacency, feedback := stripFeedbackEdges(comp, adjacency, orderHint)
		levels := graphkernel.Levelize(comp, compAdjacency, orderHint)

		compPlan, height := layoutComponent(cfg, doc, comp, compAdjacency, levels, feedback, geom.Point{X: cfg.ScenarioWidth + cfg.GapX, Y: cursorY})
		plan.Frames = append(plan.Frames, compPlan.Frames...)
		for k, v := range compPlan.Grids {
			plan.Grids[k] = v
		}
		plan.ServiceZones = append(plan.ServiceZones, compPlan.ServiceZones...)
		plan.Edges = append(plan.Edges, compPlan.Edges...)
		plan.Stats = append(plan.Stats, compPlan.Stats...)
		plan.MergeMarkers = append(plan.MergeMarkers, compPlan.MergeMarkers...)

		if !plan.ZoneDisabled {
			graphAdjacency := componentAdjacency(comp, doc.ProcedureGraph)
			plan.Scenarios = append(plan.Scenarios, buildScenarioPanel(cfg, doc, comp, levels, ci, len(components), geom.Point{X: 0, Y: cursorY}, height, graphAdjacency, compPlan.MergeMarkers))
		}

		if ci > 0 {
			plan.Separators = append(plan.Separators, SeparatorPlacement{
				Start: geom.Point{X: cfg.ScenarioWidth - cfg.SeparatorMarginX, Y: cursorY - cfg.GapY/2},
				End:   geom.Point{X: cfg.ScenarioWidth + cfg.GapX + 2000 + cfg.SeparatorMarginX, Y: cursorY - cfg.GapY/2},
			})
		}
		cursorY += height + cfg.LaneGap
	}
	return plan
}

// procedureGraphWithSelfLoops builds the node/adjacency/order-hint triple
// for weak-component partitioning (spec §4.3 step 1-2): isolated procedures
// (absent from procedure_graph entirely) get a self-loop so they still
// surface as their own singleton component, and the order hint is position
// in procedure_graph's key order followed by sorted residuals.
func procedureGraphWithSelfLoops(doc *markup.Document) ([]string, map[string][]string, map[string]int) {
	known := make(map[string]bool, len(doc.Procedures))
	for _, p := range doc.Procedures {
		known[p.ID] = true
	}
	adjacency := make(map[string][]string, len(doc.ProcedureGraph))
	inGraph := make(map[string]bool)
	hintOrder := make([]string, 0, len(doc.ProcedureGraph))
	for k := range doc.ProcedureGraph {
		hintOrder = append(hintOrder, k)
	}
	// Preserve map iteration as "position in procedure_graph keys" by
	// sorting here since Go map order is random; the spec's "position in
	// keys" assumes an ordered source, so lexical order is the
	// deterministic stand-in (consistent with this kernel's lexical-order
	// convention, spec §4.1).
	sort.Strings(hintOrder)
	for _, k := range hintOrder {
		adjacency[k] = doc.ProcedureGraph[k]
		inGraph[k] = true
		for _, t := range doc.ProcedureGraph[k] {
			inGraph[t] = true
		}
	}
	for id := range known {
		inGraph[id] = true
	}

	var residuals []string
	for id := range inGraph {
		found := false
		for _, h := range hintOrder {
			if h == id {
				found = true
				break
			}
		}
		if !found {
			residuals = append(residuals, id)
		}
	}
	sort.Strings(residuals)

	orderHint := make(map[string]int, len(inGraph))
	idx := 0
	for _, id := range hintOrder {
		orderHint[id] = idx
		idx++
	}
	for _, id := range residuals {
		orderHint[id] = idx
		idx++
	}

	nodes := make([]string, 0, len(inGraph))
	for id := range inGraph {
		nodes = append(nodes, id)
		if len(adjacency[id]) == 0 && !isReferencedAsTarget(id, adjacency) {
			adjacency[id] = []string{id} // isolated: self-loop
		}
	}
	sort.Strings(nodes)
	return nodes, adjacency, orderHint
}

// componentAdjacency restricts graph (the document's real procedure_graph,
// not the self-loop-augmented partitioning graph) to edges whose endpoints
// both fall in comp, for computing that component's own cycle/connectivity
// metrics (spec §4.3 step 8's "component_graph_properties").
func componentAdjacency(comp []string, graph map[string][]string) map[string][]string {
	compSet := make(map[string]bool, len(comp))
	for _, n := range comp {
		compSet[n] = true
	}
	out := make(map[string][]string, len(comp))
	for _, u := range comp {
		for _, v := range graph[u] {
			if compSet[v] {
				out[u] = append(out[u], v)
			}
		}
	}
	return out
}

func isReferencedAsTarget(id string, adjacency map[string][]string) bool {
	for _, targets := range adjacency {
		for _, t := range targets {
			if t == id {
				return true
			}
		}
	}
	return false
}

// stripFeedbackEdges removes edges within the component that close a cycle
// relative to orderHint (spec §4.3 step 3): an edge (u,v) is feedback if
// hint(v) <= hint(u).
func stripFeedbackEdges(comp []string, adjacency map[string][]string, orderHint map[string]int) (map[string][]string, map[string]bool) {
	compSet := make(map[string]bool, len(comp))
	for _, n := range comp {
		compSet[n] = true
	}
	out := make(map[string][]string, len(comp))
	feedback := make(map[string]bool)
	for _, u := range comp {
		for _, v := range adjacency[u] {
			if !compSet[v] {
				continue
			}
			if u == v || orderHint[v] <= orderHint[u] {
				feedback[u+"|"+v] = true
				continue
			}
			out[u] = append(out[u], v)
		}
	}
	return out, feedback
}

type layoutComponentResult struct {
	Frames       []FramePlacement
	Grids        map[string]ProcedureGrid
	ServiceZones []ServiceZonePlacement
	Edges        []EdgePlacement
	Stats        []ProcedureStat
	MergeMarkers []MergeMarkerPlacement
}

func layoutComponent(cfg Config, doc *markup.Document, comp []string, adjacency map[string][]string, levels map[string]int, feedback map[string]bool, origin geom.Point) (layoutComponentResult, float64) {
	result := layoutComponentResult{Grids: make(map[string]ProcedureGrid)}

	byLevel := make(map[int][]string)
	maxLevel := 0
	for _, n := range comp {
		lvl := levels[n]
		byLevel[lvl] = append(byLevel[lvl], n)
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	allServiceKeys := collectServiceKeys(doc, comp)
	zonesEnabled := !markupIsServiceGraph(doc) && len(allServiceKeys) >= 2

	frameSize := func(procID string) geom.Size {
		if markupIsServiceGraph(doc) {
			count := procedureCount(doc, procID)
			scale := 1 + 0.05*float64(count-1)
			return geom.Size{W: cfg.BlockSize.W * scale, H: cfg.BlockSize.H * scale}
		}
		return cfg.BlockSize
	}

	positions := make(map[string]geom.Point)
	serviceLoad := make(map[string]int)
	serviceOf := make(map[string]string)

	for lvl := 0; lvl <= maxLevel; lvl++ {
		ids := append([]string(nil), byLevel[lvl]...)
		sort.Strings(ids)
		y := origin.Y
		for _, id := range ids {
			sz := frameSize(id)
			x := origin.X + float64(lvl)*(cfg.BlockSize.W+cfg.LaneGap)
			positions[id] = geom.Point{X: x, Y: y}
			y += sz.H + cfg.GapY

			info := procedureServiceInfo(doc, mustProc(doc, id))
			svc := leastLoadedService(info.services, serviceLoad)
			serviceOf[id] = svc
			serviceLoad[svc]++
		}
	}

	crosses := false
	if zonesEnabled {
		crosses = edgesCrossInLayout(adjacency, positions, frameSize)
	}

	var zones []ServiceZonePlacement
	if zonesEnabled {
		if crosses || zonesOverlapPartially(serviceOf, positions, frameSize, cfg) {
			positions, serviceOf = layoutServiceBands(cfg, doc, comp, byLevel, maxLevel, origin, frameSize)
		}
		zones = buildServiceZones(cfg, doc, serviceOf, positions, frameSize)
	}

	maxX, maxY := origin.X, origin.Y
	for _, id := range comp {
		proc, ok := doc.ProcedureByID(id)
		if !ok {
			proc = markup.Procedure{ID: id}
		}
		pos := positions[id]
		grid := LayoutProcedureGrid(cfg, proc, pos)
		result.Grids[id] = grid
		result.Frames = append(result.Frames, FramePlacement{ProcedureID: id, Origin: grid.Frame.Origin, Size: grid.Frame.Size})
		if grid.Frame.MaxX() > maxX {
			maxX = grid.Frame.MaxX()
		}
		if grid.Frame.MaxY() > maxY {
			maxY = grid.Frame.MaxY()
		}
		result.Stats = append(result.Stats, computeProcedureStat(proc))
		if isIntersection(doc, proc) {
			result.MergeMarkers = append(result.MergeMarkers, MergeMarkerPlacement{ProcedureID: id})
		}
	}

	for _, u := range append([]string(nil), comp...) {
		for _, v := range adjacency[u] {
			result.Edges = append(result.Edges, EdgePlacement{From: u, To: v})
		}
	}
	for key := range feedback {
		parts := strings.SplitN(key, "|", 2)
		if len(parts) == 2 {
			result.Edges = append(result.Edges, EdgePlacement{From: parts[0], To: parts[1], Cycle: true})
		}
	}
	sort.Slice(result.Edges, func(i, j int) bool {
		if result.Edges[i].From != result.Edges[j].From {
			return result.Edges[i].From < result.Edges[j].From
		}
		return result.Edges[i].To < result.Edges[j].To
	})

	assignMergeChainGroups(result.MergeMarkers, adjacency)

	result.ServiceZones = zones
	return result, maxY - origin.Y
}

func mustProc(doc *markup.Document, id string) markup.Procedure {
	p, ok := doc.ProcedureByID(id)
	if !ok {
		return markup.Procedure{ID: id}
	}
	return p
}

func markupIsServiceGraph(doc *markup.Document) bool { return doc.MarkupType == "service_graph" }

func procedureCount(doc *markup.Document, procID string) int {
	meta := doc.ProcedureMeta[procID]
	if v, ok := meta["procedure_count"].(float64); ok {
		return int(v)
	}
	if v, ok := meta["procedure_count"].(int); ok {
		return v
	}
	return 1
}

func collectServiceKeys(doc *markup.Document, comp []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range comp {
		proc, ok := doc.ProcedureByID(id)
		if !ok {
			continue
		}
		for _, s := range procedureServiceInfo(doc, proc).services {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func leastLoadedService(services []string, load map[string]int) string {
	best := services[0]
	bestLoad := load[best]
	for _, s := range services[1:] {
		if load[s] < bestLoad {
			best, bestLoad = s, load[s]
		}
	}
	return best
}

func edgesCrossInLayout(adjacency map[string][]string, positions map[string]geom.Point, frameSize func(string) geom.Size) bool {
	type seg struct{ a, b geom.Point }
	var segs []seg
	for u, targets := range adjacency {
		for _, v := range targets {
			pu, pv := positions[u], positions[v]
			su, sv := frameSize(u), frameSize(v)
			segs = append(segs, seg{
				a: geom.Point{X: pu.X + su.W, Y: pu.Y + su.H/2},
				b: geom.Point{X: pv.X, Y: pv.Y + sv.H/2},
			})
		}
	}
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if geom.SegmentsCross(segs[i].a, segs[i].b, segs[j].a, segs[j].b) {
				return true
			}
		}
	}
	return false
}

func zonesOverlapPartially(serviceOf map[string]string, positions map[string]geom.Point, frameSize func(string) geom.Size, cfg Config) bool {
	zones := buildServiceZones(cfg, nil, serviceOf, positions, frameSize)
	for i := 0; i < len(zones); i++ {
		for j := i + 1; j < len(zones); j++ {
			a, b := zones[i].Rect(), zones[j].Rect()
			if a.PartiallyOverlaps(b) {
				return true
			}
		}
	}
	return false
}

func buildServiceZones(cfg Config, doc *markup.Document, serviceOf map[string]string, positions map[string]geom.Point, frameSize func(string) geom.Size) []ServiceZonePlacement {
	members := make(map[string][]string)
	for id, svc := range serviceOf {
		members[svc] = append(members[svc], id)
	}
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var zones []ServiceZonePlacement
	for _, key := range keys {
		ids := members[key]
		sort.Strings(ids)
		minX, minY := positions[ids[0]].X, positions[ids[0]].Y
		maxX, maxY := minX, minY
		for _, id := range ids {
			p := positions[id]
			sz := frameSize(id)
			if p.X < minX {
				minX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.X+sz.W > maxX {
				maxX = p.X + sz.W
			}
			if p.Y+sz.H > maxY {
				maxY = p.Y + sz.H
			}
		}
		origin := geom.Point{X: minX - cfg.ServiceZonePadX, Y: minY - cfg.ServiceZonePadY - cfg.ServiceZoneLabelH - cfg.ServiceZoneLabelGap}
		size := geom.Size{
			W: (maxX - minX) + 2*cfg.ServiceZonePadX,
			H: (maxY - minY) + 2*cfg.ServiceZonePadY + cfg.ServiceZoneLabelH + cfg.ServiceZoneLabelGap,
		}
		color := ""
		if doc != nil {
			color = palette.ServiceColor(key, allDocServiceKeys(doc)).Hex
		}
		zones = append(zones, ServiceZonePlacement{
			ServiceKey:    key,
			ServiceName:   key,
			Color:         color,
			Origin:        origin,
			Size:          size,
			LabelOrigin:   origin,
			LabelSize:     geom.Size{W: size.W, H: cfg.ServiceZoneLabelH},
			LabelFontSize: 14,
			ProcedureIDs:  ids,
		})
	}
	assignZoneNestingDepth(zones, cfg)
	return zones
}

// assignZoneNestingDepth implements spec §4.3 step 6: when zone A contains
// zone B (eps tolerance), B's depth increases and gets extra border
// padding so nested borders stay visibly offset.
func assignZoneNestingDepth(zones []ServiceZonePlacement, cfg Config) {
	for i := range zones {
		depth := 0
		for j := range zones {
			if i == j {
				continue
			}
			if zones[j].Rect().Contains(zones[i].Rect()) {
				depth++
			}
		}
		zones[i].Depth = depth
		pad := float64(depth) * cfg.ServiceZoneBorderGapX
		zones[i].Origin.X -= pad
		zones[i].Origin.Y -= pad
		zones[i].Size.W += 2 * pad
		zones[i].Size.H += 2 * pad
	}
}

func allDocServiceKeys(doc *markup.Document) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range doc.Procedures {
		for _, s := range procedureServiceInfo(doc, p).services {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// layoutServiceBands implements spec §4.3 step 5's service-band fallback:
// one horizontal band per service, ordered by (team_name, service_name,
// team_id) case-insensitively, stacked vertically within the band by
// level.
func layoutServiceBands(cfg Config, doc *markup.Document, comp []string, byLevel map[int][]string, maxLevel int, origin geom.Point, frameSize func(string) geom.Size) (map[string]geom.Point, map[string]string) {
	type bandKey struct{ team, service, teamID string }
	bandMembers := make(map[bandKey][]string)
	infoOf := make(map[string]serviceInfo)

	levelOf := make(map[string]int, len(comp))
	for lvl, ids := range byLevel {
		for _, id := range ids {
			levelOf[id] = lvl
		}
	}

	for _, id := range comp {
		proc, ok := doc.ProcedureByID(id)
		if !ok {
			continue
		}
		info := procedureServiceInfo(doc, proc)
		infoOf[id] = info
		svc := info.services[0]
		bandMembers[bandKey{info.teamName, svc, info.teamID}] = append(bandMembers[bandKey{info.teamName, svc, info.teamID}], id)
	}
	keys := make([]bandKey, 0, len(bandMembers))
	for k := range bandMembers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if lc(a.team) != lc(b.team) {
			return lc(a.team) < lc(b.team)
		}
		if lc(a.service) != lc(b.service) {
			return lc(a.service) < lc(b.service)
		}
		return a.teamID < b.teamID
	})

	positions := make(map[string]geom.Point)
	serviceOf := make(map[string]string)
	bandY := origin.Y
	for _, key := range keys {
		ids := bandMembers[key]
		byLvl := make(map[int][]string)
		maxCount := 0
		for _, id := range ids {
			lvl := levelOf[id]
			byLvl[lvl] = append(byLvl[lvl], id)
			if len(byLvl[lvl]) > maxCount {
				maxCount = len(byLvl[lvl])
			}
		}
		topPad := cfg.ServiceZonePadY + cfg.ServiceZoneLabelH + cfg.ServiceZoneLabelGap
		bottomPad := cfg.ServiceZonePadY

		for lvl := 0; lvl <= maxLevel; lvl++ {
			lvlIDs := append([]string(nil), byLvl[lvl]...)
			sort.Strings(lvlIDs)
			x := origin.X + float64(lvl)*(cfg.BlockSize.W+cfg.LaneGap)
			y := bandY + topPad
			for _, id := range lvlIDs {
				positions[id] = geom.Point{X: x, Y: y}
				serviceOf[id] = key.service
				y += frameSize(id).H + cfg.GapY
			}
		}
		bandHeight := float64(maxCount)*(cfg.BlockSize.H+cfg.GapY) + topPad + bottomPad
		bandY += bandHeight
	}
	return positions, serviceOf
}

func lc(s string) string { return strings.ToLower(s) }

func computeProcedureStat(proc markup.Procedure) ProcedureStat {
	stat := ProcedureStat{ProcedureID: proc.ID, Starts: len(proc.StartBlockIDs)}
	for _, targets := range proc.Branches {
		stat.Branches += len(targets)
	}
	for _, id := range proc.EndBlockIDs {
		if proc.EndBlockTypes[id] == markup.EndTypePostpone {
			stat.Postpones++
		} else {
			stat.Ends++
		}
	}
	return stat
}

// assignMergeChainGroups implements the merge-chain detection pass (spec
// §4.3 "Merge-chain detection"): a maximal connected run of merge
// procedures sharing a chain gets one group ID and is numbered once; lone
// merge procedures are numbered individually.
func assignMergeChainGroups(markers []MergeMarkerPlacement, adjacency map[string][]string) {
	if len(markers) == 0 {
		return
	}
	isMerge := make(map[string]bool, len(markers))
	for _, m := range markers {
		isMerge[m.ProcedureID] = true
	}
	visited := make(map[string]bool)
	groupOf := make(map[string]string)
	sortedIDs := make([]string, 0, len(markers))
	for _, m := range markers {
		sortedIDs = append(sortedIDs, m.ProcedureID)
	}
	sort.Strings(sortedIDs)

	for _, start := range sortedIDs {
		if visited[start] {
			continue
		}
		chain := collectMergeChain(start, isMerge, adjacency, visited)
		if len(chain) >= 2 {
			sort.Strings(chain)
			gid := strings.Join(chain, "+")
			for _, id := range chain {
				groupOf[id] = gid
			}
		}
	}

	idx := 1
	chainIndex := make(map[string]int)
	for i := range markers {
		id := markers[i].ProcedureID
		gid, inChain := groupOf[id]
		if inChain {
			markers[i].MergeChainGroupID = gid
			if n, ok := chainIndex[gid]; ok {
				markers[i].Index = n
				continue
			}
			chainIndex[gid] = idx
		}
		markers[i].Index = idx
		idx++
	}
}

func collectMergeChain(start string, isMerge map[string]bool, adjacency map[string][]string, visited map[string]bool) []string {
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

func buildScenarioPanel(cfg Config, doc *markup.Document, comp []string, levels map[string]int, index, total int, origin geom.Point, height float64, graphAdjacency map[string][]string, mergeMarkers []MergeMarkerPlacement) ScenarioPlacement {
	title := "Граф"
	if total > 1 {
		title = "Граф " + strconv.Itoa(index+1)
	}

	starts, ends, branches := 0, 0, 0
	for _, id := range comp {
		proc, ok := doc.ProcedureByID(id)
		if !ok {
			continue
		}
		starts += len(proc.StartBlockIDs)
		ends += len(proc.EndBlockIDs)
		for _, targets := range proc.Branches {
			branches += len(targets)
		}
	}

	teamServices := make(map[string]map[string]bool)
	for _, id := range comp {
		proc, ok := doc.ProcedureByID(id)
		if !ok {
			continue
		}
		info := procedureServiceInfo(doc, proc)
		if teamServices[info.teamName] == nil {
			teamServices[info.teamName] = make(map[string]bool)
		}
		for _, s := range info.services {
			teamServices[info.teamName][s] = true
		}
	}
	teams := make([]string, 0, len(teamServices))
	for t := range teamServices {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	var lines []ScenarioProcedureLine
	for _, team := range teams {
		lines = append(lines, ScenarioProcedureLine{IsTeamHeader: true, Text: team})
		services := make([]string, 0, len(teamServices[team]))
		for s := range teamServices[team] {
			services = append(services, s)
		}
		sort.Slice(services, func(i, j int) bool { return lc(services[i]) < lc(services[j]) })
		for _, s := range services {
			lines = append(lines, ScenarioProcedureLine{Text: s, ServiceColor: palette.ServiceColor(s, allDocServiceKeys(doc)).Hex})
		}
	}

	metrics := graphkernel.ComputeMetrics(comp, graphAdjacency)
	bodyText, cycleText := componentGraphProperties(metrics)

	return ScenarioPlacement{
		Origin:         origin,
		Size:           geom.Size{W: cfg.ScenarioWidth, H: height},
		TitleText:      title,
		BodyText:       bodyText,
		CycleText:      cycleText,
		ProcedureLines: lines,
		MergeLines:     buildMergeLines(doc, mergeMarkers),
		Starts:         starts,
		Ends:           ends,
		Branches:       branches,
	}
}

// componentGraphProperties renders the properties preamble spec §4.3 step 8
// calls `component_graph_properties`: acyclic/weakly-connected summary plus
// a localized description of a representative cycle, if any.
func componentGraphProperties(m graphkernel.Metrics) (bodyText, cycleText string) {
	shape := "cyclic"
	if m.CycleCount == 0 {
		shape = "acyclic"
	}
	connectivity := "not weakly connected"
	if m.WeaklyConnected {
		connectivity = "weakly connected"
	}
	bodyText = fmt.Sprintf("%s, %s, %d cycle(s)", shape, connectivity, m.CycleCount)
	if len(m.CyclePath) > 0 {
		cycleText = "Cycle: " + strings.Join(m.CyclePath, " → ")
	}
	return bodyText, cycleText
}

// buildMergeLines implements spec §4.3 step 8's merge-nodes sub-panel: one
// group per merge chain (or lone merge procedure), labeled with the
// distinct set of contributing services, followed by a "(i) procedure_name"
// line per member using that marker's already-assigned overlay index.
func buildMergeLines(doc *markup.Document, mergeMarkers []MergeMarkerPlacement) []ScenarioMergeLine {
	if len(mergeMarkers) == 0 {
		return nil
	}

	type group struct {
		members []MergeMarkerPlacement
	}
	groups := make(map[string]*group)
	var order []string
	for _, m := range mergeMarkers {
		key := m.MergeChainGroupID
		if key == "" {
			key = "solo:" + m.ProcedureID
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, m)
	}
	sort.Strings(order)

	var lines []ScenarioMergeLine
	for _, key := range order {
		g := groups[key]
		sort.Slice(g.members, func(i, j int) bool {
			if g.members[i].Index != g.members[j].Index {
				return g.members[i].Index < g.members[j].Index
			}
			return g.members[i].ProcedureID < g.members[j].ProcedureID
		})

		type svcKey struct{ team, service string }
		seen := make(map[svcKey]bool)
		var labels []string
		for _, m := range g.members {
			proc, ok := doc.ProcedureByID(m.ProcedureID)
			if !ok {
				continue
			}
			info := procedureServiceInfo(doc, proc)
			for _, s := range info.services {
				sk := svcKey{info.teamName, s}
				if seen[sk] {
					continue
				}
				seen[sk] = true
				labels = append(labels, fmt.Sprintf("[%s] %s", info.teamName, s))
			}
		}
		sort.Slice(labels, func(i, j int) bool { return lc(labels[i]) < lc(labels[j]) })
		groupLabel := "> " + strings.Join(labels, " x ") + ":"

		for mi, m := range g.members {
			name := m.ProcedureID
			if proc, ok := doc.ProcedureByID(m.ProcedureID); ok && proc.Name != "" {
				name = proc.Name
			}
			label := ""
			if mi == 0 {
				label = groupLabel
			}
			lines = append(lines, ScenarioMergeLine{
				GroupLabel:  label,
				Index:       m.Index,
				ProcedureID: m.ProcedureID,
				Text:        fmt.Sprintf("(%d) %s", m.Index, name),
			})
		}
	}
	return lines
}
