package layout

import (
	"sort"

	"flowmark/internal/geom"
	"flowmark/internal/graphkernel"
	"flowmark/internal/markup"
)

// MarkerKind distinguishes a start marker from an end marker (spec §4.2
// step 4).
type MarkerKind int

const (
	MarkerStart MarkerKind = iota
	MarkerEnd
)

// BlockPlacement is the placed geometry of one block within a procedure
// frame.
type BlockPlacement struct {
	BlockID string
	Level   int
	Row     int
	Rect    geom.Rect
}

// MarkerPlacement is the placed geometry of a start or end marker.
type MarkerPlacement struct {
	BlockID string
	Kind    MarkerKind
	Rect    geom.Rect
}

// ProcedureGrid is the result of laying out one procedure's blocks and
// markers on a left-to-right layered grid (spec §4.2).
type ProcedureGrid struct {
	ProcedureID string
	Frame       geom.Rect
	Blocks      []BlockPlacement
	Markers     []MarkerPlacement
	// Cycle is the set of edges the kernel labeled as closing a cycle,
	// keyed "source|target" (used by the diagram converter's elbow-vs-
	// straight policy, spec §4.4 step 7).
	Cycle map[string]bool
	// BlockEdges is every branch edge known to the procedure, in stable
	// (source, target) order, for the diagram converter to render.
	BlockEdges []BlockEdge
}

// BlockEdge is one branch edge within a procedure's block graph.
type BlockEdge struct {
	From, To string
	Cycle    bool
}

// LayoutProcedureGrid computes block levels, row assignment, frame sizing,
// and marker placement for one procedure (spec §4.2 steps 1-4).
func LayoutProcedureGrid(cfg Config, proc markup.Procedure, origin geom.Point) ProcedureGrid {
	nodes, adjacency := procedureGraph(proc)

	isStart := make(map[string]bool, len(proc.StartBlockIDs))
	for _, id := range proc.StartBlockIDs {
		isStart[id] = true
	}
	isEnd := make(map[string]bool, len(proc.EndBlockIDs))
	for _, id := range proc.EndBlockIDs {
		isEnd[id] = true
	}

	levels := graphkernel.LevelizeProcedures(nodes, adjacency, isStart, isEnd, nil)

	byLevel := groupByLevel(nodes, levels)
	rows := assignRows(byLevel, adjacency)

	maxCols := 0
	for lvl := range byLevel {
		if lvl+1 > maxCols {
			maxCols = lvl + 1
		}
	}
	maxRows := 0
	for _, r := range rows {
		if r+1 > maxRows {
			maxRows = r + 1
		}
	}

	bw, bh := cfg.BlockSize.W, cfg.BlockSize.H
	mw := cfg.MarkerSize.W

	blocks := make([]BlockPlacement, 0, len(nodes))
	for _, id := range nodes {
		lvl := levels[id]
		row := rows[id]
		x := origin.X + cfg.Padding + mw + float64(lvl)*(bw+cfg.GapX)
		y := origin.Y + cfg.Padding + float64(row)*(bh+cfg.GapY)
		blocks = append(blocks, BlockPlacement{
			BlockID: id,
			Level:   lvl,
			Row:     row,
			Rect:    geom.Rect{Origin: geom.Point{X: x, Y: y}, Size: cfg.BlockSize},
		})
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].BlockID < blocks[j].BlockID })

	blockRect := make(map[string]geom.Rect, len(blocks))
	for _, b := range blocks {
		blockRect[b.BlockID] = b.Rect
	}

	var markers []MarkerPlacement
	markers = append(markers, placeMarkers(proc.StartBlockIDs, MarkerStart, cfg, blockRect, origin)...)
	markers = append(markers, placeMarkers(proc.EndBlockIDs, MarkerEnd, cfg, blockRect, origin)...)

	frameW := cfg.Padding*2 + float64(maxCols)*bw + float64(maxCols-1)*cfg.GapX + mw
	if maxCols == 0 {
		frameW = cfg.Padding*2 + mw
	}
	frameH := cfg.Padding*2 + float64(maxRows)*bh + float64(maxRows-1)*cfg.GapY
	if maxRows == 0 {
		frameH = cfg.Padding * 2
	}

	cycleEdges := graphkernel.CycleEdges(nodes, adjacency)
	cycle := make(map[string]bool, len(cycleEdges))
	for _, e := range cycleEdges {
		cycle[e.From+"|"+e.To] = true
	}

	var blockEdges []BlockEdge
	for _, src := range nodes {
		for _, tgt := range sortedTargets(adjacency[src]) {
			blockEdges = append(blockEdges, BlockEdge{From: src, To: tgt, Cycle: cycle[src+"|"+tgt]})
		}
	}

	return ProcedureGrid{
		ProcedureID: proc.ID,
		Frame:       geom.Rect{Origin: origin, Size: geom.Size{W: frameW, H: frameH}},
		Blocks:      blocks,
		Markers:     markers,
		Cycle:       cycle,
		BlockEdges:  blockEdges,
	}
}

func sortedTargets(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// procedureGraph builds the node set and branch adjacency used for
// levelization: every known block ID is a node, edges are the procedure's
// branches (targets absent from the known-block set are unknown
// references, spec §7, and are silently skipped here).
func procedureGraph(proc markup.Procedure) ([]string, map[string][]string) {
	known := proc.AllBlockIDs()
	nodes := make([]string, 0, len(known))
	for id := range known {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	adjacency := make(map[string][]string, len(proc.Branches))
	for src, targets := range proc.Branches {
		if !known[src] {
			continue
		}
		var kept []string
		for _, t := range targets {
			if known[t] {
				kept = append(kept, t)
			}
		}
		adjacency[src] = kept
	}
	return nodes, adjacency
}

func groupByLevel(nodes []string, levels map[string]int) map[int][]string {
	byLevel := make(map[int][]string)
	for _, n := range nodes {
		lvl := levels[n]
		byLevel[lvl] = append(byLevel[lvl], n)
	}
	for lvl := range byLevel {
		sort.Strings(byLevel[lvl])
	}
	return byLevel
}

// assignRows implements spec §4.2 step 2: within a level, sort blocks by
// block_id ascending, then reassign each to the row closest to the
// weighted average of its predecessors' rows (ties: lower index wins).
func assignRows(byLevel map[int][]string, adjacency map[string][]string) map[string]int {
	rows := make(map[string]int)
	predecessors := make(map[string][]string)
	for src, targets := range adjacency {
		for _, t := range targets {
			predecessors[t] = append(predecessors[t], src)
		}
	}
	for t := range predecessors {
		sort.Strings(predecessors[t])
	}

	levelKeys := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		levelKeys = append(levelKeys, lvl)
	}
	sort.Ints(levelKeys)

	for _, lvl := range levelKeys {
		ids := byLevel[lvl]
		// Initial greedy row assignment in block_id order.
		for i, id := range ids {
			rows[id] = i
		}
		if lvl == 0 {
			continue // no predecessors at level 0 to pull toward
		}
		type desired struct {
			id  string
			row int
		}
		var want []desired
		for _, id := range ids {
			preds := predecessors[id]
			if len(preds) == 0 {
				want = append(want, desired{id, rows[id]})
				continue
			}
			sum := 0
			for _, p := range preds {
				sum += rows[p]
			}
			avg := float64(sum) / float64(len(preds))
			best := rows[ids[0]]
			bestDist := -1.0
			for _, cand := range ids {
				d := avg - float64(rows[cand])
				if d < 0 {
					d = -d
				}
				if bestDist < 0 || d < bestDist {
					bestDist = d
					best = rows[cand]
				}
			}
			want = append(want, desired{id, best})
		}
		sort.SliceStable(want, func(i, j int) bool {
			if want[i].row != want[j].row {
				return want[i].row < want[j].row
			}
			return want[i].id < want[j].id
		})
		for i, w := range want {
			rows[w.id] = i
		}
	}
	return rows
}

// placeMarkers implements spec §4.2 step 4: a marker sits beside its block
// at vertical center, shifted by whole rows until it no longer intersects
// another block's vertical extent along its horizontal approach segment.
func placeMarkers(ids []string, kind MarkerKind, cfg Config, blockRect map[string]geom.Rect, origin geom.Point) []MarkerPlacement {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var out []MarkerPlacement
	for _, id := range sorted {
		br, ok := blockRect[id]
		if !ok {
			continue // unknown reference (spec §7): silently skipped
		}
		baseY := br.Origin.Y + (br.Size.H-cfg.MarkerSize.H)/2
		rowStep := cfg.BlockSize.H + cfg.GapY

		var mx float64
		if kind == MarkerStart {
			mx = origin.X + cfg.Padding
		} else {
			mx = br.MaxX() + cfg.GapX
		}

		y := baseY
		shift := 0
		for blocksIntersectApproach(blockRect, id, mx, y, cfg) {
			shift++
			sign := 1.0
			if shift%2 == 0 {
				sign = -1.0
			}
			y = baseY + sign*float64((shift+1)/2)*rowStep
		}

		out = append(out, MarkerPlacement{
			BlockID: id,
			Kind:    kind,
			Rect:    geom.Rect{Origin: geom.Point{X: mx, Y: y}, Size: cfg.MarkerSize},
		})
	}
	return out
}

// blocksIntersectApproach reports whether any block other than self has a
// vertical extent overlapping y along the horizontal span between the
// marker's x and its block's anchor x.
func blocksIntersectApproach(blockRect map[string]geom.Rect, self string, markerX, y float64, cfg Config) bool {
	selfRect := blockRect[self]
	lo, hi := markerX, selfRect.Origin.X
	if lo > hi {
		lo, hi = hi, lo
	}
	for id, r := range blockRect {
		if id == self {
			continue
		}
		if r.MaxX() < lo || r.Origin.X > hi {
			continue
		}
		if y+geom.Epsilon >= r.Origin.Y && y <= r.MaxY()+geom.Epsilon {
			return true
		}
	}
	return false
}
