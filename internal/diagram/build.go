package diagram

import (
	"strconv"

	"flowmark/internal/layout"
)

func boxGeom(x, y, w, h float64) Geometry {
	return Geometry{X: x, Y: y, W: w, H: h}
}

func mergeMeta(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func itoa(n int) string { return strconv.Itoa(n) }

// buildProcedureBlocks emits one block shape, its label, and its markers
// for a single procedure grid (spec §4.4 step 3's frame content plus the
// block/marker roles carried with it).
func buildProcedureBlocks(baseMeta map[string]string, grid layout.ProcedureGrid) []Element {
	var out []Element
	for _, b := range grid.Blocks {
		out = append(out, Element{
			ID:       ElementID("block", grid.ProcedureID, b.BlockID),
			Type:     TypeRectangle,
			Geometry: boxGeom(b.Rect.Origin.X, b.Rect.Origin.Y, b.Rect.Size.W, b.Rect.Size.H),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleBlock, "procedure_id": grid.ProcedureID, "block_id": b.BlockID}),
		})
		out = append(out, Element{
			ID:       ElementID("block_label", grid.ProcedureID, b.BlockID),
			Type:     TypeText,
			Geometry: boxGeom(b.Rect.Origin.X, b.Rect.Origin.Y, b.Rect.Size.W, b.Rect.Size.H),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleBlockLabel, "procedure_id": grid.ProcedureID, "block_id": b.BlockID}),
		})
	}
	for _, m := range grid.Markers {
		role := RoleStartMarker
		if m.Kind == layout.MarkerEnd {
			role = RoleEndMarker
		}
		out = append(out, Element{
			ID:       ElementID("marker", grid.ProcedureID, m.BlockID, role),
			Type:     TypeEllipse,
			Geometry: boxGeom(m.Rect.Origin.X, m.Rect.Origin.Y, m.Rect.Size.W, m.Rect.Size.H),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": role, "procedure_id": grid.ProcedureID, "block_id": m.BlockID}),
		})
	}
	return out
}

// buildEdgeElement emits one procedure-flow edge (spec §4.4 step 6):
// straight for a non-cycle edge, a dashed red elbow for a cycle edge,
// originating from the source frame's bottom-center to the target frame's
// left-center.
func buildEdgeElement(baseMeta map[string]string, plan layout.LayoutPlan, e layout.EdgePlacement) Element {
	from := frameRect(plan, e.From)
	to := frameRect(plan, e.To)

	meta := mergeMeta(baseMeta, map[string]string{"role": RoleEdge, "from": e.From, "to": e.To})
	if e.Cycle {
		meta["cycle"] = "true"
		meta["stroke"] = "dashed-red"
		bendX := from.X + from.W/2
		bendY := to.Y + to.H/2
		return Element{
			ID:   ElementID("edge", e.From, e.To),
			Type: TypeLine,
			Geometry: Geometry{Points: []Point{
				{X: from.X + from.W/2, Y: from.Y + from.H},
				{X: bendX, Y: bendY},
				{X: to.X, Y: bendY},
			}},
			Meta:   meta,
			ZIndex: -1,
		}
	}
	return Element{
		ID:   ElementID("edge", e.From, e.To),
		Type: TypeArrow,
		Geometry: Geometry{Points: []Point{
			{X: from.X + from.W, Y: from.Y + from.H/2},
			{X: to.X, Y: to.Y + to.H/2},
		}},
		Binding: &Binding{StartID: ElementID("frame", e.From), EndID: ElementID("frame", e.To)},
		Meta:    meta,
		ZIndex:  -1,
	}
}

func frameRect(plan layout.LayoutPlan, procID string) Geometry {
	for _, f := range plan.Frames {
		if f.ProcedureID == procID {
			return boxGeom(f.Origin.X, f.Origin.Y, f.Size.W, f.Size.H)
		}
	}
	return Geometry{}
}

// buildBlockEdges emits one edge per branch within a procedure (spec §4.4
// step 7): elbow-vs-straight and dashed-red-vs-solid follow the same cycle
// policy as procedure-flow edges, using the grid's cycle set.
func buildBlockEdges(baseMeta map[string]string, grid layout.ProcedureGrid) []Element {
	rectOf := make(map[string]Geometry, len(grid.Blocks))
	for _, b := range grid.Blocks {
		rectOf[b.BlockID] = boxGeom(b.Rect.Origin.X, b.Rect.Origin.Y, b.Rect.Size.W, b.Rect.Size.H)
	}
	var out []Element
	for _, e := range grid.BlockEdges {
		from, fromOK := rectOf[e.From]
		to, toOK := rectOf[e.To]
		if !fromOK || !toOK {
			continue
		}
		meta := mergeMeta(baseMeta, map[string]string{"role": RoleEdge, "procedure_id": grid.ProcedureID, "from": e.From, "to": e.To})
		if e.Cycle {
			meta["cycle"] = "true"
			meta["stroke"] = "dashed-red"
			bendX := from.X + from.W/2
			bendY := to.Y + to.H/2
			out = append(out, Element{
				ID:   ElementID("block_edge", grid.ProcedureID, e.From, e.To),
				Type: TypeLine,
				Geometry: Geometry{Points: []Point{
					{X: from.X + from.W/2, Y: from.Y + from.H},
					{X: bendX, Y: bendY},
					{X: to.X, Y: bendY},
				}},
				Meta:   meta,
				ZIndex: -1,
			})
			continue
		}
		out = append(out, Element{
			ID:   ElementID("block_edge", grid.ProcedureID, e.From, e.To),
			Type: TypeArrow,
			Geometry: Geometry{Points: []Point{
				{X: from.X + from.W, Y: from.Y + from.H/2},
				{X: to.X, Y: to.Y + to.H/2},
			}},
			Binding: &Binding{StartID: ElementID("block", grid.ProcedureID, e.From), EndID: ElementID("block", grid.ProcedureID, e.To)},
			Meta:    meta,
			ZIndex:  -1,
		})
	}
	return out
}

// buildMarkerEdges emits the start-marker-to-block and block-to-end-marker
// edges (spec §4.4 step 8), with stroke style following end type.
func buildMarkerEdges(baseMeta map[string]string, grid layout.ProcedureGrid) []Element {
	var out []Element
	blockRect := make(map[string]Geometry, len(grid.Blocks))
	for _, b := range grid.Blocks {
		blockRect[b.BlockID] = boxGeom(b.Rect.Origin.X, b.Rect.Origin.Y, b.Rect.Size.W, b.Rect.Size.H)
	}
	for _, m := range grid.Markers {
		br, ok := blockRect[m.BlockID]
		if !ok {
			continue
		}
		role := RoleStartMarker
		points := []Point{{X: m.Rect.Origin.X + m.Rect.Size.W, Y: m.Rect.Origin.Y + m.Rect.Size.H/2}, {X: br.X, Y: br.Y + br.H/2}}
		if m.Kind == layout.MarkerEnd {
			role = RoleEndMarker
			points = []Point{{X: br.X + br.W, Y: br.Y + br.H/2}, {X: m.Rect.Origin.X, Y: m.Rect.Origin.Y + m.Rect.Size.H/2}}
		}
		out = append(out, Element{
			ID:       ElementID("marker_edge", grid.ProcedureID, m.BlockID, role),
			Type:     TypeArrow,
			Geometry: Geometry{Points: points},
			Meta:     mergeMeta(baseMeta, map[string]string{"role": role + "_edge", "procedure_id": grid.ProcedureID, "block_id": m.BlockID}),
			ZIndex:   -1,
		})
	}
	return out
}

// buildScenarioElements emits one component's scenario panel in the order
// spec §4.4 step 5 names: title, cycle line, body, procedures sub-panel,
// merge-nodes sub-panel.
func buildScenarioElements(baseMeta map[string]string, sc layout.ScenarioPlacement, index int) []Element {
	var out []Element
	out = append(out, Element{
		ID:       ElementID("scenario_title", itoa(index)),
		Type:     TypeText,
		Geometry: boxGeom(sc.Origin.X, sc.Origin.Y, sc.Size.W, 32),
		Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleScenarioTitle, "text": sc.TitleText}),
	})
	if sc.CycleText != "" {
		out = append(out, Element{
			ID:       ElementID("scenario_cycle", itoa(index)),
			Type:     TypeText,
			Geometry: boxGeom(sc.Origin.X, sc.Origin.Y+32, sc.Size.W, 20),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleScenarioCycle, "text": sc.CycleText, "color": "red"}),
		})
	}
	out = append(out, Element{
		ID:   ElementID("scenario_body", itoa(index)),
		Type: TypeTextBlock,
		Geometry: boxGeom(sc.Origin.X, sc.Origin.Y+56, sc.Size.W, 60),
		Meta: mergeMeta(baseMeta, map[string]string{
			"role":     RoleScenarioBody,
			"text":     sc.BodyText,
			"starts":   itoa(sc.Starts),
			"ends":     itoa(sc.Ends),
			"branches": itoa(sc.Branches),
		}),
	})
	y := sc.Origin.Y + 120.0
	for i, line := range sc.ProcedureLines {
		role := RoleScenarioProc
		out = append(out, Element{
			ID:       ElementID("scenario_proc_line", itoa(index), itoa(i)),
			Type:     TypeText,
			Geometry: boxGeom(sc.Origin.X, y, sc.Size.W, 18),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": role, "text": line.Text, "is_team_header": boolStr(line.IsTeamHeader), "color": line.ServiceColor}),
		})
		y += 18
	}
	for i, line := range sc.MergeLines {
		out = append(out, Element{
			ID:       ElementID("scenario_merge_line", itoa(index), itoa(i)),
			Type:     TypeText,
			Geometry: boxGeom(sc.Origin.X, y, sc.Size.W, 18),
			Meta: mergeMeta(baseMeta, map[string]string{
				"role":         RoleScenarioMerge,
				"text":         line.Text,
				"group_label":  line.GroupLabel,
				"index":        itoa(line.Index),
				"procedure_id": line.ProcedureID,
				"color":        "red",
			}),
		})
		y += 18
	}
	return out
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// translateToOrigin implements spec §4.4 step 9's closing translate: shift
// every element so the first frame's center lands at (0,0).
func translateToOrigin(elements []Element, frames []layout.FramePlacement) {
	if len(frames) == 0 {
		return
	}
	first := frames[0]
	dx := -(first.Origin.X + first.Size.W/2)
	dy := -(first.Origin.Y + first.Size.H/2)
	for i := range elements {
		elements[i].Geometry.X += dx
		elements[i].Geometry.Y += dy
		for j := range elements[i].Geometry.Points {
			elements[i].Geometry.Points[j].X += dx
			elements[i].Geometry.Points[j].Y += dy
		}
	}
}
