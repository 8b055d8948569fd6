// Package diagram converts a layout.LayoutPlan and its source document into
// an abstract stream of renderer-agnostic elements (spec §4.4, C5).
package diagram

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"flowmark/internal/geom"
	"flowmark/internal/layout"
	"flowmark/internal/markup"
)

// idNamespace is the fixed UUIDv5 namespace every element ID is derived
// from (spec §4.4: "a stable ID (UUIDv5 of a fixed namespace and a
// '|'-joined tuple of parts)"). It is a process-wide immutable constant,
// not global mutable state (spec §5).
var idNamespace = uuid.MustParse("8f14e45f-ceea-467e-bd6f-1f0c3a1f9b3e")

// ElementID derives the stable UUIDv5 identity for a diagram element from
// its role-qualified parts.
func ElementID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "|"))).String()
}

// ElementType is the tag alphabet spec §4.4 names.
type ElementType string

const (
	TypeFrame     ElementType = "frame"
	TypeRectangle ElementType = "shape:rectangle"
	TypeEllipse   ElementType = "shape:ellipse"
	TypeText      ElementType = "text"
	TypeTextBlock ElementType = "text_block"
	TypeLine      ElementType = "line"
	TypeArrow     ElementType = "arrow"
)

// Geometry is a union of the three shapes an element's geometric record
// can take (spec §4.4): a box, a two-point segment, or a point list
// (elbow polylines).
type Geometry struct {
	X, Y, W, H float64
	Points     []Point
}

// Point is a 2-D coordinate local to the diagram package, decoupled from
// geom.Point so geometry stays serialization-friendly (float64 pairs, no
// methods) for downstream emitters.
type Point struct{ X, Y float64 }

// Binding records which shape an arrow's endpoint attaches to, for
// interactive editors (spec §4.4 "optional bindings").
type Binding struct {
	StartID string
	EndID   string
}

// Element is one entry in the abstract element stream (spec §4.4).
type Element struct {
	ID       string
	Type     ElementType
	Geometry Geometry
	Meta     map[string]string
	Binding  *Binding
	ZIndex   int
}

// Role metadata keys spec §4.4 names.
const (
	RoleFrame            = "frame"
	RoleBlock            = "block"
	RoleBlockLabel       = "block_label"
	RoleStartMarker      = "start_marker"
	RoleEndMarker        = "end_marker"
	RoleEdge             = "edge"
	RoleScenarioTitle    = "scenario_title"
	RoleScenarioCycle    = "scenario_cycle"
	RoleScenarioBody     = "scenario_body"
	RoleScenarioProc     = "scenario_procedures"
	RoleScenarioMerge    = "scenario_merge_nodes"
	RoleServiceZone      = "service_zone"
	RoleServiceZoneLabel = "service_zone_label"
	RoleDiagramTitle     = "diagram_title"
	RoleIntersectionHi   = "intersection_highlight"
	RoleIntersectionIdx  = "intersection_index"
	RoleProcedureStat    = "procedure_stat"
	RoleSeparator        = "separator"
)

// BaseMeta computes the document-level metadata every element stream
// carries (spec §4.4 step 1).
func BaseMeta(doc *markup.Document) map[string]string {
	m := map[string]string{
		"schema_version":       "1",
		"markup_type":          doc.MarkupType,
		"service_name":         doc.ServiceName,
		"criticality_level":    doc.CriticalityLevel,
		"team_id":              doc.TeamID,
		"team_name":            doc.TeamName,
		"display_markup_type":  displayMarkupType(doc),
	}
	if doc.HasFinedogUnitID {
		m["finedog_unit_id"] = doc.FinedogUnitID
	}
	return m
}

// displayMarkupType humanizes markup_type, or reports "mixed" if
// procedure_meta carries more than one distinct source type (spec §4.4
// step 1).
func displayMarkupType(doc *markup.Document) string {
	seen := make(map[string]bool)
	for _, meta := range doc.ProcedureMeta {
		if t, ok := meta["markup_type"].(string); ok && t != "" {
			seen[t] = true
		}
	}
	if len(seen) > 1 {
		return "mixed"
	}
	switch doc.MarkupType {
	case "service":
		return "Service"
	case "procedure_graph":
		return "Procedure Graph"
	case "service_graph":
		return "Service Graph"
	default:
		return humanize(doc.MarkupType)
	}
}

func humanize(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Build runs the full deterministic conversion (spec §4.4 steps 1-10) and
// returns the element stream, with z-indices assigned and translated so the
// first frame's center sits at the origin.
func Build(doc *markup.Document, plan layout.LayoutPlan, title string) []Element {
	var out []Element

	baseMeta := BaseMeta(doc)

	zones := append([]layout.ServiceZonePlacement(nil), plan.ServiceZones...)
	sort.SliceStable(zones, func(i, j int) bool {
		return area(zones[i].Size) > area(zones[j].Size) // large zones first, step 2
	})
	for _, z := range zones {
		meta := mergeMeta(baseMeta, map[string]string{"role": RoleServiceZone, "service_key": z.ServiceKey, "color": z.Color})
		out = append(out, Element{
			ID:       ElementID("zone", z.ServiceKey),
			Type:     TypeRectangle,
			Geometry: boxGeom(z.Origin.X, z.Origin.Y, z.Size.W, z.Size.H),
			Meta:     meta,
			ZIndex:   -100 + z.Depth,
		})
		out = append(out, Element{
			ID:       ElementID("zone_label", z.ServiceKey),
			Type:     TypeText,
			Geometry: boxGeom(z.LabelOrigin.X, z.LabelOrigin.Y, z.LabelSize.W, z.LabelSize.H),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleServiceZoneLabel, "service_key": z.ServiceKey, "text": z.ServiceName}),
			ZIndex:   -99 + z.Depth,
		})
	}

	mergeIndex := make(map[string]layout.MergeMarkerPlacement, len(plan.MergeMarkers))
	for _, mm := range plan.MergeMarkers {
		mergeIndex[mm.ProcedureID] = mm
	}

	frames := append([]layout.FramePlacement(nil), plan.Frames...)
	sort.Slice(frames, func(i, j int) bool { return frames[i].ProcedureID < frames[j].ProcedureID })
	for _, f := range frames {
		out = append(out, Element{
			ID:       ElementID("frame", f.ProcedureID),
			Type:     TypeFrame,
			Geometry: boxGeom(f.Origin.X, f.Origin.Y, f.Size.W, f.Size.H),
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleFrame, "procedure_id": f.ProcedureID}),
		})
		if mm, ok := mergeIndex[f.ProcedureID]; ok {
			cx, cy := f.Origin.X+f.Size.W/2, f.Origin.Y+f.Size.H/2
			out = append(out, Element{
				ID:       ElementID("intersection", f.ProcedureID),
				Type:     TypeEllipse,
				Geometry: boxGeom(cx-20, cy-14, 40, 28),
				Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleIntersectionHi, "procedure_id": f.ProcedureID, "merge_chain_group_id": mm.MergeChainGroupID}),
			})
			out = append(out, Element{
				ID:       ElementID("intersection_index", f.ProcedureID),
				Type:     TypeText,
				Geometry: boxGeom(cx-8, cy-8, 16, 16),
				Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleIntersectionIdx, "procedure_id": f.ProcedureID, "index": itoa(mm.Index)}),
			})
		}
		grid := plan.Grids[f.ProcedureID]
		out = append(out, buildProcedureBlocks(baseMeta, grid)...)
	}

	for _, s := range plan.Stats {
		fr := frameRect(plan, s.ProcedureID)
		statW, statH := 48.0, 22.0
		out = append(out, Element{
			ID:       ElementID("stat", s.ProcedureID),
			Type:     TypeEllipse,
			Geometry: boxGeom(fr.X+fr.W/2-statW/2, fr.Y+fr.H-statH-6, statW, statH),
			Meta: mergeMeta(baseMeta, map[string]string{
				"role":         RoleProcedureStat,
				"procedure_id": s.ProcedureID,
				"starts":       itoa(s.Starts),
				"branches":     itoa(s.Branches),
				"ends":         itoa(s.Ends),
				"postpones":    itoa(s.Postpones),
			}),
		})
	}

	for i, sep := range plan.Separators {
		out = append(out, Element{
			ID:       ElementID("separator", itoa(i)),
			Type:     TypeLine,
			Geometry: Geometry{Points: []Point{{X: sep.Start.X, Y: sep.Start.Y}, {X: sep.End.X, Y: sep.End.Y}}},
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleSeparator}),
			ZIndex:   -1,
		})
	}

	for i, sc := range plan.Scenarios {
		out = append(out, buildScenarioElements(baseMeta, sc, i)...)
	}

	edges := append([]layout.EdgePlacement(nil), plan.Edges...)
	for _, e := range edges {
		out = append(out, buildEdgeElement(baseMeta, plan, e))
	}

	for _, f := range frames {
		grid := plan.Grids[f.ProcedureID]
		out = append(out, buildBlockEdges(baseMeta, grid)...)
		out = append(out, buildMarkerEdges(baseMeta, grid)...)
	}

	if title != "" {
		out = append(out, Element{
			ID:       ElementID("title"),
			Type:     TypeTextBlock,
			Geometry: Geometry{},
			Meta:     mergeMeta(baseMeta, map[string]string{"role": RoleDiagramTitle, "text": title}),
		})
	}

	translateToOrigin(out, frames)
	return out
}

func area(sz geom.Size) float64 { return sz.W * sz.H }
