package layout

import "flowmark/internal/geom"

// MarkerRole mirrors spec §3's MarkerPlacement.role alphabet.
type MarkerRole string

const (
	RoleStartMarker MarkerRole = "start_marker"
	RoleEndMarker   MarkerRole = "end_marker"
)

// FramePlacement is the placed frame of one procedure in the composed
// procedure-graph plan (spec §3).
type FramePlacement struct {
	ProcedureID string
	Origin      geom.Point
	Size        geom.Size
}

func (f FramePlacement) Rect() geom.Rect { return geom.Rect{Origin: f.Origin, Size: f.Size} }

// SeparatorPlacement is a dashed divider between two consecutive weak
// components (spec §4.3 step 7).
type SeparatorPlacement struct {
	Start, End geom.Point
}

// ServiceZonePlacement is the bounding region of one service's procedures
// within a component, plus its label band and nesting depth (spec §4.3
// steps 4-6).
type ServiceZonePlacement struct {
	ServiceKey    string
	ServiceName   string
	TeamName      string
	TeamID        string
	Color         string
	Origin        geom.Point
	Size          geom.Size
	LabelOrigin   geom.Point
	LabelSize     geom.Size
	LabelFontSize float64
	ProcedureIDs  []string
	Depth         int
}

func (z ServiceZonePlacement) Rect() geom.Rect { return geom.Rect{Origin: z.Origin, Size: z.Size} }

// ProcedureStat is the small per-frame line of start/branch/end/postpone
// counts (spec §4.4 step 4, §8 property 8).
type ProcedureStat struct {
	ProcedureID string
	Starts      int
	Branches    int
	Ends        int
	Postpones   int
}

// ScenarioProcedureLine is one row of a scenario panel's procedures
// sub-panel: either a team header or a service tile (spec §4.3 step 8).
type ScenarioProcedureLine struct {
	IsTeamHeader bool
	Text         string
	ServiceColor string
}

// ScenarioMergeLine is one member line of a merge-nodes sub-panel group
// (spec §4.3 step 8, "(i) procedure_name").
type ScenarioMergeLine struct {
	GroupLabel  string // "> [Team] Service x [Team] Service:" once per group, else ""
	Index       int
	ProcedureID string
	Text        string
}

// ScenarioPlacement is the side panel accompanying one weak component
// (spec §4.3 step 8).
type ScenarioPlacement struct {
	Origin          geom.Point
	Size            geom.Size
	TitleText       string
	BodyText        string
	CycleText       string
	ProcedureLines  []ScenarioProcedureLine
	MergeLines      []ScenarioMergeLine
	Starts          int
	Ends            int
	Branches        int
}

// EdgePlacement is one edge the diagram converter later renders (spec §4.4
// steps 6-7): straight unless Cycle, in which case it is drawn as a dashed
// elbow.
type EdgePlacement struct {
	From, To string
	Cycle    bool
}

// MergeMarkerPlacement is the oval intersection highlight and index number
// assigned to a merge procedure (spec §4.3 "merge-chain detection", §4.4
// step 3).
type MergeMarkerPlacement struct {
	ProcedureID        string
	Index              int
	MergeChainGroupID  string
}

// LayoutPlan is the full output of the procedure-graph layout engine (spec
// §3 "LayoutPlan(frames, blocks, markers, separators, scenarios,
// service_zones)"), extended with the element records downstream stages
// need (edges, stats, merge markers) which spec §4.3/§4.4 describe as part
// of the same pipeline.
type LayoutPlan struct {
	Frames       []FramePlacement
	Grids        map[string]ProcedureGrid // keyed by procedure ID
	Separators   []SeparatorPlacement
	ServiceZones []ServiceZonePlacement
	Scenarios    []ScenarioPlacement
	Stats        []ProcedureStat
	Edges        []EdgePlacement
	MergeMarkers []MergeMarkerPlacement
	ZoneDisabled bool // true when markup_type == "service_graph"
}
