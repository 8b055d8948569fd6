package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowmark/internal/markup"
)

func twoProcedureDocument() *markup.Document {
	return &markup.Document{
		MarkupType:  "procedure_graph",
		ServiceName: "checkout",
		Procedures: []markup.Procedure{
			{ID: "p1", StartBlockIDs: []string{"b1"}, EndBlockIDs: []string{"b2"}, Branches: map[string][]string{"b1": {"b2"}}},
			{ID: "p2", StartBlockIDs: []string{"c1"}, EndBlockIDs: []string{"c2"}, Branches: map[string][]string{"c1": {"c2"}}},
		},
		ProcedureGraph: map[string][]string{"p1": {"p2"}},
		ProcedureMeta:  map[string]map[string]interface{}{},
	}
}

func TestLayoutProcedureGraphProducesOneFramePerProcedure(t *testing.T) {
	plan := LayoutProcedureGraph(DefaultConfig(), twoProcedureDocument())
	require.Len(t, plan.Frames, 2)
	require.Len(t, plan.Grids, 2)
}

func TestLayoutProcedureGraphIsDeterministic(t *testing.T) {
	doc := twoProcedureDocument()
	p1 := LayoutProcedureGraph(DefaultConfig(), doc)
	p2 := LayoutProcedureGraph(DefaultConfig(), doc)
	require.Equal(t, p1.Frames, p2.Frames)
	require.Equal(t, p1.Edges, p2.Edges)
}

func TestLayoutProcedureGraphServiceGraphDisablesZones(t *testing.T) {
	doc := twoProcedureDocument()
	doc.MarkupType = "service_graph"
	plan := LayoutProcedureGraph(DefaultConfig(), doc)
	require.True(t, plan.ZoneDisabled)
	require.Empty(t, plan.ServiceZones)
	require.Empty(t, plan.Scenarios)
}

func TestLayoutProcedureGraphProcedureStatsConserveCounts(t *testing.T) {
	doc := twoProcedureDocument()
	plan := LayoutProcedureGraph(DefaultConfig(), doc)
	require.Len(t, plan.Stats, 2)
	for _, s := range plan.Stats {
		require.Equal(t, 1, s.Starts)
		require.Equal(t, 1, s.Ends)
	}
}

func TestServiceZonesNeverPartiallyOverlap(t *testing.T) {
	doc := twoProcedureDocument()
	doc.ServiceName = ""
	doc.Procedures[0].ID = "p1"
	doc.ProcedureMeta["p1"] = map[string]interface{}{"services": []interface{}{"billing"}}
	doc.ProcedureMeta["p2"] = map[string]interface{}{"services": []interface{}{"catalog"}}
	plan := LayoutProcedureGraph(DefaultConfig(), doc)
	for i := 0; i < len(plan.ServiceZones); i++ {
		for j := i + 1; j < len(plan.ServiceZones); j++ {
			a, b := plan.ServiceZones[i].Rect(), plan.ServiceZones[j].Rect()
			overlaps := a.PartiallyOverlaps(b)
			require.False(t, overlaps, "zones %s/%s must not partially overlap", plan.ServiceZones[i].ServiceKey, plan.ServiceZones[j].ServiceKey)
		}
	}
}
