package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowmark/internal/markup"
)

func docWithProcedures(markupType, service, team string, procs []markup.Procedure, graph map[string][]string) *markup.Document {
	meta := make(map[string]map[string]interface{})
	for _, p := range procs {
		meta[p.ID] = map[string]interface{}{}
	}
	return &markup.Document{
		MarkupType:     markupType,
		ServiceName:    service,
		TeamName:       team,
		Procedures:     procs,
		ProcedureGraph: graph,
		ProcedureMeta:  meta,
	}
}

func procWithBlocks(id string, start, end []string, branches map[string][]string) markup.Procedure {
	return markup.Procedure{
		ID:            id,
		Name:          id,
		StartBlockIDs: start,
		EndBlockIDs:   end,
		EndBlockTypes: map[string]markup.EndType{},
		Branches:      branches,
	}
}

func TestBuildCatalogIndexUsesFinedogUnitIDAsSceneID(t *testing.T) {
	doc := docWithProcedures("procedure_graph", "checkout", "payments", nil, nil)
	doc.FinedogUnitID = "unit-42"
	doc.HasFinedogUnitID = true

	idx := BuildCatalogIndex([]RawItem{{Path: "checkout.yaml", Document: doc}}, DefaultIndexConfig(), "2026-07-31T00:00:00Z")
	require.Len(t, idx.Items, 1)
	require.Equal(t, "unit-42", idx.Items[0].SceneID)
}

func TestBuildCatalogIndexFallsBackToSlugAndHash(t *testing.T) {
	doc := docWithProcedures("procedure_graph", "checkout", "payments", nil, nil)
	idx := BuildCatalogIndex([]RawItem{{Path: "My Checkout Flow.yaml", Document: doc}}, DefaultIndexConfig(), "2026-07-31T00:00:00Z")
	require.Len(t, idx.Items, 1)
	require.Contains(t, idx.Items[0].SceneID, "my-checkout-flow-")

	idx2 := BuildCatalogIndex([]RawItem{{Path: "My Checkout Flow.yaml", Document: doc}}, DefaultIndexConfig(), "2026-07-31T00:00:00Z")
	require.Equal(t, idx.Items[0].SceneID, idx2.Items[0].SceneID, "scene_id must be deterministic")
}

func TestBuildCatalogIndexSortsByConfiguredField(t *testing.T) {
	docA := docWithProcedures("procedure_graph", "zeta", "teamA", nil, nil)
	docB := docWithProcedures("procedure_graph", "alpha", "teamA", nil, nil)
	cfg := DefaultIndexConfig()
	cfg.TitleField = "service_name"

	idx := BuildCatalogIndex([]RawItem{
		{Path: "a.yaml", Document: docA},
		{Path: "b.yaml", Document: docB},
	}, cfg, "2026-07-31T00:00:00Z")

	require.Len(t, idx.Items, 2)
	require.Equal(t, "alpha", idx.Items[0].Title)
	require.Equal(t, "zeta", idx.Items[1].Title)
}

func TestBuildCatalogIndexResolvesDottedRawPayloadPath(t *testing.T) {
	doc := docWithProcedures("procedure_graph", "checkout", "payments", nil, nil)
	payload := map[string]interface{}{
		"owner": map[string]interface{}{
			"display_name": "Checkout Flow",
		},
	}
	cfg := DefaultIndexConfig()
	cfg.TitleField = "owner.display_name"

	idx := BuildCatalogIndex([]RawItem{{Path: "a.yaml", Document: doc, RawPayload: payload}}, cfg, "2026-07-31T00:00:00Z")
	require.Equal(t, "Checkout Flow", idx.Items[0].Title)
}

func TestBuildCatalogIndexCountsBranchAndEndBlocks(t *testing.T) {
	proc := procWithBlocks("p1", []string{"b1"}, []string{"b3"}, map[string][]string{"b1": {"b2", "b3"}})
	proc.EndBlockTypes["b3"] = markup.EndTypePostpone
	doc := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{proc}, nil)

	idx := BuildCatalogIndex([]RawItem{{Path: "a.yaml", Document: doc}}, DefaultIndexConfig(), "2026-07-31T00:00:00Z")
	item := idx.Items[0]
	require.Equal(t, 2, item.BranchBlockCount)
	require.Equal(t, 1, item.PostponeEndBlockCount)
	require.Equal(t, 0, item.NonPostponeEndBlockCount)
	require.Contains(t, item.ProcedureIDs, "p1")
}

func TestBuildCatalogHealthReportFlagsNoBotSingleComponent(t *testing.T) {
	proc := procWithBlocks("checkout_start", []string{"b1"}, []string{"b2"}, map[string][]string{"b1": {"b2"}})
	item := CatalogItem{
		SceneID:      "scene-1",
		TeamName:     "payments",
		ProcedureIDs: []string{"checkout_start"},
		ProcedureGraph: map[string][]string{
			"checkout_start": {},
		},
		BranchBlockCount:         1,
		NonPostponeEndBlockCount: 1,
	}
	_ = proc

	report := BuildCatalogHealthReport([]CatalogItem{item}, DefaultHealthConfig())
	require.Len(t, report.Items, 1)
	require.Equal(t, GraphHealthNoBot, report.Items[0].GraphHealth)
	require.False(t, report.Items[0].GamingFlagged)
}

func TestBuildCatalogHealthReportFlagsGamingWhenNoBranchesOrEnds(t *testing.T) {
	item := CatalogItem{
		SceneID:      "scene-1",
		TeamName:     "payments",
		ProcedureIDs: []string{"checkout_start"},
		ProcedureGraph: map[string][]string{
			"checkout_start": {},
		},
		BranchBlockCount:         0,
		NonPostponeEndBlockCount: 0,
	}
	report := BuildCatalogHealthReport([]CatalogItem{item}, DefaultHealthConfig())
	require.True(t, report.Items[0].GamingFlagged)
}

func TestBuildCatalogHealthReportFlagsTooManyComponents(t *testing.T) {
	item := CatalogItem{
		SceneID:  "scene-1",
		TeamName: "payments",
		ProcedureGraph: map[string][]string{
			"a": {}, "b": {}, "c": {}, "d": {},
		},
		BranchBlockCount:         1,
		NonPostponeEndBlockCount: 1,
	}
	report := BuildCatalogHealthReport([]CatalogItem{item}, DefaultHealthConfig())
	require.Equal(t, GraphHealthTooMany, report.Items[0].GraphHealth)
	require.Equal(t, 4, report.Items[0].ComponentCount)
}

func TestBuildCatalogHealthReportComputesSameTeamSimilarity(t *testing.T) {
	a := CatalogItem{SceneID: "a", TeamName: "payments", ProcedureIDs: []string{"p1", "p2"}, ProcedureGraph: map[string][]string{}}
	b := CatalogItem{SceneID: "b", TeamName: "payments", ProcedureIDs: []string{"p1", "p2", "p3"}, ProcedureGraph: map[string][]string{}}
	report := BuildCatalogHealthReport([]CatalogItem{a, b}, DefaultHealthConfig())

	var aHealth ItemHealth
	for _, ih := range report.Items {
		if ih.SceneID == "a" {
			aHealth = ih
		}
	}
	require.NotNil(t, aHealth.SameTeamMatch)
	require.Equal(t, "b", aHealth.SameTeamMatch.SceneID)
	require.InDelta(t, 100.0, aHealth.SameTeamMatch.OverlapPercent, 1e-6)
	require.True(t, aHealth.SameTeamMatch.Flagged)
}

func TestBuildCatalogHealthReportGroupsTeamSummaries(t *testing.T) {
	item := CatalogItem{
		SceneID:  "scene-1",
		TeamName: "payments",
		ProcedureGraph: map[string][]string{
			"a": {}, "b": {}, "c": {}, "d": {},
		},
	}
	report := BuildCatalogHealthReport([]CatalogItem{item}, DefaultHealthConfig())
	require.Len(t, report.Teams, 1)
	require.Equal(t, "payments", report.Teams[0].TeamName)
	require.Equal(t, 1, report.Teams[0].Counts[GraphHealthTooMany])
}

func TestBuildCrossTeamGraphDashboardCountsMarkupTypesAcrossAll(t *testing.T) {
	proc := procWithBlocks("p1", []string{"b1"}, []string{"b2"}, nil)
	doc1 := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{proc}, map[string][]string{"p1": {}})
	doc2 := docWithProcedures("service_graph", "billing", "payments", nil, nil)

	dash := BuildCrossTeamGraphDashboard([]*markup.Document{doc1}, []*markup.Document{doc1, doc2}, DefaultDashboardConfig())
	require.Equal(t, 1, dash.MarkupTypeCounts["procedure_graph"])
	require.Equal(t, 1, dash.MarkupTypeCounts["service_graph"])
	require.Equal(t, 1, dash.Procedures.Total)
}

func TestBuildCrossTeamGraphDashboardTracksLinkingProcedures(t *testing.T) {
	proc := procWithBlocks("shared_validate", nil, nil, nil)
	doc1 := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{proc}, map[string][]string{"shared_validate": {"next_a"}})
	doc2 := docWithProcedures("procedure_graph", "billing", "payments", []markup.Procedure{proc}, map[string][]string{"shared_validate": {"next_b"}})

	dash := BuildCrossTeamGraphDashboard([]*markup.Document{doc1, doc2}, []*markup.Document{doc1, doc2}, DefaultDashboardConfig())
	require.NotEmpty(t, dash.TopLinkingProcedures)
	require.Equal(t, "shared_validate", dash.TopLinkingProcedures[0].ProcedureID)
	require.Equal(t, 2, dash.TopLinkingProcedures[0].GraphCount)
}

func TestBuildCrossTeamGraphDashboardProducesFlowOrder(t *testing.T) {
	p1 := procWithBlocks("p1", nil, nil, nil)
	p2 := procWithBlocks("p2", nil, nil, nil)
	doc := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{p1, p2}, map[string][]string{"p1": {"p2"}})

	dash := BuildCrossTeamGraphDashboard([]*markup.Document{doc}, []*markup.Document{doc}, DefaultDashboardConfig())
	require.Len(t, dash.FlowOrder, 2)
	require.Equal(t, "p1", dash.FlowOrder[0].ProcedureID)
	require.Equal(t, "p2", dash.FlowOrder[1].ProcedureID)
	require.Less(t, dash.FlowOrder[0].Level, dash.FlowOrder[1].Level)
}

func TestBuildTeamProcedureGraphMergesSharedProceduresAcrossDocuments(t *testing.T) {
	p1a := procWithBlocks("shared", []string{"b1"}, nil, map[string][]string{"b1": {"b2"}})
	p1b := procWithBlocks("shared", nil, []string{"b3"}, map[string][]string{"b2": {"b3"}})
	docA := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{p1a}, map[string][]string{"shared": {"next_a"}})
	docB := docWithProcedures("procedure_graph", "billing", "payments", []markup.Procedure{p1b}, map[string][]string{"shared": {"next_b"}})

	merged := BuildTeamProcedureGraph([]*markup.Document{docA, docB}, DefaultTeamProcedureGraphConfig())
	require.Len(t, merged.Procedures, 1)
	proc := merged.Procedures[0]
	require.ElementsMatch(t, []string{"b1"}, proc.StartBlockIDs)
	require.ElementsMatch(t, []string{"b3"}, proc.EndBlockIDs)
	require.ElementsMatch(t, []string{"next_a", "next_b"}, merged.ProcedureGraph["shared"])

	meta := merged.ProcedureMeta["shared"]
	services, _ := meta["services"].([]interface{})
	require.ElementsMatch(t, []interface{}{"billing", "checkout"}, services)
	require.True(t, meta["is_intersection"].(bool))
}

func TestBuildTeamProcedureGraphDropsIntermediateProcedures(t *testing.T) {
	start := procWithBlocks("start", []string{"b1"}, nil, nil)
	mid := procWithBlocks("mid", nil, nil, nil)
	end := procWithBlocks("end", nil, []string{"b9"}, nil)
	doc := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{start, mid, end}, map[string][]string{
		"start": {"mid"},
		"mid":   {"end"},
	})

	merged := BuildTeamProcedureGraph([]*markup.Document{doc}, DefaultTeamProcedureGraphConfig())

	var ids []string
	for _, p := range merged.Procedures {
		ids = append(ids, p.ID)
	}
	require.NotContains(t, ids, "mid")
	require.ElementsMatch(t, []string{"end"}, merged.ProcedureGraph["start"])
}

func TestBuildTeamProcedureGraphScopesProceduresWhenNotMerging(t *testing.T) {
	p := procWithBlocks("shared", nil, nil, nil)
	docA := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{p}, nil)
	docB := docWithProcedures("procedure_graph", "billing", "payments", []markup.Procedure{p}, nil)

	cfg := DefaultTeamProcedureGraphConfig()
	cfg.MergeSelectedMarkups = false
	merged := BuildTeamProcedureGraph([]*markup.Document{docA, docB}, cfg)
	require.Len(t, merged.Procedures, 2)
}

func TestBuildTeamProcedureGraphAssignsMergeChainMetadataForLongChains(t *testing.T) {
	p1 := procWithBlocks("m1", nil, nil, nil)
	p2 := procWithBlocks("m2", nil, nil, nil)
	doc1 := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{p1}, map[string][]string{"m1": {"m2"}})
	doc2 := docWithProcedures("procedure_graph", "billing", "payments", []markup.Procedure{p1}, nil)
	doc3 := docWithProcedures("procedure_graph", "checkout", "payments", []markup.Procedure{p2}, nil)
	doc4 := docWithProcedures("procedure_graph", "billing", "payments", []markup.Procedure{p2}, nil)

	cfg := DefaultTeamProcedureGraphConfig()
	cfg.MergeNodeMinChainSize = 2
	merged := BuildTeamProcedureGraph([]*markup.Document{doc1, doc2, doc3, doc4}, cfg)

	m1Meta := merged.ProcedureMeta["m1"]
	m2Meta := merged.ProcedureMeta["m2"]
	require.NotEmpty(t, m1Meta["merge_chain_group_id"])
	require.Equal(t, m1Meta["merge_chain_group_id"], m2Meta["merge_chain_group_id"])
}
