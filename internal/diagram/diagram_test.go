package diagram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowmark/internal/layout"
	"flowmark/internal/markup"
)

func sampleDoc() *markup.Document {
	return &markup.Document{
		MarkupType:  "procedure_graph",
		ServiceName: "checkout",
		Procedures: []markup.Procedure{
			{ID: "p1", StartBlockIDs: []string{"b1"}, EndBlockIDs: []string{"b2"}, Branches: map[string][]string{"b1": {"b2"}}},
		},
		ProcedureGraph: map[string][]string{},
		ProcedureMeta:  map[string]map[string]interface{}{},
	}
}

func TestElementIDIsStableAndContentAddressed(t *testing.T) {
	id1 := ElementID("frame", "p1")
	id2 := ElementID("frame", "p1")
	id3 := ElementID("frame", "p2")
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, id3)
}

func TestBuildProducesFrameAndBlockElements(t *testing.T) {
	doc := sampleDoc()
	plan := layout.LayoutProcedureGraph(layout.DefaultConfig(), doc)
	elements := Build(doc, plan, "")

	var sawFrame, sawBlock bool
	for _, e := range elements {
		if e.Type == TypeFrame {
			sawFrame = true
		}
		if e.Meta["role"] == RoleBlock {
			sawBlock = true
		}
	}
	require.True(t, sawFrame)
	require.True(t, sawBlock)
}

func TestBuildIsDeterministic(t *testing.T) {
	doc := sampleDoc()
	plan := layout.LayoutProcedureGraph(layout.DefaultConfig(), doc)
	e1 := Build(doc, plan, "Title")
	e2 := Build(doc, plan, "Title")
	require.Equal(t, e1, e2)
}

func TestBuildTranslatesFirstFrameCenterToOrigin(t *testing.T) {
	doc := sampleDoc()
	plan := layout.LayoutProcedureGraph(layout.DefaultConfig(), doc)
	elements := Build(doc, plan, "")
	for _, e := range elements {
		if e.Type == TypeFrame {
			cx := e.Geometry.X + e.Geometry.W/2
			cy := e.Geometry.Y + e.Geometry.H/2
			require.InDelta(t, 0, cx, 1e-6)
			require.InDelta(t, 0, cy, 1e-6)
			break
		}
	}
}

func TestFitTextShrinksToFitBox(t *testing.T) {
	r := FitText("a fairly long block label that needs wrapping across several lines", FitOptions{
		MaxWidth: 120, MaxHeight: 40, MinFontSize: 8, MaxFontSize: 24, LineHeight: 1.2, GlyphWidthFactor: 0.6,
	})
	require.GreaterOrEqual(t, r.FontSize, 8)
	require.NotEmpty(t, r.Lines)
}

func TestFitTextFallsBackToMinimumSize(t *testing.T) {
	r := FitText("supercalifragilisticexpialidocious and then some more unbroken long text here", FitOptions{
		MaxWidth: 10, MaxHeight: 5, MinFontSize: 6, MaxFontSize: 10, LineHeight: 1.0, GlyphWidthFactor: 0.6,
	})
	require.Equal(t, 6, r.FontSize)
}
