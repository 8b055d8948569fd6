package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowmark/internal/geom"
	"flowmark/internal/markup"
)

func simpleProcedure() markup.Procedure {
	return markup.Procedure{
		ID:            "p1",
		StartBlockIDs: []string{"b1"},
		EndBlockIDs:   []string{"b3"},
		EndBlockTypes: map[string]markup.EndType{"b3": markup.Default},
		Branches: map[string][]string{
			"b1": {"b2"},
			"b2": {"b3"},
		},
	}
}

func TestLayoutProcedureGridPlacesEveryBlock(t *testing.T) {
	g := LayoutProcedureGrid(DefaultConfig(), simpleProcedure(), geom.Point{})
	require.Len(t, g.Blocks, 3)
	byID := make(map[string]BlockPlacement)
	for _, b := range g.Blocks {
		byID[b.BlockID] = b
	}
	require.Equal(t, 0, byID["b1"].Level)
	require.Equal(t, 1, byID["b2"].Level)
	require.Equal(t, 2, byID["b3"].Level)
}

func TestLayoutProcedureGridIsDeterministicUnderPermutation(t *testing.T) {
	p1 := simpleProcedure()
	p2 := simpleProcedure()
	p1.Branches["b1"] = []string{"b2", "b3"}
	p2.Branches["b1"] = []string{"b3", "b2"} // same targets, permuted order
	g1 := LayoutProcedureGrid(DefaultConfig(), p1, geom.Point{})
	g2 := LayoutProcedureGrid(DefaultConfig(), p2, geom.Point{})
	require.Equal(t, g1.Blocks, g2.Blocks)
	require.Equal(t, g1.Frame, g2.Frame)
}

func TestLayoutProcedureGridPlacesStartAndEndMarkers(t *testing.T) {
	g := LayoutProcedureGrid(DefaultConfig(), simpleProcedure(), geom.Point{})
	require.Len(t, g.Markers, 2)
	var sawStart, sawEnd bool
	for _, m := range g.Markers {
		if m.Kind == MarkerStart {
			sawStart = true
		}
		if m.Kind == MarkerEnd {
			sawEnd = true
		}
	}
	require.True(t, sawStart)
	require.True(t, sawEnd)
}

func TestLayoutProcedureGridSkipsUnknownBranchTargets(t *testing.T) {
	p := simpleProcedure()
	p.Branches["b2"] = append(p.Branches["b2"], "ghost")
	g := LayoutProcedureGrid(DefaultConfig(), p, geom.Point{})
	require.Len(t, g.Blocks, 3) // "ghost" never placed
}

func TestLayoutProcedureGridMarksCycleEdges(t *testing.T) {
	p := markup.Procedure{
		ID:            "loop",
		StartBlockIDs: []string{"a"},
		EndBlockIDs:   []string{"c"},
		Branches: map[string][]string{
			"a": {"b"},
			"b": {"c", "a"}, // b->a closes a cycle
		},
	}
	g := LayoutProcedureGrid(DefaultConfig(), p, geom.Point{})
	require.True(t, g.Cycle["b|a"])
	require.True(t, g.Cycle["a|b"]) // a and b share an SCC, so a->b is a cycle edge too
}
