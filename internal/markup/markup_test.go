package markup

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sortedCopy(doc *Document) *Document {
	cp := *doc
	cp.Procedures = append([]Procedure(nil), doc.Procedures...)
	for i, p := range cp.Procedures {
		p.EndBlockIDs = append([]string(nil), p.EndBlockIDs...)
		sort.Strings(p.EndBlockIDs)
		branches := make(map[string][]string, len(p.Branches))
		for src, targets := range p.Branches {
			t := append([]string(nil), targets...)
			sort.Strings(t)
			branches[src] = t
		}
		p.Branches = branches
		cp.Procedures[i] = p
	}
	return &cp
}

func TestParseBasicDocument(t *testing.T) {
	input := `{
		"markup_type": "service",
		"procedures": [
			{"proc_id": "p1", "start_block_ids": ["a","b","c"],
			 "end_block_ids": ["x::postpone"],
			 "branches": {"a": ["f"], "b": ["d"], "c": ["e"]}}
		]
	}`
	doc, recoveries, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Empty(t, recoveries)
	require.Len(t, doc.Procedures, 1)

	p := doc.Procedures[0]
	require.Equal(t, "p1", p.ID)
	require.Equal(t, []string{"a", "b", "c"}, p.StartBlockIDs)
	require.Equal(t, []string{"x"}, p.EndBlockIDs)
	require.Equal(t, EndTypePostpone, p.EndBlockTypes["x"])
}

func TestParseUnknownEndTypeSuffixRecovered(t *testing.T) {
	input := `{"markup_type":"service","procedures":[
		{"proc_id":"p1","end_block_ids":["x::bogus"]}
	]}`
	doc, recoveries, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, recoveries, 1)
	require.Equal(t, InvalidEndType, recoveries[0].Kind)
	require.Equal(t, Default, doc.Procedures[0].EndBlockTypes["x"])
}

func TestParseDuplicateProcedureIDIsInvalid(t *testing.T) {
	input := `{"markup_type":"service","procedures":[
		{"proc_id":"p1"},{"proc_id":"p1"}
	]}`
	_, _, err := Parse([]byte(input))
	require.Error(t, err)
	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	require.Equal(t, InvalidDocument, docErr.Kind)
}

func TestBranchEndTargetFoldedIntoEndBlocks(t *testing.T) {
	input := `{"markup_type":"service","procedures":[
		{"proc_id":"p1","branches":{"a":["End","b"]}}
	]}`
	doc, _, err := Parse([]byte(input))
	require.NoError(t, err)
	p := doc.Procedures[0]
	require.Equal(t, []string{"b"}, p.Branches["a"])
	require.Contains(t, p.EndBlockIDs, "a")
	require.Equal(t, Default, p.EndBlockTypes["a"])
}

func TestBlockGraphInitialAndSymmetry(t *testing.T) {
	input := `{"markup_type":"service","block_graph":{"b1::initial":["b2"]}}`
	doc, _, err := Parse([]byte(input))
	require.NoError(t, err)
	require.True(t, doc.BlockGraphInitials["b1"])
	require.Equal(t, []string{"b2"}, doc.BlockGraph["b1"])
	targets, ok := doc.BlockGraph["b2"]
	require.True(t, ok, "every target must also appear as a key after normalization")
	require.Empty(t, targets)
}

func TestRoundtrip(t *testing.T) {
	input := `{
		"markup_type": "procedure_graph",
		"finedog_unit_id": 42,
		"team_id": "7",
		"team_name": "Payments",
		"procedures": [
			{"proc_id":"p1","proc_name":"First","start_block_ids":["a"],
			 "end_block_ids":["z::exit","z::end"],
			 "branches":{"a":["z"]},
			 "block_id_to_block_name":{"a":"Alpha"}}
		],
		"procedure_graph": {"p1": []},
		"block_graph": {"a::initial": ["z"]}
	}`
	doc1, _, err := Parse([]byte(input))
	require.NoError(t, err)

	out, err := doc1.Serialize()
	require.NoError(t, err)

	doc2, _, err := Parse(out)
	require.NoError(t, err)

	if diff := cmp.Diff(sortedCopy(doc1), sortedCopy(doc2)); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}

	// z::exit merged with z::end should produce "all" per the merge table.
	require.Equal(t, EndTypeAll, doc1.Procedures[0].EndBlockTypes["z"])
}

func TestFinedogUnitMetaFallback(t *testing.T) {
	input := `{
		"markup_type": "service",
		"finedog_unit_meta": {"service_name": "Checkout", "team_name": "Payments", "team_id": 9}
	}`
	doc, _, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Equal(t, "Checkout", doc.ServiceName)
	require.Equal(t, "Payments", doc.TeamName)
	require.Equal(t, "9", doc.TeamID)
}
