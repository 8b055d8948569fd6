package markup

import (
	"encoding/json"
	"sort"
)

// Serialize produces the canonical JSON form of the document (spec §3/§8
// roundtrip invariant: parse(serialize(d)) == d, modulo sorting the
// unordered collections). End-type suffixes are re-attached to end block
// IDs so the output is a valid input to Parse again.
func (d *Document) Serialize() ([]byte, error) {
	return json.Marshal(d.toRaw())
}

func (d *Document) toRaw() *rawDocument {
	raw := &rawDocument{
		MarkupType:       d.MarkupType,
		ServiceName:      d.ServiceName,
		CriticalityLevel: d.CriticalityLevel,
		TeamName:         d.TeamName,
		ProcedureGraph:   d.ProcedureGraph,
		ProcedureMeta:    d.ProcedureMeta,
	}
	if d.HasFinedogUnitID {
		v := NewFlexString(d.FinedogUnitID)
		raw.FinedogUnitID = &v
	}
	if d.HasTeamID {
		v := NewFlexString(d.TeamID)
		raw.TeamID = &v
	}

	raw.Procedures = make([]rawProcedure, 0, len(d.Procedures))
	for _, p := range d.Procedures {
		raw.Procedures = append(raw.Procedures, p.toRaw())
	}

	raw.BlockGraph = denormalizeBlockGraph(d.BlockGraph, d.BlockGraphInitials)
	return raw
}

func (p *Procedure) toRaw() rawProcedure {
	endIDs := make([]string, len(p.EndBlockIDs))
	for i, id := range p.EndBlockIDs {
		t := p.EndBlockTypes[id]
		if t == "" || t == Default {
			endIDs[i] = id
			continue
		}
		endIDs[i] = id + "::" + string(t)
	}

	return rawProcedure{
		ProcedureID:        p.ID,
		ProcedureName:      p.Name,
		StartBlockIDs:      append([]string(nil), p.StartBlockIDs...),
		EndBlockIDs:        endIDs,
		Branches:           p.Branches,
		BlockIDToBlockName: p.BlockIDToBlockName,
	}
}

// denormalizeBlockGraph re-attaches "::initial" suffixes to IDs that were
// marked as initial. It does not attempt to reconstruct exactly which side
// (key or value) originally carried the marker for a given edge — the base
// ID membership in BlockGraphInitials is the normalized, canonical form —
// so the marker is re-emitted on every occurrence of an initial block, as a
// key and as a target.
func denormalizeBlockGraph(graph map[string][]string, initials map[string]bool) map[string][]string {
	out := make(map[string][]string, len(graph))
	label := func(id string) string {
		if initials[id] {
			return id + "::initial"
		}
		return id
	}
	keys := make([]string, 0, len(graph))
	for k := range graph {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		targets := graph[k]
		labeled := make([]string, len(targets))
		for i, t := range targets {
			labeled[i] = label(t)
		}
		out[label(k)] = labeled
	}
	return out
}
