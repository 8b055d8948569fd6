package markup

import (
	"encoding/json"
	"strconv"
)

type rawUnitMeta struct {
	ServiceName      string      `json:"service_name,omitempty"`
	CriticalityLevel string      `json:"criticality_level,omitempty"`
	TeamID           *FlexString `json:"team_id,omitempty"`
	TeamName         string      `json:"team_name,omitempty"`
	UnitID           *FlexString `json:"unit_id,omitempty"`
}

type rawProcedure struct {
	ProcID             string              `json:"proc_id,omitempty"`
	ProcedureID        string              `json:"procedure_id,omitempty"`
	ProcName           string              `json:"proc_name,omitempty"`
	ProcedureName      string              `json:"procedure_name,omitempty"`
	StartBlockIDs      []string            `json:"start_block_ids,omitempty"`
	EndBlockIDs        []string            `json:"end_block_ids,omitempty"`
	Branches           map[string][]string `json:"branches,omitempty"`
	BlockIDToBlockName map[string]string   `json:"block_id_to_block_name,omitempty"`
}

type rawDocument struct {
	MarkupType       string                            `json:"markup_type"`
	FinedogUnitID    *FlexString                       `json:"finedog_unit_id,omitempty"`
	ServiceName      string                            `json:"service_name,omitempty"`
	CriticalityLevel string                            `json:"criticality_level,omitempty"`
	TeamID           *FlexString                       `json:"team_id,omitempty"`
	TeamName         string                            `json:"team_name,omitempty"`
	FinedogUnitMeta  *rawUnitMeta                      `json:"finedog_unit_meta,omitempty"`
	Procedures       []rawProcedure                    `json:"procedures,omitempty"`
	ProcedureGraph   map[string][]string               `json:"procedure_graph,omitempty"`
	BlockGraph       map[string][]string                `json:"block_graph,omitempty"`
	ProcedureMeta    map[string]map[string]interface{} `json:"procedure_meta,omitempty"`
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Parse decodes and normalizes a raw markup document (spec §6). It returns
// InvalidDocument for structural errors (missing markup_type, missing or
// duplicate procedure IDs); out-of-alphabet end-type suffixes are recovered
// in place (InvalidEndType) and reported via the returned Recovery slice
// rather than failing the parse. Branch and block-graph targets are not
// checked against known IDs here; the grid layout skips targets it cannot
// place, without reporting them.
func Parse(data []byte) (*Document, []Recovery, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, invalidf("", "malformed JSON: %v", err)
	}
	return normalizeDocument(&raw)
}

func normalizeDocument(raw *rawDocument) (*Document, []Recovery, error) {
	if raw.MarkupType == "" {
		return nil, nil, invalidf("markup_type", "required field is missing")
	}

	doc := &Document{
		MarkupType:       raw.MarkupType,
		ServiceName:      raw.ServiceName,
		CriticalityLevel: raw.CriticalityLevel,
		TeamName:         raw.TeamName,
		ProcedureMeta:    raw.ProcedureMeta,
	}
	if raw.FinedogUnitID != nil {
		doc.FinedogUnitID, doc.HasFinedogUnitID = raw.FinedogUnitID.Value, raw.FinedogUnitID.Set()
	}
	if raw.TeamID != nil {
		doc.TeamID, doc.HasTeamID = raw.TeamID.Value, raw.TeamID.Set()
	}

	// finedog_unit_meta is a fallback source for the top-level scalar
	// fields, applied only where the top-level value is absent (spec §6).
	if raw.FinedogUnitMeta != nil {
		m := raw.FinedogUnitMeta
		if doc.ServiceName == "" {
			doc.ServiceName = m.ServiceName
		}
		if doc.CriticalityLevel == "" {
			doc.CriticalityLevel = m.CriticalityLevel
		}
		if doc.TeamName == "" {
			doc.TeamName = m.TeamName
		}
		if !doc.HasTeamID && m.TeamID != nil {
			doc.TeamID, doc.HasTeamID = m.TeamID.Value, m.TeamID.Set()
		}
		if !doc.HasFinedogUnitID && m.UnitID != nil {
			doc.FinedogUnitID, doc.HasFinedogUnitID = m.UnitID.Value, m.UnitID.Set()
		}
	}

	if doc.ProcedureMeta == nil {
		doc.ProcedureMeta = map[string]map[string]interface{}{}
	}

	var recoveries []Recovery
	seen := make(map[string]bool, len(raw.Procedures))
	procedures := make([]Procedure, 0, len(raw.Procedures))
	for i, rp := range raw.Procedures {
		id := coalesce(rp.ProcID, rp.ProcedureID)
		if id == "" {
			return nil, nil, invalidf("procedures["+strconv.Itoa(i)+"].procedure_id", "required field is missing")
		}
		if seen[id] {
			return nil, nil, invalidf("procedures["+strconv.Itoa(i)+"].procedure_id", "duplicate procedure ID %q", id)
		}
		seen[id] = true

		proc, procRecoveries, err := normalizeProcedure(id, coalesce(rp.ProcName, rp.ProcedureName), &rp)
		if err != nil {
			return nil, nil, err
		}
		recoveries = append(recoveries, procRecoveries...)
		procedures = append(procedures, proc)
	}
	doc.Procedures = procedures

	doc.ProcedureGraph = raw.ProcedureGraph
	if doc.ProcedureGraph == nil {
		doc.ProcedureGraph = map[string][]string{}
	}

	blockGraph, initials := normalizeBlockGraph(raw.BlockGraph)
	doc.BlockGraph = blockGraph
	doc.BlockGraphInitials = initials

	return doc, recoveries, nil
}

func normalizeProcedure(id, name string, rp *rawProcedure) (Procedure, []Recovery, error) {
	ends := newEndBlockAccumulator("end_block_ids")
	for _, raw := range rp.EndBlockIDs {
		ends.add(raw)
	}
	branches := normalizeBranches(rp.Branches, ends)
	endIDs, endTypes := ends.result()

	return Procedure{
		ID:                 id,
		Name:               name,
		StartBlockIDs:      dedupeOrdered(rp.StartBlockIDs),
		EndBlockIDs:         endIDs,
		EndBlockTypes:      endTypes,
		Branches:           branches,
		BlockIDToBlockName: rp.BlockIDToBlockName,
	}, ends.recovered, nil
}

