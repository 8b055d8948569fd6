// Package catalog implements the aggregator layer (C6, spec §4.5):
// building a searchable catalog index over many markup documents, a
// health report, a cross-team dashboard, and a merged team procedure
// graph.
package catalog

import "flowmark/internal/markup"

// RawItem is one source document as the catalog aggregators see it: the
// parsed document plus its untouched JSON payload (for dotted-path field
// projection) and filesystem/update metadata.
type RawItem struct {
	Path       string
	Document   *markup.Document
	RawPayload map[string]interface{}
	UpdatedAt  string // RFC3339
}

// IndexConfig parameterizes BuildCatalogIndex (spec §4.5, §6
// "CatalogIndexConfig").
type IndexConfig struct {
	GroupBy      []string
	TitleField   string
	TagFields    []string
	SortBy       string
	SortOrder    string // "asc" | "desc"
	UnknownValue string
}

// DefaultIndexConfig returns sensible defaults mirroring the ambient
// configuration layer's conventions.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		TitleField:   "service_name",
		SortBy:       "title",
		SortOrder:    "asc",
		UnknownValue: "unknown",
	}
}

// CatalogItem is one document's projected, aggregate-friendly record
// (spec §3 "CatalogItem").
type CatalogItem struct {
	SceneID                   string
	Title                     string
	Tags                      []string
	UpdatedAt                 string
	MarkupType                string
	FinedogUnitID             string
	CriticalityLevel          string
	TeamID                    string
	TeamName                  string
	GroupValues               map[string]string
	Fields                    map[string]string
	MarkupMeta                map[string]string
	RelPath                   string
	ProcedureIDs              []string
	BlockIDs                  []string
	ProcedureBlocks           map[string][]string
	ProcedureGraph            map[string][]string
	BranchBlockCount          int
	NonPostponeEndBlockCount  int
	PostponeEndBlockCount     int
}

// CatalogIndex is the persisted result of BuildCatalogIndex (spec §6
// "Catalog index").
type CatalogIndex struct {
	GeneratedAt  string
	GroupBy      []string
	TitleField   string
	TagFields    []string
	SortBy       string
	SortOrder    string
	UnknownValue string
	Items        []CatalogItem
}
