package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"flowmark/internal/markup"
)

// BuildCatalogIndex implements spec §4.5 "BuildCatalogIndex": project
// fields via a dotted-path resolver, compute scene_id, collect
// procedure/block IDs, count branch/end/postpone blocks, and sort.
func BuildCatalogIndex(items []RawItem, cfg IndexConfig, generatedAt string) CatalogIndex {
	out := make([]CatalogItem, 0, len(items))
	for _, raw := range items {
		out = append(out, buildCatalogItem(raw, cfg))
	}
	sortItems(out, cfg.SortBy, cfg.SortOrder)

	return CatalogIndex{
		GeneratedAt:  generatedAt,
		GroupBy:      cfg.GroupBy,
		TitleField:   cfg.TitleField,
		TagFields:    cfg.TagFields,
		SortBy:       cfg.SortBy,
		SortOrder:    cfg.SortOrder,
		UnknownValue: cfg.UnknownValue,
		Items:        out,
	}
}

func buildCatalogItem(raw RawItem, cfg IndexConfig) CatalogItem {
	doc := raw.Document

	item := CatalogItem{
		SceneID:          sceneID(raw),
		Title:            resolveField(raw, cfg.TitleField, cfg.UnknownValue),
		UpdatedAt:        raw.UpdatedAt,
		MarkupType:       doc.MarkupType,
		FinedogUnitID:    doc.FinedogUnitID,
		CriticalityLevel: doc.CriticalityLevel,
		TeamID:           doc.TeamID,
		TeamName:         doc.TeamName,
		RelPath:          raw.Path,
		GroupValues:      make(map[string]string, len(cfg.GroupBy)),
		Fields:           make(map[string]string),
		MarkupMeta:       make(map[string]string),
		ProcedureBlocks:  make(map[string][]string),
		ProcedureGraph:   doc.ProcedureGraph,
	}

	for _, tf := range cfg.TagFields {
		if v := resolveField(raw, tf, ""); v != "" {
			item.Tags = append(item.Tags, v)
		}
	}
	for _, g := range cfg.GroupBy {
		item.GroupValues[g] = resolveField(raw, g, cfg.UnknownValue)
	}

	seenProc := make(map[string]bool)
	seenBlock := make(map[string]bool)
	for _, p := range doc.Procedures {
		if !seenProc[p.ID] {
			seenProc[p.ID] = true
			item.ProcedureIDs = append(item.ProcedureIDs, p.ID)
		}
		var blocks []string
		for id := range p.AllBlockIDs() {
			blocks = append(blocks, id)
		}
		sort.Strings(blocks)
		item.ProcedureBlocks[p.ID] = blocks
		for _, id := range blocks {
			if !seenBlock[id] {
				seenBlock[id] = true
				item.BlockIDs = append(item.BlockIDs, id)
			}
		}

		for _, targets := range p.Branches {
			item.BranchBlockCount += len(targets)
		}
		for _, id := range p.EndBlockIDs {
			if p.EndBlockTypes[id] == markup.EndTypePostpone {
				item.PostponeEndBlockCount++
			} else {
				item.NonPostponeEndBlockCount++
			}
		}
	}

	return item
}

// sceneID implements spec §4.5's
// `scene_id = finedog_unit_id || slug(path_stem)+"-"+sha256(canonical_json)[0:10]`.
func sceneID(raw RawItem) string {
	if raw.Document.HasFinedogUnitID && raw.Document.FinedogUnitID != "" {
		return raw.Document.FinedogUnitID
	}
	canonical, err := raw.Document.Serialize()
	if err != nil {
		canonical = nil
	}
	sum := sha256.Sum256(canonical)
	hexSum := hex.EncodeToString(sum[:])[:10]
	return slug(pathStem(raw.Path)) + "-" + hexSum
}

func pathStem(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

func slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// resolveField is the dotted-path resolver (spec §4.5): it walks
// raw_payload first, falling back to a small set of known document
// fields, and returns fallback if nothing resolves.
func resolveField(raw RawItem, path string, fallback string) string {
	if path == "" {
		return fallback
	}
	if v, ok := resolveDottedPath(raw.RawPayload, path); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v := resolveDocumentField(raw.Document, path); v != "" {
		return v
	}
	return fallback
}

func resolveDottedPath(payload map[string]interface{}, path string) (interface{}, bool) {
	if payload == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur interface{} = payload
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func resolveDocumentField(doc *markup.Document, path string) string {
	switch path {
	case "markup_type":
		return doc.MarkupType
	case "service_name":
		return doc.ServiceName
	case "criticality_level":
		return doc.CriticalityLevel
	case "team_id":
		return doc.TeamID
	case "team_name":
		return doc.TeamName
	case "finedog_unit_id":
		return doc.FinedogUnitID
	default:
		return ""
	}
}

func sortItems(items []CatalogItem, sortBy, order string) {
	less := func(i, j int) bool {
		a, b := sortKey(items[i], sortBy), sortKey(items[j], sortBy)
		return a < b
	}
	sort.SliceStable(items, func(i, j int) bool {
		if order == "desc" {
			return less(j, i)
		}
		return less(i, j)
	})
}

func sortKey(item CatalogItem, sortBy string) string {
	switch sortBy {
	case "updated_at":
		return item.UpdatedAt
	case "markup_type":
		return item.MarkupType
	case "finedog_unit_id":
		return item.FinedogUnitID
	case "title", "":
		return item.Title
	default:
		if v, ok := item.GroupValues[sortBy]; ok {
			return v
		}
		if v, ok := item.Fields[sortBy]; ok {
			return v
		}
		return item.Title
	}
}
