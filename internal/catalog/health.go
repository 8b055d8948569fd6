package catalog

import (
	"sort"
	"strings"

	"flowmark/internal/graphkernel"
)

// GraphHealthCategory is the classification alphabet spec §4.5 names.
type GraphHealthCategory string

const (
	GraphHealthOK                  GraphHealthCategory = ""
	GraphHealthTooMany              GraphHealthCategory = "TOO_MANY"
	GraphHealthMultipleWithoutBot   GraphHealthCategory = "MULTIPLE_WITHOUT_BOT"
	GraphHealthNoBot                GraphHealthCategory = "NO_BOT"
	GraphHealthOnlyBot              GraphHealthCategory = "ONLY_BOT"
)

// SimilarityMatch is the top same-team or cross-team overlap for one item
// (spec §4.5 "Similarity").
type SimilarityMatch struct {
	SceneID        string
	OverlapPercent float64
	Flagged        bool
}

// ItemHealth is the per-item health result (spec §4.5's three sub-reports
// folded together per item for convenience).
type ItemHealth struct {
	SceneID                       string
	TeamName                      string
	GraphHealth                   GraphHealthCategory
	ComponentCount                int
	GamingFlagged                 bool
	SameTeamMatch                 *SimilarityMatch
	CrossTeamMatch                *SimilarityMatch
}

// TeamSummary is the per-team rollup of problematic item counts (spec
// §4.5 "Team summary").
type TeamSummary struct {
	TeamName string
	Counts   map[GraphHealthCategory]int
	GamingCount int
	Total    int
}

// HealthReport is BuildCatalogHealthReport's result.
type HealthReport struct {
	Items []ItemHealth
	Teams []TeamSummary
}

// HealthConfig parameterizes the thresholds (spec §6).
type HealthConfig struct {
	SameTeamThresholdPercent  float64
	CrossTeamThresholdPercent float64
}

// DefaultHealthConfig returns the spec's named defaults (40% / 20%).
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{SameTeamThresholdPercent: 40.0, CrossTeamThresholdPercent: 20.0}
}

// BuildCatalogHealthReport implements spec §4.5 "BuildCatalogHealthReport".
func BuildCatalogHealthReport(items []CatalogItem, cfg HealthConfig) HealthReport {
	report := HealthReport{}
	teamCounts := make(map[string]*TeamSummary)

	for _, item := range items {
		ih := ItemHealth{SceneID: item.SceneID, TeamName: item.TeamName}
		ih.GraphHealth, ih.ComponentCount = classifyGraphHealth(item.ProcedureGraph)
		ih.GamingFlagged = ih.ComponentCount > 0 && item.BranchBlockCount == 0 && item.NonPostponeEndBlockCount == 0
		ih.SameTeamMatch = bestMatch(item, items, cfg.SameTeamThresholdPercent, true)
		ih.CrossTeamMatch = bestMatch(item, items, cfg.CrossTeamThresholdPercent, false)
		report.Items = append(report.Items, ih)

		ts, ok := teamCounts[item.TeamName]
		if !ok {
			ts = &TeamSummary{TeamName: item.TeamName, Counts: make(map[GraphHealthCategory]int)}
			teamCounts[item.TeamName] = ts
		}
		if ih.GraphHealth != GraphHealthOK {
			ts.Counts[ih.GraphHealth]++
			ts.Total++
		}
		if ih.GamingFlagged {
			ts.GamingCount++
			ts.Total++
		}
	}

	teamNames := make([]string, 0, len(teamCounts))
	for t := range teamCounts {
		teamNames = append(teamNames, t)
	}
	sort.Strings(teamNames)
	for _, t := range teamNames {
		report.Teams = append(report.Teams, *teamCounts[t])
	}
	return report
}

func classifyGraphHealth(procedureGraph map[string][]string) (GraphHealthCategory, int) {
	nodes := make([]string, 0, len(procedureGraph))
	seen := make(map[string]bool)
	for k, targets := range procedureGraph {
		if !seen[k] {
			seen[k] = true
			nodes = append(nodes, k)
		}
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				nodes = append(nodes, t)
			}
		}
	}
	if len(nodes) == 0 {
		return GraphHealthOK, 0
	}
	sort.Strings(nodes)
	components := graphkernel.WeakComponents(nodes, procedureGraph, nil)

	botComponents, noBotComponents := 0, 0
	for _, comp := range components {
		if componentHasBotStart(comp) {
			botComponents++
		} else {
			noBotComponents++
		}
	}

	switch {
	case len(components) > 3:
		return GraphHealthTooMany, len(components)
	case len(components) >= 2 && botComponents == 0:
		return GraphHealthMultipleWithoutBot, len(components)
	case len(components) == 1 && botComponents == 0:
		return GraphHealthNoBot, len(components)
	case noBotComponents == 0:
		return GraphHealthOnlyBot, len(components)
	default:
		return GraphHealthOK, len(components)
	}
}

func componentHasBotStart(comp []string) bool {
	for _, id := range comp {
		lower := strings.ToLower(id)
		if strings.Contains(lower, "bot") || strings.Contains(lower, "multi") {
			return true
		}
	}
	return false
}

func bestMatch(item CatalogItem, all []CatalogItem, threshold float64, sameTeam bool) *SimilarityMatch {
	aSet := make(map[string]bool, len(item.ProcedureIDs))
	for _, id := range item.ProcedureIDs {
		aSet[id] = true
	}
	if len(aSet) == 0 {
		return nil
	}

	var best *SimilarityMatch
	for _, other := range all {
		if other.SceneID == item.SceneID {
			continue
		}
		if sameTeam && other.TeamName != item.TeamName {
			continue
		}
		if !sameTeam && other.TeamName == item.TeamName {
			continue
		}
		overlap := 0
		for _, id := range other.ProcedureIDs {
			if aSet[id] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		percent := round2(100 * float64(overlap) / float64(len(aSet)))
		if best == nil || percent > best.OverlapPercent || (percent == best.OverlapPercent && other.SceneID < best.SceneID) {
			best = &SimilarityMatch{SceneID: other.SceneID, OverlapPercent: percent}
		}
	}
	if best != nil {
		best.Flagged = best.OverlapPercent > threshold
	}
	return best
}

func round2(v float64) float64 {
	scaled := v*100 + 0.5
	return float64(int(scaled)) / 100
}
