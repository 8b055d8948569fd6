package markup

import "strings"

// dedupeOrdered returns the input with duplicates removed, preserving the
// order of first occurrence.
func dedupeOrdered(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// splitSuffix splits "base::suffix" into ("base", "suffix", true), or
// returns (id, "", false) if there is no "::" marker.
func splitSuffix(id string) (base, suffix string, ok bool) {
	i := strings.Index(id, "::")
	if i < 0 {
		return id, "", false
	}
	return id[:i], id[i+2:], true
}

// stripInitialMarker strips a "::initial" suffix (case-insensitive),
// reporting whether it was present.
func stripInitialMarker(id string) (base string, isInitial bool) {
	base, suffix, ok := splitSuffix(id)
	if ok && strings.EqualFold(suffix, "initial") {
		return base, true
	}
	return id, false
}

// endBlockAccumulator folds a sequence of end-block declarations (each
// optionally suffixed "::<type>") into deduplicated IDs and a merged
// EndType per ID, recording a Recovery for every out-of-alphabet suffix.
type endBlockAccumulator struct {
	order     []string
	types     map[string]EndType
	hasType   map[string]bool
	recovered []Recovery
	keyPath   string
}

func newEndBlockAccumulator(keyPath string) *endBlockAccumulator {
	return &endBlockAccumulator{
		types:   make(map[string]EndType),
		hasType: make(map[string]bool),
		keyPath: keyPath,
	}
}

func (a *endBlockAccumulator) add(rawID string) {
	base, suffix, hasSuffix := splitSuffix(rawID)
	t := Default
	if hasSuffix {
		candidate := EndType(suffix)
		if IsValidEndType(candidate) {
			t = candidate
		} else {
			a.recovered = append(a.recovered, Recovery{
				Kind:    InvalidEndType,
				KeyPath: a.keyPath + "[" + rawID + "]",
				Detail:  "unknown end-type suffix " + suffix + ", treated as " + string(Default),
			})
		}
	}
	a.merge(base, t)
}

func (a *endBlockAccumulator) merge(base string, t EndType) {
	if !a.hasType[base] {
		a.order = append(a.order, base)
	}
	a.types[base] = MergeEndType(a.types[base], t, a.hasType[base])
	a.hasType[base] = true
}

func (a *endBlockAccumulator) result() ([]string, map[string]EndType) {
	out := make(map[string]EndType, len(a.types))
	for k, v := range a.types {
		out[k] = v
	}
	return append([]string(nil), a.order...), out
}

// normalizeBranches removes literal "end" targets (case-insensitive) from a
// branch map, folding each one into the supplied end-block accumulator
// keyed on its source block, and deduplicates remaining targets.
func normalizeBranches(raw map[string][]string, ends *endBlockAccumulator) map[string][]string {
	if raw == nil {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(raw))
	for src, targets := range raw {
		kept := make([]string, 0, len(targets))
		for _, t := range targets {
			if strings.EqualFold(t, "end") {
				ends.merge(src, Default)
				continue
			}
			kept = append(kept, t)
		}
		out[src] = dedupeOrdered(kept)
	}
	return out
}

// normalizeBlockGraph strips "::initial" suffixes from keys and values,
// records the base IDs in the initials set, and makes the graph symmetric
// by adding an empty entry for every target that isn't already a key.
func normalizeBlockGraph(raw map[string][]string) (map[string][]string, map[string]bool) {
	initials := make(map[string]bool)
	out := make(map[string][]string)

	resolve := func(id string) string {
		base, isInitial := stripInitialMarker(id)
		if isInitial {
			initials[base] = true
		}
		return base
	}

	for rawSrc, rawTargets := range raw {
		src := resolve(rawSrc)
		targets := make([]string, 0, len(rawTargets))
		for _, rt := range rawTargets {
			targets = append(targets, resolve(rt))
		}
		out[src] = append(out[src], dedupeOrdered(targets)...)
	}
	for src := range out {
		out[src] = dedupeOrdered(out[src])
	}
	for src, targets := range out {
		for _, t := range targets {
			if _, ok := out[t]; !ok {
				out[t] = []string{}
			}
		}
		_ = src
	}
	return out, initials
}
