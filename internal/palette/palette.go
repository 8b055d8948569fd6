// Package palette derives deterministic, perceptually-distinct service
// colors for diagram tiles (spec.md §4.5: "derive a deterministic service
// color from a fixed 8-color palette, indexed by sorted service key").
package palette

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Size is the number of entries in the fixed palette.
const Size = 8

// entries is computed once at package init: eight hues spaced evenly around
// the HCL color wheel at a fixed chroma/luminance, so adjacent palette
// entries are perceptually distinguishable rather than arithmetically
// distinct-but-visually-similar hex steps.
var entries = buildEntries()

func buildEntries() [Size]colorful.Color {
	var out [Size]colorful.Color
	const chroma = 0.6
	const luminance = 0.65
	for i := 0; i < Size; i++ {
		hue := float64(i) * (360.0 / float64(Size))
		out[i] = colorful.Hcl(hue, chroma, luminance).Clamped()
	}
	return out
}

// Color is a palette entry, exposed as both its hex string (for diagram
// serialization) and its index (for stable equality checks).
type Color struct {
	Index int
	Hex   string
}

// Entry returns the palette color at the given index, wrapping modulo Size.
func Entry(index int) Color {
	i := ((index % Size) + Size) % Size
	return Color{Index: i, Hex: entries[i].Hex()}
}

// ServiceColor deterministically assigns a palette entry to serviceName:
// the index is serviceName's position in the case-insensitive-sorted set of
// allServices, mod Size. Two documents sharing the same service set always
// assign the same color to the same service, regardless of input order.
func ServiceColor(serviceName string, allServices []string) Color {
	sorted := sortedServiceKeys(allServices)
	idx := 0
	for i, s := range sorted {
		if s == serviceName {
			idx = i
			break
		}
	}
	return Entry(idx)
}

// sortedServiceKeys returns the deduplicated, case-insensitive-sorted set of
// service names used to index the palette.
func sortedServiceKeys(services []string) []string {
	seen := make(map[string]bool, len(services))
	var out []string
	for _, s := range services {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lowerLess(out[i], out[j])
	})
	return out
}

func lowerLess(a, b string) bool {
	la, lb := toLower(a), toLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
