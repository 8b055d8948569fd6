// Package layout implements the two-level deterministic layout engine: a
// per-procedure grid layout (C3, spec §4.2) and a procedure-graph layout
// that composes many procedures into weak components, service zones, and
// scenario panels (C4, spec §4.3).
package layout

import "flowmark/internal/geom"

// Config holds every geometric constant the layout engine uses, each
// overridable by the caller (spec §6 "LayoutConfig"). Zero-value Config is
// not usable; start from DefaultConfig.
type Config struct {
	BlockSize  geom.Size
	MarkerSize geom.Size
	Padding    float64
	GapX, GapY float64
	LaneGap    float64

	SeparatorPadding float64
	SeparatorMarginX float64

	ScenarioWidth float64
	ScenarioPadX  float64
	ScenarioPadY  float64

	ServiceZonePadX       float64
	ServiceZonePadY       float64
	ServiceZoneLabelH     float64
	ServiceZoneLabelGap   float64
	ServiceZoneBorderGapX float64
	ServiceZoneBorderGapY float64

	MergeNodeMinChainSize int
}

// DefaultConfig returns the constants spec §6 names as defaults.
func DefaultConfig() Config {
	return Config{
		BlockSize:  geom.Size{W: 260, H: 120},
		MarkerSize: geom.Size{W: 70, H: 50},
		Padding:    120,
		GapX:       120,
		GapY:       80,
		LaneGap:    300,

		SeparatorPadding: 40,
		SeparatorMarginX: 60,

		ScenarioWidth: 420,
		ScenarioPadX:  24,
		ScenarioPadY:  24,

		ServiceZonePadX:       32,
		ServiceZonePadY:       32,
		ServiceZoneLabelH:     28,
		ServiceZoneLabelGap:   8,
		ServiceZoneBorderGapX: 16,
		ServiceZoneBorderGapY: 16,

		MergeNodeMinChainSize: 2,
	}
}
