package palette

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceColorIsStableUnderInputReordering(t *testing.T) {
	services := []string{"checkout", "billing", "catalog", "auth"}
	shuffled := []string{"auth", "catalog", "billing", "checkout"}

	c1 := ServiceColor("billing", services)
	c2 := ServiceColor("billing", shuffled)
	require.Equal(t, c1, c2)
}

func TestServiceColorIsCaseInsensitiveSorted(t *testing.T) {
	services := []string{"Zeta", "alpha", "Beta"}
	// case-insensitive sort: alpha, Beta, Zeta
	require.Equal(t, 0, ServiceColor("alpha", services).Index)
	require.Equal(t, 1, ServiceColor("Beta", services).Index)
	require.Equal(t, 2, ServiceColor("Zeta", services).Index)
}

func TestServiceColorWrapsPastPaletteSize(t *testing.T) {
	services := make([]string, 10)
	for i := range services {
		services[i] = string(rune('a' + i))
	}
	c := ServiceColor("j", services) // 10th entry, index 9 -> wraps to 1
	require.Equal(t, 9%Size, c.Index)
}

func TestEntryHexIsDeterministicAndDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < Size; i++ {
		hex := Entry(i).Hex
		require.False(t, seen[hex], "palette entry %d collided with an earlier entry", i)
		seen[hex] = true
		require.Equal(t, Entry(i).Hex, hex)
	}
}

func TestEntryWrapsNegativeIndex(t *testing.T) {
	require.Equal(t, Entry(0), Entry(-Size))
}
