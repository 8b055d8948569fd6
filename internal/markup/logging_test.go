package markup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowmark/internal/obslog"
)

func TestParseWithLoggingReturnsDocumentWithRecoveredEndType(t *testing.T) {
	input := `{"markup_type":"service","procedures":[
		{"proc_id":"p1","end_block_ids":["x::bogus"]}
	]}`
	doc, err := ParseWithLogging([]byte(input), obslog.NewNop())
	require.NoError(t, err)
	require.Equal(t, Default, doc.Procedures[0].EndBlockTypes["x"])
}

func TestParseWithLoggingPropagatesInvalidDocumentError(t *testing.T) {
	_, err := ParseWithLogging([]byte(`{}`), obslog.NewNop())
	require.Error(t, err)
}
