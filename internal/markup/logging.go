package markup

import (
	"go.uber.org/zap"

	"flowmark/internal/obslog"
)

// ParseWithLogging calls Parse and reports every Recovery through logger at
// Warn level (spec §7: InvalidEndType and UnknownReference are recovered or
// discarded locally, never returned as errors, but still worth surfacing to
// an operator). Parse itself stays free of any logging dependency so callers
// that don't want one can use it directly.
func ParseWithLogging(data []byte, logger *obslog.Logger) (*Document, error) {
	doc, recoveries, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for _, r := range recoveries {
		logger.Warn("recovered malformed input",
			zap.String("kind", string(r.Kind)),
			zap.String("key_path", r.KeyPath),
			zap.String("detail", r.Detail),
		)
	}
	return doc, nil
}
