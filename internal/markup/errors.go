package markup

import "fmt"

// ErrorKind enumerates the error taxonomy from spec §7. Only InvalidDocument
// is ever returned as an error from this package; InvalidEndType is
// recovered locally and reported as a Recovery. UnknownReference and
// EmptyComponent are declared here but not produced by this package.
type ErrorKind string

const (
	InvalidDocument  ErrorKind = "InvalidDocument"
	InvalidEndType   ErrorKind = "InvalidEndType"
	UnknownReference ErrorKind = "UnknownReference"
	EmptyComponent   ErrorKind = "EmptyComponent"
)

// DocumentError is the typed error this package returns. KeyPath identifies
// the offending field using a dotted path (e.g. "procedures[2].branches.a"),
// so a CLI-style caller can print "kind: key path" as spec §7 prescribes.
type DocumentError struct {
	Kind    ErrorKind
	KeyPath string
	Reason  string
}

func (e *DocumentError) Error() string {
	if e.KeyPath == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.KeyPath, e.Reason)
}

func invalidf(keyPath, format string, args ...interface{}) *DocumentError {
	return &DocumentError{Kind: InvalidDocument, KeyPath: keyPath, Reason: fmt.Sprintf(format, args...)}
}

// Recovery records a non-fatal anomaly that the parser fixed up in place:
// an out-of-alphabet end-type suffix (discarded, treated as Default). The
// parser records no other kind of recovery; targets with no known
// destination are not checked here. The parser returns these alongside the
// document so a caller can log or count them without the core taking a
// logging dependency on every call site.
type Recovery struct {
	Kind    ErrorKind // InvalidEndType
	KeyPath string
	Detail  string
}
