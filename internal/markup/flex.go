package markup

import (
	"bytes"
	"encoding/json"
)

// FlexString accepts either a JSON string or a JSON number and stores it as
// a string, per spec §6: "finedog_unit_id (string|int)" and
// "team_id (string or integer)". It serializes back out as a JSON string —
// the canonical form this package treats as ground truth once parsed.
type FlexString struct {
	Value string
	set   bool
}

// NewFlexString wraps a plain string value (used when building documents
// programmatically rather than parsing JSON).
func NewFlexString(s string) FlexString {
	return FlexString{Value: s, set: s != ""}
}

func (f FlexString) String() string { return f.Value }

// Set reports whether the field was present in the source at all.
func (f FlexString) Set() bool { return f.set }

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*f = FlexString{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, set: true}
		return nil
	}
	// Numeric: round-trip through json.Number to preserve exact digits
	// rather than float formatting.
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString{Value: n.String(), set: true}
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
