package markup

// EndType classifies why a block terminates a procedure. The zero value is
// not a valid EndType; Default is the value used when a block carries no
// "::<type>" suffix.
type EndType string

const (
	EndTypeEnd          EndType = "end"
	EndTypeExit         EndType = "exit"
	EndTypeAll          EndType = "all"
	EndTypeIntermediate EndType = "intermediate"
	EndTypePostpone     EndType = "postpone"
	EndTypeTurnOut      EndType = "turn_out"

	// Default is the end-type assigned to an end block ID with no suffix.
	Default = EndTypeEnd
)

// validEndTypes is the complete alphabet from spec §3.
var validEndTypes = map[EndType]bool{
	EndTypeEnd:          true,
	EndTypeExit:         true,
	EndTypeAll:          true,
	EndTypeIntermediate: true,
	EndTypePostpone:     true,
	EndTypeTurnOut:      true,
}

// IsValidEndType reports whether t is a member of the end-type alphabet.
func IsValidEndType(t EndType) bool {
	return validEndTypes[t]
}

// MergeEndType implements the total merge function from spec §3. It is
// deliberately literal about the turn_out special cases, including the
// turn_out+turn_out == turn_out identity noted as an open question in
// SPEC_FULL.md (decision 2): the "new" branch is taken in that case, and new
// happens to equal turn_out, so the result is turn_out.
func MergeEndType(existing, next EndType, hasExisting bool) EndType {
	if !hasExisting {
		return next
	}
	if existing == next {
		return existing
	}
	if existing == EndTypeTurnOut {
		return next
	}
	if next == EndTypeTurnOut {
		return existing
	}
	if existing == EndTypePostpone || next == EndTypePostpone {
		return EndTypePostpone
	}
	if existing == EndTypeIntermediate || next == EndTypeIntermediate {
		return EndTypeIntermediate
	}
	if existing == EndTypeAll || next == EndTypeAll {
		return EndTypeAll
	}
	if isEndExitPair(existing, next) {
		return EndTypeAll
	}
	return next
}

func isEndExitPair(a, b EndType) bool {
	return (a == EndTypeEnd && b == EndTypeExit) || (a == EndTypeExit && b == EndTypeEnd)
}
