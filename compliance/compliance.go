// Package compliance selects how strictly encoded input is judged.
package compliance

// ComplianceMode selects how aggressively the codec rejects non-canonical input.
//
// Strict mode accepts only DER: definite minimal lengths, minimal tags and
// ordered SET contents. Permissive mode also accepts BER framing (indefinite
// lengths, non-minimal lengths, unordered SETs) so that such input can be
// canonicalized. Output is DER in both modes.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)

func (m ComplianceMode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// Parse maps a flag or config value to a mode.
func Parse(s string) (ComplianceMode, bool) {
	switch s {
	case "strict", "der", "":
		return Strict, true
	case "permissive", "ber":
		return Permissive, true
	default:
		return Strict, false
	}
}
