package casregistry

import "strings"

// Usage is a bit set naming the kinds of program a backend may be linked into.
type Usage uint8

const (
	// UsageCLI admits the backend to the pqasn command.
	UsageCLI Usage = 1 << iota
	// UsageDaemon admits the backend to pqasn-archived.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

func (u Usage) String() string {
	var parts []string
	if u&UsageCLI != 0 {
		parts = append(parts, "cli")
	}
	if u&UsageDaemon != 0 {
		parts = append(parts, "daemon")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
