// Package registry maps canonical hybrid algorithm names to registered
// object identifiers and back.
//
// The default registry is built once at package initialization from a fixed
// catalog and is never mutated afterward, so lookups are safe from any number
// of goroutines without locking.
package registry

import (
	encoding_asn1 "encoding/asn1"
	"fmt"
	"sort"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

// Entry is one catalog row.
type Entry struct {
	Name       string
	Identifier string // dotted decimal
}

// Policy decides what happens when a catalog registers a name or identifier
// more than once.
type Policy int

const (
	// KeepLast lets later entries overwrite earlier ones. Every identifier
	// keeps its own reverse mapping, so both identifiers of a duplicated name
	// still resolve back to that name.
	KeepLast Policy = iota
	// KeepFirst ignores later duplicates.
	KeepFirst
	// Reject fails construction on any duplicate.
	Reject
)

func (p Policy) String() string {
	switch p {
	case KeepLast:
		return "keep-last"
	case KeepFirst:
		return "keep-first"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Registry is an immutable bidirectional name/identifier table.
type Registry struct {
	entries   []Entry
	byName    map[string]string
	byOID     map[string]string
	ambiguous []string
}

// New builds a registry from entries under policy. Identifiers must parse as
// object identifiers; they are stored in canonical dotted form.
func New(entries []Entry, policy Policy) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]string, len(entries)),
		byOID:   make(map[string]string, len(entries)),
	}
	seenAmbiguous := map[string]bool{}
	for _, e := range entries {
		if e.Name == "" {
			return nil, pqerr.New(pqerr.InvalidArgument, "REG-004", "registry: empty name")
		}
		oid, err := der.ParseOID(e.Identifier)
		if err != nil {
			return nil, pqerr.Wrap(pqerr.InvalidArgument, "REG-004", fmt.Sprintf("registry: %s has invalid identifier", e.Name), err)
		}
		id := oid.String()

		prevOID, nameDup := r.byName[e.Name]
		prevName, oidDup := r.byOID[id]
		if (nameDup && prevOID != id) || (oidDup && prevName != e.Name) {
			if policy == Reject {
				return nil, pqerr.New(pqerr.InvalidArgument, "REG-003", fmt.Sprintf("registry: duplicate registration of %s (%s)", e.Name, id))
			}
			if nameDup && !seenAmbiguous[e.Name] {
				seenAmbiguous[e.Name] = true
				r.ambiguous = append(r.ambiguous, e.Name)
			}
		}
		if !nameDup || policy == KeepLast {
			r.byName[e.Name] = id
		}
		if !oidDup || policy == KeepLast {
			r.byOID[id] = e.Name
		}
		r.entries = append(r.entries, Entry{Name: e.Name, Identifier: id})
	}
	return r, nil
}

// NameToIdentifier returns the dotted identifier registered for name.
func (r *Registry) NameToIdentifier(name string) (string, error) {
	id, ok := r.byName[name]
	if !ok {
		return "", pqerr.New(pqerr.UnknownAlgorithm, "REG-001", fmt.Sprintf("registry: no identifier registered for %q", name))
	}
	return id, nil
}

// IdentifierToName returns the name registered for a dotted identifier.
func (r *Registry) IdentifierToName(identifier string) (string, error) {
	name, ok := r.byOID[identifier]
	if !ok {
		return "", pqerr.New(pqerr.UnknownAlgorithm, "REG-002", fmt.Sprintf("registry: no name registered for %q", identifier))
	}
	return name, nil
}

// NameToOID is NameToIdentifier returning a parsed object identifier.
func (r *Registry) NameToOID(name string) (encoding_asn1.ObjectIdentifier, error) {
	id, err := r.NameToIdentifier(name)
	if err != nil {
		return nil, err
	}
	return der.ParseOID(id)
}

// OIDToName is IdentifierToName for a parsed object identifier.
func (r *Registry) OIDToName(oid encoding_asn1.ObjectIdentifier) (string, error) {
	return r.IdentifierToName(oid.String())
}

// Entries returns the catalog rows in registration order, duplicates included.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Names returns the resolvable names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Ambiguous returns names that were registered under more than one
// identifier, in first-seen order.
func (r *Registry) Ambiguous() []string {
	return append([]string(nil), r.ambiguous...)
}

var defaultRegistry = mustNew(catalog, KeepLast)

func mustNew(entries []Entry, policy Policy) *Registry {
	r, err := New(entries, policy)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the process-wide registry built from the fixed catalog
// with KeepLast.
func Default() *Registry { return defaultRegistry }

// Catalog returns a copy of the fixed catalog, for building alternate
// registries with a different Policy.
func Catalog() []Entry { return append([]Entry(nil), catalog...) }

// NameToIdentifier looks name up in the default registry.
func NameToIdentifier(name string) (string, error) { return defaultRegistry.NameToIdentifier(name) }

// IdentifierToName looks a dotted-decimal identifier up in the default registry.
func IdentifierToName(identifier string) (string, error) {
	return defaultRegistry.IdentifierToName(identifier)
}

// NameToOID is NameToIdentifier returning a parsed identifier.
func NameToOID(name string) (encoding_asn1.ObjectIdentifier, error) {
	return defaultRegistry.NameToOID(name)
}

// OIDToName is IdentifierToName for a parsed identifier.
func OIDToName(oid encoding_asn1.ObjectIdentifier) (string, error) {
	return defaultRegistry.OIDToName(oid)
}

// Entries returns the default registry's entries.
func Entries() []Entry { return defaultRegistry.Entries() }

// Ambiguous returns the default registry names registered under more than one identifier.
func Ambiguous() []string { return defaultRegistry.Ambiguous() }
