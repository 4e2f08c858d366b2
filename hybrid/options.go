package hybrid

import (
	encoding_asn1 "encoding/asn1"

	"xdao.co/pqasn/registry"
)

// Options controls resolution.
//
// Default behavior classifies both keys and looks the combination up in
// registry.Default() when Options{} is used.
type Options struct {
	// Identifier, when HasIdentifier is set, bypasses classification
	// entirely. It must be a valid identifier; an empty one is an error.
	Identifier    encoding_asn1.ObjectIdentifier
	HasIdentifier bool
	Registry      *registry.Registry
}

// Option mutates Options.
type Option func(*Options)

// WithIdentifier supplies an explicit identifier. The resulting identity has
// no canonical name.
func WithIdentifier(oid encoding_asn1.ObjectIdentifier) Option {
	return func(o *Options) {
		o.Identifier = append(encoding_asn1.ObjectIdentifier(nil), oid...)
		o.HasIdentifier = true
	}
}

// WithRegistry resolves names against r instead of the default catalog.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	return o
}
