// Package ocsp maps the RFC 6960 request and response messages onto der
// values.
//
// Parsing is schema-strict: every field is checked for its tag and form,
// DEFAULT values that are encoded explicitly are rejected, and unknown
// trailing fields fail. Certificates, names and GeneralNames are carried as
// opaque der.Value trees, so an unaltered message re-encodes to its original
// bytes.
//
// A BasicResponse travels inside ResponseBytes as the contents of an OCTET
// STRING. Rederive walks that nesting: decode the outer response, decode the
// payload, mutate it, then re-encode both layers.
package ocsp
