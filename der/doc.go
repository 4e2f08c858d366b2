// Package der implements a canonical DER codec over an immutable tagged value
// tree.
//
// Decode accepts only canonical encodings: definite minimal lengths, minimal
// tag octets, minimal INTEGER content, DER BOOLEAN values and SET contents in
// ascending encoded order. Encode produces the same canonical form, so for any
// canonical buffer b, Encode(Decode(b)) reproduces b byte for byte.
//
// Context-specific tagging is not self-describing. The codec keeps tagged
// values as generic primitive or constructed nodes, and schema packages (see
// xdao.co/pqasn/ocsp) decide whether a tag wraps its field explicitly or
// replaces the universal tag implicitly.
package der
