package der

import (
	encoding_asn1 "encoding/asn1"
	"fmt"

	"xdao.co/pqasn/pqerr"
)

// AlgorithmIdentifier is
//
//	AlgorithmIdentifier ::= SEQUENCE {
//	    algorithm   OBJECT IDENTIFIER,
//	    parameters  ANY DEFINED BY algorithm OPTIONAL }
//
// A nil Parameters means the field is absent. An explicit NULL is kept as a
// NULL value so that both encodings round-trip.
type AlgorithmIdentifier struct {
	Algorithm  encoding_asn1.ObjectIdentifier
	Parameters *Value
}

// ParseAlgorithmIdentifier reads an AlgorithmIdentifier from a decoded value.
func ParseAlgorithmIdentifier(v Value) (AlgorithmIdentifier, error) {
	var ai AlgorithmIdentifier
	if !v.tag.IsUniversal(TagSequence) {
		return ai, pqerr.New(pqerr.Decoding, "DER-ALG-001", fmt.Sprintf("der: AlgorithmIdentifier must be a SEQUENCE, got %s", v.tag))
	}
	if len(v.children) < 1 || len(v.children) > 2 {
		return ai, pqerr.New(pqerr.Decoding, "DER-ALG-002", fmt.Sprintf("der: AlgorithmIdentifier has %d fields", len(v.children)))
	}
	if !v.children[0].tag.IsUniversal(TagOID) {
		return ai, pqerr.New(pqerr.Decoding, "DER-ALG-003", "der: AlgorithmIdentifier algorithm is not an OBJECT IDENTIFIER")
	}
	oid, err := v.children[0].OID()
	if err != nil {
		return ai, err
	}
	ai.Algorithm = oid
	if len(v.children) == 2 {
		p := v.children[1].clone()
		ai.Parameters = &p
	}
	return ai, nil
}

// Value encodes the identifier as a SEQUENCE.
func (ai AlgorithmIdentifier) Value() (Value, error) {
	oid, err := ObjectIdentifier(ai.Algorithm)
	if err != nil {
		return Value{}, err
	}
	if ai.Parameters == nil {
		return Sequence(oid), nil
	}
	return Sequence(oid, *ai.Parameters), nil
}

// Equal compares algorithm and parameters, treating absent and present
// parameters as different.
func (ai AlgorithmIdentifier) Equal(o AlgorithmIdentifier) bool {
	if !ai.Algorithm.Equal(o.Algorithm) {
		return false
	}
	if (ai.Parameters == nil) != (o.Parameters == nil) {
		return false
	}
	return ai.Parameters == nil || ai.Parameters.Equal(*o.Parameters)
}
