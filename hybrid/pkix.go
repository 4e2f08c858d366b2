package hybrid

import (
	encoding_asn1 "encoding/asn1"
	"fmt"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/keys"
	"xdao.co/pqasn/pqerr"
)

// MarshalPublicKey encodes a public identity as a SubjectPublicKeyInfo whose
// algorithm is the combination identifier and whose key is the composite
//
//	CompositePublicKey ::= SEQUENCE SIZE (2) OF BIT STRING
//
// holding the classical key first.
func MarshalPublicKey(id *Identity) ([]byte, error) {
	if id == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "HYB-004", "hybrid: nil identity")
	}
	if id.private {
		return nil, pqerr.New(pqerr.InvalidArgument, "HYB-006", "hybrid: cannot marshal a private identity as a public key")
	}
	c, err := bitString(id.classical.Bytes())
	if err != nil {
		return nil, err
	}
	pq, err := bitString(id.postQuantum.Bytes())
	if err != nil {
		return nil, err
	}
	composite, err := der.Encode(der.Sequence(c, pq))
	if err != nil {
		return nil, err
	}
	alg, err := der.AlgorithmIdentifier{Algorithm: id.algorithm}.Value()
	if err != nil {
		return nil, err
	}
	key, err := bitString(composite)
	if err != nil {
		return nil, err
	}
	return der.Encode(der.Sequence(alg, key))
}

// ParsePublicKey decodes a SubjectPublicKeyInfo written by MarshalPublicKey.
// The identifier must be registered; the identity keeps it as encoded even
// when the name also maps to a newer identifier.
func ParsePublicKey(b []byte, opts ...Option) (*Identity, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	o = o.withDefaults()

	spki, err := der.Decode(b)
	if err != nil {
		return nil, err
	}
	fields, err := sequenceOf(spki, 2, "SubjectPublicKeyInfo")
	if err != nil {
		return nil, err
	}
	alg, err := der.ParseAlgorithmIdentifier(fields[0])
	if err != nil {
		return nil, err
	}
	if alg.Parameters != nil {
		return nil, malformed("algorithm parameters must be absent")
	}
	name, err := o.Registry.OIDToName(alg.Algorithm)
	if err != nil {
		return nil, pqerr.Wrap(pqerr.UnknownAlgorithm, "HYB-003", fmt.Sprintf("hybrid: identifier %s is not registered", alg.Algorithm), err)
	}
	classicalSet, pqSet, ok := ParameterSets(name)
	if !ok {
		return nil, pqerr.New(pqerr.UnknownAlgorithm, "HYB-003", fmt.Sprintf("hybrid: %q does not name a classical and post-quantum pair", name))
	}

	composite, err := octetsOf(fields[1])
	if err != nil {
		return nil, err
	}
	inner, err := der.Decode(composite)
	if err != nil {
		return nil, err
	}
	parts, err := sequenceOf(inner, 2, "CompositePublicKey")
	if err != nil {
		return nil, err
	}
	raw := make([][]byte, 2)
	for i, p := range parts {
		if raw[i], err = octetsOf(p); err != nil {
			return nil, err
		}
	}
	classical, err := keys.ParseKey(classicalSet, raw[0], false)
	if err != nil {
		return nil, err
	}
	postQuantum, err := keys.ParseKey(pqSet, raw[1], false)
	if err != nil {
		return nil, err
	}
	return &Identity{
		classical:   classical,
		postQuantum: postQuantum,
		name:        name,
		algorithm:   alg.Algorithm,
	}, nil
}

func bitString(b []byte) (der.Value, error) {
	return der.BitString(encoding_asn1.BitString{Bytes: b, BitLength: 8 * len(b)})
}

func sequenceOf(v der.Value, n int, what string) ([]der.Value, error) {
	if !v.Tag().IsUniversal(der.TagSequence) {
		return nil, malformed(what + " is not a SEQUENCE")
	}
	children, err := v.Children()
	if err != nil {
		return nil, err
	}
	if len(children) != n {
		return nil, malformed(fmt.Sprintf("%s has %d fields, want %d", what, len(children), n))
	}
	return children, nil
}

func octetsOf(v der.Value) ([]byte, error) {
	if !v.Tag().IsUniversal(der.TagBitString) {
		return nil, malformed("key is not a BIT STRING")
	}
	bs, err := v.BitString()
	if err != nil {
		return nil, err
	}
	if bs.BitLength%8 != 0 {
		return nil, malformed("key BIT STRING is not octet aligned")
	}
	return bs.Bytes, nil
}

func malformed(msg string) error {
	return pqerr.New(pqerr.Decoding, "HYB-005", "hybrid: "+msg)
}
