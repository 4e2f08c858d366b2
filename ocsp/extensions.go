package ocsp

import (
	encoding_asn1 "encoding/asn1"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

var (
	// OIDNonce is id-pkix-ocsp-nonce.
	OIDNonce = encoding_asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 2}
	// OIDBasicResponse is id-pkix-ocsp-basic.
	OIDBasicResponse = encoding_asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}
)

// Extension is
//
//	Extension ::= SEQUENCE {
//	    extnID     OBJECT IDENTIFIER,
//	    critical   BOOLEAN DEFAULT FALSE,
//	    extnValue  OCTET STRING }
type Extension struct {
	ID       encoding_asn1.ObjectIdentifier
	Critical bool
	Value    []byte
}

// Extensions is a SEQUENCE SIZE (1..MAX) OF Extension. A nil Extensions is
// absent; a non-nil empty one fails to encode.
type Extensions []Extension

// Find returns the first extension with the given identifier.
func (e Extensions) Find(id encoding_asn1.ObjectIdentifier) (Extension, bool) {
	for _, ext := range e {
		if ext.ID.Equal(id) {
			return ext, true
		}
	}
	return Extension{}, false
}

// NonceExtension builds a non-critical nonce extension whose value is the
// DER OCTET STRING holding nonce.
func NonceExtension(nonce []byte) (Extension, error) {
	b, err := der.Encode(der.OctetString(nonce))
	if err != nil {
		return Extension{}, err
	}
	return Extension{ID: OIDNonce, Value: b}, nil
}

// Nonce returns the nonce carried by a nonce extension in e.
func (e Extensions) Nonce() ([]byte, bool, error) {
	ext, ok := e.Find(OIDNonce)
	if !ok {
		return nil, false, nil
	}
	v, err := der.Decode(ext.Value)
	if err != nil {
		return nil, true, err
	}
	b, err := readOctets(v, "nonce")
	return b, true, err
}

func parseExtension(v der.Value) (Extension, error) {
	c, err := open(v, "Extension")
	if err != nil {
		return Extension{}, err
	}
	idv, err := c.universal(der.TagOID, "extnID")
	if err != nil {
		return Extension{}, err
	}
	id, err := idv.OID()
	if err != nil {
		return Extension{}, err
	}
	ext := Extension{ID: id}
	f, err := c.next("extnValue")
	if err != nil {
		return Extension{}, err
	}
	if f.Tag().IsUniversal(der.TagBoolean) {
		if ext.Critical, err = f.Bool(); err != nil {
			return Extension{}, err
		}
		if !ext.Critical {
			return Extension{}, schemaErr(ruleDefault, "Extension: critical FALSE must be omitted")
		}
		if f, err = c.next("extnValue"); err != nil {
			return Extension{}, err
		}
	}
	if ext.Value, err = readOctets(f, "Extension extnValue"); err != nil {
		return Extension{}, err
	}
	return ext, c.end()
}

// DER encodes the extension, omitting critical when false.
func (e Extension) DER() (der.Value, error) {
	id, err := der.ObjectIdentifier(e.ID)
	if err != nil {
		return der.Value{}, err
	}
	fields := []der.Value{id}
	if e.Critical {
		fields = append(fields, der.Boolean(true))
	}
	return der.Sequence(append(fields, der.OctetString(e.Value))...), nil
}

// ParseExtensions reads a SEQUENCE SIZE (1..MAX) OF Extension.
func ParseExtensions(v der.Value) (Extensions, error) {
	exts, err := sequenceOf(v, "Extensions", parseExtension)
	if err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		return nil, schemaErr(ruleEmpty, "Extensions must not be empty")
	}
	return Extensions(exts), nil
}

// DER encodes the list as a SEQUENCE OF Extension. A nil list is the caller's
// way to omit the field; an empty one is an error.
func (e Extensions) DER() (der.Value, error) {
	if len(e) == 0 {
		return der.Value{}, pqerr.New(pqerr.Encoding, ruleEmpty, "ocsp: Extensions must not be empty")
	}
	return valuesOf(e, Extension.DER)
}

// extensions reads an optional [n] EXPLICIT Extensions field.
func (c *cursor) extensions(n uint32) (Extensions, error) {
	inner, ok, err := c.explicit(n, "extensions")
	if err != nil || !ok {
		return nil, err
	}
	return ParseExtensions(inner)
}

func appendExtensions(fields []der.Value, n uint32, e Extensions) ([]der.Value, error) {
	if e == nil {
		return fields, nil
	}
	v, err := e.DER()
	if err != nil {
		return nil, err
	}
	return append(fields, der.Explicit(n, v)), nil
}
