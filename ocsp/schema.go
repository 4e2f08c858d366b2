package ocsp

import (
	encoding_asn1 "encoding/asn1"
	"fmt"
	"time"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

// Schema rule IDs.
const (
	ruleWrongType    = "OCSP-SCH-001"
	ruleFieldCount   = "OCSP-SCH-002"
	ruleDefault      = "OCSP-SCH-003"
	rulePayload      = "OCSP-SCH-004"
	ruleStatus       = "OCSP-SCH-005"
	ruleResponseType = "OCSP-SCH-006"
	ruleChoice       = "OCSP-SCH-007"
	ruleVersion      = "OCSP-SCH-008"
	ruleEmpty        = "OCSP-SCH-009"
)

func schemaErr(rule, msg string) error {
	return pqerr.New(pqerr.Decoding, rule, "ocsp: "+msg)
}

// cursor walks the fields of a SEQUENCE in order.
type cursor struct {
	what   string
	fields []der.Value
	pos    int
}

func open(v der.Value, what string) (*cursor, error) {
	if !v.Tag().IsUniversal(der.TagSequence) {
		return nil, schemaErr(ruleWrongType, fmt.Sprintf("%s must be a SEQUENCE, got %s", what, v.Tag()))
	}
	children, err := v.Children()
	if err != nil {
		return nil, err
	}
	return &cursor{what: what, fields: children}, nil
}

// next returns the next field, whatever its tag.
func (c *cursor) next(field string) (der.Value, error) {
	if c.pos >= len(c.fields) {
		return der.Value{}, schemaErr(ruleFieldCount, fmt.Sprintf("%s: missing %s", c.what, field))
	}
	v := c.fields[c.pos]
	c.pos++
	return v, nil
}

// universal returns the next field, which must carry the universal tag number.
func (c *cursor) universal(number uint32, field string) (der.Value, error) {
	v, err := c.next(field)
	if err != nil {
		return v, err
	}
	if !v.Tag().IsUniversal(number) {
		return v, schemaErr(ruleWrongType, fmt.Sprintf("%s: %s must be %s, got %s", c.what, field, der.Universal(number), v.Tag()))
	}
	return v, nil
}

// peek reports whether the next field carries context tag n.
func (c *cursor) peek(n uint32) bool {
	return c.pos < len(c.fields) && c.fields[c.pos].Tag().IsContext(n)
}

// explicit consumes an optional [n] EXPLICIT field and returns its inner value.
func (c *cursor) explicit(n uint32, field string) (der.Value, bool, error) {
	if !c.peek(n) {
		return der.Value{}, false, nil
	}
	v := c.fields[c.pos]
	c.pos++
	if !v.Tag().Constructed {
		return der.Value{}, false, schemaErr(ruleWrongType, fmt.Sprintf("%s: %s must be explicitly tagged", c.what, field))
	}
	inner, err := v.Inner()
	if err != nil {
		return der.Value{}, false, err
	}
	return inner, true, nil
}

func (c *cursor) end() error {
	if c.pos != len(c.fields) {
		return schemaErr(ruleFieldCount, fmt.Sprintf("%s: unexpected field %s", c.what, c.fields[c.pos].Tag()))
	}
	return nil
}

// version reads an optional [0] EXPLICIT Version DEFAULT v1.
func (c *cursor) version() (int, error) {
	inner, ok, err := c.explicit(0, "version")
	if err != nil || !ok {
		return 0, err
	}
	if !inner.Tag().IsUniversal(der.TagInteger) {
		return 0, schemaErr(ruleWrongType, c.what+": version must be an INTEGER")
	}
	n, err := inner.Int64()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, schemaErr(ruleDefault, c.what+": version v1 must be omitted")
	}
	if n < 0 || n > 1<<16 {
		return 0, schemaErr(ruleVersion, fmt.Sprintf("%s: unsupported version %d", c.what, n))
	}
	return int(n), nil
}

func appendVersion(fields []der.Value, version int) []der.Value {
	if version == 0 {
		return fields
	}
	return append(fields, der.Explicit(0, der.Int64(int64(version))))
}

func readOctets(v der.Value, what string) ([]byte, error) {
	if !v.Tag().IsUniversal(der.TagOctetString) {
		return nil, schemaErr(ruleWrongType, fmt.Sprintf("%s must be an OCTET STRING, got %s", what, v.Tag()))
	}
	return v.Octets()
}

func readBitString(v der.Value, what string) (encoding_asn1.BitString, error) {
	if !v.Tag().IsUniversal(der.TagBitString) {
		return encoding_asn1.BitString{}, schemaErr(ruleWrongType, fmt.Sprintf("%s must be a BIT STRING, got %s", what, v.Tag()))
	}
	return v.BitString()
}

func readTime(v der.Value, what string) (time.Time, error) {
	if !v.Tag().IsUniversal(der.TagGeneralizedTime) {
		return time.Time{}, schemaErr(ruleWrongType, fmt.Sprintf("%s must be a GeneralizedTime, got %s", what, v.Tag()))
	}
	return v.Time()
}

// readCerts reads a SEQUENCE OF Certificate. The result is non-nil so that a
// present but empty list stays distinct from an absent one.
func readCerts(v der.Value) ([]der.Value, error) {
	if !v.Tag().IsUniversal(der.TagSequence) {
		return nil, schemaErr(ruleWrongType, "certs must be a SEQUENCE OF Certificate")
	}
	certs, err := v.Children()
	if err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []der.Value{}
	}
	return certs, nil
}

// sequenceOf reads a SEQUENCE OF, applying parse to each element.
func sequenceOf[T any](v der.Value, what string, parse func(der.Value) (T, error)) ([]T, error) {
	if !v.Tag().IsUniversal(der.TagSequence) {
		return nil, schemaErr(ruleWrongType, fmt.Sprintf("%s must be a SEQUENCE OF, got %s", what, v.Tag()))
	}
	children, err := v.Children()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(children))
	for _, child := range children {
		item, err := parse(child)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// valuesOf encodes each element with value and wraps them in a SEQUENCE.
func valuesOf[T any](items []T, value func(T) (der.Value, error)) (der.Value, error) {
	out := make([]der.Value, 0, len(items))
	for _, item := range items {
		v, err := value(item)
		if err != nil {
			return der.Value{}, err
		}
		out = append(out, v)
	}
	return der.Sequence(out...), nil
}

func decode(b []byte, opts []Option) (der.Value, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return der.DecodeWithMode(b, o.mode())
}
