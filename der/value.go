package der

import (
	"bytes"
	encoding_asn1 "encoding/asn1"
	"fmt"
	"math/big"
	"sort"
	"time"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"xdao.co/pqasn/pqerr"
)

// Value is an immutable node of a decoded or constructed DER tree.
//
// A primitive value carries content octets; a constructed value carries an
// ordered list of children. Values returned by accessors never alias the
// receiver's storage.
type Value struct {
	tag      Tag
	content  []byte
	children []Value
}

// Tag returns the value's tag.
func (v Value) Tag() Tag { return v.tag }

// IsZero reports whether v is the zero Value (never produced by Decode).
func (v Value) IsZero() bool {
	return v.tag == (Tag{}) && v.content == nil && v.children == nil
}

// Primitive builds a primitive value with the given tag and content.
func Primitive(tag Tag, content []byte) Value {
	tag.Constructed = false
	return Value{tag: tag, content: bytes.Clone(nonNil(content))}
}

// Constructed builds a constructed value with the given tag and children.
func Constructed(tag Tag, children ...Value) Value {
	tag.Constructed = true
	return Value{tag: tag, children: cloneValues(children)}
}

// Integer builds an INTEGER. A nil n encodes zero.
func Integer(n *big.Int) Value {
	if n == nil {
		n = new(big.Int)
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1BigInt(n)
	return Value{tag: Universal(TagInteger), content: stripHeader(b.BytesOrPanic())}
}

// Int64 builds an INTEGER from a machine integer.
func Int64(n int64) Value {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1Int64(n)
	return Value{tag: Universal(TagInteger), content: stripHeader(b.BytesOrPanic())}
}

// Enumerated builds an ENUMERATED.
func Enumerated(n int64) Value {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1Enum(n)
	return Value{tag: Universal(TagEnumerated), content: stripHeader(b.BytesOrPanic())}
}

// Boolean builds a DER BOOLEAN (0x00 or 0xFF).
func Boolean(v bool) Value {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1Boolean(v)
	return Value{tag: Universal(TagBoolean), content: stripHeader(b.BytesOrPanic())}
}

// Null builds a NULL.
func Null() Value {
	return Value{tag: Universal(TagNull), content: []byte{}}
}

// OctetString builds an OCTET STRING.
func OctetString(b []byte) Value {
	return Value{tag: Universal(TagOctetString), content: bytes.Clone(nonNil(b))}
}

// BitString builds a BIT STRING. Bits past bs.BitLength in the final octet
// are cleared.
func BitString(bs encoding_asn1.BitString) (Value, error) {
	if bs.BitLength < 0 || bs.BitLength > len(bs.Bytes)*8 || (len(bs.Bytes)*8-bs.BitLength) > 7 {
		return Value{}, pqerr.New(pqerr.Encoding, "DER-BITS-002", fmt.Sprintf("der: bit length %d does not match %d octets", bs.BitLength, len(bs.Bytes)))
	}
	unused := len(bs.Bytes)*8 - bs.BitLength
	content := make([]byte, 1+len(bs.Bytes))
	content[0] = byte(unused)
	copy(content[1:], bs.Bytes)
	if unused > 0 {
		content[len(content)-1] &^= byte(1<<unused - 1)
	}
	return Value{tag: Universal(TagBitString), content: content}, nil
}

// ObjectIdentifier builds an OBJECT IDENTIFIER.
func ObjectIdentifier(oid encoding_asn1.ObjectIdentifier) (Value, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1ObjectIdentifier(oid)
	out, err := b.Bytes()
	if err != nil {
		return Value{}, pqerr.Wrap(pqerr.Encoding, "DER-OID-003", fmt.Sprintf("der: invalid OBJECT IDENTIFIER %v", oid), err)
	}
	return Value{tag: Universal(TagOID), content: stripHeader(out)}, nil
}

// MustObjectIdentifier is ObjectIdentifier for package-level literals.
func MustObjectIdentifier(oid encoding_asn1.ObjectIdentifier) Value {
	v, err := ObjectIdentifier(oid)
	if err != nil {
		panic(err)
	}
	return v
}

// GeneralizedTime builds a GeneralizedTime (UTC, second precision).
func GeneralizedTime(t time.Time) (Value, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1GeneralizedTime(t.UTC().Truncate(time.Second))
	out, err := b.Bytes()
	if err != nil {
		return Value{}, pqerr.Wrap(pqerr.Encoding, "DER-TIME-003", "der: time not representable as GeneralizedTime", err)
	}
	return Value{tag: Universal(TagGeneralizedTime), content: stripHeader(out)}, nil
}

// UTCTime builds a UTCTime. Only years 1950 through 2049 are representable.
func UTCTime(t time.Time) (Value, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1UTCTime(t.UTC().Truncate(time.Second))
	out, err := b.Bytes()
	if err != nil {
		return Value{}, pqerr.Wrap(pqerr.Encoding, "DER-TIME-003", "der: time not representable as UTCTime", err)
	}
	return Value{tag: Universal(TagUTCTime), content: stripHeader(out)}, nil
}

// String builds a universal string type (UTF8String, PrintableString,
// IA5String ...) with s as its content.
func String(number uint32, s string) (Value, error) {
	tag := Universal(number)
	if tag.Constructed {
		return Value{}, pqerr.New(pqerr.Encoding, "DER-STR-004", fmt.Sprintf("der: %s is not a string type", tag))
	}
	if err := checkText(number, []byte(s)); err != nil {
		return Value{}, pqerr.Wrap(pqerr.Encoding, "DER-STR-004", "der: invalid string content", err)
	}
	return Value{tag: tag, content: []byte(s)}, nil
}

// Sequence builds a SEQUENCE with children in the given order.
func Sequence(children ...Value) Value {
	return Value{tag: Universal(TagSequence), children: cloneValues(children)}
}

// Set builds a SET. Children are sorted by their encoding, which is the
// order Encode emits and Decode requires.
func Set(children ...Value) (Value, error) {
	sorted, err := sortByEncoding(children)
	if err != nil {
		return Value{}, err
	}
	return Value{tag: Universal(TagSet), children: sorted}, nil
}

// Explicit wraps inner in a constructed context-specific tag.
func Explicit(number uint32, inner Value) Value {
	return ExplicitClass(ClassContextSpecific, number, inner)
}

// ExplicitClass wraps inner in a constructed tag of the given class.
func ExplicitClass(class Class, number uint32, inner Value) Value {
	return Value{tag: Tag{Class: class, Number: number, Constructed: true}, children: []Value{inner}}
}

// Implicit replaces v's tag with a context-specific tag, keeping its form and
// content.
func Implicit(number uint32, v Value) Value {
	return Retag(Tag{Class: ClassContextSpecific, Number: number}, v)
}

// Retag replaces v's tag class and number. The constructed flag is taken
// from v, not from tag.
func Retag(tag Tag, v Value) Value {
	tag.Constructed = v.tag.Constructed
	out := v.clone()
	out.tag = tag
	return out
}

// Content returns a copy of a primitive value's content octets.
func (v Value) Content() ([]byte, error) {
	if v.tag.Constructed {
		return nil, notPrimitive(v)
	}
	return bytes.Clone(v.content), nil
}

// Len returns the number of children of a constructed value.
func (v Value) Len() int { return len(v.children) }

// Children returns a copy of a constructed value's children.
func (v Value) Children() ([]Value, error) {
	if !v.tag.Constructed {
		return nil, pqerr.New(pqerr.Decoding, "DER-VAL-002", fmt.Sprintf("der: %s is not constructed", v.tag))
	}
	return cloneValues(v.children), nil
}

// Inner returns the single child of an explicitly tagged value.
func (v Value) Inner() (Value, error) {
	if !v.tag.Constructed || len(v.children) != 1 {
		return Value{}, pqerr.New(pqerr.Decoding, "DER-VAL-003", fmt.Sprintf("der: %s does not wrap exactly one value", v.tag))
	}
	return v.children[0].clone(), nil
}

// Int interprets the content as an INTEGER.
func (v Value) Int() (*big.Int, error) {
	if v.tag.Constructed {
		return nil, notPrimitive(v)
	}
	return readInteger(v.content)
}

// Int64 interprets the content as an INTEGER that fits in 64 bits.
func (v Value) Int64() (int64, error) {
	if v.tag.Constructed {
		return 0, notPrimitive(v)
	}
	return readInt64(v.content)
}

// Enum interprets the content as an ENUMERATED.
func (v Value) Enum() (int, error) {
	if v.tag.Constructed {
		return 0, notPrimitive(v)
	}
	return readEnum(v.content)
}

// Bool interprets the content as a DER BOOLEAN.
func (v Value) Bool() (bool, error) {
	if v.tag.Constructed {
		return false, notPrimitive(v)
	}
	return readBoolean(v.content)
}

// OID interprets the content as an OBJECT IDENTIFIER.
func (v Value) OID() (encoding_asn1.ObjectIdentifier, error) {
	if v.tag.Constructed {
		return nil, notPrimitive(v)
	}
	return readOID(v.content)
}

// Octets returns the content of a primitive value (OCTET STRING and
// implicitly tagged octet fields).
func (v Value) Octets() ([]byte, error) {
	return v.Content()
}

// BitString interprets the content as a BIT STRING.
func (v Value) BitString() (encoding_asn1.BitString, error) {
	if v.tag.Constructed {
		return encoding_asn1.BitString{}, notPrimitive(v)
	}
	bs, err := readBitString(v.content)
	if err != nil {
		return bs, err
	}
	bs.Bytes = bytes.Clone(bs.Bytes)
	return bs, nil
}

// Time interprets the content as GeneralizedTime or UTCTime, chosen by the
// universal tag. Implicitly tagged values are read as GeneralizedTime.
func (v Value) Time() (time.Time, error) {
	if v.tag.Constructed {
		return time.Time{}, notPrimitive(v)
	}
	if v.tag.IsUniversal(TagUTCTime) {
		return readUTCTime(v.content)
	}
	return readGeneralizedTime(v.content)
}

// Text returns the content of a string type as a Go string.
func (v Value) Text() (string, error) {
	if v.tag.Constructed {
		return "", notPrimitive(v)
	}
	if v.tag.Class == ClassUniversal {
		if err := checkText(v.tag.Number, v.content); err != nil {
			return "", err
		}
	}
	return string(v.content), nil
}

// Equal reports structural equality: equal tags, equal content and pairwise
// equal children.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag || !bytes.Equal(v.content, o.content) || len(v.children) != len(o.children) {
		return false
	}
	for i := range v.children {
		if !v.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if v.tag.Constructed {
		return fmt.Sprintf("%s{%d}", v.tag, len(v.children))
	}
	return fmt.Sprintf("%s(%d)", v.tag, len(v.content))
}

func (v Value) clone() Value {
	out := Value{tag: v.tag}
	if v.content != nil {
		out.content = bytes.Clone(v.content)
	}
	if v.children != nil {
		out.children = cloneValues(v.children)
	}
	return out
}

func cloneValues(in []Value) []Value {
	out := make([]Value, len(in))
	for i := range in {
		out[i] = in[i].clone()
	}
	return out
}

func sortByEncoding(children []Value) ([]Value, error) {
	type encoded struct {
		v   Value
		enc []byte
	}
	items := make([]encoded, len(children))
	for i, c := range children {
		enc, err := Encode(c)
		if err != nil {
			return nil, err
		}
		items[i] = encoded{v: c.clone(), enc: enc}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return bytes.Compare(items[i].enc, items[j].enc) < 0
	})
	out := make([]Value, len(items))
	for i := range items {
		out[i] = items[i].v
	}
	return out, nil
}

func notPrimitive(v Value) error {
	return pqerr.New(pqerr.Decoding, "DER-VAL-001", fmt.Sprintf("der: %s is not primitive", v.tag))
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// stripHeader drops the identifier and length octets of a low-tag TLV built
// by cryptobyte.
func stripHeader(tlv []byte) []byte {
	s := cryptobyte.String(tlv)
	var content cryptobyte.String
	var tag asn1.Tag
	if !s.ReadAnyASN1(&content, &tag) {
		panic("der: cryptobyte produced malformed TLV")
	}
	return []byte(content)
}
