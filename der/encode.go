package der

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/pqerr"
)

// Encode serializes v as DER. Identical values always yield identical bytes.
// Universal content is checked against the same rules Decode enforces, so the
// output always decodes back to a value equal to v (SET children excepted,
// which are emitted in encoded order).
func Encode(v Value) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	if err := encodeTo(b, v, 0); err != nil {
		return nil, err
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, pqerr.Wrap(pqerr.Encoding, "DER-ENC-001", "der: encode", err)
	}
	return out, nil
}

// MustEncode is Encode for values built from constants.
func MustEncode(v Value) []byte {
	out, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return out
}

func encodeTo(b *cryptobyte.Builder, v Value, depth int) error {
	if depth > MaxDepth {
		return pqerr.New(pqerr.Encoding, "DER-DEPTH-001", fmt.Sprintf("der: nesting exceeds %d levels", MaxDepth))
	}
	if v.IsZero() {
		return pqerr.New(pqerr.Encoding, "DER-ENC-002", "der: cannot encode zero Value")
	}
	if err := checkUniversal(v.tag, v.content); err != nil {
		return pqerr.Wrap(pqerr.Encoding, pqerr.RuleID(err), "der: invalid value", err)
	}
	content, err := encodeContent(v, depth)
	if err != nil {
		return err
	}
	if v.tag.Number < 0x1f {
		b.AddASN1(asn1.Tag(appendIdentifier(nil, v.tag)[0]), func(c *cryptobyte.Builder) {
			c.AddBytes(content)
		})
		return nil
	}
	// cryptobyte only emits low-tag-number identifiers.
	hdr := appendIdentifier(nil, v.tag)
	hdr = appendLength(hdr, len(content))
	b.AddBytes(hdr)
	b.AddBytes(content)
	return nil
}

func encodeContent(v Value, depth int) ([]byte, error) {
	if !v.tag.Constructed {
		return v.content, nil
	}
	encoded := make([][]byte, len(v.children))
	for i, child := range v.children {
		cb := cryptobyte.NewBuilder(nil)
		if err := encodeTo(cb, child, depth+1); err != nil {
			return nil, err
		}
		out, err := cb.Bytes()
		if err != nil {
			return nil, pqerr.Wrap(pqerr.Encoding, "DER-ENC-001", "der: encode child", err)
		}
		encoded[i] = out
	}
	if v.tag.IsUniversal(TagSet) {
		sortEncodings(encoded)
	}
	return bytes.Join(encoded, nil), nil
}

func sortEncodings(encoded [][]byte) {
	for i := 1; i < len(encoded); i++ {
		for j := i; j > 0 && bytes.Compare(encoded[j-1], encoded[j]) > 0; j-- {
			encoded[j-1], encoded[j] = encoded[j], encoded[j-1]
		}
	}
}

// Canonicalize is the canonical-bytes choke point: it decodes b strictly,
// re-encodes it and requires the two to match. It returns a copy.
func Canonicalize(b []byte) ([]byte, error) {
	return CanonicalizeWithMode(b, compliance.Strict)
}

// CanonicalizeWithMode decodes b under mode and returns its DER encoding.
// In strict mode the result must equal b; in permissive mode BER input is
// converted to DER.
func CanonicalizeWithMode(b []byte, mode compliance.ComplianceMode) ([]byte, error) {
	v, err := DecodeWithMode(b, mode)
	if err != nil {
		return nil, err
	}
	out, err := Encode(v)
	if err != nil {
		return nil, err
	}
	if mode == compliance.Strict && !bytes.Equal(out, b) {
		return nil, pqerr.New(pqerr.Decoding, "DER-CANON-001", "der: re-encoding does not reproduce input")
	}
	return out, nil
}
