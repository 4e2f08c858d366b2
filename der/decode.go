package der

import (
	"bytes"
	"fmt"

	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/pqerr"
)

// MaxDepth bounds constructed nesting during decode.
const MaxDepth = 64

// Decode parses exactly one canonical DER value from b. Trailing bytes are an
// error.
func Decode(b []byte) (Value, error) {
	return DecodeWithMode(b, compliance.Strict)
}

// DecodeWithMode parses exactly one value from b. compliance.Permissive also
// accepts BER framing: indefinite lengths, non-minimal lengths and unordered
// SET contents. Content rules apply in both modes.
func DecodeWithMode(b []byte, mode compliance.ComplianceMode) (Value, error) {
	v, rest, err := decodePrefix(b, mode)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, pqerr.New(pqerr.Decoding, "DER-TRAIL-001", fmt.Sprintf("der: %d trailing bytes after value", len(rest)))
	}
	return v, nil
}

// DecodePrefix parses the first canonical DER value in b and returns the
// unconsumed remainder.
func DecodePrefix(b []byte) (Value, []byte, error) {
	return decodePrefix(b, compliance.Strict)
}

func decodePrefix(b []byte, mode compliance.ComplianceMode) (Value, []byte, error) {
	if len(b) == 0 {
		return Value{}, nil, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: empty input")
	}
	d := decoder{strict: mode == compliance.Strict}
	v, n, err := d.value(b, 0)
	if err != nil {
		return Value{}, nil, err
	}
	return v, b[n:], nil
}

type decoder struct {
	strict bool
}

// value parses one value at the start of b and returns it with the number of
// octets consumed.
func (d *decoder) value(b []byte, depth int) (Value, int, error) {
	if depth > MaxDepth {
		return Value{}, 0, pqerr.New(pqerr.Decoding, "DER-DEPTH-001", fmt.Sprintf("der: nesting exceeds %d levels", MaxDepth))
	}
	h, err := readHeader(b, d.strict)
	if err != nil {
		return Value{}, 0, err
	}
	if h.tag.Class == ClassUniversal && h.tag.Number == 0 {
		return Value{}, 0, pqerr.New(pqerr.Decoding, "DER-TAG-004", "der: unexpected end-of-contents")
	}
	if h.tag.Constructed {
		if err := checkUniversal(h.tag, nil); err != nil {
			return Value{}, 0, err
		}
	}
	body := b[h.size:]

	if h.indefinite {
		children, used, err := d.childrenUntilEOC(body, depth)
		if err != nil {
			return Value{}, 0, err
		}
		v := Value{tag: h.tag, children: children}
		if err := d.check(v, nil); err != nil {
			return Value{}, 0, err
		}
		return v, h.size + used, nil
	}

	if len(body) < h.length {
		return Value{}, 0, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", fmt.Sprintf("der: %s content truncated: need %d bytes, have %d", h.tag, h.length, len(body)))
	}
	content := body[:h.length]
	total := h.size + h.length

	if !h.tag.Constructed {
		v := Value{tag: h.tag, content: bytes.Clone(content)}
		if err := checkUniversal(v.tag, v.content); err != nil {
			return Value{}, 0, err
		}
		return v, total, nil
	}

	var children []Value
	var encodings [][]byte
	for off := 0; off < len(content); {
		child, n, err := d.value(content[off:], depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		children = append(children, child)
		encodings = append(encodings, content[off:off+n])
		off += n
	}
	if children == nil {
		children = []Value{}
	}
	v := Value{tag: h.tag, children: children}
	if err := d.check(v, encodings); err != nil {
		return Value{}, 0, err
	}
	return v, total, nil
}

// childrenUntilEOC parses children of an indefinite-length value up to and
// including the end-of-contents marker.
func (d *decoder) childrenUntilEOC(b []byte, depth int) ([]Value, int, error) {
	children := []Value{}
	off := 0
	for {
		if len(b)-off < 2 {
			return nil, 0, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: missing end-of-contents")
		}
		if b[off] == 0 && b[off+1] == 0 {
			return children, off + 2, nil
		}
		child, n, err := d.value(b[off:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, child)
		off += n
	}
}

// check applies SET ordering in strict mode. encodings holds the children's
// original octets.
func (d *decoder) check(v Value, encodings [][]byte) error {
	if !d.strict || !v.tag.IsUniversal(TagSet) {
		return nil
	}
	for i := 1; i < len(encodings); i++ {
		if bytes.Compare(encodings[i-1], encodings[i]) > 0 {
			return pqerr.New(pqerr.Decoding, "DER-SET-001", fmt.Sprintf("der: SET element %d is out of order", i))
		}
	}
	return nil
}
