package der

import (
	"fmt"

	"xdao.co/pqasn/pqerr"
)

// Class is the two-bit tag class.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "UNIVERSAL"
	case ClassApplication:
		return "APPLICATION"
	case ClassContextSpecific:
		return "CONTEXT"
	case ClassPrivate:
		return "PRIVATE"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// Universal tag numbers used by this module.
const (
	TagBoolean         uint32 = 1
	TagInteger         uint32 = 2
	TagBitString       uint32 = 3
	TagOctetString     uint32 = 4
	TagNull            uint32 = 5
	TagOID             uint32 = 6
	TagEnumerated      uint32 = 10
	TagUTF8String      uint32 = 12
	TagSequence        uint32 = 16
	TagSet             uint32 = 17
	TagNumericString   uint32 = 18
	TagPrintableString uint32 = 19
	TagT61String       uint32 = 20
	TagIA5String       uint32 = 22
	TagUTCTime         uint32 = 23
	TagGeneralizedTime uint32 = 24
	TagVisibleString   uint32 = 26
	TagUniversalString uint32 = 28
	TagBMPString       uint32 = 30
)

// maxTagNumber bounds high-tag-form numbers to 32 bits.
const maxTagNumber = 1<<32 - 1

// Tag identifies a value: class, number and the constructed flag.
type Tag struct {
	Class       Class
	Number      uint32
	Constructed bool
}

// Universal returns a universal-class tag. SEQUENCE and SET are constructed,
// everything else is primitive.
func Universal(number uint32) Tag {
	return Tag{Class: ClassUniversal, Number: number, Constructed: universalConstructed(number)}
}

// Context returns a context-specific tag.
func Context(number uint32, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Number: number, Constructed: constructed}
}

func (t Tag) String() string {
	form := "P"
	if t.Constructed {
		form = "C"
	}
	if t.Class == ClassUniversal {
		if name, ok := universalNames[t.Number]; ok {
			return name
		}
		return fmt.Sprintf("UNIVERSAL %d/%s", t.Number, form)
	}
	if t.Class == ClassContextSpecific {
		return fmt.Sprintf("[%d]/%s", t.Number, form)
	}
	return fmt.Sprintf("[%s %d]/%s", t.Class, t.Number, form)
}

// IsUniversal reports whether t is the universal tag with the given number.
func (t Tag) IsUniversal(number uint32) bool {
	return t.Class == ClassUniversal && t.Number == number
}

// IsContext reports whether t is the context-specific tag with the given number.
func (t Tag) IsContext(number uint32) bool {
	return t.Class == ClassContextSpecific && t.Number == number
}

var universalNames = map[uint32]string{
	TagBoolean:         "BOOLEAN",
	TagInteger:         "INTEGER",
	TagBitString:       "BIT STRING",
	TagOctetString:     "OCTET STRING",
	TagNull:            "NULL",
	TagOID:             "OBJECT IDENTIFIER",
	TagEnumerated:      "ENUMERATED",
	TagUTF8String:      "UTF8String",
	TagSequence:        "SEQUENCE",
	TagSet:             "SET",
	TagNumericString:   "NumericString",
	TagPrintableString: "PrintableString",
	TagT61String:       "T61String",
	TagIA5String:       "IA5String",
	TagUTCTime:         "UTCTime",
	TagGeneralizedTime: "GeneralizedTime",
	TagVisibleString:   "VisibleString",
	TagUniversalString: "UniversalString",
	TagBMPString:       "BMPString",
}

// universalConstructed reports whether a universal type is always
// constructed (SEQUENCE, SET, EXTERNAL, EMBEDDED PDV).
func universalConstructed(number uint32) bool {
	switch number {
	case 8, 11, TagSequence, TagSet:
		return true
	}
	return false
}

// appendIdentifier appends the identifier octets for t.
func appendIdentifier(dst []byte, t Tag) []byte {
	b := byte(t.Class) << 6
	if t.Constructed {
		b |= 0x20
	}
	if t.Number < 0x1f {
		return append(dst, b|byte(t.Number))
	}
	dst = append(dst, b|0x1f)
	var tmp [5]byte
	i := len(tmp)
	n := t.Number
	for {
		i--
		tmp[i] = byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			break
		}
	}
	for j := i; j < len(tmp)-1; j++ {
		tmp[j] |= 0x80
	}
	return append(dst, tmp[i:]...)
}

// appendLength appends a definite minimal length.
func appendLength(dst []byte, n int) []byte {
	if n < 0x80 {
		return append(dst, byte(n))
	}
	var tmp [8]byte
	i := len(tmp)
	for v := uint64(n); v > 0; v >>= 8 {
		i--
		tmp[i] = byte(v)
	}
	dst = append(dst, 0x80|byte(len(tmp)-i))
	return append(dst, tmp[i:]...)
}

// header is a parsed identifier plus length.
type header struct {
	tag        Tag
	length     int
	indefinite bool
	size       int // octets consumed by identifier and length
}

// readHeader parses identifier and length octets at the start of b.
// Strict rejects indefinite and non-minimal lengths; tag form rules apply in
// both modes.
func readHeader(b []byte, strict bool) (header, error) {
	var h header
	if len(b) < 2 {
		return h, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: truncated header")
	}
	first := b[0]
	h.tag.Class = Class(first >> 6)
	h.tag.Constructed = first&0x20 != 0
	i := 1
	if first&0x1f != 0x1f {
		h.tag.Number = uint32(first & 0x1f)
	} else {
		var n uint64
		for start := i; ; i++ {
			if i >= len(b) {
				return h, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: truncated tag")
			}
			c := b[i]
			if i == start && c == 0x80 {
				return h, pqerr.New(pqerr.Decoding, "DER-TAG-002", "der: tag number has leading zero octet")
			}
			n = n<<7 | uint64(c&0x7f)
			if n > maxTagNumber {
				return h, pqerr.New(pqerr.Decoding, "DER-TAG-003", "der: tag number overflows 32 bits")
			}
			if c&0x80 == 0 {
				i++
				break
			}
		}
		if n < 0x1f {
			return h, pqerr.New(pqerr.Decoding, "DER-TAG-001", fmt.Sprintf("der: high-tag form used for tag number %d", n))
		}
		h.tag.Number = uint32(n)
	}

	if i >= len(b) {
		return h, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: truncated length")
	}
	l := b[i]
	i++
	switch {
	case l < 0x80:
		h.length = int(l)
	case l == 0x80:
		if strict {
			return h, pqerr.New(pqerr.Decoding, "DER-LEN-001", "der: indefinite length")
		}
		if !h.tag.Constructed {
			return h, pqerr.New(pqerr.Decoding, "DER-LEN-001", "der: indefinite length on primitive value")
		}
		h.indefinite = true
	case l == 0xff:
		return h, pqerr.New(pqerr.Decoding, "DER-LEN-003", "der: reserved length octet")
	default:
		n := int(l & 0x7f)
		if n > 4 {
			return h, pqerr.New(pqerr.Decoding, "DER-LEN-003", fmt.Sprintf("der: %d length octets exceed limit", n))
		}
		if len(b)-i < n {
			return h, pqerr.New(pqerr.Decoding, "DER-TRUNC-001", "der: truncated length")
		}
		var length uint64
		for _, c := range b[i : i+n] {
			length = length<<8 | uint64(c)
		}
		if strict && (b[i] == 0 || length < 0x80) {
			return h, pqerr.New(pqerr.Decoding, "DER-LEN-002", "der: non-minimal length")
		}
		if length > uint64(maxInt) {
			return h, pqerr.New(pqerr.Decoding, "DER-LEN-003", "der: length overflows int")
		}
		i += n
		h.length = int(length)
	}
	h.size = i
	return h, nil
}

const maxInt = int(^uint(0) >> 1)
