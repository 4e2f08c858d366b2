package der

import (
	encoding_asn1 "encoding/asn1"
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"xdao.co/pqasn/pqerr"
)

// framed wraps content in a universal TLV so that cryptobyte's DER readers can
// judge it. The readers apply the canonical content rules (minimal integers,
// 0x00/0xFF booleans, zero BIT STRING padding, DER times).
func framed(tag asn1.Tag, content []byte) (cryptobyte.String, error) {
	b := cryptobyte.NewBuilder(make([]byte, 0, len(content)+6))
	b.AddASN1(tag, func(c *cryptobyte.Builder) {
		c.AddBytes(content)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, pqerr.Wrap(pqerr.Internal, "DER-ENC-001", "der: frame content", err)
	}
	return cryptobyte.String(out), nil
}

func readInteger(content []byte) (*big.Int, error) {
	s, err := framed(asn1.INTEGER, content)
	if err != nil {
		return nil, err
	}
	n := new(big.Int)
	if !s.ReadASN1Integer(n) || !s.Empty() {
		return nil, pqerr.New(pqerr.Decoding, "DER-INT-001", "der: INTEGER content is empty or not minimally encoded")
	}
	return n, nil
}

func readInt64(content []byte) (int64, error) {
	s, err := framed(asn1.INTEGER, content)
	if err != nil {
		return 0, err
	}
	var n int64
	if !s.ReadASN1Integer(&n) || !s.Empty() {
		if _, berr := readInteger(content); berr != nil {
			return 0, berr
		}
		return 0, pqerr.New(pqerr.Decoding, "DER-INT-002", "der: INTEGER does not fit in 64 bits")
	}
	return n, nil
}

func readEnum(content []byte) (int, error) {
	s, err := framed(asn1.ENUM, content)
	if err != nil {
		return 0, err
	}
	var n int
	if !s.ReadASN1Enum(&n) || !s.Empty() {
		if _, berr := readInteger(content); berr != nil {
			return 0, berr
		}
		return 0, pqerr.New(pqerr.Decoding, "DER-INT-002", "der: ENUMERATED does not fit in int")
	}
	return n, nil
}

func readBoolean(content []byte) (bool, error) {
	s, err := framed(asn1.BOOLEAN, content)
	if err != nil {
		return false, err
	}
	var v bool
	if !s.ReadASN1Boolean(&v) || !s.Empty() {
		return false, pqerr.New(pqerr.Decoding, "DER-BOOL-001", "der: BOOLEAN content must be 0x00 or 0xFF")
	}
	return v, nil
}

func readBitString(content []byte) (encoding_asn1.BitString, error) {
	s, err := framed(asn1.BIT_STRING, content)
	if err != nil {
		return encoding_asn1.BitString{}, err
	}
	var v encoding_asn1.BitString
	if !s.ReadASN1BitString(&v) || !s.Empty() {
		return encoding_asn1.BitString{}, pqerr.New(pqerr.Decoding, "DER-BITS-001", "der: BIT STRING has invalid unused-bit count or non-zero padding")
	}
	return v, nil
}

func readOID(content []byte) (encoding_asn1.ObjectIdentifier, error) {
	if err := checkOID(content); err != nil {
		return nil, err
	}
	s, err := framed(asn1.OBJECT_IDENTIFIER, content)
	if err != nil {
		return nil, err
	}
	var oid encoding_asn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&oid) || !s.Empty() {
		return nil, pqerr.New(pqerr.Decoding, "DER-OID-002", "der: OBJECT IDENTIFIER arc exceeds 31 bits")
	}
	return oid, nil
}

// checkOID applies the structural subidentifier rules without bounding arc
// size, so that large arcs (UUID-based OIDs) still decode and round-trip.
func checkOID(content []byte) error {
	if len(content) == 0 {
		return pqerr.New(pqerr.Decoding, "DER-OID-001", "der: empty OBJECT IDENTIFIER")
	}
	start := true
	for _, c := range content {
		if start && c == 0x80 {
			return pqerr.New(pqerr.Decoding, "DER-OID-001", "der: OBJECT IDENTIFIER subidentifier not minimally encoded")
		}
		start = c&0x80 == 0
	}
	if !start {
		return pqerr.New(pqerr.Decoding, "DER-OID-001", "der: truncated OBJECT IDENTIFIER subidentifier")
	}
	return nil
}

func readGeneralizedTime(content []byte) (time.Time, error) {
	s, err := framed(asn1.GeneralizedTime, content)
	if err != nil {
		return time.Time{}, err
	}
	var t time.Time
	if !s.ReadASN1GeneralizedTime(&t) || !s.Empty() || content[len(content)-1] != 'Z' {
		return time.Time{}, pqerr.New(pqerr.Decoding, "DER-TIME-001", fmt.Sprintf("der: GeneralizedTime %q is not YYYYMMDDHHMMSSZ", content))
	}
	return t, nil
}

func readUTCTime(content []byte) (time.Time, error) {
	if len(content) != len("YYMMDDHHMMSSZ") {
		return time.Time{}, pqerr.New(pqerr.Decoding, "DER-TIME-002", fmt.Sprintf("der: UTCTime %q is not YYMMDDHHMMSSZ", content))
	}
	s, err := framed(asn1.UTCTime, content)
	if err != nil {
		return time.Time{}, err
	}
	var t time.Time
	if !s.ReadASN1UTCTime(&t) || !s.Empty() || content[len(content)-1] != 'Z' {
		return time.Time{}, pqerr.New(pqerr.Decoding, "DER-TIME-002", fmt.Sprintf("der: UTCTime %q is not YYMMDDHHMMSSZ", content))
	}
	return t, nil
}

func checkText(number uint32, content []byte) error {
	switch number {
	case TagUTF8String:
		if !utf8.Valid(content) {
			return pqerr.New(pqerr.Decoding, "DER-STR-001", "der: UTF8String is not valid UTF-8")
		}
	case TagIA5String, TagNumericString, TagVisibleString:
		for _, c := range content {
			if c >= 0x80 {
				return pqerr.New(pqerr.Decoding, "DER-STR-002", fmt.Sprintf("der: %s contains non-ASCII octet", universalNames[number]))
			}
		}
	case TagBMPString:
		if len(content)%2 != 0 {
			return pqerr.New(pqerr.Decoding, "DER-STR-003", "der: BMPString has odd length")
		}
	case TagUniversalString:
		if len(content)%4 != 0 {
			return pqerr.New(pqerr.Decoding, "DER-STR-003", "der: UniversalString length is not a multiple of 4")
		}
	}
	return nil
}

// checkUniversal applies the canonical content rules for a universal tag.
// Tags without content rules (OCTET STRING, unknown types) always pass.
func checkUniversal(t Tag, content []byte) error {
	if t.Class != ClassUniversal {
		return nil
	}
	if t.Number == 0 {
		return pqerr.New(pqerr.Decoding, "DER-TAG-004", "der: universal tag 0 is reserved for end-of-contents")
	}
	wantConstructed := universalConstructed(t.Number)
	if t.Constructed != wantConstructed {
		if wantConstructed {
			return pqerr.New(pqerr.Decoding, "DER-CONS-002", fmt.Sprintf("der: %s must be constructed", t))
		}
		return pqerr.New(pqerr.Decoding, "DER-CONS-001", fmt.Sprintf("der: %s must be primitive", t))
	}
	if t.Constructed {
		return nil
	}
	var err error
	switch t.Number {
	case TagBoolean:
		_, err = readBoolean(content)
	case TagInteger, TagEnumerated:
		_, err = readInteger(content)
	case TagBitString:
		_, err = readBitString(content)
	case TagNull:
		if len(content) != 0 {
			err = pqerr.New(pqerr.Decoding, "DER-NULL-001", "der: NULL must be empty")
		}
	case TagOID:
		err = checkOID(content)
	case TagGeneralizedTime:
		_, err = readGeneralizedTime(content)
	case TagUTCTime:
		_, err = readUTCTime(content)
	default:
		err = checkText(t.Number, content)
	}
	return err
}
