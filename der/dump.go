package der

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented, human-readable rendering of v to w.
func Dump(w io.Writer, v Value) error {
	return dump(w, v, 0)
}

func dump(w io.Writer, v Value, depth int) error {
	indent := strings.Repeat("  ", depth)
	if v.tag.Constructed {
		if _, err := fmt.Fprintf(w, "%s%s (%d elem)\n", indent, v.tag, len(v.children)); err != nil {
			return err
		}
		for _, c := range v.children {
			if err := dump(w, c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintf(w, "%s%s %s\n", indent, v.tag, describe(v))
	return err
}

func describe(v Value) string {
	if v.tag.Class == ClassUniversal {
		switch v.tag.Number {
		case TagBoolean:
			if b, err := v.Bool(); err == nil {
				return fmt.Sprint(b)
			}
		case TagInteger:
			if n, err := v.Int(); err == nil {
				return n.String()
			}
		case TagEnumerated:
			if n, err := v.Enum(); err == nil {
				return fmt.Sprint(n)
			}
		case TagOID:
			if oid, err := v.OID(); err == nil {
				return oid.String()
			}
		case TagNull:
			return ""
		case TagUTCTime, TagGeneralizedTime, TagUTF8String, TagPrintableString, TagIA5String, TagVisibleString, TagNumericString, TagT61String:
			return fmt.Sprintf("%q", v.content)
		}
	}
	const limit = 32
	if len(v.content) > limit {
		return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(v.content[:limit]), len(v.content))
	}
	return hex.EncodeToString(v.content)
}
