package der

import (
	encoding_asn1 "encoding/asn1"
	"fmt"
	"strconv"
	"strings"

	"xdao.co/pqasn/pqerr"
)

// ParseOID parses a dotted-decimal object identifier such as "1.3.9999.99.72".
func ParseOID(s string) (encoding_asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, pqerr.New(pqerr.InvalidArgument, "OID-001", fmt.Sprintf("der: %q has fewer than two arcs", s))
	}
	oid := make(encoding_asn1.ObjectIdentifier, len(parts))
	for i, p := range parts {
		if p == "" || (len(p) > 1 && p[0] == '0') {
			return nil, pqerr.New(pqerr.InvalidArgument, "OID-002", fmt.Sprintf("der: %q has a malformed arc", s))
		}
		n, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return nil, pqerr.Wrap(pqerr.InvalidArgument, "OID-002", fmt.Sprintf("der: %q has a malformed arc", s), err)
		}
		oid[i] = int(n)
	}
	if oid[0] > 2 || (oid[0] < 2 && oid[1] >= 40) {
		return nil, pqerr.New(pqerr.InvalidArgument, "OID-003", fmt.Sprintf("der: %q has invalid leading arcs", s))
	}
	return oid, nil
}

// MustParseOID is ParseOID for literal catalogs.
func MustParseOID(s string) encoding_asn1.ObjectIdentifier {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}
