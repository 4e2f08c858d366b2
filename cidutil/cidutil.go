// Package cidutil derives content identifiers for archived DER messages.
//
// Every identifier is a CIDv1 with the raw multicodec and a sha2-256
// multihash computed over the canonical DER bytes of a message.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/der"
)

// Sum returns the CIDv1 (raw, sha2-256) of data as given.
func Sum(data []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// String renders Sum(data); it returns "" only if hashing fails.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// ForMessage canonicalizes message under mode and returns the canonical
// bytes together with their identifier. In Strict mode the returned bytes
// are identical to message.
func ForMessage(message []byte, mode compliance.ComplianceMode) ([]byte, cid.Cid, error) {
	canonical, err := der.CanonicalizeWithMode(message, mode)
	if err != nil {
		return nil, cid.Undef, err
	}
	id, err := Sum(canonical)
	if err != nil {
		return nil, cid.Undef, err
	}
	return canonical, id, nil
}

// Matches reports whether id addresses data.
func Matches(id cid.Cid, data []byte) bool {
	if !id.Defined() {
		return false
	}
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}

// Parse decodes s and requires the archive's identifier shape.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if err := Check(id); err != nil {
		return cid.Undef, err
	}
	return id, nil
}

// Check reports whether id is a CIDv1 with raw codec and sha2-256 multihash.
func Check(id cid.Cid) error {
	if !id.Defined() {
		return fmt.Errorf("cidutil: undefined cid")
	}
	p := id.Prefix()
	if p.Version != 1 {
		return fmt.Errorf("cidutil: cid version %d, want 1", p.Version)
	}
	if p.Codec != cid.Raw {
		return fmt.Errorf("cidutil: cid codec 0x%x, want raw", p.Codec)
	}
	if p.MhType != multihash.SHA2_256 {
		return fmt.Errorf("cidutil: multihash 0x%x, want sha2-256", p.MhType)
	}
	return nil
}
