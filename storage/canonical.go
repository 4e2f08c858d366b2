package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/der"
)

// Canonical admits only canonical DER into the wrapped CAS and re-checks
// every object it hands back.
//
// With AcceptBER set, Put converts BER input to DER before storing it;
// otherwise non-canonical input fails with ErrNotCanonical.
type Canonical struct {
	CAS       CAS
	AcceptBER bool
}

var _ CAS = Canonical{}

func (c Canonical) mode() compliance.ComplianceMode {
	if c.AcceptBER {
		return compliance.Permissive
	}
	return compliance.Strict
}

func (c Canonical) Put(ctx context.Context, message []byte) (cid.Cid, error) {
	if c.CAS == nil {
		return cid.Undef, ErrNoBackends
	}
	canonical, want, err := cidutil.ForMessage(message, c.mode())
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrNotCanonical, err)
	}
	got, err := c.CAS.Put(ctx, canonical)
	if err != nil {
		return cid.Undef, err
	}
	if !got.Equals(want) {
		return cid.Undef, ErrCIDMismatch
	}
	return got, nil
}

func (c Canonical) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if c.CAS == nil {
		return nil, ErrNoBackends
	}
	if err := cidutil.Check(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCID, err)
	}
	b, err := c.CAS.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(id, b) {
		return nil, ErrCIDMismatch
	}
	if _, err := der.Decode(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotCanonical, err)
	}
	return b, nil
}

func (c Canonical) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if c.CAS == nil {
		return false, ErrNoBackends
	}
	return c.CAS.Has(ctx, id)
}

// PutValue encodes v and stores it.
func PutValue(ctx context.Context, cas CAS, v der.Value) (cid.Cid, error) {
	b, err := der.Encode(v)
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(ctx, b)
}

// GetValue fetches id and decodes it strictly.
func GetValue(ctx context.Context, cas CAS, id cid.Cid) (der.Value, error) {
	b, err := cas.Get(ctx, id)
	if err != nil {
		return der.Value{}, err
	}
	v, err := der.Decode(b)
	if err != nil {
		return der.Value{}, fmt.Errorf("%w: %w", ErrNotCanonical, err)
	}
	return v, nil
}
