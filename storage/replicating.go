package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
)

// NamedCAS pairs a store with the backend name it was opened under.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// Replicating writes every message to all backends and reads in order.
//
// Each backend must return the CID computed from the written bytes; a
// disagreeing backend fails the write with ErrCIDMismatch.
type Replicating struct {
	Backends []NamedCAS
}

var _ CAS = Replicating{}

// PutAll writes message to every backend and reports the CID each returned.
// On ErrCIDMismatch the map holds the results gathered so far.
func (r Replicating) PutAll(ctx context.Context, message []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	want, err := cidutil.Sum(message)
	if err != nil {
		return cid.Undef, nil, err
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.CAS.Put(ctx, message)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r Replicating) Put(ctx context.Context, message []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, message)
	return id, err
}

func (r Replicating) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if len(r.Backends) == 0 {
		return nil, ErrNoBackends
	}
	return getOrdered(ctx, id, r.stores())
}

func (r Replicating) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, id, r.stores())
}

func (r Replicating) stores() []CAS {
	out := make([]CAS, 0, len(r.Backends))
	for _, b := range r.Backends {
		out = append(out, b.CAS)
	}
	return out
}
