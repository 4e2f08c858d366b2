package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// Fallback reads from an ordered list of stores and writes to the first.
//
// Lookup order is the slice order; callers fix it explicitly so retrieval
// never depends on map iteration.
type Fallback struct {
	Stores []CAS
}

var _ CAS = Fallback{}

func (f Fallback) Put(ctx context.Context, message []byte) (cid.Cid, error) {
	if len(f.Stores) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return f.Stores[0].Put(ctx, message)
}

func (f Fallback) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if len(f.Stores) == 0 {
		return nil, ErrNoBackends
	}
	return getOrdered(ctx, id, f.Stores)
}

func (f Fallback) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, id, f.Stores)
}

// getOrdered returns the first hit. ErrNotFound from one store moves on to
// the next; any other failure stops the walk.
func getOrdered(ctx context.Context, id cid.Cid, stores []CAS) ([]byte, error) {
	for _, s := range stores {
		if s == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func hasAny(ctx context.Context, id cid.Cid, stores []CAS) (bool, error) {
	for _, s := range stores {
		if s == nil {
			continue
		}
		ok, err := s.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
