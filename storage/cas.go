// Package storage archives canonical DER messages by content identifier.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a content-addressable store for encoded messages.
//
// Contract:
//   - Put is idempotent and returns the CIDv1 (raw, sha2-256) of the bytes written.
//   - Stored objects are immutable; a second Put of different bytes under an
//     existing CID fails with ErrImmutable.
//   - Get returns ErrNotFound when the CID is absent and ErrCIDMismatch when the
//     stored bytes no longer hash to the CID.
//   - Has reports presence without reading the object.
//
// Callers wanting the DER canonical form enforced wrap a CAS in Canonical.
type CAS interface {
	Put(ctx context.Context, message []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
