// Package testkit holds a conformance suite every archive backend must pass.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/storage"
)

// NewCAS returns a fresh, empty store isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// Message is a small canonical DER value: SEQUENCE { INTEGER 1, OCTET STRING "pqasn" }.
var Message = []byte{0x30, 0x0a, 0x02, 0x01, 0x01, 0x04, 0x05, 'p', 'q', 'a', 's', 'n'}

// Other is a second canonical DER value distinct from Message: SEQUENCE { NULL }.
var Other = []byte{0x30, 0x02, 0x05, 0x00}

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put(ctx, Message)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		want, err := cidutil.Sum(Message)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}
		if !id.Equals(want) {
			t.Fatalf("Put CID: got %s want %s", id, want)
		}
		got, err := cas.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, Message) {
			t.Fatalf("Get bytes: got %x want %x", got, Message)
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		id1, err := cas.Put(ctx, Message)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(ctx, Message)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("DistinctMessagesDistinctCIDs", func(t *testing.T) {
		cas := newCAS(t)
		a, err := cas.Put(ctx, Message)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		b, err := cas.Put(ctx, Other)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if a.Equals(b) {
			t.Fatalf("distinct messages share CID %s", a)
		}
		got, err := cas.Get(ctx, b)
		if err != nil || !bytes.Equal(got, Other) {
			t.Fatalf("Get(other) = %x, %v", got, err)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cidutil.Sum(Message)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}
		ok, err := cas.Has(ctx, id)
		if err != nil || ok {
			t.Fatalf("Has before Put = %v, %v", ok, err)
		}
		if _, err := cas.Get(ctx, id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got %v want ErrNotFound", err)
		}
		if _, err := cas.Put(ctx, Message); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		ok, err = cas.Has(ctx, id)
		if err != nil || !ok {
			t.Fatalf("Has after Put = %v, %v", ok, err)
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if ok, _ := cas.Has(ctx, undef); ok {
			t.Fatalf("Has reported an undefined CID")
		}
		if _, err := cas.Get(ctx, undef); err == nil {
			t.Fatalf("Get accepted an undefined CID")
		}
	})
}
