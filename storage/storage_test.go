package storage_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/der"
	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/localfs"
	"xdao.co/pqasn/storage/testkit"
)

func local(t *testing.T) *localfs.CAS {
	t.Helper()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	return cas
}

// rawPut stores bytes without any canonical check.
func rawPut(t *testing.T, cas storage.CAS, b []byte) cid.Cid {
	t.Helper()
	id, err := cas.Put(context.Background(), b)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return id
}

func TestCanonical_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.Canonical{CAS: local(t)}
	})
}

func TestFallback_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.Fallback{Stores: []storage.CAS{local(t), local(t)}}
	})
}

func TestReplicating_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.Replicating{Backends: []storage.NamedCAS{
			{Name: "a", CAS: local(t)},
			{Name: "b", CAS: local(t)},
		}}
	})
}

func TestCanonical_RejectsNonCanonical(t *testing.T) {
	ctx := context.Background()
	c := storage.Canonical{CAS: local(t)}

	cases := map[string][]byte{
		"trailing bytes":     {0x05, 0x00, 0x00},
		"indefinite length":  {0x30, 0x80, 0x05, 0x00, 0x00, 0x00},
		"non-minimal length": {0x04, 0x81, 0x01, 0xaa},
		"padded integer":     {0x02, 0x02, 0x00, 0x01},
		"truncated":          {0x30, 0x05, 0x05, 0x00},
		"empty":              {},
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Put(ctx, b); !errors.Is(err, storage.ErrNotCanonical) {
				t.Fatalf("Put(%x): got %v want ErrNotCanonical", b, err)
			}
		})
	}
}

func TestCanonical_AcceptBERStoresDER(t *testing.T) {
	ctx := context.Background()
	inner := local(t)
	c := storage.Canonical{CAS: inner, AcceptBER: true}

	id, err := c.Put(ctx, []byte{0x30, 0x80, 0x05, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := inner.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, testkit.Other) {
		t.Fatalf("stored %x want %x", got, testkit.Other)
	}
}

func TestCanonical_GetRechecksStoredObjects(t *testing.T) {
	ctx := context.Background()
	inner := local(t)
	id := rawPut(t, inner, []byte("not der at all"))

	_, err := storage.Canonical{CAS: inner}.Get(ctx, id)
	if !errors.Is(err, storage.ErrNotCanonical) {
		t.Fatalf("Get: got %v want ErrNotCanonical", err)
	}
}

func TestCanonical_GetRejectsForeignCIDs(t *testing.T) {
	mh, err := cidutil.Sum(testkit.Message)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	foreign := cid.NewCidV1(cid.DagCBOR, mh.Hash())
	_, err = storage.Canonical{CAS: local(t)}.Get(context.Background(), foreign)
	if !errors.Is(err, storage.ErrInvalidCID) {
		t.Fatalf("Get: got %v want ErrInvalidCID", err)
	}
}

func TestPutValueGetValue(t *testing.T) {
	ctx := context.Background()
	c := storage.Canonical{CAS: local(t)}
	v := der.Sequence(der.Int64(7), der.OctetString([]byte("x")))

	id, err := storage.PutValue(ctx, c, v)
	if err != nil {
		t.Fatalf("PutValue: %v", err)
	}
	got, err := storage.GetValue(ctx, c, id)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !got.Equal(v) {
		t.Fatalf("GetValue = %v want %v", got, v)
	}
}

func TestFallback_ReadsInOrderWritesFirst(t *testing.T) {
	ctx := context.Background()
	first, second := local(t), local(t)
	id := rawPut(t, second, testkit.Message)

	f := storage.Fallback{Stores: []storage.CAS{first, second}}
	got, err := f.Get(ctx, id)
	if err != nil || !bytes.Equal(got, testkit.Message) {
		t.Fatalf("Get = %x, %v", got, err)
	}
	ok, err := f.Has(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Has = %v, %v", ok, err)
	}

	other, err := f.Put(ctx, testkit.Other)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := first.Has(ctx, other); !ok {
		t.Fatalf("Put did not reach the first store")
	}
	if ok, _ := second.Has(ctx, other); ok {
		t.Fatalf("Put reached the second store")
	}
}

func TestReplicating_PutAll(t *testing.T) {
	ctx := context.Background()
	a, b := local(t), local(t)
	r := storage.Replicating{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}

	id, per, err := r.PutAll(ctx, testkit.Message)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(per) != 2 || !per["a"].Equals(id) || !per["b"].Equals(id) {
		t.Fatalf("PutAll per-backend = %v", per)
	}
	for name, s := range map[string]storage.CAS{"a": a, "b": b} {
		if ok, _ := s.Has(ctx, id); !ok {
			t.Fatalf("backend %s missing the object", name)
		}
	}
}

// lying returns a fixed CID from Put.
type lying struct {
	storage.CAS
	id cid.Cid
}

func (l lying) Put(context.Context, []byte) (cid.Cid, error) { return l.id, nil }

func TestReplicating_DetectsMismatch(t *testing.T) {
	otherID, err := cidutil.Sum(testkit.Other)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	r := storage.Replicating{Backends: []storage.NamedCAS{
		{Name: "ok", CAS: local(t)},
		{Name: "liar", CAS: lying{CAS: local(t), id: otherID}},
	}}
	_, per, err := r.PutAll(context.Background(), testkit.Message)
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("PutAll: got %v want ErrCIDMismatch", err)
	}
	if _, ok := per["ok"]; !ok {
		t.Fatalf("partial results dropped: %v", per)
	}
}

func TestEmptyCompositesFail(t *testing.T) {
	ctx := context.Background()
	if _, err := (storage.Fallback{}).Put(ctx, testkit.Message); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("Fallback.Put: %v", err)
	}
	if _, err := (storage.Replicating{}).Put(ctx, testkit.Message); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("Replicating.Put: %v", err)
	}
	if _, err := (storage.Canonical{}).Put(ctx, testkit.Message); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("Canonical.Put: %v", err)
	}
}
