// Package localfs stores archived messages as files under a directory.
package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/storage"
)

const suffix = ".der"

// CAS keeps one read-only file per object at <root>/<shard>/<cid>.der,
// where shard is the last two characters of the CID string.
//
// It never touches the network and never depends on wall-clock time.
type CAS struct {
	root string
}

var _ storage.CAS = (*CAS)(nil)

// New opens (creating if needed) a store rooted at root.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: %w", err)
	}
	return &CAS{root: root}, nil
}

// Root returns the directory the store was opened on.
func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(ctx context.Context, message []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(message)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cid.Undef, err
	}

	// Write under a temporary name, then link into place so readers never
	// observe a partial object.
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return cid.Undef, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(message); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Close(); err != nil {
		return cid.Undef, err
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		return cid.Undef, err
	}

	if err := os.Link(tmpName, path); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return cid.Undef, err
		}
		existing, rerr := os.ReadFile(path)
		if rerr != nil || !bytes.Equal(existing, message) {
			return cid.Undef, storage.ErrImmutable
		}
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	_, err := os.Stat(c.pathFor(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// List returns the identifiers of every stored object in lexical order.
// Files whose names are not archive CIDs are skipped.
func (c *CAS) List(ctx context.Context) ([]cid.Cid, error) {
	matches, err := filepath.Glob(filepath.Join(c.root, "*", "*"+suffix))
	if err != nil {
		return nil, err
	}
	out := make([]cid.Cid, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(m)
		id, err := cidutil.Parse(name[:len(name)-len(suffix)])
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	shard := s
	if len(s) > 2 {
		shard = s[len(s)-2:]
	}
	return filepath.Join(c.root, shard, s+suffix)
}
