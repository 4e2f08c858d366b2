// Package bundle moves archived DER messages between stores as a single
// deterministic TAR stream.
//
// A bundle holds one regular file per message under messages/<cid>.der and,
// optionally, an index.json describing them. The index is informational;
// Import trusts only the message entries and rechecks each one.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/der"
	"xdao.co/pqasn/storage"
)

// FormatVersion is the index.json schema version written by Export.
const FormatVersion = 1

const (
	indexName     = "index.json"
	messagePrefix = "messages/"
	messageSuffix = ".der"
)

var epoch = time.Unix(0, 0).UTC()

var (
	ErrNilCAS         = errors.New("bundle: nil CAS")
	ErrDuplicateEntry = errors.New("bundle: duplicate message entry")
	ErrUnknownEntry   = errors.New("bundle: unknown entry")
)

// ExportOptions controls Export.
type ExportOptions struct {
	// Labels maps human names to exported identifiers. Every labeled
	// identifier must also be exported.
	Labels map[string]cid.Cid
	// IncludeIndex writes index.json after the messages.
	IncludeIndex bool
}

// Export writes the messages addressed by ids to w. Duplicate ids are
// collapsed and entries are ordered by identifier, so equal inputs always
// yield equal bytes.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return ErrNilCAS
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if err := cidutil.Check(id); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrInvalidCID, err)
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	labels, err := sortedLabels(opts.Labels, uniq)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(w)
	entries := make([]indexEntry, 0, len(names))
	for _, s := range names {
		if err := ctx.Err(); err != nil {
			_ = tw.Close()
			return err
		}
		id := uniq[s]
		b, err := cas.Get(ctx, id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", s, err)
		}
		entry, err := checkMessage(id, b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, messagePrefix+s+messageSuffix, b); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, entry)
	}

	if opts.IncludeIndex {
		b, err := json.Marshal(index{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			Encoding:  "der",
			Messages:  entries,
			Labels:    labels,
		})
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, indexName, append(b, '\n')); err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

// ImportOptions controls Import.
type ImportOptions struct {
	// IgnoreUnknown skips entries that are neither messages nor the index.
	// By default they fail the import.
	IgnoreUnknown bool
}

// Import stores every message entry of the bundle read from r into cas and
// returns their identifiers in stream order. An entry whose bytes do not
// hash to its file name, or are not canonical DER, aborts the import;
// messages stored before the failure stay stored.
func Import(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, ErrNilCAS
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("%w: %s (type %q)", ErrUnknownEntry, name, h.Typeflag)
		}
		if name == indexName {
			continue
		}
		s, ok := messageName(name)
		if !ok {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("%w: %s", ErrUnknownEntry, name)
		}

		id, err := cidutil.Parse(s)
		if err != nil {
			return out, fmt.Errorf("%w: %w", storage.ErrInvalidCID, err)
		}
		if _, dup := seen[s]; dup {
			return out, fmt.Errorf("%w: %s", ErrDuplicateEntry, s)
		}
		seen[s] = struct{}{}

		b, err := io.ReadAll(tr)
		if err != nil {
			return out, err
		}
		if _, err := checkMessage(id, b); err != nil {
			return out, err
		}
		got, err := cas.Put(ctx, b)
		if err != nil {
			return out, err
		}
		if !got.Equals(id) {
			return out, storage.ErrCIDMismatch
		}
		out = append(out, id)
	}
}

// ReadIndex returns the decoded index.json of a bundle, or nil if the
// bundle has none.
func ReadIndex(r io.Reader) (*Index, error) {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if cleanPath(h.Name) != indexName {
			continue
		}
		var idx index
		dec := json.NewDecoder(tr)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&idx); err != nil {
			return nil, fmt.Errorf("bundle: index: %w", err)
		}
		if idx.Version != FormatVersion {
			return nil, fmt.Errorf("bundle: index version %d, want %d", idx.Version, FormatVersion)
		}
		return idx.public()
	}
}

// Index is the parsed form of index.json.
type Index struct {
	Messages []IndexEntry
	Labels   map[string]cid.Cid
}

// IndexEntry describes one exported message.
type IndexEntry struct {
	CID  cid.Cid
	Size int
	// Tag names the outermost tag of the message, e.g. "SEQUENCE".
	Tag string
}

type index struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Encoding  string       `json:"encoding"`
	Messages  []indexEntry `json:"messages"`
	Labels    []indexLabel `json:"labels,omitempty"`
}

type indexEntry struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
	Tag  string `json:"tag"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func (idx index) public() (*Index, error) {
	out := &Index{Messages: make([]IndexEntry, 0, len(idx.Messages))}
	for _, e := range idx.Messages {
		id, err := cidutil.Parse(e.CID)
		if err != nil {
			return nil, fmt.Errorf("bundle: index: %w", err)
		}
		out.Messages = append(out.Messages, IndexEntry{CID: id, Size: e.Size, Tag: e.Tag})
	}
	if len(idx.Labels) > 0 {
		out.Labels = make(map[string]cid.Cid, len(idx.Labels))
		for _, l := range idx.Labels {
			id, err := cidutil.Parse(l.CID)
			if err != nil {
				return nil, fmt.Errorf("bundle: index label %q: %w", l.Name, err)
			}
			out.Labels[l.Name] = id
		}
	}
	return out, nil
}

func sortedLabels(labels map[string]cid.Cid, exported map[string]cid.Cid) ([]indexLabel, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]indexLabel, 0, len(names))
	for _, k := range names {
		if k == "" {
			return nil, errors.New("bundle: empty label name")
		}
		v := labels[k]
		if !v.Defined() {
			return nil, fmt.Errorf("%w: label %q", storage.ErrInvalidCID, k)
		}
		if _, ok := exported[v.String()]; !ok {
			return nil, fmt.Errorf("bundle: label %q names a message that is not exported", k)
		}
		out = append(out, indexLabel{Name: k, CID: v.String()})
	}
	return out, nil
}

func checkMessage(id cid.Cid, b []byte) (indexEntry, error) {
	if !cidutil.Matches(id, b) {
		return indexEntry{}, storage.ErrCIDMismatch
	}
	v, err := der.Decode(b)
	if err != nil {
		return indexEntry{}, fmt.Errorf("%w: %s: %w", storage.ErrNotCanonical, id, err)
	}
	return indexEntry{CID: id.String(), Size: len(b), Tag: v.Tag().String()}, nil
}

func messageName(name string) (string, bool) {
	if !strings.HasPrefix(name, messagePrefix) || !strings.HasSuffix(name, messageSuffix) {
		return "", false
	}
	s := strings.TrimSuffix(strings.TrimPrefix(name, messagePrefix), messageSuffix)
	if s == "" || strings.Contains(s, "/") {
		return "", false
	}
	return s, true
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o444,
		Size:     int64(len(content)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

// cleanPath normalizes an entry name and returns "" for names that are
// empty, absolute after trimming, or contain "." or ".." segments.
func cleanPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
