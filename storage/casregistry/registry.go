// Package casregistry links archive backends into binaries.
//
// A backend package registers itself from init; a binary enables it with a
// blank import:
//
//	import _ "xdao.co/pqasn/storage/localfs"
package casregistry

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"sync"

	"xdao.co/pqasn/storage"
)

// ErrUnknownBackend is returned when no backend is registered under a name.
var ErrUnknownBackend = errors.New("casregistry: unknown backend")

// Backend describes how to open one kind of archive store.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds the backend's flags to fs. It runs at most once per FlagSet.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the store from the flags registered by RegisterFlags.
	// The returned close function may be nil.
	Open func() (storage.CAS, func() error, error)

	// OpenConfig builds the store from a config file section.
	OpenConfig func(cfg map[string]string) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

func Register(b Backend) error {
	switch {
	case b.Name == "":
		return errors.New("casregistry: backend name is required")
	case b.RegisterFlags == nil:
		return fmt.Errorf("casregistry: backend %q missing RegisterFlags", b.Name)
	case b.Open == nil:
		return fmt.Errorf("casregistry: backend %q missing Open", b.Name)
	case b.OpenConfig == nil:
		return fmt.Errorf("casregistry: backend %q missing OpenConfig", b.Name)
	case b.Usage == 0:
		return fmt.Errorf("casregistry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the backends allowed for usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names(usage Usage) []string {
	bs := List(usage)
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out
}

// RegisterFlags registers the flags of every backend allowed for usage so a
// single Parse accepts them all.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

// Open opens name from its parsed flags.
func Open(name string, usage Usage) (storage.CAS, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	return b.Open()
}

// OpenWithConfig opens name from a config section.
func OpenWithConfig(name string, usage Usage, cfg map[string]string) (storage.CAS, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		cfg = map[string]string{}
	}
	return b.OpenConfig(cfg)
}

func lookup(name string, usage Usage) (Backend, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("%w %q", ErrUnknownBackend, name)
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("casregistry: backend %q is not available to %s", name, usage)
	}
	return b, nil
}
