// Package casconfig opens an archive from a TOML description of its backends.
//
//	write_policy = "all"    # "first" (default) or "all"
//	accept_ber   = false    # convert BER input to DER instead of rejecting it
//
//	[[backends]]
//	name = "localfs"
//	id   = "primary"
//	[backends.config]
//	dir = "/var/lib/pqasn/archive"
//
//	[[backends]]
//	name = "grpc"
//	[backends.config]
//	target = "archive.internal:7443"
//
// Backends are resolved through casregistry, so the binary must link them.
package casconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/casregistry"
)

const (
	WriteFirst = "first"
	WriteAll   = "all"
)

type Config struct {
	// WritePolicy is WriteFirst (writes go to the first backend, reads fall
	// back in order) or WriteAll (storage.Replicating).
	WritePolicy string
	AcceptBER   bool
	Backends    []BackendConfig
}

type BackendConfig struct {
	// Name is the casregistry backend to open.
	Name string
	// ID labels the backend in replication results; Name when empty.
	ID     string
	Config map[string]string
}

// Label returns ID, or Name when no ID is set.
func (b BackendConfig) Label() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

type fileConfig struct {
	WritePolicy string              `toml:"write_policy"`
	AcceptBER   bool                `toml:"accept_ber"`
	Backends    []fileBackendConfig `toml:"backends"`
}

type fileBackendConfig struct {
	Name   string            `toml:"name"`
	ID     string            `toml:"id"`
	Config map[string]string `toml:"config"`
}

func Default() Config {
	return Config{WritePolicy: WriteFirst}
}

// LoadFile reads path and overlays it on Default.
func LoadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, errors.New("casconfig: empty config path")
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("casconfig: load %s: %w", path, err)
	}
	return overlay(raw, meta)
}

// Parse is LoadFile for in-memory TOML.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("casconfig: %w", err)
	}
	return overlay(raw, meta)
}

func overlay(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("casconfig: unknown key %q", undecoded[0].String())
	}
	cfg := Default()
	if meta.IsDefined("write_policy") {
		cfg.WritePolicy = strings.TrimSpace(raw.WritePolicy)
	}
	if meta.IsDefined("accept_ber") {
		cfg.AcceptBER = raw.AcceptBER
	}
	for _, b := range raw.Backends {
		cfg.Backends = append(cfg.Backends, BackendConfig{
			Name:   strings.TrimSpace(b.Name),
			ID:     strings.TrimSpace(b.ID),
			Config: b.Config,
		})
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("casconfig: backend name is required")
		}
		if _, ok := seen[b.Label()]; ok {
			return fmt.Errorf("casconfig: duplicate backend id %q", b.Label())
		}
		seen[b.Label()] = struct{}{}
	}
	switch c.WritePolicy {
	case WriteFirst, WriteAll:
		return nil
	default:
		return fmt.Errorf("casconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens every backend and combines them per WritePolicy behind a
// storage.Canonical guard. A non-empty preferred (name or id) moves that
// backend to the front.
func (c Config) Open(usage casregistry.Usage, preferred string) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	ordered, err := c.ordered(preferred)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	named := make([]storage.NamedCAS, 0, len(ordered))
	for _, b := range ordered {
		cas, closeFn, err := casregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("casconfig: open %s: %w", b.Label(), err)
		}
		named = append(named, storage.NamedCAS{Name: b.Label(), CAS: cas})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	var inner storage.CAS
	switch {
	case len(named) == 1:
		inner = named[0].CAS
	case c.WritePolicy == WriteAll:
		inner = storage.Replicating{Backends: named}
	default:
		stores := make([]storage.CAS, 0, len(named))
		for _, n := range named {
			stores = append(stores, n.CAS)
		}
		inner = storage.Fallback{Stores: stores}
	}
	return storage.Canonical{CAS: inner, AcceptBER: c.AcceptBER}, closeAll, nil
}

func (c Config) ordered(preferred string) ([]BackendConfig, error) {
	out := append([]BackendConfig(nil), c.Backends...)
	if preferred == "" {
		return out, nil
	}
	for i, b := range out {
		if b.Name == preferred || b.ID == preferred {
			copy(out[1:i+1], out[:i])
			out[0] = b
			return out, nil
		}
	}
	return nil, fmt.Errorf("casconfig: preferred backend %q not in config", preferred)
}
