package casregistry

import (
	"errors"
	"flag"
	"testing"

	"xdao.co/pqasn/storage"
)

func fake(name string, usage Usage, got *map[string]string) Backend {
	return Backend{
		Name:          name,
		Description:   "test backend",
		Usage:         usage,
		RegisterFlags: func(fs *flag.FlagSet) { fs.Bool(name+"-flag", false, "") },
		Open:          func() (storage.CAS, func() error, error) { return nil, nil, nil },
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			*got = cfg
			return nil, nil, nil
		},
	}
}

func TestRegister_Validation(t *testing.T) {
	var sink map[string]string
	for name, b := range map[string]Backend{
		"no name":  {Usage: UsageCLI},
		"no usage": func() Backend { b := fake("t-nousage", 0, &sink); return b }(),
		"no open": func() Backend {
			b := fake("t-noopen", UsageCLI, &sink)
			b.Open = nil
			return b
		}(),
		"no open config": func() Backend {
			b := fake("t-noconfig", UsageCLI, &sink)
			b.OpenConfig = nil
			return b
		}(),
	} {
		if err := Register(b); err == nil {
			t.Fatalf("%s: Register succeeded", name)
		}
	}

	if err := Register(fake("t-dup", UsageCLI, &sink)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(fake("t-dup", UsageCLI, &sink)); err == nil {
		t.Fatalf("duplicate Register succeeded")
	}
}

func TestUsageFiltering(t *testing.T) {
	var sink map[string]string
	MustRegister(fake("t-cli", UsageCLI, &sink))
	MustRegister(fake("t-daemon", UsageDaemon, &sink))

	contains := func(names []string, want string) bool {
		for _, n := range names {
			if n == want {
				return true
			}
		}
		return false
	}
	if cli := Names(UsageCLI); !contains(cli, "t-cli") || contains(cli, "t-daemon") {
		t.Fatalf("Names(cli) = %v", cli)
	}
	if _, _, err := Open("t-daemon", UsageCLI); err == nil {
		t.Fatalf("Open allowed a daemon-only backend in the CLI")
	}

	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	RegisterFlags(fs, UsageDaemon)
	if fs.Lookup("t-daemon-flag") == nil || fs.Lookup("t-cli-flag") != nil {
		t.Fatalf("RegisterFlags registered the wrong set")
	}
}

func TestOpenWithConfig(t *testing.T) {
	var got map[string]string
	MustRegister(fake("t-config", UsageCLI|UsageDaemon, &got))

	if _, _, err := OpenWithConfig("t-config", UsageDaemon, map[string]string{"dir": "/x"}); err != nil {
		t.Fatalf("OpenWithConfig: %v", err)
	}
	if got["dir"] != "/x" {
		t.Fatalf("config not forwarded: %v", got)
	}
	if _, _, err := OpenWithConfig("t-config", UsageCLI, nil); err != nil || got == nil {
		t.Fatalf("nil config: err=%v cfg=%v", err, got)
	}
	if _, _, err := OpenWithConfig("t-missing", UsageCLI, nil); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("unknown backend: %v", err)
	}
}

func TestUsage_String(t *testing.T) {
	for u, want := range map[Usage]string{0: "none", UsageCLI: "cli", UsageDaemon: "daemon", UsageCLI | UsageDaemon: "cli|daemon"} {
		if got := u.String(); got != want {
			t.Fatalf("Usage(%d).String() = %q want %q", u, got, want)
		}
	}
}
