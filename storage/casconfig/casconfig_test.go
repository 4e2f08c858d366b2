package casconfig_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/casconfig"
	"xdao.co/pqasn/storage/casregistry"
	_ "xdao.co/pqasn/storage/localfs"
	"xdao.co/pqasn/storage/testkit"
)

func twoLocal(t *testing.T, policy string) string {
	t.Helper()
	a, b := t.TempDir(), t.TempDir()
	return fmt.Sprintf(`
write_policy = %q

[[backends]]
name = "localfs"
id = "a"
[backends.config]
dir = %q

[[backends]]
name = "localfs"
id = "b"
[backends.config]
dir = %q
`, policy, a, b)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := casconfig.Parse(`
[[backends]]
name = "localfs"
[backends.config]
dir = "/tmp/x"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.WritePolicy != casconfig.WriteFirst || cfg.AcceptBER {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Backends) != 1 || cfg.Backends[0].Label() != "localfs" || cfg.Backends[0].Config["dir"] != "/tmp/x" {
		t.Fatalf("backends = %+v", cfg.Backends)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no backends":  `write_policy = "first"`,
		"bad policy":   "write_policy = \"some\"\n[[backends]]\nname = \"localfs\"\n",
		"missing name": "[[backends]]\nid = \"x\"\n",
		"duplicate id": "[[backends]]\nname = \"localfs\"\n[[backends]]\nname = \"localfs\"\n",
		"unknown key":  "colour = \"blue\"\n[[backends]]\nname = \"localfs\"\n",
		"not toml":     "[[backends",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := casconfig.Parse(doc); err == nil {
				t.Fatalf("Parse accepted %q", doc)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.toml")
	if err := os.WriteFile(path, []byte("accept_ber = true\n"+twoLocal(t, "all")), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := casconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != casconfig.WriteAll {
		t.Fatalf("WritePolicy = %q", cfg.WritePolicy)
	}
	if _, err := casconfig.LoadFile(""); err == nil {
		t.Fatalf("LoadFile(\"\") succeeded")
	}
}

func TestOpen_PoliciesPassConformance(t *testing.T) {
	for _, policy := range []string{casconfig.WriteFirst, casconfig.WriteAll} {
		t.Run(policy, func(t *testing.T) {
			testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
				cfg, err := casconfig.Parse(twoLocal(t, policy))
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				cas, closeFn, err := cfg.Open(casregistry.UsageCLI, "")
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				t.Cleanup(func() { _ = closeFn() })
				return cas
			})
		})
	}
}

func TestOpen_IsCanonical(t *testing.T) {
	cfg, err := casconfig.Parse(twoLocal(t, casconfig.WriteFirst))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cas, _, err := cfg.Open(casregistry.UsageDaemon, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := cas.Put(context.Background(), []byte{0x01, 0x01, 0x01}); !errors.Is(err, storage.ErrNotCanonical) {
		t.Fatalf("Put(BER): got %v want ErrNotCanonical", err)
	}
}

func TestOpen_PreferredAndUnknown(t *testing.T) {
	cfg, err := casconfig.Parse(twoLocal(t, casconfig.WriteFirst))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := cfg.Open(casregistry.UsageCLI, "b"); err != nil {
		t.Fatalf("Open(preferred b): %v", err)
	}
	if _, _, err := cfg.Open(casregistry.UsageCLI, "zzz"); err == nil {
		t.Fatalf("Open accepted an unknown preferred backend")
	}

	bad, err := casconfig.Parse("[[backends]]\nname = \"nosuch\"\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, _, err = bad.Open(casregistry.UsageCLI, "")
	if !errors.Is(err, casregistry.ErrUnknownBackend) {
		t.Fatalf("Open(unknown): got %v", err)
	}
	if !strings.Contains(err.Error(), "nosuch") {
		t.Fatalf("error does not name the backend: %v", err)
	}
}
