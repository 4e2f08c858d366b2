package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seedHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func writeFile(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_UsageAndUnknown(t *testing.T) {
	if _, _, code := runCLI(t); code != 2 {
		t.Fatalf("no args: code %d", code)
	}
	if _, errOut, code := runCLI(t, "frobnicate"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unknown: code %d, %q", code, errOut)
	}
	if out, _, code := runCLI(t, "help"); code != 0 || !strings.Contains(out, "pqasn der dump") {
		t.Fatalf("help: code %d", code)
	}
}

func TestDER_CheckAndCanonicalize(t *testing.T) {
	good := writeFile(t, "good.der", []byte{0x30, 0x03, 0x02, 0x01, 0x05})
	if out, errOut, code := runCLI(t, "der", "check", good); code != 0 || strings.TrimSpace(out) != "OK" {
		t.Fatalf("check good: code %d out %q err %q", code, out, errOut)
	}

	ber := writeFile(t, "ber.der", []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x00, 0x00})
	if _, errOut, code := runCLI(t, "der", "check", ber); code != 1 || errOut == "" {
		t.Fatalf("strict check of BER: code %d", code)
	}
	out, errOut, code := runCLI(t, "der", "canonicalize", "--mode", "permissive", "--base64-out", ber)
	if code != 0 {
		t.Fatalf("canonicalize: code %d, %s", code, errOut)
	}
	if strings.TrimSpace(out) != base64.StdEncoding.EncodeToString([]byte{0x30, 0x03, 0x02, 0x01, 0x05}) {
		t.Fatalf("canonicalize output %q", out)
	}
	if _, _, code := runCLI(t, "der", "check", "--mode", "lenient", good); code != 2 {
		t.Fatalf("bad --mode: code %d", code)
	}
}

func TestDER_DumpAcceptsPEMAndBase64(t *testing.T) {
	pemFile := writeFile(t, "v.pem", []byte("-----BEGIN THING-----\nMAMCAQU=\n-----END THING-----\n"))
	out, errOut, code := runCLI(t, "der", "dump", pemFile)
	if code != 0 || !strings.Contains(out, "SEQUENCE") || !strings.Contains(out, "INTEGER") {
		t.Fatalf("dump pem: code %d out %q err %q", code, out, errOut)
	}
	b64 := writeFile(t, "v.b64", []byte("MAMC\nAQU=\n"))
	if _, errOut, code := runCLI(t, "der", "cid", "--base64", b64); code != 0 {
		t.Fatalf("cid base64: code %d, %s", code, errOut)
	}
}

func TestOCSP_InspectVectors(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "conformance", "ocsp")

	out, errOut, code := runCLI(t, "ocsp", "inspect", "--base64", filepath.Join(dir, "response.b64"))
	if code != 0 {
		t.Fatalf("inspect response: code %d, %s", code, errOut)
	}
	for _, want := range []string{"status: successful", "certStatus: revoked", "responderID: byName", "certs: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect response missing %q:\n%s", want, out)
		}
	}

	out, errOut, code = runCLI(t, "ocsp", "inspect", "--base64", filepath.Join(dir, "signed_request.b64"))
	if code != 0 || !strings.Contains(out, "OCSPRequest") || !strings.Contains(out, "(1024 bits)") {
		t.Fatalf("inspect signed request: code %d out %q err %q", code, out, errOut)
	}

	out, errOut, code = runCLI(t, "ocsp", "inspect", "--kind", "request", "--base64", filepath.Join(dir, "unsigned_request.b64"))
	if code != 0 || !strings.Contains(out, "signature: none") {
		t.Fatalf("inspect unsigned request: code %d out %q err %q", code, out, errOut)
	}
}

func TestOCSP_RederiveIsIdentity(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "conformance", "ocsp", "response.b64")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out, errOut, code := runCLI(t, "ocsp", "rederive", "--base64", path)
	if code != 0 {
		t.Fatalf("rederive: code %d, %s", code, errOut)
	}
	want := strings.Join(strings.Fields(string(raw)), "")
	if strings.TrimSpace(out) != want {
		t.Fatalf("rederive changed the response")
	}
	if errOut != "" {
		t.Fatalf("unexpected note: %q", errOut)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	if out, _, code := runCLI(t, "registry", "lookup", "p256_kyber512"); code != 0 || strings.TrimSpace(out) != "1.3.9999.99.72" {
		t.Fatalf("lookup name: code %d out %q", code, out)
	}
	if out, _, code := runCLI(t, "registry", "lookup", "1.3.9999.7.1"); code != 0 || strings.TrimSpace(out) != "p256_mldsa44" {
		t.Fatalf("lookup legacy oid: code %d out %q", code, out)
	}
	if _, errOut, code := runCLI(t, "registry", "lookup", "p999_nothing"); code != 1 || !strings.Contains(errOut, "REG-001") {
		t.Fatalf("lookup unknown: code %d err %q", code, errOut)
	}
	out, _, code := runCLI(t, "registry", "list", "--ambiguous")
	if code != 0 || !strings.Contains(out, "p256_mldsa44\t2.16.840.1.114027.80.8.1.4") {
		t.Fatalf("list ambiguous: code %d out %q", code, out)
	}
}

func TestHybrid_Resolve(t *testing.T) {
	out, errOut, code := runCLI(t, "hybrid", "resolve", "--classical", "P-256", "--pq", "Kyber512", "--spki")
	if code != 0 {
		t.Fatalf("resolve: code %d, %s", code, errOut)
	}
	for _, want := range []string{"name: p256_kyber512", "oid: 1.3.9999.99.72", "visibility: public", "BEGIN PUBLIC KEY"} {
		if !strings.Contains(out, want) {
			t.Fatalf("resolve output missing %q:\n%s", want, out)
		}
	}

	out, errOut, code = runCLI(t, "hybrid", "resolve", "--classical", "P-256", "--pq", "Kyber512", "--private", "--seed-hex", seedHex)
	if code != 0 || !strings.Contains(out, "visibility: private") {
		t.Fatalf("resolve private: code %d out %q err %q", code, out, errOut)
	}

	_, errOut, code = runCLI(t, "hybrid", "resolve", "--classical", "P-256", "--pq", "X25519")
	if code != 1 || !strings.Contains(errOut, "HYB-002") {
		t.Fatalf("resolve unsupported: code %d err %q", code, errOut)
	}
}

func TestKeyLifecycle(t *testing.T) {
	dir := t.TempDir()
	if _, errOut, code := runCLI(t, "key", "init", "--dir", dir, "--name", "alice", "--seed-hex", seedHex); code != 0 {
		t.Fatalf("init: code %d, %s", code, errOut)
	}
	if _, _, code := runCLI(t, "key", "init", "--dir", dir, "--name", "alice"); code != 1 {
		t.Fatalf("second init without --force: code %d", code)
	}
	out, errOut, code := runCLI(t, "key", "derive", "--dir", dir, "--from", "alice", "--combination", "x25519_mlkem768")
	if code != 0 || !strings.Contains(out, "x25519_mlkem768") {
		t.Fatalf("derive: code %d out %q err %q", code, out, errOut)
	}
	out, _, code = runCLI(t, "key", "list", "--dir", dir)
	if code != 0 || strings.TrimSpace(out) != "alice\tx25519_mlkem768" {
		t.Fatalf("list: code %d out %q", code, out)
	}

	first, errOut, code := runCLI(t, "key", "export", "--dir", dir, "--name", "alice", "--combination", "x25519_mlkem768")
	if code != 0 || !strings.Contains(first, "BEGIN PUBLIC KEY") {
		t.Fatalf("export: code %d out %q err %q", code, first, errOut)
	}
	second, _, _ := runCLI(t, "hybrid", "derive", "--dir", dir, "--key", "alice", "--name", "x25519_mlkem768")
	if !strings.Contains(second, strings.TrimSpace(first)) {
		t.Fatalf("hybrid derive disagrees with key export:\n%s\n%s", first, second)
	}
}

func TestArchive_PutGetHas(t *testing.T) {
	dir := t.TempDir()
	msg := writeFile(t, "m.der", []byte{0x30, 0x03, 0x02, 0x01, 0x05})

	out, errOut, code := runCLI(t, "archive", "put", "--localfs-dir", dir, msg)
	if code != 0 {
		t.Fatalf("put: code %d, %s", code, errOut)
	}
	id := strings.TrimSpace(out)

	if out, _, code := runCLI(t, "archive", "has", "--localfs-dir", dir, id); code != 0 || strings.TrimSpace(out) != "true" {
		t.Fatalf("has: code %d out %q", code, out)
	}
	out, _, code = runCLI(t, "archive", "get", "--localfs-dir", dir, id)
	if code != 0 || strings.TrimSpace(out) != base64.StdEncoding.EncodeToString([]byte{0x30, 0x03, 0x02, 0x01, 0x05}) {
		t.Fatalf("get: code %d out %q", code, out)
	}

	ber := writeFile(t, "b.der", []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x00, 0x00})
	if _, _, code := runCLI(t, "archive", "put", "--localfs-dir", dir, ber); code != 1 {
		t.Fatalf("put BER without --accept-ber: code %d", code)
	}
	out, _, code = runCLI(t, "archive", "put", "--localfs-dir", dir, "--accept-ber", ber)
	if code != 0 || strings.TrimSpace(out) != id {
		t.Fatalf("put BER with --accept-ber: code %d out %q want %s", code, out, id)
	}
}

func TestArchive_Config(t *testing.T) {
	cfg := writeFile(t, "archive.toml", []byte("[[backends]]\nname = \"localfs\"\n[backends.config]\ndir = \""+filepath.ToSlash(t.TempDir())+"\"\n"))
	msg := writeFile(t, "m.der", []byte{0x05, 0x00})
	if out, errOut, code := runCLI(t, "archive", "put", "--config", cfg, msg); code != 0 || !strings.HasPrefix(out, "b") {
		t.Fatalf("put via config: code %d out %q err %q", code, out, errOut)
	}
	if out, _, code := runCLI(t, "archive", "backends"); code != 0 || !strings.Contains(out, "localfs") || !strings.Contains(out, "grpc") {
		t.Fatalf("backends: code %d out %q", code, out)
	}
}

func TestArchive_ExportImport(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	msg := writeFile(t, "m.der", []byte{0x30, 0x03, 0x02, 0x01, 0x05})
	out, errOut, code := runCLI(t, "archive", "put", "--localfs-dir", src, msg)
	if code != 0 {
		t.Fatalf("put: code %d, %s", code, errOut)
	}
	id := strings.TrimSpace(out)

	tarPath := filepath.Join(t.TempDir(), "bundle.tar")
	if _, errOut, code := runCLI(t, "archive", "export", "--localfs-dir", src, "--label", "five="+id, "--out", tarPath, id); code != 0 {
		t.Fatalf("export: code %d, %s", code, errOut)
	}
	out, errOut, code = runCLI(t, "archive", "import", "--localfs-dir", dst, tarPath)
	if code != 0 || strings.TrimSpace(out) != id {
		t.Fatalf("import: code %d out %q err %q", code, out, errOut)
	}
	if out, _, code := runCLI(t, "archive", "has", "--localfs-dir", dst, id); code != 0 || strings.TrimSpace(out) != "true" {
		t.Fatalf("has after import: code %d out %q", code, out)
	}

	if _, _, code := runCLI(t, "archive", "export", "--localfs-dir", src); code != 2 {
		t.Fatalf("export without cids: code %d", code)
	}
	if _, _, code := runCLI(t, "archive", "export", "--localfs-dir", src, "--label", "bad", id); code != 2 {
		t.Fatalf("malformed label: code %d", code)
	}
}
