package keys

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"xdao.co/pqasn/pqerr"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func testSeed() []byte {
	seed := make([]byte, RootSeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestDeriveHybridSeedDeterministic(t *testing.T) {
	root := testSeed()

	a, err := DeriveHybridSeed(root, "p256_kyber512")
	if err != nil {
		t.Fatalf("DeriveHybridSeed: %v", err)
	}
	b, err := DeriveHybridSeed(root, "p256_kyber512")
	if err != nil {
		t.Fatalf("DeriveHybridSeed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected deterministic derivation")
	}
	c, err := DeriveHybridSeed(root, "x25519_kyber512")
	if err != nil {
		t.Fatalf("DeriveHybridSeed: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatalf("expected different combinations to derive different seeds")
	}

	if _, err := DeriveHybridSeed(root[:16], "p256_kyber512"); err == nil {
		t.Fatalf("expected short root seed to fail")
	}
	for _, bad := range []string{"", "p256", "p256_kyber_512", "_kyber512", "p256/kyber512"} {
		if _, err := DeriveHybridSeed(root, bad); err == nil {
			t.Fatalf("expected combination %q to be rejected", bad)
		}
	}
}

func TestDeriveKeyPair_AllDerivableAlgorithms(t *testing.T) {
	seed := testSeed()
	for _, name := range Algorithms() {
		if strings.HasPrefix(name, "sphincs-") || name == string(CurveP224) {
			continue
		}
		pub, priv, err := DeriveKeyPair(name, seed)
		if err != nil {
			t.Fatalf("%s: DeriveKeyPair: %v", name, err)
		}
		if pub.IsPrivate() || !priv.IsPrivate() {
			t.Fatalf("%s: privacy flags pub=%v priv=%v", name, pub.IsPrivate(), priv.IsPrivate())
		}
		if pub.ParameterSet() != name || priv.ParameterSet() != name {
			t.Fatalf("%s: parameter set pub=%s priv=%s", name, pub.ParameterSet(), priv.ParameterSet())
		}
		if pub.Family() != priv.Family() {
			t.Fatalf("%s: family mismatch", name)
		}

		pub2, _, err := DeriveKeyPair(name, seed)
		if err != nil || !pub.Equal(pub2) {
			t.Fatalf("%s: derivation is not deterministic (%v)", name, err)
		}

		derived, err := priv.Public()
		if err != nil {
			t.Fatalf("%s: Public: %v", name, err)
		}
		if !derived.Equal(pub) {
			t.Fatalf("%s: private key's public half differs from derived public key", name)
		}
		if pub.Equal(priv) {
			t.Fatalf("%s: public and private keys must not be equal", name)
		}

		parsed, err := ParseKey(name, pub.Bytes(), false)
		if err != nil {
			t.Fatalf("%s: ParseKey(public): %v", name, err)
		}
		if !parsed.Equal(pub) {
			t.Fatalf("%s: ParseKey(public) differs", name)
		}
		parsedPriv, err := ParseKey(name, priv.Bytes(), true)
		if err != nil {
			t.Fatalf("%s: ParseKey(private): %v", name, err)
		}
		if !parsedPriv.Equal(priv) {
			t.Fatalf("%s: ParseKey(private) differs", name)
		}
	}
}

func TestDeriveKeyPair_Rejects(t *testing.T) {
	seed := testSeed()
	if _, _, err := DeriveKeyPair("sphincs-sha2-128f-simple", seed); pqerr.RuleID(err) != "KEY-005" {
		t.Fatalf("SPHINCS+: expected KEY-005, got %v", err)
	}
	if _, _, err := DeriveKeyPair("P-224", seed); pqerr.RuleID(err) != "KEY-005" {
		t.Fatalf("P-224: expected KEY-005, got %v", err)
	}
	if _, _, err := DeriveKeyPair("RSA", seed); pqerr.RuleID(err) != "KEY-002" {
		t.Fatalf("RSA: expected KEY-002, got %v", err)
	}
	if _, _, err := DeriveKeyPair("P-256", seed[:8]); pqerr.RuleID(err) != "KEY-004" {
		t.Fatalf("short seed: expected KEY-004, got %v", err)
	}
}

func TestGenerate_UsesReader(t *testing.T) {
	a, _, err := Generate("ML-KEM-768", io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _, err := Generate("ML-KEM-768", io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("same reader stream must generate the same key")
	}
	c, _, err := Generate("ML-KEM-768", io.Reader(&deterministicReader{b: 7}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Equal(c) {
		t.Fatalf("different reader streams must generate different keys")
	}
}

func TestAlgorithmFamily(t *testing.T) {
	cases := map[string]Family{
		"p-256":                     FamilyNamedCurve,
		"X448":                      FamilyMontgomery,
		"ed25519":                   FamilyEdwards,
		"kyber1024":                 FamilyKEM,
		"ML-DSA-87":                 FamilyLatticeSignature,
		"SPHINCS-SHAKE-256s-simple": FamilyHashSignature,
	}
	for name, want := range cases {
		got, ok := AlgorithmFamily(name)
		if !ok || got != want {
			t.Fatalf("%s: family %v (%v), want %v", name, got, ok, want)
		}
	}
	if _, ok := AlgorithmFamily("rsa3072"); ok {
		t.Fatalf("rsa3072 must not be a known algorithm")
	}
	if !FamilyKEM.PostQuantum() || FamilyEdwards.PostQuantum() {
		t.Fatalf("PostQuantum classification wrong")
	}
}
