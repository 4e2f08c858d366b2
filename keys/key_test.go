package keys

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/cloudflare/circl/kem/kyber/kyber512"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/cloudflare/circl/sign/ed448"
	"github.com/cloudflare/circl/sign/mldsa/mldsa44"

	"xdao.co/pqasn/pqerr"
)

func TestFromCryptoKey_Variants(t *testing.T) {
	ecPriv, err := ecdh.P384().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ecdh: %v", err)
	}
	dsaPriv, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa: %v", err)
	}
	p224, err := ecdsa.GenerateKey(elliptic.P224(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa p224: %v", err)
	}
	xPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("x25519: %v", err)
	}
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519: %v", err)
	}
	ed448Pub, _, err := ed448.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed448: %v", err)
	}
	kyberPub, kyberPriv, err := kyber512.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("kyber512: %v", err)
	}
	dilPub, _, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("dilithium3: %v", err)
	}
	_, mldsaPriv, err := mldsa44.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("mldsa44: %v", err)
	}

	cases := []struct {
		name    string
		in      any
		family  Family
		params  string
		private bool
	}{
		{"ecdh P-384 private", ecPriv, FamilyNamedCurve, "P-384", true},
		{"ecdh P-384 public", ecPriv.PublicKey(), FamilyNamedCurve, "P-384", false},
		{"ecdsa P-521 public", &dsaPriv.PublicKey, FamilyNamedCurve, "P-521", false},
		{"ecdsa P-521 private", dsaPriv, FamilyNamedCurve, "P-521", true},
		{"ecdsa P-224 public", &p224.PublicKey, FamilyNamedCurve, "P-224", false},
		{"x25519 private", xPriv, FamilyMontgomery, "X25519", true},
		{"ed25519 public", edPub, FamilyEdwards, "Ed25519", false},
		{"ed25519 private", edPriv, FamilyEdwards, "Ed25519", true},
		{"ed448 public", ed448Pub, FamilyEdwards, "Ed448", false},
		{"kyber512 public", kyberPub, FamilyKEM, "Kyber512", false},
		{"kyber512 private", kyberPriv, FamilyKEM, "Kyber512", true},
		{"dilithium3 public", dilPub, FamilyLatticeSignature, "Dilithium3", false},
		{"mldsa44 private", mldsaPriv, FamilyLatticeSignature, "ML-DSA-44", true},
	}
	for _, tc := range cases {
		k, err := FromCryptoKey(tc.in)
		if err != nil {
			t.Fatalf("%s: FromCryptoKey: %v", tc.name, err)
		}
		if k.Family() != tc.family || k.ParameterSet() != tc.params || k.IsPrivate() != tc.private {
			t.Fatalf("%s: got family=%v params=%s private=%v", tc.name, k.Family(), k.ParameterSet(), k.IsPrivate())
		}
	}

	// The ed25519 public half derived from the seed matches the original key.
	k, _ := FromCryptoKey(edPriv)
	pub, err := k.Public()
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	want, _ := FromCryptoKey(edPub)
	if !pub.Equal(want) {
		t.Fatalf("ed25519 public half mismatch")
	}
}

func TestFromCryptoKey_OpaqueAndInvalid(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa: %v", err)
	}
	k, err := FromCryptoKey(&rsaKey.PublicKey)
	if err != nil {
		t.Fatalf("FromCryptoKey(rsa): %v", err)
	}
	if k.Family() != FamilyOpaque || k.ParameterSet() != "RSA" {
		t.Fatalf("rsa key: family=%v params=%s", k.Family(), k.ParameterSet())
	}
	priv, err := FromCryptoKey(rsaKey)
	if err != nil {
		t.Fatalf("FromCryptoKey(rsa private): %v", err)
	}
	if _, err := priv.Public(); err == nil {
		t.Fatalf("opaque private key must not produce a public half")
	}

	if _, err := FromCryptoKey(nil); !pqerr.IsKind(err, pqerr.InvalidArgument) {
		t.Fatalf("nil: %v", err)
	}
	var nilECDH *ecdh.PublicKey
	if _, err := FromCryptoKey(nilECDH); !pqerr.IsKind(err, pqerr.InvalidArgument) {
		t.Fatalf("typed nil: %v", err)
	}
	if _, err := FromCryptoKey("not a key"); pqerr.RuleID(err) != "KEY-002" {
		t.Fatalf("string: %v", err)
	}
}

func TestConstructors_ValidateSizes(t *testing.T) {
	if _, err := NewEdwardsKey(Ed25519, make([]byte, 31), false); pqerr.RuleID(err) != "KEY-003" {
		t.Fatalf("short ed25519: %v", err)
	}
	if _, err := NewMontgomeryKey(X448, make([]byte, 32), false); pqerr.RuleID(err) != "KEY-003" {
		t.Fatalf("short x448: %v", err)
	}
	if _, err := NewECKey(CurveP256, make([]byte, 65), false); pqerr.RuleID(err) != "KEY-003" {
		t.Fatalf("zero point: %v", err)
	}
	if _, err := NewSPHINCSKey("sphincs-sha2-128f-simple", make([]byte, 32), false); err != nil {
		t.Fatalf("sphincs public: %v", err)
	}
	if _, err := NewSPHINCSKey("sphincs-sha2-128f-simple", make([]byte, 32), true); pqerr.RuleID(err) != "KEY-003" {
		t.Fatalf("sphincs private size: %v", err)
	}
	if _, err := NewSPHINCSKey("sphincs-md5-128f", make([]byte, 32), false); pqerr.RuleID(err) != "KEY-002" {
		t.Fatalf("unknown sphincs: %v", err)
	}
}

func TestSPHINCSKey_PublicHalf(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i)
	}
	priv, err := NewSPHINCSKey("sphincs-shake-128s-simple", raw, true)
	if err != nil {
		t.Fatalf("NewSPHINCSKey: %v", err)
	}
	pub, err := priv.Public()
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	if got := pub.Bytes(); len(got) != 32 || got[0] != 32 {
		t.Fatalf("public half = %x", got)
	}
	if pub.IsPrivate() {
		t.Fatalf("public half must not be private")
	}
}

func TestEqual_DistinguishesVariants(t *testing.T) {
	raw := make([]byte, 32)
	x, _ := NewMontgomeryKey(X25519, raw, false)
	e, _ := NewEdwardsKey(Ed25519, raw, false)
	xPriv, _ := NewMontgomeryKey(X25519, raw, true)
	o := NewOpaqueKey("X25519", raw, false)
	if x.Equal(e) || x.Equal(xPriv) || x.Equal(o) {
		t.Fatalf("keys of different variants or privacy must differ")
	}
	x2, _ := NewMontgomeryKey(X25519, raw, false)
	if !x.Equal(x2) {
		t.Fatalf("identical keys must be equal")
	}
}

func TestIsNilAndClone(t *testing.T) {
	var ec *ECKey
	var sphincs *SPHINCSKey
	for _, k := range []Key{nil, ec, sphincs} {
		if !IsNil(k) {
			t.Fatalf("IsNil(%T) = false", k)
		}
		if Clone(k) != k {
			t.Fatalf("Clone of nil %T must return it unchanged", k)
		}
	}

	raw := make([]byte, 32)
	raw[0] = 1
	x, err := NewMontgomeryKey(X25519, raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if IsNil(x) {
		t.Fatalf("IsNil on a real key")
	}
	c := Clone(x).(*MontgomeryKey)
	if c == x || !c.Equal(x) {
		t.Fatalf("clone must be a distinct, equal key")
	}
	c.Scheme = X448
	c.raw[0] = 2
	if x.Scheme != X25519 || x.raw[0] != 1 {
		t.Fatalf("mutating a clone changed the original")
	}
}
