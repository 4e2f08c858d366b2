package keys

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/dh/x448"
	"github.com/cloudflare/circl/kem"
	kemschemes "github.com/cloudflare/circl/kem/schemes"
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/ed448"
	signschemes "github.com/cloudflare/circl/sign/schemes"

	"xdao.co/pqasn/pqerr"
)

// FromCryptoKey wraps a key object from crypto/ecdh, crypto/ecdsa,
// crypto/ed25519, crypto/rsa or circl (kem, sign, ed448) in the matching
// variant. Circl's X448 keys are untyped arrays; use NewMontgomeryKey for them.
func FromCryptoKey(k any) (Key, error) {
	switch k := k.(type) {
	case nil:
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-001", "keys: nil key")
	case Key:
		return k, nil
	case *ecdh.PublicKey:
		if k == nil {
			break
		}
		return fromECDH(k.Curve(), k.Bytes(), false)
	case *ecdh.PrivateKey:
		if k == nil {
			break
		}
		return fromECDH(k.Curve(), k.Bytes(), true)
	case *ecdsa.PublicKey:
		if k == nil {
			break
		}
		if isP224(k.Curve) {
			raw := make([]byte, p224Size(false))
			raw[0] = 4
			k.X.FillBytes(raw[1:29])
			k.Y.FillBytes(raw[29:])
			return asKey(NewECKey(CurveP224, raw, false))
		}
		pub, err := k.ECDH()
		if err != nil {
			return nil, invalidKey("ecdsa", err)
		}
		return fromECDH(pub.Curve(), pub.Bytes(), false)
	case *ecdsa.PrivateKey:
		if k == nil {
			break
		}
		if isP224(k.Curve) {
			return asKey(NewECKey(CurveP224, k.D.FillBytes(make([]byte, p224Size(true))), true))
		}
		priv, err := k.ECDH()
		if err != nil {
			return nil, invalidKey("ecdsa", err)
		}
		return fromECDH(priv.Curve(), priv.Bytes(), true)
	case ed25519.PublicKey:
		return asKey(NewEdwardsKey(Ed25519, k, false))
	case ed25519.PrivateKey:
		if len(k) != ed25519.PrivateKeySize {
			break
		}
		return asKey(NewEdwardsKey(Ed25519, k.Seed(), true))
	case ed448.PublicKey:
		return asKey(NewEdwardsKey(Ed448, k, false))
	case ed448.PrivateKey:
		if len(k) != ed448.PrivateKeySize {
			break
		}
		return asKey(NewEdwardsKey(Ed448, k.Seed(), true))
	case *rsa.PublicKey:
		if k == nil {
			break
		}
		return &OpaqueKey{material: material{raw: x509.MarshalPKCS1PublicKey(k)}, Algorithm: "RSA"}, nil
	case *rsa.PrivateKey:
		if k == nil {
			break
		}
		return &OpaqueKey{material: material{private: true, raw: x509.MarshalPKCS1PrivateKey(k)}, Algorithm: "RSA"}, nil
	case kem.PublicKey:
		return FromKEMPublicKey(k)
	case kem.PrivateKey:
		return FromKEMPrivateKey(k)
	case sign.PublicKey:
		raw, err := k.MarshalBinary()
		if err != nil {
			return nil, invalidKey(k.Scheme().Name(), err)
		}
		return fromSign(k.Scheme().Name(), raw, false)
	case sign.PrivateKey:
		raw, err := k.MarshalBinary()
		if err != nil {
			return nil, invalidKey(k.Scheme().Name(), err)
		}
		return fromSign(k.Scheme().Name(), raw, true)
	default:
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unsupported key object %T", k))
	}
	return nil, pqerr.New(pqerr.InvalidArgument, "KEY-001", "keys: nil or malformed key")
}

// FromKEMPublicKey wraps a circl KEM public key.
func FromKEMPublicKey(pk kem.PublicKey) (Key, error) {
	if pk == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-001", "keys: nil KEM public key")
	}
	raw, err := pk.MarshalBinary()
	if err != nil {
		return nil, invalidKey(pk.Scheme().Name(), err)
	}
	return fromKEM(pk.Scheme().Name(), raw, false), nil
}

// FromKEMPrivateKey wraps a circl KEM private key.
func FromKEMPrivateKey(sk kem.PrivateKey) (Key, error) {
	if sk == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-001", "keys: nil KEM private key")
	}
	raw, err := sk.MarshalBinary()
	if err != nil {
		return nil, invalidKey(sk.Scheme().Name(), err)
	}
	return fromKEM(sk.Scheme().Name(), raw, true), nil
}

func fromKEM(scheme string, raw []byte, private bool) Key {
	m := material{private: private, raw: raw}
	if isLatticeKEM(scheme) {
		return &KEMKey{material: m, Scheme: scheme}
	}
	return &OpaqueKey{material: m, Algorithm: scheme}
}

func fromSign(scheme string, raw []byte, private bool) (Key, error) {
	switch scheme {
	case string(Ed25519):
		if private {
			if len(raw) != ed25519.PrivateKeySize {
				return nil, invalidKey(scheme, fmt.Errorf("private key is %d bytes", len(raw)))
			}
			raw = ed25519.PrivateKey(raw).Seed()
		}
		return asKey(NewEdwardsKey(Ed25519, raw, private))
	case string(Ed448):
		if private {
			if len(raw) != ed448.PrivateKeySize {
				return nil, invalidKey(scheme, fmt.Errorf("private key is %d bytes", len(raw)))
			}
			raw = ed448.PrivateKey(raw).Seed()
		}
		return asKey(NewEdwardsKey(Ed448, raw, private))
	}
	m := material{private: private, raw: raw}
	if isLatticeSignature(scheme) {
		return &LatticeSignatureKey{material: m, Scheme: scheme}, nil
	}
	return &OpaqueKey{material: m, Algorithm: scheme}, nil
}

func fromECDH(c ecdh.Curve, raw []byte, private bool) (Key, error) {
	m := material{private: private, raw: bytes.Clone(raw)}
	switch c {
	case ecdh.P256():
		return &ECKey{material: m, Curve: CurveP256}, nil
	case ecdh.P384():
		return &ECKey{material: m, Curve: CurveP384}, nil
	case ecdh.P521():
		return &ECKey{material: m, Curve: CurveP521}, nil
	case ecdh.X25519():
		return &MontgomeryKey{material: m, Scheme: X25519}, nil
	}
	return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unsupported ecdh curve %v", c))
}

// NewECKey wraps a raw uncompressed point (public) or scalar (private).
// P-224 is accepted for completeness; it is outside every hybrid combination.
func NewECKey(curve Curve, raw []byte, private bool) (*ECKey, error) {
	k := &ECKey{material: material{private: private, raw: bytes.Clone(raw)}, Curve: curve}
	if curve == CurveP224 {
		if want := p224Size(private); len(raw) != want {
			return nil, invalidKey(string(curve), fmt.Errorf("want %d bytes, got %d", want, len(raw)))
		}
		return k, nil
	}
	c := ecdhCurve(curve)
	if c == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown curve %q", curve))
	}
	var err error
	if private {
		_, err = c.NewPrivateKey(raw)
	} else {
		_, err = c.NewPublicKey(raw)
	}
	if err != nil {
		return nil, invalidKey(string(curve), err)
	}
	return k, nil
}

// p224Size is the scalar or uncompressed point size on P-224. crypto/ecdh
// does not implement the curve, so points are only length-checked.
func p224Size(private bool) int {
	if private {
		return 28
	}
	return 1 + 2*28
}

// asKey converts a variant constructor result without leaking a typed nil.
func asKey[T Key](k T, err error) (Key, error) {
	if err != nil {
		return nil, err
	}
	return k, nil
}

func isP224(c elliptic.Curve) bool {
	return c != nil && c.Params().Name == "P-224"
}

// NewMontgomeryKey wraps a raw X25519 or X448 key.
func NewMontgomeryKey(scheme MontgomeryScheme, raw []byte, private bool) (*MontgomeryKey, error) {
	var want int
	switch scheme {
	case X25519:
		want = 32
	case X448:
		want = x448.Size
	default:
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown Montgomery scheme %q", scheme))
	}
	if len(raw) != want {
		return nil, invalidKey(string(scheme), fmt.Errorf("want %d bytes, got %d", want, len(raw)))
	}
	return &MontgomeryKey{material: material{private: private, raw: bytes.Clone(raw)}, Scheme: scheme}, nil
}

// NewEdwardsKey wraps a raw EdDSA public key or private seed.
func NewEdwardsKey(scheme EdwardsScheme, raw []byte, private bool) (*EdwardsKey, error) {
	var want int
	switch {
	case scheme == Ed25519 && private:
		want = ed25519.SeedSize
	case scheme == Ed25519:
		want = ed25519.PublicKeySize
	case scheme == Ed448 && private:
		want = ed448.SeedSize
	case scheme == Ed448:
		want = ed448.PublicKeySize
	default:
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown Edwards scheme %q", scheme))
	}
	if len(raw) != want {
		return nil, invalidKey(string(scheme), fmt.Errorf("want %d bytes, got %d", want, len(raw)))
	}
	return &EdwardsKey{material: material{private: private, raw: bytes.Clone(raw)}, Scheme: scheme}, nil
}

// NewSPHINCSKey wraps SPHINCS+ key bytes for a known parameter set. Public
// keys are 2n bytes and private keys 4n bytes.
func NewSPHINCSKey(params string, raw []byte, private bool) (*SPHINCSKey, error) {
	n, ok := sphincsN(params)
	if !ok {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown SPHINCS+ parameter set %q", params))
	}
	want := 2 * n
	if private {
		want = 4 * n
	}
	if len(raw) != want {
		return nil, invalidKey(params, fmt.Errorf("want %d bytes, got %d", want, len(raw)))
	}
	return &SPHINCSKey{material: material{private: private, raw: bytes.Clone(raw)}, Params: strings.ToLower(params)}, nil
}

// NewOpaqueKey wraps key bytes of an algorithm this package does not model.
func NewOpaqueKey(algorithm string, raw []byte, private bool) *OpaqueKey {
	return &OpaqueKey{material: material{private: private, raw: bytes.Clone(raw)}, Algorithm: algorithm}
}

// ParseKey rebuilds a key from its ParameterSet and raw bytes.
func ParseKey(parameterSet string, raw []byte, private bool) (Key, error) {
	a, ok := lookupAlgorithm(parameterSet)
	if !ok {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown parameter set %q", parameterSet))
	}
	switch a.family {
	case FamilyNamedCurve:
		return asKey(NewECKey(Curve(a.name), raw, private))
	case FamilyMontgomery:
		return asKey(NewMontgomeryKey(MontgomeryScheme(a.name), raw, private))
	case FamilyEdwards:
		return asKey(NewEdwardsKey(EdwardsScheme(a.name), raw, private))
	case FamilyHashSignature:
		return asKey(NewSPHINCSKey(a.name, raw, private))
	case FamilyKEM:
		sch, err := kemScheme(a.name)
		if err != nil {
			return nil, err
		}
		if private {
			sk, err := sch.UnmarshalBinaryPrivateKey(raw)
			if err != nil {
				return nil, invalidKey(a.name, err)
			}
			return FromKEMPrivateKey(sk)
		}
		pk, err := sch.UnmarshalBinaryPublicKey(raw)
		if err != nil {
			return nil, invalidKey(a.name, err)
		}
		return FromKEMPublicKey(pk)
	case FamilyLatticeSignature:
		sch, err := signScheme(a.name)
		if err != nil {
			return nil, err
		}
		if private {
			sk, err := sch.UnmarshalBinaryPrivateKey(raw)
			if err != nil {
				return nil, invalidKey(a.name, err)
			}
			return FromCryptoKey(sk)
		}
		pk, err := sch.UnmarshalBinaryPublicKey(raw)
		if err != nil {
			return nil, invalidKey(a.name, err)
		}
		return FromCryptoKey(pk)
	}
	return nil, pqerr.New(pqerr.Internal, "KEY-099", "keys: unhandled family")
}

func ecdhCurve(c Curve) ecdh.Curve {
	switch c {
	case CurveP256:
		return ecdh.P256()
	case CurveP384:
		return ecdh.P384()
	case CurveP521:
		return ecdh.P521()
	}
	return nil
}

func montgomeryPublic(scheme MontgomeryScheme, raw []byte) ([]byte, error) {
	switch scheme {
	case X25519:
		priv, err := ecdh.X25519().NewPrivateKey(raw)
		if err != nil {
			return nil, invalidKey(string(scheme), err)
		}
		return priv.PublicKey().Bytes(), nil
	case X448:
		var pub, priv x448.Key
		if len(raw) != x448.Size {
			return nil, invalidKey(string(scheme), fmt.Errorf("want %d bytes, got %d", x448.Size, len(raw)))
		}
		copy(priv[:], raw)
		x448.KeyGen(&pub, &priv)
		return pub[:], nil
	}
	return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown Montgomery scheme %q", scheme))
}

func edwardsPublic(scheme EdwardsScheme, seed []byte) ([]byte, error) {
	switch scheme {
	case Ed25519:
		if len(seed) != ed25519.SeedSize {
			return nil, invalidKey(string(scheme), fmt.Errorf("seed is %d bytes", len(seed)))
		}
		return []byte(ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)), nil
	case Ed448:
		if len(seed) != ed448.SeedSize {
			return nil, invalidKey(string(scheme), fmt.Errorf("seed is %d bytes", len(seed)))
		}
		return []byte(ed448.NewKeyFromSeed(seed).Public().(ed448.PublicKey)), nil
	}
	return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown Edwards scheme %q", scheme))
}

func kemScheme(name string) (kem.Scheme, error) {
	if !isLatticeKEM(name) {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown KEM scheme %q", name))
	}
	sch := kemschemes.ByName(name)
	if sch == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown KEM scheme %q", name))
	}
	return sch, nil
}

func signScheme(name string) (sign.Scheme, error) {
	if !isLatticeSignature(name) {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown signature scheme %q", name))
	}
	sch := signschemes.ByName(name)
	if sch == nil {
		return nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown signature scheme %q", name))
	}
	return sch, nil
}

func invalidKey(what string, cause error) error {
	return pqerr.Wrap(pqerr.InvalidArgument, "KEY-003", fmt.Sprintf("keys: invalid %s key", what), cause)
}
