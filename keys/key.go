package keys

import (
	"bytes"
	"crypto/subtle"
	"fmt"
)

// Family is the broad algorithm family of a key.
type Family int

const (
	FamilyNamedCurve Family = iota + 1
	FamilyMontgomery
	FamilyEdwards
	FamilyKEM
	FamilyLatticeSignature
	FamilyHashSignature
	FamilyOpaque
)

func (f Family) String() string {
	switch f {
	case FamilyNamedCurve:
		return "named-curve"
	case FamilyMontgomery:
		return "montgomery"
	case FamilyEdwards:
		return "edwards"
	case FamilyKEM:
		return "kem"
	case FamilyLatticeSignature:
		return "lattice-signature"
	case FamilyHashSignature:
		return "hash-signature"
	case FamilyOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// PostQuantum reports whether keys of this family are post-quantum.
func (f Family) PostQuantum() bool {
	return f == FamilyKEM || f == FamilyLatticeSignature || f == FamilyHashSignature
}

// Key is implemented only by the variants in this package.
type Key interface {
	// IsPrivate reports whether the key holds private material.
	IsPrivate() bool
	Family() Family
	// ParameterSet names the curve, scheme or parameter set, e.g. "P-256",
	// "Kyber512", "ML-DSA-44" or "sphincs-sha2-128f-simple".
	ParameterSet() string
	// Bytes returns a copy of the raw encoded key.
	Bytes() []byte
	// Public returns the public half. Public keys return themselves.
	Public() (Key, error)
	Equal(Key) bool

	isNil() bool
	clone() Key
}

// IsNil reports whether k is a nil interface or a nil variant pointer.
func IsNil(k Key) bool { return k == nil || k.isNil() }

// Clone returns a copy of k that shares no state with it.
func Clone(k Key) Key {
	if IsNil(k) {
		return k
	}
	return k.clone()
}

// material is shared by every variant.
type material struct {
	private bool
	raw     []byte
}

func (m material) IsPrivate() bool { return m.private }
func (m material) Bytes() []byte   { return bytes.Clone(m.raw) }

func (m material) copy() material { return material{private: m.private, raw: bytes.Clone(m.raw)} }

func (m material) equal(o material) bool {
	if m.private != o.private || len(m.raw) != len(o.raw) {
		return false
	}
	return subtle.ConstantTimeCompare(m.raw, o.raw) == 1
}

// Curve is a NIST prime curve.
type Curve string

const (
	CurveP224 Curve = "P-224"
	CurveP256 Curve = "P-256"
	CurveP384 Curve = "P-384"
	CurveP521 Curve = "P-521"
)

// ECKey is a key on a NIST prime curve. Public keys hold the uncompressed
// point, private keys the fixed-width scalar.
type ECKey struct {
	material
	Curve Curve
}

func (k *ECKey) isNil() bool { return k == nil }
func (k *ECKey) clone() Key  { return &ECKey{material: k.material.copy(), Curve: k.Curve} }
func (k *ECKey) Family() Family       { return FamilyNamedCurve }
func (k *ECKey) ParameterSet() string { return string(k.Curve) }
func (k *ECKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	priv, err := ecdhCurve(k.Curve).NewPrivateKey(k.raw)
	if err != nil {
		return nil, invalidKey(k.ParameterSet(), err)
	}
	return &ECKey{material: material{raw: priv.PublicKey().Bytes()}, Curve: k.Curve}, nil
}
func (k *ECKey) Equal(o Key) bool {
	x, ok := o.(*ECKey)
	return ok && k.Curve == x.Curve && k.equal(x.material)
}

// MontgomeryScheme is X25519 or X448.
type MontgomeryScheme string

const (
	X25519 MontgomeryScheme = "X25519"
	X448   MontgomeryScheme = "X448"
)

// MontgomeryKey is an X25519 or X448 key-agreement key.
type MontgomeryKey struct {
	material
	Scheme MontgomeryScheme
}

func (k *MontgomeryKey) isNil() bool { return k == nil }
func (k *MontgomeryKey) clone() Key  { return &MontgomeryKey{material: k.material.copy(), Scheme: k.Scheme} }
func (k *MontgomeryKey) Family() Family       { return FamilyMontgomery }
func (k *MontgomeryKey) ParameterSet() string { return string(k.Scheme) }
func (k *MontgomeryKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	pub, err := montgomeryPublic(k.Scheme, k.raw)
	if err != nil {
		return nil, err
	}
	return &MontgomeryKey{material: material{raw: pub}, Scheme: k.Scheme}, nil
}
func (k *MontgomeryKey) Equal(o Key) bool {
	x, ok := o.(*MontgomeryKey)
	return ok && k.Scheme == x.Scheme && k.equal(x.material)
}

// EdwardsScheme is Ed25519 or Ed448.
type EdwardsScheme string

const (
	Ed25519 EdwardsScheme = "Ed25519"
	Ed448   EdwardsScheme = "Ed448"
)

// EdwardsKey is an EdDSA key. Private keys hold the seed.
type EdwardsKey struct {
	material
	Scheme EdwardsScheme
}

func (k *EdwardsKey) isNil() bool { return k == nil }
func (k *EdwardsKey) clone() Key  { return &EdwardsKey{material: k.material.copy(), Scheme: k.Scheme} }
func (k *EdwardsKey) Family() Family       { return FamilyEdwards }
func (k *EdwardsKey) ParameterSet() string { return string(k.Scheme) }
func (k *EdwardsKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	pub, err := edwardsPublic(k.Scheme, k.raw)
	if err != nil {
		return nil, err
	}
	return &EdwardsKey{material: material{raw: pub}, Scheme: k.Scheme}, nil
}
func (k *EdwardsKey) Equal(o Key) bool {
	x, ok := o.(*EdwardsKey)
	return ok && k.Scheme == x.Scheme && k.equal(x.material)
}

// KEMKey is a lattice KEM key (Kyber or ML-KEM). Scheme is the circl scheme
// name, e.g. "Kyber768" or "ML-KEM-768".
type KEMKey struct {
	material
	Scheme string
}

func (k *KEMKey) isNil() bool { return k == nil }
func (k *KEMKey) clone() Key  { return &KEMKey{material: k.material.copy(), Scheme: k.Scheme} }
func (k *KEMKey) Family() Family       { return FamilyKEM }
func (k *KEMKey) ParameterSet() string { return k.Scheme }
func (k *KEMKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	sch, err := kemScheme(k.Scheme)
	if err != nil {
		return nil, err
	}
	sk, err := sch.UnmarshalBinaryPrivateKey(k.raw)
	if err != nil {
		return nil, invalidKey(k.Scheme, err)
	}
	return FromKEMPublicKey(sk.Public())
}
func (k *KEMKey) Equal(o Key) bool {
	x, ok := o.(*KEMKey)
	return ok && k.Scheme == x.Scheme && k.equal(x.material)
}

// LatticeSignatureKey is a Dilithium or ML-DSA key. Scheme is the circl
// scheme name, e.g. "Dilithium3" or "ML-DSA-65".
type LatticeSignatureKey struct {
	material
	Scheme string
}

func (k *LatticeSignatureKey) isNil() bool { return k == nil }
func (k *LatticeSignatureKey) clone() Key  { return &LatticeSignatureKey{material: k.material.copy(), Scheme: k.Scheme} }
func (k *LatticeSignatureKey) Family() Family       { return FamilyLatticeSignature }
func (k *LatticeSignatureKey) ParameterSet() string { return k.Scheme }
func (k *LatticeSignatureKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	sch, err := signScheme(k.Scheme)
	if err != nil {
		return nil, err
	}
	sk, err := sch.UnmarshalBinaryPrivateKey(k.raw)
	if err != nil {
		return nil, invalidKey(k.Scheme, err)
	}
	return FromCryptoKey(sk.Public())
}
func (k *LatticeSignatureKey) Equal(o Key) bool {
	x, ok := o.(*LatticeSignatureKey)
	return ok && k.Scheme == x.Scheme && k.equal(x.material)
}

// SPHINCSKey is a SPHINCS+ key carried as opaque bytes. ParameterSet is the
// dashed parameter-set name, e.g. "sphincs-sha2-128f-simple".
type SPHINCSKey struct {
	material
	Params string
}

func (k *SPHINCSKey) isNil() bool { return k == nil }
func (k *SPHINCSKey) clone() Key  { return &SPHINCSKey{material: k.material.copy(), Params: k.Params} }
func (k *SPHINCSKey) Family() Family       { return FamilyHashSignature }
func (k *SPHINCSKey) ParameterSet() string { return k.Params }

// Public returns PK.seed || PK.root, the trailing half of the secret key.
func (k *SPHINCSKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	n := len(k.raw) / 2
	return &SPHINCSKey{material: material{raw: bytes.Clone(k.raw[n:])}, Params: k.Params}, nil
}
func (k *SPHINCSKey) Equal(o Key) bool {
	x, ok := o.(*SPHINCSKey)
	return ok && k.Params == x.Params && k.equal(x.material)
}

// OpaqueKey is any key outside the modeled families (RSA, for instance).
// It never classifies into a hybrid combination.
type OpaqueKey struct {
	material
	Algorithm string
}

func (k *OpaqueKey) isNil() bool { return k == nil }
func (k *OpaqueKey) clone() Key  { return &OpaqueKey{material: k.material.copy(), Algorithm: k.Algorithm} }
func (k *OpaqueKey) Family() Family       { return FamilyOpaque }
func (k *OpaqueKey) ParameterSet() string { return k.Algorithm }
func (k *OpaqueKey) Public() (Key, error) {
	if !k.private {
		return k, nil
	}
	return nil, fmt.Errorf("keys: public half of opaque %s key is unavailable", k.Algorithm)
}
func (k *OpaqueKey) Equal(o Key) bool {
	x, ok := o.(*OpaqueKey)
	return ok && k.Algorithm == x.Algorithm && k.equal(x.material)
}
