package keys

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cloudflare/circl/dh/x448"
	"github.com/cloudflare/circl/sign/ed448"
	"golang.org/x/crypto/sha3"

	"xdao.co/pqasn/pqerr"
)

// RootSeedSize is the size of root and hybrid seeds.
const RootSeedSize = 32

const kdfLabel = "xdao-pqasn-keys-v1"

// expand derives n bytes from seed for a labelled purpose with SHAKE-256.
func expand(seed []byte, purpose string, counter uint32, n int) []byte {
	h := sha3.NewShake256()
	_, _ = h.Write(seed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(kdfLabel))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(purpose))
	var ctr [4]byte
	binary.BigEndian.PutUint32(ctr[:], counter)
	_, _ = h.Write(ctr[:])
	out := make([]byte, n)
	_, _ = h.Read(out)
	return out
}

// DeriveRootSeed reads a fresh root seed from rand.
func DeriveRootSeed(rand io.Reader) ([]byte, error) {
	seed := make([]byte, RootSeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, fmt.Errorf("read root seed: %w", err)
	}
	return seed, nil
}

// DeriveHybridSeed deterministically derives the seed for one hybrid
// combination (e.g. "p256_kyber512") from a root seed.
func DeriveHybridSeed(rootSeed []byte, combination string) ([]byte, error) {
	if len(rootSeed) != RootSeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", RootSeedSize)
	}
	if err := CheckCombination(combination); err != nil {
		return nil, err
	}
	return expand(rootSeed, "hybrid:"+combination, 0, RootSeedSize), nil
}

const maxScalarAttempts = 64

// DeriveKeyPair deterministically derives a key pair for parameterSet from
// seed. SPHINCS+ has no in-process implementation and is rejected.
func DeriveKeyPair(parameterSet string, seed []byte) (pub, priv Key, err error) {
	if len(seed) != RootSeedSize {
		return nil, nil, pqerr.New(pqerr.InvalidArgument, "KEY-004", fmt.Sprintf("keys: seed must be %d bytes", RootSeedSize))
	}
	a, ok := lookupAlgorithm(parameterSet)
	if !ok {
		return nil, nil, pqerr.New(pqerr.InvalidArgument, "KEY-002", fmt.Sprintf("keys: unknown parameter set %q", parameterSet))
	}
	purpose := "keypair:" + a.name

	switch a.family {
	case FamilyNamedCurve:
		return deriveEC(Curve(a.name), seed, purpose)

	case FamilyMontgomery:
		if a.name == string(X25519) {
			sk, err := ecdh.X25519().NewPrivateKey(expand(seed, purpose, 0, 32))
			if err != nil {
				return nil, nil, invalidKey(a.name, err)
			}
			return fromECDHPair(ecdh.X25519(), sk)
		}
		var pk, sk x448.Key
		copy(sk[:], expand(seed, purpose, 0, x448.Size))
		x448.KeyGen(&pk, &sk)
		pub = &MontgomeryKey{material: material{raw: bytes.Clone(pk[:])}, Scheme: X448}
		priv = &MontgomeryKey{material: material{private: true, raw: bytes.Clone(sk[:])}, Scheme: X448}
		return pub, priv, nil

	case FamilyEdwards:
		if a.name == string(Ed25519) {
			s := expand(seed, purpose, 0, ed25519.SeedSize)
			pk := ed25519.NewKeyFromSeed(s).Public().(ed25519.PublicKey)
			pub = &EdwardsKey{material: material{raw: bytes.Clone(pk)}, Scheme: Ed25519}
			priv = &EdwardsKey{material: material{private: true, raw: s}, Scheme: Ed25519}
			return pub, priv, nil
		}
		s := expand(seed, purpose, 0, ed448.SeedSize)
		pk := ed448.NewKeyFromSeed(s).Public().(ed448.PublicKey)
		pub = &EdwardsKey{material: material{raw: bytes.Clone(pk)}, Scheme: Ed448}
		priv = &EdwardsKey{material: material{private: true, raw: s}, Scheme: Ed448}
		return pub, priv, nil

	case FamilyKEM:
		sch, err := kemScheme(a.name)
		if err != nil {
			return nil, nil, err
		}
		pk, sk := sch.DeriveKeyPair(expand(seed, purpose, 0, sch.SeedSize()))
		if pub, err = FromKEMPublicKey(pk); err != nil {
			return nil, nil, err
		}
		if priv, err = FromKEMPrivateKey(sk); err != nil {
			return nil, nil, err
		}
		return pub, priv, nil

	case FamilyLatticeSignature:
		sch, err := signScheme(a.name)
		if err != nil {
			return nil, nil, err
		}
		pk, sk := sch.DeriveKey(expand(seed, purpose, 0, sch.SeedSize()))
		if pub, err = FromCryptoKey(pk); err != nil {
			return nil, nil, err
		}
		if priv, err = FromCryptoKey(sk); err != nil {
			return nil, nil, err
		}
		return pub, priv, nil
	}
	return nil, nil, pqerr.New(pqerr.InvalidArgument, "KEY-005", fmt.Sprintf("keys: cannot derive %s keys", a.name))
}

func deriveEC(curve Curve, seed []byte, purpose string) (Key, Key, error) {
	c := ecdhCurve(curve)
	if c == nil {
		return nil, nil, pqerr.New(pqerr.InvalidArgument, "KEY-005", fmt.Sprintf("keys: cannot derive %s keys", curve))
	}
	size := scalarSize(curve)
	for i := uint32(0); i < maxScalarAttempts; i++ {
		scalar := expand(seed, purpose, i, size)
		if curve == CurveP521 {
			scalar[0] &= 0x01
		}
		sk, err := c.NewPrivateKey(scalar)
		if err != nil {
			// Zero or not below the group order; draw again.
			continue
		}
		return fromECDHPair(c, sk)
	}
	return nil, nil, pqerr.New(pqerr.Internal, "KEY-006", "keys: scalar derivation did not converge")
}

func fromECDHPair(c ecdh.Curve, sk *ecdh.PrivateKey) (Key, Key, error) {
	pub, err := fromECDH(c, sk.PublicKey().Bytes(), false)
	if err != nil {
		return nil, nil, err
	}
	priv, err := fromECDH(c, sk.Bytes(), true)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// Generate derives a key pair from a fresh seed read from rand.
func Generate(parameterSet string, rand io.Reader) (pub, priv Key, err error) {
	seed, err := DeriveRootSeed(rand)
	if err != nil {
		return nil, nil, err
	}
	return DeriveKeyPair(parameterSet, seed)
}

func scalarSize(c Curve) int {
	switch c {
	case CurveP256:
		return 32
	case CurveP384:
		return 48
	case CurveP521:
		return 66
	}
	return 0
}
