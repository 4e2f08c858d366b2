// Package keys models the asymmetric key objects that hybrid identities are
// built from.
//
// Key is a closed sum type: ECKey, MontgomeryKey, EdwardsKey, KEMKey,
// LatticeSignatureKey, SPHINCSKey and OpaqueKey are its only variants. Each
// variant carries its parameter set, a privacy flag and its raw encoded key
// bytes. Primitive operations are provided by crypto/ecdh, crypto/ed25519 and
// github.com/cloudflare/circl; this package only wraps their key objects.
//
// API stability:
//
// Stable:
//   - The Key variants, FromCryptoKey and the deterministic derivation
//     functions (DeriveRootSeed, DeriveHybridSeed, DeriveKeyPair).
//
// Experimental:
//   - Filesystem-backed seed storage (KeyStore). It is a local-first
//     convenience and not part of the identity contract.
package keys
