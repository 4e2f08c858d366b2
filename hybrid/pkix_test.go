package hybrid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

func TestPublicKey_RoundTrip(t *testing.T) {
	for _, name := range []string{"p256_kyber512", "x25519_mlkem768", "ed448_mldsa87", "p384_dilithium3"} {
		id, err := DeriveIdentity(testSeed(), name, false)
		require.NoError(t, err, name)

		b, err := MarshalPublicKey(id)
		require.NoError(t, err)
		canon, err := der.Canonicalize(b)
		require.NoError(t, err)
		require.True(t, bytes.Equal(b, canon))

		back, err := ParsePublicKey(b)
		require.NoError(t, err)
		require.True(t, back.Equal(id))
		require.Equal(t, id.Identifier(), back.Identifier())
		got, _ := back.CanonicalName()
		require.Equal(t, name, got)
	}
}

func TestPublicKey_LegacyIdentifierKept(t *testing.T) {
	id, err := DeriveIdentity(testSeed(), "p256_mldsa44", false)
	require.NoError(t, err)
	require.Equal(t, "2.16.840.1.114027.80.8.1.4", id.Identifier())

	legacy, err := Resolve(id.Classical(), id.PostQuantum(), WithIdentifier(der.MustParseOID("1.3.9999.7.1")))
	require.NoError(t, err)
	b, err := MarshalPublicKey(legacy)
	require.NoError(t, err)

	back, err := ParsePublicKey(b)
	require.NoError(t, err)
	require.Equal(t, "1.3.9999.7.1", back.Identifier())
	name, ok := back.CanonicalName()
	require.True(t, ok)
	require.Equal(t, "p256_mldsa44", name)
}

func TestPublicKey_Rejections(t *testing.T) {
	priv, err := DeriveIdentity(testSeed(), "p256_kyber512", true)
	require.NoError(t, err)
	_, err = MarshalPublicKey(priv)
	require.Equal(t, "HYB-006", pqerr.RuleID(err))

	pub, err := priv.Public()
	require.NoError(t, err)
	unregistered, err := Resolve(pub.Classical(), pub.PostQuantum(), WithIdentifier(der.MustParseOID("1.2.3.4")))
	require.NoError(t, err)
	b, err := MarshalPublicKey(unregistered)
	require.NoError(t, err)
	_, err = ParsePublicKey(b)
	require.True(t, pqerr.IsKind(err, pqerr.UnknownAlgorithm))

	notSPKI := der.MustEncode(der.Sequence(der.Int64(1)))
	_, err = ParsePublicKey(notSPKI)
	require.True(t, pqerr.IsKind(err, pqerr.Decoding))
}

func TestDeriveIdentity(t *testing.T) {
	a, err := DeriveIdentity(testSeed(), "x25519_kyber768", true)
	require.NoError(t, err)
	b, err := DeriveIdentity(testSeed(), "x25519_kyber768", true)
	require.NoError(t, err)
	require.True(t, a.Equal(b))
	require.True(t, a.IsPrivate())

	_, err = DeriveIdentity(testSeed(), "p224_kyber512", false)
	require.True(t, pqerr.IsKind(err, pqerr.UnknownAlgorithm))

	_, err = DeriveIdentity(testSeed(), "p256_sphincssha2128fsimple", false)
	require.Equal(t, "KEY-005", pqerr.RuleID(err))
}
