package hybrid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/pqasn/keys"
)

func TestParameterSets(t *testing.T) {
	cases := []struct {
		name, classical, postQuantum string
	}{
		{"p256_kyber512", "P-256", "Kyber512"},
		{"x448_mlkem768", "X448", "ML-KEM-768"},
		{"ed448_mldsa87", "Ed448", "ML-DSA-87"},
		{"p521_dilithium5", "P-521", "Dilithium5"},
		{"p256_sphincssha2128fsimple", "P-256", "sphincs-sha2-128f-simple"},
		{"p521_sphincsshake256ssimple", "P-521", "sphincs-shake-256s-simple"},
	}
	for _, tc := range cases {
		c, pq, ok := ParameterSets(tc.name)
		require.True(t, ok, tc.name)
		require.Equal(t, tc.classical, c)
		require.Equal(t, tc.postQuantum, pq)
	}

	for _, bad := range []string{"", "p256", "kyber512_p256", "p224_kyber512", "p256_p384", "p256_kyber512_x"} {
		_, _, ok := ParameterSets(bad)
		require.False(t, ok, bad)
	}
}

func TestMnemonics_RoleSpecific(t *testing.T) {
	ed448, ed448Priv := derive(t, "Ed448")
	for _, k := range []keys.Key{ed448, ed448Priv} {
		m, ok := ClassicalMnemonic(k)
		require.True(t, ok)
		require.Equal(t, "ed448", m)
		_, ok = PostQuantumMnemonic(k)
		require.False(t, ok)
	}

	kem, _ := derive(t, "ML-KEM-512")
	m, ok := PostQuantumMnemonic(kem)
	require.True(t, ok)
	require.Equal(t, "mlkem512", m)
	_, ok = ClassicalMnemonic(kem)
	require.False(t, ok)

	sphincs, _ := sphincsPair(t, "SPHINCS-SHAKE-192f-robust")
	m, ok = PostQuantumMnemonic(sphincs)
	require.True(t, ok)
	require.Equal(t, "sphincsshake192frobust", m)

	_, ok = ClassicalMnemonic(nil)
	require.False(t, ok)
}
