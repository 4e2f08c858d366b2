package hybrid

import (
	"strings"

	"xdao.co/pqasn/keys"
)

// ClassicalMnemonic returns the short name of a classical key, e.g. "p256"
// or "ed448". Keys outside the catalog (P-224, RSA, post-quantum keys)
// yield false.
func ClassicalMnemonic(k keys.Key) (string, bool) {
	switch k := k.(type) {
	case *keys.ECKey:
		return classicalName(keys.FamilyNamedCurve, string(k.Curve))
	case *keys.MontgomeryKey:
		return classicalName(keys.FamilyMontgomery, string(k.Scheme))
	case *keys.EdwardsKey:
		return classicalName(keys.FamilyEdwards, string(k.Scheme))
	}
	return "", false
}

// PostQuantumMnemonic returns the short name of a post-quantum key, e.g.
// "kyber512", "mldsa65" or "sphincssha2128fsimple".
func PostQuantumMnemonic(k keys.Key) (string, bool) {
	switch k := k.(type) {
	case *keys.KEMKey:
		return postQuantumName(keys.FamilyKEM, k.Scheme)
	case *keys.LatticeSignatureKey:
		return postQuantumName(keys.FamilyLatticeSignature, k.Scheme)
	case *keys.SPHINCSKey:
		return postQuantumName(keys.FamilyHashSignature, k.Params)
	}
	return "", false
}

func classicalName(f keys.Family, parameterSet string) (string, bool) {
	switch f {
	case keys.FamilyNamedCurve:
		switch keys.Curve(parameterSet) {
		case keys.CurveP256:
			return "p256", true
		case keys.CurveP384:
			return "p384", true
		case keys.CurveP521:
			return "p521", true
		}
	case keys.FamilyMontgomery:
		switch keys.MontgomeryScheme(parameterSet) {
		case keys.X25519:
			return "x25519", true
		case keys.X448:
			return "x448", true
		}
	case keys.FamilyEdwards:
		switch keys.EdwardsScheme(parameterSet) {
		case keys.Ed25519:
			return "ed25519", true
		case keys.Ed448:
			return "ed448", true
		}
	}
	return "", false
}

func postQuantumName(f keys.Family, parameterSet string) (string, bool) {
	switch f {
	case keys.FamilyKEM:
		switch parameterSet {
		case "Kyber512":
			return "kyber512", true
		case "Kyber768":
			return "kyber768", true
		case "Kyber1024":
			return "kyber1024", true
		case "ML-KEM-512":
			return "mlkem512", true
		case "ML-KEM-768":
			return "mlkem768", true
		case "ML-KEM-1024":
			return "mlkem1024", true
		}
	case keys.FamilyLatticeSignature:
		switch parameterSet {
		case "Dilithium2":
			return "dilithium2", true
		case "Dilithium3":
			return "dilithium3", true
		case "Dilithium5":
			return "dilithium5", true
		case "ML-DSA-44":
			return "mldsa44", true
		case "ML-DSA-65":
			return "mldsa65", true
		case "ML-DSA-87":
			return "mldsa87", true
		}
	case keys.FamilyHashSignature:
		if fam, ok := keys.AlgorithmFamily(parameterSet); ok && fam == keys.FamilyHashSignature {
			return strings.ReplaceAll(strings.ToLower(parameterSet), "-", ""), true
		}
	}
	return "", false
}

// parameterSets maps each mnemonic back to its keys ParameterSet name.
var parameterSets = func() map[string]string {
	m := make(map[string]string)
	for _, name := range keys.Algorithms() {
		f, _ := keys.AlgorithmFamily(name)
		if mn, ok := classicalName(f, name); ok {
			m[mn] = name
		}
		if mn, ok := postQuantumName(f, name); ok {
			m[mn] = name
		}
	}
	return m
}()

// ParameterSets splits a canonical name such as "p256_kyber512" into the
// ParameterSet names of its components ("P-256", "Kyber512"). It does not
// consult the registry.
func ParameterSets(name string) (classical, postQuantum string, ok bool) {
	c, pq, found := strings.Cut(name, "_")
	if !found {
		return "", "", false
	}
	classical, ok1 := parameterSets[c]
	postQuantum, ok2 := parameterSets[pq]
	if !ok1 || !ok2 {
		return "", "", false
	}
	if f, _ := keys.AlgorithmFamily(classical); f.PostQuantum() {
		return "", "", false
	}
	if f, _ := keys.AlgorithmFamily(postQuantum); !f.PostQuantum() {
		return "", "", false
	}
	return classical, postQuantum, true
}
