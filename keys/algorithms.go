package keys

import (
	"sort"
	"strings"
)

type algorithm struct {
	name   string // canonical ParameterSet
	family Family
}

var latticeKEMs = []string{"Kyber512", "Kyber768", "Kyber1024", "ML-KEM-512", "ML-KEM-768", "ML-KEM-1024"}

var latticeSignatures = []string{"Dilithium2", "Dilithium3", "Dilithium5", "ML-DSA-44", "ML-DSA-65", "ML-DSA-87"}

// sphincsParams maps every SPHINCS+ parameter set to its security parameter n.
var sphincsParams = map[string]int{}

func init() {
	for _, hash := range []string{"sha2", "shake"} {
		for _, level := range []struct {
			bits string
			n    int
		}{{"128", 16}, {"192", 24}, {"256", 32}} {
			for _, speed := range []string{"f", "s"} {
				for _, variant := range []string{"simple", "robust"} {
					sphincsParams["sphincs-"+hash+"-"+level.bits+speed+"-"+variant] = level.n
				}
			}
		}
	}
	for _, a := range catalogAlgorithms() {
		algorithms[strings.ToLower(a.name)] = a
	}
}

var algorithms = map[string]algorithm{}

func catalogAlgorithms() []algorithm {
	out := []algorithm{
		{string(CurveP224), FamilyNamedCurve},
		{string(CurveP256), FamilyNamedCurve},
		{string(CurveP384), FamilyNamedCurve},
		{string(CurveP521), FamilyNamedCurve},
		{string(X25519), FamilyMontgomery},
		{string(X448), FamilyMontgomery},
		{string(Ed25519), FamilyEdwards},
		{string(Ed448), FamilyEdwards},
	}
	for _, name := range latticeKEMs {
		out = append(out, algorithm{name, FamilyKEM})
	}
	for _, name := range latticeSignatures {
		out = append(out, algorithm{name, FamilyLatticeSignature})
	}
	for name := range sphincsParams {
		out = append(out, algorithm{name, FamilyHashSignature})
	}
	return out
}

func lookupAlgorithm(name string) (algorithm, bool) {
	a, ok := algorithms[strings.ToLower(name)]
	return a, ok
}

// Algorithms returns every supported ParameterSet name, sorted.
func Algorithms() []string {
	out := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		out = append(out, a.name)
	}
	sort.Strings(out)
	return out
}

// AlgorithmFamily returns the family of a ParameterSet name.
func AlgorithmFamily(name string) (Family, bool) {
	a, ok := lookupAlgorithm(name)
	return a.family, ok
}

func isLatticeKEM(name string) bool {
	for _, n := range latticeKEMs {
		if n == name {
			return true
		}
	}
	return false
}

func isLatticeSignature(name string) bool {
	for _, n := range latticeSignatures {
		if n == name {
			return true
		}
	}
	return false
}

func sphincsN(params string) (int, bool) {
	n, ok := sphincsParams[strings.ToLower(params)]
	return n, ok
}
