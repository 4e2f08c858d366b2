// Package hybrid resolves a pair of keys (one classical, one post-quantum)
// to the registered identity of their hybrid combination.
//
// Resolution is a closed-world match: a key classifies only if its variant
// and parameter set appear in classify.go, and a classified pair resolves
// only if the joined name is in the registry. Both tables must be extended
// together.
package hybrid
