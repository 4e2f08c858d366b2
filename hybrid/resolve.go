package hybrid

import (
	"fmt"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/keys"
	"xdao.co/pqasn/pqerr"
)

// Resolve maps a classical and a post-quantum key to their hybrid identity.
//
// Failures, in the order they are checked:
//   - HYB-004 (InvalidArgument): either key is nil, or an explicit identifier
//     is not a valid OBJECT IDENTIFIER.
//   - HYB-001 (MismatchedKeyType): one key is private and the other public.
//   - HYB-002 (UnsupportedCombination): a key is outside the classification catalog.
//   - HYB-003 (UnknownAlgorithm): the joined name is not registered.
//
// With WithIdentifier, only the first two checks apply.
func Resolve(classical, postQuantum keys.Key, opts ...Option) (*Identity, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return ResolveWithOptions(classical, postQuantum, o)
}

// ResolveWithOptions is Resolve with an explicit Options value.
func ResolveWithOptions(classical, postQuantum keys.Key, opts Options) (*Identity, error) {
	opts = opts.withDefaults()
	if keys.IsNil(classical) || keys.IsNil(postQuantum) {
		return nil, pqerr.New(pqerr.InvalidArgument, "HYB-004", "hybrid: classical and post-quantum keys are required")
	}
	if opts.HasIdentifier {
		if _, err := der.ObjectIdentifier(opts.Identifier); err != nil {
			return nil, pqerr.Wrap(pqerr.InvalidArgument, "HYB-004",
				fmt.Sprintf("hybrid: explicit identifier %v is not a valid OBJECT IDENTIFIER", opts.Identifier), err)
		}
	}
	if classical.IsPrivate() != postQuantum.IsPrivate() {
		return nil, pqerr.New(pqerr.MismatchedKeyType, "HYB-001",
			fmt.Sprintf("hybrid: %s key is %s but %s key is %s",
				classical.ParameterSet(), visibility(classical), postQuantum.ParameterSet(), visibility(postQuantum)))
	}

	id := &Identity{classical: keys.Clone(classical), postQuantum: keys.Clone(postQuantum), private: classical.IsPrivate()}
	if opts.HasIdentifier {
		id.algorithm = append(id.algorithm, opts.Identifier...)
		return id, nil
	}

	c, ok := ClassicalMnemonic(classical)
	if !ok {
		return nil, unsupported("classical", classical)
	}
	pq, ok := PostQuantumMnemonic(postQuantum)
	if !ok {
		return nil, unsupported("post-quantum", postQuantum)
	}
	name := c + "_" + pq
	oid, err := opts.Registry.NameToOID(name)
	if err != nil {
		return nil, pqerr.Wrap(pqerr.UnknownAlgorithm, "HYB-003", fmt.Sprintf("hybrid: combination %s is not registered", name), err)
	}
	id.name = name
	id.algorithm = oid
	return id, nil
}

func unsupported(role string, k keys.Key) error {
	return pqerr.New(pqerr.UnsupportedCombination, "HYB-002",
		fmt.Sprintf("hybrid: %s %s key (%s) is not a supported %s component", k.Family(), k.ParameterSet(), visibility(k), role))
}

func visibility(k keys.Key) string {
	if k.IsPrivate() {
		return "private"
	}
	return "public"
}
