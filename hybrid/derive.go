package hybrid

import (
	"fmt"

	"xdao.co/pqasn/keys"
	"xdao.co/pqasn/pqerr"
)

// DeriveIdentity deterministically derives both component keys of the named
// combination from seed and resolves them. The registry in opts must know
// the name.
func DeriveIdentity(seed []byte, name string, private bool, opts ...Option) (*Identity, error) {
	classical, postQuantum, ok := ParameterSets(name)
	if !ok {
		return nil, pqerr.New(pqerr.UnknownAlgorithm, "HYB-003", fmt.Sprintf("hybrid: %q does not name a classical and post-quantum pair", name))
	}
	cPub, cPriv, err := keys.DeriveKeyPair(classical, seed)
	if err != nil {
		return nil, err
	}
	pqPub, pqPriv, err := keys.DeriveKeyPair(postQuantum, seed)
	if err != nil {
		return nil, err
	}
	if private {
		return Resolve(cPriv, pqPriv, opts...)
	}
	return Resolve(cPub, pqPub, opts...)
}
