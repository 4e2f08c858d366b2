package hybrid

import (
	encoding_asn1 "encoding/asn1"
	"fmt"

	"xdao.co/pqasn/keys"
)

// Identity is a resolved hybrid key: two component keys of equal privacy and
// the identifier of their combination. An Identity built from an explicit
// identifier has no canonical name.
//
// Identity is immutable; accessors return copies where the underlying data
// is mutable.
type Identity struct {
	classical   keys.Key
	postQuantum keys.Key
	private     bool
	name        string
	algorithm   encoding_asn1.ObjectIdentifier
}

func (id *Identity) Classical() keys.Key   { return keys.Clone(id.classical) }
func (id *Identity) PostQuantum() keys.Key { return keys.Clone(id.postQuantum) }
func (id *Identity) IsPrivate() bool       { return id.private }

// CanonicalName returns the registry name (e.g. "p256_kyber512"), or false
// when the identity was built from an explicit identifier.
func (id *Identity) CanonicalName() (string, bool) {
	return id.name, id.name != ""
}

// Algorithm returns the identifier of the combination.
func (id *Identity) Algorithm() encoding_asn1.ObjectIdentifier {
	return append(encoding_asn1.ObjectIdentifier(nil), id.algorithm...)
}

// Identifier returns Algorithm in dotted-decimal form.
func (id *Identity) Identifier() string { return id.algorithm.String() }

// Equal compares privacy and both component keys. The name and identifier
// are not compared.
func (id *Identity) Equal(o *Identity) bool {
	if id == nil || o == nil {
		return id == o
	}
	return id.private == o.private &&
		id.classical.Equal(o.classical) &&
		id.postQuantum.Equal(o.postQuantum)
}

// Public returns the public identity with the same name and identifier.
func (id *Identity) Public() (*Identity, error) {
	if !id.private {
		return id, nil
	}
	c, err := id.classical.Public()
	if err != nil {
		return nil, err
	}
	pq, err := id.postQuantum.Public()
	if err != nil {
		return nil, err
	}
	return &Identity{classical: c, postQuantum: pq, name: id.name, algorithm: id.Algorithm()}, nil
}

func (id *Identity) String() string {
	vis := "public"
	if id.private {
		vis = "private"
	}
	if id.name == "" {
		return fmt.Sprintf("%s (%s %s+%s)", id.algorithm, vis, id.classical.ParameterSet(), id.postQuantum.ParameterSet())
	}
	return fmt.Sprintf("%s %s (%s)", id.name, id.algorithm, vis)
}
