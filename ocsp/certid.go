package ocsp

import (
	"math/big"

	"xdao.co/pqasn/der"
)

// CertID is
//
//	CertID ::= SEQUENCE {
//	    hashAlgorithm   AlgorithmIdentifier,
//	    issuerNameHash  OCTET STRING,
//	    issuerKeyHash   OCTET STRING,
//	    serialNumber    CertificateSerialNumber }
type CertID struct {
	HashAlgorithm  der.AlgorithmIdentifier
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

// ParseCertID reads a CertID.
func ParseCertID(v der.Value) (CertID, error) {
	var id CertID
	c, err := open(v, "CertID")
	if err != nil {
		return id, err
	}
	alg, err := c.universal(der.TagSequence, "hashAlgorithm")
	if err != nil {
		return id, err
	}
	if id.HashAlgorithm, err = der.ParseAlgorithmIdentifier(alg); err != nil {
		return id, err
	}
	f, err := c.next("issuerNameHash")
	if err != nil {
		return id, err
	}
	if id.IssuerNameHash, err = readOctets(f, "CertID issuerNameHash"); err != nil {
		return id, err
	}
	if f, err = c.next("issuerKeyHash"); err != nil {
		return id, err
	}
	if id.IssuerKeyHash, err = readOctets(f, "CertID issuerKeyHash"); err != nil {
		return id, err
	}
	serial, err := c.universal(der.TagInteger, "serialNumber")
	if err != nil {
		return id, err
	}
	if id.SerialNumber, err = serial.Int(); err != nil {
		return id, err
	}
	return id, c.end()
}

// DER encodes the CertID.
func (id CertID) DER() (der.Value, error) {
	alg, err := id.HashAlgorithm.Value()
	if err != nil {
		return der.Value{}, err
	}
	return der.Sequence(
		alg,
		der.OctetString(id.IssuerNameHash),
		der.OctetString(id.IssuerKeyHash),
		der.Integer(id.SerialNumber),
	), nil
}

// Equal compares every field.
func (id CertID) Equal(o CertID) bool {
	a, err1 := id.DER()
	b, err2 := o.DER()
	return err1 == nil && err2 == nil && a.Equal(b)
}
