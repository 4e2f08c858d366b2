package ocsp

import (
	encoding_asn1 "encoding/asn1"

	"xdao.co/pqasn/der"
)

// Request is
//
//	OCSPRequest ::= SEQUENCE {
//	    tbsRequest         TBSRequest,
//	    optionalSignature  [0] EXPLICIT Signature OPTIONAL }
//
// A nil Signature is an unsigned request.
type Request struct {
	TBSRequest TBSRequest
	Signature  *Signature
}

// TBSRequest is
//
//	TBSRequest ::= SEQUENCE {
//	    version            [0] EXPLICIT Version DEFAULT v1,
//	    requestorName      [1] EXPLICIT GeneralName OPTIONAL,
//	    requestList        SEQUENCE OF Request,
//	    requestExtensions  [2] EXPLICIT Extensions OPTIONAL }
//
// Version 0 is v1 and is omitted from the encoding.
type TBSRequest struct {
	Version       int
	RequestorName *der.Value
	RequestList   []SingleRequest
	Extensions    Extensions
}

// SingleRequest is the Request element of requestList.
//
//	Request ::= SEQUENCE {
//	    reqCert                  CertID,
//	    singleRequestExtensions  [0] EXPLICIT Extensions OPTIONAL }
type SingleRequest struct {
	CertID     CertID
	Extensions Extensions
}

// Signature is
//
//	Signature ::= SEQUENCE {
//	    signatureAlgorithm  AlgorithmIdentifier,
//	    signature           BIT STRING,
//	    certs               [0] EXPLICIT SEQUENCE OF Certificate OPTIONAL }
//
// A nil Certs is absent.
type Signature struct {
	Algorithm der.AlgorithmIdentifier
	Signature encoding_asn1.BitString
	Certs     []der.Value
}

// ParseRequest decodes an OCSPRequest.
func ParseRequest(b []byte, opts ...Option) (*Request, error) {
	v, err := decode(b, opts)
	if err != nil {
		return nil, err
	}
	return parseRequest(v)
}

func parseRequest(v der.Value) (*Request, error) {
	c, err := open(v, "OCSPRequest")
	if err != nil {
		return nil, err
	}
	tbs, err := c.next("tbsRequest")
	if err != nil {
		return nil, err
	}
	req := &Request{}
	if req.TBSRequest, err = ParseTBSRequest(tbs); err != nil {
		return nil, err
	}
	sig, ok, err := c.explicit(0, "optionalSignature")
	if err != nil {
		return nil, err
	}
	if ok {
		s, err := ParseSignature(sig)
		if err != nil {
			return nil, err
		}
		req.Signature = &s
	}
	return req, c.end()
}

// DER encodes the request.
func (r *Request) DER() (der.Value, error) {
	tbs, err := r.TBSRequest.DER()
	if err != nil {
		return der.Value{}, err
	}
	fields := []der.Value{tbs}
	if r.Signature != nil {
		sig, err := r.Signature.DER()
		if err != nil {
			return der.Value{}, err
		}
		fields = append(fields, der.Explicit(0, sig))
	}
	return der.Sequence(fields...), nil
}

// Marshal returns the DER encoding of the request.
func (r *Request) Marshal() ([]byte, error) {
	v, err := r.DER()
	if err != nil {
		return nil, err
	}
	return der.Encode(v)
}

// ParseTBSRequest reads a TBSRequest.
func ParseTBSRequest(v der.Value) (TBSRequest, error) {
	var tbs TBSRequest
	c, err := open(v, "TBSRequest")
	if err != nil {
		return tbs, err
	}
	if tbs.Version, err = c.version(); err != nil {
		return tbs, err
	}
	name, ok, err := c.explicit(1, "requestorName")
	if err != nil {
		return tbs, err
	}
	if ok {
		tbs.RequestorName = &name
	}
	list, err := c.next("requestList")
	if err != nil {
		return tbs, err
	}
	if tbs.RequestList, err = sequenceOf(list, "requestList", ParseSingleRequest); err != nil {
		return tbs, err
	}
	if tbs.Extensions, err = c.extensions(2); err != nil {
		return tbs, err
	}
	return tbs, c.end()
}

// DER encodes the TBSRequest.
func (t TBSRequest) DER() (der.Value, error) {
	fields := appendVersion(nil, t.Version)
	if t.RequestorName != nil {
		fields = append(fields, der.Explicit(1, *t.RequestorName))
	}
	list, err := valuesOf(t.RequestList, SingleRequest.DER)
	if err != nil {
		return der.Value{}, err
	}
	fields = append(fields, list)
	if fields, err = appendExtensions(fields, 2, t.Extensions); err != nil {
		return der.Value{}, err
	}
	return der.Sequence(fields...), nil
}

// ParseSingleRequest reads one requestList element.
func ParseSingleRequest(v der.Value) (SingleRequest, error) {
	var r SingleRequest
	c, err := open(v, "Request")
	if err != nil {
		return r, err
	}
	id, err := c.next("reqCert")
	if err != nil {
		return r, err
	}
	if r.CertID, err = ParseCertID(id); err != nil {
		return r, err
	}
	if r.Extensions, err = c.extensions(0); err != nil {
		return r, err
	}
	return r, c.end()
}

// DER encodes the request element.
func (r SingleRequest) DER() (der.Value, error) {
	id, err := r.CertID.DER()
	if err != nil {
		return der.Value{}, err
	}
	return encodeSequence([]der.Value{id}, 0, r.Extensions)
}

// ParseSignature reads a Signature.
func ParseSignature(v der.Value) (Signature, error) {
	var s Signature
	c, err := open(v, "Signature")
	if err != nil {
		return s, err
	}
	alg, err := c.universal(der.TagSequence, "signatureAlgorithm")
	if err != nil {
		return s, err
	}
	if s.Algorithm, err = der.ParseAlgorithmIdentifier(alg); err != nil {
		return s, err
	}
	bits, err := c.next("signature")
	if err != nil {
		return s, err
	}
	if s.Signature, err = readBitString(bits, "Signature signature"); err != nil {
		return s, err
	}
	certs, ok, err := c.explicit(0, "certs")
	if err != nil {
		return s, err
	}
	if ok {
		if s.Certs, err = readCerts(certs); err != nil {
			return s, err
		}
	}
	return s, c.end()
}

// DER encodes the Signature.
func (s Signature) DER() (der.Value, error) {
	return signedFields(s.Algorithm, s.Signature, s.Certs, nil)
}

// signedFields builds the trailing signatureAlgorithm, signature and
// optional [0] certs fields shared by Signature and BasicOCSPResponse,
// prefixed by lead.
func signedFields(alg der.AlgorithmIdentifier, sig encoding_asn1.BitString, certs []der.Value, lead []der.Value) (der.Value, error) {
	a, err := alg.Value()
	if err != nil {
		return der.Value{}, err
	}
	bits, err := der.BitString(sig)
	if err != nil {
		return der.Value{}, err
	}
	fields := append(lead, a, bits)
	if certs != nil {
		fields = append(fields, der.Explicit(0, der.Sequence(certs...)))
	}
	return der.Sequence(fields...), nil
}

func encodeSequence(fields []der.Value, n uint32, e Extensions) (der.Value, error) {
	fields, err := appendExtensions(fields, n, e)
	if err != nil {
		return der.Value{}, err
	}
	return der.Sequence(fields...), nil
}
