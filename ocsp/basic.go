package ocsp

import (
	encoding_asn1 "encoding/asn1"
	"fmt"
	"time"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

// BasicResponse is
//
//	BasicOCSPResponse ::= SEQUENCE {
//	    tbsResponseData     ResponseData,
//	    signatureAlgorithm  AlgorithmIdentifier,
//	    signature           BIT STRING,
//	    certs               [0] EXPLICIT SEQUENCE OF Certificate OPTIONAL }
type BasicResponse struct {
	ResponseData       ResponseData
	SignatureAlgorithm der.AlgorithmIdentifier
	Signature          encoding_asn1.BitString
	Certs              []der.Value
}

// ResponseData is
//
//	ResponseData ::= SEQUENCE {
//	    version             [0] EXPLICIT Version DEFAULT v1,
//	    responderID         ResponderID,
//	    producedAt          GeneralizedTime,
//	    responses           SEQUENCE OF SingleResponse,
//	    responseExtensions  [1] EXPLICIT Extensions OPTIONAL }
type ResponseData struct {
	Version     int
	ResponderID ResponderID
	ProducedAt  time.Time
	Responses   []SingleResponse
	Extensions  Extensions
}

// ResponderID is
//
//	ResponderID ::= CHOICE {
//	    byName  [1] Name,
//	    byKey   [2] KeyHash }
//
// Exactly one of ByName and ByKey is set.
type ResponderID struct {
	ByName *der.Value
	ByKey  []byte
}

// SingleResponse is
//
//	SingleResponse ::= SEQUENCE {
//	    certID            CertID,
//	    certStatus        CertStatus,
//	    thisUpdate        GeneralizedTime,
//	    nextUpdate        [0] EXPLICIT GeneralizedTime OPTIONAL,
//	    singleExtensions  [1] EXPLICIT Extensions OPTIONAL }
type SingleResponse struct {
	CertID     CertID
	Status     CertStatus
	ThisUpdate time.Time
	NextUpdate *time.Time
	Extensions Extensions
}

// StatusKind selects the CertStatus alternative.
type StatusKind int

const (
	Good StatusKind = iota
	Revoked
	Unknown
)

func (k StatusKind) String() string {
	switch k {
	case Good:
		return "good"
	case Revoked:
		return "revoked"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// CertStatus is
//
//	CertStatus ::= CHOICE {
//	    good     [0] IMPLICIT NULL,
//	    revoked  [1] IMPLICIT RevokedInfo,
//	    unknown  [2] IMPLICIT UnknownInfo }
//
// Revoked is set only when Kind is Revoked.
type CertStatus struct {
	Kind    StatusKind
	Revoked *RevokedInfo
}

// CRLReason is the RFC 5280 revocation reason code.
type CRLReason int

// RevokedInfo is
//
//	RevokedInfo ::= SEQUENCE {
//	    revocationTime    GeneralizedTime,
//	    revocationReason  [0] EXPLICIT CRLReason OPTIONAL }
type RevokedInfo struct {
	RevocationTime time.Time
	Reason         *CRLReason
}

// ParseBasicResponse decodes a BasicOCSPResponse.
func ParseBasicResponse(b []byte, opts ...Option) (*BasicResponse, error) {
	v, err := decode(b, opts)
	if err != nil {
		return nil, err
	}
	c, err := open(v, "BasicOCSPResponse")
	if err != nil {
		return nil, err
	}
	br := &BasicResponse{}
	tbs, err := c.next("tbsResponseData")
	if err != nil {
		return nil, err
	}
	if br.ResponseData, err = ParseResponseData(tbs); err != nil {
		return nil, err
	}
	alg, err := c.universal(der.TagSequence, "signatureAlgorithm")
	if err != nil {
		return nil, err
	}
	if br.SignatureAlgorithm, err = der.ParseAlgorithmIdentifier(alg); err != nil {
		return nil, err
	}
	sig, err := c.next("signature")
	if err != nil {
		return nil, err
	}
	if br.Signature, err = readBitString(sig, "BasicOCSPResponse signature"); err != nil {
		return nil, err
	}
	certs, ok, err := c.explicit(0, "certs")
	if err != nil {
		return nil, err
	}
	if ok {
		if br.Certs, err = readCerts(certs); err != nil {
			return nil, err
		}
	}
	return br, c.end()
}

// DER encodes the BasicOCSPResponse.
func (br *BasicResponse) DER() (der.Value, error) {
	tbs, err := br.ResponseData.DER()
	if err != nil {
		return der.Value{}, err
	}
	return signedFields(br.SignatureAlgorithm, br.Signature, br.Certs, []der.Value{tbs})
}

// Marshal returns the DER encoding of the BasicOCSPResponse.
func (br *BasicResponse) Marshal() ([]byte, error) {
	v, err := br.DER()
	if err != nil {
		return nil, err
	}
	return der.Encode(v)
}

// TBSBytes returns the DER encoding of tbsResponseData, the bytes a
// responder signs.
func (br *BasicResponse) TBSBytes() ([]byte, error) {
	v, err := br.ResponseData.DER()
	if err != nil {
		return nil, err
	}
	return der.Encode(v)
}

// ParseResponseData reads a ResponseData.
func ParseResponseData(v der.Value) (ResponseData, error) {
	var rd ResponseData
	c, err := open(v, "ResponseData")
	if err != nil {
		return rd, err
	}
	if rd.Version, err = c.version(); err != nil {
		return rd, err
	}
	rid, err := c.next("responderID")
	if err != nil {
		return rd, err
	}
	if rd.ResponderID, err = ParseResponderID(rid); err != nil {
		return rd, err
	}
	produced, err := c.next("producedAt")
	if err != nil {
		return rd, err
	}
	if rd.ProducedAt, err = readTime(produced, "ResponseData producedAt"); err != nil {
		return rd, err
	}
	list, err := c.next("responses")
	if err != nil {
		return rd, err
	}
	if rd.Responses, err = sequenceOf(list, "responses", ParseSingleResponse); err != nil {
		return rd, err
	}
	if rd.Extensions, err = c.extensions(1); err != nil {
		return rd, err
	}
	return rd, c.end()
}

// DER encodes the ResponseData.
func (rd ResponseData) DER() (der.Value, error) {
	fields := appendVersion(nil, rd.Version)
	rid, err := rd.ResponderID.DER()
	if err != nil {
		return der.Value{}, err
	}
	produced, err := der.GeneralizedTime(rd.ProducedAt)
	if err != nil {
		return der.Value{}, err
	}
	list, err := valuesOf(rd.Responses, SingleResponse.DER)
	if err != nil {
		return der.Value{}, err
	}
	return encodeSequence(append(fields, rid, produced, list), 1, rd.Extensions)
}

// ParseResponderID reads a ResponderID.
func ParseResponderID(v der.Value) (ResponderID, error) {
	var rid ResponderID
	tag := v.Tag()
	if tag.Class != der.ClassContextSpecific || !tag.Constructed || (tag.Number != 1 && tag.Number != 2) {
		return rid, schemaErr(ruleChoice, fmt.Sprintf("ResponderID: unexpected alternative %s", tag))
	}
	inner, err := v.Inner()
	if err != nil {
		return rid, err
	}
	if tag.Number == 1 {
		if !inner.Tag().IsUniversal(der.TagSequence) {
			return rid, schemaErr(ruleWrongType, "ResponderID byName must be a Name")
		}
		rid.ByName = &inner
		return rid, nil
	}
	rid.ByKey, err = readOctets(inner, "ResponderID byKey")
	return rid, err
}

// DER encodes the ResponderID.
func (rid ResponderID) DER() (der.Value, error) {
	switch {
	case rid.ByName != nil && rid.ByKey == nil:
		return der.Explicit(1, *rid.ByName), nil
	case rid.ByName == nil && rid.ByKey != nil:
		return der.Explicit(2, der.OctetString(rid.ByKey)), nil
	}
	return der.Value{}, pqerr.New(pqerr.Encoding, ruleChoice, "ocsp: ResponderID must set exactly one of ByName and ByKey")
}

// ParseSingleResponse reads a SingleResponse.
func ParseSingleResponse(v der.Value) (SingleResponse, error) {
	var sr SingleResponse
	c, err := open(v, "SingleResponse")
	if err != nil {
		return sr, err
	}
	id, err := c.next("certID")
	if err != nil {
		return sr, err
	}
	if sr.CertID, err = ParseCertID(id); err != nil {
		return sr, err
	}
	status, err := c.next("certStatus")
	if err != nil {
		return sr, err
	}
	if sr.Status, err = ParseCertStatus(status); err != nil {
		return sr, err
	}
	this, err := c.next("thisUpdate")
	if err != nil {
		return sr, err
	}
	if sr.ThisUpdate, err = readTime(this, "SingleResponse thisUpdate"); err != nil {
		return sr, err
	}
	next, ok, err := c.explicit(0, "nextUpdate")
	if err != nil {
		return sr, err
	}
	if ok {
		t, err := readTime(next, "SingleResponse nextUpdate")
		if err != nil {
			return sr, err
		}
		sr.NextUpdate = &t
	}
	if sr.Extensions, err = c.extensions(1); err != nil {
		return sr, err
	}
	return sr, c.end()
}

// DER encodes the SingleResponse.
func (sr SingleResponse) DER() (der.Value, error) {
	id, err := sr.CertID.DER()
	if err != nil {
		return der.Value{}, err
	}
	status, err := sr.Status.DER()
	if err != nil {
		return der.Value{}, err
	}
	this, err := der.GeneralizedTime(sr.ThisUpdate)
	if err != nil {
		return der.Value{}, err
	}
	fields := []der.Value{id, status, this}
	if sr.NextUpdate != nil {
		next, err := der.GeneralizedTime(*sr.NextUpdate)
		if err != nil {
			return der.Value{}, err
		}
		fields = append(fields, der.Explicit(0, next))
	}
	return encodeSequence(fields, 1, sr.Extensions)
}

// ParseCertStatus reads a CertStatus.
func ParseCertStatus(v der.Value) (CertStatus, error) {
	tag := v.Tag()
	if tag.Class != der.ClassContextSpecific {
		return CertStatus{}, schemaErr(ruleChoice, fmt.Sprintf("CertStatus: unexpected alternative %s", tag))
	}
	switch tag.Number {
	case 0, 2:
		if tag.Constructed {
			return CertStatus{}, schemaErr(ruleWrongType, "CertStatus: good and unknown must be primitive NULL")
		}
		content, err := v.Content()
		if err != nil {
			return CertStatus{}, err
		}
		if len(content) != 0 {
			return CertStatus{}, schemaErr(ruleWrongType, "CertStatus: good and unknown must be empty")
		}
		if tag.Number == 0 {
			return CertStatus{Kind: Good}, nil
		}
		return CertStatus{Kind: Unknown}, nil
	case 1:
		ri, err := ParseRevokedInfo(der.Retag(der.Universal(der.TagSequence), v))
		if err != nil {
			return CertStatus{}, err
		}
		return CertStatus{Kind: Revoked, Revoked: &ri}, nil
	}
	return CertStatus{}, schemaErr(ruleChoice, fmt.Sprintf("CertStatus: unexpected alternative %s", tag))
}

// DER encodes the CertStatus.
func (cs CertStatus) DER() (der.Value, error) {
	switch cs.Kind {
	case Good:
		return der.Implicit(0, der.Null()), nil
	case Unknown:
		return der.Implicit(2, der.Null()), nil
	case Revoked:
		if cs.Revoked == nil {
			return der.Value{}, pqerr.New(pqerr.Encoding, ruleChoice, "ocsp: revoked CertStatus without RevokedInfo")
		}
		ri, err := cs.Revoked.DER()
		if err != nil {
			return der.Value{}, err
		}
		return der.Implicit(1, ri), nil
	}
	return der.Value{}, pqerr.New(pqerr.Encoding, ruleChoice, fmt.Sprintf("ocsp: unknown CertStatus %s", cs.Kind))
}

// ParseRevokedInfo reads a RevokedInfo.
func ParseRevokedInfo(v der.Value) (RevokedInfo, error) {
	var ri RevokedInfo
	c, err := open(v, "RevokedInfo")
	if err != nil {
		return ri, err
	}
	t, err := c.next("revocationTime")
	if err != nil {
		return ri, err
	}
	if ri.RevocationTime, err = readTime(t, "RevokedInfo revocationTime"); err != nil {
		return ri, err
	}
	reason, ok, err := c.explicit(0, "revocationReason")
	if err != nil {
		return ri, err
	}
	if ok {
		if !reason.Tag().IsUniversal(der.TagEnumerated) {
			return ri, schemaErr(ruleWrongType, "RevokedInfo revocationReason must be ENUMERATED")
		}
		n, err := reason.Enum()
		if err != nil {
			return ri, err
		}
		r := CRLReason(n)
		ri.Reason = &r
	}
	return ri, c.end()
}

// DER encodes the RevokedInfo.
func (ri RevokedInfo) DER() (der.Value, error) {
	t, err := der.GeneralizedTime(ri.RevocationTime)
	if err != nil {
		return der.Value{}, err
	}
	fields := []der.Value{t}
	if ri.Reason != nil {
		fields = append(fields, der.Explicit(0, der.Enumerated(int64(*ri.Reason))))
	}
	return der.Sequence(fields...), nil
}
