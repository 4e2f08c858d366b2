package ocsp

import (
	encoding_asn1 "encoding/asn1"
	"fmt"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

// ResponseStatus is OCSPResponseStatus.
type ResponseStatus int

const (
	Successful       ResponseStatus = 0
	MalformedRequest ResponseStatus = 1
	InternalError    ResponseStatus = 2
	TryLater         ResponseStatus = 3
	SigRequired      ResponseStatus = 5
	Unauthorized     ResponseStatus = 6
)

func (s ResponseStatus) String() string {
	switch s {
	case Successful:
		return "successful"
	case MalformedRequest:
		return "malformedRequest"
	case InternalError:
		return "internalError"
	case TryLater:
		return "tryLater"
	case SigRequired:
		return "sigRequired"
	case Unauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("ResponseStatus(%d)", int(s))
	}
}

func (s ResponseStatus) valid() bool {
	switch s {
	case Successful, MalformedRequest, InternalError, TryLater, SigRequired, Unauthorized:
		return true
	}
	return false
}

// Response is
//
//	OCSPResponse ::= SEQUENCE {
//	    responseStatus  OCSPResponseStatus,
//	    responseBytes   [0] EXPLICIT ResponseBytes OPTIONAL }
//
// Only a successful response carries ResponseBytes.
type Response struct {
	Status ResponseStatus
	Bytes  *ResponseBytes
}

// ResponseBytes is
//
//	ResponseBytes ::= SEQUENCE {
//	    responseType  OBJECT IDENTIFIER,
//	    response      OCTET STRING }
type ResponseBytes struct {
	ResponseType encoding_asn1.ObjectIdentifier
	Response     []byte
}

// NewResponse builds a response. A payload with a non-successful status is
// rejected.
func NewResponse(status ResponseStatus, rb *ResponseBytes) (*Response, error) {
	if !status.valid() {
		return nil, pqerr.New(pqerr.InvalidArgument, ruleStatus, fmt.Sprintf("ocsp: unknown response status %d", int(status)))
	}
	if rb != nil && status != Successful {
		return nil, pqerr.New(pqerr.InvalidArgument, rulePayload, fmt.Sprintf("ocsp: %s response cannot carry responseBytes", status))
	}
	return &Response{Status: status, Bytes: rb}, nil
}

// ParseResponse decodes an OCSPResponse.
func ParseResponse(b []byte, opts ...Option) (*Response, error) {
	v, err := decode(b, opts)
	if err != nil {
		return nil, err
	}
	return parseResponse(v)
}

func parseResponse(v der.Value) (*Response, error) {
	c, err := open(v, "OCSPResponse")
	if err != nil {
		return nil, err
	}
	sv, err := c.universal(der.TagEnumerated, "responseStatus")
	if err != nil {
		return nil, err
	}
	n, err := sv.Enum()
	if err != nil {
		return nil, err
	}
	resp := &Response{Status: ResponseStatus(n)}
	if !resp.Status.valid() {
		return nil, schemaErr(ruleStatus, fmt.Sprintf("unknown response status %d", n))
	}
	inner, ok, err := c.explicit(0, "responseBytes")
	if err != nil {
		return nil, err
	}
	if ok {
		if resp.Status != Successful {
			return nil, schemaErr(rulePayload, fmt.Sprintf("%s response carries responseBytes", resp.Status))
		}
		rb, err := ParseResponseBytes(inner)
		if err != nil {
			return nil, err
		}
		resp.Bytes = &rb
	}
	return resp, c.end()
}

// DER encodes the response, omitting responseBytes when nil.
func (r *Response) DER() (der.Value, error) {
	fields := []der.Value{der.Enumerated(int64(r.Status))}
	if r.Bytes != nil {
		rb, err := r.Bytes.DER()
		if err != nil {
			return der.Value{}, err
		}
		fields = append(fields, der.Explicit(0, rb))
	}
	return der.Sequence(fields...), nil
}

// Marshal returns the DER encoding of the response.
func (r *Response) Marshal() ([]byte, error) {
	v, err := r.DER()
	if err != nil {
		return nil, err
	}
	return der.Encode(v)
}

// ParseResponseBytes reads a ResponseBytes.
func ParseResponseBytes(v der.Value) (ResponseBytes, error) {
	var rb ResponseBytes
	c, err := open(v, "ResponseBytes")
	if err != nil {
		return rb, err
	}
	t, err := c.universal(der.TagOID, "responseType")
	if err != nil {
		return rb, err
	}
	if rb.ResponseType, err = t.OID(); err != nil {
		return rb, err
	}
	payload, err := c.next("response")
	if err != nil {
		return rb, err
	}
	if rb.Response, err = readOctets(payload, "ResponseBytes response"); err != nil {
		return rb, err
	}
	return rb, c.end()
}

// DER encodes the ResponseBytes.
func (rb ResponseBytes) DER() (der.Value, error) {
	t, err := der.ObjectIdentifier(rb.ResponseType)
	if err != nil {
		return der.Value{}, err
	}
	return der.Sequence(t, der.OctetString(rb.Response)), nil
}

// Basic decodes the nested BasicOCSPResponse. The response type must be
// id-pkix-ocsp-basic.
func (rb ResponseBytes) Basic(opts ...Option) (*BasicResponse, error) {
	if !rb.ResponseType.Equal(OIDBasicResponse) {
		return nil, schemaErr(ruleResponseType, fmt.Sprintf("response type %s is not id-pkix-ocsp-basic", rb.ResponseType))
	}
	return ParseBasicResponse(rb.Response, opts...)
}

// NewBasicResponseBytes encodes br and wraps it as an id-pkix-ocsp-basic
// payload.
func NewBasicResponseBytes(br *BasicResponse) (*ResponseBytes, error) {
	b, err := br.Marshal()
	if err != nil {
		return nil, err
	}
	return &ResponseBytes{ResponseType: append(encoding_asn1.ObjectIdentifier(nil), OIDBasicResponse...), Response: b}, nil
}

// Rederive decodes a response, decodes its nested BasicOCSPResponse, applies
// mutate (which may be nil) and re-encodes both layers. With a nil or no-op
// mutate the output equals the input.
func Rederive(b []byte, mutate func(*BasicResponse) error, opts ...Option) ([]byte, error) {
	resp, err := ParseResponse(b, opts...)
	if err != nil {
		return nil, err
	}
	if resp.Bytes == nil {
		return nil, schemaErr(rulePayload, fmt.Sprintf("%s response has no payload", resp.Status))
	}
	basic, err := resp.Bytes.Basic(opts...)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		if err := mutate(basic); err != nil {
			return nil, err
		}
	}
	rb, err := NewBasicResponseBytes(basic)
	if err != nil {
		return nil, err
	}
	rb.ResponseType = resp.Bytes.ResponseType
	out, err := NewResponse(resp.Status, rb)
	if err != nil {
		return nil, err
	}
	return out.Marshal()
}
