package ocsp

import (
	"bytes"
	encoding_asn1 "encoding/asn1"
	"encoding/base64"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/der"
	"xdao.co/pqasn/pqerr"
)

func readVector(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "testdata", "conformance", "ocsp", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(raw)), ""))
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return b
}

func mustMarshal(t *testing.T, m interface{ Marshal() ([]byte, error) }) []byte {
	t.Helper()
	b, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func TestConformanceVectors_UnsignedRequest(t *testing.T) {
	b := readVector(t, "unsigned_request.b64")
	req, err := ParseRequest(b)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Signature != nil {
		t.Fatalf("unsigned request parsed with a signature")
	}
	if req.TBSRequest.Version != 0 || req.TBSRequest.RequestorName != nil || req.TBSRequest.Extensions != nil {
		t.Fatalf("unexpected optional fields: %+v", req.TBSRequest)
	}
	if len(req.TBSRequest.RequestList) != 1 {
		t.Fatalf("requestList=%d", len(req.TBSRequest.RequestList))
	}
	id := req.TBSRequest.RequestList[0].CertID
	if id.SerialNumber.Int64() != 1 || len(id.IssuerNameHash) != 20 || len(id.IssuerKeyHash) != 20 {
		t.Fatalf("CertID=%+v", id)
	}
	if id.HashAlgorithm.Algorithm.String() != "1.3.14.3.2.26" || id.HashAlgorithm.Parameters == nil {
		t.Fatalf("hashAlgorithm=%v", id.HashAlgorithm)
	}
	if got := mustMarshal(t, req); !bytes.Equal(got, b) {
		t.Fatalf("unsigned request did not re-encode byte-for-byte")
	}
}

func TestConformanceVectors_SignedRequest(t *testing.T) {
	b := readVector(t, "signed_request.b64")
	req, err := ParseRequest(b)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Signature == nil {
		t.Fatalf("signed request parsed without a signature")
	}
	if req.Signature.Algorithm.Algorithm.String() != "1.2.840.113549.1.1.5" {
		t.Fatalf("signatureAlgorithm=%v", req.Signature.Algorithm.Algorithm)
	}
	if req.Signature.Signature.BitLength != 1024 {
		t.Fatalf("signature bits=%d", req.Signature.Signature.BitLength)
	}
	if len(req.Signature.Certs) != 1 {
		t.Fatalf("certs=%d", len(req.Signature.Certs))
	}
	if got := mustMarshal(t, req); !bytes.Equal(got, b) {
		t.Fatalf("signed request did not re-encode byte-for-byte")
	}
}

func TestConformanceVectors_ResponseRederive(t *testing.T) {
	b := readVector(t, "response.b64")

	out, err := Rederive(b, nil)
	if err != nil {
		t.Fatalf("Rederive: %v", err)
	}
	if !bytes.Equal(out, b) {
		t.Fatalf("re-derived response differs from the original")
	}

	// The same layering, step by step.
	resp, err := ParseResponse(b)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Status != Successful || resp.Bytes == nil {
		t.Fatalf("status=%s bytes=%v", resp.Status, resp.Bytes != nil)
	}
	basic, err := resp.Bytes.Basic()
	if err != nil {
		t.Fatalf("Basic: %v", err)
	}
	rb, err := NewBasicResponseBytes(basic)
	if err != nil {
		t.Fatalf("NewBasicResponseBytes: %v", err)
	}
	if !bytes.Equal(rb.Response, resp.Bytes.Response) {
		t.Fatalf("nested payload did not re-encode byte-for-byte")
	}
	again, err := NewResponse(resp.Status, rb)
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}
	if got := mustMarshal(t, again); !bytes.Equal(got, b) {
		t.Fatalf("rewrapped response differs from the original")
	}
}

func TestConformanceVectors_ResponseFields(t *testing.T) {
	resp, err := ParseResponse(readVector(t, "response.b64"))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	basic, err := resp.Bytes.Basic()
	if err != nil {
		t.Fatalf("Basic: %v", err)
	}
	rd := basic.ResponseData
	if rd.ResponderID.ByName == nil || rd.ResponderID.ByKey != nil {
		t.Fatalf("responderID=%+v", rd.ResponderID)
	}
	if want := time.Date(2003, 4, 2, 12, 34, 58, 0, time.UTC); !rd.ProducedAt.Equal(want) {
		t.Fatalf("producedAt=%v", rd.ProducedAt)
	}
	if len(rd.Responses) != 1 {
		t.Fatalf("responses=%d", len(rd.Responses))
	}
	sr := rd.Responses[0]
	if sr.CertID.SerialNumber.Int64() != 2 {
		t.Fatalf("serial=%v", sr.CertID.SerialNumber)
	}
	if sr.Status.Kind != Revoked || sr.Status.Revoked == nil || sr.Status.Revoked.Reason != nil {
		t.Fatalf("status=%+v", sr.Status)
	}
	if want := time.Date(2002, 8, 29, 7, 9, 26, 0, time.UTC); !sr.Status.Revoked.RevocationTime.Equal(want) {
		t.Fatalf("revocationTime=%v", sr.Status.Revoked.RevocationTime)
	}
	if sr.NextUpdate != nil || sr.Extensions != nil {
		t.Fatalf("unexpected optional fields")
	}
	if len(basic.Certs) != 1 {
		t.Fatalf("certs=%d", len(basic.Certs))
	}
}

func TestRederive_Mutation(t *testing.T) {
	b := readVector(t, "response.b64")
	next := time.Date(2003, 4, 9, 12, 34, 58, 0, time.UTC)

	out, err := Rederive(b, func(br *BasicResponse) error {
		br.ResponseData.Responses[0].Status = CertStatus{Kind: Good}
		br.ResponseData.Responses[0].NextUpdate = &next
		return nil
	})
	if err != nil {
		t.Fatalf("Rederive: %v", err)
	}
	if bytes.Equal(out, b) {
		t.Fatalf("mutation had no effect")
	}
	if _, err := der.Canonicalize(out); err != nil {
		t.Fatalf("mutated response is not canonical: %v", err)
	}

	resp, err := ParseResponse(out)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	basic, err := resp.Bytes.Basic()
	if err != nil {
		t.Fatalf("Basic: %v", err)
	}
	sr := basic.ResponseData.Responses[0]
	if sr.Status.Kind != Good || sr.NextUpdate == nil || !sr.NextUpdate.Equal(next) {
		t.Fatalf("mutation not carried: %+v", sr)
	}

	stable, err := Rederive(out, nil)
	if err != nil || !bytes.Equal(stable, out) {
		t.Fatalf("re-deriving the mutated response changed it: %v", err)
	}
}

// withTBSFields rebuilds the unsigned vector with extra TBSRequest fields.
func withTBSFields(t *testing.T, before, after []der.Value) []byte {
	t.Helper()
	v, err := der.Decode(readVector(t, "unsigned_request.b64"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	top, _ := v.Children()
	fields, _ := top[0].Children()
	all := append(append(append([]der.Value{}, before...), fields...), after...)
	return der.MustEncode(der.Sequence(der.Sequence(all...)))
}

func TestParse_RejectsExplicitDefaults(t *testing.T) {
	explicitV1 := withTBSFields(t, []der.Value{der.Explicit(0, der.Int64(0))}, nil)
	if _, err := ParseRequest(explicitV1); pqerr.RuleID(err) != "OCSP-SCH-003" {
		t.Fatalf("explicit v1: %v", err)
	}

	criticalFalse := der.Sequence(der.Sequence(
		der.MustObjectIdentifier(OIDNonce),
		der.Boolean(false),
		der.OctetString([]byte{0x04, 0x01, 0x07}),
	))
	b := withTBSFields(t, nil, []der.Value{der.Explicit(2, criticalFalse)})
	if _, err := ParseRequest(b); pqerr.RuleID(err) != "OCSP-SCH-003" {
		t.Fatalf("critical FALSE: %v", err)
	}

	// A non-default version is kept and re-encoded.
	v2 := withTBSFields(t, []der.Value{der.Explicit(0, der.Int64(1))}, nil)
	req, err := ParseRequest(v2)
	if err != nil {
		t.Fatalf("ParseRequest(v2): %v", err)
	}
	if req.TBSRequest.Version != 1 {
		t.Fatalf("version=%d", req.TBSRequest.Version)
	}
	if got := mustMarshal(t, req); !bytes.Equal(got, v2) {
		t.Fatalf("v2 request did not round-trip")
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		rule string
	}{
		{"not a sequence", der.MustEncode(der.Int64(1)), "OCSP-SCH-001"},
		{"trailing TBSRequest field", withTBSFields(t, nil, []der.Value{der.Null()}), "OCSP-SCH-002"},
		{"empty request", der.MustEncode(der.Sequence()), "OCSP-SCH-002"},
		{"unknown status", der.MustEncode(der.Sequence(der.Enumerated(4))), "OCSP-SCH-005"},
		{"status as INTEGER", der.MustEncode(der.Sequence(der.Int64(0))), "OCSP-SCH-001"},
	}
	for _, tc := range cases {
		var err error
		if strings.Contains(tc.name, "status") {
			_, err = ParseResponse(tc.b)
		} else {
			_, err = ParseRequest(tc.b)
		}
		if !pqerr.IsKind(err, pqerr.Decoding) || pqerr.RuleID(err) != tc.rule {
			t.Fatalf("%s: got %v, want %s", tc.name, err, tc.rule)
		}
	}
}

func TestResponse_PayloadOnlyWhenSuccessful(t *testing.T) {
	rb := &ResponseBytes{ResponseType: OIDBasicResponse, Response: []byte{0x30, 0x00}}
	if _, err := NewResponse(TryLater, rb); !pqerr.IsKind(err, pqerr.InvalidArgument) || pqerr.RuleID(err) != "OCSP-SCH-004" {
		t.Fatalf("NewResponse(tryLater, payload): %v", err)
	}
	if _, err := NewResponse(ResponseStatus(4), nil); pqerr.RuleID(err) != "OCSP-SCH-005" {
		t.Fatalf("NewResponse(4): %v", err)
	}

	resp, err := NewResponse(TryLater, nil)
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}
	b := mustMarshal(t, resp)
	if want := []byte{0x30, 0x03, 0x0a, 0x01, 0x03}; !bytes.Equal(b, want) {
		t.Fatalf("tryLater encoding=%x", b)
	}
	back, err := ParseResponse(b)
	if err != nil || back.Status != TryLater || back.Bytes != nil {
		t.Fatalf("ParseResponse: %+v %v", back, err)
	}

	rbv, _ := rb.DER()
	bad := der.MustEncode(der.Sequence(der.Enumerated(int64(TryLater)), der.Explicit(0, rbv)))
	if _, err := ParseResponse(bad); !pqerr.IsKind(err, pqerr.Decoding) || pqerr.RuleID(err) != "OCSP-SCH-004" {
		t.Fatalf("ParseResponse(tryLater, payload): %v", err)
	}
	if _, err := Rederive(b, nil); pqerr.RuleID(err) != "OCSP-SCH-004" {
		t.Fatalf("Rederive(no payload): %v", err)
	}
}

func TestResponseBytes_BasicRequiresBasicType(t *testing.T) {
	rb := ResponseBytes{ResponseType: der.MustParseOID("1.2.3"), Response: []byte{0x30, 0x00}}
	if _, err := rb.Basic(); pqerr.RuleID(err) != "OCSP-SCH-006" {
		t.Fatalf("Basic: %v", err)
	}
}

func TestRequest_Nonce(t *testing.T) {
	base, err := ParseRequest(readVector(t, "unsigned_request.b64"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	nonce := []byte("0123456789abcdef")
	ext, err := NonceExtension(nonce)
	if err != nil {
		t.Fatalf("NonceExtension: %v", err)
	}
	base.TBSRequest.Extensions = Extensions{ext}

	b := mustMarshal(t, base)
	req, err := ParseRequest(b)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	got, ok, err := req.TBSRequest.Extensions.Nonce()
	if err != nil || !ok || !bytes.Equal(got, nonce) {
		t.Fatalf("Nonce=%x ok=%v err=%v", got, ok, err)
	}
	if _, ok := req.TBSRequest.Extensions.Find(OIDBasicResponse); ok {
		t.Fatalf("Find returned an absent extension")
	}
	if _, ok, _ := (Extensions(nil)).Nonce(); ok {
		t.Fatalf("nil extensions reported a nonce")
	}
}

func TestParse_PermissiveAcceptsBER(t *testing.T) {
	b := readVector(t, "unsigned_request.b64")
	// Re-frame the outer SEQUENCE with an indefinite length.
	ber := append([]byte{0x30, 0x80}, b[2:]...)
	ber = append(ber, 0x00, 0x00)

	if _, err := ParseRequest(ber); !pqerr.IsKind(err, pqerr.Decoding) {
		t.Fatalf("strict ParseRequest accepted BER: %v", err)
	}
	req, err := ParseRequest(ber, WithMode(compliance.Permissive))
	if err != nil {
		t.Fatalf("permissive ParseRequest: %v", err)
	}
	if got := mustMarshal(t, req); !bytes.Equal(got, b) {
		t.Fatalf("permissive parse did not re-encode to DER")
	}
}

func TestBasicResponse_BuildAndParse(t *testing.T) {
	produced := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	next := produced.Add(24 * time.Hour)
	reason := CRLReason(1)
	sha256 := der.AlgorithmIdentifier{Algorithm: der.MustParseOID("2.16.840.1.101.3.4.2.1")}
	id := func(serial int64) CertID {
		return CertID{
			HashAlgorithm:  sha256,
			IssuerNameHash: bytes.Repeat([]byte{1}, 32),
			IssuerKeyHash:  bytes.Repeat([]byte{2}, 32),
			SerialNumber:   big.NewInt(serial),
		}
	}
	nonce, err := NonceExtension([]byte{9, 9, 9})
	if err != nil {
		t.Fatalf("NonceExtension: %v", err)
	}
	critical := Extension{ID: der.MustParseOID("1.3.6.1.5.5.7.48.1.9"), Critical: true, Value: []byte{0x05, 0x00}}

	br := &BasicResponse{
		ResponseData: ResponseData{
			ResponderID: ResponderID{ByKey: bytes.Repeat([]byte{3}, 20)},
			ProducedAt:  produced,
			Responses: []SingleResponse{
				{CertID: id(10), Status: CertStatus{Kind: Good}, ThisUpdate: produced, NextUpdate: &next},
				{CertID: id(11), Status: CertStatus{Kind: Revoked, Revoked: &RevokedInfo{RevocationTime: produced.Add(-time.Hour), Reason: &reason}}, ThisUpdate: produced},
				{CertID: id(12), Status: CertStatus{Kind: Unknown}, ThisUpdate: produced, Extensions: Extensions{critical}},
			},
			Extensions: Extensions{nonce},
		},
		SignatureAlgorithm: der.AlgorithmIdentifier{Algorithm: der.MustParseOID("1.2.840.10045.4.3.2")},
		Signature:          encoding_asn1.BitString{Bytes: []byte{0xde, 0xad, 0xbe, 0xef}, BitLength: 32},
		Certs:              []der.Value{},
	}

	b := mustMarshal(t, br)
	if _, err := der.Canonicalize(b); err != nil {
		t.Fatalf("encoding is not canonical: %v", err)
	}
	back, err := ParseBasicResponse(b)
	if err != nil {
		t.Fatalf("ParseBasicResponse: %v", err)
	}
	if got := mustMarshal(t, back); !bytes.Equal(got, b) {
		t.Fatalf("built response did not round-trip")
	}
	if back.Certs == nil || len(back.Certs) != 0 {
		t.Fatalf("empty certs list must stay present")
	}

	rd := back.ResponseData
	if !bytes.Equal(rd.ResponderID.ByKey, br.ResponseData.ResponderID.ByKey) || rd.ResponderID.ByName != nil {
		t.Fatalf("responderID=%+v", rd.ResponderID)
	}
	if len(rd.Responses) != 3 {
		t.Fatalf("responses=%d", len(rd.Responses))
	}
	if r := rd.Responses[0]; r.Status.Kind != Good || r.NextUpdate == nil || !r.NextUpdate.Equal(next) || !r.CertID.Equal(id(10)) {
		t.Fatalf("good response=%+v", r)
	}
	if r := rd.Responses[1]; r.Status.Kind != Revoked || r.Status.Revoked.Reason == nil || *r.Status.Revoked.Reason != reason {
		t.Fatalf("revoked response=%+v", r)
	}
	if r := rd.Responses[2]; r.Status.Kind != Unknown || len(r.Extensions) != 1 || !r.Extensions[0].Critical {
		t.Fatalf("unknown response=%+v", r)
	}
	if got, ok, err := rd.Extensions.Nonce(); err != nil || !ok || !bytes.Equal(got, []byte{9, 9, 9}) {
		t.Fatalf("nonce=%x ok=%v err=%v", got, ok, err)
	}

	tbs, err := back.TBSBytes()
	if err != nil {
		t.Fatalf("TBSBytes: %v", err)
	}
	if !bytes.Contains(b, tbs) {
		t.Fatalf("TBSBytes is not the encoded tbsResponseData")
	}
}

func TestEncode_RejectsInvalidChoices(t *testing.T) {
	name := der.Sequence()
	both := ResponderID{ByName: &name, ByKey: []byte{1}}
	if _, err := both.DER(); !pqerr.IsKind(err, pqerr.Encoding) {
		t.Fatalf("ResponderID with both alternatives: %v", err)
	}
	if _, err := (ResponderID{}).DER(); !pqerr.IsKind(err, pqerr.Encoding) {
		t.Fatalf("empty ResponderID: %v", err)
	}
	if _, err := (CertStatus{Kind: Revoked}).DER(); !pqerr.IsKind(err, pqerr.Encoding) {
		t.Fatalf("revoked without info: %v", err)
	}
	if _, err := (Extensions{}).DER(); pqerr.RuleID(err) != "OCSP-SCH-009" {
		t.Fatalf("empty Extensions: %v", err)
	}
	if _, err := ParseExtensions(der.Sequence()); pqerr.RuleID(err) != "OCSP-SCH-009" {
		t.Fatalf("parse empty Extensions: %v", err)
	}
}
