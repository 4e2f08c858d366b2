package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"time"

	"xdao.co/pqasn/ocsp"
)

func cmdOCSP(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: pqasn ocsp <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: inspect, rederive")
		return 2
	}
	switch args[0] {
	case "inspect":
		return cmdOCSPInspect(args[1:], out, errOut)
	case "rederive":
		return cmdOCSPRederive(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown ocsp subcommand: %s\n", args[0])
		return 2
	}
}

func cmdOCSPInspect(args []string, out io.Writer, errOut io.Writer) int {
	var kind string
	in, path, ok := parseInputCommand("ocsp inspect", args, errOut, func(fs *flag.FlagSet) {
		fs.StringVar(&kind, "kind", "auto", "message kind: auto, request or response")
	})
	if !ok {
		return 2
	}
	mode, err := in.complianceMode()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	b, err := in.read(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return 1
	}
	opt := ocsp.WithMode(mode)

	switch kind {
	case "request":
		req, err := ocsp.ParseRequest(b, opt)
		if err != nil {
			report(errOut, "ocsp request", err)
			return 1
		}
		printRequest(out, req)
	case "response":
		resp, err := ocsp.ParseResponse(b, opt)
		if err != nil {
			report(errOut, "ocsp response", err)
			return 1
		}
		return printResponse(out, errOut, resp, opt)
	case "auto":
		// OCSPResponse opens with an ENUMERATED status; OCSPRequest with a SEQUENCE.
		if resp, rerr := ocsp.ParseResponse(b, opt); rerr == nil {
			return printResponse(out, errOut, resp, opt)
		}
		req, err := ocsp.ParseRequest(b, opt)
		if err != nil {
			report(errOut, "neither an OCSP request nor response", err)
			return 1
		}
		printRequest(out, req)
	default:
		fmt.Fprintf(errOut, "invalid --kind %q\n", kind)
		return 2
	}
	return 0
}

func cmdOCSPRederive(args []string, out io.Writer, errOut io.Writer) int {
	in, path, ok := parseInputCommand("ocsp rederive", args, errOut, nil)
	if !ok {
		return 2
	}
	mode, err := in.complianceMode()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	b, err := in.read(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return 1
	}
	got, err := ocsp.Rederive(b, nil, ocsp.WithMode(mode))
	if err != nil {
		report(errOut, "rederive", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(got))
	if !bytes.Equal(got, b) {
		fmt.Fprintln(errOut, "note: re-encoding differs from input (input was not DER)")
	}
	return 0
}

func printRequest(w io.Writer, req *ocsp.Request) {
	tbs := req.TBSRequest
	fmt.Fprintln(w, "OCSPRequest")
	fmt.Fprintf(w, "  version: v%d\n", tbs.Version+1)
	if tbs.RequestorName != nil {
		fmt.Fprintf(w, "  requestorName: %s\n", tbs.RequestorName.Tag())
	}
	for i, r := range tbs.RequestList {
		fmt.Fprintf(w, "  request[%d]:\n", i)
		printCertID(w, "    ", r.CertID)
		printExtensions(w, "    ", r.Extensions)
	}
	printExtensions(w, "  ", tbs.Extensions)
	if req.Signature == nil {
		fmt.Fprintln(w, "  signature: none")
		return
	}
	fmt.Fprintf(w, "  signature: %s (%d bits)\n", req.Signature.Algorithm.Algorithm, req.Signature.Signature.BitLength)
	if req.Signature.Certs != nil {
		fmt.Fprintf(w, "  certs: %d\n", len(req.Signature.Certs))
	}
}

func printResponse(w, errOut io.Writer, resp *ocsp.Response, opt ocsp.Option) int {
	fmt.Fprintln(w, "OCSPResponse")
	fmt.Fprintf(w, "  status: %s\n", resp.Status)
	if resp.Bytes == nil {
		return 0
	}
	fmt.Fprintf(w, "  responseType: %s\n", resp.Bytes.ResponseType)
	basic, err := resp.Bytes.Basic(opt)
	if err != nil {
		report(errOut, "basic response", err)
		return 1
	}
	rd := basic.ResponseData
	fmt.Fprintf(w, "  version: v%d\n", rd.Version+1)
	switch {
	case rd.ResponderID.ByName != nil:
		fmt.Fprintln(w, "  responderID: byName")
	default:
		fmt.Fprintf(w, "  responderID: byKey %s\n", hex.EncodeToString(rd.ResponderID.ByKey))
	}
	fmt.Fprintf(w, "  producedAt: %s\n", rd.ProducedAt.UTC().Format(time.RFC3339))
	for i, sr := range rd.Responses {
		fmt.Fprintf(w, "  response[%d]:\n", i)
		printCertID(w, "    ", sr.CertID)
		fmt.Fprintf(w, "    certStatus: %s\n", sr.Status.Kind)
		if ri := sr.Status.Revoked; ri != nil {
			fmt.Fprintf(w, "    revocationTime: %s\n", ri.RevocationTime.UTC().Format(time.RFC3339))
			if ri.Reason != nil {
				fmt.Fprintf(w, "    revocationReason: %d\n", int(*ri.Reason))
			}
		}
		fmt.Fprintf(w, "    thisUpdate: %s\n", sr.ThisUpdate.UTC().Format(time.RFC3339))
		if sr.NextUpdate != nil {
			fmt.Fprintf(w, "    nextUpdate: %s\n", sr.NextUpdate.UTC().Format(time.RFC3339))
		}
		printExtensions(w, "    ", sr.Extensions)
	}
	printExtensions(w, "  ", rd.Extensions)
	fmt.Fprintf(w, "  signature: %s (%d bits)\n", basic.SignatureAlgorithm.Algorithm, basic.Signature.BitLength)
	if basic.Certs != nil {
		fmt.Fprintf(w, "  certs: %d\n", len(basic.Certs))
	}
	return 0
}

func printCertID(w io.Writer, indent string, id ocsp.CertID) {
	fmt.Fprintf(w, "%shashAlgorithm: %s\n", indent, id.HashAlgorithm.Algorithm)
	fmt.Fprintf(w, "%sissuerNameHash: %s\n", indent, hex.EncodeToString(id.IssuerNameHash))
	fmt.Fprintf(w, "%sissuerKeyHash: %s\n", indent, hex.EncodeToString(id.IssuerKeyHash))
	if id.SerialNumber != nil {
		fmt.Fprintf(w, "%sserialNumber: %s\n", indent, id.SerialNumber.Text(16))
	}
}

func printExtensions(w io.Writer, indent string, exts ocsp.Extensions) {
	for _, e := range exts {
		crit := ""
		if e.Critical {
			crit = " (critical)"
		}
		fmt.Fprintf(w, "%sextension %s%s: %d bytes\n", indent, e.ID, crit, len(e.Value))
	}
	if nonce, ok, err := exts.Nonce(); err == nil && ok {
		fmt.Fprintf(w, "%snonce: %s\n", indent, hex.EncodeToString(nonce))
	}
}
