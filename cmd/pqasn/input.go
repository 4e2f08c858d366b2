package main

import (
	"bytes"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/pqerr"
)

var stdin io.Reader = os.Stdin

// inputFlags are shared by every command that reads an encoded message.
type inputFlags struct {
	mode   string
	base64 bool
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.mode, "mode", "strict", "decode mode: strict (DER only) or permissive (accept BER)")
	fs.BoolVar(&f.base64, "base64", false, "input is base64 text")
}

func (f *inputFlags) complianceMode() (compliance.ComplianceMode, error) {
	m, ok := compliance.Parse(strings.ToLower(strings.TrimSpace(f.mode)))
	if !ok {
		return 0, fmt.Errorf("invalid --mode %q (want strict or permissive)", f.mode)
	}
	return m, nil
}

// read loads path and unwraps PEM or base64 armour.
func (f *inputFlags) read(path string) ([]byte, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return unarmor(raw, f.base64)
}

func unarmor(raw []byte, b64 bool) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("-----BEGIN ")) {
		block, _ := pem.Decode(trimmed)
		if block == nil {
			return nil, errors.New("malformed PEM block")
		}
		return block.Bytes, nil
	}
	if !b64 {
		return raw, nil
	}
	text := strings.Join(strings.Fields(string(trimmed)), "")
	out, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return out, nil
}

// report prints err with its rule identifier when it has one.
func report(w io.Writer, what string, err error) {
	if id := pqerr.RuleID(err); id != "" {
		fmt.Fprintf(w, "%s: [%s] %v\n", what, id, err)
		return
	}
	fmt.Fprintf(w, "%s: %v\n", what, err)
}
