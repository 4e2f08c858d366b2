package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/der"
)

func cmdDER(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: pqasn der <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: dump, check, canonicalize, cid")
		return 2
	}
	switch args[0] {
	case "dump":
		return cmdDERDump(args[1:], out, errOut)
	case "check":
		return cmdDERCheck(args[1:], out, errOut)
	case "canonicalize":
		return cmdDERCanonicalize(args[1:], out, errOut)
	case "cid":
		return cmdDERCID(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown der subcommand: %s\n", args[0])
		return 2
	}
}

// parseInputCommand handles the flag set shared by the single-file der commands.
func parseInputCommand(name string, args []string, errOut io.Writer, extra func(*flag.FlagSet)) (*inputFlags, string, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	in := &inputFlags{}
	in.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, "", false
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: pqasn %s [flags] <file>\n", name)
		return nil, "", false
	}
	return in, fs.Arg(0), true
}

func cmdDERDump(args []string, out io.Writer, errOut io.Writer) int {
	in, path, ok := parseInputCommand("der dump", args, errOut, nil)
	if !ok {
		return 2
	}
	v, code := decodeInput(in, path, errOut)
	if code != 0 {
		return code
	}
	if err := der.Dump(out, v); err != nil {
		fmt.Fprintf(errOut, "dump: %v\n", err)
		return 1
	}
	return 0
}

func cmdDERCheck(args []string, out io.Writer, errOut io.Writer) int {
	in, path, ok := parseInputCommand("der check", args, errOut, nil)
	if !ok {
		return 2
	}
	if _, code := canonicalInput(in, path, errOut); code != 0 {
		return code
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdDERCanonicalize(args []string, out io.Writer, errOut io.Writer) int {
	var outPath string
	var asBase64 bool
	in, path, ok := parseInputCommand("der canonicalize", args, errOut, func(fs *flag.FlagSet) {
		fs.StringVar(&outPath, "out", "", "write DER to this file instead of stdout")
		fs.BoolVar(&asBase64, "base64-out", false, "print base64 instead of raw DER")
	})
	if !ok {
		return 2
	}
	b, code := canonicalInput(in, path, errOut)
	if code != 0 {
		return code
	}
	if asBase64 {
		b = []byte(base64.StdEncoding.EncodeToString(b) + "\n")
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, b, 0o644); err != nil {
			fmt.Fprintf(errOut, "write --out: %v\n", err)
			return 1
		}
		return 0
	}
	if _, err := out.Write(b); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdDERCID(args []string, out io.Writer, errOut io.Writer) int {
	in, path, ok := parseInputCommand("der cid", args, errOut, nil)
	if !ok {
		return 2
	}
	b, code := canonicalInput(in, path, errOut)
	if code != 0 {
		return code
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func decodeInput(in *inputFlags, path string, errOut io.Writer) (der.Value, int) {
	mode, err := in.complianceMode()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return der.Value{}, 2
	}
	raw, err := in.read(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return der.Value{}, 1
	}
	v, err := der.DecodeWithMode(raw, mode)
	if err != nil {
		report(errOut, "decode", err)
		return der.Value{}, 1
	}
	return v, 0
}

func canonicalInput(in *inputFlags, path string, errOut io.Writer) ([]byte, int) {
	mode, err := in.complianceMode()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, 2
	}
	raw, err := in.read(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return nil, 1
	}
	b, err := der.CanonicalizeWithMode(raw, mode)
	if err != nil {
		report(errOut, "not canonical", err)
		return nil, 1
	}
	return b, 0
}
