package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"xdao.co/pqasn/hybrid"
	"xdao.co/pqasn/registry"
)

func cmdRegistry(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: pqasn registry <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: list, lookup")
		return 2
	}
	switch args[0] {
	case "list":
		return cmdRegistryList(args[1:], out, errOut)
	case "lookup":
		return cmdRegistryLookup(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown registry subcommand: %s\n", args[0])
		return 2
	}
}

func cmdRegistryList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("registry list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var ambiguous bool
	fs.BoolVar(&ambiguous, "ambiguous", false, "list only names registered under more than one identifier")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if ambiguous {
		for _, name := range registry.Ambiguous() {
			oid, err := registry.NameToIdentifier(name)
			if err != nil {
				report(errOut, name, err)
				return 1
			}
			fmt.Fprintf(out, "%s\t%s\n", name, oid)
		}
		return 0
	}
	for _, name := range registry.Default().Names() {
		oid, err := registry.NameToIdentifier(name)
		if err != nil {
			report(errOut, name, err)
			return 1
		}
		classical, pq, _ := hybrid.ParameterSets(name)
		fmt.Fprintf(out, "%s\t%s\t%s+%s\n", name, oid, classical, pq)
	}
	return 0
}

func cmdRegistryLookup(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("registry lookup", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: pqasn registry lookup <name|oid>")
		return 2
	}
	key := strings.TrimSpace(fs.Arg(0))

	if looksLikeOID(key) {
		name, err := registry.IdentifierToName(key)
		if err != nil {
			report(errOut, "lookup", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, name)
		return 0
	}
	oid, err := registry.NameToIdentifier(key)
	if err != nil {
		report(errOut, "lookup", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, oid)
	return 0
}

func looksLikeOID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return strings.Contains(s, ".")
}
