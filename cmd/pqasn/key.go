package main

import (
	"crypto/rand"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"strings"

	"xdao.co/pqasn/hybrid"
	"xdao.co/pqasn/keys"
	"xdao.co/pqasn/registry"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "pqasn key: local seed store for hybrid key identities")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pqasn key init --name <id> [--seed-hex <64hex>] [--force] [--dir <path>]")
	fmt.Fprintln(w, "  pqasn key derive --from <id> --combination <name> [--force] [--dir <path>]")
	fmt.Fprintln(w, "  pqasn key list [--dir <path>]")
	fmt.Fprintln(w, "  pqasn key export --name <id> --combination <name> [--dir <path>]")
}

func keyStore(dir string, errOut io.Writer) (*keys.KeyStore, bool) {
	ks, err := keys.CreateKeyStore(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, false
	}
	return ks, true
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name, seedHex, dir string
	var force bool
	fs.StringVar(&name, "name", "", "key identifier (directory under the store)")
	fs.StringVar(&seedHex, "seed-hex", "", "optional root seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "overwrite an existing root seed")
	fs.StringVar(&dir, "dir", "", "key store directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, ok := keyStore(dir, errOut)
	if !ok {
		return 1
	}

	var seed []byte
	var err error
	if seedHex != "" {
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else if seed, err = keys.DeriveRootSeed(rand.Reader); err != nil {
		fmt.Fprintf(errOut, "seed: %v\n", err)
		return 1
	}

	path, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root seed: %s\n", name)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from, combination, dir string
	var force bool
	fs.StringVar(&from, "from", "", "root key identifier")
	fs.StringVar(&combination, "combination", "", "canonical hybrid name (e.g. p256_kyber512)")
	fs.BoolVar(&force, "force", false, "overwrite an existing derived seed")
	fs.StringVar(&dir, "dir", "", "key store directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" || combination == "" {
		fmt.Fprintln(errOut, "missing --from or --combination")
		return 2
	}
	if err := keys.CheckCombination(combination); err != nil {
		fmt.Fprintf(errOut, "invalid --combination: %v\n", err)
		return 2
	}
	ks, ok := keyStore(dir, errOut)
	if !ok {
		return 1
	}
	oid, err := registry.NameToIdentifier(combination)
	if err != nil {
		report(errOut, "invalid --combination", err)
		return 2
	}
	_, path, err := ks.DeriveHybrid(from, combination, force)
	if err != nil {
		report(errOut, "derive", err)
		return 1
	}
	fmt.Fprintf(out, "Created %s seed for %s (%s)\n", combination, from, oid)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	fs.StringVar(&dir, "dir", "", "key store directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, ok := keyStore(dir, errOut)
	if !ok {
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		if len(e.Combinations) == 0 {
			fmt.Fprintln(out, e.Identifier)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", e.Identifier, strings.Join(e.Combinations, ","))
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name, combination, dir string
	fs.StringVar(&name, "name", "", "key identifier")
	fs.StringVar(&combination, "combination", "", "canonical hybrid name")
	fs.StringVar(&dir, "dir", "", "key store directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" || combination == "" {
		fmt.Fprintln(errOut, "missing --name or --combination")
		return 2
	}
	ks, ok := keyStore(dir, errOut)
	if !ok {
		return 1
	}
	seed, err := hybridSeed(ks, name, combination)
	if err != nil {
		report(errOut, "export", err)
		return 1
	}
	id, err := hybrid.DeriveIdentity(seed, combination, false)
	if err != nil {
		report(errOut, "export", err)
		return 1
	}
	b, err := hybrid.MarshalPublicKey(id)
	if err != nil {
		report(errOut, "export", err)
		return 1
	}
	if err := pem.Encode(out, &pem.Block{Type: "PUBLIC KEY", Bytes: b}); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}
