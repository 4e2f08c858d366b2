package main

import (
	"crypto/rand"
	"encoding/pem"
	"flag"
	"fmt"
	"io"

	"xdao.co/pqasn/der"
	"xdao.co/pqasn/hybrid"
	"xdao.co/pqasn/keys"
)

func cmdHybrid(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: pqasn hybrid <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: resolve, derive")
		return 2
	}
	switch args[0] {
	case "resolve":
		return cmdHybridResolve(args[1:], out, errOut)
	case "derive":
		return cmdHybridDerive(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown hybrid subcommand: %s\n", args[0])
		return 2
	}
}

func cmdHybridResolve(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hybrid resolve", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var classicalSet, pqSet, oid, seedHex string
	var private, spki bool
	fs.StringVar(&classicalSet, "classical", "", "classical parameter set (e.g. P-256, X25519, Ed448)")
	fs.StringVar(&pqSet, "pq", "", "post-quantum parameter set (e.g. Kyber512, ML-DSA-44)")
	fs.BoolVar(&private, "private", false, "resolve the private halves")
	fs.StringVar(&oid, "oid", "", "explicit algorithm identifier (skips classification)")
	fs.StringVar(&seedHex, "seed-hex", "", "derive both keys from this 32-byte seed instead of generating them")
	fs.BoolVar(&spki, "spki", false, "also print the SubjectPublicKeyInfo as PEM")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if classicalSet == "" || pqSet == "" {
		fmt.Fprintln(errOut, "missing --classical or --pq")
		return 2
	}

	var opts []hybrid.Option
	if oid != "" {
		parsed, err := der.ParseOID(oid)
		if err != nil {
			report(errOut, "invalid --oid", err)
			return 2
		}
		opts = append(opts, hybrid.WithIdentifier(parsed))
	}

	var seed []byte
	if seedHex != "" {
		var err error
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	}
	cPub, cPriv, err := keyPair(classicalSet, seed)
	if err != nil {
		report(errOut, "classical key", err)
		return 1
	}
	pqPub, pqPriv, err := keyPair(pqSet, seed)
	if err != nil {
		report(errOut, "post-quantum key", err)
		return 1
	}

	var id *hybrid.Identity
	if private {
		id, err = hybrid.Resolve(cPriv, pqPriv, opts...)
	} else {
		id, err = hybrid.Resolve(cPub, pqPub, opts...)
	}
	if err != nil {
		report(errOut, "resolve", err)
		return 1
	}
	return printIdentity(out, errOut, id, spki)
}

func cmdHybridDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hybrid derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name, seedHex, keyFile, keyID, dir string
	var private bool
	fs.StringVar(&name, "name", "", "canonical hybrid name (e.g. p256_mldsa44)")
	fs.StringVar(&seedHex, "seed-hex", "", "32-byte seed as 64 hex chars")
	fs.StringVar(&keyFile, "key-file", "", "file holding a hex seed")
	fs.StringVar(&keyID, "key", "", "stored key identifier")
	fs.StringVar(&dir, "dir", "", "key store directory")
	fs.BoolVar(&private, "private", false, "derive the private identity")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, err := keys.CreateKeyStore(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	var seed []byte
	if keyID != "" && seedHex == "" && keyFile == "" {
		seed, err = hybridSeed(ks, keyID, name)
	} else {
		seed, err = ks.ResolveSeed(seedHex, keyFile, "", "")
	}
	if err != nil {
		report(errOut, "seed", err)
		return 2
	}

	id, err := hybrid.DeriveIdentity(seed, name, private)
	if err != nil {
		report(errOut, "derive", err)
		return 1
	}
	return printIdentity(out, errOut, id, !private)
}

// hybridSeed returns the stored seed for name under id, deriving it from the
// root seed when it has not been stored yet.
func hybridSeed(ks *keys.KeyStore, id, name string) ([]byte, error) {
	if seed, err := ks.LoadSeed(id, name); err == nil {
		return seed, nil
	}
	root, err := ks.LoadSeed(id, "")
	if err != nil {
		return nil, err
	}
	return keys.DeriveHybridSeed(root, name)
}

func keyPair(parameterSet string, seed []byte) (pub, priv keys.Key, err error) {
	if seed != nil {
		return keys.DeriveKeyPair(parameterSet, seed)
	}
	return keys.Generate(parameterSet, rand.Reader)
}

func printIdentity(out, errOut io.Writer, id *hybrid.Identity, spki bool) int {
	if name, ok := id.CanonicalName(); ok {
		fmt.Fprintf(out, "name: %s\n", name)
	}
	fmt.Fprintf(out, "oid: %s\n", id.Identifier())
	fmt.Fprintf(out, "classical: %s\n", id.Classical().ParameterSet())
	fmt.Fprintf(out, "postQuantum: %s\n", id.PostQuantum().ParameterSet())
	if id.IsPrivate() {
		fmt.Fprintln(out, "visibility: private")
	} else {
		fmt.Fprintln(out, "visibility: public")
	}
	if !spki {
		return 0
	}
	b, err := hybrid.MarshalPublicKey(id)
	if err != nil {
		report(errOut, "spki", err)
		return 1
	}
	if err := pem.Encode(out, &pem.Block{Type: "PUBLIC KEY", Bytes: b}); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}
