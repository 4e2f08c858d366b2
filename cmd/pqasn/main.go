package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"xdao.co/pqasn/internal/logging"
)

func main() {
	logging.Configure(logging.ProfileCLI, "pqasn")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	log.Debug().Str("command", args[0]).Int("args", len(args)-1).Msg("dispatch")

	switch args[0] {
	case "der":
		return cmdDER(args[1:], out, errOut)
	case "ocsp":
		return cmdOCSP(args[1:], out, errOut)
	case "registry":
		return cmdRegistry(args[1:], out, errOut)
	case "hybrid":
		return cmdHybrid(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "archive":
		return cmdArchive(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "pqasn: DER codec, hybrid key identities and OCSP messages")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pqasn der dump [--mode strict|permissive] [--base64] <file>")
	fmt.Fprintln(w, "  pqasn der check [--mode strict|permissive] [--base64] <file>")
	fmt.Fprintln(w, "  pqasn der canonicalize [--mode strict|permissive] [--base64] [--out <file>] <file>")
	fmt.Fprintln(w, "  pqasn der cid [--mode strict|permissive] [--base64] <file>")
	fmt.Fprintln(w, "  pqasn ocsp inspect [--kind auto|request|response] [--mode ...] [--base64] <file>")
	fmt.Fprintln(w, "  pqasn ocsp rederive [--mode ...] [--base64] <file>")
	fmt.Fprintln(w, "  pqasn registry list [--ambiguous]")
	fmt.Fprintln(w, "  pqasn registry lookup <name|oid>")
	fmt.Fprintln(w, "  pqasn hybrid resolve --classical <set> --pq <set> [--private] [--oid <oid>] [--seed-hex <64hex>] [--spki]")
	fmt.Fprintln(w, "  pqasn hybrid derive --name <combination> (--seed-hex <64hex> | --key-file <path> | --key <id>) [--private]")
	fmt.Fprintln(w, "  pqasn key init --name <id> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  pqasn key derive --from <id> --combination <name> [--force]")
	fmt.Fprintln(w, "  pqasn key list")
	fmt.Fprintln(w, "  pqasn key export --name <id> --combination <name>")
	fmt.Fprintln(w, "  pqasn archive put|get|has [--backend <name> | --config <file.toml>] [backend flags] <file|cid>")
	fmt.Fprintln(w, "  pqasn archive export [--index] [--label name=cid] [--out <file.tar>] <cid>...")
	fmt.Fprintln(w, "  pqasn archive import [--ignore-unknown] <file.tar|->")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - input files may be raw DER, PEM, or base64 (with --base64); \"-\" reads stdin")
	fmt.Fprintln(w, "  - key commands store seeds under ~/.xdao/pqasn/keys (override with --dir)")
	fmt.Fprintln(w, "  - set PQASN_LOG_LEVEL=debug for diagnostic logging on stderr")
}
