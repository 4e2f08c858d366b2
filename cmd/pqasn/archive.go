package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog/log"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/bundle"
	"xdao.co/pqasn/storage/casconfig"
	"xdao.co/pqasn/storage/casregistry"

	_ "xdao.co/pqasn/storage/grpccas"
	_ "xdao.co/pqasn/storage/localfs"
)

type archiveFlags struct {
	backend   string
	config    string
	preferred string
	acceptBER bool
}

func cmdArchive(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: pqasn archive <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: put, get, has, export, import, backends")
		return 2
	}
	sub := args[0]
	switch sub {
	case "put", "get", "has", "export", "import", "backends":
	default:
		fmt.Fprintf(errOut, "unknown archive subcommand: %s\n", sub)
		return 2
	}

	fs := flag.NewFlagSet("archive "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var af archiveFlags
	var in inputFlags
	var rawOut, withIndex, ignoreUnknown bool
	var outPath string
	labels := labelFlag{}
	fs.StringVar(&af.backend, "backend", "localfs", "backend name (see: pqasn archive backends)")
	fs.StringVar(&af.config, "config", "", "TOML archive config (overrides --backend)")
	fs.StringVar(&af.preferred, "preferred", "", "with --config: backend name or id to try first")
	fs.BoolVar(&af.acceptBER, "accept-ber", false, "put: convert BER input to DER instead of rejecting it")
	fs.BoolVar(&in.base64, "base64", false, "put: input is base64 text")
	fs.BoolVar(&rawOut, "raw", false, "get: write raw DER instead of base64")
	fs.BoolVar(&withIndex, "index", true, "export: include index.json")
	fs.Var(labels, "label", "export: name=cid label recorded in the index (repeatable)")
	fs.StringVar(&outPath, "out", "", "export: write the bundle to this file instead of stdout")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "import: skip entries that are not messages")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if sub == "backends" {
		for _, b := range casregistry.List(casregistry.UsageCLI) {
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	switch {
	case sub == "export" && fs.NArg() == 0:
		fmt.Fprintln(errOut, "usage: pqasn archive export [flags] <cid>...")
		return 2
	case sub != "export" && fs.NArg() != 1:
		arg := "cid"
		if sub == "put" || sub == "import" {
			arg = "file"
		}
		fmt.Fprintf(errOut, "usage: pqasn archive %s [flags] <%s>\n", sub, arg)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cas, closeFn, err := openArchive(af)
	if err != nil {
		fmt.Fprintf(errOut, "open archive: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	switch sub {
	case "put":
		b, err := in.read(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
			return 1
		}
		id, err := cas.Put(ctx, b)
		if err != nil {
			report(errOut, "put", err)
			return 1
		}
		log.Debug().Str("cid", id.String()).Int("bytes", len(b)).Msg("archived")
		_, _ = fmt.Fprintln(out, id)
	case "get":
		id, err := cidutil.Parse(strings.TrimSpace(fs.Arg(0)))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
		b, err := cas.Get(ctx, id)
		if err != nil {
			report(errOut, "get", err)
			return 1
		}
		if rawOut {
			_, _ = out.Write(b)
		} else {
			_, _ = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(b))
		}
	case "has":
		id, err := cidutil.Parse(strings.TrimSpace(fs.Arg(0)))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
		ok, err := cas.Has(ctx, id)
		if err != nil {
			report(errOut, "has", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, ok)
		if !ok {
			return 1
		}
	case "export":
		return archiveExport(ctx, cas, fs.Args(), bundle.ExportOptions{IncludeIndex: withIndex, Labels: labels}, outPath, out, errOut)
	case "import":
		return archiveImport(ctx, cas, fs.Arg(0), bundle.ImportOptions{IgnoreUnknown: ignoreUnknown}, out, errOut)
	}
	return 0
}

func archiveExport(ctx context.Context, cas storage.CAS, args []string, opts bundle.ExportOptions, outPath string, out, errOut io.Writer) int {
	ids := make([]cid.Cid, 0, len(args))
	for _, a := range args {
		id, err := cidutil.Parse(strings.TrimSpace(a))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid %q: %v\n", a, err)
			return 2
		}
		ids = append(ids, id)
	}
	if outPath == "" {
		if err := bundle.Export(ctx, out, cas, ids, opts); err != nil {
			report(errOut, "export", err)
			return 1
		}
		return 0
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	if err := bundle.Export(ctx, f, cas, ids, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		report(errOut, "export", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "close %s: %v\n", outPath, err)
		return 1
	}
	log.Debug().Str("path", outPath).Int("messages", len(ids)).Msg("exported bundle")
	return 0
}

func archiveImport(ctx context.Context, cas storage.CAS, path string, opts bundle.ImportOptions, out, errOut io.Writer) int {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(errOut, "open %s: %v\n", path, err)
			return 1
		}
		defer f.Close()
		r = f
	}
	ids, err := bundle.Import(ctx, r, cas, opts)
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id)
	}
	if err != nil {
		report(errOut, "import", err)
		return 1
	}
	return 0
}

// labelFlag collects repeated name=cid pairs.
type labelFlag map[string]cid.Cid

func (l labelFlag) String() string { return fmt.Sprintf("%d labels", len(l)) }

func (l labelFlag) Set(v string) error {
	name, s, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("label %q: want name=cid", v)
	}
	id, err := cidutil.Parse(s)
	if err != nil {
		return fmt.Errorf("label %q: %w", v, err)
	}
	l[name] = id
	return nil
}

func openArchive(af archiveFlags) (storage.CAS, func() error, error) {
	if af.config != "" {
		cfg, err := casconfig.LoadFile(af.config)
		if err != nil {
			return nil, nil, err
		}
		if af.acceptBER {
			cfg.AcceptBER = true
		}
		return cfg.Open(casregistry.UsageCLI, af.preferred)
	}
	cas, closeFn, err := casregistry.Open(af.backend, casregistry.UsageCLI)
	if err != nil {
		return nil, nil, err
	}
	return storage.Canonical{CAS: cas, AcceptBER: af.acceptBER}, closeFn, nil
}
