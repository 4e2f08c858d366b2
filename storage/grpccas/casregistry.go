package grpccas

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/casregistry"
)

var (
	flagTarget      string
	flagTimeout     time.Duration
	flagMaxMsgBytes int
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "Remote archive served by pqasn-archived",
		Usage:       casregistry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "archive daemon host:port (for --backend=grpc)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 0, "per-RPC timeout (for --backend=grpc)")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "max message size in bytes; 0 keeps the grpc default")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagTarget, DialOptions{Timeout: flagTimeout, MaxMsgBytes: flagMaxMsgBytes})
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			var opts DialOptions
			if v := cfg["timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpccas: timeout: %w", err)
				}
				opts.Timeout = d
			}
			if v := cfg["max_msg_bytes"]; v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpccas: max_msg_bytes: %w", err)
				}
				opts.MaxMsgBytes = n
			}
			return open(cfg["target"], opts)
		},
	})
}

func open(target string, opts DialOptions) (storage.CAS, func() error, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("grpccas: missing target (--grpc-target or config key \"target\")")
	}
	client, err := Dial(target, opts)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
