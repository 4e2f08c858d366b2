package localfs

import (
	"flag"
	"fmt"

	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/casregistry"
)

var flagDir string

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Archive in a local directory",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "localfs-dir", "", "archive directory (for --backend=localfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagDir)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["dir"])
		},
	})
}

func open(dir string) (storage.CAS, func() error, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("localfs: missing directory (--localfs-dir or config key \"dir\")")
	}
	cas, err := New(dir)
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
