package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a local-first seed store.
//
// EXPERIMENTAL: this filesystem-backed surface is not part of the identity
// contract and may change in MINOR releases.
//
// Layout:
//
//	<Directory>/<identifier>/root.key
//	<Directory>/<identifier>/hybrids/<combination>.key
//
// Each file holds one hex-encoded 32-byte seed. Hybrid seeds are derived from
// the root seed with DeriveHybridSeed, so they can always be recreated.
type KeyStore struct {
	Directory string
}

// KeyEntry lists the hybrid combinations derived under one identifier.
type KeyEntry struct {
	Identifier   string
	Combinations []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "pqasn", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) hybridKeyPath(identifier, combination string) string {
	return filepath.Join(ks.Directory, identifier, "hybrids", combination+".key")
}

func checkName(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, kind)
	}
	return nil
}

func CheckKeyName(identifier string) error { return checkName("identifier", identifier) }

// CheckCombination validates the shape of a combination name. Whether the
// combination is registered is decided by the registry, not here.
func CheckCombination(combination string) error {
	if err := checkName("combination", combination); err != nil {
		return err
	}
	if strings.Count(combination, "_") != 1 || strings.HasPrefix(combination, "_") || strings.HasSuffix(combination, "_") {
		return fmt.Errorf("combination %q must be <classical>_<postquantum>", combination)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != RootSeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", RootSeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != RootSeedSize {
		return fmt.Errorf("expected seed length of %d bytes", RootSeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// InitializeRootKey writes seed as the root seed of identifier.
func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", err
	}
	filePath = ks.rootKeyPath(identifier)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", err
	}
	return filePath, nil
}

// DeriveHybrid derives and stores the seed for combination under identifier.
func (ks *KeyStore) DeriveHybrid(identifier, combination string, overwrite bool) (seed []byte, filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, "", err
	}
	if err := CheckCombination(combination); err != nil {
		return nil, "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.rootKeyPath(identifier))
	if err != nil {
		return nil, "", err
	}
	seed, err = DeriveHybridSeed(rootSeed, combination)
	if err != nil {
		return nil, "", err
	}
	filePath = ks.hybridKeyPath(identifier, combination)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return nil, "", err
	}
	return seed, filePath, nil
}

// LoadSeed returns the stored seed for identifier: the root seed when
// combination is empty, otherwise the hybrid seed.
func (ks *KeyStore) LoadSeed(identifier, combination string) ([]byte, error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, err
	}
	if combination == "" {
		return ks.loadSeedFromFile(ks.rootKeyPath(identifier))
	}
	if err := CheckCombination(combination); err != nil {
		return nil, err
	}
	return ks.loadSeedFromFile(ks.hybridKeyPath(identifier, combination))
}

// ResolveSeed picks a seed from, in order: an explicit hex seed, a key file,
// or a stored identifier (and combination).
func (ks *KeyStore) ResolveSeed(seedHex, keyFile, identifier, combination string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if identifier != "" {
		return ks.LoadSeed(identifier, combination)
	}
	return nil, errors.New("no seed provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		dir := filepath.Join(ks.Directory, identifier, "hybrids")
		files, rerr := os.ReadDir(dir)
		var combinations []string
		if rerr == nil {
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				if strings.HasSuffix(f.Name(), ".key") {
					combinations = append(combinations, strings.TrimSuffix(f.Name(), ".key"))
				}
			}
			sort.Strings(combinations)
		}
		result = append(result, KeyEntry{Identifier: identifier, Combinations: combinations})
	}
	return result, nil
}
