// Package config loads, merges, and persists the keyfold
// configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keyfold/keyfold/internal/fileutil"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// FileName is the name of the config file under the keyfold home.
const FileName = "config.yaml"

// Config is the application configuration. Values merge in precedence
// order: built-in defaults, then the config file, then environment
// variables, then flags.
type Config struct {
	// Version is the config file schema version.
	Version int `yaml:"version"`

	// Home is the keyfold home directory, possibly with a leading ~/.
	Home string `yaml:"home"`

	// Chains names the chains new wallets enable by default.
	Chains []string `yaml:"chains"`

	// Derivation holds key derivation settings.
	Derivation DerivationSettings `yaml:"derivation"`

	// Security holds memory handling settings.
	Security SecuritySettings `yaml:"security"`

	// Output holds rendering settings.
	Output OutputSettings `yaml:"output"`

	// Logging holds log level and destination settings.
	Logging LoggingSettings `yaml:"logging"`
}

// DerivationSettings selects where in the BIP-44 tree addresses come
// from.
type DerivationSettings struct {
	DefaultAccount uint32 `yaml:"default_account"`
	AddressGap     int    `yaml:"address_gap"`
}

// SecuritySettings controls how secret material is held in memory.
type SecuritySettings struct {
	MemoryLock bool `yaml:"memory_lock"`
}

// OutputSettings controls how command results are rendered.
type OutputSettings struct {
	Format  string `yaml:"default_format"`
	Color   string `yaml:"color"`
	Verbose bool   `yaml:"verbose"`
}

// LoggingSettings controls diagnostic logging.
type LoggingSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// load reads one config file. Fields the file does not set keep their
// default values.
func load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from flags or the fixed home layout
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kferr.WithDetails(kferr.ErrConfigNotFound,
				map[string]string{"path": path})
		}
		return nil, kferr.Wrap(err, "reading config file")
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, kferr.Wrap(kferr.ErrConfigInvalid, "parsing %s", path)
	}
	return cfg, nil
}

// LoadOrDefaults reads the config file at path. A missing file is not
// an error; the built-in defaults apply. A file that exists but does
// not parse is.
func LoadOrDefaults(path string) (*Config, error) {
	cfg, err := load(path)
	if kferr.Is(err, kferr.ErrConfigNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes the configuration to path, creating the directory if
// needed. The write is atomic so a crash cannot leave a half-written
// config behind.
func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return kferr.Wrap(err, "encoding config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return kferr.Wrap(err, "creating config directory")
	}
	if err := fileutil.WriteAtomic(path, raw, 0o600); err != nil {
		return kferr.Wrap(err, "writing config file")
	}
	return nil
}

// FilePath returns the config file path under a home directory.
func FilePath(home string) string {
	return filepath.Join(home, FileName)
}

// HomeDir returns the keyfold home directory with a leading ~/
// expanded.
func (c *Config) HomeDir() string {
	return ExpandHome(c.Home)
}

// WalletsDir returns the directory wallet files are stored in.
func (c *Config) WalletsDir() string {
	return filepath.Join(c.HomeDir(), "wallets")
}

// LogFile returns the configured log file path, with a leading ~/
// expanded.
func (c *Config) LogFile() string {
	return ExpandHome(c.Logging.File)
}

// DefaultHome returns the home directory keyfold uses when nothing
// else names one.
func DefaultHome() string {
	base, err := os.UserHomeDir()
	if err != nil {
		return ".keyfold"
	}
	return filepath.Join(base, ".keyfold")
}

// ExpandHome expands a leading ~/ in a path to the user home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	base, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(base, path[2:])
}
