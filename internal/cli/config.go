package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/config"
	"github.com/keyfold/keyfold/internal/output"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// configCmd groups the configuration subcommands.
//
//nolint:gochecknoglobals // cobra commands are package globals
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: "config",
	Long:    `View and modify keyfold configuration settings.`,
}

// configInitCmd writes a default configuration file.
//
//nolint:gochecknoglobals // cobra commands are package globals
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Create a default configuration file under the keyfold home
directory.

An existing configuration file is left alone unless --force is given.`,
	Example: `  keyfold config init
  keyfold config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd prints the effective configuration.
//
//nolint:gochecknoglobals // cobra commands are package globals
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration after environment and flag
overrides.`,
	Example: `  keyfold config show
  keyfold config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd reads one configuration value.
//
//nolint:gochecknoglobals // cobra commands are package globals
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read one configuration value",
	Long:  `Read a single configuration value by its dot-notation key.`,
	Example: `  keyfold config get output.default_format
  keyfold config get derivation.address_gap`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd changes one configuration value.
//
//nolint:gochecknoglobals // cobra commands are package globals
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one configuration value",
	Long: `Validate and write a single configuration value by its dot-notation
key.`,
	Example: `  keyfold config set output.default_format json
  keyfold config set logging.level debug
  keyfold config set chains eth,btc`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // cobra flags bind to package globals
var initForce bool

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.FilePath(cfg.HomeDir())

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return kferr.WithSuggestion(kferr.ErrGeneral,
				fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath))
		}
	}

	defaults := config.Defaults()
	defaults.Home = cfg.Home

	if err := defaults.Save(configPath); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Commonly edited keys:")
	outln(w, "  - chains: which chains new wallets enable")
	outln(w, "  - output.default_format: output format (text/json/auto)")
	outln(w, "  - logging.level: log level (off/error/info/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(w, configView(cfg))
	}
	displayConfigText(w, cfg)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := configValue(cfg, args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Start from the file, not the flag-and-env-overridden view, so a
	// set changes exactly one key.
	configPath := config.FilePath(cfg.HomeDir())
	fileCfg, err := config.LoadOrDefaults(configPath)
	if err != nil {
		return err
	}
	fileCfg.Home = cfg.Home

	if err := applyConfigValue(fileCfg, key, value); err != nil {
		return err
	}

	if err := fileCfg.Save(configPath); err != nil {
		return err
	}

	return output.FormatSuccess(cmd.OutOrStdout(),
		fmt.Sprintf("Set %s = %s", key, value), formatter.Format())
}

// configKey wires one dot-notation key to its reader and writer.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

// configRegistry is the single source of truth for which keys exist,
// how they render, and how assignments are validated.
//
//nolint:gochecknoglobals // static key registry
var configRegistry = map[string]configKey{
	"home": {
		get: func(c *config.Config) string { return c.Home },
		set: func(c *config.Config, v string) error { c.Home = v; return nil },
	},
	"chains": {
		get: func(c *config.Config) string { return strings.Join(c.Chains, ",") },
		set: func(c *config.Config, v string) error {
			ids, err := parseChainList(v)
			if err != nil {
				return err
			}
			c.Chains = chainNames(ids)
			return nil
		},
	},
	"derivation.default_account": {
		get: func(c *config.Config) string {
			return strconv.FormatUint(uint64(c.Derivation.DefaultAccount), 10)
		},
		set: func(c *config.Config, v string) error {
			account, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return kferr.WithSuggestion(kferr.ErrInvalidInput,
					"default_account must be a non-negative integer")
			}
			c.Derivation.DefaultAccount = uint32(account)
			return nil
		},
	},
	"derivation.address_gap": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Derivation.AddressGap) },
		set: func(c *config.Config, v string) error {
			gap, err := strconv.Atoi(v)
			if err != nil || gap < 1 {
				return kferr.WithSuggestion(kferr.ErrInvalidInput,
					"address_gap must be a positive integer")
			}
			c.Derivation.AddressGap = gap
			return nil
		},
	},
	"security.memory_lock": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.Security.MemoryLock) },
		set: boolSetter("memory_lock", func(c *config.Config, v bool) { c.Security.MemoryLock = v }),
	},
	"output.default_format": {
		get: func(c *config.Config) string { return c.Output.Format },
		set: enumSetter("default_format", []string{"text", "json", "auto"},
			func(c *config.Config, v string) { c.Output.Format = v }),
	},
	"output.color": {
		get: func(c *config.Config) string { return c.Output.Color },
		set: enumSetter("color", []string{"auto", "always", "never"},
			func(c *config.Config, v string) { c.Output.Color = v }),
	},
	"output.verbose": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: boolSetter("verbose", func(c *config.Config, v bool) { c.Output.Verbose = v }),
	},
	"logging.level": {
		get: func(c *config.Config) string { return c.Logging.Level },
		set: func(c *config.Config, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.file": {
		get: func(c *config.Config) string { return c.Logging.File },
		set: func(c *config.Config, v string) error { c.Logging.File = v; return nil },
	},
}

// boolSetter builds a setter that only accepts boolean literals.
func boolSetter(name string, assign func(*config.Config, bool)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return kferr.WithSuggestion(kferr.ErrInvalidInput, name+" must be true or false")
		}
		assign(c, b)
		return nil
	}
}

// enumSetter builds a setter that only accepts the listed values.
func enumSetter(name string, allowed []string, assign func(*config.Config, string)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		if !slices.Contains(allowed, v) {
			return kferr.WithSuggestion(kferr.ErrInvalidInput, name+" must be "+orList(allowed))
		}
		assign(c, v)
		return nil
	}
}

// orList renders choices as "a, b, or c" for suggestion text.
func orList(choices []string) string {
	if len(choices) < 2 {
		return strings.Join(choices, "")
	}
	return strings.Join(choices[:len(choices)-1], ", ") + ", or " + choices[len(choices)-1]
}

// unknownConfigKey reports a key the registry does not know.
func unknownConfigKey(key string) error {
	err := kferr.WithDetails(kferr.ErrInvalidInput, map[string]string{"key": key})
	return kferr.WithSuggestion(err,
		"valid keys: "+strings.Join(slices.Sorted(maps.Keys(configRegistry)), ", "))
}

func configValue(c *config.Config, key string) (string, error) {
	k, ok := configRegistry[key]
	if !ok {
		return "", unknownConfigKey(key)
	}
	return k.get(c), nil
}

func applyConfigValue(c *config.Config, key, value string) error {
	k, ok := configRegistry[key]
	if !ok {
		return unknownConfigKey(key)
	}
	return k.set(c, value)
}

// configJSON mirrors the config for JSON output; the config struct
// itself carries yaml tags.
type configJSON struct {
	Version    int      `json:"version"`
	Home       string   `json:"home"`
	Chains     []string `json:"chains"`
	Derivation struct {
		DefaultAccount uint32 `json:"default_account"`
		AddressGap     int    `json:"address_gap"`
	} `json:"derivation"`
	Security struct {
		MemoryLock bool `json:"memory_lock"`
	} `json:"security"`
	Output struct {
		Format  string `json:"default_format"`
		Color   string `json:"color"`
		Verbose bool   `json:"verbose"`
	} `json:"output"`
	Logging struct {
		Level string `json:"level"`
		File  string `json:"file"`
	} `json:"logging"`
}

func configView(c *config.Config) configJSON {
	view := configJSON{
		Version: c.Version,
		Home:    c.Home,
		Chains:  c.Chains,
	}
	view.Derivation.DefaultAccount = c.Derivation.DefaultAccount
	view.Derivation.AddressGap = c.Derivation.AddressGap
	view.Security.MemoryLock = c.Security.MemoryLock
	view.Output.Format = c.Output.Format
	view.Output.Color = c.Output.Color
	view.Output.Verbose = c.Output.Verbose
	view.Logging.Level = c.Logging.Level
	view.Logging.File = c.Logging.File
	return view
}

// displayConfigText renders the config as an indented tree, pulling
// every value through the registry so the text view cannot drift from
// what get and set operate on.
func displayConfigText(w io.Writer, c *config.Config) {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  home: %s\n", c.Home)
	out(w, "  chains: %s\n", configRegistry["chains"].get(c))

	sections := []struct {
		name string
		keys []string
	}{
		{"derivation", []string{"derivation.default_account", "derivation.address_gap"}},
		{"security", []string{"security.memory_lock"}},
		{"output", []string{"output.default_format", "output.color", "output.verbose"}},
		{"logging", []string{"logging.level", "logging.file"}},
	}
	for _, s := range sections {
		outln(w)
		out(w, "  %s:\n", s.name)
		for _, key := range s.keys {
			out(w, "    %s: %s\n", strings.TrimPrefix(key, s.name+"."), configRegistry[key].get(c))
		}
	}
}
