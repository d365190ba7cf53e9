// Package cli implements the keyfold command-line interface.
package cli

import (
	"cmp"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/config"
	"github.com/keyfold/keyfold/internal/log"
	"github.com/keyfold/keyfold/internal/output"
	"github.com/keyfold/keyfold/internal/securemem"
)

// Global flag values bound to the root command.
//
//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// homeDir is the keyfold home directory override.
	homeDir string
	// outputFormat is the output format (text, json, auto).
	outputFormat string
	// verbose enables verbose output and debug logging.
	verbose bool
)

// Global state initialized by loadGlobals before any command runs.
//
//nolint:gochecknoglobals // cobra state lives at package level
var (
	// cfg is the loaded configuration.
	cfg *config.Config
	// formatter renders command output.
	formatter *output.Formatter
)

// BuildInfo carries version metadata injected at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

//nolint:gochecknoglobals // set once by Execute before commands run
var buildInfo = BuildInfo{Version: "dev"}

// rootCmd is the base command for keyfold.
//
//nolint:gochecknoglobals // cobra commands are package globals
var rootCmd = &cobra.Command{
	Use:   "keyfold",
	Short: "Hierarchical deterministic key derivation for the command line",
	Long: `Keyfold derives BIP39/BIP32/BIP44 keys and addresses for multiple
chains from a mnemonic phrase, entirely offline.

Mnemonics and seeds never leave the process: stateless commands hold
them in locked memory for the duration of a single derivation, and
wallet files store seeds encrypted with age under ~/.keyfold.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadGlobals()
	},
}

// versionCmd prints build information.
//
//nolint:gochecknoglobals // cobra commands are package globals
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	Long:    `Print the keyfold version, build commit, and build date.`,
	Example: `  keyfold version`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		outln(cmd.OutOrStdout(), formatVersion(buildInfo))
	},
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "keyfold home directory (default ~/.keyfold)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, or auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)

	rootCmd.AddGroup(
		&cobra.Group{ID: "mnemonic", Title: "Mnemonic Commands:"},
		&cobra.Group{ID: "derive", Title: "Derivation Commands:"},
		&cobra.Group{ID: "wallet", Title: "Wallet Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration Commands:"},
	)
}

// loadGlobals loads configuration and wires up logging and output
// formatting. Precedence is flags, then environment, then the config
// file, then defaults.
func loadGlobals() error {
	home := config.ExpandHome(cmp.Or(homeDir, os.Getenv(config.EnvHome), config.DefaultHome()))

	var err error
	cfg, err = config.LoadOrDefaults(config.FilePath(home))
	if err != nil {
		return err
	}

	config.ApplyEnv(cfg)

	// The already-resolved home wins over file and environment values.
	cfg.Home = home

	// Flags override environment and file.
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}

	securemem.SetLockingEnabled(cfg.Security.MemoryLock)

	noColor := cfg.Output.Color == "never"
	if err := log.Init(cfg.Logging.Level, cfg.LogFile(), noColor); err != nil {
		return err
	}

	format := output.DetectFormat(os.Stdout, output.ParseFormat(cfg.Output.Format))
	formatter = output.NewFormatter(format)

	log.CLI.Debug().
		Str("home", cfg.Home).
		Str("format", string(format)).
		Msg("globals initialized")

	return nil
}

// Execute runs the root command and returns any error. The caller
// maps the error to an exit code.
func Execute(info BuildInfo) error {
	buildInfo = info

	// Root help already lists subcommands; only nested parents need
	// the generated list.
	walkCommands(rootCmd, func(c *cobra.Command) {
		if c != rootCmd {
			enrichParentLong(c)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// formatErr renders an error on stderr in the active output format.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	_ = output.FormatError(os.Stderr, err, format)
}

// jsonOutput reports whether the active formatter renders JSON.
func jsonOutput() bool {
	return formatter.Format() == output.FormatJSON
}

// formatVersion renders build info for the version command.
func formatVersion(info BuildInfo) string {
	v := info.Version
	if v == "" {
		v = "dev"
	}
	s := "keyfold " + v
	if info.Commit != "" {
		s += " (" + info.Commit
		if info.Date != "" {
			s += ", " + info.Date
		}
		s += ")"
	}
	return s
}

// out writes formatted text, ignoring write errors. Terminal writes
// that fail have no useful recovery in a CLI.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line, ignoring write errors.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
