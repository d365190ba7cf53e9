package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/keyfold/internal/config"
	"github.com/keyfold/keyfold/internal/output"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	full := BuildInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2024-01-15"}
	assert.Equal(t, "keyfold v1.2.3 (abc1234, 2024-01-15)", formatVersion(full))

	// Missing fields shrink the output instead of printing placeholders.
	assert.Equal(t, "keyfold dev", formatVersion(BuildInfo{}))
	assert.Equal(t, "keyfold v2.0.0", formatVersion(BuildInfo{Version: "v2.0.0"}))
	assert.Equal(t, "keyfold v2.0.0 (def5678)", formatVersion(BuildInfo{Version: "v2.0.0", Commit: "def5678"}))

	// A build date is only shown alongside a commit.
	assert.Equal(t, "keyfold v2.0.0", formatVersion(BuildInfo{Version: "v2.0.0", Date: "2024-02-20"}))
}

// formatErr runs on the error path, possibly before loadGlobals, so it
// has to cope with every formatter state.
func TestFormatErr(t *testing.T) {
	orig := formatter
	t.Cleanup(func() { formatter = orig })

	for name, f := range map[string]*output.Formatter{
		"uninitialized": nil,
		"text":          output.NewFormatter(output.FormatText),
		"json":          output.NewFormatter(output.FormatJSON),
	} {
		t.Run(name, func(t *testing.T) {
			formatter = f
			assert.NotPanics(t, func() { formatErr(kferr.ErrInvalidInput) })
		})
	}
}

// stashGlobals snapshots the package globals that loadGlobals writes,
// restores them when the test ends, and points homeDir at a fresh temp
// home with the other flags cleared. Ambient KEYFOLD_* variables are
// unset so they cannot leak into precedence checks.
func stashGlobals(t *testing.T) {
	t.Helper()

	origCfg, origFormatter := cfg, formatter
	origHome, origFormat, origVerbose := homeDir, outputFormat, verbose
	t.Cleanup(func() {
		cfg, formatter = origCfg, origFormatter
		homeDir, outputFormat, verbose = origHome, origFormat, origVerbose
	})

	for _, key := range []string{config.EnvHome, config.EnvFormat, config.EnvVerbose, config.EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	homeDir = t.TempDir()
	outputFormat = ""
	verbose = false
}

func TestLoadGlobals_Defaults(t *testing.T) {
	stashGlobals(t)

	require.NoError(t, loadGlobals())

	require.NotNil(t, cfg)
	require.NotNil(t, formatter)
	assert.Equal(t, homeDir, cfg.Home)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadGlobals_FlagOverrides(t *testing.T) {
	stashGlobals(t)
	outputFormat = "json"
	verbose = true

	require.NoError(t, loadGlobals())

	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, output.FormatJSON, formatter.Format())
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level, "verbose implies debug logging")
}

func TestLoadGlobals_ReadsConfigFile(t *testing.T) {
	stashGlobals(t)

	saved := config.Defaults()
	saved.Logging.Level = "info"
	saved.Output.Format = "json"
	require.NoError(t, saved.Save(config.FilePath(homeDir)))

	require.NoError(t, loadGlobals())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadGlobals_HomePrecedence(t *testing.T) {
	t.Run("environment names the home", func(t *testing.T) {
		stashGlobals(t)
		envDir := t.TempDir()
		homeDir = ""
		t.Setenv(config.EnvHome, envDir)

		require.NoError(t, loadGlobals())

		assert.Equal(t, envDir, cfg.Home)
	})

	t.Run("flag beats environment", func(t *testing.T) {
		stashGlobals(t)
		t.Setenv(config.EnvHome, t.TempDir())

		require.NoError(t, loadGlobals())

		assert.Equal(t, homeDir, cfg.Home)
	})
}

func TestExecute_Version(t *testing.T) {
	stashGlobals(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(os.Args[1:])
	})

	err := Execute(BuildInfo{Version: "v9.9.9", Commit: "cafef00d", Date: "2026-08-01"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "keyfold v9.9.9 (cafef00d, 2026-08-01)")
}
