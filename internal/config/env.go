package config

import (
	"os"
	"strings"
)

// Environment variables recognized by keyfold. Flags take precedence
// over these, and these over the config file.
const (
	EnvHome     = "KEYFOLD_HOME"
	EnvFormat   = "KEYFOLD_OUTPUT_FORMAT"
	EnvVerbose  = "KEYFOLD_VERBOSE"
	EnvLogLevel = "KEYFOLD_LOG_LEVEL"
	EnvNoColor  = "NO_COLOR"
)

// ApplyEnv overlays environment variable values onto cfg.
func ApplyEnv(cfg *Config) {
	setIfPresent(EnvHome, func(v string) { cfg.Home = v })
	setIfPresent(EnvFormat, func(v string) { cfg.Output.Format = strings.ToLower(v) })
	setIfPresent(EnvVerbose, func(v string) { cfg.Output.Verbose = truthy(v) })
	setIfPresent(EnvLogLevel, func(v string) { cfg.Logging.Level = strings.ToLower(v) })

	// NO_COLOR is honored per https://no-color.org: presence alone
	// disables color, regardless of value.
	if _, found := os.LookupEnv(EnvNoColor); found {
		cfg.Output.Color = "never"
	}
}

// setIfPresent invokes apply with the variable's value when it is set
// and non-empty.
func setIfPresent(name string, apply func(string)) {
	if v := os.Getenv(name); v != "" {
		apply(v)
	}
}

// truthy reports whether s spells a true value, accepting the usual
// strconv forms plus yes and on.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}
