package config

import "github.com/keyfold/keyfold/internal/chain"

// Defaults returns the baseline configuration before the config file,
// environment, and flags are applied.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.keyfold",
		Chains:  chain.SupportedNames(),
		Derivation: DerivationSettings{
			DefaultAccount: 0,
			AddressGap:     20,
		},
		Security: SecuritySettings{
			MemoryLock: true,
		},
		Output: OutputSettings{
			Format:  "auto",
			Color:   "auto",
			Verbose: false,
		},
		Logging: LoggingSettings{
			Level: "error",
			File:  "", // stderr; set a path to log to a file instead
		},
	}
}
