// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modnet/modkey/internal/ss58"
)

const (
	// DataDirEnv overrides the default data directory.
	DataDirEnv = "MODKEY_DATA"

	// DefaultDataDir is used when neither -d nor MODKEY_DATA is given.
	DefaultDataDir = "~/.modnet"

	// ConfigFileName is the config file inside the data directory.
	ConfigFileName = "config.yaml"
)

// Config holds modkey configuration settings
type Config struct {
	Network    string `yaml:"network" description:"Default network name (substrate, polkadot, kusama, ...) or numeric SS58 prefix" default:"substrate"`
	SS58Prefix int    `yaml:"ss58_prefix" description:"Default SS58 prefix for multisig addresses" default:"42"`
	KeysDir    string `yaml:"keys_dir" description:"Directory for saved key files (relative to data dir)" default:"keys"`

	KeygenSource         string `yaml:"keygen_source" description:"Keypair source: subkey (external binary) or native (in-process)" default:"subkey"`
	SubkeyPath           string `yaml:"subkey_path" description:"subkey binary name or path" default:"subkey"`
	SubkeyTimeoutSeconds int    `yaml:"subkey_timeout_seconds" description:"Timeout for a single subkey invocation" default:"30"`

	// Optional helper that prints the vault password (see PasswordCommand)
	PasswordCommandArgv []string          `yaml:"password_command_argv" description:"Command printing the vault password; argv[0] absolute or relative to data dir"`
	PasswordCommandEnv  map[string]string `yaml:"password_command_env" description:"Environment passed to the password command (nothing is inherited)"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Network:              ss58.DefaultNetwork,
		SS58Prefix:           42,
		KeysDir:              "keys",
		KeygenSource:         "subkey",
		SubkeyPath:           "subkey",
		SubkeyTimeoutSeconds: 30,
	}
}

// SubkeyTimeout returns the configured timeout as a duration.
func (c *Config) SubkeyTimeout() time.Duration {
	return time.Duration(c.SubkeyTimeoutSeconds) * time.Second
}

// PasswordCommand returns the configured password helper, or nil.
func (c *Config) PasswordCommand() *PasswordCommand {
	if len(c.PasswordCommandArgv) == 0 {
		return nil
	}
	return &PasswordCommand{Argv: c.PasswordCommandArgv, Env: c.PasswordCommandEnv}
}

// GetDataDir returns the data directory.
// Resolution order: -d flag > MODKEY_DATA env var > ~/.modnet
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envDir := os.Getenv(DataDirEnv); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".modnet")
}

// GetConfigPath returns the path to the config file in the data directory.
// Returns empty string if dataDir is empty.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, ConfigFileName)
}

// ResolvePath expands a leading ~ and makes relative paths relative to base.
func ResolvePath(path, base string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// LoadConfig loads config.yaml from the data directory. A missing file
// yields the defaults. Relative paths are resolved against dataDir.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}

	config.KeysDir = ResolvePath(config.KeysDir, dataDir)
	if len(config.PasswordCommandArgv) > 0 {
		config.PasswordCommandArgv[0] = ResolvePath(config.PasswordCommandArgv[0], dataDir)
	}
	// Bare names are looked up on PATH; only paths with a separator are data-dir relative.
	if strings.ContainsRune(config.SubkeyPath, filepath.Separator) {
		config.SubkeyPath = ResolvePath(config.SubkeyPath, dataDir)
	}
	return config, nil
}

// LoadConfigFromPath loads configuration from the specified path.
// If path is empty or the file doesn't exist, returns default config.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay config file values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks field values, naming the offending field.
func (c *Config) Validate() error {
	if _, err := ss58.PrefixForNetwork(c.Network); err != nil {
		return fmt.Errorf("invalid network %q in config: %w", c.Network, err)
	}
	if c.SS58Prefix < 0 || c.SS58Prefix > ss58.MaxPrefix {
		return fmt.Errorf("invalid ss58_prefix %d in config (must be 0..%d)", c.SS58Prefix, ss58.MaxPrefix)
	}
	switch c.KeygenSource {
	case "subkey", "native":
	default:
		return fmt.Errorf("invalid keygen_source %q in config (must be subkey or native)", c.KeygenSource)
	}
	if c.KeygenSource == "subkey" && c.SubkeyPath == "" {
		return fmt.Errorf("subkey_path is required when keygen_source is subkey")
	}
	if c.SubkeyTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid subkey_timeout_seconds %d in config (must be positive)", c.SubkeyTimeoutSeconds)
	}
	if c.KeysDir == "" {
		return fmt.Errorf("keys_dir must not be empty")
	}
	return nil
}

// DisplayConfig writes the effective configuration in human-readable form.
func DisplayConfig(w io.Writer, dataDir string) {
	config, err := LoadConfig(dataDir)

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Data dir:      %s\n", dataDir)
	fmt.Fprintf(w, "Config file:   %s\n", GetConfigPath(dataDir))
	if err != nil {
		fmt.Fprintf(w, "Error:         %v\n", err)
		return
	}
	fmt.Fprintf(w, "Network:       %s\n", config.Network)
	fmt.Fprintf(w, "SS58 prefix:   %d\n", config.SS58Prefix)
	fmt.Fprintf(w, "Keys dir:      %s\n", config.KeysDir)
	fmt.Fprintf(w, "Keygen source: %s\n", config.KeygenSource)
	if config.KeygenSource == "subkey" {
		fmt.Fprintf(w, "subkey:        %s (timeout %ds)\n", config.SubkeyPath, config.SubkeyTimeoutSeconds)
	}
	if len(config.PasswordCommandArgv) > 0 {
		fmt.Fprintf(w, "Password cmd:  %s\n", config.PasswordCommandArgv[0])
	} else {
		fmt.Fprintf(w, "Password cmd:  (prompt)\n")
	}
}
