// Package config loads the single Config value threaded through the
// engine at construction time (spec.md §9): CLI flags override
// environment variables, which override the TOML config file, which
// overrides built-in defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	DBPath string

	OracleProvider string
	OracleAPIKey   string
	OracleModel    string
	OracleRPS      float64
	OracleTimeout  time.Duration

	MetricsAddr string
	LogLevel    string
	LogFormat   string // "json", "console", or "" to auto-detect from the output
}

// defaultConfigRelPath is where the TOML config file lives under the
// user's home directory, consulted when no explicit config path is given.
const defaultConfigRelPath = ".rlm/config.toml"

// Load resolves Config from defaults, an optional TOML file, RLM_*
// environment variables, and explicit flag overrides, in that priority
// order (lowest to highest). flagOverrides carries only the flags the
// caller actually set; zero-value entries are ignored by callers before
// they ever reach this function.
func Load(configPath string, flagOverrides map[string]any) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	setDefaults(v)

	v.SetEnvPrefix("RLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := mergeTOMLFile(v, path); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	for key, val := range flagOverrides {
		v.Set(key, val)
	}

	cfg := &Config{
		DBPath:         v.GetString("db-path"),
		OracleProvider: v.GetString("oracle.provider"),
		OracleAPIKey:   v.GetString("oracle.api-key"),
		OracleModel:    v.GetString("oracle.model"),
		OracleRPS:      v.GetFloat64("oracle.rps"),
		OracleTimeout:  v.GetDuration("oracle.timeout"),
		MetricsAddr:    v.GetString("metrics-addr"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
	}
	if cfg.OracleAPIKey == "" {
		cfg.OracleAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db-path", defaultDBPath())
	v.SetDefault("oracle.provider", "anthropic")
	v.SetDefault("oracle.api-key", "")
	v.SetDefault("oracle.model", "claude-haiku-4-5")
	v.SetDefault("oracle.rps", 2.0)
	v.SetDefault("oracle.timeout", "45s")
	v.SetDefault("metrics-addr", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "")
}

// defaultDBPath returns ~/.rlm/memory/memory.db (spec.md §6.4), falling
// back to a relative path if the home directory can't be resolved.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rlm", "memory", "memory.db")
	}
	return filepath.Join(home, ".rlm", "memory", "memory.db")
}

// resolveConfigPath returns the TOML file to load: an explicit path if
// given, otherwise ~/.rlm/config.toml if it exists, otherwise "" (use
// defaults and environment only).
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %s: %w", explicit, err)
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	path := filepath.Join(home, defaultConfigRelPath)
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

// mergeTOMLFile decodes path with the BurntSushi TOML codec and merges
// the result into v, rather than letting viper parse TOML itself — the
// codec choice is the one the rest of this module's stack uses for
// every other TOML file.
func mergeTOMLFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var parsed map[string]any
	if _, err := toml.Decode(string(data), &parsed); err != nil {
		return err
	}
	return v.MergeConfigMap(parsed)
}

// WriteDefaultFile writes a commented starter config.toml to path,
// creating parent directories as needed.
func WriteDefaultFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("# rlm configuration. Environment variables RLM_* and CLI flags override these.\n\n")
	buf.WriteString("db-path = \"" + defaultDBPath() + "\"\n")
	buf.WriteString("log-level = \"info\"\n")
	buf.WriteString("log-format = \"console\"\n")
	buf.WriteString("# metrics-addr = \":9090\"\n\n")
	buf.WriteString("[oracle]\n")
	buf.WriteString("provider = \"anthropic\"\n")
	buf.WriteString("# api-key = \"\"  # falls back to ANTHROPIC_API_KEY\n")
	buf.WriteString("model = \"claude-haiku-4-5\"\n")
	buf.WriteString("rps = 2.0\n")
	buf.WriteString("timeout = \"45s\"\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
