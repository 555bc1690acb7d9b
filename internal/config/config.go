package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultNetwork   = "localhost"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	defaultInterval  = 10

	defaultArtifactsDir   = "artifacts/contracts"
	defaultDeploymentsDir = "deployments"
	defaultABIDir         = "abi"
	defaultMetadataDir    = "metadata"

	configFile = "config.json"

	// EnvPrefix prefixes environment overrides, e.g. SAVINGCTL_DEFAULT_NETWORK.
	EnvPrefix = "SAVINGCTL"
)

// ErrUnknownKey is returned by Set for keys that are not settable.
var ErrUnknownKey = errors.New("unknown config key")

// Load reads config from dir (or creates defaults). dir defaults to ~/.savingctl.
// Values in config.json are overridden by SAVINGCTL_* environment variables.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".savingctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	registerDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set assigns a scalar setting by its JSON key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "default_network":
		c.DefaultNetwork = strings.ToLower(value)
	case "default_wallet":
		c.DefaultWallet = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "protocol_file":
		c.ProtocolFile = value
	case "artifacts_dir":
		c.ArtifactsDir = value
	case "deployments_dir":
		c.DeploymentsDir = value
	case "abi_dir":
		c.ABIDir = value
	case "metadata_dir":
		c.MetadataDir = value
	case "watch_interval":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("watch_interval must be a positive number of seconds, got %q", value)
		}
		c.WatchInterval = n
	default:
		return fmt.Errorf("%w: %s (settable: %s)", ErrUnknownKey, key, strings.Join(SettableKeys(), ", "))
	}
	return nil
}

// SettableKeys lists the keys accepted by Set.
func SettableKeys() []string {
	keys := []string{
		"default_network", "default_wallet", "log_level", "log_format",
		"protocol_file", "artifacts_dir", "deployments_dir", "abi_dir",
		"metadata_dir", "watch_interval",
	}
	sort.Strings(keys)
	return keys
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// RPCs returns the URLs to try for a chain: custom RPCs first, then builtin.
func (c *Config) RPCs(chain string, builtin []string) []string {
	out := make([]string, 0, len(c.CustomRPCs[chain])+len(builtin))
	out = append(out, c.CustomRPCs[chain]...)
	for _, u := range builtin {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet store lives.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, "wallets.json")
}

// NetworkDeploymentsDir is the manifest directory for one network.
func (c *Config) NetworkDeploymentsDir(network string) string {
	return filepath.Join(c.DeploymentsDir, network)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		ArtifactsDir:   defaultArtifactsDir,
		DeploymentsDir: defaultDeploymentsDir,
		ABIDir:         defaultABIDir,
		MetadataDir:    defaultMetadataDir,
		WatchInterval:  defaultInterval,
		CustomRPCs:     make(map[string][]string),
		configDir:      dir,
	}
}

// registerDefaults makes every scalar key known to viper so AutomaticEnv
// applies to it during Unmarshal.
func registerDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("default_network", cfg.DefaultNetwork)
	v.SetDefault("default_wallet", cfg.DefaultWallet)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("protocol_file", cfg.ProtocolFile)
	v.SetDefault("artifacts_dir", cfg.ArtifactsDir)
	v.SetDefault("deployments_dir", cfg.DeploymentsDir)
	v.SetDefault("abi_dir", cfg.ABIDir)
	v.SetDefault("metadata_dir", cfg.MetadataDir)
	v.SetDefault("watch_interval", cfg.WatchInterval)
}
