package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeySync      = "sync"
	cfgKeyLogLevel  = "log.level"
	cfgKeyLogFormat = "log.format"

	envPrefix = "LARDER"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# larder configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir and LARDER_DATA_DIR).
# A relative path is taken relative to this directory.
# data_dir:

# When JSONL files are rewritten: immediate (after every write) or on_close.
sync: immediate

log:
  level: info   # debug, info, warn, error
  format: text  # text or json
`

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default config.yaml on first run. LARDER_* environment
// variables override file values (LARDER_LOG_LEVEL for log.level).
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySync, types.SyncImmediate)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// backendConfig builds the store configuration from config.yaml and flags.
func (a *app) backendConfig() (types.Config, error) {
	// data_dir is read from the file only; LARDER_DATA_DIR sits below it in
	// the precedence chain and is applied by paths.ResolveDataDir.
	configured := ""
	if a.cfg.InConfig(cfgKeyDataDir) {
		configured = a.cfg.GetString(cfgKeyDataDir)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, configured, a.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
		Sync:    a.cfg.GetString(cfgKeySync),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config %s: %w", paths.ConfigFile(a.configDir), err)
	}
	return cfg, nil
}
