package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort              = "8080"
	defaultCatalog           = "SystemIndex"
	defaultScope             = "file:"
	defaultSelectColumns     = "System.ItemUrl, System.ItemNameDisplay, path, System.Search.EntryID, System.Kind, System.KindText"
	defaultContentProperties = "System.FileName"
	defaultSortOrder         = "System.DateModified DESC"
	defaultDebounceDelay     = 150 * time.Millisecond
	defaultQueryWorkers      = 4
	defaultShapeCacheSize    = 128
	defaultMaxSessions       = 64
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("search.catalog", defaultCatalog)
	v.SetDefault("search.scope", defaultScope)
	v.SetDefault("search.select_columns", defaultSelectColumns)
	v.SetDefault("search.content_properties", defaultContentProperties)
	v.SetDefault("search.sort_order", defaultSortOrder)
	v.SetDefault("search.debounce_delay", defaultDebounceDelay)
	v.SetDefault("search.query_workers", defaultQueryWorkers)
	v.SetDefault("search.max_sessions", defaultMaxSessions)
	v.SetDefault("database.shape_cache_size", defaultShapeCacheSize)
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port")
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path")
}

// GetIndexPath is relative to the storage path.
func (c *Config) GetIndexPath() string {
	return c.getString("INDEX_PATH", "database.index_path")
}

// GetKVDBPath is relative to the storage path.
func (c *Config) GetKVDBPath() string {
	return c.getString("KVDB_PATH", "database.kvdb_path")
}

// GetSeedPath names a directory loaded into the local index at startup. Empty means no seeding.
func (c *Config) GetSeedPath() string {
	return c.getString("SEED_PATH", "database.seed_path")
}

func (c *Config) GetShapeCacheSize() int {
	return c.getInt("SHAPE_CACHE_SIZE", "database.shape_cache_size")
}

func (c *Config) GetCatalog() string {
	return c.getString("CATALOG", "search.catalog")
}

func (c *Config) GetScope() string {
	return c.getString("SCOPE", "search.scope")
}

func (c *Config) GetSelectColumns() string {
	return c.getString("SELECT_COLUMNS", "search.select_columns")
}

func (c *Config) GetContentProperties() string {
	return c.getString("CONTENT_PROPERTIES", "search.content_properties")
}

func (c *Config) GetSortOrder() string {
	return c.getString("SORT_ORDER", "search.sort_order")
}

func (c *Config) GetDebounceDelay() time.Duration {
	if delay := c.config.GetDuration("DEBOUNCE_DELAY"); delay > 0 {
		return delay
	}

	return c.config.GetDuration("search.debounce_delay")
}

func (c *Config) GetQueryWorkers() int {
	return c.getInt("QUERY_WORKERS", "search.query_workers")
}

func (c *Config) GetMaxSessions() int {
	return c.getInt("MAX_SESSIONS", "search.max_sessions")
}

func (c *Config) getString(envKey string, fileKey string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}

	return value
}

func (c *Config) getInt(envKey string, fileKey string) int {
	value := c.config.GetInt(envKey)
	if value == 0 {
		value = c.config.GetInt(fileKey)
	}

	return value
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
