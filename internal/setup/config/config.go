package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrUnknownConfigFile     = errors.New("unknown config file")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentWorkerVersion = 1
	CurrentProxyVersion  = 1
)

// Config file names.
const (
	FileCommon = "common"
	FileWorker = "worker"
	FileProxy  = "proxy"
)

// Config represents the entire application configuration.
// Only the files requested from Load are populated.
type Config struct {
	Common CommonConfig
	Worker WorkerConfig
	Proxy  ProxyConfig
}

// CommonConfig contains configuration shared by every hivesync command.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Store      Store      `koanf:"store"`
	Feed       Feed       `koanf:"feed"`
	Reputation Reputation `koanf:"reputation"`
	Ranking    Ranking    `koanf:"ranking"`
	Redis      Redis      `koanf:"redis"`
}

// WorkerConfig contains sync worker and local API configuration.
type WorkerConfig struct {
	// Version of the worker config.
	Version int `koanf:"version"`
	// Interval between sync cycles in milliseconds.
	SyncInterval int `koanf:"sync_interval"`
	// Startup delay in milliseconds.
	StartupDelay int `koanf:"startup_delay"`
	// Local REST API settings.
	API Server `koanf:"api"`
}

// ProxyConfig contains backend proxy configuration.
type ProxyConfig struct {
	// Version of the proxy config.
	Version    int        `koanf:"version"`
	Server     Server     `koanf:"server"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Fetch      Fetch      `koanf:"fetch"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Store contains local SQLite store configuration.
type Store struct {
	// Path to the SQLite database file.
	Path string `koanf:"path"`
	// Number of pooled connections.
	PoolSize int `koanf:"pool_size"`
}

// Feed contains remote feed configuration.
type Feed struct {
	// Feed endpoint URL.
	Endpoint string `koanf:"endpoint"`
	// Maximum items requested per sync.
	PageSize int `koanf:"page_size"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// Reputation contains remote reputation lookup configuration.
type Reputation struct {
	// Reputation endpoint URL; the account name is appended as a path segment.
	Endpoint string `koanf:"endpoint"`
	// Score returned when a lookup fails.
	FallbackScore int64 `koanf:"fallback_score"`
	// Maximum concurrent lookups while annotating.
	MaxConcurrent int `koanf:"max_concurrent"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// Ranking contains ranking configuration.
type Ranking struct {
	// Divisor applied to halved payout values.
	PayoutConversion float64 `koanf:"payout_conversion"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Whether worker heartbeats are published.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Fetch contains proxy query settings.
type Fetch struct {
	// Rows fetched per database page.
	PageSize int `koanf:"page_size"`
	// Limit used when the request omits one.
	DefaultLimit int `koanf:"default_limit"`
	// Concurrency used when the request omits one.
	DefaultConcurrency int `koanf:"default_concurrency"`
	// Upper bound on requested concurrency.
	MaxConcurrency int `koanf:"max_concurrency"`
	// Upper bound on requested limit.
	MaxLimit int `koanf:"max_limit"`
}

// SyncIntervalDuration returns the sync interval as a duration.
func (w WorkerConfig) SyncIntervalDuration() time.Duration {
	return time.Duration(w.SyncInterval) * time.Millisecond
}

// StartupDelayDuration returns the startup delay as a duration.
func (w WorkerConfig) StartupDelayDuration() time.Duration {
	return time.Duration(w.StartupDelay) * time.Millisecond
}

// Addr returns the host:port listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Paths returns the directories searched for config files.
func Paths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".hivesync",
		homeDir + "/.hivesync/config",
		"/etc/hivesync/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the named config files from the default search paths.
func LoadConfig(names ...string) (*Config, string, error) {
	paths, err := Paths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(paths, names...)
}

// LoadConfigFrom loads the named config files from the given search paths.
// It returns the configuration and the first directory a file was found in.
func LoadConfigFrom(paths []string, names ...string) (*Config, string, error) {
	var (
		config         Config
		usedConfigPath string
	)

	for _, name := range names {
		var (
			target   any
			version  *int
			expected int
		)

		switch name {
		case FileCommon:
			target, version, expected = &config.Common, &config.Common.Version, CurrentCommonVersion
		case FileWorker:
			target, version, expected = &config.Worker, &config.Worker.Version, CurrentWorkerVersion
		case FileProxy:
			target, version, expected = &config.Proxy, &config.Proxy.Version, CurrentProxyVersion
		default:
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownConfigFile, name)
		}

		k := koanf.New(".")
		configLoaded := false

		for _, path := range paths {
			configPath := fmt.Sprintf("%s/%s.toml", path, name)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, name)
		}

		if err := k.Unmarshal("", target); err != nil {
			return nil, "", fmt.Errorf("error unmarshaling %s config: %w", name, err)
		}

		if err := checkConfigVersion(name, *version, expected); err != nil {
			return nil, "", err
		}
	}

	config.applyDefaults()

	return &config, usedConfigPath, nil
}

// applyDefaults fills zero values with their documented defaults.
func (c *Config) applyDefaults() {
	common := &c.Common
	if common.Debug.LogLevel == "" {
		common.Debug.LogLevel = "info"
	}
	if common.Debug.MaxLogsToKeep <= 0 {
		common.Debug.MaxLogsToKeep = 10
	}
	if common.Debug.MaxLogLines <= 0 {
		common.Debug.MaxLogLines = 100000
	}
	if common.Store.Path == "" {
		common.Store.Path = "hivesync.db"
	}
	if common.Store.PoolSize <= 0 {
		common.Store.PoolSize = 4
	}
	if common.Feed.PageSize <= 0 {
		common.Feed.PageSize = 1000
	}
	if common.Feed.RequestTimeout <= 0 {
		common.Feed.RequestTimeout = 30000
	}
	if common.Reputation.FallbackScore == 0 {
		common.Reputation.FallbackScore = 25
	}
	if common.Reputation.MaxConcurrent <= 0 {
		common.Reputation.MaxConcurrent = 8
	}
	if common.Reputation.RequestTimeout <= 0 {
		common.Reputation.RequestTimeout = 10000
	}
	if common.Ranking.PayoutConversion <= 0 {
		common.Ranking.PayoutConversion = 0.107
	}

	worker := &c.Worker
	if worker.SyncInterval <= 0 {
		worker.SyncInterval = 60000
	}
	if worker.API.Host == "" {
		worker.API.Host = "localhost"
	}
	if worker.API.Port == 0 {
		worker.API.Port = 8080
	}

	proxy := &c.Proxy
	if proxy.Server.Host == "" {
		proxy.Server.Host = "0.0.0.0"
	}
	if proxy.Server.Port == 0 {
		proxy.Server.Port = 3000
	}
	if proxy.Fetch.PageSize <= 0 {
		proxy.Fetch.PageSize = 100
	}
	if proxy.Fetch.DefaultLimit <= 0 {
		proxy.Fetch.DefaultLimit = 100
	}
	if proxy.Fetch.DefaultConcurrency <= 0 {
		proxy.Fetch.DefaultConcurrency = 1
	}
	if proxy.Fetch.MaxConcurrency <= 0 {
		proxy.Fetch.MaxConcurrency = 8
	}
	if proxy.Fetch.MaxLimit <= 0 {
		proxy.Fetch.MaxLimit = 10000
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/hivesync/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
