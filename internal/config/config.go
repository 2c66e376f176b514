package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Dev      DevConfig      `mapstructure:"dev"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string        `mapstructure:"level"`
	Encoding string        `mapstructure:"encoding"`
	File     LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables a rotated log file next to stdout when Filename is set.
type LogFileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// GatewayConfig holds settings of the proving gateway.
type GatewayConfig struct {
	ChainID         uint64        `mapstructure:"chain_id"`
	MaxUniqueProofs int           `mapstructure:"max_unique_proofs"`
	Workers         int           `mapstructure:"workers"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// UpstreamConfig holds the RPC endpoints of the target chain and their health checking.
type UpstreamConfig struct {
	RPCURLs       []string      `mapstructure:"rpc_urls"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	RunOnStartup  bool          `mapstructure:"run_on_startup"`
}

// CacheConfig holds settings for the gateway proof cache.
type CacheConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// ResolverConfig holds the deployment of the chain reverse resolver.
type ResolverConfig struct {
	Address          string        `mapstructure:"address"`
	CoinType         uint64        `mapstructure:"coin_type"`
	ChainID          uint64        `mapstructure:"chain_id"`
	L2Registrar      string        `mapstructure:"l2_registrar"`
	NamesSlot        uint64        `mapstructure:"names_slot"`
	DefaultRegistrar string        `mapstructure:"default_registrar"`
	OriginRPCURL     string        `mapstructure:"origin_rpc_url"`
	GatewayURLs      []string      `mapstructure:"gateway_urls"`
	Verifier         string        `mapstructure:"verifier"`
	VerifierRPCURL   string        `mapstructure:"verifier_rpc_url"`
	Finalized        bool          `mapstructure:"finalized"`
	MaxLookups       int           `mapstructure:"max_lookups"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// DevConfig selects the in-memory development chain.
type DevConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// Verifier kinds.
const (
	VerifierUnchecked = "unchecked"
	VerifierTrie      = "trie"
)

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "chain-reverse-resolver")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.file.max_size_mb", 100)
	v.SetDefault("logger.file.max_backups", 3)
	v.SetDefault("logger.file.max_age_days", 28)
	v.SetDefault("gateway.max_unique_proofs", 128)
	v.SetDefault("gateway.workers", 8)
	v.SetDefault("gateway.request_timeout", "30s")
	v.SetDefault("upstream.check_interval", "5m")
	v.SetDefault("upstream.check_timeout", "5s")
	v.SetDefault("upstream.max_workers", 10)
	v.SetDefault("upstream.run_on_startup", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.default_expiration", "10m")
	v.SetDefault("cache.cleanup_interval", "20m")
	v.SetDefault("resolver.verifier", VerifierUnchecked)
	v.SetDefault("resolver.max_lookups", 4)
	v.SetDefault("resolver.request_timeout", "30s")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("REVERSE_RESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c UpstreamConfig) GetTimeout() time.Duration {
	return c.CheckTimeout
}

func (c UpstreamConfig) GetCheckInterval() time.Duration {
	return c.CheckInterval
}

func (c CacheConfig) GetDefaultExpiration() time.Duration {
	return c.DefaultExpiration
}

func (c CacheConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}

// UsesDevChain reports whether state comes from the in-memory development chain.
func (c Config) UsesDevChain() bool {
	return c.Dev.SeedFile != ""
}
