package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xxxsen/common/logger"
)

const (
	defaultDBPath       = "mdkeep.db"
	defaultPort         = 8080
	defaultDelayMs      = 100
	defaultRunCacheSize = 64
	defaultRunCacheTTL  = 3600
	defaultListenHost   = "127.0.0.1"
	defaultJWTTTLHours  = 72
)

type Config struct {
	DBPath        string           `json:"db_path"`
	ListenHost    string           `json:"listen_host"`
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	LogConfig     logger.LogConfig `json:"log_config"`
	API           APIConfig        `json:"api"`
	Import        ImportConfig     `json:"import"`
	Source        SourceConfig     `json:"source"`
	RunCache      RunCacheConfig   `json:"run_cache"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	RateLimitSec  int              `json:"rate_limit_sec"`
}

type APIConfig struct {
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	TimeoutSec int    `json:"timeout_sec"`
}

type ImportConfig struct {
	DelayMs int `json:"delay_ms"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RunCacheConfig struct {
	Size   int `json:"size"`
	TTLSec int `json:"ttl_sec"`
}

func (c ImportConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c RunCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// Default is used when no config file is given: console logging at warn level.
func Default() *Config {
	cfg := &Config{}
	cfg.LogConfig.Level = "warn"
	cfg.LogConfig.Console = true
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.JWTTTLHours < 0 {
		return nil, fmt.Errorf("jwt_ttl_hours must not be negative")
	}
	if cfg.Import.DelayMs < 0 {
		return nil, fmt.Errorf("import.delay_ms must not be negative")
	}
	if cfg.API.TimeoutSec < 0 {
		return nil, fmt.Errorf("api.timeout_sec must not be negative")
	}
	switch cfg.Source.Type {
	case "", "local", "s3":
	default:
		return nil, fmt.Errorf("source.type must be local or s3")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.ListenHost == "" {
		cfg.ListenHost = defaultListenHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = defaultJWTTTLHours
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Import.DelayMs == 0 {
		cfg.Import.DelayMs = defaultDelayMs
	}
	if cfg.RunCache.Size == 0 {
		cfg.RunCache.Size = defaultRunCacheSize
	}
	if cfg.RunCache.TTLSec == 0 {
		cfg.RunCache.TTLSec = defaultRunCacheTTL
	}
}
