package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Cache     CacheConfig     `yaml:"cache"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	KeyFile   string          `yaml:"key_file"`
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
}

type CollectorConfig struct {
	// Mode is one of auto, api, public or mock.
	Mode           string        `yaml:"mode"`
	ScrapeHost     string        `yaml:"scrape_host"`
	APIEndpoint    string        `yaml:"api_endpoint"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	APIInterval    time.Duration `yaml:"api_interval"`
	ScrapeInterval time.Duration `yaml:"scrape_interval"`
}

type CacheConfig struct {
	// Driver is one of file, sqlite or redis.
	Driver     string `yaml:"driver"`
	File       string `yaml:"file"`
	SQLitePath string `yaml:"sqlite_path"`
	RedisURL   string `yaml:"redis_url"`
	MemEntries int    `yaml:"mem_entries"`
}

type DashboardConfig struct {
	Port string `yaml:"port"`
}

// Load reads .env, then the optional YAML file at path, then environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Collector.Mode, "COLLECTOR_MODE")
	setString(&c.Collector.ScrapeHost, "YOUTUBE_HOST")
	setString(&c.Collector.APIEndpoint, "YOUTUBE_API_ENDPOINT")
	setString(&c.Collector.UserAgent, "YOUTUBE_USER_AGENT")
	setDuration(&c.Collector.Timeout, "HTTP_TIMEOUT")
	setString(&c.Cache.Driver, "CACHE_DRIVER")
	setString(&c.Cache.File, "CACHE_FILE")
	setString(&c.Cache.SQLitePath, "CACHE_SQLITE_PATH")
	setString(&c.Cache.RedisURL, "REDIS_URL")
	if v := os.Getenv("CACHE_MEM_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.MemEntries = n
		}
	}
	setString(&c.Dashboard.Port, "PORT")
	setString(&c.KeyFile, "YOUTUBE_API_KEY_FILE")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
}

func (c *Config) setDefaults() {
	if c.Collector.Mode == "" {
		c.Collector.Mode = "auto"
	}
	if c.Collector.ScrapeHost == "" {
		c.Collector.ScrapeHost = "https://www.youtube.com"
	}
	if c.Collector.UserAgent == "" {
		c.Collector.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if c.Collector.Timeout == 0 {
		c.Collector.Timeout = 15 * time.Second
	}
	if c.Collector.APIInterval == 0 {
		c.Collector.APIInterval = 100 * time.Millisecond
	}
	if c.Collector.ScrapeInterval == 0 {
		c.Collector.ScrapeInterval = 2 * time.Second
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "file"
	}
	if c.Cache.File == "" {
		c.Cache.File = "search_cache.json"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "search_cache.db"
	}
	if c.Dashboard.Port == "" {
		c.Dashboard.Port = "8080"
	}
	if c.KeyFile == "" {
		c.KeyFile = "youtube_api_key.txt"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

func (c *Config) Validate() error {
	switch c.Collector.Mode {
	case "auto", "api", "public", "mock":
	default:
		return fmt.Errorf("unknown collector mode: %s (use 'auto', 'api', 'public', or 'mock')", c.Collector.Mode)
	}
	switch c.Cache.Driver {
	case "file", "sqlite":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache driver")
		}
	default:
		return fmt.Errorf("unknown cache driver: %s (use 'file', 'sqlite', or 'redis')", c.Cache.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
