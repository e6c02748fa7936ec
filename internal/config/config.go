package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultSeedURL = "https://www.google.com"

	FetcherHTTP    = "http"
	FetcherBrowser = "browser"

	StoreMemory = "memory"
	StoreRedis  = "redis"

	SinkLog      = "log"
	SinkViewer   = "viewer"
	SinkPostgres = "postgres"
)

// Config stores all configuration for the application.
type Config struct {
	SeedURL          string `mapstructure:"seed_url"`
	MaxActiveWorkers int    `mapstructure:"max_active_workers"`

	Fetcher           string        `mapstructure:"fetcher"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	MaxLineBytes      int           `mapstructure:"max_line_bytes"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgents        []string      `mapstructure:"user_agents"`
	Proxies           []string      `mapstructure:"proxies"`

	Extractor string `mapstructure:"extractor"`

	Store         string        `mapstructure:"store"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`

	Sinks          []string `mapstructure:"sinks"`
	PostgresURL    string   `mapstructure:"postgres_url"`
	MinImageWidth  int      `mapstructure:"min_image_width"`
	MinImageHeight int      `mapstructure:"min_image_height"`

	ServerPort string `mapstructure:"server_port"`
	LogLevel   string `mapstructure:"log_level"`
	LogDev     bool   `mapstructure:"log_development"`
	Wait       bool   `mapstructure:"wait"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"seed":                "seed_url",
	"max-active-workers":  "max_active_workers",
	"fetcher":             "fetcher",
	"fetch-timeout":       "fetch_timeout",
	"max-line-bytes":      "max_line_bytes",
	"requests-per-second": "requests_per_second",
	"user-agent":          "user_agents",
	"proxy":               "proxies",
	"extractor":           "extractor",
	"store":               "store",
	"redis-addr":          "redis_addr",
	"redis-password":      "redis_password",
	"redis-db":            "redis_db",
	"redis-ttl":           "redis_ttl",
	"sink":                "sinks",
	"postgres-url":        "postgres_url",
	"min-image-width":     "min_image_width",
	"min-image-height":    "min_image_height",
	"port":                "server_port",
	"log-level":           "log_level",
	"log-dev":             "log_development",
	"wait":                "wait",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed_url", DefaultSeedURL)
	v.SetDefault("max_active_workers", 100)
	v.SetDefault("fetcher", FetcherHTTP)
	v.SetDefault("fetch_timeout", 30*time.Second)
	v.SetDefault("max_line_bytes", 1<<20)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("user_agents", []string{})
	v.SetDefault("proxies", []string{})
	v.SetDefault("extractor", "pattern")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", 24*time.Hour)
	v.SetDefault("sinks", []string{SinkLog})
	v.SetDefault("postgres_url", "")
	v.SetDefault("min_image_width", 200)
	v.SetDefault("min_image_height", 150)
	v.SetDefault("server_port", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("wait", true)
}

// Load reads configuration from, in rising precedence: defaults, the config
// file, PICSCAN_* environment variables and flags that were set explicitly.
// Without configFile an optional .env in the working directory is read.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		// A missing .env is fine; configuration may come purely from the environment.
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	v.SetEnvPrefix("PICSCAN")
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sinks = splitList(cfg.Sinks)
	cfg.UserAgents = splitList(cfg.UserAgents)
	cfg.Proxies = splitList(cfg.Proxies)
	return &cfg, nil
}

// splitList accepts both real lists and comma separated values, which is
// how lists arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.SeedURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid seed url %q", c.SeedURL)
	}
	if c.MaxActiveWorkers <= 0 {
		return fmt.Errorf("max_active_workers must be positive, got %d", c.MaxActiveWorkers)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond)
	}

	switch c.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("unknown fetcher %q", c.Fetcher)
	}

	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	for _, s := range c.Sinks {
		switch s {
		case SinkLog, SinkViewer:
		case SinkPostgres:
			if c.PostgresURL == "" {
				return errors.New("postgres_url is required for the postgres sink")
			}
		default:
			return fmt.Errorf("unknown sink %q", s)
		}
	}
	return nil
}

// HasSink reports whether the named sink is enabled.
func (c *Config) HasSink(name string) bool {
	return slices.Contains(c.Sinks, name)
}
