package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Gateway   Gateway   `yaml:"gateway"`
	Providers Providers `yaml:"providers"`
	Cache     struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"indeximpact"`
		} `yaml:"redis"`
		MemoryMaxSize int `yaml:"memory_max_size" default:"10000" validate:"gt=0"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"index-impact-reports"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		RequiredAcks int      `yaml:"required_acks" default:"1" validate:"oneof=-1 0 1"`
	} `yaml:"kafka"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" default:"0 */5 * * * *"`
	} `yaml:"schedule"`
	Indices []Index `yaml:"indices" validate:"required,min=1,dive"`
}

// Gateway controls how market data is fetched and cached.
type Gateway struct {
	Strategy            string  `yaml:"strategy" default:"per-identifier" validate:"oneof=snapshot per-identifier"`
	QuoteTTLSeconds     int     `yaml:"quote_ttl_seconds" default:"30" validate:"gte=0"`
	MarketCapTTLSeconds int     `yaml:"marketcap_ttl_seconds" default:"86400" validate:"gte=0"`
	FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds" default:"10" validate:"gt=0"`
	Workers             int     `yaml:"workers" default:"8" validate:"gt=0"`
	RatePerSecond       float64 `yaml:"rate_per_second" default:"5" validate:"gt=0"`
	Burst               int     `yaml:"burst" default:"5" validate:"gt=0"`
	RetryAttempts       int     `yaml:"retry_attempts" default:"2" validate:"gte=0"`
	MaxPages            int     `yaml:"max_pages" default:"50" validate:"gt=0"`
	FallbackToReference *bool   `yaml:"fallback_to_reference"`
}

type Providers struct {
	Finnhub struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
	} `yaml:"finnhub"`
	Yahoo struct {
		BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	} `yaml:"yahoo"`
	Snapshot struct {
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url" default:"https://api.polygon.io" validate:"url"`
		PageLimit int    `yaml:"page_limit" default:"250" validate:"gt=0"`
	} `yaml:"snapshot"`
}

// Index is one configured index. Constituents come from Tickers, Source, or both.
type Index struct {
	Name        string   `yaml:"name" validate:"required"`
	Regime      string   `yaml:"regime" default:"price" validate:"oneof=price cap capped-cap"`
	CapFraction float64  `yaml:"cap_fraction"`
	Source      Source   `yaml:"source"`
	Tickers     []string `yaml:"tickers"`
}

type Source struct {
	Path  string `yaml:"path"`
	Kind  string `yaml:"kind" validate:"omitempty,oneof=xlsx text"`
	Sheet string `yaml:"sheet"`
}

// QuoteTTL is the freshness window for prices.
func (g Gateway) QuoteTTL() time.Duration {
	return time.Duration(g.QuoteTTLSeconds) * time.Second
}

// MarketCapTTL is the freshness window for market capitalizations.
func (g Gateway) MarketCapTTL() time.Duration {
	return time.Duration(g.MarketCapTTLSeconds) * time.Second
}

func (g Gateway) FetchTimeout() time.Duration {
	return time.Duration(g.FetchTimeoutSeconds) * time.Second
}

// Fallback reports whether a missing last price may be replaced by the reference price.
func (g Gateway) Fallback() bool {
	return g.FallbackToReference == nil || *g.FallbackToReference
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("SNAPSHOT_API_KEY"); v != "" {
		c.Providers.Snapshot.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("GATEWAY_STRATEGY"); v != "" {
		c.Gateway.Strategy = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Indices))
	for _, idx := range c.Indices {
		if _, dup := seen[idx.Name]; dup {
			return fmt.Errorf("indices: duplicate name '%s'", idx.Name)
		}
		seen[idx.Name] = struct{}{}

		if idx.Source.Path == "" && len(idx.Tickers) == 0 {
			return fmt.Errorf("indices[%s]: either source.path or tickers is required", idx.Name)
		}
		if idx.Regime == "capped-cap" {
			if idx.CapFraction <= 0 || idx.CapFraction >= 1 {
				return fmt.Errorf("indices[%s]: cap_fraction must be in (0,1) for capped-cap, got %v", idx.Name, idx.CapFraction)
			}
		} else if idx.CapFraction != 0 {
			return fmt.Errorf("indices[%s]: cap_fraction is only valid for capped-cap", idx.Name)
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}

	if c.Gateway.Strategy == "snapshot" && c.Providers.Snapshot.APIKey == "" {
		return fmt.Errorf("providers.snapshot.api_key is required for the snapshot strategy")
	}
	if c.needsMarketCaps() && c.Providers.Finnhub.APIKey == "" {
		return fmt.Errorf("providers.finnhub.api_key is required for cap-weighted indices")
	}
	return nil
}

func (c *Config) needsMarketCaps() bool {
	for _, idx := range c.Indices {
		if idx.Regime == "cap" || idx.Regime == "capped-cap" {
			return true
		}
	}
	return false
}
