package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string         `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig   `yaml:"server"`
	Logging     LoggingConfig  `yaml:"logging"`
	Model       ModelConfig    `yaml:"model"`
	Features    FeaturesConfig `yaml:"features"`
	Forecast    ForecastConfig `yaml:"forecast"`
	Cache       CacheConfig    `yaml:"cache"`
	Backend     struct {
		Type          string        `yaml:"type" default:"none" validate:"oneof=none kafka clickhouse"`
		RecordTimeout time.Duration `yaml:"record_timeout" default:"5s"`
		BatchSize     int           `yaml:"batch_size" default:"100" validate:"gte=1"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"1s"`
		BufferSize    int           `yaml:"buffer_size" default:"1000" validate:"gte=1"`
	} `yaml:"backend"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	RateLimit  struct {
		TrendCapacity float64 `yaml:"trend_capacity" default:"5" validate:"gte=1"`
		TrendRefill   float64 `yaml:"trend_refill" default:"2" validate:"gt=0"`
	} `yaml:"ratelimit"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"metrics"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"5000" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

// ModelConfig selects how the trained regressor is evaluated.
// "xgboost" loads a binary XGBoost booster from Path; "remote" calls a model server at ServiceURL.
type ModelConfig struct {
	Type       string        `yaml:"type" default:"xgboost" validate:"oneof=xgboost remote"`
	Path       string        `yaml:"path" default:"models/xgboost_model.bin" validate:"required_if=Type xgboost"`
	ServiceURL string        `yaml:"service_url" validate:"required_if=Type remote"`
	Timeout    time.Duration `yaml:"timeout" default:"3s"`
	Retries    int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
}

type FeaturesConfig struct {
	// StrictOneHot rejects requests with more than one flag set per category.
	StrictOneHot bool `yaml:"strict_one_hot" default:"false"`
}

type ForecastConfig struct {
	HorizonDays int           `yaml:"horizon_days" default:"10" validate:"gte=1,lte=365"`
	HistoryDays int           `yaml:"history_days" default:"30" validate:"gte=1,lte=365"`
	Timeout     time.Duration `yaml:"timeout" default:"5s"`
	Timezone    string        `yaml:"timezone" default:"Local"`
}

type CacheConfig struct {
	Type          string        `yaml:"type" default:"memory" validate:"oneof=none memory redis layered"`
	PredictionTTL time.Duration `yaml:"prediction_ttl" default:"10m"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"10000" validate:"gte=1"`
	Redis         struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"flightfare"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	PredictionsTopic string   `yaml:"predictions_topic" default:"fare.predictions"`
	RequiredAcks     int      `yaml:"required_acks" default:"-1"`
	Compression      string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Producer         struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"200ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled       bool          `yaml:"enabled"`
		RequestsTopic string        `yaml:"requests_topic" default:"fare.requests"`
		GroupID       string        `yaml:"group_id" default:"flightfare"`
		Workers       int           `yaml:"workers" default:"4" validate:"gte=1"`
		BufferSize    int           `yaml:"buffer_size" default:"64"`
		RetryMax      int           `yaml:"retry_max" default:"3"`
		BackoffMin    time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax    time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic      string        `yaml:"dlq_topic" default:"fare.requests.dlq"`
		MinBytes      int           `yaml:"min_bytes" default:"1"`
		MaxBytes      int           `yaml:"max_bytes" default:"10000000"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"flightfare"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert" default:"true"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type ScraperConfig struct {
	Enabled   bool          `yaml:"enabled" default:"true"`
	BaseURL   string        `yaml:"base_url" default:"https://www.makemytrip.com" validate:"url"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36"`
	Timeout   time.Duration `yaml:"timeout" default:"20s"`
	MaxPrices int           `yaml:"max_prices" default:"5" validate:"gte=1"`
	CacheTTL  time.Duration `yaml:"cache_ttl" default:"15m"`
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

// Parse applies defaults, decodes YAML over them and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a configuration built purely from struct defaults.
func Default() *Config {
	c, err := Parse(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.Type = "remote"
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Cache.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when backend.type is 'kafka'")
	}
	if c.Kafka.Consumer.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka.consumer.enabled is set")
	}
	if _, err := c.Forecast.Location(); err != nil {
		return fmt.Errorf("forecast.timezone: %w", err)
	}
	return nil
}

// Location resolves the forecast time zone used to decide what "today" is.
func (f ForecastConfig) Location() (*time.Location, error) {
	if f.Timezone == "" || f.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(f.Timezone)
}
