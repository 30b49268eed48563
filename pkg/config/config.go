package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Source struct {
		Type    string `yaml:"type"`     // csv or clickhouse
		CSVPath string `yaml:"csv_path"` // used when type=csv
	} `yaml:"source"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		SalesTable       string        `yaml:"sales_table"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Weather struct {
		BaseURL   string        `yaml:"base_url"`
		Latitude  float64       `yaml:"latitude"`
		Longitude float64       `yaml:"longitude"`
		Timezone  string        `yaml:"timezone"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"weather"`
	Calendar struct {
		Path string `yaml:"path"`
	} `yaml:"calendar"`
	Training struct {
		ArtifactDir   string        `yaml:"artifact_dir"`
		HoldoutDays   int           `yaml:"holdout_days"`
		Lookback      int           `yaml:"lookback"`
		Timeout       time.Duration `yaml:"timeout"`
		BoostRounds   int           `yaml:"boost_rounds"`
		LSTMEpochs    int           `yaml:"lstm_epochs"`
		RetrainBurst  float64       `yaml:"retrain_burst"`
		RetrainPerMin float64       `yaml:"retrain_per_min"`
	} `yaml:"training"`
	Forecast struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"forecast"`
	Events struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		Compression  string        `yaml:"compression"`
		RequiredAcks int           `yaml:"required_acks"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"events"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("SALES_CSV"); v != "" {
		c.Source.CSVPath = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("ARTIFACT_DIR"); v != "" {
		c.Training.ArtifactDir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Forecast.Redis.Addr = v
		c.Forecast.Redis.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://archive-api.open-meteo.com/v1/archive"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 30 * time.Second
	}
	if c.Training.ArtifactDir == "" {
		c.Training.ArtifactDir = "models"
	}
	if c.Training.HoldoutDays == 0 {
		c.Training.HoldoutDays = 90
	}
	if c.Training.Lookback == 0 {
		c.Training.Lookback = 30
	}
	if c.Training.Timeout == 0 {
		c.Training.Timeout = 10 * time.Minute
	}
	if c.Training.BoostRounds == 0 {
		c.Training.BoostRounds = 500
	}
	if c.Training.LSTMEpochs == 0 {
		c.Training.LSTMEpochs = 30
	}
	if c.Training.RetrainBurst == 0 {
		c.Training.RetrainBurst = 1
	}
	if c.Training.RetrainPerMin == 0 {
		c.Training.RetrainPerMin = 0.2
	}
	if c.Forecast.CacheTTL == 0 {
		c.Forecast.CacheTTL = 5 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Source.Type != "csv" && c.Source.Type != "clickhouse" {
		return fmt.Errorf("source.type must be 'csv' or 'clickhouse', got '%s'", c.Source.Type)
	}
	if c.Source.Type == "csv" && c.Source.CSVPath == "" {
		return fmt.Errorf("source.csv_path is required when source.type=csv")
	}
	if c.Source.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when source.type=clickhouse")
	}
	if c.Calendar.Path == "" {
		return fmt.Errorf("calendar.path is required")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events.enabled")
	}
	return nil
}
