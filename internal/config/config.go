package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store modes
const (
	StoreModeS3    = "s3"
	StoreModeLocal = "local"
)

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type StoreConfig struct {
	Mode      string `yaml:"mode" default:"s3"`
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region" default:"eu-west-3"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	LocalPath string `yaml:"local_path" default:"./artifacts"`

	// MaxBytesPerSecond caps artifact download bandwidth; 0 means unlimited.
	MaxBytesPerSecond int `yaml:"max_bytes_per_second"`
}

type ArtifactsConfig struct {
	Model            string `yaml:"model"`
	Scaler           string `yaml:"scaler"`
	Encodings        string `yaml:"encodings"`
	ReferenceSample  string `yaml:"reference_sample"`
	HistMonth        string `yaml:"hist_mes"`
	HistHour         string `yaml:"hist_hora"`
	HistWeekday      string `yaml:"hist_dia_semana"`
	HistMonthWeekday string `yaml:"hist_mes_dia"`
	HistHourWeekday  string `yaml:"hist_hora_dia"`
	HistMonthHour    string `yaml:"hist_mes_hora"`

	FetchAttempts int           `yaml:"fetch_attempts" default:"3"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" default:"30s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Prefix  string `yaml:"prefix" default:"parkbeat"`
}

// Default returns the configuration used when no file or env override is present.
// Artifact keys follow the bucket layout written by the training job.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Mode:      StoreModeS3,
			Bucket:    "parklytics-models",
			Region:    "eu-west-3",
			LocalPath: "./artifacts",
		},
		Artifacts: ArtifactsConfig{
			Model:            "models/xgb_model_professional.json",
			Scaler:           "models/xgb_scaler_professional.json",
			Encodings:        "models/xgb_encoding_professional.json",
			ReferenceSample:  "models/df_processed.csv.gz",
			HistMonth:        "historicos/hist_mes.csv",
			HistHour:         "historicos/hist_hora.csv",
			HistWeekday:      "historicos/hist_dia_semana.csv",
			HistMonthWeekday: "historicos/hist_mes_dia.csv",
			HistHourWeekday:  "historicos/hist_hora_dia.csv",
			HistMonthHour:    "historicos/hist_mes_hora.csv",
			FetchAttempts:    3,
			FetchTimeout:     30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Prefix:  "parkbeat",
		},
	}
}

// Load reads defaults, then the YAML file at path (if non-empty), then env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the store can be built and every artifact key is set.
func (c *Config) Validate() error {
	switch c.Store.Mode {
	case StoreModeS3:
		if c.Store.Bucket == "" {
			return errors.New("config: store.bucket is required for s3 mode")
		}
	case StoreModeLocal:
		if c.Store.LocalPath == "" {
			return errors.New("config: store.local_path is required for local mode")
		}
	default:
		return fmt.Errorf("config: invalid store mode: %s", c.Store.Mode)
	}

	for name, key := range c.Artifacts.Keys() {
		if key == "" {
			return fmt.Errorf("config: artifacts.%s is required", name)
		}
	}

	if c.Store.MaxBytesPerSecond < 0 {
		return fmt.Errorf("config: store.max_bytes_per_second must be >= 0, got %d", c.Store.MaxBytesPerSecond)
	}

	if c.Artifacts.FetchAttempts < 1 {
		return fmt.Errorf("config: artifacts.fetch_attempts must be >= 1, got %d", c.Artifacts.FetchAttempts)
	}
	return nil
}

// Keys returns the artifact keys by their YAML name.
func (a ArtifactsConfig) Keys() map[string]string {
	return map[string]string{
		"model":            a.Model,
		"scaler":           a.Scaler,
		"encodings":        a.Encodings,
		"reference_sample": a.ReferenceSample,
		"hist_mes":         a.HistMonth,
		"hist_hora":        a.HistHour,
		"hist_dia_semana":  a.HistWeekday,
		"hist_mes_dia":     a.HistMonthWeekday,
		"hist_hora_dia":    a.HistHourWeekday,
		"hist_mes_hora":    a.HistMonthHour,
	}
}
