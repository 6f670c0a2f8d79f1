package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"
)

// ServiceConfig holds the inference service configuration.
type ServiceConfig struct {
	Addr             string        `env:"STARTYPE_ADDR" envDefault:":8000"`
	ArtifactPath     string        `env:"STARTYPE_ARTIFACT_PATH" envDefault:"Pipeline/pipeline_star_type_predictor.json"`
	PredictorURL     string        `env:"STARTYPE_PREDICTOR_URL"`
	PredictorTimeout time.Duration `env:"STARTYPE_PREDICTOR_TIMEOUT" envDefault:"30s"`
	MaxUploadBytes   int64         `env:"STARTYPE_MAX_UPLOAD_BYTES" envDefault:"33554432"`
	SavePredictions  bool          `env:"STARTYPE_SAVE_PREDICTIONS" envDefault:"false"`
	DBDriver         string        `env:"STARTYPE_DB_DRIVER" envDefault:"sqlite"`
	DBURL            string        `env:"STARTYPE_DB_URL" envDefault:"data/predictions.db"`
	Verbose          int           `env:"STARTYPE_VERBOSE" envDefault:"0"`
	Telemetry        TelemetryConfig
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool   `env:"STARTYPE_OTEL_ENABLED" envDefault:"true"`
	Endpoint string `env:"STARTYPE_OTEL_ENDPOINT"`
}

// UIConfig holds the companion UI configuration.
type UIConfig struct {
	Addr       string        `env:"STARTYPE_UI_ADDR" envDefault:":8501"`
	APIURL     string        `env:"STARTYPE_API_URL" envDefault:"http://127.0.0.1:8000"`
	APITimeout time.Duration `env:"STARTYPE_API_TIMEOUT" envDefault:"60s"`
	Telemetry  TelemetryConfig
}

// ParseServiceConfig parses environment and flags into a ServiceConfig.
func ParseServiceConfig(fs *flag.FlagSet, args []string) (ServiceConfig, error) {
	var cfg ServiceConfig
	if err := ParseEnv(&cfg); err != nil {
		return ServiceConfig{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.ArtifactPath, "artifact", cfg.ArtifactPath, "Path to the trained pipeline")
	if err := fs.Parse(args); err != nil {
		return ServiceConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("listen address is required")
	}
	if c.PredictorURL == "" && strings.TrimSpace(c.ArtifactPath) == "" {
		return errors.New("either an artifact path or a predictor URL is required")
	}
	if c.PredictorTimeout <= 0 {
		return fmt.Errorf("predictor timeout must be positive, got %s", c.PredictorTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SavePredictions && strings.TrimSpace(c.DBURL) == "" {
		return errors.New("database url is required when saving predictions")
	}
	return nil
}

// ParseUIConfig parses environment and flags into a UIConfig.
func ParseUIConfig(fs *flag.FlagSet, args []string) (UIConfig, error) {
	var cfg UIConfig
	if err := ParseEnv(&cfg); err != nil {
		return UIConfig{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "Base URL of the prediction service")
	if err := fs.Parse(args); err != nil {
		return UIConfig{}, err
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return UIConfig{}, errors.New("listen address is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return UIConfig{}, errors.New("api url is required")
	}
	if cfg.APITimeout <= 0 {
		return UIConfig{}, fmt.Errorf("api timeout must be positive, got %s", cfg.APITimeout)
	}
	return cfg, nil
}
