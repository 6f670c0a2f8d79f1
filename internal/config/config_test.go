package config

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestParseServiceConfigDefaults(t *testing.T) {
	cfg, err := ParseServiceConfig(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8000" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, ":8000")
	}
	if cfg.ArtifactPath != "Pipeline/pipeline_star_type_predictor.json" {
		t.Fatalf("artifact path = %q", cfg.ArtifactPath)
	}
	if cfg.PredictorTimeout != 30*time.Second {
		t.Fatalf("predictor timeout = %s, want 30s", cfg.PredictorTimeout)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Fatalf("max upload = %d, want %d", cfg.MaxUploadBytes, 32<<20)
	}
	if cfg.SavePredictions || cfg.DBDriver != "sqlite" || cfg.DBURL != "data/predictions.db" {
		t.Fatalf("database config = %+v", cfg)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "" {
		t.Fatalf("telemetry config = %+v", cfg.Telemetry)
	}
}

func TestParseServiceConfigEnvAndFlags(t *testing.T) {
	t.Setenv("STARTYPE_ADDR", ":9000")
	t.Setenv("STARTYPE_ARTIFACT_PATH", "env.json")
	t.Setenv("STARTYPE_SAVE_PREDICTIONS", "true")
	t.Setenv("STARTYPE_VERBOSE", "2")
	t.Setenv("STARTYPE_OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := ParseServiceConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-artifact", "flag.json"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("addr = %q, want env value", cfg.Addr)
	}
	if cfg.ArtifactPath != "flag.json" {
		t.Fatalf("artifact path = %q, want flag value", cfg.ArtifactPath)
	}
	if !cfg.SavePredictions || cfg.Verbose != 2 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Telemetry.Endpoint != "http://collector:4318" {
		t.Fatalf("telemetry endpoint = %q", cfg.Telemetry.Endpoint)
	}
}

func TestParseServiceConfigErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":  {"STARTYPE_PREDICTOR_TIMEOUT": "soon"},
		"zero timeout":  {"STARTYPE_PREDICTOR_TIMEOUT": "0s"},
		"bad upload":    {"STARTYPE_MAX_UPLOAD_BYTES": "-1"},
		"empty address": {"STARTYPE_ADDR": " "},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := ParseServiceConfig(flag.NewFlagSet("test", flag.ContinueOnError), nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("STARTYPE_VERBOSE", "loud")
	var cfg ServiceConfig
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseUIConfig(t *testing.T) {
	t.Setenv("STARTYPE_API_TIMEOUT", "5s")
	cfg, err := ParseUIConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-api", "http://svc:8000", "-addr", ":9501"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.APIURL != "http://svc:8000" || cfg.Addr != ":9501" || cfg.APITimeout != 5*time.Second {
		t.Fatalf("config = %+v", cfg)
	}
}
