package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viridia.yaml")
	data := []byte(`
log:
  level: debug
chassis:
  wheel_radius: 30
scheduler:
  tick_interval: 50ms
vision:
  enabled: true
  threshold: 80
web:
  port: 9090
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
	if cfg.Chassis.WheelRadius != 30 || cfg.Chassis.WheelDistance != 160 {
		t.Errorf("chassis = %+v", cfg.Chassis)
	}
	if cfg.Scheduler.TickInterval != 50*time.Millisecond {
		t.Errorf("tick_interval = %v", cfg.Scheduler.TickInterval)
	}
	if !cfg.Vision.Enabled || cfg.Vision.Threshold != 80 || cfg.Vision.BlurKernel != 9 {
		t.Errorf("vision = %+v", cfg.Vision)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("web.port = %d", cfg.Web.Port)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Drive.ActuatorScale != -60 || cfg.Chassis.MaxRPS() != 500.0/60 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("chassis: [1, 2"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvWebPort, "7000")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" || cfg.Web.Port != 7000 {
		t.Errorf("cfg = %+v %+v", cfg.Log, cfg.Web)
	}

	t.Setenv(EnvWebPort, "eighty")
	if err := cfg.ApplyEnv(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if got := Path("viridia.yaml"); got != "viridia.yaml" {
		t.Errorf("got %q", got)
	}
	t.Setenv(EnvConfig, "/etc/viridia.yaml")
	if got := Path("viridia.yaml"); got != "/etc/viridia.yaml" {
		t.Errorf("got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero wheel radius", func(c *Config) { c.Chassis.WheelRadius = 0 }},
		{"zero actuator scale", func(c *Config) { c.Drive.ActuatorScale = 0 }},
		{"zero tick", func(c *Config) { c.Scheduler.TickInterval = 0 }},
		{"no home button", func(c *Config) { c.Scheduler.HomeButton = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }},
		{"vision without scan band", func(c *Config) {
			c.Vision.Enabled = true
			c.Vision.ScanHeight = 0
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}

	cfg := Default()
	cfg.Web.Enabled = false
	cfg.Web.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled web should skip port check: %v", err)
	}
}
