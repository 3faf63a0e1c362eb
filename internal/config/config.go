// Package config loads the robot configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Environment variables read by ApplyEnv.
const (
	EnvConfig   = "VIRIDIA_CONFIG"
	EnvLogLevel = "VIRIDIA_LOG_LEVEL"
	EnvWebPort  = "VIRIDIA_WEB_PORT"
)

// Config is the whole robot configuration.
type Config struct {
	Log          Log          `yaml:"log"`
	Chassis      Chassis      `yaml:"chassis"`
	Drive        Drive        `yaml:"drive"`
	Scheduler    Scheduler    `yaml:"scheduler"`
	Manual       Manual       `yaml:"manual"`
	LineFollower LineFollower `yaml:"line_follower"`
	Calibration  Calibration  `yaml:"calibration"`
	Vision       Vision       `yaml:"vision"`
	Web          Web          `yaml:"web"`
	Sim          Sim          `yaml:"sim"`
}

// Log configures internal/log.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json, empty picks by GO_ENV
}

// Chassis describes a regular three wheel omni chassis.
type Chassis struct {
	WheelDistance float64 `yaml:"wheel_distance"` // mm, centre to wheel contact
	WheelRadius   float64 `yaml:"wheel_radius"`   // mm
	MaxRPM        float64 `yaml:"max_rpm"`
}

// MaxRPS returns the wheel speed limit in revolutions per second.
func (c Chassis) MaxRPS() float64 { return c.MaxRPM / 60 }

// Drive configures the motion layer.
type Drive struct {
	ActuatorScale float64 `yaml:"actuator_scale"`
}

// Scheduler configures the task loop.
type Scheduler struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	HomeButton   string        `yaml:"home_button"`
}

// Manual configures joystick driving.
type Manual struct {
	AccelTime   time.Duration `yaml:"accel_time"`
	PoseUpdate  time.Duration `yaml:"pose_update"`
	PoseDisplay time.Duration `yaml:"pose_display"`
}

// LineFollower configures line following.
type LineFollower struct {
	HeadingOffset float64 `yaml:"heading_offset"` // radians
	LateralRange  float64 `yaml:"lateral_range"`  // mm
	Lookahead     float64 `yaml:"lookahead"`      // mm
	Speed         float64 `yaml:"speed"`          // mm/s
	TurnSpeed     float64 `yaml:"turn_speed"`     // rad/s
	MinDistance   float64 `yaml:"min_distance"`   // mm
}

// Calibration configures the calibration runs.
type Calibration struct {
	LinearSpeed    float64       `yaml:"linear_speed"`
	LinearDuration time.Duration `yaml:"linear_duration"`
	AngularRate    float64       `yaml:"angular_rate"`
	AngularTime    time.Duration `yaml:"angular_time"`
}

// Vision configures the line camera. Enabled false uses a fixed source.
type Vision struct {
	Enabled      bool  `yaml:"enabled"`
	Device       int   `yaml:"device"`
	Width        int   `yaml:"width"`
	Height       int   `yaml:"height"`
	Threshold    uint8 `yaml:"threshold"`
	Invert       bool  `yaml:"invert"`
	BlurKernel   int   `yaml:"blur_kernel"`
	ScanHeight   int   `yaml:"scan_height"`
	ScanPosition int   `yaml:"scan_position"`
	WidthPad     int   `yaml:"width_pad"`
	MinArea      int   `yaml:"min_area"`
}

// Web configures the dashboard.
type Web struct {
	Enabled        bool          `yaml:"enabled"`
	Port           int           `yaml:"port"`
	StatusInterval time.Duration `yaml:"status_interval"`
}

// Sim configures the simulated peripherals.
type Sim struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Chassis: Chassis{
			WheelDistance: 160,
			WheelRadius:   29.5,
			MaxRPM:        500,
		},
		Drive: Drive{ActuatorScale: -60},
		Scheduler: Scheduler{
			TickInterval: 20 * time.Millisecond,
			HomeButton:   "home",
		},
		Manual: Manual{
			AccelTime:   time.Second,
			PoseUpdate:  100 * time.Millisecond,
			PoseDisplay: 200 * time.Millisecond,
		},
		LineFollower: LineFollower{
			HeadingOffset: math.Pi,
			LateralRange:  70,
			Lookahead:     70,
			Speed:         100,
			TurnSpeed:     math.Pi,
			MinDistance:   10,
		},
		Calibration: Calibration{
			LinearSpeed:    150,
			LinearDuration: 3 * time.Second,
			AngularRate:    math.Pi / 2,
			AngularTime:    4 * time.Second,
		},
		Vision: Vision{
			Width:      128,
			Height:     128,
			Threshold:  50,
			Invert:     true,
			BlurKernel: 9,
			ScanHeight: 20,
			MinArea:    40,
		},
		Web: Web{
			Enabled:        true,
			Port:           8080,
			StatusInterval: 200 * time.Millisecond,
		},
		Sim: Sim{Enabled: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads the defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Path returns the config file named by VIRIDIA_CONFIG, or def.
func Path(def string) string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return def
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if port := os.Getenv(EnvWebPort); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalid, EnvWebPort, port)
		}
		c.Web.Port = n
	}
	return nil
}

// Validate checks the values the rest of the robot relies on.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		check(false, "log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		check(false, "log.format %q", c.Log.Format)
	}

	check(c.Chassis.WheelDistance > 0, "chassis.wheel_distance must be positive")
	check(c.Chassis.WheelRadius > 0, "chassis.wheel_radius must be positive")
	check(c.Chassis.MaxRPM > 0, "chassis.max_rpm must be positive")
	check(c.Drive.ActuatorScale != 0, "drive.actuator_scale must not be zero")
	check(c.Scheduler.TickInterval > 0, "scheduler.tick_interval must be positive")
	check(c.Scheduler.HomeButton != "", "scheduler.home_button is required")
	check(c.Manual.AccelTime >= 0, "manual.accel_time must not be negative")
	check(c.LineFollower.Speed > 0, "line_follower.speed must be positive")
	check(c.LineFollower.TurnSpeed > 0, "line_follower.turn_speed must be positive")
	check(c.Calibration.LinearDuration > 0, "calibration.linear_duration must be positive")
	check(c.Calibration.AngularTime > 0, "calibration.angular_time must be positive")
	if c.Vision.Enabled {
		check(c.Vision.Width > 0 && c.Vision.Height > 0, "vision size must be positive")
		check(c.Vision.ScanHeight > 0, "vision.scan_height must be positive")
	}
	if c.Web.Enabled {
		check(c.Web.Port > 0 && c.Web.Port < 65536, "web.port %d out of range", c.Web.Port)
	}

	return errors.Join(errs...)
}
