package robot

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-viridia/internal/log"
)

// SimMotors is an in-memory motor bus. While enabled, each wheel's angle
// advances by its commanded speed over wall-clock time, so dead reckoning
// works end to end without hardware.
type SimMotors struct {
	// Now is the clock used for integration. Defaults to time.Now.
	Now func() time.Time

	scale float64 // actuator units per rev/s

	mu      sync.Mutex
	enabled bool
	speeds  []float64
	angles  []float64
	last    time.Time
}

// NewSimMotors creates a simulated bus for wheels motors. actuatorScale is the
// factor the drive multiplies rev/s by before calling SetSpeeds (for example
// -60 for inverted RPM); the simulation divides it back out.
func NewSimMotors(wheels int, actuatorScale float64) *SimMotors {
	if actuatorScale == 0 {
		actuatorScale = 1
	}
	return &SimMotors{
		Now:    time.Now,
		scale:  actuatorScale,
		speeds: make([]float64, wheels),
		angles: make([]float64, wheels),
	}
}

// SetSpeeds implements SpeedSetter.
func (s *SimMotors) SetSpeeds(speeds []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(speeds) != len(s.speeds) {
		return fmt.Errorf("sim motors: got %d speeds for %d wheels", len(speeds), len(s.speeds))
	}
	s.advance()
	copy(s.speeds, speeds)
	return nil
}

// Enable implements Enabler.
func (s *SimMotors) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	s.enabled = true
	return nil
}

// Disable implements Enabler.
func (s *SimMotors) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	s.enabled = false
	return nil
}

// ReadAngles implements AngleReader.
func (s *SimMotors) ReadAngles() ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return append([]float64(nil), s.angles...), nil
}

// Enabled reports whether closed-loop control is on.
func (s *SimMotors) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Speeds returns the last commanded speeds in actuator units.
func (s *SimMotors) Speeds() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.speeds...)
}

// advance integrates angles up to now. Callers hold mu.
func (s *SimMotors) advance() {
	now := s.Now()
	if !s.last.IsZero() && s.enabled {
		dt := now.Sub(s.last).Seconds()
		for i, v := range s.speeds {
			s.angles[i] += v / s.scale * dt
		}
	}
	s.last = now
}

var _ Motors = (*SimMotors)(nil)

// LogLights is a Lights implementation that only logs changes.
type LogLights struct {
	logger *slog.Logger

	mu        sync.Mutex
	mode      LightMode
	hue       uint8
	direction float64
}

// NewLogLights creates a light ring that reports to logger (nil uses the
// global logger).
func NewLogLights(logger *slog.Logger) *LogLights {
	if logger == nil {
		logger = log.With("component", "lights")
	}
	return &LogLights{logger: logger, mode: LightsOff}
}

// SetMode implements Lights.
func (l *LogLights) SetMode(mode LightMode) error {
	l.mu.Lock()
	changed := l.mode != mode
	l.mode = mode
	l.mu.Unlock()
	if changed {
		l.logger.Debug("light mode", "mode", mode.String())
	}
	return nil
}

// SetHue implements Lights.
func (l *LogLights) SetHue(hue, spread uint8) error {
	l.mu.Lock()
	changed := l.hue != hue
	l.hue = hue
	l.mu.Unlock()
	if changed {
		l.logger.Debug("light hue", "hue", hue, "spread", spread)
	}
	return nil
}

// SetDirection implements Lights.
func (l *LogLights) SetDirection(radians float64) error {
	l.mu.Lock()
	l.direction = radians
	l.mu.Unlock()
	return nil
}

// State returns the current mode, hue and direction.
func (l *LogLights) State() (LightMode, uint8, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode, l.hue, l.direction
}

var _ Lights = (*LogLights)(nil)
