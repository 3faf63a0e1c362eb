// Package robot provides the actuator contracts the behavior core drives,
// plus simulated implementations for running without hardware.
//
// The interfaces are kept small so consumers depend only on what they use:
// the drive needs SpeedSetter and AngleReader, the menu only needs Enabler.
package robot

// SpeedSetter sets the signed angular speed of every wheel at once, in the
// chassis model's wheel order and the motor controllers' own units.
type SpeedSetter interface {
	SetSpeeds(speeds []float64) error
}

// Enabler switches closed-loop control on every wheel. Both calls must be
// idempotent, Disable in particular must be safe before any Enable.
type Enabler interface {
	Enable() error
	Disable() error
}

// AngleReader reads the cumulative revolutions of each wheel since an
// arbitrary but stable zero.
type AngleReader interface {
	ReadAngles() ([]float64, error)
}

// Motors is the composite motor bus contract.
type Motors interface {
	SpeedSetter
	Enabler
	AngleReader
}

// LightMode selects the light ring pattern.
type LightMode uint8

const (
	// LightsIdle shows the semi-random rotating pattern.
	LightsIdle LightMode = iota
	// LightsDirection shows a bar pointing at the value given to SetDirection.
	LightsDirection
	// LightsOff switches the ring off.
	LightsOff
)

// String returns the mode name used in logs.
func (m LightMode) String() string {
	switch m {
	case LightsIdle:
		return "idle"
	case LightsDirection:
		return "direction"
	case LightsOff:
		return "off"
	default:
		return "unknown"
	}
}

// Lights is the accessory board's light ring. Calls are advisory, nothing is
// read back.
type Lights interface {
	SetMode(mode LightMode) error
	// SetHue sets the ring hue and, for modes that use it, the hue spread.
	SetHue(hue, spread uint8) error
	// SetDirection sets the direction bar, radians clockwise from the front.
	SetDirection(radians float64) error
}

// DefaultHueSpread is used when a caller has no opinion about the spread.
const DefaultHueSpread = 30

// Hues used by the tasks.
const (
	HueRed   uint8 = 0
	HueGreen uint8 = 100
	HueBlue  uint8 = 170
)
