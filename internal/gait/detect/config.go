package detect

import (
	"fmt"
	"math"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/wavelet"
)

const (
	// DefaultProminence is the minimum peak/trough prominence for both events.
	DefaultProminence = 0.19

	DefaultMinScale = 1
	DefaultMaxScale = 64

	// ChestAccelScale and ShankGyroScale are the wavelet widths tuned offline
	// against ground truth for each placement at 125 Hz.
	ChestAccelScale = 21
	ShankGyroScale  = 26
)

// Config fixes the transform and the extraction row for one sensor type.
type Config struct {
	Name       string
	Axis       gait.Axis
	Scale      int
	Prominence float64
	MinScale   int
	MaxScale   int
	Omega      float64
}

// ChestAccelConfig detects events from cranial-caudal chest acceleration.
func ChestAccelConfig() Config {
	return Config{
		Name:       "chest_accel",
		Axis:       gait.AxisY,
		Scale:      ChestAccelScale,
		Prominence: DefaultProminence,
		MinScale:   DefaultMinScale,
		MaxScale:   DefaultMaxScale,
		Omega:      wavelet.DefaultOmega,
	}
}

// ShankGyroConfig detects events from medial-lateral shank angular velocity.
func ShankGyroConfig() Config {
	return Config{
		Name:       "shank_gyro",
		Axis:       gait.AxisZ,
		Scale:      ShankGyroScale,
		Prominence: DefaultProminence,
		MinScale:   DefaultMinScale,
		MaxScale:   DefaultMaxScale,
		Omega:      wavelet.DefaultOmega,
	}
}

// Validate returns a *gait.ConfigurationError describing the first bad field.
func (c Config) Validate() error {
	if !c.Axis.Valid() {
		return &gait.ConfigurationError{Field: "axis", Reason: fmt.Sprintf("unknown axis %d", int(c.Axis))}
	}
	if c.MinScale < 1 {
		return &gait.ConfigurationError{Field: "scale_min", Reason: fmt.Sprintf("must be >= 1, got %d", c.MinScale)}
	}
	if c.MaxScale < c.MinScale {
		return &gait.ConfigurationError{Field: "scale_max", Reason: fmt.Sprintf("%d is below scale_min %d", c.MaxScale, c.MinScale)}
	}
	if c.Scale < c.MinScale || c.Scale > c.MaxScale {
		return &gait.ConfigurationError{Field: "scale", Reason: fmt.Sprintf("%d outside %d..%d", c.Scale, c.MinScale, c.MaxScale)}
	}
	if !(c.Prominence > 0) || math.IsInf(c.Prominence, 0) {
		return &gait.ConfigurationError{Field: "prominence", Reason: fmt.Sprintf("must be a positive finite number, got %g", c.Prominence)}
	}
	if !(c.Omega > 0) || math.IsInf(c.Omega, 0) {
		return &gait.ConfigurationError{Field: "morlet_omega", Reason: fmt.Sprintf("must be a positive finite number, got %g", c.Omega)}
	}
	return nil
}

// MinSamples is the shortest series the detector accepts.
func (c Config) MinSamples() int {
	return wavelet.MinSamples(c.MaxScale)
}
