// Package units provides shared constants and validation for timestamp and
// interval units.
package units

import "strings"

// Timestamp units accepted in recordings.
const (
	Seconds      = "s"
	Milliseconds = "ms"
	Microseconds = "us"
)

// Interval units for reported durations.
const (
	Samples = "samples"
)

// ValidTimeUnits contains all valid timestamp units.
var ValidTimeUnits = []string{Seconds, Milliseconds, Microseconds}

// ValidIntervalUnits contains all valid interval reporting units.
var ValidIntervalUnits = []string{Samples, Seconds, Milliseconds}

// IsValidTime checks if the given unit is a valid timestamp unit.
func IsValidTime(unit string) bool {
	return contains(ValidTimeUnits, unit)
}

// IsValidInterval checks if the given unit is a valid interval unit.
func IsValidInterval(unit string) bool {
	return contains(ValidIntervalUnits, unit)
}

func contains(list []string, unit string) bool {
	for _, u := range list {
		if u == unit {
			return true
		}
	}
	return false
}

// GetValidTimeUnitsString returns a comma-separated string of valid
// timestamp units for error messages.
func GetValidTimeUnitsString() string {
	return strings.Join(ValidTimeUnits, ", ")
}

// GetValidIntervalUnitsString returns a comma-separated string of valid
// interval units for error messages.
func GetValidIntervalUnitsString() string {
	return strings.Join(ValidIntervalUnits, ", ")
}

// ToSeconds converts a timestamp in the given unit to seconds.
// Unknown units are treated as seconds.
func ToSeconds(v float64, unit string) float64 {
	switch unit {
	case Milliseconds:
		return v / 1e3
	case Microseconds:
		return v / 1e6
	default:
		return v
	}
}

// ConvertInterval converts a duration of samples at sampling rate fs to the
// target unit.
func ConvertInterval(samples int, fs float64, target string) float64 {
	switch target {
	case Seconds:
		return float64(samples) / fs
	case Milliseconds:
		return float64(samples) / fs * 1e3
	default:
		return float64(samples)
	}
}
