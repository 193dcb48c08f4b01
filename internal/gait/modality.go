package gait

import "fmt"

// Axis selects one of the three orthogonal sensor axes. Column order in the
// recordings is anterior-posterior, cranial-caudal, medial-lateral.
type Axis int

const (
	AxisX Axis = iota // anterior-posterior
	AxisY             // cranial-caudal
	AxisZ             // medial-lateral
)

var axisNames = map[Axis]string{
	AxisX: "anterior-posterior",
	AxisY: "cranial-caudal",
	AxisZ: "medial-lateral",
}

func (a Axis) String() string {
	if n, ok := axisNames[a]; ok {
		return n
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Valid reports whether a names one of the three sensor axes.
func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// ParseAxis accepts "x", "y", "z" or the anatomical axis names.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X", "ap", "anterior-posterior":
		return AxisX, nil
	case "y", "Y", "cc", "cranial-caudal":
		return AxisY, nil
	case "z", "Z", "ml", "medial-lateral":
		return AxisZ, nil
	}
	return 0, &ConfigurationError{Field: "axis", Reason: fmt.Sprintf("unknown axis %q", s)}
}

// Modality identifies a sensor placement and measurement type.
type Modality string

const (
	ChestAccel Modality = "chest_accel"
	ChestGyro  Modality = "chest_gyro"
	ShankAccel Modality = "shank_accel"
	ShankGyro  Modality = "shank_gyro"
)

// AllModalities lists the recordings collected for each subject, in file order.
var AllModalities = []Modality{ChestAccel, ChestGyro, ShankAccel, ShankGyro}

// ParseModality validates a data type name from configuration.
func ParseModality(s string) (Modality, error) {
	for _, m := range AllModalities {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &ConfigurationError{Field: "data_types", Reason: fmt.Sprintf("unknown data type %q", s)}
}
