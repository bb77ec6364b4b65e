package models

import "fmt"

// LineKind tags the variant carried by a LogLine.
type LineKind int

const (
	KindUnrecognized LineKind = iota
	KindCoordinate
	KindAcceleration
	KindOrientation
)

var kindNames = [...]string{"unrecognized", "coordinate", "acceleration", "orientation"}

func (k LineKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Fix is a single GPS reading in decimal degrees.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (f Fix) String() string {
	return fmt.Sprintf("(%s, %s)", ftoa(f.Latitude, -1), ftoa(f.Longitude, -1))
}

// Vector3 is a raw device-frame sensor vector (x, y, z).
type Vector3 [3]float64

// RotationSample is one rotation-vector reading. When HasScalar is false the
// quaternion's real part has to be derived from the vector part.
type RotationSample struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Scalar    float64 `json:"scalar"`
	HasScalar bool    `json:"has_scalar"`
}

// LogLine is one classified line of the capture log. Only the payload field
// matching Kind is meaningful.
type LogLine struct {
	Number int      `json:"number"` // 1-based line number in the input file
	Kind   LineKind `json:"kind"`

	Fix      Fix            `json:"fix"`
	Accel    Vector3        `json:"accel"`
	Rotation RotationSample `json:"rotation"`
}
