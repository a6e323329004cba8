package well

import (
	"math"
	"time"
)

// DirectionalStation is a single survey measurement in the canonical
// azimuth/inclination convention. Angles are in radians; inclination 0 is
// vertical down and π/2 is horizontal.
type DirectionalStation struct {
	MeasuredDepth float64 `json:"measuredDepth"`
	Azimuth       float64 `json:"azimuth"`
	Inclination   float64 `json:"inclination"`
}

// AttitudeStation is a pitch/roll/yaw survey measurement. It only exists on
// the way in and is always normalized to a DirectionalStation before use.
type AttitudeStation struct {
	MeasuredDepth float64 `json:"measuredDepth"`
	Roll          float64 `json:"roll"`
	Pitch         float64 `json:"pitch"`
	Yaw           float64 `json:"yaw"` // magnetic rotation
}

// TrajectoryPoint is an absolute position along a borehole.
type TrajectoryPoint struct {
	MeasuredDepth float64  `json:"measuredDepth"`
	X             float64  `json:"x"`                     // East offset
	Y             float64  `json:"y"`                     // North offset
	Z             float64  `json:"z"`                     // True vertical depth, positive down
	Azimuth       *float64 `json:"azimuth,omitempty"`     // nil for raw XYZ sources
	Inclination   *float64 `json:"inclination,omitempty"` // nil for raw XYZ sources
}

// HasAngles reports whether the point carries both azimuth and inclination.
func (p TrajectoryPoint) HasAngles() bool {
	return p.Azimuth != nil && p.Inclination != nil
}

// Borehole is the record owning a trajectory.
type Borehole struct {
	ID        int64     `json:"ID"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`                  // Survey format key the trajectory was built from
	CreatedAt time.Time `json:"createdAt"`               // When the borehole was imported
	Source    *string   `json:"source,string,omitempty"` // Optional import source description in JSON format
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
