package survey

import (
	"math"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// Normalize converts an attitude reading into azimuth and inclination.
// Roll (γ), pitch (β) and magnetic rotation (α) are applied as successive
// rotations giving the unit tangent of the borehole:
//
//	x = cos(α)·sin(β)·cos(γ) + sin(α)·sin(γ)
//	y = sin(α)·sin(β)·cos(γ) − cos(α)·sin(γ)
//	z = cos(β)·cos(γ)
//
// Azimuth is atan2(y, x) mapped into [0, 2π), inclination is acos(z).
// NaN inputs yield NaN angles.
func Normalize(a well.AttitudeStation) well.DirectionalStation {
	sa, ca := math.Sincos(a.Yaw)
	sb, cb := math.Sincos(a.Pitch)
	sg, cg := math.Sincos(a.Roll)

	x := ca*sb*cg + sa*sg
	y := sa*sb*cg - ca*sg
	z := cb * cg

	az := math.Atan2(y, x)
	if az < 0 {
		az += 2 * math.Pi
	}

	return well.DirectionalStation{
		MeasuredDepth: a.MeasuredDepth,
		Azimuth:       az,
		Inclination:   math.Acos(max(-1, min(1, z))),
	}
}
