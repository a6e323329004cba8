package trajectory

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// Build converts directional stations into absolute positions with the
// minimum-curvature method. The first point sits at the local origin.
// Empty input yields an empty, non-nil result.
func Build(stations []well.DirectionalStation) []well.TrajectoryPoint {
	return BuildFrom(r3.Vec{}, stations)
}

// ConvertToXYZ is Build under the name used by the import pipeline.
func ConvertToXYZ(stations []well.DirectionalStation) []well.TrajectoryPoint {
	return Build(stations)
}

// BuildFrom is Build with the first point placed at origin.
func BuildFrom(origin r3.Vec, stations []well.DirectionalStation) []well.TrajectoryPoint {
	points := make([]well.TrajectoryPoint, len(stations))

	pos := origin
	for i, s := range stations {
		if i > 0 {
			pos = r3.Add(pos, displacement(stations[i-1], s))
		}

		az, inc := s.Azimuth, s.Inclination
		points[i] = well.TrajectoryPoint{
			MeasuredDepth: s.MeasuredDepth,
			X:             pos.X,
			Y:             pos.Y,
			Z:             pos.Z,
			Azimuth:       &az,
			Inclination:   &inc,
		}
	}

	return points
}

// Dogleg returns the angle between the borehole directions at a and b.
func Dogleg(a, b well.DirectionalStation) float64 {
	cosBeta := math.Cos(b.Inclination-a.Inclination) -
		math.Sin(a.Inclination)*math.Sin(b.Inclination)*(1-math.Cos(b.Azimuth-a.Azimuth))

	// rounding can push the argument just outside acos' domain
	return math.Acos(max(-1, min(1, cosBeta)))
}

// DoglegSeverity returns the dogleg between a and b in degrees, normalized to
// courseLength units of measured depth (e.g. degrees per 30 m).
func DoglegSeverity(a, b well.DirectionalStation, courseLength float64) float64 {
	dmd := b.MeasuredDepth - a.MeasuredDepth
	if dmd == 0 {
		return 0
	}
	return well.Degrees(Dogleg(a, b)) * courseLength / dmd
}

// ratioFactor is the minimum-curvature ratio factor. Its limit for a straight
// course is exactly 1.
func ratioFactor(beta float64) float64 {
	if beta == 0 {
		return 1
	}
	return 2 / beta * math.Tan(beta/2)
}

// tangent returns the unit direction of a station as (east, north, down).
func tangent(s well.DirectionalStation) r3.Vec {
	sinInc, cosInc := math.Sincos(s.Inclination)
	sinAz, cosAz := math.Sincos(s.Azimuth)
	return r3.Vec{
		X: sinInc * sinAz,
		Y: sinInc * cosAz,
		Z: cosInc,
	}
}

// displacement is the minimum-curvature step from a to b.
func displacement(a, b well.DirectionalStation) r3.Vec {
	dmd := b.MeasuredDepth - a.MeasuredDepth
	factor := dmd / 2 * ratioFactor(Dogleg(a, b))
	return r3.Scale(factor, r3.Add(tangent(a), tangent(b)))
}
