package survey

import (
	"math"
	"testing"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name                 string
		roll, pitch, yaw     float64 // degrees
		azimuth, inclination float64 // degrees
	}{
		{"level", 0, 0, 0, 0, 0},
		{"pitched horizontal", 0, 90, 0, 0, 90},
		{"pitched and rotated", 0, 90, 90, 90, 90},
		{"rolled horizontal", 90, 0, 0, 270, 90},
		{"half pitch", 0, 45, 180, 180, 45},
		{"upside down", 0, 180, 0, 0, 180},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(well.AttitudeStation{
				MeasuredDepth: 12.5,
				Roll:          well.Radians(tc.roll),
				Pitch:         well.Radians(tc.pitch),
				Yaw:           well.Radians(tc.yaw),
			})

			if got.MeasuredDepth != 12.5 {
				t.Errorf("expected measured depth to be kept, got %g", got.MeasuredDepth)
			}
			if d := math.Abs(well.Degrees(got.Inclination) - tc.inclination); d > 1e-9 {
				t.Errorf("expected inclination %g, got %g", tc.inclination, well.Degrees(got.Inclination))
			}
			if d := math.Abs(well.Degrees(got.Azimuth) - tc.azimuth); d > 1e-9 {
				t.Errorf("expected azimuth %g, got %g", tc.azimuth, well.Degrees(got.Azimuth))
			}
			if got.Azimuth < 0 || got.Azimuth >= 2*math.Pi {
				t.Errorf("azimuth %g outside [0, 2π)", got.Azimuth)
			}
		})
	}
}

func TestNormalize_UnitTangent(t *testing.T) {
	for _, a := range []well.AttitudeStation{
		{Roll: 0.3, Pitch: 1.1, Yaw: -2.4},
		{Roll: -1.2, Pitch: 0.2, Yaw: 5.9},
		{Roll: 2.9, Pitch: 2.1, Yaw: 0.7},
	} {
		d := Normalize(a)

		sa, ca := math.Sincos(a.Yaw)
		sb, cb := math.Sincos(a.Pitch)
		sg, cg := math.Sincos(a.Roll)
		x := ca*sb*cg + sa*sg
		y := sa*sb*cg - ca*sg
		z := cb * cg

		if math.Abs(x*x+y*y+z*z-1) > 1e-12 {
			t.Fatalf("tangent of %+v is not a unit vector", a)
		}
		if math.Abs(math.Cos(d.Inclination)-z) > 1e-12 {
			t.Errorf("%+v: inclination %g does not match z %g", a, d.Inclination, z)
		}
		if h := math.Hypot(x, y); h > 1e-9 {
			if math.Abs(math.Cos(d.Azimuth)-x/h) > 1e-9 || math.Abs(math.Sin(d.Azimuth)-y/h) > 1e-9 {
				t.Errorf("%+v: azimuth %g does not match (%g, %g)", a, d.Azimuth, x, y)
			}
		}
	}
}

func TestNormalize_NaN(t *testing.T) {
	d := Normalize(well.AttitudeStation{MeasuredDepth: 1, Roll: math.NaN()})
	if !math.IsNaN(d.Azimuth) || !math.IsNaN(d.Inclination) {
		t.Errorf("expected NaN angles, got %+v", d)
	}
}
