package trajectory

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// withoutAngles returns a copy of points as a raw XYZ source would store them.
func withoutAngles(points []well.TrajectoryPoint) []well.TrajectoryPoint {
	stripped := make([]well.TrajectoryPoint, len(points))
	for i, p := range points {
		p.Azimuth, p.Inclination = nil, nil
		stripped[i] = p
	}
	return stripped
}

func xyzPoint(md, x, y, z float64) well.TrajectoryPoint {
	return well.TrajectoryPoint{MeasuredDepth: md, X: x, Y: y, Z: z}
}

func assertOutOfRange(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a range error, got nil")
	}
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("expected *RangeError, got %T", err)
	}
}

func TestIndex_TVDAtStations(t *testing.T) {
	points := Build(referenceStations())

	for name, idx := range map[string]*Index{
		"angled":        NewIndex(points),
		"position only": NewIndex(withoutAngles(points)),
	} {
		t.Run(name, func(t *testing.T) {
			for _, p := range points {
				tvd, err := idx.TVD(p.MeasuredDepth)
				if err != nil {
					t.Fatalf("TVD(%g): %v", p.MeasuredDepth, err)
				}
				if tvd != p.Z {
					t.Errorf("TVD(%g): expected stored %v, got %v", p.MeasuredDepth, p.Z, tvd)
				}
			}
		})
	}
}

func TestIndex_TVDFollowsArc(t *testing.T) {
	points := Build(referenceStations())
	idx := NewIndex(points)

	tvd, err := idx.TVD(58)
	if err != nil {
		t.Fatalf("TVD(58): %v", err)
	}
	if math.Abs(tvd-57.8204) > 1e-4 {
		t.Errorf("expected TVD 57.8204, got %.6f", tvd)
	}

	// the chord between md 30 and md 142 is far off the arc
	linear := points[3].Z + (58-points[3].MeasuredDepth)/(points[4].MeasuredDepth-points[3].MeasuredDepth)*(points[4].Z-points[3].Z)
	if math.Abs(tvd-linear) < 1 {
		t.Errorf("expected arc interpolation, got %.6f close to linear %.6f", tvd, linear)
	}
}

func TestIndex_PositionOnlyTVD(t *testing.T) {
	// Positions produced by a minimum-curvature build lie on arcs whose end
	// tangent seeds the next bend plane, so the fitted arc is the same arc and
	// both models agree on this trajectory.
	points := Build(referenceStations())
	angled := NewIndex(points)
	positional := NewIndex(withoutAngles(points))

	for _, md := range []float64{58, 100, 142, 200, 300} {
		want, err := angled.TVD(md)
		if err != nil {
			t.Fatalf("angled TVD(%g): %v", md, err)
		}
		got, err := positional.TVD(md)
		if err != nil {
			t.Fatalf("position-only TVD(%g): %v", md, err)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("TVD(%g): position-only %.9f differs from angled %.9f", md, got, want)
		}
	}

	tvd, err := positional.TVD(58)
	if err != nil {
		t.Fatalf("position-only TVD(58): %v", err)
	}
	if math.Abs(tvd-57.8205) > 1e-4 {
		t.Errorf("expected position-only TVD 57.8205, got %.6f", tvd)
	}
}

func TestIndex_InterpolationModelsDiffer(t *testing.T) {
	// angles describe a quarter turn but the positions lie on a straight line
	inc0, inc90 := 0.0, math.Pi/2
	az := 0.0
	points := []well.TrajectoryPoint{
		{MeasuredDepth: 0, Azimuth: &az, Inclination: &inc0},
		{MeasuredDepth: 100, Z: 100, Azimuth: &az, Inclination: &inc90},
	}

	angledTVD, err := NewIndex(points).TVD(50)
	if err != nil {
		t.Fatal(err)
	}
	positionTVD, err := NewIndex(withoutAngles(points)).TVD(50)
	if err != nil {
		t.Fatal(err)
	}

	radius := 100 / (math.Pi / 2)
	if expected := radius * math.Sin(math.Pi/4); math.Abs(angledTVD-expected) > 1e-9 {
		t.Errorf("angled: expected %.6f, got %.6f", expected, angledTVD)
	}
	if math.Abs(positionTVD-50) > 1e-9 {
		t.Errorf("position only: expected straight interpolation 50, got %.6f", positionTVD)
	}
}

func TestIndex_TVDOutOfRange(t *testing.T) {
	idx := NewIndex(Build(referenceStations()))

	for _, md := range []float64{-42, -1e-9, 364.0001, 600, 1e12, math.NaN()} {
		_, err := idx.TVD(md)
		assertOutOfRange(t, err)
	}
}

func TestIndex_EmptyTrajectory(t *testing.T) {
	idx := NewIndex(nil)

	_, err := idx.MD(10)
	assertOutOfRange(t, err)
	if !errors.Is(err, ErrEmptyTrajectory) {
		t.Errorf("expected ErrEmptyTrajectory, got %v", err)
	}

	_, err = idx.TVD(10)
	assertOutOfRange(t, err)

	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d points", idx.Len())
	}
}

func TestIndex_RoundTrip(t *testing.T) {
	points := Build(referenceStations())

	for name, idx := range map[string]*Index{
		"angled":        NewIndex(points),
		"position only": NewIndex(withoutAngles(points)),
	} {
		t.Run(name, func(t *testing.T) {
			for _, md := range []float64{0, 5, 25, 30, 58, 100, 142, 200, 300} {
				tvd, err := idx.TVD(md)
				if err != nil {
					t.Fatalf("TVD(%g): %v", md, err)
				}
				got, err := idx.MD(tvd)
				if err != nil {
					t.Fatalf("MD(%g): %v", tvd, err)
				}
				if math.Abs(got-md) > 1e-6 {
					t.Errorf("MD(TVD(%g)) = %.9f", md, got)
				}
			}
		})
	}
}

func TestIndex_MDOutOfRange(t *testing.T) {
	points := Build(referenceStations())
	idx := NewIndex(points)

	for _, tvd := range []float64{-1, points[len(points)-1].Z + 1, math.NaN()} {
		_, err := idx.MD(tvd)
		assertOutOfRange(t, err)
	}
}

// downThenUp drops vertically, turns horizontal and climbs again.
func downThenUp() []well.TrajectoryPoint {
	return Build([]well.DirectionalStation{
		station(0, 0, 0),
		station(100, 0, 0),
		station(200, 0, 90),
		station(300, 0, 150),
	})
}

func TestIndex_MDFirstCrossing(t *testing.T) {
	idx := NewIndex(downThenUp())

	md, err := idx.MD(150)
	if err != nil {
		t.Fatalf("MD(150): %v", err)
	}
	if math.Abs(md-157.508354) > 1e-5 {
		t.Errorf("expected first crossing at 157.508354, got %.6f", md)
	}

	crossings, err := idx.Crossings(150)
	if err != nil {
		t.Fatalf("Crossings(150): %v", err)
	}
	if len(crossings) != 2 {
		t.Fatalf("expected 2 crossings, got %v", crossings)
	}
	if math.Abs(crossings[1]-251.710257) > 1e-5 {
		t.Errorf("expected second crossing at 251.710257, got %.6f", crossings[1])
	}

	near, err := idx.MDNear(150, 280)
	if err != nil {
		t.Fatalf("MDNear(150, 280): %v", err)
	}
	if near != crossings[1] {
		t.Errorf("expected crossing nearest to 280 to be %.6f, got %.6f", crossings[1], near)
	}
}

func TestIndex_InteriorExtremum(t *testing.T) {
	// drops, levels out and climbs back to the starting TVD
	points := Build([]well.DirectionalStation{station(0, 0, 60), station(100, 0, 120)})
	apex := 100 / (math.Pi / 3) * (1 - math.Cos(math.Pi/6))

	for name, idx := range map[string]*Index{
		"angled":        NewIndex(points),
		"position only": NewIndex(withoutAngles(points)),
	} {
		t.Run(name, func(t *testing.T) {
			if b := idx.Bounds(); math.Abs(b.MaxTVD-apex) > 1e-6 {
				t.Errorf("expected max TVD %.6f, got %.6f", apex, b.MaxTVD)
			}

			md, err := idx.MD(10)
			if err != nil {
				t.Fatalf("MD(10): %v", err)
			}
			if md <= 0 || md >= 50 {
				t.Errorf("expected first crossing before the apex, got %.6f", md)
			}
			if tvd, _ := idx.TVD(md); math.Abs(tvd-10) > 1e-6 {
				t.Errorf("expected TVD 10 at md %.6f, got %.6f", md, tvd)
			}

			_, err = idx.MD(apex + 0.01)
			assertOutOfRange(t, err)
		})
	}
}

func TestIndex_DuplicateMeasuredDepth(t *testing.T) {
	idx := NewIndex([]well.TrajectoryPoint{
		xyzPoint(0, 0, 0, 0),
		xyzPoint(10, 0, 0, 10),
		xyzPoint(10, 0, 0, 12),
		xyzPoint(20, 0, 0, 22),
	})

	tvd, err := idx.TVD(10)
	if err != nil {
		t.Fatalf("TVD(10): %v", err)
	}
	if tvd != 12 {
		t.Errorf("expected the later duplicate to win with 12, got %g", tvd)
	}

	md, err := idx.MD(11)
	if err != nil {
		t.Fatalf("MD(11): %v", err)
	}
	if md != 10 {
		t.Errorf("expected md 10 for a TVD inside the duplicate step, got %g", md)
	}

	if tvd, _ := idx.TVD(15); math.Abs(tvd-17) > tolerance {
		t.Errorf("expected TVD 17 at md 15, got %g", tvd)
	}
}

func TestNewCheckedIndex(t *testing.T) {
	tests := []struct {
		name    string
		points  []well.TrajectoryPoint
		wantErr bool
	}{
		{"ordered", []well.TrajectoryPoint{xyzPoint(0, 0, 0, 0), xyzPoint(10, 0, 0, 10), xyzPoint(20, 0, 0, 20)}, false},
		{"duplicate depth", []well.TrajectoryPoint{xyzPoint(0, 0, 0, 0), xyzPoint(10, 0, 0, 10), xyzPoint(10, 0, 0, 12)}, false},
		{"empty", nil, false},
		{"decreasing", []well.TrajectoryPoint{xyzPoint(0, 0, 0, 0), xyzPoint(20, 0, 0, 20), xyzPoint(10, 0, 0, 10)}, true},
		{"nan", []well.TrajectoryPoint{xyzPoint(0, 0, 0, 0), xyzPoint(math.NaN(), 0, 0, 10)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := NewCheckedIndex(tt.points)
			if tt.wantErr {
				if !errors.Is(err, ErrUnordered) {
					t.Fatalf("expected ErrUnordered, got %v", err)
				}
				if idx != nil {
					t.Error("expected no index on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx.Len() != len(tt.points) {
				t.Errorf("expected %d points, got %d", len(tt.points), idx.Len())
			}
		})
	}
}

func TestIndex_SinglePoint(t *testing.T) {
	idx := NewIndex([]well.TrajectoryPoint{xyzPoint(25, 1, 2, 24)})

	if tvd, err := idx.TVD(25); err != nil || tvd != 24 {
		t.Errorf("expected TVD 24, got %g (%v)", tvd, err)
	}
	if md, err := idx.MD(24); err != nil || md != 25 {
		t.Errorf("expected md 25, got %g (%v)", md, err)
	}

	_, err := idx.TVD(26)
	assertOutOfRange(t, err)
	_, err = idx.MD(23)
	assertOutOfRange(t, err)
}

func TestIndex_ConcurrentQueries(t *testing.T) {
	idx := NewIndex(Build(referenceStations()))
	want, err := idx.TVD(200)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := idx.TVD(200)
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- errors.New("concurrent query returned a different TVD")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
