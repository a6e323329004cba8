package trajectory

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

const (
	// straightTolerance is the relative gap between arc length and chord
	// below which a position-only segment is treated as a straight line.
	straightTolerance = 1e-12

	// parallelTolerance is the minimum length of a perpendicular component
	// accepted as a bend direction.
	parallelTolerance = 1e-9

	bisectIterations = 200
)

type segmentKind uint8

const (
	// segmentAngled is interpolated with the minimum-curvature step towards a
	// virtual station, using the stored angles of both ends.
	segmentAngled segmentKind = iota

	// segmentPositionOnly is interpolated along a constant-curvature arc fitted
	// to the stored positions and the measured-depth difference.
	segmentPositionOnly
)

var (
	down  = r3.Vec{Z: 1}
	north = r3.Vec{Y: 1}
)

// segment caches the curve model between two consecutive trajectory points.
// Positions along the segment are addressed by s, the measured depth past
// the start point.
type segment struct {
	kind segmentKind

	startMD float64
	length  float64 // measured-depth difference
	start   r3.Vec
	end     r3.Vec

	// linear segments interpolate straight between start and end
	linear bool

	beta      float64 // dogleg across the segment
	radius    float64 // length / beta, position-only arcs
	startDir  r3.Vec  // unit tangent at start
	centreDir r3.Vec  // unit normal at start pointing to the arc centre
	endDir    r3.Vec  // unit tangent at end, zero when unknown

	from well.DirectionalStation // start station, angled segments only
}

func pointVec(p well.TrajectoryPoint) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func stationOf(p well.TrajectoryPoint) well.DirectionalStation {
	return well.DirectionalStation{
		MeasuredDepth: p.MeasuredDepth,
		Azimuth:       *p.Azimuth,
		Inclination:   *p.Inclination,
	}
}

// newSegment models the course from a to b. incoming is the tangent at a
// implied by the previous segment and nextChord the direction from b to the
// following point; either may be the zero vector.
func newSegment(a, b well.TrajectoryPoint, incoming, nextChord r3.Vec) segment {
	seg := segment{
		startMD: a.MeasuredDepth,
		length:  b.MeasuredDepth - a.MeasuredDepth,
		start:   pointVec(a),
		end:     pointVec(b),
	}

	if a.HasAngles() && b.HasAngles() {
		seg.initAngled(stationOf(a), stationOf(b))
	} else {
		seg.initPositionOnly(incoming, nextChord)
	}
	return seg
}

func (seg *segment) initAngled(from, to well.DirectionalStation) {
	seg.kind = segmentAngled
	seg.from = from
	seg.beta = Dogleg(from, to)
	seg.startDir = tangent(from)
	seg.endDir = tangent(to)

	sinBeta := math.Sin(seg.beta)
	switch {
	case seg.beta == 0:
		// straight course, no bend direction

	case sinBeta < parallelTolerance:
		// reversal: the great circle between the two directions is undefined
		seg.linear = true

	default:
		seg.centreDir = r3.Scale(1/sinBeta, r3.Sub(seg.endDir, r3.Scale(math.Cos(seg.beta), seg.startDir)))
	}
}

func (seg *segment) initPositionOnly(incoming, nextChord r3.Vec) {
	seg.kind = segmentPositionOnly

	delta := r3.Sub(seg.end, seg.start)
	chord := r3.Norm(delta)
	if chord == 0 || seg.length <= 0 || seg.length-chord <= straightTolerance*max(1, seg.length) {
		seg.linear = true
		if chord > 0 {
			seg.startDir = r3.Scale(1/chord, delta)
			seg.endDir = seg.startDir
		}
		return
	}

	u := r3.Scale(1/chord, delta)
	seg.beta = solveDogleg(chord / seg.length)
	seg.radius = seg.length / seg.beta

	// The bend is the side of the chord holding the arc centre. The start
	// tangent leans away from it and the end tangent towards it. Without
	// neighbours the well is assumed to enter the segment heading down.
	// Positions laid out by a minimum-curvature build are refitted onto the
	// arc they came from, since the incoming tangent fixes the same plane.
	var bend r3.Vec
	if n, ok := perpendicular(incoming, u); ok {
		bend = r3.Scale(-1, n)
	} else if n, ok := perpendicular(nextChord, u); ok {
		bend = n
	} else if n, ok := perpendicular(down, u); ok {
		bend = r3.Scale(-1, n)
	} else {
		bend, _ = perpendicular(north, u)
	}

	sinHalf, cosHalf := math.Sincos(seg.beta / 2)
	seg.startDir = r3.Add(r3.Scale(cosHalf, u), r3.Scale(-sinHalf, bend))
	seg.centreDir = r3.Add(r3.Scale(sinHalf, u), r3.Scale(cosHalf, bend))
	seg.endDir = seg.direction(seg.beta)
}

// perpendicular returns the unit component of v orthogonal to unit vector u.
func perpendicular(v, u r3.Vec) (r3.Vec, bool) {
	p := r3.Sub(v, r3.Scale(r3.Dot(v, u), u))
	n := r3.Norm(p)
	if n < parallelTolerance {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, p), true
}

// solveDogleg finds beta with sin(beta/2)/(beta/2) = ratio, ratio in (0, 1),
// by bisecting on the half angle. sin(x)/x falls monotonically from 1 to 0 on
// (0, π).
func solveDogleg(ratio float64) float64 {
	lo, hi := 0.0, math.Pi
	for range bisectIterations {
		mid := (lo + hi) / 2
		if math.Sin(mid)/mid > ratio {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo <= 1e-16 {
			break
		}
	}
	return lo + hi
}

// direction returns the unit tangent after turning theta along the arc.
func (seg *segment) direction(theta float64) r3.Vec {
	sin, cos := math.Sincos(theta)
	return r3.Add(r3.Scale(cos, seg.startDir), r3.Scale(sin, seg.centreDir))
}

// position returns the point s units of measured depth past the start.
func (seg *segment) position(s float64) r3.Vec {
	switch {
	case s <= 0:
		return seg.start
	case s >= seg.length:
		return seg.end
	case seg.linear:
		return r3.Add(seg.start, r3.Scale(s/seg.length, r3.Sub(seg.end, seg.start)))
	case seg.kind == segmentAngled:
		return r3.Add(seg.start, displacement(seg.from, seg.virtualStation(s)))
	default:
		theta := seg.beta * s / seg.length
		sin, cos := math.Sincos(theta)
		return r3.Add(seg.start, r3.Scale(seg.radius, r3.Add(r3.Scale(sin, seg.startDir), r3.Scale(1-cos, seg.centreDir))))
	}
}

// virtualStation is the station an angled segment would have recorded s past
// its start: the direction turned by the same fraction of the dogleg.
func (seg *segment) virtualStation(s float64) well.DirectionalStation {
	v := well.DirectionalStation{
		MeasuredDepth: seg.startMD + s,
		Azimuth:       seg.from.Azimuth,
		Inclination:   seg.from.Inclination,
	}
	if seg.beta == 0 {
		return v
	}

	dir := seg.direction(seg.beta * s / seg.length)
	v.Inclination = math.Acos(max(-1, min(1, dir.Z)))
	if math.Hypot(dir.X, dir.Y) > 0 {
		v.Azimuth = math.Atan2(dir.X, dir.Y)
	}
	return v
}

// breakpoints returns 0, length and every interior s where the tangent is
// horizontal, sorted. TVD is monotonic between consecutive breakpoints.
func (seg *segment) breakpoints() []float64 {
	points := []float64{0}
	if !seg.linear && seg.beta > 0 && seg.length > 0 {
		a, b := seg.startDir.Z, seg.centreDir.Z
		if math.Abs(a)+math.Abs(b) > 0 {
			// cos(θ)·a + sin(θ)·b = 0
			theta := math.Atan2(-a, b)
			if theta < 0 {
				theta += math.Pi
			}
			for ; theta < seg.beta; theta += math.Pi {
				if theta > 0 {
					points = append(points, theta/seg.beta*seg.length)
				}
			}
		}
	}
	return append(points, seg.length)
}

// tvdRange returns the shallowest and deepest TVD reached on the segment.
func (seg *segment) tvdRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range seg.breakpoints() {
		z := seg.position(s).Z
		lo, hi = min(lo, z), max(hi, z)
	}
	return lo, hi
}

// crossings returns, for every monotonic piece of the segment, the first s
// where TVD equals tvd, in increasing order.
func (seg *segment) crossings(tvd float64) []float64 {
	if seg.length <= 0 {
		if between(tvd, seg.start.Z, seg.end.Z) {
			return []float64{0}
		}
		return nil
	}

	var found []float64
	bps := seg.breakpoints()
	for i := 0; i+1 < len(bps); i++ {
		s0, s1 := bps[i], bps[i+1]
		z0, z1 := seg.position(s0).Z, seg.position(s1).Z

		var s float64
		switch {
		case z0 == tvd:
			s = s0
		case z1 == tvd:
			s = s1
		case between(tvd, z0, z1):
			s = seg.bisect(tvd, s0, s1, z1 > z0)
		default:
			continue
		}
		if n := len(found); n == 0 || found[n-1] != s {
			found = append(found, s)
		}
	}
	return found
}

func (seg *segment) bisect(tvd, lo, hi float64, increasing bool) float64 {
	for range bisectIterations {
		mid := (lo + hi) / 2
		if (seg.position(mid).Z < tvd) == increasing {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo <= 1e-12*max(1, seg.length) {
			break
		}
	}
	return (lo + hi) / 2
}

func between(v, a, b float64) bool {
	return min(a, b) <= v && v <= max(a, b)
}
