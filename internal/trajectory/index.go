package trajectory

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// Bounds is the domain of the depth queries of an Index.
type Bounds struct {
	MinMD, MaxMD   float64
	MinTVD, MaxTVD float64 // includes TVD extremes reached between stored points
}

// Index answers depth-conversion queries against a finished trajectory.
//
// Each segment between consecutive points is modelled the way it was built:
// segments whose both ends carry azimuth and inclination follow the
// minimum-curvature arc, segments from position-only data follow a
// constant-curvature arc fitted to the endpoints and the measured-depth
// difference. Segment models are computed once by NewIndex; an Index is
// immutable and safe for concurrent use.
type Index struct {
	points   []well.TrajectoryPoint
	segments []segment
	bounds   Bounds
}

// NewIndex builds an Index over points, which must be ordered by
// non-decreasing measured depth. The order is not checked: unordered points
// give wrong answers without an error. Use NewCheckedIndex for input that
// was not produced by Build or Convert. The slice is copied.
func NewIndex(points []well.TrajectoryPoint) *Index {
	idx := &Index{points: slices.Clone(points)}
	if len(points) == 0 {
		return idx
	}

	idx.bounds = Bounds{
		MinMD:  points[0].MeasuredDepth,
		MaxMD:  points[len(points)-1].MeasuredDepth,
		MinTVD: math.Inf(1),
		MaxTVD: math.Inf(-1),
	}
	for _, p := range points {
		idx.bounds.MinTVD = min(idx.bounds.MinTVD, p.Z)
		idx.bounds.MaxTVD = max(idx.bounds.MaxTVD, p.Z)
	}

	var incoming r3.Vec
	for i := 0; i+1 < len(points); i++ {
		seg := newSegment(points[i], points[i+1], incoming, idx.chordAfter(i+1))
		if seg.length > 0 && r3.Norm(seg.endDir) > 0 {
			incoming = seg.endDir
		}

		lo, hi := seg.tvdRange()
		idx.bounds.MinTVD = min(idx.bounds.MinTVD, lo)
		idx.bounds.MaxTVD = max(idx.bounds.MaxTVD, hi)

		idx.segments = append(idx.segments, seg)
	}

	return idx
}

// NewCheckedIndex is NewIndex for points of unknown order. It returns
// ErrUnordered when a point has a smaller measured depth than the one
// before it, or when a measured depth is NaN.
func NewCheckedIndex(points []well.TrajectoryPoint) (*Index, error) {
	for i, p := range points {
		if math.IsNaN(p.MeasuredDepth) {
			return nil, fmt.Errorf("point %d: measured depth is NaN: %w", i, ErrUnordered)
		}
		if i > 0 && p.MeasuredDepth < points[i-1].MeasuredDepth {
			return nil, fmt.Errorf("point %d: measured depth %g after %g: %w",
				i, p.MeasuredDepth, points[i-1].MeasuredDepth, ErrUnordered)
		}
	}
	return NewIndex(points), nil
}

// chordAfter returns the unit direction from point i to the next point at a
// different position, or the zero vector.
func (idx *Index) chordAfter(i int) r3.Vec {
	from := pointVec(idx.points[i])
	for _, p := range idx.points[i+1:] {
		d := r3.Sub(pointVec(p), from)
		if n := r3.Norm(d); n > 0 {
			return r3.Scale(1/n, d)
		}
	}
	return r3.Vec{}
}

// Len returns the number of stored points.
func (idx *Index) Len() int {
	return len(idx.points)
}

// Bounds returns the query domain. It is the zero value for an empty index.
func (idx *Index) Bounds() Bounds {
	return idx.bounds
}

// Position returns the interpolated position at measured depth md.
func (idx *Index) Position(md float64) (r3.Vec, error) {
	if len(idx.points) == 0 {
		return r3.Vec{}, &RangeError{Query: "md", Value: md, Err: ErrEmptyTrajectory}
	}
	if math.IsNaN(md) || md < idx.bounds.MinMD || md > idx.bounds.MaxMD {
		return r3.Vec{}, &RangeError{Query: "md", Value: md, Min: idx.bounds.MinMD, Max: idx.bounds.MaxMD, Err: ErrOutOfRange}
	}

	// first point deeper than md; the one before it is at or above md
	i := sort.Search(len(idx.points), func(i int) bool {
		return idx.points[i].MeasuredDepth > md
	})
	if p := idx.points[i-1]; p.MeasuredDepth == md {
		return pointVec(p), nil
	}

	seg := &idx.segments[i-1]
	return seg.position(md - seg.startMD), nil
}

// TVD returns the true vertical depth at measured depth md. A query on a
// stored measured depth returns the stored TVD; with duplicate stations the
// later one wins.
func (idx *Index) TVD(md float64) (float64, error) {
	pos, err := idx.Position(md)
	if err != nil {
		return 0, err
	}
	return pos.Z, nil
}

// MD returns the measured depth at which the trajectory first reaches true
// vertical depth tvd. When the path revisits tvd further down, only the
// shallowest measured depth is reported.
func (idx *Index) MD(tvd float64) (float64, error) {
	crossings, err := idx.crossings(tvd, true)
	if err != nil {
		return 0, err
	}
	return crossings[0], nil
}

// MDNear is MD with a different tie-break: among all measured depths at which
// the trajectory reaches tvd, it returns the one closest to hint.
func (idx *Index) MDNear(tvd, hint float64) (float64, error) {
	crossings, err := idx.crossings(tvd, false)
	if err != nil {
		return 0, err
	}

	best := crossings[0]
	for _, md := range crossings[1:] {
		if math.Abs(md-hint) < math.Abs(best-hint) {
			best = md
		}
	}
	return best, nil
}

// Crossings returns every measured depth at which the trajectory reaches tvd,
// one per monotonic stretch, in increasing order.
func (idx *Index) Crossings(tvd float64) ([]float64, error) {
	return idx.crossings(tvd, false)
}

func (idx *Index) crossings(tvd float64, firstOnly bool) ([]float64, error) {
	if len(idx.points) == 0 {
		return nil, &RangeError{Query: "tvd", Value: tvd, Err: ErrEmptyTrajectory}
	}
	outOfRange := &RangeError{Query: "tvd", Value: tvd, Min: idx.bounds.MinTVD, Max: idx.bounds.MaxTVD, Err: ErrOutOfRange}
	if math.IsNaN(tvd) || tvd < idx.bounds.MinTVD || tvd > idx.bounds.MaxTVD {
		return nil, outOfRange
	}

	if len(idx.segments) == 0 {
		if idx.points[0].Z == tvd {
			return []float64{idx.points[0].MeasuredDepth}, nil
		}
		return nil, outOfRange
	}

	var found []float64
	for i := range idx.segments {
		seg := &idx.segments[i]
		for _, s := range seg.crossings(tvd) {
			md := seg.startMD + s
			if n := len(found); n > 0 && found[n-1] == md {
				continue
			}
			found = append(found, md)
			if firstOnly {
				return found, nil
			}
		}
	}

	if len(found) == 0 {
		return nil, outOfRange
	}
	return found, nil
}
