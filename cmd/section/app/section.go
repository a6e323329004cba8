package app

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/roman-kulish/borehole-survey/internal/trajectory"
	"github.com/roman-kulish/borehole-survey/internal/well"
)

const (
	defaultSamples     = 2000
	doglegCourseLength = 30
)

// SectionData is a trajectory projected onto the drawing plane of a view.
type SectionData struct {
	View     View
	Borehole *well.Borehole

	// Azimuth of the vertical section plane in radians, section view only
	Azimuth float64

	Path     []r2.Vec // densified curve, in MD order
	Stations []r2.Vec // stored points

	// Dogleg severity arriving at each stored point in degrees per
	// doglegCourseLength, nil when the trajectory carries no angles
	Severity    []float64
	MaxSeverity float64

	MinX, MaxX float64
	MinY, MaxY float64

	MinMD, MaxMD float64
	MaxTVD       float64
}

// axisLabels returns the horizontal and vertical axis titles.
func (s *SectionData) axisLabels() (string, string) {
	if s.View == ViewPlan {
		return "East", "North"
	}
	return fmt.Sprintf("Displacement @ %.1f°", well.Degrees(s.Azimuth)), "TVD"
}

// NewSectionData projects points onto the plane of view. The curve between
// stored points is sampled through the depth index every step units of
// measured depth; a zero step spreads defaultSamples over the whole depth.
func NewSectionData(points []well.TrajectoryPoint, view View, step float64) (*SectionData, error) {
	if len(points) == 0 {
		return nil, errors.New("empty trajectory")
	}

	idx, err := trajectory.NewCheckedIndex(points)
	if err != nil {
		return nil, err
	}
	bounds := idx.Bounds()
	if step <= 0 {
		step = (bounds.MaxMD - bounds.MinMD) / defaultSamples
	}

	first, last := points[0], points[len(points)-1]
	s := SectionData{
		View:   view,
		MinMD:  bounds.MinMD,
		MaxMD:  bounds.MaxMD,
		MaxTVD: bounds.MaxTVD,
		MinX:   math.Inf(1),
		MaxX:   math.Inf(-1),
		MinY:   math.Inf(1),
		MaxY:   math.Inf(-1),
	}
	if dx, dy := last.X-first.X, last.Y-first.Y; dx != 0 || dy != 0 {
		s.Azimuth = math.Atan2(dx, dy)
		if s.Azimuth < 0 {
			s.Azimuth += 2 * math.Pi
		}
	}

	for i, p := range points {
		s.add(&s.Stations, p.X-first.X, p.Y-first.Y, p.Z)
		s.add(&s.Path, p.X-first.X, p.Y-first.Y, p.Z)

		if i+1 == len(points) || step <= 0 {
			continue
		}

		// interior samples between this point and the next
		course := points[i+1].MeasuredDepth - p.MeasuredDepth
		n := int(math.Ceil(course / step))
		for k := 1; k < n; k++ {
			pos, err := idx.Position(p.MeasuredDepth + course*float64(k)/float64(n))
			if err != nil {
				return nil, fmt.Errorf("sampling trajectory: %w", err)
			}
			s.add(&s.Path, pos.X-first.X, pos.Y-first.Y, pos.Z)
		}
	}

	s.Severity, s.MaxSeverity = doglegSeverities(points)
	return &s, nil
}

func doglegSeverities(points []well.TrajectoryPoint) ([]float64, float64) {
	stations := make([]well.DirectionalStation, len(points))
	for i, p := range points {
		if !p.HasAngles() {
			return nil, 0
		}
		stations[i] = well.DirectionalStation{
			MeasuredDepth: p.MeasuredDepth,
			Azimuth:       *p.Azimuth,
			Inclination:   *p.Inclination,
		}
	}

	severity := make([]float64, len(stations))
	var maxSeverity float64
	for i := 1; i < len(stations); i++ {
		severity[i] = trajectory.DoglegSeverity(stations[i-1], stations[i], doglegCourseLength)
		maxSeverity = max(maxSeverity, severity[i])
	}
	return severity, maxSeverity
}

func (s *SectionData) add(dst *[]r2.Vec, east, north, tvd float64) {
	var v r2.Vec
	switch s.View {
	case ViewPlan:
		v = r2.Vec{X: east, Y: north}
	default:
		sin, cos := math.Sincos(s.Azimuth)
		v = r2.Vec{X: east*sin + north*cos, Y: tvd}
	}

	s.MinX, s.MaxX = min(s.MinX, v.X), max(s.MaxX, v.X)
	s.MinY, s.MaxY = min(s.MinY, v.Y), max(s.MaxY, v.Y)
	*dst = append(*dst, v)
}
