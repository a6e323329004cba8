package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/borehole-survey/internal/survey"
	"github.com/roman-kulish/borehole-survey/internal/well"
)

// Survey is the result of converting one survey file.
type Survey struct {
	Format   survey.Format
	Stations []well.DirectionalStation // nil for position-only formats
	Points   []well.TrajectoryPoint
}

// ConvertOption configures Convert.
type ConvertOption func(*convertOptions)

type convertOptions struct {
	origin r3.Vec
}

// WithOrigin places the first point of angle-based surveys at origin instead
// of the local origin. Position-only surveys keep their own coordinates.
func WithOrigin(origin r3.Vec) ConvertOption {
	return func(o *convertOptions) {
		o.origin = origin
	}
}

// Convert runs rows of the given format through the adapter, the attitude
// normalizer when needed, and the minimum-curvature builder.
func Convert(format survey.Format, rows []survey.Row, options ...ConvertOption) (*Survey, error) {
	var opts convertOptions
	for _, option := range options {
		option(&opts)
	}

	result := Survey{Format: format}

	var err error
	switch f := format.(type) {
	case survey.AzInc:
		result.Stations, err = f.Parse(rows)

	case survey.PitchRoll:
		result.Stations, err = f.Directional(rows)

	case survey.XYZ:
		if result.Points, err = f.Parse(rows); err != nil {
			return nil, fmt.Errorf("parsing %s survey: %w", f.Key(), err)
		}
		return &result, nil

	default:
		return nil, fmt.Errorf("converting survey: unsupported format %T", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s survey: %w", format.Key(), err)
	}

	result.Points = BuildFrom(opts.origin, result.Stations)
	return &result, nil
}

// MaxDoglegSeverity returns the largest dogleg severity between consecutive
// stations, in degrees per courseLength, and the measured depth it ends at.
func MaxDoglegSeverity(stations []well.DirectionalStation, courseLength float64) (dls, md float64) {
	for i := 1; i < len(stations); i++ {
		if v := DoglegSeverity(stations[i-1], stations[i], courseLength); v > dls {
			dls, md = v, stations[i].MeasuredDepth
		}
	}
	return dls, md
}
