package survey

import (
	"math"
	"slices"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// XYZ reads absolute positions. The md column is optional; without it the
// measured depth of each point is the cumulative straight-line distance from
// the first point, which leaves no room for detectable curvature. Once any
// row carries md, every row must.
type XYZ struct{}

var _ Adapter[well.TrajectoryPoint] = XYZ{}

func (XYZ) Key() string { return "xyz" }

func (XYZ) Name() string { return "Raw X / Y / Z" }

func (XYZ) ExpectedHeader() []string {
	return []string{ColumnMD, ColumnX, ColumnY, ColumnZ}
}

func (XYZ) Parse(rows []Row) ([]well.TrajectoryPoint, error) {
	if len(rows) == 0 {
		return []well.TrajectoryPoint{}, nil
	}

	withMD := slices.ContainsFunc(rows, func(row Row) bool {
		_, ok := row[ColumnMD]
		return ok
	})

	points := make([]well.TrajectoryPoint, 0, len(rows))
	for i, row := range rows {
		var p well.TrajectoryPoint
		var err error

		if p.X, err = parseValue(row, i, ColumnX); err != nil {
			return nil, err
		}
		if p.Y, err = parseValue(row, i, ColumnY); err != nil {
			return nil, err
		}
		if p.Z, err = parseValue(row, i, ColumnZ); err != nil {
			return nil, err
		}

		switch {
		case withMD:
			var previous float64
			if i > 0 {
				previous = points[i-1].MeasuredDepth
			}
			if p.MeasuredDepth, err = parseDepth(row, i, previous); err != nil {
				return nil, err
			}

		case i > 0:
			prev := points[i-1]
			p.MeasuredDepth = prev.MeasuredDepth + math.Sqrt(
				(p.X-prev.X)*(p.X-prev.X)+(p.Y-prev.Y)*(p.Y-prev.Y)+(p.Z-prev.Z)*(p.Z-prev.Z))
		}

		points = append(points, p)
	}

	return points, nil
}
