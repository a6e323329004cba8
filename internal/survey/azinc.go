package survey

import "github.com/roman-kulish/borehole-survey/internal/well"

// AzInc reads measured depth, azimuth and inclination in degrees.
type AzInc struct{}

var _ Adapter[well.DirectionalStation] = AzInc{}

func (AzInc) Key() string { return "azinc" }

func (AzInc) Name() string { return "Azimuth / inclination" }

func (AzInc) ExpectedHeader() []string {
	return []string{ColumnMD, ColumnAzimuth, ColumnInclination}
}

func (AzInc) Parse(rows []Row) ([]well.DirectionalStation, error) {
	stations := make([]well.DirectionalStation, 0, len(rows))

	var previous float64
	for i, row := range rows {
		md, err := parseDepth(row, i, previous)
		if err != nil {
			return nil, err
		}
		az, err := parseAngle(row, i, ColumnAzimuth)
		if err != nil {
			return nil, err
		}
		inc, err := parseAngle(row, i, ColumnInclination)
		if err != nil {
			return nil, err
		}

		stations = append(stations, well.DirectionalStation{
			MeasuredDepth: md,
			Azimuth:       az,
			Inclination:   inc,
		})
		previous = md
	}

	return stations, nil
}
