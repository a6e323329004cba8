package survey

import "github.com/roman-kulish/borehole-survey/internal/well"

// PitchRoll reads measured depth with roll, pitch and magnetic rotation
// attitude angles in degrees.
type PitchRoll struct{}

var _ Adapter[well.AttitudeStation] = PitchRoll{}

func (PitchRoll) Key() string { return "pitchroll" }

func (PitchRoll) Name() string { return "Pitch / roll / magnetic rotation" }

func (PitchRoll) ExpectedHeader() []string {
	return []string{ColumnMD, ColumnRoll, ColumnPitch, ColumnRotation}
}

func (PitchRoll) Parse(rows []Row) ([]well.AttitudeStation, error) {
	stations := make([]well.AttitudeStation, 0, len(rows))

	var previous float64
	for i, row := range rows {
		md, err := parseDepth(row, i, previous)
		if err != nil {
			return nil, err
		}

		station := well.AttitudeStation{MeasuredDepth: md}
		angles := []struct {
			column string
			dst    *float64
		}{
			{ColumnRoll, &station.Roll},
			{ColumnPitch, &station.Pitch},
			{ColumnRotation, &station.Yaw},
		}
		for _, a := range angles {
			if *a.dst, err = parseAngle(row, i, a.column); err != nil {
				return nil, err
			}
		}

		stations = append(stations, station)
		previous = md
	}

	return stations, nil
}

// Directional parses rows and normalizes every attitude reading into a
// directional station.
func (p PitchRoll) Directional(rows []Row) ([]well.DirectionalStation, error) {
	attitudes, err := p.Parse(rows)
	if err != nil {
		return nil, err
	}

	stations := make([]well.DirectionalStation, len(attitudes))
	for i, a := range attitudes {
		stations[i] = Normalize(a)
	}
	return stations, nil
}
