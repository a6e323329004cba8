package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// severityColor maps dogleg severity onto a cold-to-hot hue ramp. Markers
// without severity data keep the plain station colour.
func severityColor(s *SectionData, i int) color.Color {
	if s.Severity == nil || i >= len(s.Severity) || s.MaxSeverity <= 0 {
		return stationColor
	}

	hue := hueStart - s.Severity[i]/s.MaxSeverity*(hueStart-hueEnd)
	hue = math.Min(math.Max(hue, hueEnd), hueStart)

	return colorful.Hsv(hue, 1, 0.90)
}
