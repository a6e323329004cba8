package app

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewSectionPlot builds a vector plot of the section. Section views put
// TVD on an inverted vertical axis so depth grows downwards.
func NewSectionPlot(s *SectionData, noAnnotations bool) (*plot.Plot, error) {
	p := plot.New()

	xLabel, yLabel := s.axisLabels()
	if !noAnnotations {
		if s.Borehole != nil {
			p.Title.Text = fmt.Sprintf("%s (%s), MD %s - %s", s.Borehole.Name, s.Borehole.Format,
				humanMetres(s.MinMD), humanMetres(s.MaxMD))
		}
		p.X.Label.Text = xLabel + " (m)"
		p.Y.Label.Text = yLabel + " (m)"
		p.Add(plotter.NewGrid())
	} else {
		p.HideAxes()
	}

	if s.View != ViewPlan {
		p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	}

	path, err := plotter.NewLine(toXYs(s.Path))
	if err != nil {
		return nil, fmt.Errorf("creating path line: %w", err)
	}
	path.Color = pathColor
	path.Width = vg.Points(lineWidth)
	p.Add(path)

	stations, err := plotter.NewScatter(toXYs(s.Stations))
	if err != nil {
		return nil, fmt.Errorf("creating station markers: %w", err)
	}
	stations.GlyphStyle.Color = stationColor
	stations.GlyphStyle.Radius = vg.Points(stationSize / 2)
	stations.GlyphStyle.Shape = draw.BoxGlyph{}
	stations.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		style := stations.GlyphStyle
		style.Color = severityColor(s, i)
		return style
	}
	p.Add(stations)

	if !noAnnotations {
		p.Legend.Add("trajectory", path)
		p.Legend.Add("stations", stations)
		p.Legend.Top = true
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}

	return p, nil
}

// savePlot writes the plot to file in the format given by its extension.
func savePlot(p *plot.Plot, width, height int, file string) error {
	w := vg.Length(float64(width)/dpi) * vg.Inch
	h := vg.Length(float64(height)/dpi) * vg.Inch
	return p.Save(w, h, file)
}

func toXYs(points []r2.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}
