package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
	ImageSVG  ImageFormat = "svg"
	ImagePDF  ImageFormat = "pdf"
)

const (
	ViewSection View = "section"
	ViewPlan    View = "plan"
)

type ImageFormat string

// IsRaster reports whether the format is drawn pixel by pixel.
func (f ImageFormat) IsRaster() bool {
	return f == ImagePNG || f == ImageJPEG
}

type View string

type Config struct {
	DBPath        string
	BoreholeID    int64
	OutputFile    string
	Format        ImageFormat
	View          View
	Width         int
	Height        int
	Step          *float64
	Verbose       bool
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
	ImageSVG:  {},
	ImagePDF:  {},
}

var validViews = map[View]struct{}{
	ViewSection: {},
	ViewPlan:    {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		View:   ViewSection,
		Width:  1200,
		Height: 900,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, view string
	var step float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.BoreholeID, "b", 0, "Borehole ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg, svg, pdf]")
	fs.StringVar(&view, "view", string(ViewSection), "Projection. [section, plan]")
	fs.IntVar(&c.Width, "width", c.Width, "Image width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "Image height in pixels")
	fs.Float64Var(&step, "step", 0, "Measured depth between curve samples (format nn.n)")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as depth scales and the info bar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)
	view = strings.ToLower(view)

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "step" {
			c.Step = &step
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.BoreholeID <= 0 {
		err = errors.New("borehole id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validViews[View(view)]; !ok {
		err = fmt.Errorf("invalid view: %s", view)
	} else if c.Width < 200 || c.Height < 200 {
		err = fmt.Errorf("image size %dx%d is too small", c.Width, c.Height)
	} else if c.Step != nil && *c.Step <= 0 {
		err = fmt.Errorf("invalid step: %g", *c.Step)
	}

	if err != nil {
		if fs.Output() != io.Discard {
			fs.Usage()
		}
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.View = View(view)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
