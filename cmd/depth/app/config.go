package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// depthList collects repeated depth flags. A single flag also accepts a
// comma separated list.
type depthList []float64

func (l *depthList) String() string {
	if l == nil {
		return ""
	}
	s := make([]string, len(*l))
	for i, v := range *l {
		s[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(s, ",")
}

func (l *depthList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("invalid depth %q", part)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid depth %q", part)
		}
		*l = append(*l, v)
	}
	return nil
}

type Config struct {
	DBPath     string
	BoreholeID int64
	MD         []float64 // Measured depths to convert to TVD
	TVD        []float64 // True vertical depths to convert to MD
	Near       *float64  // Measured depth used to pick between TVD crossings
	All        bool      // Report every crossing of each TVD
	Verbose    bool
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	var c Config

	var md, tvd depthList
	var near float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.BoreholeID, "b", 0, "Borehole ID")
	fs.Var(&md, "md", "Measured depth to convert to TVD, repeatable (format nn.n[,nn.n])")
	fs.Var(&tvd, "tvd", "True vertical depth to convert to MD, repeatable (format nn.n[,nn.n])")
	fs.Float64Var(&near, "near", 0, "Pick the TVD crossing closest to this measured depth")
	fs.BoolVar(&c.All, "all", false, "Report every measured depth at which the trajectory crosses a TVD")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "near" {
			c.Near = &near
		}
	})

	c.MD, c.TVD = md, tvd

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.BoreholeID <= 0 {
		err = errors.New("borehole id is required")
	} else if len(c.MD) == 0 && len(c.TVD) == 0 {
		err = errors.New("at least one -md or -tvd query is required")
	} else if c.Near != nil && c.All {
		err = errors.New("-near and -all are mutually exclusive")
	}

	if err != nil {
		if fs.Output() != io.Discard {
			fs.Usage()
		}
		return nil, err
	}

	return &c, nil
}
