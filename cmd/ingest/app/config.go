package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/borehole-survey/internal/survey"
)

const (
	defaultDataDirectory = "data"
	defaultDelimiter     = ','
	defaultDecimal       = "."
)

// LogLevel is a slog level read from its text form ("debug", "info", ...)
type LogLevel slog.Level

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("app.LogLevel: failed to parse: %s", err)
	}

	*l = LogLevel(level)
	return nil
}

func (l LogLevel) Level() slog.Level {
	return slog.Level(l)
}

// Delimiter is a single field separator character. The word "tab" is
// accepted for tab separated files.
type Delimiter rune

func (d *Delimiter) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "tab" || value.Value == `\t` {
		*d = '\t'
		return nil
	}

	r, size := utf8.DecodeRuneInString(value.Value)
	if r == utf8.RuneError || size != len(value.Value) {
		return fmt.Errorf("app.Delimiter: expected a single character, got %q", value.Value)
	}

	*d = Delimiter(r)
	return nil
}

// Config represents the main application configuration
type Config struct {
	Settings  Settings         `yaml:"settings"`
	Storage   StorageConfig    `yaml:"storage"`
	Import    ImportConfig     `yaml:"import"`
	Boreholes []BoreholeConfig `yaml:"boreholes"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel LogLevel `yaml:"logLevel"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	Database      string `yaml:"database"` // File name inside DataDirectory, timestamped when empty
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// ImportConfig describes how survey files are read
type ImportConfig struct {
	Delimiter        Delimiter `yaml:"delimiter"`
	DecimalSeparator string    `yaml:"decimalSeparator"` // "." or ","
	Workers          int       `yaml:"workers"`          // Files parsed in parallel, defaults to the number of CPUs
}

// BoreholeConfig represents a single survey file to import
type BoreholeConfig struct {
	Name   string        `yaml:"name"`
	File   string        `yaml:"file"`
	Format string        `yaml:"format"` // Detected from the header when empty
	Origin *OriginConfig `yaml:"origin"`
}

// OriginConfig is the collar position of angle-based surveys
type OriginConfig struct {
	X float64 `yaml:"x" json:"x"` // East
	Y float64 `yaml:"y" json:"y"` // North
	Z float64 `yaml:"z" json:"z"` // True vertical depth
}

// LoadConfig reads and validates the configuration file at path. Relative
// survey file paths are resolved against the directory of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := Config{
		Settings: Settings{LogLevel: LogLevel(slog.LevelInfo)},
		Storage:  StorageConfig{DataDirectory: defaultDataDirectory},
		Import: ImportConfig{
			Delimiter:        defaultDelimiter,
			DecimalSeparator: defaultDecimal,
			Workers:          runtime.NumCPU(),
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	base := filepath.Dir(path)
	for i := range config.Boreholes {
		if f := config.Boreholes[i].File; f != "" && !filepath.IsAbs(f) {
			config.Boreholes[i].File = filepath.Join(base, f)
		}
	}
	if !filepath.IsAbs(config.Storage.DataDirectory) {
		config.Storage.DataDirectory = filepath.Join(base, config.Storage.DataDirectory)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if len(c.Boreholes) == 0 {
		return errors.New("no boreholes specified in configuration")
	}
	if c.Storage.MaxBatchSize < 0 {
		return fmt.Errorf("invalid max batch size: %d", c.Storage.MaxBatchSize)
	}
	if c.Import.Workers < 1 {
		return fmt.Errorf("invalid number of workers: %d", c.Import.Workers)
	}

	switch c.Import.DecimalSeparator {
	case ".":
	case ",":
		if c.Import.Delimiter == ',' {
			return errors.New("decimal separator ',' requires a different delimiter")
		}
	default:
		return fmt.Errorf("invalid decimal separator: %q", c.Import.DecimalSeparator)
	}

	names := make(map[string]struct{}, len(c.Boreholes))
	for i, b := range c.Boreholes {
		if b.Name == "" {
			return fmt.Errorf("borehole %d: name is required", i)
		}
		if _, ok := names[b.Name]; ok {
			return fmt.Errorf("borehole %s: duplicate name", b.Name)
		}
		names[b.Name] = struct{}{}

		if b.File == "" {
			return fmt.Errorf("borehole %s: file is required", b.Name)
		}
		if b.Format != "" {
			if _, err := survey.Lookup(b.Format); err != nil {
				return fmt.Errorf("borehole %s: %w", b.Name, err)
			}
		}
	}

	return nil
}
