package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// Canonical column names
const (
	ColumnMD          = "md"
	ColumnAzimuth     = "azimuth"
	ColumnInclination = "inclination"
	ColumnRoll        = "roll"
	ColumnPitch       = "pitch"
	ColumnRotation    = "rotation"
	ColumnX           = "x"
	ColumnY           = "y"
	ColumnZ           = "z"
)

var columnAliases = map[string]string{
	"depth":             ColumnMD,
	"measured depth":    ColumnMD,
	"measured_depth":    ColumnMD,
	"az":                ColumnAzimuth,
	"azi":               ColumnAzimuth,
	"inc":               ColumnInclination,
	"yaw":               ColumnRotation,
	"magnetic rotation": ColumnRotation,
	"east":              ColumnX,
	"north":             ColumnY,
	"tvd":               ColumnZ,
}

// Row maps canonical column names to the raw decimal text of one record.
// Decimal separators are expected to be normalized to '.' by the caller.
type Row map[string]string

// Station is the set of record types produced by the adapters.
type Station interface {
	well.DirectionalStation | well.AttitudeStation | well.TrajectoryPoint
}

// Format identifies a field-measurement convention.
type Format interface {
	// Key is the short, stable identifier used in configuration and storage.
	Key() string

	// Name is a human-readable description.
	Name() string

	// ExpectedHeader lists the canonical columns, in the conventional order.
	ExpectedHeader() []string
}

// Adapter parses rows of a specific format into typed stations.
type Adapter[T Station] interface {
	Format
	Parse(rows []Row) ([]T, error)
}

// formats in detection priority order
var formats = []Format{
	PitchRoll{},
	AzInc{},
	XYZ{},
}

// Formats returns all supported survey formats.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// Lookup returns the format registered under key.
func Lookup(key string) (Format, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range formats {
		if f.Key() == key {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown survey format '%s'", key)
}

// Detect returns the first format whose expected columns are all present in
// header. Column names are compared after canonicalization.
func Detect(header []string) (Format, error) {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[CanonicalColumn(h)] = struct{}{}
	}

	for _, f := range formats {
		if hasColumns(present, requiredColumns(f)) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, strings.Join(header, ", "))
}

// CanonicalColumn lower-cases and trims name and resolves known aliases.
func CanonicalColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := columnAliases[name]; ok {
		return alias
	}
	return name
}

// NewRow pairs a record with its header. Values beyond the header are
// dropped, missing values are left out of the row.
func NewRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if i >= len(record) {
			break
		}
		row[CanonicalColumn(h)] = record[i]
	}
	return row
}

func requiredColumns(f Format) []string {
	if _, ok := f.(XYZ); ok {
		return []string{ColumnX, ColumnY, ColumnZ}
	}
	return f.ExpectedHeader()
}

func hasColumns(present map[string]struct{}, columns []string) bool {
	for _, c := range columns {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

func parseValue(row Row, index int, column string) (float64, error) {
	raw, ok := row[column]
	if !ok {
		return 0, rowError(index, column, "missing value")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, rowError(index, column, "%q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rowError(index, column, "%q is not a finite number", raw)
	}
	return v, nil
}

func parseAngle(row Row, index int, column string) (float64, error) {
	deg, err := parseValue(row, index, column)
	if err != nil {
		return 0, err
	}
	return well.Radians(deg), nil
}

func parseDepth(row Row, index int, previous float64) (float64, error) {
	md, err := parseValue(row, index, ColumnMD)
	if err != nil {
		return 0, err
	}
	if md < 0 {
		return 0, rowError(index, ColumnMD, "measured depth %g is negative", md)
	}
	if index > 0 && md < previous {
		return 0, rowError(index, ColumnMD, "measured depth %g is less than previous %g", md, previous)
	}
	return md, nil
}
