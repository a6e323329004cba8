package survey

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	testCases := []struct {
		name     string
		header   []string
		expected string
	}{
		{"azimuth inclination", []string{"md", "azimuth", "inclination"}, "azinc"},
		{"aliases and case", []string{" Depth ", "AZ", "Inc"}, "azinc"},
		{"extra columns", []string{"comment", "md", "azimuth", "inclination", "tool"}, "azinc"},
		{"attitude", []string{"md", "roll", "pitch", "magnetic rotation"}, "pitchroll"},
		{"attitude wins over angles", []string{"md", "azimuth", "inclination", "roll", "pitch", "yaw"}, "pitchroll"},
		{"positions", []string{"x", "y", "z"}, "xyz"},
		{"positions with depth", []string{"measured depth", "east", "north", "tvd"}, "xyz"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Detect(tc.header)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Key() != tc.expected {
				t.Errorf("expected format %s, got %s", tc.expected, f.Key())
			}
		})
	}
}

func TestDetect_UnknownHeader(t *testing.T) {
	for _, header := range [][]string{nil, {"md", "azimuth"}, {"x", "y"}, {"md", "roll", "pitch"}} {
		if _, err := Detect(header); !errors.Is(err, ErrUnknownHeader) {
			t.Errorf("%v: expected ErrUnknownHeader, got %v", header, err)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, f := range Formats() {
		got, err := Lookup(" " + f.Key() + " ")
		if err != nil {
			t.Fatalf("Lookup(%s): %v", f.Key(), err)
		}
		if got.Key() != f.Key() {
			t.Errorf("expected %s, got %s", f.Key(), got.Key())
		}
	}

	if _, err := Lookup("survey"); err == nil {
		t.Error("expected error for an unknown format")
	}
}

func TestNewRow(t *testing.T) {
	row := NewRow([]string{"Depth", "Az", "Inc"}, []string{"10", "45"})

	if row[ColumnMD] != "10" || row[ColumnAzimuth] != "45" {
		t.Errorf("unexpected row %v", row)
	}
	if _, ok := row[ColumnInclination]; ok {
		t.Errorf("expected missing inclination to be left out, got %v", row)
	}
}

func TestRowError(t *testing.T) {
	_, err := AzInc{}.Parse([]Row{
		{ColumnMD: "0", ColumnAzimuth: "0", ColumnInclination: "0"},
		{ColumnMD: "10", ColumnAzimuth: "north", ColumnInclination: "0"},
	})

	if !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected *RowError, got %T", err)
	}
	if rowErr.Row != 1 || rowErr.Column != ColumnAzimuth {
		t.Errorf("expected row 1 column azimuth, got row %d column %s", rowErr.Row, rowErr.Column)
	}

	expected := `row 1: column "azimuth": invalid survey row: "north" is not a number`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
