package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roman-kulish/borehole-survey/internal/survey"
)

// SurveyFile is the content of one delimited survey file.
type SurveyFile struct {
	Header []string
	Rows   []survey.Row
}

// ReadSurveyFile opens and reads the survey file at path.
func ReadSurveyFile(path string, config ImportConfig) (*SurveyFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadSurvey(f, config)
}

// ReadSurvey reads a delimited survey with a header line. Lines starting
// with '#' are skipped. Decimal commas are rewritten to points so values
// can be handed to the survey adapters as-is.
func ReadSurvey(r io.Reader, config ImportConfig) (*SurveyFile, error) {
	cr := csv.NewReader(r)
	cr.Comma = rune(config.Delimiter)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	s := SurveyFile{Header: make([]string, len(header))}
	for i, h := range header {
		s.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if isBlank(record) {
			continue
		}

		if config.DecimalSeparator == "," {
			for i, v := range record {
				record[i] = strings.ReplaceAll(v, ",", ".")
			}
		}
		s.Rows = append(s.Rows, survey.NewRow(s.Header, record))
	}

	return &s, nil
}

// Format returns the format forced by key, or the one detected from the header.
func (s *SurveyFile) Format(key string) (survey.Format, error) {
	if key != "" {
		return survey.Lookup(key)
	}
	return survey.Detect(s.Header)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
