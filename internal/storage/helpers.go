package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// toSourceData accepts a string, []byte or any JSON-serializable value.
func toSourceData(source any) (sql.NullString, error) {
	var data sql.NullString

	switch v := source.(type) {
	case nil:
	case string:
		data.Valid = true
		data.String = v

	case []byte:
		data.Valid = true
		data.String = string(v)

	default:
		p, err := json.Marshal(v)
		if err != nil {
			return data, fmt.Errorf("marshaling source: %w", err)
		}
		data.Valid = true
		data.String = string(p)
	}

	return data, nil
}

func toNullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat64(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func toPointData(boreholeID int64, seq int, p well.TrajectoryPoint) pointData {
	return pointData{
		BoreholeID:    boreholeID,
		Seq:           int64(seq),
		MeasuredDepth: p.MeasuredDepth,
		X:             p.X,
		Y:             p.Y,
		Z:             p.Z,
		Azimuth:       toNullFloat64(p.Azimuth),
		Inclination:   toNullFloat64(p.Inclination),
	}
}

func (d pointData) toPoint() well.TrajectoryPoint {
	return well.TrajectoryPoint{
		MeasuredDepth: d.MeasuredDepth,
		X:             d.X,
		Y:             d.Y,
		Z:             d.Z,
		Azimuth:       fromNullFloat64(d.Azimuth),
		Inclination:   fromNullFloat64(d.Inclination),
	}
}

// batchInsertSQL appends n groups of width placeholders to query.
func batchInsertSQL(query string, n, width int) string {
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + ")"

	var sb strings.Builder
	sb.WriteString(query)
	for i := range n {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(group)
	}
	return sb.String()
}
