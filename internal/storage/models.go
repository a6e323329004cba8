package storage

import (
	"database/sql"
	"time"
)

type boreholeData struct {
	ID        int64
	Name      string
	Format    string
	CreatedAt time.Time
	Source    sql.NullString
}

type pointData struct {
	BoreholeID    int64
	Seq           int64
	MeasuredDepth float64
	X             float64
	Y             float64
	Z             float64
	Azimuth       sql.NullFloat64
	Inclination   sql.NullFloat64
}
