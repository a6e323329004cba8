package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_trajectory_points_md ON trajectory_points (borehole_id, measured_depth);
CREATE INDEX IF NOT EXISTS idx_boreholes_name ON boreholes (name)`

const (
	insertBoreholeSQL = `
INSERT INTO boreholes (name, format, source)
VALUES (?, ?, ?)`

	selectBoreholeSQL = `
SELECT
    id,
    name,
    format,
    created_at,
    source
FROM boreholes
WHERE
    id = ?`

	selectBoreholesSQL = `
SELECT
    id,
    name,
    format,
    created_at,
    source
FROM boreholes
ORDER BY id`

	insertStationsSQL = `
INSERT INTO stations (
                      borehole_id,
                      seq,
                      measured_depth,
                      azimuth,
                      inclination)
VALUES `

	selectStationsSQL = `
SELECT
    measured_depth,
    azimuth,
    inclination
FROM stations
WHERE
    borehole_id = ?
ORDER BY seq`

	insertPointsSQL = `
INSERT INTO trajectory_points (
                               borehole_id,
                               seq,
                               measured_depth,
                               x,
                               y,
                               z,
                               azimuth,
                               inclination)
VALUES `

	selectFilterValuesSQL = `
SELECT
    COUNT(*),
    COALESCE(MIN(measured_depth), 0),
    COALESCE(MAX(measured_depth), 0)
FROM trajectory_points
WHERE
    borehole_id = ?`

	selectPointsSQL = `
SELECT
    seq,
    measured_depth,
    x,
    y,
    z,
    azimuth,
    inclination
FROM trajectory_points
WHERE
    borehole_id = ?
    AND seq > ?
    AND measured_depth BETWEEN ? AND ?
ORDER BY seq
LIMIT ?`
)
