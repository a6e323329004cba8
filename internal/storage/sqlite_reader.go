package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// DefaultReaderBatchSize is the number of points fetched per query.
const DefaultReaderBatchSize = 1000

var _ TrajectoryReader = (*SqliteTrajectoryReader)(nil)

// ReaderOption configures a SqliteTrajectoryReader.
type ReaderOption func(*SqliteTrajectoryReader)

// WithMinMD excludes points shallower than md.
func WithMinMD(md float64) ReaderOption {
	return func(r *SqliteTrajectoryReader) {
		r.minMD = &md
	}
}

// WithMaxMD excludes points deeper than md.
func WithMaxMD(md float64) ReaderOption {
	return func(r *SqliteTrajectoryReader) {
		r.maxMD = &md
	}
}

// WithMDRange sets both measured-depth filters. This is a convenience function
// equivalent to applying both WithMinMD and WithMaxMD.
func WithMDRange(minMD, maxMD float64) ReaderOption {
	return func(r *SqliteTrajectoryReader) {
		r.minMD = &minMD
		r.maxMD = &maxMD
	}
}

// WithBatchSize sets the number of points fetched from the database per query.
func WithBatchSize(size int) ReaderOption {
	return func(r *SqliteTrajectoryReader) {
		r.batchSize = max(1, size)
	}
}

// SqliteTrajectoryReader implements TrajectoryReader for SQLite database
// backend. Points are paged by their position in the trajectory, so duplicate
// measured depths keep their stored order.
type SqliteTrajectoryReader struct {
	db   *sql.DB
	stmt *sql.Stmt

	boreholeID int64
	borehole   *well.Borehole
	batchSize  int
	count      int // points stored for the borehole, regardless of filters

	minMD *float64 // Optional minimum measured depth filter
	maxMD *float64 // Optional maximum measured depth filter

	batch   []pointData
	pos     int
	lastSeq int64
	done    bool
	current *well.TrajectoryPoint
	err     error
}

func newSqliteTrajectoryReader(ctx context.Context, db *sql.DB, boreholeID int64, opts ...ReaderOption) (*SqliteTrajectoryReader, error) {
	r := &SqliteTrajectoryReader{
		db:         db,
		boreholeID: boreholeID,
		batchSize:  DefaultReaderBatchSize,
		lastSeq:    -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, err
		}
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteTrajectoryReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.boreholeID <= 0 {
		return errors.New("borehole ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading borehole", fn: r.loadBorehole},
		{msg: "initializing filters", fn: r.initFilters},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			if errors.Is(err, ErrNoData) {
				return err
			}
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqliteTrajectoryReader) loadBorehole(ctx context.Context) (err error) {
	r.borehole, err = queryBorehole(ctx, r.db, r.boreholeID)
	return err
}

func (r *SqliteTrajectoryReader) initFilters(ctx context.Context) (err error) {
	if r.minMD != nil && r.maxMD != nil && *r.minMD > *r.maxMD {
		return fmt.Errorf("min measured depth %g is greater than max measured depth %g", *r.minMD, *r.maxMD)
	}

	stmt, err := r.db.PrepareContext(ctx, selectFilterValuesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minMD, maxMD float64
	if err = stmt.QueryRowContext(ctx, r.boreholeID).Scan(&r.count, &minMD, &maxMD); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}
	if r.count == 0 {
		return fmt.Errorf("borehole %d trajectory: %w", r.boreholeID, ErrNoData)
	}

	if r.minMD == nil {
		r.minMD = &minMD
	}
	if r.maxMD == nil {
		r.maxMD = &maxMD
	}
	return nil
}

func (r *SqliteTrajectoryReader) initQuery(ctx context.Context) (err error) {
	if r.stmt, err = r.db.PrepareContext(ctx, selectPointsSQL); err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	return nil
}

func (r *SqliteTrajectoryReader) fetch(ctx context.Context) (err error) {
	rows, err := r.stmt.QueryContext(ctx, r.boreholeID, r.lastSeq, *r.minMD, *r.maxMD, r.batchSize)
	if err != nil {
		return fmt.Errorf("querying points: %w", err)
	}
	defer closeWithError(rows, &err)

	r.batch, r.pos = r.batch[:0], 0
	for rows.Next() {
		var data pointData
		if err = rows.Scan(&data.Seq, &data.MeasuredDepth, &data.X, &data.Y, &data.Z, &data.Azimuth, &data.Inclination); err != nil {
			return fmt.Errorf("scanning point: %w", err)
		}
		r.batch = append(r.batch, data)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterating points: %w", err)
	}

	if len(r.batch) < r.batchSize {
		r.done = true
	}
	if n := len(r.batch); n > 0 {
		r.lastSeq = r.batch[n-1].Seq
	}
	return nil
}

func (r *SqliteTrajectoryReader) Borehole() *well.Borehole {
	return r.borehole
}

func (r *SqliteTrajectoryReader) Next(ctx context.Context) bool {
	if r.err != nil || r.stmt == nil {
		return false
	}

	if r.pos >= len(r.batch) {
		if r.done {
			r.current = nil
			r.err = ErrNoData
			return false
		}

		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if r.err = r.fetch(ctx); r.err != nil {
			return false
		}
		if len(r.batch) == 0 {
			r.current = nil
			r.err = ErrNoData
			return false
		}
	}

	p := r.batch[r.pos].toPoint()
	r.current = &p
	r.pos++
	return true
}

func (r *SqliteTrajectoryReader) Current() *well.TrajectoryPoint {
	return r.current
}

func (r *SqliteTrajectoryReader) Error() error {
	if r.err != nil && !errors.Is(r.err, ErrNoData) {
		return r.err
	}
	return nil
}

func (r *SqliteTrajectoryReader) Close() error {
	if r.stmt != nil {
		err := r.stmt.Close()
		r.stmt = nil
		r.batch = nil
		r.current = nil
		return err
	}
	return nil
}
