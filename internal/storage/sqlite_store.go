package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

const (
	// DefaultMaxBatchSize is the number of rows inserted per statement.
	DefaultMaxBatchSize = 500

	// sqlite allows at most 32766 bound parameters per statement
	maxBatchSize = 32766 / 8
)

var _ Store = (*SqliteStore)(nil)

// StoreOption configures a SqliteStore.
type StoreOption func(*SqliteStore)

// WithMaxBatchSize sets the maximum number of rows inserted by a single
// statement.
func WithMaxBatchSize(size int) StoreOption {
	return func(s *SqliteStore) {
		s.maxBatchSize = max(1, min(size, maxBatchSize))
	}
}

// WithLogger sets the logger used to report storage activity.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *SqliteStore) {
		s.logger = logger
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int
	logger       *slog.Logger

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath. The
// database is created and the schema initialized on the first write.
func NewSqliteStore(dbPath string, options ...StoreOption) *SqliteStore {
	s := SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: DefaultMaxBatchSize,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(&s)
	}
	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
		s.logger.Debug("opened database", slog.String("path", s.dbPath))
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateBorehole(ctx context.Context, name, format string, source any) (boreholeID int64, err error) {
	sourceData, err := toSourceData(source)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertBoreholeSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, name, format, sourceData)
	if err != nil {
		err = fmt.Errorf("inserting borehole: %w", err)
		return
	}

	boreholeID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting borehole ID: %w", err)
	}
	return
}

func (s *SqliteStore) StoreSurvey(ctx context.Context, name, format string, source any, stations []well.DirectionalStation, points []well.TrajectoryPoint) (boreholeID int64, err error) {
	sourceData, err := toSourceData(source)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertBoreholeSQL, name, format, sourceData)
	if err != nil {
		return 0, fmt.Errorf("inserting borehole: %w", err)
	}
	if boreholeID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting borehole ID: %w", err)
	}

	if err = s.insertStations(ctx, tx, boreholeID, stations); err != nil {
		return 0, err
	}
	if err = s.insertPoints(ctx, tx, boreholeID, points); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("stored survey",
		slog.Int64("boreholeID", boreholeID),
		slog.Int("stations", len(stations)),
		slog.Int("points", len(points)))
	return boreholeID, nil
}

func (s *SqliteStore) Borehole(ctx context.Context, id int64) (borehole *well.Borehole, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return queryBorehole(ctx, db, id)
}

func queryBorehole(ctx context.Context, db *sql.DB, id int64) (borehole *well.Borehole, err error) {
	stmt, err := db.PrepareContext(ctx, selectBoreholeSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var data boreholeData
	if err = stmt.QueryRowContext(ctx, id).Scan(&data.ID, &data.Name, &data.Format, &data.CreatedAt, &data.Source); err != nil {
		err = fmt.Errorf("scanning borehole %d: %w", id, err)
		return
	}
	return data.toBorehole(), nil
}

func (d boreholeData) toBorehole() *well.Borehole {
	b := well.Borehole{
		ID:        d.ID,
		Name:      d.Name,
		Format:    d.Format,
		CreatedAt: d.CreatedAt,
	}
	if d.Source.Valid {
		b.Source = &d.Source.String
	}
	return &b
}

func (s *SqliteStore) Boreholes(ctx context.Context) (boreholes []*well.Borehole, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectBoreholesSQL)
	if err != nil {
		err = fmt.Errorf("querying boreholes: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data boreholeData
		if err = rows.Scan(&data.ID, &data.Name, &data.Format, &data.CreatedAt, &data.Source); err != nil {
			err = fmt.Errorf("scanning borehole: %w", err)
			return
		}
		boreholes = append(boreholes, data.toBorehole())
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating boreholes: %w", err)
	}
	return
}

func (s *SqliteStore) StoreStations(ctx context.Context, boreholeID int64, stations []well.DirectionalStation) error {
	if len(stations) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insertStations(ctx, tx, boreholeID, stations)
	})
}

func (s *SqliteStore) StoreTrajectory(ctx context.Context, boreholeID int64, points []well.TrajectoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insertPoints(ctx, tx, boreholeID, points)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("stored trajectory",
		slog.Int64("boreholeID", boreholeID),
		slog.Int("points", len(points)))
	return nil
}

// inTx runs fn in a write transaction, committed when fn succeeds.
func (s *SqliteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertStations writes stations in batches of at most maxBatchSize rows.
func (s *SqliteStore) insertStations(ctx context.Context, tx *sql.Tx, boreholeID int64, stations []well.DirectionalStation) error {
	const width = 5
	seq := 0
	for chunk := range slices.Chunk(stations, s.maxBatchSize) {
		values := make([]any, 0, len(chunk)*width)
		for _, st := range chunk {
			values = append(values, boreholeID, seq, st.MeasuredDepth, st.Azimuth, st.Inclination)
			seq++
		}

		if _, err := tx.ExecContext(ctx, batchInsertSQL(insertStationsSQL, len(chunk), width), values...); err != nil {
			return fmt.Errorf("batch inserting stations: %w", err)
		}
	}
	return nil
}

// insertPoints writes points in batches of at most maxBatchSize rows.
func (s *SqliteStore) insertPoints(ctx context.Context, tx *sql.Tx, boreholeID int64, points []well.TrajectoryPoint) error {
	const width = 8
	var stored int
	for chunk := range slices.Chunk(points, s.maxBatchSize) {
		values := make([]any, 0, len(chunk)*width)
		for i, p := range chunk {
			data := toPointData(boreholeID, stored+i, p)
			values = append(values,
				data.BoreholeID,
				data.Seq,
				data.MeasuredDepth,
				data.X,
				data.Y,
				data.Z,
				data.Azimuth,
				data.Inclination,
			)
		}

		if _, err := tx.ExecContext(ctx, batchInsertSQL(insertPointsSQL, len(chunk), width), values...); err != nil {
			return fmt.Errorf("batch inserting points from %d: %w", stored, err)
		}
		stored += len(chunk)
	}
	return nil
}

func (s *SqliteStore) Stations(ctx context.Context, boreholeID int64) (stations []well.DirectionalStation, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectStationsSQL, boreholeID)
	if err != nil {
		err = fmt.Errorf("querying stations: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var st well.DirectionalStation
		if err = rows.Scan(&st.MeasuredDepth, &st.Azimuth, &st.Inclination); err != nil {
			err = fmt.Errorf("scanning station: %w", err)
			return
		}
		stations = append(stations, st)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating stations: %w", err)
	}
	return
}

func (s *SqliteStore) Trajectory(ctx context.Context, boreholeID int64) (points []well.TrajectoryPoint, err error) {
	reader, err := s.ReadTrajectory(ctx, boreholeID)
	if err != nil {
		return nil, err
	}
	defer closeWithError(reader, &err)

	points = make([]well.TrajectoryPoint, 0, reader.count)
	for reader.Next(ctx) {
		points = append(points, *reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading trajectory: %w", err)
	}
	return points, nil
}

// ReadTrajectory creates a new TrajectoryReader over the stored trajectory of
// a borehole. The reader pages through the points in batches and supports
// measured-depth filtering (WithMDRange, WithBatchSize).
//
// The returned reader must be closed after use. Each reader instance should
// only be used from a single goroutine.
//
// ErrNoData is returned when the borehole has no stored trajectory.
func (s *SqliteStore) ReadTrajectory(ctx context.Context, boreholeID int64, opts ...ReaderOption) (*SqliteTrajectoryReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteTrajectoryReader(ctx, db, boreholeID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			if err := runSQLCommand(s.writeDB, initIndexesSQL); err != nil {
				s.logger.Warn("creating indexes", slog.String("error", err.Error()))
			}

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
