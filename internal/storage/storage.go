package storage

import (
	"context"
	"errors"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

// ErrNoData indicates either that no trajectory exists for the given borehole,
// or that all points have been read from the trajectory reader.
var ErrNoData = errors.New("no data available")

// Store provides an interface for managing borehole survey storage operations.
// It handles boreholes, their directional stations and trajectories in a
// thread-safe manner. All operations that write to the database should be
// considered atomic.
type Store interface {
	// CreateBorehole registers a new borehole and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Borehole name
	//   - format: Key of the survey format the trajectory is built from (e.g., "azinc", "xyz")
	//   - source: Optional import source description. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - boreholeID: Unique identifier for the created borehole
	//   - error: If creation fails or context is cancelled
	CreateBorehole(ctx context.Context, name, format string, source any) (boreholeID int64, err error)

	// Borehole retrieves a specific borehole by its ID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Unique borehole identifier
	//
	// Returns:
	//   - borehole: Pointer to borehole data
	//   - error: If retrieval fails, the borehole does not exist or context is cancelled
	Borehole(ctx context.Context, id int64) (borehole *well.Borehole, err error)

	// Boreholes returns all boreholes stored in the database, ordered by ID.
	Boreholes(ctx context.Context) (boreholes []*well.Borehole, err error)

	// StoreSurvey creates a borehole together with its stations and trajectory
	// in a single transaction. Nothing is stored when any part fails.
	// Stations may be empty for position-only surveys.
	StoreSurvey(ctx context.Context, name, format string, source any, stations []well.DirectionalStation, points []well.TrajectoryPoint) (boreholeID int64, err error)

	// StoreStations saves the directional stations a trajectory was built from,
	// in measured-depth order, in a single transaction.
	StoreStations(ctx context.Context, boreholeID int64, stations []well.DirectionalStation) error

	// StoreTrajectory saves the trajectory of a borehole in a single
	// transaction. Points are inserted in batches of at most the configured
	// batch size.
	StoreTrajectory(ctx context.Context, boreholeID int64, points []well.TrajectoryPoint) error

	// Stations returns the stored stations of a borehole in measured-depth order.
	Stations(ctx context.Context, boreholeID int64) ([]well.DirectionalStation, error)

	// Trajectory returns the complete stored trajectory of a borehole.
	// ErrNoData is returned when the borehole has no trajectory.
	Trajectory(ctx context.Context, boreholeID int64) ([]well.TrajectoryPoint, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}

// TrajectoryReader provides an iterator-based interface for reading a stored
// trajectory with optional measured-depth filtering.
type TrajectoryReader interface {
	// Borehole returns the borehole this reader is accessing.
	Borehole() *well.Borehole

	// Next advances the iterator and returns true if there is another point
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current point in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *well.TrajectoryPoint

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}
