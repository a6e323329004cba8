package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roman-kulish/borehole-survey/internal/well"
)

func newTestStore(t *testing.T, options ...StoreOption) *SqliteStore {
	t.Helper()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "survey.sqlite"), options...)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func ptr(v float64) *float64 {
	return &v
}

func testPoints(n int) []well.TrajectoryPoint {
	points := make([]well.TrajectoryPoint, n)
	for i := range points {
		points[i] = well.TrajectoryPoint{
			MeasuredDepth: float64(i * 10),
			X:             float64(i),
			Y:             float64(-i),
			Z:             float64(i * 9),
		}
		if i%2 == 0 {
			points[i].Azimuth = ptr(0.5)
			points[i].Inclination = ptr(float64(i) / 100)
		}
	}
	return points
}

func TestSqliteStore_Boreholes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.CreateBorehole(ctx, "BH-1", "azinc", map[string]string{"file": "bh1.csv"})
	if err != nil {
		t.Fatalf("creating borehole: %v", err)
	}
	second, err := store.CreateBorehole(ctx, "BH-2", "xyz", nil)
	if err != nil {
		t.Fatalf("creating borehole: %v", err)
	}

	b, err := store.Borehole(ctx, first)
	if err != nil {
		t.Fatalf("reading borehole: %v", err)
	}
	if b.Name != "BH-1" || b.Format != "azinc" {
		t.Errorf("unexpected borehole %+v", b)
	}
	if b.Source == nil || *b.Source != `{"file":"bh1.csv"}` {
		t.Errorf("unexpected source %v", b.Source)
	}
	if b.CreatedAt.IsZero() {
		t.Error("expected creation time to be set")
	}

	all, err := store.Boreholes(ctx)
	if err != nil {
		t.Fatalf("listing boreholes: %v", err)
	}
	if len(all) != 2 || all[0].ID != first || all[1].ID != second {
		t.Fatalf("unexpected boreholes %+v", all)
	}
	if all[1].Source != nil {
		t.Errorf("expected no source, got %q", *all[1].Source)
	}

	if _, err = store.Borehole(ctx, 42); err == nil {
		t.Error("expected error for a missing borehole")
	}
}

func TestSqliteStore_Stations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxBatchSize(2))

	id, err := store.CreateBorehole(ctx, "BH-1", "azinc", nil)
	if err != nil {
		t.Fatal(err)
	}

	stations := []well.DirectionalStation{
		{MeasuredDepth: 0},
		{MeasuredDepth: 30, Azimuth: 1, Inclination: 0.1},
		{MeasuredDepth: 30, Azimuth: 1, Inclination: 0.1},
		{MeasuredDepth: 142, Azimuth: 1.0471975511965976, Inclination: 0.7853981633974483},
		{MeasuredDepth: 364, Azimuth: 5.759586531581287, Inclination: 1.5707963267948966},
	}
	if err = store.StoreStations(ctx, id, stations); err != nil {
		t.Fatalf("storing stations: %v", err)
	}

	got, err := store.Stations(ctx, id)
	if err != nil {
		t.Fatalf("reading stations: %v", err)
	}
	if diff := cmp.Diff(stations, got); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteStore_Trajectory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxBatchSize(3))

	id, err := store.CreateBorehole(ctx, "BH-1", "azinc", nil)
	if err != nil {
		t.Fatal(err)
	}

	points := testPoints(10)
	if err = store.StoreTrajectory(ctx, id, points); err != nil {
		t.Fatalf("storing trajectory: %v", err)
	}

	got, err := store.Trajectory(ctx, id)
	if err != nil {
		t.Fatalf("reading trajectory: %v", err)
	}
	if diff := cmp.Diff(points, got); diff != "" {
		t.Errorf("trajectory mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteStore_StoreSurvey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxBatchSize(2))

	stations := []well.DirectionalStation{
		{MeasuredDepth: 0},
		{MeasuredDepth: 30, Azimuth: 1, Inclination: 0.1},
		{MeasuredDepth: 60, Azimuth: 1, Inclination: 0.2},
	}
	points := testPoints(5)

	id, err := store.StoreSurvey(ctx, "BH-1", "azinc", "bh1.csv", stations, points)
	if err != nil {
		t.Fatalf("storing survey: %v", err)
	}

	b, err := store.Borehole(ctx, id)
	if err != nil {
		t.Fatalf("reading borehole: %v", err)
	}
	if b.Name != "BH-1" || b.Format != "azinc" || b.Source == nil || *b.Source != "bh1.csv" {
		t.Errorf("unexpected borehole %+v", b)
	}

	gotStations, err := store.Stations(ctx, id)
	if err != nil {
		t.Fatalf("reading stations: %v", err)
	}
	if diff := cmp.Diff(stations, gotStations); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}

	gotPoints, err := store.Trajectory(ctx, id)
	if err != nil {
		t.Fatalf("reading trajectory: %v", err)
	}
	if diff := cmp.Diff(points, gotPoints); diff != "" {
		t.Errorf("trajectory mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteStore_StoreSurveyRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxBatchSize(2))

	kept, err := store.StoreSurvey(ctx, "BH-1", "xyz", nil, nil, testPoints(3))
	if err != nil {
		t.Fatalf("storing survey: %v", err)
	}

	// the last batch fails on a NULL z once stations and earlier batches are in
	points := testPoints(5)
	points[4].Z = math.NaN()
	stations := []well.DirectionalStation{{MeasuredDepth: 0}, {MeasuredDepth: 40}}

	if _, err = store.StoreSurvey(ctx, "BH-2", "azinc", nil, stations, points); err == nil {
		t.Fatal("expected the trajectory write to fail")
	}

	boreholes, err := store.Boreholes(ctx)
	if err != nil {
		t.Fatalf("reading boreholes: %v", err)
	}
	if len(boreholes) != 1 || boreholes[0].ID != kept {
		t.Fatalf("expected only borehole %d to remain, got %d boreholes", kept, len(boreholes))
	}

	orphan := kept + 1
	if got, err := store.Stations(ctx, orphan); err != nil || len(got) != 0 {
		t.Errorf("expected no stations for borehole %d, got %v (err %v)", orphan, got, err)
	}
	if _, err = store.Trajectory(ctx, orphan); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for borehole %d, got %v", orphan, err)
	}
}

func TestSqliteStore_NoTrajectory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateBorehole(ctx, "BH-1", "azinc", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = store.Trajectory(ctx, id); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestSqliteTrajectoryReader(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateBorehole(ctx, "BH-1", "xyz", nil)
	if err != nil {
		t.Fatal(err)
	}
	points := testPoints(25)
	if err = store.StoreTrajectory(ctx, id, points); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name     string
		opts     []ReaderOption
		expected []well.TrajectoryPoint
	}{
		{"all points in small batches", []ReaderOption{WithBatchSize(4)}, points},
		{"md range", []ReaderOption{WithMDRange(55, 120), WithBatchSize(2)}, points[6:13]},
		{"min md only", []ReaderOption{WithMinMD(200)}, points[20:]},
		{"max md only", []ReaderOption{WithMaxMD(0)}, points[:1]},
		{"empty range", []ReaderOption{WithMDRange(1000, 2000)}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reader, err := store.ReadTrajectory(ctx, id, tc.opts...)
			if err != nil {
				t.Fatalf("creating reader: %v", err)
			}
			defer reader.Close()

			if reader.Borehole().ID != id {
				t.Errorf("expected borehole %d, got %d", id, reader.Borehole().ID)
			}

			var got []well.TrajectoryPoint
			for reader.Next(ctx) {
				got = append(got, *reader.Current())
			}
			if err = reader.Error(); err != nil {
				t.Fatalf("reading: %v", err)
			}
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSqliteTrajectoryReader_InvalidRange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateBorehole(ctx, "BH-1", "xyz", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = store.StoreTrajectory(ctx, id, testPoints(3)); err != nil {
		t.Fatal(err)
	}

	if _, err = store.ReadTrajectory(ctx, id, WithMDRange(20, 10)); err == nil {
		t.Error("expected error for an inverted range")
	}
}

func TestSqliteTrajectoryReader_Cancelled(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateBorehole(context.Background(), "BH-1", "xyz", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = store.StoreTrajectory(context.Background(), id, testPoints(3)); err != nil {
		t.Fatal(err)
	}

	reader, err := store.ReadTrajectory(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if reader.Next(ctx) {
		t.Fatal("expected no points after cancellation")
	}
	if !errors.Is(reader.Error(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", reader.Error())
	}
}

func TestBatchInsertSQL(t *testing.T) {
	got := batchInsertSQL("INSERT INTO t (a, b) VALUES ", 3, 2)
	expected := "INSERT INTO t (a, b) VALUES (?, ?), (?, ?), (?, ?)"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
