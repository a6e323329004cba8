package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/borehole-survey/internal/storage"
	"github.com/roman-kulish/borehole-survey/internal/well"
)

func newTestStore(t *testing.T) (*storage.SqliteStore, int64) {
	t.Helper()

	store := storage.NewSqliteStore(filepath.Join(t.TempDir(), "survey.sqlite"))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})

	ctx := context.Background()
	id, err := store.CreateBorehole(ctx, "BH-1", "xyz", nil)
	if err != nil {
		t.Fatal(err)
	}

	// a vertical well
	points := []well.TrajectoryPoint{
		{MeasuredDepth: 0},
		{MeasuredDepth: 100, Z: 100},
	}
	if err = store.StoreTrajectory(ctx, id, points); err != nil {
		t.Fatal(err)
	}
	return store, id
}

func TestRunQueries(t *testing.T) {
	store, id := newTestStore(t)
	config := &Config{BoreholeID: id, MD: []float64{42}, TVD: []float64{50}}

	var out bytes.Buffer
	if err := runQueries(context.Background(), store, config, slog.New(slog.DiscardHandler), &out); err != nil {
		t.Fatalf("running queries: %v", err)
	}

	expected := []string{
		"QUERY  DEPTH   RESULT",
		"md     42.000  tvd 42.000",
		"tvd    50.000  md 50.000",
	}
	if got := strings.Split(strings.TrimSpace(out.String()), "\n"); strings.Join(got, "\n") != strings.Join(expected, "\n") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunQueries_AllCrossings(t *testing.T) {
	store, id := newTestStore(t)
	config := &Config{BoreholeID: id, TVD: []float64{100}, All: true}

	var out bytes.Buffer
	if err := runQueries(context.Background(), store, config, slog.New(slog.DiscardHandler), &out); err != nil {
		t.Fatalf("running queries: %v", err)
	}
	if !strings.Contains(out.String(), "md 100.000") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunQueries_OutOfRange(t *testing.T) {
	store, id := newTestStore(t)
	config := &Config{BoreholeID: id, MD: []float64{150, 10}}

	var out bytes.Buffer
	err := runQueries(context.Background(), store, config, slog.New(slog.DiscardHandler), &out)
	if !errors.Is(err, ErrQueriesFailed) {
		t.Fatalf("expected ErrQueriesFailed, got %v", err)
	}

	if !strings.Contains(out.String(), "out of range [0.000, 100.000]") {
		t.Errorf("expected range report, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "tvd 10.000") {
		t.Errorf("expected remaining queries to be answered, got:\n%s", out.String())
	}
}

func TestRunQueries_MissingBorehole(t *testing.T) {
	store, _ := newTestStore(t)
	config := &Config{BoreholeID: 42, MD: []float64{1}}

	if err := runQueries(context.Background(), store, config, slog.New(slog.DiscardHandler), &bytes.Buffer{}); err == nil {
		t.Error("expected error for a missing borehole")
	}
}
