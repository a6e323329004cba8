package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/roman-kulish/borehole-survey/internal/storage"
	"github.com/roman-kulish/borehole-survey/internal/trajectory"
)

// ErrQueriesFailed is returned when at least one query could not be answered
var ErrQueriesFailed = errors.New("some queries could not be answered")

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath, storage.WithLogger(logger))
	defer store.Close()

	return runQueries(ctx, store, config, logger, os.Stdout)
}

func runQueries(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger, out io.Writer) error {
	borehole, err := store.Borehole(ctx, config.BoreholeID)
	if err != nil {
		return err
	}

	points, err := store.Trajectory(ctx, config.BoreholeID)
	if err != nil {
		return fmt.Errorf("reading trajectory of borehole %d: %w", config.BoreholeID, err)
	}

	idx, err := trajectory.NewCheckedIndex(points)
	if err != nil {
		return fmt.Errorf("indexing trajectory of borehole %d: %w", config.BoreholeID, err)
	}
	bounds := idx.Bounds()

	logger.Debug("loaded trajectory",
		slog.String("borehole", borehole.Name),
		slog.Int("points", idx.Len()),
		slog.Group("bounds",
			slog.Float64("minMD", bounds.MinMD),
			slog.Float64("maxMD", bounds.MaxMD),
			slog.Float64("minTVD", bounds.MinTVD),
			slog.Float64("maxTVD", bounds.MaxTVD),
		))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUERY\tDEPTH\tRESULT")

	var failed int
	for _, md := range config.MD {
		tvd, err := idx.TVD(md)
		failed += writeResult(w, "md", md, err, "tvd", tvd)
	}

	for _, tvd := range config.TVD {
		var mds []float64
		var err error
		switch {
		case config.All:
			mds, err = idx.Crossings(tvd)
		case config.Near != nil:
			var md float64
			md, err = idx.MDNear(tvd, *config.Near)
			mds = []float64{md}
		default:
			var md float64
			md, err = idx.MD(tvd)
			mds = []float64{md}
		}
		failed += writeResult(w, "tvd", tvd, err, "md", mds...)
	}

	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if failed > 0 {
		logger.Warn("queries out of range",
			slog.Int("failed", failed),
			slog.Int("total", len(config.MD)+len(config.TVD)))
		return ErrQueriesFailed
	}
	return nil
}

// writeResult writes one result line and returns 1 if the query failed.
func writeResult(w io.Writer, query string, depth float64, err error, label string, values ...float64) int {
	if err != nil {
		var rangeErr *trajectory.RangeError
		if errors.As(err, &rangeErr) && !errors.Is(err, trajectory.ErrEmptyTrajectory) {
			fmt.Fprintf(w, "%s\t%s\tout of range [%s, %s]\n", query, formatDepth(depth),
				formatDepth(rangeErr.Min), formatDepth(rangeErr.Max))
		} else {
			fmt.Fprintf(w, "%s\t%s\terror: %v\n", query, formatDepth(depth), err)
		}
		return 1
	}

	s := make([]string, len(values))
	for i, v := range values {
		s[i] = formatDepth(v)
	}
	fmt.Fprintf(w, "%s\t%s\t%s %s\n", query, formatDepth(depth), label, strings.Join(s, ", "))
	return 0
}

func formatDepth(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
