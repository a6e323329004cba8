package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/borehole-survey/internal/storage"
	"github.com/roman-kulish/borehole-survey/internal/trajectory"
)

// doglegCourseLength is the course length dogleg severity is reported per
const doglegCourseLength = 30

// WithWorkers sets the number of survey files parsed in parallel.
func WithWorkers(n int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// WithImportConfig sets how survey files are read.
func WithImportConfig(config ImportConfig) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.config = config
	}
}

// Orchestrator parses survey files in parallel and converts them into
// trajectories. Results are written to the store by a single goroutine.
type Orchestrator struct {
	store  storage.Store
	logger *slog.Logger
	config ImportConfig

	workers int
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(store storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		store:  store,
		logger: logger,
		config: ImportConfig{
			Delimiter:        defaultDelimiter,
			DecimalSeparator: defaultDecimal,
		},
		workers: runtime.NumCPU(),
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// converted is a survey file ready to be stored
type converted struct {
	borehole BoreholeConfig
	rows     int
	survey   *trajectory.Survey
}

// source is stored along with the borehole
type source struct {
	File   string        `json:"file"`
	Rows   int           `json:"rows"`
	Origin *OriginConfig `json:"origin,omitempty"`
}

// Run imports all boreholes and returns their IDs in the order given. The
// first parse or storage failure cancels the remaining work; boreholes
// stored before the failure are kept. Each borehole is stored in a single
// transaction, so a failed one leaves nothing behind.
func (o *Orchestrator) Run(ctx context.Context, boreholes []BoreholeConfig) ([]int64, error) {
	if len(boreholes) == 0 {
		return nil, errors.New("no boreholes to import")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, o.workers))

	// buffered for every borehole so parsers never block on a failed writer
	results := make(chan converted, len(boreholes))
	parsed := make(chan error, 1)

	go func() {
		for _, b := range boreholes {
			g.Go(func() error {
				c, err := o.convert(gctx, b)
				if err != nil {
					return fmt.Errorf("borehole %s: %w", b.Name, err)
				}
				results <- c
				return nil
			})
		}
		parsed <- g.Wait()
		close(results)
	}()

	ids := make(map[string]int64, len(boreholes))
	var storeErr error
	for c := range results {
		if storeErr != nil {
			continue
		}

		id, err := o.storeSurvey(ctx, c)
		if err != nil {
			storeErr = fmt.Errorf("borehole %s: %w", c.borehole.Name, err)
			cancel()
			continue
		}
		ids[c.borehole.Name] = id
	}

	if err := errors.Join(storeErr, <-parsed); err != nil {
		return nil, err
	}

	ordered := make([]int64, len(boreholes))
	for i, b := range boreholes {
		ordered[i] = ids[b.Name]
	}
	return ordered, nil
}

func (o *Orchestrator) convert(ctx context.Context, b BoreholeConfig) (converted, error) {
	if err := ctx.Err(); err != nil {
		return converted{}, err
	}

	file, err := ReadSurveyFile(b.File, o.config)
	if err != nil {
		return converted{}, fmt.Errorf("reading survey file: %w", err)
	}

	format, err := file.Format(b.Format)
	if err != nil {
		return converted{}, err
	}

	var opts []trajectory.ConvertOption
	if b.Origin != nil {
		opts = append(opts, trajectory.WithOrigin(r3.Vec{X: b.Origin.X, Y: b.Origin.Y, Z: b.Origin.Z}))
	}

	s, err := trajectory.Convert(format, file.Rows, opts...)
	if err != nil {
		return converted{}, err
	}

	o.logger.Debug("converted survey",
		slog.String("borehole", b.Name),
		slog.String("file", b.File),
		slog.String("format", format.Key()),
		slog.Int("rows", len(file.Rows)))

	return converted{borehole: b, rows: len(file.Rows), survey: s}, nil
}

func (o *Orchestrator) storeSurvey(ctx context.Context, c converted) (int64, error) {
	src := source{File: c.borehole.File, Rows: c.rows, Origin: c.borehole.Origin}

	id, err := o.store.StoreSurvey(ctx, c.borehole.Name, c.survey.Format.Key(), src, c.survey.Stations, c.survey.Points)
	if err != nil {
		return 0, fmt.Errorf("storing survey: %w", err)
	}

	attrs := []any{
		slog.Int64("id", id),
		slog.String("borehole", c.borehole.Name),
		slog.String("format", c.survey.Format.Key()),
		slog.String("points", humanize.Comma(int64(len(c.survey.Points)))),
	}

	idx := trajectory.NewIndex(c.survey.Points)
	bounds := idx.Bounds()
	attrs = append(attrs,
		slog.String("md", fmt.Sprintf("%s - %s m", humanize.Commaf(round2(bounds.MinMD)), humanize.Commaf(round2(bounds.MaxMD)))),
		slog.String("maxTVD", humanize.Commaf(round2(bounds.MaxTVD))+" m"))

	if dls, md := trajectory.MaxDoglegSeverity(c.survey.Stations, doglegCourseLength); dls > 0 {
		attrs = append(attrs, slog.String("maxDLS", fmt.Sprintf("%0.2f°/%dm @ %s m", dls, doglegCourseLength, humanize.Commaf(round2(md)))))
	}

	o.logger.Info("stored borehole", attrs...)
	return id, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
