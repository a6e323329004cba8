package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/roman-kulish/borehole-survey/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath, storage.WithLogger(logger))
	defer store.Close()

	return renderSection(ctx, store, config, logger)
}

func renderSection(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) error {
	borehole, err := store.Borehole(ctx, config.BoreholeID)
	if err != nil {
		return err
	}

	points, err := store.Trajectory(ctx, config.BoreholeID)
	if err != nil {
		return fmt.Errorf("reading trajectory of borehole %d: %w", config.BoreholeID, err)
	}

	var step float64
	if config.Step != nil {
		step = *config.Step
	}

	section, err := NewSectionData(points, config.View, step)
	if err != nil {
		return fmt.Errorf("projecting trajectory: %w", err)
	}
	section.Borehole = borehole

	logger.Info("finished reading trajectory",
		slog.Group("stats",
			slog.String("borehole", borehole.Name),
			slog.String("format", borehole.Format),
			slog.Int("points", len(points)),
			slog.Int("samples", len(section.Path)),
			slog.String("minMD", humanMetres(section.MinMD)),
			slog.String("maxMD", humanMetres(section.MaxMD)),
			slog.String("maxTVD", humanMetres(section.MaxTVD)),
		))

	logger.Info("rendering section",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("view", string(config.View)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	if !config.Format.IsRaster() {
		p, err := NewSectionPlot(section, config.NoAnnotations)
		if err != nil {
			return fmt.Errorf("plotting section: %w", err)
		}
		return savePlot(p, config.Width, config.Height, config.OutputFile)
	}

	renderer, err := NewSectionRenderer(RenderConfig{
		Width:         config.Width,
		Height:        config.Height,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating section renderer: %w", err)
	}

	img, err := renderer.Render(section)
	if err != nil {
		return fmt.Errorf("rendering section: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
