package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/spectra-cube/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	spec, err := readSpectrum(ctx, store, config, logger)
	if err != nil {
		return err
	}

	return renderSpectrum(spec, config, logger)
}

func readSpectrum(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*SpectrumData, error) {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", config.SessionID, err)
	}

	polarization := config.Polarization
	if polarization == "" {
		if len(session.Polarizations) == 0 {
			return nil, fmt.Errorf("session %d holds no result", session.ID)
		}
		polarization = session.Polarizations[0]
	}

	opts := []storage.ReaderOption{storage.WithPolarization(polarization)}
	filters := []any{
		slog.Int64("session", session.ID),
		slog.String("source", session.Source),
		slog.Int("beam", session.Beam),
		slog.String("polarization", polarization),
	}
	if config.MinFrequency != nil && config.MaxFrequency != nil {
		opts = append(opts, storage.WithFreqRange(*config.MinFrequency, *config.MaxFrequency))

		filters = append(filters,
			slog.String("minFreq", formatFrequency(*config.MinFrequency)),
			slog.String("maxFreq", formatFrequency(*config.MaxFrequency)))
	}
	if config.MinTimestamp != nil && config.MaxTimestamp != nil {
		opts = append(opts, storage.WithTimeRange(config.MinTimestamp.UTC(), config.MaxTimestamp.UTC()))

		filters = append(filters,
			slog.String("minTimestamp", config.MinTimestamp.UTC().Format(time.DateTime)),
			slog.String("maxTimestamp", config.MaxTimestamp.UTC().Format(time.DateTime)))
	}

	logger.Info("iterator configuration", filters...)

	iter, err := store.ReadSpectrum(ctx, session.ID, opts...)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	spec := NewSpectrumData(polarization, config.Scale)
	for iter.Next(ctx) {
		spec.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return nil, err
	}

	bounds := spec.Bounds()
	logger.Info("finished reading spectra",
		slog.Group("stats",
			slog.Int("spectra", spec.Height),
			slog.String("minTimestamp", spec.TimestampStart.Format(time.DateTime)),
			slog.String("maxTimestamp", spec.TimestampEnd.Format(time.DateTime)),
			slog.String("minFreq", formatFrequency(spec.FrequencyMin)),
			slog.String("maxFreq", formatFrequency(spec.FrequencyMax)),
			slog.String("minIntensity", fmt.Sprintf("%0.2f", bounds.Min)),
			slog.String("maxIntensity", fmt.Sprintf("%0.2f", bounds.Max)),
		))

	return spec, nil
}

func renderSpectrum(spec *SpectrumData, config *Config, logger *slog.Logger) (err error) {
	rc := RenderConfig{
		Location:      config.TimeZone,
		ColorTheme:    config.Theme,
		PixelSize:     config.PixelSize,
		NoAnnotations: config.NoAnnotations,
	}
	if config.MinPower != nil && config.MaxPower != nil {
		rc.Bounds = &PowerBounds{Min: *config.MinPower, Max: *config.MaxPower}
	}

	renderer, err := NewSpectrumRenderer(rc)
	if err != nil {
		return fmt.Errorf("creating spectrum renderer: %w", err)
	}

	logger.Info("rendering spectrum",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", spec.Width*config.PixelSize),
			slog.Int("height", spec.Height*config.PixelSize),
		))

	img, err := renderer.Render(spec)
	if err != nil {
		return fmt.Errorf("rendering spectrum: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return encodeImage(out, img, config.Format)
}

func encodeImage(out *os.File, img image.Image, format ImageFormat) error {
	switch format {
	case ImageJPEG:
		return jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	default:
		return png.Encode(out, img)
	}
}
