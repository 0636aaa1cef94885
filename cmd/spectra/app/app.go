package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/spectra-cube/internal/export"
	"github.com/roman-kulish/spectra-cube/internal/spectra"
	"github.com/roman-kulish/spectra-cube/internal/telemetry"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	registry := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	if config.Settings.MetricsTextfile != "" {
		defer func() {
			if wErr := telemetry.WriteTextfile(config.Settings.MetricsTextfile, registry); wErr != nil {
				logger.Error(fmt.Sprintf("failed to write metrics: %s", wErr.Error()))
			}
		}()
	}

	orchestrator := NewOrchestrator(logger)
	defer orchestrator.Close()

	for i := range config.Exports {
		if err = orchestrator.AddTarget(&config.Exports[i]); err != nil {
			return fmt.Errorf("failed to create exports: %w", err)
		}
	}

	options := []func(*spectra.Reader){
		spectra.WithLogger(logger),
		spectra.WithRecorder(metrics),
		spectra.WithProgress(progressLogger(logger)),
	}
	if config.Settings.Workers > 0 {
		options = append(options, spectra.WithWorkers(config.Settings.Workers))
	}

	reader, err := spectra.Open(config.Input, options...)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer reader.Close()

	if q := reader.Quality(); q.BadBlocks > 0 || q.TrailingBytes > 0 {
		logger.Warn(q.String())
	}

	if err = reader.Configure(config.Query.Options); err != nil {
		return fmt.Errorf("failed to configure query: %w", err)
	}

	result, err := reader.Get(ctx, config.Query.Products...)
	if err != nil {
		return fmt.Errorf("failed to compute result: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn(w.Error())
	}

	meta := export.NewMetadata(config.Input, reader.Configuration().Beam(), config.Query.Options)
	logger.Info("exporting result",
		slog.String("runID", meta.RunID),
		slog.String("samples", humanize.Comma(int64(len(result.Data)))),
	)

	return orchestrator.Run(ctx, meta, result)
}

// progressLogger reports every tenth of the processed blocks.
func progressLogger(logger *slog.Logger) func(done, total int) {
	step := 0
	return func(done, total int) {
		if total == 0 {
			return
		}
		if p := done * 10 / total; p > step || done == total {
			step = p
			logger.Debug("computing", slog.Int("done", done), slog.Int("total", total))
		}
	}
}
