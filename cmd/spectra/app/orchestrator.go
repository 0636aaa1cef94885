package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/spectra-cube/internal/export"
	"github.com/roman-kulish/spectra-cube/internal/spectrum"
	"github.com/roman-kulish/spectra-cube/internal/storage"
)

// target is an exporter together with the resources it writes to.
type target struct {
	name     string
	exporter export.Exporter
	close    func() error
	attrs    func() []slog.Attr // extra attributes logged after a successful export
}

// Orchestrator manages the export targets of a run and writes a result to
// all of them concurrently.
type Orchestrator struct {
	targets []target
	logger  *slog.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(logger *slog.Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// AddTarget opens the export target described by config and registers it
// with the Orchestrator.
func (o *Orchestrator) AddTarget(config *ExportConfig) error {
	var t target
	var err error
	switch config.format {
	case export.FormatCSV:
		t, err = fileTarget(config.Path, func(w io.Writer) export.Exporter { return export.NewCSV(w) })

	case export.FormatArchive:
		t, err = fileTarget(config.Path, func(w io.Writer) export.Exporter {
			return export.NewArchiveWriter(w).WithLevel(config.level)
		})

	case export.FormatSqlite:
		store := storage.NewSqliteStore(config.Path)
		exp := export.NewStore(store)
		t = target{
			exporter: exp,
			close:    store.Close,
			attrs:    func() []slog.Attr { return []slog.Attr{slog.Int64("session", exp.LastSession())} },
		}

	default:
		return fmt.Errorf("creating export: unknown format '%s'", config.Format)
	}
	if err != nil {
		return fmt.Errorf("creating %s export: %w", config.format, err)
	}

	t.name = fmt.Sprintf("%s:%s", config.format, config.Path)
	o.targets = append(o.targets, t)
	return nil
}

func fileTarget(path string, newExporter func(io.Writer) export.Exporter) (target, error) {
	f, err := os.Create(path)
	if err != nil {
		return target{}, fmt.Errorf("creating file: %w", err)
	}

	w := bufio.NewWriter(f)
	return target{
		exporter: newExporter(w),
		close: func() error {
			return errors.Join(w.Flush(), f.Close())
		},
	}, nil
}

// Run writes the result to every registered target and closes them. A failing
// target cancels the others.
func (o *Orchestrator) Run(ctx context.Context, meta export.Metadata, result *spectrum.Result) error {
	if len(o.targets) == 0 {
		return fmt.Errorf("no export targets")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range o.targets {
		g.Go(func() (err error) {
			defer func() {
				if cErr := t.close(); cErr != nil && err == nil {
					err = fmt.Errorf("closing %s: %w", t.name, cErr)
				}
			}()

			start := time.Now()
			if err = t.exporter.Export(ctx, meta, result); err != nil {
				return fmt.Errorf("exporting to %s: %w", t.name, err)
			}

			attrs := []slog.Attr{slog.String("target", t.name), slog.Duration("took", time.Since(start))}
			if t.attrs != nil {
				attrs = append(attrs, t.attrs()...)
			}
			o.logger.LogAttrs(ctx, slog.LevelInfo, "result exported", attrs...)
			return nil
		})
	}

	err := g.Wait()
	o.targets = nil
	return err
}

// Close releases the targets that were not used by Run.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, t := range o.targets {
		errs = append(errs, t.close())
	}
	o.targets = nil
	return errors.Join(errs...)
}
