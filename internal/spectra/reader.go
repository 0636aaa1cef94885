// Package spectra reads block files recorded by the receiver as
// time-frequency data of selectable polarization products.
package spectra

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/spectra-cube/internal/beam"
	"github.com/roman-kulish/spectra-cube/internal/block"
	"github.com/roman-kulish/spectra-cube/internal/cube"
	"github.com/roman-kulish/spectra-cube/internal/dsp"
	"github.com/roman-kulish/spectra-cube/internal/spectrum"
	"github.com/roman-kulish/spectra-cube/internal/telemetry"
)

// WithLogger sets the logger for the reader
func WithLogger(logger *slog.Logger) func(r *Reader) {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithRecorder sets the recorder receiving pipeline events
func WithRecorder(rec telemetry.Recorder) func(r *Reader) {
	return func(r *Reader) {
		r.recorder = rec
	}
}

// WithWorkers limits the number of blocks processed concurrently by Get
func WithWorkers(n int) func(r *Reader) {
	return func(r *Reader) {
		r.workers = max(n, 1)
	}
}

// WithProgress registers a callback receiving the number of processed and
// total blocks while Get runs
func WithProgress(fn func(done, total int)) func(r *Reader) {
	return func(r *Reader) {
		r.progress = fn
	}
}

// Reader gives query access to a single block file. It is not safe for
// concurrent use.
type Reader struct {
	store    *block.Store
	assembly *cube.Assembly
	beams    beam.Index
	quality  DataQualityNotice
	config   *Configuration

	logger   *slog.Logger
	recorder telemetry.Recorder
	workers  int
	progress func(done, total int)
}

// Open maps the block file at path, filters the unusable blocks and indexes
// the beams. The default configuration covers the whole file on the lowest
// beam, with bandpass correction on. Its frequency range spans every
// subband, so selecting another beam reads that beam in full.
func Open(path string, options ...func(r *Reader)) (*Reader, error) {
	r := &Reader{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		recorder: telemetry.Nop{},
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, option := range options {
		option(r)
	}
	r.logger = r.logger.With(slog.String("file", path))

	store, err := block.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening block file: %w", err)
	}
	if err = r.init(store); err != nil {
		_ = store.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) init(store *block.Store) error {
	layout := store.Layout()
	r.logger.Info("block file mapped",
		slog.String("size", humanize.IBytes(uint64(store.Size()))),
		slog.Int("blocks", store.Len()),
		slog.Int("subbands", layout.Subbands),
		slog.Int("channels", layout.Channels),
		slog.Float64("dt", layout.TimeStep),
		slog.Float64("df", layout.FrequencyStep))

	r.logger.Info("checking for missing data")
	bad, n := block.BadBlocks(store.Headers())
	r.quality = DataQualityNotice{Blocks: store.Len(), BadBlocks: n, TrailingBytes: store.TrailingBytes()}
	if n > 0 || r.quality.TrailingBytes > 0 {
		r.logger.Warn("data quality", slog.String("notice", r.quality.String()))
	}
	r.recorder.FileOpened(store.Len(), n, store.Size())

	assembly := cube.Assemble(store, bad)
	beams, err := beam.Build(assembly.Beams)
	if err != nil {
		return block.NewFormatError(err.Error())
	}

	r.store = store
	r.assembly = assembly
	r.beams = beams
	r.config = r.defaultConfiguration()
	return nil
}

func (r *Reader) defaultConfiguration() *Configuration {
	layout := r.assembly.Layout
	tmin, tmax := r.span()

	c := &Configuration{
		beams:           r.beams,
		channels:        layout.Channels,
		dt:              layout.TimeStep,
		df:              layout.FrequencyStep,
		span:            [2]float64{tmin, tmax},
		logger:          r.logger,
		timeRange:       [2]float64{tmin, tmax},
		correctBandpass: true,
	}
	if beams := r.beams.Beams(); len(beams) > 0 {
		c.beam = beams[0]
	}
	if subbands := r.assembly.Subbands; len(subbands) > 0 {
		c.frequencyRange = [2]float64{
			float64(subbands[0]) * block.SubbandWidth,
			float64(subbands[len(subbands)-1]+1) * block.SubbandWidth,
		}
	}
	return c
}

// Layout returns the file-level parameters.
func (r *Reader) Layout() block.Layout {
	return r.assembly.Layout
}

// Beams returns the beams recorded in the file, in ascending order.
func (r *Reader) Beams() []int {
	return r.beams.Beams()
}

// Quality reports the data excluded when the file was opened.
func (r *Reader) Quality() DataQualityNotice {
	return r.quality
}

// Configuration returns the live query configuration.
func (r *Reader) Configuration() *Configuration {
	return r.config
}

func (r *Reader) span() (tmin, tmax float64) {
	starts := r.assembly.Starts
	if len(starts) == 0 {
		return 0, 0
	}
	layout := r.assembly.Layout
	return starts[0], starts[len(starts)-1] + float64(layout.SamplesPerBlock)*layout.TimeStep
}

// TimeRange returns the time covered by the usable blocks.
func (r *Reader) TimeRange() (start, stop time.Time) {
	tmin, tmax := r.span()
	return unixTime(tmin), unixTime(tmax)
}

// FrequencyRange returns the frequency band covered by beam, in Hz.
func (r *Reader) FrequencyRange(id int) (fmin, fmax float64, ok bool) {
	rng, ok := r.beams.Lookup(id)
	if !ok {
		return 0, 0, false
	}
	channels := r.assembly.Layout.Channels
	first := r.assembly.Subbands[rng.Start/channels]
	last := r.assembly.Subbands[rng.Stop/channels]
	return float64(first) * block.SubbandWidth, float64(last+1) * block.SubbandWidth, true
}

// Configure applies the options set in o. The configuration is left
// unchanged when any of them is invalid.
func (r *Reader) Configure(o Options) error {
	c := r.config.clone()
	if err := o.apply(c); err != nil {
		return err
	}
	r.config = c
	return nil
}

// Get reads the configured selection and computes the requested polarization
// products, Stokes I when none is given. An empty selection is not an error:
// the result is empty and carries ErrEmptySelection in its warnings. Get
// fails with block.ErrClosed once the reader is closed.
func (r *Reader) Get(ctx context.Context, products ...string) (res *spectrum.Result, err error) {
	if r.store.Closed() {
		return nil, fmt.Errorf("reading selection: %w", block.ErrClosed)
	}

	ps, err := dsp.ParseProducts(products...)
	if err != nil {
		return nil, newConfigurationError("%s", err)
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}

	started := time.Now()
	outcome := telemetry.OutcomeOK
	defer func() {
		if err != nil {
			outcome = telemetry.OutcomeError
		}
		r.recorder.QueryCompleted(outcome, time.Since(started))
	}()

	cfg := r.config
	sel, ok := r.selectWindow(cfg)
	if !ok {
		r.logger.Warn("selection leads to an empty dataset")
		outcome = telemetry.OutcomeEmpty
		return &spectrum.Result{Polarizations: names, Warnings: []error{ErrEmptySelection}}, nil
	}

	layout := r.assembly.Layout
	c := r.assembly.Cube.Select(sel.times, sel.freqs)
	if cfg.correctBandpass {
		r.logger.Info("correcting for bandpass")
		c = c.Map(dsp.Bandpass(layout.Channels))
	}
	lower, upper := cfg.EdgeChannels()
	stage, err := dsp.EdgeChannels(layout.Channels, lower, upper)
	if err != nil {
		return nil, newConfigurationError("%s", err)
	}
	if stage != nil {
		r.logger.Info("removing edge channels", slog.Int("lower", lower), slog.Int("upper", upper))
		c = c.Map(stage)
	}

	res = &spectrum.Result{Time: sel.timeAxis, Frequency: sel.freqAxis, Polarizations: names}

	reduced := c.Reduce(len(ps), dsp.Reducer(ps))
	if cfg.timeWidth > 0 {
		r.logger.Info("time-averaging spectra", slog.Int("spectra", cfg.timeWidth), slog.Duration("dt", cfg.rebinDT))
		reduced = reduced.RebinTime(cfg.timeWidth)
		res.Time, res.TimeLeftover = cube.RebinAxis(res.Time, cfg.timeWidth)
	}
	if cfg.freqWidth > 0 {
		r.logger.Info("frequency-averaging channels", slog.Int("channels", cfg.freqWidth), slog.Float64("df", cfg.rebinDF))
		reduced = reduced.RebinFrequency(cfg.freqWidth)
		res.Frequency, res.FrequencyLeftover = cube.RebinAxis(res.Frequency, cfg.freqWidth)
	}

	times, freqs := c.Shape()
	r.logger.Info("computing selection",
		slog.String("samples", humanize.Comma(int64(times*freqs))),
		slog.Int("blocks", c.Chunks()),
		slog.Any("polarizations", names))

	dense, err := reduced.Compute(ctx,
		cube.WithWorkers(r.workers),
		cube.WithProgress(func(done, total int) {
			r.recorder.ChunkProcessed()
			r.logger.Debug("block processed", slog.Int("done", done), slog.Int("total", total))
			if r.progress != nil {
				r.progress(done, total)
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("computing selection: %w", err)
	}

	if res.TimeLeftover > 0 {
		r.logger.Info("spectra left over for time-averaging", slog.Int("leftover", res.TimeLeftover))
		r.recorder.Leftover(telemetry.AxisTime, res.TimeLeftover)
	}
	if res.FrequencyLeftover > 0 {
		r.logger.Info("channels left over for frequency-averaging", slog.Int("leftover", res.FrequencyLeftover))
		r.recorder.Leftover(telemetry.AxisFrequency, res.FrequencyLeftover)
	}

	res.Data = dense.Data
	r.logger.Info("selection computed",
		slog.Int("times", dense.Times),
		slog.Int("frequencies", dense.Freqs),
		slog.String("size", humanize.IBytes(uint64(len(dense.Data)*4))),
		slog.Duration("took", time.Since(started)))
	return res, nil
}

// Close releases the mapped file. It is safe to call Close multiple times.
func (r *Reader) Close() error {
	return r.store.Close()
}
