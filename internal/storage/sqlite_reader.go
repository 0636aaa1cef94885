package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

// ErrNoData indicates that all available data has been read from the spectrum reader.
var ErrNoData = errors.New("no data available")

// SpectrumReader provides an iterator-based interface for reading stored
// spectra with optional time, frequency and polarization filtering.
type SpectrumReader interface {
	// Session returns metadata about the session this reader is accessing.
	Session() *spectrum.Session

	// Next advances the iterator and returns true if there is another spectrum
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current spectrum in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *spectrum.Spectrum

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

// ReaderOption configures a SpectrumReader with specific filtering criteria.
type ReaderOption func(*SqliteSpectrumReader)

// WithFreqRange limits the spectra to samples between minFreq and maxFreq Hz, inclusive.
func WithFreqRange(minFreq, maxFreq float64) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.minFreq = &minFreq
		r.maxFreq = &maxFreq
	}
}

// WithTimeRange limits the spectra to timestamps between startTime and endTime, inclusive.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// WithPolarization limits the spectra to a single polarization product.
func WithPolarization(p string) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.polarization = p
	}
}

func newSqliteSpectrumReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteSpectrumReader, error) {
	sr := &SqliteSpectrumReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

// SqliteSpectrumReader implements SpectrumReader for SQLite database backend.
type SqliteSpectrumReader struct {
	db *sql.DB

	sessionID int64
	session   *spectrum.Session

	startTime    *time.Time // Optional start of time range filter
	endTime      *time.Time // Optional end of time range filter
	minFreq      *float64   // Optional minimum frequency filter
	maxFreq      *float64   // Optional maximum frequency filter
	polarization string     // Optional polarization filter

	current    *spectrum.Spectrum
	next       sampleData // First sample of the next spectrum
	nextExists bool
	rows       *sql.Rows
	err        error
}

func (sr *SqliteSpectrumReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: sr.loadSession},
		{msg: "initializing filters", fn: sr.initFilters},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSpectrumReader) loadSession(ctx context.Context) (err error) {
	sr.session, err = loadSession(ctx, sr.db, sr.sessionID)
	return
}

func (sr *SqliteSpectrumReader) initFilters(ctx context.Context) (err error) {
	timeFiltersSet := sr.startTime != nil && sr.endTime != nil
	freqFiltersSet := sr.minFreq != nil && sr.maxFreq != nil

	if timeFiltersSet {
		if sr.startTime.After(*sr.endTime) {
			return fmt.Errorf("start time %s is after end time %s", sr.startTime, sr.endTime)
		}
	}
	if freqFiltersSet {
		if *sr.minFreq > *sr.maxFreq {
			return fmt.Errorf("min frequency %f is greater than max frequency %f", *sr.minFreq, *sr.maxFreq)
		}
	}
	if timeFiltersSet && freqFiltersSet {
		return nil
	}

	stmt, err := sr.db.PrepareContext(ctx, selectFilterValuesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	// Aggregates are NULL when the session holds no samples.
	var minFreq, maxFreq, startTime, endTime sql.NullFloat64
	if err = stmt.QueryRowContext(ctx, sr.sessionID).Scan(&minFreq, &maxFreq, &startTime, &endTime); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if sr.minFreq == nil {
		sr.minFreq = &minFreq.Float64
	}
	if sr.maxFreq == nil {
		sr.maxFreq = &maxFreq.Float64
	}
	if sr.startTime == nil {
		t := unixTime(startTime.Float64)
		sr.startTime = &t
	}
	if sr.endTime == nil {
		t := unixTime(endTime.Float64)
		sr.endTime = &t
	}

	return nil
}

func (sr *SqliteSpectrumReader) initQuery(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSamplesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	sr.rows, err = stmt.QueryContext(ctx,
		sr.sessionID,
		unixSeconds(*sr.startTime),
		unixSeconds(*sr.endTime),
		*sr.minFreq,
		*sr.maxFreq,
		sr.polarization,
		sr.polarization,
	)
	return
}

func (sr *SqliteSpectrumReader) scanSample() (sampleData, error) {
	var sample sampleData
	if err := sr.rows.Scan(&sample.Timestamp, &sample.Polarization, &sample.Frequency, &sample.Value); err != nil {
		return sample, fmt.Errorf("scanning sample: %w", err)
	}
	return sample, nil
}

func (sr *SqliteSpectrumReader) startSpectrum(sample sampleData) {
	sr.current = &spectrum.Spectrum{
		Timestamp:      unixTime(sample.Timestamp),
		Polarization:   sample.Polarization,
		FrequencyStart: sample.Frequency,
		FrequencyEnd:   sample.Frequency,
	}
	sr.appendSample(sample)
}

func (sr *SqliteSpectrumReader) appendSample(sample sampleData) {
	point := spectrum.Point{Frequency: sample.Frequency}
	if sample.Value.Valid {
		v := sample.Value.Float64
		point.Value = &v
	}
	sr.current.Samples = append(sr.current.Samples, point)
	sr.current.FrequencyEnd = sample.Frequency
}

func (sr *SqliteSpectrumReader) Session() *spectrum.Session {
	return sr.session
}

func (sr *SqliteSpectrumReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	sr.current = nil
	var key struct {
		timestamp    float64
		polarization string
	}
	if sr.nextExists {
		sr.startSpectrum(sr.next)
		key.timestamp, key.polarization = sr.next.Timestamp, sr.next.Polarization
		sr.nextExists = false
	}

	for {
		select {
		case <-ctx.Done():
			sr.err = ctx.Err()
			return false
		default:
		}

		if !sr.rows.Next() {
			if sr.current != nil {
				sr.err = ErrNoData
				return true
			}
			return false
		}

		var sample sampleData
		if sample, sr.err = sr.scanSample(); sr.err != nil {
			return false
		}

		if sr.current == nil {
			sr.startSpectrum(sample)
			key.timestamp, key.polarization = sample.Timestamp, sample.Polarization
			continue
		}

		// A new timestamp or polarization completes the current spectrum
		if sample.Timestamp != key.timestamp || sample.Polarization != key.polarization {
			sr.next = sample
			sr.nextExists = true
			return true
		}

		sr.appendSample(sample)
	}
}

func (sr *SqliteSpectrumReader) Current() *spectrum.Spectrum {
	return sr.current
}

func (sr *SqliteSpectrumReader) Error() error {
	if sr.err != nil && !errors.Is(sr.err, ErrNoData) {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSpectrumReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.current = nil
		sr.nextExists = false
		sr.rows = nil
		return err
	}
	return nil
}
