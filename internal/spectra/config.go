package spectra

import (
	"log/slog"
	"math"
	"time"

	"github.com/roman-kulish/spectra-cube/internal/beam"
)

// widthEpsilon absorbs floating point noise when converting a bin duration
// or bandwidth to a number of native samples.
const widthEpsilon = 1e-9

// Configuration is the validated set of query parameters of a Reader. It is
// only changed through its setters, each of which rejects invalid values
// without modifying the configuration.
type Configuration struct {
	beams    beam.Index
	channels int
	dt       float64 // native seconds per spectrum
	df       float64 // native Hz per channel
	span     [2]float64
	logger   *slog.Logger

	beam            int
	timeRange       [2]float64 // unix seconds
	frequencyRange  [2]float64 // Hz
	edges           [2]int
	rebinDT         time.Duration
	timeWidth       int
	rebinDF         float64
	freqWidth       int
	correctBandpass bool
}

// Beam returns the selected beam.
func (c *Configuration) Beam() int {
	return c.beam
}

// SetBeam selects one of the beams recorded in the file.
func (c *Configuration) SetBeam(id int) error {
	if _, ok := c.beams.Lookup(id); !ok {
		return newConfigurationError("beam %d not found among available beams %v", id, c.beams.Beams())
	}
	c.beam = id
	c.logger.Info("beam selected", slog.Int("beam", id))
	return nil
}

// TimeRange returns the selected time range.
func (c *Configuration) TimeRange() (start, stop time.Time) {
	return unixTime(c.timeRange[0]), unixTime(c.timeRange[1])
}

// SetTimeRange selects the time range to read. A range reaching outside the
// file is accepted; the selection is clipped to the file when it is read.
func (c *Configuration) SetTimeRange(start, stop time.Time) error {
	if !start.Before(stop) {
		return newConfigurationError("time range start %s is not before stop %s",
			start.UTC().Format(time.RFC3339Nano), stop.UTC().Format(time.RFC3339Nano))
	}

	tmin, tmax := unixSeconds(start), unixSeconds(stop)
	if tmin < c.span[0] || tmax > c.span[1] {
		c.logger.Warn("requested time range is outside the observation",
			slog.Time("start", start), slog.Time("stop", stop),
			slog.Time("observationStart", unixTime(c.span[0])),
			slog.Time("observationStop", unixTime(c.span[1])))
	}
	c.timeRange = [2]float64{tmin, tmax}
	return nil
}

// FrequencyRange returns the selected frequency range in Hz.
func (c *Configuration) FrequencyRange() (fmin, fmax float64) {
	return c.frequencyRange[0], c.frequencyRange[1]
}

// SetFrequencyRange selects the frequency range to read, in Hz.
func (c *Configuration) SetFrequencyRange(fmin, fmax float64) error {
	if math.IsNaN(fmin) || math.IsNaN(fmax) || fmin >= fmax {
		return newConfigurationError("frequency range min %g Hz is not below max %g Hz", fmin, fmax)
	}
	c.frequencyRange = [2]float64{fmin, fmax}
	return nil
}

// EdgeChannels returns the number of channels removed at the lower and upper
// edge of every subband.
func (c *Configuration) EdgeChannels() (lower, upper int) {
	return c.edges[0], c.edges[1]
}

// SetEdgeChannels sets the number of channels removed at the lower and upper
// edge of every subband.
func (c *Configuration) SetEdgeChannels(lower, upper int) error {
	if lower < 0 || upper < 0 {
		return newConfigurationError("edge channels must not be negative: (%d, %d)", lower, upper)
	}
	if lower+upper > c.channels {
		return newConfigurationError("cannot remove %d+%d edge channels from %d channel subbands", lower, upper, c.channels)
	}
	c.edges = [2]int{lower, upper}
	return nil
}

// RebinDT returns the time bin duration, 0 when time averaging is off.
func (c *Configuration) RebinDT() time.Duration {
	return c.rebinDT
}

// SetRebinDT sets the duration of a time bin. Zero turns time averaging off.
func (c *Configuration) SetRebinDT(d time.Duration) error {
	if d == 0 {
		c.rebinDT, c.timeWidth = 0, 0
		return nil
	}
	width, err := binWidth("rebin dt", d.Seconds(), c.dt)
	if err != nil {
		return err
	}
	c.rebinDT, c.timeWidth = d, width
	return nil
}

// RebinDF returns the frequency bin width in Hz, 0 when frequency averaging is off.
func (c *Configuration) RebinDF() float64 {
	return c.rebinDF
}

// SetRebinDF sets the width of a frequency bin in Hz. Zero turns frequency
// averaging off.
func (c *Configuration) SetRebinDF(hz float64) error {
	if hz == 0 {
		c.rebinDF, c.freqWidth = 0, 0
		return nil
	}
	width, err := binWidth("rebin df", hz, c.df)
	if err != nil {
		return err
	}
	c.rebinDF, c.freqWidth = hz, width
	return nil
}

// CorrectBandpass reports whether the bandpass correction is applied.
func (c *Configuration) CorrectBandpass() bool {
	return c.correctBandpass
}

// SetCorrectBandpass turns the bandpass correction on or off.
func (c *Configuration) SetCorrectBandpass(v bool) {
	c.correctBandpass = v
}

// binWidth converts a bin size into a whole number of native samples.
func binWidth(name string, target, native float64) (int, error) {
	if math.IsNaN(target) || target < 0 {
		return 0, newConfigurationError("%s must be positive: %g", name, target)
	}
	width := int(math.Floor(target/native + widthEpsilon))
	if width < 1 {
		return 0, newConfigurationError("%s %g is below the native resolution %g", name, target, native)
	}
	return width, nil
}

func (c *Configuration) clone() *Configuration {
	out := *c
	return &out
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func unixTime(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
