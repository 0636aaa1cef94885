package spectra

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds the query parameters as found in a configuration file. Unset
// fields leave the current configuration untouched.
type Options struct {
	Beam            *BeamID         `yaml:"beam"`
	TimeRange       *TimeRange      `yaml:"timeRange"`
	FrequencyRange  *FrequencyRange `yaml:"frequencyRange"`
	RebinDT         *Duration       `yaml:"rebinDT"`
	RebinDF         *float64        `yaml:"rebinDF"` // Hz
	EdgeChannels    *EdgeChannels   `yaml:"edgeChannels"`
	CorrectBandpass *bool           `yaml:"correctBandpass"`
}

// BeamID is a beam identifier given either as an integer or a string.
type BeamID int

// ParseBeamID converts a textual beam identifier.
func ParseBeamID(s string) (BeamID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, newConfigurationError("beam %q is not an integer", s)
	}
	return BeamID(n), nil
}

func (b *BeamID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("spectra.BeamID: expected a scalar, got %s", value.Tag)
	}
	id, err := ParseBeamID(value.Value)
	if err != nil {
		return fmt.Errorf("spectra.BeamID: failed to parse: %w", err)
	}
	*b = id
	return nil
}

// TimeRange is an inclusive time window.
type TimeRange struct {
	Start time.Time `yaml:"start"`
	Stop  time.Time `yaml:"stop"`
}

// FrequencyRange is a frequency window in Hz.
type FrequencyRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "1.5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("spectra.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// EdgeChannels is the number of channels removed at each subband edge. It is
// written either as a single count applied to both edges or as a
// [lower, upper] pair.
type EdgeChannels struct {
	Lower int
	Upper int
}

func (e *EdgeChannels) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var n int
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("spectra.EdgeChannels: failed to parse: %w", err)
		}
		*e = EdgeChannels{Lower: n, Upper: n}
		return nil

	case yaml.SequenceNode:
		var pair []int
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("spectra.EdgeChannels: failed to parse: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("spectra.EdgeChannels: expected [lower, upper], got %d values", len(pair))
		}
		*e = EdgeChannels{Lower: pair[0], Upper: pair[1]}
		return nil

	default:
		return fmt.Errorf("spectra.EdgeChannels: expected a count or a [lower, upper] pair")
	}
}

// apply runs the setters of c for every field set in o, stopping at the
// first error.
func (o Options) apply(c *Configuration) error {
	if o.Beam != nil {
		if err := c.SetBeam(int(*o.Beam)); err != nil {
			return err
		}
	}
	if o.TimeRange != nil {
		if err := c.SetTimeRange(o.TimeRange.Start, o.TimeRange.Stop); err != nil {
			return err
		}
	}
	if o.FrequencyRange != nil {
		if err := c.SetFrequencyRange(o.FrequencyRange.Min, o.FrequencyRange.Max); err != nil {
			return err
		}
	}
	if o.RebinDT != nil {
		if err := c.SetRebinDT(time.Duration(*o.RebinDT)); err != nil {
			return err
		}
	}
	if o.RebinDF != nil {
		if err := c.SetRebinDF(*o.RebinDF); err != nil {
			return err
		}
	}
	if o.EdgeChannels != nil {
		if err := c.SetEdgeChannels(o.EdgeChannels.Lower, o.EdgeChannels.Upper); err != nil {
			return err
		}
	}
	if o.CorrectBandpass != nil {
		c.SetCorrectBandpass(*o.CorrectBandpass)
	}
	return nil
}
