package dsp

import (
	"fmt"
	"math"

	"github.com/roman-kulish/spectra-cube/internal/cube"
)

// EdgeChannels returns a stage invalidating the lower lowest and upper highest
// channels of every subband. Invalid samples are NaN and are excluded from
// averaging. A nil stage is returned when nothing is to be removed.
func EdgeChannels(channels, lower, upper int) (cube.Stage, error) {
	switch {
	case lower < 0 || upper < 0:
		return nil, fmt.Errorf("edge channels must not be negative: (%d, %d)", lower, upper)
	case lower+upper > channels:
		return nil, fmt.Errorf("cannot remove %d+%d edge channels from %d channel subbands", lower, upper, channels)
	case lower == 0 && upper == 0:
		return nil, nil
	}

	nan := complex(float32(math.NaN()), float32(math.NaN()))
	invalid := cube.Matrix{nan, nan, nan, nan}

	return func(s *cube.Slab) {
		for f := range s.Freqs {
			c := (s.FreqStart + f) % channels
			if c >= lower && c < channels-upper {
				continue
			}
			for t := range s.Times {
				*s.At(t, f) = invalid
			}
		}
	}, nil
}
