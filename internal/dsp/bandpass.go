// Package dsp holds the per-chunk correction and reduction stages applied to
// coherency cubes.
package dsp

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/roman-kulish/spectra-cube/internal/cube"
)

// The receiver splits the band with a polyphase filter bank whose prototype
// filter has prototypeTaps taps per subband over prototypeSubbands subbands.
const (
	prototypeTaps     = 16
	prototypeSubbands = 1024
	kaiserBeta        = 9
)

var (
	bandpassMu    sync.Mutex
	bandpassCache = make(map[int][]float64)
)

// BandpassProfile returns the per-channel gain that flattens the response of
// one subband split into channels channels. The result is shared and must not
// be modified.
func BandpassProfile(channels int) []float64 {
	bandpassMu.Lock()
	defer bandpassMu.Unlock()

	if p, ok := bandpassCache[channels]; ok {
		return p
	}
	p := bandpassProfile(channels, prototype())
	bandpassCache[channels] = p
	return p
}

func bandpassProfile(channels int, taps []float64) []float64 {
	n := channels * prototypeSubbands

	// Sampling the response at n points folds the filter modulo n.
	seq := make([]complex128, n)
	var dc float64
	for i, h := range taps {
		seq[i%n] += complex(h, 0)
		dc += h
	}

	coeff := fourier.NewCmplxFFT(n).Coefficients(nil, seq)
	power := func(k int) float64 {
		k %= n
		if k < 0 {
			k += n
		}
		a := cmplx.Abs(coeff[k])
		return a * a
	}

	// Gain normalised so that the filter passes DC unchanged.
	g := 1 / dc
	mid := channels / 2
	profile := make([]float64, channels)
	for c := range profile {
		k := c - mid
		total := power(k) + power(k+channels) + power(k-channels)
		profile[c] = 1 / (g * g * total)
	}
	return profile
}

// prototype returns the Kaiser windowed sinc low-pass prototype of the filter bank.
func prototype() []float64 {
	n := prototypeTaps * prototypeSubbands
	taps := make([]float64, n)
	centre := float64(n-1) / 2
	norm := besselI0(kaiserBeta)

	for i := range taps {
		x := (float64(i) - centre) / prototypeSubbands
		r := 2*float64(i)/float64(n-1) - 1
		w := besselI0(kaiserBeta*math.Sqrt(1-r*r)) / norm
		taps[i] = sinc(x) * w
	}
	return taps
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// besselI0 evaluates the modified Bessel function of the first kind, order 0.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	half := x / 2
	for k := 1; k < 500; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}

// Bandpass returns a stage multiplying every channel by the bandpass profile
// of a subband split into channels channels.
func Bandpass(channels int) cube.Stage {
	profile := BandpassProfile(channels)
	return func(s *cube.Slab) {
		for f := range s.Freqs {
			g := float32(profile[(s.FreqStart+f)%channels])
			for t := range s.Times {
				s.At(t, f).Scale(g)
			}
		}
	}
}
