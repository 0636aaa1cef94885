package dsp

import (
	"fmt"
	"math"
	"strings"

	"github.com/roman-kulish/spectra-cube/internal/cube"
)

// Product is a polarization product computed from the coherency matrix.
type Product string

const (
	StokesI Product = "I"  // total intensity, XX + YY
	StokesQ Product = "Q"  // XX - YY
	StokesU Product = "U"  // 2 Re(XY*)
	StokesV Product = "V"  // 2 Im(XY*)
	Linear  Product = "L"  // linear polarization, sqrt(Q² + U²)
	PolXX   Product = "XX" // X auto power
	PolYY   Product = "YY" // Y auto power

	FractionQ Product = "Q/I"
	FractionU Product = "U/I"
	FractionV Product = "V/I"
)

var products = map[Product]func(xx, yy, re, im float64) float64{
	StokesI: func(xx, yy, _, _ float64) float64 { return xx + yy },
	StokesQ: func(xx, yy, _, _ float64) float64 { return xx - yy },
	StokesU: func(_, _, re, _ float64) float64 { return 2 * re },
	StokesV: func(_, _, _, im float64) float64 { return 2 * im },
	Linear: func(xx, yy, re, _ float64) float64 {
		return math.Hypot(xx-yy, 2*re)
	},
	PolXX:     func(xx, _, _, _ float64) float64 { return xx },
	PolYY:     func(_, yy, _, _ float64) float64 { return yy },
	FractionQ: func(xx, yy, _, _ float64) float64 { return (xx - yy) / (xx + yy) },
	FractionU: func(xx, yy, re, _ float64) float64 { return 2 * re / (xx + yy) },
	FractionV: func(xx, yy, _, im float64) float64 { return 2 * im / (xx + yy) },
}

// UnknownProductError is returned for a polarization product that cannot be
// computed.
type UnknownProductError struct {
	Name string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown polarization product %q", e.Name)
}

// ParseProducts parses polarization product names, case-insensitively. No
// names select total intensity.
func ParseProducts(names ...string) ([]Product, error) {
	if len(names) == 0 {
		return []Product{StokesI}, nil
	}

	out := make([]Product, len(names))
	for i, name := range names {
		p := Product(strings.ToUpper(strings.TrimSpace(name)))
		if _, ok := products[p]; !ok {
			return nil, &UnknownProductError{Name: name}
		}
		out[i] = p
	}
	return out, nil
}

// Reducer returns a reduction computing ps, in order, from every coherency matrix.
func Reducer(ps []Product) cube.ReduceFunc {
	fns := make([]func(xx, yy, re, im float64) float64, len(ps))
	for i, p := range ps {
		fns[i] = products[p]
	}

	return func(m *cube.Matrix, dst []float32) {
		xy := m.XY()
		xx, yy := float64(m.XX()), float64(m.YY())
		re, im := float64(real(xy)), float64(imag(xy))
		for i, fn := range fns {
			dst[i] = float32(fn(xx, yy, re, im))
		}
	}
}
