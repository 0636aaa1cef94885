package cube

// Matrix is a 2x2 coherency matrix stored row-major:
//
//	[XX   XY*]
//	[YX*  YY ]
type Matrix [4]complex64

// Coherency builds the coherency matrix of one sample from the auto powers of
// both polarizations and the real and imaginary parts of their cross power.
func Coherency(xx, yy, re, im float32) Matrix {
	xy := complex(re, im)
	return Matrix{
		complex(xx, 0), xy,
		complex(re, -im), complex(yy, 0),
	}
}

func (m Matrix) XX() float32 { return real(m[0]) }

func (m Matrix) YY() float32 { return real(m[3]) }

// XY returns the XY* cross power.
func (m Matrix) XY() complex64 { return m[1] }

// Scale multiplies every element by g.
func (m *Matrix) Scale(g float32) {
	for i := range m {
		m[i] *= complex(g, 0)
	}
}
