package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Subband holds the decoded content of one subband record. FFT0 and FFT1 are
// flattened [spectra][channels][2] arrays.
type Subband struct {
	Lane    int32
	Beam    int32
	Channel int32
	FFT0    []float32
	FFT1    []float32
}

// AppendBlock encodes one block with the given header and subband records and
// appends it to b. The layout is taken from the header; every record must
// carry SamplesPerBlock*Channels*2 values per FFT array.
func AppendBlock(b []byte, h Header, subbands []Subband) ([]byte, error) {
	layout, err := NewLayout(h)
	if err != nil {
		return b, err
	}
	if len(subbands) != layout.Subbands {
		return b, fmt.Errorf("block: got %d subband records, header declares %d", len(subbands), layout.Subbands)
	}

	values := layout.SamplesPerBlock * layout.Channels * polarizations
	b = append(b, h.MarshalBinary(nil)...)
	for i, sb := range subbands {
		if len(sb.FFT0) != values || len(sb.FFT1) != values {
			return b, fmt.Errorf("block: subband %d: got %d/%d values, want %d", i, len(sb.FFT0), len(sb.FFT1), values)
		}
		b = binary.LittleEndian.AppendUint32(b, uint32(sb.Lane))
		b = binary.LittleEndian.AppendUint32(b, uint32(sb.Beam))
		b = binary.LittleEndian.AppendUint32(b, uint32(sb.Channel))
		for _, v := range sb.FFT0 {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
		for _, v := range sb.FFT1 {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	}
	return b, nil
}

// WriteBlock encodes a block and writes it to w.
func WriteBlock(w io.Writer, h Header, subbands []Subband) error {
	b, err := AppendBlock(nil, h, subbands)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
