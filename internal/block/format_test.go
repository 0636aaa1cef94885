package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_RoundTrip(t *testing.T) {
	h := Header{
		Idx:            1 << 40,
		Timestamp:      1_700_000_000,
		BlockSeqNumber: 390625,
		FFTLen:         16,
		NFFT2Int:       8,
		FFTOverlap:     8,
		Apodisation:    102,
		NFFTE:          64,
		NbChan:         -192,
	}

	b := h.MarshalBinary(nil)
	require.Len(t, b, HeaderSize)

	var got Header
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, h, got)
	assert.True(t, got.Corrupt())
}

func TestHeader_Short(t *testing.T) {
	var h Header
	err := h.UnmarshalBinary(make([]byte, HeaderSize-1))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestHeader_StartTime(t *testing.T) {
	h := Header{Timestamp: 100, BlockSeqNumber: 390625}
	assert.InDelta(t, 102.0, h.StartTime(), 1e-9)
}

func TestNewLayout(t *testing.T) {
	l, err := NewLayout(Header{FFTLen: 16, NFFT2Int: 4, NFFTE: 10, NbChan: -3})
	require.NoError(t, err)

	assert.Equal(t, 16, l.Channels)
	assert.Equal(t, 3, l.Subbands)
	assert.Equal(t, 10, l.SamplesPerBlock)
	assert.InDelta(t, 16*4/SubbandWidth, l.TimeStep, 1e-15)
	assert.InDelta(t, SubbandWidth/16, l.FrequencyStep, 1e-9)
	assert.Equal(t, int64(12+2*10*16*2*4), l.RecordSize)
	assert.Equal(t, int64(HeaderSize)+3*l.RecordSize, l.BlockSize)
	assert.Equal(t, 48, l.Frequencies())
}

func TestNewLayout_Invalid(t *testing.T) {
	tests := []struct {
		name string
		h    Header
	}{
		{"zero fft length", Header{FFTLen: 0, NFFT2Int: 1, NFFTE: 1, NbChan: 1}},
		{"negative spectra", Header{FFTLen: 4, NFFT2Int: 1, NFFTE: -1, NbChan: 1}},
		{"zero integrations", Header{FFTLen: 4, NFFT2Int: 0, NFFTE: 1, NbChan: 1}},
		{"no subbands", Header{FFTLen: 4, NFFT2Int: 1, NFFTE: 1, NbChan: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.h)
			assert.True(t, IsFormatError(err), "got %v", err)
		})
	}
}
