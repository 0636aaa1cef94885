package block

import "encoding/binary"

// Layout of a single block:
//
//	IDX            u64  first effective sample index used for this block
//	TIMESTAMP      u64  timestamp of the first sample (unix seconds)
//	BLOCKSEQNUMBER u64  block sequence number of the first sample
//	FFTLEN         i32  FFT length, frequency resolution = 195312.5/FFTLEN Hz
//	NFFT2INT       i32  number of integrated FFTs per spectrum
//	FFTOVLP        i32  FFT overlap, 0 or FFTLEN/2
//	APODISATION    i32  0 none, 1..99 cosine-sum window, 101 hamming, 102 hann
//	NFFTE          i32  spectra per subband within this block
//	NBCHAN         i32  number of subbands, negative when packets were lost
//
// followed by |NBCHAN| subband records:
//
//	LANE    i32
//	BEAM    i32
//	CHANNEL i32  subband index, start frequency = CHANNEL * SubbandWidth
//	FFT0    f32  [NFFTE][FFTLEN][2]  XX, YY auto powers
//	FFT1    f32  [NFFTE][FFTLEN][2]  Re(XY*), Im(XY*)
const (
	HeaderSize       = 3*8 + 6*4
	recordHeaderSize = 3 * 4
	polarizations    = 2
	float32Size      = 4

	// SubbandWidth is the bandwidth of a single subband in Hz.
	SubbandWidth = 195312.5
)

// Header is the fixed header found at the start of every block.
type Header struct {
	Idx            uint64
	Timestamp      uint64
	BlockSeqNumber uint64
	FFTLen         int32
	NFFT2Int       int32
	FFTOverlap     int32
	Apodisation    int32
	NFFTE          int32
	NbChan         int32
}

// MarshalBinary encodes the header into b, allocating when b is too short.
func (h *Header) MarshalBinary(b []byte) []byte {
	if len(b) < HeaderSize {
		b = make([]byte, HeaderSize)
	}
	binary.LittleEndian.PutUint64(b[0:8], h.Idx)
	binary.LittleEndian.PutUint64(b[8:16], h.Timestamp)
	binary.LittleEndian.PutUint64(b[16:24], h.BlockSeqNumber)
	binary.LittleEndian.PutUint32(b[24:28], uint32(h.FFTLen))
	binary.LittleEndian.PutUint32(b[28:32], uint32(h.NFFT2Int))
	binary.LittleEndian.PutUint32(b[32:36], uint32(h.FFTOverlap))
	binary.LittleEndian.PutUint32(b[36:40], uint32(h.Apodisation))
	binary.LittleEndian.PutUint32(b[40:44], uint32(h.NFFTE))
	binary.LittleEndian.PutUint32(b[44:48], uint32(h.NbChan))
	return b[:HeaderSize]
}

// UnmarshalBinary decodes the header from the first HeaderSize bytes of b.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return newFormatError("short header: %d bytes, want %d", len(b), HeaderSize)
	}
	h.Idx = binary.LittleEndian.Uint64(b[0:8])
	h.Timestamp = binary.LittleEndian.Uint64(b[8:16])
	h.BlockSeqNumber = binary.LittleEndian.Uint64(b[16:24])
	h.FFTLen = int32(binary.LittleEndian.Uint32(b[24:28]))
	h.NFFT2Int = int32(binary.LittleEndian.Uint32(b[28:32]))
	h.FFTOverlap = int32(binary.LittleEndian.Uint32(b[32:36]))
	h.Apodisation = int32(binary.LittleEndian.Uint32(b[36:40]))
	h.NFFTE = int32(binary.LittleEndian.Uint32(b[40:44]))
	h.NbChan = int32(binary.LittleEndian.Uint32(b[44:48]))
	return nil
}

// Corrupt reports whether the block was flagged by the receiver as having lost packets.
func (h *Header) Corrupt() bool {
	return h.NbChan < 0
}

// StartTime returns the unix time in seconds of the first sample in the block.
func (h *Header) StartTime() float64 {
	return float64(h.Timestamp) + float64(h.BlockSeqNumber)/SubbandWidth
}

// Layout holds the file-level parameters derived from the first block header.
// They are constant for the lifetime of a file.
type Layout struct {
	Channels        int     // channels per subband (FFT length)
	Subbands        int     // subbands per block
	SamplesPerBlock int     // spectra per subband within a block
	Integrations    int     // integrated FFTs per spectrum
	TimeStep        float64 // seconds per spectrum
	FrequencyStep   float64 // Hz per channel

	RecordSize int64 // bytes per subband record
	BlockSize  int64 // bytes per block, header included
}

// NewLayout derives the file Layout from the header of the first block.
func NewLayout(h Header) (Layout, error) {
	switch {
	case h.FFTLen <= 0:
		return Layout{}, newFormatError("invalid FFT length: %d", h.FFTLen)
	case h.NFFTE <= 0:
		return Layout{}, newFormatError("invalid number of spectra per block: %d", h.NFFTE)
	case h.NFFT2Int <= 0:
		return Layout{}, newFormatError("invalid number of integrated FFTs: %d", h.NFFT2Int)
	case h.NbChan == 0:
		return Layout{}, newFormatError("block has no subbands")
	}

	channels := int(h.FFTLen)
	subbands := int(h.NbChan)
	if subbands < 0 {
		subbands = -subbands // could be negative when packets were lost
	}

	l := Layout{
		Channels:        channels,
		Subbands:        subbands,
		SamplesPerBlock: int(h.NFFTE),
		Integrations:    int(h.NFFT2Int),
		TimeStep:        float64(channels) * float64(h.NFFT2Int) / SubbandWidth,
		FrequencyStep:   SubbandWidth / float64(channels),
	}
	l.RecordSize = recordHeaderSize + 2*l.fftSize()
	l.BlockSize = HeaderSize + int64(subbands)*l.RecordSize

	return l, nil
}

// fftSize is the size in bytes of one FFT array within a subband record.
func (l Layout) fftSize() int64 {
	return int64(l.SamplesPerBlock) * int64(l.Channels) * polarizations * float32Size
}

// Frequencies returns the number of frequency samples in a block.
func (l Layout) Frequencies() int {
	return l.Subbands * l.Channels
}
