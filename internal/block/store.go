package block

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when a closed Store is accessed.
var ErrClosed = errors.New("block: store is closed")

// Store exposes a memory-mapped block file as a fixed-stride sequence of
// blocks. Nothing is copied out of the mapping until a value is requested.
type Store struct {
	path   string
	file   *os.File
	data   []byte
	unmap  func([]byte) error
	layout Layout

	blocks   int
	trailing int64 // bytes after the last complete block

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open maps the file at path and decodes the layout from its first header.
// The returned Store holds the file open until Close is called.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	s, err := newStore(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	runtime.SetFinalizer(s, (*Store).Close)
	return s, nil
}

func newStore(path string, f *os.File) (*Store, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading file info: %w", err)
	}

	var buf [HeaderSize]byte
	n, err := f.ReadAt(buf[:], 0)
	if n < HeaderSize {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return nil, newFormatError("file is too short for a block header: %d bytes", stat.Size())
	}

	var h Header
	if err = h.UnmarshalBinary(buf[:]); err != nil {
		return nil, err
	}

	layout, err := NewLayout(h)
	if err != nil {
		return nil, err
	}

	blocks := stat.Size() / layout.BlockSize
	if blocks == 0 {
		return nil, newFormatError("file holds no complete block: %d bytes, block size %d", stat.Size(), layout.BlockSize)
	}

	data, unmap, err := mapFile(f, blocks*layout.BlockSize)
	if err != nil {
		return nil, err
	}

	return &Store{
		path:     path,
		file:     f,
		data:     data,
		unmap:    unmap,
		layout:   layout,
		blocks:   int(blocks),
		trailing: stat.Size() - blocks*layout.BlockSize,
	}, nil
}

// Path returns the path of the mapped file.
func (s *Store) Path() string {
	return s.path
}

// Layout returns the file-level parameters.
func (s *Store) Layout() Layout {
	return s.layout
}

// Len returns the number of complete blocks in the file.
func (s *Store) Len() int {
	return s.blocks
}

// Size returns the number of mapped bytes.
func (s *Store) Size() int64 {
	return int64(len(s.data))
}

// TrailingBytes returns the number of bytes after the last complete block.
func (s *Store) TrailingBytes() int64 {
	return s.trailing
}

func (s *Store) block(i int) []byte {
	off := int64(i) * s.layout.BlockSize
	return s.data[off : off+s.layout.BlockSize]
}

// Header decodes the header of block i.
func (s *Store) Header(i int) Header {
	var h Header
	_ = h.UnmarshalBinary(s.block(i)) // block slices are always HeaderSize or longer
	return h
}

// Headers decodes the headers of every block in the file.
func (s *Store) Headers() []Header {
	headers := make([]Header, s.blocks)
	for i := range headers {
		headers[i] = s.Header(i)
	}
	return headers
}

// Record returns a view over subband record sub of block i.
func (s *Store) Record(i, sub int) Record {
	off := HeaderSize + int64(sub)*s.layout.RecordSize
	return Record{
		raw:      s.block(i)[off : off+s.layout.RecordSize],
		channels: s.layout.Channels,
		fftSize:  s.layout.fftSize(),
	}
}

// Closed reports whether Close has been called. The mapping must not be
// read once it returns true.
func (s *Store) Closed() bool {
	return s.closed.Load()
}

// Close unmaps the file and closes it. It is safe to call Close multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		runtime.SetFinalizer(s, nil)

		var unmapErr, closeErr error
		if s.data != nil {
			unmapErr = s.unmap(s.data)
			s.data = nil
		}
		if s.file != nil {
			closeErr = s.file.Close()
			s.file = nil
		}
		s.closeErr = errors.Join(unmapErr, closeErr)
	})

	return s.closeErr
}

// Record is a zero-copy view over one subband record of a block.
type Record struct {
	raw      []byte
	channels int
	fftSize  int64
}

// Lane returns the receiver lane the subband was recorded on.
func (r Record) Lane() int32 {
	return int32(binary.LittleEndian.Uint32(r.raw[0:4]))
}

// Beam returns the beam identifier of the subband.
func (r Record) Beam() int32 {
	return int32(binary.LittleEndian.Uint32(r.raw[4:8]))
}

// Channel returns the subband index; the subband starts at Channel*SubbandWidth Hz.
func (r Record) Channel() int32 {
	return int32(binary.LittleEndian.Uint32(r.raw[8:12]))
}

// FFT0 returns the XX and YY auto powers of spectrum t, channel c.
func (r Record) FFT0(t, c int) (xx, yy float32) {
	return r.pair(recordHeaderSize, t, c)
}

// FFT1 returns the real and imaginary parts of the XY* cross power of spectrum t, channel c.
func (r Record) FFT1(t, c int) (re, im float32) {
	return r.pair(recordHeaderSize+r.fftSize, t, c)
}

func (r Record) pair(base int64, t, c int) (float32, float32) {
	off := base + int64(t*r.channels+c)*polarizations*float32Size
	a := math.Float32frombits(binary.LittleEndian.Uint32(r.raw[off : off+4]))
	b := math.Float32frombits(binary.LittleEndian.Uint32(r.raw[off+4 : off+8]))
	return a, b
}
