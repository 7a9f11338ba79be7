package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/klauspost/compress/zstd"
)

const (
	magicBytes = "CHROUTER"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000

	flagCompressed = uint32(1) << 0
)

// ErrInvalidFormat is returned when a graph file fails validation.
var ErrInvalidFormat = errors.New("graph: invalid binary format")

// fileHeader is written uncompressed. Everything after it may be a zstd
// stream, and the CRC32 trailer lives inside that stream.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	Flags        uint32
	NumNodes     uint32
	NumEdges     uint32
	NumShortcuts uint32
	HasCoords    uint32
}

// WriteOptions configures WriteBinary.
type WriteOptions struct {
	Compress bool // zstd-compress the payload
}

// columns is the column-oriented on-disk layout of a Graph.
type columns struct {
	levels   []int32
	a, b     []uint32
	distance []float64
	weight   []float64
	flags    []uint32
	skip0    []uint32
	skip1    []uint32
	orig     []uint32
	shortcut []uint8
}

func toColumns(g *Graph) columns {
	m := g.NumEdges()
	c := columns{
		levels:   g.levels,
		a:        make([]uint32, m),
		b:        make([]uint32, m),
		distance: make([]float64, m),
		weight:   make([]float64, m),
		flags:    make([]uint32, m),
		skip0:    make([]uint32, m),
		skip1:    make([]uint32, m),
		orig:     make([]uint32, m),
		shortcut: make([]uint8, m),
	}
	for i, e := range g.AllEdges() {
		c.a[i], c.b[i] = e.A, e.B
		c.distance[i] = e.Distance
		c.weight[i] = e.Weight
		c.flags[i] = uint32(e.Flags)
		c.skip0[i], c.skip1[i] = e.Skipped[0], e.Skipped[1]
		c.orig[i] = e.OriginalEdges
		if e.Shortcut {
			c.shortcut[i] = 1
		}
	}
	return c
}

// writeTo writes the columns in file order. Also used by Fingerprint.
func (c *columns) writeTo(w io.Writer) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"levels", func() error { return writeInt32Slice(w, c.levels) }},
		{"edge A", func() error { return writeUint32Slice(w, c.a) }},
		{"edge B", func() error { return writeUint32Slice(w, c.b) }},
		{"distance", func() error { return writeFloat64Slice(w, c.distance) }},
		{"weight", func() error { return writeFloat64Slice(w, c.weight) }},
		{"flags", func() error { return writeUint32Slice(w, c.flags) }},
		{"skip0", func() error { return writeUint32Slice(w, c.skip0) }},
		{"skip1", func() error { return writeUint32Slice(w, c.skip1) }},
		{"original edges", func() error { return writeUint32Slice(w, c.orig) }},
		{"shortcut marks", func() error { return writeUint8Slice(w, c.shortcut) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
	}
	return nil
}

// WriteBinary serializes a prepared graph to path. The file is written to a
// temporary path and renamed into place.
func WriteBinary(path string, g *Graph, opts ...WriteOptions) error {
	var opt WriteOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	hdr := fileHeader{
		Version:      version,
		NumNodes:     uint32(g.NumNodes()),
		NumEdges:     uint32(g.NumEdges()),
		NumShortcuts: uint32(g.NumShortcuts()),
	}
	copy(hdr.Magic[:], magicBytes)
	if opt.Compress {
		hdr.Flags |= flagCompressed
	}
	if g.HasCoordinates() {
		hdr.HasCoords = 1
	}
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var body io.Writer = f
	var enc *zstd.Encoder
	if opt.Compress {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		body = enc
	}

	crcWriter := crc32Writer{w: body, hash: crc32.NewIEEE()}
	w := &crcWriter

	if hdr.HasCoords == 1 {
		if err := writeFloat64Slice(w, g.NodeLat); err != nil {
			return fmt.Errorf("write NodeLat: %w", err)
		}
		if err := writeFloat64Slice(w, g.NodeLon); err != nil {
			return fmt.Errorf("write NodeLon: %w", err)
		}
	}

	cols := toColumns(g)
	if err := cols.writeTo(w); err != nil {
		return err
	}

	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(body, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("close zstd encoder: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a graph written by WriteBinary.
func ReadBinary(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var hdr fileHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("%w: magic bytes %q", ErrInvalidFormat, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("%w: NumNodes %d exceeds limit %d", ErrInvalidFormat, hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("%w: NumEdges %d exceeds limit %d", ErrInvalidFormat, hdr.NumEdges, maxEdges)
	}

	var body io.Reader = f
	if hdr.Flags&flagCompressed != 0 {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		body = dec
	}

	crcReader := crc32Reader{r: body, hash: crc32.NewIEEE()}
	r := &crcReader

	n, m := int(hdr.NumNodes), int(hdr.NumEdges)
	g := &Graph{}

	if hdr.HasCoords == 1 {
		if g.NodeLat, err = readFloat64Slice(r, n); err != nil {
			return nil, fmt.Errorf("read NodeLat: %w", err)
		}
		if g.NodeLon, err = readFloat64Slice(r, n); err != nil {
			return nil, fmt.Errorf("read NodeLon: %w", err)
		}
	}

	var c columns
	if c.levels, err = readInt32Slice(r, n); err != nil {
		return nil, fmt.Errorf("read levels: %w", err)
	}
	if c.a, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read edge A: %w", err)
	}
	if c.b, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read edge B: %w", err)
	}
	if c.distance, err = readFloat64Slice(r, m); err != nil {
		return nil, fmt.Errorf("read distance: %w", err)
	}
	if c.weight, err = readFloat64Slice(r, m); err != nil {
		return nil, fmt.Errorf("read weight: %w", err)
	}
	if c.flags, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	if c.skip0, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read skip0: %w", err)
	}
	if c.skip1, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read skip1: %w", err)
	}
	if c.orig, err = readUint32Slice(r, m); err != nil {
		return nil, fmt.Errorf("read original edges: %w", err)
	}
	if c.shortcut, err = readUint8Slice(r, m); err != nil {
		return nil, fmt.Errorf("read shortcut marks: %w", err)
	}

	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(body, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrInvalidFormat, storedCRC, expectedCRC)
	}

	if err := validateColumns(&c, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	g.levels = c.levels
	if g.levels == nil {
		g.levels = []int32{}
	}
	g.adj = make([][]uint32, n)
	g.edges = make([]Edge, 0, m)
	for i := range m {
		e := Edge{
			A:             c.a[i],
			B:             c.b[i],
			Distance:      c.distance[i],
			Flags:         Flags(c.flags[i]),
			Weight:        c.weight[i],
			Skipped:       [2]uint32{c.skip0[i], c.skip1[i]},
			OriginalEdges: c.orig[i],
		}
		if c.shortcut[i] == 1 {
			g.AddShortcut(e)
		} else {
			g.insert(e)
		}
	}

	if g.NumShortcuts() != int(hdr.NumShortcuts) {
		return nil, fmt.Errorf("%w: shortcut count %d != header %d", ErrInvalidFormat, g.NumShortcuts(), hdr.NumShortcuts)
	}
	return g, nil
}

// validateColumns checks endpoint and skip reference ranges.
func validateColumns(c *columns, numNodes uint32) error {
	numEdges := uint32(len(c.a))
	for i := range numEdges {
		if c.a[i] >= numNodes || c.b[i] >= numNodes {
			return fmt.Errorf("edge %d endpoints %d-%d >= NumNodes=%d", i, c.a[i], c.b[i], numNodes)
		}
		for _, s := range [2]uint32{c.skip0[i], c.skip1[i]} {
			if s != NoEdge && s >= numEdges {
				return fmt.Errorf("edge %d skip ref %d >= NumEdges=%d", i, s, numEdges)
			}
		}
		if c.shortcut[i] > 1 {
			return fmt.Errorf("edge %d shortcut mark %d", i, c.shortcut[i])
		}
	}
	for i, l := range c.levels {
		if l < NoLevel {
			return fmt.Errorf("level[%d]=%d", i, l)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeUint8Slice(w io.Writer, s []uint8) error {
	if len(s) == 0 {
		return nil
	}
	_, err := w.Write(s)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readUint8Slice(r io.Reader, n int) ([]uint8, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint8, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
