package readstata13

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// binReader wraps a byte source with buffered, endian-aware primitive
// reads, a running byte position, and the literal-tag scanning used by
// the framed layouts.  The byte order starts as little-endian and is
// switched once the header's byteorder field has been decoded; short
// reads surface as TruncatedInputError for the section being decoded.
type binReader struct {
	br      *bufio.Reader
	order   binary.ByteOrder
	pos     int64
	section string
}

func newBinReader(r io.Reader) *binReader {
	return &binReader{br: bufio.NewReader(r), order: binary.LittleEndian, section: "header"}
}

func (r *binReader) enter(section string) {
	r.section = section
}

func (r *binReader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.br, buf)
	r.pos += int64(n)
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &TruncatedInputError{Section: r.section, Position: r.pos}
	}
	return &IOError{Err: err}
}

func (r *binReader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *binReader) skip(n int) error {
	_, err := r.bytes(n)
	return err
}

func (r *binReader) uint8() (uint8, error) {
	var b [1]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *binReader) int8() (int8, error) {
	x, err := r.uint8()
	return int8(x), err
}

func (r *binReader) uint16() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return r.order.Uint16(b[:]), nil
}

func (r *binReader) int16() (int16, error) {
	x, err := r.uint16()
	return int16(x), err
}

func (r *binReader) uint32() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return r.order.Uint32(b[:]), nil
}

func (r *binReader) int32() (int32, error) {
	x, err := r.uint32()
	return int32(x), err
}

func (r *binReader) uint64() (uint64, error) {
	var b [8]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return r.order.Uint64(b[:]), nil
}

func (r *binReader) float32() (float32, error) {
	x, err := r.uint32()
	return math.Float32frombits(x), err
}

func (r *binReader) float64() (float64, error) {
	x, err := r.uint64()
	return math.Float64frombits(x), err
}

// int32EOF reads a 4-byte integer, reporting done on end of file.  The
// value-label block of the positional layouts is terminated by EOF,
// the one place a short read is not an error.
func (r *binReader) int32EOF() (int32, bool, error) {
	var b [4]byte
	n, err := io.ReadFull(r.br, b[:])
	r.pos += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, &IOError{Err: err}
	}
	return int32(r.order.Uint32(b[:])), false, nil
}

// expectTag consumes len(tag) bytes and fails unless they spell tag.
func (r *binReader) expectTag(tag string) error {
	buf := make([]byte, len(tag))
	if err := r.readFull(buf); err != nil {
		return err
	}
	if string(buf) != tag {
		return &MalformedTagError{Expected: tag, Found: string(buf), Position: r.pos - int64(len(tag))}
	}
	return nil
}

// token consumes n bytes and returns them as a string.  Sections that
// end at the first non-matching token read ahead with this and then
// verify the remainder of the closing tag.
func (r *binReader) token(n int) (string, error) {
	buf, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// partition returns everything before the first null byte.
func partition(b []byte) []byte {
	for i, v := range b {
		if v == 0 {
			return b[0:i]
		}
	}
	return b
}

// binWriter is the write-side twin of binReader.  Errors stick: after
// the first failure every write is a no-op and flush reports the error.
type binWriter struct {
	bw    *bufio.Writer
	order binary.ByteOrder
	pos   int64
	err   error
}

func newBinWriter(w io.Writer, order binary.ByteOrder) *binWriter {
	return &binWriter{bw: bufio.NewWriter(w), order: order}
}

func (w *binWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.bw.Write(b)
	w.pos += int64(n)
	if err != nil {
		w.err = &IOError{Err: err}
	}
}

func (w *binWriter) tag(s string) {
	w.write([]byte(s))
}

// padded writes s truncated to width bytes and padded with nulls to
// exactly width bytes.
func (w *binWriter) padded(s string, width int) {
	buf := make([]byte, width)
	copy(buf, s)
	w.write(buf)
}

func (w *binWriter) uint8(x uint8) {
	w.write([]byte{x})
}

func (w *binWriter) int8(x int8) {
	w.uint8(uint8(x))
}

func (w *binWriter) uint16(x uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], x)
	w.write(b[:])
}

func (w *binWriter) int16(x int16) {
	w.uint16(uint16(x))
}

func (w *binWriter) uint32(x uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], x)
	w.write(b[:])
}

func (w *binWriter) int32(x int32) {
	w.uint32(uint32(x))
}

func (w *binWriter) uint64(x uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], x)
	w.write(b[:])
}

func (w *binWriter) float32(x float32) {
	w.uint32(math.Float32bits(x))
}

func (w *binWriter) float64(x float64) {
	w.uint64(math.Float64bits(x))
}

func (w *binWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.bw.Flush(); err != nil {
		return &IOError{Err: err}
	}
	return nil
}
