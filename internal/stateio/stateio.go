// Package stateio provides the length-prefixed big-endian encoding used
// by stage state payloads and the pipeline state container.
package stateio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Errors returned while decoding.
var (
	ErrTruncated    = errors.New("stateio: truncated data")
	ErrLengthBounds = errors.New("stateio: length field out of bounds")
)

// Writer accumulates an encoded payload. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// Bytes returns the encoded payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of encoded bytes so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// PutUint16 appends a big-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// PutUint32 appends a big-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// PutFloat64 appends a float64 as its IEEE-754 bits.
func (w *Writer) PutFloat64(v float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// PutFloat64s appends a uint32 count followed by the elements.
func (w *Writer) PutFloat64s(vs []float64) {
	w.PutUint32(uint32(len(vs)))
	for _, v := range vs {
		w.PutFloat64(v)
	}
}

// PutString appends a uint16 length followed by the raw bytes.
func (w *Writer) PutString(s string) {
	w.PutUint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// PutBytes appends a uint32 length followed by the raw bytes.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// PutBytesRaw appends the bytes with no length prefix. Used for fixed
// fields such as container magics.
func (w *Writer) PutBytesRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader decodes a payload produced by Writer. Every accessor returns
// ErrTruncated once the data runs short; decoding never panics on
// corrupt input.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over b. The slice is not copied.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of undecoded bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint16 decodes a big-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 decodes a big-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Float64 decodes one float64.
func (r *Reader) Float64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// Float64s decodes a counted float64 slice.
func (r *Reader) Float64s() ([]float64, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if int(n)*8 > r.Remaining() {
		return nil, fmt.Errorf("%w: %d float64s, %d bytes remain", ErrLengthBounds, n, r.Remaining())
	}

	out := make([]float64, n)
	for i := range out {
		out[i], err = r.Float64()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// String decodes a uint16-length-prefixed string.
func (r *Reader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes decodes a uint32-length-prefixed byte slice. The returned slice
// aliases the reader's backing store.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, fmt.Errorf("%w: %d bytes declared, %d remain", ErrLengthBounds, n, r.Remaining())
	}
	return r.take(int(n))
}

// BytesRaw decodes exactly n bytes with no length prefix. The returned
// slice aliases the reader's backing store.
func (r *Reader) BytesRaw(n int) ([]byte, error) {
	return r.take(n)
}
