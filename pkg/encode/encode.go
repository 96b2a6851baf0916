// Copyright 2025 Certen Protocol
//
// Package encode implements the canonical byte layouts that every hash in
// the module is computed over. Fixed-size integers are little-endian;
// variable-length fields carry a 4-byte little-endian length prefix.
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrShortBuffer  = errors.New("buffer too short for field")
	ErrLengthPrefix = errors.New("length prefix exceeds remaining input")
)

// Writer accumulates a canonical byte layout.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated layout.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Raw appends bytes verbatim, without a length prefix. Used for fixed-size
// fields whose length is fixed by the layout.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// U8 appends a single byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// Bool appends 0x01 or 0x00.
func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

// U16 appends a little-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// VarBytes appends a 4-byte little-endian length prefix followed by b.
func (w *Writer) VarBytes(b []byte) *Writer {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
	return w
}

// VarString appends s as a length-prefixed byte string.
func (w *Writer) VarString(s string) *Writer {
	return w.VarBytes([]byte(s))
}

// Reader consumes a canonical byte layout. All methods return ErrShortBuffer
// past the end of input; a Reader never panics on truncated data.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Done reports whether the entire input was consumed.
func (r *Reader) Done() bool {
	return r.Remaining() == 0
}

// Raw reads exactly n bytes.
func (r *Reader) Raw(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, r.Remaining())
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

// Raw32 reads a fixed 32-byte field.
func (r *Reader) Raw32() ([32]byte, error) {
	var out [32]byte
	b, err := r.Raw(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Raw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a single byte and maps any nonzero value to true.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Raw(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Raw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Raw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// VarBytes reads a 4-byte length prefix and then that many bytes.
func (r *Reader) VarBytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, fmt.Errorf("%w: prefix %d, remaining %d", ErrLengthPrefix, n, r.Remaining())
	}
	return r.Raw(int(n))
}

// VarString reads a length-prefixed byte string.
func (r *Reader) VarString() (string, error) {
	b, err := r.VarBytes()
	return string(b), err
}
