// Copyright 2025 Certen Protocol

package encode

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.U8(0x7f)
	w.Bool(true)
	w.U16(0xbeef)
	w.U32(0xdeadbeef)
	w.U64(0x0102030405060708)
	w.VarBytes([]byte{0xaa, 0xbb})
	w.VarString("gateway")
	w.Raw([]byte{1, 2, 3})

	r := NewReader(w.Bytes())

	if v, err := r.U8(); err != nil || v != 0x7f {
		t.Fatalf("U8 = %v, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool = %v, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xbeef {
		t.Fatalf("U16 = %#x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xdeadbeef {
		t.Fatalf("U32 = %#x, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("U64 = %#x, %v", v, err)
	}
	if v, err := r.VarBytes(); err != nil || !bytes.Equal(v, []byte{0xaa, 0xbb}) {
		t.Fatalf("VarBytes = %x, %v", v, err)
	}
	if v, err := r.VarString(); err != nil || v != "gateway" {
		t.Fatalf("VarString = %q, %v", v, err)
	}
	if v, err := r.Raw(3); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("Raw = %x, %v", v, err)
	}
	if !r.Done() {
		t.Fatalf("reader should be exhausted, %d bytes remain", r.Remaining())
	}
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter(8)
	w.U32(1)
	if !bytes.Equal(w.Bytes(), []byte{1, 0, 0, 0}) {
		t.Fatalf("U32(1) = %x, want little-endian", w.Bytes())
	}

	w = NewWriter(8)
	w.VarBytes([]byte{0xff})
	if !bytes.Equal(w.Bytes(), []byte{1, 0, 0, 0, 0xff}) {
		t.Fatalf("VarBytes = %x, want 4-byte LE length prefix", w.Bytes())
	}
}

func TestReaderTruncation(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.U32(); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("U32 on short input: %v, want ErrShortBuffer", err)
	}

	// Length prefix claims more bytes than remain.
	r = NewReader([]byte{10, 0, 0, 0, 1, 2})
	if _, err := r.VarBytes(); !errors.Is(err, ErrLengthPrefix) {
		t.Fatalf("VarBytes with lying prefix: %v, want ErrLengthPrefix", err)
	}
}

func TestRaw32(t *testing.T) {
	var in [32]byte
	for i := range in {
		in[i] = byte(i)
	}
	r := NewReader(in[:])
	out, err := r.Raw32()
	if err != nil {
		t.Fatalf("Raw32: %v", err)
	}
	if out != in {
		t.Fatalf("Raw32 = %x, want %x", out, in)
	}

	r = NewReader(in[:31])
	if _, err := r.Raw32(); err == nil {
		t.Fatal("Raw32 on 31 bytes should fail")
	}
}
