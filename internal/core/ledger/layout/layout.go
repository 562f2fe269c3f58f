// Package layout reads and writes the fixed little-endian layouts used for
// program account data.
package layout

import (
	"encoding/binary"
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// ErrShortBuffer is returned when account data is smaller than its layout.
var ErrShortBuffer = errors.New("account data too short")

// Writer appends fields to a byte slice.
type Writer struct {
	buf []byte
	err error
}

// NewWriter starts a layout with the entry discriminator.
func NewWriter(t entry.Type, sizeHint int) *Writer {
	d := t.Discriminator()
	w := &Writer{buf: make([]byte, 0, sizeHint)}
	w.buf = append(w.buf, d[:]...)
	return w
}

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) I64(v int64)  { w.U64(uint64(v)) }

func (w *Writer) Address(a types.Address) { w.buf = append(w.buf, a[:]...) }

// Fixed appends raw bytes without a length prefix.
func (w *Writer) Fixed(b []byte) { w.buf = append(w.buf, b...) }

// Int128 appends a little-endian two's complement 128-bit integer.
func (w *Writer) Int128(v sdkmath.Int) {
	var b [types.Int128Size]byte
	if err := types.PutInt128LE(b[:], v); err != nil && w.err == nil {
		w.err = err
	}
	w.buf = append(w.buf, b[:]...)
}

// Pad grows the buffer with zeroes up to size.
func (w *Writer) Pad(size int) {
	for len(w.buf) < size {
		w.buf = append(w.buf, 0)
	}
}

// Bytes returns the encoded layout.
func (w *Writer) Bytes() ([]byte, error) {
	return w.buf, w.err
}

// Reader consumes fields from account data. The first short read sets an
// error and every later read returns zero values.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader skips the entry discriminator.
func NewReader(data []byte) *Reader {
	r := NewRawReader(data)
	r.Skip(entry.DiscriminatorSize)
	return r
}

// NewRawReader reads from the start of data.
func NewRawReader(data []byte) *Reader {
	return &Reader{buf: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = ErrShortBuffer
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Skip(n int) { r.take(n) }

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool { return r.U8() != 0 }

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) Address() types.Address {
	var a types.Address
	copy(a[:], r.take(types.AddressLength))
	return a
}

// Fixed returns a copy of the next n bytes.
func (r *Reader) Fixed(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (r *Reader) Int128() sdkmath.Int {
	b := r.take(types.Int128Size)
	if b == nil {
		return sdkmath.ZeroInt()
	}
	return types.Int128LE(b)
}

// Offset returns the number of bytes consumed, discriminator included.
func (r *Reader) Offset() int { return r.off }

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
