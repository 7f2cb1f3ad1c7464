package bitio

import "encoding/binary"

const (
	// writerBits is the number of bits flushed at a time.
	writerBits = 32
	// writerBytes is the number of bytes written per flush.
	writerBytes = 4
)

// Writer is an MSB-first accumulator bit writer for RBSP payloads
// (parameter sets, SEI messages, slice headers).
//
// Bits are accumulated at the top of a 64-bit register and flushed 32 bits
// at a time in big-endian byte order. A Writer created with NewCounter only
// counts bits; it is the rate model behind the Exp-Golomb estimator.
type Writer struct {
	bits  uint64 // bit accumulator, filled from bit 63 down
	used  int    // number of bits used in accumulator
	buf   []byte // output buffer
	cur   int    // current write position in buf
	total int    // total bits written
	count bool   // counting mode: no bytes are produced
}

// NewWriter creates a Writer with an initial buffer pre-allocated for
// expectedSize bytes.
func NewWriter(expectedSize int) *Writer {
	if expectedSize < 64 {
		expectedSize = 64
	}
	return &Writer{buf: make([]byte, expectedSize)}
}

// NewCounter returns a Writer that only counts the bits written to it.
func NewCounter() *Writer {
	return &Writer{count: true}
}

// WriteBits writes the low nBits (0..32) of v, most significant bit first.
func (w *Writer) WriteBits(v uint32, nBits int) {
	if nBits == 0 {
		return
	}
	w.total += nBits
	if w.count {
		return
	}
	if w.used >= writerBits {
		w.flushBits()
	}
	v &= uint32(1<<uint(nBits) - 1)
	w.bits |= uint64(v) << uint(64-w.used-nBits)
	w.used += nBits
}

// WriteFlag writes a single bit.
func (w *Writer) WriteFlag(b bool) {
	if b {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
}

// WriteUE writes v as an unsigned Exp-Golomb code ue(v).
func (w *Writer) WriteUE(v uint32) {
	n := UELen(v)
	if n <= 32 {
		w.WriteBits(v+1, n)
		return
	}
	// Codes longer than 32 bits: zero prefix, then the info bits.
	lead := n / 2
	x := uint64(v) + 1
	w.WriteBits(0, lead)
	w.WriteBits(uint32(x>>uint(lead)), 1)
	w.WriteBits(uint32(x), lead)
}

// WriteSE writes v as a signed Exp-Golomb code se(v).
func (w *Writer) WriteSE(v int32) {
	w.WriteUE(SEToUE(v))
}

// WriteTrailingBits writes rbsp_trailing_bits: a stop bit then zero bits up
// to the next byte boundary.
func (w *Writer) WriteTrailingBits() {
	w.WriteBits(1, 1)
	if r := w.total & 7; r != 0 {
		w.WriteBits(0, 8-r)
	}
}

// ByteAligned reports whether the writer sits on a byte boundary.
func (w *Writer) ByteAligned() bool {
	return w.total&7 == 0
}

// BitsWritten returns the total number of bits written so far.
func (w *Writer) BitsWritten() int {
	return w.total
}

// Reset clears the writer for reuse, keeping its buffer.
func (w *Writer) Reset() {
	w.bits, w.used, w.cur, w.total = 0, 0, 0, 0
}

// flushBits writes the upper 32 bits of the accumulator to the output
// buffer and shifts the accumulator left by 32.
func (w *Writer) flushBits() {
	w.grow(writerBytes)
	binary.BigEndian.PutUint32(w.buf[w.cur:], uint32(w.bits>>32))
	w.cur += writerBytes
	w.bits <<= writerBits
	w.used -= writerBits
}

// grow ensures at least n bytes of capacity remain at w.cur.
func (w *Writer) grow(n int) {
	if w.cur+n <= len(w.buf) {
		return
	}
	newSize := len(w.buf) * 3 / 2
	if need := w.cur + n; newSize < need {
		newSize = need
	}
	tmp := make([]byte, newSize)
	copy(tmp, w.buf[:w.cur])
	w.buf = tmp
}

// Bytes flushes the accumulator, zero-padding the last partial byte, and
// returns the written bytes. A counting Writer returns nil.
func (w *Writer) Bytes() []byte {
	if w.count {
		return nil
	}
	for w.used >= writerBits {
		w.flushBits()
	}
	w.grow((w.used + 7) >> 3)
	for w.used > 0 {
		w.buf[w.cur] = byte(w.bits >> 56)
		w.cur++
		w.bits <<= 8
		w.used -= 8
	}
	w.used = 0
	return w.buf[:w.cur]
}

// UELen returns the length in bits of the ue(v) code for v.
func UELen(v uint32) int {
	x := uint64(v) + 1
	n := 0
	for x > 1 {
		x >>= 1
		n++
	}
	return 2*n + 1
}

// SELen returns the length in bits of the se(v) code for v.
func SELen(v int32) int {
	return UELen(SEToUE(v))
}

// SEToUE maps a signed value onto the ue(v) code number of se(v):
// 0, 1, -1, 2, -2, ... map to 0, 1, 2, 3, 4, ...
func SEToUE(v int32) uint32 {
	if v > 0 {
		return uint32(v)*2 - 1
	}
	return uint32(-int64(v)) * 2
}
