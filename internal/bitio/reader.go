package bitio

// maxReadBits is the maximum number of bits a single ReadBits call returns.
const maxReadBits = 32

// Reader is an MSB-first bit reader over an RBSP (emulation prevention
// bytes already removed). Reading past the end sets the end-of-stream flag
// and returns zero bits.
type Reader struct {
	buf    []byte
	bitPos int // absolute bit position in buf
	eos    bool
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// ReadBits reads nBits (0..32) and returns them right-aligned.
func (br *Reader) ReadBits(nBits int) uint32 {
	if br.eos || nBits < 0 || nBits > maxReadBits || br.bitPos+nBits > len(br.buf)*8 {
		br.eos = true
		return 0
	}
	var v uint32
	for nBits > 0 {
		byteIdx := br.bitPos >> 3
		avail := 8 - br.bitPos&7
		take := avail
		if take > nBits {
			take = nBits
		}
		chunk := uint32(br.buf[byteIdx]>>uint(avail-take)) & (1<<uint(take) - 1)
		v = v<<uint(take) | chunk
		br.bitPos += take
		nBits -= take
	}
	return v
}

// ReadFlag reads a single bit.
func (br *Reader) ReadFlag() bool {
	return br.ReadBits(1) == 1
}

// ReadUE reads an unsigned Exp-Golomb code.
func (br *Reader) ReadUE() uint32 {
	lead := 0
	for !br.eos && br.ReadBits(1) == 0 {
		lead++
		if lead >= maxReadBits {
			br.eos = true
			return 0
		}
	}
	if lead == 0 {
		return 0
	}
	return (1<<uint(lead) - 1) + br.ReadBits(lead)
}

// ReadSE reads a signed Exp-Golomb code.
func (br *Reader) ReadSE() int32 {
	k := br.ReadUE()
	if k&1 == 1 {
		return int32((k + 1) / 2)
	}
	return -int32(k / 2)
}

// BitPos returns the number of bits consumed.
func (br *Reader) BitPos() int {
	return br.bitPos
}

// BitsLeft returns the number of unread bits.
func (br *Reader) BitsLeft() int {
	return len(br.buf)*8 - br.bitPos
}

// MoreRBSPData reports whether any bits remain before the
// rbsp_stop_one_bit, the last set bit of the buffer.
func (br *Reader) MoreRBSPData() bool {
	for i := len(br.buf) - 1; i >= 0; i-- {
		b := br.buf[i]
		if b == 0 {
			continue
		}
		stop := i*8 + 7
		for b&1 == 0 {
			b >>= 1
			stop--
		}
		return br.bitPos < stop
	}
	return false
}

// IsEndOfStream reports whether a read ran past the end of the buffer.
func (br *Reader) IsEndOfStream() bool {
	return br.eos
}
