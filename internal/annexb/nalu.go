// Package annexb implements the H.264 Annex B byte-stream format: NAL unit
// framing with start codes, emulation prevention, and the parameter-set and
// SEI payloads the intra analyser emits.
package annexb

import (
	"errors"
	"fmt"
)

// NAL unit types used by this package.
const (
	NALSlice    = 1
	NALSliceIDR = 5
	NALSEI      = 6
	NALSPS      = 7
	NALPPS      = 8
	NALAUD      = 9
)

// nal_ref_idc values.
const (
	RefDisposable = 0
	RefLow        = 1
	RefHigh       = 2
	RefHighest    = 3
)

// Start code lengths accepted by the writer.
const (
	StartCodeShort = 3
	StartCodeLong  = 4
)

// Errors.
var (
	ErrInvalidNALU = errors.New("annexb: invalid NAL unit")
	ErrNoStartCode = errors.New("annexb: no start code")
	ErrTruncated   = errors.New("annexb: truncated NAL unit")
)

// NALU is a network abstraction layer unit. Payload holds the escaped
// payload bytes that follow the header byte.
type NALU struct {
	ForbiddenBit int // must be 0
	RefIdc       int // 2-bit nal_ref_idc
	Type         int // 5-bit nal_unit_type
	StartCodeLen int // 3 or 4
	Payload      []byte
}

// Header returns the one-byte NAL unit header.
func (n *NALU) Header() byte {
	return byte(n.ForbiddenBit<<7 | n.RefIdc<<5 | n.Type)
}

// Validate checks the header fields and start code length.
func (n *NALU) Validate() error {
	switch {
	case n.ForbiddenBit != 0:
		return fmt.Errorf("%w: forbidden_zero_bit set", ErrInvalidNALU)
	case n.RefIdc < 0 || n.RefIdc > 3:
		return fmt.Errorf("%w: nal_ref_idc %d", ErrInvalidNALU, n.RefIdc)
	case n.Type < 0 || n.Type > 31:
		return fmt.Errorf("%w: nal_unit_type %d", ErrInvalidNALU, n.Type)
	case n.StartCodeLen != StartCodeShort && n.StartCodeLen != StartCodeLong:
		return fmt.Errorf("%w: start code length %d", ErrInvalidNALU, n.StartCodeLen)
	}
	return nil
}

// TypeName returns a short name for a NAL unit type.
func TypeName(t int) string {
	switch t {
	case NALSlice:
		return "slice"
	case NALSliceIDR:
		return "IDR slice"
	case NALSEI:
		return "SEI"
	case NALSPS:
		return "SPS"
	case NALPPS:
		return "PPS"
	case NALAUD:
		return "AUD"
	default:
		return fmt.Sprintf("type %d", t)
	}
}

// New returns a NALU with a payload built from an RBSP: emulation
// prevention bytes are inserted as needed.
func New(refIdc, typ int, rbsp []byte) *NALU {
	return &NALU{
		RefIdc:       refIdc,
		Type:         typ,
		StartCodeLen: StartCodeLong,
		Payload:      EscapeRBSP(rbsp),
	}
}

// RBSP returns the payload with emulation prevention bytes removed.
func (n *NALU) RBSP() []byte {
	return UnescapeRBSP(n.Payload)
}
