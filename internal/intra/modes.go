package intra

import "github.com/deepteams/h264intra/internal/dsp"

// MBType is the coding type chosen for a macroblock.
type MBType int

const (
	MBUndecided MBType = iota
	MBI4
	MBI8
	MBI16
	MBInter
	numMBTypes
)

func (t MBType) String() string {
	switch t {
	case MBI4:
		return "I4"
	case MBI8:
		return "I8"
	case MBI16:
		return "I16"
	case MBInter:
		return "inter"
	}
	return "undecided"
}

// IsIntra reports whether t is one of the intra types.
func (t MBType) IsIntra() bool {
	return t == MBI4 || t == MBI8 || t == MBI16
}

// NoMode marks an unavailable neighbour mode.
const NoMode = -1

// MostProbableMode returns min(up, left), or DC when either neighbour is
// unavailable.
func MostProbableMode(up, left int) int {
	if up < 0 || left < 0 {
		return dsp.PredDC
	}
	return min(up, left)
}

// CodedModeIndex returns the signalled index of mode given the most
// probable mode: -1 when they match, otherwise mode with the MPM removed
// from the numbering.
func CodedModeIndex(mode, mpm int) int {
	switch {
	case mode == mpm:
		return -1
	case mode < mpm:
		return mode
	}
	return mode - 1
}

// ModeFromCodedIndex inverts CodedModeIndex.
func ModeFromCodedIndex(idx, mpm int) int {
	switch {
	case idx < 0:
		return mpm
	case idx < mpm:
		return idx
	}
	return idx + 1
}

// modeBits is the signalling cost of an NxN prediction mode: the
// prev_intra_pred_mode flag, plus 3 bits of rem_intra_pred_mode when the
// mode is not the MPM.
func modeBits(mode, mpm int) int {
	if mode == mpm {
		return 1
	}
	return 4
}

// I16Offset returns the Intra16x16 mb_type offset for a coded block
// pattern and prediction mode.
func I16Offset(cbp, mode int) int {
	off := 1
	if cbp&15 != 0 {
		off = 13
	}
	return off + mode + (cbp&0x30)>>2
}

// MBTypeValue returns the mb_type syntax value of an intra macroblock.
// Intra types are offset by 5 in P slices.
func MBTypeValue(t MBType, i16Offset int, slice SliceType) int {
	v := 0
	if t == MBI16 {
		v = i16Offset
	}
	if slice == SliceP {
		v += 5
	}
	return v
}
