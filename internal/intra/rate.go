package intra

import (
	"github.com/deepteams/h264intra/internal/bitio"
	"github.com/deepteams/h264intra/internal/dsp"
)

// BlockCategory identifies the kind of coefficient block being written.
type BlockCategory int

const (
	CatLuma4x4 BlockCategory = iota
	CatLuma8x8
	CatI16DC
	CatI16AC
	NumCategories
)

// MBTypeSyntax describes an mb_type syntax element.
type MBTypeSyntax struct {
	Type  MBType
	Value int // mb_type value, see MBTypeValue
}

// CodingState is a save point of a rate estimator's mutable statistics.
type CodingState struct {
	Bits    [NumCategories]int64
	Blocks  [NumCategories]int64
	MBBits  int64
	MBCount int64
}

// RateEstimator returns the bit cost of syntax elements. Calls accumulate
// statistics; Snapshot and Restore bracket speculative estimates so that a
// rejected candidate leaves no trace.
type RateEstimator interface {
	MBTypeBits(se MBTypeSyntax) int
	CoeffBits(levels []int, cat BlockCategory) int
	Snapshot() CodingState
	Restore(CodingState)
}

// ExpGolombEstimator approximates the coefficient cost with Exp-Golomb
// codes: ue(total_coeff), then se(level) and ue(run_before) for every
// non-zero level in reverse scan order. 8x8 blocks are costed as their four
// interleaved 4x4 groups.
type ExpGolombEstimator struct {
	w     *bitio.Writer
	state CodingState
}

// NewExpGolombEstimator returns an estimator with empty statistics.
func NewExpGolombEstimator() *ExpGolombEstimator {
	return &ExpGolombEstimator{w: bitio.NewCounter()}
}

// MBTypeBits returns the length of ue(mb_type).
func (e *ExpGolombEstimator) MBTypeBits(se MBTypeSyntax) int {
	n := bitio.UELen(uint32(se.Value))
	e.state.MBBits += int64(n)
	e.state.MBCount++
	return n
}

// CoeffBits returns the estimated length of a coefficient block in scan
// order.
func (e *ExpGolombEstimator) CoeffBits(levels []int, cat BlockCategory) int {
	n := 0
	if cat == CatLuma8x8 && len(levels) == 64 {
		groups := dsp.SplitInterleaved8x8((*[64]int)(levels))
		for i := range groups {
			n += e.blockBits(groups[i][:])
		}
	} else {
		n = e.blockBits(levels)
	}
	e.state.Bits[cat] += int64(n)
	e.state.Blocks[cat]++
	return n
}

func (e *ExpGolombEstimator) blockBits(levels []int) int {
	e.w.Reset()
	total := 0
	for _, l := range levels {
		if l != 0 {
			total++
		}
	}
	e.w.WriteUE(uint32(total))
	if total == 0 {
		return e.w.BitsWritten()
	}
	run := 0
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i] == 0 {
			run++
			continue
		}
		e.w.WriteSE(int32(levels[i]))
		e.w.WriteUE(uint32(run))
		run = 0
	}
	return e.w.BitsWritten()
}

// Snapshot returns the current statistics.
func (e *ExpGolombEstimator) Snapshot() CodingState { return e.state }

// Restore resets the statistics to a snapshot.
func (e *ExpGolombEstimator) Restore(s CodingState) { e.state = s }

// Stats returns the accumulated statistics.
func (e *ExpGolombEstimator) Stats() CodingState { return e.state }
