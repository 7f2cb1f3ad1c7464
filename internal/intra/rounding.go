package intra

import "github.com/deepteams/h264intra/internal/dsp"

// rounding holds the quantiser rounding offsets of the intra macroblock
// types, in dsp.RoundBits precision.
type rounding struct {
	i4  dsp.RoundingOffsets4
	i8  dsp.RoundingOffsets8
	i16 dsp.RoundingOffsets4 // AC
	dc  int                  // Intra16x16 DC
}

// maxRoundingOffset bounds the adapted offsets to half a quantiser step.
const maxRoundingOffset = 1 << (dsp.RoundBits - 1)

func (r *rounding) init() {
	r.i4.Fill(dsp.IntraRounding)
	r.i8.Fill(dsp.IntraRounding)
	r.i16.Fill(dsp.IntraRounding)
	r.dc = dsp.IntraRounding
}

// update moves the offsets of the committed macroblock type towards the
// quantisation remainders of its luma blocks with non-zero levels.
func (r *rounding) update(st *mbState, weight int) {
	switch st.typ {
	case MBI4:
		for blk := 0; blk < 16; blk++ {
			if st.nz[0][blk] > 0 {
				adaptOffsets(r.i4[:], st.adj4[blk][:], weight)
			}
		}
	case MBI16:
		for blk := 0; blk < 16; blk++ {
			if st.nz[0][blk] > 0 {
				adaptOffsets(r.i16[:], st.adj4[blk][:], weight)
			}
		}
	case MBI8:
		for b8 := 0; b8 < 4; b8++ {
			if st.nz[0][4*b8] > 0 {
				adaptOffsets(r.i8[:], st.adj8[b8][:], weight)
			}
		}
	}
}

// adaptOffsets applies off += weight * (adj - off) / 2^adaptRndShift,
// rounded, and clamps to [0, maxRoundingOffset].
func adaptOffsets(off, adj []int, weight int) {
	for i := range off {
		d := weight * (adj[i] - off[i])
		if d >= 0 {
			d = (d + 1<<(adaptRndShift-1)) >> adaptRndShift
		} else {
			d = -((-d + 1<<(adaptRndShift-1)) >> adaptRndShift)
		}
		off[i] = min(max(off[i]+d, 0), maxRoundingOffset)
	}
}
