package intra

import (
	"github.com/deepteams/h264intra/internal/dsp"
)

// mbState is one complete coding hypothesis of a macroblock. Competing
// macroblock types are decided into separate copies and the cheapest one
// is kept by value.
type mbState struct {
	// Reconstruction window: the macroblock at dsp.PredOff with its top row
	// (x = -1..30) and left column, stride dsp.BPS.
	win  [maxPlanes][dsp.PredBufSize]uint8
	pred [maxPlanes][256]uint8 // prediction, stride 16

	typ   MBType
	modes [16]int8 // NxN modes per 4x4 raster position, 8x8 modes broadcast
	coded [16]int8 // coded mode index per 4x4 decoding index; I8 uses 4*b8

	levels4 [maxPlanes][16][16]int // per 4x4 decoding index; I16 AC with DC slot 0
	levels8 [maxPlanes][4][64]int
	dc      [maxPlanes][16]int
	nz      [maxPlanes][16]int // non-zero levels per 4x4 decoding index; I8 uses 4*b8
	adj4    [16][16]int
	adj8    [4][64]int

	i16Mode   int
	i16Offset int
	cbp       int
	cmpCBP    [maxPlanes]int
	cost      int64
}

// Macroblock is the decision scope of one macroblock, obtained from
// FrameContext.Begin. Decide one coding with DecideIntra or one of the
// type specific decisions, then Commit.
type Macroblock struct {
	fc        *FrameContext
	addr      int
	mbx, mby  int
	committed bool

	src  [maxPlanes][256]uint8             // source, stride 16
	base [maxPlanes][dsp.PredBufSize]uint8 // window holding only the neighbours
	refs [maxPlanes][dsp.PredBufSize]uint8 // reference samples and prediction
	cand Candidate

	cur mbState
}

// load copies the source macroblock and the reconstructed neighbours.
func (mb *Macroblock) load() {
	fc := mb.fc
	x0, y0 := mb.mbx*16, mb.mby*16
	for p := 0; p < fc.planes; p++ {
		src, rec := fc.src[p], fc.recon[p]
		for y := 0; y < 16; y++ {
			o := (y0+y)*fc.width + x0
			copy(mb.src[p][y*16:y*16+16], src[o:o+16])
		}
		win := &mb.base[p]
		if y0 > 0 {
			lo := max(-1, -x0)
			hi := min(dsp.BPS-2, fc.width-x0-1)
			row := (y0 - 1) * fc.width
			for x := lo; x <= hi; x++ {
				win[dsp.PredOff-dsp.BPS+x] = rec[row+x0+x]
			}
		}
		if x0 > 0 {
			for y := 0; y < 16; y++ {
				win[dsp.PredOff-1+y*dsp.BPS] = rec[(y0+y)*fc.width+x0-1]
			}
		}
	}
	mb.reset()
}

// reset discards the current hypothesis.
func (mb *Macroblock) reset() {
	mb.cur = mbState{}
	mb.cur.win = mb.base
}

// Addr returns the macroblock address.
func (mb *Macroblock) Addr() int { return mb.addr }

// Type returns the decided macroblock type.
func (mb *Macroblock) Type() MBType { return mb.cur.typ }

// Cost returns the cost of the decided coding.
func (mb *Macroblock) Cost() int64 { return mb.cur.cost }

// CBP returns the coded block pattern of the decided coding.
func (mb *Macroblock) CBP() int { return mb.cur.cbp }

// ComponentCBP returns the cross-component cbp of plane p (4:4:4 only).
func (mb *Macroblock) ComponentCBP(p int) int { return mb.cur.cmpCBP[p] }

// I16Mode returns the 16x16 prediction mode of an Intra16x16 decision.
func (mb *Macroblock) I16Mode() int { return mb.cur.i16Mode }

// I16Offset returns the mb_type offset of an Intra16x16 decision.
func (mb *Macroblock) I16Offset() int { return mb.cur.i16Offset }

// Mode returns the NxN prediction mode of the 4x4 block at (bx, by), in
// 4x4 block units inside the macroblock.
func (mb *Macroblock) Mode(bx, by int) int { return int(mb.cur.modes[by*4+bx]) }

// CodedMode returns the coded mode index of 4x4 block blk (decoding
// order), or of 8x8 block blk>>2 for I8.
func (mb *Macroblock) CodedMode(blk int) int { return int(mb.cur.coded[blk]) }

// Levels4x4 returns the zig-zag levels of 4x4 block blk (decoding order)
// of plane p.
func (mb *Macroblock) Levels4x4(p, blk int) [16]int { return mb.cur.levels4[p][blk] }

// Levels8x8 returns the zig-zag levels of 8x8 block b8 of plane p.
func (mb *Macroblock) Levels8x8(p, b8 int) [64]int { return mb.cur.levels8[p][b8] }

// DCLevels returns the Intra16x16 DC levels of plane p.
func (mb *Macroblock) DCLevels(p int) [16]int { return mb.cur.dc[p] }

// Recon returns the reconstructed sample (x, y) of plane p.
func (mb *Macroblock) Recon(p, x, y int) uint8 {
	return mb.cur.win[p][dsp.PredOff+y*dsp.BPS+x]
}

// Pred returns the prediction sample (x, y) of plane p.
func (mb *Macroblock) Pred(p, x, y int) uint8 { return mb.cur.pred[p][y*16+x] }

// DecideIntra chooses the cheapest of Intra16x16, Intra4x4 and, with
// Transform8x8, Intra8x8. The 16x16 decision uses the RD path at high
// complexity and the SAD path otherwise.
func (mb *Macroblock) DecideIntra() (MBType, int64) {
	cfg := &mb.fc.cfg
	if cfg.Complexity == ComplexityHigh {
		mb.Intra16RD()
	} else {
		mb.Intra16SAD()
	}
	best := mb.cur

	mb.reset()
	mb.DecideIntra4x4Macroblock()
	if mb.cur.cost < best.cost {
		best = mb.cur
	}
	if cfg.Transform8x8 {
		mb.reset()
		mb.DecideIntra8x8Macroblock()
		if mb.cur.cost < best.cost {
			best = mb.cur
		}
	}
	mb.cur = best
	return best.typ, best.cost
}

// Commit publishes the decided coding to the frame: reconstruction, mode
// maps, decision record, adaptive rounding and rate statistics. The
// macroblock cannot be used afterwards.
func (mb *Macroblock) Commit() error {
	if mb.committed {
		return ErrCommitted
	}
	st := &mb.cur
	if st.typ == MBUndecided {
		return ErrUndecided
	}
	fc := mb.fc
	x0, y0 := mb.mbx*16, mb.mby*16
	var sse [maxPlanes]int64
	for p := 0; p < fc.planes; p++ {
		for y := 0; y < 16; y++ {
			o := (y0+y)*fc.width + x0
			w := dsp.PredOff + y*dsp.BPS
			copy(fc.recon[p][o:o+16], st.win[p][w:w+16])
		}
		sse[p] = int64(dsp.SSE(mb.src[p][:], 16, st.win[p][dsp.PredOff:], dsp.BPS, 16, 16))
	}

	switch st.typ {
	case MBI4:
		fc.setModes(mb.mbx, mb.mby, &st.modes, nil)
	case MBI8:
		fc.setModes(mb.mbx, mb.mby, &st.modes, &st.modes)
	default:
		fc.setModes(mb.mbx, mb.mby, nil, nil)
	}
	fc.mbs[mb.addr] = MBInfo{
		Type:      st.typ,
		I16Mode:   st.i16Mode,
		I16Offset: st.i16Offset,
		CBP:       st.cbp,
		Cost:      st.cost,
		SSE:       sse[0],
	}
	if fc.cfg.AdaptiveRounding {
		fc.rnd.update(st, fc.cfg.AdaptRndWeight)
	}
	mb.account()
	fc.stats.add(st, sse)

	mb.committed = true
	fc.open = nil
	fc.next++
	return nil
}

// account runs the committed syntax through the rate estimator so that its
// statistics reflect the coded macroblocks.
func (mb *Macroblock) account() {
	fc := mb.fc
	st := &mb.cur
	est := fc.est
	est.MBTypeBits(MBTypeSyntax{Type: st.typ, Value: MBTypeValue(st.typ, st.i16Offset, fc.cfg.SliceType)})
	for p := 0; p < fc.planes; p++ {
		switch st.typ {
		case MBI4:
			for blk := 0; blk < 16; blk++ {
				est.CoeffBits(st.levels4[p][blk][:], CatLuma4x4)
			}
		case MBI8:
			for b8 := 0; b8 < 4; b8++ {
				est.CoeffBits(st.levels8[p][b8][:], CatLuma8x8)
			}
		case MBI16:
			est.CoeffBits(st.dc[p][:], CatI16DC)
			if st.cbp&15 != 0 {
				for blk := 0; blk < 16; blk++ {
					est.CoeffBits(st.levels4[p][blk][1:], CatI16AC)
				}
			}
		}
	}
}

func (s *FrameStats) add(st *mbState, sse [maxPlanes]int64) {
	s.MBTypes[st.typ]++
	s.Cost += st.cost
	for p := range sse {
		s.SSE[p] += sse[p]
	}
	switch st.typ {
	case MBI4:
		for blk := 0; blk < 16; blk++ {
			x, y := blockXY(blk)
			s.Modes4x4[st.modes[(y>>2)*4+x>>2]]++
			if st.coded[blk] < 0 {
				s.MPMBlocks++
			}
		}
	case MBI8:
		for b8 := 0; b8 < 4; b8++ {
			s.Modes8x8[st.modes[(b8>>1)*8+(b8&1)*2]]++
			if st.coded[4*b8] < 0 {
				s.MPMBlocks++
			}
		}
	case MBI16:
		s.Modes16[st.i16Mode]++
	}
}

// blockXY returns the sample position of 4x4 block blk (decoding order)
// inside the macroblock.
func blockXY(blk int) (x, y int) {
	b8, b4 := blk>>2, blk&3
	return (b8&1)*8 + (b4&1)*4, (b8>>1)*8 + (b4>>1)*4
}

// candidate prepares the scratch candidate for an n x n block at (bx, by).
func (mb *Macroblock) candidate(n, mpm, bx, by int) *Candidate {
	fc := mb.fc
	c := &mb.cand
	c.Size = n
	c.MPM = mpm
	c.Planes = fc.planes
	c.QP = fc.cfg.QP
	c.Lambda = fc.lambda
	c.srcStride = 16
	c.offsets4 = &fc.rnd.i4
	c.offsets8 = &fc.rnd.i8
	c.wantAdj = fc.cfg.AdaptiveRounding
	for p := 0; p < fc.planes; p++ {
		c.src[p] = mb.src[p][by*16+bx:]
		c.pred[p] = mb.refs[p][dsp.PredOff:]
	}
	return c
}

// storeBlock copies an n x n reconstruction and prediction into the
// current hypothesis.
func (mb *Macroblock) storeBlock(r *CandidateResult, n, bx, by int) {
	st := &mb.cur
	for p := 0; p < mb.fc.planes; p++ {
		for y := 0; y < n; y++ {
			w := dsp.PredOff + (by+y)*dsp.BPS + bx
			copy(st.win[p][w:w+n], r.Recon[p][y*n:y*n+n])
			o := (by+y)*16 + bx
			copy(st.pred[p][o:o+n], r.Pred[p][y*n:y*n+n])
		}
	}
}
