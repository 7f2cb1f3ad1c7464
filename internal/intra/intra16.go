package intra

import (
	"math"

	"github.com/deepteams/h264intra/internal/dsp"
)

// loadRefs16 fills the 16x16 reference samples of every plane and returns
// their availability.
func (mb *Macroblock) loadRefs16() dsp.Avail {
	a := mb.mbAvail()
	for p := 0; p < mb.fc.planes; p++ {
		dsp.LoadRefs(mb.refs[p][:], mb.base[p][:], dsp.BPS, 1, 1, 16, a)
	}
	return a
}

func (mb *Macroblock) predict16(mode int, a dsp.Avail) {
	for p := 0; p < mb.fc.planes; p++ {
		dsp.PredIntra16x16(mode, mb.refs[p][:], dsp.PredOff, a)
	}
}

// PickIntra16ModeSAD returns the enabled, available 16x16 mode with the
// smallest prediction error, measured as the Hadamard SAD over all planes.
// Ties keep the lower mode.
func (mb *Macroblock) PickIntra16ModeSAD() (mode int, cost int64) {
	cfg := &mb.fc.cfg
	a := mb.loadRefs16()
	mode, cost = dsp.Pred16DC, math.MaxInt64
	for m := 0; m < dsp.NumIntra16Modes; m++ {
		if !cfg.intra16Enabled(m) || !dsp.Intra16ModeAvailable(m, a) {
			continue
		}
		mb.predict16(m, a)
		var c int64
		for p := 0; p < mb.fc.planes; p++ {
			c += int64(dsp.SATD16x16(mb.src[p][:], 16, mb.refs[p][dsp.PredOff:], dsp.BPS))
		}
		if c < cost {
			mode, cost = m, c
		}
	}
	return mode, cost
}

// Intra16SAD decides the macroblock as Intra16x16 with the mode picked by
// PickIntra16ModeSAD, coded once. Returns the SAD cost.
func (mb *Macroblock) Intra16SAD() int64 {
	mode, cost := mb.PickIntra16ModeSAD()
	mb.reset()
	mb.predict16(mode, mb.mbAvail())
	cbp := mb.trans16x16All(mode)
	st := &mb.cur
	st.cost = cost
	st.i16Offset = I16Offset(cbp, mode)
	return cost
}

// Intra16RD decides the macroblock as Intra16x16 by full rate-distortion
// search over the enabled, available modes: each mode is coded, its SSE
// measured and its mb_type and coefficient bits estimated between a
// snapshot and a restore of the estimator, costed as SSE + lambda * bits.
// The cheapest coding is kept. Returns its cost.
func (mb *Macroblock) Intra16RD() int64 {
	fc := mb.fc
	cfg := &fc.cfg
	est := fc.est
	a := mb.loadRefs16()

	var best mbState
	found := false
	for mode := 0; mode < dsp.NumIntra16Modes; mode++ {
		if !cfg.intra16Enabled(mode) || !dsp.Intra16ModeAvailable(mode, a) {
			continue
		}
		mb.reset()
		mb.predict16(mode, a)
		cbp := mb.trans16x16All(mode)
		st := &mb.cur

		var d int64
		for p := 0; p < fc.planes; p++ {
			d += int64(dsp.SSE(mb.src[p][:], 16, st.win[p][dsp.PredOff:], dsp.BPS, 16, 16))
		}

		saved := est.Snapshot()
		off := I16Offset(cbp, mode)
		bits := est.MBTypeBits(MBTypeSyntax{Type: MBI16, Value: MBTypeValue(MBI16, off, cfg.SliceType)})
		for p := 0; p < fc.planes; p++ {
			bits += est.CoeffBits(st.dc[p][:], CatI16DC)
			if cbp&15 != 0 {
				for blk := 0; blk < 16; blk++ {
					bits += est.CoeffBits(st.levels4[p][blk][1:], CatI16AC)
				}
			}
		}
		est.Restore(saved)

		rd := d + WeightedCost(fc.lambda, bits)
		if !found || rd < best.cost {
			st.cost = rd
			best = *st
			found = true
		}
	}
	mb.cur = best
	mb.cur.i16Offset = I16Offset(best.cbp, best.i16Mode)
	return best.cost
}

// trans16x16All codes the current 16x16 prediction of every plane into the
// current hypothesis and returns the cbp: 15 when any plane has non-zero AC
// levels, since in 4:4:4 the luma pattern covers all three components.
func (mb *Macroblock) trans16x16All(mode int) int {
	st := &mb.cur
	cbp := 0
	for p := 0; p < mb.fc.planes; p++ {
		if mb.trans16x16(p) > 0 {
			cbp = 15
		}
	}
	st.typ = MBI16
	st.i16Mode = mode
	st.cbp = cbp
	for p := range st.cmpCBP {
		st.cmpCBP[p] = cbp
	}
	return cbp
}

// trans16x16 transforms, quantises and reconstructs plane p as one
// Intra16x16 block: sixteen 4x4 AC blocks plus the Hadamard transformed DC
// block. Returns the number of non-zero AC levels.
func (mb *Macroblock) trans16x16(p int) int {
	fc := mb.fc
	st := &mb.cur
	qp := fc.cfg.QP
	pred := mb.refs[p][dsp.PredOff:]
	src := mb.src[p][:]

	var blocks [16]dsp.Block4
	var dc dsp.Block4
	for blk := 0; blk < 16; blk++ {
		x, y := blockXY(blk)
		blocks[blk], _, _ = dsp.ComputeResidual(src[y*16+x:], 16, pred[y*dsp.BPS+x:], dsp.BPS)
		dsp.ForwardTransform4x4(&blocks[blk])
		dc[y>>2][x>>2] = blocks[blk][0][0]
	}
	dsp.ForwardHadamardDC(&dc)
	dsp.QuantizeDC(&dc, qp, fc.rnd.dc, &st.dc[p])
	dsp.DequantDC(&st.dc[p], qp, &dc)

	ac := 0
	for blk := 0; blk < 16; blk++ {
		x, y := blockXY(blk)
		var adj *[16]int
		if p == 0 && fc.cfg.AdaptiveRounding {
			adj = &st.adj4[blk]
		}
		n := dsp.QuantizeCoeffs4x4(&blocks[blk], qp, &fc.rnd.i16, 1, &st.levels4[p][blk], adj)
		st.nz[p][blk] = n
		ac += n
		dsp.DequantCoeffs4x4(&st.levels4[p][blk], qp, 1, &blocks[blk])
		blocks[blk][0][0] = dc[y>>2][x>>2]
		dsp.InverseTransform4x4(&blocks[blk])
		for j := 0; j < 4; j++ {
			for i := 0; i < 4; i++ {
				pv := pred[(y+j)*dsp.BPS+x+i]
				st.pred[p][(y+j)*16+x+i] = pv
				st.win[p][dsp.PredOff+(y+j)*dsp.BPS+x+i] = dsp.Clip1(int(pv) + blocks[blk][j][i])
			}
		}
	}
	return ac
}
