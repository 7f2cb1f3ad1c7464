package intra

import "github.com/deepteams/h264intra/internal/dsp"

// Decide4x4 chooses the prediction mode of 4x4 block b4 of 8x8 region b8.
// Modes are evaluated in increasing order; a mode replaces the best so far
// when it is cheaper, or as cheap and the most probable mode. Disabled modes
// and modes needing unavailable references are skipped. The winner's levels,
// reconstruction and prediction are stored in the current hypothesis.
// Returns whether the luma block has non-zero levels and its cost.
func (mb *Macroblock) Decide4x4(b8, b4 int) (bool, int64) {
	fc := mb.fc
	bx := (b8&1)*8 + (b4&1)*4
	by := (b8>>1)*8 + (b4>>1)*4
	a := mb.blockAvail(bx, by, 4)
	mpm := MostProbableMode(mb.neighbourMode(bx, by-1), mb.neighbourMode(bx-1, by))

	for p := 0; p < fc.planes; p++ {
		dsp.LoadRefs(mb.refs[p][:], mb.cur.win[p][:], dsp.BPS, bx+1, by+1, 4, a)
	}
	c := mb.candidate(4, mpm, bx, by)

	var best CandidateResult
	found := false
	for mode := 0; mode < dsp.NumIntraNxNModes; mode++ {
		if !fc.cfg.modeEnabled(mode) || !dsp.IntraNxNModeAvailable(mode, a) {
			continue
		}
		for p := 0; p < fc.planes; p++ {
			dsp.PredIntra4x4(mode, mb.refs[p][:], dsp.PredOff, a)
		}
		c.Mode = mode
		cost, _ := fc.coster.Evaluate(c)
		if !found || cost < best.Cost || (cost == best.Cost && mode == mpm) {
			best = c.Result
			best.Mode = mode
			best.Cost = cost
			found = true
		}
	}
	if !found {
		panic("intra: no eligible 4x4 prediction mode")
	}

	st := &mb.cur
	blk := 4*b8 + b4
	st.modes[(by>>2)*4+bx>>2] = int8(best.Mode)
	st.coded[blk] = int8(CodedModeIndex(best.Mode, mpm))
	for p := 0; p < fc.planes; p++ {
		st.levels4[p][blk] = best.Levels4[p]
		st.nz[p][blk] = best.NZ[p]
	}
	if fc.cfg.AdaptiveRounding {
		st.adj4[blk] = best.Adj4
	}
	mb.storeBlock(&best, 4, bx, by)
	return best.Nonzero, best.Cost
}
