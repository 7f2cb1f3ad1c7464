package intra

import "github.com/deepteams/h264intra/internal/dsp"

// Decide8x8 chooses the prediction mode of 8x8 block b8 with the rules of
// Decide4x4. References are filtered before prediction, and the winning
// mode is recorded in the four 4x4 cells the block covers.
func (mb *Macroblock) Decide8x8(b8 int) (bool, int64) {
	fc := mb.fc
	bx, by := (b8&1)*8, (b8>>1)*8
	a := mb.blockAvail(bx, by, 8)
	mpm := MostProbableMode(mb.neighbourMode(bx, by-1), mb.neighbourMode(bx-1, by))

	for p := 0; p < fc.planes; p++ {
		dsp.LoadRefs(mb.refs[p][:], mb.cur.win[p][:], dsp.BPS, bx+1, by+1, 8, a)
		dsp.FilterRefs8x8(mb.refs[p][:], dsp.PredOff, a)
	}
	c := mb.candidate(8, mpm, bx, by)

	var best CandidateResult
	found := false
	for mode := 0; mode < dsp.NumIntraNxNModes; mode++ {
		if !fc.cfg.modeEnabled(mode) || !dsp.IntraNxNModeAvailable(mode, a) {
			continue
		}
		for p := 0; p < fc.planes; p++ {
			dsp.PredIntra8x8(mode, mb.refs[p][:], dsp.PredOff, a)
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
		panic("intra: no eligible 8x8 prediction mode")
	}

	st := &mb.cur
	cell := (by>>2)*4 + bx>>2
	for _, o := range [4]int{0, 1, 4, 5} {
		st.modes[cell+o] = int8(best.Mode)
	}
	st.coded[4*b8] = int8(CodedModeIndex(best.Mode, mpm))
	for p := 0; p < fc.planes; p++ {
		st.levels8[p][b8] = best.Levels8[p]
		st.nz[p][4*b8] = best.NZ[p]
	}
	if fc.cfg.AdaptiveRounding {
		st.adj8[b8] = best.Adj8
	}
	mb.storeBlock(&best, 8, bx, by)
	return best.Nonzero, best.Cost
}
