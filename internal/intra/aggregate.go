package intra

// DecideIntraSubMacroblock decides the four 4x4 blocks of 8x8 region b8.
// The cost starts at lambda * 6 bits for the region's signalling. nonzero
// reports non-zero levels per plane.
func (mb *Macroblock) DecideIntraSubMacroblock(b8 int) (nonzero [maxPlanes]bool, cost int64) {
	cost = WeightedCost(mb.fc.lambda, 6)
	for b4 := 0; b4 < 4; b4++ {
		nz, c := mb.Decide4x4(b8, b4)
		nonzero[0] = nonzero[0] || nz
		for p := 1; p < maxPlanes; p++ {
			nonzero[p] = nonzero[p] || mb.cur.nz[p][4*b8+b4] > 0
		}
		cost += c
	}
	return nonzero, cost
}

// DecideIntra4x4Macroblock decides the macroblock as Intra4x4 and returns
// its coded block pattern and cost.
func (mb *Macroblock) DecideIntra4x4Macroblock() (cbp int, cost int64) {
	return mb.decideNxN(MBI4, mb.DecideIntraSubMacroblock)
}

// DecideIntra8x8Macroblock decides the macroblock as Intra8x8 and returns
// its coded block pattern and cost.
func (mb *Macroblock) DecideIntra8x8Macroblock() (cbp int, cost int64) {
	return mb.decideNxN(MBI8, func(b8 int) (nonzero [maxPlanes]bool, cost int64) {
		nonzero[0], cost = mb.Decide8x8(b8)
		for p := 1; p < maxPlanes; p++ {
			nonzero[p] = mb.cur.nz[p][4*b8] > 0
		}
		return nonzero, cost
	})
}

// decideNxN folds the four region decisions into the macroblock cbp. A
// region with non-zero Cb or Cr levels sets its bit in that component's
// pattern; from then on both component patterns and the macroblock cbp
// carry every bit set so far.
func (mb *Macroblock) decideNxN(typ MBType, region func(b8 int) ([maxPlanes]bool, int64)) (cbp int, cost int64) {
	st := &mb.cur
	st.cmpCBP[1], st.cmpCBP[2] = 0, 0
	for b8 := 0; b8 < 4; b8++ {
		nz, c := region(b8)
		if nz[0] {
			cbp |= 1 << b8
		}
		cost += c
		for p := 1; p < maxPlanes; p++ {
			if !nz[p] {
				continue
			}
			st.cmpCBP[p] |= 1 << b8
			cbp |= st.cmpCBP[p]
			st.cmpCBP[1] = cbp
			st.cmpCBP[2] = cbp
		}
	}
	st.typ = typ
	st.cbp = cbp
	st.cmpCBP[0] = cbp
	st.cost = cost
	return cbp, cost
}
