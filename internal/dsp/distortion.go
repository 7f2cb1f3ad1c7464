package dsp

// Distortion metrics used by the mode decision. Pixel blocks are passed as
// a byte slice plus stride, so they can point straight into a picture plane
// or into a BPS-strided scratch buffer.

// SatdCost returns the sum of absolute Hadamard coefficients of the residual
// block b. b is transformed in place.
func SatdCost(b *Block4) int {
	HadamardTransform4x4(b)
	return sumAbs4(b)
}

// SatdDctCost returns the sum of quantised core-transform magnitudes of b
// at the SATD proxy step. b is transformed in place.
func SatdDctCost(b *Block4) int {
	return SatdDctCostQP(b, SatdQP)
}

// SatdDctCostQP is SatdDctCost with an explicit quantiser step.
func SatdDctCostQP(b *Block4, qp int) int {
	ForwardTransform4x4(b)
	Quantize4x4(b, qp)
	return sumAbs4(b)
}

func sumAbs4(b *Block4) int {
	sum := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum += abs(b[i][j])
		}
	}
	return sum
}

// ComputeResidual subtracts the 4x4 prediction from the current block and
// returns the residual together with its SAD and SSE.
func ComputeResidual(cur []uint8, curStride int, pred []uint8, predStride int) (res Block4, sad, sse int) {
	for j := 0; j < 4; j++ {
		c := cur[j*curStride : j*curStride+4]
		p := pred[j*predStride : j*predStride+4]
		for i := 0; i < 4; i++ {
			d := int(c[i]) - int(p[i])
			res[j][i] = d
			sad += abs(d)
			sse += d * d
		}
	}
	return res, sad, sse
}

// ComputeResidual8x8 is the 8x8 counterpart of ComputeResidual.
func ComputeResidual8x8(cur []uint8, curStride int, pred []uint8, predStride int) (res Block8, sad, sse int) {
	for j := 0; j < 8; j++ {
		c := cur[j*curStride : j*curStride+8]
		p := pred[j*predStride : j*predStride+8]
		for i := 0; i < 8; i++ {
			d := int(c[i]) - int(p[i])
			res[j][i] = d
			sad += abs(d)
			sse += d * d
		}
	}
	return res, sad, sse
}

// SAD returns the sum of absolute differences of two w x h pixel blocks.
func SAD(a []uint8, aStride int, b []uint8, bStride int, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		ra := a[y*aStride : y*aStride+w]
		rb := b[y*bStride : y*bStride+w]
		for x := range ra {
			sum += abs(int(ra[x]) - int(rb[x]))
		}
	}
	return sum
}

// SSE returns the sum of squared differences of two w x h pixel blocks.
func SSE(a []uint8, aStride int, b []uint8, bStride int, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		ra := a[y*aStride : y*aStride+w]
		rb := b[y*bStride : y*bStride+w]
		for x := range ra {
			d := int(ra[x]) - int(rb[x])
			sum += d * d
		}
	}
	return sum
}

// SATD16x16 sums SatdCost over the sixteen 4x4 residual blocks of a 16x16
// region.
func SATD16x16(cur []uint8, curStride int, pred []uint8, predStride int) int {
	sum := 0
	for by := 0; by < 4; by++ {
		for bx := 0; bx < 4; bx++ {
			co := by*4*curStride + bx*4
			po := by*4*predStride + bx*4
			res, _, _ := ComputeResidual(cur[co:], curStride, pred[po:], predStride)
			sum += SatdCost(&res)
		}
	}
	return sum
}
