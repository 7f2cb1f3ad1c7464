package dsp

// Structural similarity of a reconstructed plane, computed in integer
// arithmetic over a 7x7 hat-weighted window centred on every sample.

const ssimKernel = 3

var ssimWeight = [2*ssimKernel + 1]uint32{1, 2, 3, 4, 3, 2, 1}

// ssimStats accumulates the weighted moments of two sample windows.
type ssimStats struct {
	w             uint32 // total weight
	xm, ym        uint32 // sum of x, sum of y
	xxm, xym, yym uint32 // sum of x*x, x*y, y*y
}

func (s *ssimStats) add(x, y uint8, w uint32) {
	s.w += w
	s.xm += w * uint32(x)
	s.ym += w * uint32(y)
	s.xxm += w * uint32(x) * uint32(x)
	s.xym += w * uint32(x) * uint32(y)
	s.yym += w * uint32(y) * uint32(y)
}

// value returns the SSIM of the accumulated window. Windows where both
// signals are very dark score 1.
func (s *ssimStats) value() float64 {
	n := uint64(s.w)
	w2 := n * n
	c1 := 20 * w2
	c2 := 60 * w2
	dark := 64 * w2

	xmxm := uint64(s.xm) * uint64(s.xm)
	ymym := uint64(s.ym) * uint64(s.ym)
	if xmxm+ymym < dark {
		return 1
	}
	xmym := uint64(s.xm) * uint64(s.ym)
	sxy := int64(uint64(s.xym)*n) - int64(xmym)
	sxx := uint64(s.xxm)*n - xmxm
	syy := uint64(s.yym)*n - ymym
	var pos uint64
	if sxy > 0 {
		pos = uint64(sxy)
	}
	// Scaled down by 2^8 so the products below fit in 64 bits.
	num := (2*xmym + c1) * ((2*pos + c2) >> 8)
	den := (xmxm + ymym + c1) * ((sxx + syy + c2) >> 8)
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}

// ssimAt returns the SSIM of the window centred on (x0, y0), clipped to
// the w x h plane.
func ssimAt(a []uint8, aStride int, b []uint8, bStride int, x0, y0, w, h int) float64 {
	var s ssimStats
	for y := max(y0-ssimKernel, 0); y <= min(y0+ssimKernel, h-1); y++ {
		wy := ssimWeight[ssimKernel+y-y0]
		for x := max(x0-ssimKernel, 0); x <= min(x0+ssimKernel, w-1); x++ {
			s.add(a[y*aStride+x], b[y*bStride+x], wy*ssimWeight[ssimKernel+x-x0])
		}
	}
	return s.value()
}

// PlaneSSIM returns the mean SSIM of two w x h planes. Identical planes
// score exactly 1.
func PlaneSSIM(a []uint8, aStride int, b []uint8, bStride int, w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += ssimAt(a, aStride, b, bStride, x, y, w, h)
		}
	}
	return sum / float64(w*h)
}
