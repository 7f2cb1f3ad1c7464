package dsp

// H.264 intra prediction.
//
// Convention (same as the block buffers of the transform path): a predictor
// receives a scratch buffer dst and the offset off of the block origin.
// Reference samples live before off:
//   - dst[off - BPS + x] : top row, x = -1 (top-left) .. 2n-1 (top-right)
//   - dst[off - 1 + y*BPS] : left column, y = 0 .. n-1
//
// LoadRefs fills the reference samples from a reconstructed plane; the
// predictors then write the n x n prediction at off.

// 4x4 and 8x8 prediction modes.
const (
	PredVertical = iota
	PredHorizontal
	PredDC
	PredDiagDownLeft
	PredDiagDownRight
	PredVerticalRight
	PredHorizontalDown
	PredVerticalLeft
	PredHorizontalUp
	NumIntraNxNModes
)

// 16x16 prediction modes.
const (
	Pred16Vertical = iota
	Pred16Horizontal
	Pred16DC
	Pred16Plane
	NumIntra16Modes
)

// Avail describes which reference samples exist for a block.
type Avail struct {
	Left, Up, UpLeft, UpRight bool
}

// All reports whether the left, up and up-left samples all exist.
func (a Avail) All() bool { return a.Left && a.Up && a.UpLeft }

// LoadRefs copies the reference samples of the n x n block at (x, y) of a
// reconstructed plane into dst. Missing samples are set to 128; a missing
// top-right run repeats the last top sample.
func LoadRefs(dst []byte, src []uint8, stride, x, y, n int, a Avail) {
	off := PredOff
	top := off - BPS
	if a.Up {
		row := src[(y-1)*stride+x:]
		copy(dst[top:top+n], row[:n])
		if a.UpRight {
			copy(dst[top+n:top+2*n], row[n:2*n])
		} else {
			for i := n; i < 2*n; i++ {
				dst[top+i] = row[n-1]
			}
		}
	} else {
		for i := 0; i < 2*n; i++ {
			dst[top+i] = 128
		}
	}
	if a.UpLeft {
		dst[top-1] = src[(y-1)*stride+x-1]
	} else {
		dst[top-1] = 128
	}
	for j := 0; j < n; j++ {
		if a.Left {
			dst[off-1+j*BPS] = src[(y+j)*stride+x-1]
		} else {
			dst[off-1+j*BPS] = 128
		}
	}
}

// FilterRefs8x8 applies the reference sample smoothing of 8x8 intra
// prediction in place. It must run once after LoadRefs and before any
// PredIntra8x8 call.
func FilterRefs8x8(dst []byte, off int, a Avail) {
	var t [17]int // t[0] = top-left, t[1+x] = top x
	var l [8]int
	for x := -1; x < 16; x++ {
		t[x+1] = int(dst[off-BPS+x])
	}
	for y := 0; y < 8; y++ {
		l[y] = int(dst[off-1+y*BPS])
	}
	tl := t[0]

	if a.Up {
		if a.UpLeft {
			dst[off-BPS] = uint8((tl + 2*t[1] + t[2] + 2) >> 2)
		} else {
			dst[off-BPS] = uint8((3*t[1] + t[2] + 2) >> 2)
		}
		for x := 1; x < 15; x++ {
			dst[off-BPS+x] = uint8((t[x] + 2*t[x+1] + t[x+2] + 2) >> 2)
		}
		dst[off-BPS+15] = uint8((t[15] + 3*t[16] + 2) >> 2)
	}
	if a.UpLeft {
		switch {
		case a.Up && a.Left:
			dst[off-BPS-1] = uint8((t[1] + 2*tl + l[0] + 2) >> 2)
		case a.Up:
			dst[off-BPS-1] = uint8((3*tl + t[1] + 2) >> 2)
		case a.Left:
			dst[off-BPS-1] = uint8((3*tl + l[0] + 2) >> 2)
		}
	}
	if a.Left {
		if a.UpLeft {
			dst[off-1] = uint8((tl + 2*l[0] + l[1] + 2) >> 2)
		} else {
			dst[off-1] = uint8((3*l[0] + l[1] + 2) >> 2)
		}
		for y := 1; y < 7; y++ {
			dst[off-1+y*BPS] = uint8((l[y-1] + 2*l[y] + l[y+1] + 2) >> 2)
		}
		dst[off-1+7*BPS] = uint8((l[6] + 3*l[7] + 2) >> 2)
	}
}

// PredIntra4x4 writes the 4x4 prediction for mode at off.
func PredIntra4x4(mode int, dst []byte, off int, a Avail) {
	predNxN(mode, dst, off, 4, a)
}

// PredIntra8x8 writes the 8x8 prediction for mode at off. The references
// must have been filtered with FilterRefs8x8.
func PredIntra8x8(mode int, dst []byte, off int, a Avail) {
	predNxN(mode, dst, off, 8, a)
}

func predNxN(mode int, dst []byte, off, n int, a Avail) {
	// p reads a reference sample; exactly one of x, y is -1 unless both are.
	p := func(x, y int) int {
		if y < 0 {
			return int(dst[off-BPS+x])
		}
		return int(dst[off-1+y*BPS])
	}
	set := func(x, y, v int) { dst[off+x+y*BPS] = uint8(v) }

	switch mode {
	case PredVertical:
		for y := 0; y < n; y++ {
			copy(dst[off+y*BPS:off+y*BPS+n], dst[off-BPS:off-BPS+n])
		}
	case PredHorizontal:
		for y := 0; y < n; y++ {
			v := dst[off-1+y*BPS]
			for x := 0; x < n; x++ {
				dst[off+x+y*BPS] = v
			}
		}
	case PredDC:
		predDC(dst, off, n, a)
	case PredDiagDownLeft:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if x == n-1 && y == n-1 {
					set(x, y, (p(2*n-2, -1)+3*p(2*n-1, -1)+2)>>2)
				} else {
					set(x, y, (p(x+y, -1)+2*p(x+y+1, -1)+p(x+y+2, -1)+2)>>2)
				}
			}
		}
	case PredDiagDownRight:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				switch {
				case x > y:
					set(x, y, (p(x-y-2, -1)+2*p(x-y-1, -1)+p(x-y, -1)+2)>>2)
				case x < y:
					set(x, y, (p(-1, y-x-2)+2*p(-1, y-x-1)+p(-1, y-x)+2)>>2)
				default:
					set(x, y, (p(0, -1)+2*p(-1, -1)+p(-1, 0)+2)>>2)
				}
			}
		}
	case PredVerticalRight:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				z := 2*x - y
				k := x - (y >> 1)
				switch {
				case z >= 0 && z&1 == 0:
					set(x, y, (p(k-1, -1)+p(k, -1)+1)>>1)
				case z >= 0:
					set(x, y, (p(k-2, -1)+2*p(k-1, -1)+p(k, -1)+2)>>2)
				case z == -1:
					set(x, y, (p(-1, 0)+2*p(-1, -1)+p(0, -1)+2)>>2)
				default:
					set(x, y, (p(-1, y-2*x-1)+2*p(-1, y-2*x-2)+p(-1, y-2*x-3)+2)>>2)
				}
			}
		}
	case PredHorizontalDown:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				z := 2*y - x
				k := y - (x >> 1)
				switch {
				case z >= 0 && z&1 == 0:
					set(x, y, (p(-1, k-1)+p(-1, k)+1)>>1)
				case z >= 0:
					set(x, y, (p(-1, k-2)+2*p(-1, k-1)+p(-1, k)+2)>>2)
				case z == -1:
					set(x, y, (p(-1, 0)+2*p(-1, -1)+p(0, -1)+2)>>2)
				default:
					set(x, y, (p(x-2*y-1, -1)+2*p(x-2*y-2, -1)+p(x-2*y-3, -1)+2)>>2)
				}
			}
		}
	case PredVerticalLeft:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				k := x + (y >> 1)
				if y&1 == 0 {
					set(x, y, (p(k, -1)+p(k+1, -1)+1)>>1)
				} else {
					set(x, y, (p(k, -1)+2*p(k+1, -1)+p(k+2, -1)+2)>>2)
				}
			}
		}
	case PredHorizontalUp:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				z := x + 2*y
				k := y + (x >> 1)
				switch {
				case z < 2*n-3 && z&1 == 0:
					set(x, y, (p(-1, k)+p(-1, k+1)+1)>>1)
				case z < 2*n-3:
					set(x, y, (p(-1, k)+2*p(-1, k+1)+p(-1, k+2)+2)>>2)
				case z == 2*n-3:
					set(x, y, (p(-1, n-2)+3*p(-1, n-1)+2)>>2)
				default:
					set(x, y, p(-1, n-1))
				}
			}
		}
	}
}

// predDC fills an n x n block with the mean of the available references.
func predDC(dst []byte, off, n int, a Avail) {
	shift := 0
	for 1<<shift < n {
		shift++
	}
	sum, count := 0, 0
	if a.Up {
		for x := 0; x < n; x++ {
			sum += int(dst[off-BPS+x])
		}
		count++
	}
	if a.Left {
		for y := 0; y < n; y++ {
			sum += int(dst[off-1+y*BPS])
		}
		count++
	}
	v := 128
	switch count {
	case 2:
		v = (sum + n) >> (shift + 1)
	case 1:
		v = (sum + n/2) >> shift
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dst[off+x+y*BPS] = uint8(v)
		}
	}
}

// PredIntra16x16 writes the 16x16 prediction for mode at off.
func PredIntra16x16(mode int, dst []byte, off int, a Avail) {
	switch mode {
	case Pred16Vertical:
		for y := 0; y < 16; y++ {
			copy(dst[off+y*BPS:off+y*BPS+16], dst[off-BPS:off-BPS+16])
		}
	case Pred16Horizontal:
		for y := 0; y < 16; y++ {
			v := dst[off-1+y*BPS]
			for x := 0; x < 16; x++ {
				dst[off+x+y*BPS] = v
			}
		}
	case Pred16DC:
		predDC(dst, off, 16, a)
	case Pred16Plane:
		predPlane16(dst, off)
	}
}

func predPlane16(dst []byte, off int) {
	top := func(x int) int { return int(dst[off-BPS+x]) }
	left := func(y int) int {
		if y < 0 {
			return int(dst[off-BPS-1])
		}
		return int(dst[off-1+y*BPS])
	}
	h, v := 0, 0
	for i := 0; i < 8; i++ {
		h += (i + 1) * (top(8+i) - top(6-i))
		v += (i + 1) * (left(8+i) - left(6-i))
	}
	a := 16 * (left(15) + top(15))
	b := (5*h + 32) >> 6
	c := (5*v + 32) >> 6
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dst[off+x+y*BPS] = Clip1((a + b*(x-7) + c*(y-7) + 16) >> 5)
		}
	}
}

// IntraNxNModeAvailable reports whether a 4x4/8x8 mode can be evaluated with
// the given references. DC is always available.
func IntraNxNModeAvailable(mode int, a Avail) bool {
	switch mode {
	case PredDC:
		return true
	case PredVertical, PredVerticalLeft, PredDiagDownLeft:
		return a.Up
	case PredHorizontal, PredHorizontalUp:
		return a.Left
	}
	return a.All()
}

// Intra16ModeAvailable is IntraNxNModeAvailable for 16x16 modes.
func Intra16ModeAvailable(mode int, a Avail) bool {
	switch mode {
	case Pred16Vertical:
		return a.Up
	case Pred16Horizontal:
		return a.Left
	case Pred16Plane:
		return a.All()
	}
	return true
}
