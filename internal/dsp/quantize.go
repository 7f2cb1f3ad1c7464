package dsp

// Quantisation tables and kernels for the 4x4 and 8x8 luma transforms.
// Levels are produced as (|c|*MF + f) >> qbits with qbits = 15 + qp/6
// (4x4) or 16 + qp/6 (8x8).

// MaxQP is the largest quantiser step index.
const MaxQP = 51

// SatdQP is the quantiser step used by the SATD-DCT cost proxy.
const SatdQP = 28

// RoundBits is the fixed-point precision of rounding offsets: an offset of
// 1<<RoundBits equals one full quantisation step.
const RoundBits = 10

// Default rounding offsets in RoundBits precision (1/3 and 1/6 of a step).
const (
	IntraRounding = 341
	InterRounding = 171
)

// quantMF4 holds the 4x4 forward scaling factors per qp%6 for the three
// position classes: both even, both odd, mixed.
var quantMF4 = [6][3]int{
	{13107, 5243, 8066},
	{11916, 4660, 7490},
	{10082, 4194, 6554},
	{9362, 3647, 5825},
	{8192, 3355, 5243},
	{7282, 2893, 4559},
}

// dequantV4 holds the 4x4 level scales per qp%6 for the same classes.
var dequantV4 = [6][3]int{
	{10, 16, 13},
	{11, 18, 14},
	{13, 20, 16},
	{14, 23, 18},
	{16, 25, 20},
	{18, 29, 23},
}

// quantMF8 and dequantV8 hold the 8x8 factors per qp%6 for the six 8x8
// position classes (see class8).
var quantMF8 = [6][6]int{
	{13107, 11428, 20972, 12222, 16777, 15481},
	{11916, 10826, 19174, 11058, 14980, 14290},
	{10082, 8943, 15978, 9675, 12710, 11985},
	{9362, 8228, 14913, 8931, 11984, 11259},
	{8192, 7346, 13159, 7740, 10486, 9777},
	{7282, 6428, 11570, 6830, 9118, 8640},
}

var dequantV8 = [6][6]int{
	{20, 18, 32, 19, 25, 24},
	{22, 19, 35, 21, 28, 26},
	{26, 23, 42, 24, 33, 31},
	{28, 25, 45, 26, 35, 33},
	{32, 28, 51, 30, 40, 38},
	{36, 32, 58, 34, 46, 43},
}

// MF4 and V4 expand the class tables to [qp%6][row][col].
var (
	MF4 [6][4][4]int
	V4  [6][4][4]int
	MF8 [6][8][8]int
	V8  [6][8][8]int
)

func class4(i, j int) int {
	switch {
	case i%2 == 0 && j%2 == 0:
		return 0
	case i%2 == 1 && j%2 == 1:
		return 1
	}
	return 2
}

func class8(i, j int) int {
	switch {
	case i%4 == 0 && j%4 == 0:
		return 0
	case i%2 == 1 && j%2 == 1:
		return 1
	case i%4 == 2 && j%4 == 2:
		return 2
	case (i%4 == 0 && j%2 == 1) || (i%2 == 1 && j%4 == 0):
		return 3
	case (i%4 == 0 && j%4 == 2) || (i%4 == 2 && j%4 == 0):
		return 4
	}
	return 5
}

func init() {
	for m := 0; m < 6; m++ {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				MF4[m][i][j] = quantMF4[m][class4(i, j)]
				V4[m][i][j] = dequantV4[m][class4(i, j)]
			}
		}
		for i := 0; i < 8; i++ {
			for j := 0; j < 8; j++ {
				MF8[m][i][j] = quantMF8[m][class8(i, j)]
				V8[m][i][j] = dequantV8[m][class8(i, j)]
			}
		}
	}
}

// ClampQP clamps qp to [0, MaxQP].
func ClampQP(qp int) int {
	if qp < 0 {
		return 0
	}
	if qp > MaxQP {
		return MaxQP
	}
	return qp
}

// satdRounding is the SATD proxy rounding offset for qbits = 15; it doubles
// with every qp/6 step.
const satdRounding = 10912

// Quantize4x4 quantises the coefficient magnitudes of b in place. Signs are
// dropped: this is the cost-proxy quantiser, every output is >= 0.
func Quantize4x4(b *Block4, qp int) {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	qbits := 15 + per
	f := satdRounding << per
	mf := &MF4[rem]
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			b[i][j] = (abs(b[i][j])*mf[i][j] + f) >> qbits
		}
	}
}

// RoundingOffsets4 and RoundingOffsets8 are per-position rounding offsets
// in RoundBits precision, indexed by raster position.
type (
	RoundingOffsets4 [16]int
	RoundingOffsets8 [64]int
)

// Fill sets every position to v.
func (r *RoundingOffsets4) Fill(v int) {
	for i := range r {
		r[i] = v
	}
}

// Fill sets every position to v.
func (r *RoundingOffsets8) Fill(v int) {
	for i := range r {
		r[i] = v
	}
}

// QuantizeCoeffs4x4 quantises b with sign preservation and writes the
// levels in zig-zag order to levels. firstCoeff is 1 to leave the DC
// position out (Intra16x16 AC blocks). When adj is non-nil it receives,
// per raster position, the quantisation remainder of each non-zero level in
// RoundBits precision (zero elsewhere). Returns the number of non-zero levels.
func QuantizeCoeffs4x4(b *Block4, qp int, offsets *RoundingOffsets4, firstCoeff int, levels *[16]int, adj *[16]int) int {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	qbits := 15 + per
	nz := 0
	for n := 0; n < 16; n++ {
		pos := Zigzag4[n]
		if adj != nil {
			adj[pos] = 0
		}
		if n < firstCoeff {
			levels[n] = 0
			continue
		}
		i, j := pos>>2, pos&3
		c := b[i][j]
		scaled := abs(c) * MF4[rem][i][j]
		f := (offsets[pos] << qbits) >> RoundBits
		level := (scaled + f) >> qbits
		if level != 0 {
			nz++
			if adj != nil {
				adj[pos] = ((scaled - level<<qbits) << RoundBits) >> qbits
			}
			if c < 0 {
				level = -level
			}
		}
		levels[n] = level
	}
	return nz
}

// DequantCoeffs4x4 expands zig-zag levels back into a raster coefficient
// block ready for InverseTransform4x4. firstCoeff mirrors QuantizeCoeffs4x4.
func DequantCoeffs4x4(levels *[16]int, qp int, firstCoeff int, b *Block4) {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	*b = Block4{}
	for n := firstCoeff; n < 16; n++ {
		if levels[n] == 0 {
			continue
		}
		pos := Zigzag4[n]
		i, j := pos>>2, pos&3
		b[i][j] = (levels[n] * V4[rem][i][j]) << per
	}
}

// QuantizeCoeffs8x8 is the 8x8 counterpart of QuantizeCoeffs4x4.
func QuantizeCoeffs8x8(b *Block8, qp int, offsets *RoundingOffsets8, levels *[64]int, adj *[64]int) int {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	qbits := 16 + per
	nz := 0
	for n := 0; n < 64; n++ {
		pos := Zigzag8[n]
		i, j := pos>>3, pos&7
		c := b[i][j]
		scaled := abs(c) * MF8[rem][i][j]
		f := (offsets[pos] << qbits) >> RoundBits
		level := (scaled + f) >> qbits
		if adj != nil {
			adj[pos] = 0
		}
		if level != 0 {
			nz++
			if adj != nil {
				adj[pos] = ((scaled - level<<qbits) << RoundBits) >> qbits
			}
			if c < 0 {
				level = -level
			}
		}
		levels[n] = level
	}
	return nz
}

// DequantCoeffs8x8 expands zig-zag 8x8 levels into a raster block.
func DequantCoeffs8x8(levels *[64]int, qp int, b *Block8) {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	*b = Block8{}
	for n := 0; n < 64; n++ {
		if levels[n] == 0 {
			continue
		}
		pos := Zigzag8[n]
		i, j := pos>>3, pos&7
		w := levels[n] * V8[rem][i][j]
		if per >= 2 {
			b[i][j] = w << (per - 2)
		} else {
			b[i][j] = (w + (1 << (1 - per))) >> (2 - per)
		}
	}
}

// QuantizeDC quantises the Hadamard-transformed Intra16x16 DC block into
// zig-zag levels. Returns the number of non-zero levels.
func QuantizeDC(b *Block4, qp int, rounding int, levels *[16]int) int {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	qbits := 16 + per
	f := (rounding << qbits) >> RoundBits
	mf := MF4[rem][0][0]
	nz := 0
	for n := 0; n < 16; n++ {
		pos := Zigzag4[n]
		c := b[pos>>2][pos&3]
		level := (abs(c)*mf + f) >> qbits
		if level != 0 {
			nz++
			if c < 0 {
				level = -level
			}
		}
		levels[n] = level
	}
	return nz
}

// DequantDC rebuilds the Intra16x16 DC coefficients from zig-zag levels,
// applying the inverse Hadamard and the DC scaling. The result holds the
// dequantised DC value of each 4x4 block at [blockRow][blockCol].
func DequantDC(levels *[16]int, qp int, b *Block4) {
	qp = ClampQP(qp)
	per, rem := qp/6, qp%6
	*b = Block4{}
	for n := 0; n < 16; n++ {
		pos := Zigzag4[n]
		b[pos>>2][pos&3] = levels[n]
	}
	InverseHadamardDC(b)
	scale := 16 * V4[rem][0][0]
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if per >= 6 {
				b[i][j] = (b[i][j] * scale) << (per - 6)
			} else {
				b[i][j] = (b[i][j]*scale + (1 << (5 - per))) >> (6 - per)
			}
		}
	}
}

// SplitInterleaved8x8 splits 8x8 zig-zag levels into the four interleaved
// 4x4 groups used when an 8x8 block is entropy coded as four 4x4 blocks:
// group k holds levels k, k+4, k+8, ...
func SplitInterleaved8x8(levels *[64]int) [4][16]int {
	var g [4][16]int
	for i, l := range levels {
		g[i&3][i>>2] = l
	}
	return g
}
