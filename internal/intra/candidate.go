package intra

import "github.com/deepteams/h264intra/internal/dsp"

// maxPlanes is the number of colour planes a candidate can carry.
const maxPlanes = 3

// CandidateResult is the coded form of one prediction mode for a 4x4 or
// 8x8 block. The searches keep the best one by value.
type CandidateResult struct {
	Mode       int
	Cost       int64
	Nonzero    bool                 // luma has non-zero levels
	NZ         [maxPlanes]int       // non-zero level count per plane
	Levels4    [maxPlanes][16]int   // 4x4 zig-zag levels
	Levels8    [maxPlanes][64]int   // 8x8 zig-zag levels
	Recon      [maxPlanes][64]uint8 // reconstruction, stride = block size
	Pred       [maxPlanes][64]uint8 // prediction, stride = block size
	Adj4       [16]int              // luma rounding adjustments, 4x4
	Adj8       [64]int              // luma rounding adjustments, 8x8
	Distortion int                  // SSE of the reconstruction over all planes
}

// Candidate is one prediction mode under evaluation. The search fills the
// inputs; Code writes Result.
type Candidate struct {
	Mode   int
	MPM    int
	Size   int // 4 or 8
	Planes int
	QP     int
	Lambda int64

	src       [maxPlanes][]uint8 // block origin in the source
	srcStride int
	pred      [maxPlanes][]uint8 // block origin in the prediction buffer, stride dsp.BPS
	offsets4  *dsp.RoundingOffsets4
	offsets8  *dsp.RoundingOffsets8
	wantAdj   bool

	Result CandidateResult
}

// Code transforms, quantises and reconstructs the prediction error of
// every plane into c.Result and returns the reconstruction SSE.
func (c *Candidate) Code() int {
	r := &c.Result
	r.Mode = c.Mode
	r.Distortion = 0
	for p := 0; p < c.Planes; p++ {
		if c.Size == 8 {
			r.NZ[p] = c.code8(p)
		} else {
			r.NZ[p] = c.code4(p)
		}
	}
	for p := c.Planes; p < maxPlanes; p++ {
		r.NZ[p] = 0
	}
	r.Nonzero = r.NZ[0] > 0
	return r.Distortion
}

func (c *Candidate) code4(p int) int {
	r := &c.Result
	src, pred := c.src[p], c.pred[p]
	var adj *[16]int
	if p == 0 && c.wantAdj {
		adj = &r.Adj4
	}
	res, _, _ := dsp.ComputeResidual(src, c.srcStride, pred, dsp.BPS)
	dsp.ForwardTransform4x4(&res)
	nz := dsp.QuantizeCoeffs4x4(&res, c.QP, c.offsets4, 0, &r.Levels4[p], adj)
	dsp.DequantCoeffs4x4(&r.Levels4[p], c.QP, 0, &res)
	dsp.InverseTransform4x4(&res)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			pv := pred[y*dsp.BPS+x]
			v := dsp.Clip1(int(pv) + res[y][x])
			r.Pred[p][y*4+x] = pv
			r.Recon[p][y*4+x] = v
			d := int(src[y*c.srcStride+x]) - int(v)
			r.Distortion += d * d
		}
	}
	return nz
}

func (c *Candidate) code8(p int) int {
	r := &c.Result
	src, pred := c.src[p], c.pred[p]
	var adj *[64]int
	if p == 0 && c.wantAdj {
		adj = &r.Adj8
	}
	res, _, _ := dsp.ComputeResidual8x8(src, c.srcStride, pred, dsp.BPS)
	dsp.ForwardTransform8x8(&res)
	nz := dsp.QuantizeCoeffs8x8(&res, c.QP, c.offsets8, &r.Levels8[p], adj)
	dsp.DequantCoeffs8x8(&r.Levels8[p], c.QP, &res)
	dsp.InverseTransform8x8(&res)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pv := pred[y*dsp.BPS+x]
			v := dsp.Clip1(int(pv) + res[y][x])
			r.Pred[p][y*8+x] = pv
			r.Recon[p][y*8+x] = v
			d := int(src[y*c.srcStride+x]) - int(v)
			r.Distortion += d * d
		}
	}
	return nz
}

// SATD returns the Hadamard SATD of the prediction error over all planes.
func (c *Candidate) SATD() int {
	return c.sumSubblocks(dsp.SatdCost)
}

// SATDDCT returns the SATD-DCT proxy cost of the prediction error over all
// planes.
func (c *Candidate) SATDDCT() int {
	return c.sumSubblocks(dsp.SatdDctCost)
}

func (c *Candidate) sumSubblocks(cost func(*dsp.Block4) int) int {
	sum := 0
	for p := 0; p < c.Planes; p++ {
		for by := 0; by < c.Size; by += 4 {
			for bx := 0; bx < c.Size; bx += 4 {
				res, _, _ := dsp.ComputeResidual(c.src[p][by*c.srcStride+bx:], c.srcStride, c.pred[p][by*dsp.BPS+bx:], dsp.BPS)
				sum += cost(&res)
			}
		}
	}
	return sum
}
