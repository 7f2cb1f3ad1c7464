package intra

import (
	"fmt"

	"github.com/deepteams/h264intra/internal/dsp"
	"github.com/deepteams/h264intra/internal/pool"
)

// Picture is an 8-bit planar input picture. Planes[1] and Planes[2] are only
// read when Config.Chroma444 is set and must then have the luma size.
type Picture struct {
	Width, Height int
	Planes        [maxPlanes][]uint8
	Strides       [maxPlanes]int
}

// MBInfo is the committed decision of one macroblock.
type MBInfo struct {
	Type      MBType
	I16Mode   int   // 16x16 mode, Intra16x16 only
	I16Offset int   // mb_type offset, Intra16x16 only
	CBP       int   // coded block pattern
	Cost      int64 // decision cost
	SSE       int64 // luma reconstruction error
}

// FrameStats summarises the committed decisions of a frame.
type FrameStats struct {
	MBTypes   [numMBTypes]int
	Modes4x4  [dsp.NumIntraNxNModes]int // per 4x4 block of I4 macroblocks
	Modes8x8  [dsp.NumIntraNxNModes]int // per 8x8 block of I8 macroblocks
	Modes16   [dsp.NumIntra16Modes]int
	MPMBlocks int // NxN blocks coded with the most probable mode
	Cost      int64
	SSE       [maxPlanes]int64
}

// FrameContext owns the state shared by the macroblocks of one picture: the
// padded source, the reconstruction, the prediction mode maps and the
// adaptive rounding offsets. It is not safe for concurrent use.
type FrameContext struct {
	cfg    Config
	lambda int64
	est    RateEstimator
	coster Coster
	planes int

	mbW, mbH int
	width    int // padded luma width, stride of src and recon
	height   int
	srcW     int // picture size
	srcH     int

	src   [maxPlanes][]uint8
	recon [maxPlanes][]uint8

	// Prediction mode maps at 4x4 granularity. ipred8 holds the broadcast
	// 8x8 modes of I8 macroblocks; I16 and inter macroblocks read as DC.
	ipred4 []int8
	ipred8 []int8

	mbs  []MBInfo
	next int
	open *Macroblock

	rnd   rounding
	stats FrameStats
}

// NewFrameContext validates cfg and prepares a frame for pic. A nil est
// selects an ExpGolombEstimator.
func NewFrameContext(cfg Config, pic *Picture, est RateEstimator) (*FrameContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pic == nil || pic.Width <= 0 || pic.Height <= 0 {
		return nil, fmt.Errorf("%w: empty picture", ErrPicture)
	}
	planes := 1
	if cfg.Chroma444 {
		planes = maxPlanes
	}
	for p := 0; p < planes; p++ {
		if pic.Strides[p] < pic.Width || len(pic.Planes[p]) < (pic.Height-1)*pic.Strides[p]+pic.Width {
			return nil, fmt.Errorf("%w: plane %d too small for %dx%d", ErrPicture, p, pic.Width, pic.Height)
		}
	}
	if est == nil {
		est = NewExpGolombEstimator()
	}

	fc := &FrameContext{
		cfg:    cfg,
		lambda: cfg.lambda(),
		est:    est,
		planes: planes,
		mbW:    (pic.Width + 15) >> 4,
		mbH:    (pic.Height + 15) >> 4,
		srcW:   pic.Width,
		srcH:   pic.Height,
	}
	fc.coster = NewCoster(cfg, est)
	fc.width = fc.mbW * 16
	fc.height = fc.mbH * 16
	n := fc.width * fc.height
	for p := 0; p < planes; p++ {
		fc.src[p] = pool.Get(n)
		padPlane(fc.src[p], fc.width, fc.height, pic.Planes[p], pic.Strides[p], pic.Width, pic.Height)
		fc.recon[p] = pool.GetZeroed(n)
	}
	blocks := fc.mbW * 4 * fc.mbH * 4
	fc.ipred4 = make([]int8, blocks)
	fc.ipred8 = make([]int8, blocks)
	for i := range fc.ipred4 {
		fc.ipred4[i] = dsp.PredDC
		fc.ipred8[i] = dsp.PredDC
	}
	fc.mbs = make([]MBInfo, fc.mbW*fc.mbH)
	fc.rnd.init()
	return fc, nil
}

// padPlane copies a w x h plane into dst (dw x dh) and replicates the last
// column and row into the padding.
func padPlane(dst []uint8, dw, dh int, src []uint8, stride, w, h int) {
	for y := 0; y < dh; y++ {
		sy := min(y, h-1)
		row := dst[y*dw : (y+1)*dw]
		copy(row, src[sy*stride:sy*stride+w])
		last := row[w-1]
		for x := w; x < dw; x++ {
			row[x] = last
		}
	}
}

// SetCoster replaces the cost function of the 4x4 and 8x8 searches.
func (fc *FrameContext) SetCoster(c Coster) { fc.coster = c }

// Config returns the decision parameters.
func (fc *FrameContext) Config() Config { return fc.cfg }

// Lambda returns the effective Lagrangian multiplier.
func (fc *FrameContext) Lambda() int64 { return fc.lambda }

// MBSize returns the picture size in macroblocks.
func (fc *FrameContext) MBSize() (w, h int) { return fc.mbW, fc.mbH }

// Next returns the address of the next macroblock to decide.
func (fc *FrameContext) Next() int { return fc.next }

// Done reports whether every macroblock has been committed.
func (fc *FrameContext) Done() bool { return fc.next == len(fc.mbs) }

// MBInfo returns the committed decision of macroblock addr.
func (fc *FrameContext) MBInfo(addr int) MBInfo { return fc.mbs[addr] }

// Mode4x4 returns the prediction mode map entry of the 4x4 block at (bx, by)
// in 4x4 block units. I8 macroblocks report their 8x8 modes.
func (fc *FrameContext) Mode4x4(bx, by int) int {
	i := by*fc.mbW*4 + bx
	if fc.mbs[(by>>2)*fc.mbW+bx>>2].Type == MBI8 {
		return int(fc.ipred8[i])
	}
	return int(fc.ipred4[i])
}

// Recon returns the reconstructed plane p and its stride. The plane is
// padded to whole macroblocks.
func (fc *FrameContext) Recon(p int) ([]uint8, int) { return fc.recon[p], fc.width }

// Planes returns the number of coded planes.
func (fc *FrameContext) Planes() int { return fc.planes }

// Stats returns the statistics of the committed macroblocks.
func (fc *FrameContext) Stats() FrameStats { return fc.stats }

// Release returns the frame buffers to the pool. The context must not be
// used afterwards.
func (fc *FrameContext) Release() {
	for p := 0; p < maxPlanes; p++ {
		pool.Put(fc.src[p])
		pool.Put(fc.recon[p])
		fc.src[p], fc.recon[p] = nil, nil
	}
	fc.open = nil
}

// Begin opens macroblock addr. Macroblocks must be opened in raster order
// and each must be committed before the next is opened.
func (fc *FrameContext) Begin(addr int) (*Macroblock, error) {
	if fc.open != nil {
		return nil, fmt.Errorf("%w: macroblock %d", ErrOpen, fc.open.addr)
	}
	if addr != fc.next {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, addr, fc.next)
	}
	mb := &Macroblock{fc: fc, addr: addr, mbx: addr % fc.mbW, mby: addr / fc.mbW}
	mb.load()
	fc.open = mb
	return mb, nil
}

// MarkInter commits macroblock addr as inter coded: its reconstruction is
// the source and its modes read as DC. With constrained intra prediction
// the macroblock is then unavailable to intra neighbours.
func (fc *FrameContext) MarkInter(addr int) error {
	if fc.open != nil {
		return fmt.Errorf("%w: macroblock %d", ErrOpen, fc.open.addr)
	}
	if addr != fc.next {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, addr, fc.next)
	}
	mbx, mby := addr%fc.mbW, addr/fc.mbW
	for p := 0; p < fc.planes; p++ {
		for y := 0; y < 16; y++ {
			o := (mby*16+y)*fc.width + mbx*16
			copy(fc.recon[p][o:o+16], fc.src[p][o:o+16])
		}
	}
	fc.setModes(mbx, mby, nil, nil)
	fc.mbs[addr] = MBInfo{Type: MBInter}
	fc.stats.MBTypes[MBInter]++
	fc.next++
	return nil
}

// setModes writes the mode maps of macroblock (mbx, mby). nil maps store DC.
func (fc *FrameContext) setModes(mbx, mby int, m4, m8 *[16]int8) {
	stride := fc.mbW * 4
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			o := (mby*4+j)*stride + mbx*4 + i
			fc.ipred4[o], fc.ipred8[o] = dsp.PredDC, dsp.PredDC
			if m4 != nil {
				fc.ipred4[o] = m4[j*4+i]
			}
			if m8 != nil {
				fc.ipred8[o] = m8[j*4+i]
			}
		}
	}
}
