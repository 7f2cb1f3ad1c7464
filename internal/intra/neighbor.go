package intra

import "github.com/deepteams/h264intra/internal/dsp"

// PixelPos locates a neighbouring luma sample of a macroblock.
type PixelPos struct {
	Available  bool
	MBAddr     int // macroblock holding the sample, -1 when unavailable
	X, Y       int // position inside MBAddr
	PosX, PosY int // position in the picture
}

// Neighbour returns the luma sample at (xN, yN) relative to the macroblock
// origin, with -1 <= xN, yN. Samples of macroblocks outside the picture or
// not yet committed are unavailable, as are inter macroblocks under
// constrained intra prediction.
func (mb *Macroblock) Neighbour(xN, yN int) PixelPos {
	fc := mb.fc
	mbx, mby := mb.mbx, mb.mby
	switch {
	case xN < 0 && yN < 0: // D
		mbx, mby = mbx-1, mby-1
	case xN < 0 && yN < 16: // A
		mbx--
	case xN < 16 && yN < 0: // B
		mby--
	case xN < 16 && yN < 16:
	case yN < 0: // C
		mbx, mby = mbx+1, mby-1
	default:
		return PixelPos{MBAddr: -1}
	}
	if mbx < 0 || mby < 0 || mbx >= fc.mbW || mby >= fc.mbH {
		return PixelPos{MBAddr: -1}
	}
	addr := mby*fc.mbW + mbx
	if addr != mb.addr && !fc.mbAvailable(addr) {
		return PixelPos{MBAddr: -1}
	}
	x, y := xN&15, yN&15
	return PixelPos{
		Available: true,
		MBAddr:    addr,
		X:         x,
		Y:         y,
		PosX:      mbx*16 + x,
		PosY:      mby*16 + y,
	}
}

func (fc *FrameContext) mbAvailable(addr int) bool {
	if addr < 0 || addr >= fc.next {
		return false
	}
	return !fc.cfg.ConstrainedIntraPred || fc.mbs[addr].Type.IsIntra()
}

// blockIndex returns the decoding order index of the 4x4 block holding
// the macroblock sample (x, y).
func blockIndex(x, y int) int {
	return 4*((y>>3)*2+x>>3) + ((y>>2)&1)*2 + (x>>2)&1
}

// blockAvail returns the reference availability of the n x n block at
// (bx, by) inside the macroblock.
func (mb *Macroblock) blockAvail(bx, by, n int) dsp.Avail {
	a := dsp.Avail{
		Left:   mb.Neighbour(bx-1, by).Available,
		Up:     mb.Neighbour(bx, by-1).Available,
		UpLeft: mb.Neighbour(bx-1, by-1).Available,
	}
	ur := mb.Neighbour(bx+n, by-1)
	a.UpRight = ur.Available
	if a.UpRight && ur.MBAddr == mb.addr {
		a.UpRight = blockIndex(bx+n, by-1) < blockIndex(bx, by)
	}
	return a
}

// mbAvail returns the reference availability of the whole macroblock.
func (mb *Macroblock) mbAvail() dsp.Avail {
	return dsp.Avail{
		Left:   mb.Neighbour(-1, 0).Available,
		Up:     mb.Neighbour(0, -1).Available,
		UpLeft: mb.Neighbour(-1, -1).Available,
	}
}

// neighbourMode returns the NxN prediction mode covering the sample at
// (xN, yN), or NoMode when it is unavailable. Samples of the current
// macroblock read the modes decided so far; I8 neighbours read the 8x8 map.
func (mb *Macroblock) neighbourMode(xN, yN int) int {
	pos := mb.Neighbour(xN, yN)
	if !pos.Available {
		return NoMode
	}
	if pos.MBAddr == mb.addr {
		return int(mb.cur.modes[(pos.Y>>2)*4+pos.X>>2])
	}
	fc := mb.fc
	i := (pos.PosY>>2)*fc.mbW*4 + pos.PosX>>2
	if fc.mbs[pos.MBAddr].Type == MBI8 {
		return int(fc.ipred8[i])
	}
	return int(fc.ipred4[i])
}
