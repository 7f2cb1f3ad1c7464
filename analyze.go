package h264intra

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/deepteams/h264intra/internal/dsp"
	"github.com/deepteams/h264intra/internal/intra"
)

// MaxDimension is the largest width or height Analyze accepts, in pixels.
const MaxDimension = 16384

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("h264intra: empty image")

// MBDecision is the committed coding of one macroblock.
type MBDecision struct {
	Type MBType

	// Modes holds the prediction mode of each 4x4 block in raster order.
	// Intra8x8 macroblocks repeat each 8x8 mode over its four cells;
	// Intra16x16 macroblocks read as DC.
	Modes [16]int

	I16Mode int // Intra16x16 only
	CBP     int
	Cost    int64
}

// Analysis is the result of Analyze.
type Analysis struct {
	Width, Height     int
	MBWidth, MBHeight int
	Options           Options

	// MBs holds one decision per macroblock in raster order.
	MBs   []MBDecision
	Stats Stats

	// PSNR of the reconstruction per plane in dB. Cb and Cr are only set
	// when Options.Chroma444 is.
	PSNR [3]float64

	// SSIM of the reconstruction per plane, set like PSNR.
	SSIM [3]float64

	planes int
	recon  [3][]uint8 // Width x Height
}

// Analyze decides the intra coding of every macroblock of img. A nil opts
// uses DefaultOptions.
func Analyze(img image.Image, opts *Options) (*Analysis, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidOptions, b.Dx(), b.Dy(), MaxDimension)
	}

	pic := importImage(img, opts.Chroma444)
	fc, err := intra.NewFrameContext(cfg, pic, nil)
	if err != nil {
		return nil, fmt.Errorf("h264intra: %w", err)
	}
	defer fc.Release()

	mbW, mbH := fc.MBSize()
	a := &Analysis{
		Width:    pic.Width,
		Height:   pic.Height,
		MBWidth:  mbW,
		MBHeight: mbH,
		Options:  *opts,
		MBs:      make([]MBDecision, 0, mbW*mbH),
		planes:   fc.Planes(),
	}
	a.Options.DisabledModes = append([]int(nil), opts.DisabledModes...)

	for !fc.Done() {
		addr := fc.Next()
		mb, err := fc.Begin(addr)
		if err != nil {
			return nil, fmt.Errorf("h264intra: macroblock %d: %w", addr, err)
		}
		mb.DecideIntra()
		if err := mb.Commit(); err != nil {
			return nil, fmt.Errorf("h264intra: macroblock %d: %w", addr, err)
		}
		a.MBs = append(a.MBs, decision(fc, addr))
	}

	a.Stats = fc.Stats()
	for p := 0; p < a.planes; p++ {
		rec, stride := fc.Recon(p)
		a.recon[p] = make([]uint8, a.Width*a.Height)
		for y := 0; y < a.Height; y++ {
			copy(a.recon[p][y*a.Width:(y+1)*a.Width], rec[y*stride:])
		}
		a.PSNR[p] = planePSNR(pic.Planes[p], a.recon[p])
		a.SSIM[p] = dsp.PlaneSSIM(pic.Planes[p], a.Width, a.recon[p], a.Width, a.Width, a.Height)
	}
	return a, nil
}

// decision collects the committed state of macroblock addr.
func decision(fc *intra.FrameContext, addr int) MBDecision {
	info := fc.MBInfo(addr)
	d := MBDecision{
		Type: info.Type,
		CBP:  info.CBP,
		Cost: info.Cost,
	}
	if info.Type == MBI16 {
		d.I16Mode = info.I16Mode
	}
	mbW, _ := fc.MBSize()
	bx0, by0 := (addr%mbW)*4, (addr/mbW)*4
	for i := range d.Modes {
		d.Modes[i] = fc.Mode4x4(bx0+i%4, by0+i/4)
	}
	return d
}

// importImage converts img to BT.601 studio range planes: Y only, or Y, Cb
// and Cr at full resolution when chroma444 is set. Alpha is ignored.
func importImage(img image.Image, chroma444 bool) *intra.Picture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pic := &intra.Picture{Width: w, Height: h}
	planes := 1
	if chroma444 {
		planes = 3
	}
	for p := 0; p < planes; p++ {
		pic.Planes[p] = make([]uint8, w*h)
		pic.Strides[p] = w
	}

	var rgbAt func(x, y int) (r, g, bl int)
	switch src := img.(type) {
	case *image.NRGBA:
		rgbAt = func(x, y int) (int, int, int) {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			return int(src.Pix[i]), int(src.Pix[i+1]), int(src.Pix[i+2])
		}
	case *image.RGBA:
		rgbAt = func(x, y int) (int, int, int) {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			return int(src.Pix[i]), int(src.Pix[i+1]), int(src.Pix[i+2])
		}
	case *image.Gray:
		rgbAt = func(x, y int) (int, int, int) {
			v := int(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)])
			return v, v, v
		}
	default:
		rgbAt = func(x, y int) (int, int, int) {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			return int(c.R), int(c.G), int(c.B)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := rgbAt(x, y)
			i := y*w + x
			pic.Planes[0][i] = dsp.RGBToY(r, g, bl)
			if chroma444 {
				pic.Planes[1][i] = dsp.RGBToCb(r, g, bl)
				pic.Planes[2][i] = dsp.RGBToCr(r, g, bl)
			}
		}
	}
	return pic
}

// planePSNR returns the PSNR of rec against src.
func planePSNR(src, rec []uint8) float64 {
	var sse uint64
	for i, v := range src {
		d := int(v) - int(rec[i])
		sse += uint64(d * d)
	}
	return getPSNR(sse, uint64(len(src)))
}

func getPSNR(mse uint64, size uint64) float64 {
	if mse > 0 && size > 0 {
		return 10.0 * math.Log10(255.0*255.0*float64(size)/float64(mse))
	}
	return 99.0
}

// ReconImage returns the reconstructed picture. Without Chroma444 only
// luma is reconstructed and the image is grey.
func (a *Analysis) ReconImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			i := y*a.Width + x
			cb, cr := 128, 128
			if a.planes == 3 {
				cb, cr = int(a.recon[1][i]), int(a.recon[2][i])
			}
			r, g, bl := dsp.YCbCrToRGB(int(a.recon[0][i]), cb, cr)
			o := img.PixOffset(x, y)
			img.Pix[o+0] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = bl
			img.Pix[o+3] = 0xff
		}
	}
	return img
}

// MB returns the decision of the macroblock at (mbx, mby).
func (a *Analysis) MB(mbx, mby int) MBDecision {
	return a.MBs[mby*a.MBWidth+mbx]
}
