package dsp

// BT.601 studio range colour conversion in 16-bit fixed point. Pictures
// are imported as Y (and Cb, Cr for 4:4:4) planes; reconstructions are
// converted back for preview.

const (
	yuvFix  = 16
	yuvHalf = 1 << (yuvFix - 1)
)

// RGB -> YCbCr coefficients, scaled by 1<<yuvFix.
const (
	kRGBToY0  = 16839 // 0.2568
	kRGBToY1  = 33059 // 0.5041
	kRGBToY2  = 6420  // 0.0979
	kRGBToCb0 = -9719
	kRGBToCb1 = -19081
	kRGBToCb2 = 28800
	kRGBToCr0 = 28800
	kRGBToCr1 = -24116
	kRGBToCr2 = -4684
)

// YCbCr -> RGB coefficients, scaled by 1<<yuvFix.
const (
	kYScale = 76309  // 1.164
	kRCr    = 104597 // 1.596
	kGCb    = 25675  // 0.391
	kGCr    = 53279  // 0.813
	kBCb    = 132201 // 2.018
)

func clip8(v int) uint8 {
	if v&^0xff == 0 {
		return uint8(v)
	}
	if v < 0 {
		return 0
	}
	return 255
}

// RGBToY converts 8-bit RGB to luma in [16, 235].
func RGBToY(r, g, b int) uint8 {
	return uint8((kRGBToY0*r + kRGBToY1*g + kRGBToY2*b + yuvHalf + 16<<yuvFix) >> yuvFix)
}

// RGBToCb converts 8-bit RGB to the blue difference in [16, 240].
func RGBToCb(r, g, b int) uint8 {
	return clip8((kRGBToCb0*r + kRGBToCb1*g + kRGBToCb2*b + yuvHalf + 128<<yuvFix) >> yuvFix)
}

// RGBToCr converts 8-bit RGB to the red difference in [16, 240].
func RGBToCr(r, g, b int) uint8 {
	return clip8((kRGBToCr0*r + kRGBToCr1*g + kRGBToCr2*b + yuvHalf + 128<<yuvFix) >> yuvFix)
}

// YCbCrToRGB converts studio range YCbCr back to 8-bit RGB.
func YCbCrToRGB(y, cb, cr int) (r, g, b uint8) {
	c := (y - 16) * kYScale
	d, e := cb-128, cr-128
	r = clip8((c + kRCr*e + yuvHalf) >> yuvFix)
	g = clip8((c - kGCb*d - kGCr*e + yuvHalf) >> yuvFix)
	b = clip8((c + kBCb*d + yuvHalf) >> yuvFix)
	return r, g, b
}
