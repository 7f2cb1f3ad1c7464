package dsp

// BPS is the common stride of the prediction scratch buffers. A 16x16 block
// plus its top/left reference samples and a 16-sample top-right extension
// fits in 17 rows of BPS bytes.
const BPS = 32

// PredOff is the offset of the block origin inside a prediction scratch
// buffer: one row of top references above it and one left reference column.
const PredOff = BPS + 1

// PredBufSize is the minimum size of a prediction scratch buffer.
const PredBufSize = 17 * BPS

// Block4 is a 4x4 matrix of residual or coefficient samples, indexed [row][col].
type Block4 [4][4]int

// Block8 is an 8x8 matrix of residual or coefficient samples, indexed [row][col].
type Block8 [8][8]int

// Zigzag4 maps a 4x4 frame scan position to its raster index (row*4+col).
var Zigzag4 = [16]int{0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15}

// Zigzag8 maps an 8x8 frame scan position to its raster index (row*8+col).
var Zigzag8 = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Clip1 clamps v to the 8-bit sample range.
func Clip1(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
