// Package intra implements the intra macroblock mode decision of an H.264
// encoder: 4x4, 8x8 and 16x16 prediction searches, macroblock aggregation
// and the per-frame state they share.
//
// A FrameContext owns the reconstructed picture and the prediction mode
// maps. Macroblocks are decided strictly in raster order: Begin hands out
// the next Macroblock, one of the Decide* methods chooses its coding, and
// Commit publishes the result to the frame.
package intra

import (
	"errors"
	"fmt"
	"math"

	"github.com/deepteams/h264intra/internal/dsp"
)

// Complexity selects the cost function used by the 4x4 and 8x8 searches.
type Complexity int

const (
	// ComplexityLow ranks modes by Hadamard SATD of the prediction error.
	ComplexityLow Complexity = iota
	// ComplexityMedium ranks modes by the quantised transform magnitude of
	// the prediction error at the SATD proxy step.
	ComplexityMedium
	// ComplexityHigh ranks modes by SSE + lambda * bits.
	ComplexityHigh
)

func (c Complexity) String() string {
	switch c {
	case ComplexityLow:
		return "low"
	case ComplexityMedium:
		return "medium"
	case ComplexityHigh:
		return "high"
	}
	return fmt.Sprintf("Complexity(%d)", int(c))
}

// SliceType is the type of the slice being coded.
type SliceType int

const (
	SliceI SliceType = iota
	SliceP
)

// LambdaBits is the fixed-point precision of Config.Lambda.
const LambdaBits = 4

// DefaultAdaptRndWeight is the default adaptive rounding update weight.
const DefaultAdaptRndWeight = 4

// adaptRndShift scales AdaptRndWeight: each update moves an offset by
// weight/2^adaptRndShift of the observed remainder.
const adaptRndShift = 6

// Errors.
var (
	ErrInvalidConfig = errors.New("intra: invalid config")
	ErrOutOfOrder    = errors.New("intra: macroblock out of raster order")
	ErrOpen          = errors.New("intra: previous macroblock not committed")
	ErrUndecided     = errors.New("intra: macroblock has no decision")
	ErrCommitted     = errors.New("intra: macroblock already committed")
	ErrPicture       = errors.New("intra: invalid picture")
)

// Config holds the mode decision parameters.
type Config struct {
	QP                    int        // 0-51.
	Complexity            Complexity // Cost function of the NxN searches; High also selects RD for 16x16.
	Transform8x8          bool       // Evaluate Intra8x8 macroblocks.
	ConstrainedIntraPred  bool       // Treat inter neighbours as unavailable.
	AdaptiveRounding      bool       // Adapt quantiser rounding offsets to committed blocks.
	AdaptRndWeight        int        // 0-64, adaptive rounding update weight.
	DisabledModes4x4      uint16     // Bit m disables 4x4/8x8 mode m. DC cannot be disabled.
	Intra16ParDisable     bool       // Disable 16x16 vertical and horizontal.
	Intra16PlaneDisable   bool       // Disable 16x16 plane.
	IntraDisableInterOnly bool       // Apply the 16x16 disables only outside I slices.
	SliceType             SliceType
	Chroma444             bool  // Code Cb and Cr with the luma modes (4:4:4).
	Lambda                int64 // Lagrangian multiplier in 1/2^LambdaBits units; 0 derives it from QP.
}

// DefaultConfig returns the decision defaults for qp (clamped to 0-51):
// high complexity, 8x8 transform and adaptive rounding enabled.
func DefaultConfig(qp int) Config {
	return Config{
		QP:               dsp.ClampQP(qp),
		Complexity:       ComplexityHigh,
		Transform8x8:     true,
		AdaptiveRounding: true,
		AdaptRndWeight:   DefaultAdaptRndWeight,
		SliceType:        SliceI,
	}
}

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	switch {
	case c.QP < 0 || c.QP > dsp.MaxQP:
		return fmt.Errorf("%w: qp %d out of range [0,%d]", ErrInvalidConfig, c.QP, dsp.MaxQP)
	case c.Complexity < ComplexityLow || c.Complexity > ComplexityHigh:
		return fmt.Errorf("%w: complexity %d", ErrInvalidConfig, c.Complexity)
	case c.AdaptRndWeight < 0 || c.AdaptRndWeight > 1<<adaptRndShift:
		return fmt.Errorf("%w: adaptive rounding weight %d", ErrInvalidConfig, c.AdaptRndWeight)
	case c.DisabledModes4x4&(1<<dsp.PredDC) != 0:
		return fmt.Errorf("%w: DC prediction cannot be disabled", ErrInvalidConfig)
	case c.DisabledModes4x4>>dsp.NumIntraNxNModes != 0:
		return fmt.Errorf("%w: disabled mode mask %#x", ErrInvalidConfig, c.DisabledModes4x4)
	case c.SliceType != SliceI && c.SliceType != SliceP:
		return fmt.Errorf("%w: slice type %d", ErrInvalidConfig, c.SliceType)
	case c.Lambda < 0:
		return fmt.Errorf("%w: negative lambda", ErrInvalidConfig)
	}
	return nil
}

// lambda returns the effective Lagrangian multiplier.
func (c *Config) lambda() int64 {
	if c.Lambda > 0 {
		return c.Lambda
	}
	return DefaultLambda(c.QP, c.Complexity)
}

// modeEnabled reports whether a 4x4/8x8 mode may be evaluated.
func (c *Config) modeEnabled(mode int) bool {
	return c.DisabledModes4x4&(1<<uint(mode)) == 0
}

// intra16Enabled reports whether a 16x16 mode may be evaluated.
func (c *Config) intra16Enabled(mode int) bool {
	if !c.IntraDisableInterOnly || c.SliceType != SliceI {
		if c.Intra16ParDisable && (mode == dsp.Pred16Vertical || mode == dsp.Pred16Horizontal) {
			return false
		}
		if c.Intra16PlaneDisable && mode == dsp.Pred16Plane {
			return false
		}
	}
	return true
}

// DefaultLambda derives the mode decision multiplier from qp:
// 0.85 * 2^((qp-12)/3) for SSE based costs and its square root for the
// SATD based ones, in 1/2^LambdaBits units.
func DefaultLambda(qp int, c Complexity) int64 {
	l := 0.85 * math.Pow(2, float64(dsp.ClampQP(qp)-12)/3)
	if c != ComplexityHigh {
		l = math.Sqrt(l)
	}
	return int64(l*(1<<LambdaBits) + 0.5)
}

// WeightedCost returns lambda * bits in cost units, rounded.
func WeightedCost(lambda int64, bits int) int64 {
	return (lambda*int64(bits) + 1<<(LambdaBits-1)) >> LambdaBits
}
