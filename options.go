package h264intra

import (
	"errors"
	"fmt"
	"math"

	"github.com/deepteams/h264intra/internal/dsp"
	"github.com/deepteams/h264intra/internal/intra"
)

// Complexity selects the cost function of the block searches.
type Complexity = intra.Complexity

const (
	ComplexityLow    = intra.ComplexityLow
	ComplexityMedium = intra.ComplexityMedium
	ComplexityHigh   = intra.ComplexityHigh
)

// MBType is the coding type of a macroblock.
type MBType = intra.MBType

const (
	MBI4    = intra.MBI4
	MBI8    = intra.MBI8
	MBI16   = intra.MBI16
	MBInter = intra.MBInter
)

// Stats summarises the decisions of a picture.
type Stats = intra.FrameStats

// ErrInvalidOptions is returned for out of range options.
var ErrInvalidOptions = errors.New("h264intra: invalid options")

// DefaultLevel is the level_idc written when Options.Level is 0.
const DefaultLevel = 40

// Options controls the mode decision.
type Options struct {
	// QP is the luma quantisation parameter (0-51, default 28 via
	// DefaultOptions).
	QP int

	// Complexity selects the 4x4/8x8 cost function. ComplexityHigh also
	// enables the rate-distortion 16x16 decision.
	Complexity Complexity

	// Transform8x8 evaluates Intra8x8 macroblocks (High profile).
	Transform8x8 bool

	// ConstrainedIntraPred treats inter coded neighbours as unavailable.
	ConstrainedIntraPred bool

	// AdaptiveRounding adapts the quantiser rounding offsets to the
	// levels of committed blocks. AdaptRndWeight (0-64) sets the update
	// weight; 0 uses intra.DefaultAdaptRndWeight.
	AdaptiveRounding bool
	AdaptRndWeight   int

	// DisabledModes lists 4x4/8x8 prediction modes (0-8) that are never
	// evaluated. DC (2) cannot be disabled.
	DisabledModes []int

	// Intra16ParDisable disables the vertical and horizontal 16x16 modes,
	// Intra16PlaneDisable the plane mode.
	Intra16ParDisable   bool
	Intra16PlaneDisable bool

	// Chroma444 codes Cb and Cr as luma-like planes sharing the luma
	// decisions. Otherwise only the luma plane is analysed.
	Chroma444 bool

	// Lambda overrides the Lagrangian multiplier derived from QP when
	// positive.
	Lambda float64

	// Level is the level_idc of the written SPS (0 = DefaultLevel).
	Level int
}

// DefaultOptions returns the options used when Analyze is given nil.
func DefaultOptions() *Options {
	return &Options{
		QP:               28,
		Complexity:       ComplexityHigh,
		Transform8x8:     true,
		AdaptiveRounding: true,
		AdaptRndWeight:   intra.DefaultAdaptRndWeight,
	}
}

// config converts o into the decision configuration.
func (o *Options) config() (intra.Config, error) {
	if o.QP < 0 || o.QP > dsp.MaxQP {
		return intra.Config{}, fmt.Errorf("%w: qp %d out of range [0,%d]", ErrInvalidOptions, o.QP, dsp.MaxQP)
	}
	if o.Lambda < 0 || math.IsNaN(o.Lambda) || math.IsInf(o.Lambda, 0) {
		return intra.Config{}, fmt.Errorf("%w: lambda %v", ErrInvalidOptions, o.Lambda)
	}
	if o.Level < 0 || o.Level > 255 {
		return intra.Config{}, fmt.Errorf("%w: level %d", ErrInvalidOptions, o.Level)
	}
	cfg := intra.DefaultConfig(o.QP)
	cfg.Complexity = o.Complexity
	cfg.Transform8x8 = o.Transform8x8
	cfg.ConstrainedIntraPred = o.ConstrainedIntraPred
	cfg.AdaptiveRounding = o.AdaptiveRounding
	if o.AdaptRndWeight != 0 {
		cfg.AdaptRndWeight = o.AdaptRndWeight
	}
	for _, m := range o.DisabledModes {
		if m < 0 || m >= dsp.NumIntraNxNModes {
			return intra.Config{}, fmt.Errorf("%w: prediction mode %d", ErrInvalidOptions, m)
		}
		cfg.DisabledModes4x4 |= 1 << uint(m)
	}
	cfg.Intra16ParDisable = o.Intra16ParDisable
	cfg.Intra16PlaneDisable = o.Intra16PlaneDisable
	cfg.Chroma444 = o.Chroma444
	if o.Lambda > 0 {
		cfg.Lambda = int64(o.Lambda*(1<<intra.LambdaBits) + 0.5)
		if cfg.Lambda == 0 {
			cfg.Lambda = 1
		}
	}
	if err := cfg.Validate(); err != nil {
		return intra.Config{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return cfg, nil
}

// level returns the level_idc to signal.
func (o *Options) level() int {
	if o.Level == 0 {
		return DefaultLevel
	}
	return o.Level
}
