package intra

// Coster ranks a candidate prediction mode. Evaluate codes the candidate
// (filling c.Result) and returns its cost and whether the luma block has
// non-zero levels.
type Coster interface {
	Evaluate(c *Candidate) (cost int64, nonzero bool)
}

// NewCoster returns the cost function for cfg.Complexity. est is only used
// by the high complexity coster.
func NewCoster(cfg Config, est RateEstimator) Coster {
	switch cfg.Complexity {
	case ComplexityLow:
		return SATDCoster{}
	case ComplexityMedium:
		return SATDDCTCoster{}
	}
	return &RDCoster{Est: est}
}

// SATDCoster costs a mode as SATD + 4*lambda when it is not the MPM.
type SATDCoster struct{}

func (SATDCoster) Evaluate(c *Candidate) (int64, bool) {
	c.Code()
	return int64(c.SATD()) + mpmPenalty(c), c.Result.Nonzero
}

// SATDDCTCoster is SATDCoster with the quantised transform proxy in place
// of the Hadamard SATD.
type SATDDCTCoster struct{}

func (SATDDCTCoster) Evaluate(c *Candidate) (int64, bool) {
	c.Code()
	return int64(c.SATDDCT()) + mpmPenalty(c), c.Result.Nonzero
}

func mpmPenalty(c *Candidate) int64 {
	if c.Mode == c.MPM {
		return 0
	}
	return WeightedCost(c.Lambda, 4)
}

// RDCoster costs a mode as reconstruction SSE + lambda * bits, where bits
// covers the mode signalling and the coefficients of every coded plane.
// The estimator state is restored after each evaluation.
type RDCoster struct {
	Est RateEstimator
}

func (r *RDCoster) Evaluate(c *Candidate) (int64, bool) {
	d := c.Code()
	st := r.Est.Snapshot()
	bits := modeBits(c.Mode, c.MPM)
	for p := 0; p < c.Planes; p++ {
		if c.Size == 8 {
			bits += r.Est.CoeffBits(c.Result.Levels8[p][:], CatLuma8x8)
		} else {
			bits += r.Est.CoeffBits(c.Result.Levels4[p][:], CatLuma4x4)
		}
	}
	r.Est.Restore(st)
	return int64(d) + WeightedCost(c.Lambda, bits), c.Result.Nonzero
}
