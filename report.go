package h264intra

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deepteams/h264intra/internal/bitio"
	"github.com/deepteams/h264intra/internal/dsp"
)

// ReportUUID identifies the user_data_unregistered SEI message that
// carries a decision report.
var ReportUUID = uuid.MustParse("5f0d6c1e-8a3b-4e27-9c41-d2b7a6e0f893")

// ErrBadReport is returned when a decision report cannot be parsed.
var ErrBadReport = errors.New("h264intra: malformed decision report")

const (
	reportVersion = 1
	maxReportCost = 1<<31 - 2
)

// Report is the serialisable part of an Analysis: the picture geometry,
// the decision parameters and every macroblock decision.
type Report struct {
	Width, Height        int
	QP                   int
	Complexity           Complexity
	Transform8x8         bool
	ConstrainedIntraPred bool
	Chroma444            bool
	MBs                  []MBDecision
}

// Report returns the decision report of a.
func (a *Analysis) Report() *Report {
	return &Report{
		Width:                a.Width,
		Height:               a.Height,
		QP:                   a.Options.QP,
		Complexity:           a.Options.Complexity,
		Transform8x8:         a.Options.Transform8x8,
		ConstrainedIntraPred: a.Options.ConstrainedIntraPred,
		Chroma444:            a.Options.Chroma444,
		MBs:                  a.MBs,
	}
}

// MBSize returns the picture size in macroblocks.
func (r *Report) MBSize() (w, h int) {
	return (r.Width + 15) / 16, (r.Height + 15) / 16
}

// MarshalBinary encodes r as Exp-Golomb fields followed by RBSP trailing
// bits. Costs above 2^31-2 are saturated.
func (r *Report) MarshalBinary() ([]byte, error) {
	mbW, mbH := r.MBSize()
	if len(r.MBs) != mbW*mbH {
		return nil, fmt.Errorf("%w: %d decisions for %dx%d macroblocks", ErrBadReport, len(r.MBs), mbW, mbH)
	}
	w := bitio.NewWriter(16 + len(r.MBs)*8)
	w.WriteUE(reportVersion)
	w.WriteUE(uint32(r.Width))
	w.WriteUE(uint32(r.Height))
	w.WriteUE(uint32(r.QP))
	w.WriteUE(uint32(r.Complexity))
	w.WriteFlag(r.Transform8x8)
	w.WriteFlag(r.ConstrainedIntraPred)
	w.WriteFlag(r.Chroma444)
	for i := range r.MBs {
		d := &r.MBs[i]
		w.WriteUE(uint32(d.Type))
		switch d.Type {
		case MBI4:
			for _, m := range d.Modes {
				w.WriteUE(uint32(m))
			}
		case MBI8:
			for b8 := 0; b8 < 4; b8++ {
				w.WriteUE(uint32(d.Modes[(b8>>1)*8+(b8&1)*2]))
			}
		case MBI16:
			w.WriteUE(uint32(d.I16Mode))
		}
		w.WriteUE(uint32(d.CBP))
		w.WriteUE(uint32(min(max(d.Cost, 0), maxReportCost)))
	}
	w.WriteTrailingBits()
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a report written by MarshalBinary.
func (r *Report) UnmarshalBinary(data []byte) error {
	br := bitio.NewReader(data)
	if v := br.ReadUE(); v != reportVersion {
		return fmt.Errorf("%w: version %d", ErrBadReport, v)
	}
	r.Width = int(br.ReadUE())
	r.Height = int(br.ReadUE())
	r.QP = int(br.ReadUE())
	r.Complexity = Complexity(br.ReadUE())
	r.Transform8x8 = br.ReadFlag()
	r.ConstrainedIntraPred = br.ReadFlag()
	r.Chroma444 = br.ReadFlag()
	if br.IsEndOfStream() {
		return fmt.Errorf("%w: truncated header", ErrBadReport)
	}
	if r.Width <= 0 || r.Height <= 0 || r.Width > MaxDimension || r.Height > MaxDimension {
		return fmt.Errorf("%w: picture size %dx%d", ErrBadReport, r.Width, r.Height)
	}
	if r.QP > dsp.MaxQP || r.Complexity > ComplexityHigh {
		return fmt.Errorf("%w: qp %d complexity %d", ErrBadReport, r.QP, r.Complexity)
	}

	// Every macroblock takes at least three bits: type, cbp and cost.
	mbW, mbH := r.MBSize()
	if br.BitsLeft() < 3*mbW*mbH {
		return fmt.Errorf("%w: %d bits left for %d macroblocks", ErrBadReport, br.BitsLeft(), mbW*mbH)
	}
	r.MBs = make([]MBDecision, mbW*mbH)
	for i := range r.MBs {
		d := &r.MBs[i]
		d.Type = MBType(br.ReadUE())
		for j := range d.Modes {
			d.Modes[j] = dsp.PredDC
		}
		switch d.Type {
		case MBI4:
			for j := range d.Modes {
				d.Modes[j] = int(br.ReadUE())
			}
		case MBI8:
			for b8 := 0; b8 < 4; b8++ {
				m := int(br.ReadUE())
				o := (b8>>1)*8 + (b8&1)*2
				d.Modes[o], d.Modes[o+1], d.Modes[o+4], d.Modes[o+5] = m, m, m, m
			}
		case MBI16:
			d.I16Mode = int(br.ReadUE())
			if d.I16Mode >= dsp.NumIntra16Modes {
				return fmt.Errorf("%w: macroblock %d: 16x16 mode %d", ErrBadReport, i, d.I16Mode)
			}
		case MBInter:
		default:
			return fmt.Errorf("%w: macroblock %d: type %d", ErrBadReport, i, d.Type)
		}
		for _, m := range d.Modes {
			if m >= dsp.NumIntraNxNModes {
				return fmt.Errorf("%w: macroblock %d: mode %d", ErrBadReport, i, m)
			}
		}
		d.CBP = int(br.ReadUE())
		d.Cost = int64(br.ReadUE())
		if br.IsEndOfStream() {
			return fmt.Errorf("%w: truncated at macroblock %d", ErrBadReport, i)
		}
		if d.Cost > maxReportCost {
			return fmt.Errorf("%w: macroblock %d: cost %d", ErrBadReport, i, d.Cost)
		}
	}
	return nil
}
