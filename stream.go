package h264intra

import (
	"bytes"
	"fmt"
	"io"

	"github.com/deepteams/h264intra/internal/annexb"
)

// UnitInfo describes one NAL unit of a stream.
type UnitInfo struct {
	Type   int
	Name   string
	RefIdc int
	Size   int // escaped payload bytes, header included
}

// StreamInfo is the parsed content of a stream written by WriteTo.
type StreamInfo struct {
	Units []UnitInfo

	Profile      int
	Level        int
	ChromaFormat int
	Width        int
	Height       int

	InitQP               int
	Transform8x8         bool
	ConstrainedIntraPred bool

	// Report is nil when the stream carries no decision report.
	Report *Report
}

// profile returns the profile_idc and chroma_format_idc that can signal
// the tools enabled in opts.
func profile(opts *Options) (int, int) {
	switch {
	case opts.Chroma444:
		return annexb.ProfileHigh444, annexb.Chroma444
	case opts.Transform8x8:
		return annexb.ProfileHigh, annexb.Chroma420
	}
	return annexb.ProfileBaseline, annexb.Chroma420
}

// WriteTo writes a as an Annex B byte stream: SPS, PPS and an SEI message
// holding the decision report. It implements io.WriterTo.
func (a *Analysis) WriteTo(w io.Writer) (int64, error) {
	report, err := a.Report().MarshalBinary()
	if err != nil {
		return 0, err
	}
	prof, chroma := profile(&a.Options)
	sps := &annexb.SPS{
		ProfileIDC:      prof,
		LevelIDC:        a.Options.level(),
		ChromaFormatIDC: chroma,
		Width:           a.Width,
		Height:          a.Height,
	}
	pps := &annexb.PPS{
		InitQP:               a.Options.QP,
		ConstrainedIntraPred: a.Options.ConstrainedIntraPred,
		Transform8x8:         a.Options.Transform8x8,
	}

	aw := annexb.NewWriter(w)
	if _, err := aw.WriteRBSP(annexb.RefHighest, annexb.NALSPS, sps.MarshalRBSP()); err != nil {
		return aw.BytesWritten(), err
	}
	if _, err := aw.WriteRBSP(annexb.RefHighest, annexb.NALPPS, pps.MarshalRBSP()); err != nil {
		return aw.BytesWritten(), err
	}
	sei := annexb.New(annexb.RefDisposable, annexb.NALSEI,
		annexb.MarshalSEI(annexb.UserDataUnregistered(ReportUUID, report)))
	sei.StartCodeLen = annexb.StartCodeShort
	if _, err := aw.WriteNALU(sei); err != nil {
		return aw.BytesWritten(), err
	}
	return aw.BytesWritten(), nil
}

// Bytes returns the Annex B stream of a.
func (a *Analysis) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseStream reads an Annex B stream and decodes its parameter sets and
// decision report. Unknown NAL units and SEI messages are listed and
// skipped.
func ParseStream(r io.Reader) (*StreamInfo, error) {
	units, err := annexb.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("h264intra: %w", err)
	}
	info := &StreamInfo{}
	for i := range units {
		n := &units[i]
		info.Units = append(info.Units, UnitInfo{
			Type:   n.Type,
			Name:   annexb.TypeName(n.Type),
			RefIdc: n.RefIdc,
			Size:   1 + len(n.Payload),
		})
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("h264intra: unit %d: %w", i, err)
		}
		switch n.Type {
		case annexb.NALSPS:
			sps, err := annexb.ParseSPS(n.RBSP())
			if err != nil {
				return nil, fmt.Errorf("h264intra: unit %d: %w", i, err)
			}
			info.Profile = sps.ProfileIDC
			info.Level = sps.LevelIDC
			info.ChromaFormat = sps.ChromaFormatIDC
			info.Width, info.Height = sps.Width, sps.Height
		case annexb.NALPPS:
			pps, err := annexb.ParsePPS(n.RBSP())
			if err != nil {
				return nil, fmt.Errorf("h264intra: unit %d: %w", i, err)
			}
			info.InitQP = pps.InitQP
			info.Transform8x8 = pps.Transform8x8
			info.ConstrainedIntraPred = pps.ConstrainedIntraPred
		case annexb.NALSEI:
			if err := info.parseSEI(n.RBSP()); err != nil {
				return nil, fmt.Errorf("h264intra: unit %d: %w", i, err)
			}
		}
	}
	return info, nil
}

func (info *StreamInfo) parseSEI(rbsp []byte) error {
	msgs, err := annexb.ParseSEI(rbsp)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if m.PayloadType != annexb.SEIUserDataUnregistered {
			continue
		}
		id, data, err := annexb.ParseUserDataUnregistered(m)
		if err != nil {
			return err
		}
		if id != ReportUUID {
			continue
		}
		rep := &Report{}
		if err := rep.UnmarshalBinary(data); err != nil {
			return err
		}
		info.Report = rep
	}
	return nil
}
