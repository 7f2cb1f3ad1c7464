package annexb

import (
	"errors"
	"fmt"

	"github.com/deepteams/h264intra/internal/bitio"
)

// profile_idc values.
const (
	ProfileBaseline = 66
	ProfileMain     = 77
	ProfileHigh     = 100
	ProfileHigh444  = 244
)

// Chroma formats.
const (
	Chroma420 = 1
	Chroma444 = 3
)

var errBadParams = errors.New("annexb: malformed parameter set")

// SPS holds the sequence parameter set fields the analyser writes.
type SPS struct {
	ID              int
	ProfileIDC      int
	LevelIDC        int
	ChromaFormatIDC int
	Width, Height   int // luma samples
}

// WidthMBs returns the picture width in macroblocks.
func (s *SPS) WidthMBs() int { return (s.Width + 15) / 16 }

// HeightMBs returns the picture height in macroblocks.
func (s *SPS) HeightMBs() int { return (s.Height + 15) / 16 }

func (s *SPS) highProfile() bool {
	switch s.ProfileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	}
	return false
}

// cropUnits returns the horizontal and vertical crop units in luma samples.
func (s *SPS) cropUnits() (int, int) {
	if s.ChromaFormatIDC == Chroma444 {
		return 1, 1
	}
	return 2, 2
}

// MarshalRBSP encodes the SPS as an RBSP with trailing bits.
func (s *SPS) MarshalRBSP() []byte {
	w := bitio.NewWriter(32)
	w.WriteBits(uint32(s.ProfileIDC), 8)
	var constraints uint32
	if s.ProfileIDC == ProfileBaseline {
		constraints = 0xC0 // constraint_set0_flag | constraint_set1_flag
	}
	w.WriteBits(constraints, 8)
	w.WriteBits(uint32(s.LevelIDC), 8)
	w.WriteUE(uint32(s.ID))
	if s.highProfile() {
		w.WriteUE(uint32(s.ChromaFormatIDC))
		if s.ChromaFormatIDC == Chroma444 {
			w.WriteFlag(false) // separate_colour_plane_flag
		}
		w.WriteUE(0)       // bit_depth_luma_minus8
		w.WriteUE(0)       // bit_depth_chroma_minus8
		w.WriteFlag(false) // qpprime_y_zero_transform_bypass_flag
		w.WriteFlag(false) // seq_scaling_matrix_present_flag
	}
	w.WriteUE(0)       // log2_max_frame_num_minus4
	w.WriteUE(2)       // pic_order_cnt_type
	w.WriteUE(0)       // max_num_ref_frames
	w.WriteFlag(false) // gaps_in_frame_num_value_allowed_flag
	w.WriteUE(uint32(s.WidthMBs() - 1))
	w.WriteUE(uint32(s.HeightMBs() - 1))
	w.WriteFlag(true) // frame_mbs_only_flag
	w.WriteFlag(true) // direct_8x8_inference_flag
	cx, cy := s.cropUnits()
	cropRight := (s.WidthMBs()*16 - s.Width) / cx
	cropBottom := (s.HeightMBs()*16 - s.Height) / cy
	if cropRight > 0 || cropBottom > 0 {
		w.WriteFlag(true)
		w.WriteUE(0)
		w.WriteUE(uint32(cropRight))
		w.WriteUE(0)
		w.WriteUE(uint32(cropBottom))
	} else {
		w.WriteFlag(false)
	}
	w.WriteFlag(false) // vui_parameters_present_flag
	w.WriteTrailingBits()
	return w.Bytes()
}

// ParseSPS decodes an SPS RBSP written by MarshalRBSP. Streams that use
// scaling matrices, frame_num/POC types other than 2, or VUI are rejected.
func ParseSPS(rbsp []byte) (*SPS, error) {
	r := bitio.NewReader(rbsp)
	s := &SPS{}
	s.ProfileIDC = int(r.ReadBits(8))
	r.ReadBits(8)
	s.LevelIDC = int(r.ReadBits(8))
	s.ID = int(r.ReadUE())
	s.ChromaFormatIDC = Chroma420
	if s.highProfile() {
		s.ChromaFormatIDC = int(r.ReadUE())
		if s.ChromaFormatIDC == Chroma444 {
			r.ReadFlag()
		}
		r.ReadUE()
		r.ReadUE()
		r.ReadFlag()
		if r.ReadFlag() {
			return nil, fmt.Errorf("%w: scaling matrices not supported", errBadParams)
		}
	}
	r.ReadUE()
	if poc := r.ReadUE(); poc != 2 {
		return nil, fmt.Errorf("%w: pic_order_cnt_type %d", errBadParams, poc)
	}
	r.ReadUE()
	r.ReadFlag()
	wMBs := int(r.ReadUE()) + 1
	hMBs := int(r.ReadUE()) + 1
	if !r.ReadFlag() {
		return nil, fmt.Errorf("%w: field coding not supported", errBadParams)
	}
	r.ReadFlag()
	s.Width, s.Height = wMBs*16, hMBs*16
	if r.ReadFlag() {
		cx, cy := s.cropUnits()
		left, right := int(r.ReadUE()), int(r.ReadUE())
		top, bottom := int(r.ReadUE()), int(r.ReadUE())
		s.Width -= (left + right) * cx
		s.Height -= (top + bottom) * cy
	}
	if r.ReadFlag() {
		return nil, fmt.Errorf("%w: VUI not supported", errBadParams)
	}
	if r.IsEndOfStream() {
		return nil, fmt.Errorf("%w: truncated SPS", errBadParams)
	}
	return s, nil
}

// PPS holds the picture parameter set fields the analyser writes.
type PPS struct {
	ID                   int
	SPSID                int
	CABAC                bool
	InitQP               int
	ConstrainedIntraPred bool
	Transform8x8         bool
}

// MarshalRBSP encodes the PPS as an RBSP with trailing bits.
func (p *PPS) MarshalRBSP() []byte {
	w := bitio.NewWriter(16)
	w.WriteUE(uint32(p.ID))
	w.WriteUE(uint32(p.SPSID))
	w.WriteFlag(p.CABAC)
	w.WriteFlag(false) // bottom_field_pic_order_in_frame_present_flag
	w.WriteUE(0)       // num_slice_groups_minus1
	w.WriteUE(0)       // num_ref_idx_l0_default_active_minus1
	w.WriteUE(0)       // num_ref_idx_l1_default_active_minus1
	w.WriteFlag(false) // weighted_pred_flag
	w.WriteBits(0, 2)  // weighted_bipred_idc
	w.WriteSE(int32(p.InitQP - 26))
	w.WriteSE(0)      // pic_init_qs_minus26
	w.WriteSE(0)      // chroma_qp_index_offset
	w.WriteFlag(true) // deblocking_filter_control_present_flag
	w.WriteFlag(p.ConstrainedIntraPred)
	w.WriteFlag(false) // redundant_pic_cnt_present_flag
	if p.Transform8x8 {
		w.WriteFlag(true)
		w.WriteFlag(false) // pic_scaling_matrix_present_flag
		w.WriteSE(0)       // second_chroma_qp_index_offset
	}
	w.WriteTrailingBits()
	return w.Bytes()
}

// ParsePPS decodes a PPS RBSP written by MarshalRBSP.
func ParsePPS(rbsp []byte) (*PPS, error) {
	r := bitio.NewReader(rbsp)
	p := &PPS{}
	p.ID = int(r.ReadUE())
	p.SPSID = int(r.ReadUE())
	p.CABAC = r.ReadFlag()
	r.ReadFlag()
	if n := r.ReadUE(); n != 0 {
		return nil, fmt.Errorf("%w: %d slice groups", errBadParams, n+1)
	}
	r.ReadUE()
	r.ReadUE()
	r.ReadFlag()
	r.ReadBits(2)
	p.InitQP = int(r.ReadSE()) + 26
	r.ReadSE()
	r.ReadSE()
	r.ReadFlag()
	p.ConstrainedIntraPred = r.ReadFlag()
	r.ReadFlag()
	if r.IsEndOfStream() {
		return nil, fmt.Errorf("%w: truncated PPS", errBadParams)
	}
	if r.MoreRBSPData() {
		p.Transform8x8 = r.ReadFlag()
	}
	return p, nil
}
