package h264intra

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deepteams/h264intra/internal/annexb"
	"github.com/deepteams/h264intra/internal/bitio"
)

// --- Decision report ---

func TestReportRoundTrip(t *testing.T) {
	for _, opts := range []*Options{
		DefaultOptions(),
		{QP: 35, Complexity: ComplexityLow, ConstrainedIntraPred: true},
		{QP: 20, Complexity: ComplexityMedium, Transform8x8: true, Chroma444: true},
	} {
		a := mustAnalyze(t, noisyImage(40, 40, 4), opts)
		data, err := a.Report().MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		var got Report
		if err := got.UnmarshalBinary(data); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		want := a.Report()
		if got.Width != want.Width || got.Height != want.Height || got.QP != want.QP ||
			got.Complexity != want.Complexity || got.Transform8x8 != want.Transform8x8 ||
			got.ConstrainedIntraPred != want.ConstrainedIntraPred || got.Chroma444 != want.Chroma444 {
			t.Errorf("header = %+v, want %+v", got, want)
		}
		if len(got.MBs) != len(want.MBs) {
			t.Fatalf("len(MBs) = %d, want %d", len(got.MBs), len(want.MBs))
		}
		for i := range want.MBs {
			if got.MBs[i] != want.MBs[i] {
				t.Errorf("MB %d = %+v, want %+v", i, got.MBs[i], want.MBs[i])
			}
		}
	}
}

// rawReport writes a report header for a w x h picture followed by the
// given ue fields.
func rawReport(w, h int, fields ...uint32) []byte {
	bw := bitio.NewWriter(32)
	for _, v := range []uint32{reportVersion, uint32(w), uint32(h), 28, uint32(ComplexityHigh)} {
		bw.WriteUE(v)
	}
	bw.WriteBits(0, 3)
	for _, v := range fields {
		bw.WriteUE(v)
	}
	bw.WriteTrailingBits()
	return bw.Bytes()
}

func TestReportMalformed(t *testing.T) {
	a := mustAnalyze(t, gradientImage(32, 16), nil)
	data, err := a.Report().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", data[:len(data)/2]},
		{"version", []byte{0x60}}, // ue(2)
		{"no room for macroblocks", rawReport(MaxDimension, MaxDimension)},
		{"cost above saturation", rawReport(16, 16, uint32(MBI16), 0, 0, maxReportCost+1)},
		{"16x16 mode", rawReport(16, 16, uint32(MBI16), 4, 0, 0)},
	}
	for _, tt := range tests {
		var r Report
		if err := r.UnmarshalBinary(tt.data); !errors.Is(err, ErrBadReport) {
			t.Errorf("%s: UnmarshalBinary = %v, want ErrBadReport", tt.name, err)
		}
	}

	bad := a.Report()
	bad.MBs = bad.MBs[:1]
	if _, err := bad.MarshalBinary(); !errors.Is(err, ErrBadReport) {
		t.Errorf("MarshalBinary with missing decisions = %v, want ErrBadReport", err)
	}
}

func TestReportSaturatesCost(t *testing.T) {
	r := &Report{Width: 16, Height: 16, QP: 28, MBs: []MBDecision{{Type: MBI16, Cost: 1 << 40}}}
	data, err := r.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if got.MBs[0].Cost != maxReportCost {
		t.Errorf("Cost = %d, want %d", got.MBs[0].Cost, maxReportCost)
	}
}

// --- Annex B stream ---

func TestStreamRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstrainedIntraPred = true
	opts.QP = 31
	a := mustAnalyze(t, noisyImage(40, 24, 5), opts)
	data, err := a.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0, 0, 0, 1, 0x67}) {
		t.Errorf("stream starts with % x, want an SPS behind a 4-byte start code", data[:5])
	}

	info, err := ParseStream(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseStream: %v", err)
	}
	wantUnits := []int{annexb.NALSPS, annexb.NALPPS, annexb.NALSEI}
	if len(info.Units) != len(wantUnits) {
		t.Fatalf("units = %+v, want SPS PPS SEI", info.Units)
	}
	for i, typ := range wantUnits {
		if info.Units[i].Type != typ {
			t.Errorf("unit %d type = %d, want %d", i, info.Units[i].Type, typ)
		}
	}
	if info.Width != 40 || info.Height != 24 {
		t.Errorf("SPS size = %dx%d, want 40x24", info.Width, info.Height)
	}
	if info.Profile != annexb.ProfileHigh || info.Level != DefaultLevel {
		t.Errorf("profile/level = %d/%d, want %d/%d", info.Profile, info.Level, annexb.ProfileHigh, DefaultLevel)
	}
	if info.InitQP != 31 || !info.Transform8x8 || !info.ConstrainedIntraPred {
		t.Errorf("PPS = qp %d, 8x8 %v, constrained %v", info.InitQP, info.Transform8x8, info.ConstrainedIntraPred)
	}
	if info.Report == nil {
		t.Fatal("no decision report")
	}
	for i, d := range a.MBs {
		if info.Report.MBs[i] != d {
			t.Errorf("MB %d = %+v, want %+v", i, info.Report.MBs[i], d)
		}
	}
}

func TestStreamProfile(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantProf   int
		wantChroma int
	}{
		{"baseline", Options{QP: 28}, annexb.ProfileBaseline, annexb.Chroma420},
		{"high", Options{QP: 28, Transform8x8: true}, annexb.ProfileHigh, annexb.Chroma420},
		{"high444", Options{QP: 28, Chroma444: true}, annexb.ProfileHigh444, annexb.Chroma444},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustAnalyze(t, gradientImage(16, 16), &tt.opts)
			var buf bytes.Buffer
			n, err := a.WriteTo(&buf)
			if err != nil {
				t.Fatalf("WriteTo: %v", err)
			}
			if n != int64(buf.Len()) {
				t.Errorf("WriteTo = %d, wrote %d bytes", n, buf.Len())
			}
			info, err := ParseStream(&buf)
			if err != nil {
				t.Fatalf("ParseStream: %v", err)
			}
			if info.Profile != tt.wantProf || info.ChromaFormat != tt.wantChroma {
				t.Errorf("profile/chroma = %d/%d, want %d/%d", info.Profile, info.ChromaFormat, tt.wantProf, tt.wantChroma)
			}
		})
	}
}

type failWriter struct{ after int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestWriteToError(t *testing.T) {
	a := mustAnalyze(t, gradientImage(16, 16), nil)
	for after := 0; after < 3; after++ {
		if _, err := a.WriteTo(&failWriter{after: after}); err == nil {
			t.Errorf("WriteTo failing after %d units: err = nil", after)
		}
	}
}

func TestParseStreamErrors(t *testing.T) {
	if _, err := ParseStream(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Error("ParseStream accepted a stream without start codes")
	}
	// An SPS with a truncated body.
	if _, err := ParseStream(bytes.NewReader([]byte{0, 0, 0, 1, 0x67, 0x42})); err == nil {
		t.Error("ParseStream accepted a truncated SPS")
	}
	// Back-to-back start codes.
	if _, err := ParseStream(bytes.NewReader([]byte{0, 0, 1, 0, 0, 1, 0x30})); !errors.Is(err, annexb.ErrTruncated) {
		t.Errorf("empty unit: err = %v, want ErrTruncated", err)
	}
}
