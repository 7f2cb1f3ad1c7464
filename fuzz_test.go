package h264intra

import (
	"bytes"
	"testing"
)

// addStreamSeeds adds streams written by Analyze to the fuzz corpus.
func addStreamSeeds(f *testing.F) {
	f.Helper()
	for _, opts := range []*Options{
		DefaultOptions(),
		{QP: 40, Complexity: ComplexityLow},
		{QP: 18, Complexity: ComplexityMedium, ConstrainedIntraPred: true, Chroma444: true},
	} {
		a, err := Analyze(noisyImage(24, 20, 9), opts)
		if err != nil {
			continue
		}
		if data, err := a.Bytes(); err == nil {
			f.Add(data)
		}
	}
	f.Add([]byte{0, 0, 1, 0, 0, 1, 0x30})
}

// FuzzParseStream checks that no stream can make the parser panic, and that
// a report it accepts encodes again.
func FuzzParseStream(f *testing.F) {
	addStreamSeeds(f)

	f.Fuzz(func(t *testing.T, data []byte) {
		info, err := ParseStream(bytes.NewReader(data))
		if err != nil || info.Report == nil {
			return
		}
		if _, err := info.Report.MarshalBinary(); err != nil {
			t.Fatalf("MarshalBinary of a parsed report: %v", err)
		}
	})
}

// FuzzReportUnmarshal feeds raw report payloads to UnmarshalBinary. An
// accepted report must survive a second round trip unchanged.
func FuzzReportUnmarshal(f *testing.F) {
	for _, opts := range []*Options{
		DefaultOptions(),
		{QP: 33, Complexity: ComplexityLow, Transform8x8: true},
	} {
		a, err := Analyze(noisyImage(32, 16, 3), opts)
		if err != nil {
			continue
		}
		if data, err := a.Report().MarshalBinary(); err == nil {
			f.Add(data)
		}
	}
	f.Add([]byte{})
	f.Add([]byte{0x60})

	f.Fuzz(func(t *testing.T, data []byte) {
		var r Report
		if err := r.UnmarshalBinary(data); err != nil {
			return
		}
		enc, err := r.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		var again Report
		if err := again.UnmarshalBinary(enc); err != nil {
			t.Fatalf("UnmarshalBinary of re-encoded report: %v", err)
		}
		if len(again.MBs) != len(r.MBs) {
			t.Fatalf("len(MBs) = %d after round trip, want %d", len(again.MBs), len(r.MBs))
		}
		for i := range r.MBs {
			if again.MBs[i] != r.MBs[i] {
				t.Fatalf("MB %d = %+v after round trip, want %+v", i, again.MBs[i], r.MBs[i])
			}
		}
	})
}
