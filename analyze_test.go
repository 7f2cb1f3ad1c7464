package h264intra

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// --- Helpers ---

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 7), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func noisyImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := gradientImage(w, h)
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			img.Pix[i+c] ^= uint8(rng.Intn(40))
		}
	}
	return img
}

func mustAnalyze(t *testing.T, img image.Image, opts *Options) *Analysis {
	t.Helper()
	a, err := Analyze(img, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

// --- Analyze ---

func TestAnalyzeGeometry(t *testing.T) {
	a := mustAnalyze(t, gradientImage(40, 24), nil)
	if a.Width != 40 || a.Height != 24 {
		t.Errorf("size = %dx%d, want 40x24", a.Width, a.Height)
	}
	if a.MBWidth != 3 || a.MBHeight != 2 {
		t.Errorf("MB size = %dx%d, want 3x2", a.MBWidth, a.MBHeight)
	}
	if len(a.MBs) != 6 {
		t.Fatalf("len(MBs) = %d, want 6", len(a.MBs))
	}
	total := 0
	for _, n := range a.Stats.MBTypes {
		total += n
	}
	if total != 6 {
		t.Errorf("Stats.MBTypes sums to %d, want 6", total)
	}
	for i, d := range a.MBs {
		if !d.Type.IsIntra() {
			t.Errorf("MB %d type = %v, want intra", i, d.Type)
		}
		if d.CBP < 0 || d.CBP > 15 {
			t.Errorf("MB %d cbp = %d, want luma-only pattern", i, d.CBP)
		}
	}
	if a.PSNR[1] != 0 || a.PSNR[2] != 0 {
		t.Errorf("chroma PSNR = %v, want unset without 4:4:4", a.PSNR)
	}
	if a.SSIM[0] <= 0.5 || a.SSIM[0] > 1 || a.SSIM[1] != 0 {
		t.Errorf("SSIM = %v, want luma in (0.5, 1] and no chroma", a.SSIM)
	}
}

func TestAnalyzeFlatImageQuality(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 90, 90, 90, 255
	}
	a := mustAnalyze(t, img, nil)
	if a.PSNR[0] < 35 {
		t.Errorf("PSNR = %.2f dB, want >= 35", a.PSNR[0])
	}
}

func TestAnalyzeComplexities(t *testing.T) {
	img := noisyImage(48, 32, 1)
	for _, cx := range []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh} {
		t.Run(cx.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Complexity = cx
			a := mustAnalyze(t, img, opts)
			if len(a.MBs) != 6 {
				t.Fatalf("len(MBs) = %d, want 6", len(a.MBs))
			}
			if a.PSNR[0] < 25 {
				t.Errorf("PSNR = %.2f dB, want >= 25 at qp 28", a.PSNR[0])
			}
		})
	}
}

func TestAnalyzeDisabledModes(t *testing.T) {
	opts := DefaultOptions()
	opts.DisabledModes = []int{0, 1}
	a := mustAnalyze(t, noisyImage(32, 32, 2), opts)
	for i, d := range a.MBs {
		if d.Type != MBI4 && d.Type != MBI8 {
			continue
		}
		for j, m := range d.Modes {
			if m == 0 || m == 1 {
				t.Errorf("MB %d block %d uses disabled mode %d", i, j, m)
			}
		}
	}
	if len(opts.DisabledModes) != 2 || &a.Options.DisabledModes[0] == &opts.DisabledModes[0] {
		t.Error("Analysis.Options shares DisabledModes with the caller")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Options)
	}{
		{"qp high", func(o *Options) { o.QP = 52 }},
		{"qp low", func(o *Options) { o.QP = -1 }},
		{"disable DC", func(o *Options) { o.DisabledModes = []int{2} }},
		{"bad mode", func(o *Options) { o.DisabledModes = []int{9} }},
		{"lambda", func(o *Options) { o.Lambda = -1 }},
		{"level", func(o *Options) { o.Level = 300 }},
		{"weight", func(o *Options) { o.AdaptRndWeight = 65 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.edit(opts)
			if _, err := Analyze(gradientImage(16, 16), opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Analyze = %v, want ErrInvalidOptions", err)
			}
		})
	}

	if _, err := Analyze(image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: err = %v, want ErrEmptyImage", err)
	}
}

func TestOptionsConfig(t *testing.T) {
	tests := []struct {
		lambda float64
		want   int64
	}{
		{0, 0},
		{2.5, 40},
		{0.01, 1},
		{34.25, 548},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Lambda = tt.lambda
		cfg, err := opts.config()
		if err != nil {
			t.Fatalf("config(lambda %v): %v", tt.lambda, err)
		}
		if cfg.Lambda != tt.want {
			t.Errorf("lambda %v: Config.Lambda = %d, want %d", tt.lambda, cfg.Lambda, tt.want)
		}
	}

	opts := DefaultOptions()
	opts.DisabledModes = []int{0, 8}
	opts.AdaptRndWeight = 0
	cfg, err := opts.config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DisabledModes4x4 != 1|1<<8 {
		t.Errorf("DisabledModes4x4 = %#x, want 0x101", cfg.DisabledModes4x4)
	}
	if cfg.AdaptRndWeight == 0 {
		t.Error("AdaptRndWeight 0 not replaced by the default")
	}
	if opts.level() != DefaultLevel {
		t.Errorf("level() = %d, want %d", opts.level(), DefaultLevel)
	}
}

func TestImportImageFormats(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	nrgba := image.NewNRGBA(gray.Bounds())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(x*30 + y)
			gray.SetGray(x, y, color.Gray{Y: v})
			nrgba.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	paletted := image.NewPaletted(gray.Bounds(), color.Palette{color.Black, color.White})
	paletted.SetColorIndex(3, 3, 1)

	a := importImage(gray, false)
	b := importImage(nrgba, false)
	if !bytes.Equal(a.Planes[0], b.Planes[0]) {
		t.Error("gray and NRGBA imports differ")
	}
	if a.Planes[1] != nil {
		t.Error("chroma planes allocated without 4:4:4")
	}
	p := importImage(paletted, true)
	if p.Planes[0][3*8+3] != 235 || p.Planes[0][0] != 16 {
		t.Errorf("paletted luma = %d/%d, want 235/16", p.Planes[0][3*8+3], p.Planes[0][0])
	}
	if p.Planes[1][0] != 128 || p.Planes[2][0] != 128 {
		t.Errorf("black chroma = %d,%d, want 128,128", p.Planes[1][0], p.Planes[2][0])
	}
}

func TestImportImageOffsetBounds(t *testing.T) {
	img := gradientImage(32, 32)
	sub := img.SubImage(image.Rect(16, 16, 32, 32))
	pic := importImage(sub, false)
	if pic.Width != 16 || pic.Height != 16 {
		t.Fatalf("size = %dx%d, want 16x16", pic.Width, pic.Height)
	}
	full := importImage(img, false)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got, want := pic.Planes[0][y*16+x], full.Planes[0][(y+16)*32+x+16]; got != want {
				t.Fatalf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestReconImage(t *testing.T) {
	opts := DefaultOptions()
	opts.Chroma444 = true
	a := mustAnalyze(t, gradientImage(24, 20), opts)
	rec := a.ReconImage()
	if rec.Bounds() != image.Rect(0, 0, 24, 20) {
		t.Fatalf("bounds = %v", rec.Bounds())
	}
	for i := 3; i < len(rec.Pix); i += 4 {
		if rec.Pix[i] != 0xff {
			t.Fatalf("alpha at %d = %d, want 255", i/4, rec.Pix[i])
		}
	}
	for p, v := range a.PSNR {
		if v < 30 {
			t.Errorf("PSNR[%d] = %.2f, want >= 30", p, v)
		}
	}
}

func TestGetPSNR(t *testing.T) {
	if got := getPSNR(0, 100); got != 99 {
		t.Errorf("getPSNR(0, 100) = %v, want 99", got)
	}
	// mse 1 per sample: 10*log10(65025) = 48.13.
	if got := getPSNR(256, 256); got < 48.1 || got > 48.2 {
		t.Errorf("getPSNR(256, 256) = %v, want ~48.13", got)
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradientImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	img, format, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 8 {
		t.Errorf("got %s %v, want png 8x8", format, img.Bounds())
	}
	if _, _, err := DecodeImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("DecodeImage accepted garbage")
	}
}

func BenchmarkAnalyze(b *testing.B) {
	img := noisyImage(128, 128, 9)
	opts := DefaultOptions()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Analyze(img, opts); err != nil {
			b.Fatal(err)
		}
	}
}
