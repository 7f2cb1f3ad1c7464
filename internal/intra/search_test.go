package intra

import (
	"math/rand"
	"testing"

	"github.com/deepteams/h264intra/internal/dsp"
)

// --- Helpers ---

func testPicture(w, h int, fill func(p, x, y int) uint8) *Picture {
	pic := &Picture{Width: w, Height: h}
	for p := 0; p < maxPlanes; p++ {
		pic.Planes[p] = make([]uint8, w*h)
		pic.Strides[p] = w
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pic.Planes[p][y*w+x] = fill(p, x, y)
			}
		}
	}
	return pic
}

func randomPicture(w, h int, seed int64) *Picture {
	rng := rand.New(rand.NewSource(seed))
	return testPicture(w, h, func(p, x, y int) uint8 {
		return uint8((x*3+y*5+p*40)&0xff) ^ uint8(rng.Intn(24))
	})
}

func newFrame(t *testing.T, cfg Config, pic *Picture) *FrameContext {
	t.Helper()
	fc, err := NewFrameContext(cfg, pic, nil)
	if err != nil {
		t.Fatalf("NewFrameContext: %v", err)
	}
	t.Cleanup(fc.Release)
	return fc
}

func decideFrame(t *testing.T, fc *FrameContext) {
	t.Helper()
	for !fc.Done() {
		mb, err := fc.Begin(fc.Next())
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		mb.DecideIntra()
		if err := mb.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
}

// modeCoster codes the candidate and returns costs[mode].
type modeCoster struct {
	costs [dsp.NumIntraNxNModes]int64
	seen  []int
}

func (m *modeCoster) Evaluate(c *Candidate) (int64, bool) {
	c.Code()
	m.seen = append(m.seen, c.Mode)
	return m.costs[c.Mode], c.Result.Nonzero
}

// --- 4x4 / 8x8 search ---

func TestDecide4x4PrefersMPMOnTie(t *testing.T) {
	cfg := DefaultConfig(28)
	fc := newFrame(t, cfg, randomPicture(16, 16, 1))
	mb, err := fc.Begin(0)
	if err != nil {
		t.Fatal(err)
	}

	// Block 1 only has its left neighbour: make horizontal the cheapest.
	hor := &modeCoster{}
	for m := range hor.costs {
		hor.costs[m] = 100
	}
	hor.costs[dsp.PredHorizontal] = 10
	fc.SetCoster(hor)
	mb.Decide4x4(0, 0)
	mb.Decide4x4(0, 1)
	if got := mb.Mode(1, 0); got != dsp.PredHorizontal {
		t.Fatalf("block 1 mode = %d, want horizontal", got)
	}

	// Every mode costs the same from now on. Block 2 has no left neighbour
	// so its MPM is DC; block 3 sees horizontal above and DC on the left.
	flat := &modeCoster{}
	fc.SetCoster(flat)
	mb.Decide4x4(0, 2)
	if got := mb.Mode(0, 1); got != dsp.PredDC {
		t.Errorf("block 2 mode = %d, want DC", got)
	}
	flat.seen = nil
	mb.Decide4x4(0, 3)
	if len(flat.seen) != dsp.NumIntraNxNModes {
		t.Errorf("block 3 evaluated %v, want all modes", flat.seen)
	}
	if got := mb.Mode(1, 1); got != dsp.PredHorizontal {
		t.Errorf("block 3 mode = %d, want the MPM (horizontal)", got)
	}
	if got := mb.CodedMode(3); got != -1 {
		t.Errorf("block 3 coded index = %d, want -1", got)
	}
}

func TestDecide4x4SkipsIneligibleModes(t *testing.T) {
	cfg := DefaultConfig(28)
	cfg.DisabledModes4x4 = 1<<dsp.PredVertical | 1<<dsp.PredDiagDownRight
	fc := newFrame(t, cfg, randomPicture(32, 32, 2))
	// Make every disabled or unavailable mode look free.
	c := &modeCoster{}
	fc.SetCoster(c)
	mb, _ := fc.Begin(0)

	mb.Decide4x4(0, 0)
	if len(c.seen) != 1 || c.seen[0] != dsp.PredDC {
		t.Errorf("corner block evaluated %v, want [DC]", c.seen)
	}
	c.seen = nil
	mb.Decide4x4(0, 1)
	for _, m := range c.seen {
		if !dsp.IntraNxNModeAvailable(m, dsp.Avail{Left: true}) {
			t.Errorf("top row block evaluated mode %d without upper references", m)
		}
	}
	c.seen = nil
	mb.Decide4x4(0, 3)
	for _, m := range c.seen {
		if m == dsp.PredVertical || m == dsp.PredDiagDownRight {
			t.Errorf("disabled mode %d evaluated", m)
		}
	}
	if len(c.seen) != dsp.NumIntraNxNModes-2 {
		t.Errorf("inner block evaluated %v, want 7 modes", c.seen)
	}
}

func TestCommittedModesEligible(t *testing.T) {
	disabled := uint16(1<<dsp.PredHorizontalUp | 1<<dsp.PredVerticalLeft)
	for _, cx := range []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh} {
		t.Run(cx.String(), func(t *testing.T) {
			cfg := DefaultConfig(30)
			cfg.Complexity = cx
			cfg.DisabledModes4x4 = disabled
			fc := newFrame(t, cfg, randomPicture(48, 32, 3))
			decideFrame(t, fc)

			mbW, mbH := fc.MBSize()
			for by := 0; by < mbH*4; by++ {
				for bx := 0; bx < mbW*4; bx++ {
					info := fc.MBInfo((by>>2)*mbW + bx>>2)
					if info.Type != MBI4 && info.Type != MBI8 {
						continue
					}
					// For I8 only the top-left cell of each 8x8 block
					// describes its references.
					if info.Type == MBI8 && (bx&1 != 0 || by&1 != 0) {
						continue
					}
					m := fc.Mode4x4(bx, by)
					if disabled&(1<<uint(m)) != 0 {
						t.Errorf("block (%d,%d): disabled mode %d committed", bx, by, m)
					}
					a := dsp.Avail{Left: bx > 0, Up: by > 0, UpLeft: bx > 0 && by > 0}
					if !dsp.IntraNxNModeAvailable(m, a) {
						t.Errorf("block (%d,%d): mode %d committed without its references", bx, by, m)
					}
				}
			}
		})
	}
}

func TestDecide8x8BroadcastsMode(t *testing.T) {
	cfg := DefaultConfig(28)
	fc := newFrame(t, cfg, randomPicture(16, 16, 4))
	mb, _ := fc.Begin(0)
	c := &modeCoster{}
	for m := range c.costs {
		c.costs[m] = 50
	}
	c.costs[dsp.PredVertical] = 1
	fc.SetCoster(c)

	mb.Decide8x8(0)
	mb.Decide8x8(1)
	// Block 1 has no upper references, so vertical is not eligible.
	for _, cell := range [][2]int{{2, 0}, {3, 0}, {2, 1}, {3, 1}} {
		if got := mb.Mode(cell[0], cell[1]); got != dsp.PredHorizontal && got != dsp.PredDC && got != dsp.PredHorizontalUp {
			t.Errorf("cell %v mode = %d, want a left-only mode", cell, got)
		}
	}
	mb.Decide8x8(2)
	for _, cell := range [][2]int{{0, 2}, {1, 2}, {0, 3}, {1, 3}} {
		if got := mb.Mode(cell[0], cell[1]); got != dsp.PredVertical {
			t.Errorf("cell %v mode = %d, want vertical", cell, got)
		}
	}
}

// --- Macroblock aggregation ---

func TestDecideNxNComponentCBP(t *testing.T) {
	tests := []struct {
		name    string
		nz      [4][maxPlanes]bool
		wantCBP int
		wantCmp [maxPlanes]int
	}{
		{
			name:    "luma only",
			nz:      [4][maxPlanes]bool{{true}, {}, {}, {true}},
			wantCBP: 9,
			wantCmp: [maxPlanes]int{9, 0, 0},
		},
		{
			name:    "cb in region 0 saturates",
			nz:      [4][maxPlanes]bool{{false, true}, {}, {true}, {}},
			wantCBP: 5,
			wantCmp: [maxPlanes]int{5, 1, 1},
		},
		{
			name:    "cb then cr",
			nz:      [4][maxPlanes]bool{{false, true}, {true}, {}, {false, false, true}},
			wantCBP: 11,
			wantCmp: [maxPlanes]int{11, 11, 11},
		},
		{
			name:    "both in one region",
			nz:      [4][maxPlanes]bool{{}, {true, true, true}, {}, {}},
			wantCBP: 2,
			wantCmp: [maxPlanes]int{2, 2, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFrame(t, DefaultConfig(28), randomPicture(16, 16, 5))
			mb, _ := fc.Begin(0)
			var costs []int64
			cbp, cost := mb.decideNxN(MBI4, func(b8 int) ([maxPlanes]bool, int64) {
				costs = append(costs, int64(b8+1))
				if b8 > 0 && mb.cur.cmpCBP[1] != 0 {
					// Once set, chroma bits never clear.
					for prev := 0; prev < b8; prev++ {
						if tt.nz[prev][1] && mb.cur.cmpCBP[1]&(1<<prev) == 0 {
							t.Errorf("region %d: cb bit %d cleared", b8, prev)
						}
					}
				}
				return tt.nz[b8], int64(b8 + 1)
			})
			if cbp != tt.wantCBP {
				t.Errorf("cbp = %d, want %d", cbp, tt.wantCBP)
			}
			if cost != 10 || len(costs) != 4 {
				t.Errorf("cost = %d over %d regions, want 10 over 4", cost, len(costs))
			}
			for p := range tt.wantCmp {
				if got := mb.ComponentCBP(p); got != tt.wantCmp[p] {
					t.Errorf("ComponentCBP(%d) = %d, want %d", p, got, tt.wantCmp[p])
				}
			}
		})
	}
}

func TestSubMacroblockCostIncludesSignalling(t *testing.T) {
	cfg := DefaultConfig(28)
	fc := newFrame(t, cfg, randomPicture(16, 16, 6))
	mb, _ := fc.Begin(0)
	c := &modeCoster{}
	for m := range c.costs {
		c.costs[m] = 7
	}
	fc.SetCoster(c)
	_, cost := mb.DecideIntraSubMacroblock(0)
	want := WeightedCost(fc.Lambda(), 6) + 4*7
	if cost != want {
		t.Errorf("cost = %d, want %d", cost, want)
	}
}

func TestChroma444CBP(t *testing.T) {
	// Flat luma, textured Cb: every non-zero level is in a chroma plane.
	pic := testPicture(16, 16, func(p, x, y int) uint8 {
		if p == 1 {
			return uint8((x*37 + y*91) & 0xff)
		}
		return 128
	})
	cfg := DefaultConfig(20)
	cfg.Chroma444 = true
	fc := newFrame(t, cfg, pic)
	mb, _ := fc.Begin(0)
	cbp, _ := mb.DecideIntra4x4Macroblock()
	if cbp == 0 {
		t.Fatal("cbp = 0, want chroma residual to set bits")
	}
	for b8 := 0; b8 < 4; b8++ {
		if mb.ComponentCBP(1)&(1<<b8) != 0 && cbp&(1<<b8) == 0 {
			t.Errorf("cb bit %d not in cbp %d", b8, cbp)
		}
	}
	for blk := 0; blk < 16; blk++ {
		if l := mb.Levels4x4(0, blk); l != [16]int{} {
			t.Errorf("luma block %d has levels %v", blk, l)
		}
	}
}
