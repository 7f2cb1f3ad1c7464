package dsp

import (
	"math/rand"
	"testing"
)

func randBlock4(rng *rand.Rand, span int) Block4 {
	var b Block4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			b[i][j] = rng.Intn(2*span+1) - span
		}
	}
	return b
}

func TestZeroBlockFixedPoint(t *testing.T) {
	var b Block4
	ForwardTransform4x4(&b)
	if b != (Block4{}) {
		t.Errorf("ForwardTransform4x4(0) = %v, want zero", b)
	}
	HadamardTransform4x4(&b)
	if b != (Block4{}) {
		t.Errorf("HadamardTransform4x4(0) = %v, want zero", b)
	}
	var b8 Block8
	ForwardTransform8x8(&b8)
	if b8 != (Block8{}) {
		t.Errorf("ForwardTransform8x8(0) not zero")
	}
}

func TestForwardTransform4x4Constant(t *testing.T) {
	var b Block4
	for i := range b {
		for j := range b[i] {
			b[i][j] = 5
		}
	}
	ForwardTransform4x4(&b)
	want := Block4{{80}}
	if b != want {
		t.Errorf("got %v, want %v", b, want)
	}
}

// Matrix reference for the core transform: Cf * X * Cf^T.
func TestForwardTransform4x4MatchesMatrix(t *testing.T) {
	cf := [4][4]int{
		{1, 1, 1, 1},
		{2, 1, -1, -2},
		{1, -1, -1, 1},
		{1, -2, 2, -1},
	}
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		x := randBlock4(rng, 255)
		var tmp, want Block4
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				for k := 0; k < 4; k++ {
					tmp[i][j] += cf[i][k] * x[k][j]
				}
			}
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				for k := 0; k < 4; k++ {
					want[i][j] += tmp[i][k] * cf[j][k]
				}
			}
		}
		got := x
		ForwardTransform4x4(&got)
		if got != want {
			t.Fatalf("iter %d: got %v, want %v", iter, got, want)
		}
	}
}

// The Hadamard halving is exact whenever the block sum is even, so two
// applications reproduce 4*X bit for bit.
func TestHadamardSelfInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 1000; iter++ {
		x := randBlock4(rng, 64)
		sum := 0
		for i := range x {
			for j := range x[i] {
				sum += x[i][j]
			}
		}
		if sum%2 != 0 {
			x[0][0]++
		}
		b := x
		HadamardTransform4x4(&b)
		HadamardTransform4x4(&b)
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if b[i][j]/4 != x[i][j] || b[i][j]%4 != 0 {
					t.Fatalf("iter %d: round trip [%d][%d] = %d, want %d", iter, i, j, b[i][j], 4*x[i][j])
				}
			}
		}
	}
}

func TestInverseTransform4x4ConstantRoundTrip(t *testing.T) {
	var offsets RoundingOffsets4
	offsets.Fill(IntraRounding)
	for c := -40; c <= 40; c++ {
		var b Block4
		for i := range b {
			for j := range b[i] {
				b[i][j] = c
			}
		}
		ForwardTransform4x4(&b)
		var levels [16]int
		QuantizeCoeffs4x4(&b, 0, &offsets, 0, &levels, nil)
		DequantCoeffs4x4(&levels, 0, 0, &b)
		InverseTransform4x4(&b)
		for i := range b {
			for j := range b[i] {
				if b[i][j] != c {
					t.Fatalf("c=%d: recon[%d][%d] = %d", c, i, j, b[i][j])
				}
			}
		}
	}
}

func TestInverseTransform8x8ConstantRoundTrip(t *testing.T) {
	var offsets RoundingOffsets8
	offsets.Fill(IntraRounding)
	for c := -40; c <= 40; c++ {
		var b Block8
		for i := range b {
			for j := range b[i] {
				b[i][j] = c
			}
		}
		ForwardTransform8x8(&b)
		if b[0][0] != 64*c {
			t.Fatalf("c=%d: DC = %d, want %d", c, b[0][0], 64*c)
		}
		var levels [64]int
		QuantizeCoeffs8x8(&b, 0, &offsets, &levels, nil)
		DequantCoeffs8x8(&levels, 0, &b)
		InverseTransform8x8(&b)
		for i := range b {
			for j := range b[i] {
				if b[i][j] != c {
					t.Fatalf("c=%d: recon[%d][%d] = %d", c, i, j, b[i][j])
				}
			}
		}
	}
}

func TestHadamardDCRoundTripZero(t *testing.T) {
	var levels [16]int
	var b Block4
	DequantDC(&levels, 28, &b)
	if b != (Block4{}) {
		t.Errorf("DequantDC(0) = %v, want zero", b)
	}
}

func BenchmarkForwardTransform4x4(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	blk := randBlock4(rng, 255)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		x := blk
		ForwardTransform4x4(&x)
	}
}
