package dsp

// Integer transforms of the H.264 intra coding path. All kernels work in
// place on Block4/Block8, use only additions, subtractions and shifts, and
// are bit-exact with the reference decoder.

// ForwardTransform4x4 applies the 4-point core transform to the columns and
// then the rows of b. Output b[i][j] holds vertical frequency i and
// horizontal frequency j.
func ForwardTransform4x4(b *Block4) {
	for j := 0; j < 4; j++ {
		s03 := b[0][j] + b[3][j]
		s12 := b[1][j] + b[2][j]
		d03 := b[0][j] - b[3][j]
		d12 := b[1][j] - b[2][j]
		b[0][j] = s03 + s12
		b[1][j] = 2*d03 + d12
		b[2][j] = s03 - s12
		b[3][j] = d03 - 2*d12
	}
	for i := 0; i < 4; i++ {
		r := &b[i]
		s03 := r[0] + r[3]
		s12 := r[1] + r[2]
		d03 := r[0] - r[3]
		d12 := r[1] - r[2]
		r[0] = s03 + s12
		r[1] = 2*d03 + d12
		r[2] = s03 - s12
		r[3] = d03 - 2*d12
	}
}

// InverseTransform4x4 applies the 4-point inverse core transform to the rows
// and then the columns of b, followed by the (x+32)>>6 normalisation. The
// input must already be dequantised.
func InverseTransform4x4(b *Block4) {
	for i := 0; i < 4; i++ {
		r := &b[i]
		e := r[0] + r[2]
		f := r[0] - r[2]
		g := (r[1] >> 1) - r[3]
		h := r[1] + (r[3] >> 1)
		r[0] = e + h
		r[1] = f + g
		r[2] = f - g
		r[3] = e - h
	}
	for j := 0; j < 4; j++ {
		e := b[0][j] + b[2][j]
		f := b[0][j] - b[2][j]
		g := (b[1][j] >> 1) - b[3][j]
		h := b[1][j] + (b[3][j] >> 1)
		b[0][j] = (e + h + 32) >> 6
		b[1][j] = (f + g + 32) >> 6
		b[2][j] = (f - g + 32) >> 6
		b[3][j] = (e - h + 32) >> 6
	}
}

// hadamard4 applies the symmetric Walsh-Hadamard butterfly to four values.
// Row order is [1 1 1 1], [1 1 -1 -1], [1 -1 -1 1], [1 -1 1 -1].
func hadamard4(a, b, c, d int) (int, int, int, int) {
	s01 := a + b
	s23 := c + d
	d01 := a - b
	d23 := c - d
	return s01 + s23, s01 - s23, d01 - d23, d01 + d23
}

// HadamardTransform4x4 applies the 4x4 Hadamard transform in place and
// halves every output with truncating division. Applying it twice scales
// the input by 4 whenever the halvings are exact.
func HadamardTransform4x4(b *Block4) {
	hadamardRaw(b)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			b[i][j] /= 2
		}
	}
}

func hadamardRaw(b *Block4) {
	for j := 0; j < 4; j++ {
		b[0][j], b[1][j], b[2][j], b[3][j] = hadamard4(b[0][j], b[1][j], b[2][j], b[3][j])
	}
	for i := 0; i < 4; i++ {
		r := &b[i]
		r[0], r[1], r[2], r[3] = hadamard4(r[0], r[1], r[2], r[3])
	}
}

// ForwardHadamardDC transforms the 4x4 matrix of Intra16x16 luma DC
// coefficients. Outputs are halved with a right shift, as in the reference
// encoder.
func ForwardHadamardDC(b *Block4) {
	hadamardRaw(b)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			b[i][j] >>= 1
		}
	}
}

// InverseHadamardDC inverts the DC Hadamard on dequantisation input. No
// normalisation is applied; DequantDC scales the result.
func InverseHadamardDC(b *Block4) {
	hadamardRaw(b)
}

// ForwardTransform8x8 applies the 8-point High profile transform to the
// columns and then the rows of b.
func ForwardTransform8x8(b *Block8) {
	var v [8]int
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			v[i] = b[i][j]
		}
		fdct8(&v)
		for i := 0; i < 8; i++ {
			b[i][j] = v[i]
		}
	}
	for i := 0; i < 8; i++ {
		fdct8((*[8]int)(&b[i]))
	}
}

func fdct8(p *[8]int) {
	s07 := p[0] + p[7]
	s16 := p[1] + p[6]
	s25 := p[2] + p[5]
	s34 := p[3] + p[4]
	a0 := s07 + s34
	a1 := s16 + s25
	a2 := s07 - s34
	a3 := s16 - s25

	d07 := p[0] - p[7]
	d16 := p[1] - p[6]
	d25 := p[2] - p[5]
	d34 := p[3] - p[4]
	a4 := d16 + d25 + (d07 + (d07 >> 1))
	a5 := d07 - d34 - (d25 + (d25 >> 1))
	a6 := d07 + d34 - (d16 + (d16 >> 1))
	a7 := d16 - d25 + (d34 + (d34 >> 1))

	p[0] = a0 + a1
	p[1] = a4 + (a7 >> 2)
	p[2] = a2 + (a3 >> 1)
	p[3] = a5 + (a6 >> 2)
	p[4] = a0 - a1
	p[5] = a6 - (a5 >> 2)
	p[6] = (a2 >> 1) - a3
	p[7] = (a4 >> 2) - a7
}

// InverseTransform8x8 applies the 8-point inverse transform to the rows and
// then the columns of b, followed by the (x+32)>>6 normalisation.
func InverseTransform8x8(b *Block8) {
	for i := 0; i < 8; i++ {
		idct8((*[8]int)(&b[i]))
	}
	var v [8]int
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			v[i] = b[i][j]
		}
		idct8(&v)
		for i := 0; i < 8; i++ {
			b[i][j] = (v[i] + 32) >> 6
		}
	}
}

func idct8(s *[8]int) {
	a0 := s[0] + s[4]
	a2 := s[0] - s[4]
	a4 := (s[2] >> 1) - s[6]
	a6 := (s[6] >> 1) + s[2]

	b0 := a0 + a6
	b2 := a2 + a4
	b4 := a2 - a4
	b6 := a0 - a6

	a1 := -s[3] + s[5] - s[7] - (s[7] >> 1)
	a3 := s[1] + s[7] - s[3] - (s[3] >> 1)
	a5 := -s[1] + s[7] + s[5] + (s[5] >> 1)
	a7 := s[3] + s[5] + s[1] + (s[1] >> 1)

	b1 := (a7 >> 2) + a1
	b3 := a3 + (a5 >> 2)
	b5 := (a3 >> 2) - a5
	b7 := a7 - (a1 >> 2)

	s[0] = b0 + b7
	s[1] = b2 + b5
	s[2] = b4 + b3
	s[3] = b6 + b1
	s[4] = b6 - b1
	s[5] = b4 - b3
	s[6] = b2 - b5
	s[7] = b0 - b7
}
