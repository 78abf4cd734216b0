package jpeg

// Integer inverse DCT derived from the stb single-file decoder
// lineage: 12-bit scaled cosine constants, a vertical pass rounding
// with +512 then >>10, and a horizontal pass folding the level shift
// and rounding into one bias before >>17. All backends share these
// exact constants so outputs match bit for bit.

// idctScaleBits carries the horizontal-pass rounding plus the +128
// level shift, pre-scaled by 1<<17.
const idctScaleBits = 512 + 65536 + (128 << 17)

// idctFunc reconstructs one 8x8 block into eight consecutive plane
// rows starting at column x. The coefficient block doubles as scratch
// and is clobbered.
type idctFunc func(blk *[64]int32, rows [][]int32, x int)

// chooseIDCT picks the full and reduced transforms once per decode.
// The wide kernels need the lane width the CPU profile guarantees;
// anything else falls back to scalar silently.
func chooseIDCT(wide bool) (full, reduced idctFunc) {
	if wide {
		return idctWide, idct4x4Wide
	}
	return idctScalar, idct4x4Scalar
}

func clamp255(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// idctDCOnly writes the replicated DC value for blocks whose 63 AC
// coefficients are all zero: clamp((dc + 4 + 1024) >> 3) is the full
// transform collapsed to its constant term.
func idctDCOnly(blk *[64]int32, rows [][]int32, x int) {
	dc := clamp255((blk[0] + 4 + 1024) >> 3)
	for r := 0; r < 8; r++ {
		row := rows[r][x : x+8]
		for j := range row {
			row[j] = dc
		}
	}
}

func idctScalar(blk *[64]int32, rows [][]int32, x int) {
	allZero := true
	for i := 1; i < 64; i++ {
		if blk[i] != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		idctDCOnly(blk, rows, x)
		return
	}

	// Vertical pass over the eight columns, rounding by +512 >> 10.
	for p := 0; p < 8; p++ {
		p2 := blk[p+16]
		p3 := blk[p+48]

		p1 := (p2 + p3) * 2217
		t2 := p1 + p3*-7567
		t3 := p1 + p2*3135

		p2 = blk[p]
		p3 = blk[p+32]

		t0 := (p2 + p3) << 12
		t1 := (p2 - p3) << 12

		x0 := t0 + t3 + 512
		x3 := t0 - t3 + 512
		x1 := t1 + t2 + 512
		x2 := t1 - t2 + 512

		t0 = blk[p+56]
		t1 = blk[p+40]
		t2 = blk[p+24]
		t3 = blk[p+8]

		p3 = t0 + t2
		p4 := t1 + t3
		p1 = t0 + t3
		p2 = t1 + t2
		p5 := (p3 + p4) * 4816

		t0 *= 1223
		t1 *= 8410
		t2 *= 12586
		t3 *= 6149

		p1 = p5 + p1*-3685
		p2 = p5 + p2*-10497
		p3 *= -8034
		p4 *= -1597

		t3 += p1 + p4
		t2 += p2 + p3
		t1 += p2 + p4
		t0 += p1 + p3

		blk[p] = (x0 + t3) >> 10
		blk[p+8] = (x1 + t2) >> 10
		blk[p+16] = (x2 + t1) >> 10
		blk[p+24] = (x3 + t0) >> 10
		blk[p+32] = (x3 - t0) >> 10
		blk[p+40] = (x2 - t1) >> 10
		blk[p+48] = (x1 - t2) >> 10
		blk[p+56] = (x0 - t3) >> 10
	}

	// Horizontal pass over the eight rows, writing clamped samples.
	for i := 0; i < 8; i++ {
		s := blk[i*8 : i*8+8]

		p2 := s[2]
		p3 := s[6]

		p1 := (p2 + p3) * 2217
		t2 := p1 + p3*-7567
		t3 := p1 + p2*3135

		p2 = s[0]
		p3 = s[4]

		t0 := (p2 + p3) << 12
		t1 := (p2 - p3) << 12

		x0 := t0 + t3 + idctScaleBits
		x3 := t0 - t3 + idctScaleBits
		x1 := t1 + t2 + idctScaleBits
		x2 := t1 - t2 + idctScaleBits

		t0 = s[7]
		t1 = s[5]
		t2 = s[3]
		t3 = s[1]

		p3 = t0 + t2
		p4 := t1 + t3
		p1 = t0 + t3
		p2 = t1 + t2
		p5 := (p3 + p4) * 4816

		t0 *= 1223
		t1 *= 8410
		t2 *= 12586
		t3 *= 6149

		p1 = p5 + p1*-3685
		p2 = p5 + p2*-10497
		p3 *= -8034
		p4 *= -1597

		t3 += p1 + p4
		t2 += p2 + p3
		t1 += p2 + p4
		t0 += p1 + p3

		row := rows[i][x : x+8]
		row[0] = clamp255((x0 + t3) >> 17)
		row[1] = clamp255((x1 + t2) >> 17)
		row[2] = clamp255((x2 + t1) >> 17)
		row[3] = clamp255((x3 + t0) >> 17)
		row[4] = clamp255((x3 - t0) >> 17)
		row[5] = clamp255((x2 - t1) >> 17)
		row[6] = clamp255((x1 - t2) >> 17)
		row[7] = clamp255((x0 - t3) >> 17)
	}
}

// idct4x4Scalar transforms a block whose coefficients all sit in the
// top-left 4x4, the common case for smooth baseline content. The
// trailing fills return the scratch block to a mostly-zero state so a
// following partial clear is enough.
func idct4x4Scalar(blk *[64]int32, rows [][]int32, x int) {
	for p := 0; p < 4; p++ {
		i0 := blk[p]<<12 + 512
		i2 := blk[p+16]

		p1 := i2 * 2217
		p3 := i2 * 5352

		x0 := i0 + p3
		x1 := i0 + p1
		x2 := i0 - p1
		x3 := i0 - p3

		i4 := blk[p+24]
		i3 := blk[p+8]

		p5 := (i4 + i3) * 4816

		p1 = p5 + i3*-3685
		p2 := p5 + i4*-10497

		t3 := p5 + i3*867
		t2 := p5 + i4*-5945

		t1 := p2 + i3*-1597
		t0 := p1 + i4*-8034

		blk[p] = (x0 + t3) >> 10
		blk[p+8] = (x1 + t2) >> 10
		blk[p+16] = (x2 + t1) >> 10
		blk[p+24] = (x3 + t0) >> 10
		blk[p+32] = (x3 - t0) >> 10
		blk[p+40] = (x2 - t1) >> 10
		blk[p+48] = (x1 - t2) >> 10
		blk[p+56] = (x0 - t3) >> 10
	}

	for i := 0; i < 8; i++ {
		s := blk[i*8 : i*8+4]

		i0 := s[0]<<12 + idctScaleBits
		i2 := s[2]

		t2 := i2 * 2217
		t3 := i2 * 5352

		x0 := i0 + t3
		x3 := i0 - t3
		x1 := i0 + t2
		x2 := i0 - t2

		i3 := s[3]
		i1 := s[1]

		p5 := (i3 + i1) * 4816

		p1 := p5 + i1*-3685
		p2 := p5 + i3*-10497

		ot3 := p5 + i1*867
		ot2 := p5 + i3*-5945

		ot1 := p2 + i1*-1597
		ot0 := p1 + i3*-8034

		row := rows[i][x : x+8]
		row[0] = clamp255((x0 + ot3) >> 17)
		row[1] = clamp255((x1 + ot2) >> 17)
		row[2] = clamp255((x2 + ot1) >> 17)
		row[3] = clamp255((x3 + ot0) >> 17)
		row[4] = clamp255((x3 - ot0) >> 17)
		row[5] = clamp255((x2 - ot1) >> 17)
		row[6] = clamp255((x1 - ot2) >> 17)
		row[7] = clamp255((x0 - ot3) >> 17)
	}

	clear(blk[32:36])
	clear(blk[40:44])
	clear(blk[48:52])
	clear(blk[56:60])
}

// 8-lane kernels. These mirror the structure of the vectorized IDCT:
// each register holds one row of eight coefficients, the vertical pass
// combines whole rows, and a transpose feeds the horizontal pass. The
// per-lane arithmetic is the same wrapping int32 math as the scalar
// path, so outputs agree exactly.

func add8(a, b [8]int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return
}

func sub8(a, b [8]int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return
}

func mulC8(a [8]int32, c int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] * c
	}
	return
}

func addC8(a [8]int32, c int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] + c
	}
	return
}

func shl12x8(a [8]int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] << 12
	}
	return
}

func shr8(a [8]int32, n uint) (r [8]int32) {
	for i := range r {
		r[i] = a[i] >> n
	}
	return
}

func or8(a, b [8]int32) (r [8]int32) {
	for i := range r {
		r[i] = a[i] | b[i]
	}
	return
}

func transpose8(m *[8][8]int32) {
	for i := 0; i < 8; i++ {
		for j := i + 1; j < 8; j++ {
			m[i][j], m[j][i] = m[j][i], m[i][j]
		}
	}
}

// idct1D8 runs the shared butterfly network on eight row registers,
// returning the four even-part accumulators and four odd terms.
func idct1D8(s0, s1, s2, s3, s4, s5, s6, s7 [8]int32, bias int32) (x0, x1, x2, x3, t0, t1, t2, t3 [8]int32) {
	p1 := mulC8(add8(s2, s6), 2217)
	t2 = add8(p1, mulC8(s6, -7567))
	t3 = add8(p1, mulC8(s2, 3135))

	e0 := shl12x8(add8(s0, s4))
	e1 := shl12x8(sub8(s0, s4))

	x0 = addC8(add8(e0, t3), bias)
	x3 = addC8(sub8(e0, t3), bias)
	x1 = addC8(add8(e1, t2), bias)
	x2 = addC8(sub8(e1, t2), bias)

	o0 := s7
	o1 := s5
	o2 := s3
	o3 := s1

	p3 := add8(o0, o2)
	p4 := add8(o1, o3)
	pa := add8(o0, o3)
	pb := add8(o1, o2)
	p5 := mulC8(add8(p3, p4), 4816)

	o0 = mulC8(o0, 1223)
	o1 = mulC8(o1, 8410)
	o2 = mulC8(o2, 12586)
	o3 = mulC8(o3, 6149)

	pa = add8(p5, mulC8(pa, -3685))
	pb = add8(p5, mulC8(pb, -10497))
	p3 = mulC8(p3, -8034)
	p4 = mulC8(p4, -1597)

	t3 = add8(o3, add8(pa, p4))
	t2 = add8(o2, add8(pb, p3))
	t1 = add8(o1, add8(pb, p4))
	t0 = add8(o0, add8(pa, p3))
	return
}

func idctWide(blk *[64]int32, rows [][]int32, x int) {
	var m [8][8]int32
	for r := 0; r < 8; r++ {
		copy(m[r][:], blk[r*8:r*8+8])
	}

	// All-AC-zero detection by OR-folding the seven non-DC rows plus
	// the masked DC row.
	acc := m[0]
	acc[0] = 0
	for r := 1; r < 8; r++ {
		acc = or8(acc, m[r])
	}
	zero := int32(0)
	for _, v := range acc {
		zero |= v
	}
	if zero == 0 {
		idctDCOnly(blk, rows, x)
		return
	}

	// Vertical pass on row registers.
	x0, x1, x2, x3, t0, t1, t2, t3 := idct1D8(m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], 512)
	m[0] = shr8(add8(x0, t3), 10)
	m[1] = shr8(add8(x1, t2), 10)
	m[2] = shr8(add8(x2, t1), 10)
	m[3] = shr8(add8(x3, t0), 10)
	m[4] = shr8(sub8(x3, t0), 10)
	m[5] = shr8(sub8(x2, t1), 10)
	m[6] = shr8(sub8(x1, t2), 10)
	m[7] = shr8(sub8(x0, t3), 10)

	// Transpose so the horizontal pass reuses the same network with
	// columns in the registers.
	transpose8(&m)
	x0, x1, x2, x3, t0, t1, t2, t3 = idct1D8(m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], idctScaleBits)
	o0 := shr8(add8(x0, t3), 17)
	o1 := shr8(add8(x1, t2), 17)
	o2 := shr8(add8(x2, t1), 17)
	o3 := shr8(add8(x3, t0), 17)
	o4 := shr8(sub8(x3, t0), 17)
	o5 := shr8(sub8(x2, t1), 17)
	o6 := shr8(sub8(x1, t2), 17)
	o7 := shr8(sub8(x0, t3), 17)

	// Lane r of each output register is row r of the block.
	for r := 0; r < 8; r++ {
		row := rows[r][x : x+8]
		row[0] = clamp255(o0[r])
		row[1] = clamp255(o1[r])
		row[2] = clamp255(o2[r])
		row[3] = clamp255(o3[r])
		row[4] = clamp255(o4[r])
		row[5] = clamp255(o5[r])
		row[6] = clamp255(o6[r])
		row[7] = clamp255(o7[r])
	}
}

// idct4x4Wide keeps the narrow vertical pass scalar and vectorizes the
// horizontal pass across the eight output rows.
func idct4x4Wide(blk *[64]int32, rows [][]int32, x int) {
	for p := 0; p < 4; p++ {
		i0 := blk[p]<<12 + 512
		i2 := blk[p+16]

		p1 := i2 * 2217
		p3 := i2 * 5352

		x0 := i0 + p3
		x1 := i0 + p1
		x2 := i0 - p1
		x3 := i0 - p3

		i4 := blk[p+24]
		i3 := blk[p+8]

		p5 := (i4 + i3) * 4816

		p1 = p5 + i3*-3685
		p2 := p5 + i4*-10497

		t3 := p5 + i3*867
		t2 := p5 + i4*-5945

		t1 := p2 + i3*-1597
		t0 := p1 + i4*-8034

		blk[p] = (x0 + t3) >> 10
		blk[p+8] = (x1 + t2) >> 10
		blk[p+16] = (x2 + t1) >> 10
		blk[p+24] = (x3 + t0) >> 10
		blk[p+32] = (x3 - t0) >> 10
		blk[p+40] = (x2 - t1) >> 10
		blk[p+48] = (x1 - t2) >> 10
		blk[p+56] = (x0 - t3) >> 10
	}

	// Gather the four coefficient columns across all eight rows.
	var c0, c1, c2, c3 [8]int32
	for r := 0; r < 8; r++ {
		c0[r] = blk[r*8]
		c1[r] = blk[r*8+1]
		c2[r] = blk[r*8+2]
		c3[r] = blk[r*8+3]
	}

	t0v := addC8(shl12x8(c0), idctScaleBits)
	t2v := mulC8(c2, 2217)
	t3v := mulC8(c2, 5352)

	x0 := add8(t0v, t3v)
	x3 := sub8(t0v, t3v)
	x1 := add8(t0v, t2v)
	x2 := sub8(t0v, t2v)

	p5 := mulC8(add8(c3, c1), 4816)
	p1 := add8(p5, mulC8(c1, -3685))
	p2 := add8(p5, mulC8(c3, -10497))

	ot3 := add8(p5, mulC8(c1, 867))
	ot2 := add8(p5, mulC8(c3, -5945))
	ot1 := add8(p2, mulC8(c1, -1597))
	ot0 := add8(p1, mulC8(c3, -8034))

	o0 := shr8(add8(x0, ot3), 17)
	o1 := shr8(add8(x1, ot2), 17)
	o2 := shr8(add8(x2, ot1), 17)
	o3 := shr8(add8(x3, ot0), 17)
	o4 := shr8(sub8(x3, ot0), 17)
	o5 := shr8(sub8(x2, ot1), 17)
	o6 := shr8(sub8(x1, ot2), 17)
	o7 := shr8(sub8(x0, ot3), 17)

	for r := 0; r < 8; r++ {
		row := rows[r][x : x+8]
		row[0] = clamp255(o0[r])
		row[1] = clamp255(o1[r])
		row[2] = clamp255(o2[r])
		row[3] = clamp255(o3[r])
		row[4] = clamp255(o4[r])
		row[5] = clamp255(o5[r])
		row[6] = clamp255(o6[r])
		row[7] = clamp255(o7[r])
	}

	clear(blk[32:36])
	clear(blk[40:44])
	clear(blk[48:52])
	clear(blk[56:60])
}
