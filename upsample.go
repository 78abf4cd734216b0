package jpeg

// Chroma upsampling with the 3:1 triangle filter. Row kernels take
// the current low-resolution row plus its vertical neighbours so the
// caller never copies planes: near is the row above, far the row
// below, both clamped to the plane edge by the caller. Boundary
// columns replicate instead of filtering past the array.

// upsampleFunc widens one chroma row. For vertical kernels out holds
// two stacked rows (top then bottom), for hv it holds two widened
// rows. scratch must hold 2*len(in) samples for hv kernels and is
// untouched otherwise.
type upsampleFunc func(in, near, far, scratch, out []int32)

// chooseUpsampler fixes the kernel for a component at setup time.
// Generic ratios have no row kernel; the reconstructor falls back to
// nearest-neighbour sampling for those.
func chooseUpsampler(kind upsampleKind, wide bool) upsampleFunc {
	switch kind {
	case upsampleH:
		if wide {
			return upsampleHorizontalWide
		}
		return upsampleHorizontal
	case upsampleV:
		if wide {
			return upsampleVerticalWide
		}
		return upsampleVertical
	case upsampleHV:
		if wide {
			return upsampleHVWide
		}
		return upsampleHV2
	}
	return nil
}

func upsampleHorizontal(in, _, _, _, out []int32) {
	if len(in) == 1 {
		out[0] = in[0]
		out[1] = in[0]
		return
	}

	out[0] = in[0]
	out[1] = (in[0]*3 + in[1] + 2) >> 2

	for i := 1; i < len(in)-1; i++ {
		sample := 3*in[i] + 2
		out[2*i] = (sample + in[i-1]) >> 2
		out[2*i+1] = (sample + in[i+1]) >> 2
	}

	n := len(in)
	out[2*n-2] = (3*in[n-1] + in[n-2] + 2) >> 2
	out[2*n-1] = in[n-1]
}

func upsampleVertical(in, near, far, _, out []int32) {
	n := len(in)
	top := out[:n]
	bottom := out[n : 2*n]
	for i, s := range in {
		sample := 3*s + 2
		top[i] = (sample + near[i]) >> 2
		bottom[i] = (sample + far[i]) >> 2
	}
}

// upsampleHV2 widens both directions: the vertical pass fills the
// scratch with the two intermediate rows and a single horizontal pass
// over the combined scratch produces both output rows.
func upsampleHV2(in, near, far, scratch, out []int32) {
	n := len(in)
	upsampleVertical(in, near, far, nil, scratch[:2*n])
	upsampleHorizontal(scratch[:2*n], nil, nil, nil, out[:4*n])
}

// Wide kernels process the interior in fixed 8-sample groups so the
// hot loop carries no per-element bounds checks. Short rows defer to
// the scalar kernel; everywhere else the arithmetic is identical.

func upsampleHorizontalWide(in, near, far, scratch, out []int32) {
	if len(in) < 18 {
		upsampleHorizontal(in, near, far, scratch, out)
		return
	}

	out[0] = in[0]
	out[1] = (in[0]*3 + in[1] + 2) >> 2

	i := 1
	for ; i+8 <= len(in)-1; i += 8 {
		prev := in[i-1 : i+7 : i+7]
		cur := in[i : i+8 : i+8]
		next := in[i+1 : i+9 : i+9]
		dst := out[2*i : 2*i+16 : 2*i+16]
		for j := 0; j < 8; j++ {
			sample := 3*cur[j] + 2
			dst[2*j] = (sample + prev[j]) >> 2
			dst[2*j+1] = (sample + next[j]) >> 2
		}
	}
	for ; i < len(in)-1; i++ {
		sample := 3*in[i] + 2
		out[2*i] = (sample + in[i-1]) >> 2
		out[2*i+1] = (sample + in[i+1]) >> 2
	}

	n := len(in)
	out[2*n-2] = (3*in[n-1] + in[n-2] + 2) >> 2
	out[2*n-1] = in[n-1]
}

func upsampleVerticalWide(in, near, far, scratch, out []int32) {
	if len(in) < 16 {
		upsampleVertical(in, near, far, scratch, out)
		return
	}

	n := len(in)
	top := out[:n]
	bottom := out[n : 2*n]

	i := 0
	for ; i+8 <= n; i += 8 {
		cur := in[i : i+8 : i+8]
		nr := near[i : i+8 : i+8]
		fr := far[i : i+8 : i+8]
		t := top[i : i+8 : i+8]
		b := bottom[i : i+8 : i+8]
		for j := 0; j < 8; j++ {
			sample := 3*cur[j] + 2
			t[j] = (sample + nr[j]) >> 2
			b[j] = (sample + fr[j]) >> 2
		}
	}
	for ; i < n; i++ {
		sample := 3*in[i] + 2
		top[i] = (sample + near[i]) >> 2
		bottom[i] = (sample + far[i]) >> 2
	}
}

func upsampleHVWide(in, near, far, scratch, out []int32) {
	n := len(in)
	upsampleVerticalWide(in, near, far, nil, scratch[:2*n])
	upsampleHorizontalWide(scratch[:2*n], nil, nil, nil, out[:4*n])
}
