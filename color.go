package jpeg

// YCbCr to RGB conversion in 14-bit fixed point, full-range BT.601.
// The rounding constant folds into the luma term so each channel is
// one multiply-accumulate and a shift. Scalar and wide kernels share
// the exact integer formula and must agree bit for bit.

const (
	yCoeff   = 16384
	crCoeff  = 22970
	cbCoeff  = 29032
	gCrCoeff = -11700
	gCbCoeff = -5638
	yuvRound = (1 << 13) - 1
)

// convertFunc turns one row of component samples into interleaved
// output bytes. planes[0..3] hold the full-resolution rows for each
// component present; out is the destination row sized width*channels.
type convertFunc func(planes *[4][]int32, out []byte)

// chooseColorConvert fixes the row converter for an (input, output)
// colorspace pair. The pair must already have passed supportedOutput;
// unknown pairs return nil.
func chooseColorConvert(in, out ColorSpace, wide bool) convertFunc {
	if in == out {
		switch in.Channels() {
		case 1:
			return convertGrayRow
		case 3:
			return interleave3Row(0, 2, 3)
		case 4:
			return interleave4Row
		}
		return nil
	}

	switch in {
	case ColorSpaceGrayscale:
		switch out {
		case ColorSpaceRGB, ColorSpaceBGR:
			return expandGrayRow(3)
		case ColorSpaceRGBA, ColorSpaceBGRA:
			return expandGrayRow(4)
		case ColorSpaceYCbCr:
			return convertGrayToYCbCrRow
		}
	case ColorSpaceYCbCr:
		switch out {
		case ColorSpaceGrayscale:
			return convertGrayRow
		case ColorSpaceRGB:
			return ycbcrRow(0, 2, 3, wide)
		case ColorSpaceBGR:
			return ycbcrRow(2, 0, 3, wide)
		case ColorSpaceRGBA:
			return ycbcrRow(0, 2, 4, wide)
		case ColorSpaceBGRA:
			return ycbcrRow(2, 0, 4, wide)
		}
	case ColorSpaceRGB:
		switch out {
		case ColorSpaceRGB:
			return interleave3Row(0, 2, 3)
		case ColorSpaceBGR:
			return interleave3Row(2, 0, 3)
		case ColorSpaceRGBA:
			return interleave3Row(0, 2, 4)
		case ColorSpaceBGRA:
			return interleave3Row(2, 0, 4)
		}
	case ColorSpaceCMYK:
		switch out {
		case ColorSpaceRGB:
			return cmykToRGBRow(3)
		case ColorSpaceRGBA:
			return cmykToRGBRow(4)
		}
	case ColorSpaceYCCK:
		switch out {
		case ColorSpaceRGB:
			return ycckToRGBRow(3, wide)
		case ColorSpaceRGBA:
			return ycckToRGBRow(4, wide)
		}
	}
	return nil
}

// blinn8x8 is the rounded (a*b)/255 multiply borrowed from stb: exact
// for all byte inputs without a divide.
func blinn8x8(a, b uint8) uint8 {
	t := int32(a)*int32(b) + 128
	return uint8((t + (t >> 8)) >> 8)
}

func convertGrayRow(planes *[4][]int32, out []byte) {
	for i, v := range planes[0] {
		out[i] = uint8(clamp255(v))
	}
}

func convertGrayToYCbCrRow(planes *[4][]int32, out []byte) {
	for i, v := range planes[0] {
		g := uint8(clamp255(v))
		out[i*3] = g
		out[i*3+1] = 128
		out[i*3+2] = 128
	}
}

func expandGrayRow(step int) convertFunc {
	return func(planes *[4][]int32, out []byte) {
		for i, v := range planes[0] {
			g := uint8(clamp255(v))
			p := out[i*step : i*step+step]
			p[0] = g
			p[1] = g
			p[2] = g
			if step == 4 {
				p[3] = 255
			}
		}
	}
}

func interleave3Row(c0, c2, step int) convertFunc {
	return func(planes *[4][]int32, out []byte) {
		p0, p1, p2 := planes[0], planes[1], planes[2]
		for i := range p0 {
			p := out[i*step : i*step+step]
			p[c0] = uint8(clamp255(p0[i]))
			p[1] = uint8(clamp255(p1[i]))
			p[c2] = uint8(clamp255(p2[i]))
			if step == 4 {
				p[3] = 255
			}
		}
	}
}

func interleave4Row(planes *[4][]int32, out []byte) {
	p0, p1, p2, p3 := planes[0], planes[1], planes[2], planes[3]
	for i := range p0 {
		p := out[i*4 : i*4+4]
		p[0] = uint8(clamp255(p0[i]))
		p[1] = uint8(clamp255(p1[i]))
		p[2] = uint8(clamp255(p2[i]))
		p[3] = uint8(clamp255(p3[i]))
	}
}

func ycbcrRow(rOff, bOff, step int, wide bool) convertFunc {
	if wide {
		return func(planes *[4][]int32, out []byte) {
			ycbcrRowWide(planes[0], planes[1], planes[2], out, rOff, bOff, step)
		}
	}
	return func(planes *[4][]int32, out []byte) {
		ycbcrRowScalar(planes[0], planes[1], planes[2], out, rOff, bOff, step)
	}
}

func ycbcrRowScalar(y, cb, cr []int32, out []byte, rOff, bOff, step int) {
	for i := range y {
		yv := y[i]*yCoeff + yuvRound
		cbv := cb[i] - 128
		crv := cr[i] - 128

		r := (yv + crv*crCoeff) >> 14
		g := (yv + crv*gCrCoeff + cbv*gCbCoeff) >> 14
		b := (yv + cbv*cbCoeff) >> 14

		p := out[i*step : i*step+step]
		p[rOff] = uint8(clamp255(r))
		p[1] = uint8(clamp255(g))
		p[bOff] = uint8(clamp255(b))
		if step == 4 {
			p[3] = 255
		}
	}
}

// ycbcrRowWide converts sixteen pixels per iteration, gathering the
// three channel terms into lane arrays before the layout store. The
// remainder of the row goes through the scalar kernel.
func ycbcrRowWide(y, cb, cr []int32, out []byte, rOff, bOff, step int) {
	var rv, gv, bv [16]int32

	i := 0
	for ; i+16 <= len(y); i += 16 {
		ys := y[i : i+16 : i+16]
		cbs := cb[i : i+16 : i+16]
		crs := cr[i : i+16 : i+16]
		for j := 0; j < 16; j++ {
			yv := ys[j]*yCoeff + yuvRound
			cbv := cbs[j] - 128
			crv := crs[j] - 128
			rv[j] = (yv + crv*crCoeff) >> 14
			gv[j] = (yv + crv*gCrCoeff + cbv*gCbCoeff) >> 14
			bv[j] = (yv + cbv*cbCoeff) >> 14
		}
		dst := out[i*step : (i+16)*step : (i+16)*step]
		for j := 0; j < 16; j++ {
			p := dst[j*step : j*step+step]
			p[rOff] = uint8(clamp255(rv[j]))
			p[1] = uint8(clamp255(gv[j]))
			p[bOff] = uint8(clamp255(bv[j]))
			if step == 4 {
				p[3] = 255
			}
		}
	}
	if i < len(y) {
		ycbcrRowScalar(y[i:], cb[i:], cr[i:], out[i*step:], rOff, bOff, step)
	}
}

// cmykToRGBRow composes the stored ink channels with the key channel.
// Adobe writers store the four channels inverted, so the stored bytes
// multiply directly without a 255-x flip.
func cmykToRGBRow(step int) convertFunc {
	return func(planes *[4][]int32, out []byte) {
		c, m, y, k := planes[0], planes[1], planes[2], planes[3]
		for i := range c {
			kv := uint8(clamp255(k[i]))
			p := out[i*step : i*step+step]
			p[0] = blinn8x8(uint8(clamp255(c[i])), kv)
			p[1] = blinn8x8(uint8(clamp255(m[i])), kv)
			p[2] = blinn8x8(uint8(clamp255(y[i])), kv)
			if step == 4 {
				p[3] = 255
			}
		}
	}
}

// ycckToRGBRow runs the YCbCr transform on the first three channels,
// then folds in the key channel over the inverted result.
func ycckToRGBRow(step int, wide bool) convertFunc {
	inner := ycbcrRow(0, 2, step, wide)
	return func(planes *[4][]int32, out []byte) {
		inner(planes, out)
		k := planes[3]
		for i := range k {
			kv := uint8(clamp255(k[i]))
			p := out[i*step : i*step+step]
			p[0] = blinn8x8(255-p[0], kv)
			p[1] = blinn8x8(255-p[1], kv)
			p[2] = blinn8x8(255-p[2], kv)
		}
	}
}
