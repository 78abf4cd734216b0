package jpeg

// ColorSpace identifies a pixel layout, either as found in the stream
// (Grayscale, YCbCr, CMYK, YCCK) or as requested for output.
type ColorSpace int

// The zero value is RGB, the default output request.
const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceRGBA
	ColorSpaceBGR
	ColorSpaceBGRA
	ColorSpaceGrayscale
	ColorSpaceYCbCr
	ColorSpaceCMYK
	ColorSpaceYCCK
)

// Channels returns the number of interleaved byte channels per pixel.
func (c ColorSpace) Channels() int {
	switch c {
	case ColorSpaceGrayscale:
		return 1
	case ColorSpaceYCbCr, ColorSpaceRGB, ColorSpaceBGR:
		return 3
	case ColorSpaceRGBA, ColorSpaceBGRA, ColorSpaceCMYK, ColorSpaceYCCK:
		return 4
	}
	return 0
}

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceYCbCr:
		return "YCbCr"
	case ColorSpaceGrayscale:
		return "Grayscale"
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceRGBA:
		return "RGBA"
	case ColorSpaceBGR:
		return "BGR"
	case ColorSpaceBGRA:
		return "BGRA"
	case ColorSpaceCMYK:
		return "CMYK"
	case ColorSpaceYCCK:
		return "YCCK"
	}
	return "unknown"
}

// hasAlpha reports whether the layout carries a padding/alpha channel
// that the converter fills with 255.
func (c ColorSpace) hasAlpha() bool {
	return c == ColorSpaceRGBA || c == ColorSpaceBGRA
}

// supportedOutput reports whether the decoder can produce out from the
// stream's input colorspace in.
func supportedOutput(in, out ColorSpace) bool {
	switch in {
	case ColorSpaceGrayscale:
		// Single-channel input expands to any gray-equivalent layout.
		switch out {
		case ColorSpaceGrayscale, ColorSpaceRGB, ColorSpaceRGBA, ColorSpaceBGR, ColorSpaceBGRA, ColorSpaceYCbCr:
			return true
		}
	case ColorSpaceYCbCr:
		switch out {
		case ColorSpaceYCbCr, ColorSpaceGrayscale, ColorSpaceRGB, ColorSpaceRGBA, ColorSpaceBGR, ColorSpaceBGRA:
			return true
		}
	case ColorSpaceRGB:
		// Streams an encoder wrote without the YCbCr transform.
		switch out {
		case ColorSpaceRGB, ColorSpaceRGBA, ColorSpaceBGR, ColorSpaceBGRA:
			return true
		}
	case ColorSpaceCMYK:
		switch out {
		case ColorSpaceCMYK, ColorSpaceRGB, ColorSpaceRGBA:
			return true
		}
	case ColorSpaceYCCK:
		switch out {
		case ColorSpaceYCCK, ColorSpaceRGB, ColorSpaceRGBA:
			return true
		}
	}
	return false
}
