package jpeg

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"runtime"
)

// DecodeOptions controls output format, resource ceilings, and decode
// strictness. The zero value requests interleaved RGB at the default
// limits.
type DecodeOptions struct {
	// OutColorspace selects the output pixel layout. Which layouts a
	// stream supports depends on its input colorspace: grayscale and
	// YCbCr streams convert to any of Grayscale, RGB, RGBA, BGR,
	// BGRA, or YCbCr; CMYK and YCCK streams to RGB, RGBA, or their
	// own layout unchanged.
	OutColorspace ColorSpace

	// MaxWidth and MaxHeight bound the frame dimensions accepted at
	// SOF, before any allocation. Both default to 1 << 14.
	MaxWidth  int
	MaxHeight int

	// MaxScans caps the number of SOS segments a frame may carry,
	// bounding work on adversarial progressive streams. Default 100.
	MaxScans int

	// Strict turns recoverable stream defects (truncation, missing
	// restart markers, missing EOI) into hard errors instead of
	// neutral-filled or partially decoded output.
	Strict bool

	// DisableSIMD forces the scalar kernel set.
	DisableSIMD bool

	// Workers sets the number of goroutines reconstructing the
	// image. 0 means GOMAXPROCS, 1 runs synchronously in the calling
	// goroutine.
	Workers int
}

const (
	defaultMaxDimension = 1 << 14
	defaultMaxScans     = 100
)

// Pixels is the flat decode result: tightly packed interleaved rows
// in the requested colorspace.
type Pixels struct {
	Data       []byte
	Width      int
	Height     int
	Colorspace ColorSpace

	// EXIF holds the raw APP1 Exif payload, ICC the concatenated
	// APP2 profile chunks. Nil when the stream carries none.
	EXIF []byte
	ICC  []byte
}

// Decoder holds the state of one decode: parsed tables, the frame
// being assembled, and the kernel set picked for this run.
type Decoder struct {
	data []byte
	opts DecodeOptions

	frame frameHeader

	quantTables [4]*[64]int32
	dcTables    [4]*huffmanTable
	acTables    [4]*huffmanTable

	restartInterval int
	adobeTransform  int // APP14 transform byte, -1 when absent
	exif            []byte
	icc             []byte

	sawSOF bool

	// eobRun is the progressive end-of-band run crossing block and
	// MCU boundaries within one scan.
	eobRun int

	// Kernels, chosen once per decode.
	wide        bool
	idctFull    idctFunc
	idctReduced idctFunc
}

func newDecoder(data []byte, opts DecodeOptions) *Decoder {
	d := &Decoder{data: data, opts: opts, adobeTransform: -1}
	d.wide = wideKernelsEnabled(opts.DisableSIMD)
	d.idctFull, d.idctReduced = chooseIDCT(d.wide)
	return d
}

// resolveOptions copies the caller's options and fills defaults. A nil
// opts selects all defaults.
func resolveOptions(opts *DecodeOptions) (DecodeOptions, error) {
	var o DecodeOptions
	if opts != nil {
		o = *opts
	}
	if o.OutColorspace.Channels() == 0 {
		return o, fmt.Errorf("%w: output colorspace %d", ErrUnsupportedFormat, o.OutColorspace)
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = defaultMaxDimension
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = defaultMaxDimension
	}
	if o.MaxScans <= 0 {
		o.MaxScans = defaultMaxScans
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o, nil
}

// Decode reads a JPEG stream and returns it as an RGBA image.
func Decode(r io.Reader) (image.Image, error) {
	return DecodeWithOptions(r, nil)
}

// DecodeWithOptions decodes with explicit options. Through this
// surface grayscale requests produce *image.Gray and every other
// layout renders as *image.RGBA; use DecodePixels for the remaining
// flat layouts.
func DecodeWithOptions(r io.Reader, opts *DecodeOptions) (image.Image, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.OutColorspace != ColorSpaceGrayscale {
		o.OutColorspace = ColorSpaceRGBA
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	px, err := newDecoder(data, o).decode()
	if err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, px.Width, px.Height)
	if px.Colorspace == ColorSpaceGrayscale {
		return &image.Gray{Pix: px.Data, Stride: px.Width, Rect: rect}, nil
	}
	return &image.RGBA{Pix: px.Data, Stride: 4 * px.Width, Rect: rect}, nil
}

// DecodePixels decodes into a flat interleaved buffer in the layout
// opts.OutColorspace requests.
func DecodePixels(r io.Reader, opts *DecodeOptions) (*Pixels, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return newDecoder(data, o).decode()
}

// DecodeConfig returns the frame dimensions and color model without
// decoding any entropy data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	// Dimension ceilings exist to bound allocation; configuration
	// probing allocates nothing, so accept anything the format can
	// express.
	o, _ := resolveOptions(&DecodeOptions{MaxWidth: 1 << 16, MaxHeight: 1 << 16})
	d := newDecoder(data, o)
	if err := d.parseToSOF(); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		Width:      d.frame.width,
		Height:     d.frame.height,
		ColorModel: d.colorModel(),
	}, nil
}

func (d *Decoder) colorModel() color.Model {
	switch d.frame.inColor {
	case ColorSpaceGrayscale:
		return color.GrayModel
	case ColorSpaceCMYK, ColorSpaceYCCK:
		return color.CMYKModel
	case ColorSpaceRGB:
		return color.RGBAModel
	}
	return color.YCbCrModel
}

// maxMarkerHunt bounds how many garbage bytes the segment walk skips
// while hunting for a marker.
const maxMarkerHunt = 1 << 20

// nextMarker scans forward to the next marker, skipping fill bytes,
// stuffed 0xFF00 pairs, and bounded garbage. A zero marker with nil
// error means the input ran out.
func nextMarker(data []byte, pos int) (byte, int, error) {
	skipped := 0
	for pos < len(data) {
		if data[pos] != 0xFF {
			pos++
			skipped++
			if skipped > maxMarkerHunt {
				return 0, pos, fmt.Errorf("%w: %d bytes without a marker", ErrCorruptData, skipped)
			}
			continue
		}
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			break
		}
		m := data[pos]
		pos++
		if m == 0x00 {
			// Stuffed entropy byte, not a marker.
			continue
		}
		return m, pos, nil
	}
	return 0, pos, nil
}

// decode runs the full segment walk and reconstruction.
func (d *Decoder) decode() (*Pixels, error) {
	data := d.data
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, fmt.Errorf("%w: missing SOI", ErrInvalidMarker)
	}
	defer d.releasePlanes()

	pos := 2
	scans := 0
	var pending byte

walk:
	for {
		m := pending
		pending = 0
		if m == 0 {
			var err error
			m, pos, err = nextMarker(data, pos)
			if err != nil {
				return nil, err
			}
			if m == 0 {
				// Input ended without EOI.
				if scans == 0 {
					return nil, fmt.Errorf("%w: no scan data", ErrTruncatedData)
				}
				if d.opts.Strict {
					return nil, fmt.Errorf("%w: missing EOI", ErrTruncatedData)
				}
				break walk
			}
		}

		var err error
		switch {
		case m == markerEOI:
			break walk

		case m == markerSOF0 || m == markerSOF1 || m == markerSOF2:
			if pos, err = parseSOF(data, pos, d, m == markerSOF2); err == nil {
				d.markNeeded()
			}

		case m == markerSOF3 || m == markerSOF5 || m == markerSOF6 ||
			m == markerSOF7 || m == markerJPG || m == markerSOF9 ||
			m == markerSOF10 || m == markerSOF11 || m == markerSOF13 ||
			m == markerSOF14 || m == markerSOF15 ||
			m == markerDAC || m == markerDHP || m == markerEXP:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, markerName(m))

		case m == markerDHT:
			pos, err = parseDHT(data, pos, d)
		case m == markerDQT:
			pos, err = parseDQT(data, pos, d)
		case m == markerDRI:
			pos, err = parseDRI(data, pos, d)
		case m == markerAPP1:
			pos, err = parseAPP1(data, pos, d)
		case m == markerAPP2:
			pos, err = parseAPP2(data, pos, d)
		case m == markerAPP14:
			pos, err = parseAPP14(data, pos, d)

		case m == markerSOS:
			var scan *scanHeader
			if scan, pos, err = parseSOS(data, pos, d); err != nil {
				break
			}
			if scans == 0 {
				if err = d.beginImage(); err != nil {
					break
				}
			}
			scans++
			if scans > d.opts.MaxScans {
				return nil, fmt.Errorf("%w: more than %d scans", ErrDecodeFailed, d.opts.MaxScans)
			}
			br := newBitReader(data, pos)
			if d.frame.progressive {
				err = d.decodeScanProgressive(br, scan)
			} else {
				err = d.decodeScanBaseline(br, scan)
			}
			pos = br.pos
			pending = br.takeMarker()

		case m == markerSOI:
			return nil, fmt.Errorf("%w: nested SOI", ErrInvalidMarker)

		case isRST(m) || m == 0x01:
			// Bare marker outside an entropy segment; nothing to do.

		default:
			pos, err = skipSegment(data, pos)
		}
		if err != nil {
			return nil, err
		}
	}

	if !d.sawSOF {
		return nil, fmt.Errorf("%w: missing SOF", ErrInvalidHeader)
	}
	if scans == 0 {
		return nil, fmt.Errorf("%w: no scan data", ErrTruncatedData)
	}
	return d.finish()
}

// parseToSOF walks segments only as far as the frame header.
func (d *Decoder) parseToSOF() error {
	data := d.data
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return fmt.Errorf("%w: missing SOI", ErrInvalidMarker)
	}
	pos := 2
	for {
		m, p, err := nextMarker(data, pos)
		if err != nil {
			return err
		}
		pos = p
		switch {
		case m == 0 || m == markerEOI || m == markerSOS:
			return fmt.Errorf("%w: missing SOF", ErrInvalidHeader)
		case m == markerSOF0 || m == markerSOF1 || m == markerSOF2:
			_, err = parseSOF(data, pos, d, m == markerSOF2)
			if err != nil {
				return err
			}
			return nil
		case m == markerSOF3 || m == markerSOF5 || m == markerSOF6 ||
			m == markerSOF7 || m == markerJPG || m == markerSOF9 ||
			m == markerSOF10 || m == markerSOF11 || m == markerSOF13 ||
			m == markerSOF14 || m == markerSOF15:
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, markerName(m))
		case m == markerAPP14:
			// The Adobe transform decides the reported color model.
			if pos, err = parseAPP14(data, pos, d); err != nil {
				return err
			}
		case isRST(m) || m == 0x01:
		default:
			if pos, err = skipSegment(data, pos); err != nil {
				return err
			}
		}
	}
}

// markNeeded clears needed on components the requested output never
// reads. Their blocks still have to be entropy-decoded to keep the
// bit cursor in step, but they skip IDCT and reconstruction.
func (d *Decoder) markNeeded() {
	if d.opts.OutColorspace != ColorSpaceGrayscale || d.frame.inColor != ColorSpaceYCbCr {
		return
	}
	for i, c := range d.frame.components {
		c.needed = i == 0
	}
}

// beginImage validates the conversion request and allocates component
// storage ahead of the first scan.
func (d *Decoder) beginImage() error {
	if !supportedOutput(d.frame.inColor, d.opts.OutColorspace) {
		return fmt.Errorf("%w: no conversion from %s to %s",
			ErrUnsupportedFormat, d.frame.inColor, d.opts.OutColorspace)
	}
	d.allocPlanes()
	if d.frame.progressive {
		return d.allocCoeffs()
	}
	return nil
}

// finish renders the sample planes into the output buffer.
func (d *Decoder) finish() (*Pixels, error) {
	if d.frame.progressive {
		if err := d.finishProgressive(); err != nil {
			return nil, err
		}
	}
	fr := &d.frame
	out := make([]byte, fr.width*fr.height*d.opts.OutColorspace.Channels())
	if err := d.reconstruct(out); err != nil {
		return nil, err
	}
	return &Pixels{
		Data:       out,
		Width:      fr.width,
		Height:     fr.height,
		Colorspace: d.opts.OutColorspace,
		EXIF:       d.exif,
		ICC:        d.icc,
	}, nil
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8\xff", Decode, DecodeConfig)
}
