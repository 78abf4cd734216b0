package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// frameHeader holds the SOF parameters of the frame being decoded
// plus the geometry derived from them.
type frameHeader struct {
	width       int
	height      int
	precision   int
	progressive bool

	components []*component
	inColor    ColorSpace

	hMax, vMax int
	mcuX, mcuY int // interleaved MCU grid
}

// scanHeader holds one SOS segment: the components it covers in scan
// order and the spectral selection / successive approximation fields.
type scanHeader struct {
	ncomp int
	comps [4]int // indices into frame.components
	ss    int    // spectral selection start
	se    int    // spectral selection end
	ah    int    // successive approximation high
	al    int    // successive approximation low
}

// interleaved reports whether the scan crosses components per MCU.
func (s *scanHeader) interleaved() bool {
	return s.ncomp > 1
}

// segmentLength reads and bounds-checks the 2-byte segment length at
// pos. The length includes its own two bytes.
func segmentLength(data []byte, pos int) (int, error) {
	if pos+2 > len(data) {
		return 0, ErrTruncatedData
	}
	l := int(binary.BigEndian.Uint16(data[pos:]))
	if l < 2 || pos+l > len(data) {
		return 0, fmt.Errorf("%w: segment length %d", ErrTruncatedData, l)
	}
	return l, nil
}

func parseSOF(data []byte, pos int, d *Decoder, progressive bool) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	if d.sawSOF {
		return pos, fmt.Errorf("%w: multiple SOF segments", ErrInvalidHeader)
	}
	if l < 8 {
		return pos, fmt.Errorf("%w: SOF length %d", ErrInvalidHeader, l)
	}

	f := &d.frame
	f.precision = int(data[pos+2])
	if f.precision != 8 {
		return pos, fmt.Errorf("%w: %d-bit precision", ErrUnsupportedFormat, f.precision)
	}
	f.height = int(binary.BigEndian.Uint16(data[pos+3:]))
	f.width = int(binary.BigEndian.Uint16(data[pos+5:]))
	if f.width == 0 || f.height == 0 {
		return pos, fmt.Errorf("%w: zero image dimension", ErrInvalidHeader)
	}
	if f.width > d.opts.MaxWidth || f.height > d.opts.MaxHeight {
		return pos, fmt.Errorf("%w: %dx%d exceeds %dx%d",
			ErrImageTooLarge, f.width, f.height, d.opts.MaxWidth, d.opts.MaxHeight)
	}

	ncomp := int(data[pos+7])
	if ncomp != 1 && ncomp != 3 && ncomp != 4 {
		return pos, fmt.Errorf("%w: %d components", ErrUnsupportedFormat, ncomp)
	}
	if l != 8+3*ncomp {
		return pos, fmt.Errorf("%w: SOF length %d for %d components", ErrInvalidHeader, l, ncomp)
	}

	f.components = make([]*component, ncomp)
	for i := 0; i < ncomp; i++ {
		b := data[pos+8+3*i:]
		c := &component{
			id:      b[0],
			hSample: int(b[1] >> 4),
			vSample: int(b[1] & 0x0F),
			quantID: b[2],
		}
		if c.hSample < 1 || c.hSample > 4 || c.vSample < 1 || c.vSample > 4 {
			return pos, fmt.Errorf("%w: sampling factors %dx%d", ErrInvalidHeader, c.hSample, c.vSample)
		}
		if c.quantID > 3 {
			return pos, fmt.Errorf("%w: quantization table id %d", ErrInvalidHeader, c.quantID)
		}
		f.components[i] = c
	}

	f.progressive = progressive
	d.sawSOF = true
	d.resolveInputColorspace()
	if err := d.setupComponents(); err != nil {
		return pos, err
	}
	return pos + l, nil
}

func parseSOS(data []byte, pos int, d *Decoder) (*scanHeader, int, error) {
	if !d.sawSOF {
		return nil, pos, fmt.Errorf("%w: SOS before SOF", ErrInvalidHeader)
	}
	l, err := segmentLength(data, pos)
	if err != nil {
		return nil, pos, err
	}
	if l < 3 {
		return nil, pos, fmt.Errorf("%w: SOS length %d", ErrInvalidHeader, l)
	}
	ns := int(data[pos+2])
	if ns < 1 || ns > 4 || ns > len(d.frame.components) {
		return nil, pos, fmt.Errorf("%w: %d scan components", ErrInvalidHeader, ns)
	}
	if l != 6+2*ns {
		return nil, pos, fmt.Errorf("%w: SOS length %d for %d components", ErrInvalidHeader, l, ns)
	}

	scan := &scanHeader{ncomp: ns}
	for i := 0; i < ns; i++ {
		cs := data[pos+3+2*i]
		tt := data[pos+4+2*i]
		idx := -1
		for j, c := range d.frame.components {
			if c.id == cs {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, pos, fmt.Errorf("%w: scan component id %d not in frame", ErrInvalidHeader, cs)
		}
		for j := 0; j < i; j++ {
			if scan.comps[j] == idx {
				return nil, pos, fmt.Errorf("%w: duplicate scan component id %d", ErrInvalidHeader, cs)
			}
		}
		c := d.frame.components[idx]
		c.dcTableID = int(tt >> 4)
		c.acTableID = int(tt & 0x0F)
		if c.dcTableID > 3 || c.acTableID > 3 {
			return nil, pos, fmt.Errorf("%w: huffman table selector %#02x", ErrInvalidHeader, tt)
		}
		scan.comps[i] = idx
	}

	scan.ss = int(data[pos+3+2*ns])
	scan.se = int(data[pos+4+2*ns])
	scan.ah = int(data[pos+5+2*ns] >> 4)
	scan.al = int(data[pos+5+2*ns] & 0x0F)
	if scan.ss > 63 || scan.se > 63 {
		return nil, pos, fmt.Errorf("%w: spectral selection %d..%d", ErrBadProgressiveScan, scan.ss, scan.se)
	}
	if scan.ah > 13 || scan.al > 13 {
		return nil, pos, fmt.Errorf("%w: successive approximation %d/%d", ErrBadProgressiveScan, scan.ah, scan.al)
	}
	return scan, pos + l, nil
}

func parseDHT(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	end := pos + l
	p := pos + 2
	for p < end {
		if p+17 > end {
			return pos, fmt.Errorf("%w: truncated table definition", ErrBadHuffmanTable)
		}
		info := data[p]
		class := info >> 4
		id := info & 0x0F
		if class > 1 || id > 3 {
			return pos, fmt.Errorf("%w: table class %d id %d", ErrBadHuffmanTable, class, id)
		}

		var counts [17]uint8
		total := 0
		for i := 0; i < 16; i++ {
			counts[i+1] = data[p+1+i]
			total += int(counts[i+1])
		}
		if total > 256 || p+17+total > end {
			return pos, fmt.Errorf("%w: %d symbols in table", ErrBadHuffmanTable, total)
		}

		table, err := buildHuffmanTable(&counts, data[p+17:p+17+total])
		if err != nil {
			return pos, err
		}
		if class == 0 {
			d.dcTables[id] = table
		} else {
			d.acTables[id] = table
		}
		p += 17 + total
	}
	return end, nil
}

func parseDQT(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	end := pos + l
	p := pos + 2
	for p < end {
		info := data[p]
		prec := info >> 4
		id := info & 0x0F
		if prec > 1 || id > 3 {
			return pos, fmt.Errorf("%w: quantization table precision %d id %d", ErrInvalidHeader, prec, id)
		}
		n := 64
		if prec == 1 {
			n = 128
		}
		if p+1+n > end {
			return pos, fmt.Errorf("%w: truncated quantization table", ErrInvalidHeader)
		}

		table := new([64]int32)
		if prec == 0 {
			for i := 0; i < 64; i++ {
				table[unzigzag[i]] = int32(data[p+1+i])
			}
		} else {
			for i := 0; i < 64; i++ {
				table[unzigzag[i]] = int32(binary.BigEndian.Uint16(data[p+1+2*i:]))
			}
		}
		d.quantTables[id] = table
		p += 1 + n
	}
	return end, nil
}

func parseDRI(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	if l != 4 {
		return pos, fmt.Errorf("%w: DRI length %d", ErrInvalidHeader, l)
	}
	d.restartInterval = int(binary.BigEndian.Uint16(data[pos+2:]))
	return pos + l, nil
}

var (
	exifPrefix = []byte("Exif\x00\x00")
	iccPrefix  = []byte("ICC_PROFILE\x00")
	adobeMagic = []byte("Adobe")
)

// parseAPP1 captures EXIF payloads; other APP1 content (XMP) is
// skipped.
func parseAPP1(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	payload := data[pos+2 : pos+l]
	if bytes.HasPrefix(payload, exifPrefix) {
		d.exif = append([]byte(nil), payload[len(exifPrefix):]...)
	}
	return pos + l, nil
}

// parseAPP2 collects ICC profile chunks. The two framing bytes after
// the signature carry the chunk sequence number and total count; the
// chunks arrive in order in practice and are concatenated as seen.
func parseAPP2(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	payload := data[pos+2 : pos+l]
	if bytes.HasPrefix(payload, iccPrefix) && len(payload) >= len(iccPrefix)+2 {
		d.icc = append(d.icc, payload[len(iccPrefix)+2:]...)
	}
	return pos + l, nil
}

// parseAPP14 reads the Adobe transform byte, which disambiguates the
// input colorspace for 3- and 4-component frames.
func parseAPP14(data []byte, pos int, d *Decoder) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	payload := data[pos+2 : pos+l]
	if len(payload) >= 12 && bytes.HasPrefix(payload, adobeMagic) {
		t := int(payload[11])
		if t > 2 {
			return pos, fmt.Errorf("%w: Adobe transform %d", ErrInvalidHeader, t)
		}
		d.adobeTransform = t
	}
	return pos + l, nil
}

// skipSegment advances past a length-prefixed segment body.
func skipSegment(data []byte, pos int) (int, error) {
	l, err := segmentLength(data, pos)
	if err != nil {
		return pos, err
	}
	return pos + l, nil
}

// resolveInputColorspace maps the component count and any Adobe
// transform onto the stream colorspace.
func (d *Decoder) resolveInputColorspace() {
	f := &d.frame
	switch len(f.components) {
	case 1:
		f.inColor = ColorSpaceGrayscale
	case 3:
		if d.adobeTransform == 0 {
			f.inColor = ColorSpaceRGB
		} else {
			f.inColor = ColorSpaceYCbCr
		}
	case 4:
		if d.adobeTransform == 2 {
			f.inColor = ColorSpaceYCCK
		} else {
			f.inColor = ColorSpaceCMYK
		}
	}
}
