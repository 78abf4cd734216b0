package jpeg

// Test-side stream synthesis: a segment writer, an entropy bit writer
// with 0xFF00 stuffing, and a canonical Huffman encoder. The decoder
// tests build known streams with these and check the decoded pixels.

type streamWriter struct {
	buf []byte
}

func (w *streamWriter) bytes(bs ...byte) {
	w.buf = append(w.buf, bs...)
}

func (w *streamWriter) u16(v int) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *streamWriter) marker(m byte) {
	w.bytes(0xFF, m)
}

// segment writes marker m with a length-prefixed payload.
func (w *streamWriter) segment(m byte, payload []byte) {
	w.marker(m)
	w.u16(len(payload) + 2)
	w.buf = append(w.buf, payload...)
}

// entropyWriter packs MSB-first bits into bytes, stuffing a zero byte
// after every emitted 0xFF per T.81 F.1.2.3.
type entropyWriter struct {
	buf  []byte
	acc  uint32
	nacc int
}

func (w *entropyWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.acc = w.acc<<1 | v>>uint(i)&1
		w.nacc++
		if w.nacc == 8 {
			b := byte(w.acc)
			w.buf = append(w.buf, b)
			if b == 0xFF {
				w.buf = append(w.buf, 0x00)
			}
			w.acc, w.nacc = 0, 0
		}
	}
}

// flush pads the final byte with 1 bits.
func (w *entropyWriter) flush() {
	for w.nacc != 0 {
		w.writeBits(1, 1)
	}
}

type hcode struct {
	code uint32
	n    int
}

// huffmanCodes performs the canonical code assignment for the
// encode side.
func huffmanCodes(counts *[17]uint8, symbols []byte) map[uint8]hcode {
	codes := make(map[uint8]hcode, len(symbols))
	code := uint32(0)
	k := 0
	for l := 1; l <= 16; l++ {
		for range int(counts[l]) {
			codes[symbols[k]] = hcode{code: code, n: l}
			code++
			k++
		}
		code <<= 1
	}
	return codes
}

// flatCounts/flatSymbols describe a table granting every symbol
// 0x00..0xFE an 8-bit code, so any run/category pair is encodable.
func flatCounts() *[17]uint8 {
	var c [17]uint8
	c[8] = 255
	return &c
}

func flatSymbols() []byte {
	s := make([]byte, 255)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

// bitCategory returns the magnitude category of v, the bit length of
// |v|.
func bitCategory(v int32) int {
	a := v
	if a < 0 {
		a = -a
	}
	n := 0
	for a != 0 {
		n++
		a >>= 1
	}
	return n
}

// coeffBits returns the extend-coded magnitude bits for v in category
// cat.
func coeffBits(v int32, cat int) uint32 {
	if v < 0 {
		v += 1<<cat - 1
	}
	return uint32(v) & (1<<cat - 1)
}

// blockEncoder writes baseline and progressive entropy data against a
// single code table pair.
type blockEncoder struct {
	bw     entropyWriter
	dc     map[uint8]hcode
	ac     map[uint8]hcode
	dcPred [4]int32
}

func newBlockEncoder() *blockEncoder {
	codes := huffmanCodes(flatCounts(), flatSymbols())
	return &blockEncoder{dc: codes, ac: codes}
}

func (e *blockEncoder) emit(codes map[uint8]hcode, sym uint8) {
	c := codes[sym]
	e.bw.writeBits(c.code, c.n)
}

// encodeDC writes one DC difference for component slot ci.
func (e *blockEncoder) encodeDC(ci int, dc int32) {
	diff := dc - e.dcPred[ci]
	e.dcPred[ci] = dc
	cat := bitCategory(diff)
	e.emit(e.dc, uint8(cat))
	e.bw.writeBits(coeffBits(diff, cat), cat)
}

// encodeACs run-length codes blk's zigzag positions 1..63, ending
// with EOB when they trail off in zeros.
func (e *blockEncoder) encodeACs(blk *[64]int32) {
	run := 0
	for pos := 1; pos < 64; pos++ {
		v := blk[unzigzag[pos]]
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			e.emit(e.ac, 0xF0)
			run -= 16
		}
		cat := bitCategory(v)
		e.emit(e.ac, uint8(run<<4|cat))
		e.bw.writeBits(coeffBits(v, cat), cat)
		run = 0
	}
	if run > 0 {
		e.emit(e.ac, 0x00)
	}
}

// encodeBlock writes one baseline block: DC difference then ACs. blk
// holds quantized coefficients in natural order.
func (e *blockEncoder) encodeBlock(ci int, blk *[64]int32) {
	e.encodeDC(ci, blk[0])
	e.encodeACs(blk)
}

// restart flushes to a byte boundary, emits RSTn, and resets the
// predictors.
func (e *blockEncoder) restart(n int) {
	e.bw.flush()
	e.bw.buf = append(e.bw.buf, 0xFF, markerRST0+byte(n&7))
	e.dcPred = [4]int32{}
}

func (e *blockEncoder) finish() []byte {
	e.bw.flush()
	return e.bw.buf
}

// Segment payload builders.

func dqtPayload(id byte, q *[64]int32) []byte {
	p := make([]byte, 0, 65)
	p = append(p, id)
	for i := range 64 {
		p = append(p, byte(q[unzigzag[i]]))
	}
	return p
}

func dhtPayload(class, id byte, counts *[17]uint8, symbols []byte) []byte {
	p := make([]byte, 0, 17+len(symbols))
	p = append(p, class<<4|id)
	p = append(p, counts[1:]...)
	return append(p, symbols...)
}

type sofComp struct {
	id      byte
	h, v    byte
	quantID byte
}

func sofPayload(w, h int, comps []sofComp) []byte {
	p := []byte{8, byte(h >> 8), byte(h), byte(w >> 8), byte(w), byte(len(comps))}
	for _, c := range comps {
		p = append(p, c.id, c.h<<4|c.v, c.quantID)
	}
	return p
}

type sosComp struct {
	id  byte
	dcT byte
	acT byte
}

func sosPayload(comps []sosComp, ss, se, ah, al int) []byte {
	p := []byte{byte(len(comps))}
	for _, c := range comps {
		p = append(p, c.id, c.dcT<<4|c.acT)
	}
	return append(p, byte(ss), byte(se), byte(ah)<<4|byte(al))
}

func driPayload(interval int) []byte {
	return []byte{byte(interval >> 8), byte(interval)}
}

// unitQuant is the all-ones quantization table; with it the decoded
// coefficients equal the coded values.
func unitQuant() *[64]int32 {
	q := new([64]int32)
	for i := range q {
		q[i] = 1
	}
	return q
}

// grayDC returns the DC coefficient that renders as sample value g
// through the DC-only transform.
func grayDC(g int32) int32 {
	return 8*g - 1024
}

// writeTablesAndFrame emits the shared preamble: SOI, unit DQT 0, a
// flat DHT as DC 0 and AC 0, and the SOF.
func writeTablesAndFrame(w *streamWriter, progressive bool, width, height int, comps []sofComp) {
	w.marker(markerSOI)
	w.segment(markerDQT, dqtPayload(0, unitQuant()))
	w.segment(markerDHT, dhtPayload(0, 0, flatCounts(), flatSymbols()))
	w.segment(markerDHT, dhtPayload(1, 0, flatCounts(), flatSymbols()))
	sof := markerSOF0
	if progressive {
		sof = markerSOF2
	}
	w.segment(sof, sofPayload(width, height, comps))
}

// buildBaselineGray builds a complete single-component stream whose
// blocks carry only the given DC values, block grid row-major.
func buildBaselineGray(width, height int, dcs []int32) []byte {
	var w streamWriter
	writeTablesAndFrame(&w, false, width, height, []sofComp{{id: 1, h: 1, v: 1}})
	w.segment(markerSOS, sosPayload([]sosComp{{id: 1}}, 0, 63, 0, 0))

	e := newBlockEncoder()
	var blk [64]int32
	for _, dc := range dcs {
		blk[0] = dc
		e.encodeBlock(0, &blk)
	}
	w.buf = append(w.buf, e.finish()...)
	w.marker(markerEOI)
	return w.buf
}
