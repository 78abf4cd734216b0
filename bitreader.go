package jpeg

import "encoding/binary"

// bitReader is a bit-level cursor over an entropy-coded segment. It
// keeps a 64-bit accumulator topped up to at least 57 bits, removes
// 0xFF00 byte stuffing, and stops consuming input at a marker (0xFF
// followed by a non-zero byte). Once input or the segment ends, the
// accumulator is padded with zero bits so peeks never fail; overread
// counts the synthesized bytes so callers can tell a truncated stream
// from a clean one.
type bitReader struct {
	data []byte
	pos  int

	// buf holds bitCount valid bits in its low end, oldest bit
	// highest. Peeks read from the top, refills shift in at the
	// bottom.
	buf      uint64
	bitCount int

	marker   byte // pending marker byte, 0 when none
	overread int  // zero bytes synthesized after input/marker stop
}

func newBitReader(data []byte, pos int) *bitReader {
	return &bitReader{data: data, pos: pos}
}

// hasByteFF reports whether any byte of v is 0xFF.
func hasByteFF(v uint32) bool {
	x := ^v
	return (x-0x01010101)&^x&0x80808080 != 0
}

// refill tops the accumulator up to 57-64 valid bits. Real input is
// consumed 32 bits at a time while the window is clear of 0xFF, then
// byte by byte through the stuffing/marker cases.
func (br *bitReader) refill() {
	if br.bitCount > 56 {
		return
	}
	for br.marker == 0 && br.bitCount <= 32 && br.pos+4 <= len(br.data) {
		v := binary.BigEndian.Uint32(br.data[br.pos:])
		if hasByteFF(v) {
			break
		}
		br.buf = br.buf<<32 | uint64(v)
		br.bitCount += 32
		br.pos += 4
	}
	for br.bitCount <= 56 {
		if br.marker != 0 || br.pos >= len(br.data) {
			br.buf <<= 8
			br.bitCount += 8
			br.overread++
			continue
		}
		b := br.data[br.pos]
		if b != 0xFF {
			br.buf = br.buf<<8 | uint64(b)
			br.bitCount += 8
			br.pos++
			continue
		}
		// 0xFF opens either a stuffed byte, a run of fill bytes, or
		// a marker.
		i := br.pos + 1
		for i < len(br.data) && br.data[i] == 0xFF {
			i++
		}
		if i >= len(br.data) {
			// Dangling 0xFF run at end of input.
			br.pos = i
			continue
		}
		if br.data[i] == 0x00 {
			br.buf = br.buf<<8 | 0xFF
			br.bitCount += 8
			br.pos = i + 1
			continue
		}
		br.marker = br.data[i]
		br.pos = i + 1
	}
}

// peekBits returns the next n buffered bits without consuming them.
// n must not exceed bitCount; refill guarantees at least 57.
func (br *bitReader) peekBits(n int) uint32 {
	return uint32(br.buf>>(br.bitCount-n)) & (1<<n - 1)
}

func (br *bitReader) consumeBits(n int) {
	br.bitCount -= n
}

// getBits consumes and returns the next n bits, n in 1..32.
func (br *bitReader) getBits(n int) uint32 {
	br.refill()
	v := br.peekBits(n)
	br.bitCount -= n
	return v
}

func (br *bitReader) getBit() uint32 {
	return br.getBits(1)
}

// has reports whether n bits are buffered without refilling.
func (br *bitReader) has(n int) bool {
	return br.bitCount >= n
}

// takeMarker returns the pending marker byte, clearing it, or 0.
func (br *bitReader) takeMarker() byte {
	m := br.marker
	br.marker = 0
	return m
}

// reset drops all buffered bits and the truncation accounting. Called
// after a restart marker so decoding resumes byte-aligned at pos.
func (br *bitReader) reset() {
	br.buf = 0
	br.bitCount = 0
	br.marker = 0
	br.overread = 0
}

// exhausted reports whether the reader is feeding synthesized bits,
// either past a marker or past the end of input.
func (br *bitReader) exhausted() bool {
	return br.marker != 0 || br.pos >= len(br.data)
}

// consumedPadBits reports how many synthesized bits have actually been
// consumed. Synthesized bytes are always the newest bits, so the
// unconsumed tail overlaps them first; anything consumed beyond that
// tail was decoded as data, which only happens when the segment
// under-ran.
func (br *bitReader) consumedPadBits() int {
	p := br.overread*8 - br.bitCount
	if p < 0 {
		return 0
	}
	return p
}
