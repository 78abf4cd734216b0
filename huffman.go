package jpeg

import "fmt"

// unzigzag maps a zigzag transmission index to its natural raster
// position in an 8x8 block. The 16 trailing 63s absorb run-length
// overshoots from corrupt streams so writes stay in bounds while the
// error is detected.
var unzigzag = [64 + 16]uint8{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
	63, 63, 63, 63, 63, 63, 63, 63,
	63, 63, 63, 63, 63, 63, 63, 63,
}

// lookupBits is the peek width of the single-step decode table. Codes
// up to this length resolve in one lookup; longer codes (10-16 bits)
// go through the canonical mincode/maxcode walk.
const lookupBits = 9

// maxDCCategory bounds DC magnitude categories for 8-bit precision.
const maxDCCategory = 11

// huffmanTable is a canonical JPEG Huffman decode table built from the
// 16 code-length counts and ordered symbol list of a DHT segment.
type huffmanTable struct {
	// fast maps a lookupBits-wide prefix to length<<8 | symbol.
	// A zero entry means no code of length <= lookupBits matches.
	fast [1 << lookupBits]uint16

	// Canonical bounds per code length, index 1..16. maxcode is -1
	// for lengths with no codes.
	mincode [17]int32
	maxcode [17]int32
	valptr  [17]int32

	symbols [256]uint8
}

// buildHuffmanTable constructs the decode structures from counts
// (1-indexed by code length) and symbols in transmission order.
// Canonical assignment per ITU-T T.81 Annex C: codes increment within
// a length and shift left by one when the length grows. A length whose
// codes overflow its code space makes the table over-subscribed.
func buildHuffmanTable(counts *[17]uint8, symbols []byte) (*huffmanTable, error) {
	t := &huffmanTable{}
	copy(t.symbols[:], symbols)

	code := int32(0)
	k := int32(0)
	var codes [256]int32
	var sizes [256]uint8

	for l := 1; l <= 16; l++ {
		t.valptr[l] = k
		t.mincode[l] = code
		for i := 0; i < int(counts[l]); i++ {
			if code >= 1<<l {
				return nil, fmt.Errorf("%w: over-subscribed code lengths", ErrBadHuffmanTable)
			}
			if k >= 256 {
				return nil, fmt.Errorf("%w: more than 256 symbols", ErrBadHuffmanTable)
			}
			codes[k] = code
			sizes[k] = uint8(l)
			code++
			k++
		}
		t.maxcode[l] = code - 1
		code <<= 1
	}

	for i := int32(0); i < k; i++ {
		size := int(sizes[i])
		if size > lookupBits {
			continue
		}
		entry := uint16(size)<<8 | uint16(t.symbols[i])
		first := codes[i] << (lookupBits - size)
		span := int32(1) << (lookupBits - size)
		for j := int32(0); j < span; j++ {
			t.fast[first+j] = entry
		}
	}
	return t, nil
}

// decodeSymbol reads one Huffman-coded symbol. The bit reader keeps at
// least 16 bits buffered after a refill, so both the fast lookup and
// the long-code walk peek without re-checking availability.
func (t *huffmanTable) decodeSymbol(br *bitReader) (uint8, error) {
	br.refill()

	if e := t.fast[br.peekBits(lookupBits)]; e != 0 {
		br.consumeBits(int(e >> 8))
		return uint8(e), nil
	}
	for l := lookupBits + 1; l <= 16; l++ {
		code := int32(br.peekBits(l))
		if code <= t.maxcode[l] {
			br.consumeBits(l)
			return t.symbols[t.valptr[l]+code-t.mincode[l]], nil
		}
	}
	return 0, fmt.Errorf("%w: invalid huffman prefix", ErrCorruptData)
}

// receiveExtend reads cat magnitude bits and sign-extends them per the
// T.81 convention: values with a clear top bit are negative and offset
// by -(2^cat - 1).
func receiveExtend(br *bitReader, cat uint8) int32 {
	if cat == 0 {
		return 0
	}
	v := int32(br.getBits(int(cat)))
	if v < 1<<(cat-1) {
		v -= (1 << cat) - 1
	}
	return v
}
