package jpeg

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBuildHuffmanTable(t *testing.T) {
	tests := []struct {
		name    string
		counts  func() *[17]uint8
		symbols []byte
		wantErr error
	}{
		{
			name: "single code",
			counts: func() *[17]uint8 {
				var c [17]uint8
				c[1] = 1
				return &c
			},
			symbols: []byte{0x05},
		},
		{
			name:    "flat eight bit table",
			counts:  flatCounts,
			symbols: flatSymbols(),
		},
		{
			name: "full two bit table",
			counts: func() *[17]uint8 {
				var c [17]uint8
				c[2] = 4
				return &c
			},
			symbols: []byte{1, 2, 3, 4},
		},
		{
			name: "over-subscribed lengths",
			counts: func() *[17]uint8 {
				var c [17]uint8
				c[1] = 2
				c[2] = 1
				return &c
			},
			symbols: []byte{1, 2, 3},
			wantErr: ErrBadHuffmanTable,
		},
		{
			name: "too many symbols",
			counts: func() *[17]uint8 {
				var c [17]uint8
				c[8] = 255
				c[9] = 2
				return &c
			},
			symbols: make([]byte, 257),
			wantErr: ErrBadHuffmanTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildHuffmanTable(tt.counts(), tt.symbols)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("buildHuffmanTable() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("buildHuffmanTable() unexpected error: %v", err)
			}
		})
	}
}

func TestHuffmanDecodeSymbol(t *testing.T) {
	// One 1-bit code and two 12-bit codes, so decoding exercises both
	// the fast lookup and the canonical long-code walk.
	var counts [17]uint8
	counts[1] = 1
	counts[12] = 2
	symbols := []byte{0x05, 0x21, 0x22}

	tbl, err := buildHuffmanTable(&counts, symbols)
	if err != nil {
		t.Fatalf("buildHuffmanTable() error: %v", err)
	}

	// Canonical assignment: 0x05 is the single bit 0, 0x21 and 0x22
	// are the 12-bit codes 0x800 and 0x801.
	var w entropyWriter
	w.writeBits(0, 1)
	w.writeBits(0x800, 12)
	w.writeBits(0x801, 12)
	w.writeBits(0, 1)
	w.flush()

	br := newBitReader(w.buf, 0)
	for i, want := range []uint8{0x05, 0x21, 0x22, 0x05} {
		got, err := tbl.decodeSymbol(br)
		if err != nil {
			t.Fatalf("decodeSymbol() symbol %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("decodeSymbol() symbol %d = %#02x, want %#02x", i, got, want)
		}
	}
}

func TestHuffmanDecodeSymbol_InvalidPrefix(t *testing.T) {
	// The only code is the single bit 0; a stream starting with 1 can
	// never resolve.
	var counts [17]uint8
	counts[1] = 1
	tbl, err := buildHuffmanTable(&counts, []byte{0x0A})
	if err != nil {
		t.Fatalf("buildHuffmanTable() error: %v", err)
	}

	br := newBitReader([]byte{0xFF, 0x00, 0xFF, 0x00}, 0)
	if _, err := tbl.decodeSymbol(br); !errors.Is(err, ErrCorruptData) {
		t.Errorf("decodeSymbol() error = %v, want %v", err, ErrCorruptData)
	}
}

func TestHuffmanDecodeSymbol_ZeroPadding(t *testing.T) {
	// Past the end of input the reader feeds zero bits, which resolve
	// to the all-zeros code. For the flat table that is symbol 0x00,
	// the end-of-block symbol, so truncated scans wind down instead of
	// failing mid-block.
	tbl, err := buildHuffmanTable(flatCounts(), flatSymbols())
	if err != nil {
		t.Fatalf("buildHuffmanTable() error: %v", err)
	}

	br := newBitReader(nil, 0)
	got, err := tbl.decodeSymbol(br)
	if err != nil {
		t.Fatalf("decodeSymbol() on empty input: unexpected error: %v", err)
	}
	if got != 0x00 {
		t.Errorf("decodeSymbol() on empty input = %#02x, want 0x00", got)
	}
	if br.consumedPadBits() == 0 {
		t.Error("consumedPadBits() = 0, want > 0 after decoding from padding")
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	tbl, err := buildHuffmanTable(flatCounts(), flatSymbols())
	if err != nil {
		t.Fatalf("buildHuffmanTable() error: %v", err)
	}
	codes := huffmanCodes(flatCounts(), flatSymbols())

	rng := rand.New(rand.NewSource(1))
	syms := make([]uint8, 1000)
	for i := range syms {
		syms[i] = uint8(rng.Intn(255))
	}

	var w entropyWriter
	for _, s := range syms {
		c := codes[s]
		w.writeBits(c.code, c.n)
	}
	w.flush()

	br := newBitReader(w.buf, 0)
	for i, want := range syms {
		got, err := tbl.decodeSymbol(br)
		if err != nil {
			t.Fatalf("decodeSymbol() symbol %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Fatalf("decodeSymbol() symbol %d = %#02x, want %#02x", i, got, want)
		}
	}
}

func TestReceiveExtend(t *testing.T) {
	tests := []struct {
		name string
		cat  uint8
		bits uint32
		want int32
	}{
		{name: "category zero", cat: 0, bits: 0, want: 0},
		{name: "one bit positive", cat: 1, bits: 1, want: 1},
		{name: "one bit negative", cat: 1, bits: 0, want: -1},
		{name: "two bits low negative", cat: 2, bits: 0, want: -3},
		{name: "two bits high negative", cat: 2, bits: 1, want: -2},
		{name: "two bits low positive", cat: 2, bits: 2, want: 2},
		{name: "two bits high positive", cat: 2, bits: 3, want: 3},
		{name: "eight bits max", cat: 8, bits: 0xFF, want: 255},
		{name: "eight bits min", cat: 8, bits: 0x00, want: -255},
		{name: "eleven bits max", cat: 11, bits: 0x7FF, want: 2047},
		{name: "eleven bits min", cat: 11, bits: 0x000, want: -2047},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w entropyWriter
			if tt.cat > 0 {
				w.writeBits(tt.bits, int(tt.cat))
			}
			w.flush()

			br := newBitReader(w.buf, 0)
			if got := receiveExtend(br, tt.cat); got != tt.want {
				t.Errorf("receiveExtend(cat=%d, bits=%#x) = %d, want %d", tt.cat, tt.bits, got, tt.want)
			}
		})
	}
}

func TestReceiveExtend_CoeffBitsInverse(t *testing.T) {
	// The writer's extend coding and receiveExtend are inverses over
	// the whole 11-category range.
	for _, v := range []int32{1, -1, 2, -2, 3, -3, 127, -128, 255, -255, 1023, -1024, 2047, -2047} {
		cat := bitCategory(v)
		var w entropyWriter
		w.writeBits(coeffBits(v, cat), cat)
		w.flush()

		br := newBitReader(w.buf, 0)
		if got := receiveExtend(br, uint8(cat)); got != v {
			t.Errorf("receiveExtend(coeffBits(%d)) = %d", v, got)
		}
	}
}
