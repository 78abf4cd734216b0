package jpeg

import (
	"errors"
	"testing"
)

func TestDecodeBlockBaseline(t *testing.T) {
	// Quantized coefficients at zigzag 0, 1 and 5; natural positions
	// 0, 1 and 2.
	var src [64]int32
	src[0] = 5
	src[1] = -3
	src[2] = 7

	quant := unitQuant()
	quant[0] = 16
	quant[1] = 2
	quant[2] = 3

	e := newBlockEncoder()
	e.encodeBlock(0, &src)
	br := newBitReader(e.finish(), 0)

	c := testComponent(t, quant)
	var blk [64]int32
	n, err := decodeBlockBaseline(br, c, &blk)
	if err != nil {
		t.Fatalf("decodeBlockBaseline() error: %v", err)
	}

	// Zigzag 5 is the highest occupied index.
	if n != 6 {
		t.Errorf("n = %d, want 6", n)
	}
	want := [64]int32{0: 5 * 16, 1: -3 * 2, 2: 7 * 3}
	if blk != want {
		t.Errorf("blk = %v, want %v", blk, want)
	}
	if c.dcPred != 5 {
		t.Errorf("dcPred = %d, want 5", c.dcPred)
	}
}

func TestDecodeBlockBaseline_DCPredAccumulates(t *testing.T) {
	e := newBlockEncoder()
	var b1, b2 [64]int32
	b1[0] = 10
	b2[0] = 25
	e.encodeBlock(0, &b1)
	e.encodeBlock(0, &b2)
	br := newBitReader(e.finish(), 0)

	c := testComponent(t, unitQuant())
	var blk [64]int32
	if _, err := decodeBlockBaseline(br, c, &blk); err != nil {
		t.Fatalf("decodeBlockBaseline() block 0 error: %v", err)
	}
	if blk[0] != 10 {
		t.Errorf("block 0 DC = %d, want 10", blk[0])
	}

	clear(blk[:])
	if _, err := decodeBlockBaseline(br, c, &blk); err != nil {
		t.Fatalf("decodeBlockBaseline() block 1 error: %v", err)
	}
	if blk[0] != 25 {
		t.Errorf("block 1 DC = %d, want 25", blk[0])
	}
}

func TestDecodeBlockBaseline_ZeroRun(t *testing.T) {
	// Sixteen zeros before the coefficient force a ZRL symbol.
	var src [64]int32
	src[unzigzag[17]] = 9

	e := newBlockEncoder()
	e.encodeBlock(0, &src)
	br := newBitReader(e.finish(), 0)

	c := testComponent(t, unitQuant())
	var blk [64]int32
	n, err := decodeBlockBaseline(br, c, &blk)
	if err != nil {
		t.Fatalf("decodeBlockBaseline() error: %v", err)
	}
	if n != 18 {
		t.Errorf("n = %d, want 18", n)
	}
	if blk[unzigzag[17]] != 9 {
		t.Errorf("blk[%d] = %d, want 9", unzigzag[17], blk[unzigzag[17]])
	}
}

func TestDecodeBlockBaseline_BadDCCategory(t *testing.T) {
	e := newBlockEncoder()
	e.emit(e.dc, 12)
	br := newBitReader(e.finish(), 0)

	c := testComponent(t, unitQuant())
	var blk [64]int32
	if _, err := decodeBlockBaseline(br, c, &blk); !errors.Is(err, ErrCorruptData) {
		t.Errorf("decodeBlockBaseline() error = %v, want %v", err, ErrCorruptData)
	}
}

func TestDecodeBlockBaseline_RunPastEnd(t *testing.T) {
	// Three ZRLs put the cursor at zigzag 49; a (15,1) symbol then
	// overshoots the block.
	e := newBlockEncoder()
	e.emit(e.dc, 0)
	e.emit(e.ac, 0xF0)
	e.emit(e.ac, 0xF0)
	e.emit(e.ac, 0xF0)
	e.emit(e.ac, 0xF1)
	e.bw.writeBits(1, 1)
	br := newBitReader(e.finish(), 0)

	c := testComponent(t, unitQuant())
	var blk [64]int32
	if _, err := decodeBlockBaseline(br, c, &blk); !errors.Is(err, ErrCorruptData) {
		t.Errorf("decodeBlockBaseline() error = %v, want %v", err, ErrCorruptData)
	}
}

func TestRestartBoundary(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		strict   bool
		wantStop bool
		wantErr  bool
		// marker left pending on the reader afterwards
		wantPending byte
	}{
		{
			name: "restart marker resyncs",
			data: []byte{0xFF, 0xD0, 0xAA},
		},
		{
			name:        "foreign marker stops the scan",
			data:        []byte{0xFF, 0xDC},
			wantStop:    true,
			wantPending: 0xDC,
		},
		{
			name:    "foreign marker is an error when strict",
			data:    []byte{0xFF, 0xDC},
			strict:  true,
			wantErr: true,
		},
		{
			name: "missing marker tolerated",
			data: []byte{0xAB},
		},
		{
			name:    "missing marker is an error when strict",
			data:    []byte{0xAB},
			strict:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Decoder{}
			d.opts.Strict = tt.strict
			c := testComponent(t, unitQuant())
			c.dcPred = 99
			d.frame.components = []*component{c}
			d.eobRun = 7

			scan := &scanHeader{ncomp: 1}
			br := newBitReader(tt.data, 0)
			if tt.data[0] == 0xAB {
				// Consume the data byte so no marker is pending.
				br.getBits(8)
			} else {
				br.refill()
			}

			stop, err := d.restartBoundary(br, scan)
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptData) {
					t.Fatalf("restartBoundary() error = %v, want %v", err, ErrCorruptData)
				}
				return
			}
			if err != nil {
				t.Fatalf("restartBoundary() unexpected error: %v", err)
			}
			if stop != tt.wantStop {
				t.Errorf("stop = %v, want %v", stop, tt.wantStop)
			}
			if br.marker != tt.wantPending {
				t.Errorf("pending marker = %#02x, want %#02x", br.marker, tt.wantPending)
			}
			if stop {
				// Scan abandoned; predictor state no longer matters.
				return
			}
			if c.dcPred != 0 {
				t.Errorf("dcPred = %d, want 0 after boundary", c.dcPred)
			}
			if d.eobRun != 0 {
				t.Errorf("eobRun = %d, want 0 after boundary", d.eobRun)
			}
		})
	}
}

func TestRestartBoundary_ResumesAfterReset(t *testing.T) {
	d := &Decoder{}
	c := testComponent(t, unitQuant())
	d.frame.components = []*component{c}
	scan := &scanHeader{ncomp: 1}

	br := newBitReader([]byte{0xFF, 0xD3, 0x5C}, 0)
	br.refill()

	stop, err := d.restartBoundary(br, scan)
	if err != nil || stop {
		t.Fatalf("restartBoundary() = %v, %v, want false, nil", stop, err)
	}
	// After the reset the reader continues byte-aligned at the data
	// following the marker.
	if got := br.getBits(8); got != 0x5C {
		t.Errorf("getBits(8) after restart = %#x, want 0x5C", got)
	}
}

// testComponent builds a component wired to flat Huffman tables.
func testComponent(t *testing.T, quant *[64]int32) *component {
	t.Helper()
	tbl, err := buildHuffmanTable(flatCounts(), flatSymbols())
	if err != nil {
		t.Fatalf("buildHuffmanTable() error: %v", err)
	}
	return &component{dcTable: tbl, acTable: tbl, quant: quant}
}
