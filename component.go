package jpeg

import (
	"fmt"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

// upsampleKind selects how a component reaches full resolution.
type upsampleKind int

const (
	upsampleNone upsampleKind = iota
	upsampleH                 // horizontal x2
	upsampleV                 // vertical x2
	upsampleHV                // both x2
	upsampleGeneric           // nearest neighbor for other factors
)

// component carries one frame component's parameters and decode state:
// the SOF descriptor fields, the per-scan table selectors, the derived
// block geometry, and the sample plane the IDCT writes into.
type component struct {
	id      uint8
	hSample int
	vSample int
	quantID uint8

	quant *[64]int32 // resolved from quantID at each scan

	// Per-scan Huffman selectors, rebound at each SOS.
	dcTableID int
	acTableID int
	dcTable   *huffmanTable
	acTable   *huffmanTable

	// Sample geometry. sampleW/H is the true subsampled extent,
	// the block grid is MCU-aligned and may extend past it.
	sampleW     int
	sampleH     int
	xBlocks     int // blocks per row, mcuX * hSample
	yBlocks     int // block rows, mcuY * vSample
	widthStride int // xBlocks * 8

	dcPred int32

	// needed is false when the requested output never reads this
	// component (grayscale output from a YCbCr stream); its blocks
	// are still entropy-decoded but skip reconstruction.
	needed bool

	// scanned is set once a scan covers the component. Baseline
	// planes no scan touched render neutral gray.
	scanned bool

	// plane holds spatial samples after IDCT, one row per Row(y),
	// widthStride wide and yBlocks*8 tall.
	plane     *hwyimage.Image[int32]
	planeRows [][]int32

	// coeffs is the progressive coefficient arena: xBlocks*yBlocks
	// blocks of 64, natural order within each block.
	coeffs []int32

	upKind upsampleKind
}

// setupComponents derives the MCU grid and per-component geometry
// after SOF. Single-component frames always decode non-interleaved,
// so their sampling factors collapse to 1x1.
func (d *Decoder) setupComponents() error {
	f := &d.frame
	if len(f.components) == 1 {
		c := f.components[0]
		if (c.hSample != 1 || c.vSample != 1) && f.progressive && d.opts.Strict {
			return fmt.Errorf("%w: single component frame declares %dx%d sampling",
				ErrBadProgressiveScan, c.hSample, c.vSample)
		}
		c.hSample = 1
		c.vSample = 1
	}

	f.hMax, f.vMax = 1, 1
	for _, c := range f.components {
		f.hMax = max(f.hMax, c.hSample)
		f.vMax = max(f.vMax, c.vSample)
	}

	f.mcuX = ceilDiv(f.width, 8*f.hMax)
	f.mcuY = ceilDiv(f.height, 8*f.vMax)

	for _, c := range f.components {
		c.sampleW = ceilDiv(f.width*c.hSample, f.hMax)
		c.sampleH = ceilDiv(f.height*c.vSample, f.vMax)
		c.xBlocks = f.mcuX * c.hSample
		c.yBlocks = f.mcuY * c.vSample
		c.widthStride = c.xBlocks * 8
		c.needed = true

		switch {
		case c.hSample == f.hMax && c.vSample == f.vMax:
			c.upKind = upsampleNone
		case c.hSample*2 == f.hMax && c.vSample == f.vMax:
			c.upKind = upsampleH
		case c.hSample == f.hMax && c.vSample*2 == f.vMax:
			c.upKind = upsampleV
		case c.hSample*2 == f.hMax && c.vSample*2 == f.vMax:
			c.upKind = upsampleHV
		default:
			c.upKind = upsampleGeneric
		}
	}
	return nil
}

// allocPlanes sizes each component's sample plane. Planes are aligned
// hwy images so the row-wise reconstruction stages stay on SIMD-fit
// rows; allocation goes through the plane pool in simd.go.
func (d *Decoder) allocPlanes() {
	for _, c := range d.frame.components {
		h := c.yBlocks * 8
		c.plane = getPlane(c.widthStride, h)
		c.planeRows = planeRows(c.plane, h)
	}
}

// releasePlanes returns pooled planes once pixels are assembled.
func (d *Decoder) releasePlanes() {
	for _, c := range d.frame.components {
		if c.plane != nil {
			putPlane(c.plane)
			c.plane = nil
			c.planeRows = nil
		}
	}
}

// allocCoeffs sizes the progressive coefficient arenas.
func (d *Decoder) allocCoeffs() error {
	for _, c := range d.frame.components {
		n := c.xBlocks * c.yBlocks * 64
		if n <= 0 {
			return fmt.Errorf("%w: empty component grid", ErrInvalidHeader)
		}
		c.coeffs = make([]int32, n)
	}
	return nil
}

// bindScanTables resolves the table ids captured at SOS into table
// pointers, failing on references to tables that were never defined.
func (d *Decoder) bindScanTables(scan *scanHeader) error {
	for i := 0; i < scan.ncomp; i++ {
		c := d.frame.components[scan.comps[i]]
		c.scanned = true
		c.quant = d.quantTables[c.quantID]
		if c.quant == nil {
			return fmt.Errorf("%w: quantization table %d not defined", ErrInvalidHeader, c.quantID)
		}
		// DC tables are unused by AC-only progressive scans and vice
		// versa; only resolve what the scan will read.
		needDC := !d.frame.progressive || scan.ss == 0
		needAC := !d.frame.progressive || scan.se > 0
		if d.frame.progressive && scan.ss == 0 && scan.ah != 0 {
			// DC refinement reads raw bits, no table.
			needDC = false
		}
		if needDC {
			c.dcTable = d.dcTables[c.dcTableID]
			if c.dcTable == nil {
				return fmt.Errorf("%w: DC table %d not defined", ErrInvalidHeader, c.dcTableID)
			}
		}
		if needAC {
			c.acTable = d.acTables[c.acTableID]
			if c.acTable == nil {
				return fmt.Errorf("%w: AC table %d not defined", ErrInvalidHeader, c.acTableID)
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
