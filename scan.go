package jpeg

import (
	"fmt"
)

// Baseline entropy decoding. One scratch block feeds the IDCT
// directly, so sequential frames never materialize a coefficient
// arena. Between blocks the scratch is cleared only as far as the
// previous block dirtied it: coefficients that stayed inside the
// top-left 4x4 region leave everything past index 31 zero.

// neutralBlock stays all zero; running the DC-only transform on it
// paints mid-gray, the fill for regions the entropy stream never
// reached.
var neutralBlock [64]int32

// decodeScanBaseline runs one SOS worth of MCUs. Interleaved scans
// walk the frame MCU grid; single-component scans walk that
// component's own block grid per T.81 A.2.
func (d *Decoder) decodeScanBaseline(br *bitReader, scan *scanHeader) error {
	if err := d.bindScanTables(scan); err != nil {
		return err
	}
	for i := 0; i < scan.ncomp; i++ {
		d.frame.components[scan.comps[i]].dcPred = 0
	}

	if scan.interleaved() {
		return d.decodeInterleaved(br, scan)
	}
	return d.decodeSingle(br, scan)
}

func (d *Decoder) decodeInterleaved(br *bitReader, scan *scanHeader) error {
	fr := &d.frame
	var blk [64]int32
	prevFull := false

	todo := d.restartInterval
	total := fr.mcuX * fr.mcuY

	for mcu := 0; mcu < total; mcu++ {
		mx := mcu % fr.mcuX
		my := mcu / fr.mcuX

		for i := 0; i < scan.ncomp; i++ {
			c := fr.components[scan.comps[i]]
			for v := 0; v < c.vSample; v++ {
				for h := 0; h < c.hSample; h++ {
					if prevFull {
						clear(blk[:])
					} else {
						clear(blk[:32])
					}
					n, err := decodeBlockBaseline(br, c, &blk)
					if err != nil {
						return d.entropyAbort(br, scan, mcu, err)
					}
					if c.needed {
						d.renderBlock(c, &blk, n, mx*c.hSample+h, my*c.vSample+v)
					}
					prevFull = n > 10
				}
			}
		}

		if d.restartInterval > 0 && mcu != total-1 {
			todo--
			if todo == 0 {
				todo = d.restartInterval
				stop, err := d.restartBoundary(br, scan)
				if err != nil {
					return err
				}
				if stop {
					d.neutralFill(scan, mcu+1)
					return nil
				}
			}
		}
	}

	return d.scanTail(br)
}

func (d *Decoder) decodeSingle(br *bitReader, scan *scanHeader) error {
	c := d.frame.components[scan.comps[0]]
	nw := ceilDiv(c.sampleW, 8)
	nh := ceilDiv(c.sampleH, 8)
	total := nw * nh

	var blk [64]int32
	prevFull := false
	todo := d.restartInterval

	for b := 0; b < total; b++ {
		if prevFull {
			clear(blk[:])
		} else {
			clear(blk[:32])
		}
		n, err := decodeBlockBaseline(br, c, &blk)
		if err != nil {
			return d.entropyAbort(br, scan, b, err)
		}
		if c.needed {
			d.renderBlock(c, &blk, n, b%nw, b/nw)
		}
		prevFull = n > 10

		if d.restartInterval > 0 && b != total-1 {
			todo--
			if todo == 0 {
				todo = d.restartInterval
				stop, err := d.restartBoundary(br, scan)
				if err != nil {
					return err
				}
				if stop {
					d.neutralFill(scan, b+1)
					return nil
				}
			}
		}
	}

	return d.scanTail(br)
}

// decodeBlockBaseline reads one block's DC delta and run-length coded
// AC coefficients, dequantizing into natural order. The returned
// count is one past the highest zigzag index taken by a coefficient,
// which picks the cheapest IDCT for the block.
func decodeBlockBaseline(br *bitReader, c *component, blk *[64]int32) (int, error) {
	t, err := c.dcTable.decodeSymbol(br)
	if err != nil {
		return 0, err
	}
	if t > maxDCCategory {
		return 0, fmt.Errorf("%w: DC category %d", ErrCorruptData, t)
	}
	c.dcPred += receiveExtend(br, t)
	blk[0] = c.dcPred * c.quant[0]

	n := 1
	pos := 1
	for pos < 64 {
		sym, err := c.acTable.decodeSymbol(br)
		if err != nil {
			return n, err
		}
		r := int(sym >> 4)
		s := sym & 0x0F
		if s == 0 {
			if r != 15 {
				break
			}
			pos += 16
			continue
		}
		pos += r
		if pos > 63 {
			return n, fmt.Errorf("%w: coefficient index %d", ErrCorruptData, pos)
		}
		nat := unzigzag[pos]
		blk[nat] = receiveExtend(br, s) * c.quant[nat]
		n = pos + 1
		pos++
	}
	return n, nil
}

// renderBlock reconstructs one decoded block into the component's
// sample plane, choosing the transform by how far the coefficients
// reached.
func (d *Decoder) renderBlock(c *component, blk *[64]int32, n, bx, by int) {
	rows := c.planeRows[by*8 : by*8+8]
	switch {
	case n <= 1:
		idctDCOnly(blk, rows, bx*8)
	case n <= 10:
		d.idctReduced(blk, rows, bx*8)
	default:
		d.idctFull(blk, rows, bx*8)
	}
}

// entropyAbort applies the block-error policy: strict decodes
// propagate, everything else paints the rest of the scan neutral and
// carries on with the next segment.
func (d *Decoder) entropyAbort(br *bitReader, scan *scanHeader, unit int, err error) error {
	if d.opts.Strict {
		if br.exhausted() {
			return fmt.Errorf("%w: entropy stream ended in unit %d", ErrTruncatedData, unit)
		}
		return err
	}
	d.neutralFill(scan, unit)
	return nil
}

// neutralFill paints every block from scan unit `from` onward with
// the mid-gray DC-only block.
func (d *Decoder) neutralFill(scan *scanHeader, from int) {
	fr := &d.frame
	if scan.interleaved() {
		for mcu := from; mcu < fr.mcuX*fr.mcuY; mcu++ {
			mx := mcu % fr.mcuX
			my := mcu / fr.mcuX
			for i := 0; i < scan.ncomp; i++ {
				c := fr.components[scan.comps[i]]
				if !c.needed {
					continue
				}
				for v := 0; v < c.vSample; v++ {
					for h := 0; h < c.hSample; h++ {
						rows := c.planeRows[(my*c.vSample+v)*8:]
						idctDCOnly(&neutralBlock, rows[:8], (mx*c.hSample+h)*8)
					}
				}
			}
		}
		return
	}

	c := fr.components[scan.comps[0]]
	if !c.needed {
		return
	}
	nw := ceilDiv(c.sampleW, 8)
	nh := ceilDiv(c.sampleH, 8)
	for b := from; b < nw*nh; b++ {
		rows := c.planeRows[(b/nw)*8:]
		idctDCOnly(&neutralBlock, rows[:8], (b%nw)*8)
	}
}

// restartBoundary consumes the RST marker due between restart
// intervals and clears the entropy-coder state: bit buffer, DC
// predictors and any pending end-of-band run. A non-restart marker
// means the segment ended early; it stays pending for the segment
// walk and the caller abandons the scan.
func (d *Decoder) restartBoundary(br *bitReader, scan *scanHeader) (stop bool, err error) {
	switch m := br.takeMarker(); {
	case m == 0:
		if d.opts.Strict {
			return false, fmt.Errorf("%w: expected restart marker", ErrCorruptData)
		}
		// Desynchronized interval. Reset predictors anyway so damage
		// stays local to this stretch of MCUs.
	case !isRST(m):
		if d.opts.Strict {
			return false, fmt.Errorf("%w: %s inside entropy data", ErrCorruptData, markerName(m))
		}
		br.marker = m
		return true, nil
	default:
		br.reset()
	}

	for i := 0; i < scan.ncomp; i++ {
		d.frame.components[scan.comps[i]].dcPred = 0
	}
	d.eobRun = 0
	return false, nil
}
