package jpeg

import (
	"fmt"
)

// Progressive decoding per ITU-T T.81 G.1.2. Each component owns a
// coefficient arena sized to its MCU-aligned block grid; scans mutate
// it in place, DC and AC bands separately and optionally one
// approximation bit at a time. Coefficients stay unquantized until
// the whole frame reconstructs after the final scan.

func (d *Decoder) decodeScanProgressive(br *bitReader, scan *scanHeader) error {
	if scan.ss == 0 && scan.se != 0 {
		return fmt.Errorf("%w: DC scan with spectral end %d", ErrBadProgressiveScan, scan.se)
	}
	if scan.ss > 0 && scan.ncomp != 1 {
		return fmt.Errorf("%w: AC scan over %d components", ErrBadProgressiveScan, scan.ncomp)
	}
	if scan.ss > scan.se {
		return fmt.Errorf("%w: spectral band %d..%d", ErrBadProgressiveScan, scan.ss, scan.se)
	}
	if scan.ah != 0 && scan.ah != scan.al+1 {
		return fmt.Errorf("%w: approximation bits %d/%d out of sequence", ErrBadProgressiveScan, scan.ah, scan.al)
	}
	if err := d.bindScanTables(scan); err != nil {
		return err
	}
	for i := 0; i < scan.ncomp; i++ {
		d.frame.components[scan.comps[i]].dcPred = 0
	}
	d.eobRun = 0

	if scan.interleaved() {
		return d.decodeDCInterleaved(br, scan)
	}
	return d.decodeProgSingle(br, scan)
}

// decodeDCInterleaved covers the one interleaved case progressive
// mode permits: the first or refining DC scan over several
// components.
func (d *Decoder) decodeDCInterleaved(br *bitReader, scan *scanHeader) error {
	fr := &d.frame
	todo := d.restartInterval
	total := fr.mcuX * fr.mcuY

	for mcu := 0; mcu < total; mcu++ {
		mx := mcu % fr.mcuX
		my := mcu / fr.mcuX

		for i := 0; i < scan.ncomp; i++ {
			c := fr.components[scan.comps[i]]
			for v := 0; v < c.vSample; v++ {
				for h := 0; h < c.hSample; h++ {
					bx := mx*c.hSample + h
					by := my*c.vSample + v
					blk := c.coeffs[64*(by*c.xBlocks+bx):][:64]

					var err error
					if scan.ah == 0 {
						err = decodeBlockDCFirst(br, c, blk, scan.al)
					} else {
						err = decodeBlockDCRefine(br, blk, scan.al)
					}
					if err != nil {
						return d.entropyAbortProg(br, err)
					}
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
					return nil
				}
			}
		}
	}
	return d.scanTail(br)
}

// decodeProgSingle walks one component's own block grid, which is how
// every AC scan and any non-interleaved DC scan arrives.
func (d *Decoder) decodeProgSingle(br *bitReader, scan *scanHeader) error {
	c := d.frame.components[scan.comps[0]]
	nw := ceilDiv(c.sampleW, 8)
	nh := ceilDiv(c.sampleH, 8)
	total := nw * nh
	todo := d.restartInterval

	for b := 0; b < total; b++ {
		blk := c.coeffs[64*((b/nw)*c.xBlocks+b%nw):][:64]

		var err error
		switch {
		case scan.ss == 0 && scan.ah == 0:
			err = decodeBlockDCFirst(br, c, blk, scan.al)
		case scan.ss == 0:
			err = decodeBlockDCRefine(br, blk, scan.al)
		case scan.ah == 0:
			err = d.decodeBlockACFirst(br, c, blk, scan)
		default:
			err = d.decodeBlockACRefine(br, c, blk, scan)
		}
		if err != nil {
			return d.entropyAbortProg(br, err)
		}

		if d.restartInterval > 0 && b != total-1 {
			todo--
			if todo == 0 {
				todo = d.restartInterval
				stop, err := d.restartBoundary(br, scan)
				if err != nil {
					return err
				}
				if stop {
					return nil
				}
			}
		}
	}
	return d.scanTail(br)
}

func decodeBlockDCFirst(br *bitReader, c *component, blk []int32, al int) error {
	t, err := c.dcTable.decodeSymbol(br)
	if err != nil {
		return err
	}
	if t > maxDCCategory {
		return fmt.Errorf("%w: DC category %d", ErrCorruptData, t)
	}
	c.dcPred += receiveExtend(br, t)
	blk[0] = c.dcPred << al
	return nil
}

// decodeBlockDCRefine appends one approximation bit to the DC
// coefficient. Raw bit, no Huffman table involved.
func decodeBlockDCRefine(br *bitReader, blk []int32, al int) error {
	if br.getBit() != 0 {
		blk[0] |= 1 << al
	}
	return nil
}

// decodeBlockACFirst fills the scan's spectral band for one block,
// honouring end-of-band runs that blank whole blocks across MCUs.
func (d *Decoder) decodeBlockACFirst(br *bitReader, c *component, blk []int32, scan *scanHeader) error {
	if d.eobRun > 0 {
		d.eobRun--
		return nil
	}

	for zig := scan.ss; zig <= scan.se; zig++ {
		sym, err := c.acTable.decodeSymbol(br)
		if err != nil {
			return err
		}
		r := int(sym >> 4)
		s := sym & 0x0F
		if s != 0 {
			zig += r
			if zig > scan.se {
				break
			}
			blk[unzigzag[zig]] = receiveExtend(br, s) << scan.al
		} else {
			if r != 15 {
				d.eobRun = 1<<r - 1
				if r != 0 {
					d.eobRun += int(br.getBits(r))
				}
				break
			}
			zig += 15
		}
	}
	return nil
}

// decodeBlockACRefine sends one correction bit to every already
// nonzero coefficient in the band and places newly nonzero ones,
// per T.81 G.1.2.3.
func (d *Decoder) decodeBlockACRefine(br *bitReader, c *component, blk []int32, scan *scanHeader) error {
	delta := int32(1) << scan.al
	zig := scan.ss

	if d.eobRun == 0 {
	loop:
		for ; zig <= scan.se; zig++ {
			z := int32(0)
			sym, err := c.acTable.decodeSymbol(br)
			if err != nil {
				return err
			}
			r := int(sym >> 4)
			s := sym & 0x0F

			switch s {
			case 0:
				if r != 15 {
					d.eobRun = 1 << r
					if r != 0 {
						d.eobRun |= int(br.getBits(r))
					}
					break loop
				}
				// r == 15 skips sixteen zero-history entries via the
				// walk below.
			case 1:
				z = delta
				if br.getBit() == 0 {
					z = -z
				}
			default:
				return fmt.Errorf("%w: refinement symbol %#02x", ErrCorruptData, sym)
			}

			zig = refineNonZeroes(br, blk, zig, scan.se, r, delta)
			if zig > scan.se {
				return fmt.Errorf("%w: refinement past band end", ErrCorruptData)
			}
			if z != 0 {
				blk[unzigzag[zig]] = z
			}
		}
	}

	if d.eobRun > 0 {
		d.eobRun--
		refineNonZeroes(br, blk, zig, scan.se, -1, delta)
	}
	return nil
}

// refineNonZeroes walks the band in zigzag order sending a correction
// bit to each nonzero coefficient. With nz >= 0 it stops at the
// (nz+1)th zero-history entry, the slot a newly coded coefficient
// lands in; nz < 0 walks the whole remaining band.
func refineNonZeroes(br *bitReader, blk []int32, zig, end, nz int, delta int32) int {
	for ; zig <= end; zig++ {
		u := unzigzag[zig]
		if blk[u] == 0 {
			if nz == 0 {
				break
			}
			nz--
			continue
		}
		if br.getBit() == 0 {
			continue
		}
		if blk[u] >= 0 {
			blk[u] += delta
		} else {
			blk[u] -= delta
		}
	}
	return zig
}

// entropyAbortProg abandons the current scan on an entropy error.
// Coefficients from earlier scans stay, so the frame renders from
// whatever approximation arrived.
func (d *Decoder) entropyAbortProg(br *bitReader, err error) error {
	if d.opts.Strict {
		if br.exhausted() {
			return fmt.Errorf("%w: entropy stream ended mid-scan", ErrTruncatedData)
		}
		return err
	}
	return nil
}

func (d *Decoder) scanTail(br *bitReader) error {
	if d.opts.Strict && br.consumedPadBits() > 0 {
		return fmt.Errorf("%w: entropy segment ended early", ErrTruncatedData)
	}
	return nil
}

// finishProgressive dequantizes every accumulated block and renders
// the sample planes once all scans are in.
func (d *Decoder) finishProgressive() error {
	for _, c := range d.frame.components {
		if !c.needed {
			continue
		}
		// A component no scan covered has a nil table and an all-zero
		// arena; leaving blk untouched renders it neutral.
		var blk [64]int32
		for by := 0; by < c.yBlocks; by++ {
			rows := c.planeRows[by*8 : by*8+8]
			for bx := 0; bx < c.xBlocks; bx++ {
				if c.quant != nil {
					coef := c.coeffs[64*(by*c.xBlocks+bx):][:64]
					for i := range blk {
						blk[i] = coef[i] * c.quant[i]
					}
				}
				d.idctFull(&blk, rows, bx*8)
			}
		}
	}
	return nil
}
