package jpeg

import (
	"fmt"
	"sync"
)

// Reconstruction turns the decoded sample planes into interleaved
// output pixels: subsampled components are upsampled to frame
// resolution row by row, then each row goes through the colorspace
// converter straight into the caller-visible buffer.
//
// Work is split into bands of whole MCU rows. Planes are complete and
// read-only by the time reconstruction starts, so the only sharing
// between bands is the read-only neighbor row a vertical upsample taps
// across a band edge; every band writes an exclusive range of output
// rows.

func (d *Decoder) reconstruct(out []byte) error {
	fr := &d.frame
	convert := chooseColorConvert(fr.inColor, d.opts.OutColorspace, d.wide)
	if convert == nil {
		return fmt.Errorf("%w: no conversion from %s to %s",
			ErrUnsupportedFormat, fr.inColor, d.opts.OutColorspace)
	}

	// Baseline components no scan covered hold stale plane memory;
	// they render mid-gray. Progressive arenas start zeroed, so their
	// planes come out neutral on their own.
	if !fr.progressive {
		for _, c := range fr.components {
			if c.needed && !c.scanned {
				neutralPlane(c)
			}
		}
	}

	bandRows := fr.vMax * 8
	nbands := ceilDiv(fr.height, bandRows)
	workers := min(d.opts.Workers, nbands)
	if workers <= 1 {
		d.renderBand(out, convert, 0, fr.height)
		return nil
	}

	chunk := ceilDiv(nbands, workers)
	var wg sync.WaitGroup
	for b := 0; b < nbands; b += chunk {
		y0 := b * bandRows
		y1 := min((b+chunk)*bandRows, fr.height)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.renderBand(out, convert, y0, y1)
		}()
	}
	wg.Wait()
	return nil
}

// renderBand reconstructs output rows [y0, y1). y0 sits on an MCU row
// boundary, so the two rows a vertical upsample emits always land in
// the same band and the row pair cache below never straddles bands.
func (d *Decoder) renderBand(out []byte, convert convertFunc, y0, y1 int) {
	fr := &d.frame
	rowBytes := fr.width * d.opts.OutColorspace.Channels()
	band := out[y0*rowBytes : y1*rowBytes]

	// Per-component upsample state. bufs holds the most recent kernel
	// output (one row for horizontal, a row pair for vertical kinds),
	// cached the source row it came from.
	var (
		ups     [4]upsampleFunc
		bufs    [4][]int32
		scratch [4][]int32
		cached  [4]int
	)
	for i, c := range fr.components {
		cached[i] = -1
		if !c.needed {
			continue
		}
		switch c.upKind {
		case upsampleNone:
		case upsampleH, upsampleV:
			ups[i] = chooseUpsampler(c.upKind, d.wide)
			bufs[i] = make([]int32, 2*c.sampleW)
		case upsampleHV:
			ups[i] = chooseUpsampler(c.upKind, d.wide)
			bufs[i] = make([]int32, 4*c.sampleW)
			scratch[i] = make([]int32, 2*c.sampleW)
		case upsampleGeneric:
			bufs[i] = make([]int32, fr.width)
		}
	}

	var planes [4][]int32
	for y := y0; y < y1; y++ {
		for i, c := range fr.components {
			if !c.needed {
				continue
			}
			switch c.upKind {
			case upsampleNone:
				planes[i] = c.planeRows[y][:fr.width]

			case upsampleH:
				ups[i](c.planeRows[y][:c.sampleW], nil, nil, nil, bufs[i])
				planes[i] = bufs[i][:fr.width]

			case upsampleV:
				sy := y >> 1
				if cached[i] != sy {
					cached[i] = sy
					in := c.planeRows[sy][:c.sampleW]
					near := c.planeRows[max(sy-1, 0)][:c.sampleW]
					far := c.planeRows[min(sy+1, c.sampleH-1)][:c.sampleW]
					ups[i](in, near, far, nil, bufs[i])
				}
				planes[i] = bufs[i][(y&1)*c.sampleW:][:fr.width]

			case upsampleHV:
				sy := y >> 1
				if cached[i] != sy {
					cached[i] = sy
					in := c.planeRows[sy][:c.sampleW]
					near := c.planeRows[max(sy-1, 0)][:c.sampleW]
					far := c.planeRows[min(sy+1, c.sampleH-1)][:c.sampleW]
					ups[i](in, near, far, scratch[i], bufs[i])
				}
				planes[i] = bufs[i][(y&1)*2*c.sampleW:][:fr.width]

			case upsampleGeneric:
				src := c.planeRows[y*c.vSample/fr.vMax]
				row := bufs[i]
				for x := range row {
					row[x] = src[x*c.hSample/fr.hMax]
				}
				planes[i] = row
			}
		}
		convert(&planes, band[(y-y0)*rowBytes:][:rowBytes])
	}
}

// neutralPlane paints the visible extent of a plane mid-gray.
func neutralPlane(c *component) {
	for y := 0; y < c.sampleH; y++ {
		row := c.planeRows[y][:c.sampleW]
		for x := range row {
			row[x] = 128
		}
	}
}
